package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockStore(t *testing.T) (*MySQLLastBlockStore, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	store, err := NewMySQLLastBlockStoreWithDB(gormDB)
	require.NoError(t, err)
	return store, mock
}

func TestGet_NoRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `last_seen_block`").
		WillReturnRows(sqlmock.NewRows(nil))

	block, err := store.Get("ethereum")
	require.NoError(t, err)
	require.Equal(t, uint64(0), block)
}

func TestTableName(t *testing.T) {
	require.Equal(t, "last_seen_block", LastSeenBlockRecord{}.TableName())
}
