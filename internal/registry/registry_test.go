package registry

import (
	"testing"

	"github.com/7suyash7/arbengine/pool"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockRegistry(t *testing.T) (*MySQLRegistry, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `pool_registry`").WillReturnRows(sqlmock.NewRows(nil))

	r, err := NewMySQLRegistryWithDB(gormDB)
	require.NoError(t, err)
	return r, mock
}

func TestRegister_V2Pool(t *testing.T) {
	r, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `pool_registry`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	addr := common.HexToAddress("0xAAA")
	p := &pool.V2Pool{Addr: addr, FeeBps: 30}

	require.NoError(t, r.Register(p))
	require.NoError(t, mock.ExpectationsWereMet())

	got, ok := r.Lookup(addr)
	require.True(t, ok)
	require.Equal(t, addr, got.Address())
	require.Len(t, r.All(), 1)
}

func TestRegister_IsWriteOnce(t *testing.T) {
	r, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `pool_registry`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	addr := common.HexToAddress("0xBBB")
	require.NoError(t, r.Register(&pool.V2Pool{Addr: addr, FeeBps: 30}))
	// Second Register of the same address must not issue a second INSERT.
	require.NoError(t, r.Register(&pool.V2Pool{Addr: addr, FeeBps: 99}))
	require.NoError(t, mock.ExpectationsWereMet())

	got, _ := r.Lookup(addr)
	require.Equal(t, uint64(30), got.(*pool.V2Pool).FeeBps)
}

func TestLookup_Missing(t *testing.T) {
	r, _ := newMockRegistry(t)
	_, ok := r.Lookup(common.HexToAddress("0xCCC"))
	require.False(t, ok)
}
