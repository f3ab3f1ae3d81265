// Package db is the persistence collaborator's key-value half: tracking
// last_seen_block, following the teacher's internal/db/
// transaction_recorder.go shape (GORM model, TableName, NewMySQLRecorder
// constructor) one-to-one, repurposed for a single scalar row instead of
// an append-only asset-snapshot log.
package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// LastSeenBlockRecord is the single-row GORM model tracking the last block
// the engine successfully ticked against.
type LastSeenBlockRecord struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	Chain string `gorm:"size:32;uniqueIndex;not null"`
	Block uint64 `gorm:"not null"`
}

func (LastSeenBlockRecord) TableName() string { return "last_seen_block" }

// LastBlockStore is the persistence collaborator's key-value surface named
// in spec §6.
type LastBlockStore interface {
	Get(chain string) (uint64, error)
	Set(chain string, block uint64) error
}

// MySQLLastBlockStore implements LastBlockStore with GORM/MySQL.
type MySQLLastBlockStore struct {
	db *gorm.DB
}

// NewMySQLLastBlockStore dials dsn and auto-migrates the schema.
func NewMySQLLastBlockStore(dsn string) (*MySQLLastBlockStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	return newMySQLLastBlockStore(db)
}

// NewMySQLLastBlockStoreWithDB wires the store around an existing GORM
// handle, used by tests against sqlmock.
func NewMySQLLastBlockStoreWithDB(db *gorm.DB) (*MySQLLastBlockStore, error) {
	return newMySQLLastBlockStore(db)
}

func newMySQLLastBlockStore(db *gorm.DB) (*MySQLLastBlockStore, error) {
	if err := db.AutoMigrate(&LastSeenBlockRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &MySQLLastBlockStore{db: db}, nil
}

// Get returns the last recorded block for chain, or (0, nil) if no row
// exists yet — a cold start, not an error.
func (s *MySQLLastBlockStore) Get(chain string) (uint64, error) {
	var rec LastSeenBlockRecord
	result := s.db.Where("chain = ?", chain).First(&rec)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get last seen block for %s: %w", chain, result.Error)
	}
	return rec.Block, nil
}

// Set upserts the last-seen block for chain. Per spec §7's LateUpdate
// error kind, callers are expected to check the current value with Get
// before calling Set with an out-of-order block; Set itself just writes.
func (s *MySQLLastBlockStore) Set(chain string, block uint64) error {
	rec := LastSeenBlockRecord{Chain: chain, Block: block}
	result := s.db.Where("chain = ?", chain).Assign(LastSeenBlockRecord{Block: block}).FirstOrCreate(&rec)
	if result.Error != nil {
		return fmt.Errorf("failed to set last seen block for %s: %w", chain, result.Error)
	}
	return nil
}

var _ LastBlockStore = (*MySQLLastBlockStore)(nil)
