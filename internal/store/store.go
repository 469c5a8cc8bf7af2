// Package store persists session records so transport loss and process
// restarts never lose draft state.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("session record not found")

// Record is one session's durable state. State is the JSON-encoded
// engine state.
type Record struct {
	ID          string `gorm:"primaryKey"`
	Status      string
	State       []byte
	CompletedAt *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}

// DB is the gorm-backed store. Postgres in production, a sqlite file for
// local development; the driver is picked from the DSN.
type DB struct {
	db *gorm.DB
}

func Open(dsn string) (*DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Save(ctx context.Context, rec Record) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
}

func (d *DB) Load(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := d.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (d *DB) Delete(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Delete(&Record{}, "id = ?", id).Error
}

// Memory is an in-process store for tests.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemory() *Memory {
	return &Memory{recs: make(map[string]Record)}
}

func (m *Memory) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.UpdatedAt = time.Now()
	m.recs[rec.ID] = rec
	return nil
}

func (m *Memory) Load(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}
