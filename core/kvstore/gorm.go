package kvstore

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the key/value table.
type Entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:191"`
	Value     string    `gorm:"column:entry_value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName pins the table name independent of naming strategy.
func (Entry) TableName() string {
	return "kv_entries"
}

// GormStore keeps entries in the kv_entries table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection. Each call issues a single
// statement, so the implicit write transaction is skipped.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db.Session(&gorm.Session{SkipDefaultTransaction: true})}
}

// Migrate creates or updates the kv_entries table.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate kv_entries: %w", err)
	}
	return nil
}

func (s *GormStore) Get(key string) (string, bool, error) {
	var entry Entry
	err := s.db.Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func upsert(db *gorm.DB, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) Set(key, value string) error {
	return upsert(s.db, key, value)
}

// SetAll upserts every pair inside one transaction, in key order.
func (s *GormStore) SetAll(values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			if err := upsert(tx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) Remove(key string) error {
	if err := s.db.Where("entry_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}
	return nil
}
