package client

import (
	"fmt"
	"sync"

	"dine-in-ordering/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Keys used in a TokenStore.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "userId"
	KeyUserType     = "userType"
	KeyLocale       = "locale"
)

// sessionKeys are wiped when a session ends.
var sessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUserID, KeyUserType}

// TokenStore is the device-local key/value store holding credentials and
// preferences. Get returns "" for a missing key.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// MemoryTokenStore keeps values in process memory.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{values: map[string]string{}}
}

func (s *MemoryTokenStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryTokenStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryTokenStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// storedValue is one row of the on-device store.
type storedValue struct {
	Key   string `gorm:"column:name;primaryKey"`
	Value string `gorm:"not null"`
}

func (storedValue) TableName() string { return "secure_store" }

// DBTokenStore persists values in a sqlite database so a session survives
// restarts.
type DBTokenStore struct {
	db *gorm.DB
}

// NewDBTokenStore uses db, creating the backing table when needed.
func NewDBTokenStore(db *gorm.DB) (*DBTokenStore, error) {
	if err := db.AutoMigrate(&storedValue{}); err != nil {
		return nil, fmt.Errorf("migrate token store: %w", err)
	}
	return &DBTokenStore{db: db}, nil
}

// OpenDBTokenStore opens (or creates) a sqlite file at path.
func OpenDBTokenStore(path string) (*DBTokenStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.NewGorm(zap.L()),
	})
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	return NewDBTokenStore(db)
}

func (s *DBTokenStore) Get(key string) (string, error) {
	var v storedValue
	if err := s.db.Where("name = ?", key).Limit(1).Find(&v).Error; err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v.Value, nil
}

func (s *DBTokenStore) Set(key, value string) error {
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&storedValue{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *DBTokenStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.Where("name IN ?", keys).Delete(&storedValue{}).Error; err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}
