package sqlitestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Setting is one persisted key/value pair
type Setting struct {
	Key       string `gorm:"column:name;primaryKey;size:64"`
	Value     string
	UpdatedAt time.Time
}

func (Setting) TableName() string {
	return "settings"
}

// Store keeps settings in a SQLite database
type Store struct {
	db *gorm.DB
}

// Open creates (or opens) the database file at path
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	return open(sqlite.Open(dsn))
}

// OpenMemory opens a private in-memory database
func OpenMemory() (*Store, error) {
	return open(sqlite.Open("file::memory:"))
}

func open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return &Store{db: db}, nil
}

// Get returns the stored value for key
func (s *Store) Get(key string) (string, bool) {
	var row Setting
	err := s.db.Where("name = ?", key).Take(&row).Error
	if err != nil {
		return "", false
	}
	return row.Value, true
}

// Set inserts or replaces the value for key
func (s *Store) Set(key, value string) error {
	if key == "" {
		return errors.New("setting key cannot be empty")
	}
	row := Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
