package settings

import (
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (setting) TableName() string { return "settings" }

// SQLStore stores settings in a SQLite database.
type SQLStore struct {
	db *gorm.DB

	mu     sync.Mutex
	values map[string]string
	dirty  map[string]struct{}
}

var _ Store = (*SQLStore)(nil)

// OpenSQLStore opens or creates the SQLite database at path and loads all
// settings from it.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	if err := db.AutoMigrate(&setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate settings database: %w", err)
	}

	var rows []setting
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s := &SQLStore{
		db:     db,
		values: make(map[string]string, len(rows)),
		dirty:  make(map[string]struct{}),
	}
	for _, row := range rows {
		s.values[row.Key] = row.Value
	}

	return s, nil
}

func (s *SQLStore) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.values[key]
}

func (s *SQLStore) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidSetting)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.dirty[key] = struct{}{}
	return nil
}

// Store upserts every setting changed since the last Store in a single
// transaction.
func (s *SQLStore) Store() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dirty) == 0 {
		return nil
	}

	rows := make([]setting, 0, len(s.dirty))
	for key := range s.dirty {
		rows = append(rows, setting{Key: key, Value: s.values[key]})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&rows).
			Error
	})
	if err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}

	clear(s.dirty)
	return nil
}

func (s *SQLStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
