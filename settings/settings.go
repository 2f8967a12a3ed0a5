// Package settings persists small key/value settings across restarts.
package settings

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a key/value settings store. Set only changes the in-memory view;
// Store writes it out.
type Store interface {
	// Get returns the value for key, or an empty string if it is not set.
	Get(key string) string
	// Set sets the value for key.
	Set(key, value string) error
	// Store persists all settings.
	Store() error
	// Close releases the store.
	Close() error
}

// ErrInvalidSetting is returned when a key or value cannot be stored.
var ErrInvalidSetting = errors.New("invalid setting")

// Open opens the store at path. Paths ending in .db, .sqlite or .sqlite3 are
// opened as SQLite databases; anything else as a settings file. An empty
// path gives a store that is never persisted.
func Open(path string, logger *slog.Logger) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLStore(path)
	default:
		return OpenFileStore(path, logger)
	}
}

// MemoryStore is a Store that keeps settings in memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.values[key]
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

func (s *MemoryStore) Store() error { return nil }

func (s *MemoryStore) Close() error { return nil }
