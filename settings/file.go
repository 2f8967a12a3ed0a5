package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// maxFileSize is the largest settings file that is read.
const maxFileSize = 512

// FileStore stores settings in a text file of "key:value" lines.
type FileStore struct {
	path string

	mu     sync.Mutex
	keys   []string
	values map[string]string
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads the settings file at path. A missing file is treated
// as empty and is created on the first Store.
//
// Only the first 512 bytes are read, and a final line without a newline is
// ignored. If a line is malformed, the settings before it are kept and the
// file is removed.
func OpenFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &FileStore{
		path:   path,
		values: make(map[string]string),
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if len(b) > maxFileSize {
		b = b[:maxFileSize]
	}

	if err := s.parse(b, logger); err != nil {
		logger.Warn(
			"removing bad settings file",
			"path", path,
			"err", err)

		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Error(
				"failed to remove bad settings file",
				"path", path,
				"err", err)
		}
	}

	return s, nil
}

func (s *FileStore) parse(b []byte, logger *slog.Logger) error {
	for line := 1; len(b) > 0; line++ {
		text, rest, ok := bytes.Cut(b, []byte("\n"))
		if !ok {
			logger.Debug(
				"ignoring unterminated settings line",
				"line", line,
				"text", string(text))
			break
		}
		b = rest

		if len(text) == 0 {
			continue
		}

		key, value, ok := strings.Cut(string(text), ":")
		if !ok || key == "" {
			return fmt.Errorf("line %d: %w: %q", line, ErrInvalidSetting, text)
		}

		s.set(key, value)
	}
	return nil
}

func (s *FileStore) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.values[key]
}

func (s *FileStore) Set(key, value string) error {
	if key == "" || strings.ContainsAny(key, ":\n") || strings.Contains(value, "\n") {
		return fmt.Errorf("%w: %q", ErrInvalidSetting, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.set(key, value)
	return nil
}

func (s *FileStore) set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Store writes the settings file, replacing it atomically.
func (s *FileStore) Store() error {
	s.mu.Lock()
	var buf bytes.Buffer
	for _, key := range s.keys {
		fmt.Fprintf(&buf, "%s:%s\n", key, s.values[key])
	}
	s.mu.Unlock()

	if buf.Len() > maxFileSize {
		return fmt.Errorf("settings exceed %d bytes", maxFileSize)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*")
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	return nil
}

func (s *FileStore) Close() error { return nil }
