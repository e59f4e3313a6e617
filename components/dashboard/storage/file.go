// Package storage provides dashboard.KeyValueStore backends.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

const fileExt = ".json"

// FileStore keeps each key in <dir>/<key>.json. Writes go through a temp file and a rename so
// readers never observe a partial document.
type FileStore struct {
	dir    string
	logger *zap.Logger

	mu      sync.Mutex
	written map[string][]byte
}

var _ dashboard.KeyValueStore = (*FileStore)(nil)

// NewFileStore creates dir if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage: file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger, written: map[string][]byte{}}, nil
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file holding key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, encodeKey(key)+fileExt)
}

// Get implements dashboard.KeyValueStore.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, true, nil
}

// Set implements dashboard.KeyValueStore.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: replace %s: %w", key, err)
	}
	s.written[key] = append([]byte(nil), value...)
	return nil
}

// Keys lists every stored key.
func (s *FileStore) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", s.dir, err)
	}
	var keys []string
	for _, entry := range entries {
		if key, ok := keyFromFile(entry.Name()); ok && !entry.IsDir() {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// isOwnWrite reports whether the file content for key equals the last value this store wrote.
func (s *FileStore) isOwnWrite(key string) bool {
	s.mu.Lock()
	last, ok := s.written[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	current, err := os.ReadFile(s.Path(key))
	if err != nil {
		return false
	}
	return bytes.Equal(current, last)
}

// encodeKey percent-encodes every byte outside [A-Za-z0-9._-] so scoped keys stay valid
// file names.
func encodeKey(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		case c == '.' && i > 0:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func keyFromFile(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
	if err != nil {
		return "", false
	}
	return key, true
}
