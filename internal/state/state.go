// Package state provides the client's persistent local key-value state:
// auth tokens, the cached user profile, and the guest cart session id.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
)

// Well-known state keys. The names mirror the storage keys the backend's
// web clients use, so a shared backend sees consistent clients.
const (
	KeyAccessToken   = "accessToken"
	KeyRefreshToken  = "refreshToken"
	KeyUser          = "user"
	KeyCartSessionID = "cart_session_id"
)

// Store is a string key-value store with write-through persistence.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// FileStore persists state as a single JSON object on disk. All mutations
// rewrite the file, so crash recovery never sees a partial state.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// OpenFile loads (or lazily creates) the state file at path.
func OpenFile(path string) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		values: make(map[string]string),
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read state file")
	}
	if err := json.Unmarshal(b, &s.values); err != nil {
		return nil, errors.Wrap(err, "decode state file")
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and flushes to disk.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Delete removes key and flushes to disk. Deleting an absent key is a no-op.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "create state dir")
	}
	b, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode state")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return errors.Wrap(err, "write state file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "replace state file")
	}
	return nil
}

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMem creates an empty MemStore.
func NewMem() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
