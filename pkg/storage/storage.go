// Package storage is the named-blob persistence capability. Callers address
// blobs by key and get back raw bytes; missing keys and unreadable content
// both read as absent rather than failing.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Well-known keys. The ".v1" suffix versions the stored payload shape.
const (
	KeyVault         = "cryptrail.wallet.v1"
	KeyContacts      = "cryptrail.contacts.v1"
	KeyActivity      = "cryptrail.activity.v1"
	KeyTrackedTokens = "cryptrail.tracked.tokens.v1"
	KeyAuthBinding   = "cryptrail.biometric.v1"
	KeySnapshots     = "cryptrail.balance.snapshots.v1"
)

// Store reads and writes named opaque blobs.
type Store interface {
	// Get returns the blob for key, or nil when absent.
	Get(key string) []byte
	Set(key string, value []byte) error
	Remove(key string) error
}

// FileStore keeps each blob as a file inside one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	// Keys are dotted names; keep them filesystem-safe.
	return filepath.Join(s.dir, strings.ReplaceAll(key, string(os.PathSeparator), "_")+".json")
}

func (s *FileStore) Get(key string) []byte {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil
	}
	return data
}

func (s *FileStore) Set(key string, value []byte) error {
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0600); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit blob %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %s: %w", key, err)
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Get(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

func (s *MemStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]byte, len(value))
	copy(data, value)
	s.blobs[key] = data
	return nil
}

func (s *MemStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// LoadJSON decodes the blob at key into v. It reports false when the key is
// absent or the content does not parse; malformed state is treated as missing,
// never as a fatal condition.
func LoadJSON(s Store, key string, v any) bool {
	data := s.Get(key)
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

// SaveJSON encodes v and stores it at key.
func SaveJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal blob %s: %w", key, err)
	}
	return s.Set(key, data)
}
