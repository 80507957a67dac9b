package msauth

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the serialized token cache between runs. The storage medium
// is a collaborator, not a concern of the manager: Save(nil) clears the
// cache, Load returns (nil, nil) when no cache exists.
type Store interface {
	Save(blob []byte) error
	Load() ([]byte, error)
}

// FileStore keeps the token cache in a file under the user cache directory,
// created with owner-only permissions.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at
// <user-cache-dir>/outlook-mail-reader/graph.token.
func NewFileStore() (*FileStore, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine user cache directory: %w", err)
	}
	return &FileStore{
		path: filepath.Join(base, "outlook-mail-reader", "graph.token"),
	}, nil
}

// NewFileStoreAt creates a file-backed store at an explicit path.
func NewFileStoreAt(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the token cache file.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the blob to disk. A nil or empty blob removes the cache file.
func (s *FileStore) Save(blob []byte) error {
	if len(blob) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove token cache: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(s.path, blob, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Load reads the cached blob, or returns (nil, nil) when none exists.
func (s *FileStore) Load() ([]byte, error) {
	blob, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}
	return blob, nil
}

// MemStore is an in-memory Store, useful for tests and for embedding callers
// that manage persistence themselves.
type MemStore struct {
	mu   sync.Mutex
	blob []byte
}

// Save stores a copy of the blob; nil clears it.
func (s *MemStore) Save(blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(blob) == 0 {
		s.blob = nil
		return nil
	}
	s.blob = append([]byte(nil), blob...)
	return nil
}

// Load returns the stored blob, or (nil, nil) when empty.
func (s *MemStore) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, nil
	}
	return append([]byte(nil), s.blob...), nil
}
