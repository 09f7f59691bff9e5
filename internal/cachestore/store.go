// Package cachestore provides durable TTL-aware key/value persistence.
//
// Records are grouped into namespaces, one JSON file per namespace. Every
// access is a read-modify-write against the file, so no stale in-memory
// state survives between calls. Expiry is checked at read time via
// Record.Valid; records are never deleted on expiry, only overwritten on
// refresh.
package cachestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists raw records keyed by (namespace, key). Safe for
// concurrent use within one process; no cross-process locking is
// performed, last writer wins.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get returns the raw record stored under (namespace, key), if any.
func (s *Store) Get(namespace, key string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(namespace)
	if err != nil {
		return nil, false, err
	}
	raw, ok := data[key]
	return raw, ok, nil
}

// Set stores the raw record under (namespace, key), overwriting any
// previous record for the same key.
func (s *Store) Set(namespace, key string, raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(namespace)
	if err != nil {
		return err
	}
	data[key] = raw
	return s.write(namespace, data)
}

// Delete removes the record stored under (namespace, key). Deleting a
// missing key is a no-op.
func (s *Store) Delete(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(namespace)
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return s.write(namespace, data)
}

func (s *Store) filePath(namespace string) string {
	return filepath.Join(s.dir, namespace+".json")
}

func (s *Store) load(namespace string) (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(s.filePath(namespace))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("failed to read cache file for %s: %w", namespace, err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse cache file for %s: %w", namespace, err)
	}
	if data == nil {
		data = map[string]json.RawMessage{}
	}
	return data, nil
}

func (s *Store) write(namespace string, data map[string]json.RawMessage) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data for %s: %w", namespace, err)
	}

	// Write to a temporary file first so the rename is atomic.
	path := s.filePath(namespace)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write temporary cache file for %s: %w", namespace, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file for %s: %w", namespace, err)
	}
	return nil
}
