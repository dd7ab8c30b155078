package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStorage is a persistent string key/value store backed by a JSON file.
// Every Set writes the file through.
type LocalStorage struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// GetStoragePath returns the path to the storage file
func GetStoragePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "storage.json"), nil
}

// OpenLocalStorage opens the default storage file under the config dir.
func OpenLocalStorage() (*LocalStorage, error) {
	path, err := GetStoragePath()
	if err != nil {
		return nil, err
	}
	return NewLocalStorage(path)
}

// NewLocalStorage loads the store at path. A missing file yields an empty store.
// A corrupt file is reported and the store starts empty.
func NewLocalStorage(path string) (*LocalStorage, error) {
	s := &LocalStorage{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read storage file: %w", err)
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		s.values = map[string]string{}
		return s, fmt.Errorf("failed to parse storage file: %w", err)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *LocalStorage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and persists the store.
func (s *LocalStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// Remove deletes key and persists the store.
func (s *LocalStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.flushLocked()
}

func (s *LocalStorage) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	return nil
}
