package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trip-sync/internal/state"
)

// DefaultKey names the cache slot. Bumping it starts from an empty cache
// instead of reading data written under an older layout.
const DefaultKey = "trip-planner-storage-v3"

// Storage is the local durable slot holding the whole state tree between
// runs. One file per key lives in the data directory.
type Storage struct {
	mu   sync.Mutex
	file string
}

// NewStorage creates a storage instance for key inside dir
func NewStorage(dir, key string) *Storage {
	if key == "" {
		key = DefaultKey
	}
	return &Storage{file: filepath.Join(dir, key+".json")}
}

// Path returns the file backing this slot
func (s *Storage) Path() string {
	return s.file
}

// Load reads the cached tree. A missing or empty slot yields an empty tree.
func (s *Storage) Load() (*state.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.file)
	if errors.Is(err, os.ErrNotExist) {
		return &state.State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return &state.State{}, nil
	}

	var cached state.State
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return &cached, nil
}

// Save writes the tree to the slot
func (s *Storage) Save(snapshot *state.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := s.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, s.file); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
