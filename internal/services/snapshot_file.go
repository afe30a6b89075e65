package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"obs-text-slides/internal/fsutil"
	"obs-text-slides/internal/models"
)

// SnapshotFile publishes the committed state as a JSON document that overlays
// without a bus connection poll.
type SnapshotFile struct {
	mu       sync.RWMutex
	filePath string
}

// NewSnapshotFile creates a publisher writing to filePath
func NewSnapshotFile(filePath string) (*SnapshotFile, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotFile{filePath: filePath}, nil
}

// Path returns the location of the published file.
func (s *SnapshotFile) Path() string {
	return s.filePath
}

// StateCommitted writes the state to disk.
func (s *SnapshotFile) StateCommitted(_ context.Context, state models.PlaylistState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fsutil.WriteFileAtomic(s.filePath, data)
}

// Read returns the last published document.
func (s *SnapshotFile) Read() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}
