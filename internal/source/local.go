package source

import (
	"context"
	"fmt"
	"os"
)

// LocalSource reads the snapshot from the local filesystem.
type LocalSource struct {
	path string
}

// NewLocalSource creates a local snapshot source.
func NewLocalSource(path string) *LocalSource {
	return &LocalSource{path: path}
}

// Fetch reads and parses the snapshot file.
func (s *LocalSource) Fetch(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	return parseSnapshot(s.path, data)
}

// Close releases resources; a local source holds none.
func (s *LocalSource) Close() error { return nil }
