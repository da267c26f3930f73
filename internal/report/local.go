package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalPublisher writes report artifacts to the local filesystem.
type LocalPublisher struct {
	baseDir string
	prefix  string
}

// NewLocalPublisher creates a new local filesystem publisher.
func NewLocalPublisher(baseDir, prefix string) (*LocalPublisher, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create base directory %s: %w", baseDir, err)
	}
	return &LocalPublisher{baseDir: baseDir, prefix: prefix}, nil
}

// Write stores data under key atomically using temp file + rename.
func (p *LocalPublisher) Write(ctx context.Context, key string, data []byte) error {
	path := filepath.Join(p.baseDir, p.prefix, key)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename %s to %s: %w", tempPath, path, err)
	}
	return nil
}

// URI returns the canonical URI for the given key.
func (p *LocalPublisher) URI(key string) string {
	return "file://" + filepath.Join(p.baseDir, p.prefix, key)
}

// Close is a no-op for local storage.
func (p *LocalPublisher) Close() error {
	return nil
}
