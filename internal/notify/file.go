package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileBackup saves run events to local files for backup/audit.
type FileBackup struct {
	dir string
	log *slog.Logger
}

// NewFileBackup creates a new file backup handler.
func NewFileBackup(dir string) (*FileBackup, error) {
	if dir == "" {
		dir = "./run-events"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	return &FileBackup{dir: dir, log: slog.With("component", "notify")}, nil
}

// Save writes a run event to a local JSON file.
func (f *FileBackup) Save(evt *RunEvent) error {
	// Filename: {owner}_{run_id}.json
	filename := fmt.Sprintf("%s_%s.json", evt.Run.OwnerID, evt.Run.RunID)
	path := filepath.Join(f.dir, filename)

	data, err := json.MarshalIndent(evt, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	f.log.Debug("backed up run event", "path", path)
	return nil
}

// FileEmitter writes events to files only (no HTTP).
// Used when no endpoint is available.
type FileEmitter struct {
	chainTracker *ChainTracker
	backup       *FileBackup
	log          *slog.Logger
}

// NewFileEmitter creates an emitter that only writes to local files.
func NewFileEmitter(dir string) (*FileEmitter, error) {
	chainTracker, err := NewChainTracker(dir)
	if err != nil {
		return nil, fmt.Errorf("create chain tracker: %w", err)
	}

	backup, err := NewFileBackup(dir)
	if err != nil {
		return nil, fmt.Errorf("create file backup: %w", err)
	}

	return &FileEmitter{
		chainTracker: chainTracker,
		backup:       backup,
		log:          slog.With("component", "notify"),
	}, nil
}

// EmitRun writes a run event to local file only.
func (e *FileEmitter) EmitRun(ctx context.Context, evt *RunEvent) error {
	chainKey := evt.Run.ChainKey()

	prevHash, _ := e.chainTracker.GetHead(chainKey)

	evt.EventID = GenerateEventID()
	evt.Version = "1.0"
	evt.EventType = "roster_sync_run"
	evt.SetChainHashes(prevHash)

	e.log.Info("file emit",
		"owner_id", evt.Run.OwnerID,
		"run_id", evt.Run.RunID,
		"event_hash", evt.Chain.EventHash,
	)

	if err := e.backup.Save(evt); err != nil {
		return err
	}

	if err := e.chainTracker.SetHead(chainKey, evt.Chain.EventHash); err != nil {
		e.log.Warn("failed to update chain head", "error", err)
	}

	return nil
}

// Close releases resources.
func (e *FileEmitter) Close() error {
	return nil
}
