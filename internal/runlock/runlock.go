// Package runlock prevents concurrent sync runs and records the state
// of the last completed run.
package runlock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrLocked is returned when another run holds the lock.
	ErrLocked = errors.New("another run holds the lock")

	// ErrNoLastRun is returned when no run has completed yet.
	ErrNoLastRun = errors.New("no last run state found")
)

// LastRun records the outcome of the most recent completed run.
type LastRun struct {
	RunID       string    `json:"run_id"`
	OwnerID     string    `json:"owner_id"`
	ScrapeDate  time.Time `json:"scrape_date"`
	CompletedAt time.Time `json:"completed_at"`
	Records     int       `json:"records"`
	Inserted    int       `json:"inserted"`
	Updated     int       `json:"updated"`
	Deleted     int       `json:"deleted"`
	Skipped     int       `json:"skipped"`
	Flagged     int       `json:"flagged"`
	Failed      int       `json:"failed"`
}

// Config configures the run lock directory.
type Config struct {
	Dir string `yaml:"dir"`
}

// Lock guards a state directory against concurrent runs.
type Lock struct {
	dir      string
	lockPath string
	held     bool
}

// New prepares a lock rooted at the configured directory.
func New(cfg Config) (*Lock, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "./state"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", dir, err)
	}
	return &Lock{
		dir:      dir,
		lockPath: filepath.Join(dir, "run.lock"),
	}, nil
}

// Acquire takes the lock, failing with ErrLocked if another process
// holds it. The lock file records the holder's pid for diagnostics.
func (l *Lock) Acquire() error {
	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrLocked, l.lockPath)
		}
		return fmt.Errorf("create lock file: %w", err)
	}
	fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := f.Close(); err != nil {
		os.Remove(l.lockPath)
		return fmt.Errorf("close lock file: %w", err)
	}
	l.held = true
	return nil
}

// Release drops the lock. Safe to call when not held.
func (l *Lock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func (l *Lock) statePath() string {
	return filepath.Join(l.dir, "last-run.json")
}

// LoadLastRun reads the last completed run state.
func (l *Lock) LoadLastRun() (*LastRun, error) {
	data, err := os.ReadFile(l.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoLastRun
		}
		return nil, fmt.Errorf("read last run state: %w", err)
	}

	var lr LastRun
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("parse last run state: %w", err)
	}
	return &lr, nil
}

// SaveLastRun persists the run state atomically.
func (l *Lock) SaveLastRun(lr *LastRun) error {
	data, err := json.MarshalIndent(lr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal last run state: %w", err)
	}

	path := l.statePath()
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write last run temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename last run file: %w", err)
	}
	return nil
}
