package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPEmitter sends run events to an HTTP endpoint.
type HTTPEmitter struct {
	cfg          Config
	client       *http.Client
	chainTracker *ChainTracker
	backup       *FileBackup
	log          *slog.Logger
}

// NewHTTPEmitter creates a new HTTP emitter.
func NewHTTPEmitter(cfg Config) (*HTTPEmitter, error) {
	chainTracker, err := NewChainTracker(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("create chain tracker: %w", err)
	}

	backup, err := NewFileBackup(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("create file backup: %w", err)
	}

	return &HTTPEmitter{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		chainTracker: chainTracker,
		backup:       backup,
		log:          slog.With("component", "notify"),
	}, nil
}

// EmitRun sends a run event to the configured endpoint.
func (e *HTTPEmitter) EmitRun(ctx context.Context, evt *RunEvent) error {
	chainKey := evt.Run.ChainKey()

	prevHash, err := e.chainTracker.GetHead(chainKey)
	if err != nil && !errors.Is(err, ErrNoChainHead) {
		return fmt.Errorf("get chain head: %w", err)
	}

	evt.EventID = GenerateEventID()
	evt.Timestamp = time.Now().UTC()
	evt.Version = "1.0"
	evt.EventType = "roster_sync_run"
	evt.SetChainHashes(prevHash)

	e.log.Info("emitting run event",
		"owner_id", evt.Run.OwnerID,
		"run_id", evt.Run.RunID,
		"prev_hash", prevHash,
		"event_hash", evt.Chain.EventHash,
	)

	// Backup to local file always, before HTTP. HTTP POST stays the
	// primary path even if the backup fails.
	if err := e.backup.Save(evt); err != nil {
		e.log.Warn("backup failed", "error", err)
	}

	if err := e.postWithRetry(ctx, evt); err != nil {
		return fmt.Errorf("run event emit failed: %w", err)
	}

	if err := e.chainTracker.SetHead(chainKey, evt.Chain.EventHash); err != nil {
		e.log.Warn("failed to update chain head", "error", err)
	}

	return nil
}

// postWithRetry sends the event to the endpoint with retries.
func (e *HTTPEmitter) postWithRetry(ctx context.Context, evt *RunEvent) error {
	var lastErr error
	retries := 3
	delay := time.Second

	for attempt := 1; attempt <= retries; attempt++ {
		err := e.post(ctx, evt)
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < retries {
			e.log.Warn("emit attempt failed",
				"attempt", attempt, "retries", retries, "error", err, "retry_in", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", retries, lastErr)
}

// post sends a single POST request to the endpoint.
func (e *HTTPEmitter) post(ctx context.Context, evt *RunEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
}

// Close releases resources.
func (e *HTTPEmitter) Close() error {
	return nil
}
