package notify

import (
	"context"
	"log/slog"
)

// Config configures run event emission.
type Config struct {
	Mode     string `yaml:"mode"` // "noop" | "file" | "http"
	Endpoint string `yaml:"endpoint"`
	Dir      string `yaml:"dir"` // audit directory for file backups and chain state
}

// Emitter is the interface for run event emission.
type Emitter interface {
	EmitRun(ctx context.Context, evt *RunEvent) error
	Close() error
}

// NewEmitter creates an appropriate emitter based on configuration.
func NewEmitter(cfg Config) Emitter {
	log := slog.With("component", "notify")

	switch cfg.Mode {
	case "http":
		if cfg.Endpoint == "" {
			log.Warn("http mode without endpoint, falling back to file emitter")
			return newFileFallback(cfg, log)
		}
		emitter, err := NewHTTPEmitter(cfg)
		if err != nil {
			log.Warn("failed to create HTTP emitter, falling back to file", "error", err)
			return newFileFallback(cfg, log)
		}
		log.Info("using HTTP emitter", "endpoint", cfg.Endpoint)
		return emitter
	case "file":
		return newFileFallback(cfg, log)
	default:
		log.Info("run events disabled, using no-op emitter")
		return &noopEmitter{}
	}
}

func newFileFallback(cfg Config, log *slog.Logger) Emitter {
	emitter, err := NewFileEmitter(cfg.Dir)
	if err != nil {
		log.Warn("failed to create file emitter, using no-op", "error", err)
		return &noopEmitter{}
	}
	log.Info("using file emitter", "dir", cfg.Dir)
	return emitter
}

// noopEmitter discards all events.
type noopEmitter struct{}

func (n *noopEmitter) EmitRun(_ context.Context, _ *RunEvent) error {
	return nil
}

func (n *noopEmitter) Close() error {
	return nil
}
