// Package config loads the roster-sync configuration from a YAML file
// with environment variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/crewdeck/roster-sync/internal/export"
	"github.com/crewdeck/roster-sync/internal/logging"
	"github.com/crewdeck/roster-sync/internal/metrics"
	"github.com/crewdeck/roster-sync/internal/notify"
	"github.com/crewdeck/roster-sync/internal/report"
	"github.com/crewdeck/roster-sync/internal/runlock"
	"github.com/crewdeck/roster-sync/internal/source"
	"github.com/crewdeck/roster-sync/internal/store"
)

// Config is the full roster-sync configuration tree.
type Config struct {
	Identity IdentityConfig `yaml:"identity"`
	Night    NightConfig    `yaml:"night"`
	Run      RunConfig      `yaml:"run"`
	Source   source.Config  `yaml:"source"`
	Store    store.Config   `yaml:"store"`
	Report   report.Config  `yaml:"report"`
	Export   export.Config  `yaml:"export"`
	Notify   notify.Config  `yaml:"notify"`
	Metrics  metrics.Config `yaml:"metrics"`
	Lock     runlock.Config `yaml:"lock"`
	Logging  logging.Config `yaml:"logging"`
}

// IdentityConfig stamps ownership onto every reconciled entry.
type IdentityConfig struct {
	OwnerID        string `yaml:"owner_id"`
	AdminID        string `yaml:"admin_id"`
	SourceUserName string `yaml:"source_user_name"`
}

// NightConfig bounds the night-time window in UTC HH:MM.
type NightConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// RunConfig controls run scheduling. A zero interval means one shot.
type RunConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Night: NightConfig{Start: "22:00", End: "06:00"},
		Source: source.Config{
			Mode: "local",
			Path: "./data/roster.json",
		},
		Report: report.Config{
			Backend:  "local",
			LocalDir: "./reports",
		},
		Export: export.Config{
			Dir: "./exports",
		},
		Notify: notify.Config{
			Mode: "noop",
		},
		Metrics: metrics.Config{
			Addr: "",
		},
		Lock: runlock.Config{
			Dir: "./state",
		},
		Logging: logging.Config{
			Format: "json",
			Level:  "info",
		},
	}
}

// Load reads configuration from path, falling back to defaults when the
// path is empty, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Secrets and
// per-deployment identities usually arrive this way.
func applyEnv(cfg *Config) {
	setenv(&cfg.Identity.OwnerID, "ROSTER_OWNER_ID")
	setenv(&cfg.Identity.AdminID, "ROSTER_ADMIN_ID")
	setenv(&cfg.Identity.SourceUserName, "ROSTER_SOURCE_USER")
	setenv(&cfg.Store.DSN, "ROSTER_DSN")
	setenv(&cfg.Source.Mode, "ROSTER_SOURCE_MODE")
	setenv(&cfg.Source.Path, "ROSTER_SOURCE_PATH")
	setenv(&cfg.Source.Bucket, "ROSTER_SOURCE_BUCKET")
	setenv(&cfg.Source.Key, "ROSTER_SOURCE_KEY")
	setenv(&cfg.Notify.Endpoint, "ROSTER_NOTIFY_ENDPOINT")
	setenv(&cfg.Metrics.Addr, "ROSTER_METRICS_ADDR")
	setenv(&cfg.Logging.Level, "ROSTER_LOG_LEVEL")

	if v := os.Getenv("ROSTER_RUN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Run.Interval = d
		}
	}
}

func (c Config) validate() error {
	if c.Identity.OwnerID == "" {
		return fmt.Errorf("identity.owner_id is required")
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}
	if c.Night.Start == "" || c.Night.End == "" {
		return fmt.Errorf("night.start and night.end are required")
	}
	return nil
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
