package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crewdeck/roster-sync/internal/config"
	"github.com/crewdeck/roster-sync/internal/export"
	"github.com/crewdeck/roster-sync/internal/flighttime"
	"github.com/crewdeck/roster-sync/internal/logging"
	"github.com/crewdeck/roster-sync/internal/metrics"
	"github.com/crewdeck/roster-sync/internal/notify"
	"github.com/crewdeck/roster-sync/internal/pipeline"
	"github.com/crewdeck/roster-sync/internal/report"
	"github.com/crewdeck/roster-sync/internal/runlock"
	"github.com/crewdeck/roster-sync/internal/source"
	"github.com/crewdeck/roster-sync/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging)
	log := slog.With("component", "main")
	log.Info("roster-sync starting", "version", pipeline.Version, "git_sha", pipeline.GitSHA)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown handler
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		log.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if cfg.Metrics.Addr != "" {
		metrics.Init("roster_sync")
		go func() {
			log.Info("metrics server listening", "addr", cfg.Metrics.Addr)
			if err := metrics.StartServer(cfg.Metrics.Addr); err != nil {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	if err := run(ctx, cfg, log); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown complete")
			return
		}
		log.Error("roster-sync failed", "error", err)
		os.Exit(1)
	}

	log.Info("roster-sync stopped cleanly")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	lock, err := runlock.New(cfg.Lock)
	if err != nil {
		return fmt.Errorf("create run lock: %w", err)
	}
	if err := lock.Acquire(); err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			return fmt.Errorf("refusing to start: %w", err)
		}
		return fmt.Errorf("acquire run lock: %w", err)
	}
	defer lock.Release()

	src, err := source.New(cfg.Source)
	if err != nil {
		return fmt.Errorf("create snapshot source: %w", err)
	}
	defer src.Close()

	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("create roster store: %w", err)
	}
	defer st.Close()

	pub, err := report.New(cfg.Report)
	if err != nil {
		return fmt.Errorf("create report publisher: %w", err)
	}
	defer pub.Close()

	var exporter *export.Exporter
	if cfg.Export.Dir != "" {
		exporter, err = export.New(cfg.Export)
		if err != nil {
			return fmt.Errorf("create logbook exporter: %w", err)
		}
	}

	emitter := notify.NewEmitter(cfg.Notify)
	defer emitter.Close()

	window, err := flighttime.ParseWindow(cfg.Night.Start, cfg.Night.End)
	if err != nil {
		return fmt.Errorf("parse night window: %w", err)
	}

	p := pipeline.New(src, st, pub, exporter, emitter,
		flighttime.NewEngine(window),
		pipeline.Identity{
			OwnerID:        cfg.Identity.OwnerID,
			AdminID:        cfg.Identity.AdminID,
			SourceUserName: cfg.Identity.SourceUserName,
		})

	owner := cfg.Identity.OwnerID
	if cfg.Run.Interval <= 0 {
		return runOnce(ctx, p, lock, owner)
	}
	return runInterval(ctx, p, lock, owner, cfg.Run.Interval, log)
}

// runOnce performs a single sync run.
func runOnce(ctx context.Context, p *pipeline.Pipeline, lock *runlock.Lock, owner string) error {
	summary, err := p.Run(ctx)
	if err != nil {
		if m := metrics.Get(); m != nil {
			m.IncRunsFailed(owner)
		}
		return err
	}
	saveLastRun(lock, owner, summary)
	return nil
}

// runInterval repeats sync runs until the context is cancelled. A
// failed run is logged and retried on the next tick.
func runInterval(ctx context.Context, p *pipeline.Pipeline, lock *runlock.Lock,
	owner string, interval time.Duration, log *slog.Logger) error {
	log.Info("running in interval mode", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		summary, err := p.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("sync run failed", "error", err)
			if m := metrics.Get(); m != nil {
				m.IncRunsFailed(owner)
			}
		} else {
			saveLastRun(lock, owner, summary)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// saveLastRun persists the run outcome; state write failures are not
// fatal.
func saveLastRun(lock *runlock.Lock, owner string, s *pipeline.RunSummary) {
	if s == nil {
		return
	}
	err := lock.SaveLastRun(&runlock.LastRun{
		RunID:       s.RunID,
		OwnerID:     owner,
		ScrapeDate:  s.ScrapeDate,
		CompletedAt: time.Now().UTC(),
		Records:     s.Records,
		Inserted:    s.Inserted,
		Updated:     s.Updated,
		Deleted:     s.Deleted,
		Skipped:     s.Skipped,
		Flagged:     s.Flagged,
		Failed:      s.Failed,
	})
	if err != nil {
		slog.Warn("failed to save last run state", "error", err)
	}
}
