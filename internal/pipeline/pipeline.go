// Package pipeline orchestrates one sync run: fetch the snapshot, map
// and dedupe it, enrich with computed times, reconcile against the
// store, then publish reports, exports, and the run event.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crewdeck/roster-sync/internal/export"
	"github.com/crewdeck/roster-sync/internal/flighttime"
	"github.com/crewdeck/roster-sync/internal/logging"
	"github.com/crewdeck/roster-sync/internal/metrics"
	"github.com/crewdeck/roster-sync/internal/notify"
	"github.com/crewdeck/roster-sync/internal/reconcile"
	"github.com/crewdeck/roster-sync/internal/report"
	"github.com/crewdeck/roster-sync/internal/roster"
	"github.com/crewdeck/roster-sync/internal/schema"
	"github.com/crewdeck/roster-sync/internal/source"
)

// Version information (set via ldflags)
var (
	Version = "v0.1.0"
	GitSHA  = "unknown"
)

// Identity stamps ownership onto every reconciled entry.
type Identity struct {
	OwnerID        string
	AdminID        string
	SourceUserName string
}

// Pipeline runs the sync end to end.
type Pipeline struct {
	src      source.SnapshotSource
	store    reconcile.Store
	pub      report.Publisher
	exporter *export.Exporter
	emitter  notify.Emitter
	engine   *flighttime.Engine
	identity Identity
	log      *slog.Logger
}

// New assembles a pipeline from its collaborators. The exporter and
// emitter may be nil and no-op respectively when those stages are
// disabled.
func New(src source.SnapshotSource, st reconcile.Store, pub report.Publisher,
	exporter *export.Exporter, emitter notify.Emitter,
	engine *flighttime.Engine, identity Identity) *Pipeline {
	return &Pipeline{
		src:      src,
		store:    st,
		pub:      pub,
		exporter: exporter,
		emitter:  emitter,
		engine:   engine,
		identity: identity,
		log:      slog.With("component", "pipeline"),
	}
}

// RunSummary aggregates the outcome of one run.
type RunSummary struct {
	RunID      string
	ScrapeDate time.Time
	StartedAt  time.Time
	Duration   time.Duration
	RowsMapped int
	RowsDedup  int
	reconcile.Summary
}

// Run executes one sync run.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	runID := logging.GenerateRunID()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.RunLogger(runID, p.identity.OwnerID)
	startedAt := time.Now()

	snap, err := p.src.Fetch(ctx)
	if err != nil {
		if m := metrics.Get(); m != nil {
			m.IncSourceErrors(p.identity.OwnerID, "fetch")
		}
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	log.Info("fetched snapshot", "rows", len(snap.Rows), "scrape_date", snap.ScrapeDate)

	mapper, err := schema.NewMapper(snap.Header)
	if err != nil {
		return nil, fmt.Errorf("build schema mapper: %w", err)
	}

	mapped := mapper.MapRows(snap.Rows)
	records := roster.Deduplicate(mapped)
	deduped := len(mapped) - len(records)
	if deduped > 0 {
		log.Info("removed duplicate rows", "count", deduped)
	}

	enriched := p.enrich(records, snap.ScrapeDate)

	engine := reconcile.New(p.store)
	result, err := engine.Reconcile(ctx, enriched)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	summary := &RunSummary{
		RunID:      runID,
		ScrapeDate: snap.ScrapeDate,
		StartedAt:  startedAt,
		RowsMapped: len(mapped),
		RowsDedup:  deduped,
		Summary:    result.Summary,
	}

	p.publishArtifacts(ctx, log, records, enriched, snap.ScrapeDate)
	p.emitRunEvent(ctx, log, summary)
	p.recordMetrics(summary)

	summary.Duration = time.Since(startedAt)
	log.Info("run complete",
		"records", summary.Records,
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"deleted", summary.Deleted,
		"skipped", summary.Skipped,
		"flagged", summary.Flagged,
		"failed", summary.Failed,
		"duration", summary.Duration.String(),
	)
	return summary, nil
}

// enrich computes elapsed and night time for every record and stamps
// the run identity. Records whose times cannot be parsed keep zero
// times and carry a flag instead of failing the run.
func (p *Pipeline) enrich(records []roster.Record, scrapeDate time.Time) []roster.Enriched {
	out := make([]roster.Enriched, 0, len(records))
	for _, rec := range records {
		base := flighttime.ResolveDate(rec.Date, scrapeDate)

		e := roster.Enriched{
			Record:         rec,
			OwnerID:        p.identity.OwnerID,
			AdminID:        p.identity.AdminID,
			SourceUserName: p.identity.SourceUserName,
		}

		times, err := p.engine.Compute(rec, base)
		e.ElapsedTime = times.ElapsedTime
		e.NightTime = times.NightTime
		if err != nil {
			var fieldErr *flighttime.UnparseableFieldError
			if errors.As(err, &fieldErr) {
				p.log.Warn("unparseable time field",
					"date", rec.Date, "activity", rec.Activity,
					"field", fieldErr.Field, "value", fieldErr.Value)
			}
			e.Flagged = true
		}

		out = append(out, e)
	}
	return out
}

// publishArtifacts writes the snapshot and report files and the logbook
// export. Artifact failures are logged, not fatal: the store is already
// reconciled.
func (p *Pipeline) publishArtifacts(ctx context.Context, log *slog.Logger,
	records []roster.Record, enriched []roster.Enriched, scrapeDate time.Time) {
	if p.pub != nil {
		if err := report.PublishAll(ctx, p.pub, records, scrapeDate); err != nil {
			log.Error("publish report artifacts", "error", err)
			if m := metrics.Get(); m != nil {
				m.IncReportErrors(p.identity.OwnerID)
			}
		} else {
			log.Info("published report artifacts", "uri", p.pub.URI(report.ReportCSVName))
		}
	}

	if p.exporter != nil {
		if _, err := p.exporter.Export(enriched, time.Now().UTC()); err != nil {
			log.Error("export logbook", "error", err)
		}
	}
}

// emitRunEvent sends the audit event for this run.
func (p *Pipeline) emitRunEvent(ctx context.Context, log *slog.Logger, s *RunSummary) {
	if p.emitter == nil {
		return
	}
	evt := notify.RunEvent{
		Run: notify.RunInfo{
			RunID:      s.RunID,
			OwnerID:    p.identity.OwnerID,
			ScrapeDate: s.ScrapeDate,
			StartedAt:  s.StartedAt.UTC(),
			Duration:   time.Since(s.StartedAt).String(),
		},
		Counts: notify.CountInfo{
			Records:  s.Records,
			Inserted: s.Inserted,
			Updated:  s.Updated,
			Deleted:  s.Deleted,
			Skipped:  s.Skipped,
			Flagged:  s.Flagged,
			Failed:   s.Failed,
		},
		Producer: notify.ProducerInfo{
			Name:    "roster-sync",
			Version: Version,
			GitSHA:  GitSHA,
		},
	}
	if err := p.emitter.EmitRun(ctx, &evt); err != nil {
		log.Error("emit run event", "error", err)
		if m := metrics.Get(); m != nil {
			m.IncNotifyErrors(p.identity.OwnerID)
		}
	}
}

// recordMetrics publishes the run tallies to Prometheus when metrics
// are initialized.
func (p *Pipeline) recordMetrics(s *RunSummary) {
	m := metrics.Get()
	if m == nil {
		return
	}
	owner := p.identity.OwnerID
	m.AddRowsMapped(owner, float64(s.RowsMapped))
	m.AddRowsDeduped(owner, float64(s.RowsDedup))
	m.AddReconcileCounts(owner,
		float64(s.Inserted), float64(s.Updated), float64(s.Deleted),
		float64(s.Skipped), float64(s.Flagged))
	m.IncRunsCompleted(owner)
	m.ObserveRunDuration(owner, time.Since(s.StartedAt).Seconds())
	m.SetLastRunTime(owner, float64(time.Now().Unix()))
}
