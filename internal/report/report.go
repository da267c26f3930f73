// Package report publishes run artifacts: the raw snapshot as JSON and
// CSV, plus the human-facing report view with normalized dates.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/crewdeck/roster-sync/internal/datefmt"
	"github.com/crewdeck/roster-sync/internal/roster"
)

// Artifact file names within a run directory.
const (
	SnapshotJSONName = "roster.json"
	SnapshotCSVName  = "roster.csv"
	ReportCSVName    = "report.csv"
)

// Publisher writes report artifacts to a backend.
type Publisher interface {
	// Write stores data under key, replacing any previous version.
	Write(ctx context.Context, key string, data []byte) error

	// URI returns the canonical URI for the given key.
	URI(key string) string

	// Close releases any resources.
	Close() error
}

// Config configures the report backend.
type Config struct {
	Backend  string `yaml:"backend"` // "local" | "gcs" | "s3"
	LocalDir string `yaml:"local_dir"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
}

// New creates a report publisher based on configuration.
func New(cfg Config) (Publisher, error) {
	switch cfg.Backend {
	case "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("local_dir required for local backend")
		}
		return NewLocalPublisher(cfg.LocalDir, cfg.Prefix)
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("bucket required for gcs backend")
		}
		return NewBlobPublisher(fmt.Sprintf("gs://%s", cfg.Bucket), cfg.Prefix)
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("bucket required for s3 backend")
		}
		return NewBlobPublisher(fmt.Sprintf("s3://%s", cfg.Bucket), cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown report backend: %s", cfg.Backend)
	}
}

// snapshotDoc mirrors the scraper's dump format so downstream consumers
// can treat published snapshots and raw scrapes interchangeably.
type snapshotDoc struct {
	Values    [][]string `json:"values"`
	ScrapedAt time.Time  `json:"scraped_at"`
}

// SnapshotJSON renders the mapped records as a values matrix with the
// canonical header as its first row.
func SnapshotJSON(records []roster.Record, scrapedAt time.Time) ([]byte, error) {
	values := make([][]string, 0, len(records)+1)
	values = append(values, roster.Fields)
	for _, rec := range records {
		values = append(values, rec.Values())
	}
	data, err := json.MarshalIndent(snapshotDoc{Values: values, ScrapedAt: scrapedAt.UTC()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// SnapshotCSV renders the mapped records as CSV with the canonical
// header row. Every cell is quoted.
func SnapshotCSV(records []roster.Record) []byte {
	var buf bytes.Buffer
	writeRow(&buf, roster.Fields)
	for _, rec := range records {
		writeRow(&buf, rec.Values())
	}
	return buf.Bytes()
}

// ReportCSV renders the human-facing view: every canonical field, with
// the Date column normalized to YYYY.MM.DD against the scrape date.
func ReportCSV(records []roster.Record, scrapeDate time.Time) []byte {
	var buf bytes.Buffer
	writeRow(&buf, roster.Fields)
	for _, rec := range records {
		row := rec.Values()
		row[0] = datefmt.Normalize(rec.Date, scrapeDate.Year(), int(scrapeDate.Month()))
		writeRow(&buf, row)
	}
	return buf.Bytes()
}

// writeRow emits one CSV row with all cells quoted and embedded quotes
// doubled.
func writeRow(buf *bytes.Buffer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// PublishAll writes the three standard artifacts for a run.
func PublishAll(ctx context.Context, pub Publisher, records []roster.Record, scrapeDate time.Time) error {
	snapshot, err := SnapshotJSON(records, scrapeDate)
	if err != nil {
		return err
	}
	if err := pub.Write(ctx, SnapshotJSONName, snapshot); err != nil {
		return fmt.Errorf("publish %s: %w", SnapshotJSONName, err)
	}
	if err := pub.Write(ctx, SnapshotCSVName, SnapshotCSV(records)); err != nil {
		return fmt.Errorf("publish %s: %w", SnapshotCSVName, err)
	}
	if err := pub.Write(ctx, ReportCSVName, ReportCSV(records, scrapeDate)); err != nil {
		return fmt.Errorf("publish %s: %w", ReportCSVName, err)
	}
	return nil
}
