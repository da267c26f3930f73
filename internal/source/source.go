// Package source fetches the scraper's roster snapshot — the raw header
// and data rows it dumped after a scrape — from a local file or an object
// store bucket. Scraping itself is the collaborator's job; this package
// only consumes its output.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ErrEmptySnapshot indicates the snapshot held no header row at all.
var ErrEmptySnapshot = errors.New("snapshot has no rows")

// Snapshot is one scrape's raw table plus its anchor date.
type Snapshot struct {
	Header     []string
	Rows       [][]string
	ScrapeDate time.Time
}

// SnapshotSource fetches the latest roster snapshot.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*Snapshot, error)
	Close() error
}

// Config configures the snapshot source.
type Config struct {
	Mode   string `yaml:"mode"`   // "local" | "gcs" | "s3"
	Path   string `yaml:"path"`   // local file path
	Bucket string `yaml:"bucket"` // gcs/s3 bucket name
	Key    string `yaml:"key"`    // object key within the bucket
}

// New constructs a snapshot source based on the configured mode.
func New(cfg Config) (SnapshotSource, error) {
	switch cfg.Mode {
	case "local":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for local source")
		}
		return NewLocalSource(cfg.Path), nil
	case "gcs":
		if cfg.Bucket == "" || cfg.Key == "" {
			return nil, fmt.Errorf("bucket and key required for gcs source")
		}
		return NewBlobSource(fmt.Sprintf("gs://%s", cfg.Bucket), cfg.Key)
	case "s3":
		if cfg.Bucket == "" || cfg.Key == "" {
			return nil, fmt.Errorf("bucket and key required for s3 source")
		}
		return NewBlobSource(fmt.Sprintf("s3://%s", cfg.Bucket), cfg.Key)
	default:
		return nil, fmt.Errorf("unknown source mode: %s", cfg.Mode)
	}
}

// snapshotFile is the scraper's dump format: a values matrix whose first
// row is the site header, plus an optional scrape timestamp.
type snapshotFile struct {
	Values    [][]string `json:"values"`
	ScrapedAt time.Time  `json:"scraped_at"`
}

// parseSnapshot decodes snapshot bytes, decompressing first when the
// object name carries a .zst suffix. A snapshot without a scraped_at
// stamp anchors on the current UTC time.
func parseSnapshot(name string, data []byte) (*Snapshot, error) {
	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()

		raw, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress %s: %w", name, err)
		}
		data = raw
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	if len(file.Values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySnapshot, name)
	}

	scrapeDate := file.ScrapedAt
	if scrapeDate.IsZero() {
		scrapeDate = time.Now().UTC()
	}

	return &Snapshot{
		Header:     file.Values[0],
		Rows:       file.Values[1:],
		ScrapeDate: scrapeDate.UTC(),
	}, nil
}
