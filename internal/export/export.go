// Package export writes the logbook tables (flights, people, aircraft)
// as parquet files with a checksum manifest, optionally archived with
// zstd.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go"

	"github.com/crewdeck/roster-sync/internal/roster"
)

// Config configures the logbook exporter.
type Config struct {
	Dir     string `yaml:"dir"`
	Archive bool   `yaml:"archive"` // also write .parquet.zst copies
}

// Manifest describes one export run.
type Manifest struct {
	SchemaVersion string               `json:"schema_version"`
	Tables        map[string]TableInfo `json:"tables"`
	CreatedAt     time.Time            `json:"created_at"`
}

// TableInfo describes a single exported table.
type TableInfo struct {
	File     string `json:"file"`
	Checksum string `json:"checksum"`
	RowCount int64  `json:"row_count"`
	ByteSize int64  `json:"byte_size"`
}

// Exporter writes logbook parquet files to a local directory.
type Exporter struct {
	cfg Config
	log *slog.Logger
}

// New creates an exporter, ensuring the output directory exists.
func New(cfg Config) (*Exporter, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("export dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create export directory %s: %w", cfg.Dir, err)
	}
	return &Exporter{
		cfg: cfg,
		log: slog.With("component", "export"),
	}, nil
}

// Export builds and writes all three logbook tables for a run.
func (e *Exporter) Export(records []roster.Enriched, exportedAt time.Time) (*Manifest, error) {
	manifest := &Manifest{
		SchemaVersion: SchemaVersion,
		Tables:        make(map[string]TableInfo),
		CreatedAt:     exportedAt.UTC(),
	}

	flights, err := marshalParquet(BuildFlights(records, exportedAt))
	if err != nil {
		return nil, fmt.Errorf("build flights table: %w", err)
	}
	people, err := marshalParquet(BuildPeople(records, exportedAt))
	if err != nil {
		return nil, fmt.Errorf("build people table: %w", err)
	}
	aircraft, err := marshalParquet(BuildAircraft(records, exportedAt))
	if err != nil {
		return nil, fmt.Errorf("build aircraft table: %w", err)
	}

	tables := []struct {
		name string
		data []byte
		rows int64
	}{
		{FlightRow{}.TableName(), flights, int64(len(BuildFlights(records, exportedAt)))},
		{PersonRow{}.TableName(), people, int64(len(BuildPeople(records, exportedAt)))},
		{AircraftRow{}.TableName(), aircraft, int64(len(BuildAircraft(records, exportedAt)))},
	}

	for _, t := range tables {
		file := t.name + ".parquet"
		if err := e.writeFile(file, t.data); err != nil {
			return nil, err
		}
		if e.cfg.Archive {
			archived, err := compress(t.data)
			if err != nil {
				return nil, fmt.Errorf("archive %s: %w", file, err)
			}
			if err := e.writeFile(file+".zst", archived); err != nil {
				return nil, err
			}
		}
		manifest.Tables[t.name] = TableInfo{
			File:     file,
			Checksum: ComputeChecksum(t.data),
			RowCount: t.rows,
			ByteSize: int64(len(t.data)),
		}
		e.log.Info("exported table", "table", t.name, "rows", t.rows, "bytes", len(t.data))
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := e.writeFile("_manifest.json", manifestData); err != nil {
		return nil, err
	}

	return manifest, nil
}

// writeFile writes atomically using temp file + rename.
func (e *Exporter) writeFile(name string, data []byte) error {
	path := filepath.Join(e.cfg.Dir, name)
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

// marshalParquet serializes rows into an in-memory parquet file.
func marshalParquet[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf, parquet.Compression(&parquet.Snappy))
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// compress returns zstd-compressed data.
func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
