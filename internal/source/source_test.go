package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

const sampleSnapshot = `{
  "scraped_at": "2024-03-02T05:00:00Z",
  "values": [
    ["Date", "DC", "Activity"],
    ["Mon 04", "B", "KE901"],
    ["Tue 05", "B", ""]
  ]
}`

func TestLocalSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	if err := os.WriteFile(path, []byte(sampleSnapshot), 0644); err != nil {
		t.Fatal(err)
	}

	snap, err := NewLocalSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snap.Header) != 3 || snap.Header[0] != "Date" {
		t.Errorf("header = %v", snap.Header)
	}
	if len(snap.Rows) != 2 {
		t.Errorf("got %d data rows, want 2", len(snap.Rows))
	}
	want := time.Date(2024, time.March, 2, 5, 0, 0, 0, time.UTC)
	if !snap.ScrapeDate.Equal(want) {
		t.Errorf("scrape date = %v, want %v", snap.ScrapeDate, want)
	}
}

func TestLocalSourceFetchCompressed(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := enc.EncodeAll([]byte(sampleSnapshot), nil)
	enc.Close()

	path := filepath.Join(t.TempDir(), "roster.json.zst")
	if err := os.WriteFile(path, compressed, 0644); err != nil {
		t.Fatal(err)
	}

	snap, err := NewLocalSource(path).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(snap.Rows) != 2 {
		t.Errorf("got %d data rows, want 2", len(snap.Rows))
	}
}

func TestParseSnapshotEmpty(t *testing.T) {
	if _, err := parseSnapshot("roster.json", []byte(`{"values": []}`)); !errors.Is(err, ErrEmptySnapshot) {
		t.Errorf("error = %v, want ErrEmptySnapshot", err)
	}
}

func TestParseSnapshotDefaultsScrapeDate(t *testing.T) {
	snap, err := parseSnapshot("roster.json", []byte(`{"values": [["Date"]]}`))
	if err != nil {
		t.Fatalf("parseSnapshot failed: %v", err)
	}
	if snap.ScrapeDate.IsZero() {
		t.Error("scrape date not defaulted")
	}
	if len(snap.Rows) != 0 {
		t.Errorf("header-only snapshot has %d rows, want 0", len(snap.Rows))
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	if _, err := New(Config{Mode: "ftp"}); err == nil {
		t.Error("New accepted unknown mode")
	}
	if _, err := New(Config{Mode: "local"}); err == nil {
		t.Error("New accepted local mode without path")
	}
}
