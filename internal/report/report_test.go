package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crewdeck/roster-sync/internal/roster"
)

func sampleRecords() []roster.Record {
	return []roster.Record{
		{
			Date: "Mon 04", DC: "B", Activity: "KE901",
			From: "ICN", To: "CDG", Crew: `Kim, "Cap"`,
		},
		{
			Date: "Tue 05", DC: "B", Activity: "DAY OFF",
			From: "ICN", To: "ICN",
		},
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	scraped := time.Date(2024, time.March, 2, 5, 0, 0, 0, time.UTC)
	data, err := SnapshotJSON(sampleRecords(), scraped)
	if err != nil {
		t.Fatalf("SnapshotJSON failed: %v", err)
	}

	var doc struct {
		Values    [][]string `json:"values"`
		ScrapedAt time.Time  `json:"scraped_at"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(doc.Values) != 3 {
		t.Fatalf("got %d rows, want 3 (header + 2)", len(doc.Values))
	}
	if doc.Values[0][0] != "Date" {
		t.Errorf("header row = %v", doc.Values[0])
	}
	if doc.Values[1][4] != "KE901" {
		t.Errorf("activity cell = %q", doc.Values[1][4])
	}
	if !doc.ScrapedAt.Equal(scraped) {
		t.Errorf("scraped_at = %v, want %v", doc.ScrapedAt, scraped)
	}
}

func TestSnapshotCSVQuoting(t *testing.T) {
	out := string(SnapshotCSV(sampleRecords()))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], `"Date","DC"`) {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"Kim, ""Cap"""`) {
		t.Errorf("embedded quotes not doubled: %q", lines[1])
	}
}

func TestReportCSVNormalizesDates(t *testing.T) {
	scraped := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	out := string(ReportCSV(sampleRecords(), scraped))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.HasPrefix(lines[1], `"2024.03.04"`) {
		t.Errorf("first data line = %q, want normalized date", lines[1])
	}
	if !strings.HasPrefix(lines[2], `"2024.03.05"`) {
		t.Errorf("second data line = %q, want normalized date", lines[2])
	}
}

func TestLocalPublisherWrite(t *testing.T) {
	dir := t.TempDir()
	pub, err := NewLocalPublisher(dir, "runs")
	if err != nil {
		t.Fatalf("NewLocalPublisher failed: %v", err)
	}
	defer pub.Close()

	if err := pub.Write(context.Background(), "report.csv", []byte("a,b\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "runs", "report.csv"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Errorf("content = %q", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "runs"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestPublishAll(t *testing.T) {
	dir := t.TempDir()
	pub, err := NewLocalPublisher(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	scraped := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)
	if err := PublishAll(context.Background(), pub, sampleRecords(), scraped); err != nil {
		t.Fatalf("PublishAll failed: %v", err)
	}
	for _, name := range []string{SnapshotJSONName, SnapshotCSVName, ReportCSVName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}
