package export

import (
	"testing"
	"time"

	"github.com/crewdeck/roster-sync/internal/roster"
)

var exportedAt = time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)

func testRecords() []roster.Enriched {
	return []roster.Enriched{
		{
			Record: roster.Record{
				Date: "2024.03.04", DC: "B", Activity: "KE901",
				FlightNumber: "KE901", From: "ICN", To: "CDG",
				AircraftReg: "HL7642", Crew: "Kim, Lee",
			},
			ElapsedTime: "14:25", NightTime: "01:35", OwnerID: "owner-1",
		},
		{
			Record: roster.Record{
				Date: "2024.03.06", DC: "B", Activity: "KE902",
				FlightNumber: "KE902", From: "CDG", To: "ICN",
				AircraftReg: "HL7642", Crew: "Kim, Park",
			},
			ElapsedTime: "12:50", NightTime: "05:10", OwnerID: "owner-1",
		},
		{
			Record: roster.Record{
				Date: "2024.03.08", Activity: "SIM", From: "ICN", To: "ICN",
			},
			OwnerID: "owner-1",
		},
	}
}

func TestBuildFlightsSkipsGround(t *testing.T) {
	rows := BuildFlights(testRecords(), exportedAt)
	if len(rows) != 2 {
		t.Fatalf("got %d flight rows, want 2", len(rows))
	}
	if rows[0].FlightNumber != "KE901" || rows[1].FlightNumber != "KE902" {
		t.Errorf("rows = %+v", rows)
	}
	if rows[0].Remarks != "KE901 | DC:B" {
		t.Errorf("remarks = %q", rows[0].Remarks)
	}
	if rows[0].NightTime != "01:35" {
		t.Errorf("night time = %q", rows[0].NightTime)
	}
}

func TestBuildRemarksWithoutDutyCode(t *testing.T) {
	rec := roster.Enriched{Record: roster.Record{Activity: "KE901"}}
	if got := buildRemarks(rec); got != "KE901" {
		t.Errorf("remarks = %q, want bare activity", got)
	}
}

func TestBuildPeopleSplitsAndCounts(t *testing.T) {
	rows := BuildPeople(testRecords(), exportedAt)

	byName := make(map[string]int)
	for _, r := range rows {
		byName[r.Name]++
	}
	// Kim appears on two dates, Lee and Park on one each.
	if byName["Kim"] != 2 || byName["Lee"] != 1 || byName["Park"] != 1 {
		t.Errorf("person rows = %+v", rows)
	}
	for _, r := range rows {
		if r.OwnerID != "owner-1" {
			t.Errorf("person %s owner = %q", r.Name, r.OwnerID)
		}
	}
}

func TestBuildPeopleTrimsNames(t *testing.T) {
	recs := []roster.Enriched{{
		Record:  roster.Record{Date: "2024.03.04", Crew: " Kim ,, Lee "},
		OwnerID: "owner-1",
	}}
	rows := BuildPeople(recs, exportedAt)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Name != "Kim" || rows[1].Name != "Lee" {
		t.Errorf("names = %q, %q", rows[0].Name, rows[1].Name)
	}
}

func TestBuildAircraftDistinctSorted(t *testing.T) {
	recs := append(testRecords(), roster.Enriched{
		Record:  roster.Record{Date: "2024.03.10", AircraftReg: "HL7403"},
		OwnerID: "owner-1",
	})
	rows := BuildAircraft(recs, exportedAt)
	if len(rows) != 2 {
		t.Fatalf("got %d aircraft rows, want 2", len(rows))
	}
	if rows[0].Registration != "HL7403" || rows[1].Registration != "HL7642" {
		t.Errorf("registrations not sorted: %+v", rows)
	}
	if rows[1].Flights != 2 {
		t.Errorf("HL7642 flights = %d, want 2", rows[1].Flights)
	}
}

func TestExportWritesManifest(t *testing.T) {
	dir := t.TempDir()
	exp, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	manifest, err := exp.Export(testRecords(), exportedAt)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(manifest.Tables) != 3 {
		t.Fatalf("manifest has %d tables, want 3", len(manifest.Tables))
	}
	if manifest.Tables["flights"].RowCount != 2 {
		t.Errorf("flights row count = %d, want 2", manifest.Tables["flights"].RowCount)
	}
	for name, info := range manifest.Tables {
		if info.Checksum == "" || info.ByteSize == 0 {
			t.Errorf("table %s missing checksum or size: %+v", name, info)
		}
	}
}

func TestChecksumRoundTrip(t *testing.T) {
	data := []byte("logbook")
	sum := ComputeChecksum(data)
	if !VerifyChecksum(data, sum) {
		t.Error("checksum did not verify")
	}
	if VerifyChecksum([]byte("other"), sum) {
		t.Error("checksum verified wrong data")
	}
}
