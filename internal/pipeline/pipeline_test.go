package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/crewdeck/roster-sync/internal/flighttime"
	"github.com/crewdeck/roster-sync/internal/notify"
	"github.com/crewdeck/roster-sync/internal/roster"
	"github.com/crewdeck/roster-sync/internal/source"
)

// fakeSource returns a canned snapshot.
type fakeSource struct {
	snap *source.Snapshot
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context) (*source.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeSource) Close() error { return nil }

// memStore is an in-memory reconcile.Store.
type memStore struct {
	nextID  int
	records map[string]roster.Enriched
	inserts int
	updates int
	deletes int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]roster.Enriched)}
}

func (s *memStore) LookupByKey(ctx context.Context, key roster.CompositeKey) ([]roster.Persisted, error) {
	var out []roster.Persisted
	for id, rec := range s.records {
		if rec.Key() == key {
			out = append(out, roster.Persisted{ID: id, Enriched: rec})
		}
	}
	return out, nil
}

func (s *memStore) LookupByDate(ctx context.Context, date, ownerID string) ([]roster.Persisted, error) {
	var out []roster.Persisted
	for id, rec := range s.records {
		if rec.Date == date && rec.OwnerID == ownerID {
			out = append(out, roster.Persisted{ID: id, Enriched: rec})
		}
	}
	return out, nil
}

func (s *memStore) Insert(ctx context.Context, rec roster.Enriched) (string, error) {
	s.nextID++
	id := strconv.Itoa(s.nextID)
	s.records[id] = rec
	s.inserts++
	return id, nil
}

func (s *memStore) Update(ctx context.Context, id string, rec roster.Enriched) error {
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("no such row %s", id)
	}
	s.records[id] = rec
	s.updates++
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	delete(s.records, id)
	s.deletes++
	return nil
}

// capturingEmitter records emitted run events.
type capturingEmitter struct {
	events []*notify.RunEvent
}

func (e *capturingEmitter) EmitRun(ctx context.Context, evt *notify.RunEvent) error {
	e.events = append(e.events, evt)
	return nil
}

func (e *capturingEmitter) Close() error { return nil }

// siteHeader mimics the scraped table header: canonical labels embedded
// in site-specific text, wide enough for the positional overrides.
func siteHeader() []string {
	h := make([]string, 24)
	labels := []string{"Date", "DC", "C/I(L)", "C/O(L)", "Activity", "F", "From",
		"STD(L)", "STD(Z)", "To", "STA(L)", "STA(Z)", "BLH"}
	copy(h, labels)
	for i := len(labels); i < len(h); i++ {
		h[i] = fmt.Sprintf("col%d", i)
	}
	return h
}

func siteRow(date, activity, from, stdUTC, to, staUTC, blh, reg, crew string) []string {
	r := make([]string, 24)
	r[0] = date
	r[1] = "B"
	r[4] = activity
	r[6] = from
	r[8] = stdUTC
	r[9] = to
	r[11] = staUTC
	r[12] = blh
	r[18] = reg
	r[22] = crew
	return r
}

func testEngine(t *testing.T) *flighttime.Engine {
	t.Helper()
	w, err := flighttime.ParseWindow("22:00", "06:00")
	if err != nil {
		t.Fatal(err)
	}
	return flighttime.NewEngine(w)
}

func testPipeline(t *testing.T, rows [][]string, st *memStore, emitter notify.Emitter) *Pipeline {
	t.Helper()
	src := &fakeSource{snap: &source.Snapshot{
		Header:     siteHeader(),
		Rows:       rows,
		ScrapeDate: time.Date(2024, time.March, 2, 5, 0, 0, 0, time.UTC),
	}}
	return New(src, st, nil, nil, emitter, testEngine(t),
		Identity{OwnerID: "owner-1", AdminID: "admin-1", SourceUserName: "KIM/HO"})
}

func TestRunInsertsAndEnriches(t *testing.T) {
	rows := [][]string{
		siteRow("Mon 04", "KE901", "ICN", "04:25", "CDG", "18:50", "14:25", "HL7642", "Kim, Lee"),
		siteRow("Tue 05", "DAY OFF", "ICN", "", "ICN", "", "", "", ""),
	}
	st := newMemStore()
	emitter := &capturingEmitter{}

	summary, err := testPipeline(t, rows, st, emitter).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Records != 2 || summary.Inserted != 2 {
		t.Errorf("summary = %+v", summary.Summary)
	}
	if st.inserts != 2 {
		t.Errorf("store inserts = %d, want 2", st.inserts)
	}

	var flight roster.Enriched
	for _, rec := range st.records {
		if rec.Activity == "KE901" {
			flight = rec
		}
	}
	if flight.ElapsedTime != "14:25" {
		t.Errorf("elapsed time = %q, want 14:25", flight.ElapsedTime)
	}
	if flight.OwnerID != "owner-1" || flight.SourceUserName != "KIM/HO" {
		t.Errorf("identity not stamped: %+v", flight)
	}
	if flight.Flagged {
		t.Error("flight should not be flagged")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	rows := [][]string{
		siteRow("Mon 04", "KE901", "ICN", "04:25", "CDG", "18:50", "14:25", "HL7642", "Kim"),
	}
	st := newMemStore()

	p := testPipeline(t, rows, st, nil)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if summary.Inserted != 0 || summary.Updated != 1 {
		t.Errorf("second run summary = %+v, want pure update", summary.Summary)
	}
	if len(st.records) != 1 {
		t.Errorf("store has %d records, want 1", len(st.records))
	}
}

func TestRunDeduplicatesRows(t *testing.T) {
	row := siteRow("Mon 04", "KE901", "ICN", "04:25", "CDG", "18:50", "14:25", "HL7642", "Kim")
	st := newMemStore()

	summary, err := testPipeline(t, [][]string{row, row}, st, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.RowsMapped != 2 || summary.RowsDedup != 1 {
		t.Errorf("mapped=%d dedup=%d, want 2/1", summary.RowsMapped, summary.RowsDedup)
	}
	if st.inserts != 1 {
		t.Errorf("store inserts = %d, want 1", st.inserts)
	}
}

func TestRunFlagsUnparseableTimes(t *testing.T) {
	rows := [][]string{
		siteRow("Mon 04", "KE901", "ICN", "junk", "CDG", "18:50", "14:25", "HL7642", "Kim"),
	}
	st := newMemStore()

	summary, err := testPipeline(t, rows, st, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Flagged != 1 {
		t.Errorf("flagged = %d, want 1", summary.Flagged)
	}
	for _, rec := range st.records {
		if !rec.Flagged {
			t.Error("stored record should be flagged")
		}
		if rec.ElapsedTime != flighttime.ZeroTime || rec.NightTime != flighttime.ZeroTime {
			t.Errorf("flagged record times = %q/%q, want zero", rec.ElapsedTime, rec.NightTime)
		}
	}
}

func TestRunBlankActivityDeletes(t *testing.T) {
	st := newMemStore()

	// Seed a prior entry for the date.
	_, err := st.Insert(context.Background(), roster.Enriched{
		Record:  roster.Record{Date: "Mon 04", Activity: "KE901", From: "ICN", To: "CDG"},
		OwnerID: "owner-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	rows := [][]string{
		siteRow("Mon 04", "", "", "", "", "", "", "", ""),
	}
	summary, err := testPipeline(t, rows, st, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", summary.Deleted)
	}
	if len(st.records) != 0 {
		t.Errorf("store has %d records, want 0", len(st.records))
	}
}

func TestRunEmitsRunEvent(t *testing.T) {
	rows := [][]string{
		siteRow("Mon 04", "KE901", "ICN", "04:25", "CDG", "18:50", "14:25", "HL7642", "Kim"),
	}
	emitter := &capturingEmitter{}

	summary, err := testPipeline(t, rows, newMemStore(), emitter).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("got %d run events, want 1", len(emitter.events))
	}
	evt := emitter.events[0]
	if evt.Run.RunID != summary.RunID {
		t.Errorf("event run_id = %q, want %q", evt.Run.RunID, summary.RunID)
	}
	if evt.Counts.Inserted != 1 {
		t.Errorf("event counts = %+v", evt.Counts)
	}
}

func TestRunSourceErrorFailsRun(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("bucket unreachable")}
	p := New(src, newMemStore(), nil, nil, nil, testEngine(t), Identity{OwnerID: "owner-1"})
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("Run should fail when the source fails")
	}
}
