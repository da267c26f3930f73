package roster

import (
	"testing"
)

func TestValuesRoundTrip(t *testing.T) {
	rec := Record{
		Date:         "2024-03-02",
		DC:           "B",
		Activity:     "KE901",
		FlightNumber: "KE901",
		From:         "ICN",
		To:           "CDG",
		STDUTC:       "04:25",
		STAUTC:       "18:50",
		BlockHours:   "14:25",
		AircraftReg:  "HL8208",
		Crew:         "KIM A, LEE B",
	}

	values := rec.Values()
	if len(values) != NumFields {
		t.Fatalf("Values() returned %d fields, want %d", len(values), NumFields)
	}
	if got := FromValues(values); got != rec {
		t.Errorf("FromValues(Values()) = %+v, want %+v", got, rec)
	}
}

func TestFromValuesPadsShortRows(t *testing.T) {
	rec := FromValues([]string{"Mon 04", "B"})
	if rec.Date != "Mon 04" || rec.DC != "B" {
		t.Errorf("unexpected mapped fields: %+v", rec)
	}
	if rec.Crew != "" || rec.AircraftReg != "" {
		t.Errorf("missing fields must default to empty string, got %+v", rec)
	}
}

func TestFieldOrderMatchesStruct(t *testing.T) {
	if len(Fields) != NumFields {
		t.Fatalf("Fields has %d entries, want %d", len(Fields), NumFields)
	}
	// Values() index i must correspond to Fields[i].
	rec := Record{Date: "d", Crew: "c"}
	values := rec.Values()
	if values[0] != "d" {
		t.Errorf("Values()[0] = %q, want Date", values[0])
	}
	if values[NumFields-1] != "c" {
		t.Errorf("Values()[%d] = %q, want Crew", NumFields-1, values[NumFields-1])
	}
}

func TestIsGround(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{"ICN", "CDG", false},
		{"ICN", "ICN", true},
		{"", "", true},
	}
	for _, tt := range tests {
		rec := Record{From: tt.from, To: tt.to}
		if got := rec.IsGround(); got != tt.want {
			t.Errorf("IsGround(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsBlank(t *testing.T) {
	for _, s := range []string{"", " ", "\t", "  \n"} {
		if !IsBlank(s) {
			t.Errorf("IsBlank(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"X", " X "} {
		if IsBlank(s) {
			t.Errorf("IsBlank(%q) = true, want false", s)
		}
	}
}

func TestDeduplicatePreservesOrder(t *testing.T) {
	a := Record{Date: "Mon 04", Activity: "KE901", From: "ICN", To: "CDG"}
	b := Record{Date: "Mon 04", Activity: "KE902", From: "CDG", To: "ICN"}
	c := Record{Date: "Tue 05", Activity: "SBY", From: "ICN", To: "ICN"}

	in := []Record{a, b, a, c, b, a}
	got := Deduplicate(in)

	want := []Record{a, b, c}
	if len(got) != len(want) {
		t.Fatalf("Deduplicate returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	in := []Record{
		{Date: "Mon 04", Activity: "KE901"},
		{Date: "Mon 04", Activity: "KE901"},
		{Date: "Tue 05", Activity: "KE905"},
	}
	once := Deduplicate(in)
	twice := Deduplicate(once)

	if len(once) != len(twice) {
		t.Fatalf("second pass changed length: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("second pass changed record %d", i)
		}
	}
}

func TestDeduplicateDistinguishesIncidentalFields(t *testing.T) {
	// Same flight, different check-in time: not duplicates.
	a := Record{Date: "Mon 04", Activity: "KE901", CheckIn: "05:10"}
	b := Record{Date: "Mon 04", Activity: "KE901", CheckIn: "05:40"}
	if got := Deduplicate([]Record{a, b}); len(got) != 2 {
		t.Errorf("records differing in one field collapsed: got %d, want 2", len(got))
	}
}
