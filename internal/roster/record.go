// Package roster defines the canonical roster record model shared by the
// schema mapper, the time accounting engine and the reconciliation engine.
package roster

import (
	"strings"
)

// Fields is the fixed canonical field order. Every record in a batch uses
// this order; downstream consumers (snapshot files, the report view, the
// store) rely on it being stable.
var Fields = []string{
	"Date",
	"DC",
	"CheckIn",
	"CheckOut",
	"Activity",
	"FlightNumber",
	"From",
	"STDLocal",
	"STDUTC",
	"To",
	"STALocal",
	"STAUTC",
	"BlockHours",
	"AircraftReg",
	"Crew",
}

// NumFields is the canonical field count.
const NumFields = 15

// Record is a canonical roster row. Missing source columns map to empty
// strings, never to a missing field, so string operations downstream are
// always safe.
type Record struct {
	Date         string
	DC           string
	CheckIn      string
	CheckOut     string
	Activity     string
	FlightNumber string
	From         string
	STDLocal     string
	STDUTC       string
	To           string
	STALocal     string
	STAUTC       string
	BlockHours   string
	AircraftReg  string
	Crew         string
}

// Values returns the record's field values in canonical field order.
func (r Record) Values() []string {
	return []string{
		r.Date, r.DC, r.CheckIn, r.CheckOut, r.Activity,
		r.FlightNumber, r.From, r.STDLocal, r.STDUTC, r.To,
		r.STALocal, r.STAUTC, r.BlockHours, r.AircraftReg, r.Crew,
	}
}

// FromValues builds a Record from values in canonical field order.
// Short slices are padded with empty strings.
func FromValues(values []string) Record {
	v := make([]string, NumFields)
	copy(v, values)
	return Record{
		Date: v[0], DC: v[1], CheckIn: v[2], CheckOut: v[3], Activity: v[4],
		FlightNumber: v[5], From: v[6], STDLocal: v[7], STDUTC: v[8], To: v[9],
		STALocal: v[10], STAUTC: v[11], BlockHours: v[12], AircraftReg: v[13], Crew: v[14],
	}
}

// IsGround reports whether the record is a ground (non-flight) activity.
// Departure and arrival station being identical includes the empty/empty
// case for check-ins, standby and the like.
func (r Record) IsGround() bool {
	return r.From == r.To
}

// Key derives the composite natural key identifying this logical roster
// entry independent of owner.
func (r Record) Key() CompositeKey {
	return CompositeKey{
		Date:         r.Date,
		DC:           r.DC,
		FlightNumber: r.FlightNumber,
		From:         r.From,
		To:           r.To,
		AircraftReg:  r.AircraftReg,
		Crew:         r.Crew,
	}
}

// CompositeKey uniquely identifies a logical roster entry within one
// owner's data. Two records with an identical key but different owners are
// distinct and must never merge.
type CompositeKey struct {
	Date         string
	DC           string
	FlightNumber string
	From         string
	To           string
	AircraftReg  string
	Crew         string
}

// String renders the key for logs and error context.
func (k CompositeKey) String() string {
	return strings.Join([]string{k.Date, k.DC, k.FlightNumber, k.From, k.To, k.AircraftReg, k.Crew}, "/")
}

// Enriched is a canonical record plus the derived times and the identity
// stamped onto every record of a run. ElapsedTime and NightTime are always
// well-formed HH:MM once a record has passed through the time accounting
// engine.
type Enriched struct {
	Record

	ElapsedTime string
	NightTime   string

	OwnerID        string
	AdminID        string
	SourceUserName string

	// Flagged marks records whose duration or time fields failed to
	// parse; their derived times are zeroed and they need manual review.
	Flagged bool
}

// Persisted is the external store's representation of a record: the
// enriched payload plus the store-assigned identifier and the owner that
// last wrote it. The engine reads it and conditionally writes it, never
// caches it across runs.
type Persisted struct {
	ID string
	Enriched
}

// IsBlank reports whether a field value is empty or whitespace-only.
// This is the single emptiness predicate used for Activity checks,
// defaulting and duplicate comparison.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
