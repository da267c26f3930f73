// Package schema maps raw scraped table rows onto the canonical roster
// record. Column positions are discovered from the site's header row by
// substring matching; two columns with unreliable header text are pinned
// to fixed offsets instead.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crewdeck/roster-sync/internal/roster"
)

// ErrMalformedSource indicates the scraped table cannot be mapped at all:
// no header row, or a header too short to cover the pinned columns. The
// caller aborts the batch rather than producing partial data silently.
var ErrMalformedSource = errors.New("malformed source table")

// sourceLabels are the site's column labels, aligned with roster.Fields.
// A canonical field maps to the first source header containing its label
// as a substring (case-sensitive; the site is consistent about casing but
// decorates labels with units and footnote markers).
var sourceLabels = []string{
	"Date",
	"DC",
	"C/I(L)",
	"C/O(L)",
	"Activity",
	"F",
	"From",
	"STD(L)",
	"STD(Z)",
	"To",
	"STA(L)",
	"STA(Z)",
	"BLH",
	"AcReg",
	"Crew",
}

// Fixed positional offsets for columns whose site header text is
// unreliable. These always win over substring matching.
const (
	aircraftRegOffset = 18
	crewOffset        = 22
)

// positionalOverrides maps canonical field name to its pinned offset.
var positionalOverrides = map[string]int{
	"AircraftReg": aircraftRegOffset,
	"Crew":        crewOffset,
}

// Mapper resolves canonical fields to source column indexes for one
// scraped table. Built once per batch from the header row.
type Mapper struct {
	index map[string]int // canonical field -> source column index
}

// NewMapper builds a Mapper from the site-provided header row.
func NewMapper(header []string) (*Mapper, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: header row missing", ErrMalformedSource)
	}
	if len(header) <= crewOffset {
		return nil, fmt.Errorf("%w: header has %d columns, need at least %d",
			ErrMalformedSource, len(header), crewOffset+1)
	}

	index := make(map[string]int, roster.NumFields)
	for i, field := range roster.Fields {
		if off, ok := positionalOverrides[field]; ok {
			index[field] = off
			continue
		}
		label := sourceLabels[i]
		for col, h := range header {
			if strings.Contains(h, label) {
				index[field] = col
				break
			}
		}
		// Unmatched fields stay unmapped and read as empty strings.
	}

	return &Mapper{index: index}, nil
}

// Index returns the source column index for a canonical field.
func (m *Mapper) Index(field string) (int, bool) {
	col, ok := m.index[field]
	return col, ok
}

// MapRow produces a canonical record from one raw data row. Fields whose
// column is unmapped or beyond the row's length read as empty strings.
func (m *Mapper) MapRow(row []string) roster.Record {
	values := make([]string, roster.NumFields)
	for i, field := range roster.Fields {
		col, ok := m.index[field]
		if !ok || col < 0 || col >= len(row) {
			continue
		}
		values[i] = row[col]
	}
	return roster.FromValues(values)
}

// MapRows maps every data row of a scraped table.
func (m *Mapper) MapRows(rows [][]string) []roster.Record {
	records := make([]roster.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, m.MapRow(row))
	}
	return records
}
