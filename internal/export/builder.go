package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crewdeck/roster-sync/internal/roster"
)

// BuildFlights extracts one FlightRow per flight leg. Ground duties and
// rows without both stations are left out of the logbook.
func BuildFlights(records []roster.Enriched, exportedAt time.Time) []FlightRow {
	var rows []FlightRow
	for _, rec := range records {
		if roster.IsBlank(rec.From) || roster.IsBlank(rec.To) || rec.IsGround() {
			continue
		}
		rows = append(rows, FlightRow{
			Date:         rec.Date,
			FlightNumber: rec.FlightNumber,
			From:         rec.From,
			To:           rec.To,
			STDLocal:     rec.STDLocal,
			STDUTC:       rec.STDUTC,
			STALocal:     rec.STALocal,
			STAUTC:       rec.STAUTC,
			BlockHours:   rec.BlockHours,
			ElapsedTime:  rec.ElapsedTime,
			NightTime:    rec.NightTime,
			AircraftReg:  rec.AircraftReg,
			Remarks:      buildRemarks(rec),
			OwnerID:      rec.OwnerID,
			ExportedAt:   exportedAt,
		})
	}
	return rows
}

// buildRemarks joins the activity code with the duty code when present.
func buildRemarks(rec roster.Enriched) string {
	if roster.IsBlank(rec.DC) {
		return rec.Activity
	}
	return fmt.Sprintf("%s | DC:%s", rec.Activity, rec.DC)
}

// BuildPeople extracts one PersonRow per crew member per duty date,
// counting the legs flown together. Names are split on commas and
// trimmed.
func BuildPeople(records []roster.Enriched, exportedAt time.Time) []PersonRow {
	type personKey struct {
		name string
		date string
	}
	counts := make(map[personKey]int32)
	var order []personKey

	for _, rec := range records {
		if roster.IsBlank(rec.Crew) {
			continue
		}
		for _, name := range strings.Split(rec.Crew, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			k := personKey{name: name, date: rec.Date}
			if _, seen := counts[k]; !seen {
				order = append(order, k)
			}
			counts[k]++
		}
	}

	rows := make([]PersonRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, PersonRow{
			Name:       k.name,
			Date:       k.date,
			Flights:    counts[k],
			OwnerID:    ownerOf(records),
			ExportedAt: exportedAt,
		})
	}
	return rows
}

// BuildAircraft extracts one AircraftRow per distinct registration,
// sorted for stable output.
func BuildAircraft(records []roster.Enriched, exportedAt time.Time) []AircraftRow {
	counts := make(map[string]int32)
	for _, rec := range records {
		if roster.IsBlank(rec.AircraftReg) {
			continue
		}
		counts[rec.AircraftReg]++
	}

	regs := make([]string, 0, len(counts))
	for reg := range counts {
		regs = append(regs, reg)
	}
	sort.Strings(regs)

	rows := make([]AircraftRow, 0, len(regs))
	for _, reg := range regs {
		rows = append(rows, AircraftRow{
			Registration: reg,
			Flights:      counts[reg],
			OwnerID:      ownerOf(records),
			ExportedAt:   exportedAt,
		})
	}
	return rows
}

// ownerOf returns the batch owner. All records in a run carry the same
// owner stamp.
func ownerOf(records []roster.Enriched) string {
	if len(records) == 0 {
		return ""
	}
	return records[0].OwnerID
}
