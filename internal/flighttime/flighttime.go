// Package flighttime derives elapsed time and night time for roster
// records from block-hour durations and UTC departure/arrival instants.
package flighttime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crewdeck/roster-sync/internal/datefmt"
	"github.com/crewdeck/roster-sync/internal/roster"
)

// ZeroTime is the well-formed zero value for derived times.
const ZeroTime = "00:00"

// dayOffsetMarker on an STD/STA value means the instant falls on the
// following calendar day relative to the record's date.
const dayOffsetMarker = "+1"

// UnparseableFieldError reports a duration or time value that could not
// be parsed. The affected record proceeds with zeroed derived times and is
// flagged for manual review; it never aborts the batch.
type UnparseableFieldError struct {
	Field string
	Value string
}

func (e *UnparseableFieldError) Error() string {
	return fmt.Sprintf("unparseable %s value %q", e.Field, e.Value)
}

// Window is the night window in UTC minutes-of-day. Start may be after
// End, meaning the window crosses midnight (e.g. 22:00-06:00).
type Window struct {
	Start int
	End   int
}

// ParseWindow parses "HH:MM"/"HH:MM" boundaries into a Window.
func ParseWindow(start, end string) (Window, error) {
	s, err := parseMinuteOfDay(start)
	if err != nil {
		return Window{}, fmt.Errorf("night window start: %w", err)
	}
	e, err := parseMinuteOfDay(end)
	if err != nil {
		return Window{}, fmt.Errorf("night window end: %w", err)
	}
	return Window{Start: s, End: e}, nil
}

// length returns the window length in minutes.
func (w Window) length() int {
	return ((w.End-w.Start)%minutesPerDay + minutesPerDay) % minutesPerDay
}

const minutesPerDay = 24 * 60

// Engine computes derived times. The night window boundary is
// configuration, not an algorithm constant; see config.NightConfig.
type Engine struct {
	window Window
}

// NewEngine creates a time accounting engine with the given night window.
func NewEngine(window Window) *Engine {
	return &Engine{window: window}
}

// Times holds the derived per-record values, always well-formed HH:MM.
type Times struct {
	ElapsedTime string
	NightTime   string
}

// Compute derives ET and NT for one record. Ground activities yield
// zeroed times and no error. A parse failure yields zeroed times and an
// *UnparseableFieldError so the caller can flag the record and continue.
func (e *Engine) Compute(rec roster.Record, base time.Time) (Times, error) {
	zero := Times{ElapsedTime: ZeroTime, NightTime: ZeroTime}

	if rec.IsGround() {
		return zero, nil
	}

	blockMinutes, err := ParseBlockHours(rec.BlockHours)
	if err != nil {
		return zero, err
	}

	std, err := ParseInstant(rec.STDUTC, base)
	if err != nil {
		return zero, err
	}
	sta, err := ParseInstant(rec.STAUTC, base)
	if err != nil {
		return zero, err
	}

	return Times{
		ElapsedTime: FormatMinutes(blockMinutes),
		NightTime:   FormatMinutes(e.NightMinutes(std, sta)),
	}, nil
}

// ParseBlockHours parses a block-hour value into whole minutes. The site
// uses either ":" or "." between hours and minutes; both separators mean
// hours:minutes — "2.05" is 2h05m, never 2.05 hours.
func ParseBlockHours(s string) (int, error) {
	v := strings.TrimSpace(s)
	sep := strings.IndexAny(v, ":.")
	if sep < 0 {
		return 0, &UnparseableFieldError{Field: "BlockHours", Value: s}
	}

	hours, err := strconv.Atoi(v[:sep])
	if err != nil || hours < 0 {
		return 0, &UnparseableFieldError{Field: "BlockHours", Value: s}
	}
	minutes, err := strconv.Atoi(v[sep+1:])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, &UnparseableFieldError{Field: "BlockHours", Value: s}
	}

	return hours*60 + minutes, nil
}

// ParseInstant combines a scraped UTC time of day with the record's base
// date. A "+1" marker advances the date by one day before the time of day
// is applied; STD and STA carry the marker independently.
func ParseInstant(s string, base time.Time) (time.Time, error) {
	v := strings.TrimSpace(s)
	nextDay := strings.Contains(v, dayOffsetMarker)
	if nextDay {
		v = strings.TrimSpace(strings.Replace(v, dayOffsetMarker, "", 1))
	}

	mod, err := parseMinuteOfDay(v)
	if err != nil {
		return time.Time{}, &UnparseableFieldError{Field: "time", Value: s}
	}

	day := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC)
	if nextDay {
		day = day.AddDate(0, 0, 1)
	}
	return day.Add(time.Duration(mod) * time.Minute), nil
}

// NightMinutes returns the minutes of [std, sta) overlapping the night
// window, summed over every 24-hour window the interval intersects. The
// computation works on true UTC instants so legs crossing midnight are
// handled correctly.
func (e *Engine) NightMinutes(std, sta time.Time) int {
	if !sta.After(std) {
		return 0
	}
	winLen := e.window.length()
	if winLen == 0 {
		return 0
	}

	total := 0
	// Walk each calendar day whose window could intersect the leg. The
	// day before departure matters when the window crosses midnight.
	day := time.Date(std.Year(), std.Month(), std.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for !day.After(sta) {
		winStart := day.Add(time.Duration(e.window.Start) * time.Minute)
		winEnd := winStart.Add(time.Duration(winLen) * time.Minute)
		total += overlapMinutes(std, sta, winStart, winEnd)
		day = day.AddDate(0, 0, 1)
	}
	return total
}

// overlapMinutes returns the whole minutes two intervals overlap,
// floor-rounded.
func overlapMinutes(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// FormatMinutes renders whole minutes as zero-padded HH:MM.
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// dateLayouts are tried in order when resolving a record's Date field.
var dateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

// ResolveDate turns the record's free-text Date field into the UTC base
// date for instant construction. Weekday/month tokens resolve against the
// scrape date's year and month; anything unresolvable falls back to the
// scrape date itself.
func ResolveDate(dateField string, scrapeDate time.Time) time.Time {
	v := strings.TrimSpace(dateField)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	normalized := datefmt.Normalize(v, scrapeDate.Year(), int(scrapeDate.Month()))
	if t, err := time.Parse("2006.01.02", normalized); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	return time.Date(scrapeDate.Year(), scrapeDate.Month(), scrapeDate.Day(), 0, 0, 0, 0, time.UTC)
}

func parseMinuteOfDay(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return h*60 + m, nil
}
