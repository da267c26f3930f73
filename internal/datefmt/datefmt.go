// Package datefmt normalizes the loosely formatted date tokens the source
// table uses ("Jan 5", "Wed 03") into canonical YYYY.MM.DD strings for the
// report view.
package datefmt

import (
	"fmt"
	"strconv"
	"strings"
)

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var weekdays = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true,
	"fri": true, "sat": true, "sun": true,
}

// Normalize converts a "<month-or-weekday-abbreviation> <day>" token into
// YYYY.MM.DD. Month tokens use the processing year; weekday tokens carry
// no month at all, so the processing month is the only available anchor —
// a known precision limit of the source format, not something to repair
// here. Anything else passes through unchanged.
func Normalize(input string, year, month int) string {
	s := strings.TrimSpace(input)
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return input
	}

	dayStr := strings.TrimLeft(parts[1], "0")
	if dayStr == "" {
		dayStr = "0"
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return input
	}

	token := strings.ToLower(parts[0])
	if m, ok := months[token]; ok {
		return fmt.Sprintf("%04d.%02d.%02d", year, m, day)
	}
	if weekdays[token] {
		return fmt.Sprintf("%04d.%02d.%02d", year, month, day)
	}
	return input
}
