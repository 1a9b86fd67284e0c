package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateOnlyFormat is the canonical storage format for transaction dates.
const DateOnlyFormat = "2006-01-02"

// statementDateFormats are the formats bank exports actually use, in the
// order we try them. Two-digit-year variants come last so unambiguous
// formats win.
var statementDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"Jan 2, 2006",
	"02 Jan 2006",
	"01/02/06",
}

// ParseStatementDate parses a date string from a statement export, trying
// the known formats in order.
func ParseStatementDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, format := range statementDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", dateStr)
}

// DateOnly truncates a time to its calendar date in UTC. Duplicate matching
// compares calendar dates, never times.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
