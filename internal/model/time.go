package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout used for stored and transmitted
// timestamps. Fixed width keeps string comparison in time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

var parseLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// FormatTime renders t in TimeLayout. The zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// ParseTimeStrict parses s using any of the accepted layouts.
func ParseTimeStrict(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
}

// ParseTime parses s leniently: anything unparseable becomes the current time.
func ParseTime(s string) time.Time {
	t, err := ParseTimeStrict(s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// ParseDueDate parses a user-supplied due date ("2026-03-01" or RFC 3339).
func ParseDueDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseTimeStrict(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
