package tours

import (
	"fmt"
	"strings"
	"time"

	"fvivu/internal/shared/apperror"
)

// DayLayout is the wire format for start dates
const DayLayout = "2006-01-02"

// ParseStartDate accepts a plain date or an RFC 3339 timestamp and returns
// the calendar day it falls on, at 00:00 UTC.
func ParseStartDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: start date is required", apperror.ErrInvalidInput)
	}
	if t, err := time.Parse(DayLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start date %q is not a valid date", apperror.ErrInvalidInput, raw)
	}
	return NormalizeDay(t), nil
}

// NormalizeDay truncates t to midnight UTC of its UTC calendar day
func NormalizeDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func SameDay(a, b time.Time) bool {
	return NormalizeDay(a).Equal(NormalizeDay(b))
}

func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
