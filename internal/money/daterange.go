package money

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a DateRange's end precedes its start.
var ErrInvalidRange = errors.New("money: date range end before start")

// DateRange is an inclusive [start, end] span of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a DateRange, rejecting start > end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: start, End: end}, nil
}

// ForMonth returns [Y-M-01, last-day-of-M] in UTC.
func ForMonth(year int, month time.Month) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return DateRange{Start: start, End: end}
}

// LastNDays returns the inclusive range ending at "end" and spanning the
// previous n-1 days (so n==1 yields a single-day range).
func LastNDays(n int, end time.Time) DateRange {
	start := end.AddDate(0, 0, -(n - 1))
	return DateRange{Start: start, End: end}
}

// Contains reports whether t falls within [Start, End], inclusive, comparing
// calendar dates only (time-of-day is ignored).
func (d DateRange) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(d.Start.Year(), d.Start.Month(), d.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(d.End.Year(), d.End.Month(), d.End.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end)
}
