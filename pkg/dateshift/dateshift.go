// Package dateshift computes the "six calendar months from now" date that
// anchors every generated vision, plus the two display formats the rest of
// the application needs: a long Vietnamese form embedded in the narrative
// prompt and a short numeric form shown in the UI.
package dateshift

import (
	"fmt"
	"time"
)

// MonthsAhead is the fixed horizon of the visualization.
const MonthsAhead = 6

// ISOLayout is the calendar-date layout accepted by [ShiftForward].
const ISOLayout = "2006-01-02"

// ShiftForward parses an ISO calendar date (YYYY-MM-DD) and returns the date
// six calendar months later. When the target month has fewer days than the
// original day-of-month, the result clamps to the last day of the target
// month: Aug 31 shifts to the last day of February, never into March.
//
// Returns an error for anything that does not parse as an ISO date; callers
// treat that as an incomplete form.
func ShiftForward(dateStr string) (time.Time, error) {
	t, err := time.Parse(ISOLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("dateshift: parse %q: %w", dateStr, err)
	}

	year, month, day := t.Date()

	// Normalise year/month via time.Date with day 1, which never overflows,
	// then clamp the day against the target month's length.
	first := time.Date(year, month+MonthsAhead, 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC), nil
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatLong renders t the way vi-VN long date formatting does,
// e.g. "15 tháng 7, 2024". This form is embedded in the narrative prompt.
func FormatLong(t time.Time) string {
	return fmt.Sprintf("%d tháng %d, %d", t.Day(), int(t.Month()), t.Year())
}

// FormatShort renders t as dd/mm/yyyy for display next to the form input.
func FormatShort(t time.Time) string {
	return fmt.Sprintf("%02d/%02d/%04d", t.Day(), int(t.Month()), t.Year())
}
