// Package dategen produces runs of calendar dates for bulk insertion: every
// day of an inclusive range, or a fixed number of weekly occurrences.
//
// Generated entries are always in ascending order and carry a shared note.
// De-duplication against already known dates is a separate step (Dedupe) so
// that generation stays a pure function of its inputs.
package dategen

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/ryanbastic/rollcall/internal/schedule"
)

// Layout is the ISO-8601 calendar date layout used for every stored date.
const Layout = "2006-01-02"

// MaxGenerated caps a single generator call.
const MaxGenerated = 366 * 5

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("end date must not be before start date")
	ErrInvalidCount = errors.New("occurrence count must be positive")
	ErrTooManyDates = errors.New("too many dates requested")
)

// ParseDay parses a YYYY-MM-DD string into midnight UTC of that day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(Layout)
}

// Range returns one entry per day from start to end inclusive.
func Range(start, end time.Time, note string) ([]schedule.DateInput, error) {
	start, end = midnight(start), midnight(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > MaxGenerated {
		return nil, fmt.Errorf("%w: %d days (max %d)", ErrTooManyDates, days, MaxGenerated)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start,
		Until:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("build daily rule: %w", err)
	}
	return toInputs(r.All(), note), nil
}

// Weekly returns count entries at start + 7*i days for i in [0, count).
func Weekly(start time.Time, count int, note string) ([]schedule.DateInput, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if count > MaxGenerated {
		return nil, fmt.Errorf("%w: %d occurrences (max %d)", ErrTooManyDates, count, MaxGenerated)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: midnight(start),
		Count:   count,
	})
	if err != nil {
		return nil, fmt.Errorf("build weekly rule: %w", err)
	}
	return toInputs(r.All(), note), nil
}

// Dedupe drops entries whose date is already in existing or appeared earlier
// in entries. Order is preserved.
func Dedupe(existing []schedule.CalendarDate, entries []schedule.DateInput) []schedule.DateInput {
	seen := make(map[string]struct{}, len(existing)+len(entries))
	for _, d := range existing {
		seen[d.Date] = struct{}{}
	}

	var out []schedule.DateInput
	for _, e := range entries {
		if _, dup := seen[e.Date]; dup {
			continue
		}
		seen[e.Date] = struct{}{}
		out = append(out, e)
	}
	return out
}

func toInputs(days []time.Time, note string) []schedule.DateInput {
	out := make([]schedule.DateInput, len(days))
	for i, d := range days {
		out[i] = schedule.DateInput{Date: FormatDay(d), Note: note}
	}
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
