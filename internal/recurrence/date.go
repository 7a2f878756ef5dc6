package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the canonical, zero-padded date format. Lexicographic
// order of strings in this layout equals chronological order.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a canonical YYYY-MM-DD string into midnight UTC of that
// calendar day. The value is built from the three numeric components, so
// the weekday never shifts with the host timezone.
func ParseDate(s string) (time.Time, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	year, err := atoiDigits(s[0:4])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	month, err := atoiDigits(s[5:7])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	day, err := atoiDigits(s[8:10])
	if err != nil || day < 1 || day > daysInMonth(year, time.Month(month)) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// ValidDate reports whether s is a canonical YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// FormatDate renders the calendar day of t (in t's own location).
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar date in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return FormatDate(now.In(loc))
}

// Weekday returns 0 (Sunday) through 6 (Saturday) for a canonical date.
func Weekday(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return int(t.Weekday()), nil
}

// MonthGrid returns the 42 dates (six Sunday-first weeks) shown for a
// month view, padded with trailing days of the previous month and leading
// days of the next.
func MonthGrid(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := weekStart(first)

	cells := make([]time.Time, 42)
	for i := range cells {
		cells[i] = time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, time.UTC)
	}
	return cells
}

// weekStart returns the Sunday on or before t.
func weekStart(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Sunday)
	sunday := t.AddDate(0, 0, -offset)
	return time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func atoiDigits(s string) (int, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit %q", c)
		}
	}
	return strconv.Atoi(s)
}
