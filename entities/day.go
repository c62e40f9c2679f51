package entities

import "time"

const DayLayout = "2006-01-02"

// DayOf truncates t to its calendar day, as seen in t's own location, and returns
// midnight UTC of that day. All stored dates use this form so they compare and
// subtract cleanly.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats the calendar day of t.
func DayKey(t time.Time) string { return DayOf(t).Format(DayLayout) }

// ParseDay parses YYYY-MM-DD into a calendar day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DayOf(t), nil
}

// DaysBetween counts whole days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)).Hours() / 24)
}

// AddDays shifts a calendar day.
func AddDays(day time.Time, n int) time.Time { return DayOf(day).AddDate(0, 0, n) }
