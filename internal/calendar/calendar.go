// Package calendar holds the date arithmetic behind the month grid.
package calendar

import "time"

// DaysInMonth returns every day of the month at midnight in loc, in order.
// It walks forward one day at a time until the month changes, so month
// lengths and leap years come from the time package rather than a table.
func DaysInMonth(year int, month time.Month, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}

	days := make([]time.Time, 0, 31)
	date := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	for date.Month() == month {
		days = append(days, date)
		date = date.AddDate(0, 0, 1)
	}
	return days
}

// DatesMatch reports whether a and b fall on the same calendar day in local
// time. Time of day is ignored.
func DatesMatch(a, b time.Time) bool {
	ay, am, ad := a.In(time.Local).Date()
	by, bm, bd := b.In(time.Local).Date()
	return ay == by && am == bm && ad == bd
}

// Today returns midnight of now's calendar day
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// UTCMidnight maps the calendar day of t onto midnight UTC.
// Entry dates go over the wire this way so the server compares days, not instants.
func UTCMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LocalDay maps a wire date, midnight UTC, onto midnight of the same calendar
// day in local time
func LocalDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Before reports whether a's local calendar day is strictly before b's
func Before(a, b time.Time) bool {
	ay, am, ad := a.In(time.Local).Date()
	by, bm, bd := b.In(time.Local).Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

// MonthStart returns the first of t's month at midnight
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ShiftMonth moves the pivot by n whole months.
// The result is always the first of the month, so Jan 31 + 1 is February.
func ShiftMonth(pivot time.Time, n int) time.Time {
	return MonthStart(pivot).AddDate(0, n, 0)
}

// FormatMonth renders the grid header, e.g. "January 2024"
func FormatMonth(t time.Time) string {
	return t.Format("January 2006")
}

// ParseMonth parses a YYYY-MM value into the first of that month in loc
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation("2006-01", s, loc)
}

// ParseDay parses a YYYY-MM-DD value into midnight in loc
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(time.DateOnly, s, loc)
}
