package calendar

import "time"

const (
	// Day is the length of one calendar day in UTC
	Day = 24 * time.Hour

	// DaysPerWeek is the length of a tracker week
	DaysPerWeek = 7

	// DateLayout is the wire format for calendar dates
	DateLayout = "2006-01-02"
)

// StartOfDay normalizes t to 00:00 UTC of the same UTC calendar day.
// Every stored date and every comparison goes through this function.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysSince returns the whole number of days from date to today (negative if date is later)
func DaysSince(today, date time.Time) int {
	diff := StartOfDay(today).Sub(StartOfDay(date))
	return int(floorDiv(int64(diff), int64(Day)))
}

// AddDays shifts a normalized date by n days
func AddDays(date time.Time, n int) time.Time {
	return StartOfDay(date).AddDate(0, 0, n)
}

// TrackerWeek returns the zero-based tracker week index of date,
// counted in 7-day blocks from the tracker start.
func TrackerWeek(date, trackerStart time.Time) int {
	days := DaysSince(date, trackerStart)
	return int(floorDiv(int64(days), DaysPerWeek))
}

// WeekStart returns the first day of the given tracker week
func WeekStart(week int, trackerStart time.Time) time.Time {
	return AddDays(trackerStart, week*DaysPerWeek)
}

// WeekEnd returns the last day (inclusive) of the given tracker week
func WeekEnd(week int, trackerStart time.Time) time.Time {
	return AddDays(trackerStart, week*DaysPerWeek+DaysPerWeek-1)
}

// InPeriod reports whether date falls within [start, end], both inclusive
func InPeriod(date, start, end time.Time) bool {
	d := StartOfDay(date)
	return !d.Before(StartOfDay(start)) && !d.After(StartOfDay(end))
}

// Max returns the later of two dates
func Max(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// Min returns the earlier of two dates
func Min(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// Format renders a date as YYYY-MM-DD
func Format(date time.Time) string {
	return StartOfDay(date).Format(DateLayout)
}

// Parse reads a YYYY-MM-DD date as UTC midnight
func Parse(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// floorDiv rounds toward negative infinity so dates before the anchor land in week -1, not week 0
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
