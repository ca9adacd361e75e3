package timex

import (
	"math"
	"time"
)

// Weekday returns the ISO weekday of d, 1 for Monday through 7 for Sunday.
func Weekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// StartOfDay truncates d to midnight in its own location.
func StartOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.Location())
}

// WeekStart returns the Monday starting the ISO week containing d.
func WeekStart(d time.Time) time.Time {
	d = StartOfDay(d)
	return d.AddDate(0, 0, -(Weekday(d) - 1))
}

// ISOWeekStart returns the Monday of the given ISO year and week.
func ISOWeekStart(year, week int, loc *time.Location) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	return WeekStart(jan4).AddDate(0, 0, (week-1)*7)
}

// DaysBetween counts calendar days from a to b, ignoring clock time.
func DaysBetween(a, b time.Time) int {
	a, b = StartOfDay(a), StartOfDay(b)
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
