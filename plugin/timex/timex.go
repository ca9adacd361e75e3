// Package timex implements the partial date-time value model used to
// exchange recognized temporal expressions, together with its type
// inference and natural-language conversion.
package timex

import (
	"fmt"
	"time"
)

// Unit is a duration unit.
type Unit string

const (
	UnitYear   Unit = "year"
	UnitMonth  Unit = "month"
	UnitWeek   Unit = "week"
	UnitDay    Unit = "day"
	UnitHour   Unit = "hour"
	UnitMinute Unit = "minute"
	UnitSecond Unit = "second"
)

// IsTimeUnit reports whether the unit is below a day.
func (u Unit) IsTimeUnit() bool {
	return u == UnitHour || u == UnitMinute || u == UnitSecond
}

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	switch u {
	case UnitYear, UnitMonth, UnitWeek, UnitDay, UnitHour, UnitMinute, UnitSecond:
		return true
	}
	return false
}

// Seconds returns the nominal length of one unit in seconds.
// Months count as 30 days and years as 365 days.
func (u Unit) Seconds() float64 {
	switch u {
	case UnitYear:
		return 365 * 24 * 3600
	case UnitMonth:
		return 30 * 24 * 3600
	case UnitWeek:
		return 7 * 24 * 3600
	case UnitDay:
		return 24 * 3600
	case UnitHour:
		return 3600
	case UnitMinute:
		return 60
	case UnitSecond:
		return 1
	}
	return 0
}

// Season codes.
const (
	SeasonSpring = "SP"
	SeasonSummer = "SU"
	SeasonFall   = "FA"
	SeasonWinter = "WI"
)

// Part-of-day codes.
const (
	PartMorning   = "MO"
	PartAfternoon = "AF"
	PartEvening   = "EV"
	PartNight     = "NI"
	PartDaytime   = "DT"
)

// Duration is an amount of a single unit.
type Duration struct {
	Amount float64
	Unit   Unit
}

// Timex is a partially specified date, time, duration or range. Any subset
// of the fields may be populated; the populated subset determines the
// inferred type set (see Infer). DayOfWeek uses ISO numbering, 1 is Monday.
type Timex struct {
	Year       *int
	Month      *int
	DayOfMonth *int
	DayOfWeek  *int
	WeekOfYear *int
	Hour       *int
	Minute     *int
	Second     *int

	Season    string
	PartOfDay string
	Weekend   bool
	Now       bool

	Duration *Duration
	Mod      string

	// Start and End link the two ends of a range.
	Start *Timex
	End   *Timex
}

// Validate reports the first field of t, or of its range ends, that is out
// of its calendar bounds.
func (t Timex) Validate() error {
	fields := []struct {
		name   string
		v      *int
		lo, hi int
	}{
		{"month", t.Month, 1, 12},
		{"day", t.DayOfMonth, 1, 31},
		{"weekday", t.DayOfWeek, 1, 7},
		{"week", t.WeekOfYear, 1, 53},
		{"hour", t.Hour, 0, 24},
		{"minute", t.Minute, 0, 59},
		{"second", t.Second, 0, 59},
	}
	for _, f := range fields {
		if f.v != nil && (*f.v < f.lo || *f.v > f.hi) {
			return fmt.Errorf("timex: %s %d out of range [%d, %d]", f.name, *f.v, f.lo, f.hi)
		}
	}
	for _, end := range []*Timex{t.Start, t.End} {
		if end == nil {
			continue
		}
		if err := end.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Int returns a pointer to v, for populating optional fields.
func Int(v int) *int { return &v }

// Types returns the inferred type set of t.
func (t Timex) Types() TypeSet { return Infer(t) }

// IsRange reports whether t links a start and an end.
func (t Timex) IsRange() bool { return t.Start != nil && t.End != nil }

// Clone returns a deep copy of t.
func (t Timex) Clone() Timex {
	c := t
	c.Year = cloneInt(t.Year)
	c.Month = cloneInt(t.Month)
	c.DayOfMonth = cloneInt(t.DayOfMonth)
	c.DayOfWeek = cloneInt(t.DayOfWeek)
	c.WeekOfYear = cloneInt(t.WeekOfYear)
	c.Hour = cloneInt(t.Hour)
	c.Minute = cloneInt(t.Minute)
	c.Second = cloneInt(t.Second)
	if t.Duration != nil {
		d := *t.Duration
		c.Duration = &d
	}
	if t.Start != nil {
		s := t.Start.Clone()
		c.Start = &s
	}
	if t.End != nil {
		e := t.End.Clone()
		c.End = &e
	}
	return c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FromDate builds a definite date timex.
func FromDate(d time.Time) Timex {
	return Timex{Year: Int(d.Year()), Month: Int(int(d.Month())), DayOfMonth: Int(d.Day())}
}

// FromTime builds a time-of-day timex. Seconds are only kept when non-zero.
func FromTime(d time.Time) Timex {
	t := Timex{Hour: Int(d.Hour()), Minute: Int(d.Minute())}
	if d.Second() != 0 {
		t.Second = Int(d.Second())
	}
	return t
}

// FromDateTime builds a definite date-time timex.
func FromDateTime(d time.Time) Timex {
	t := FromDate(d)
	tt := FromTime(d)
	t.Hour, t.Minute, t.Second = tt.Hour, tt.Minute, tt.Second
	return t
}

// FromRange links two timexes and the duration between them.
func FromRange(start, end Timex, d *Duration) Timex {
	s, e := start.Clone(), end.Clone()
	return Timex{Start: &s, End: &e, Duration: d}
}

// Date returns the calendar date of a definite timex in loc.
func (t Timex) Date(loc *time.Location) (time.Time, bool) {
	if t.Year == nil || t.Month == nil || t.DayOfMonth == nil {
		return time.Time{}, false
	}
	d := time.Date(*t.Year, time.Month(*t.Month), *t.DayOfMonth, 0, 0, 0, 0, loc)
	if d.Day() != *t.DayOfMonth {
		return time.Time{}, false
	}
	return d, true
}
