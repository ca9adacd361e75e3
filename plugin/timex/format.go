package timex

import (
	"fmt"
	"strconv"
	"strings"
)

// PresentRef is the timex of "now".
const PresentRef = "PRESENT_REF"

var unitCodes = map[Unit]string{
	UnitYear:   "Y",
	UnitMonth:  "M",
	UnitWeek:   "W",
	UnitDay:    "D",
	UnitHour:   "H",
	UnitMinute: "M",
	UnitSecond: "S",
}

// String renders t in the compact timex format, e.g. "2024-06-10T20",
// "XXXX-WXX-5", "2024-W24-WE", "TEV", "P3D" or "(T15,T17,PT2H)".
func (t Timex) String() string {
	if t.Now {
		return PresentRef
	}
	if t.IsRange() {
		s := "(" + t.Start.String() + "," + t.End.String()
		if t.Duration != nil {
			s += "," + t.Duration.String()
		}
		return s + ")"
	}

	date := t.datePart()
	clock := t.timePart()
	if date == "" && clock == "" {
		if t.Duration != nil {
			return t.Duration.String()
		}
		return ""
	}
	return date + clock
}

func (t Timex) datePart() string {
	year := "XXXX"
	if t.Year != nil {
		year = fmt.Sprintf("%04d", *t.Year)
	}
	switch {
	case t.Season != "":
		return year + "-" + t.Season
	case t.WeekOfYear != nil:
		s := fmt.Sprintf("%s-W%02d", year, *t.WeekOfYear)
		if t.Weekend {
			return s + "-WE"
		}
		if t.DayOfWeek != nil {
			return fmt.Sprintf("%s-%d", s, *t.DayOfWeek)
		}
		return s
	case t.DayOfWeek != nil:
		return fmt.Sprintf("XXXX-WXX-%d", *t.DayOfWeek)
	case t.Month != nil && t.DayOfMonth != nil:
		return fmt.Sprintf("%s-%02d-%02d", year, *t.Month, *t.DayOfMonth)
	case t.Month != nil:
		return fmt.Sprintf("%s-%02d", year, *t.Month)
	case t.Year != nil:
		return year
	}
	return ""
}

func (t Timex) timePart() string {
	if t.PartOfDay != "" {
		return "T" + t.PartOfDay
	}
	if t.Hour == nil {
		return ""
	}
	minute, second := 0, 0
	if t.Minute != nil {
		minute = *t.Minute
	}
	if t.Second != nil {
		second = *t.Second
	}
	switch {
	case minute == 0 && second == 0:
		return fmt.Sprintf("T%02d", *t.Hour)
	case second == 0:
		return fmt.Sprintf("T%02d:%02d", *t.Hour, minute)
	default:
		return fmt.Sprintf("T%02d:%02d:%02d", *t.Hour, minute, second)
	}
}

// String renders the duration, e.g. "P3D", "PT1.5H".
func (d Duration) String() string {
	amount := strconv.FormatFloat(d.Amount, 'f', -1, 64)
	if d.Unit.IsTimeUnit() {
		return "PT" + amount + unitCodes[d.Unit]
	}
	return "P" + amount + unitCodes[d.Unit]
}

// Seconds returns the nominal length of d in seconds.
func (d Duration) Seconds() float64 {
	return d.Amount * d.Unit.Seconds()
}

// JoinStrings renders a list of timexes separated by "|".
func JoinStrings(ts []Timex) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, "|")
}
