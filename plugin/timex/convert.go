package timex

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var monthNames = [...]string{"", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

var seasonNames = map[string]string{
	SeasonSpring: "spring",
	SeasonSummer: "summer",
	SeasonFall:   "fall",
	SeasonWinter: "winter",
}

var partNames = map[string]string{
	PartMorning:   "morning",
	PartAfternoon: "afternoon",
	PartEvening:   "evening",
	PartNight:     "night",
	PartDaytime:   "daytime",
}

// ConvertToString renders t as absolute English text, e.g.
// "8PM 10th June 2024" or "summer 2024". Out-of-range values render empty.
func ConvertToString(t Timex) string {
	if t.Validate() != nil {
		return ""
	}
	if t.Now {
		return "now"
	}
	if t.IsRange() {
		return ConvertToString(*t.Start) + " to " + ConvertToString(*t.End)
	}
	types := Infer(t)
	switch {
	case types.Has(TypeDate) && t.PartOfDay != "":
		return convertDate(t) + " " + partNames[t.PartOfDay]
	case types.Has(TypeDateTime):
		return convertTime(t) + " " + convertDate(t)
	case types.Has(TypeDate):
		return convertDate(t)
	case types.Has(TypeDateRange):
		return convertDateRange(t)
	case types.Has(TypeTime):
		return convertTime(t)
	case types.Has(TypeTimeRange):
		return partNames[t.PartOfDay]
	case types.Has(TypeDuration):
		return convertDuration(*t.Duration)
	}
	return ""
}

// ConvertToStringRelative renders t relative to ref where a relation exists,
// e.g. "tomorrow", "next monday", "this weekend" or "tonight". Dates with no
// relation fall back to ConvertToString; date ranges with no relation
// return "".
func ConvertToStringRelative(t Timex, ref time.Time) string {
	if t.Now || t.IsRange() || t.Validate() != nil {
		return ConvertToString(t)
	}
	types := Infer(t)
	switch {
	case types.Has(TypeDate) && t.PartOfDay != "":
		return convertDateTimeRangeRelative(t, ref)
	case types.Has(TypeDateTime):
		return convertDateRelative(t, ref) + " " + convertTime(t)
	case types.Has(TypeDate):
		return convertDateRelative(t, ref)
	case types.Has(TypeDateRange):
		return convertDateRangeRelative(t, ref)
	}
	return ConvertToString(t)
}

func convertDate(t Timex) string {
	if t.DayOfWeek != nil && (t.Month == nil || t.DayOfMonth == nil) {
		return capitalize(weekdayNames[*t.DayOfWeek])
	}
	s := ordinal(*t.DayOfMonth) + " " + monthNames[*t.Month]
	if t.Year != nil {
		s += " " + strconv.Itoa(*t.Year)
	}
	return s
}

func convertTime(t Timex) string {
	hour, minute, second := *t.Hour, 0, 0
	if t.Minute != nil {
		minute = *t.Minute
	}
	if t.Second != nil {
		second = *t.Second
	}
	if minute == 0 && second == 0 {
		switch hour {
		case 0, 24:
			return "midnight"
		case 12:
			return "midday"
		}
	}
	suffix := "AM"
	if hour >= 12 && hour < 24 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	switch {
	case minute == 0 && second == 0:
		return fmt.Sprintf("%d%s", h, suffix)
	case second == 0:
		return fmt.Sprintf("%d:%02d%s", h, minute, suffix)
	default:
		return fmt.Sprintf("%d:%02d:%02d%s", h, minute, second, suffix)
	}
}

func convertDateRange(t Timex) string {
	year := ""
	if t.Year != nil {
		year = " " + strconv.Itoa(*t.Year)
	}
	switch {
	case t.Season != "":
		return seasonNames[t.Season] + year
	case t.WeekOfYear != nil:
		if t.Weekend {
			return fmt.Sprintf("weekend of week %d%s", *t.WeekOfYear, year)
		}
		return fmt.Sprintf("week %d%s", *t.WeekOfYear, year)
	case t.Month != nil:
		return monthNames[*t.Month] + year
	case t.Year != nil:
		return strconv.Itoa(*t.Year)
	}
	return ""
}

func convertDuration(d Duration) string {
	amount := strconv.FormatFloat(d.Amount, 'f', -1, 64)
	unit := string(d.Unit)
	if d.Amount != 1 {
		unit += "s"
	}
	return amount + " " + unit
}

func convertDateRelative(t Timex, ref time.Time) string {
	d, ok := t.Date(ref.Location())
	if !ok {
		return convertDate(t)
	}
	switch DaysBetween(ref, d) {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	case -1:
		return "yesterday"
	}
	if p := relativePrefix(weekDiff(ref, d)); p != "" {
		return p + " " + weekdayNames[Weekday(d)]
	}
	return convertDate(t)
}

func convertDateRangeRelative(t Timex, ref time.Time) string {
	if t.Year == nil {
		return ""
	}
	var diff int
	var noun string
	switch {
	case t.WeekOfYear != nil:
		start := ISOWeekStart(*t.Year, *t.WeekOfYear, ref.Location())
		diff = weekDiff(ref, start)
		noun = "week"
		if t.Weekend {
			noun = "weekend"
		}
	case t.Season != "":
		diff = *t.Year - ref.Year()
		noun = seasonNames[t.Season]
	case t.Month != nil:
		diff = (*t.Year*12 + *t.Month) - (ref.Year()*12 + int(ref.Month()))
		noun = "month"
	default:
		diff = *t.Year - ref.Year()
		noun = "year"
	}
	p := relativePrefix(diff)
	if p == "" {
		return ""
	}
	return p + " " + noun
}

func convertDateTimeRangeRelative(t Timex, ref time.Time) string {
	part := partNames[t.PartOfDay]
	d, ok := t.Date(ref.Location())
	if !ok {
		return convertDate(t) + " " + part
	}
	switch DaysBetween(ref, d) {
	case 0:
		if t.PartOfDay == PartNight {
			return "tonight"
		}
		return "this " + part
	case 1:
		return "tomorrow " + part
	case -1:
		return "yesterday " + part
	}
	if p := relativePrefix(weekDiff(ref, d)); p != "" {
		return p + " " + weekdayNames[Weekday(d)] + " " + part
	}
	return convertDate(t) + " " + part
}

func weekDiff(ref, d time.Time) int {
	return DaysBetween(WeekStart(ref), WeekStart(d)) / 7
}

func relativePrefix(diff int) string {
	switch diff {
	case 0:
		return "this"
	case 1:
		return "next"
	case -1:
		return "last"
	}
	return ""
}

func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
