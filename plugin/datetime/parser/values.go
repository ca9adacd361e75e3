package parser

import (
	"math"
	"strconv"
	"time"

	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/timex"
)

// yearSearch bounds the years scanned for the nearest occurrence of a
// yearless date; eight years always contain a 29th of February.
const yearSearch = 8

func dateValue(d time.Time) datetime.Resolution {
	d = timex.StartOfDay(d)
	return datetime.Resolution{
		Timex: timex.FromDate(d),
		Type:  datetime.TypeDate,
		Value: d.Format(datetime.DateLayout),
		From:  d,
	}
}

func dateValues(days []time.Time) []datetime.Resolution {
	out := make([]datetime.Resolution, len(days))
	for i, d := range days {
		out[i] = dateValue(d)
	}
	return out
}

func timeValue(t time.Time) datetime.Resolution {
	return datetime.Resolution{
		Timex: timex.FromTime(t),
		Type:  datetime.TypeTime,
		Value: t.Format(datetime.TimeLayout),
		From:  t,
	}
}

func dateTimeValue(t time.Time) datetime.Resolution {
	return datetime.Resolution{
		Timex: timex.FromDateTime(t),
		Type:  datetime.TypeDateTime,
		Value: t.Format(datetime.DateTimeLayout),
		From:  t,
	}
}

func nowValue(ref time.Time) datetime.Resolution {
	return datetime.Resolution{
		Timex: timex.Timex{Now: true},
		Type:  datetime.TypeDateTime,
		Value: ref.Format(datetime.DateTimeLayout),
		From:  ref,
	}
}

func rangeValue(typ string, tx timex.Timex, from, to time.Time, layout string) datetime.Resolution {
	return datetime.Resolution{
		Timex: tx,
		Type:  typ,
		Start: from.Format(layout),
		End:   to.Format(layout),
		From:  from,
		To:    to,
	}
}

func durationValue(d timex.Duration) datetime.Resolution {
	return datetime.Resolution{
		Timex: timex.Timex{Duration: &d},
		Type:  datetime.TypeDuration,
		Value: strconv.FormatFloat(d.Seconds(), 'f', -1, 64),
	}
}

// dateOf returns the calendar date, rejecting overflowing days.
func dateOf(year, month, day int, loc *time.Location) (time.Time, bool) {
	return timex.Timex{Year: timex.Int(year), Month: timex.Int(month), DayOfMonth: timex.Int(day)}.Date(loc)
}

// onDate places the clock time of clock on the calendar day of day.
func onDate(day, clock time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, day.Location())
}

// collapse returns the past and future candidates, dropping missing ones
// and merging equal ones.
func collapse(past, future time.Time) []time.Time {
	switch {
	case past.IsZero() && future.IsZero():
		return nil
	case past.IsZero():
		return []time.Time{future}
	case future.IsZero() || past.Equal(future):
		return []time.Time{past}
	}
	return []time.Time{past, future}
}

// fanOut returns the nearest occurrence at or before the reference day and
// the nearest at or after it.
func fanOut(ref time.Time, occurrence func(year int) (time.Time, bool)) []time.Time {
	day := timex.StartOfDay(ref)
	var past, future time.Time
	for y := ref.Year() - yearSearch; y <= ref.Year()+yearSearch; y++ {
		d, ok := occurrence(y)
		if !ok {
			continue
		}
		if !d.After(day) && (past.IsZero() || d.After(past)) {
			past = d
		}
		if !d.Before(day) && (future.IsZero() || d.Before(future)) {
			future = d
		}
	}
	return collapse(past, future)
}

// nearestAtOrAfter picks the value starting closest to t but not before it.
func nearestAtOrAfter(t time.Time, values []datetime.Resolution) (datetime.Resolution, bool) {
	var best datetime.Resolution
	found := false
	for _, v := range values {
		if v.From.Before(t) {
			continue
		}
		if !found || v.From.Before(best.From) {
			best, found = v, true
		}
	}
	return best, found
}

// latestAtOrBefore picks the value starting closest to t but not after it.
func latestAtOrBefore(t time.Time, values []datetime.Resolution) (datetime.Resolution, bool) {
	var best datetime.Resolution
	found := false
	for _, v := range values {
		if v.From.After(t) {
			continue
		}
		if !found || v.From.After(best.From) {
			best, found = v, true
		}
	}
	return best, found
}

// spanDuration expresses the time between from and to in the largest whole
// unit.
func spanDuration(from, to time.Time) *timex.Duration {
	secs := to.Sub(from).Seconds()
	switch {
	case secs >= 86400 && math.Mod(secs, 86400) == 0:
		return &timex.Duration{Amount: secs / 86400, Unit: timex.UnitDay}
	case math.Mod(secs, 3600) == 0:
		return &timex.Duration{Amount: secs / 3600, Unit: timex.UnitHour}
	case math.Mod(secs, 60) == 0:
		return &timex.Duration{Amount: secs / 60, Unit: timex.UnitMinute}
	}
	return &timex.Duration{Amount: secs, Unit: timex.UnitSecond}
}

// dayDuration counts calendar days between two dates.
func dayDuration(from, to time.Time) *timex.Duration {
	return &timex.Duration{Amount: float64(timex.DaysBetween(from, to)), Unit: timex.UnitDay}
}

// shift moves t by sign times d. Whole calendar units use calendar
// arithmetic, anything else the nominal unit length.
func shift(t time.Time, d timex.Duration, sign int) time.Time {
	n := int(d.Amount)
	if float64(n) == d.Amount {
		switch d.Unit {
		case timex.UnitYear:
			return t.AddDate(sign*n, 0, 0)
		case timex.UnitMonth:
			return t.AddDate(0, sign*n, 0)
		case timex.UnitWeek:
			return t.AddDate(0, 0, sign*7*n)
		case timex.UnitDay:
			return t.AddDate(0, 0, sign*n)
		}
	}
	return t.Add(time.Duration(float64(sign) * d.Seconds() * float64(time.Second)))
}
