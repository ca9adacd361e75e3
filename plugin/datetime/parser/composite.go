package parser

import (
	"time"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/timex"
)

// Modifier codes of the mods dictionary.
const (
	modBefore = "before"
	modAfter  = "after"
	modSince  = "since"
	modUntil  = "until"
	modApprox = "approx"
)

// sides resolves both constituents of a two-part composite.
func (p *Parser) sides(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, []datetime.Resolution, error) {
	if len(er.Data) != 2 {
		return nil, nil, rerrors.ParseFailed("composite without two parts: " + er.Text)
	}
	left, err := p.resolve(er.Data[0], ref)
	if err != nil {
		return nil, nil, err
	}
	right, err := p.resolve(er.Data[1], ref)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// parseDateTime joins "June 10 at 8pm" in either order.
func (p *Parser) parseDateTime(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	dateER, ok := part(er, datetime.TypeDate)
	if !ok {
		return nil, rerrors.ParseFailed("date time without date: " + er.Text)
	}
	timeER, ok := part(er, datetime.TypeTime)
	if !ok {
		return nil, rerrors.ParseFailed("date time without time: " + er.Text)
	}
	dates, err := p.resolve(dateER, ref)
	if err != nil {
		return nil, err
	}
	times, err := p.resolve(timeER, ref)
	if err != nil {
		return nil, err
	}
	clock := times[0]

	out := make([]datetime.Resolution, 0, len(dates))
	for _, d := range dates {
		at := onDate(d.From, clock.From)
		tx := d.Timex.Clone()
		tx.Hour, tx.Minute, tx.Second = clock.Timex.Hour, clock.Timex.Minute, clock.Timex.Second
		out = append(out, datetime.Resolution{
			Timex: tx,
			Type:  datetime.TypeDateTime,
			Value: at.Format(datetime.DateTimeLayout),
			From:  at,
		})
	}
	return out, nil
}

// parseTimeRange joins "from 3pm to 5pm". A left end without a day half
// borrows the right end's.
func (p *Parser) parseTimeRange(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	left, right, err := p.sides(er, ref)
	if err != nil {
		return nil, err
	}
	from, to := left[0].From, right[0].From
	if half, ok := er.Data[1].Groups["dayhalf"]; ok {
		if _, leftHalf := er.Data[0].Groups["dayhalf"]; !leftHalf {
			c := p.inheritDayHalf(map[string]string{"dayhalf2": half},
				clock{hour: from.Hour(), minute: from.Minute(), second: from.Second()},
				clock{hour: to.Hour(), minute: to.Minute(), second: to.Second()})
			from = c.on(from)
		}
	}
	return []datetime.Resolution{timeRangeValue(from, to)}, nil
}

// parseDateRange joins two dates or two periods. Each left value pairs
// with the nearest right value that does not start before it. A year stated
// on one side fixes the other.
func (p *Parser) parseDateRange(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	if len(er.Data) == 3 {
		return p.parseWeekQualifiedRange(er, ref)
	}
	left, right, err := p.sides(er, ref)
	if err != nil {
		return nil, err
	}
	left, right, err = p.inheritYear(er, left, right)
	if err != nil {
		return nil, err
	}
	inclusive := er.Metadata.Range != nil && er.Metadata.Range.PossiblyInclusiveEnd

	var out []datetime.Resolution
	for _, l := range left {
		r, ok := nearestAtOrAfter(l.From, right)
		if !ok {
			continue
		}
		out = append(out, dateRangeValue(l, r, inclusive))
	}
	if len(out) == 0 {
		return nil, rerrors.ParseFailed("date range ends before it starts: " + er.Text)
	}
	return out, nil
}

// parseWeekQualifiedRange resolves "Monday to Wednesday next week": both
// weekdays fall in the week named by the trailing period.
func (p *Parser) parseWeekQualifiedRange(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	weeks, err := p.resolve(er.Data[2], ref)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, rerrors.ParseFailed("unresolved week qualifier: " + er.Text)
	}
	weekStart := timex.WeekStart(weeks[0].From)

	var ends [2]datetime.Resolution
	for i, side := range er.Data[:2] {
		dow, ok := p.lex.Weekday(side.Group("weekday"))
		if !ok {
			return nil, rerrors.ParseFailed("week qualifier without weekday: " + er.Text)
		}
		ends[i] = dateValue(weekStart.AddDate(0, 0, dow-1))
	}
	if ends[1].From.Before(ends[0].From) {
		return nil, rerrors.ParseFailed("date range ends before it starts: " + er.Text)
	}
	inclusive := er.Metadata.Range != nil && er.Metadata.Range.PossiblyInclusiveEnd
	return []datetime.Resolution{dateRangeValue(ends[0], ends[1], inclusive)}, nil
}

// inheritYear re-resolves a yearless side around the other side when only
// that side states a year, keeping the single value nearest to it.
func (p *Parser) inheritYear(er datetime.ExtractResult, left, right []datetime.Resolution) ([]datetime.Resolution, []datetime.Resolution, error) {
	l, r := er.Data[0], er.Data[1]
	switch {
	case statesYear(l) && yearless(r) && len(left) == 1:
		values, err := p.resolve(r, left[0].From)
		if err != nil {
			return nil, nil, err
		}
		if v, ok := nearestAtOrAfter(left[0].From, values); ok {
			right = []datetime.Resolution{v}
		}
	case statesYear(r) && yearless(l) && len(right) == 1:
		values, err := p.resolve(l, right[0].From)
		if err != nil {
			return nil, nil, err
		}
		if v, ok := latestAtOrBefore(right[0].From, values); ok {
			left = []datetime.Resolution{v}
		}
	}
	return left, right, nil
}

func statesYear(er datetime.ExtractResult) bool {
	return er.Has("year")
}

// yearless reports whether er names a calendar day, month or holiday
// without any year or relative anchor.
func yearless(er datetime.ExtractResult) bool {
	if er.Has("year") || er.Has("rel") || er.Has("relday") {
		return false
	}
	return er.Has("month") || er.Has("holiday")
}

func dateRangeValue(l, r datetime.Resolution, inclusive bool) datetime.Resolution {
	to, endTx := r.From, r.Timex
	if inclusive {
		if r.To.IsZero() {
			to = r.From.AddDate(0, 0, 1)
		} else {
			to = r.To
		}
		endTx = timex.FromDate(to)
	}
	var dur *timex.Duration
	if monthGranular(l.Timex) && monthGranular(endTx) {
		dur = &timex.Duration{Amount: float64(monthsBetween(l.From, to)), Unit: timex.UnitMonth}
	} else {
		dur = dayDuration(l.From, to)
	}
	tx := timex.FromRange(l.Timex, endTx, dur)
	return rangeValue(datetime.TypeDateRange, tx, l.From, to, datetime.DateLayout)
}

func monthGranular(t timex.Timex) bool {
	return t.Month != nil && t.DayOfMonth == nil && t.WeekOfYear == nil
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// parseDateTimeRange joins "June 10 at 8pm to 10pm" and "June 10 at 8pm to
// June 11 at 9am".
func (p *Parser) parseDateTimeRange(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	left, right, err := p.sides(er, ref)
	if err != nil {
		return nil, err
	}
	var out []datetime.Resolution
	for _, l := range left {
		var to time.Time
		if er.Data[1].Type == datetime.TypeTime {
			to = onDate(l.From, right[0].From)
			if !to.After(l.From) {
				to = to.AddDate(0, 0, 1)
			}
		} else {
			r, ok := nearestAtOrAfter(l.From, right)
			if !ok {
				continue
			}
			to = r.From
		}
		tx := timex.FromRange(timex.FromDateTime(l.From), timex.FromDateTime(to), spanDuration(l.From, to))
		out = append(out, rangeValue(datetime.TypeDateTimeRange, tx, l.From, to, datetime.DateTimeLayout))
	}
	if len(out) == 0 {
		return nil, rerrors.ParseFailed("date time range ends before it starts: " + er.Text)
	}
	return out, nil
}

// parseDateTimePeriod places a time range on a date: "tomorrow morning",
// "June 10 from 9 to 5pm".
func (p *Parser) parseDateTimePeriod(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	dateER, ok := part(er, datetime.TypeDate)
	if !ok {
		return nil, rerrors.ParseFailed("date period without date: " + er.Text)
	}
	rangeER, ok := part(er, datetime.TypeTimeRange)
	if !ok {
		return nil, rerrors.ParseFailed("date period without time range: " + er.Text)
	}
	dates, err := p.resolve(dateER, ref)
	if err != nil {
		return nil, err
	}
	ranges, err := p.resolve(rangeER, ref)
	if err != nil {
		return nil, err
	}
	tr := ranges[0]

	out := make([]datetime.Resolution, 0, len(dates))
	for _, d := range dates {
		if tr.Timex.PartOfDay != "" {
			out = append(out, partOfDayValue(d.From, tr.Timex.PartOfDay))
			continue
		}
		from := onDate(d.From, tr.From)
		to := from.Add(tr.To.Sub(tr.From))
		tx := timex.FromRange(timex.FromDateTime(from), timex.FromDateTime(to), spanDuration(from, to))
		out = append(out, rangeValue(datetime.TypeDateTimeRange, tx, from, to, datetime.DateTimeLayout))
	}
	return out, nil
}

// parseMod applies "before", "since", "around" and the like to the inner
// candidate.
func (p *Parser) parseMod(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	if len(er.Data) != 1 {
		return nil, rerrors.ParseFailed("modifier without target: " + er.Text)
	}
	values, err := p.resolve(er.Data[0], ref)
	if err != nil {
		return nil, err
	}
	mod := er.Metadata.Mod
	for i := range values {
		v := &values[i]
		v.Mod = mod
		v.Timex.Mod = mod
		if v.To.IsZero() {
			applyPointMod(v, mod)
		} else {
			applyRangeMod(v, mod)
		}
	}
	return values, nil
}

func applyPointMod(v *datetime.Resolution, mod string) {
	switch mod {
	case modBefore, modUntil:
		v.End, v.Value = v.Value, ""
	case modAfter, modSince:
		v.Start, v.Value = v.Value, ""
	}
}

func applyRangeMod(v *datetime.Resolution, mod string) {
	switch mod {
	case modBefore:
		v.End, v.Start = v.Start, ""
	case modAfter:
		v.Start, v.End = v.End, ""
	case modSince:
		v.End = ""
	case modUntil:
		v.Start = ""
	}
}
