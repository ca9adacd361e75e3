package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/lexicon"
	"github.com/hrygo/chronorec/plugin/timex"
)

const ruleEaster = "easter"

func (p *Parser) parseDate(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	switch {
	case er.Has("relday"):
		n, ok := p.lex.RelativeDay(er.Group("relday"))
		if !ok {
			return nil, rerrors.ParseFailed("unknown relative day: " + er.Group("relday"))
		}
		return []datetime.Resolution{dateValue(timex.StartOfDay(ref).AddDate(0, 0, n))}, nil
	case er.Has("weekday") && er.Has("ordinal"):
		return p.parseNthWeekday(er, ref)
	case er.Has("weekday"):
		return p.parseWeekday(er, ref)
	case er.Has("p1"):
		return p.parseNumericDate(er, ref)
	case er.Has("month") && er.Has("day"):
		return p.parseMonthDay(er, ref)
	}
	return nil, rerrors.ParseFailed("unsupported date: " + er.Text)
}

func (p *Parser) parseMonthDay(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	month, err := p.month(er.Group("month"))
	if err != nil {
		return nil, err
	}
	day, err := p.day(er.Group("day"))
	if err != nil {
		return nil, err
	}
	loc := ref.Location()

	if er.Has("year") {
		year, err := p.num.ParseInt(er.Group("year"))
		if err != nil {
			return nil, err
		}
		d, ok := dateOf(year, month, day, loc)
		if !ok {
			return nil, rerrors.OutOfRange("day", day)
		}
		return []datetime.Resolution{dateValue(d)}, nil
	}

	days := fanOut(ref, func(y int) (time.Time, bool) { return dateOf(y, month, day, loc) })
	if len(days) == 0 {
		return nil, rerrors.OutOfRange("day", day)
	}
	return dateValues(days), nil
}

func (p *Parser) parseWeekday(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	dow, ok := p.lex.Weekday(er.Group("weekday"))
	if !ok {
		return nil, rerrors.ParseFailed("unknown weekday: " + er.Group("weekday"))
	}
	day := timex.StartOfDay(ref)

	if er.Has("rel") {
		rel, err := p.relative(er.Group("rel"))
		if err != nil {
			return nil, err
		}
		return []datetime.Resolution{dateValue(timex.WeekStart(day).AddDate(0, 0, 7*rel+dow-1))}, nil
	}

	wd := timex.Weekday(day)
	past := day.AddDate(0, 0, -((wd - dow + 7) % 7))
	future := day.AddDate(0, 0, (dow-wd+7)%7)
	return dateValues(collapse(past, future)), nil
}

func (p *Parser) parseNthWeekday(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	dow, ok := p.lex.Weekday(er.Group("weekday"))
	if !ok {
		return nil, rerrors.ParseFailed("unknown weekday: " + er.Group("weekday"))
	}
	nth, err := p.ordinal(er.Group("ordinal"))
	if err != nil {
		return nil, err
	}
	loc := ref.Location()

	if er.Has("rel") {
		rel, err := p.relative(er.Group("rel"))
		if err != nil {
			return nil, err
		}
		first := time.Date(ref.Year(), ref.Month()+time.Month(rel), 1, 0, 0, 0, 0, loc)
		d, ok := nthWeekdayOf(first.Year(), int(first.Month()), dow, nth, loc)
		if !ok {
			return nil, rerrors.OutOfRange("ordinal", nth)
		}
		return []datetime.Resolution{dateValue(d)}, nil
	}

	month, err := p.month(er.Group("month"))
	if err != nil {
		return nil, err
	}
	occurrence := func(y int) (time.Time, bool) { return nthWeekdayOf(y, month, dow, nth, loc) }
	if er.Has("year") {
		year, err := p.num.ParseInt(er.Group("year"))
		if err != nil {
			return nil, err
		}
		d, ok := occurrence(year)
		if !ok {
			return nil, rerrors.OutOfRange("ordinal", nth)
		}
		return []datetime.Resolution{dateValue(d)}, nil
	}
	days := fanOut(ref, occurrence)
	if len(days) == 0 {
		return nil, rerrors.OutOfRange("ordinal", nth)
	}
	return dateValues(days), nil
}

// ordinal resolves "third", "3rd" or "last" (-1).
func (p *Parser) ordinal(s string) (int, error) {
	if strings.EqualFold(strings.TrimSpace(s), "last") {
		return -1, nil
	}
	if n, ok := p.lex.Ordinal(s); ok {
		return n, nil
	}
	n, err := p.num.ParseInt(s)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 5 {
		return 0, rerrors.OutOfRange("ordinal", n)
	}
	return n, nil
}

// parseNumericDate resolves "6/10/2024" and "10.06.24" with the culture's
// day/month order.
func (p *Parser) parseNumericDate(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	a, err := p.num.ParseInt(er.Group("p1"))
	if err != nil {
		return nil, err
	}
	b, err := p.num.ParseInt(er.Group("p2"))
	if err != nil {
		return nil, err
	}
	yearText := er.Group("year")
	loc := ref.Location()

	if len(yearText) == 2 {
		yy, err := strconv.Atoi(yearText)
		if err != nil {
			return nil, rerrors.Wrap(err, rerrors.ErrCodeParseFailed, "parse year "+yearText)
		}
		month, day := a, b
		if p.lex.DayFirst() {
			month, day = b, a
		}
		if month < 1 || month > 12 {
			return nil, rerrors.OutOfRange("month", month)
		}
		return p.twoDigitYear(yy, month, day, ref)
	}

	normalized := strconv.Itoa(a) + "/" + strconv.Itoa(b) + "/" + yearText
	d, err := dateparse.ParseIn(normalized, loc,
		dateparse.PreferMonthFirst(!p.lex.DayFirst()),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return nil, rerrors.Wrap(err, rerrors.ErrCodeParseFailed, "parse numeric date "+er.Text)
	}
	if d.Day() != a && d.Day() != b {
		return nil, rerrors.OutOfRange("day", d.Day())
	}
	return []datetime.Resolution{dateValue(d)}, nil
}

// twoDigitYear resolves a two-digit year to the nearest matching dates
// before and after the reference.
func (p *Parser) twoDigitYear(yy, month, day int, ref time.Time) ([]datetime.Resolution, error) {
	century := ref.Year() / 100 * 100
	day0 := timex.StartOfDay(ref)
	var past, future time.Time
	for _, c := range []int{century - 100, century, century + 100} {
		d, ok := dateOf(c+yy, month, day, ref.Location())
		if !ok {
			continue
		}
		if !d.After(day0) && (past.IsZero() || d.After(past)) {
			past = d
		}
		if !d.Before(day0) && (future.IsZero() || d.Before(future)) {
			future = d
		}
	}
	days := collapse(past, future)
	if len(days) == 0 {
		return nil, rerrors.OutOfRange("day", day)
	}
	return dateValues(days), nil
}

func (p *Parser) parseHoliday(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	name := er.Group("holiday")
	rule, ok := p.lex.Holiday(name)
	if !ok {
		return nil, rerrors.ParseFailed("unknown holiday: " + name)
	}
	loc := ref.Location()
	occurrence := func(y int) (time.Time, bool) { return holidayDate(rule, y, loc) }

	switch {
	case er.Has("year"):
		year, err := p.num.ParseInt(er.Group("year"))
		if err != nil {
			return nil, err
		}
		d, ok := occurrence(year)
		if !ok {
			return nil, rerrors.ParseFailed("holiday " + name + " has no date in " + er.Group("year"))
		}
		return []datetime.Resolution{dateValue(d)}, nil
	case er.Has("rel"):
		rel, err := p.relative(er.Group("rel"))
		if err != nil {
			return nil, err
		}
		d, ok := occurrence(ref.Year() + rel)
		if !ok {
			return nil, rerrors.ParseFailed("holiday " + name + " has no date")
		}
		return []datetime.Resolution{dateValue(d)}, nil
	}
	days := fanOut(ref, occurrence)
	if len(days) == 0 {
		return nil, rerrors.ParseFailed("holiday " + name + " has no date")
	}
	return dateValues(days), nil
}

// holidayDate computes a holiday of year.
func holidayDate(rule lexicon.HolidayRule, year int, loc *time.Location) (time.Time, bool) {
	var d time.Time
	var ok bool
	switch {
	case rule.Rule == ruleEaster:
		d, ok = easter(year, loc), true
	case rule.Nth != 0:
		d, ok = nthWeekdayOf(year, rule.Month, rule.Weekday, rule.Nth, loc)
	default:
		d, ok = dateOf(year, rule.Month, rule.Day, loc)
	}
	if !ok {
		return time.Time{}, false
	}
	return d.AddDate(0, 0, rule.Offset), true
}

// nthWeekdayOf returns the nth ISO weekday of a month; nth -1 is the last.
func nthWeekdayOf(year, month, weekday, nth int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || weekday < 1 || weekday > 7 {
		return time.Time{}, false
	}
	if nth < 0 {
		last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, loc)
		return last.AddDate(0, 0, -((timex.Weekday(last) - weekday + 7) % 7)), true
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	d := first.AddDate(0, 0, (weekday-timex.Weekday(first)+7)%7+7*(nth-1))
	if int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

// easter returns Easter Sunday of the Gregorian calendar.
func easter(year int, loc *time.Location) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}
