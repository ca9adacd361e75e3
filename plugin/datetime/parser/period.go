package parser

import (
	"strings"
	"time"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/lexicon"
	"github.com/hrygo/chronorec/plugin/timex"
)

// Period units of the periodUnits dictionary.
const (
	periodWeek    = "week"
	periodWeekend = "weekend"
	periodMonth   = "month"
	periodYear    = "year"
)

// seasonStart is the first month of each meteorological season.
var seasonStart = map[string]time.Month{
	timex.SeasonSpring: time.March,
	timex.SeasonSummer: time.June,
	timex.SeasonFall:   time.September,
	timex.SeasonWinter: time.December,
}

func (p *Parser) parsePeriod(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	switch {
	case er.Has("day2"):
		return p.parseDayRange(er, ref)
	case er.Has("periodunit"):
		return p.parseRelativeUnit(er, ref)
	case er.Has("season"):
		return p.parseSeason(er, ref)
	case er.Has("month"):
		return p.parseMonth(er, ref)
	case er.Has("year"):
		year, err := p.num.ParseInt(er.Group("year"))
		if err != nil {
			return nil, err
		}
		return []datetime.Resolution{yearValue(year, ref.Location())}, nil
	}
	return nil, rerrors.ParseFailed("unsupported period: " + er.Text)
}

func (p *Parser) parseRelativeUnit(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	unit, ok := p.lex.PeriodUnit(er.Group("periodunit"))
	if !ok {
		return nil, rerrors.ParseFailed("unknown period unit: " + er.Group("periodunit"))
	}
	rel := 0
	if er.Has("rel") {
		var err error
		if rel, err = p.relative(er.Group("rel")); err != nil {
			return nil, err
		}
	}
	day := timex.StartOfDay(ref)
	loc := ref.Location()

	switch unit {
	case periodWeek, periodWeekend:
		ws := timex.WeekStart(day).AddDate(0, 0, 7*rel)
		year, week := ws.ISOWeek()
		tx := timex.Timex{Year: timex.Int(year), WeekOfYear: timex.Int(week)}
		from, to := ws, ws.AddDate(0, 0, 7)
		if unit == periodWeekend {
			tx.Weekend = true
			from = ws.AddDate(0, 0, 5)
		}
		return []datetime.Resolution{rangeValue(datetime.TypeDateRange, tx, from, to, datetime.DateLayout)}, nil
	case periodMonth:
		first := time.Date(ref.Year(), ref.Month()+time.Month(rel), 1, 0, 0, 0, 0, loc)
		return []datetime.Resolution{monthValue(first)}, nil
	case periodYear:
		return []datetime.Resolution{yearValue(ref.Year()+rel, loc)}, nil
	}
	return nil, rerrors.ParseFailed("unsupported period unit: " + unit)
}

func (p *Parser) parseSeason(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	season, ok := p.lex.Season(er.Group("season"))
	if !ok {
		return nil, rerrors.ParseFailed("unknown season: " + er.Group("season"))
	}
	start, ok := seasonStart[season]
	if !ok {
		return nil, rerrors.ParseFailed("unknown season code: " + season)
	}
	tx := timex.Timex{Season: season}
	loc := ref.Location()

	var year int
	switch {
	case er.Has("year"):
		y, err := p.num.ParseInt(er.Group("year"))
		if err != nil {
			return nil, err
		}
		year = y
		tx.Year = timex.Int(year)
	case er.Has("rel"):
		rel, err := p.relative(er.Group("rel"))
		if err != nil {
			return nil, err
		}
		year = ref.Year() + rel
		tx.Year = timex.Int(year)
	default:
		year = ref.Year()
		// Winter of the current year started last December.
		if start == time.December && ref.Month() < time.March {
			year--
		}
	}
	from := time.Date(year, start, 1, 0, 0, 0, 0, loc)
	return []datetime.Resolution{rangeValue(datetime.TypeDateRange, tx, from, from.AddDate(0, 3, 0), datetime.DateLayout)}, nil
}

func (p *Parser) parseMonth(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	month, err := p.month(er.Group("month"))
	if err != nil {
		return nil, err
	}
	loc := ref.Location()

	switch {
	case er.Has("year"):
		year, err := p.num.ParseInt(er.Group("year"))
		if err != nil {
			return nil, err
		}
		return []datetime.Resolution{monthValue(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc))}, nil
	case er.Has("rel"):
		rel, err := p.relative(er.Group("rel"))
		if err != nil {
			return nil, err
		}
		return []datetime.Resolution{monthValue(time.Date(ref.Year()+rel, time.Month(month), 1, 0, 0, 0, 0, loc))}, nil
	}

	if ref.Month() == time.Month(month) {
		return []datetime.Resolution{monthValue(time.Date(ref.Year(), time.Month(month), 1, 0, 0, 0, 0, loc))}, nil
	}
	var past, future time.Time
	if time.Month(month) < ref.Month() {
		past = time.Date(ref.Year(), time.Month(month), 1, 0, 0, 0, 0, loc)
		future = past.AddDate(1, 0, 0)
	} else {
		future = time.Date(ref.Year(), time.Month(month), 1, 0, 0, 0, 0, loc)
		past = future.AddDate(-1, 0, 0)
	}
	return []datetime.Resolution{monthValue(past), monthValue(future)}, nil
}

// parseDayRange resolves "June 10-12" and "du 3 au 5 mai".
func (p *Parser) parseDayRange(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	month, err := p.month(er.Group("month"))
	if err != nil {
		return nil, err
	}
	d1, err := p.day(er.Group("day"))
	if err != nil {
		return nil, err
	}
	d2, err := p.day(er.Group("day2"))
	if err != nil {
		return nil, err
	}
	if d2 < d1 {
		return nil, rerrors.OutOfRange("day", d2)
	}
	extra := 0
	if m := p.lex.Connector(lexicon.ConnInclusive); m != nil {
		if ok, err := m.MatchString(strings.TrimSpace(er.Group("conn"))); err == nil && ok {
			extra = 1
		}
	}
	loc := ref.Location()
	bounds := func(year int) (time.Time, time.Time, bool) {
		from, ok := dateOf(year, month, d1, loc)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		to, ok := dateOf(year, month, d2, loc)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		return from, to.AddDate(0, 0, extra), true
	}

	var starts []time.Time
	if er.Has("year") {
		year, err := p.num.ParseInt(er.Group("year"))
		if err != nil {
			return nil, err
		}
		starts = []time.Time{time.Date(year, 1, 1, 0, 0, 0, 0, loc)}
	} else {
		starts = fanOut(ref, func(y int) (time.Time, bool) {
			from, _, ok := bounds(y)
			return from, ok
		})
	}

	var out []datetime.Resolution
	for _, s := range starts {
		from, to, ok := bounds(s.Year())
		if !ok {
			continue
		}
		tx := timex.FromRange(timex.FromDate(from), timex.FromDate(to), dayDuration(from, to))
		out = append(out, rangeValue(datetime.TypeDateRange, tx, from, to, datetime.DateLayout))
	}
	if len(out) == 0 {
		return nil, rerrors.OutOfRange("day", d2)
	}
	return out, nil
}

// parsePartOfDayDate resolves "tonight" and "last night".
func (p *Parser) parsePartOfDayDate(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	rel := 0
	pod := timex.PartNight
	if !er.Has("tonight") {
		var ok bool
		if pod, ok = p.lex.PartOfDay(er.Group("pod")); !ok {
			return nil, rerrors.ParseFailed("unknown part of day: " + er.Group("pod"))
		}
		var err error
		if rel, err = p.relative(er.Group("rel")); err != nil {
			return nil, err
		}
	}
	day := timex.StartOfDay(ref).AddDate(0, 0, rel)
	return []datetime.Resolution{partOfDayValue(day, pod)}, nil
}

func partOfDayValue(day time.Time, pod string) datetime.Resolution {
	bounds := podBounds[pod]
	tx := timex.FromDate(day)
	tx.PartOfDay = pod
	return rangeValue(datetime.TypeDateTimeRange, tx, bounds[0].on(day), bounds[1].on(day), datetime.DateTimeLayout)
}

func monthValue(first time.Time) datetime.Resolution {
	tx := timex.Timex{Year: timex.Int(first.Year()), Month: timex.Int(int(first.Month()))}
	return rangeValue(datetime.TypeDateRange, tx, first, first.AddDate(0, 1, 0), datetime.DateLayout)
}

func yearValue(year int, loc *time.Location) datetime.Resolution {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, loc)
	return rangeValue(datetime.TypeDateRange, timex.Timex{Year: timex.Int(year)}, from, from.AddDate(1, 0, 0), datetime.DateLayout)
}
