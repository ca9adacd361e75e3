package parser

import (
	"strings"
	"time"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/timex"
)

const (
	dayHalfAM = "am"
	dayHalfPM = "pm"
)

// clock is a resolved time of day.
type clock struct {
	hour, minute, second int
}

func (c clock) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, c.second, 0, day.Location())
}

// podBounds are the clock bounds of each part of day.
var podBounds = map[string][2]clock{
	timex.PartMorning:   {{hour: 8}, {hour: 12}},
	timex.PartAfternoon: {{hour: 12}, {hour: 16}},
	timex.PartEvening:   {{hour: 16}, {hour: 20}},
	timex.PartNight:     {{hour: 20}, {hour: 23, minute: 59, second: 59}},
	timex.PartDaytime:   {{hour: 8}, {hour: 18}},
}

func (p *Parser) parseTime(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	c, err := p.clockOf(er.Groups, "hour", "minute", "dayhalf")
	if err != nil {
		return nil, err
	}
	return []datetime.Resolution{timeValue(c.on(ref))}, nil
}

// clockOf resolves the hour/minute/second/day-half groups of a time
// pattern. The group names of the hour, minute and day half are passed so
// that the second end of a range can be read with the same rules.
func (p *Parser) clockOf(groups map[string]string, hourKey, minuteKey, halfKey string) (clock, error) {
	var c clock
	if s, ok := groups["special"]; ok {
		h, ok := p.lex.SpecialTime(s)
		if !ok {
			return c, rerrors.ParseFailed("unknown special time: " + s)
		}
		c.hour = h
		return c, nil
	}

	h, err := p.hourOf(groups[hourKey])
	if err != nil {
		return c, err
	}
	c.hour = h

	switch {
	case has(groups, "relmin") || has(groups, "relminnum"):
		m, err := p.relativeMinutes(groups)
		if err != nil {
			return c, err
		}
		if strings.EqualFold(groups["reldir"], "to") {
			c.hour = (c.hour + 23) % 24
			m = 60 - m
		}
		c.minute = m
	case has(groups, minuteKey):
		m, err := p.minute(groups[minuteKey])
		if err != nil {
			return c, err
		}
		c.minute = m
	}
	if s, ok := groups["second"]; ok && hourKey == "hour" {
		sec, err := p.num.ParseInt(s)
		if err != nil {
			return c, err
		}
		if sec < 0 || sec > 59 {
			return c, rerrors.OutOfRange("second", sec)
		}
		c.second = sec
	}

	if half, ok := groups[halfKey]; ok {
		c, err = p.applyDayHalf(c, half)
		if err != nil {
			return c, err
		}
	}
	if c.hour == 24 {
		if c.minute != 0 || c.second != 0 {
			return c, rerrors.OutOfRange("hour", 24)
		}
		c.hour = 0
	}
	return c, nil
}

func has(groups map[string]string, key string) bool {
	_, ok := groups[key]
	return ok
}

func (p *Parser) hourOf(s string) (int, error) {
	if n, ok := p.lex.Cardinal(s); ok {
		if n > 24 {
			return 0, rerrors.OutOfRange("hour", n)
		}
		return n, nil
	}
	return p.hour(s)
}

func (p *Parser) relativeMinutes(groups map[string]string) (int, error) {
	if rel, ok := groups["relmin"]; ok {
		if strings.EqualFold(rel, "half") {
			return 30, nil
		}
		return 15, nil
	}
	s := groups["relminnum"]
	n, ok := p.lex.Cardinal(s)
	if !ok {
		var err error
		if n, err = p.num.ParseInt(s); err != nil {
			return 0, err
		}
	}
	if n < 1 || n > 59 {
		return 0, rerrors.OutOfRange("minute", n)
	}
	return n, nil
}

// applyDayHalf moves a 12-hour clock into the morning or afternoon.
func (p *Parser) applyDayHalf(c clock, word string) (clock, error) {
	half, ok := p.lex.DayHalf(word)
	if !ok {
		return c, rerrors.ParseFailed("unknown day half: " + word)
	}
	if c.hour > 12 {
		return c, rerrors.OutOfRange("hour", c.hour)
	}
	switch {
	case half == dayHalfPM && c.hour < 12:
		c.hour += 12
	case half == dayHalfAM && c.hour == 12:
		c.hour = 0
	}
	return c, nil
}

// parseTimeOfDayRange resolves a part of day ("this evening" without the
// date) or an hour range ("9-5pm").
func (p *Parser) parseTimeOfDayRange(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	if er.Has("pod") {
		pod, ok := p.lex.PartOfDay(er.Group("pod"))
		if !ok {
			return nil, rerrors.ParseFailed("unknown part of day: " + er.Group("pod"))
		}
		bounds := podBounds[pod]
		day := timex.StartOfDay(ref)
		return []datetime.Resolution{rangeValue(datetime.TypeTimeRange, timex.Timex{PartOfDay: pod},
			bounds[0].on(day), bounds[1].on(day), datetime.TimeLayout)}, nil
	}

	to, err := p.clockOf(er.Groups, "hour2", "minute2", "dayhalf2")
	if err != nil {
		return nil, err
	}
	from, err := p.clockOf(er.Groups, "hour", "minute", "dayhalf")
	if err != nil {
		return nil, err
	}
	if !er.Has("dayhalf") && er.Has("dayhalf2") {
		from = p.inheritDayHalf(er.Groups, from, to)
	}
	day := timex.StartOfDay(ref)
	return []datetime.Resolution{timeRangeValue(from.on(day), to.on(day))}, nil
}

// inheritDayHalf gives the left end of "9-5pm" the day half of the right
// end, unless that would put it after the right end.
func (p *Parser) inheritDayHalf(groups map[string]string, from, to clock) clock {
	adjusted, err := p.applyDayHalf(from, groups["dayhalf2"])
	if err != nil {
		return from
	}
	if adjusted.hour*60+adjusted.minute > to.hour*60+to.minute {
		if am, err := p.applyDayHalf(from, dayHalfAM); err == nil {
			return am
		}
		return from
	}
	return adjusted
}

// timeRangeValue builds a time range, wrapping past midnight when the end
// is not after the start.
func timeRangeValue(from, to time.Time) datetime.Resolution {
	if !to.After(from) {
		to = to.Add(24 * time.Hour)
	}
	tx := timex.FromRange(timex.FromTime(from), timex.FromTime(to), spanDuration(from, to))
	return rangeValue(datetime.TypeTimeRange, tx, from, to, datetime.TimeLayout)
}
