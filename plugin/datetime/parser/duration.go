package parser

import (
	"strings"
	"time"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/timex"
)

const (
	directionPast   = "past"
	directionFuture = "future"
)

func (p *Parser) parseDuration(er datetime.ExtractResult) ([]datetime.Resolution, error) {
	d, err := p.durationOf(er)
	if err != nil {
		return nil, err
	}
	return []datetime.Resolution{durationValue(d)}, nil
}

func (p *Parser) durationOf(er datetime.ExtractResult) (timex.Duration, error) {
	unit, ok := p.lex.Unit(er.Group("unit"))
	if !ok {
		return timex.Duration{}, rerrors.ParseFailed("unknown unit: " + er.Group("unit"))
	}
	amount, err := p.num.ParseText(er.Group("amount"))
	if err != nil {
		return timex.Duration{}, err
	}
	if er.Has("half") {
		amount += 0.5
	}
	if amount <= 0 {
		return timex.Duration{}, rerrors.ParseFailed("non-positive duration: " + er.Text)
	}
	return timex.Duration{Amount: amount, Unit: timex.Unit(unit)}, nil
}

// parseSet resolves recurrences. Their value is never resolved.
func (p *Parser) parseSet(er datetime.ExtractResult) ([]datetime.Resolution, error) {
	var tx timex.Timex
	switch {
	case er.Has("setword"):
		code, ok := p.lex.SetWord(er.Group("setword"))
		if !ok {
			return nil, rerrors.ParseFailed("unknown set word: " + er.Group("setword"))
		}
		d, err := timex.ParseDuration(code)
		if err != nil {
			return nil, rerrors.Wrap(err, rerrors.ErrCodeParseFailed, "parse set code "+code)
		}
		tx.Duration = &d
	case er.Has("weekday"):
		dow, ok := p.lex.Weekday(er.Group("weekday"))
		if !ok {
			return nil, rerrors.ParseFailed("unknown weekday: " + er.Group("weekday"))
		}
		tx.DayOfWeek = timex.Int(dow)
	case er.Has("pod"):
		pod, ok := p.lex.PartOfDay(er.Group("pod"))
		if !ok {
			return nil, rerrors.ParseFailed("unknown part of day: " + er.Group("pod"))
		}
		tx.PartOfDay = pod
	case er.Has("unit"):
		unit, ok := p.lex.Unit(er.Group("unit"))
		if !ok {
			return nil, rerrors.ParseFailed("unknown unit: " + er.Group("unit"))
		}
		amount := 1.0
		if a, ok := er.Groups["amount"]; ok {
			if strings.EqualFold(a, "other") {
				amount = 2
			} else {
				n, err := p.num.ParseText(a)
				if err != nil {
					return nil, err
				}
				amount = n
			}
		}
		tx.Duration = &timex.Duration{Amount: amount, Unit: timex.Unit(unit)}
	default:
		return nil, rerrors.ParseFailed("unsupported set: " + er.Text)
	}
	return []datetime.Resolution{{
		Timex: tx,
		Type:  datetime.TypeSet,
		Value: datetime.NotResolved,
	}}, nil
}

// parseDurationPoint resolves "3 days ago" and "in 2 hours" relative to the
// reference. When the direction word doubles as a modifier ("2 days
// before") the plain duration is kept as a second value.
func (p *Parser) parseDurationPoint(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	d, hints, err := p.modifiedDuration(er)
	if err != nil {
		return nil, err
	}
	sign := 1
	if hints.Direction == directionPast {
		sign = -1
	}
	out := []datetime.Resolution{pointValue(shift(ref, d, sign), d.Unit, er.Type)}
	if hints.AmbiguousAgo {
		out = append(out, durationValue(d))
	}
	return out, nil
}

// parseDurationRange resolves "the next 3 days" and "within 2 hours" into
// the span between the reference and the shifted reference.
func (p *Parser) parseDurationRange(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	d, hints, err := p.modifiedDuration(er)
	if err != nil {
		return nil, err
	}
	anchor := ref
	layout := datetime.DateTimeLayout
	if er.Type == datetime.TypeDateRange {
		anchor = timex.StartOfDay(ref)
		layout = datetime.DateLayout
	}
	from, to := anchor, shift(anchor, d, 1)
	if hints.Direction == directionPast {
		from, to = shift(anchor, d, -1), anchor
	}
	tx := timex.FromRange(pointTimex(from, er.Type), pointTimex(to, er.Type), &d)
	return []datetime.Resolution{rangeValue(er.Type, tx, from, to, layout)}, nil
}

// parseDurationAnchor resolves "3 days after christmas" by shifting every
// value of the anchor. A time anchor is placed on the reference day.
func (p *Parser) parseDurationAnchor(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	d, hints, err := p.modifiedDuration(er)
	if err != nil {
		return nil, err
	}
	anchor, ok := part(er, datetime.TypeDate, datetime.TypeDateTime, datetime.TypeTime)
	if !ok {
		return nil, rerrors.ParseFailed("anchored duration without anchor: " + er.Text)
	}
	values, err := p.resolve(anchor, ref)
	if err != nil {
		return nil, err
	}
	sign := 1
	if hints.Direction == directionPast {
		sign = -1
	}
	out := make([]datetime.Resolution, 0, len(values))
	for _, v := range values {
		if v.From.IsZero() {
			continue
		}
		typ := v.Type
		if d.Unit.IsTimeUnit() || anchor.Type == datetime.TypeTime {
			typ = datetime.TypeDateTime
		}
		out = append(out, pointValue(shift(v.From, d, sign), d.Unit, typ))
	}
	return out, nil
}

// modifiedDuration reads the duration constituent and hints of a duration
// composite.
func (p *Parser) modifiedDuration(er datetime.ExtractResult) (timex.Duration, datetime.DurationHints, error) {
	if er.Metadata.Duration == nil {
		return timex.Duration{}, datetime.DurationHints{}, rerrors.ParseFailed("missing duration hints: " + er.Text)
	}
	inner, ok := part(er, datetime.TypeDuration)
	if !ok {
		return timex.Duration{}, datetime.DurationHints{}, rerrors.ParseFailed("missing duration: " + er.Text)
	}
	d, err := p.durationOf(inner)
	if err != nil {
		return timex.Duration{}, datetime.DurationHints{}, err
	}
	return d, *er.Metadata.Duration, nil
}

func pointValue(t time.Time, unit timex.Unit, typ string) datetime.Resolution {
	if typ == datetime.TypeDateTime || unit.IsTimeUnit() {
		return dateTimeValue(t)
	}
	return dateValue(t)
}

func pointTimex(t time.Time, typ string) timex.Timex {
	if typ == datetime.TypeDateRange {
		return timex.FromDate(t)
	}
	return timex.FromDateTime(t)
}
