package extractor

import (
	"strings"
	"unicode"

	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/lexicon"
	"github.com/hrygo/chronorec/plugin/timex"
)

// Composite sources.
const (
	SourceDateTime       = "composite.dateTime"
	SourceTimeRange      = "composite.timeRange"
	SourceDateRange      = "composite.dateRange"
	SourceDateTimeRange  = "composite.dateTimeRange"
	SourceDateTimePeriod = "composite.dateTimePeriod"
	SourceDurationPoint  = "composite.durationPoint"
	SourceDurationRange  = "composite.durationRange"
	SourceDurationAnchor = "composite.durationAnchor"
	SourceMod            = "composite.mod"
)

const (
	directionPast   = "past"
	directionFuture = "future"

	maxDirectionWordCount = 3
)

type pair struct {
	left, right datetime.ExtractResult
	start       int
	hints       *datetime.RangeHints
}

// composite runs the composite steps in order. Each step sees the results
// of the previous ones.
func (e *Extractor) composite(s scan, pool []datetime.ExtractResult, order int) []datetime.ExtractResult {
	steps := []func(scan, []datetime.ExtractResult, int) []datetime.ExtractResult{
		e.dateTimeStep,
		e.timeRangeStep,
		e.dateRangeStep,
		e.dateTimeRangeStep,
		e.dateTimePeriodStep,
		e.durationStep,
		e.modStep,
	}
	for _, step := range steps {
		pool = append(pool, step(s, pool, order)...)
		order++
	}
	return pool
}

func ofType(pool []datetime.ExtractResult, types ...string) []datetime.ExtractResult {
	var out []datetime.ExtractResult
	for _, c := range pool {
		for _, t := range types {
			if c.Type == t {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func compose(s scan, typ, source string, order, start, end int, parts ...datetime.ExtractResult) datetime.ExtractResult {
	data := make([]datetime.ExtractResult, len(parts))
	for i, p := range parts {
		data[i] = p.Clone()
	}
	return datetime.ExtractResult{
		Start:  start,
		Length: end - start,
		Text:   s.slice(start, end),
		Type:   typ,
		Source: source,
		Order:  order,
		Data:   data,
	}
}

// adjacent pairs every left candidate with the nearest right candidate
// whose gap matches conn.
func (e *Extractor) adjacent(s scan, lefts, rights []datetime.ExtractResult, conn string) []pair {
	p := e.lex.Connector(conn)
	if p == nil {
		return nil
	}
	window := e.lex.CompositeWindow()
	var out []pair
	for _, l := range lefts {
		nearest := -1
		for _, r := range rights {
			if r.Start < l.End() || r.Start-l.End() > window {
				continue
			}
			if nearest < 0 || r.Start < nearest {
				nearest = r.Start
			}
		}
		if nearest < 0 {
			continue
		}
		var best *datetime.ExtractResult
		for i, r := range rights {
			if r.Start != nearest || (best != nil && r.Length <= best.Length) {
				continue
			}
			if e.find(p, s.slice(l.End(), r.Start)) != nil {
				best = &rights[i]
			}
		}
		if best != nil {
			out = append(out, pair{left: l, right: *best, start: l.Start})
		}
	}
	return out
}

// rangePairs joins candidates across a range connector, or across a
// "between" connector when the left side carries a prefix.
func (e *Extractor) rangePairs(s scan, lefts, rights []datetime.ExtractResult) []pair {
	var out []pair
	for _, conn := range []string{lexicon.ConnRange, lexicon.ConnBetween} {
		for _, pr := range e.adjacent(s, lefts, rights, conn) {
			hints := &datetime.RangeHints{}
			gap := s.slice(pr.left.End(), pr.right.Start)
			if m := e.find(e.lex.Connector(conn), gap); m != nil {
				hints.Connector = strings.TrimSpace(m.Group("conn"))
				if hints.Connector == "" {
					hints.Connector = strings.TrimSpace(gap)
				}
			}
			if incl := e.find(e.lex.Connector(lexicon.ConnInclusive), hints.Connector); incl != nil {
				hints.PossiblyInclusiveEnd = true
			}
			before := s.slice(pr.left.Start-e.lex.CompositeWindow(), pr.left.Start)
			if m := e.find(e.lex.Connector(lexicon.ConnRangePrefix), before); m != nil {
				hints.HasPrefix = true
				pr.start = pr.left.Start - (len([]rune(before)) - m.Index)
			}
			if conn == lexicon.ConnBetween && !hints.HasPrefix {
				continue
			}
			pr.hints = hints
			out = append(out, pr)
		}
	}
	return out
}

func (e *Extractor) emitRanges(s scan, pairs []pair, typ, source string, order int) []datetime.ExtractResult {
	out := make([]datetime.ExtractResult, 0, len(pairs))
	for _, pr := range pairs {
		c := compose(s, typ, source, order, pr.start, pr.right.End(), pr.left, pr.right)
		c.Metadata.Range = pr.hints
		out = append(out, c)
	}
	return out
}

// dateTimeStep joins a date and a time in either order.
func (e *Extractor) dateTimeStep(s scan, pool []datetime.ExtractResult, order int) []datetime.ExtractResult {
	dates := ofType(pool, datetime.TypeDate)
	times := ofType(pool, datetime.TypeTime)
	pairs := e.adjacent(s, dates, times, lexicon.ConnDateTime)
	pairs = append(pairs, e.adjacent(s, times, dates, lexicon.ConnDateTime)...)

	var out []datetime.ExtractResult
	for _, pr := range pairs {
		out = append(out, compose(s, datetime.TypeDateTime, SourceDateTime, order, pr.start, pr.right.End(), pr.left, pr.right))
	}
	return out
}

// timeRangeStep joins two times across a range connector.
func (e *Extractor) timeRangeStep(s scan, pool []datetime.ExtractResult, order int) []datetime.ExtractResult {
	times := ofType(pool, datetime.TypeTime)
	return e.emitRanges(s, e.rangePairs(s, times, times), datetime.TypeTimeRange, SourceTimeRange, order)
}

// dateRangeStep joins two dates or two date ranges. A weekday range
// followed by a week, as in "Monday to Wednesday next week", takes that
// week as a third part.
func (e *Extractor) dateRangeStep(s scan, pool []datetime.ExtractResult, order int) []datetime.ExtractResult {
	dates := ofType(pool, datetime.TypeDate)
	periods := ofType(pool, datetime.TypeDateRange)
	pairs := e.rangePairs(s, dates, dates)
	pairs = append(pairs, e.rangePairs(s, periods, periods)...)
	ranges := e.emitRanges(s, pairs, datetime.TypeDateRange, SourceDateRange, order)

	var weekdayRanges, weeks []datetime.ExtractResult
	for _, r := range ranges {
		if plainWeekday(r.Data[0]) && plainWeekday(r.Data[1]) {
			weekdayRanges = append(weekdayRanges, r)
		}
	}
	for _, p := range periods {
		if unit, ok := e.lex.PeriodUnit(p.Group("periodunit")); ok && unit == "week" {
			weeks = append(weeks, p)
		}
	}
	for _, pr := range e.adjacent(s, weekdayRanges, weeks, lexicon.ConnDateTimeRange) {
		c := compose(s, datetime.TypeDateRange, SourceDateRange, order, pr.start, pr.right.End(), pr.left.Data[0], pr.left.Data[1], pr.right)
		c.Metadata.Range = pr.left.Metadata.Range
		ranges = append(ranges, c)
	}
	return ranges
}

func plainWeekday(er datetime.ExtractResult) bool {
	return er.Has("weekday") && !er.Has("rel") && !er.Has("ordinal")
}

// dateTimeRangeStep joins a datetime with a datetime or a time.
func (e *Extractor) dateTimeRangeStep(s scan, pool []datetime.ExtractResult, order int) []datetime.ExtractResult {
	lefts := ofType(pool, datetime.TypeDateTime)
	rights := ofType(pool, datetime.TypeDateTime, datetime.TypeTime)
	return e.emitRanges(s, e.rangePairs(s, lefts, rights), datetime.TypeDateTimeRange, SourceDateTimeRange, order)
}

// dateTimePeriodStep joins a date and a time range in either order.
func (e *Extractor) dateTimePeriodStep(s scan, pool []datetime.ExtractResult, order int) []datetime.ExtractResult {
	dates := ofType(pool, datetime.TypeDate)
	ranges := ofType(pool, datetime.TypeTimeRange)
	pairs := e.adjacent(s, dates, ranges, lexicon.ConnDateTimeRange)
	pairs = append(pairs, e.adjacent(s, ranges, dates, lexicon.ConnDateTimeRange)...)

	var out []datetime.ExtractResult
	for _, pr := range pairs {
		out = append(out, compose(s, datetime.TypeDateTimeRange, SourceDateTimePeriod, order, pr.start, pr.right.End(), pr.left, pr.right))
	}
	return out
}

// durationStep turns durations into points or ranges: by an anchor
// ("3 days after christmas", "10 minutes before 5pm"), a suffix ("3 days ago") or a prefix
// ("in 3 days", "within the next 2 weeks").
func (e *Extractor) durationStep(s scan, pool []datetime.ExtractResult, order int) []datetime.ExtractResult {
	window := e.lex.CompositeWindow()
	anchors := ofType(pool, datetime.TypeDate, datetime.TypeDateTime, datetime.TypeTime)

	var out []datetime.ExtractResult
	for _, d := range pool {
		if d.Type != datetime.TypeDuration {
			continue
		}
		pointType, rangeType := e.durationTypes(d)
		before := s.slice(d.Start-window, d.Start)
		beforeLen := len([]rune(before))
		after := s.slice(d.End(), d.End()+window)

		suffixFound := false
		if m := e.find(e.lex.Connector(lexicon.ConnSuffix), after); m != nil {
			suffixFound = true
			out = append(out, e.durationPoint(s, d, pointType, order, d.Start, d.End()+m.Index+m.Length, m.Group("dir")))
		}

		for _, pr := range e.adjacent(s, []datetime.ExtractResult{d}, anchors, lexicon.ConnAnchor) {
			m := e.find(e.lex.Connector(lexicon.ConnAnchor), s.slice(d.End(), pr.right.Start))
			if m == nil {
				continue
			}
			direction, _ := e.lex.Direction(m.Group("dir"))
			typ := pr.right.Type
			if typ == datetime.TypeTime {
				typ = datetime.TypeDateTime
			}
			c := compose(s, typ, SourceDurationAnchor, order, d.Start, pr.right.End(), d, pr.right)
			c.Metadata.Duration = &datetime.DurationHints{
				Direction:  direction,
				RelativeTo: pr.right.Text,
				Offset:     d.Text,
			}
			out = append(out, c)
		}

		prefixFound := false
		for _, conn := range []string{lexicon.ConnWithin, lexicon.ConnDurationRange} {
			m := e.find(e.lex.Connector(conn), before)
			if m == nil {
				continue
			}
			prefixFound = true
			direction := directionFuture
			if rel, ok := e.lex.RelativeWord(m.Group("rel")); ok && rel < 0 {
				direction = directionPast
			}
			c := compose(s, rangeType, SourceDurationRange, order, d.Start-(beforeLen-m.Index), d.End(), d)
			c.Metadata.Duration = &datetime.DurationHints{Direction: direction, Within: conn == lexicon.ConnWithin}
			out = append(out, c)
		}
		for _, conn := range []string{lexicon.ConnDurationIn, lexicon.ConnAgoBefore} {
			m := e.find(e.lex.Connector(conn), before)
			if m == nil {
				continue
			}
			prefixFound = true
			out = append(out, e.durationPoint(s, d, pointType, order, d.Start-(beforeLen-m.Index), d.End(), m.Group("dir")))
		}

		if !e.lex.CheckBothBeforeAfter() {
			continue
		}
		if !suffixFound {
			if word, n, ok := e.leadingDirection(after); ok {
				out = append(out, e.durationPoint(s, d, pointType, order, d.Start, d.End()+n, word))
			}
		}
		if !prefixFound {
			if word, n, ok := e.trailingDirection(before); ok {
				out = append(out, e.durationPoint(s, d, pointType, order, d.Start-n, d.End(), word))
			}
		}
	}
	return out
}

func (e *Extractor) durationPoint(s scan, d datetime.ExtractResult, typ string, order, start, end int, word string) datetime.ExtractResult {
	direction, _ := e.lex.Direction(word)
	_, ambiguous := e.lex.Mod(word)
	c := compose(s, typ, SourceDurationPoint, order, start, end, d)
	c.Metadata.Duration = &datetime.DurationHints{Direction: direction, AmbiguousAgo: ambiguous}
	return c
}

// durationTypes returns the point and range types of a modified duration:
// sub-day units yield datetimes.
func (e *Extractor) durationTypes(d datetime.ExtractResult) (string, string) {
	if u, ok := e.lex.Unit(d.Group("unit")); ok && timex.Unit(u).IsTimeUnit() {
		return datetime.TypeDateTime, datetime.TypeDateTimeRange
	}
	return datetime.TypeDate, datetime.TypeDateRange
}

type word struct {
	text       string
	start, end int
}

func splitWords(runes []rune) []word {
	var words []word
	start := -1
	for i, r := range runes {
		inWord := unicode.IsLetter(r) || r == '\'' || r == '’'
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			words = append(words, word{text: string(runes[start:i]), start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, word{text: string(runes[start:]), start: start, end: len(runes)})
	}
	return words
}

// leadingDirection finds a direction word right after a duration and
// returns it with the rune length consumed.
func (e *Extractor) leadingDirection(after string) (string, int, bool) {
	runes := []rune(after)
	words := splitWords(runes)
	if len(words) == 0 || strings.TrimSpace(string(runes[:words[0].start])) != "" {
		return "", 0, false
	}
	for n := min(maxDirectionWordCount, len(words)); n > 0; n-- {
		phrase := string(runes[words[0].start:words[n-1].end])
		if _, ok := e.lex.Direction(phrase); ok {
			return phrase, words[n-1].end, true
		}
	}
	return "", 0, false
}

// trailingDirection finds a direction word right before a duration and
// returns it with the rune length consumed.
func (e *Extractor) trailingDirection(before string) (string, int, bool) {
	runes := []rune(before)
	words := splitWords(runes)
	if len(words) == 0 {
		return "", 0, false
	}
	last := words[len(words)-1]
	if strings.TrimSpace(string(runes[last.end:])) != "" {
		return "", 0, false
	}
	for n := min(maxDirectionWordCount, len(words)); n > 0; n-- {
		first := words[len(words)-n]
		phrase := string(runes[first.start:last.end])
		if _, ok := e.lex.Direction(phrase); ok {
			return phrase, len(runes) - first.start, true
		}
	}
	return "", 0, false
}

// modStep attaches a preceding modifier ("before", "since", "around") to
// any point or range candidate.
func (e *Extractor) modStep(s scan, pool []datetime.ExtractResult, order int) []datetime.ExtractResult {
	conn := e.lex.Connector(lexicon.ConnMod)
	if conn == nil {
		return nil
	}
	window := e.lex.CompositeWindow()
	targets := ofType(pool,
		datetime.TypeDate, datetime.TypeTime, datetime.TypeDateTime,
		datetime.TypeDateRange, datetime.TypeTimeRange, datetime.TypeDateTimeRange,
	)

	var out []datetime.ExtractResult
	for _, c := range targets {
		if c.Metadata.Range != nil && c.Metadata.Range.HasPrefix {
			continue
		}
		before := s.slice(c.Start-window, c.Start)
		m := e.find(conn, before)
		if m == nil {
			continue
		}
		mod, ok := e.lex.Mod(m.Group("mod"))
		if !ok {
			continue
		}
		start := c.Start - (len([]rune(before)) - m.Index)
		mc := compose(s, c.Type, SourceMod, order, start, c.End(), c)
		mc.Metadata.HasMod = true
		mc.Metadata.Mod = mod
		out = append(out, mc)
	}
	return out
}
