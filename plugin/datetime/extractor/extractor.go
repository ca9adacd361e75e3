// Package extractor finds date/time candidates in text. Atomic extractors
// run the culture's pattern families, composite steps join neighbouring
// candidates into ranges and modified durations, and a final pass keeps the
// longest non-overlapping candidates.
package extractor

import (
	"log/slog"
	"sort"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/lexicon"
	"github.com/hrygo/chronorec/plugin/numeric"
)

type familySpec struct {
	family string
	typ    string
}

type atomicSpec struct {
	name     string
	families []familySpec
}

// atomics lists the atomic extractors in registration order.
var atomics = []atomicSpec{
	{name: "date", families: []familySpec{
		{lexicon.FamilyDate, datetime.TypeDate},
		{lexicon.FamilyNow, datetime.TypeDateTime},
	}},
	{name: "time", families: []familySpec{
		{lexicon.FamilyTime, datetime.TypeTime},
		{lexicon.FamilyTimeRange, datetime.TypeTimeRange},
	}},
	{name: "duration", families: []familySpec{
		{lexicon.FamilyDuration, datetime.TypeDuration},
	}},
	{name: "set", families: []familySpec{
		{lexicon.FamilySet, datetime.TypeSet},
	}},
	{name: "holiday", families: []familySpec{
		{lexicon.FamilyHoliday, datetime.TypeDate},
	}},
	{name: "period", families: []familySpec{
		{lexicon.FamilyPeriod, datetime.TypeDateRange},
		{lexicon.FamilyDateTimeRange, datetime.TypeDateTimeRange},
	}},
}

// SourceImplicitDuration marks durations built from a numeral followed by
// a unit word.
const SourceImplicitDuration = lexicon.FamilyDuration + ".implicit"

// SourceNthWeekday is the pattern of "the third friday of july".
const SourceNthWeekday = lexicon.FamilyDate + ".nthWeekday"

// Extractor is the merged date/time extractor of one culture. It is safe
// for concurrent use.
type Extractor struct {
	lex       *lexicon.Lexicon
	numbers   *numeric.Extractor
	numParser *numeric.Parser
	metrics   observability.Metrics
	logger    *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an Extractor over lex.
func New(lex *lexicon.Lexicon, opts ...Option) *Extractor {
	e := &Extractor{
		lex:       lex,
		numbers:   numeric.NewExtractor(lex),
		numParser: numeric.NewParser(lex),
		metrics:   observability.NewNoopMetrics(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the final non-overlapping candidates of text, ordered by
// start.
func (e *Extractor) Extract(text string) []datetime.ExtractResult {
	s := newScan(text)
	order := 0

	var pool []datetime.ExtractResult
	for _, a := range atomics {
		var found []datetime.ExtractResult
		for _, f := range a.families {
			for _, p := range e.lex.Family(f.family) {
				for _, m := range e.findAll(p, text) {
					er := datetime.ExtractResult{
						Start:  m.Index,
						Length: m.Length,
						Text:   m.Text,
						Type:   f.typ,
						Source: p.Name,
						Order:  order,
						Groups: m.Groups,
					}
					er.Metadata.Holiday = f.family == lexicon.FamilyHoliday
					er.Metadata.OrdinalRelative = p.Name == SourceNthWeekday
					if e.validDayNumerals(er) {
						found = append(found, er)
					}
				}
				order++
			}
		}
		if a.name == "duration" {
			found = append(found, e.implicitDurations(s, order)...)
			order++
		}
		pool = append(pool, ResolveOverlaps(found)...)
	}

	pool = e.composite(s, pool, order)
	return ResolveOverlaps(pool)
}

func (e *Extractor) findAll(p *lexicon.Pattern, text string) []lexicon.Match {
	matches, err := p.FindAll(text)
	if err != nil {
		e.metrics.RecordRegexTimeout(p.Name)
		e.logger.Debug("pattern exceeded match budget",
			slog.String(observability.LogFieldPattern, p.Name),
			slog.Any("error", err),
		)
		return nil
	}
	return matches
}

func (e *Extractor) find(p *lexicon.Pattern, text string) *lexicon.Match {
	if p == nil {
		return nil
	}
	m, err := p.Find(text)
	if err != nil {
		e.metrics.RecordRegexTimeout(p.Name)
		e.logger.Debug("pattern exceeded match budget",
			slog.String(observability.LogFieldPattern, p.Name),
			slog.Any("error", err),
		)
		return nil
	}
	return m
}

// validDayNumerals rejects a candidate whose day numeral does not resolve
// to an integer in [1,31].
func (e *Extractor) validDayNumerals(er datetime.ExtractResult) bool {
	for _, g := range []string{"day", "day2"} {
		if !er.Has(g) {
			continue
		}
		n, err := e.numParser.ParseInt(er.Group(g))
		if err != nil || n < 1 || n > 31 {
			e.metrics.RecordCandidateDropped(observability.DropOutOfRange)
			e.logger.Debug("day numeral out of range",
				slog.String(observability.LogFieldCandidate, er.Text),
				slog.String(observability.LogFieldPattern, er.Source),
			)
			return false
		}
	}
	return true
}

// implicitDurations pairs numerals with a directly following unit word.
func (e *Extractor) implicitDurations(s scan, order int) []datetime.ExtractResult {
	conn := e.lex.Connector(lexicon.ConnUnitAfter)
	if conn == nil {
		return nil
	}
	var out []datetime.ExtractResult
	for _, n := range e.numbers.Extract(s.text) {
		rest := s.slice(n.End(), n.End()+e.lex.CompositeWindow())
		m := e.find(conn, rest)
		if m == nil {
			continue
		}
		end := n.End() + m.Index + m.Length
		out = append(out, datetime.ExtractResult{
			Start:  n.Start,
			Length: end - n.Start,
			Text:   s.slice(n.Start, end),
			Type:   datetime.TypeDuration,
			Source: SourceImplicitDuration,
			Order:  order,
			Groups: map[string]string{"amount": n.Text, "unit": m.Group("unit")},
		})
	}
	return out
}

// ResolveOverlaps keeps the longest candidates, breaking ties by earlier
// start and then registration order, and drops any candidate overlapping an
// accepted one. The result is ordered by start.
func ResolveOverlaps(in []datetime.ExtractResult) []datetime.ExtractResult {
	sorted := make([]datetime.ExtractResult, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Length != b.Length {
			return a.Length > b.Length
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Order < b.Order
	})

	var kept []datetime.ExtractResult
	for _, c := range sorted {
		if c.Length <= 0 {
			continue
		}
		overlaps := false
		for _, k := range kept {
			if c.Overlaps(k) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// scan is the text under extraction with rune-indexed access.
type scan struct {
	text  string
	runes []rune
}

func newScan(text string) scan {
	return scan{text: text, runes: []rune(text)}
}

// slice returns runes [a,b) clamped to the text bounds.
func (s scan) slice(a, b int) string {
	if a < 0 {
		a = 0
	}
	if b > len(s.runes) {
		b = len(s.runes)
	}
	if a >= b {
		return ""
	}
	return string(s.runes[a:b])
}
