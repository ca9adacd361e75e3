// Package parser resolves date/time candidates against a reference
// instant into timex values and concrete calendar values.
package parser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/datetime/extractor"
	"github.com/hrygo/chronorec/plugin/lexicon"
	"github.com/hrygo/chronorec/plugin/numeric"
	"github.com/hrygo/chronorec/plugin/timex"
)

// Parser is the merged date/time parser of one culture. It is safe for
// concurrent use.
type Parser struct {
	lex     *lexicon.Lexicon
	num     *numeric.Parser
	metrics observability.Metrics
	logger  *slog.Logger
}

// Option customizes a Parser.
type Option func(*Parser)

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.Metrics) Option {
	return func(p *Parser) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New creates a Parser over lex.
func New(lex *lexicon.Lexicon, opts ...Option) *Parser {
	p := &Parser{
		lex:     lex,
		num:     numeric.NewParser(lex),
		metrics: observability.NewNoopMetrics(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse resolves one candidate. A panic while resolving is recovered and
// reported as an INTERNAL error.
func (p *Parser) Parse(er datetime.ExtractResult, ref time.Time) (pr datetime.ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rerrors.Wrap(fmt.Errorf("%v", r), rerrors.ErrCodeInternal, "panic while parsing "+er.Text)
		}
	}()

	values, err := p.resolve(er, ref)
	if err != nil {
		return datetime.ParseResult{}, err
	}
	if len(values) == 0 {
		return datetime.ParseResult{}, rerrors.ParseFailed("no value for " + er.Text)
	}

	timexes := make([]timex.Timex, len(values))
	for i, v := range values {
		timexes[i] = v.Timex
	}
	pr = datetime.ParseResult{
		ExtractResult: er,
		Values:        values,
		ResolutionStr: timex.JoinStrings(timexes),
	}
	pr.Type = values[0].Type
	return pr, nil
}

// ParseAll resolves every candidate of text, drops the ones that fail and
// applies the query-wide ambiguity filter.
func (p *Parser) ParseAll(text string, ers []datetime.ExtractResult, ref time.Time) []datetime.ParseResult {
	out := make([]datetime.ParseResult, 0, len(ers))
	for _, er := range ers {
		pr, err := p.Parse(er, ref)
		if err != nil {
			reason := observability.DropParseError
			switch rerrors.GetCodeFromError(err, rerrors.ErrCodeParseFailed) {
			case rerrors.ErrCodeOutOfRange:
				reason = observability.DropOutOfRange
			case rerrors.ErrCodeInternal:
				reason = observability.DropPanic
			}
			p.metrics.RecordCandidateDropped(reason)
			p.logger.Debug("candidate dropped",
				slog.String(observability.LogFieldCandidate, er.Text),
				slog.String(observability.LogFieldPattern, er.Source),
				slog.String("reason", reason),
				slog.Any("error", err),
			)
			continue
		}
		out = append(out, pr)
	}
	return p.filterAmbiguity(text, out)
}

func (p *Parser) resolve(er datetime.ExtractResult, ref time.Time) ([]datetime.Resolution, error) {
	switch er.Source {
	case extractor.SourceDateTime:
		return p.parseDateTime(er, ref)
	case extractor.SourceTimeRange:
		return p.parseTimeRange(er, ref)
	case extractor.SourceDateRange:
		return p.parseDateRange(er, ref)
	case extractor.SourceDateTimeRange:
		return p.parseDateTimeRange(er, ref)
	case extractor.SourceDateTimePeriod:
		return p.parseDateTimePeriod(er, ref)
	case extractor.SourceDurationPoint:
		return p.parseDurationPoint(er, ref)
	case extractor.SourceDurationRange:
		return p.parseDurationRange(er, ref)
	case extractor.SourceDurationAnchor:
		return p.parseDurationAnchor(er, ref)
	case extractor.SourceMod:
		return p.parseMod(er, ref)
	}

	family, _, _ := strings.Cut(er.Source, ".")
	switch family {
	case lexicon.FamilyDate:
		return p.parseDate(er, ref)
	case lexicon.FamilyNow:
		return []datetime.Resolution{nowValue(ref)}, nil
	case lexicon.FamilyTime:
		return p.parseTime(er, ref)
	case lexicon.FamilyTimeRange:
		return p.parseTimeOfDayRange(er, ref)
	case lexicon.FamilyDuration:
		return p.parseDuration(er)
	case lexicon.FamilySet:
		return p.parseSet(er)
	case lexicon.FamilyHoliday:
		return p.parseHoliday(er, ref)
	case lexicon.FamilyPeriod:
		return p.parsePeriod(er, ref)
	case lexicon.FamilyDateTimeRange:
		return p.parsePartOfDayDate(er, ref)
	}
	return nil, rerrors.ParseFailed("no parser for " + er.Source)
}

// part returns the constituent of a composite with one of the given types.
func part(er datetime.ExtractResult, types ...string) (datetime.ExtractResult, bool) {
	for _, d := range er.Data {
		for _, t := range types {
			if d.Type == t {
				return d, true
			}
		}
	}
	return datetime.ExtractResult{}, false
}

func (p *Parser) month(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if m, ok := p.lex.Month(s); ok {
		return m, nil
	}
	m, err := p.num.ParseInt(s)
	if err != nil {
		return 0, err
	}
	if m < 1 || m > 12 {
		return 0, rerrors.OutOfRange("month", m)
	}
	return m, nil
}

func (p *Parser) day(s string) (int, error) {
	d, err := p.num.ParseInt(s)
	if err != nil {
		return 0, err
	}
	if d < 1 || d > 31 {
		return 0, rerrors.OutOfRange("day", d)
	}
	return d, nil
}

func (p *Parser) hour(s string) (int, error) {
	h, err := p.num.ParseInt(s)
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 24 {
		return 0, rerrors.OutOfRange("hour", h)
	}
	return h, nil
}

func (p *Parser) minute(s string) (int, error) {
	m, err := p.num.ParseInt(s)
	if err != nil {
		return 0, err
	}
	if !p.lex.MinuteAllowed(m) {
		return 0, rerrors.OutOfRange("minute", m)
	}
	return m, nil
}

func (p *Parser) relative(s string) (int, error) {
	rel, ok := p.lex.RelativeWord(s)
	if !ok {
		return 0, rerrors.ParseFailed("unknown relative word: " + s)
	}
	return rel, nil
}
