// Package model assembles the extractor, parser and results cache of one
// culture into the date/time model.
package model

import (
	"log/slog"
	"time"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/cache"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/datetime/extractor"
	"github.com/hrygo/chronorec/plugin/datetime/parser"
	"github.com/hrygo/chronorec/plugin/lexicon"
)

// ResultsCache is the cache a Model stores its results in.
type ResultsCache = cache.Cache[[]datetime.ModelResult]

// NewResultsCache creates a results cache that can be shared by the models
// of every culture.
func NewResultsCache(cfg cache.Config, metrics observability.Metrics) *ResultsCache {
	return cache.New(cfg, datetime.CloneModelResults, cache.WithMetrics[[]datetime.ModelResult](metrics))
}

// Model is the date/time model of one culture. It is safe for concurrent
// use.
type Model struct {
	culture   string
	extractor *extractor.Extractor
	parser    *parser.Parser
	cache     *ResultsCache
	logger    *slog.Logger
}

type options struct {
	cache   *ResultsCache
	metrics observability.Metrics
	logger  *slog.Logger
}

// Option customizes a Model.
type Option func(*options)

// WithCache stores results in c. Without a cache every call parses.
func WithCache(c *ResultsCache) Option {
	return func(o *options) { o.cache = c }
}

// WithMetrics sets the metrics recorder of the extractor and parser.
func WithMetrics(m observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates the model of lex's culture.
func New(lex *lexicon.Lexicon, opts ...Option) *Model {
	o := options{metrics: observability.NewNoopMetrics(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Model{
		culture:   lex.Culture(),
		extractor: extractor.New(lex, extractor.WithMetrics(o.metrics), extractor.WithLogger(o.logger)),
		parser:    parser.New(lex, parser.WithMetrics(o.metrics), parser.WithLogger(o.logger)),
		cache:     o.cache,
		logger:    o.logger,
	}
}

// Culture returns the culture code of the model.
func (m *Model) Culture() string { return m.culture }

// Parse recognizes the date/time expressions of text relative to ref.
// Results are ordered by start and never overlap.
func (m *Model) Parse(text string, ref time.Time) []datetime.ModelResult {
	if m.cache == nil {
		return m.parse(text, ref)
	}
	results, _ := m.cache.GetOrCreate(CacheKey(m.culture, text, ref), func() ([]datetime.ModelResult, error) {
		return m.parse(text, ref), nil
	})
	return results
}

func (m *Model) parse(text string, ref time.Time) []datetime.ModelResult {
	candidates := m.extractor.Extract(text)
	parsed := m.parser.ParseAll(text, candidates, ref)

	out := make([]datetime.ModelResult, 0, len(parsed))
	for _, pr := range parsed {
		out = append(out, ToModelResult(pr))
	}
	m.logger.Debug("text parsed",
		slog.String(observability.LogFieldCulture, m.culture),
		slog.Int("candidates", len(candidates)),
		slog.Int(observability.LogFieldResults, len(out)),
	)
	return out
}

// CacheKey identifies a parse: the culture, the reference instant to the
// second with its zone, and the text.
func CacheKey(culture, text string, ref time.Time) string {
	return culture + "|" + ref.Truncate(time.Second).Format(time.RFC3339) + "@" + ref.Location().String() + "|" + text
}

// ToModelResult converts a parse result into its external form.
func ToModelResult(pr datetime.ParseResult) datetime.ModelResult {
	mr := datetime.ModelResult{
		Start:    pr.Start,
		End:      pr.End() - 1,
		TypeName: pr.Type,
		Text:     pr.Text,
	}
	if len(pr.Values) == 1 {
		mr.Resolution = make(map[string]any)
		for k, v := range resolutionMap(pr.Values[0]) {
			mr.Resolution[k] = v
		}
		return mr
	}
	values := make([]map[string]string, len(pr.Values))
	for i, v := range pr.Values {
		values[i] = resolutionMap(v)
	}
	mr.Resolution = map[string]any{datetime.KeyValues: values}
	return mr
}

func resolutionMap(r datetime.Resolution) map[string]string {
	m := map[string]string{
		datetime.KeyTimex: r.TimexString(),
		datetime.KeyType:  r.Type,
	}
	if r.Value != "" {
		m[datetime.KeyValue] = r.Value
	}
	if r.Start != "" {
		m[datetime.KeyStart] = r.Start
	}
	if r.End != "" {
		m[datetime.KeyEnd] = r.End
	}
	if r.Mod != "" {
		m[datetime.KeyMod] = r.Mod
	}
	return m
}
