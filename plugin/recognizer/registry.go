package recognizer

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/cache"
	"github.com/hrygo/chronorec/plugin/datetime/model"
	"github.com/hrygo/chronorec/plugin/lexicon"
)

// DefaultCulture is used when a registry is built without one.
const DefaultCulture = "en-us"

// RegistryConfig selects the cultures a Registry serves.
type RegistryConfig struct {
	// Cultures to load; empty loads every culture with embedded tables.
	Cultures       []string
	DefaultCulture string
	// Fallback resolves unknown cultures to DefaultCulture instead of
	// failing with UNSUPPORTED_CULTURE.
	Fallback          bool
	MatchTimeout      time.Duration
	MinuteGranularity []int
	Cache             cache.Config
	// DisableCache builds models that parse on every call.
	DisableCache bool
}

// Registry maps cultures to their date/time models. It is immutable once
// built and safe for concurrent use.
type Registry struct {
	models         map[string]*model.Model
	defaultCulture string
	fallback       bool
	cache          *model.ResultsCache
}

// NewRegistry loads and compiles the configured cultures. The models share
// one results cache.
func NewRegistry(cfg RegistryConfig, metrics observability.Metrics, logger *slog.Logger) (*Registry, error) {
	if metrics == nil {
		metrics = observability.NewNoopMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	cultures := cfg.Cultures
	if len(cultures) == 0 {
		cultures = lexicon.Cultures()
	}
	def := lexicon.NormalizeCulture(cfg.DefaultCulture)
	if def == "" {
		def = DefaultCulture
	}

	r := &Registry{
		models:         make(map[string]*model.Model, len(cultures)),
		defaultCulture: def,
		fallback:       cfg.Fallback,
	}
	opts := []model.Option{model.WithMetrics(metrics), model.WithLogger(logger)}
	if !cfg.DisableCache {
		r.cache = model.NewResultsCache(cfg.Cache, metrics)
		opts = append(opts, model.WithCache(r.cache))
	}

	var lexOpts []lexicon.Option
	if cfg.MatchTimeout > 0 {
		lexOpts = append(lexOpts, lexicon.WithMatchTimeout(cfg.MatchTimeout))
	}
	if len(cfg.MinuteGranularity) > 0 {
		lexOpts = append(lexOpts, lexicon.WithMinuteGranularity(cfg.MinuteGranularity))
	}
	for _, culture := range cultures {
		lex, err := lexicon.Load(culture, lexOpts...)
		if err != nil {
			r.Close()
			return nil, errors.Wrapf(err, "load culture %s", culture)
		}
		r.models[lex.Culture()] = model.New(lex, opts...)
		logger.Debug("culture loaded", slog.String(observability.LogFieldCulture, lex.Culture()))
	}
	if _, ok := r.models[def]; !ok {
		r.Close()
		return nil, errors.Errorf("default culture %s is not loaded", def)
	}
	return r, nil
}

// Lookup returns the model of culture, falling back to the default culture
// when enabled.
func (r *Registry) Lookup(culture string) (*model.Model, error) {
	if m, ok := r.models[lexicon.NormalizeCulture(culture)]; ok {
		return m, nil
	}
	if r.fallback {
		return r.models[r.defaultCulture], nil
	}
	return nil, rerrors.UnsupportedCulture(culture)
}

// Cultures lists the loaded cultures in order.
func (r *Registry) Cultures() []string {
	out := make([]string, 0, len(r.models))
	for c := range r.models {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// DefaultCulture returns the fallback culture.
func (r *Registry) DefaultCulture() string { return r.defaultCulture }

// CacheStats returns the shared cache counters; zero when caching is off.
func (r *Registry) CacheStats() cache.Stats {
	if r.cache == nil {
		return cache.Stats{}
	}
	return r.cache.Stats()
}

// PurgeCache drops the cached results of culture, or of every culture
// when culture is empty, and reports how many entries were removed.
func (r *Registry) PurgeCache(culture string) (int, error) {
	if culture != "" {
		m, err := r.Lookup(culture)
		if err != nil {
			return 0, err
		}
		culture = m.Culture()
	}
	if r.cache == nil {
		return 0, nil
	}
	if culture == "" {
		n := r.cache.Stats().Size
		r.cache.Clear()
		return n, nil
	}
	return r.cache.Invalidate(culture + "|*"), nil
}

// Close releases the shared cache.
func (r *Registry) Close() {
	if r.cache != nil {
		r.cache.Close()
	}
}
