// Package recognizer is the entry point for date/time recognition: it
// validates requests, normalizes text and dispatches to the model of the
// requested culture.
package recognizer

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/width"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/datetime"
)

// Defaults for Recognizer options.
const (
	DefaultMaxInputLength   = 4096
	DefaultBatchConcurrency = 8
)

// Recognizer parses text with the models of a Registry.
type Recognizer struct {
	registry         *Registry
	maxInputLength   int
	foldWidth        bool
	batchConcurrency int
	metrics          observability.Metrics
	logger           *slog.Logger
	now              func() time.Time
}

// Option customizes a Recognizer.
type Option func(*Recognizer)

// WithMaxInputLength caps the input length in runes.
func WithMaxInputLength(n int) Option {
	return func(r *Recognizer) {
		if n > 0 {
			r.maxInputLength = n
		}
	}
}

// WithFoldWidth enables or disables fullwidth-to-halfwidth folding.
func WithFoldWidth(enabled bool) Option {
	return func(r *Recognizer) { r.foldWidth = enabled }
}

// WithBatchConcurrency bounds the goroutines of one ParseBatch call.
func WithBatchConcurrency(n int) Option {
	return func(r *Recognizer) {
		if n > 0 {
			r.batchConcurrency = n
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.Metrics) Option {
	return func(r *Recognizer) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recognizer) { r.logger = l }
}

// New creates a recognizer over reg.
func New(reg *Registry, opts ...Option) *Recognizer {
	r := &Recognizer{
		registry:         reg,
		maxInputLength:   DefaultMaxInputLength,
		foldWidth:        true,
		batchConcurrency: DefaultBatchConcurrency,
		metrics:          observability.NewNoopMetrics(),
		logger:           slog.Default(),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the model registry.
func (r *Recognizer) Registry() *Registry { return r.registry }

// Parse recognizes the date/time expressions of text relative to ref. A
// zero ref means now. Offsets of the results count runes of the folded
// text. Only invalid arguments and unsupported cultures fail the call.
func (r *Recognizer) Parse(ctx context.Context, text, culture string, ref time.Time) ([]datetime.ModelResult, error) {
	ctx, reqCtx := observability.EnsureRequestContext(ctx, r.logger, culture)
	start := time.Now()

	results, err := r.parse(ctx, text, culture, ref)
	r.metrics.RecordParse(culture, time.Since(start), len(results), err)
	if err != nil {
		reqCtx.Warn("parse rejected",
			slog.String(observability.LogFieldErrorCode, string(rerrors.GetCodeFromError(err, rerrors.ErrCodeInternal))),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	reqCtx.Debug("parse completed",
		slog.Int(observability.LogFieldTextLen, utf8.RuneCountInString(text)),
		slog.Int(observability.LogFieldResults, len(results)),
		slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()),
	)
	return results, nil
}

func (r *Recognizer) parse(ctx context.Context, text, culture string, ref time.Time) ([]datetime.ModelResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, rerrors.Wrap(err, rerrors.ErrCodeInternal, "request cancelled")
	}
	if strings.TrimSpace(culture) == "" {
		return nil, rerrors.InvalidArgument("culture is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, rerrors.InvalidArgument("text is required")
	}
	if n := utf8.RuneCountInString(text); n > r.maxInputLength {
		return nil, rerrors.InvalidArgument("text too long").
			WithContext("length", n).
			WithContext("max", r.maxInputLength)
	}

	m, err := r.registry.Lookup(culture)
	if err != nil {
		return nil, err
	}
	if ref.IsZero() {
		ref = r.now()
	}
	if r.foldWidth {
		text = width.Fold.String(text)
	}
	return m.Parse(text, ref), nil
}

// BatchRequest is one item of a ParseBatch call.
type BatchRequest struct {
	Text      string
	Culture   string
	Reference time.Time
}

// BatchResult holds the outcome of one BatchRequest.
type BatchResult struct {
	Results []datetime.ModelResult
	Err     error
}

// ParseBatch parses the requests concurrently. Per-item failures are
// reported in the matching BatchResult; the returned error is only set when
// ctx ends before all items are done.
func (r *Recognizer) ParseBatch(ctx context.Context, reqs []BatchRequest) ([]BatchResult, error) {
	out := make([]BatchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.batchConcurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, err := r.Parse(gctx, req.Text, req.Culture, req.Reference)
			out[i] = BatchResult{Results: results, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
