package aitime

import (
	"context"
	"time"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/plugin/datetime"
)

// Default span lengths of point expressions.
const (
	DefaultEventDuration = time.Hour
	dayDuration          = 24 * time.Hour
)

// Recognizer is the recognition backend of a Service.
type Recognizer interface {
	Parse(ctx context.Context, text, culture string, ref time.Time) ([]datetime.ModelResult, error)
}

// Service implements TimeService on top of a Recognizer.
type Service struct {
	recognizer      Recognizer
	culture         string
	defaultTimezone *time.Location
	now             func() time.Time
}

// NewService creates a new time service for culture.
func NewService(rec Recognizer, culture, defaultTimezone string) *Service {
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		loc = time.Local
	}
	return &Service{
		recognizer:      rec,
		culture:         culture,
		defaultTimezone: loc,
		now:             time.Now,
	}
}

// Normalize resolves input relative to now and returns the start of the
// first expression found.
func (s *Service) Normalize(ctx context.Context, input string, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = s.defaultTimezone
	}

	tr, err := s.ParseNaturalTime(ctx, input, s.now().In(loc))
	if err != nil {
		return time.Time{}, err
	}
	return tr.Start, nil
}

// ParseNaturalTime resolves the first expression of input that denotes an
// instant or a span. Points last DefaultEventDuration, dates a whole day.
// Ambiguous expressions resolve to their earliest value at or after the
// reference.
func (s *Service) ParseNaturalTime(ctx context.Context, input string, reference time.Time) (TimeRange, error) {
	results, err := s.recognizer.Parse(ctx, input, s.culture, reference)
	if err != nil {
		return TimeRange{}, err
	}
	for _, r := range results {
		if tr, ok := rangeOf(r, reference); ok {
			return tr, nil
		}
	}
	return TimeRange{}, rerrors.ParseFailed("unable to parse time expression: " + input)
}

// rangeOf converts a model result into a span; durations and recurrences
// have none.
func rangeOf(r datetime.ModelResult, ref time.Time) (TimeRange, bool) {
	var candidates []map[string]string
	if values, ok := r.Resolution[datetime.KeyValues].([]map[string]string); ok {
		candidates = values
	} else {
		single := make(map[string]string, len(r.Resolution))
		for k, v := range r.Resolution {
			if s, ok := v.(string); ok {
				single[k] = s
			}
		}
		candidates = []map[string]string{single}
	}

	var spans []TimeRange
	for _, c := range candidates {
		if tr, ok := spanOf(c, ref); ok {
			spans = append(spans, tr)
		}
	}
	if len(spans) == 0 {
		return TimeRange{}, false
	}
	for _, tr := range spans {
		if !tr.Start.Before(ref) {
			return tr, true
		}
	}
	return spans[len(spans)-1], true
}

func spanOf(res map[string]string, ref time.Time) (TimeRange, bool) {
	typ := res[datetime.KeyType]
	if typ == datetime.TypeDuration || typ == datetime.TypeSet {
		return TimeRange{}, false
	}

	if v := res[datetime.KeyValue]; v != "" {
		start, layout, ok := parseInstant(v, ref)
		if !ok {
			return TimeRange{}, false
		}
		if layout == datetime.DateLayout {
			return TimeRange{Start: start, End: start.Add(dayDuration)}, true
		}
		return TimeRange{Start: start, End: start.Add(DefaultEventDuration)}, true
	}

	startStr, endStr := res[datetime.KeyStart], res[datetime.KeyEnd]
	if startStr == "" && endStr == "" {
		return TimeRange{}, false
	}
	var tr TimeRange
	if startStr == "" {
		tr.Start = ref
	} else {
		start, _, ok := parseInstant(startStr, ref)
		if !ok {
			return TimeRange{}, false
		}
		tr.Start = start
	}
	if endStr == "" {
		tr.End = tr.Start.Add(DefaultEventDuration)
		return tr, true
	}
	end, _, ok := parseInstant(endStr, ref)
	if !ok {
		return TimeRange{}, false
	}
	if !end.After(tr.Start) && startStr != "" {
		end = end.Add(dayDuration)
	}
	tr.End = end
	return tr, true
}

// parseInstant reads a resolution value in ref's location. Bare times are
// placed on ref's day.
func parseInstant(s string, ref time.Time) (time.Time, string, bool) {
	loc := ref.Location()
	for _, layout := range []string{datetime.DateTimeLayout, datetime.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, layout, true
		}
	}
	t, err := time.ParseInLocation(datetime.TimeLayout, s, loc)
	if err != nil {
		return time.Time{}, "", false
	}
	y, m, d := ref.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc), datetime.TimeLayout, true
}

// Ensure Service implements TimeService
var _ TimeService = (*Service)(nil)
