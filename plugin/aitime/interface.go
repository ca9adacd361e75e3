// Package aitime provides the time parsing service used by scheduling
// consumers. It resolves the first date/time expression of an input into a
// concrete instant or span.
package aitime

import (
	"context"
	"time"
)

// TimeService defines the time parsing service interface.
type TimeService interface {
	// Normalize resolves an expression such as "tomorrow at 3pm",
	// "2024-06-14" or "15:00" to an instant in timezone, relative to now.
	Normalize(ctx context.Context, input string, timezone string) (time.Time, error)

	// ParseNaturalTime resolves an expression relative to reference into a
	// half-open span.
	ParseNaturalTime(ctx context.Context, input string, reference time.Time) (TimeRange, error)
}

// TimeRange represents a time range.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the range.
func (r TimeRange) Duration() time.Duration { return r.End.Sub(r.Start) }
