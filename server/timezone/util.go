// Package timezone resolves the timezone and reference instant of a
// recognition request.
package timezone

import (
	"fmt"
	"strings"
	"time"
)

// UTC is the coordinated universal time timezone
var UTC = time.UTC

// referenceLayouts are the accepted reference formats without an offset;
// they are read in the request timezone.
var referenceLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimezone parses an IANA timezone identifier (e.g., "Europe/Paris").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// ResolveReference returns the reference instant of a request in tz, or in
// fallback when tz is empty. An empty reference means now. References with
// an offset (RFC 3339) are converted to the timezone; others are read in it.
func ResolveReference(reference, tz string, fallback *time.Location, now time.Time) (time.Time, error) {
	loc := fallback
	if loc == nil {
		loc = UTC
	}
	if tz != "" {
		parsed, err := ParseTimezone(tz)
		if err != nil {
			return time.Time{}, err
		}
		loc = parsed
	}

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return now.In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, reference); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range referenceLayouts {
		if t, err := time.ParseInLocation(layout, reference, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid reference %q", reference)
}
