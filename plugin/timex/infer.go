package timex

import (
	"sort"
	"strings"
)

// Type is one element of the timex type lattice.
type Type string

const (
	TypePresent       Type = "present"
	TypeDefinite      Type = "definite"
	TypeDate          Type = "date"
	TypeTime          Type = "time"
	TypeDateTime      Type = "datetime"
	TypeDateRange     Type = "daterange"
	TypeTimeRange     Type = "timerange"
	TypeDateTimeRange Type = "datetimerange"
	TypeDuration      Type = "duration"
)

// AllTypes lists the lattice.
var AllTypes = []Type{
	TypePresent, TypeDefinite, TypeDate, TypeTime, TypeDateTime,
	TypeDateRange, TypeTimeRange, TypeDateTimeRange, TypeDuration,
}

// TypeSet is a set of inferred types.
type TypeSet map[Type]struct{}

// Has reports membership.
func (s TypeSet) Has(t Type) bool {
	_, ok := s[t]
	return ok
}

func (s TypeSet) add(types ...Type) {
	for _, t := range types {
		s[t] = struct{}{}
	}
}

// Sorted returns the members in a stable order.
func (s TypeSet) Sorted() []Type {
	out := make([]Type, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s TypeSet) String() string {
	parts := make([]string, 0, len(s))
	for _, t := range s.Sorted() {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ",")
}

// Infer derives the type set of t from its populated fields. It is pure and
// never mutates t.
func Infer(t Timex) TypeSet {
	types := TypeSet{}

	if t.IsRange() {
		start := Infer(*t.Start)
		switch {
		case start.Has(TypeDateTime):
			types.add(TypeDateTimeRange)
		case start.Has(TypeTime) || start.Has(TypeTimeRange):
			types.add(TypeTimeRange)
		default:
			types.add(TypeDateRange)
		}
		if t.Duration != nil {
			types.add(TypeDuration)
		}
		return types
	}

	if t.Now {
		types.add(TypePresent, TypeDate, TypeTime, TypeDateTime)
	}
	if t.Year != nil && t.Month != nil && t.DayOfMonth != nil {
		types.add(TypeDefinite)
	}
	if (t.Month != nil && t.DayOfMonth != nil) || t.DayOfWeek != nil {
		types.add(TypeDate)
	}
	if isDateRange(t) {
		types.add(TypeDateRange)
	}
	if t.Hour != nil {
		types.add(TypeTime)
	}
	if t.PartOfDay != "" {
		types.add(TypeTimeRange)
	}
	if t.Duration != nil {
		types.add(TypeDuration)
	}

	if types.Has(TypeDate) && types.Has(TypeTime) {
		types.add(TypeDateTime)
	}
	if types.Has(TypeDate) && types.Has(TypeTimeRange) {
		types.add(TypeDateTimeRange)
	}
	if types.Has(TypeDateRange) && (types.Has(TypeTime) || types.Has(TypeTimeRange)) {
		types.add(TypeDateTimeRange)
	}
	return types
}

func isDateRange(t Timex) bool {
	if t.DayOfMonth == nil && t.DayOfWeek == nil && (t.Year != nil || t.Month != nil) {
		return true
	}
	return t.Season != "" || t.WeekOfYear != nil
}
