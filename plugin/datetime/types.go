// Package datetime holds the value types shared by the date/time
// extractor, parser and model.
package datetime

import (
	"time"

	"github.com/hrygo/chronorec/plugin/timex"
)

// Entity type names.
const (
	TypeDate          = "date"
	TypeTime          = "time"
	TypeDateRange     = "daterange"
	TypeTimeRange     = "timerange"
	TypeDateTime      = "datetime"
	TypeDateTimeRange = "datetimerange"
	TypeDuration      = "duration"
	TypeSet           = "set"
)

// Resolution value formats.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Resolution keys of a ModelResult.
const (
	KeyTimex  = "timex"
	KeyType   = "type"
	KeyValue  = "value"
	KeyStart  = "start"
	KeyEnd    = "end"
	KeyMod    = "mod"
	KeyValues = "values"
)

// NotResolved is the value of recurrences.
const NotResolved = "not resolved"

// RangeHints describe a range composite.
type RangeHints struct {
	Connector            string
	PossiblyInclusiveEnd bool
	HasPrefix            bool
}

// DurationHints describe a duration modified into a point or range.
type DurationHints struct {
	// Direction is "past" or "future".
	Direction    string
	AmbiguousAgo bool
	Within       bool
	// RelativeTo and Offset are set for anchored durations such as
	// "3 days after christmas".
	RelativeTo string
	Offset     string
}

// Metadata carries the extraction hints consumed by the parser.
type Metadata struct {
	Range           *RangeHints
	Duration        *DurationHints
	Holiday         bool
	HasMod          bool
	Mod             string
	OrdinalRelative bool
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	c := m
	if m.Range != nil {
		r := *m.Range
		c.Range = &r
	}
	if m.Duration != nil {
		d := *m.Duration
		c.Duration = &d
	}
	return c
}

// ExtractResult is a located candidate. Offsets count runes of the
// normalized input.
type ExtractResult struct {
	Start  int
	Length int
	Text   string
	Type   string
	// Source names the pattern ("date.monthDay") or composite step
	// ("composite.dateTime") that produced the candidate.
	Source string
	// Order is the registration order, used to break ties.
	Order    int
	Groups   map[string]string
	Data     []ExtractResult
	Metadata Metadata
}

// End returns the rune offset just past the candidate.
func (e ExtractResult) End() int { return e.Start + e.Length }

// Overlaps reports whether e and o share at least one rune.
func (e ExtractResult) Overlaps(o ExtractResult) bool {
	return e.Start < o.End() && o.Start < e.End()
}

// Contains reports whether o lies within e.
func (e ExtractResult) Contains(o ExtractResult) bool {
	return e.Start <= o.Start && o.End() <= e.End()
}

// Group returns a named capture of the producing pattern.
func (e ExtractResult) Group(name string) string { return e.Groups[name] }

// Has reports whether the named capture participated.
func (e ExtractResult) Has(name string) bool {
	_, ok := e.Groups[name]
	return ok
}

// Clone returns a deep copy of e.
func (e ExtractResult) Clone() ExtractResult {
	c := e
	if e.Groups != nil {
		c.Groups = make(map[string]string, len(e.Groups))
		for k, v := range e.Groups {
			c.Groups[k] = v
		}
	}
	if e.Data != nil {
		c.Data = make([]ExtractResult, len(e.Data))
		for i, d := range e.Data {
			c.Data[i] = d.Clone()
		}
	}
	c.Metadata = e.Metadata.Clone()
	return c
}

// Resolution is one resolved value of a candidate. From and To are the
// concrete instants behind Value, Start and End; To is zero for points.
type Resolution struct {
	Timex timex.Timex
	Type  string
	Mod   string
	Value string
	Start string
	End   string
	From  time.Time
	To    time.Time
}

// TimexString renders the timex.
func (r Resolution) TimexString() string { return r.Timex.String() }

// Clone returns a deep copy of r.
func (r Resolution) Clone() Resolution {
	c := r
	c.Timex = r.Timex.Clone()
	return c
}

// ParseResult is a candidate with its resolved values. Values holds one
// element for a scalar resolution and more for an ambiguous one.
type ParseResult struct {
	ExtractResult
	Values        []Resolution
	ResolutionStr string
}

// Clone returns a deep copy of p.
func (p ParseResult) Clone() ParseResult {
	c := p
	c.ExtractResult = p.ExtractResult.Clone()
	if p.Values != nil {
		c.Values = make([]Resolution, len(p.Values))
		for i, v := range p.Values {
			c.Values[i] = v.Clone()
		}
	}
	return c
}

// ModelResult is the externally visible recognition unit. End is
// inclusive. Resolution holds either timex/type/value (plus start, end and
// mod when present) or a "values" list of such maps.
type ModelResult struct {
	Start      int            `json:"start"`
	End        int            `json:"end"`
	TypeName   string         `json:"typeName"`
	Text       string         `json:"text"`
	Resolution map[string]any `json:"resolution"`
}

// Clone returns a deep copy of m.
func (m ModelResult) Clone() ModelResult {
	c := m
	c.Resolution = cloneResolution(m.Resolution)
	return c
}

// CloneModelResults deep-copies a result list.
func CloneModelResults(in []ModelResult) []ModelResult {
	if in == nil {
		return nil
	}
	out := make([]ModelResult, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func cloneResolution(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch vv := v.(type) {
		case map[string]string:
			out[k] = cloneStringMap(vv)
		case []map[string]string:
			list := make([]map[string]string, len(vv))
			for i, m := range vv {
				list[i] = cloneStringMap(m)
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
