package lexicon

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"

	rerrors "github.com/hrygo/chronorec/internal/errors"
)

// DefaultMatchTimeout bounds a single pattern evaluation.
const DefaultMatchTimeout = 100 * time.Millisecond

const compileOptions = regexp2.IgnoreCase | regexp2.ExplicitCapture

// Pattern is a compiled, named culture pattern with a match budget.
// Compiled patterns are read-only and safe for concurrent use.
type Pattern struct {
	Name   string
	Source string
	re     *regexp2.Regexp
}

// Match is one occurrence of a pattern. Offsets count runes.
type Match struct {
	Index  int
	Length int
	Text   string
	Groups map[string]string
}

// Group returns the named capture, or "" when it did not participate.
func (m Match) Group(name string) string {
	return m.Groups[name]
}

// Has reports whether the named capture participated in the match.
func (m Match) Has(name string) bool {
	_, ok := m.Groups[name]
	return ok
}

func compilePattern(name, expr string, timeout time.Duration) (*Pattern, error) {
	re, err := regexp2.Compile(expr, compileOptions)
	if err != nil {
		return nil, errors.Wrapf(err, "compile pattern %s", name)
	}
	re.MatchTimeout = timeout
	return &Pattern{Name: name, Source: expr, re: re}, nil
}

// FindAll returns every non-overlapping match in text. An exhausted match
// budget returns a REGEX_BUDGET_EXCEEDED error and no matches.
func (p *Pattern) FindAll(text string) ([]Match, error) {
	var out []Match
	m, err := p.re.FindStringMatch(text)
	for m != nil && err == nil {
		out = append(out, toMatch(m))
		m, err = p.re.FindNextMatch(m)
	}
	if err != nil {
		return nil, rerrors.RegexBudgetExceeded(p.Name, err)
	}
	return out, nil
}

// Find returns the first match in text, or nil.
func (p *Pattern) Find(text string) (*Match, error) {
	m, err := p.re.FindStringMatch(text)
	if err != nil {
		return nil, rerrors.RegexBudgetExceeded(p.Name, err)
	}
	if m == nil {
		return nil, nil
	}
	out := toMatch(m)
	return &out, nil
}

// MatchString reports whether text contains a match.
func (p *Pattern) MatchString(text string) (bool, error) {
	ok, err := p.re.MatchString(text)
	if err != nil {
		return false, rerrors.RegexBudgetExceeded(p.Name, err)
	}
	return ok, nil
}

func toMatch(m *regexp2.Match) Match {
	out := Match{Index: m.Index, Length: m.Length, Text: m.String()}
	for _, g := range m.Groups() {
		if g.Name == "0" || len(g.Captures) == 0 {
			continue
		}
		if out.Groups == nil {
			out.Groups = make(map[string]string)
		}
		out.Groups[g.Name] = g.String()
	}
	return out
}

var slotRef = regexp.MustCompile(`\{([a-z]+)\}`)

// expandSlots replaces {name} with a non-capturing alternation of the slot
// terms. Unknown slots are an error.
func expandSlots(pattern string, slots map[string]string) (string, error) {
	var missing string
	out := slotRef.ReplaceAllStringFunc(pattern, func(tok string) string {
		name := tok[1 : len(tok)-1]
		alt, ok := slots[name]
		if !ok {
			missing = name
			return tok
		}
		return alt
	})
	if missing != "" {
		return "", errors.Errorf("unknown slot {%s}", missing)
	}
	return out, nil
}

// alternation renders terms longest first so the leftmost alternative is
// also the longest.
func alternation[V any](terms map[string]V) string {
	keys := make([]string, 0, len(terms))
	for k := range terms {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	if len(keys) == 0 {
		return "(?!)"
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		q := regexp.QuoteMeta(k)
		q = strings.ReplaceAll(q, " ", `\s+`)
		q = strings.ReplaceAll(q, "'", `['’]`)
		parts = append(parts, q)
	}
	return "(?:" + strings.Join(parts, "|") + ")"
}
