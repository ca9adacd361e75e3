// Package numeric extracts numerals from text and resolves them to
// magnitudes using the culture's number words.
package numeric

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/plugin/lexicon"
)

// Result is an extracted numeral. Offsets count runes.
type Result struct {
	Start  int
	Length int
	Text   string
}

// End returns the rune offset just past the numeral.
func (r Result) End() int { return r.Start + r.Length }

// Value is a resolved numeral.
type Value struct {
	Number        float64
	ResolutionStr string
}

// Extractor finds numerals using the culture's number patterns.
type Extractor struct {
	lex *lexicon.Lexicon
}

// NewExtractor creates an Extractor for lex.
func NewExtractor(lex *lexicon.Lexicon) *Extractor {
	return &Extractor{lex: lex}
}

// Extract returns the non-overlapping numerals of text ordered by start.
// Patterns that exhaust their match budget contribute nothing.
func (e *Extractor) Extract(text string) []Result {
	var found []Result
	for _, p := range e.lex.Family(lexicon.FamilyNumber) {
		matches, err := p.FindAll(text)
		if err != nil {
			continue
		}
		for _, m := range matches {
			found = append(found, Result{Start: m.Index, Length: m.Length, Text: m.Text})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Length != found[j].Length {
			return found[i].Length > found[j].Length
		}
		return found[i].Start < found[j].Start
	})
	var kept []Result
	for _, r := range found {
		overlaps := false
		for _, k := range kept {
			if r.Start < k.End() && k.Start < r.End() {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, r)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// Parser resolves numeral text to a magnitude.
type Parser struct {
	lex *lexicon.Lexicon
}

// NewParser creates a Parser for lex.
func NewParser(lex *lexicon.Lexicon) *Parser {
	return &Parser{lex: lex}
}

// Parse resolves an extracted numeral.
func (p *Parser) Parse(r Result) (Value, error) {
	n, err := p.ParseText(r.Text)
	if err != nil {
		return Value{}, err
	}
	return Value{Number: n, ResolutionStr: strconv.FormatFloat(n, 'f', -1, 64)}, nil
}

var ordinalSuffixes = []string{"st", "nd", "rd", "th", "ème", "er", "e"}

var fillerWords = map[string]struct{}{"and": {}, "et": {}}

// ParseText resolves digits ("10", "1.5", "3rd"), number words ("twenty
// five", "twenty-first") and special amounts ("a couple of", "half an").
func (p *Parser) ParseText(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, rerrors.ParseFailed("empty numeral")
	}
	if v, ok := p.lex.SpecialAmount(s); ok {
		return v, nil
	}
	if unicode.IsDigit([]rune(s)[0]) {
		return parseDigits(s)
	}

	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || unicode.IsSpace(r) })
	var total float64
	matched := false
	for _, tok := range tokens {
		if _, ok := fillerWords[tok]; ok {
			continue
		}
		if v, ok := p.lex.Cardinal(tok); ok {
			total += float64(v)
			matched = true
			continue
		}
		if v, ok := p.lex.Ordinal(tok); ok {
			total += float64(v)
			matched = true
			continue
		}
		return 0, rerrors.ParseFailed("unknown number word: " + tok)
	}
	if !matched {
		return 0, rerrors.ParseFailed("no number in " + s)
	}
	return total, nil
}

// ParseInt resolves s and requires an integral result.
func (p *Parser) ParseInt(s string) (int, error) {
	v, err := p.ParseText(s)
	if err != nil {
		return 0, err
	}
	if v != float64(int(v)) {
		return 0, rerrors.ParseFailed("not an integer: " + s)
	}
	return int(v), nil
}

func parseDigits(s string) (float64, error) {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == ',') {
		end++
	}
	num, rest := s[:end], s[end:]
	if rest != "" {
		known := false
		for _, suffix := range ordinalSuffixes {
			if rest == suffix {
				known = true
				break
			}
		}
		if !known {
			return 0, rerrors.ParseFailed("bad numeral suffix: " + s)
		}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
	if err != nil {
		return 0, rerrors.Wrap(err, rerrors.ErrCodeParseFailed, "parse numeral "+s)
	}
	return v, nil
}
