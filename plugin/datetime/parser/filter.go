package parser

import (
	"log/slog"
	"strings"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/lexicon"
)

// filterAmbiguity drops results that the culture marks as ambiguous in
// context ("may" as a verb, "good morning" as a greeting) and results
// contained in a longer result that already says the same thing.
func (p *Parser) filterAmbiguity(text string, results []datetime.ParseResult) []datetime.ParseResult {
	var contexts [][]lexicon.Match
	filters := p.lex.AmbiguityFilters()
	for _, f := range filters {
		matches, err := f.Context.FindAll(text)
		if err != nil {
			p.metrics.RecordRegexTimeout(f.Context.Name)
			matches = nil
		}
		contexts = append(contexts, matches)
	}

	kept := make([]datetime.ParseResult, 0, len(results))
	for _, pr := range results {
		if p.ambiguous(pr, filters, contexts) {
			p.metrics.RecordCandidateDropped(observability.DropAmbiguity)
			p.logger.Debug("candidate dropped",
				slog.String(observability.LogFieldCandidate, pr.Text),
				slog.String(observability.LogFieldPattern, pr.Source),
				slog.String("reason", observability.DropAmbiguity),
			)
			continue
		}
		kept = append(kept, pr)
	}
	return dropDominated(kept)
}

func (p *Parser) ambiguous(pr datetime.ParseResult, filters []lexicon.AmbiguityFilter, contexts [][]lexicon.Match) bool {
	for i, f := range filters {
		if len(contexts[i]) == 0 {
			continue
		}
		ok, err := f.Candidate.MatchString(pr.Text)
		if err != nil {
			p.metrics.RecordRegexTimeout(f.Candidate.Name)
			continue
		}
		if !ok {
			continue
		}
		for _, m := range contexts[i] {
			if m.Index < pr.End() && pr.Start < m.Index+m.Length {
				return true
			}
		}
	}
	return false
}

// dropDominated removes a result lying inside another whose resolution
// already refines every value of it.
func dropDominated(results []datetime.ParseResult) []datetime.ParseResult {
	out := make([]datetime.ParseResult, 0, len(results))
	for i, pr := range results {
		dominated := false
		for j, other := range results {
			if i == j || other.Length <= pr.Length || !other.Contains(pr.ExtractResult) {
				continue
			}
			if refines(other.ResolutionStr, pr.ResolutionStr) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, pr)
		}
	}
	return out
}

func refines(outer, inner string) bool {
	if inner == "" {
		return false
	}
	outerValues := strings.Split(outer, "|")
	for _, in := range strings.Split(inner, "|") {
		found := false
		for _, o := range outerValues {
			if strings.HasPrefix(o, in) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
