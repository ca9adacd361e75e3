package extractor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/lexicon"
)

func newExtractor(t *testing.T, culture string, opts ...Option) *Extractor {
	t.Helper()
	lex, err := lexicon.Load(culture)
	require.NoError(t, err)
	return New(lex, opts...)
}

func TestResolveOverlaps(t *testing.T) {
	in := []datetime.ExtractResult{
		{Start: 0, Length: 4, Text: "june", Order: 2},
		{Start: 0, Length: 7, Text: "june 10", Order: 1},
		{Start: 5, Length: 2, Text: "10", Order: 0},
		{Start: 11, Length: 5, Text: "later", Order: 3},
		{Start: 11, Length: 5, Text: "other", Order: 4},
		{Start: 20, Length: 0, Text: "", Order: 5},
	}
	out := ResolveOverlaps(in)

	require.Len(t, out, 2)
	assert.Equal(t, "june 10", out[0].Text)
	assert.Equal(t, "later", out[1].Text)
}

func TestExtract_NonOverlapping(t *testing.T) {
	ex := newExtractor(t, "en-us")
	texts := []string{
		"from June 10 to June 12 I'll be away, back 8pm on the 13th",
		"call me tomorrow at 3pm or next friday morning",
		"every monday between 9 and 5pm until next year",
		"2 days after christmas and 3 weeks ago",
	}
	for _, text := range texts {
		results := ex.Extract(text)
		require.NotEmpty(t, results, text)
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i-1].End(), results[i].Start, "overlap in %q", text)
		}
		for _, r := range results {
			assert.Equal(t, string([]rune(text)[r.Start:r.End()]), r.Text)
		}
	}
}

func TestExtract_Composites(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		typ    string
		source string
	}{
		{text: "see you tomorrow at 3pm", want: "tomorrow at 3pm", typ: datetime.TypeDateTime, source: SourceDateTime},
		{text: "from 3:00 to 4:30", want: "from 3:00 to 4:30", typ: datetime.TypeTimeRange, source: SourceTimeRange},
		{text: "from June 10 to June 12", want: "from June 10 to June 12", typ: datetime.TypeDateRange, source: SourceDateRange},
		{text: "tomorrow morning", want: "tomorrow morning", typ: datetime.TypeDateTimeRange, source: SourceDateTimePeriod},
		{text: "3 days ago", want: "3 days ago", typ: datetime.TypeDate, source: SourceDurationPoint},
		{text: "in 2 hours", want: "in 2 hours", typ: datetime.TypeDateTime, source: SourceDurationPoint},
		{text: "within the next 2 weeks", want: "within the next 2 weeks", typ: datetime.TypeDateRange, source: SourceDurationRange},
		{text: "2 days after christmas", want: "2 days after christmas", typ: datetime.TypeDate, source: SourceDurationAnchor},
		{text: "before June 12", want: "before June 12", typ: datetime.TypeDate, source: SourceMod},
		{text: "10 minutes before 5pm", want: "10 minutes before 5pm", typ: datetime.TypeDateTime, source: SourceDurationAnchor},
		{text: "off from Monday to Wednesday next week", want: "from Monday to Wednesday next week", typ: datetime.TypeDateRange, source: SourceDateRange},
	}
	ex := newExtractor(t, "en-us")
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			results := ex.Extract(tt.text)
			require.Len(t, results, 1, "results: %+v", results)
			r := results[0]
			assert.Equal(t, tt.want, r.Text)
			assert.Equal(t, tt.typ, r.Type)
			assert.Equal(t, tt.source, r.Source)
			assert.NotEmpty(t, r.Data)
		})
	}
}

func TestExtract_RangeHints(t *testing.T) {
	ex := newExtractor(t, "en-us")

	results := ex.Extract("between June 10 and June 12")
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Metadata.Range)
	assert.True(t, results[0].Metadata.Range.HasPrefix)
	assert.Equal(t, "and", results[0].Metadata.Range.Connector)

	results = ex.Extract("June 10 through June 12")
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Metadata.Range)
	assert.True(t, results[0].Metadata.Range.PossiblyInclusiveEnd)
	assert.False(t, results[0].Metadata.Range.HasPrefix)
}

func TestExtract_BetweenNeedsPrefix(t *testing.T) {
	ex := newExtractor(t, "en-us")
	for _, r := range ex.Extract("June 10 and June 12") {
		assert.NotEqual(t, SourceDateRange, r.Source)
	}
}

func TestExtract_DurationHints(t *testing.T) {
	ex := newExtractor(t, "en-us")

	results := ex.Extract("2 days before")
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Metadata.Duration)
	assert.Equal(t, directionPast, results[0].Metadata.Duration.Direction)
	assert.True(t, results[0].Metadata.Duration.AmbiguousAgo)

	results = ex.Extract("the last 3 days")
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Metadata.Duration)
	assert.Equal(t, directionPast, results[0].Metadata.Duration.Direction)
}

func TestExtract_DropsOutOfRangeDays(t *testing.T) {
	m := observability.NewInMemoryMetrics()
	ex := newExtractor(t, "en-us", WithMetrics(m))

	for _, r := range ex.Extract("the 32nd of May") {
		assert.NotEqual(t, datetime.TypeDate, r.Type)
	}
	assert.Positive(t, m.Snapshot().Dropped[observability.DropOutOfRange])
}

func TestExtract_ImplicitDuration(t *testing.T) {
	ex := newExtractor(t, "en-us")
	results := ex.Extract("wait twenty five minutes")
	require.Len(t, results, 1)
	assert.Equal(t, "twenty five minutes", results[0].Text)
	assert.Equal(t, datetime.TypeDuration, results[0].Type)
}

func TestExtract_French(t *testing.T) {
	ex := newExtractor(t, "fr-fr")

	results := ex.Extract("3 jours plus tard")
	require.Len(t, results, 1)
	assert.Equal(t, SourceDurationPoint, results[0].Source)
	assert.Equal(t, directionFuture, results[0].Metadata.Duration.Direction)

	results = ex.Extract("il y a 2 semaines")
	require.Len(t, results, 1)
	assert.Equal(t, "il y a 2 semaines", results[0].Text)
	assert.Equal(t, directionPast, results[0].Metadata.Duration.Direction)
}

func TestExtract_RuneOffsets(t *testing.T) {
	ex := newExtractor(t, "fr-fr")
	text := "réunion demain"
	results := ex.Extract(text)
	require.Len(t, results, 1)
	assert.Equal(t, 8, results[0].Start)
	assert.Equal(t, "demain", results[0].Text)
}

func TestLeadingTrailingDirection(t *testing.T) {
	ex := newExtractor(t, "fr-fr")

	word, n, ok := ex.leadingDirection(" plus tard demain")
	require.True(t, ok)
	assert.Equal(t, "plus tard", word)
	assert.Equal(t, 10, n)

	word, n, ok = ex.trailingDirection("partir dans ")
	require.True(t, ok)
	assert.Equal(t, "dans", word)
	assert.Equal(t, 5, n)

	_, _, ok = ex.leadingDirection(", plus tard")
	assert.False(t, ok)
}

func TestExtract_PatternOverBudget(t *testing.T) {
	cfg, err := lexicon.LoadConfig("en-us")
	require.NoError(t, err)
	cfg.Patterns[lexicon.FamilyDate] = append(cfg.Patterns[lexicon.FamilyDate],
		lexicon.PatternSpec{Name: "runaway", Pattern: `(a+)+$`})
	lex, err := lexicon.Compile(cfg, lexicon.WithMatchTimeout(time.Millisecond))
	require.NoError(t, err)

	m := observability.NewInMemoryMetrics()
	ex := New(lex, WithMetrics(m))
	got := ex.Extract(strings.Repeat("a", 40) + "b tomorrow")

	require.Len(t, got, 1)
	assert.Equal(t, "tomorrow", got[0].Text)
	assert.Equal(t, int64(1), m.Snapshot().RegexTimeouts)
}
