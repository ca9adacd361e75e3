package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/datetime/extractor"
	"github.com/hrygo/chronorec/plugin/lexicon"
	"github.com/hrygo/chronorec/plugin/timex"
)

// monday is the reference instant of most cases: Monday 2024-06-10 09:00.
var monday = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func run(t *testing.T, culture, text string, ref time.Time, opts ...lexicon.Option) []datetime.ParseResult {
	t.Helper()
	lex, err := lexicon.Load(culture, opts...)
	require.NoError(t, err)
	ex := extractor.New(lex)
	p := New(lex)
	return p.ParseAll(text, ex.Extract(text), ref)
}

func single(t *testing.T, results []datetime.ParseResult) datetime.ParseResult {
	t.Helper()
	require.Len(t, results, 1, "results: %+v", results)
	return results[0]
}

func TestParse_English(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		typ   string
		timex string
		value string
		start string
		end   string
	}{
		{name: "time before date", text: "I'll go back 8pm today", typ: datetime.TypeDateTime, timex: "2024-06-10T20", value: "2024-06-10 20:00:00"},
		{name: "relative day", text: "see you tomorrow", typ: datetime.TypeDate, timex: "2024-06-11", value: "2024-06-11"},
		{name: "full date", text: "on June 12, 2024", typ: datetime.TypeDate, timex: "2024-06-12", value: "2024-06-12"},
		{name: "numeric date", text: "due 6/14/2024", typ: datetime.TypeDate, timex: "2024-06-14", value: "2024-06-14"},
		{name: "next weekday", text: "next friday", typ: datetime.TypeDate, timex: "2024-06-21", value: "2024-06-21"},
		{name: "clock", text: "meet at 3:30", typ: datetime.TypeTime, timex: "T03:30", value: "03:30:00"},
		{name: "day half", text: "call me at 8pm", typ: datetime.TypeTime, timex: "T20", value: "20:00:00"},
		{name: "noon", text: "lunch at noon", typ: datetime.TypeTime, timex: "T12", value: "12:00:00"},
		{name: "quarter to", text: "quarter to 5pm", typ: datetime.TypeTime, timex: "T16:45", value: "16:45:00"},
		{name: "half past day half", text: "half past 3pm", typ: datetime.TypeTime, timex: "T15:30", value: "15:30:00"},
		{name: "minutes to day half", text: "10 minutes to 5pm", typ: datetime.TypeTime, timex: "T16:50", value: "16:50:00"},
		{name: "duration", text: "it took 3 days", typ: datetime.TypeDuration, timex: "P3D", value: "259200"},
		{name: "hour and a half", text: "an hour and a half", typ: datetime.TypeDuration, timex: "PT1.5H", value: "5400"},
		{name: "ago", text: "3 days ago", typ: datetime.TypeDate, timex: "2024-06-07", value: "2024-06-07"},
		{name: "in hours", text: "in 2 hours", typ: datetime.TypeDateTime, timex: "2024-06-10T11", value: "2024-06-10 11:00:00"},
		{name: "holiday with year", text: "thanksgiving 2023", typ: datetime.TypeDate, timex: "2023-11-23", value: "2023-11-23"},
		{name: "easter", text: "easter 2024", typ: datetime.TypeDate, timex: "2024-03-31", value: "2024-03-31"},
		{name: "good friday", text: "good friday 2024", typ: datetime.TypeDate, timex: "2024-03-29", value: "2024-03-29"},
		{name: "set", text: "every week", typ: datetime.TypeSet, timex: "P1W", value: datetime.NotResolved},
		{name: "set adverb", text: "we meet weekly", typ: datetime.TypeSet, timex: "P1W", value: datetime.NotResolved},
		{name: "next week", text: "next week", typ: datetime.TypeDateRange, timex: "2024-W25", start: "2024-06-17", end: "2024-06-24"},
		{name: "this weekend", text: "this weekend", typ: datetime.TypeDateRange, timex: "2024-W24-WE", start: "2024-06-15", end: "2024-06-17"},
		{name: "month year", text: "June 2024", typ: datetime.TypeDateRange, timex: "2024-06", start: "2024-06-01", end: "2024-07-01"},
		{name: "last year", text: "last year", typ: datetime.TypeDateRange, timex: "2023", start: "2023-01-01", end: "2024-01-01"},
		{name: "date range", text: "from June 10 to June 12", typ: datetime.TypeDateRange, timex: "(2024-06-10,2024-06-12,P2D)", start: "2024-06-10", end: "2024-06-12"},
		{name: "year on right end", text: "from May 30 to June 2, 2023", typ: datetime.TypeDateRange, timex: "(2023-05-30,2023-06-02,P3D)", start: "2023-05-30", end: "2023-06-02"},
		{name: "year on left end", text: "May 30, 2023 to June 2", typ: datetime.TypeDateRange, timex: "(2023-05-30,2023-06-02,P3D)", start: "2023-05-30", end: "2023-06-02"},
		{name: "year on left end crossing new year", text: "December 30, 2023 to January 2", typ: datetime.TypeDateRange, timex: "(2023-12-30,2024-01-02,P3D)", start: "2023-12-30", end: "2024-01-02"},
		{name: "weekday range in next week", text: "from Monday to Wednesday next week", typ: datetime.TypeDateRange, timex: "(2024-06-17,2024-06-19,P2D)", start: "2024-06-17", end: "2024-06-19"},
		{name: "weekday range in this week", text: "Tuesday to Friday this week", typ: datetime.TypeDateRange, timex: "(2024-06-11,2024-06-14,P3D)", start: "2024-06-11", end: "2024-06-14"},
		{name: "inclusive day range", text: "June 10 through 12, 2024", typ: datetime.TypeDateRange, timex: "(2024-06-10,2024-06-13,P3D)", start: "2024-06-10", end: "2024-06-13"},
		{name: "hour range", text: "open 9-5pm", typ: datetime.TypeTimeRange, timex: "(T09,T17,PT8H)", start: "09:00:00", end: "17:00:00"},
		{name: "date and part of day", text: "tomorrow morning", typ: datetime.TypeDateTimeRange, timex: "2024-06-11TMO", start: "2024-06-11 08:00:00", end: "2024-06-11 12:00:00"},
		{name: "tonight", text: "tonight", typ: datetime.TypeDateTimeRange, timex: "2024-06-10TNI", start: "2024-06-10 20:00:00", end: "2024-06-10 23:59:59"},
		{name: "last night", text: "last night", typ: datetime.TypeDateTimeRange, timex: "2024-06-09TNI", start: "2024-06-09 20:00:00", end: "2024-06-09 23:59:59"},
		{name: "next days", text: "in the next 3 days", typ: datetime.TypeDateRange, timex: "(2024-06-10,2024-06-13,P3D)", start: "2024-06-10", end: "2024-06-13"},
		{name: "now", text: "right now", typ: datetime.TypeDateTime, timex: timex.PresentRef, value: "2024-06-10 09:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := single(t, run(t, "en-us", tt.text, monday))
			require.NotEmpty(t, pr.Values)
			v := pr.Values[0]
			assert.Equal(t, tt.typ, pr.Type)
			assert.Equal(t, tt.timex, pr.ResolutionStr)
			assert.Equal(t, tt.value, v.Value)
			assert.Equal(t, tt.start, v.Start)
			assert.Equal(t, tt.end, v.End)
		})
	}
}

func TestParse_WeekdayFansOut(t *testing.T) {
	wednesday := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	pr := single(t, run(t, "en-us", "Friday", wednesday))

	require.Len(t, pr.Values, 2)
	assert.Equal(t, "2024-06-07", pr.Values[0].Value)
	assert.Equal(t, "2024-06-14", pr.Values[1].Value)
	assert.Equal(t, "2024-06-07|2024-06-14", pr.ResolutionStr)
}

func TestParse_WeekdayOnReferenceDayCollapses(t *testing.T) {
	pr := single(t, run(t, "en-us", "Monday", monday))
	require.Len(t, pr.Values, 1)
	assert.Equal(t, "2024-06-10", pr.Values[0].Value)
}

func TestParse_YearlessDateFansOut(t *testing.T) {
	pr := single(t, run(t, "en-us", "March 3rd", monday))
	require.Len(t, pr.Values, 2)
	assert.Equal(t, "2024-03-03", pr.Values[0].Value)
	assert.Equal(t, "2025-03-03", pr.Values[1].Value)
}

func TestParse_LeapDayFansOutAcrossYears(t *testing.T) {
	pr := single(t, run(t, "en-us", "February 29", monday))
	require.Len(t, pr.Values, 2)
	assert.Equal(t, "2024-02-29", pr.Values[0].Value)
	assert.Equal(t, "2028-02-29", pr.Values[1].Value)
}

func TestParse_OutOfRangeDayRejected(t *testing.T) {
	for _, pr := range run(t, "en-us", "the 32nd of May", monday) {
		assert.NotEqual(t, datetime.TypeDate, pr.Type, "unexpected date %q", pr.Text)
	}
	for _, pr := range run(t, "en-us", "February 30, 2024", monday) {
		assert.NotEqual(t, datetime.TypeDate, pr.Type, "unexpected date %q", pr.Text)
	}
}

func TestParse_MinuteGranularity(t *testing.T) {
	results := run(t, "en-us", "3:37", monday, lexicon.WithMinuteGranularity([]int{0, 15, 30, 45}))
	assert.Empty(t, results)

	results = run(t, "en-us", "3:45", monday, lexicon.WithMinuteGranularity([]int{0, 15, 30, 45}))
	pr := single(t, results)
	assert.Equal(t, "T03:45", pr.ResolutionStr)
}

func TestParse_Mod(t *testing.T) {
	pr := single(t, run(t, "en-us", "before June 12, 2024", monday))
	require.Len(t, pr.Values, 1)
	v := pr.Values[0]
	assert.Equal(t, datetime.TypeDate, pr.Type)
	assert.Equal(t, "before", v.Mod)
	assert.Equal(t, "2024-06-12", v.End)
	assert.Empty(t, v.Value)

	pr = single(t, run(t, "en-us", "since last week", monday))
	v = pr.Values[0]
	assert.Equal(t, "since", v.Mod)
	assert.Equal(t, "2024-06-03", v.Start)
	assert.Empty(t, v.End)
}

func TestParse_AmbiguityFilter(t *testing.T) {
	for _, pr := range run(t, "en-us", "you may go", monday) {
		assert.NotEqual(t, "may", pr.Text)
	}
	for _, pr := range run(t, "en-us", "good morning everyone", monday) {
		assert.NotEqual(t, "morning", pr.Text)
	}
	pr := single(t, run(t, "en-us", "see you in May", monday))
	assert.Equal(t, "May", pr.Text)
}

func TestParse_DurationAnchor(t *testing.T) {
	pr := single(t, run(t, "en-us", "2 days after christmas 2024", monday))
	assert.Equal(t, extractor.SourceDurationAnchor, pr.Source)
	assert.Equal(t, "2024-12-27", pr.Values[0].Value)

	pr = single(t, run(t, "en-us", "10 minutes before 5pm", monday))
	assert.Equal(t, extractor.SourceDurationAnchor, pr.Source)
	assert.Equal(t, datetime.TypeDateTime, pr.Type)
	require.Len(t, pr.Values, 1)
	assert.Equal(t, "2024-06-10 16:50:00", pr.Values[0].Value)
}

func TestParse_FrenchWeekdayRangeInWeek(t *testing.T) {
	pr := single(t, run(t, "fr-fr", "du lundi au mercredi la semaine prochaine", monday))
	assert.Equal(t, "(2024-06-17,2024-06-19,P2D)", pr.ResolutionStr)
}

func TestParse_French(t *testing.T) {
	tests := []struct {
		text  string
		timex string
	}{
		{text: "demain", timex: "2024-06-11"},
		{text: "à 20h30", timex: "T20:30"},
		{text: "la semaine prochaine", timex: "2024-W25"},
		{text: "il y a 3 jours", timex: "2024-06-07"},
		{text: "le 14 juillet 2024", timex: "2024-07-14"},
		{text: "le 10/06/2024", timex: "2024-06-10"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			pr := single(t, run(t, "fr-fr", tt.text, monday))
			assert.Equal(t, tt.timex, pr.ResolutionStr)
		})
	}
}

func TestParse_RecordsDrops(t *testing.T) {
	lex, err := lexicon.Load("en-us", lexicon.WithMinuteGranularity([]int{0, 30}))
	require.NoError(t, err)
	m := observability.NewInMemoryMetrics()
	p := New(lex, WithMetrics(m))

	text := "3:37"
	assert.Empty(t, p.ParseAll(text, extractor.New(lex).Extract(text), monday))
	assert.Equal(t, int64(1), m.Snapshot().Dropped[observability.DropOutOfRange])
}

func TestParse_MalformedComposite(t *testing.T) {
	lex, err := lexicon.Load("en-us")
	require.NoError(t, err)
	p := New(lex)

	_, err = p.Parse(datetime.ExtractResult{Text: "x", Source: extractor.SourceTimeRange}, monday)
	require.Error(t, err)
}

func TestEaster(t *testing.T) {
	tests := map[int]string{
		2019: "2019-04-21",
		2023: "2023-04-09",
		2024: "2024-03-31",
		2025: "2025-04-20",
	}
	for year, want := range tests {
		assert.Equal(t, want, easter(year, time.UTC).Format(datetime.DateLayout))
	}
}

func TestNthWeekdayOf(t *testing.T) {
	d, ok := nthWeekdayOf(2024, 11, 4, 4, time.UTC)
	require.True(t, ok)
	assert.Equal(t, "2024-11-28", d.Format(datetime.DateLayout))

	d, ok = nthWeekdayOf(2024, 5, 1, -1, time.UTC)
	require.True(t, ok)
	assert.Equal(t, "2024-05-27", d.Format(datetime.DateLayout))

	_, ok = nthWeekdayOf(2024, 2, 1, 5, time.UTC)
	assert.False(t, ok)
}

func TestShift(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-02", shift(jan31, timex.Duration{Amount: 1, Unit: timex.UnitMonth}, 1).Format(datetime.DateLayout))
	assert.Equal(t, "2024-01-24", shift(jan31, timex.Duration{Amount: 1, Unit: timex.UnitWeek}, -1).Format(datetime.DateLayout))
	assert.Equal(t, "2024-01-31 01:30:00", shift(jan31, timex.Duration{Amount: 1.5, Unit: timex.UnitHour}, 1).Format(datetime.DateTimeLayout))
}

func TestSpanDuration(t *testing.T) {
	from := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "P2D", spanDuration(from, from.Add(48*time.Hour)).String())
	assert.Equal(t, "PT8H", spanDuration(from, from.Add(8*time.Hour)).String())
	assert.Equal(t, "PT90M", spanDuration(from, from.Add(90*time.Minute)).String())
	assert.Equal(t, "PT30S", spanDuration(from, from.Add(30*time.Second)).String())
}

func TestRefines(t *testing.T) {
	assert.True(t, refines("2024-06-10T20", "2024-06-10"))
	assert.True(t, refines("2024-06-07|2024-06-14", "2024-06-14"))
	assert.False(t, refines("2024-06-10T20", "T20"))
	assert.False(t, refines("2024-06-10", ""))
}
