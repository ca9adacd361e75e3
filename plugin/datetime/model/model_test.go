package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/cache"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/plugin/lexicon"
	"github.com/hrygo/chronorec/plugin/timex"
)

var ref = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func newModel(t *testing.T, culture string, opts ...Option) *Model {
	t.Helper()
	lex, err := lexicon.Load(culture)
	require.NoError(t, err)
	return New(lex, opts...)
}

func TestParse_EndToEnd(t *testing.T) {
	m := newModel(t, "en-us")
	results := m.Parse("I'll go back 8pm today", ref)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, 13, r.Start)
	assert.Equal(t, 21, r.End)
	assert.Equal(t, "8pm today", r.Text)
	assert.Equal(t, datetime.TypeDateTime, r.TypeName)
	assert.Equal(t, "2024-06-10T20", r.Resolution[datetime.KeyTimex])
	assert.Equal(t, "2024-06-10 20:00:00", r.Resolution[datetime.KeyValue])
	assert.Equal(t, datetime.TypeDateTime, r.Resolution[datetime.KeyType])
}

func TestParse_AmbiguousValues(t *testing.T) {
	wednesday := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	results := newModel(t, "en-us").Parse("Friday", wednesday)

	require.Len(t, results, 1)
	values, ok := results[0].Resolution[datetime.KeyValues].([]map[string]string)
	require.True(t, ok)
	require.Len(t, values, 2)
	assert.NotEqual(t, values[0][datetime.KeyTimex], values[1][datetime.KeyTimex])
	assert.Equal(t, "2024-06-07", values[0][datetime.KeyValue])
	assert.Equal(t, "2024-06-14", values[1][datetime.KeyValue])
}

func TestParse_RangeResolution(t *testing.T) {
	results := newModel(t, "en-us").Parse("next week", ref)

	require.Len(t, results, 1)
	res := results[0].Resolution
	assert.Equal(t, "2024-06-17", res[datetime.KeyStart])
	assert.Equal(t, "2024-06-24", res[datetime.KeyEnd])
	_, hasValue := res[datetime.KeyValue]
	assert.False(t, hasValue)
}

func TestParse_NonOverlappingSpans(t *testing.T) {
	results := newModel(t, "en-us").Parse("from June 10 to June 12 I'm away, back 8pm on the 13th or next friday morning", ref)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.Less(t, results[i-1].End, results[i].Start)
	}
}

func TestParse_EveryTimexHasATypeSet(t *testing.T) {
	m := newModel(t, "en-us")
	texts := []string{
		"tomorrow at 3pm", "next week", "3 days", "every monday", "tonight",
		"from 9 to 5pm", "right now", "summer 2024", "in 2 hours", "Friday",
	}
	for _, text := range texts {
		for _, r := range m.Parse(text, ref) {
			for _, tx := range timexStrings(r) {
				parsed, err := timex.Parse(tx)
				require.NoError(t, err, tx)
				assert.NotEmpty(t, timex.Infer(parsed), "timex %q of %q", tx, text)
			}
		}
	}
}

func timexStrings(r datetime.ModelResult) []string {
	if values, ok := r.Resolution[datetime.KeyValues].([]map[string]string); ok {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = v[datetime.KeyTimex]
		}
		return out
	}
	return []string{r.Resolution[datetime.KeyTimex].(string)}
}

func TestParse_CacheIdempotence(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	c := NewResultsCache(cache.DefaultConfig(), metrics)
	defer c.Close()
	m := newModel(t, "en-us", WithCache(c))

	first := m.Parse("tomorrow at 3pm", ref)
	require.Len(t, first, 1)

	// Mutating a returned result must not affect later calls.
	first[0].Resolution[datetime.KeyTimex] = "mutated"

	second := m.Parse("tomorrow at 3pm", ref)
	third := m.Parse("tomorrow at 3pm", ref)
	assert.Equal(t, second, third)
	assert.Equal(t, "2024-06-11T15", second[0].Resolution[datetime.KeyTimex])

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.CacheHits)
	assert.Equal(t, int64(1), snap.CacheMisses)
}

func TestCacheKey(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	a := CacheKey("en-us", "today", ref)
	b := CacheKey("en-us", "today", ref.Add(400*time.Millisecond))
	c := CacheKey("en-us", "today", ref.In(paris))
	d := CacheKey("fr-fr", "today", ref)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestModelResult_JSONSortsKeys(t *testing.T) {
	pr := datetime.ParseResult{
		ExtractResult: datetime.ExtractResult{Start: 0, Length: 5, Text: "today", Type: datetime.TypeDate},
		Values: []datetime.Resolution{{
			Timex: timex.Timex{Year: timex.Int(2024), Month: timex.Int(6), DayOfMonth: timex.Int(10)},
			Type:  datetime.TypeDate,
			Value: "2024-06-10",
		}},
	}
	data, err := json.Marshal(ToModelResult(pr))
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":0,"end":4,"typeName":"date","text":"today","resolution":{"timex":"2024-06-10","type":"date","value":"2024-06-10"}}`, string(data))
	assert.Contains(t, string(data), `"resolution":{"timex":"2024-06-10","type":"date","value":"2024-06-10"}`)
}
