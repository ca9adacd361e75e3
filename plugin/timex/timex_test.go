package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday.
var refDate = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func TestInfer(t *testing.T) {
	tests := []struct {
		name  string
		timex string
		want  []Type
	}{
		{"definite date", "2024-06-10", []Type{TypeDate, TypeDefinite}},
		{"weekday", "XXXX-WXX-5", []Type{TypeDate}},
		{"month day", "XXXX-06-10", []Type{TypeDate}},
		{"datetime", "2024-06-10T20", []Type{TypeDate, TypeDateTime, TypeDefinite, TypeTime}},
		{"time", "T20:30", []Type{TypeTime}},
		{"part of day", "TEV", []Type{TypeTimeRange}},
		{"date with part of day", "2024-06-10TEV", []Type{TypeDate, TypeDateTimeRange, TypeDefinite, TypeTimeRange}},
		{"year", "2024", []Type{TypeDateRange}},
		{"month", "2024-06", []Type{TypeDateRange}},
		{"week", "2024-W24", []Type{TypeDateRange}},
		{"weekend", "2024-W24-WE", []Type{TypeDateRange}},
		{"season", "2024-SU", []Type{TypeDateRange}},
		{"duration", "P3D", []Type{TypeDuration}},
		{"time duration", "PT1.5H", []Type{TypeDuration}},
		{"present", PresentRef, []Type{TypeDate, TypeDateTime, TypePresent, TypeTime}},
		{"date range", "(2024-06-10,2024-06-15,P5D)", []Type{TypeDateRange, TypeDuration}},
		{"time range", "(T15,T17,PT2H)", []Type{TypeDuration, TypeTimeRange}},
		{"datetime range", "(2024-06-10T15,2024-06-10T17,PT2H)", []Type{TypeDateTimeRange, TypeDuration}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := Parse(tt.timex)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Infer(tx).Sorted())
		})
	}
}

func TestInfer_DoesNotMutate(t *testing.T) {
	tx := Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(10)}
	before := tx.String()
	_ = Infer(tx)
	_ = tx.Types()
	assert.Equal(t, before, tx.String())
	assert.Nil(t, tx.Hour)
}

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"2024-06-10", "XXXX-06-10", "XXXX-WXX-1", "2024-W24", "2024-W24-WE", "2024-W24-3",
		"2024-06", "XXXX-06", "2024", "2024-SU", "XXXX-WI", "T20", "T20:30", "T20:30:15",
		"TMO", "2024-06-10TNI", "2024-06-10T08:05", "P3D", "P2W", "P1M", "P1Y", "PT2H",
		"PT30M", "PT10S", "PT1.5H", PresentRef, "(2024-06-10,2024-06-15,P5D)", "(T15,T17,PT2H)",
	} {
		t.Run(s, func(t *testing.T) {
			tx, err := Parse(s)
			require.NoError(t, err)
			assert.Equal(t, s, tx.String())
			assert.NotEmpty(t, Infer(tx))
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{
		"", "yesterday", "2024-13-xx", "T2", "P3X", "(2024-06-10)",
		"2024-13-05", "2024-00", "2024-02-32", "2024-06-00", "2024-W54", "2024-W00",
		"T99:99", "T25", "T12:60", "T12:30:60", "(2024-06-10,2024-13-01)",
	} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}

	for _, s := range []string{"2024-12-31", "2024-W53", "T24", "T23:59:59"} {
		_, err := Parse(s)
		assert.NoError(t, err, s)
	}
}

func TestConvertToString_OutOfRange(t *testing.T) {
	bad := Timex{Year: Int(2024), Month: Int(13), DayOfMonth: Int(5)}
	assert.Error(t, bad.Validate())
	assert.NotPanics(t, func() {
		assert.Empty(t, ConvertToString(bad))
		assert.Empty(t, ConvertToStringRelative(bad, refDate))
	})
}

func TestUnitDistinguishesMonthAndMinute(t *testing.T) {
	assert.Equal(t, "P1M", Duration{Amount: 1, Unit: UnitMonth}.String())
	assert.Equal(t, "PT1M", Duration{Amount: 1, Unit: UnitMinute}.String())
	d, err := ParseDuration("PT1M")
	require.NoError(t, err)
	assert.Equal(t, UnitMinute, d.Unit)
	assert.Equal(t, float64(60), d.Seconds())
}

func TestConvertToStringRelative(t *testing.T) {
	tests := []struct {
		name string
		tx   Timex
		want string
	}{
		{"today", FromDate(refDate), "today"},
		{"tomorrow", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(11)}, "tomorrow"},
		{"yesterday", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(9)}, "yesterday"},
		{"this friday", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(14)}, "this friday"},
		{"next monday", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(17)}, "next monday"},
		{"last friday", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(7)}, "last friday"},
		{"absolute date", Timex{Year: Int(2024), Month: Int(7), DayOfMonth: Int(30)}, "30th July 2024"},
		{"next year", Timex{Year: Int(2025)}, "next year"},
		{"this year", Timex{Year: Int(2024)}, "this year"},
		{"last month", Timex{Year: Int(2024), Month: Int(5)}, "last month"},
		{"distant month", Timex{Year: Int(2025), Month: Int(1)}, ""},
		{"this week", Timex{Year: Int(2024), WeekOfYear: Int(24)}, "this week"},
		{"next weekend", Timex{Year: Int(2024), WeekOfYear: Int(25), Weekend: true}, "next weekend"},
		{"this summer", Timex{Year: Int(2024), Season: SeasonSummer}, "this summer"},
		{"unrelated year", Timex{Year: Int(2030)}, ""},
		{"tonight", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(10), PartOfDay: PartNight}, "tonight"},
		{"this evening", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(10), PartOfDay: PartEvening}, "this evening"},
		{"tomorrow morning", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(11), PartOfDay: PartMorning}, "tomorrow morning"},
		{"today at 8pm", Timex{Year: Int(2024), Month: Int(6), DayOfMonth: Int(10), Hour: Int(20)}, "today 8PM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertToStringRelative(tt.tx, refDate))
		})
	}
}

func TestConvertToString(t *testing.T) {
	tests := []struct {
		timex string
		want  string
	}{
		{"2024-06-10", "10th June 2024"},
		{"XXXX-06-02", "2nd June"},
		{"XXXX-WXX-5", "Friday"},
		{"T20", "8PM"},
		{"T08:30", "8:30AM"},
		{"T00", "midnight"},
		{"T12", "midday"},
		{"2024-06-10T20", "8PM 10th June 2024"},
		{"2024-06", "June 2024"},
		{"2024-W24-WE", "weekend of week 24 2024"},
		{"2024-SU", "summer 2024"},
		{"TEV", "evening"},
		{"P3D", "3 days"},
		{"PT1H", "1 hour"},
		{"(T15,T17,PT2H)", "3PM to 5PM"},
		{PresentRef, "now"},
	}

	for _, tt := range tests {
		t.Run(tt.timex, func(t *testing.T) {
			tx, err := Parse(tt.timex)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ConvertToString(tx))
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	start := FromDate(refDate)
	end := FromDate(refDate.AddDate(0, 0, 2))
	r := FromRange(start, end, &Duration{Amount: 2, Unit: UnitDay})

	c := r.Clone()
	*c.Start.DayOfMonth = 1
	c.Duration.Amount = 9

	assert.Equal(t, 10, *r.Start.DayOfMonth)
	assert.Equal(t, float64(2), r.Duration.Amount)
}

func TestCalendarHelpers(t *testing.T) {
	assert.Equal(t, 1, Weekday(refDate))
	assert.Equal(t, 7, Weekday(refDate.AddDate(0, 0, 6)))
	assert.Equal(t, refDate.AddDate(0, 0, -7).Day(), WeekStart(refDate.AddDate(0, 0, -3)).Day())
	assert.True(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC).Equal(ISOWeekStart(2024, 24, time.UTC)))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, -1, DaysBetween(refDate, refDate.AddDate(0, 0, -1)))
}
