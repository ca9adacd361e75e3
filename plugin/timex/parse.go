package timex

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	durationPattern = regexp.MustCompile(`^P(?:(\d+(?:\.\d+)?)([YMWD])|T(\d+(?:\.\d+)?)([HMS]))$`)
	datePattern     = regexp.MustCompile(`^(\d{4}|XXXX)(?:-(\d{2}|SP|SU|FA|WI)(?:-(\d{2}))?)?$`)
	weekPattern     = regexp.MustCompile(`^(\d{4}|XXXX)-W(\d{2}|XX)(?:-(WE|[1-7]))?$`)
	timePattern     = regexp.MustCompile(`^T(?:(MO|AF|EV|NI|DT)|(\d{2})(?::(\d{2})(?::(\d{2}))?)?)$`)
)

var dateUnitCodes = map[string]Unit{"Y": UnitYear, "M": UnitMonth, "W": UnitWeek, "D": UnitDay}
var timeUnitCodes = map[string]Unit{"H": UnitHour, "M": UnitMinute, "S": UnitSecond}

// Parse reads a compact timex string produced by Timex.String.
func Parse(s string) (Timex, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timex{}, fmt.Errorf("timex: empty string")
	}
	if s == PresentRef {
		return Timex{Now: true}, nil
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return parseRange(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "P") {
		d, err := ParseDuration(s)
		if err != nil {
			return Timex{}, err
		}
		return Timex{Duration: &d}, nil
	}

	var t Timex
	datePart, timePart := s, ""
	if i := strings.Index(s, "T"); i >= 0 {
		datePart, timePart = s[:i], s[i:]
	}
	if datePart != "" {
		if err := parseDatePart(datePart, &t); err != nil {
			return Timex{}, err
		}
	}
	if timePart != "" {
		if err := parseTimePart(timePart, &t); err != nil {
			return Timex{}, err
		}
	}
	if err := t.Validate(); err != nil {
		return Timex{}, err
	}
	return t, nil
}

// ParseDuration reads a single-unit duration such as "P3D" or "PT30M".
func ParseDuration(s string) (Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, fmt.Errorf("timex: invalid duration %q", s)
	}
	amount, unit := m[1], dateUnitCodes[m[2]]
	if m[3] != "" {
		amount, unit = m[3], timeUnitCodes[m[4]]
	}
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return Duration{}, fmt.Errorf("timex: invalid duration amount %q: %w", amount, err)
	}
	return Duration{Amount: v, Unit: unit}, nil
}

func parseRange(body string) (Timex, error) {
	parts := strings.Split(body, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return Timex{}, fmt.Errorf("timex: invalid range %q", body)
	}
	start, err := Parse(parts[0])
	if err != nil {
		return Timex{}, err
	}
	end, err := Parse(parts[1])
	if err != nil {
		return Timex{}, err
	}
	t := Timex{Start: &start, End: &end}
	if len(parts) == 3 {
		d, err := ParseDuration(parts[2])
		if err != nil {
			return Timex{}, err
		}
		t.Duration = &d
	}
	return t, nil
}

func parseDatePart(s string, t *Timex) error {
	if m := weekPattern.FindStringSubmatch(s); m != nil {
		t.Year = atoiPtr(m[1])
		t.WeekOfYear = atoiPtr(m[2])
		switch m[3] {
		case "":
		case "WE":
			t.Weekend = true
		default:
			t.DayOfWeek = atoiPtr(m[3])
		}
		return nil
	}
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return fmt.Errorf("timex: invalid date %q", s)
	}
	t.Year = atoiPtr(m[1])
	switch m[2] {
	case "":
	case SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter:
		if m[3] != "" {
			return fmt.Errorf("timex: invalid season %q", s)
		}
		t.Season = m[2]
	default:
		t.Month = atoiPtr(m[2])
	}
	t.DayOfMonth = atoiPtr(m[3])
	return nil
}

func parseTimePart(s string, t *Timex) error {
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return fmt.Errorf("timex: invalid time %q", s)
	}
	if m[1] != "" {
		t.PartOfDay = m[1]
		return nil
	}
	t.Hour = atoiPtr(m[2])
	t.Minute = atoiPtr(m[3])
	t.Second = atoiPtr(m[4])
	return nil
}

// atoiPtr returns nil for empty or placeholder fields.
func atoiPtr(s string) *int {
	if s == "" || strings.HasPrefix(s, "X") {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
