// Package lexicon loads the per-culture dictionaries and pattern tables that
// drive extraction and parsing. Tables live in embedded YAML files; pattern
// templates reference dictionaries through {slot} placeholders that are
// expanded before compilation.
package lexicon

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	rerrors "github.com/hrygo/chronorec/internal/errors"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Pattern families.
const (
	FamilyDate          = "date"
	FamilyTime          = "time"
	FamilyTimeRange     = "timerange"
	FamilyNow           = "now"
	FamilyDuration      = "duration"
	FamilySet           = "set"
	FamilyHoliday       = "holiday"
	FamilyPeriod        = "period"
	FamilyDateTimeRange = "datetimerange"
	FamilyNumber        = "number"
)

// Connector names.
const (
	ConnDateTime      = "dateTime"
	ConnDateTimeRange = "dateTimeRange"
	ConnRange         = "range"
	ConnBetween       = "between"
	ConnRangePrefix   = "rangePrefix"
	ConnInclusive     = "inclusive"
	ConnUnitAfter     = "unitAfterNumber"
	ConnWithin        = "durationWithin"
	ConnDurationRange = "durationRange"
	ConnDurationIn    = "durationIn"
	ConnSuffix        = "durationSuffix"
	ConnAgoBefore     = "agoBefore"
	ConnAnchor        = "durationAnchor"
	ConnMod           = "modPrefix"
)

// HolidayRule resolves a holiday name to a date within a year. Either a
// fixed Month/Day, the Nth Weekday of Month (negative counts from the end),
// or a named Rule ("easter") plus an Offset in days.
type HolidayRule struct {
	Month   int    `yaml:"month"`
	Day     int    `yaml:"day"`
	Weekday int    `yaml:"weekday"`
	Nth     int    `yaml:"nth"`
	Rule    string `yaml:"rule"`
	Offset  int    `yaml:"offset"`
}

// PatternSpec is an uncompiled pattern template.
type PatternSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// FilterSpec drops a candidate whose text matches Candidate when Context
// matches the query around it.
type FilterSpec struct {
	Candidate string `yaml:"candidate"`
	Context   string `yaml:"context"`
}

// Dictionaries holds the culture word tables.
type Dictionaries struct {
	Months             map[string]int     `yaml:"months"`
	MonthAbbreviations map[string]int     `yaml:"monthAbbreviations"`
	Weekdays           map[string]int     `yaml:"weekdays"`
	RelativeDays       map[string]int     `yaml:"relativeDays"`
	RelativeWords      map[string]int     `yaml:"relativeWords"`
	Seasons            map[string]string  `yaml:"seasons"`
	PartsOfDay         map[string]string  `yaml:"partsOfDay"`
	Units              map[string]string  `yaml:"units"`
	PeriodUnits        map[string]string  `yaml:"periodUnits"`
	SetWords           map[string]string  `yaml:"setWords"`
	SpecialTimes       map[string]int     `yaml:"specialTimes"`
	DayHalves          map[string]string  `yaml:"dayHalves"`
	Cardinals          map[string]int     `yaml:"cardinals"`
	Ordinals           map[string]int     `yaml:"ordinals"`
	SpecialAmounts     map[string]float64 `yaml:"specialAmounts"`
	Mods               map[string]string  `yaml:"mods"`
	Directions         map[string]string  `yaml:"directions"`
}

// Config is the raw culture table set as read from YAML.
type Config struct {
	Culture              string                   `yaml:"culture"`
	DayFirst             bool                     `yaml:"dayFirst"`
	CheckBothBeforeAfter bool                     `yaml:"checkBothBeforeAfter"`
	MinuteGranularity    []int                    `yaml:"minuteGranularity"`
	CompositeWindow      int                      `yaml:"compositeWindow"`
	Dictionaries         Dictionaries             `yaml:"dictionaries"`
	Slots                map[string]string        `yaml:"slots"`
	Patterns             map[string][]PatternSpec `yaml:"patterns"`
	Connectors           map[string]string        `yaml:"connectors"`
	AmbiguityFilters     []FilterSpec             `yaml:"ambiguityFilters"`
	Holidays             map[string]HolidayRule   `yaml:"holidays"`
}

// AmbiguityFilter is a compiled FilterSpec.
type AmbiguityFilter struct {
	Candidate *Pattern
	Context   *Pattern
}

// Lexicon is a loaded, compiled culture. It is immutable after Load.
type Lexicon struct {
	cfg         Config
	families    map[string][]*Pattern
	connectors  map[string]*Pattern
	filters     []AmbiguityFilter
	granularity map[int]struct{}
}

type options struct {
	matchTimeout      time.Duration
	minuteGranularity []int
}

// Option customizes Load.
type Option func(*options)

// WithMatchTimeout sets the per-evaluation regex budget.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) { o.matchTimeout = d }
}

// WithMinuteGranularity restricts accepted minute values, e.g. quarter hours.
func WithMinuteGranularity(minutes []int) Option {
	return func(o *options) { o.minuteGranularity = minutes }
}

// Cultures lists the cultures with embedded tables.
func Cultures() []string {
	entries, err := fs.ReadDir(dataFS, "data")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if name := e.Name(); strings.HasSuffix(name, ".yaml") {
			out = append(out, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(out)
	return out
}

// NormalizeCulture lowercases a culture code and unifies separators.
func NormalizeCulture(culture string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(culture)), "_", "-")
}

// Load reads and compiles the tables of culture.
func Load(culture string, opts ...Option) (*Lexicon, error) {
	cfg, err := LoadConfig(culture)
	if err != nil {
		return nil, err
	}
	return Compile(cfg, opts...)
}

// LoadConfig reads the embedded tables of culture without compiling them.
func LoadConfig(culture string) (Config, error) {
	culture = NormalizeCulture(culture)
	data, err := dataFS.ReadFile(path.Join("data", culture+".yaml"))
	if err != nil {
		return Config{}, rerrors.UnsupportedCulture(culture)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "decode %s tables", culture)
	}
	if cfg.Culture != culture {
		return Config{}, errors.Errorf("tables for %s declare culture %q", culture, cfg.Culture)
	}
	return cfg, nil
}

// Compile builds a Lexicon from an in-memory Config.
func Compile(cfg Config, opts ...Option) (*Lexicon, error) {
	o := options{matchTimeout: DefaultMatchTimeout, minuteGranularity: cfg.MinuteGranularity}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.CompositeWindow <= 0 {
		cfg.CompositeWindow = 24
	}
	cfg.Dictionaries = normalizeDictionaries(cfg.Dictionaries)
	cfg.Holidays = normalizeKeys(cfg.Holidays)

	l := &Lexicon{
		cfg:        cfg,
		families:   make(map[string][]*Pattern, len(cfg.Patterns)),
		connectors: make(map[string]*Pattern, len(cfg.Connectors)),
	}
	if len(o.minuteGranularity) > 0 {
		l.granularity = make(map[int]struct{}, len(o.minuteGranularity))
		for _, m := range o.minuteGranularity {
			l.granularity[m] = struct{}{}
		}
	}

	slots, err := buildSlots(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "build slots for %s", cfg.Culture)
	}

	compile := func(name, tmpl string) (*Pattern, error) {
		expr, err := expandSlots(tmpl, slots)
		if err != nil {
			return nil, errors.Wrapf(err, "expand %s", name)
		}
		return compilePattern(name, expr, o.matchTimeout)
	}

	for family, specs := range cfg.Patterns {
		for _, spec := range specs {
			p, err := compile(family+"."+spec.Name, spec.Pattern)
			if err != nil {
				return nil, err
			}
			l.families[family] = append(l.families[family], p)
		}
	}
	for name, tmpl := range cfg.Connectors {
		p, err := compile("connector."+name, tmpl)
		if err != nil {
			return nil, err
		}
		l.connectors[name] = p
	}
	for i, f := range cfg.AmbiguityFilters {
		cand, err := compile("filter.candidate", f.Candidate)
		if err != nil {
			return nil, errors.Wrapf(err, "ambiguity filter %d", i)
		}
		ctx, err := compile("filter.context", f.Context)
		if err != nil {
			return nil, errors.Wrapf(err, "ambiguity filter %d", i)
		}
		l.filters = append(l.filters, AmbiguityFilter{Candidate: cand, Context: ctx})
	}
	return l, nil
}

func buildSlots(cfg Config) (map[string]string, error) {
	d := cfg.Dictionaries
	months := make(map[string]int, len(d.Months)+len(d.MonthAbbreviations))
	for k, v := range d.Months {
		months[k] = v
	}
	for k, v := range d.MonthAbbreviations {
		months[k] = v
	}
	slots := map[string]string{
		"month":         alternation(months),
		"monthfull":     alternation(d.Months),
		"weekday":       alternation(d.Weekdays),
		"relday":        alternation(d.RelativeDays),
		"relword":       alternation(d.RelativeWords),
		"season":        alternation(d.Seasons),
		"partofday":     alternation(d.PartsOfDay),
		"unit":          alternation(d.Units),
		"periodunit":    alternation(d.PeriodUnits),
		"setword":       alternation(d.SetWords),
		"specialtime":   alternation(d.SpecialTimes),
		"dayhalf":       alternation(d.DayHalves),
		"cardinal":      alternation(d.Cardinals),
		"ordinal":       alternation(d.Ordinals),
		"specialamount": alternation(d.SpecialAmounts),
		"mod":           alternation(d.Mods),
		"direction":     alternation(d.Directions),
		"holiday":       alternation(cfg.Holidays),
	}
	// Derived slots may reference dictionary slots but not each other.
	names := make([]string, 0, len(cfg.Slots))
	for name := range cfg.Slots {
		names = append(names, name)
	}
	sort.Strings(names)
	derived := make(map[string]string, len(names))
	for _, name := range names {
		expr, err := expandSlots(cfg.Slots[name], slots)
		if err != nil {
			return nil, errors.Wrapf(err, "slot %s", name)
		}
		derived[name] = "(?:" + expr + ")"
	}
	for name, expr := range derived {
		slots[name] = expr
	}
	return slots, nil
}

// normalizeKey lowercases, unifies apostrophes and collapses whitespace.
func normalizeKey(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "’", "'"))
	return strings.Join(strings.Fields(s), " ")
}

func normalizeKeys[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[normalizeKey(k)] = v
	}
	return out
}

func normalizeDictionaries(d Dictionaries) Dictionaries {
	return Dictionaries{
		Months:             normalizeKeys(d.Months),
		MonthAbbreviations: normalizeKeys(d.MonthAbbreviations),
		Weekdays:           normalizeKeys(d.Weekdays),
		RelativeDays:       normalizeKeys(d.RelativeDays),
		RelativeWords:      normalizeKeys(d.RelativeWords),
		Seasons:            normalizeKeys(d.Seasons),
		PartsOfDay:         normalizeKeys(d.PartsOfDay),
		Units:              normalizeKeys(d.Units),
		PeriodUnits:        normalizeKeys(d.PeriodUnits),
		SetWords:           normalizeKeys(d.SetWords),
		SpecialTimes:       normalizeKeys(d.SpecialTimes),
		DayHalves:          normalizeKeys(d.DayHalves),
		Cardinals:          normalizeKeys(d.Cardinals),
		Ordinals:           normalizeKeys(d.Ordinals),
		SpecialAmounts:     normalizeKeys(d.SpecialAmounts),
		Mods:               normalizeKeys(d.Mods),
		Directions:         normalizeKeys(d.Directions),
	}
}

func lookup[V any](m map[string]V, key string) (V, bool) {
	v, ok := m[normalizeKey(key)]
	return v, ok
}

// Culture returns the culture code.
func (l *Lexicon) Culture() string { return l.cfg.Culture }

// DayFirst reports whether numeric dates put the day before the month.
func (l *Lexicon) DayFirst() bool { return l.cfg.DayFirst }

// CheckBothBeforeAfter reports whether direction words for durations are
// searched on both sides of the duration.
func (l *Lexicon) CheckBothBeforeAfter() bool { return l.cfg.CheckBothBeforeAfter }

// CompositeWindow is the widest gap, in runes, bridged by composite merging.
func (l *Lexicon) CompositeWindow() int { return l.cfg.CompositeWindow }

// MinuteAllowed reports whether minute passes the culture granularity.
func (l *Lexicon) MinuteAllowed(minute int) bool {
	if minute < 0 || minute > 59 {
		return false
	}
	if l.granularity == nil {
		return true
	}
	_, ok := l.granularity[minute]
	return ok
}

// Family returns the compiled patterns of a family in registration order.
func (l *Lexicon) Family(name string) []*Pattern { return l.families[name] }

// Connector returns a compiled connector, or nil when the culture has none.
func (l *Lexicon) Connector(name string) *Pattern { return l.connectors[name] }

// AmbiguityFilters returns the culture's query-wide filters.
func (l *Lexicon) AmbiguityFilters() []AmbiguityFilter { return l.filters }

func (l *Lexicon) Month(s string) (int, bool) {
	if v, ok := lookup(l.cfg.Dictionaries.Months, s); ok {
		return v, true
	}
	return lookup(l.cfg.Dictionaries.MonthAbbreviations, s)
}

func (l *Lexicon) Weekday(s string) (int, bool) {
	return lookup(l.cfg.Dictionaries.Weekdays, s)
}

func (l *Lexicon) RelativeDay(s string) (int, bool) {
	return lookup(l.cfg.Dictionaries.RelativeDays, s)
}

func (l *Lexicon) RelativeWord(s string) (int, bool) {
	return lookup(l.cfg.Dictionaries.RelativeWords, s)
}

func (l *Lexicon) Season(s string) (string, bool) {
	return lookup(l.cfg.Dictionaries.Seasons, s)
}

func (l *Lexicon) PartOfDay(s string) (string, bool) {
	return lookup(l.cfg.Dictionaries.PartsOfDay, s)
}

func (l *Lexicon) Unit(s string) (string, bool) {
	return lookup(l.cfg.Dictionaries.Units, s)
}

func (l *Lexicon) PeriodUnit(s string) (string, bool) {
	return lookup(l.cfg.Dictionaries.PeriodUnits, s)
}

func (l *Lexicon) SetWord(s string) (string, bool) {
	return lookup(l.cfg.Dictionaries.SetWords, s)
}

func (l *Lexicon) SpecialTime(s string) (int, bool) {
	return lookup(l.cfg.Dictionaries.SpecialTimes, s)
}

func (l *Lexicon) DayHalf(s string) (string, bool) {
	return lookup(l.cfg.Dictionaries.DayHalves, s)
}

func (l *Lexicon) Cardinal(s string) (int, bool) {
	return lookup(l.cfg.Dictionaries.Cardinals, s)
}

func (l *Lexicon) Ordinal(s string) (int, bool) {
	return lookup(l.cfg.Dictionaries.Ordinals, s)
}

func (l *Lexicon) SpecialAmount(s string) (float64, bool) {
	return lookup(l.cfg.Dictionaries.SpecialAmounts, s)
}

func (l *Lexicon) Mod(s string) (string, bool) {
	return lookup(l.cfg.Dictionaries.Mods, s)
}

// Direction maps a duration direction word to "past" or "future".
func (l *Lexicon) Direction(s string) (string, bool) {
	return lookup(l.cfg.Dictionaries.Directions, s)
}

func (l *Lexicon) Holiday(s string) (HolidayRule, bool) {
	return lookup(l.cfg.Holidays, s)
}
