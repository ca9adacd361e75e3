package profile

import (
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "CHRONOREC"

// Profile is the configuration to start the recognizer and its server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string `mapstructure:"mode"`
	// Addr is the binding address for server
	Addr string `mapstructure:"addr"`
	// Port is the binding port for server
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
	// Version is the current version of server
	Version string `mapstructure:"version"`

	// Recognition
	DefaultCulture    string        `mapstructure:"default_culture" validate:"required"`            // CHRONOREC_DEFAULT_CULTURE (default: en-us)
	Cultures          []string      `mapstructure:"cultures"`                                       // CHRONOREC_CULTURES, comma separated (default: all)
	CultureFallback   bool          `mapstructure:"culture_fallback"`                               // CHRONOREC_CULTURE_FALLBACK (default: true)
	DefaultTimezone   string        `mapstructure:"default_timezone" validate:"required"`           // CHRONOREC_DEFAULT_TIMEZONE (default: UTC)
	MaxInputLength    int           `mapstructure:"max_input_length" validate:"gt=0"`               // CHRONOREC_MAX_INPUT_LENGTH (default: 4096)
	FoldWidth         bool          `mapstructure:"fold_width"`                                     // CHRONOREC_FOLD_WIDTH (default: true)
	RegexTimeout      time.Duration `mapstructure:"regex_timeout" validate:"gt=0"`                  // CHRONOREC_REGEX_TIMEOUT (default: 100ms)
	MinuteGranularity []int         `mapstructure:"minute_granularity" validate:"dive,gte=0,lt=60"` // CHRONOREC_MINUTE_GRANULARITY

	// Results cache
	CacheCapacity        int           `mapstructure:"cache_capacity" validate:"gte=0"`         // CHRONOREC_CACHE_CAPACITY (default: 1000)
	CacheTTL             time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`              // CHRONOREC_CACHE_TTL (default: 10m)
	CacheCleanupInterval time.Duration `mapstructure:"cache_cleanup_interval" validate:"gte=0"` // CHRONOREC_CACHE_CLEANUP_INTERVAL (default: 1m)
	CacheDisabled        bool          `mapstructure:"cache_disabled"`                          // CHRONOREC_CACHE_DISABLED

	// Server
	RateLimit        float64 `mapstructure:"rate_limit" validate:"gte=0"`        // CHRONOREC_RATE_LIMIT requests per second per client (default: 20)
	RateBurst        int     `mapstructure:"rate_burst" validate:"gte=0"`        // CHRONOREC_RATE_BURST (default: 40)
	BatchConcurrency int     `mapstructure:"batch_concurrency" validate:"gt=0"`  // CHRONOREC_BATCH_CONCURRENCY (default: 8)
	MaxBatchSize     int     `mapstructure:"max_batch_size" validate:"gt=0"`     // CHRONOREC_MAX_BATCH_SIZE (default: 100)
	MaxParallelBatch int64   `mapstructure:"max_parallel_batch" validate:"gt=0"` // CHRONOREC_MAX_PARALLEL_BATCH (default: 4)

	// Logging
	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"` // CHRONOREC_LOG_LEVEL (default: info)
	LogFormat string `mapstructure:"log_format" validate:"oneof=text json"`            // CHRONOREC_LOG_FORMAT (default: text)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

var defaults = map[string]any{
	"mode":                   "demo",
	"addr":                   "",
	"port":                   8081,
	"version":                "dev",
	"default_culture":        "en-us",
	"cultures":               []string{},
	"culture_fallback":       true,
	"default_timezone":       "UTC",
	"max_input_length":       4096,
	"fold_width":             true,
	"regex_timeout":          100 * time.Millisecond,
	"minute_granularity":     []int{},
	"cache_capacity":         1000,
	"cache_ttl":              10 * time.Minute,
	"cache_cleanup_interval": time.Minute,
	"cache_disabled":         false,
	"rate_limit":             20.0,
	"rate_burst":             40,
	"batch_concurrency":      8,
	"max_batch_size":         100,
	"max_parallel_batch":     4,
	"log_level":              "info",
	"log_format":             "text",
}

// NewViper returns a viper instance carrying the profile defaults and bound
// to the CHRONOREC_* environment. Callers may bind flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Load builds a validated profile from v. When configFile is set it is read
// first; environment variables and bound flags take precedence over it.
func Load(v *viper.Viper, configFile string) (*Profile, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", configFile)
		}
	}

	p := &Profile{}
	if err := v.Unmarshal(p); err != nil {
		return nil, errors.Wrap(err, "unable to decode profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var validate = validator.New()

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	p.DefaultCulture = strings.ToLower(strings.TrimSpace(p.DefaultCulture))
	p.LogLevel = strings.ToLower(p.LogLevel)
	p.LogFormat = strings.ToLower(p.LogFormat)
	if p.CacheTTL == 0 {
		p.CacheCleanupInterval = 0
	}

	if _, err := time.LoadLocation(p.DefaultTimezone); err != nil {
		slog.Error("invalid default timezone", slog.String("timezone", p.DefaultTimezone), slog.String("error", err.Error()))
		return errors.Wrapf(err, "invalid default timezone %s", p.DefaultTimezone)
	}
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(err, "invalid profile")
	}
	return nil
}

// LogLevelValue maps LogLevel to a slog level.
func (p *Profile) LogLevelValue() slog.Level {
	switch p.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
