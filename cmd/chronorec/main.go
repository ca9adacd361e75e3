package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hrygo/chronorec/internal/profile"
)

// Injected through -ldflags at build time.
var version = "dev"

type app struct {
	viper      *viper.Viper
	configFile string
	profile    *profile.Profile
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{viper: profile.NewViper()}

	rootCmd := &cobra.Command{
		Use:           "chronorec",
		Short:         "Recognize and resolve date/time expressions in natural-language text.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "path of a YAML config file")
	flags.String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("default-culture", "en-us", "culture used when a request names none")
	flags.StringSlice("cultures", nil, "cultures to load (default: all)")
	flags.Bool("culture-fallback", true, "resolve unknown cultures to the default culture")
	flags.String("default-timezone", "UTC", "IANA timezone of references without an offset")
	flags.Int("max-input-length", 4096, "maximum text length in characters")
	flags.Duration("regex-timeout", 0, "match timeout of a single pattern evaluation")
	flags.Bool("cache-disabled", false, "disable the results cache")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	bindFlags(a.viper, flags, map[string]string{
		"mode":             "mode",
		"default_culture":  "default-culture",
		"cultures":         "cultures",
		"culture_fallback": "culture-fallback",
		"default_timezone": "default-timezone",
		"max_input_length": "max-input-length",
		"regex_timeout":    "regex-timeout",
		"cache_disabled":   "cache-disabled",
		"log_level":        "log-level",
		"log_format":       "log-format",
	})

	rootCmd.AddCommand(
		newParseCmd(a),
		newServeCmd(a),
		newCulturesCmd(a),
	)
	return rootCmd
}

// init loads the profile and configures the logger.
func (a *app) init(logOutput io.Writer) error {
	p, err := profile.Load(a.viper, a.configFile)
	if err != nil {
		return err
	}
	if p.Version == "" || p.Version == "dev" {
		p.Version = version
	}
	a.profile = p
	a.logger = newLogger(p, logOutput)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(p *profile.Profile, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: p.LogLevelValue(), AddSource: p.Mode == "dev"}
	if p.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(errors.Wrapf(err, "bind flag %s", name))
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
