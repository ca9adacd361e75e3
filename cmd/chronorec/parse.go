package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/plugin/datetime"
	"github.com/hrygo/chronorec/server"
	apiv1 "github.com/hrygo/chronorec/server/router/api/v1"
	"github.com/hrygo/chronorec/server/timezone"
)

type parseOptions struct {
	culture  string
	ref      string
	timezone string
	compact  bool
	now      func() time.Time
}

func newParseCmd(a *app) *cobra.Command {
	opts := &parseOptions{now: time.Now}
	cmd := &cobra.Command{
		Use:   `parse "<text>"`,
		Short: "Print the date/time expressions found in text as JSON",
		Example: `  chronorec parse "I'll go back 8pm today" --ref 2024-06-10T09:00:00Z
  chronorec parse "demain à 15h" --culture fr-fr --timezone Europe/Paris`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, a, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.culture, "culture", "", "culture of the text (default: the configured default culture)")
	cmd.Flags().StringVar(&opts.ref, "ref", "", `reference instant, RFC 3339 or "2006-01-02 15:04:05" (default: now)`)
	cmd.Flags().StringVar(&opts.timezone, "timezone", "", "IANA timezone of the reference (default: the configured default timezone)")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "print single-line JSON")
	return cmd
}

func runParse(cmd *cobra.Command, a *app, opts *parseOptions, text string) error {
	p := a.profile
	culture := opts.culture
	if culture == "" {
		culture = p.DefaultCulture
	}
	defaultLocation, err := timezone.ParseTimezone(p.DefaultTimezone)
	if err != nil {
		return err
	}
	ref, err := timezone.ResolveReference(opts.ref, opts.timezone, defaultLocation, opts.now())
	if err != nil {
		return rerrors.Wrap(err, rerrors.ErrCodeInvalidArgument, "invalid reference or timezone")
	}

	rec, err := server.NewRecognizer(p, observability.NewNoopMetrics(), a.logger)
	if err != nil {
		return err
	}
	defer rec.Registry().Close()

	results, err := rec.Parse(cmd.Context(), text, culture, ref)
	if err != nil {
		return err
	}
	if results == nil {
		results = []datetime.ModelResult{}
	}
	resp := apiv1.RecognizeResponse{
		Culture:   culture,
		Reference: ref.Format(time.RFC3339),
		Results:   results,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}
	return errors.Wrap(enc.Encode(resp), "failed to write results")
}
