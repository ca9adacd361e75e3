package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/chronorec/internal/observability"
	"github.com/hrygo/chronorec/server"
)

func newCulturesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cultures",
		Short: "List the loaded cultures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := server.NewRecognizer(a.profile, observability.NewNoopMetrics(), a.logger)
			if err != nil {
				return err
			}
			reg := rec.Registry()
			defer reg.Close()

			for _, c := range reg.Cultures() {
				if c == reg.DefaultCulture() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", c)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}
