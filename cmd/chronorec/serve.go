package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hrygo/chronorec/internal/profile"
	"github.com/hrygo/chronorec/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP recognition API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := server.NewServer(ctx, a.profile, a.logger)
			if err != nil {
				return err
			}
			if err := s.Start(ctx); err != nil {
				return err
			}
			printGreetings(cmd.OutOrStdout(), a.profile)

			<-ctx.Done()
			a.logger.Info("received shutdown signal", slog.String("cause", ctx.Err().Error()))
			s.Shutdown(context.WithoutCancel(ctx))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.Float64("rate-limit", 20, "requests per second allowed per client, 0 disables limiting")
	flags.Int("max-batch-size", 100, "maximum number of texts in a batch request")
	bindFlags(a.viper, flags, map[string]string{
		"addr":           "addr",
		"port":           "port",
		"rate_limit":     "rate-limit",
		"max_batch_size": "max-batch-size",
	})
	return cmd
}

func printGreetings(w io.Writer, p *profile.Profile) {
	fmt.Fprintf(w, "chronorec %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprintf(w, "Running in %s mode with cultures %v\n", p.Mode, p.Cultures)
	}
	if p.Addr == "" {
		fmt.Fprintf(w, "Server running on port %d\n", p.Port)
		fmt.Fprintf(w, "Try: curl -X POST http://localhost:%d/api/v1/datetime:recognize -d '{\"text\":\"tomorrow at 3pm\"}' -H 'Content-Type: application/json'\n", p.Port)
	} else {
		fmt.Fprintf(w, "Server running on %s:%d\n", p.Addr, p.Port)
	}
}
