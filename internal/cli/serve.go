package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/app"
	"github.com/parisxmas/leadsite/internal/logging"
	"github.com/parisxmas/leadsite/internal/telemetry"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the site, the lead intake API and the notification dispatcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log, flush, err := logging.New(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Init(ctx, "leadsite", Version, cfg.OTLPEndpoint)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() {
				tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(tctx); err != nil {
					log.Warn("tracer shutdown failed", zap.Error(err))
				}
			}()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
}
