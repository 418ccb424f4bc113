package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	syncp "github.com/willowtrack/healthrelay/internal/sync"
)

// NewDaemonCommand creates the continuous sync daemon command.
func NewDaemonCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run continuous periodic sync with the provider",
		Long: `Start the sync engine as a foreground daemon. On an empty database the
first-run backfill offers to import the provider's recent history; after
that, a full bidirectional sync of both record kinds runs once per poll
interval until the process is stopped.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			flush := setupTelemetry(ctx, a)
			defer flush()

			a.log.Info("config loaded",
				"provider_url", a.cfg.ProviderURL,
				"source", a.cfg.Source(),
				"poll_interval", a.cfg.PollInterval,
			)

			bootstrap := syncp.NewBootstrap(a.reconciler, a.adapter, a.store, a.log, os.Stdin, os.Stdout)
			if _, err := bootstrap.Run(ctx); err != nil {
				return fmt.Errorf("first-run backfill: %w", err)
			}

			engine := syncp.NewEngine(a.reconciler, a.cfg.SyncWindow, a.cfg.PollInterval, a.log)

			a.log.Info("daemon starting", "poll_interval", a.cfg.PollInterval)
			if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("sync engine: %w", err)
			}
			a.log.Info("shutdown complete")
			return nil
		},
	}
}
