package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/willowtrack/healthrelay/internal/setup"
)

// NewSetupCommand creates the interactive first-run wizard command.
func NewSetupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-run configuration wizard",
		Long: `Walk through connecting HealthRelay to a health-data provider:
provider selection, URL and token, permission check, and sync settings.
The resulting configuration is written to ~/.config/healthrelay/config.yaml.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(opts.Verbose)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			wiz := setup.NewWizard(os.Stdin, os.Stdout, logger)
			return wiz.Run(ctx)
		},
	}
}
