// Package cli wires the cobra command tree for the healthrelay binary.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCommand creates the root command for the HealthRelay CLI.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "healthrelay",
		Short: "HealthRelay - conflict-aware health record sync",
		Long: `HealthRelay keeps a local database of sleep and exercise sessions in sync
with an external health-data provider. Overlapping records are detected,
filed in a conflict ledger, and resolved explicitly by you.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config.yaml (default ~/.config/healthrelay/config.yaml)")

	cmd.AddCommand(NewSetupCommand(opts))
	cmd.AddCommand(NewDaemonCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewConflictsCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewVersionCommand(version))

	return cmd
}
