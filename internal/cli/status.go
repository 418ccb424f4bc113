package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/willowtrack/healthrelay/internal/config"
	"github.com/willowtrack/healthrelay/internal/provider"
	"github.com/willowtrack/healthrelay/internal/store"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show configuration, database, and provider state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	cfgPath, err := resolveConfigPath(opts)
	if err != nil {
		return err
	}

	cmd.Println("HealthRelay Status")
	cmd.Println("──────────────────")

	// Config state.
	var cfg *config.Config
	if _, statErr := os.Stat(cfgPath); statErr == nil {
		loaded, loadErr := config.Load(cfgPath)
		if loadErr == nil {
			cfg = loaded
			cmd.Printf("  Config:      %s ✓\n", cfgPath)
			cmd.Printf("  Provider:    %s (%s)\n", cfg.ProviderSource, cfg.ProviderURL)
			cmd.Printf("  Poll:        %s\n", cfg.PollInterval)
			cmd.Printf("  Window:      %s\n", cfg.SyncWindow)
		} else {
			cmd.Printf("  Config:      %s (invalid: %v)\n", cfgPath, loadErr)
		}
	} else {
		cmd.Printf("  Config:      not found (%s)\n", cfgPath)
	}

	// Database state.
	dbPath := ""
	if cfg != nil {
		dbPath = cfg.DBPath
	}
	if dbPath == "" {
		dbPath, _ = store.DefaultDBPath()
	}
	if info, statErr := os.Stat(dbPath); statErr == nil {
		cmd.Printf("  Database:    %s (%s)\n", dbPath, humanSize(info.Size()))
		printRecordCounts(cmd, dbPath)
	} else {
		cmd.Printf("  Database:    not found (%s)\n", dbPath)
	}

	// Provider reachability.
	if cfg != nil {
		printProviderStatus(cmd, cfg)
	}

	return nil
}

// printRecordCounts opens the database read path and reports session and
// conflict totals. Failures degrade to a note instead of aborting status.
func printRecordCounts(cmd *cobra.Command, dbPath string) {
	st, err := store.Open(dbPath)
	if err != nil {
		cmd.Printf("  Records:     unreadable (%v)\n", err)
		return
	}
	defer st.Close()

	ctx := context.Background()
	sleep, err := st.AllSleep(ctx)
	if err != nil {
		cmd.Printf("  Records:     unreadable (%v)\n", err)
		return
	}
	exercise, err := st.AllExercise(ctx)
	if err != nil {
		cmd.Printf("  Records:     unreadable (%v)\n", err)
		return
	}
	cmd.Printf("  Records:     %d sleep, %d exercise\n", len(sleep), len(exercise))

	unresolved, err := st.UnresolvedConflicts(ctx)
	if err == nil {
		cmd.Printf("  Conflicts:   %d unresolved\n", len(unresolved))
	}
}

func printProviderStatus(cmd *cobra.Command, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adapter := provider.NewAdapter(cfg.ProviderURL, cfg.ProviderToken, cfg.Source(), newLogger(false))
	avail, err := adapter.AvailabilityStatus(ctx)
	if err != nil {
		cmd.Printf("  Provider:    unreachable (%v)\n", err)
		return
	}
	cmd.Printf("  Available:   %s\n", avail)

	missing, err := adapter.MissingPermissions(ctx)
	switch {
	case err != nil:
		cmd.Printf("  Permissions: check failed (%v)\n", err)
	case len(missing) > 0:
		cmd.Printf("  Permissions: missing %s\n", strings.Join(missing, ", "))
	default:
		cmd.Printf("  Permissions: all granted\n")
	}
}

// humanSize returns a human-readable file size string.
func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
