package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/willowtrack/healthrelay/internal/model"
	syncp "github.com/willowtrack/healthrelay/internal/sync"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Kind      string
	Direction string
	From      string
	To        string
}

// NewSyncCommand creates the one-shot sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync pass against the provider",
		Long: `Perform one sync pass and exit. By default both record kinds are synced
in both directions over the configured window.

Examples:
  healthrelay sync
  healthrelay sync --kind sleep --direction import
  healthrelay sync --from 2026-08-01 --to 2026-09-01`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "all", "record kind to sync (sleep|exercise|all)")
	cmd.Flags().StringVar(&opts.Direction, "direction", "both", "sync direction (import|export|both)")
	cmd.Flags().StringVar(&opts.From, "from", "", "start of the import window (YYYY-MM-DD, default now minus sync_window)")
	cmd.Flags().StringVar(&opts.To, "to", "", "end of the import window (YYYY-MM-DD, default now)")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	kinds, err := parseKinds(opts.Kind)
	if err != nil {
		return err
	}
	switch opts.Direction {
	case "import", "export", "both":
	default:
		return fmt.Errorf("unknown direction %q: must be import, export, or both", opts.Direction)
	}

	a, closeApp, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeApp()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	flush := setupTelemetry(ctx, a)
	defer flush()

	start, end, err := resolveWindow(opts.From, opts.To, a.cfg.SyncWindow)
	if err != nil {
		return err
	}

	var total syncp.Outcome
	for _, kind := range kinds {
		var out syncp.Outcome
		switch opts.Direction {
		case "import":
			out = a.reconciler.SyncFromProvider(ctx, kind, start, end)
		case "export":
			out = a.reconciler.SyncToProvider(ctx, kind)
		case "both":
			out = a.reconciler.FullSync(ctx, kind, start, end)
		}
		if out.Failed() {
			return fmt.Errorf("syncing %s sessions: %s", kind, out.Reason)
		}
		total = total.Merge(out)
	}

	cmd.Printf("Sync complete: %d synced, %d skipped, %d conflicts filed\n",
		total.Synced, total.Skipped, total.Conflicts)
	if total.Conflicts > 0 {
		cmd.Printf("Review conflicts with: healthrelay conflicts list\n")
	}
	return nil
}

// parseKinds expands the --kind flag into the record kinds to sync.
func parseKinds(kind string) ([]model.RecordKind, error) {
	switch kind {
	case "all":
		return []model.RecordKind{model.KindSleep, model.KindExercise}, nil
	case "sleep":
		return []model.RecordKind{model.KindSleep}, nil
	case "exercise":
		return []model.RecordKind{model.KindExercise}, nil
	}
	return nil, fmt.Errorf("unknown kind %q: must be sleep, exercise, or all", kind)
}

// resolveWindow turns the --from/--to flags into an import window, falling
// back to the trailing configured window.
func resolveWindow(from, to string, window time.Duration) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", to, err)
		}
		end = t.UTC()
	}

	start := end.Add(-window)
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", from, err)
		}
		start = t.UTC()
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--from %s is not before --to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}
