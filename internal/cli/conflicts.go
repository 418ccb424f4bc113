package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/willowtrack/healthrelay/internal/model"
)

// NewConflictsCommand creates the parent command for the conflict ledger.
func NewConflictsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Inspect and resolve detected conflicts",
	}
	cmd.AddCommand(newConflictsListCommand(rootOpts))
	cmd.AddCommand(newConflictsResolveCommand(rootOpts))
	return cmd
}

// ConflictsListOptions holds flags for listing conflicts.
type ConflictsListOptions struct {
	*RootOptions
	All bool
}

func newConflictsListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConflictsListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List conflicts awaiting a decision",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConflictsList(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "include resolved conflicts")

	return cmd
}

func runConflictsList(opts *ConflictsListOptions, cmd *cobra.Command) error {
	a, closeApp, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeApp()

	ctx := context.Background()
	var records []*model.ConflictRecord
	if opts.All {
		records, err = a.ledger.All(ctx)
	} else {
		records, err = a.ledger.Unresolved(ctx)
	}
	if err != nil {
		return fmt.Errorf("listing conflicts: %w", err)
	}

	if len(records) == 0 {
		if opts.All {
			cmd.Println("No conflicts recorded.")
		} else {
			cmd.Println("No unresolved conflicts.")
		}
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tDETECTED\tSTATUS\tDETAILS")
	for _, rec := range records {
		status := "unresolved"
		if rec.Resolved {
			status = string(rec.Resolution)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.ID, rec.Kind, rec.CreatedAt.Format("2006-01-02 15:04"), status, rec.Details)
	}
	return tw.Flush()
}

// ConflictsResolveOptions holds flags for resolving a conflict.
type ConflictsResolveOptions struct {
	*RootOptions
	Resolution string
}

func newConflictsResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConflictsResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a conflict as resolved",
		Long: `Record the chosen outcome for a conflict. Resolving is bookkeeping only:
it never modifies the session records themselves.

Resolutions: keep_manual, keep_google_health, keep_samsung_health,
keep_garmin, merge_data, delete_duplicate.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConflictsResolve(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Resolution, "resolution", "", "resolution to record (required)")
	_ = cmd.MarkFlagRequired("resolution")

	return cmd
}

func runConflictsResolve(opts *ConflictsResolveOptions, cmd *cobra.Command, id string) error {
	resolution, err := model.ParseResolution(opts.Resolution)
	if err != nil {
		return err
	}

	a, closeApp, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeApp()

	ctx := context.Background()
	rec, err := a.ledger.ByID(ctx, id)
	if err != nil {
		return fmt.Errorf("looking up conflict: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no conflict with id %s", id)
	}

	if err := a.ledger.Resolve(ctx, id, resolution, time.Now().UTC()); err != nil {
		return fmt.Errorf("resolving conflict: %w", err)
	}
	cmd.Printf("Resolved %s as %s\n", id, resolution)
	return nil
}
