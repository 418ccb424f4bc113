package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/willowtrack/healthrelay/internal/model"
)

// NewLogCommand creates the parent command for manual record entry.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a sleep or exercise session by hand",
	}
	cmd.AddCommand(newLogSleepCommand(rootOpts))
	cmd.AddCommand(newLogExerciseCommand(rootOpts))
	return cmd
}

// LogSleepOptions holds flags for logging a sleep session.
type LogSleepOptions struct {
	*RootOptions
	Bed     string
	Wake    string
	Quality int
	Notes   string
}

func newLogSleepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogSleepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sleep",
		Short: "Record a sleep session",
		Long: `Record a sleep session. Times accept RFC 3339, "2006-01-02 15:04", or a
bare clock time like "22:30" which is taken as today. A wake time earlier
than the bed time rolls over to the next day.

Examples:
  healthrelay log sleep --bed 22:30 --wake 06:30
  healthrelay log sleep --bed "2026-08-31 23:00" --wake "2026-09-01 07:15" --quality 4`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogSleep(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Bed, "bed", "", "bed time (required)")
	cmd.Flags().StringVar(&opts.Wake, "wake", "", "wake time (required)")
	cmd.Flags().IntVar(&opts.Quality, "quality", 3, "quality rating from 1 to 5")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("bed")
	_ = cmd.MarkFlagRequired("wake")

	return cmd
}

func runLogSleep(opts *LogSleepOptions, cmd *cobra.Command) error {
	bed, err := parseEntryTime(opts.Bed)
	if err != nil {
		return fmt.Errorf("invalid --bed time: %w", err)
	}
	wake, err := parseEntryTime(opts.Wake)
	if err != nil {
		return fmt.Errorf("invalid --wake time: %w", err)
	}
	// A bare-clock wake time before the bed time means the session crossed
	// midnight.
	if !wake.After(bed) && isClockOnly(opts.Wake) {
		wake = wake.AddDate(0, 0, 1)
	}

	a, closeApp, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeApp()

	sess := &model.SleepSession{
		BedTime:  bed,
		WakeTime: wake,
		Quality:  opts.Quality,
		Notes:    opts.Notes,
		Source:   model.SourceManual,
	}
	conflicts, err := a.reconciler.InsertSleepWithConflictDetection(context.Background(), sess)
	if err != nil {
		return fmt.Errorf("recording sleep session: %w", err)
	}

	cmd.Printf("Recorded sleep %s to %s (%s)\n",
		bed.Format("2006-01-02 15:04"), wake.Format("2006-01-02 15:04"), sess.ID)
	printConflictWarnings(cmd, conflicts)
	return nil
}

// LogExerciseOptions holds flags for logging an exercise session.
type LogExerciseOptions struct {
	*RootOptions
	Start     string
	Duration  int
	Kind      string
	Intensity string
	Calories  int
	Notes     string
}

func newLogExerciseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogExerciseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exercise",
		Short: "Record an exercise session",
		Long: `Record an exercise session. The start time accepts the same formats as
log sleep.

Examples:
  healthrelay log exercise --start 07:00 --duration 45 --kind running
  healthrelay log exercise --start "2026-09-01 18:00" --duration 60 --kind yoga --intensity low`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogExercise(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "start time (required)")
	cmd.Flags().IntVar(&opts.Duration, "duration", 0, "duration in minutes (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "exercise kind, e.g. running, cycling, yoga (required)")
	cmd.Flags().StringVar(&opts.Intensity, "intensity", "moderate", "effort level (low|moderate|high|very_high)")
	cmd.Flags().IntVar(&opts.Calories, "calories", -1, "calories burned (omit if unknown)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("duration")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func runLogExercise(opts *LogExerciseOptions, cmd *cobra.Command) error {
	start, err := parseEntryTime(opts.Start)
	if err != nil {
		return fmt.Errorf("invalid --start time: %w", err)
	}
	kind, err := model.ParseExerciseKind(opts.Kind)
	if err != nil {
		return err
	}
	intensity, err := model.ParseIntensity(opts.Intensity)
	if err != nil {
		return err
	}
	var calories *int
	if opts.Calories >= 0 {
		calories = &opts.Calories
	}

	a, closeApp, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeApp()

	sess := &model.ExerciseSession{
		Kind:            kind,
		StartTime:       start,
		DurationMinutes: opts.Duration,
		Intensity:       intensity,
		Calories:        calories,
		Notes:           opts.Notes,
		Source:          model.SourceManual,
	}
	conflicts, err := a.reconciler.InsertExerciseWithConflictDetection(context.Background(), sess)
	if err != nil {
		return fmt.Errorf("recording exercise session: %w", err)
	}

	cmd.Printf("Recorded %s for %d minutes starting %s (%s)\n",
		kind, opts.Duration, start.Format("2006-01-02 15:04"), sess.ID)
	printConflictWarnings(cmd, conflicts)
	return nil
}

func printConflictWarnings(cmd *cobra.Command, conflicts []*model.ConflictRecord) {
	for _, c := range conflicts {
		cmd.Printf("Warning: %s\n", c.Details)
	}
	if len(conflicts) > 0 {
		cmd.Printf("Review conflicts with: healthrelay conflicts list\n")
	}
}

// entryTimeLayouts are tried in order when parsing manual entry times.
var entryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// parseEntryTime parses a manual entry time. Bare clock times like "22:30"
// resolve against today's date in the local timezone.
func parseEntryTime(s string) (time.Time, error) {
	for _, layout := range entryTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if clock, err := time.ParseInLocation("15:04", s, time.Local); err == nil {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC 3339, \"2006-01-02 15:04\", or \"15:04\")", s)
}

func isClockOnly(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
