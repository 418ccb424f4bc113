package sync

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

// backfillWindow is how far back the first-run import reaches. Wider than
// the steady-state poll window so an existing provider history lands in the
// local database up front.
const backfillWindow = 90 * 24 * time.Hour

// Bootstrap performs the first-run backfill when the local database is
// empty. It checks the provider's state, prints a summary of what will be
// imported, and (with user confirmation) pulls the provider's history for
// both record kinds.
type Bootstrap struct {
	reconciler *Reconciler
	provider   ProviderSource
	store      RecordStore
	log        *slog.Logger
	reader     io.Reader // for confirmation prompt (os.Stdin in production)
	writer     io.Writer // for summary output (os.Stdout in production)
}

// NewBootstrap creates a Bootstrap wired to the given reconciler, provider,
// and store. reader and writer control the confirmation prompt I/O.
func NewBootstrap(reconciler *Reconciler, provider ProviderSource, store RecordStore, logger *slog.Logger, reader io.Reader, writer io.Writer) *Bootstrap {
	return &Bootstrap{
		reconciler: reconciler,
		provider:   provider,
		store:      store,
		log:        logger,
		reader:     reader,
		writer:     writer,
	}
}

// Run checks whether the local database is empty and, if so, performs the
// first-run backfill. Returns true if the backfill was executed, false if
// skipped.
func (b *Bootstrap) Run(ctx context.Context) (bool, error) {
	empty, err := b.store.IsEmpty(ctx)
	if err != nil {
		return false, fmt.Errorf("checking local database: %w", err)
	}
	if !empty {
		b.log.Debug("local database is not empty, skipping backfill")
		return false, nil
	}

	b.log.Info("empty local database detected, starting first-run backfill")

	status, err := b.provider.AvailabilityStatus(ctx)
	if err != nil {
		return false, fmt.Errorf("checking provider availability: %w", err)
	}
	if status != model.AvailabilityAvailable {
		return false, fmt.Errorf("provider is %s, cannot backfill", status)
	}

	granted, err := b.provider.HasAllPermissions(ctx)
	if err != nil {
		return false, fmt.Errorf("checking provider permissions: %w", err)
	}
	if !granted {
		return false, model.ErrPermissionDenied
	}

	end := time.Now().UTC()
	start := end.Add(-backfillWindow)

	_, _ = fmt.Fprintf(b.writer, "\n--- First-Run Backfill ---\n\n")
	_, _ = fmt.Fprintf(b.writer, "The local database is empty. Sleep and exercise sessions recorded\n")
	_, _ = fmt.Fprintf(b.writer, "by %s between %s and %s will be imported.\n\n",
		b.provider.Source(), start.Format("2006-01-02"), end.Format("2006-01-02"))

	if !b.confirm() {
		b.log.Info("backfill cancelled by user")
		return false, nil
	}

	for _, kind := range []model.RecordKind{model.KindSleep, model.KindExercise} {
		out := b.reconciler.SyncFromProvider(ctx, kind, start, end)
		if out.Failed() {
			return false, fmt.Errorf("backfilling %s sessions: %s", kind, out.Reason)
		}
		_, _ = fmt.Fprintf(b.writer, "Imported %d %s sessions (%d duplicates skipped, %d conflicts filed)\n",
			out.Synced, kind, out.Skipped, out.Conflicts)
	}

	b.log.Info("backfill complete")
	return true, nil
}

// confirm reads a y/n response from the reader.
func (b *Bootstrap) confirm() bool {
	_, _ = fmt.Fprintf(b.writer, "Proceed with backfill? [y/N] ")
	scanner := bufio.NewScanner(b.reader)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes"
	}
	return false
}
