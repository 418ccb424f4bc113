package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

// manualWindow bounds the date-range query around a manual entry when
// searching for overlap candidates. Sessions further away cannot overlap.
const manualWindow = 12 * time.Hour

// Reconciler performs the individual sync operations: provider import,
// provider export, and conflict-checked manual insertion. It is stateless
// between calls. All persistent state lives in the [RecordStore] and the
// [ConflictLedger].
type Reconciler struct {
	store    RecordStore
	ledger   ConflictLedger
	provider ProviderSource
	log      *slog.Logger
}

// NewReconciler creates a Reconciler wired to the given store, ledger, and
// provider adapter.
func NewReconciler(store RecordStore, ledger ConflictLedger, provider ProviderSource, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, ledger: ledger, provider: provider, log: logger}
}

// guard verifies the provider is reachable and all permissions are granted.
// It returns a failed outcome describing the first problem, or a zero
// outcome when the provider is usable.
func (r *Reconciler) guard(ctx context.Context) Outcome {
	status, err := r.provider.AvailabilityStatus(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("checking provider availability: %v", err))
	}
	switch status {
	case model.AvailabilityUnavailable, model.AvailabilityUnknown:
		return Failure(model.ErrProviderUnavailable.Error())
	case model.AvailabilityUpdateRequired:
		return Failure(model.ErrProviderUpdateRequired.Error())
	}

	granted, err := r.provider.HasAllPermissions(ctx)
	if err != nil {
		return Failure(fmt.Sprintf("checking provider permissions: %v", err))
	}
	if !granted {
		return Failure(model.ErrPermissionDenied.Error())
	}
	return Outcome{}
}

// SyncFromProvider imports provider sessions of one kind created within
// [start, end). Exact duplicates are skipped; sessions that overlap an
// existing record from a different source are filed with the ledger and
// still inserted, flagged as conflicted on both sides.
func (r *Reconciler) SyncFromProvider(ctx context.Context, kind model.RecordKind, start, end time.Time) Outcome {
	if out := r.guard(ctx); out.Failed() {
		return out
	}

	var out Outcome
	var err error
	switch kind {
	case model.KindSleep:
		out, err = r.importSleep(ctx, start, end)
	case model.KindExercise:
		out, err = r.importExercise(ctx, start, end)
	default:
		return Failure(fmt.Sprintf("unknown record kind %q", kind))
	}
	if err != nil {
		return Failure(fmt.Sprintf("failed to download %s sessions: %v", kind, err))
	}

	r.log.Info("import complete",
		"kind", kind,
		"source", r.provider.Source(),
		"synced", out.Synced,
		"skipped", out.Skipped,
		"conflicts", out.Conflicts,
	)
	return out
}

func (r *Reconciler) importSleep(ctx context.Context, start, end time.Time) (Outcome, error) {
	incoming, err := r.provider.ReadSleep(ctx, start, end)
	if err != nil {
		return Outcome{}, err
	}

	existing, err := r.store.AllSleep(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading local sessions: %w", err)
	}

	var out Outcome
	var toInsert []*model.SleepSession
	for _, in := range incoming {
		// Invalid records are dropped outright. Skipped counts only exact
		// duplicates.
		if err := in.Validate(); err != nil {
			r.log.Warn("discarding invalid provider session", "id", in.ID, "error", err)
			continue
		}
		if sleepDuplicate(existing, in) {
			out.Skipped++
			continue
		}

		for _, ex := range existing {
			if ex.Source == in.Source || !ex.Interval().Overlaps(in.Interval()) {
				continue
			}
			if err := r.fileSleepConflict(ctx, ex, in); err != nil {
				return Outcome{}, err
			}
			out.Conflicts++
		}
		toInsert = append(toInsert, in)
	}

	if err := r.store.InsertSleepBatch(ctx, toInsert); err != nil {
		return Outcome{}, fmt.Errorf("inserting sessions: %w", err)
	}
	out.Synced = len(toInsert)
	return out, nil
}

func (r *Reconciler) importExercise(ctx context.Context, start, end time.Time) (Outcome, error) {
	incoming, err := r.provider.ReadExercise(ctx, start, end)
	if err != nil {
		return Outcome{}, err
	}

	existing, err := r.store.AllExercise(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading local sessions: %w", err)
	}

	var out Outcome
	var toInsert []*model.ExerciseSession
	for _, in := range incoming {
		if err := in.Validate(); err != nil {
			r.log.Warn("discarding invalid provider session", "id", in.ID, "error", err)
			continue
		}
		if exerciseDuplicate(existing, in) {
			out.Skipped++
			continue
		}

		for _, ex := range existing {
			if ex.Source == in.Source || !ex.Interval().Overlaps(in.Interval()) {
				continue
			}
			if err := r.fileExerciseConflict(ctx, ex, in); err != nil {
				return Outcome{}, err
			}
			out.Conflicts++
		}
		toInsert = append(toInsert, in)
	}

	if err := r.store.InsertExerciseBatch(ctx, toInsert); err != nil {
		return Outcome{}, fmt.Errorf("inserting sessions: %w", err)
	}
	out.Synced = len(toInsert)
	return out, nil
}

// SyncToProvider exports all local sessions of one kind that did not
// originate from the provider. No overlap detection happens on the export
// side; the provider owns its own records.
func (r *Reconciler) SyncToProvider(ctx context.Context, kind model.RecordKind) Outcome {
	if out := r.guard(ctx); out.Failed() {
		return out
	}

	var synced int
	var err error
	switch kind {
	case model.KindSleep:
		synced, err = r.exportSleep(ctx)
	case model.KindExercise:
		synced, err = r.exportExercise(ctx)
	default:
		return Failure(fmt.Sprintf("unknown record kind %q", kind))
	}
	if err != nil {
		return Failure(fmt.Sprintf("failed to upload %s sessions: %v", kind, err))
	}

	r.log.Info("export complete", "kind", kind, "source", r.provider.Source(), "synced", synced)
	return Success(synced, 0)
}

func (r *Reconciler) exportSleep(ctx context.Context) (int, error) {
	all, err := r.store.AllSleep(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading local sessions: %w", err)
	}

	var outbound []*model.SleepSession
	for _, s := range all {
		if s.Source != r.provider.Source() {
			outbound = append(outbound, s)
		}
	}
	if len(outbound) == 0 {
		return 0, nil
	}
	if err := r.provider.WriteSleep(ctx, outbound); err != nil {
		return 0, err
	}
	return len(outbound), nil
}

func (r *Reconciler) exportExercise(ctx context.Context) (int, error) {
	all, err := r.store.AllExercise(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading local sessions: %w", err)
	}

	var outbound []*model.ExerciseSession
	for _, s := range all {
		if s.Source != r.provider.Source() {
			outbound = append(outbound, s)
		}
	}
	if len(outbound) == 0 {
		return 0, nil
	}
	if err := r.provider.WriteExercise(ctx, outbound); err != nil {
		return 0, err
	}
	return len(outbound), nil
}

// FullSync performs an import followed by an export for one record kind.
// The export is skipped when the import fails, so a half-synced pass never
// pushes records the provider could bounce back.
func (r *Reconciler) FullSync(ctx context.Context, kind model.RecordKind, start, end time.Time) Outcome {
	imported := r.SyncFromProvider(ctx, kind, start, end)
	if imported.Failed() {
		return imported
	}
	return imported.Merge(r.SyncToProvider(ctx, kind))
}

// InsertSleepWithConflictDetection inserts a manually entered sleep session
// after checking it against nearby sessions of any source. Overlaps are filed
// with the ledger but never block the insert. The returned slice holds the
// conflicts detected for this entry.
func (r *Reconciler) InsertSleepWithConflictDetection(ctx context.Context, sess *model.SleepSession) ([]*model.ConflictRecord, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if sess.ID == "" {
		sess.ID = model.NewID()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	nearby, err := r.store.SleepByDateRange(ctx, sess.BedTime.Add(-manualWindow), sess.WakeTime.Add(manualWindow))
	if err != nil {
		return nil, fmt.Errorf("loading nearby sessions: %w", err)
	}

	var conflicts []*model.ConflictRecord
	for _, ex := range nearby {
		if ex.ID == sess.ID || !ex.Interval().Overlaps(sess.Interval()) {
			continue
		}
		rec, err := r.fileSleepConflictRecord(ctx, ex, sess)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, rec)
	}

	if err := r.store.InsertSleep(ctx, sess); err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return conflicts, nil
}

// InsertExerciseWithConflictDetection inserts a manually entered exercise
// session after checking it against nearby sessions of any source. Overlaps
// are filed with the ledger but never block the insert.
func (r *Reconciler) InsertExerciseWithConflictDetection(ctx context.Context, sess *model.ExerciseSession) ([]*model.ConflictRecord, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if sess.ID == "" {
		sess.ID = model.NewID()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}

	nearby, err := r.store.ExerciseByDateRange(ctx, sess.StartTime.Add(-manualWindow), sess.EndTime().Add(manualWindow))
	if err != nil {
		return nil, fmt.Errorf("loading nearby sessions: %w", err)
	}

	var conflicts []*model.ConflictRecord
	for _, ex := range nearby {
		if ex.ID == sess.ID || !ex.Interval().Overlaps(sess.Interval()) {
			continue
		}
		rec, err := r.fileExerciseConflictRecord(ctx, ex, sess)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, rec)
	}

	if err := r.store.InsertExercise(ctx, sess); err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return conflicts, nil
}

// fileSleepConflict files an overlap and flags both sessions. The existing
// record is updated in place; the incoming record is flagged before its
// insert.
func (r *Reconciler) fileSleepConflict(ctx context.Context, existing, incoming *model.SleepSession) error {
	_, err := r.fileSleepConflictRecord(ctx, existing, incoming)
	return err
}

func (r *Reconciler) fileSleepConflictRecord(ctx context.Context, existing, incoming *model.SleepSession) (*model.ConflictRecord, error) {
	rec := &model.ConflictRecord{
		Kind:          model.ConflictSleepOverlap,
		PrimaryID:     existing.ID,
		ConflictingID: incoming.ID,
		Details: fmt.Sprintf("sleep %s to %s (%s) overlaps %s to %s (%s)",
			existing.BedTime.Format(time.RFC3339), existing.WakeTime.Format(time.RFC3339), existing.Source,
			incoming.BedTime.Format(time.RFC3339), incoming.WakeTime.Format(time.RFC3339), incoming.Source),
	}
	if err := r.ledger.Log(ctx, rec); err != nil {
		return nil, fmt.Errorf("filing conflict: %w", err)
	}

	incoming.Conflicted = true
	if !existing.Conflicted {
		existing.Conflicted = true
		if err := r.store.UpdateSleep(ctx, existing); err != nil {
			return nil, fmt.Errorf("flagging session %s: %w", existing.ID, err)
		}
	}
	return rec, nil
}

func (r *Reconciler) fileExerciseConflict(ctx context.Context, existing, incoming *model.ExerciseSession) error {
	_, err := r.fileExerciseConflictRecord(ctx, existing, incoming)
	return err
}

func (r *Reconciler) fileExerciseConflictRecord(ctx context.Context, existing, incoming *model.ExerciseSession) (*model.ConflictRecord, error) {
	rec := &model.ConflictRecord{
		Kind:          model.ConflictExerciseOverlap,
		PrimaryID:     existing.ID,
		ConflictingID: incoming.ID,
		Details: fmt.Sprintf("%s %s to %s (%s) overlaps %s %s to %s (%s)",
			existing.Kind, existing.StartTime.Format(time.RFC3339), existing.EndTime().Format(time.RFC3339), existing.Source,
			incoming.Kind, incoming.StartTime.Format(time.RFC3339), incoming.EndTime().Format(time.RFC3339), incoming.Source),
	}
	if err := r.ledger.Log(ctx, rec); err != nil {
		return nil, fmt.Errorf("filing conflict: %w", err)
	}

	incoming.Conflicted = true
	if !existing.Conflicted {
		existing.Conflicted = true
		if err := r.store.UpdateExercise(ctx, existing); err != nil {
			return nil, fmt.Errorf("flagging session %s: %w", existing.ID, err)
		}
	}
	return rec, nil
}

// sleepDuplicate reports whether the store already holds a session with the
// same bed time, wake time, and source.
func sleepDuplicate(existing []*model.SleepSession, in *model.SleepSession) bool {
	for _, ex := range existing {
		if ex.Source == in.Source && ex.BedTime.Equal(in.BedTime) && ex.WakeTime.Equal(in.WakeTime) {
			return true
		}
	}
	return false
}

// exerciseDuplicate reports whether the store already holds a session with
// the same start time, kind, duration, and source.
func exerciseDuplicate(existing []*model.ExerciseSession, in *model.ExerciseSession) bool {
	for _, ex := range existing {
		if ex.Source == in.Source && ex.Kind == in.Kind &&
			ex.StartTime.Equal(in.StartTime) && ex.DurationMinutes == in.DurationMinutes {
			return true
		}
	}
	return false
}
