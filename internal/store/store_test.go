package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-records.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleSleep(id string, bed time.Time) *model.SleepSession {
	return &model.SleepSession{
		ID:        id,
		BedTime:   bed,
		WakeTime:  bed.Add(8 * time.Hour),
		Quality:   4,
		Notes:     "slept well",
		Source:    model.SourceManual,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func sampleExercise(id string, start time.Time) *model.ExerciseSession {
	calories := 320
	return &model.ExerciseSession{
		ID:              id,
		Kind:            model.ExerciseRunning,
		StartTime:       start,
		DurationMinutes: 45,
		Intensity:       model.IntensityHigh,
		Calories:        &calories,
		Source:          model.SourceManual,
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	s := openTestStore(t)
	empty, err := s.IsEmpty(context.Background())
	if err != nil {
		t.Fatalf("IsEmpty after open: %v", err)
	}
	if !empty {
		t.Error("expected empty store after open")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s1.InsertSleep(context.Background(), sampleSleep("s1", time.Now().UTC())); err != nil {
		t.Fatalf("InsertSleep: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("s1.Close: %v", err)
	}

	// Re-opening the same file must not fail or wipe data.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer func() { _ = s2.Close() }()

	got, err := s2.SleepByID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("SleepByID: %v", err)
	}
	if got == nil {
		t.Fatal("session lost across reopen")
	}
}

func TestSleep_InsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	bed := time.Date(2026, 3, 13, 22, 0, 0, 0, time.UTC)

	sess := sampleSleep("sleep-1", bed)
	if err := s.InsertSleep(ctx, sess); err != nil {
		t.Fatalf("InsertSleep: %v", err)
	}

	got, err := s.SleepByID(ctx, "sleep-1")
	if err != nil {
		t.Fatalf("SleepByID: %v", err)
	}
	if got == nil {
		t.Fatal("SleepByID returned nil, want session")
	}
	if !got.BedTime.Equal(bed) {
		t.Errorf("BedTime = %v, want %v", got.BedTime, bed)
	}
	if got.Quality != 4 {
		t.Errorf("Quality = %d, want 4", got.Quality)
	}
	if got.Source != model.SourceManual {
		t.Errorf("Source = %q, want %q", got.Source, model.SourceManual)
	}

	missing, err := s.SleepByID(ctx, "nope")
	if err != nil {
		t.Fatalf("SleepByID(missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing session")
	}
}

func TestSleep_ByDateRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)

	var batch []*model.SleepSession
	for i := 0; i < 5; i++ {
		batch = append(batch, sampleSleep(string(rune('a'+i)), base.AddDate(0, 0, i)))
	}
	if err := s.InsertSleepBatch(ctx, batch); err != nil {
		t.Fatalf("InsertSleepBatch: %v", err)
	}

	got, err := s.SleepByDateRange(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("SleepByDateRange: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d sessions in range, want 3", len(got))
	}
	// Newest first.
	if got[0].BedTime.Before(got[1].BedTime) {
		t.Error("range result not ordered newest first")
	}
}

func TestSleep_UpdateAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := sampleSleep("sleep-1", time.Date(2026, 3, 13, 22, 0, 0, 0, time.UTC))
	if err := s.InsertSleep(ctx, sess); err != nil {
		t.Fatalf("InsertSleep: %v", err)
	}

	sess.Conflicted = true
	sess.Notes = "overlaps tracker data"
	if err := s.UpdateSleep(ctx, sess); err != nil {
		t.Fatalf("UpdateSleep: %v", err)
	}

	flagged, err := s.ConflictedSleep(ctx)
	if err != nil {
		t.Fatalf("ConflictedSleep: %v", err)
	}
	if len(flagged) != 1 || flagged[0].ID != "sleep-1" {
		t.Fatalf("ConflictedSleep = %v, want [sleep-1]", flagged)
	}

	if err := s.DeleteSleep(ctx, "sleep-1"); err != nil {
		t.Fatalf("DeleteSleep: %v", err)
	}
	got, err := s.SleepByID(ctx, "sleep-1")
	if err != nil {
		t.Fatalf("SleepByID after delete: %v", err)
	}
	if got != nil {
		t.Error("session still present after delete")
	}
}

func TestExercise_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	sess := sampleExercise("ex-1", start)
	if err := s.InsertExercise(ctx, sess); err != nil {
		t.Fatalf("InsertExercise: %v", err)
	}

	got, err := s.ExerciseByID(ctx, "ex-1")
	if err != nil {
		t.Fatalf("ExerciseByID: %v", err)
	}
	if got == nil {
		t.Fatal("ExerciseByID returned nil")
	}
	if got.Kind != model.ExerciseRunning {
		t.Errorf("Kind = %q, want running", got.Kind)
	}
	if got.Calories == nil || *got.Calories != 320 {
		t.Errorf("Calories = %v, want 320", got.Calories)
	}
	if !got.StartTime.Equal(start) {
		t.Errorf("StartTime = %v, want %v", got.StartTime, start)
	}
}

func TestExercise_NilCalories(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess := sampleExercise("ex-1", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	sess.Calories = nil
	if err := s.InsertExercise(ctx, sess); err != nil {
		t.Fatalf("InsertExercise: %v", err)
	}

	got, err := s.ExerciseByID(ctx, "ex-1")
	if err != nil {
		t.Fatalf("ExerciseByID: %v", err)
	}
	if got.Calories != nil {
		t.Errorf("Calories = %v, want nil", got.Calories)
	}
}

func TestExercise_ByKind(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	run := sampleExercise("ex-1", start)
	yoga := sampleExercise("ex-2", start.Add(2*time.Hour))
	yoga.Kind = model.ExerciseYoga
	if err := s.InsertExerciseBatch(ctx, []*model.ExerciseSession{run, yoga}); err != nil {
		t.Fatalf("InsertExerciseBatch: %v", err)
	}

	got, err := s.ExerciseByKind(ctx, model.ExerciseYoga)
	if err != nil {
		t.Fatalf("ExerciseByKind: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ex-2" {
		t.Fatalf("ExerciseByKind = %v, want [ex-2]", got)
	}
}

func TestConflict_LifecycleQueries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	first := &model.ConflictRecord{
		ID:            "c-1",
		Kind:          model.ConflictSleepOverlap,
		PrimaryID:     "sleep-1",
		ConflictingID: "sleep-2",
		Details:       "Sleep time overlap detected",
		CreatedAt:     now,
	}
	second := &model.ConflictRecord{
		ID:            "c-2",
		Kind:          model.ConflictExerciseOverlap,
		PrimaryID:     "ex-1",
		ConflictingID: "ex-2",
		Details:       "Exercise time overlap detected",
		CreatedAt:     now.Add(time.Minute),
	}
	if err := s.InsertConflict(ctx, first); err != nil {
		t.Fatalf("InsertConflict: %v", err)
	}
	if err := s.InsertConflict(ctx, second); err != nil {
		t.Fatalf("InsertConflict: %v", err)
	}

	all, err := s.AllConflicts(ctx)
	if err != nil {
		t.Fatalf("AllConflicts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("AllConflicts = %d records, want 2", len(all))
	}
	if all[0].ID != "c-2" {
		t.Errorf("AllConflicts[0] = %s, want c-2 (newest first)", all[0].ID)
	}

	resolvedAt := now.Add(time.Hour)
	if err := s.ResolveConflict(ctx, "c-1", model.ResolveKeepManual, resolvedAt); err != nil {
		t.Fatalf("ResolveConflict: %v", err)
	}

	unresolved, err := s.UnresolvedConflicts(ctx)
	if err != nil {
		t.Fatalf("UnresolvedConflicts: %v", err)
	}
	if len(unresolved) != 1 || unresolved[0].ID != "c-2" {
		t.Fatalf("UnresolvedConflicts = %v, want [c-2]", unresolved)
	}

	got, err := s.ConflictByID(ctx, "c-1")
	if err != nil {
		t.Fatalf("ConflictByID: %v", err)
	}
	if !got.Resolved {
		t.Error("c-1 should be resolved")
	}
	if got.Resolution != model.ResolveKeepManual {
		t.Errorf("Resolution = %q, want keep_manual", got.Resolution)
	}
	if !got.ResolvedAt.Equal(resolvedAt) {
		t.Errorf("ResolvedAt = %v, want %v", got.ResolvedAt, resolvedAt)
	}
}

func TestResolveConflict_MissingRecord(t *testing.T) {
	s := openTestStore(t)
	err := s.ResolveConflict(context.Background(), "nope", model.ResolveMergeData, time.Now().UTC())
	if err == nil {
		t.Error("expected error resolving missing conflict")
	}
}

func TestConflict_UpdateAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &model.ConflictRecord{
		ID:            "c-1",
		Kind:          model.ConflictDataMismatch,
		PrimaryID:     "sleep-1",
		ConflictingID: "sleep-2",
		Details:       "Quality ratings differ",
		CreatedAt:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	if err := s.InsertConflict(ctx, rec); err != nil {
		t.Fatalf("InsertConflict: %v", err)
	}

	rec.Details = "Quality ratings differ (3 vs 5)"
	if err := s.UpdateConflict(ctx, rec); err != nil {
		t.Fatalf("UpdateConflict: %v", err)
	}
	got, err := s.ConflictByID(ctx, "c-1")
	if err != nil {
		t.Fatalf("ConflictByID: %v", err)
	}
	if got.Details != "Quality ratings differ (3 vs 5)" {
		t.Errorf("Details = %q after update", got.Details)
	}

	if err := s.DeleteConflict(ctx, "c-1"); err != nil {
		t.Fatalf("DeleteConflict: %v", err)
	}
	got, err = s.ConflictByID(ctx, "c-1")
	if err != nil {
		t.Fatalf("ConflictByID after delete: %v", err)
	}
	if got != nil {
		t.Error("conflict still present after delete")
	}
}
