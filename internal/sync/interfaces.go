// Package sync implements the conflict-aware reconciliation engine for
// HealthRelay. It imports sleep and exercise sessions from an external
// health-data provider, exports locally created sessions back, detects
// duplicates and overlapping intervals, and files every detected conflict
// with the ledger.
//
// The package contains three main components:
//
//   - [Reconciler] performs the individual import, export, and manual-entry
//     operations.
//   - [Engine] wraps the reconciler with telemetry and runs the polling loop.
//   - [Bootstrap] handles the first-run backfill when the local database is
//     empty.
package sync

import (
	"context"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

// RecordStore provides access to the local session database.
// Implemented by [store.Store].
type RecordStore interface {
	InsertSleep(ctx context.Context, sess *model.SleepSession) error
	InsertSleepBatch(ctx context.Context, sessions []*model.SleepSession) error
	UpdateSleep(ctx context.Context, sess *model.SleepSession) error
	AllSleep(ctx context.Context) ([]*model.SleepSession, error)
	SleepByDateRange(ctx context.Context, start, end time.Time) ([]*model.SleepSession, error)

	InsertExercise(ctx context.Context, sess *model.ExerciseSession) error
	InsertExerciseBatch(ctx context.Context, sessions []*model.ExerciseSession) error
	UpdateExercise(ctx context.Context, sess *model.ExerciseSession) error
	AllExercise(ctx context.Context) ([]*model.ExerciseSession, error)
	ExerciseByDateRange(ctx context.Context, start, end time.Time) ([]*model.ExerciseSession, error)

	IsEmpty(ctx context.Context) (bool, error)
}

// ConflictLedger files detected conflicts. Implemented by [ledger.Ledger].
type ConflictLedger interface {
	Log(ctx context.Context, rec *model.ConflictRecord) error
}

// ProviderSource provides read/write access to an external health-data
// platform. Implemented by [provider.Adapter].
type ProviderSource interface {
	Source() model.Source
	AvailabilityStatus(ctx context.Context) (model.Availability, error)
	HasAllPermissions(ctx context.Context) (bool, error)
	ReadSleep(ctx context.Context, start, end time.Time) ([]*model.SleepSession, error)
	ReadExercise(ctx context.Context, start, end time.Time) ([]*model.ExerciseSession, error)
	WriteSleep(ctx context.Context, sessions []*model.SleepSession) error
	WriteExercise(ctx context.Context, sessions []*model.ExerciseSession) error
}
