// Package ledger owns the conflict record lifecycle: creation at detection
// time, listing for the UI surfaces, and the one-way unresolved → resolved
// transition. Conflict records are created only here; deletion is a plain
// store operation outside the lifecycle.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

// ConflictStore is the subset of the record store the ledger needs.
// Implemented by [store.Store].
type ConflictStore interface {
	InsertConflict(ctx context.Context, rec *model.ConflictRecord) error
	DeleteConflict(ctx context.Context, id string) error
	ConflictByID(ctx context.Context, id string) (*model.ConflictRecord, error)
	AllConflicts(ctx context.Context) ([]*model.ConflictRecord, error)
	UnresolvedConflicts(ctx context.Context) ([]*model.ConflictRecord, error)
	ResolveConflict(ctx context.Context, id string, resolution model.Resolution, resolvedAt time.Time) error
}

// Ledger is the conflict lifecycle owner.
type Ledger struct {
	store ConflictStore
	log   *slog.Logger
}

// New creates a Ledger backed by the given store.
func New(store ConflictStore, logger *slog.Logger) *Ledger {
	return &Ledger{store: store, log: logger}
}

// Log persists a newly detected conflict. A missing ID or CreatedAt is
// filled in; the record starts unresolved.
func (l *Ledger) Log(ctx context.Context, rec *model.ConflictRecord) error {
	if rec.ID == "" {
		rec.ID = model.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Resolved = false

	if err := l.store.InsertConflict(ctx, rec); err != nil {
		return fmt.Errorf("logging conflict: %w", err)
	}
	l.log.Info("conflict recorded",
		"kind", rec.Kind,
		"primary", rec.PrimaryID,
		"conflicting", rec.ConflictingID,
	)
	return nil
}

// All returns every conflict record, newest first.
func (l *Ledger) All(ctx context.Context) ([]*model.ConflictRecord, error) {
	return l.store.AllConflicts(ctx)
}

// Unresolved returns conflict records awaiting a user decision, newest first.
func (l *Ledger) Unresolved(ctx context.Context) ([]*model.ConflictRecord, error) {
	return l.store.UnresolvedConflicts(ctx)
}

// ByID returns one conflict record, or (nil, nil) when absent.
func (l *Ledger) ByID(ctx context.Context, id string) (*model.ConflictRecord, error) {
	return l.store.ConflictByID(ctx, id)
}

// Resolve applies the user-chosen outcome. Resolving an already-resolved
// conflict overwrites the prior resolution and timestamp.
func (l *Ledger) Resolve(ctx context.Context, id string, resolution model.Resolution, resolvedAt time.Time) error {
	if err := l.store.ResolveConflict(ctx, id, resolution, resolvedAt); err != nil {
		return err
	}
	l.log.Info("conflict resolved", "id", id, "resolution", resolution)
	return nil
}

// Delete removes a conflict record. This is a store passthrough, not part of
// the resolution state machine.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	return l.store.DeleteConflict(ctx, id)
}
