package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

const conflictColumns = `id, conflict_kind, primary_id, conflicting_id, details, resolved, resolution, created_at, resolved_at`

// InsertConflict writes one conflict record.
func (s *Store) InsertConflict(ctx context.Context, rec *model.ConflictRecord) error {
	const q = `
		INSERT INTO conflict_records
		    (` + conflictColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		string(rec.Kind),
		rec.PrimaryID,
		rec.ConflictingID,
		rec.Details,
		rec.Resolved,
		string(rec.Resolution),
		formatTime(rec.CreatedAt),
		formatTime(rec.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting conflict record %s: %w", rec.ID, err)
	}
	return nil
}

// UpdateConflict overwrites an existing conflict record's fields by ID.
func (s *Store) UpdateConflict(ctx context.Context, rec *model.ConflictRecord) error {
	const q = `
		UPDATE conflict_records
		SET conflict_kind = ?, primary_id = ?, conflicting_id = ?, details = ?,
		    resolved = ?, resolution = ?, created_at = ?, resolved_at = ?
		WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q,
		string(rec.Kind),
		rec.PrimaryID,
		rec.ConflictingID,
		rec.Details,
		rec.Resolved,
		string(rec.Resolution),
		formatTime(rec.CreatedAt),
		formatTime(rec.ResolvedAt),
		rec.ID,
	); err != nil {
		return fmt.Errorf("updating conflict record %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteConflict removes the conflict record with the given ID.
func (s *Store) DeleteConflict(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conflict_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting conflict record %s: %w", id, err)
	}
	return nil
}

// ConflictByID returns the conflict record with the given ID, or (nil, nil)
// if no such record exists.
func (s *Store) ConflictByID(ctx context.Context, id string) (*model.ConflictRecord, error) {
	const q = `SELECT ` + conflictColumns + ` FROM conflict_records WHERE id = ?`
	return scanConflict(s.db.QueryRowContext(ctx, q, id))
}

// AllConflicts returns every conflict record, newest first.
func (s *Store) AllConflicts(ctx context.Context) ([]*model.ConflictRecord, error) {
	const q = `SELECT ` + conflictColumns + ` FROM conflict_records ORDER BY created_at DESC`
	return queryConflicts(ctx, s.db, q)
}

// UnresolvedConflicts returns conflict records awaiting resolution, newest
// first.
func (s *Store) UnresolvedConflicts(ctx context.Context) ([]*model.ConflictRecord, error) {
	const q = `
		SELECT ` + conflictColumns + ` FROM conflict_records
		WHERE resolved = 0
		ORDER BY created_at DESC`
	return queryConflicts(ctx, s.db, q)
}

// ResolveConflict marks the record resolved with the given outcome. Calling
// it on an already-resolved record overwrites the prior resolution.
func (s *Store) ResolveConflict(ctx context.Context, id string, resolution model.Resolution, resolvedAt time.Time) error {
	const q = `
		UPDATE conflict_records
		SET resolved = 1, resolution = ?, resolved_at = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, string(resolution), formatTime(resolvedAt), id)
	if err != nil {
		return fmt.Errorf("resolving conflict %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("resolving conflict %s: no such record", id)
	}
	return nil
}

func queryConflicts(ctx context.Context, db *sql.DB, q string, args ...any) ([]*model.ConflictRecord, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conflict records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*model.ConflictRecord
	for rows.Next() {
		rec, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanConflict(sc scanner) (*model.ConflictRecord, error) {
	var rec model.ConflictRecord
	var kind, resolution, created, resolved string

	err := sc.Scan(
		&rec.ID,
		&kind,
		&rec.PrimaryID,
		&rec.ConflictingID,
		&rec.Details,
		&rec.Resolved,
		&resolution,
		&created,
		&resolved,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conflict row: %w", err)
	}

	rec.Kind = model.ConflictKind(kind)
	rec.Resolution = model.Resolution(resolution)
	rec.CreatedAt, _ = parseTime(created)
	rec.ResolvedAt, _ = parseTime(resolved)

	return &rec, nil
}
