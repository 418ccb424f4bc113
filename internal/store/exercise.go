package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

const exerciseColumns = `id, exercise_kind, start_time, duration_minutes, intensity, calories, notes, source, created_at, conflicted`

// InsertExercise writes one exercise session, replacing any row with the
// same ID.
func (s *Store) InsertExercise(ctx context.Context, sess *model.ExerciseSession) error {
	const q = `
		INSERT OR REPLACE INTO exercise_sessions
		    (` + exerciseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, exerciseArgs(sess)...)
	if err != nil {
		return fmt.Errorf("inserting exercise session %s: %w", sess.ID, err)
	}
	return nil
}

// InsertExerciseBatch writes all sessions in one transaction.
func (s *Store) InsertExerciseBatch(ctx context.Context, sessions []*model.ExerciseSession) error {
	if len(sessions) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning exercise batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT OR REPLACE INTO exercise_sessions
		    (` + exerciseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, sess := range sessions {
		if _, err := tx.ExecContext(ctx, q, exerciseArgs(sess)...); err != nil {
			return fmt.Errorf("inserting exercise session %s: %w", sess.ID, err)
		}
	}
	return tx.Commit()
}

// UpdateExercise overwrites an existing session's fields by ID.
func (s *Store) UpdateExercise(ctx context.Context, sess *model.ExerciseSession) error {
	const q = `
		UPDATE exercise_sessions
		SET exercise_kind = ?, start_time = ?, duration_minutes = ?, intensity = ?,
		    calories = ?, notes = ?, source = ?, created_at = ?, conflicted = ?
		WHERE id = ?`
	args := append(exerciseArgs(sess)[1:], sess.ID)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("updating exercise session %s: %w", sess.ID, err)
	}
	return nil
}

// DeleteExercise removes the session with the given ID.
func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exercise_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting exercise session %s: %w", id, err)
	}
	return nil
}

// ExerciseByID returns the session with the given ID, or (nil, nil) if no
// such session exists.
func (s *Store) ExerciseByID(ctx context.Context, id string) (*model.ExerciseSession, error) {
	const q = `SELECT ` + exerciseColumns + ` FROM exercise_sessions WHERE id = ?`
	return scanExercise(s.db.QueryRowContext(ctx, q, id))
}

// AllExercise returns every exercise session, newest start time first.
func (s *Store) AllExercise(ctx context.Context) ([]*model.ExerciseSession, error) {
	const q = `SELECT ` + exerciseColumns + ` FROM exercise_sessions ORDER BY start_time DESC`
	return queryExercise(ctx, s.db, q)
}

// ExerciseByDateRange returns sessions whose start time falls within
// [start, end], newest first.
func (s *Store) ExerciseByDateRange(ctx context.Context, start, end time.Time) ([]*model.ExerciseSession, error) {
	const q = `
		SELECT ` + exerciseColumns + ` FROM exercise_sessions
		WHERE start_time BETWEEN ? AND ?
		ORDER BY start_time DESC`
	return queryExercise(ctx, s.db, q, formatTime(start), formatTime(end))
}

// ExerciseByKind returns sessions of one exercise kind, newest first.
func (s *Store) ExerciseByKind(ctx context.Context, kind model.ExerciseKind) ([]*model.ExerciseSession, error) {
	const q = `
		SELECT ` + exerciseColumns + ` FROM exercise_sessions
		WHERE exercise_kind = ?
		ORDER BY start_time DESC`
	return queryExercise(ctx, s.db, q, string(kind))
}

// ConflictedExercise returns sessions carrying the advisory conflicted flag.
func (s *Store) ConflictedExercise(ctx context.Context) ([]*model.ExerciseSession, error) {
	const q = `SELECT ` + exerciseColumns + ` FROM exercise_sessions WHERE conflicted = 1 ORDER BY start_time DESC`
	return queryExercise(ctx, s.db, q)
}

func exerciseArgs(sess *model.ExerciseSession) []any {
	var calories any
	if sess.Calories != nil {
		calories = *sess.Calories
	}
	return []any{
		sess.ID,
		string(sess.Kind),
		formatTime(sess.StartTime),
		sess.DurationMinutes,
		string(sess.Intensity),
		calories,
		sess.Notes,
		string(sess.Source),
		formatTime(sess.CreatedAt),
		sess.Conflicted,
	}
}

func queryExercise(ctx context.Context, db *sql.DB, q string, args ...any) ([]*model.ExerciseSession, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercise sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*model.ExerciseSession
	for rows.Next() {
		sess, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanExercise(sc scanner) (*model.ExerciseSession, error) {
	var sess model.ExerciseSession
	var start, created, kind, intensity, source string
	var calories sql.NullInt64

	err := sc.Scan(
		&sess.ID,
		&kind,
		&start,
		&sess.DurationMinutes,
		&intensity,
		&calories,
		&sess.Notes,
		&source,
		&created,
		&sess.Conflicted,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning exercise row: %w", err)
	}

	sess.Kind = model.ExerciseKind(kind)
	sess.Intensity = model.Intensity(intensity)
	sess.Source = model.Source(source)
	sess.StartTime, _ = parseTime(start)
	sess.CreatedAt, _ = parseTime(created)
	if calories.Valid {
		c := int(calories.Int64)
		sess.Calories = &c
	}

	return &sess, nil
}
