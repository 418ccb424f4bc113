package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

const sleepColumns = `id, bed_time, wake_time, quality, notes, source, created_at, conflicted`

// InsertSleep writes one sleep session, replacing any row with the same ID.
func (s *Store) InsertSleep(ctx context.Context, sess *model.SleepSession) error {
	const q = `
		INSERT OR REPLACE INTO sleep_sessions
		    (` + sleepColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		sess.ID,
		formatTime(sess.BedTime),
		formatTime(sess.WakeTime),
		sess.Quality,
		sess.Notes,
		string(sess.Source),
		formatTime(sess.CreatedAt),
		sess.Conflicted,
	)
	if err != nil {
		return fmt.Errorf("inserting sleep session %s: %w", sess.ID, err)
	}
	return nil
}

// InsertSleepBatch writes all sessions in one transaction.
func (s *Store) InsertSleepBatch(ctx context.Context, sessions []*model.SleepSession) error {
	if len(sessions) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning sleep batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT OR REPLACE INTO sleep_sessions
		    (` + sleepColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, sess := range sessions {
		if _, err := tx.ExecContext(ctx, q,
			sess.ID,
			formatTime(sess.BedTime),
			formatTime(sess.WakeTime),
			sess.Quality,
			sess.Notes,
			string(sess.Source),
			formatTime(sess.CreatedAt),
			sess.Conflicted,
		); err != nil {
			return fmt.Errorf("inserting sleep session %s: %w", sess.ID, err)
		}
	}
	return tx.Commit()
}

// UpdateSleep overwrites an existing session's fields by ID.
func (s *Store) UpdateSleep(ctx context.Context, sess *model.SleepSession) error {
	const q = `
		UPDATE sleep_sessions
		SET bed_time = ?, wake_time = ?, quality = ?, notes = ?, source = ?, created_at = ?, conflicted = ?
		WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q,
		formatTime(sess.BedTime),
		formatTime(sess.WakeTime),
		sess.Quality,
		sess.Notes,
		string(sess.Source),
		formatTime(sess.CreatedAt),
		sess.Conflicted,
		sess.ID,
	); err != nil {
		return fmt.Errorf("updating sleep session %s: %w", sess.ID, err)
	}
	return nil
}

// DeleteSleep removes the session with the given ID.
func (s *Store) DeleteSleep(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sleep_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting sleep session %s: %w", id, err)
	}
	return nil
}

// SleepByID returns the session with the given ID, or (nil, nil) if no such
// session exists.
func (s *Store) SleepByID(ctx context.Context, id string) (*model.SleepSession, error) {
	const q = `SELECT ` + sleepColumns + ` FROM sleep_sessions WHERE id = ?`
	return scanSleep(s.db.QueryRowContext(ctx, q, id))
}

// AllSleep returns every sleep session, newest bed time first.
func (s *Store) AllSleep(ctx context.Context) ([]*model.SleepSession, error) {
	const q = `SELECT ` + sleepColumns + ` FROM sleep_sessions ORDER BY bed_time DESC`
	return querySleep(ctx, s.db, q)
}

// SleepByDateRange returns sessions whose bed time falls within [start, end],
// newest first.
func (s *Store) SleepByDateRange(ctx context.Context, start, end time.Time) ([]*model.SleepSession, error) {
	const q = `
		SELECT ` + sleepColumns + ` FROM sleep_sessions
		WHERE bed_time BETWEEN ? AND ?
		ORDER BY bed_time DESC`
	return querySleep(ctx, s.db, q, formatTime(start), formatTime(end))
}

// ConflictedSleep returns sessions carrying the advisory conflicted flag.
func (s *Store) ConflictedSleep(ctx context.Context) ([]*model.SleepSession, error) {
	const q = `SELECT ` + sleepColumns + ` FROM sleep_sessions WHERE conflicted = 1 ORDER BY bed_time DESC`
	return querySleep(ctx, s.db, q)
}

func querySleep(ctx context.Context, db *sql.DB, q string, args ...any) ([]*model.SleepSession, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sleep sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*model.SleepSession
	for rows.Next() {
		sess, err := scanSleep(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanSleep(sc scanner) (*model.SleepSession, error) {
	var sess model.SleepSession
	var bed, wake, created, source string

	err := sc.Scan(
		&sess.ID,
		&bed,
		&wake,
		&sess.Quality,
		&sess.Notes,
		&source,
		&created,
		&sess.Conflicted,
	)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // intentional: "not found" sentinel
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sleep row: %w", err)
	}

	sess.Source = model.Source(source)
	sess.BedTime, _ = parseTime(bed)
	sess.WakeTime, _ = parseTime(wake)
	sess.CreatedAt, _ = parseTime(created)

	return &sess, nil
}
