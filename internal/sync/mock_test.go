package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

// --- Mock Record Store -------------------------------------------------------

type mockStore struct {
	mu       sync.Mutex
	sleep    map[string]*model.SleepSession
	exercise map[string]*model.ExerciseSession

	failInsert bool
}

func newMockStore() *mockStore {
	return &mockStore{
		sleep:    make(map[string]*model.SleepSession),
		exercise: make(map[string]*model.ExerciseSession),
	}
}

func (m *mockStore) seedSleep(sessions ...*model.SleepSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		cp := *s
		m.sleep[s.ID] = &cp
	}
}

func (m *mockStore) seedExercise(sessions ...*model.ExerciseSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range sessions {
		cp := *s
		m.exercise[s.ID] = &cp
	}
}

func (m *mockStore) InsertSleep(_ context.Context, sess *model.SleepSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert {
		return fmt.Errorf("database is locked")
	}
	cp := *sess
	m.sleep[sess.ID] = &cp
	return nil
}

func (m *mockStore) InsertSleepBatch(ctx context.Context, sessions []*model.SleepSession) error {
	for _, s := range sessions {
		if err := m.InsertSleep(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) UpdateSleep(_ context.Context, sess *model.SleepSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sleep[sess.ID]; !ok {
		return fmt.Errorf("sleep session %q not found", sess.ID)
	}
	cp := *sess
	m.sleep[sess.ID] = &cp
	return nil
}

func (m *mockStore) AllSleep(_ context.Context) ([]*model.SleepSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.SleepSession
	for _, s := range m.sleep {
		cp := *s
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockStore) SleepByDateRange(_ context.Context, start, end time.Time) ([]*model.SleepSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.SleepSession
	for _, s := range m.sleep {
		if !s.BedTime.Before(start) && !s.BedTime.After(end) {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockStore) InsertExercise(_ context.Context, sess *model.ExerciseSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert {
		return fmt.Errorf("database is locked")
	}
	cp := *sess
	m.exercise[sess.ID] = &cp
	return nil
}

func (m *mockStore) InsertExerciseBatch(ctx context.Context, sessions []*model.ExerciseSession) error {
	for _, s := range sessions {
		if err := m.InsertExercise(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockStore) UpdateExercise(_ context.Context, sess *model.ExerciseSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exercise[sess.ID]; !ok {
		return fmt.Errorf("exercise session %q not found", sess.ID)
	}
	cp := *sess
	m.exercise[sess.ID] = &cp
	return nil
}

func (m *mockStore) AllExercise(_ context.Context) ([]*model.ExerciseSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.ExerciseSession
	for _, s := range m.exercise {
		cp := *s
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockStore) ExerciseByDateRange(_ context.Context, start, end time.Time) ([]*model.ExerciseSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*model.ExerciseSession
	for _, s := range m.exercise {
		if !s.StartTime.Before(start) && !s.StartTime.After(end) {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockStore) IsEmpty(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sleep)+len(m.exercise) == 0, nil
}

func (m *mockStore) sleepByID(id string) *model.SleepSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sleep[id]
}

func (m *mockStore) exerciseByID(id string) *model.ExerciseSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exercise[id]
}

func (m *mockStore) sleepCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sleep)
}

func (m *mockStore) exerciseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.exercise)
}

// --- Mock Conflict Ledger ----------------------------------------------------

type mockLedger struct {
	mu      sync.Mutex
	records []*model.ConflictRecord
	failLog bool
}

func newMockLedger() *mockLedger {
	return &mockLedger{}
}

func (m *mockLedger) Log(_ context.Context, rec *model.ConflictRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLog {
		return fmt.Errorf("database is locked")
	}
	if rec.ID == "" {
		rec.ID = model.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *mockLedger) all() []*model.ConflictRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*model.ConflictRecord, len(m.records))
	copy(result, m.records)
	return result
}

// --- Mock Provider -----------------------------------------------------------

type mockProvider struct {
	mu     sync.Mutex
	source model.Source
	status model.Availability
	// granted defaults to true; tests flip it to exercise the guard.
	granted bool

	sleep    []*model.SleepSession
	exercise []*model.ExerciseSession

	wroteSleep    []*model.SleepSession
	wroteExercise []*model.ExerciseSession

	failReadSleep  bool
	failWriteSleep bool
}

func newMockProvider(source model.Source) *mockProvider {
	return &mockProvider{
		source:  source,
		status:  model.AvailabilityAvailable,
		granted: true,
	}
}

func (m *mockProvider) Source() model.Source {
	return m.source
}

func (m *mockProvider) AvailabilityStatus(_ context.Context) (model.Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, nil
}

func (m *mockProvider) HasAllPermissions(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.granted, nil
}

func (m *mockProvider) ReadSleep(_ context.Context, _, _ time.Time) ([]*model.SleepSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReadSleep {
		return nil, fmt.Errorf("connection refused")
	}
	result := make([]*model.SleepSession, len(m.sleep))
	for i, s := range m.sleep {
		cp := *s
		result[i] = &cp
	}
	return result, nil
}

func (m *mockProvider) ReadExercise(_ context.Context, _, _ time.Time) ([]*model.ExerciseSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*model.ExerciseSession, len(m.exercise))
	for i, s := range m.exercise {
		cp := *s
		result[i] = &cp
	}
	return result, nil
}

func (m *mockProvider) WriteSleep(_ context.Context, sessions []*model.SleepSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWriteSleep {
		return fmt.Errorf("connection refused")
	}
	m.wroteSleep = append(m.wroteSleep, sessions...)
	return nil
}

func (m *mockProvider) WriteExercise(_ context.Context, sessions []*model.ExerciseSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wroteExercise = append(m.wroteExercise, sessions...)
	return nil
}

func (m *mockProvider) writtenSleep() []*model.SleepSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*model.SleepSession, len(m.wroteSleep))
	copy(result, m.wroteSleep)
	return result
}

func (m *mockProvider) writtenExercise() []*model.ExerciseSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*model.ExerciseSession, len(m.wroteExercise))
	copy(result, m.wroteExercise)
	return result
}
