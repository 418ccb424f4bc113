// Package model defines the shared record types used across the store,
// provider adapter, and reconciliation engine: sleep and exercise sessions,
// their provenance tags, and the conflict records that link them.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordKind distinguishes the two session tables.
type RecordKind string

const (
	KindSleep    RecordKind = "sleep"
	KindExercise RecordKind = "exercise"
)

// Source tags where a record originated. Manual entries come from the CLI;
// the provider tags identify which external health platform produced a
// record during import.
type Source string

const (
	SourceManual        Source = "manual"
	SourceGoogleHealth  Source = "google_health"
	SourceSamsungHealth Source = "samsung_health"
	SourceGarmin        Source = "garmin"
)

// ProviderSources lists the sources that identify an external provider.
var ProviderSources = []Source{SourceGoogleHealth, SourceSamsungHealth, SourceGarmin}

// ParseSource validates a source string from config or CLI input.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceManual, SourceGoogleHealth, SourceSamsungHealth, SourceGarmin:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// ExerciseKind is the closed set of supported exercise types.
type ExerciseKind string

const (
	ExerciseWalking          ExerciseKind = "walking"
	ExerciseRunning          ExerciseKind = "running"
	ExerciseCycling          ExerciseKind = "cycling"
	ExerciseSwimming         ExerciseKind = "swimming"
	ExerciseStrengthTraining ExerciseKind = "strength_training"
	ExerciseYoga             ExerciseKind = "yoga"
	ExerciseBasketball       ExerciseKind = "basketball"
	ExerciseSoccer           ExerciseKind = "soccer"
	ExerciseOther            ExerciseKind = "other"
)

// ParseExerciseKind validates an exercise kind string from CLI input.
// Unknown values are an error here, not a fallback — the Other fallback is
// reserved for unmapped provider type codes.
func ParseExerciseKind(s string) (ExerciseKind, error) {
	switch ExerciseKind(s) {
	case ExerciseWalking, ExerciseRunning, ExerciseCycling, ExerciseSwimming,
		ExerciseStrengthTraining, ExerciseYoga, ExerciseBasketball,
		ExerciseSoccer, ExerciseOther:
		return ExerciseKind(s), nil
	}
	return "", fmt.Errorf("unknown exercise kind %q", s)
}

// Intensity is the subjective effort level of an exercise session.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
	IntensityVeryHigh Intensity = "very_high"
)

// ParseIntensity validates an intensity string from CLI input.
func ParseIntensity(s string) (Intensity, error) {
	switch Intensity(s) {
	case IntensityLow, IntensityModerate, IntensityHigh, IntensityVeryHigh:
		return Intensity(s), nil
	}
	return "", fmt.Errorf("unknown intensity %q", s)
}

// SleepSession is one night (or nap) of recorded sleep.
type SleepSession struct {
	ID      string
	BedTime time.Time
	// WakeTime must be strictly after BedTime.
	WakeTime time.Time
	// Quality is the 1-5 rating. Imported records default to 3 because the
	// provider wire format carries no quality field.
	Quality   int
	Notes     string
	Source    Source
	CreatedAt time.Time
	// Conflicted is advisory: set when the record participated in a
	// detected overlap. It never blocks anything.
	Conflicted bool
}

// Validate checks the session invariants before insertion.
func (s *SleepSession) Validate() error {
	if !s.WakeTime.After(s.BedTime) {
		return fmt.Errorf("wake time %s is not after bed time %s", s.WakeTime.Format(time.RFC3339), s.BedTime.Format(time.RFC3339))
	}
	if s.Quality < 1 || s.Quality > 5 {
		return fmt.Errorf("quality rating %d out of range 1-5", s.Quality)
	}
	return nil
}

// Interval returns the session's time span for overlap testing.
func (s *SleepSession) Interval() Interval {
	return Interval{Start: s.BedTime, End: s.WakeTime}
}

// ExerciseSession is one recorded workout.
type ExerciseSession struct {
	ID        string
	Kind      ExerciseKind
	StartTime time.Time
	// DurationMinutes must be positive.
	DurationMinutes int
	Intensity       Intensity
	// Calories is optional; nil means unknown.
	Calories   *int
	Notes      string
	Source     Source
	CreatedAt  time.Time
	Conflicted bool
}

// EndTime is derived from the start time and duration.
func (e *ExerciseSession) EndTime() time.Time {
	return e.StartTime.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Validate checks the session invariants before insertion.
func (e *ExerciseSession) Validate() error {
	if e.DurationMinutes <= 0 {
		return fmt.Errorf("duration %d minutes must be positive", e.DurationMinutes)
	}
	if e.Calories != nil && *e.Calories < 0 {
		return fmt.Errorf("calories %d must not be negative", *e.Calories)
	}
	return nil
}

// Interval returns the session's time span for overlap testing.
func (e *ExerciseSession) Interval() Interval {
	return Interval{Start: e.StartTime, End: e.EndTime()}
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}
