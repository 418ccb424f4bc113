package provider

import (
	"time"

	"github.com/willowtrack/healthrelay/internal/model"
)

// sessionsResponse is the JSON body exchanged on the sessions endpoints,
// both directions.
type sessionsResponse struct {
	Sessions []wireSession `json:"sessions"`
}

// wireSession is the provider's representation of a single session. Sleep
// and exercise share one shape; the per-kind fields are optional.
type wireSession struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// Sleep only.
	Quality int    `json:"quality,omitempty"`
	Notes   string `json:"notes,omitempty"`

	// Exercise only.
	TypeCode        int    `json:"type_code,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Intensity       string `json:"intensity,omitempty"`
	Calories        *int   `json:"calories,omitempty"`
}

// exerciseTypeCodes maps provider exercise type codes to local kinds.
// Codes outside the table decode as Other.
var exerciseTypeCodes = map[int]model.ExerciseKind{
	0: model.ExerciseOther,
	1: model.ExerciseWalking,
	2: model.ExerciseRunning,
	3: model.ExerciseCycling,
	4: model.ExerciseSwimming,
	5: model.ExerciseStrengthTraining,
	6: model.ExerciseYoga,
	7: model.ExerciseBasketball,
	8: model.ExerciseSoccer,
}

// exerciseKindCodes is the inverse of exerciseTypeCodes, built once at init.
var exerciseKindCodes = func() map[model.ExerciseKind]int {
	m := make(map[model.ExerciseKind]int, len(exerciseTypeCodes))
	for code, kind := range exerciseTypeCodes {
		m[kind] = code
	}
	return m
}()

// kindFromCode decodes a provider exercise type code, defaulting to Other.
func kindFromCode(code int) model.ExerciseKind {
	if kind, ok := exerciseTypeCodes[code]; ok {
		return kind
	}
	return model.ExerciseOther
}

// codeFromKind encodes a local exercise kind as a provider type code.
func codeFromKind(kind model.ExerciseKind) int {
	if code, ok := exerciseKindCodes[kind]; ok {
		return code
	}
	return 0
}

// wireToSleep converts a provider sleep record to a local session tagged
// with the adapter's source. Providers that do not track quality get the
// neutral default of 3.
func wireToSleep(w wireSession, source model.Source) *model.SleepSession {
	quality := w.Quality
	if quality < 1 || quality > 5 {
		quality = 3
	}
	return &model.SleepSession{
		ID:        recordID(w.ID),
		BedTime:   parseWireTime(w.StartTime),
		WakeTime:  parseWireTime(w.EndTime),
		Quality:   quality,
		Notes:     w.Notes,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// sleepToWire converts a local sleep session for upload.
func sleepToWire(s *model.SleepSession) wireSession {
	return wireSession{
		ID:        s.ID,
		StartTime: formatWireTime(s.BedTime),
		EndTime:   formatWireTime(s.WakeTime),
		Quality:   s.Quality,
		Notes:     s.Notes,
	}
}

// wireToExercise converts a provider exercise record to a local session.
// Missing duration is derived from the start/end pair; intensity defaults
// to moderate when the provider omits it.
func wireToExercise(w wireSession, source model.Source) *model.ExerciseSession {
	start := parseWireTime(w.StartTime)

	duration := w.DurationMinutes
	if duration == 0 && w.EndTime != "" {
		if end := parseWireTime(w.EndTime); end.After(start) {
			duration = int(end.Sub(start) / time.Minute)
		}
	}

	intensity, err := model.ParseIntensity(w.Intensity)
	if err != nil {
		intensity = model.IntensityModerate
	}

	return &model.ExerciseSession{
		ID:              recordID(w.ID),
		Kind:            kindFromCode(w.TypeCode),
		StartTime:       start,
		DurationMinutes: duration,
		Intensity:       intensity,
		Calories:        w.Calories,
		Notes:           w.Notes,
		Source:          source,
		CreatedAt:       time.Now().UTC(),
	}
}

// exerciseToWire converts a local exercise session for upload.
func exerciseToWire(s *model.ExerciseSession) wireSession {
	return wireSession{
		ID:              s.ID,
		StartTime:       formatWireTime(s.StartTime),
		EndTime:         formatWireTime(s.EndTime()),
		TypeCode:        codeFromKind(s.Kind),
		DurationMinutes: s.DurationMinutes,
		Intensity:       string(s.Intensity),
		Calories:        s.Calories,
		Notes:           s.Notes,
	}
}

// recordID keeps the provider's ID when present so re-imports land on the
// same row, and mints a fresh one otherwise.
func recordID(id string) string {
	if id != "" {
		return id
	}
	return model.NewID()
}

// parseWireTime decodes an RFC 3339 timestamp, returning the zero time on
// malformed input. Validation downstream rejects records with zero times.
func parseWireTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// formatWireTime encodes a timestamp for the provider.
func formatWireTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
