package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the provider states the engine must distinguish.
// Anything else coming out of a store or provider call is a transport
// error and is converted to a failed outcome at the operation boundary.
var (
	ErrPermissionDenied       = errors.New("permissions not granted")
	ErrProviderUnavailable    = errors.New("health data provider unavailable")
	ErrProviderUpdateRequired = errors.New("health data provider requires an update")
	ErrWriteUnsupported       = errors.New("provider does not support writing records")
)

// Availability is the provider's reported platform state.
type Availability string

const (
	AvailabilityAvailable      Availability = "available"
	AvailabilityUnavailable    Availability = "unavailable"
	AvailabilityUpdateRequired Availability = "update_required"
	AvailabilityUnknown        Availability = "unknown"
)

// ConflictKind classifies what a ConflictRecord describes.
type ConflictKind string

const (
	ConflictSleepOverlap    ConflictKind = "sleep_overlap"
	ConflictExerciseOverlap ConflictKind = "exercise_overlap"
	ConflictDuplicateEntry  ConflictKind = "duplicate_entry"
	ConflictDataMismatch    ConflictKind = "data_mismatch"
)

// Resolution is the user-chosen outcome for a resolved conflict.
type Resolution string

const (
	ResolveKeepManual        Resolution = "keep_manual"
	ResolveKeepGoogleHealth  Resolution = "keep_google_health"
	ResolveKeepSamsungHealth Resolution = "keep_samsung_health"
	ResolveKeepGarmin        Resolution = "keep_garmin"
	ResolveMergeData         Resolution = "merge_data"
	ResolveDeleteDuplicate   Resolution = "delete_duplicate"
)

// ParseResolution validates a resolution string from CLI input.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case ResolveKeepManual, ResolveKeepGoogleHealth, ResolveKeepSamsungHealth,
		ResolveKeepGarmin, ResolveMergeData, ResolveDeleteDuplicate:
		return Resolution(s), nil
	}
	return "", fmt.Errorf("unknown resolution %q", s)
}

// ConflictRecord describes one detected condition between two records. The
// record references are kind-agnostic IDs into the session tables; Details
// is built at detection time and frozen.
type ConflictRecord struct {
	ID            string
	Kind          ConflictKind
	PrimaryID     string
	ConflictingID string
	Details       string
	Resolved      bool
	// Resolution is empty until the conflict is resolved.
	Resolution Resolution
	CreatedAt  time.Time
	// ResolvedAt is zero until the conflict is resolved.
	ResolvedAt time.Time
}
