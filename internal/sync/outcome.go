package sync

// Outcome is the result of a single sync operation. A failed outcome carries
// a human-readable reason instead of counts; callers check [Outcome.Failed]
// before reading the counters.
type Outcome struct {
	// Synced is the number of records written to the destination.
	Synced int
	// Skipped is the number of records recognised as exact duplicates.
	Skipped int
	// Reason is non-empty on failure.
	Reason string
	// Conflicts is the number of conflict records filed during the operation.
	Conflicts int
}

// Success builds a successful outcome.
func Success(synced, skipped int) Outcome {
	return Outcome{Synced: synced, Skipped: skipped}
}

// Failure builds a failed outcome with the given reason.
func Failure(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Failed reports whether the operation failed.
func (o Outcome) Failed() bool {
	return o.Reason != ""
}

// Merge combines two successful outcomes by summing their counters. If either
// side failed, the merged outcome carries that failure (the receiver's reason
// wins when both failed).
func (o Outcome) Merge(other Outcome) Outcome {
	if o.Failed() {
		return o
	}
	if other.Failed() {
		return other
	}
	return Outcome{
		Synced:    o.Synced + other.Synced,
		Skipped:   o.Skipped + other.Skipped,
		Conflicts: o.Conflicts + other.Conflicts,
	}
}
