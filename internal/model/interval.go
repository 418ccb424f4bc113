package model

import "time"

// Interval is a closed time span with an inclusive start and end.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the two intervals intersect. Intervals that
// merely touch (one ends exactly when the other begins) do not overlap:
//
//	overlap = !(endA <= startB || endB <= startA)
//
// The predicate is symmetric and total; it is used identically for sleep
// (bed/wake) and exercise (start/start+duration) spans.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	if endA.Before(startB) || endA.Equal(startB) {
		return false
	}
	if endB.Before(startA) || endB.Equal(startA) {
		return false
	}
	return true
}

// Overlaps reports whether i intersects other.
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}
