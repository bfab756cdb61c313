// Package position computes integer sort keys for items within a column.
//
// Positions are sparse: appends advance by Step so that a later insert
// between two neighbors can usually take the midpoint without touching any
// other row. When no integer fits between the neighbors, or a computed value
// would grow past MaxMagnitude, the caller is told to rebalance the column
// first. All functions are pure.
package position

const (
	// Step is the default spacing between appended positions.
	Step int64 = 100

	// MaxMagnitude bounds how large a position may grow before the
	// keyspace is considered exhausted and a rebalance is forced.
	MaxMagnitude = 1_000_000 * Step
)

// Append returns the position for an item added after the current last
// sibling. Pass 0 when the column is empty.
func Append(maxExisting int64) int64 {
	return maxExisting + Step
}

// InsertBetween returns the position for an item inserted between two
// neighbors. Either neighbor may be nil: prev nil means insert at the head,
// next nil means insert at the tail, both nil means the column is empty.
//
// needsRebalance reports that no usable position exists: either the gap
// between the neighbors admits no integer, or the computed value would
// exceed MaxMagnitude.
func InsertBetween(prev, next *int64) (pos int64, needsRebalance bool) {
	switch {
	case prev != nil && next != nil:
		if *next-*prev <= 1 {
			return 0, true
		}
		pos = *prev + (*next-*prev)/2
	case prev != nil:
		pos = *prev + Step
	case next != nil:
		pos = *next - Step
		if pos < 1 {
			pos = 1
		}
		// Clamping can land on the neighbor itself once the head gap
		// closes; that is a collision, not a usable slot.
		if pos >= *next {
			return 0, true
		}
	default:
		pos = Step
	}

	if pos > MaxMagnitude || pos < -MaxMagnitude {
		return 0, true
	}
	return pos, false
}

// Rebalanced returns the evenly spaced position assigned to the sibling at
// the given 0-based index after a full renumbering.
func Rebalanced(index int) int64 {
	return int64(index+1) * Step
}
