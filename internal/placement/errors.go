package placement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Domain errors surfaced by the placement engine. Callers classify with
// errors.Is / errors.As; nothing below ever escapes as a panic.
var (
	// ErrNotFound means the item or column does not exist.
	ErrNotFound = errors.New("placement: not found")

	// ErrInvalidTarget means the target column belongs to a different
	// board or project than the item.
	ErrInvalidTarget = errors.New("placement: invalid target")

	// ErrWIPExceeded means the target column is at its WIP limit.
	ErrWIPExceeded = errors.New("placement: wip limit exceeded")

	// ErrConflict means a position collision survived the single
	// rebalance-and-retry. The move was not applied.
	ErrConflict = errors.New("placement: position conflict")

	// ErrBusy means the column lock could not be acquired within the
	// caller's deadline.
	ErrBusy = errors.New("placement: column busy")
)

// MissingFieldsError reports that an item lacks the fields its target
// board's kind requires.
type MissingFieldsError struct {
	BoardKind string
	Fields    []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("placement: %s board placement requires %s",
		e.BoardKind, strings.Join(e.Fields, ", "))
}

// isDuplicate reports whether err is a unique-constraint violation on the
// (column_id, position) index.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// isBusy reports whether err is a lock-wait timeout or an expired caller
// deadline rather than a real failure.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	msg := err.Error()
	// MySQL error 1205 and SQLite's single-writer lock.
	return strings.Contains(msg, "Lock wait timeout") ||
		strings.Contains(msg, "database is locked")
}
