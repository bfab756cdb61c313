package placement

import (
	"context"
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/position"
	"gorm.io/gorm"
)

// MoveRequest asks for an item to be placed at targetIndex among the target
// column's items. TargetIndex is the caller's 0-based list index for the
// item after the move, not a raw position value; stale indexes are clamped.
type MoveRequest struct {
	Actor          string
	ItemID         uint
	TargetColumnID uint
	TargetIndex    int
}

// MoveResult reports the committed placement and the sibling counts of both
// affected columns, so callers can refresh aggregates without re-querying.
type MoveResult struct {
	ItemID       uint  `json:"itemId"`
	FromColumnID uint  `json:"fromColumnId"`
	ToColumnID   uint  `json:"toColumnId"`
	FromCount    int   `json:"fromCount"`
	ToCount      int   `json:"toCount"`
	Position     int64 `json:"position"`
	Rebalanced   int   `json:"rebalanced"` // rows renumbered, 0 when no rebalance ran
}

// Move places an item into a column at a desired index, inside one
// transaction:
//
//	load → validate → lock target siblings → compute position →
//	rebalance if the keyspace demands it → write → commit
//
// The sibling lock is taken before any write and held to commit; two
// concurrent moves into one column serialize there, which is what keeps
// their computed positions distinct. Only the destination column is locked:
// removal from the source leaves its order untouched, so cross-column moves
// never acquire two column locks and cannot deadlock against each other.
//
// A duplicate-position failure at write time (possible under weaker
// isolation than the lock assumes) triggers exactly one full
// rebalance-and-retry before surfacing ErrConflict. Deadline expiry while
// waiting on the lock surfaces ErrBusy.
func Move(ctx context.Context, gdb *gorm.DB, req MoveRequest) (*MoveResult, error) {
	if req.ItemID == 0 || req.TargetColumnID == 0 {
		return nil, fmt.Errorf("placement: item and target column are required: %w", ErrNotFound)
	}

	var res MoveResult
	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := loadItem(tx, req.ItemID)
		if err != nil {
			return err
		}
		col, err := loadColumn(tx, req.TargetColumnID)
		if err != nil {
			return err
		}
		fromColumnID := item.ColumnID

		if err := validateTarget(tx, item, col, item.ID); err != nil {
			return err
		}

		siblings, err := LockSiblings(tx, col.ID, item.ID)
		if err != nil {
			return err
		}
		idx := clampIndex(req.TargetIndex, len(siblings))

		// Neighbors come from the locked pre-move list; with the moving
		// item excluded, list indexes map directly onto the final order.
		var prev, next *int64
		if idx > 0 {
			prev = &siblings[idx-1].Position
		}
		if idx < len(siblings) {
			next = &siblings[idx].Position
		}

		pos, needsRebalance := position.InsertBetween(prev, next)
		rebalanced := 0
		if needsRebalance {
			pos, rebalanced, err = rebalanceForInsert(tx, col.ID, item.ID, idx)
			if err != nil {
				return err
			}
		}

		if err := SetPlacement(tx, item, col, pos); err != nil {
			if !isDuplicate(err) {
				return fmt.Errorf("placement: move item %d: %w", item.ID, err)
			}
			// Residual race despite the lock. Renumber and retry once;
			// never silently drop the move.
			var n int
			pos, n, err = rebalanceForInsert(tx, col.ID, item.ID, idx)
			if err != nil {
				return err
			}
			rebalanced += n
			if err := SetPlacement(tx, item, col, pos); err != nil {
				return fmt.Errorf("placement: move item %d after rebalance: %w", item.ID, ErrConflict)
			}
		}

		if err := recordActivity(tx, &models.ActivityEntry{
			Verb:         models.ActivityMove,
			Actor:        req.Actor,
			ProjectID:    item.ProjectID,
			BoardID:      item.BoardID,
			ItemID:       item.ID,
			FromColumnID: fromColumnID,
			ToColumnID:   col.ID,
			Position:     pos,
			RowsTouched:  rebalanced,
		}); err != nil {
			return err
		}

		fromCount, err := columnCount(tx, fromColumnID)
		if err != nil {
			return err
		}
		toCount := fromCount
		if fromColumnID != col.ID {
			if toCount, err = columnCount(tx, col.ID); err != nil {
				return err
			}
		}

		res = MoveResult{
			ItemID:       item.ID,
			FromColumnID: fromColumnID,
			ToColumnID:   col.ID,
			FromCount:    fromCount,
			ToCount:      toCount,
			Position:     pos,
			Rebalanced:   rebalanced,
		}
		return nil
	})
	if err != nil {
		if isBusy(err) {
			return nil, fmt.Errorf("placement: move item %d: %w", req.ItemID, ErrBusy)
		}
		return nil, err
	}
	return &res, nil
}
