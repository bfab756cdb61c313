package placement

import (
	"context"
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/position"
	"gorm.io/gorm"
)

// AppendRequest asks for a new item to be created at the end of a column.
// Item carries the caller-owned fields (kind, title, execution or ICE
// fields); the engine fills in column, board, project, and position.
type AppendRequest struct {
	Actor    string
	ColumnID uint
	Item     *models.Item
}

// AppendResult reports the created item's placement.
type AppendResult struct {
	ItemID     uint  `json:"itemId"`
	Position   int64 `json:"position"`
	Count      int   `json:"count"`
	Rebalanced int   `json:"rebalanced"`
}

// Append creates a new item at the tail of a column, the quick-add path.
// It shares the move path's lock discipline and rebalancer: siblings are
// locked, the next sparse position computed, and the keyspace renumbered
// first if the tail has grown past the magnitude ceiling.
func Append(ctx context.Context, gdb *gorm.DB, req AppendRequest) (*AppendResult, error) {
	if req.ColumnID == 0 || req.Item == nil {
		return nil, fmt.Errorf("placement: column and item are required: %w", ErrNotFound)
	}

	var res AppendResult
	err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		col, err := loadColumn(tx, req.ColumnID)
		if err != nil {
			return err
		}

		item := req.Item
		item.ColumnID = col.ID
		item.BoardID = col.BoardID
		item.ProjectID = col.Board.ProjectID

		if err := checkWIP(tx, col, 0); err != nil {
			return err
		}
		if err := checkRequiredFields(item, col.Board.Kind); err != nil {
			return err
		}

		siblings, err := LockSiblings(tx, col.ID, 0)
		if err != nil {
			return err
		}

		pos := position.Append(maxPosition(siblings))
		rebalanced := 0
		if pos > position.MaxMagnitude {
			if _, rebalanced, err = Rebalance(tx, col.ID); err != nil {
				return err
			}
			pos = position.Rebalanced(len(siblings))
		}
		item.Position = pos

		if err := tx.Create(item).Error; err != nil {
			if !isDuplicate(err) {
				return fmt.Errorf("placement: append to column %d: %w", col.ID, err)
			}
			_, n, rerr := Rebalance(tx, col.ID)
			if rerr != nil {
				return rerr
			}
			rebalanced += n
			item.Position = position.Rebalanced(len(siblings))
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("placement: append to column %d after rebalance: %w", col.ID, ErrConflict)
			}
		}

		if err := recordActivity(tx, &models.ActivityEntry{
			Verb:        models.ActivityAppend,
			Actor:       req.Actor,
			ProjectID:   item.ProjectID,
			BoardID:     item.BoardID,
			ItemID:      item.ID,
			ToColumnID:  col.ID,
			Position:    item.Position,
			RowsTouched: rebalanced,
		}); err != nil {
			return err
		}

		count, err := columnCount(tx, col.ID)
		if err != nil {
			return err
		}
		res = AppendResult{
			ItemID:     item.ID,
			Position:   item.Position,
			Count:      count,
			Rebalanced: rebalanced,
		}
		return nil
	})
	if err != nil {
		if isBusy(err) {
			return nil, fmt.Errorf("placement: append to column %d: %w", req.ColumnID, ErrBusy)
		}
		return nil, err
	}
	return &res, nil
}
