package placement

import (
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/position"
	"gorm.io/gorm"
)

// Rebalance renumbers every item in the column to evenly spaced positions
// (Step, 2*Step, ...) preserving relative order. It must run inside the same
// transaction as the operation that triggered it: the column stays locked
// and a crash mid-renumber rolls the whole move back. Returns the
// renumbered sibling list and the row count.
func Rebalance(tx *gorm.DB, columnID uint) ([]models.Item, int, error) {
	siblings, err := LockSiblings(tx, columnID, 0)
	if err != nil {
		return nil, 0, err
	}
	if len(siblings) == 0 {
		return siblings, 0, nil
	}

	updates := make([]ItemPosition, len(siblings))
	for i := range siblings {
		updates[i] = ItemPosition{ItemID: siblings[i].ID, Position: position.Rebalanced(i)}
	}
	if err := BulkSetPositions(tx, updates); err != nil {
		return nil, 0, fmt.Errorf("placement: rebalance column %d: %w", columnID, err)
	}
	for i := range siblings {
		siblings[i].Position = updates[i].Position
	}
	return siblings, len(siblings), nil
}

// rebalanceForInsert renumbers the column while reserving an evenly spaced
// slot at insertIndex for the item identified by moverID. Siblings before
// the slot keep their rank, siblings at or past it shift one rank up, and
// the returned position is the reserved slot. The mover, if it currently
// lives in this column, is parked on a staging position first so the final
// values cannot trip the unique index against its old row.
func rebalanceForInsert(tx *gorm.DB, columnID, moverID uint, insertIndex int) (int64, int, error) {
	siblings, err := LockSiblings(tx, columnID, moverID)
	if err != nil {
		return 0, 0, err
	}
	if insertIndex < 0 {
		insertIndex = 0
	}
	if insertIndex > len(siblings) {
		insertIndex = len(siblings)
	}

	if moverID != 0 {
		// Same-column move: the mover's old row still holds a position
		// in this keyspace. Park it clear of the final range.
		if err := tx.Model(&models.Item{}).
			Where("id = ? AND column_id = ?", moverID, columnID).
			Update("position", int64(-(len(siblings) + 1))).Error; err != nil {
			return 0, 0, fmt.Errorf("placement: park item %d: %w", moverID, err)
		}
	}

	updates := make([]ItemPosition, len(siblings))
	for i := range siblings {
		rank := i
		if i >= insertIndex {
			rank = i + 1
		}
		updates[i] = ItemPosition{ItemID: siblings[i].ID, Position: position.Rebalanced(rank)}
	}
	if err := BulkSetPositions(tx, updates); err != nil {
		return 0, 0, fmt.Errorf("placement: rebalance column %d: %w", columnID, err)
	}
	return position.Rebalanced(insertIndex), len(siblings), nil
}
