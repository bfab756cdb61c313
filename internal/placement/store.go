// Package placement is the ordered placement engine: it assigns and
// maintains the integer position keys that give each column's items a total
// order, and moves items between columns without rewriting unrelated rows.
//
// Every mutating operation runs inside a single transaction that first locks
// the destination column's sibling set with SELECT ... FOR UPDATE. The lock
// scope is exactly one column, so moves touching different columns proceed
// concurrently. The (column_id, position) unique index on items is the
// backstop if the backend's isolation is weaker than expected.
package placement

import (
	"errors"
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemPosition pairs an item with its newly computed position for bulk
// renumbering.
type ItemPosition struct {
	ItemID   uint
	Position int64
}

// LockSiblings returns the column's items ascending by position, locked for
// the remainder of tx. excludeItemID, when non-zero, is left out so that a
// same-column move sees the list as it will look without the moving item.
//
// Note: SQLite ignores FOR UPDATE; its single-writer model serializes the
// transactions instead, so correctness holds with lower concurrency.
func LockSiblings(tx *gorm.DB, columnID, excludeItemID uint) ([]models.Item, error) {
	q := tx.Where("column_id = ?", columnID)
	if excludeItemID != 0 {
		q = q.Where("id != ?", excludeItemID)
	}
	var siblings []models.Item
	if err := q.Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("position ASC").
		Find(&siblings).Error; err != nil {
		return nil, fmt.Errorf("placement: lock siblings of column %d: %w", columnID, err)
	}
	return siblings, nil
}

// SetPlacement re-homes an item: column, derived board/project, and position
// change in one row update. A duplicate-key failure on the position index is
// returned unwrapped enough for isDuplicate to classify.
func SetPlacement(tx *gorm.DB, item *models.Item, col *models.Column, pos int64) error {
	res := tx.Model(&models.Item{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"column_id":  col.ID,
		"board_id":   col.BoardID,
		"project_id": col.Board.ProjectID,
		"position":   pos,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("placement: item %d vanished during move: %w", item.ID, ErrNotFound)
	}
	item.ColumnID = col.ID
	item.BoardID = col.BoardID
	item.ProjectID = col.Board.ProjectID
	item.Position = pos
	return nil
}

// BulkSetPositions applies a batch of position updates. It runs in the
// caller's transaction, so the batch is all-or-nothing with the move that
// triggered it. Writes happen in two phases through a disjoint negative
// range so the unique index never observes an intermediate collision.
func BulkSetPositions(tx *gorm.DB, updates []ItemPosition) error {
	for i, u := range updates {
		if err := tx.Model(&models.Item{}).Where("id = ?", u.ItemID).
			Update("position", int64(-(i + 1))).Error; err != nil {
			return fmt.Errorf("placement: stage position for item %d: %w", u.ItemID, err)
		}
	}
	for _, u := range updates {
		if err := tx.Model(&models.Item{}).Where("id = ?", u.ItemID).
			Update("position", u.Position).Error; err != nil {
			return fmt.Errorf("placement: set position for item %d: %w", u.ItemID, err)
		}
	}
	return nil
}

// columnCount returns the number of items in a column.
func columnCount(tx *gorm.DB, columnID uint) (int, error) {
	var n int64
	if err := tx.Model(&models.Item{}).Where("column_id = ?", columnID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("placement: count column %d: %w", columnID, err)
	}
	return int(n), nil
}

// maxPosition returns the highest position among the given siblings, or 0.
func maxPosition(siblings []models.Item) int64 {
	if len(siblings) == 0 {
		return 0
	}
	return siblings[len(siblings)-1].Position
}

// loadColumn fetches a column with its board, mapping absence to ErrNotFound.
func loadColumn(tx *gorm.DB, columnID uint) (*models.Column, error) {
	var col models.Column
	if err := tx.Preload("Board").First(&col, columnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("placement: column %d: %w", columnID, ErrNotFound)
		}
		return nil, fmt.Errorf("placement: load column %d: %w", columnID, err)
	}
	if col.Board == nil {
		return nil, fmt.Errorf("placement: column %d has no board: %w", columnID, ErrNotFound)
	}
	return &col, nil
}

// loadItem fetches an item, mapping absence to ErrNotFound.
func loadItem(tx *gorm.DB, itemID uint) (*models.Item, error) {
	var item models.Item
	if err := tx.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("placement: item %d: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("placement: load item %d: %w", itemID, err)
	}
	return &item, nil
}
