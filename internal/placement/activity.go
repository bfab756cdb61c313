package placement

import (
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"gorm.io/gorm"
)

// recordActivity inserts an ActivityEntry in the operation's transaction,
// so the log only ever shows committed placements. The actor is an explicit
// parameter on every request; the engine reads no ambient user state.
func recordActivity(tx *gorm.DB, entry *models.ActivityEntry) error {
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("placement: record %s activity: %w", entry.Verb, err)
	}
	return nil
}

// RecordRebalance logs a standalone rebalance (maintenance sweep) outside
// the move/append paths.
func RecordRebalance(gdb *gorm.DB, columnID uint, boardID, projectID uint, rows int) error {
	entry := models.ActivityEntry{
		Verb:        models.ActivityRebalance,
		Actor:       "maintenance",
		ProjectID:   projectID,
		BoardID:     boardID,
		ToColumnID:  columnID,
		RowsTouched: rows,
	}
	if err := gdb.Create(&entry).Error; err != nil {
		return fmt.Errorf("placement: record rebalance: %w", err)
	}
	return nil
}
