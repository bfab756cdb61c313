package placement

import (
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"gorm.io/gorm"
)

// validateTarget enforces the admission rules that are independent of
// ordering: board coherence, WIP limit, and the fields the target board's
// kind requires. excludeItemID keeps an item already in the column from
// counting against its own WIP admission.
//
// The WIP count and the eventual write are not a single atomic check; two
// near-simultaneous admissions can both observe count < limit. That soft
// race is accepted; the limit is advisory, not a correctness invariant.
func validateTarget(tx *gorm.DB, item *models.Item, col *models.Column, excludeItemID uint) error {
	if col.BoardID != item.BoardID || col.Board.ProjectID != item.ProjectID {
		return fmt.Errorf("placement: item %d (board %d) into column %d (board %d): %w",
			item.ID, item.BoardID, col.ID, col.BoardID, ErrInvalidTarget)
	}
	if err := checkWIP(tx, col, excludeItemID); err != nil {
		return err
	}
	return checkRequiredFields(item, col.Board.Kind)
}

// checkWIP rejects admission into a column already at its WIP limit.
func checkWIP(tx *gorm.DB, col *models.Column, excludeItemID uint) error {
	if col.WIPLimit == nil || *col.WIPLimit <= 0 {
		return nil
	}
	q := tx.Model(&models.Item{}).Where("column_id = ?", col.ID)
	if excludeItemID != 0 {
		q = q.Where("id != ?", excludeItemID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("placement: count column %d for wip: %w", col.ID, err)
	}
	if int(n) >= *col.WIPLimit {
		return fmt.Errorf("placement: column %d holds %d of %d: %w", col.ID, n, *col.WIPLimit, ErrWIPExceeded)
	}
	return nil
}

// checkRequiredFields verifies the item carries the fields the board kind
// requires: task boards want execution fields, roadmap boards the ICE triple.
func checkRequiredFields(item *models.Item, boardKind string) error {
	var missing []string
	switch boardKind {
	case models.BoardKindTask:
		if item.Status == "" {
			missing = append(missing, "status")
		}
		if item.Priority == nil {
			missing = append(missing, "priority")
		}
	case models.BoardKindRoadmap:
		if item.Impact == nil {
			missing = append(missing, "impact")
		}
		if item.Confidence == nil {
			missing = append(missing, "confidence")
		}
		if item.Ease == nil {
			missing = append(missing, "ease")
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{BoardKind: boardKind, Fields: missing}
	}
	return nil
}

// clampIndex degrades a stale client index to the nearest valid insertion
// point instead of rejecting it.
func clampIndex(idx, siblingCount int) int {
	if idx < 0 {
		return 0
	}
	if idx > siblingCount {
		return siblingCount
	}
	return idx
}
