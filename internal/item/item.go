// Package item provides item lifecycle operations: creation through the
// placement engine's quick-add path, field edits, and task/idea conversion.
package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/placement"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new item in a column.
type CreateOpts struct {
	Actor       string
	ColumnID    uint
	Kind        string // task, idea, epic
	Title       string
	Description string
	Status      string
	Priority    *int
	Assignee    string
	Impact      *int
	Confidence  *int
	Ease        *int
}

// ListFilters holds optional filters for listing items.
type ListFilters struct {
	ProjectID uint
	BoardID   uint
	ColumnID  uint
	Kind      string
	Status    string
	Assignee  string
}

// UpdateOpts holds field edits for an item. Nil/empty fields are left
// unchanged. Execution fields apply to tasks, planning fields to ideas and
// epics; edits to the wrong group are rejected.
type UpdateOpts struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *int
	Assignee    *string
	Impact      *int
	Confidence  *int
	Ease        *int
}

// Create builds an item with kind-appropriate defaults and appends it to
// the column via the placement engine. Quick-add on a task board yields a
// todo/P3 task; on a roadmap board an idea scored 3/3/3, matching what the
// board kind's admission rules require.
func Create(ctx context.Context, db *gorm.DB, opts CreateOpts) (*models.Item, *placement.AppendResult, error) {
	if opts.Title == "" {
		return nil, nil, fmt.Errorf("item: title is required")
	}
	if opts.Kind == "" {
		opts.Kind = models.ItemKindTask
	}
	switch opts.Kind {
	case models.ItemKindTask, models.ItemKindIdea, models.ItemKindEpic:
	default:
		return nil, nil, fmt.Errorf("item: kind %q is not task, idea, or epic", opts.Kind)
	}

	it := &models.Item{
		Kind:        opts.Kind,
		Title:       opts.Title,
		Description: opts.Description,
		Status:      opts.Status,
		Priority:    opts.Priority,
		Assignee:    opts.Assignee,
		Impact:      opts.Impact,
		Confidence:  opts.Confidence,
		Ease:        opts.Ease,
		CreatedBy:   opts.Actor,
	}
	applyKindDefaults(it)
	if err := validateICE(it); err != nil {
		return nil, nil, err
	}
	it.Score = computeScore(it)

	res, err := placement.Append(ctx, db, placement.AppendRequest{
		Actor:    opts.Actor,
		ColumnID: opts.ColumnID,
		Item:     it,
	})
	if err != nil {
		return nil, nil, err
	}
	return it, res, nil
}

// Get retrieves an item by ID.
func Get(db *gorm.DB, id uint) (*models.Item, error) {
	var it models.Item
	if err := db.First(&it, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item: item %d: %w", id, placement.ErrNotFound)
		}
		return nil, fmt.Errorf("item: get %d: %w", id, err)
	}
	return &it, nil
}

// List returns items matching the given filters, ordered by column then
// position.
func List(db *gorm.DB, filters ListFilters) ([]models.Item, error) {
	q := db.Model(&models.Item{})
	if filters.ProjectID != 0 {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.BoardID != 0 {
		q = q.Where("board_id = ?", filters.BoardID)
	}
	if filters.ColumnID != 0 {
		q = q.Where("column_id = ?", filters.ColumnID)
	}
	if filters.Kind != "" {
		q = q.Where("kind = ?", filters.Kind)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Assignee != "" {
		q = q.Where("assignee = ?", filters.Assignee)
	}

	var items []models.Item
	if err := q.Order("column_id ASC, position ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("item: list: %w", err)
	}
	return items, nil
}

// Update applies field edits and recomputes the ICE score.
func Update(db *gorm.DB, id uint, opts UpdateOpts) (*models.Item, error) {
	it, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	if opts.Title != nil {
		if *opts.Title == "" {
			return nil, fmt.Errorf("item: title cannot be empty")
		}
		it.Title = *opts.Title
	}
	if opts.Description != nil {
		it.Description = *opts.Description
	}
	if opts.Assignee != nil {
		it.Assignee = *opts.Assignee
	}

	if opts.Status != nil || opts.Priority != nil {
		if it.Kind != models.ItemKindTask {
			return nil, fmt.Errorf("item: %d is a %s; status and priority apply to tasks", id, it.Kind)
		}
		if opts.Status != nil {
			it.Status = *opts.Status
		}
		if opts.Priority != nil {
			it.Priority = opts.Priority
		}
	}

	if opts.Impact != nil || opts.Confidence != nil || opts.Ease != nil {
		if it.Kind == models.ItemKindTask {
			return nil, fmt.Errorf("item: %d is a task; ICE fields apply to ideas and epics", id)
		}
		if opts.Impact != nil {
			it.Impact = opts.Impact
		}
		if opts.Confidence != nil {
			it.Confidence = opts.Confidence
		}
		if opts.Ease != nil {
			it.Ease = opts.Ease
		}
	}
	if err := validateICE(it); err != nil {
		return nil, err
	}
	it.Score = computeScore(it)

	if err := db.Save(it).Error; err != nil {
		return nil, fmt.Errorf("item: update %d: %w", id, err)
	}
	return it, nil
}

// Convert flips an item between task and idea, carrying or defaulting the
// fields the new kind needs. The conversion itself is unconditional; the
// board kind's admission rules apply again on the item's next move.
func Convert(db *gorm.DB, id uint) (*models.Item, error) {
	it, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	three := 3
	switch it.Kind {
	case models.ItemKindTask:
		it.Kind = models.ItemKindIdea
		it.Status = ""
		it.Priority = nil
		if it.Impact == nil {
			it.Impact = &three
		}
		if it.Confidence == nil {
			it.Confidence = &three
		}
		if it.Ease == nil {
			it.Ease = &three
		}
	case models.ItemKindIdea:
		it.Kind = models.ItemKindTask
		if it.Status == "" {
			it.Status = models.StatusTodo
		}
		if it.Priority == nil {
			it.Priority = &three
		}
		it.Impact, it.Confidence, it.Ease = nil, nil, nil
	default:
		return nil, fmt.Errorf("item: cannot convert %s %d", it.Kind, id)
	}
	it.Score = computeScore(it)

	if err := db.Save(it).Error; err != nil {
		return nil, fmt.Errorf("item: convert %d: %w", id, err)
	}
	return it, nil
}

// applyKindDefaults fills the fields quick-add leaves blank so a fresh item
// passes its board's admission rules.
func applyKindDefaults(it *models.Item) {
	three := 3
	switch it.Kind {
	case models.ItemKindTask:
		if it.Status == "" {
			it.Status = models.StatusTodo
		}
		if it.Priority == nil {
			it.Priority = &three
		}
	case models.ItemKindIdea, models.ItemKindEpic:
		if it.Impact == nil {
			it.Impact = &three
		}
		if it.Confidence == nil {
			it.Confidence = &three
		}
		if it.Ease == nil {
			it.Ease = &three
		}
	}
}

// validateICE checks the 1-5 range on whichever ICE fields are set.
func validateICE(it *models.Item) error {
	for _, f := range []struct {
		name string
		val  *int
	}{{"impact", it.Impact}, {"confidence", it.Confidence}, {"ease", it.Ease}} {
		if f.val != nil && (*f.val < 1 || *f.val > 5) {
			return fmt.Errorf("item: %s must be between 1 and 5, got %d", f.name, *f.val)
		}
	}
	return nil
}

// computeScore returns impact*confidence*ease for ideas and epics, 0 for
// tasks.
func computeScore(it *models.Item) int {
	if it.Kind == models.ItemKindTask {
		return 0
	}
	if it.Impact == nil || it.Confidence == nil || it.Ease == nil {
		return 0
	}
	return *it.Impact * *it.Confidence * *it.Ease
}
