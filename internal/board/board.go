// Package board provides board and column lifecycle operations.
package board

import (
	"errors"
	"fmt"

	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/position"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateBoardOpts holds parameters for creating a new board.
type CreateBoardOpts struct {
	ProjectID uint
	Name      string
	Kind      string // task or roadmap
	IsDefault bool
}

// CreateBoard creates a board at the end of the project's board list.
func CreateBoard(db *gorm.DB, opts CreateBoardOpts) (*models.Board, error) {
	if opts.ProjectID == 0 {
		return nil, fmt.Errorf("board: project is required")
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("board: name is required")
	}
	if opts.Kind != models.BoardKindTask && opts.Kind != models.BoardKindRoadmap {
		return nil, fmt.Errorf("board: kind %q is not task or roadmap", opts.Kind)
	}

	var b models.Board
	err := db.Transaction(func(tx *gorm.DB) error {
		var maxPos int64
		if err := tx.Model(&models.Board{}).
			Where("project_id = ?", opts.ProjectID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPos).Error; err != nil {
			return fmt.Errorf("board: max position for project %d: %w", opts.ProjectID, err)
		}

		b = models.Board{
			ProjectID: opts.ProjectID,
			Name:      opts.Name,
			Kind:      opts.Kind,
			Position:  position.Append(maxPos),
		}
		if err := tx.Create(&b).Error; err != nil {
			return fmt.Errorf("board: create: %w", err)
		}
		if opts.IsDefault {
			return makeDefault(tx, &b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateColumnOpts holds parameters for creating a new column.
type CreateColumnOpts struct {
	BoardID  uint
	Name     string
	WIPLimit *int
}

// CreateColumn appends a column to the board, ordered after its siblings
// with the same sparse keyspace items use.
func CreateColumn(db *gorm.DB, opts CreateColumnOpts) (*models.Column, error) {
	if opts.BoardID == 0 {
		return nil, fmt.Errorf("board: board is required")
	}
	if opts.Name == "" {
		return nil, fmt.Errorf("board: column name is required")
	}
	if opts.WIPLimit != nil && *opts.WIPLimit < 1 {
		return nil, fmt.Errorf("board: wip limit must be at least 1")
	}

	var col models.Column
	err := db.Transaction(func(tx *gorm.DB) error {
		var b models.Board
		if err := tx.First(&b, opts.BoardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("board: not found: %d", opts.BoardID)
			}
			return fmt.Errorf("board: load %d: %w", opts.BoardID, err)
		}

		var maxPos int64
		if err := tx.Model(&models.Column{}).
			Where("board_id = ?", opts.BoardID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPos).Error; err != nil {
			return fmt.Errorf("board: max column position for board %d: %w", opts.BoardID, err)
		}

		col = models.Column{
			BoardID:  opts.BoardID,
			Name:     opts.Name,
			WIPLimit: opts.WIPLimit,
			Position: position.Append(maxPos),
		}
		if err := tx.Create(&col).Error; err != nil {
			return fmt.Errorf("board: create column %q: %w", opts.Name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &col, nil
}

// SetWIPLimit updates a column's WIP limit. A nil limit removes it. The
// limit is admission-only: an already over-full column keeps its items.
func SetWIPLimit(db *gorm.DB, columnID uint, limit *int) error {
	if limit != nil && *limit < 1 {
		return fmt.Errorf("board: wip limit must be at least 1")
	}
	res := db.Model(&models.Column{}).Where("id = ?", columnID).Update("wip_limit", limit)
	if res.Error != nil {
		return fmt.Errorf("board: set wip limit on column %d: %w", columnID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("board: column not found: %d", columnID)
	}
	return nil
}

// MakeDefault atomically makes the board the sole default in its
// (project, kind) group, locking the peer rows so two concurrent calls
// cannot leave two defaults.
func MakeDefault(db *gorm.DB, boardID uint) (*models.Board, error) {
	var b models.Board
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&b, boardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("board: not found: %d", boardID)
			}
			return fmt.Errorf("board: load %d: %w", boardID, err)
		}
		return makeDefault(tx, &b)
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// makeDefault clears peer defaults and sets b within the caller's tx.
func makeDefault(tx *gorm.DB, b *models.Board) error {
	if err := tx.Model(&models.Board{}).
		Where("project_id = ? AND kind = ? AND is_default = ? AND id != ?",
			b.ProjectID, b.Kind, true, b.ID).
		Update("is_default", false).Error; err != nil {
		return fmt.Errorf("board: clear peer defaults: %w", err)
	}
	if err := tx.Model(b).Update("is_default", true).Error; err != nil {
		return fmt.Errorf("board: set default: %w", err)
	}
	b.IsDefault = true
	return nil
}

// Get retrieves a board with its columns ordered by position.
func Get(db *gorm.DB, boardID uint) (*models.Board, error) {
	var b models.Board
	err := db.Preload("Columns", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&b, boardID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("board: not found: %d", boardID)
		}
		return nil, fmt.Errorf("board: get %d: %w", boardID, err)
	}
	return &b, nil
}

// List returns a project's boards ordered by position.
func List(db *gorm.DB, projectID uint) ([]models.Board, error) {
	var boards []models.Board
	if err := db.Where("project_id = ?", projectID).
		Order("position ASC").Find(&boards).Error; err != nil {
		return nil, fmt.Errorf("board: list for project %d: %w", projectID, err)
	}
	return boards, nil
}
