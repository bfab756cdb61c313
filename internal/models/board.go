package models

import "time"

// Board kinds.
const (
	BoardKindTask    = "task"
	BoardKindRoadmap = "roadmap"
)

// Board is an ordered set of columns within a project. Kind determines which
// item fields a placement requires (task boards want status/priority, roadmap
// boards want the ICE triple).
type Board struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID uint   `gorm:"not null;index:idx_boards_project_kind"`
	Name      string `gorm:"size:120;not null"`
	Kind      string `gorm:"size:16;not null;index:idx_boards_project_kind"`
	IsDefault bool   `gorm:"default:false"`
	Position  int64  `gorm:"not null;default:100"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Project *Project `gorm:"foreignKey:ProjectID"`
	Columns []Column `gorm:"foreignKey:BoardID"`
}

// Column is an ordered bucket of items on a board. WIPLimit, when set, caps
// the number of items the placement engine will admit.
type Column struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	BoardID   uint   `gorm:"not null;uniqueIndex:uniq_column_board_name,priority:1"`
	Name      string `gorm:"size:120;not null;uniqueIndex:uniq_column_board_name,priority:2"`
	WIPLimit  *int  `gorm:"column:wip_limit"`
	Position  int64 `gorm:"not null;default:100"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Board *Board `gorm:"foreignKey:BoardID"`
	Items []Item `gorm:"foreignKey:ColumnID"`
}
