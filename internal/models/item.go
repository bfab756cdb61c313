package models

import "time"

// Item kinds.
const (
	ItemKindTask = "task"
	ItemKindIdea = "idea"
	ItemKindEpic = "epic"
)

// Task-board statuses.
const (
	StatusTodo   = "todo"
	StatusDoing  = "doing"
	StatusReview = "review"
	StatusDone   = "done"
)

// Item is the placed unit on a board: a task or roadmap idea living in
// exactly one column. Position is its integer sort key within that column;
// the composite unique index on (column_id, position) is the backstop for
// the application-level lock discipline in the placement package.
type Item struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID   uint   `gorm:"not null;index"`
	BoardID     uint   `gorm:"not null;index"`
	ColumnID    uint   `gorm:"not null;uniqueIndex:uniq_item_column_position,priority:1"`
	Kind        string `gorm:"size:8;not null;default:task"`
	Title       string `gorm:"size:240;not null"`
	Description string `gorm:"type:text"`

	// Execution fields (task boards).
	Status   string `gorm:"size:8"`
	Priority *int
	Assignee string `gorm:"size:64"`

	// Planning fields (roadmap boards, ICE 1-5).
	Impact     *int
	Confidence *int
	Ease       *int
	Score      int `gorm:"default:0"`

	Position  int64 `gorm:"not null;uniqueIndex:uniq_item_column_position,priority:2"`
	CreatedBy string `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Project *Project `gorm:"foreignKey:ProjectID"`
	Board   *Board   `gorm:"foreignKey:BoardID"`
	Column  *Column  `gorm:"foreignKey:ColumnID"`
}
