package models

import "time"

// Project statuses.
const (
	ProjectDraft    = "draft"
	ProjectActive   = "active"
	ProjectPaused   = "paused"
	ProjectArchived = "archived"
)

// Project is the top-level container for boards and items.
type Project struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"size:200;not null"`
	Slug        string `gorm:"size:220;uniqueIndex"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:16;default:draft;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time

	Boards []Board `gorm:"foreignKey:ProjectID"`
}
