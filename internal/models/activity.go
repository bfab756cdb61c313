package models

import "time"

// Activity verbs recorded by the placement engine.
const (
	ActivityAppend    = "append"
	ActivityMove      = "move"
	ActivityRebalance = "rebalance"
)

// ActivityEntry records a committed placement operation. Entries are written
// in the same transaction as the operation they describe, so the log never
// shows a move that did not commit. The notify watcher digests these.
type ActivityEntry struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Verb         string `gorm:"size:16;not null;index"`
	Actor        string `gorm:"size:64"`
	ProjectID    uint   `gorm:"index"`
	BoardID      uint   `gorm:"index"`
	ItemID       uint
	FromColumnID uint
	ToColumnID   uint
	Position     int64
	RowsTouched  int // rebalance row count, 0 otherwise
	CreatedAt    time.Time `gorm:"index"`
}
