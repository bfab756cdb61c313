// Package maintenance runs the proactive keyspace sweep: columns whose
// position keyspace is drifting toward exhaustion get rebalanced off the
// hot path, before a move is forced to do it inline.
package maintenance

import (
	"context"
	"fmt"
	"log"

	"github.com/dmaher/corkboard/internal/models"
	"github.com/dmaher/corkboard/internal/placement"
	"github.com/dmaher/corkboard/internal/position"
	"gorm.io/gorm"
)

// Sweep thresholds. A column is rebalanced when its keyspace magnitude has
// burned through half the ceiling, or when any adjacent pair has no room
// left for a midpoint.
const (
	magnitudeThreshold = position.MaxMagnitude / 2
	minGapThreshold    = 1
)

// Report summarizes one sweep.
type Report struct {
	ColumnsChecked    int
	ColumnsRebalanced int
	RowsTouched       int
}

// columnStat is the per-column inspection row.
type columnStat struct {
	ColumnID  uint
	BoardID   uint
	ProjectID uint
}

// Sweep inspects every non-empty column and rebalances the ones that need
// it. Each rebalance runs in its own transaction under the column lock, so
// a long sweep never holds more than one column at a time.
func Sweep(ctx context.Context, db *gorm.DB) (*Report, error) {
	var cols []columnStat
	err := db.WithContext(ctx).Model(&models.Item{}).
		Select("column_id, board_id, project_id").
		Group("column_id, board_id, project_id").
		Scan(&cols).Error
	if err != nil {
		return nil, fmt.Errorf("maintenance: list columns: %w", err)
	}

	report := &Report{}
	for _, col := range cols {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}
		report.ColumnsChecked++

		needs, err := needsRebalance(db, col.ColumnID)
		if err != nil {
			return report, fmt.Errorf("maintenance: inspect column %d: %w", col.ColumnID, err)
		}
		if !needs {
			continue
		}

		var rows int
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, n, rbErr := placement.Rebalance(tx, col.ColumnID)
			rows = n
			return rbErr
		})
		if err != nil {
			return report, fmt.Errorf("maintenance: rebalance column %d: %w", col.ColumnID, err)
		}
		if err := placement.RecordRebalance(db, col.ColumnID, col.BoardID, col.ProjectID, rows); err != nil {
			return report, err
		}
		report.ColumnsRebalanced++
		report.RowsTouched += rows
	}
	return report, nil
}

// needsRebalance checks a column's keyspace health: peak magnitude and the
// tightest gap between adjacent positions.
func needsRebalance(db *gorm.DB, columnID uint) (bool, error) {
	var positions []int64
	err := db.Model(&models.Item{}).
		Where("column_id = ?", columnID).
		Order("position ASC").
		Pluck("position", &positions).Error
	if err != nil {
		return false, err
	}
	if len(positions) == 0 {
		return false, nil
	}

	if positions[0] <= -magnitudeThreshold || positions[len(positions)-1] >= magnitudeThreshold {
		return true, nil
	}
	for i := 1; i < len(positions); i++ {
		if positions[i]-positions[i-1] <= minGapThreshold {
			return true, nil
		}
	}
	return false, nil
}

// RunSweep is the scheduler entrypoint: it runs a sweep and logs the
// outcome instead of returning it.
func RunSweep(ctx context.Context, db *gorm.DB) {
	report, err := Sweep(ctx, db)
	if err != nil {
		log.Printf("maintenance: sweep failed: %v", err)
		return
	}
	if report.ColumnsRebalanced > 0 {
		log.Printf("maintenance: rebalanced %d of %d columns (%d rows)",
			report.ColumnsRebalanced, report.ColumnsChecked, report.RowsTouched)
	}
}
