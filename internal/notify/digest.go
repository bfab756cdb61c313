package notify

import (
	"fmt"
	"time"

	"github.com/dmaher/corkboard/internal/models"
)

// Sidebar colors by digest content.
const (
	colorActivity  = "#36a64f"
	colorRebalance = "#daa038"
)

// BuildDigest summarizes a batch of activity entries into one Digest.
// Returns nil when there is nothing to report.
func BuildDigest(entries []models.ActivityEntry, since, until time.Time) *Digest {
	if len(entries) == 0 {
		return nil
	}

	var appends, moves, rebalances int
	for _, e := range entries {
		switch e.Verb {
		case models.ActivityAppend:
			appends++
		case models.ActivityMove:
			moves++
		case models.ActivityRebalance:
			rebalances++
		}
	}

	d := &Digest{
		Title: fmt.Sprintf("Corkboard activity: %d placements", appends+moves),
		Color: colorActivity,
		Since: since,
		Until: until,
	}
	if appends+moves == 0 {
		d.Title = fmt.Sprintf("Corkboard maintenance: %d rebalances", rebalances)
		d.Color = colorRebalance
	}

	if appends > 0 {
		d.Lines = append(d.Lines, fmt.Sprintf("%d items added", appends))
	}
	if moves > 0 {
		d.Lines = append(d.Lines, fmt.Sprintf("%d items moved", moves))
	}
	if rebalances > 0 {
		d.Lines = append(d.Lines, fmt.Sprintf("%d columns rebalanced", rebalances))
	}

	// Show the most recent few entries verbatim.
	const detail = 5
	start := len(entries) - detail
	if start < 0 {
		start = 0
	}
	for _, e := range entries[start:] {
		d.Lines = append(d.Lines, FormatEntry(e))
	}
	return d
}

// FormatEntry renders one activity entry as a digest line.
func FormatEntry(e models.ActivityEntry) string {
	switch e.Verb {
	case models.ActivityAppend:
		return fmt.Sprintf("%s added item %d to column %d", actorOr(e.Actor), e.ItemID, e.ToColumnID)
	case models.ActivityMove:
		if e.FromColumnID == e.ToColumnID {
			return fmt.Sprintf("%s reordered item %d in column %d", actorOr(e.Actor), e.ItemID, e.ToColumnID)
		}
		return fmt.Sprintf("%s moved item %d from column %d to column %d",
			actorOr(e.Actor), e.ItemID, e.FromColumnID, e.ToColumnID)
	case models.ActivityRebalance:
		return fmt.Sprintf("column %d rebalanced (%d rows)", e.ToColumnID, e.RowsTouched)
	}
	return fmt.Sprintf("%s %s item %d", actorOr(e.Actor), e.Verb, e.ItemID)
}

func actorOr(actor string) string {
	if actor == "" {
		return "someone"
	}
	return actor
}
