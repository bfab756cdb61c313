package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom,
// month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Scheduler runs the sweep on a cron schedule.
type Scheduler struct {
	c *cron.Cron
}

// NewScheduler validates expr and builds a scheduler that sweeps db on
// that schedule.
func NewScheduler(ctx context.Context, db *gorm.DB, expr string) (*Scheduler, error) {
	if _, err := cronParser.Parse(expr); err != nil {
		return nil, fmt.Errorf("maintenance: cron %q: %w", expr, err)
	}

	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(expr, func() { RunSweep(ctx, db) }); err != nil {
		return nil, fmt.Errorf("maintenance: schedule: %w", err)
	}
	return &Scheduler{c: c}, nil
}

// Start begins firing sweeps in a background goroutine.
func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}
