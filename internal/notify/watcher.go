package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dmaher/corkboard/internal/models"
	"gorm.io/gorm"
)

// DefaultInterval is how often the watcher digests new activity.
const DefaultInterval = 30 * time.Minute

// Watcher polls the activity log on an interval and posts a digest of new
// entries to its adapters. It keeps a cursor on the last digested entry ID,
// so each entry is reported at most once per process.
type Watcher struct {
	db       *gorm.DB
	adapters []Adapter
	interval time.Duration

	mu       sync.Mutex
	cursor   uint // highest activity ID already digested
	lastPost time.Time
}

// WatcherOpts holds parameters for creating a Watcher.
type WatcherOpts struct {
	DB       *gorm.DB
	Adapters []Adapter
	Interval time.Duration // defaults to DefaultInterval
}

// NewWatcher creates a Watcher. The cursor seeds from the current maximum
// activity ID, so history predating startup is never replayed into chat.
func NewWatcher(opts WatcherOpts) (*Watcher, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("notify: watcher: db is required")
	}
	if len(opts.Adapters) == 0 {
		return nil, fmt.Errorf("notify: watcher: at least one adapter is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	w := &Watcher{
		db:       opts.DB,
		adapters: opts.Adapters,
		interval: interval,
	}
	var maxID *uint
	if err := opts.DB.Model(&models.ActivityEntry{}).
		Select("MAX(id)").Scan(&maxID).Error; err != nil {
		return nil, fmt.Errorf("notify: watcher: seed cursor: %w", err)
	}
	if maxID != nil {
		w.cursor = *maxID
	}
	return w, nil
}

// Poll runs one digest cycle: collects entries past the cursor, builds a
// digest, and advances the cursor. Returns nil when there is nothing new.
func (w *Watcher) Poll() (*Digest, error) {
	w.mu.Lock()
	cursor := w.cursor
	w.mu.Unlock()

	var entries []models.ActivityEntry
	if err := w.db.Where("id > ?", cursor).
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("notify: watcher: poll: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	since := entries[0].CreatedAt
	until := entries[len(entries)-1].CreatedAt
	d := BuildDigest(entries, since, until)

	w.mu.Lock()
	w.cursor = entries[len(entries)-1].ID
	w.mu.Unlock()
	return d, nil
}

// Run starts the watcher loop. It polls on the configured interval, posts
// any digest to all adapters, and returns when the context is cancelled.
// A failed post is logged and dropped; the cursor has already advanced, so
// a flaky adapter cannot wedge the loop.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d, err := w.Poll()
			if err != nil {
				log.Printf("notify: poll failed: %v", err)
				continue
			}
			if d == nil {
				continue
			}
			for _, a := range w.adapters {
				if err := a.Post(ctx, *d); err != nil {
					log.Printf("notify: post failed: %v", err)
				}
			}
			w.mu.Lock()
			w.lastPost = time.Now()
			w.mu.Unlock()
		}
	}
}

// Cursor returns the highest digested activity ID.
func (w *Watcher) Cursor() uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

// LastPostAt returns when the last digest was posted.
func (w *Watcher) LastPostAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastPost
}
