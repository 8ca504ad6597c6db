package workers

import (
	"context"
	"log"
	"time"

	"dealtracker/storage"
)

// RetentionWorker periodically deletes price snapshots older than the
// configured window.
type RetentionWorker struct {
	store     storage.Store
	days      int
	triggerCh chan struct{}
}

// NewRetentionWorker creates a new retention worker
func NewRetentionWorker(store storage.Store, days int) *RetentionWorker {
	return &RetentionWorker{
		store:     store,
		days:      days,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger requests an immediate purge without waiting for the next tick.
func (w *RetentionWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Purge deletes snapshots outside the retention window.
func (w *RetentionWorker) Purge(ctx context.Context) {
	deleted, err := w.store.PurgeOlderThan(ctx, w.days)
	if err != nil {
		log.Printf("Retention: purge error: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Retention: deleted %d snapshots older than %d days", deleted, w.days)
	}
}

// Run executes purges on the given interval until ctx is cancelled.
func (w *RetentionWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Retention worker stopping")
			return
		case <-ticker.C:
			w.Purge(ctx)
		case <-w.triggerCh:
			log.Println("Retention worker triggered manually")
			w.Purge(ctx)
		}
	}
}
