// internal/app/system/workers/auditretention.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/familyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pruner deletes audit events older than a cutoff. *audit.Store satisfies it.
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetention is a background worker that drops audit events older than
// the retention window.
type AuditRetention struct {
	events    Pruner
	log       *zap.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewAuditRetention creates a retention worker.
//
// Parameters:
//   - events: the audit store
//   - logger: zap logger for logging
//   - interval: how often to prune (e.g., 1 hour)
//   - retention: how long events are kept (e.g., 90 days)
func NewAuditRetention(events Pruner, logger *zap.Logger, interval, retention time.Duration) *AuditRetention {
	return &AuditRetention{
		events:    events,
		log:       logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start prunes once, then keeps pruning every interval until Stop.
func (w *AuditRetention) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("audit retention worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *AuditRetention) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("audit retention worker stopped")
}

func (w *AuditRetention) run() {
	defer w.wg.Done()

	w.Prune()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Prune()
		}
	}
}

// Prune deletes everything older than the retention window and returns the
// number of events removed.
func (w *AuditRetention) Prune() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	cutoff := w.now().UTC().Add(-w.retention)
	count, err := w.events.DeleteBefore(ctx, cutoff)
	if err != nil {
		w.log.Error("failed to prune audit events", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.log.Info("pruned audit events",
			zap.Int64("count", count),
			zap.Time("cutoff", cutoff))
	}
	return count
}
