package worker

import (
	"context"
	"sync"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/logger"
)

// Pruner deletes archived data past its retention window.
type Pruner interface {
	PruneArchive(ctx context.Context) (int64, error)
}

// RetentionWorker prunes the scouting archive on a fixed interval.
type RetentionWorker struct {
	pruner   Pruner
	interval time.Duration
	stopChan chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	running  bool
}

func NewRetentionWorker(pruner Pruner, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{
		pruner:   pruner,
		interval: interval,
	}
}

func (w *RetentionWorker) Name() string {
	return "archive-retention"
}

func (w *RetentionWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	w.running = true
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	logger.Info().Dur("interval", w.interval).Msg("Retention worker started")

	go w.run(w.stopChan, w.done)
}

// Stop waits for a prune in progress to finish.
func (w *RetentionWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopChan)
	w.running = false
	done := w.done
	w.mu.Unlock()

	<-done
	logger.Info().Msg("Retention worker stopped")
}

func (w *RetentionWorker) run(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// first prune right away
	w.prune()

	for {
		select {
		case <-ticker.C:
			w.prune()
		case <-stop:
			return
		}
	}
}

func (w *RetentionWorker) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := w.pruner.PruneArchive(ctx)
	if err != nil {
		logger.ErrorWithContext(err, "worker", "prune").Msg("Archive prune failed")
		return
	}
	if removed > 0 {
		logger.Info().Int64("removed", removed).Msg("Pruned archived snapshots")
	}
}
