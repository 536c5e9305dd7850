package worker

import (
	"sync"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/logger"
)

// Worker is a background job owned by the Scheduler.
type Worker interface {
	Name() string
	Start()
	Stop()
}

// Scheduler starts and stops the background maintenance workers together.
type Scheduler struct {
	workers     []Worker
	wg          sync.WaitGroup
	stopped     bool
	mu          sync.RWMutex
	stopTimeout time.Duration
}

func NewScheduler(stopTimeout time.Duration) *Scheduler {
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	return &Scheduler{
		workers:     make([]Worker, 0),
		stopTimeout: stopTimeout,
	}
}

func (s *Scheduler) AddWorker(worker Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker)
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	logger.Info().Int("workers", len(s.workers)).Msg("Starting scheduler")

	for _, worker := range s.workers {
		s.wg.Add(1)
		go func(w Worker) {
			defer s.wg.Done()
			w.Start()
		}(worker)
	}
}

// Stop is final; a stopped scheduler cannot be started again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	workers := append([]Worker(nil), s.workers...)
	s.mu.Unlock()

	for _, worker := range workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("Scheduler stopped gracefully")
	case <-time.After(s.stopTimeout):
		logger.Warn().Dur("timeout", s.stopTimeout).Msg("Scheduler stop timeout")
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.stopped
}
