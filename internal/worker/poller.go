package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/logger"
)

// Target is the event and team the live tasks refresh data for.
type Target struct {
	EventKey   string `json:"eventKey"`
	TeamNumber int    `json:"teamNumber"`
}

// TaskFunc refreshes one data feed. The context is never cancelled by the
// poller; collaborators enforce their own timeouts.
type TaskFunc func(ctx context.Context, target Target) error

type PollerConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
	MaxFailures int
	HistorySize int
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:    5 * time.Second,
		MaxInterval: time.Minute,
		MaxFailures: 3,
		HistorySize: 100,
	}
}

type Update struct {
	Timestamp time.Time `json:"timestamp"`
	Task      string    `json:"task"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

type PollerStats struct {
	Active            bool             `json:"active"`
	Target            *Target          `json:"target,omitempty"`
	TotalUpdates      int              `json:"totalUpdates"`
	LastMinuteUpdates int              `json:"lastMinuteUpdates"`
	SuccessRate       float64          `json:"successRate"`
	FailureCount      int              `json:"failureCount"`
	ActiveTasks       []string         `json:"activeTasks"`
	IntervalsMs       map[string]int64 `json:"intervalsMs"`
}

// run is one Start..Stop cycle. Goroutines of a stopped run finish their
// in-flight call and exit.
type run struct {
	target    Target
	stop      chan struct{}
	intervals map[string]time.Duration
}

// Poller fires each named task repeatedly. A task is re-armed only after
// its previous call returns, so one task never runs twice at once.
type Poller struct {
	cfg   PollerConfig
	tasks map[string]TaskFunc
	now   func() time.Time

	mu       sync.Mutex
	current  *run
	history  []Update
	failures int
	wg       sync.WaitGroup
}

type PollerOption func(*Poller)

func WithPollerClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

func NewPoller(cfg PollerConfig, tasks map[string]TaskFunc, opts ...PollerOption) *Poller {
	defaults := DefaultPollerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}
	if cfg.MaxInterval < cfg.Interval {
		cfg.MaxInterval = cfg.Interval
	}
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = defaults.MaxFailures
	}
	if cfg.HistorySize < 1 {
		cfg.HistorySize = defaults.HistorySize
	}

	copied := make(map[string]TaskFunc, len(tasks))
	for name, fn := range tasks {
		copied[name] = fn
	}

	p := &Poller{
		cfg:   cfg,
		tasks: copied,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling every task for target. Starting an active poller
// restarts it with the new target.
func (p *Poller) Start(target Target) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		close(p.current.stop)
		logger.Info().Str("event", p.current.target.EventKey).Msg("Restarting live updates")
	}

	r := &run{
		target:    target,
		stop:      make(chan struct{}),
		intervals: make(map[string]time.Duration, len(p.tasks)),
	}
	p.current = r
	p.failures = 0

	for name, fn := range p.tasks {
		r.intervals[name] = p.cfg.Interval
		p.wg.Add(1)
		go p.loop(r, name, fn)
	}

	logger.Info().
		Str("event", target.EventKey).
		Int("team", target.TeamNumber).
		Int("tasks", len(p.tasks)).
		Dur("interval", p.cfg.Interval).
		Msg("Live updates started")
}

// Stop prevents any further fires. Calls already in flight complete and
// their results are recorded. Stopping a stopped poller does nothing.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	close(p.current.stop)
	p.current = nil

	logger.Info().Msg("Live updates stopped")
}

// Shutdown stops the poller and waits for in-flight calls or ctx expiry.
func (p *Poller) Shutdown(ctx context.Context) error {
	p.Stop()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

func (p *Poller) Stats() PollerStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	stats := PollerStats{
		Active:       p.current != nil,
		TotalUpdates: len(p.history),
		FailureCount: p.failures,
		ActiveTasks:  []string{},
		IntervalsMs:  map[string]int64{},
	}

	successes := 0
	for _, u := range p.history {
		if now.Sub(u.Timestamp) < time.Minute {
			stats.LastMinuteUpdates++
		}
		if u.Success {
			successes++
		}
	}
	stats.SuccessRate = float64(successes) / float64(max(1, len(p.history)))

	if p.current != nil {
		target := p.current.target
		stats.Target = &target
		for name, interval := range p.current.intervals {
			stats.ActiveTasks = append(stats.ActiveTasks, name)
			stats.IntervalsMs[name] = interval.Milliseconds()
		}
		sort.Strings(stats.ActiveTasks)
	}

	return stats
}

// History returns up to limit of the most recent updates, newest first.
func (p *Poller) History(limit int) []Update {
	p.mu.Lock()
	defer p.mu.Unlock()

	if limit <= 0 || limit > len(p.history) {
		limit = len(p.history)
	}
	out := make([]Update, limit)
	copy(out, p.history[:limit])
	return out
}

// TaskNames lists the registered tasks whether or not the poller runs.
func (p *Poller) TaskNames() []string {
	names := make([]string, 0, len(p.tasks))
	for name := range p.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Poller) loop(r *run, name string, fn TaskFunc) {
	defer p.wg.Done()

	// first fire is immediate
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-timer.C:
		}

		// the timer and stop can be ready together; stop wins
		select {
		case <-r.stop:
			return
		default:
		}

		err := fn(context.Background(), r.target)
		timer.Reset(p.record(r, name, err))
	}
}

// record applies one result and returns the delay before the task's next fire.
func (p *Poller) record(r *run, name string, err error) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := Update{Timestamp: p.now(), Task: name, Success: err == nil}
	if err != nil {
		entry.Error = err.Error()
	}
	p.history = append([]Update{entry}, p.history...)
	if len(p.history) > p.cfg.HistorySize {
		p.history = p.history[:p.cfg.HistorySize]
	}

	interval := r.intervals[name]
	if err == nil {
		p.failures = max(0, p.failures-1)
		r.intervals[name] = p.cfg.Interval
		return p.cfg.Interval
	}

	p.failures++
	logger.Debug().Err(err).Str("task", name).Int("failures", p.failures).Msg("Live update failed")

	if p.failures >= p.cfg.MaxFailures {
		slowed := min(interval*2, p.cfg.MaxInterval)
		if slowed != interval {
			logger.Warn().
				Str("task", name).
				Int("failures", p.failures).
				Dur("interval", slowed).
				Msg("Too many failures, slowing update rate")
		}
		r.intervals[name] = slowed
		return slowed
	}
	return interval
}
