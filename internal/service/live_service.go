package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/dhruvbantval/3128-odyssey/internal/worker"
)

const (
	TaskBatteries  = "batteries"
	TaskMatches    = "matches"
	TaskRankings   = "rankings"
	TaskStatbotics = "statbotics"
	TaskLive       = "live"
)

// LiveBoard is the pit display state. Each feed keeps its last good value
// when a refresh fails.
type LiveBoard struct {
	Target    *worker.Target          `json:"target"`
	Batteries []models.BatterySummary `json:"batteries"`
	Matches   []models.Match          `json:"matches"`
	Rankings  []models.Ranking        `json:"rankings"`
	TeamStats *models.TeamStats       `json:"teamStats"`
	Live      *models.LiveEvent       `json:"live"`
	UpdatedAt map[string]int64        `json:"updatedAt"`
	Stats     worker.PollerStats      `json:"stats"`
}

type LiveService interface {
	Start(target worker.Target) (worker.Target, error)
	Stop()
	Shutdown(ctx context.Context) error
	Stats() worker.PollerStats
	History(limit int) []worker.Update
	Board() LiveBoard
}

type liveService struct {
	batteries BatteryService
	scouting  ScoutingService
	poller    *worker.Poller
	now       func() time.Time

	mu     sync.RWMutex
	target *worker.Target
	board  LiveBoard
}

func NewLiveService(batteries BatteryService, scouting ScoutingService, cfg worker.PollerConfig) LiveService {
	s := &liveService{
		batteries: batteries,
		scouting:  scouting,
		now:       time.Now,
		board:     LiveBoard{UpdatedAt: map[string]int64{}},
	}
	s.poller = worker.NewPoller(cfg, map[string]worker.TaskFunc{
		TaskBatteries:  s.refreshBatteries,
		TaskMatches:    s.refreshMatches,
		TaskRankings:   s.refreshRankings,
		TaskStatbotics: s.refreshTeamStats,
		TaskLive:       s.refreshLive,
	})
	return s
}

// Start validates target and (re)starts polling. Scouting feeds from a
// previous target are dropped; battery summaries are kept.
func (s *liveService) Start(target worker.Target) (worker.Target, error) {
	key, err := normalizeEventKey(target.EventKey)
	if err != nil {
		return worker.Target{}, err
	}
	if target.TeamNumber < 0 {
		return worker.Target{}, errors.New().WithMessage(errors.ErrValidation, "teamNumber must not be negative")
	}
	target.EventKey = key

	s.mu.Lock()
	if s.target == nil || *s.target != target {
		s.board.Matches = nil
		s.board.Rankings = nil
		s.board.TeamStats = nil
		s.board.Live = nil
		for _, task := range []string{TaskMatches, TaskRankings, TaskStatbotics, TaskLive} {
			delete(s.board.UpdatedAt, task)
		}
	}
	s.target = &target
	s.mu.Unlock()

	s.poller.Start(target)
	return target, nil
}

func (s *liveService) Stop() {
	s.poller.Stop()
}

func (s *liveService) Shutdown(ctx context.Context) error {
	return s.poller.Shutdown(ctx)
}

func (s *liveService) Stats() worker.PollerStats {
	return s.poller.Stats()
}

func (s *liveService) History(limit int) []worker.Update {
	return s.poller.History(limit)
}

func (s *liveService) Board() LiveBoard {
	s.mu.RLock()
	board := LiveBoard{
		Batteries: append([]models.BatterySummary(nil), s.board.Batteries...),
		Matches:   append([]models.Match(nil), s.board.Matches...),
		Rankings:  append([]models.Ranking(nil), s.board.Rankings...),
		TeamStats: s.board.TeamStats,
		Live:      s.board.Live,
		UpdatedAt: make(map[string]int64, len(s.board.UpdatedAt)),
	}
	if s.target != nil {
		target := *s.target
		board.Target = &target
	}
	for task, at := range s.board.UpdatedAt {
		board.UpdatedAt[task] = at
	}
	s.mu.RUnlock()

	if board.Batteries == nil {
		board.Batteries = []models.BatterySummary{}
	}
	if board.Matches == nil {
		board.Matches = []models.Match{}
	}
	if board.Rankings == nil {
		board.Rankings = []models.Ranking{}
	}
	board.Stats = s.poller.Stats()
	return board
}

// apply stores a feed result unless the target changed while it was in
// flight.
func (s *liveService) apply(task string, target worker.Target, set func(*LiveBoard)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task != TaskBatteries && (s.target == nil || *s.target != target) {
		return
	}
	set(&s.board)
	s.board.UpdatedAt[task] = s.now().UnixMilli()
}

func (s *liveService) refreshBatteries(ctx context.Context, target worker.Target) error {
	summaries, err := s.batteries.Summaries(ctx)
	if err != nil {
		return err
	}
	s.apply(TaskBatteries, target, func(b *LiveBoard) { b.Batteries = summaries })
	return nil
}

func (s *liveService) refreshMatches(ctx context.Context, target worker.Target) error {
	value, err := s.scouting.Refresh(ctx, FeedMatches, target.EventKey, target.TeamNumber)
	if err != nil {
		return err
	}
	matches, ok := value.([]models.Match)
	if !ok {
		return unexpectedFeed(FeedMatches, value)
	}
	s.apply(TaskMatches, target, func(b *LiveBoard) { b.Matches = matches })
	return nil
}

func (s *liveService) refreshRankings(ctx context.Context, target worker.Target) error {
	value, err := s.scouting.Refresh(ctx, FeedRankings, target.EventKey, target.TeamNumber)
	if err != nil {
		return err
	}
	rankings, ok := value.([]models.Ranking)
	if !ok {
		return unexpectedFeed(FeedRankings, value)
	}
	s.apply(TaskRankings, target, func(b *LiveBoard) { b.Rankings = rankings })
	return nil
}

// refreshTeamStats is a no-op when no team is tracked.
func (s *liveService) refreshTeamStats(ctx context.Context, target worker.Target) error {
	if target.TeamNumber == 0 {
		return nil
	}
	value, err := s.scouting.Refresh(ctx, FeedTeamStats, target.EventKey, target.TeamNumber)
	if err != nil {
		return err
	}
	stats, ok := value.(models.TeamStats)
	if !ok {
		return unexpectedFeed(FeedTeamStats, value)
	}
	s.apply(TaskStatbotics, target, func(b *LiveBoard) { b.TeamStats = &stats })
	return nil
}

func (s *liveService) refreshLive(ctx context.Context, target worker.Target) error {
	value, err := s.scouting.Refresh(ctx, FeedLive, target.EventKey, target.TeamNumber)
	if err != nil {
		return err
	}
	live, ok := value.(models.LiveEvent)
	if !ok {
		return unexpectedFeed(FeedLive, value)
	}
	s.apply(TaskLive, target, func(b *LiveBoard) { b.Live = &live })
	return nil
}

func unexpectedFeed(feed Feed, value any) error {
	return errors.New().WithMessage(errors.ErrInternal, fmt.Sprintf("feed %s returned %T", feed, value))
}
