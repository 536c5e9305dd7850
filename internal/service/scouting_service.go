package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/analytics"
	"github.com/dhruvbantval/3128-odyssey/internal/clients"
	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/dhruvbantval/3128-odyssey/internal/repository"
)

const (
	fallbackChannel   = "FIRSTINSPIRES"
	fallbackStreamURL = "https://www.youtube.com/embed/live_stream?channel=FIRSTINSPIRES&autoplay=1"
)

var eventKeyPattern = regexp.MustCompile(`^[0-9]{4}[a-z0-9]+$`)

type Feed string

const (
	FeedMatches    Feed = "matches"
	FeedRankings   Feed = "rankings"
	FeedTeams      Feed = "teams"
	FeedTeamStats  Feed = "statbotics"
	FeedEventStats Feed = "event-stats"
	FeedLive       Feed = "live"
)

type ScoutingService interface {
	Matches(ctx context.Context, eventKey string, teamNumber int) ([]models.Match, error)
	Rankings(ctx context.Context, eventKey string) ([]models.Ranking, error)
	Teams(ctx context.Context, eventKey string) ([]models.Team, error)
	TeamStats(ctx context.Context, teamNumber int, eventKey string) (models.TeamStats, error)
	EventStats(ctx context.Context, eventKey string) (models.EventStats, error)
	EPA(ctx context.Context, teamNumber int, eventKey string) (models.EPA, error)
	LiveEvent(ctx context.Context, eventKey string) (models.LiveEvent, error)
	Stream(ctx context.Context, eventKey string) (models.Stream, error)
	Refresh(ctx context.Context, feed Feed, eventKey string, teamNumber int) (any, error)
	History(ctx context.Context, source, eventKey string, limit int) ([]models.ScoutingSnapshot, error)
	PruneArchive(ctx context.Context) (int64, error)
}

type ScoutingConfig struct {
	StatboticsYear   int
	MatchesTTL       time.Duration
	RankingsTTL      time.Duration
	TeamsTTL         time.Duration
	EPATTL           time.Duration
	StreamTTL        time.Duration
	ArchiveRetention time.Duration
	// StreamParent is the embedding host Twitch requires.
	StreamParent string
}

type scoutingService struct {
	tba        clients.TBAClient
	statbotics clients.StatboticsClient
	nexus      clients.NexusClient
	cache      repository.CacheRepository
	archive    repository.SnapshotRepository
	config     ScoutingConfig
	now        func() time.Time
}

// NewScoutingService wires the upstream clients. archive may be nil when
// no database is configured.
func NewScoutingService(
	tba clients.TBAClient,
	statbotics clients.StatboticsClient,
	nexus clients.NexusClient,
	cache repository.CacheRepository,
	archive repository.SnapshotRepository,
	config ScoutingConfig,
) ScoutingService {
	if config.StatboticsYear == 0 {
		config.StatboticsYear = time.Now().Year()
	}
	if config.StreamParent == "" {
		config.StreamParent = "localhost"
	}
	return &scoutingService{
		tba:        tba,
		statbotics: statbotics,
		nexus:      nexus,
		cache:      cache,
		archive:    archive,
		config:     config,
		now:        time.Now,
	}
}

type feedDef[T any] struct {
	key      string
	ttl      time.Duration
	source   string
	eventKey string
	fetch    func(context.Context) (T, error)
}

// load serves def from cache unless fresh is set, otherwise fetches
// upstream and stores the result in cache and archive.
func load[T any](ctx context.Context, s *scoutingService, def feedDef[T], fresh bool) (T, error) {
	if !fresh {
		var cached T
		found, err := s.cache.GetJSON(ctx, def.key, &cached)
		if err != nil {
			logger.Warn().Err(err).Str("key", def.key).Msg("Cache read failed")
		}
		if found {
			return cached, nil
		}
	}

	value, err := def.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := s.cache.SetJSON(ctx, def.key, value, def.ttl); err != nil {
		logger.Warn().Err(err).Str("key", def.key).Msg("Cache write failed")
	}
	s.store(ctx, def.source, def.eventKey, value)

	return value, nil
}

func (s *scoutingService) store(ctx context.Context, source, eventKey string, value any) {
	if s.archive == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Warn().Err(err).Str("source", source).Msg("Failed to encode snapshot")
		return
	}

	snapshot := &models.ScoutingSnapshot{
		Source:    source,
		EventKey:  eventKey,
		FetchedAt: s.now().UTC(),
		Payload:   payload,
	}
	if err := s.archive.Create(ctx, snapshot); err != nil {
		logger.ErrorWithContext(err, "scouting", "archive").Str("source", source).Msg("Failed to archive snapshot")
	}
}

func normalizeEventKey(eventKey string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(eventKey))
	if !eventKeyPattern.MatchString(key) {
		return "", errors.New().WithMessage(errors.ErrValidation,
			fmt.Sprintf("invalid event key %q, expected a year followed by the event code (e.g. 2025casj)", eventKey))
	}
	return key, nil
}

func requireTeam(teamNumber int) error {
	if teamNumber <= 0 {
		return errors.New().WithMessage(errors.ErrValidation, "teamNumber must be a positive integer")
	}
	return nil
}

func (s *scoutingService) matchesSpec(eventKey string, teamNumber int) feedDef[[]models.Match] {
	return feedDef[[]models.Match]{
		key:      fmt.Sprintf("tba:matches:%s:%d", eventKey, teamNumber),
		ttl:      s.config.MatchesTTL,
		source:   models.SourceTBAMatches,
		eventKey: eventKey,
		fetch: func(ctx context.Context) ([]models.Match, error) {
			if teamNumber > 0 {
				return s.tba.TeamEventMatches(ctx, teamNumber, eventKey)
			}
			return s.tba.EventMatches(ctx, eventKey)
		},
	}
}

func (s *scoutingService) rankingsSpec(eventKey string) feedDef[[]models.Ranking] {
	return feedDef[[]models.Ranking]{
		key:      "tba:rankings:" + eventKey,
		ttl:      s.config.RankingsTTL,
		source:   models.SourceTBARankings,
		eventKey: eventKey,
		fetch: func(ctx context.Context) ([]models.Ranking, error) {
			return s.tba.EventRankings(ctx, eventKey)
		},
	}
}

func (s *scoutingService) teamsSpec(eventKey string) feedDef[[]models.Team] {
	return feedDef[[]models.Team]{
		key:      "tba:teams:" + eventKey,
		ttl:      s.config.TeamsTTL,
		source:   models.SourceTBATeams,
		eventKey: eventKey,
		fetch: func(ctx context.Context) ([]models.Team, error) {
			return s.tba.EventTeams(ctx, eventKey)
		},
	}
}

func (s *scoutingService) teamStatsSpec(teamNumber int, eventKey string) feedDef[models.TeamStats] {
	scope := strconv.Itoa(s.config.StatboticsYear)
	if eventKey != "" {
		scope = eventKey
	}
	return feedDef[models.TeamStats]{
		key:      fmt.Sprintf("statbotics:team:%d:%s", teamNumber, scope),
		ttl:      s.config.EPATTL,
		source:   models.SourceStatboticsTeam,
		eventKey: eventKey,
		fetch: func(ctx context.Context) (models.TeamStats, error) {
			if eventKey != "" {
				return s.statbotics.TeamEvent(ctx, teamNumber, eventKey)
			}
			return s.statbotics.TeamYear(ctx, teamNumber, s.config.StatboticsYear)
		},
	}
}

func (s *scoutingService) eventStatsSpec(eventKey string) feedDef[models.EventStats] {
	return feedDef[models.EventStats]{
		key:      "statbotics:event:" + eventKey,
		ttl:      s.config.EPATTL,
		source:   models.SourceStatboticsEvent,
		eventKey: eventKey,
		fetch: func(ctx context.Context) (models.EventStats, error) {
			return s.statbotics.Event(ctx, eventKey)
		},
	}
}

func (s *scoutingService) liveSpec(eventKey string) feedDef[models.LiveEvent] {
	return feedDef[models.LiveEvent]{
		key:      "nexus:live:" + eventKey,
		ttl:      s.config.MatchesTTL,
		source:   models.SourceNexusLive,
		eventKey: eventKey,
		fetch: func(ctx context.Context) (models.LiveEvent, error) {
			return s.nexus.LiveEvent(ctx, eventKey)
		},
	}
}

func (s *scoutingService) Matches(ctx context.Context, eventKey string, teamNumber int) ([]models.Match, error) {
	key, err := normalizeEventKey(eventKey)
	if err != nil {
		return nil, err
	}
	if teamNumber < 0 {
		return nil, requireTeam(teamNumber)
	}
	return load(ctx, s, s.matchesSpec(key, teamNumber), false)
}

func (s *scoutingService) Rankings(ctx context.Context, eventKey string) ([]models.Ranking, error) {
	key, err := normalizeEventKey(eventKey)
	if err != nil {
		return nil, err
	}
	return load(ctx, s, s.rankingsSpec(key), false)
}

func (s *scoutingService) Teams(ctx context.Context, eventKey string) ([]models.Team, error) {
	key, err := normalizeEventKey(eventKey)
	if err != nil {
		return nil, err
	}
	return load(ctx, s, s.teamsSpec(key), false)
}

// TeamStats reads season stats when eventKey is empty.
func (s *scoutingService) TeamStats(ctx context.Context, teamNumber int, eventKey string) (models.TeamStats, error) {
	if err := requireTeam(teamNumber); err != nil {
		return models.TeamStats{}, err
	}
	key := ""
	if eventKey != "" {
		var err error
		if key, err = normalizeEventKey(eventKey); err != nil {
			return models.TeamStats{}, err
		}
	}
	return load(ctx, s, s.teamStatsSpec(teamNumber, key), false)
}

func (s *scoutingService) EventStats(ctx context.Context, eventKey string) (models.EventStats, error) {
	key, err := normalizeEventKey(eventKey)
	if err != nil {
		return models.EventStats{}, err
	}
	return load(ctx, s, s.eventStatsSpec(key), false)
}

// EPA prefers Statbotics and falls back to an estimate from TBA match
// scores. Upstream failures degrade to a zero local estimate.
func (s *scoutingService) EPA(ctx context.Context, teamNumber int, eventKey string) (models.EPA, error) {
	if err := requireTeam(teamNumber); err != nil {
		return models.EPA{}, err
	}
	key := ""
	if eventKey != "" {
		var err error
		if key, err = normalizeEventKey(eventKey); err != nil {
			return models.EPA{}, err
		}
	}

	stats, err := s.TeamStats(ctx, teamNumber, key)
	if err == nil && stats.EPA > 0 {
		return models.EPA{
			TeamNumber: teamNumber,
			EventKey:   key,
			Overall:    analytics.Round2(stats.EPA),
			Auto:       analytics.Round2(stats.AutoEPA),
			Teleop:     analytics.Round2(stats.TeleopEPA),
			Endgame:    analytics.Round2(stats.EndgameEPA),
			Source:     models.EPASourceStatbotics,
		}, nil
	}
	if err != nil {
		logger.WarnWithCode(err).Int("team", teamNumber).Msg("Statbotics unavailable, estimating EPA locally")
	}

	var matches []models.Match
	if key != "" {
		matches, err = s.Matches(ctx, key, teamNumber)
		if err != nil {
			logger.WarnWithCode(err).Int("team", teamNumber).Msg("TBA matches unavailable for EPA estimate")
		}
	}

	epa := analytics.LocalEPA(teamNumber, matches)
	epa.EventKey = key
	return epa, nil
}

// LiveEvent reports a not-live status when Nexus is not configured.
func (s *scoutingService) LiveEvent(ctx context.Context, eventKey string) (models.LiveEvent, error) {
	key, err := normalizeEventKey(eventKey)
	if err != nil {
		return models.LiveEvent{}, err
	}
	if !s.nexus.Enabled() {
		return s.idleLiveEvent(key), nil
	}
	return load(ctx, s, s.liveSpec(key), false)
}

func (s *scoutingService) idleLiveEvent(eventKey string) models.LiveEvent {
	return models.LiveEvent{
		EventKey:   eventKey,
		IsLive:     false,
		LastUpdate: s.now().UnixMilli(),
	}
}

// Stream resolves the first TBA webcast, falling back to the FIRST channel.
func (s *scoutingService) Stream(ctx context.Context, eventKey string) (models.Stream, error) {
	key, err := normalizeEventKey(eventKey)
	if err != nil {
		return models.Stream{}, err
	}

	webcasts, err := load(ctx, s, feedDef[[]models.Webcast]{
		key:      "tba:webcasts:" + key,
		ttl:      s.config.StreamTTL,
		source:   models.SourceTBAWebcasts,
		eventKey: key,
		fetch: func(ctx context.Context) ([]models.Webcast, error) {
			return s.tba.EventWebcasts(ctx, key)
		},
	}, false)
	if err != nil {
		logger.WarnWithCode(err).Str("event", key).Msg("Webcasts unavailable, using default stream")
		return fallbackStream(), nil
	}
	if len(webcasts) == 0 {
		return fallbackStream(), nil
	}
	return formatStream(webcasts[0], s.config.StreamParent), nil
}

func fallbackStream() models.Stream {
	return models.Stream{Type: "youtube", Channel: fallbackChannel, URL: fallbackStreamURL}
}

func formatStream(w models.Webcast, parent string) models.Stream {
	if w.Type == "" {
		return fallbackStream()
	}

	channel := w.Channel
	if channel == "" {
		channel = fallbackChannel
	}

	switch w.Type {
	case "youtube":
		return models.Stream{
			Type:    "youtube",
			Channel: channel,
			URL:     fmt.Sprintf("https://www.youtube.com/embed/%s/live?autoplay=1", url.PathEscape(channel)),
		}
	case "twitch":
		return models.Stream{
			Type:    "twitch",
			Channel: channel,
			URL: fmt.Sprintf("https://player.twitch.tv/?channel=%s&parent=%s&autoplay=true",
				url.QueryEscape(channel), url.QueryEscape(parent)),
		}
	default:
		target := w.File
		if target == "" {
			target = fallbackStreamURL
		}
		return models.Stream{Type: "direct", URL: target}
	}
}

// Refresh bypasses the cache and re-fetches one feed; the live poller
// drives this.
func (s *scoutingService) Refresh(ctx context.Context, feed Feed, eventKey string, teamNumber int) (any, error) {
	key, err := normalizeEventKey(eventKey)
	if err != nil {
		return nil, err
	}

	switch feed {
	case FeedMatches:
		return load(ctx, s, s.matchesSpec(key, max(teamNumber, 0)), true)
	case FeedRankings:
		return load(ctx, s, s.rankingsSpec(key), true)
	case FeedTeams:
		return load(ctx, s, s.teamsSpec(key), true)
	case FeedTeamStats:
		if err := requireTeam(teamNumber); err != nil {
			return nil, err
		}
		return load(ctx, s, s.teamStatsSpec(teamNumber, key), true)
	case FeedEventStats:
		return load(ctx, s, s.eventStatsSpec(key), true)
	case FeedLive:
		if !s.nexus.Enabled() {
			return s.idleLiveEvent(key), nil
		}
		return load(ctx, s, s.liveSpec(key), true)
	default:
		return nil, errors.New().WithMessage(errors.ErrValidation, fmt.Sprintf("unknown feed %q", feed))
	}
}

func (s *scoutingService) History(ctx context.Context, source, eventKey string, limit int) ([]models.ScoutingSnapshot, error) {
	if s.archive == nil {
		return []models.ScoutingSnapshot{}, nil
	}
	if source == "" {
		return nil, errors.New().WithMessage(errors.ErrValidation, "source is required")
	}
	if eventKey != "" {
		key, err := normalizeEventKey(eventKey)
		if err != nil {
			return nil, err
		}
		eventKey = key
	}

	snapshots, err := s.archive.GetBySource(ctx, source, eventKey, limit)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrStorageRead, err)
	}
	return snapshots, nil
}

func (s *scoutingService) PruneArchive(ctx context.Context) (int64, error) {
	if s.archive == nil || s.config.ArchiveRetention <= 0 {
		return 0, nil
	}
	return s.archive.DeleteOld(ctx, s.now().Add(-s.config.ArchiveRetention))
}
