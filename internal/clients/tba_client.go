package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

type TBAClient interface {
	TeamEventMatches(ctx context.Context, teamNumber int, eventKey string) ([]models.Match, error)
	EventMatches(ctx context.Context, eventKey string) ([]models.Match, error)
	EventTeams(ctx context.Context, eventKey string) ([]models.Team, error)
	EventRankings(ctx context.Context, eventKey string) ([]models.Ranking, error)
	EventWebcasts(ctx context.Context, eventKey string) ([]models.Webcast, error)
}

type TBAConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type tbaClient struct {
	api *apiClient
}

func NewTBAClient(config TBAConfig) TBAClient {
	return &tbaClient{
		api: newAPIClient("TBA", config.BaseURL, config.Timeout, map[string]string{
			"X-TBA-Auth-Key": config.APIKey,
		}),
	}
}

type tbaAlliance struct {
	Score    *int     `json:"score"`
	TeamKeys []string `json:"team_keys"`
}

type tbaMatch struct {
	Key             string `json:"key"`
	EventKey        string `json:"event_key"`
	CompLevel       string `json:"comp_level"`
	SetNumber       int    `json:"set_number"`
	MatchNumber     int    `json:"match_number"`
	WinningAlliance string `json:"winning_alliance"`
	Time            *int64 `json:"time"`
	PredictedTime   *int64 `json:"predicted_time"`
	ActualTime      *int64 `json:"actual_time"`
	Alliances       struct {
		Red  tbaAlliance `json:"red"`
		Blue tbaAlliance `json:"blue"`
	} `json:"alliances"`
	ScoreBreakdown map[string]map[string]json.RawMessage `json:"score_breakdown"`
}

func (m tbaMatch) toModel() models.Match {
	out := models.Match{
		Key:             m.Key,
		EventKey:        m.EventKey,
		CompLevel:       m.CompLevel,
		SetNumber:       m.SetNumber,
		MatchNumber:     m.MatchNumber,
		WinningAlliance: m.WinningAlliance,
		Time:            deref(m.Time),
		PredictedTime:   deref(m.PredictedTime),
		ActualTime:      deref(m.ActualTime),
		Alliances: models.MatchAlliances{
			Red:  m.Alliances.Red.toModel(),
			Blue: m.Alliances.Blue.toModel(),
		},
	}

	if len(m.ScoreBreakdown) > 0 {
		out.Breakdown = &models.MatchBreakdown{
			Red:  breakdown(m.ScoreBreakdown["red"]),
			Blue: breakdown(m.ScoreBreakdown["blue"]),
		}
	}
	return out
}

func (a tbaAlliance) toModel() models.Alliance {
	score := -1
	if a.Score != nil {
		score = *a.Score
	}
	keys := a.TeamKeys
	if keys == nil {
		keys = []string{}
	}
	return models.Alliance{Score: score, TeamKeys: keys}
}

// Breakdown keys vary by game year.
func breakdown(fields map[string]json.RawMessage) *models.ScoreBreakdown {
	if len(fields) == 0 {
		return nil
	}
	return &models.ScoreBreakdown{
		AutoPoints:    number(fields, "autoPoints"),
		TeleopPoints:  number(fields, "teleopPoints"),
		EndgamePoints: number(fields, "endgamePoints", "endGamePoints", "endGameBargePoints", "endGameTotalStagePoints"),
	}
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func (c *tbaClient) matches(ctx context.Context, path string) ([]models.Match, error) {
	var raw []tbaMatch
	if err := c.api.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	matches := make([]models.Match, 0, len(raw))
	for _, m := range raw {
		matches = append(matches, m.toModel())
	}
	return matches, nil
}

func (c *tbaClient) TeamEventMatches(ctx context.Context, teamNumber int, eventKey string) ([]models.Match, error) {
	return c.matches(ctx, fmt.Sprintf("/team/frc%d/event/%s/matches", teamNumber, url.PathEscape(eventKey)))
}

func (c *tbaClient) EventMatches(ctx context.Context, eventKey string) ([]models.Match, error) {
	return c.matches(ctx, fmt.Sprintf("/event/%s/matches", url.PathEscape(eventKey)))
}

func (c *tbaClient) EventTeams(ctx context.Context, eventKey string) ([]models.Team, error) {
	var raw []struct {
		Key        string `json:"key"`
		TeamNumber int    `json:"team_number"`
		Nickname   string `json:"nickname"`
		Name       string `json:"name"`
		City       string `json:"city"`
		StateProv  string `json:"state_prov"`
		Country    string `json:"country"`
	}
	if err := c.api.getJSON(ctx, fmt.Sprintf("/event/%s/teams", url.PathEscape(eventKey)), &raw); err != nil {
		return nil, err
	}

	teams := make([]models.Team, 0, len(raw))
	for _, t := range raw {
		teams = append(teams, models.Team{
			Key:        t.Key,
			TeamNumber: t.TeamNumber,
			Nickname:   t.Nickname,
			Name:       t.Name,
			City:       t.City,
			StateProv:  t.StateProv,
			Country:    t.Country,
		})
	}
	return teams, nil
}

func (c *tbaClient) EventRankings(ctx context.Context, eventKey string) ([]models.Ranking, error) {
	// TBA answers null before rankings exist
	var raw *struct {
		Rankings []struct {
			Rank          int                  `json:"rank"`
			TeamKey       string               `json:"team_key"`
			MatchesPlayed int                  `json:"matches_played"`
			Record        models.WinLossRecord `json:"record"`
			SortOrders    []float64            `json:"sort_orders"`
			DQ            int                  `json:"dq"`
		} `json:"rankings"`
	}
	if err := c.api.getJSON(ctx, fmt.Sprintf("/event/%s/rankings", url.PathEscape(eventKey)), &raw); err != nil {
		return nil, err
	}

	rankings := []models.Ranking{}
	if raw == nil {
		return rankings, nil
	}
	for _, r := range raw.Rankings {
		rankings = append(rankings, models.Ranking{
			Rank:          r.Rank,
			TeamKey:       r.TeamKey,
			MatchesPlayed: r.MatchesPlayed,
			Record:        r.Record,
			SortOrders:    r.SortOrders,
			DQ:            r.DQ,
		})
	}
	return rankings, nil
}

func (c *tbaClient) EventWebcasts(ctx context.Context, eventKey string) ([]models.Webcast, error) {
	var raw struct {
		Webcasts []models.Webcast `json:"webcasts"`
	}
	if err := c.api.getJSON(ctx, fmt.Sprintf("/event/%s", url.PathEscape(eventKey)), &raw); err != nil {
		return nil, err
	}
	if raw.Webcasts == nil {
		return []models.Webcast{}, nil
	}
	return raw.Webcasts, nil
}
