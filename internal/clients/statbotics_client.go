package clients

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

type StatboticsClient interface {
	TeamYear(ctx context.Context, teamNumber, year int) (models.TeamStats, error)
	TeamEvent(ctx context.Context, teamNumber int, eventKey string) (models.TeamStats, error)
	Event(ctx context.Context, eventKey string) (models.EventStats, error)
}

type StatboticsConfig struct {
	BaseURL string
	Timeout time.Duration
}

type statboticsClient struct {
	api *apiClient
}

func NewStatboticsClient(config StatboticsConfig) StatboticsClient {
	return &statboticsClient{
		api: newAPIClient("Statbotics", config.BaseURL, config.Timeout, nil),
	}
}

type sbRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

type sbTeamStats struct {
	Team  int    `json:"team"`
	Year  int    `json:"year"`
	Event string `json:"event"`
	EPA   struct {
		TotalPoints struct {
			Mean float64 `json:"mean"`
		} `json:"total_points"`
		Breakdown struct {
			TotalPoints   *float64 `json:"total_points"`
			AutoPoints    float64  `json:"auto_points"`
			TeleopPoints  float64  `json:"teleop_points"`
			EndgamePoints float64  `json:"endgame_points"`
		} `json:"breakdown"`
	} `json:"epa"`
	Record struct {
		sbRecord
		Total *sbRecord `json:"total"`
	} `json:"record"`
}

func (s sbTeamStats) toModel() models.TeamStats {
	epa := s.EPA.TotalPoints.Mean
	if s.EPA.Breakdown.TotalPoints != nil {
		epa = *s.EPA.Breakdown.TotalPoints
	}

	// team_event nests the overall record under "total"
	rec := s.Record.sbRecord
	if s.Record.Total != nil {
		rec = *s.Record.Total
	}

	played := rec.Wins + rec.Losses + rec.Ties
	winRate := 0.0
	if played > 0 {
		winRate = float64(rec.Wins) / float64(played)
	}

	return models.TeamStats{
		TeamNumber: s.Team,
		Year:       s.Year,
		EventKey:   s.Event,
		EPA:        epa,
		AutoEPA:    s.EPA.Breakdown.AutoPoints,
		TeleopEPA:  s.EPA.Breakdown.TeleopPoints,
		EndgameEPA: s.EPA.Breakdown.EndgamePoints,
		WinRate:    winRate,
		Record:     fmt.Sprintf("%d-%d-%d", rec.Wins, rec.Losses, rec.Ties),
	}
}

func (c *statboticsClient) TeamYear(ctx context.Context, teamNumber, year int) (models.TeamStats, error) {
	var raw sbTeamStats
	if err := c.api.getJSON(ctx, fmt.Sprintf("/team_year/%d/%d", teamNumber, year), &raw); err != nil {
		return models.TeamStats{}, err
	}
	return raw.toModel(), nil
}

func (c *statboticsClient) TeamEvent(ctx context.Context, teamNumber int, eventKey string) (models.TeamStats, error) {
	var raw sbTeamStats
	if err := c.api.getJSON(ctx, fmt.Sprintf("/team_event/%d/%s", teamNumber, url.PathEscape(eventKey)), &raw); err != nil {
		return models.TeamStats{}, err
	}
	return raw.toModel(), nil
}

func (c *statboticsClient) Event(ctx context.Context, eventKey string) (models.EventStats, error) {
	var raw struct {
		Key      string `json:"key"`
		Name     string `json:"name"`
		Year     int    `json:"year"`
		NumTeams int    `json:"num_teams"`
		Status   string `json:"status"`
		EPA      struct {
			Max  float64 `json:"max"`
			Top8 float64 `json:"top_8"`
			Mean float64 `json:"mean"`
		} `json:"epa"`
	}
	if err := c.api.getJSON(ctx, fmt.Sprintf("/event/%s", url.PathEscape(eventKey)), &raw); err != nil {
		return models.EventStats{}, err
	}

	return models.EventStats{
		Key:      raw.Key,
		Name:     raw.Name,
		Year:     raw.Year,
		NumTeams: raw.NumTeams,
		Status:   raw.Status,
		EPAMax:   raw.EPA.Max,
		EPATop8:  raw.EPA.Top8,
		EPAMean:  raw.EPA.Mean,
	}, nil
}
