package clients

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

const (
	nexusOnField     = "on field"
	nexusOnDeck      = "on deck"
	nexusNowQueuing  = "now queuing"
	nexusQueuingSoon = "queuing soon"
)

type NexusClient interface {
	Enabled() bool
	LiveEvent(ctx context.Context, eventKey string) (models.LiveEvent, error)
}

type NexusConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type nexusClient struct {
	api     *apiClient
	enabled bool
}

func NewNexusClient(config NexusConfig) NexusClient {
	return &nexusClient{
		api: newAPIClient("Nexus", config.BaseURL, config.Timeout, map[string]string{
			"Nexus-Api-Key": config.APIKey,
		}),
		enabled: config.APIKey != "",
	}
}

// Enabled reports whether an API key is configured; Nexus rejects
// anonymous requests.
func (c *nexusClient) Enabled() bool {
	return c.enabled
}

type nexusMatch struct {
	Label     string   `json:"label"`
	Status    string   `json:"status"`
	RedTeams  []string `json:"redTeams"`
	BlueTeams []string `json:"blueTeams"`
	Times     struct {
		EstimatedStartTime *int64 `json:"estimatedStartTime"`
	} `json:"times"`
}

func (m nexusMatch) toModel() *models.LiveMatch {
	out := &models.LiveMatch{
		Label:     m.Label,
		Status:    m.Status,
		RedTeams:  nonNil(m.RedTeams),
		BlueTeams: nonNil(m.BlueTeams),
	}
	if m.Times.EstimatedStartTime != nil {
		out.EstimatedStartTime = *m.Times.EstimatedStartTime
	}
	return out
}

func (c *nexusClient) LiveEvent(ctx context.Context, eventKey string) (models.LiveEvent, error) {
	var raw struct {
		DataAsOfTime int64        `json:"dataAsOfTime"`
		NowQueuing   *string      `json:"nowQueuing"`
		Matches      []nexusMatch `json:"matches"`
	}
	if err := c.api.getJSON(ctx, fmt.Sprintf("/event/%s", url.PathEscape(eventKey)), &raw); err != nil {
		return models.LiveEvent{}, err
	}

	live := models.LiveEvent{
		EventKey:   eventKey,
		LastUpdate: raw.DataAsOfTime,
	}
	if raw.NowQueuing != nil {
		live.NowQueuing = *raw.NowQueuing
	}

	// matches arrive in schedule order
	for _, m := range raw.Matches {
		switch strings.ToLower(m.Status) {
		case nexusOnField:
			live.CurrentMatch = m.toModel()
		case nexusOnDeck, nexusNowQueuing, nexusQueuingSoon:
			if live.NextMatch == nil {
				live.NextMatch = m.toModel()
			}
		}
	}

	live.IsLive = live.CurrentMatch != nil || live.NowQueuing != ""
	return live, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
