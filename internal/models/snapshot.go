package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SourceTBAMatches      = "tba:matches"
	SourceTBARankings     = "tba:rankings"
	SourceTBATeams        = "tba:teams"
	SourceTBAWebcasts     = "tba:webcasts"
	SourceStatboticsTeam  = "statbotics:team"
	SourceStatboticsEvent = "statbotics:event"
	SourceNexusLive       = "nexus:live"
)

// ScoutingSnapshot archives one successful upstream fetch.
type ScoutingSnapshot struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Source    string         `gorm:"not null;index" json:"source"`
	EventKey  string         `gorm:"index" json:"eventKey"`
	FetchedAt time.Time      `gorm:"not null;index" json:"fetchedAt"`
	Payload   datatypes.JSON `gorm:"not null" json:"payload"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
}
