package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
)

const allianceSize = 3

// Split used when a match has no score breakdown for the team's alliance.
const (
	autoShare    = 0.3
	teleopShare  = 0.5
	endgameShare = 0.2
)

// LocalEPA estimates a team's contribution from played matches: each
// alliance score is divided evenly between its three robots.
func LocalEPA(teamNumber int, matches []models.Match) models.EPA {
	epa := models.EPA{TeamNumber: teamNumber, Source: models.EPASourceLocal}
	teamKey := fmt.Sprintf("frc%d", teamNumber)

	var total, auto, teleop, endgame float64
	valid := 0

	for _, m := range matches {
		alliance, breakdown, ok := allianceFor(m, teamKey)
		if !ok || alliance.Score <= 0 {
			continue
		}

		score := float64(alliance.Score)
		total += score / allianceSize

		if breakdown != nil {
			auto += breakdown.AutoPoints / allianceSize
			teleop += breakdown.TeleopPoints / allianceSize
			endgame += breakdown.EndgamePoints / allianceSize
		} else {
			auto += score * autoShare / allianceSize
			teleop += score * teleopShare / allianceSize
			endgame += score * endgameShare / allianceSize
		}
		valid++
	}

	if valid == 0 {
		return epa
	}

	n := float64(valid)
	epa.Overall = Round2(total / n)
	epa.Auto = Round2(auto / n)
	epa.Teleop = Round2(teleop / n)
	epa.Endgame = Round2(endgame / n)
	return epa
}

func allianceFor(m models.Match, teamKey string) (models.Alliance, *models.ScoreBreakdown, bool) {
	var red, blue *models.ScoreBreakdown
	if m.Breakdown != nil {
		red, blue = m.Breakdown.Red, m.Breakdown.Blue
	}

	switch {
	case containsTeam(m.Alliances.Red.TeamKeys, teamKey):
		return m.Alliances.Red, red, true
	case containsTeam(m.Alliances.Blue.TeamKeys, teamKey):
		return m.Alliances.Blue, blue, true
	}
	return models.Alliance{}, nil, false
}

func containsTeam(keys []string, teamKey string) bool {
	for _, k := range keys {
		if strings.EqualFold(k, teamKey) {
			return true
		}
	}
	return false
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
