package analytics

import (
	"testing"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/stretchr/testify/assert"
)

func match(red, blue []string, redScore, blueScore int) models.Match {
	return models.Match{
		Alliances: models.MatchAlliances{
			Red:  models.Alliance{Score: redScore, TeamKeys: red},
			Blue: models.Alliance{Score: blueScore, TeamKeys: blue},
		},
	}
}

func TestLocalEPANoMatches(t *testing.T) {
	got := LocalEPA(3128, nil)
	assert.Equal(t, models.EPA{TeamNumber: 3128, Source: models.EPASourceLocal}, got)
}

func TestLocalEPAWithBreakdown(t *testing.T) {
	m := match([]string{"frc3128", "frc254", "frc1678"}, []string{"frc1", "frc2", "frc3"}, 90, 60)
	m.Breakdown = &models.MatchBreakdown{
		Red: &models.ScoreBreakdown{AutoPoints: 30, TeleopPoints: 45, EndgamePoints: 15},
	}

	got := LocalEPA(3128, []models.Match{m})
	assert.Equal(t, 30.0, got.Overall)
	assert.Equal(t, 10.0, got.Auto)
	assert.Equal(t, 15.0, got.Teleop)
	assert.Equal(t, 5.0, got.Endgame)
	assert.Equal(t, models.EPASourceLocal, got.Source)
}

func TestLocalEPAEstimatedSplit(t *testing.T) {
	matches := []models.Match{
		match([]string{"frc1", "frc2", "frc3"}, []string{"frc3128", "frc4", "frc5"}, 40, 60),
		match([]string{"frc3128", "frc6", "frc7"}, []string{"frc8", "frc9", "frc10"}, 30, 50),
		// unplayed and foreign matches are ignored
		match([]string{"frc3128", "frc6", "frc7"}, []string{"frc8", "frc9", "frc10"}, -1, -1),
		match([]string{"frc11", "frc12", "frc13"}, []string{"frc8", "frc9", "frc10"}, 70, 80),
	}

	got := LocalEPA(3128, matches)
	// (60/3 + 30/3) / 2 = 15
	assert.Equal(t, 15.0, got.Overall)
	assert.Equal(t, 4.5, got.Auto)
	assert.Equal(t, 7.5, got.Teleop)
	assert.Equal(t, 3.0, got.Endgame)
}

func TestLocalEPADoesNotMatchTeamPrefix(t *testing.T) {
	m := match([]string{"frc31280", "frc2", "frc3"}, []string{"frc4", "frc5", "frc6"}, 90, 60)
	got := LocalEPA(3128, []models.Match{m})
	assert.Zero(t, got.Overall)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, Round2(100.0/3))
	assert.Equal(t, 0.0, Round2(0.001))
}
