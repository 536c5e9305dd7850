package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, routes map[string]string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const tbaMatches = `[
  {
    "key": "2025casj_qm1",
    "event_key": "2025casj",
    "comp_level": "qm",
    "set_number": 1,
    "match_number": 1,
    "winning_alliance": "red",
    "time": 1741975200,
    "actual_time": 1741975260,
    "alliances": {
      "red": {"score": 96, "team_keys": ["frc3128", "frc254", "frc1678"]},
      "blue": {"score": 71, "team_keys": ["frc1", "frc2", "frc3"]}
    },
    "score_breakdown": {
      "red": {"autoPoints": 30, "teleopPoints": 50, "endGameBargePoints": 16, "coralBonusAchieved": true},
      "blue": {"autoPoints": 20, "teleopPoints": 41, "endGameBargePoints": 10}
    }
  },
  {
    "key": "2025casj_qm2",
    "event_key": "2025casj",
    "comp_level": "qm",
    "set_number": 1,
    "match_number": 2,
    "winning_alliance": "",
    "time": null,
    "alliances": {
      "red": {"score": null, "team_keys": ["frc3128", "frc4", "frc5"]},
      "blue": {"score": -1, "team_keys": ["frc6", "frc7", "frc8"]}
    },
    "score_breakdown": null
  }
]`

func TestTBAClientMatches(t *testing.T) {
	srv := serve(t, map[string]string{
		"/team/frc3128/event/2025casj/matches": tbaMatches,
		"/event/2025casj/matches":              tbaMatches,
	}, func(r *http.Request) {
		assert.Equal(t, "tba-key", r.Header.Get("X-TBA-Auth-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
	})

	client := NewTBAClient(TBAConfig{BaseURL: srv.URL, APIKey: "tba-key"})

	matches, err := client.TeamEventMatches(context.Background(), 3128, "2025casj")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	first := matches[0]
	assert.Equal(t, "2025casj_qm1", first.Key)
	assert.Equal(t, 96, first.Alliances.Red.Score)
	assert.Equal(t, []string{"frc3128", "frc254", "frc1678"}, first.Alliances.Red.TeamKeys)
	assert.True(t, first.Played())
	require.NotNil(t, first.Breakdown)
	assert.Equal(t, 30.0, first.Breakdown.Red.AutoPoints)
	assert.Equal(t, 16.0, first.Breakdown.Red.EndgamePoints)

	second := matches[1]
	assert.Equal(t, -1, second.Alliances.Red.Score)
	assert.False(t, second.Played())
	assert.Nil(t, second.Breakdown)
	assert.Zero(t, second.Time)

	all, err := client.EventMatches(context.Background(), "2025casj")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTBAClientTeamsRankingsWebcasts(t *testing.T) {
	srv := serve(t, map[string]string{
		"/event/2025casj/teams": `[{"key":"frc3128","team_number":3128,"nickname":"Aluminum Narwhals","city":"San Diego","state_prov":"California","country":"USA"}]`,
		"/event/2025casj/rankings": `{"rankings":[{"rank":1,"team_key":"frc3128","matches_played":8,
			"record":{"wins":7,"losses":1,"ties":0},"sort_orders":[3.1,120.5],"dq":0}]}`,
		"/event/2025casj":          `{"key":"2025casj","webcasts":[{"type":"twitch","channel":"firstinspires1"}]}`,
		"/event/2025none/rankings": `null`,
	}, nil)

	client := NewTBAClient(TBAConfig{BaseURL: srv.URL})
	ctx := context.Background()

	teams, err := client.EventTeams(ctx, "2025casj")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, 3128, teams[0].TeamNumber)
	assert.Equal(t, "Aluminum Narwhals", teams[0].Nickname)
	assert.Equal(t, "California", teams[0].StateProv)

	rankings, err := client.EventRankings(ctx, "2025casj")
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, 7, rankings[0].Record.Wins)
	assert.Equal(t, []float64{3.1, 120.5}, rankings[0].SortOrders)

	empty, err := client.EventRankings(ctx, "2025none")
	require.NoError(t, err)
	assert.Empty(t, empty)

	webcasts, err := client.EventWebcasts(ctx, "2025casj")
	require.NoError(t, err)
	require.Len(t, webcasts, 1)
	assert.Equal(t, "twitch", webcasts[0].Type)
}

func TestTBAClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/event/broken/teams":
			_, _ = w.Write([]byte(`{"not":"a list"`))
		case "/event/down/teams":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewTBAClient(TBAConfig{BaseURL: srv.URL})
	ctx := context.Background()

	_, err := client.EventTeams(ctx, "missing")
	assert.Equal(t, errors.ErrResourceNotFound, errors.CodeOf(err))

	_, err = client.EventTeams(ctx, "down")
	assert.Equal(t, errors.ErrUpstream, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "503")

	_, err = client.EventTeams(ctx, "broken")
	assert.Equal(t, errors.ErrUpstream, errors.CodeOf(err))
}

func TestTBAClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewTBAClient(TBAConfig{BaseURL: url}).EventMatches(context.Background(), "2025casj")
	require.Error(t, err)
	assert.Equal(t, errors.ErrUpstream, errors.CodeOf(err))
}

func TestStatboticsClient(t *testing.T) {
	srv := serve(t, map[string]string{
		"/team_year/3128/2025": `{"team":3128,"year":2025,
			"epa":{"total_points":{"mean":61.2,"sd":9.1},"breakdown":{"total_points":62.5,"auto_points":18.25,"teleop_points":34,"endgame_points":10.25}},
			"record":{"wins":20,"losses":8,"ties":2,"count":30,"winrate":0.7}}`,
		"/team_event/3128/2025casj": `{"team":3128,"year":2025,"event":"2025casj",
			"epa":{"total_points":{"mean":58.0},"breakdown":{"auto_points":15,"teleop_points":33,"endgame_points":10}},
			"record":{"qual":{"wins":6,"losses":2,"ties":0},"total":{"wins":9,"losses":3,"ties":0}}}`,
		"/event/2025casj": `{"key":"2025casj","name":"Silicon Valley Regional","year":2025,"num_teams":48,"status":"Ongoing",
			"epa":{"max":88.1,"top_8":70.2,"top_24":55.0,"mean":41.7,"sd":14.2}}`,
	}, nil)

	client := NewStatboticsClient(StatboticsConfig{BaseURL: srv.URL})
	ctx := context.Background()

	year, err := client.TeamYear(ctx, 3128, 2025)
	require.NoError(t, err)
	assert.Equal(t, 62.5, year.EPA)
	assert.Equal(t, 18.25, year.AutoEPA)
	assert.Equal(t, "20-8-2", year.Record)
	assert.InDelta(t, 20.0/30.0, year.WinRate, 1e-9)

	event, err := client.TeamEvent(ctx, 3128, "2025casj")
	require.NoError(t, err)
	assert.Equal(t, 58.0, event.EPA)
	assert.Equal(t, "2025casj", event.EventKey)
	assert.Equal(t, "9-3-0", event.Record)

	stats, err := client.Event(ctx, "2025casj")
	require.NoError(t, err)
	assert.Equal(t, 48, stats.NumTeams)
	assert.Equal(t, 88.1, stats.EPAMax)
	assert.Equal(t, "Silicon Valley Regional", stats.Name)
}

func TestNexusClient(t *testing.T) {
	srv := serve(t, map[string]string{
		"/event/2025casj": `{"eventKey":"2025casj","dataAsOfTime":1741975300000,"nowQueuing":"Qualification 14",
			"matches":[
			  {"label":"Qualification 12","status":"Completed","redTeams":["3128"],"blueTeams":["254"]},
			  {"label":"Qualification 13","status":"On field","redTeams":["1","2","3"],"blueTeams":["4","5","6"],"times":{"estimatedStartTime":1741975200000}},
			  {"label":"Qualification 14","status":"Now queuing","redTeams":["3128","7","8"],"blueTeams":["9","10","11"]},
			  {"label":"Qualification 15","status":"Queuing soon"}
			]}`,
		"/event/2025quiet": `{"dataAsOfTime":1741975300000,"nowQueuing":null,"matches":[{"label":"Practice 1","status":"Queuing soon"}]}`,
	}, func(r *http.Request) {
		assert.Equal(t, "nexus-key", r.Header.Get("Nexus-Api-Key"))
	})

	client := NewNexusClient(NexusConfig{BaseURL: srv.URL, APIKey: "nexus-key"})
	assert.True(t, client.Enabled())

	live, err := client.LiveEvent(context.Background(), "2025casj")
	require.NoError(t, err)
	assert.True(t, live.IsLive)
	assert.Equal(t, "Qualification 14", live.NowQueuing)
	require.NotNil(t, live.CurrentMatch)
	assert.Equal(t, "Qualification 13", live.CurrentMatch.Label)
	assert.Equal(t, int64(1741975200000), live.CurrentMatch.EstimatedStartTime)
	require.NotNil(t, live.NextMatch)
	assert.Equal(t, "Qualification 14", live.NextMatch.Label)
	assert.Equal(t, int64(1741975300000), live.LastUpdate)

	quiet, err := client.LiveEvent(context.Background(), "2025quiet")
	require.NoError(t, err)
	assert.False(t, quiet.IsLive)
	assert.Nil(t, quiet.CurrentMatch)
	require.NotNil(t, quiet.NextMatch)
	assert.Empty(t, quiet.NextMatch.RedTeams)
}

func TestNexusClientDisabledWithoutKey(t *testing.T) {
	assert.False(t, NewNexusClient(NexusConfig{BaseURL: "http://unused"}).Enabled())
}
