package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/dhruvbantval/3128-odyssey/internal/repository"
	"github.com/dhruvbantval/3128-odyssey/internal/service"
	"github.com/dhruvbantval/3128-odyssey/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScouting struct {
	rankings []models.Ranking
	epa      models.EPA
	live     models.LiveEvent
	stream   models.Stream
	err      error
}

func (s *stubScouting) Matches(context.Context, string, int) ([]models.Match, error) {
	return []models.Match{}, s.err
}

func (s *stubScouting) Rankings(context.Context, string) ([]models.Ranking, error) {
	return s.rankings, s.err
}

func (s *stubScouting) Teams(context.Context, string) ([]models.Team, error) {
	return []models.Team{}, s.err
}

func (s *stubScouting) TeamStats(context.Context, int, string) (models.TeamStats, error) {
	return models.TeamStats{}, s.err
}

func (s *stubScouting) EventStats(context.Context, string) (models.EventStats, error) {
	return models.EventStats{}, s.err
}

func (s *stubScouting) EPA(context.Context, int, string) (models.EPA, error) {
	return s.epa, s.err
}

func (s *stubScouting) LiveEvent(context.Context, string) (models.LiveEvent, error) {
	return s.live, s.err
}

func (s *stubScouting) Stream(context.Context, string) (models.Stream, error) {
	return s.stream, s.err
}

func (s *stubScouting) Refresh(context.Context, service.Feed, string, int) (any, error) {
	return nil, s.err
}

func (s *stubScouting) History(context.Context, string, string, int) ([]models.ScoutingSnapshot, error) {
	return []models.ScoutingSnapshot{}, s.err
}

func (s *stubScouting) PruneArchive(context.Context) (int64, error) {
	return 0, nil
}

type testAPI struct {
	router   *gin.Engine
	scouting *stubScouting
	live     service.LiveService
}

func newTestAPI(t *testing.T, probes ...Probe) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	batteries := service.NewBatteryService(repository.NewBatteryRepository(filepath.Join(t.TempDir(), "batteries.json")))
	scouting := &stubScouting{}
	live := service.NewLiveService(batteries, scouting, worker.PollerConfig{Interval: time.Hour})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = live.Shutdown(ctx)
	})

	router := NewRouter(RouterConfig{Debug: true}, Handlers{
		Battery:   NewBatteryHandler(batteries),
		Live:      NewLiveHandler(live),
		Scouting:  NewScoutingHandler(scouting),
		Dashboard: NewDashboardHandler(batteries, live, scouting, probes...),
	})
	return &testAPI{router: router, scouting: scouting, live: live}
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1"+path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestBatteryLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/battery", `{"batteryId":"B1","voltage":12.7,"temperature":31,"status":"discharging"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.BatteryRecord](t, w)
	assert.Equal(t, "B1", created.BatteryID)
	assert.NotEmpty(t, created.ID)

	w = api.do(http.MethodPatch, "/battery/status", `{"batteryId":"B1","status":"charging","notes":"on charger 2"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode[models.BatteryRecord](t, w)
	assert.Equal(t, models.StateCharging, patched.Status)
	assert.Equal(t, created.ID, patched.ID)

	w = api.do(http.MethodGet, "/battery", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.BatteryRecord](t, w), 1)

	w = api.do(http.MethodGet, "/battery/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	summaries := decode[[]models.BatterySummary](t, w)
	require.Len(t, summaries, 1)
	assert.Equal(t, models.HealthGood, summaries[0].Health)

	w = api.do(http.MethodGet, "/battery/summary?id=B1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.BatterySummary](t, w).CycleCount)

	w = api.do(http.MethodDelete, "/battery", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(errors.ErrConfirmationRequired), decode[ErrorResponse](t, w).Code)

	w = api.do(http.MethodDelete, "/battery?confirm=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/battery", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestBatteryErrorsAreMapped(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		message string
	}{
		{"missing voltage", http.MethodPost, "/battery", `{"batteryId":"B1"}`, http.StatusBadRequest, "voltage is required"},
		{"malformed body", http.MethodPost, "/battery", `{"batteryId":`, http.StatusBadRequest, ""},
		{"unknown battery", http.MethodPatch, "/battery/status", `{"batteryId":"B9","status":"idle"}`, http.StatusNotFound, ""},
		{"unknown summary", http.MethodGet, "/battery/summary?id=B9", "", http.StatusNotFound, `battery "B9" has no records`},
		{"bad export format", http.MethodGet, "/battery/export?format=pdf", "", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			resp := decode[ErrorResponse](t, w)
			assert.NotEmpty(t, resp.Message)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestBatteryExport(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/battery", `{"batteryId":"B1","voltage":12.4}`).Code)

	w := api.do(http.MethodGet, "/battery/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("B1")))

	w = api.do(http.MethodGet, "/battery/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	// xlsx is a zip archive
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestScoutingEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.scouting.rankings = []models.Ranking{{Rank: 2, TeamKey: "frc3128"}}
	api.scouting.epa = models.EPA{TeamNumber: 3128, Overall: 31.5, Source: models.EPASourceLocal}

	w := api.do(http.MethodGet, "/scouting/rankings?event=2025casj", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Ranking](t, w), 1)

	w = api.do(http.MethodGet, "/scouting/epa?team=3128", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 31.5, decode[models.EPA](t, w).Overall)

	w = api.do(http.MethodGet, "/scouting/epa?team=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.scouting.err = errors.New().WithMessage(errors.ErrUpstream, "TBA API returned status 503")
	w = api.do(http.MethodGet, "/scouting/rankings?event=2025casj", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "TBA API returned status 503", decode[ErrorResponse](t, w).Message)
}

func TestLiveEndpoints(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/live/start", `{"eventKey":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/live/start", `{"eventKey":"2025casj","teamNumber":3128}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decode[worker.PollerStats](t, w)
	assert.True(t, stats.Active)
	require.NotNil(t, stats.Target)
	assert.Equal(t, "2025casj", stats.Target.EventKey)

	w = api.do(http.MethodGet, "/live/board", "")
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[service.LiveBoard](t, w)
	require.NotNil(t, board.Target)
	assert.Equal(t, 3128, board.Target.TeamNumber)

	w = api.do(http.MethodPost, "/live/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[worker.PollerStats](t, w).Active)

	w = api.do(http.MethodGet, "/live/stats?history=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"history"`)
}

func TestDashboardDegradesFailingSources(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/battery", `{"batteryId":"B1","voltage":11.5}`).Code)

	api.scouting.err = errors.New().WithMessage(errors.ErrUpstream, "Nexus API returned status 500")
	_, err := api.live.Start(worker.Target{EventKey: "2025casj"})
	require.NoError(t, err)
	api.live.Stop()

	w := api.do(http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Success bool `json:"success"`
		Data    struct {
			Batteries []models.BatterySummary `json:"batteries"`
			Health    map[string]int          `json:"health"`
			Live      *models.LiveEvent       `json:"live"`
			Errors    []string                `json:"errors"`
		} `json:"data"`
	}](t, w)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.Batteries, 1)
	assert.Equal(t, 1, resp.Data.Health["warning"])
	assert.Nil(t, resp.Data.Live)
	assert.Len(t, resp.Data.Errors, 2)
}

func TestHealthCheckReportsProbes(t *testing.T) {
	api := newTestAPI(t,
		Probe{Name: "database", Check: func(context.Context) error { return nil }},
		Probe{Name: "redis", Check: func(context.Context) error { return errors.New().New(errors.ErrUnavailable) }},
	)

	w := api.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	health := decode[HealthResponse](t, w)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "connected", health.Services["database"])
	assert.Contains(t, health.Services["redis"], "unavailable")
}

func TestSystemStats(t *testing.T) {
	api := newTestAPI(t, Probe{
		Name:  "cache",
		Stats: func(context.Context) (any, error) { return map[string]string{"backend": "memory"}, nil },
	})

	w := api.do(http.MethodGet, "/system/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	stats := decode[map[string]json.RawMessage](t, w)
	assert.Contains(t, stats, "runtime")
	assert.Contains(t, stats, "live")
	assert.JSONEq(t, `{"backend":"memory"}`, string(stats["cache"]))
}
