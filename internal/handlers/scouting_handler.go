package handlers

import (
	"net/http"
	"strconv"

	"github.com/dhruvbantval/3128-odyssey/internal/service"

	"github.com/gin-gonic/gin"
)

type ScoutingHandler struct {
	service service.ScoutingService
}

func NewScoutingHandler(service service.ScoutingService) *ScoutingHandler {
	return &ScoutingHandler{service: service}
}

// teamParam reads ?team=, 0 when absent.
func teamParam(c *gin.Context) (int, bool) {
	s := c.Query("team")
	if s == "" {
		return 0, true
	}
	team, err := strconv.Atoi(s)
	if err != nil || team < 0 {
		badRequest(c, "team must be a positive integer")
		return 0, false
	}
	return team, true
}

// GetMatches godoc
// @Summary Event matches
// @Description Matches of an event, or only those of one team when team is set
// @Tags Scouting
// @Produce json
// @Param event query string true "TBA event key, e.g. 2025casj"
// @Param team query int false "Team number"
// @Success 200 {array} models.Match
// @Failure 502 {object} ErrorResponse
// @Router /scouting/matches [get]
func (h *ScoutingHandler) GetMatches(c *gin.Context) {
	team, ok := teamParam(c)
	if !ok {
		return
	}

	matches, err := h.service.Matches(c.Request.Context(), c.Query("event"), team)
	if err != nil {
		respondError(c, "failed to get matches", err)
		return
	}

	c.JSON(http.StatusOK, matches)
}

// GetRankings godoc
// @Summary Event rankings
// @Tags Scouting
// @Produce json
// @Param event query string true "TBA event key"
// @Success 200 {array} models.Ranking
// @Router /scouting/rankings [get]
func (h *ScoutingHandler) GetRankings(c *gin.Context) {
	rankings, err := h.service.Rankings(c.Request.Context(), c.Query("event"))
	if err != nil {
		respondError(c, "failed to get rankings", err)
		return
	}

	c.JSON(http.StatusOK, rankings)
}

// GetTeams godoc
// @Summary Teams attending an event
// @Tags Scouting
// @Produce json
// @Param event query string true "TBA event key"
// @Success 200 {array} models.Team
// @Router /scouting/teams [get]
func (h *ScoutingHandler) GetTeams(c *gin.Context) {
	teams, err := h.service.Teams(c.Request.Context(), c.Query("event"))
	if err != nil {
		respondError(c, "failed to get teams", err)
		return
	}

	c.JSON(http.StatusOK, teams)
}

// GetEPA godoc
// @Summary Team EPA
// @Description Statbotics EPA, or a local estimate from match scores when
// @Description Statbotics has nothing
// @Tags Scouting
// @Produce json
// @Param team query int true "Team number"
// @Param event query string false "TBA event key; season EPA when empty"
// @Success 200 {object} models.EPA
// @Router /scouting/epa [get]
func (h *ScoutingHandler) GetEPA(c *gin.Context) {
	team, ok := teamParam(c)
	if !ok {
		return
	}

	epa, err := h.service.EPA(c.Request.Context(), team, c.Query("event"))
	if err != nil {
		respondError(c, "failed to get EPA", err)
		return
	}

	c.JSON(http.StatusOK, epa)
}

// GetEventStats godoc
// @Summary Event EPA statistics
// @Tags Scouting
// @Produce json
// @Param event query string true "TBA event key"
// @Success 200 {object} models.EventStats
// @Router /scouting/event [get]
func (h *ScoutingHandler) GetEventStats(c *gin.Context) {
	stats, err := h.service.EventStats(c.Request.Context(), c.Query("event"))
	if err != nil {
		respondError(c, "failed to get event statistics", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetLive godoc
// @Summary Live queueing status
// @Tags Scouting
// @Produce json
// @Param event query string true "TBA event key"
// @Success 200 {object} models.LiveEvent
// @Router /scouting/live [get]
func (h *ScoutingHandler) GetLive(c *gin.Context) {
	live, err := h.service.LiveEvent(c.Request.Context(), c.Query("event"))
	if err != nil {
		respondError(c, "failed to get live event status", err)
		return
	}

	c.JSON(http.StatusOK, live)
}

// GetStream godoc
// @Summary Embeddable event stream
// @Tags Scouting
// @Produce json
// @Param event query string true "TBA event key"
// @Success 200 {object} models.Stream
// @Router /scouting/stream [get]
func (h *ScoutingHandler) GetStream(c *gin.Context) {
	stream, err := h.service.Stream(c.Request.Context(), c.Query("event"))
	if err != nil {
		respondError(c, "failed to get stream", err)
		return
	}

	c.JSON(http.StatusOK, stream)
}

// GetHistory godoc
// @Summary Archived upstream payloads
// @Tags Scouting
// @Produce json
// @Param source query string true "Feed, e.g. tba:rankings"
// @Param event query string false "TBA event key"
// @Param limit query int false "Max snapshots" default(20)
// @Success 200 {array} models.ScoutingSnapshot
// @Router /scouting/history [get]
func (h *ScoutingHandler) GetHistory(c *gin.Context) {
	limit := 20
	if s := c.Query("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}

	history, err := h.service.History(c.Request.Context(), c.Query("source"), c.Query("event"), limit)
	if err != nil {
		respondError(c, "failed to get archived snapshots", err)
		return
	}

	c.JSON(http.StatusOK, history)
}
