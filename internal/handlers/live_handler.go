package handlers

import (
	"net/http"
	"strconv"

	"github.com/dhruvbantval/3128-odyssey/internal/service"
	"github.com/dhruvbantval/3128-odyssey/internal/worker"

	"github.com/gin-gonic/gin"
)

type LiveHandler struct {
	service service.LiveService
}

func NewLiveHandler(service service.LiveService) *LiveHandler {
	return &LiveHandler{service: service}
}

// StartLive godoc
// @Summary Start live updates
// @Description Polls batteries, matches, rankings, EPA and live status for
// @Description the event. Restarts when already running.
// @Tags Live
// @Accept json
// @Produce json
// @Param target body worker.Target true "Event and team"
// @Success 200 {object} worker.PollerStats
// @Failure 400 {object} ErrorResponse
// @Router /live/start [post]
func (h *LiveHandler) StartLive(c *gin.Context) {
	var target worker.Target
	if err := c.ShouldBindJSON(&target); err != nil {
		badRequest(c, "request body must be {\"eventKey\": string, \"teamNumber\": number}: "+err.Error())
		return
	}

	if _, err := h.service.Start(target); err != nil {
		respondError(c, "failed to start live updates", err)
		return
	}

	c.JSON(http.StatusOK, h.service.Stats())
}

// StopLive godoc
// @Summary Stop live updates
// @Tags Live
// @Produce json
// @Success 200 {object} worker.PollerStats
// @Router /live/stop [post]
func (h *LiveHandler) StopLive(c *gin.Context) {
	h.service.Stop()
	c.JSON(http.StatusOK, h.service.Stats())
}

// GetStats godoc
// @Summary Live update statistics
// @Tags Live
// @Produce json
// @Param history query int false "Number of recent updates to include"
// @Success 200 {object} map[string]interface{}
// @Router /live/stats [get]
func (h *LiveHandler) GetStats(c *gin.Context) {
	limit := 20
	if s := c.Query("history"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l >= 0 {
			limit = l
		}
	}

	updates := []worker.Update{}
	if limit > 0 {
		updates = h.service.History(limit)
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":   h.service.Stats(),
		"history": updates,
	})
}

// GetBoard godoc
// @Summary Live pit board
// @Description Last good value of every polled feed
// @Tags Live
// @Produce json
// @Success 200 {object} service.LiveBoard
// @Router /live/board [get]
func (h *LiveHandler) GetBoard(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Board())
}
