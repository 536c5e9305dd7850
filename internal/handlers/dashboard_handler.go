package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/models"
	"github.com/dhruvbantval/3128-odyssey/internal/service"

	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

// Probe describes a backing service for the health and stats endpoints.
// Either func may be nil.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
	Stats func(ctx context.Context) (any, error)
}

type DashboardHandler struct {
	batteryService  service.BatteryService
	liveService     service.LiveService
	scoutingService service.ScoutingService
	probes          []Probe
	startedAt       time.Time
}

func NewDashboardHandler(
	batteryService service.BatteryService,
	liveService service.LiveService,
	scoutingService service.ScoutingService,
	probes ...Probe,
) *DashboardHandler {
	return &DashboardHandler{
		batteryService:  batteryService,
		liveService:     liveService,
		scoutingService: scoutingService,
		probes:          probes,
		startedAt:       time.Now(),
	}
}

type dashboardData struct {
	Batteries []models.BatterySummary `json:"batteries"`
	Health    map[models.Health]int   `json:"health"`
	Live      *models.LiveEvent       `json:"live"`
	Stream    *models.Stream          `json:"stream"`
	Board     service.LiveBoard       `json:"board"`
	Errors    []string                `json:"errors,omitempty"`
}

// GetDashboardData godoc
// @Summary Dashboard data
// @Description Battery summaries and live event state in one request.
// @Description Failing sources are reported in errors and left null.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} DashboardResponse
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	ctx := c.Request.Context()

	data := dashboardData{
		Batteries: []models.BatterySummary{},
		Health:    map[models.Health]int{},
		Board:     h.liveService.Board(),
	}

	summaries, err := h.batteryService.Summaries(ctx)
	if err != nil {
		data.Errors = append(data.Errors, "Batteries: "+err.Error())
	} else {
		data.Batteries = summaries
	}
	for _, s := range data.Batteries {
		data.Health[s.Health]++
	}

	if target := data.Board.Target; target != nil {
		if live, err := h.scoutingService.LiveEvent(ctx, target.EventKey); err != nil {
			data.Errors = append(data.Errors, "Live: "+err.Error())
		} else {
			data.Live = &live
		}

		if stream, err := h.scoutingService.Stream(ctx, target.EventKey); err != nil {
			data.Errors = append(data.Errors, "Stream: "+err.Error())
		} else {
			data.Stream = &stream
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheck godoc
// @Summary Service health
// @Description Checks every configured backing service
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *DashboardHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	services := map[string]string{"api": "running"}
	for _, p := range h.probes {
		if p.Check == nil {
			continue
		}
		if err := p.Check(ctx); err != nil {
			services[p.Name] = "unavailable: " + err.Error()
			status = "degraded"
			continue
		}
		services[p.Name] = "connected"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Version:   Version,
		Services:  services,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// GetSystemStats godoc
// @Summary Runtime and backing service statistics
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *DashboardHandler) GetSystemStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := gin.H{
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"runtime": gin.H{
			"goroutines":    runtime.NumGoroutine(),
			"heap_alloc_mb": mem.HeapAlloc / 1024 / 1024,
			"num_gc":        mem.NumGC,
			"go_version":    runtime.Version(),
		},
		"live": h.liveService.Stats(),
	}

	for _, p := range h.probes {
		if p.Stats == nil {
			continue
		}
		value, err := p.Stats(ctx)
		if err != nil {
			stats[p.Name] = gin.H{"error": err.Error()}
			continue
		}
		stats[p.Name] = value
	}

	c.JSON(http.StatusOK, stats)
}

// DashboardResponse is the body of GET /dashboard.
type DashboardResponse struct {
	Success   bool          `json:"success"`
	Data      dashboardData `json:"data"`
	Timestamp string        `json:"timestamp"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
	Timestamp string            `json:"timestamp"`
}
