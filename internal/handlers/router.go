package handlers

import (
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	Debug             bool
	FrontendURL       string
	RequestsPerSecond int
	Burst             int
}

type Handlers struct {
	Battery   *BatteryHandler
	Live      *LiveHandler
	Scouting  *ScoutingHandler
	Dashboard *DashboardHandler
}

// NewRouter builds the engine serving /api/v1. Rate limiting is off in
// debug mode.
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	origins := []string{"http://localhost:3000"}
	if cfg.FrontendURL != "" && cfg.FrontendURL != origins[0] {
		origins = append(origins, cfg.FrontendURL)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if !cfg.Debug && cfg.RequestsPerSecond > 0 {
		limit := rate.Limit(cfg.RequestsPerSecond)
		r.Use(middleware.RateLimitMiddleware(rate.NewLimiter(limit*4, cfg.Burst*4)))
		r.Use(middleware.IPRateLimitMiddleware(middleware.NewIPRateLimiter(limit, cfg.Burst)))
	}

	api := r.Group("/api/v1")

	battery := api.Group("/battery")
	battery.GET("", h.Battery.ListRecords)
	battery.POST("", h.Battery.AddRecord)
	battery.DELETE("", h.Battery.ClearRecords)
	battery.PATCH("/status", h.Battery.UpdateStatus)
	battery.GET("/summary", h.Battery.GetSummaries)
	battery.GET("/export", h.Battery.ExportRecords)

	live := api.Group("/live")
	live.POST("/start", h.Live.StartLive)
	live.POST("/stop", h.Live.StopLive)
	live.GET("/stats", h.Live.GetStats)
	live.GET("/board", h.Live.GetBoard)

	scouting := api.Group("/scouting")
	scouting.GET("/matches", h.Scouting.GetMatches)
	scouting.GET("/rankings", h.Scouting.GetRankings)
	scouting.GET("/teams", h.Scouting.GetTeams)
	scouting.GET("/epa", h.Scouting.GetEPA)
	scouting.GET("/event", h.Scouting.GetEventStats)
	scouting.GET("/live", h.Scouting.GetLive)
	scouting.GET("/stream", h.Scouting.GetStream)
	scouting.GET("/history", h.Scouting.GetHistory)

	api.GET("/dashboard", h.Dashboard.GetDashboardData)
	api.GET("/health", h.Dashboard.HealthCheck)
	api.GET("/system/stats", h.Dashboard.GetSystemStats)

	return r
}
