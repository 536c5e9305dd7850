package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhruvbantval/3128-odyssey/internal/handlers"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"
	"github.com/dhruvbantval/3128-odyssey/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const retentionInterval = time.Hour

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg
	if err := logger.Init(cfg.App.LogLevel, cfg.App.LogPretty); err != nil {
		return err
	}

	logger.Info().Str("port", cfg.App.Port).Msg("=== NARPit Dashboard Backend Starting ===")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	scheduler := worker.NewScheduler(cfg.App.ShutdownTimeout)
	if a.db != nil && cfg.Archive.Enabled {
		scheduler.AddWorker(worker.NewRetentionWorker(a.scouting, retentionInterval))
		logger.Info().Dur("retention", cfg.Archive.Retention).Msg("Scouting archive enabled")
	}
	scheduler.Start()

	if cfg.Live.AutoStart && cfg.Live.EventKey != "" {
		target, err := a.live.Start(worker.Target{EventKey: cfg.Live.EventKey, TeamNumber: cfg.Live.TeamNumber})
		if err != nil {
			logger.WarnWithCode(err).Msg("Live updates not started")
		} else {
			logger.Info().Str("event", target.EventKey).Msg("Live updates started on boot")
		}
	}

	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Debug:             cfg.App.Debug,
		FrontendURL:       cfg.App.FrontendURL,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}, handlers.Handlers{
		Battery:   handlers.NewBatteryHandler(a.batteries),
		Live:      handlers.NewLiveHandler(a.live),
		Scouting:  handlers.NewScoutingHandler(a.scouting),
		Dashboard: handlers.NewDashboardHandler(a.batteries, a.live, a.scouting, a.probes()...),
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Msgf("API available at http://localhost:%s/api/v1", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			scheduler.Stop()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithContext(err, "server", "shutdown").Msg("Server forced to shutdown")
		shutdownErr = err
	}
	if err := a.live.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Live updates did not finish in time")
	}
	scheduler.Stop()

	logger.Info().Msg("Server exited properly")
	return shutdownErr
}
