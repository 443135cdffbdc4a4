package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	actorStore "github.com/ad2m/missions/internal/actor/store"
	"github.com/ad2m/missions/internal/auth"
	"github.com/ad2m/missions/internal/config"
	"github.com/ad2m/missions/internal/dashboard"
	"github.com/ad2m/missions/internal/database"
	missionsHttp "github.com/ad2m/missions/internal/http"
	dashboardHandler "github.com/ad2m/missions/internal/http/dashboard"
	directoryHandler "github.com/ad2m/missions/internal/http/directory"
	missionHandler "github.com/ad2m/missions/internal/http/mission"
	"github.com/ad2m/missions/internal/metrics"
	"github.com/ad2m/missions/internal/mission"
	missionStore "github.com/ad2m/missions/internal/mission/store"
	"github.com/ad2m/missions/internal/notify"
	"github.com/ad2m/missions/internal/roster"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	notifiers := notify.Fanout{metrics.Recorder{}}

	if cfg.NATS.URL != "" {
		bus, closeBus, err := notify.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			slog.Error("failed to connect to nats", "url", cfg.NATS.URL, "error", err)
			os.Exit(1)
		}
		defer closeBus()

		notifiers = append(notifiers, bus)
	}

	var (
		actors           = actorStore.New(db)
		tokens           = auth.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
		missionService   = mission.NewService(missionStore.New(db), actors, mission.WithNotifier(notifiers))
		dashboardService = dashboard.NewService(missionService)
		rosterService    = roster.NewService(actors)
	)

	routerCfg := missionsHttp.Config{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Authenticate:   tokens.Middleware(actors),
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	router := missionsHttp.New(
		routerCfg,
		missionHandler.NewHandler(missionService),
		dashboardHandler.NewHandler(dashboardService),
		directoryHandler.NewHandler(rosterService),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}
}
