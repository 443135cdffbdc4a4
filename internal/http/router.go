package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ad2m/missions/internal/http/dashboard"
	"github.com/ad2m/missions/internal/http/directory"
	"github.com/ad2m/missions/internal/http/mission"
	"github.com/ad2m/missions/internal/metrics"
)

type Config struct {
	AllowedOrigins []string
	// MetricsPath is left unmounted when empty.
	MetricsPath string
	// Authenticate guards every /api/v1 route.
	Authenticate func(http.Handler) http.Handler
}

func New(
	cfg Config,
	missionsV1 *mission.Handler,
	dashboardV1 *dashboard.Handler,
	directoryV1 *directory.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.MetricsPath != "" {
		router.Handle(cfg.MetricsPath, metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if cfg.Authenticate != nil {
			r.Use(cfg.Authenticate)
		}

		r.Route("/missions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			missionsV1.Routes(r)
		})

		r.Route("/dashboard", dashboardV1.Routes)

		r.Group(directoryV1.Routes)
	})

	return router
}
