package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/topteen77/indo-israel-sub001/internal/config"
	"github.com/topteen77/indo-israel-sub001/internal/hermes"
	"github.com/topteen77/indo-israel-sub001/internal/routing"
	"github.com/topteen77/indo-israel-sub001/internal/scoring"
	"github.com/topteen77/indo-israel-sub001/internal/store"
	"github.com/topteen77/indo-israel-sub001/internal/validator"
)

func NewRouter(s store.Store, h hermes.Client, sc *scoring.Scorer, c *routing.Classifier, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimitPerMin))

	zone, err := cfg.FormZone()
	if err != nil {
		logger.Warn("form timezone not loaded, using default", "error", err)
	}
	apps := NewApplicationsHandler(s, h, sc, c, validator.New(), zone, logger)
	admin := NewAdminHandler(s, c)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/applications/israel-skilled-worker", apps.Submit)
		r.Post("/assessments/preview", apps.Preview)
		r.Get("/applications/{id}", apps.Get)
		r.Get("/applications/{id}/explain", apps.Explain)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
			r.Get("/applications", apps.List)
			r.Patch("/applications/{id}/status", apps.UpdateStatus)
			r.Get("/stats", admin.Stats)
			r.Get("/routing/rules", admin.Rules)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
