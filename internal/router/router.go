package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-task-manager/internal/config"
	"go-task-manager/internal/handler"
	"go-task-manager/internal/metrics"
	"go-task-manager/internal/middleware"
)

type AuthHandlers struct {
	Auth    *handler.AuthHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
}

type TaskHandlers struct {
	Task    *handler.TaskHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
}

// NewAuthRouter mounts the identity service. Register and login draw from
// the tighter auth rate limit bucket. Verify is not rate limited: every
// gateway call arrives from the task service's address.
func NewAuthRouter(cfg *config.Config, collector *metrics.Collector, h AuthHandlers) http.Handler {
	r, limiter := newBaseRouter(cfg, collector, h.Health, h.Metrics)

	r.Route("/api/auth", func(auth chi.Router) {
		auth.Use(middleware.Timeout(cfg.RequestTimeout))

		auth.With(limiter.Auth).Post("/register", h.Auth.Register)
		auth.With(limiter.Auth).Post("/login", h.Auth.Login)
		auth.Post("/verify", h.Auth.Verify)
	})

	return r
}

// NewTaskRouter mounts the task service. Every /api/tasks route passes the
// gateway first.
func NewTaskRouter(cfg *config.Config, collector *metrics.Collector, gateway *middleware.Gateway, h TaskHandlers) http.Handler {
	r, limiter := newBaseRouter(cfg, collector, h.Health, h.Metrics)

	r.Route("/api/tasks", func(tasks chi.Router) {
		tasks.Use(limiter.Handler)
		tasks.Use(middleware.Timeout(cfg.RequestTimeout))
		tasks.Use(gateway.RequireIdentity)

		tasks.Get("/", h.Task.List)
		tasks.Post("/", h.Task.Create)
		tasks.Get("/{id}", h.Task.Get)
		tasks.Put("/{id}", h.Task.Update)
		tasks.Delete("/{id}", h.Task.Delete)
	})

	return r
}

// newBaseRouter applies the shared middleware chain. Rate limits are left to
// the route groups.
func newBaseRouter(cfg *config.Config, collector *metrics.Collector, health *handler.HealthHandler, metricsHandler http.Handler) (chi.Router, *middleware.RateLimitMiddleware) {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	if collector != nil {
		r.Use(middleware.Metrics(collector))
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"Route not found"}}`))
	})

	if health != nil {
		r.With(rateLimitMiddleware.Handler).Get("/health", health.Health)
	}
	if metricsHandler != nil {
		r.With(rateLimitMiddleware.Handler).Method(http.MethodGet, "/metrics", metricsHandler)
	}

	return r, rateLimitMiddleware
}
