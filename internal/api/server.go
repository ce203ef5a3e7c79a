// Package api assembles the HTTP router: middleware, REST routes, health,
// Prometheus metrics and Swagger UI.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/cosmicwatch/cosmic-watch/internal/api/handler"
	"github.com/cosmicwatch/cosmic-watch/internal/config"
	"github.com/cosmicwatch/cosmic-watch/internal/observability"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes. metrics may be nil, in which case request metrics and /metrics
// are not mounted.
func NewRouter(h *handler.Handler, cfg *config.Config, metrics *observability.Metrics) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	if metrics != nil {
		r.Use(MetricsMiddleware(metrics))
	}
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins: cfg.CORSAllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control",
			handler.UserIDHeader, handler.UserNameHeader,
		},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	if metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	if !cfg.IsProduction() {
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/asteroids", func(r chi.Router) {
			r.Get("/feed", h.GetFeed)
			r.Get("/risk", h.GetRisk)
			r.Get("/categories", h.GetCategories)
			r.Get("/{id}", h.GetAsteroid)
		})

		r.Get("/chat/recent", h.RecentChat)

		// Per-user routes. Identity comes from the fronting auth gateway.
		r.Group(func(r chi.Router) {
			r.Use(handler.RequireUser)

			r.Get("/alerts", h.ListAlerts)
			r.Patch("/alerts/{id}/read", h.MarkAlertRead)

			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)

			r.Post("/chat/messages", h.PostChat)
		})
	})

	return r
}
