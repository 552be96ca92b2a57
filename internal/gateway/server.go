package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	if g.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", g.deps.Metrics)
	}

	// Cliq bot callback, optionally HMAC-signed.
	r.Post("/api/bot", g.handleBotEvent())

	// Admin endpoints. Not mounted if no auth configured.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth, g.deps.Limiter, g.logger))
			r.Get("/status", g.handleStatus())
			r.Route("/api", func(r chi.Router) {
				r.Post("/monitor/start", g.handleMonitorStart())
				r.Post("/monitor/stop", g.handleMonitorStop())
				r.Post("/monitor/scan", g.handleMonitorScan())
				r.Get("/recipients", g.handleListRecipients())
				r.Delete("/recipients/{id}", g.handleDeleteRecipient())
			})
		})
	}

	return r
}
