package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/asad/userstate/internal/chain"
	"github.com/asad/userstate/internal/config"
	"github.com/asad/userstate/internal/core"
	"github.com/asad/userstate/internal/events"
	"github.com/asad/userstate/internal/logging"
)

// Host is the node-level state the router exposes besides module routes.
type Host struct {
	Clock  *chain.Clock
	Events events.Log
}

// NewRouter builds the node's HTTP handler: middleware, health, chain and
// event endpoints, and a sub-router per enabled module.
func NewRouter(cfg *config.Config, registry *core.Registry, host Host, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(SignerOrigin)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "userstate"})
	})

	registerHostRoutes(r, host, logger)

	for _, m := range registry.Modules() {
		if !cfg.IsModuleEnabled(m.Name()) {
			logger.Info("skipping module (not enabled)",
				logging.String("module", m.Name()),
			)
			continue
		}

		logger.Info("registering module routes",
			logging.String("module", m.Name()),
		)
		r.Route("/"+m.Name(), func(r chi.Router) {
			m.RegisterRoutes(r)
		})
	}

	return r
}

// requestLoggingMiddleware logs each request with method, path, status and latency.
func requestLoggingMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.String("query", r.URL.RawQuery),
				logging.Int("status", ww.Status()),
				logging.Duration("latency", time.Since(start)),
				logging.String("request_id", middleware.GetReqID(r.Context())),
				logging.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
