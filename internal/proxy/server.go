// Package proxy wires the HTTP surface: health probes, the troubleshoot
// pipeline endpoints, and the quota admin endpoints.
package proxy

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/SumitPatel-HQ/fixit/internal/proxy/handler"
)

// Server holds dependencies for the HTTP API server.
type Server struct {
	Router   chi.Router
	Handlers *handler.Handlers
}

// NewServer creates a chi router with all routes configured.
func NewServer(h *handler.Handlers) *Server {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	s := &Server{Router: r, Handlers: h}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := s.Router

	r.Route("/health", func(r chi.Router) {
		r.Get("/", s.Handlers.HealthCheck)
		r.Get("/liveness", s.Handlers.HealthLiveness)
		r.Get("/readiness", s.Handlers.HealthReadiness)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/troubleshoot", s.Handlers.Troubleshoot)
		r.Post("/validate-image", s.Handlers.ValidateImage)
		r.Post("/identify-device", s.Handlers.IdentifyDevice)
		r.Get("/quota-status", s.Handlers.QuotaStatus)
		r.Post("/reset-quota", s.Handlers.ResetQuota)
	})
}
