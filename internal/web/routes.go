package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/facegate/facegate/internal/web/handlers"
	"github.com/facegate/facegate/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	gateHandler := handlers.NewGateHandler(s.service, s.log)

	// Health check (no device key required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireDeviceKey(s.config.Audit.DeviceKey))

			r.Post("/verify", gateHandler.Verify)
			r.Post("/enroll", gateHandler.Enroll)
			r.Get("/attendance", gateHandler.Attendance)
		})
	})
}
