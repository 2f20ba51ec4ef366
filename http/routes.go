package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all routes for the server.
// All routes are defined in this single file for easy navigation.
func (s *Server) registerRoutes() {
	// Health and metrics
	s.echo.GET("/health", s.handleHealthCheck)
	s.echo.GET("/health/live", s.handleLivenessCheck)
	s.echo.GET("/health/ready", s.handleReadinessCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// Media
	api := s.echo.Group("/api/media")
	if s.rateLimiter != nil {
		api.POST("/:folder", s.handleUploadMedia, s.rateLimiter.Middleware())
	} else {
		api.POST("/:folder", s.handleUploadMedia)
	}
	api.DELETE("", s.handleDeleteMedia)
}
