package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleHealthCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "ok"})
}

func (s *Server) handleLivenessCheck(c echo.Context) error {
	return RespondOK(c, map[string]string{"status": "alive"})
}

// handleReadinessCheck reports whether the storage provider could be built.
// No request is sent to the backend.
func (s *Server) handleReadinessCheck(c echo.Context) error {
	if s.storage != nil {
		if err := s.storage.Ready(); err != nil {
			s.log(c).Warn("storage not ready", slog.String("error", err.Error()))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return RespondOK(c, map[string]string{"status": "ready"})
}
