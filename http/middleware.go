package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/middleware"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// registerMiddleware sets up all middleware for the server.
func (s *Server) registerMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(middleware.RequestIDMiddleware(s.logger))
	s.echo.Use(s.requestLoggerMiddleware())
	if s.metrics != nil {
		s.echo.Use(s.metrics.Middleware())
	}

	if s.mediaService != nil {
		limit := s.mediaService.MaxBytes(mediaguard.CategoryVideo) + multipartOverhead
		s.echo.Use(echomw.BodyLimit(fmt.Sprintf("%dB", limit)))
	}

	s.echo.HTTPErrorHandler = s.httpErrorHandler
}

// requestLoggerMiddleware logs each request once it has completed.
// Errors are rendered here so the logged status matches the response.
func (s *Server) requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			logger := middleware.GetRequestLogger(c).With(
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
			)
			c.Set("logger", logger)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			logAttrs := []any{
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			}

			switch {
			case status >= 500:
				if err != nil {
					logAttrs = append(logAttrs, slog.String("error", err.Error()))
				}
				logger.Error("request completed with server error", logAttrs...)
			case status >= 400:
				logger.Warn("request completed with client error", logAttrs...)
			default:
				logger.Info("request completed", logAttrs...)
			}

			return nil
		}
	}
}

// httpErrorHandler handles errors and returns appropriate responses.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		_ = c.JSON(he.Code, ErrorResponse{Error: "http", Message: message})
		return
	}

	_ = HandleError(c, s.log(c), err)
}

// log retrieves the request-scoped logger from context.
func (s *Server) log(c echo.Context) *slog.Logger {
	if logger, ok := c.Get("logger").(*slog.Logger); ok {
		return logger
	}
	return s.logger
}
