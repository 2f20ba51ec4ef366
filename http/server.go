package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/dukerupert/mediaguard/internal/media"
	"github.com/dukerupert/mediaguard/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// multipartOverhead is added to the largest accepted file to size the
// request body limit.
const multipartOverhead = 1 << 20

// Readiness reports whether a dependency can serve requests.
// *storage.Facade implements it.
type Readiness interface {
	Ready() error
}

// Server represents the HTTP server with all its dependencies.
type Server struct {
	echo   *echo.Echo
	ln     net.Listener
	logger *slog.Logger

	// Configuration
	Addr string

	mediaService *media.Service
	storage      Readiness
	metrics      *middleware.Metrics
	gatherer     prometheus.Gatherer
	rateLimiter  *middleware.RateLimiter
}

// Config holds the configuration for creating a new Server.
type Config struct {
	Addr   string
	Logger *slog.Logger

	MediaService *media.Service
	Storage      Readiness

	// Metrics is optional. Gatherer serves /metrics and defaults to
	// prometheus.DefaultGatherer.
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	// RateLimiter throttles uploads. Optional.
	RateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		Addr:         cfg.Addr,
		logger:       cfg.Logger,
		mediaService: cfg.MediaService,
		storage:      cfg.Storage,
		metrics:      cfg.Metrics,
		gatherer:     cfg.Gatherer,
		rateLimiter:  cfg.RateLimiter,
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// Echo returns the underlying Echo instance.
// Use sparingly - prefer registering routes through Server methods.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Open starts the HTTP server.
func (s *Server) Open() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr, err)
	}
	s.ln = ln

	go func() {
		if err := s.echo.Server.Serve(s.ln); err != nil {
			s.logger.Debug("server stopped serving", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("server started", slog.String("addr", s.ln.Addr().String()))
	return nil
}

// Close gracefully shuts down the HTTP server.
func (s *Server) Close(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// URL returns the URL of the server.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}
