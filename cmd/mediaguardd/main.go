package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mediahttp "github.com/dukerupert/mediaguard/http"
	"github.com/dukerupert/mediaguard/internal/config"
	"github.com/dukerupert/mediaguard/internal/media"
	"github.com/dukerupert/mediaguard/internal/middleware"
	"github.com/dukerupert/mediaguard/internal/storage"
	"github.com/dukerupert/mediaguard/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx := context.Background()
	config.LoadDotEnv()
	if err := run(ctx, os.Stdout, os.Stderr, os.Args, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point for the application, designed for testability.
// It accepts all external dependencies (IO, args, env) as parameters.
func run(
	ctx context.Context,
	stdout, stderr io.Writer,
	args []string,
	getenv func(string) string,
) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := cfg.NewLogger(stderr)
	slog.SetDefault(logger)
	logger.Debug("application configuration",
		slog.String("environment", cfg.Environment),
		slog.String("addr", cfg.Addr()),
		slog.String("storage_provider", cfg.Storage.Provider))

	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
	services := initServices(cfg, logger, metrics)

	// Surface storage misconfiguration at startup. The server still starts
	// and /health/ready reports the failure.
	if err := services.Storage.Ready(); err != nil {
		logger.Error("storage provider not ready", slog.String("error", err.Error()))
	}

	rateLimiter := middleware.NewRateLimiter(logger, middleware.RateLimitConfig{
		PerMinute: cfg.RateLimit.PerMinute,
		Burst:     cfg.RateLimit.Burst,
	})
	defer rateLimiter.Shutdown()

	server := mediahttp.NewServer(mediahttp.Config{
		Addr:         cfg.Addr(),
		Logger:       logger,
		MediaService: services.Media,
		Storage:      services.Storage,
		Metrics:      metrics,
		RateLimiter:  rateLimiter,
	})

	if err := server.Open(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("starting server: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Close(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}

// Services holds the application services.
type Services struct {
	Storage *storage.Facade
	Media   *media.Service
}

// initServices wires the storage facade and the media service.
func initServices(cfg *config.Config, logger *slog.Logger, metrics *middleware.Metrics) *Services {
	facade := storage.NewFacade(cfg.Storage, logger, storage.WithObserver(metrics))

	svc := media.NewService(media.Config{
		MaxImageBytes: cfg.Media.MaxImageBytes,
		MaxVideoBytes: cfg.Media.MaxVideoBytes,
		Folders:       cfg.Media.Folders,
		Content: validation.Content{
			Images: cfg.ImageAllowList(),
			Videos: cfg.VideoAllowList(),
		},
	}, facade, logger, metrics)

	logger.Info("media service initialized",
		slog.String("storage_provider", cfg.Storage.Provider),
		slog.Any("folders", cfg.Media.Folders))

	return &Services{Storage: facade, Media: svc}
}
