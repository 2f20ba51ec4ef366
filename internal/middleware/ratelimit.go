package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukerupert/mediaguard"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for upload rate limiting.
type RateLimitConfig struct {
	// PerMinute is the sustained number of requests allowed per client IP.
	PerMinute float64

	// Burst is the number of requests a client may make at once.
	Burst int

	// CleanupInterval is how often idle limiters are removed.
	CleanupInterval time.Duration

	// IdleTimeout is how long a limiter may go unused before removal.
	IdleTimeout time.Duration
}

// DefaultRateLimitConfig returns default rate limit settings:
// 30 uploads per minute per IP, burst 10.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerMinute:       30,
		Burst:           10,
		CleanupInterval: time.Hour,
		IdleTimeout:     time.Hour,
	}
}

// RateLimiter limits requests per client IP using a token bucket
// (golang.org/x/time/rate).
//
// The client IP comes from c.RealIP(). Configure echo's IPExtractor in
// production so forged X-Forwarded-For headers cannot rotate the key.
type RateLimiter struct {
	limiters sync.Map // IP address -> *limiterEntry
	logger   *slog.Logger
	config   RateLimitConfig
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

// limiterEntry wraps a rate limiter with its last access time, stored as a
// Unix timestamp for atomic access.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
// Call Shutdown to stop it. Zero config fields select the defaults.
func NewRateLimiter(logger *slog.Logger, cfg RateLimitConfig) *RateLimiter {
	def := DefaultRateLimitConfig()
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = def.PerMinute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl := &RateLimiter{
		logger: logger,
		config: cfg,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}

	go rl.cleanupLoop()

	return rl
}

// Middleware rejects requests over the limit with ERATELIMIT and a
// Retry-After header.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	limit := fmt.Sprintf("%.0f", rl.config.PerMinute)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			limiter := rl.GetLimiter(ip)

			c.Response().Header().Set("X-RateLimit-Limit", limit)

			if !limiter.Allow() {
				rl.logger.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", c.Path()),
					slog.String("method", c.Request().Method))

				retry := int(math.Ceil(60 / rl.config.PerMinute))
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", max(retry, 1)))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")

				return mediaguard.Errorf(mediaguard.ERATELIMIT, "too many uploads, please try again later")
			}

			return next(c)
		}
	}
}

// GetLimiter returns the limiter for key, creating it on first use.
func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	if entry, exists := rl.limiters.Load(key); exists {
		limEntry := entry.(*limiterEntry)
		limEntry.lastAccess.Store(rl.now().Unix())
		return limEntry.limiter
	}

	entry := &limiterEntry{
		limiter: rate.NewLimiter(rate.Limit(rl.config.PerMinute/60), rl.config.Burst),
	}
	entry.lastAccess.Store(rl.now().Unix())
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// Cleanup removes limiters idle for longer than IdleTimeout and returns how
// many were removed.
func (rl *RateLimiter) Cleanup() int {
	var removed int
	cutoff := rl.now().Add(-rl.config.IdleTimeout).Unix()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastAccess.Load() < cutoff {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := rl.Cleanup(); removed > 0 {
				rl.logger.Info("cleaned up old rate limiters", slog.Int("removed", removed))
			}
		case <-rl.ctx.Done():
			rl.logger.Debug("rate limiter cleanup goroutine stopping")
			return
		}
	}
}

// Shutdown stops the cleanup goroutine.
func (rl *RateLimiter) Shutdown() {
	if rl.cancel != nil {
		rl.cancel()
	}
}
