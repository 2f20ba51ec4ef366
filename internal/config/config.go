package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/mediaguard"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Host        string
	Port        int
	Environment string
	LogLevel    string

	Media     MediaConfig
	RateLimit RateLimitConfig
	Storage   mediaguard.StorageConfig
}

// MediaConfig controls which uploads are accepted.
type MediaConfig struct {
	MaxImageBytes int64
	MaxVideoBytes int64
	Folders       []string
	AllowGIF      bool
	AllowAVI      bool
}

// RateLimitConfig controls per-IP upload throttling.
type RateLimitConfig struct {
	PerMinute float64
	Burst     int
}

// LoadDotEnv loads a .env file from the working directory or up to two
// parent directories. A missing file is not an error.
func LoadDotEnv() bool {
	if err := godotenv.Load(); err == nil {
		return true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 2; i++ {
		dir = filepath.Join(dir, "..")
		if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
			return true
		}
	}
	return false
}

// Load loads configuration from environment variables. Storage credentials
// are not checked here; each provider checks its own on first use.
func Load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		// Server settings
		Host:        envString(getenv, "SERVER_HOST", "localhost"),
		Port:        envInt(getenv, "SERVER_PORT", 8080),
		Environment: envString(getenv, "ENVIRONMENT", "dev"),
		LogLevel:    envString(getenv, "LOG_LEVEL", "info"),

		// Media settings
		Media: MediaConfig{
			MaxImageBytes: envInt64(getenv, "MEDIA_MAX_IMAGE_BYTES", 5<<20),
			MaxVideoBytes: envInt64(getenv, "MEDIA_MAX_VIDEO_BYTES", 100<<20),
			Folders:       envList(getenv, "MEDIA_FOLDERS", []string{"avatars", "headers", "posts"}),
			AllowGIF:      envBool(getenv, "MEDIA_ALLOW_GIF", false),
			AllowAVI:      envBool(getenv, "MEDIA_ALLOW_AVI", false),
		},

		// Rate limit settings
		RateLimit: RateLimitConfig{
			PerMinute: envFloat(getenv, "UPLOAD_RATE_PER_MINUTE", 30),
			Burst:     envInt(getenv, "UPLOAD_RATE_BURST", 10),
		},

		// Storage settings
		Storage: mediaguard.StorageConfig{
			Provider:       strings.ToLower(envString(getenv, "STORAGE_PROVIDER", mediaguard.ProviderLocal)),
			LocalRoot:      envString(getenv, "STORAGE_LOCAL_ROOT", "./uploads"),
			LocalURLPrefix: envString(getenv, "STORAGE_LOCAL_URL_PREFIX", "/uploads"),

			AzureAccount:   getenv("STORAGE_AZURE_ACCOUNT"),
			AzureKey:       getenv("STORAGE_AZURE_KEY"),
			AzureContainer: getenv("STORAGE_AZURE_CONTAINER"),
			AzureEndpoint:  getenv("STORAGE_AZURE_ENDPOINT"),
			AzurePublicURL: getenv("STORAGE_AZURE_PUBLIC_URL"),

			S3Bucket:    getenv("STORAGE_S3_BUCKET"),
			S3Region:    envString(getenv, "STORAGE_S3_REGION", "us-east-1"),
			S3AccessKey: getenv("STORAGE_S3_ACCESS_KEY"),
			S3SecretKey: getenv("STORAGE_S3_SECRET_KEY"),
			S3Endpoint:  getenv("STORAGE_S3_ENDPOINT"),
			S3PublicURL: getenv("STORAGE_S3_PUBLIC_URL"),

			RESTEndpoint:  getenv("STORAGE_REST_ENDPOINT"),
			RESTToken:     getenv("STORAGE_REST_TOKEN"),
			RESTUsername:  getenv("STORAGE_REST_USERNAME"),
			RESTPassword:  getenv("STORAGE_REST_PASSWORD"),
			RESTPublicURL: getenv("STORAGE_REST_PUBLIC_URL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the environment is "prod" or "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ImageAllowList returns the image allow-list implied by the media settings.
func (c *Config) ImageAllowList() mediaguard.AllowList {
	allow := mediaguard.DefaultImageAllowList()
	if c.Media.AllowGIF {
		allow = allow.With(mediaguard.MIMEGIF)
	}
	return allow
}

// VideoAllowList returns the video allow-list implied by the media settings.
func (c *Config) VideoAllowList() mediaguard.AllowList {
	allow := mediaguard.DefaultVideoAllowList()
	if c.Media.AllowAVI {
		allow = allow.With(mediaguard.MIMEAVI)
	}
	return allow
}

// NewLogger creates a slog.Logger writing to w: JSON in production, text
// otherwise.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if c.IsProduction() {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// validate checks values that would otherwise fail later in confusing ways.
func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Media.MaxImageBytes <= 0 || c.Media.MaxVideoBytes <= 0 {
		return fmt.Errorf("MEDIA_MAX_IMAGE_BYTES and MEDIA_MAX_VIDEO_BYTES must be positive")
	}
	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("UPLOAD_RATE_PER_MINUTE and UPLOAD_RATE_BURST must be positive")
	}
	switch c.Storage.Provider {
	case mediaguard.ProviderLocal, mediaguard.ProviderAzure, mediaguard.ProviderS3, mediaguard.ProviderREST:
	default:
		return fmt.Errorf("STORAGE_PROVIDER must be one of local, azure, s3, rest; got %q", c.Storage.Provider)
	}
	return nil
}

// Helper functions for loading environment variables with defaults.

func envString(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envInt64(getenv func(string) string, key string, defaultValue int64) int64 {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envFloat(getenv func(string) string, key string, defaultValue float64) float64 {
	if value := getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func envBool(getenv func(string) string, key string, defaultValue bool) bool {
	if value := getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func envList(getenv func(string) string, key string, defaultValue []string) []string {
	value := getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
