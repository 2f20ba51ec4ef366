package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukerupert/mediaguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Addr())
	assert.Equal(t, "dev", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, int64(5<<20), cfg.Media.MaxImageBytes)
	assert.Equal(t, int64(100<<20), cfg.Media.MaxVideoBytes)
	assert.Equal(t, []string{"avatars", "headers", "posts"}, cfg.Media.Folders)
	assert.Equal(t, 30.0, cfg.RateLimit.PerMinute)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, mediaguard.ProviderLocal, cfg.Storage.Provider)
	assert.Equal(t, "./uploads", cfg.Storage.LocalRoot)
	assert.Equal(t, "/uploads", cfg.Storage.LocalURLPrefix)

	assert.False(t, cfg.ImageAllowList().Allows(mediaguard.MIMEGIF))
	assert.False(t, cfg.VideoAllowList().Allows(mediaguard.MIMEAVI))
}

func TestLoad_FromEnvironment(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{
		"SERVER_PORT":            "9000",
		"ENVIRONMENT":            "production",
		"MEDIA_MAX_IMAGE_BYTES":  "1024",
		"MEDIA_FOLDERS":          " avatars , banners,,",
		"MEDIA_ALLOW_GIF":        "true",
		"MEDIA_ALLOW_AVI":        "1",
		"UPLOAD_RATE_PER_MINUTE": "6",
		"STORAGE_PROVIDER":       "S3",
		"STORAGE_S3_BUCKET":      "media",
		"STORAGE_S3_ENDPOINT":    "http://localhost:9000",
		"STORAGE_REST_TOKEN":     "tok",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, int64(1024), cfg.Media.MaxImageBytes)
	assert.Equal(t, []string{"avatars", "banners"}, cfg.Media.Folders)
	assert.True(t, cfg.ImageAllowList().Allows(mediaguard.MIMEGIF))
	assert.True(t, cfg.VideoAllowList().Allows(mediaguard.MIMEAVI))
	assert.Equal(t, 6.0, cfg.RateLimit.PerMinute)

	assert.Equal(t, mediaguard.ProviderS3, cfg.Storage.Provider)
	assert.Equal(t, "media", cfg.Storage.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.S3Region)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.S3Endpoint)
	assert.Equal(t, "tok", cfg.Storage.RESTToken)
}

func TestLoad_MissingCredentialsAreNotAnError(t *testing.T) {
	for _, provider := range []string{"azure", "s3", "rest"} {
		cfg, err := Load(envMap(map[string]string{"STORAGE_PROVIDER": provider}))
		require.NoError(t, err, provider)
		assert.Equal(t, provider, cfg.Storage.Provider)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown provider", env: map[string]string{"STORAGE_PROVIDER": "ftp"}},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "negative size", env: map[string]string{"MEDIA_MAX_VIDEO_BYTES": "-1"}},
		{name: "zero rate", env: map[string]string{"UPLOAD_RATE_PER_MINUTE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(envMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Environment: "production", LogLevel: "warn"}
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MEDIAGUARD_TEST_KEY=from-dotenv\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("MEDIAGUARD_TEST_KEY")
	})

	assert.True(t, LoadDotEnv())
	assert.Equal(t, "from-dotenv", os.Getenv("MEDIAGUARD_TEST_KEY"))
}
