package storage

import (
	"regexp"
	"testing"
	"time"

	"github.com/dukerupert/mediaguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	pattern := regexp.MustCompile(`^posts/2024/1700000000-[0-9a-f]{32}\.mp4$`)

	key := objectKey("posts/2024", "video/mp4", now)
	assert.Regexp(t, pattern, key)
	assert.NotEqual(t, key, objectKey("posts/2024", "video/mp4", now))

	assert.Regexp(t, `\.bin$`, objectKey("avatars", "application/octet-stream", now))
}

func TestKeyFromURL(t *testing.T) {
	const base = "https://cdn.example.com/media/"

	tests := []struct {
		name    string
		url     string
		wantKey string
	}{
		{name: "own url", url: "https://cdn.example.com/media/avatars/1700000000-abc.png", wantKey: "avatars/1700000000-abc.png"},
		{name: "nested folder", url: "https://cdn.example.com/media/posts/2024/abc.mp4", wantKey: "posts/2024/abc.mp4"},
		{name: "other host", url: "https://evil.example.com/media/avatars/abc.png"},
		{name: "prefix without separator", url: "https://cdn.example.com/mediaX/avatars/abc.png"},
		{name: "no folder", url: "https://cdn.example.com/media/abc.png"},
		{name: "traversal", url: "https://cdn.example.com/media/avatars/../../secret.png"},
		{name: "escaped traversal", url: "https://cdn.example.com/media/avatars/%2e%2e/secret.png"},
		{name: "query string", url: "https://cdn.example.com/media/avatars/abc.png?x=1"},
		{name: "empty", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := keyFromURL(base, tt.url)
			if tt.wantKey == "" {
				require.Error(t, err)
				assert.True(t, mediaguard.IsErrorCode(err, mediaguard.EBADURL))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestJoinURL_RoundTrip(t *testing.T) {
	for _, base := range []string{"https://cdn.example.com", "https://cdn.example.com/", "/uploads"} {
		key := objectKey("avatars", "image/webp", time.Now())
		got, err := keyFromURL(base, joinURL(base, key))
		require.NoError(t, err)
		assert.Equal(t, key, got)
	}
}
