package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukerupert/mediaguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testName = "0123456789abcdef0123456789abcdef.png"

func TestNewLocalProvider_Defaults(t *testing.T) {
	p := NewLocalProvider("", "")
	assert.Equal(t, filepath.Clean(DefaultLocalRoot), p.root)
	assert.Equal(t, DefaultLocalURLPrefix, p.urlPrefix)

	p = NewLocalProvider("/srv/media/", "https://cdn.example.com/files/")
	assert.Equal(t, "https://cdn.example.com/files", p.urlPrefix)
	assert.Equal(t, "https://cdn.example.com/files/avatars/a.png", p.GetURL("avatars/a.png"))
}

func TestLocalProvider_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := NewLocalProvider(root, "/uploads")

	url, err := p.Upload(ctx, []byte("first"), testName, "image/png", "posts/2024")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/posts/2024/"+testName, url)

	got, err := os.ReadFile(filepath.Join(root, "posts", "2024", testName))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	const sibling = "fedcba9876543210fedcba9876543210.png"
	_, err = p.Upload(ctx, []byte("second"), sibling, "image/png", "posts/2024")
	require.NoError(t, err)

	require.NoError(t, p.Delete(ctx, url))
	assert.NoFileExists(t, filepath.Join(root, "posts", "2024", testName))
	assert.FileExists(t, filepath.Join(root, "posts", "2024", sibling))

	err = p.Delete(ctx, url)
	assert.True(t, mediaguard.IsErrorCode(err, mediaguard.ENOTFOUND))
}

func TestLocalProvider_UploadDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := NewLocalProvider(root, "/uploads")

	_, err := p.Upload(ctx, []byte("original"), testName, "image/png", "avatars")
	require.NoError(t, err)

	_, err = p.Upload(ctx, []byte("replacement"), testName, "image/png", "avatars")
	require.Error(t, err)
	assert.True(t, mediaguard.IsErrorCode(err, mediaguard.EINTERNAL))

	got, err := os.ReadFile(filepath.Join(root, "avatars", testName))
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)
}

func TestLocalProvider_DeleteRejectsForeignURLs(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := NewLocalProvider(filepath.Join(root, "media"), "/uploads")

	// A file outside the storage root that traversal would reach.
	outside := filepath.Join(root, "secret.png")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0644))

	urls := []string{
		"https://bucket.s3.us-east-1.amazonaws.com/avatars/" + testName,
		"/static/avatars/" + testName,
		"/uploads/" + testName,
		"/uploads/../secret.png",
		"/uploads/avatars/../../secret.png",
		"/uploads/avatars/%2e%2e/secret.png",
		"/uploads/avatars/",
	}

	for _, url := range urls {
		t.Run(url, func(t *testing.T) {
			err := p.Delete(ctx, url)
			require.Error(t, err)
			assert.True(t, mediaguard.IsErrorCode(err, mediaguard.EBADURL))
		})
	}
	assert.FileExists(t, outside)
}

func TestLocalProvider_UploadRejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	root := filepath.Join(base, "media")
	p := NewLocalProvider(root, "/uploads")

	tests := []struct {
		name     string
		folder   string
		filename string
		escaped  string
	}{
		{name: "folder above root", folder: "../escaped", filename: testName, escaped: "escaped"},
		{name: "nested folder above root", folder: "avatars/../../elsewhere", filename: testName, escaped: "elsewhere"},
		{name: "filename above root", folder: "avatars", filename: "../../" + testName, escaped: testName},
		{name: "root itself as file", folder: "", filename: ".", escaped: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Upload(ctx, []byte("data"), tt.filename, "image/png", tt.folder)
			require.Error(t, err)
			assert.True(t, mediaguard.IsErrorCode(err, mediaguard.EINVALID))
			if tt.escaped != "" {
				assert.NoFileExists(t, filepath.Join(base, tt.escaped))
				assert.NoDirExists(t, filepath.Join(base, tt.escaped))
			}
		})
	}

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
