package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukerupert/mediaguard"
)

// Local storage defaults.
const (
	DefaultLocalRoot      = "./uploads"
	DefaultLocalURLPrefix = "/uploads"
)

// Compile-time interface check
var _ mediaguard.StorageProvider = (*LocalProvider)(nil)

// LocalProvider implements mediaguard.StorageProvider for local disk storage.
// Files live at {root}/{folder}/{filename} and are served from
// {urlPrefix}/{folder}/{filename}.
type LocalProvider struct {
	root      string
	urlPrefix string
}

// NewLocalProvider creates a local provider. Empty arguments select
// DefaultLocalRoot and DefaultLocalURLPrefix.
func NewLocalProvider(root, urlPrefix string) *LocalProvider {
	if root == "" {
		root = DefaultLocalRoot
	}
	if urlPrefix == "" {
		urlPrefix = DefaultLocalURLPrefix
	}
	return &LocalProvider{
		root:      filepath.Clean(root),
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}
}

// Name returns "local".
func (s *LocalProvider) Name() string {
	return mediaguard.ProviderLocal
}

// Ready creates the root directory if it does not exist.
func (s *LocalProvider) Ready() error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return mediaguard.Internal("creating storage directory", err)
	}
	return nil
}

// Upload writes data to disk. It never overwrites an existing file.
func (s *LocalProvider) Upload(ctx context.Context, data []byte, filename, contentType, folder string) (string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(folder))
	filePath := filepath.Join(dir, filename)
	// Both paths are checked before anything touches the disk.
	if !s.within(dir) || !s.contains(filePath) {
		return "", mediaguard.Invalid("file name escapes the storage root")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", mediaguard.Internal("creating directories", err)
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", mediaguard.Internal("creating file", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(filePath)
		return "", mediaguard.Internal("writing file", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(filePath)
		return "", mediaguard.Internal("closing file", err)
	}

	return s.GetURL(folder + "/" + filename), nil
}

// Delete removes the file that url points to. A file that is already gone
// is reported as ENOTFOUND.
func (s *LocalProvider) Delete(ctx context.Context, url string) error {
	key, err := keyFromURL(s.urlPrefix, url)
	if err != nil {
		return err
	}

	filePath := filepath.Join(s.root, filepath.FromSlash(key))
	if !s.contains(filePath) {
		return mediaguard.BadURL("url does not name a stored object")
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return mediaguard.NotFound("file %s not found", key)
		}
		return mediaguard.Internal("deleting file", err)
	}
	return nil
}

// GetURL returns the URL to access the file stored under key.
func (s *LocalProvider) GetURL(key string) string {
	return fmt.Sprintf("%s/%s", s.urlPrefix, key)
}

// contains reports whether p is strictly inside the storage root.
func (s *LocalProvider) contains(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	return err == nil && rel != "." && inside(rel)
}

// within reports whether p is the storage root or inside it.
func (s *LocalProvider) within(p string) bool {
	rel, err := filepath.Rel(s.root, p)
	return err == nil && inside(rel)
}

func inside(rel string) bool {
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
