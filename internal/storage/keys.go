package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/naming"
	"github.com/dukerupert/mediaguard/internal/validation"
)

// objectKey returns the remote key for a new object:
// "{folder}/{unix timestamp}-{random token}{ext}".
func objectKey(folder, contentType string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s%s", folder, now.Unix(), naming.Token(), naming.Extension(contentType))
}

// joinURL appends key to base with exactly one slash between them.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// keyFromURL recovers the object key from a URL built by joinURL(base, key).
// It fails with EBADURL unless the URL starts with base and the remainder is
// a "{folder}/{name}" key this package could have produced.
func keyFromURL(base, rawURL string) (string, error) {
	prefix := strings.TrimRight(base, "/") + "/"
	key, ok := strings.CutPrefix(rawURL, prefix)
	if !ok {
		return "", mediaguard.BadURL("url does not belong to this storage provider")
	}
	if strings.ContainsAny(key, "?#%") {
		return "", mediaguard.BadURL("url contains a query, fragment or escape")
	}

	folder, name := path.Split(key)
	folder = strings.TrimSuffix(folder, "/")
	if !validation.IsSafeFolder(folder) || !validation.IsSafeName(name) {
		return "", mediaguard.BadURL("url does not name a stored object")
	}
	return key, nil
}
