// Package naming generates storage filenames that carry no caller input.
package naming

import (
	"strings"

	"github.com/dukerupert/mediaguard"
	"github.com/google/uuid"
)

// DefaultExtension is used for content types outside the extension table.
const DefaultExtension = ".bin"

var extensions = map[string]string{
	mediaguard.MIMEJPEG:      ".jpg",
	mediaguard.MIMEPNG:       ".png",
	mediaguard.MIMEWEBP:      ".webp",
	mediaguard.MIMEGIF:       ".gif",
	mediaguard.MIMEMP4:       ".mp4",
	mediaguard.MIMEQuickTime: ".mov",
	mediaguard.MIMEWEBM:      ".webm",
	mediaguard.MIMEAVI:       ".avi",
}

// Extension returns the file extension for a validated content type.
func Extension(contentType string) string {
	if ext, ok := extensions[mediaguard.NormalizeMIME(contentType)]; ok {
		return ext
	}
	return DefaultExtension
}

// Token returns a fresh random identifier of 32 lowercase hex digits.
func Token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Generate returns a new filename for content of contentType.
// The original client filename is never read. The result is a random token
// plus an extension from the static table and never contains a path
// separator.
func Generate(_ string, contentType string) string {
	return Token() + Extension(contentType)
}
