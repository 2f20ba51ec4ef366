package mediaguard

import (
	"strings"
)

// DetectedType is the format identified from a buffer's leading bytes.
type DetectedType int

// Detected formats. The set is closed.
const (
	Unknown DetectedType = iota
	JPEG
	PNG
	WEBP
	GIF
	MP4
	WEBM
	AVI
)

// MIME types understood by the validator and the name generator.
const (
	MIMEJPEG      = "image/jpeg"
	MIMEPNG       = "image/png"
	MIMEWEBP      = "image/webp"
	MIMEGIF       = "image/gif"
	MIMEMP4       = "video/mp4"
	MIMEWEBM      = "video/webm"
	MIMEQuickTime = "video/quicktime"
	MIMEAVI       = "video/x-msvideo"
)

var detectedNames = map[DetectedType]string{
	Unknown: "unknown",
	JPEG:    "jpeg",
	PNG:     "png",
	WEBP:    "webp",
	GIF:     "gif",
	MP4:     "mp4",
	WEBM:    "webm",
	AVI:     "avi",
}

var canonicalMIME = map[DetectedType]string{
	JPEG: MIMEJPEG,
	PNG:  MIMEPNG,
	WEBP: MIMEWEBP,
	GIF:  MIMEGIF,
	MP4:  MIMEMP4,
	WEBM: MIMEWEBM,
	AVI:  MIMEAVI,
}

// String returns the lowercase format name.
func (t DetectedType) String() string {
	if name, ok := detectedNames[t]; ok {
		return name
	}
	return "unknown"
}

// MIME returns the canonical MIME type for t, or "" for Unknown.
func (t DetectedType) MIME() string {
	return canonicalMIME[t]
}

// Category groups formats into the two kinds of media the application accepts.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
)

// CategoryOf returns the category implied by a MIME type's top-level type.
// The second result is false when the type is neither image nor video.
func CategoryOf(mimeType string) (Category, bool) {
	switch {
	case strings.HasPrefix(NormalizeMIME(mimeType), "image/"):
		return CategoryImage, true
	case strings.HasPrefix(NormalizeMIME(mimeType), "video/"):
		return CategoryVideo, true
	default:
		return "", false
	}
}

// NormalizeMIME lowercases a MIME string and strips parameters such as
// "; charset=binary". The non-standard "image/jpg" maps to "image/jpeg".
func NormalizeMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "image/jpg" || mimeType == "image/pjpeg" {
		return MIMEJPEG
	}
	return mimeType
}

// AllowList is a set of permitted MIME types. Anything absent is denied.
type AllowList map[string]struct{}

// NewAllowList builds an allow-list from MIME strings.
func NewAllowList(types ...string) AllowList {
	l := make(AllowList, len(types))
	for _, t := range types {
		l[NormalizeMIME(t)] = struct{}{}
	}
	return l
}

// Allows reports whether mimeType is in the list.
func (l AllowList) Allows(mimeType string) bool {
	_, ok := l[NormalizeMIME(mimeType)]
	return ok
}

// With returns a copy of l extended with types.
func (l AllowList) With(types ...string) AllowList {
	out := make(AllowList, len(l)+len(types))
	for t := range l {
		out[t] = struct{}{}
	}
	for _, t := range types {
		out[NormalizeMIME(t)] = struct{}{}
	}
	return out
}

// DefaultImageAllowList returns the image types accepted when the caller
// does not override the list. GIF is excluded.
func DefaultImageAllowList() AllowList {
	return NewAllowList(MIMEJPEG, MIMEPNG, MIMEWEBP)
}

// DefaultVideoAllowList returns the video types accepted when the caller
// does not override the list. AVI is excluded.
func DefaultVideoAllowList() AllowList {
	return NewAllowList(MIMEMP4, MIMEWEBM, MIMEQuickTime)
}

// Verdict is the outcome of validating one buffer.
type Verdict struct {
	Valid    bool
	Detected DetectedType
	// Err is nil when Valid is true, otherwise an *Error with code EINVALID.
	Err error
}
