package validation

import (
	"errors"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/sniff"
)

// Rejection reasons. Every invalid Verdict carries one of these.
var (
	ErrDisallowedFormat   = mediaguard.Invalid("disallowed format")
	ErrUnidentifiedFormat = mediaguard.Invalid("cannot identify format")
	ErrTypeNotAllowed     = mediaguard.Invalid("claimed type not allowed")
	ErrNotMedia           = mediaguard.Invalid("neither image nor video")
)

// quickTimeBrand is the ftyp major brand written by QuickTime.
const quickTimeBrand = "qt  "

// Content checks buffers against per-category allow-lists.
// A nil list selects the category default.
type Content struct {
	Images mediaguard.AllowList
	Videos mediaguard.AllowList
}

// ValidateImage validates buf as an image claimed to be of type claimed.
// A nil allow-list selects mediaguard.DefaultImageAllowList.
func ValidateImage(buf []byte, claimed string, allow mediaguard.AllowList) mediaguard.Verdict {
	return Content{Images: allow}.Image(buf, claimed)
}

// ValidateVideo validates buf as a video claimed to be of type claimed.
// A nil allow-list selects mediaguard.DefaultVideoAllowList.
func ValidateVideo(buf []byte, claimed string, allow mediaguard.AllowList) mediaguard.Verdict {
	return Content{Videos: allow}.Video(buf, claimed)
}

// ValidateMedia dispatches to ValidateImage or ValidateVideo by the category
// of the claimed type, using the default allow-lists.
func ValidateMedia(buf []byte, claimed string) mediaguard.Verdict {
	return Content{}.Media(buf, claimed)
}

// Image validates buf against the image allow-list.
func (c Content) Image(buf []byte, claimed string) mediaguard.Verdict {
	allow := c.Images
	if allow == nil {
		allow = mediaguard.DefaultImageAllowList()
	}
	return check(buf, claimed, allow, mediaguard.CategoryImage)
}

// Video validates buf against the video allow-list.
func (c Content) Video(buf []byte, claimed string) mediaguard.Verdict {
	allow := c.Videos
	if allow == nil {
		allow = mediaguard.DefaultVideoAllowList()
	}
	return check(buf, claimed, allow, mediaguard.CategoryVideo)
}

// Media validates buf as whichever category the claimed type names.
func (c Content) Media(buf []byte, claimed string) mediaguard.Verdict {
	category, ok := mediaguard.CategoryOf(claimed)
	if !ok {
		return reject(mediaguard.Unknown, ErrNotMedia)
	}
	return c.For(category, buf, claimed)
}

// For validates buf against the allow-list of category.
func (c Content) For(category mediaguard.Category, buf []byte, claimed string) mediaguard.Verdict {
	switch category {
	case mediaguard.CategoryImage:
		return c.Image(buf, claimed)
	case mediaguard.CategoryVideo:
		return c.Video(buf, claimed)
	default:
		return reject(mediaguard.Unknown, ErrNotMedia)
	}
}

func check(buf []byte, claimed string, allow mediaguard.AllowList, category mediaguard.Category) mediaguard.Verdict {
	claimed = mediaguard.NormalizeMIME(claimed)
	if !allow.Allows(claimed) {
		return reject(mediaguard.Unknown, ErrDisallowedFormat)
	}

	detected := sniff.DetectType(buf)
	if detected == mediaguard.Unknown {
		return reject(detected, ErrUnidentifiedFormat)
	}

	// The detected identity decides, not the claim: a real PNG declared as
	// image/jpeg fails here even when image/jpeg is allow-listed.
	if got, _ := mediaguard.CategoryOf(detected.MIME()); got != category {
		return reject(detected, ErrTypeNotAllowed)
	}
	// The detected format must be listed in its own right. A QuickTime claim
	// does not admit an MP4 container when video/mp4 is not allowed.
	if !allow.Allows(detected.MIME()) {
		return reject(detected, ErrTypeNotAllowed)
	}
	if !matchesClaim(buf, detected, claimed) {
		return reject(detected, ErrTypeNotAllowed)
	}

	return mediaguard.Verdict{Valid: true, Detected: detected}
}

// matchesClaim reports whether the detected identity agrees with claimed.
// QuickTime movies share the ftyp layout with MP4 and are told apart by brand.
func matchesClaim(buf []byte, detected mediaguard.DetectedType, claimed string) bool {
	if detected.MIME() == claimed {
		return true
	}
	return claimed == mediaguard.MIMEQuickTime &&
		detected == mediaguard.MP4 &&
		sniff.Brand(buf) == quickTimeBrand
}

func reject(detected mediaguard.DetectedType, err error) mediaguard.Verdict {
	return mediaguard.Verdict{Valid: false, Detected: detected, Err: err}
}

// Reason returns a short stable label for a rejection error, suitable for
// metrics. Unrecognized errors are labelled "other".
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDisallowedFormat):
		return "disallowed"
	case errors.Is(err, ErrUnidentifiedFormat):
		return "unidentified"
	case errors.Is(err, ErrTypeNotAllowed):
		return "mismatch"
	case errors.Is(err, ErrNotMedia):
		return "not_media"
	default:
		return "other"
	}
}
