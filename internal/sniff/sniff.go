// Package sniff identifies media formats from their leading bytes.
package sniff

import (
	"bytes"

	"github.com/dukerupert/mediaguard"
)

// Signature is one rule of the detection table: Magic must appear at Offset.
// A format may need several signatures to match at once.
type Signature struct {
	Offset int
	Magic  []byte
}

// Rule is the full set of signatures that identify one format.
type Rule struct {
	Type mediaguard.DetectedType
	// All signatures must match.
	All []Signature
	// When non-empty, the byte at AnyOfOffset must be one of AnyOf.
	AnyOfOffset int
	AnyOf       []byte
}

var (
	riff = []byte("RIFF")

	// Rules are evaluated in order; the first match wins.
	rules = []Rule{
		{
			// Only APP0 (JFIF) and APP1 (Exif) markers after SOI are accepted.
			Type:        mediaguard.JPEG,
			All:         []Signature{{0, []byte{0xFF, 0xD8, 0xFF}}},
			AnyOfOffset: 3,
			AnyOf:       []byte{0xE0, 0xE1},
		},
		{
			Type: mediaguard.PNG,
			All:  []Signature{{0, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}}},
		},
		{
			Type: mediaguard.WEBP,
			All:  []Signature{{0, riff}, {8, []byte("WEBP")}},
		},
		{
			Type: mediaguard.GIF,
			All:  []Signature{{0, []byte("GIF87a")}},
		},
		{
			Type: mediaguard.GIF,
			All:  []Signature{{0, []byte("GIF89a")}},
		},
		{
			Type: mediaguard.MP4,
			All:  []Signature{{4, []byte("ftyp")}},
		},
		{
			Type: mediaguard.WEBM,
			All:  []Signature{{0, []byte{0x1A, 0x45, 0xDF, 0xA3}}},
		},
		{
			Type: mediaguard.AVI,
			All:  []Signature{{0, riff}, {8, []byte("AVI ")}},
		},
	}
)

// DetectType returns the format encoded in buf, or mediaguard.Unknown.
// It never fails: short or empty buffers are simply Unknown.
func DetectType(buf []byte) mediaguard.DetectedType {
	for _, r := range rules {
		if r.matches(buf) {
			return r.Type
		}
	}
	return mediaguard.Unknown
}

func (r Rule) matches(buf []byte) bool {
	for _, sig := range r.All {
		end := sig.Offset + len(sig.Magic)
		if len(buf) < end || !bytes.Equal(buf[sig.Offset:end], sig.Magic) {
			return false
		}
	}
	if len(r.AnyOf) > 0 {
		if len(buf) <= r.AnyOfOffset {
			return false
		}
		return bytes.IndexByte(r.AnyOf, buf[r.AnyOfOffset]) >= 0
	}
	return true
}

// Brand returns the ISO base media major brand (bytes 8..11) of an ftyp
// container, or "" when buf is not one.
func Brand(buf []byte) string {
	if DetectType(buf) != mediaguard.MP4 || len(buf) < 12 {
		return ""
	}
	return string(buf[8:12])
}

// Rules returns a deep copy of the detection table in evaluation order.
// Changing the result never affects DetectType.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		all := make([]Signature, len(r.All))
		for j, sig := range r.All {
			all[j] = Signature{Offset: sig.Offset, Magic: bytes.Clone(sig.Magic)}
		}
		out[i] = Rule{
			Type:        r.Type,
			All:         all,
			AnyOfOffset: r.AnyOfOffset,
			AnyOf:       bytes.Clone(r.AnyOf),
		}
	}
	return out
}

// MinLength is the shortest buffer that can match any rule.
func MinLength() int {
	shortest := -1
	for _, r := range rules {
		n := 0
		for _, sig := range r.All {
			if end := sig.Offset + len(sig.Magic); end > n {
				n = end
			}
		}
		if len(r.AnyOf) > 0 && r.AnyOfOffset+1 > n {
			n = r.AnyOfOffset + 1
		}
		if shortest < 0 || n < shortest {
			shortest = n
		}
	}
	return shortest
}
