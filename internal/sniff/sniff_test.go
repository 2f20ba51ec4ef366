package sniff

import (
	"testing"

	"github.com/dukerupert/mediaguard"
	"github.com/stretchr/testify/assert"
)

func riffWith(kind string) []byte {
	buf := []byte("RIFF")
	buf = append(buf, 0x24, 0x00, 0x00, 0x00)
	buf = append(buf, []byte(kind)...)
	return append(buf, make([]byte, 8)...)
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want mediaguard.DetectedType
	}{
		{
			name: "jpeg jfif",
			buf:  []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
			want: mediaguard.JPEG,
		},
		{
			name: "jpeg exif",
			buf:  []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x12, 0x34},
			want: mediaguard.JPEG,
		},
		{
			name: "jpeg with other app marker is not detected",
			buf:  []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x43},
			want: mediaguard.Unknown,
		},
		{
			name: "png",
			buf:  []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
			want: mediaguard.PNG,
		},
		{
			name: "png with corrupted trailer byte",
			buf:  []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x00},
			want: mediaguard.Unknown,
		},
		{
			name: "webp",
			buf:  riffWith("WEBP"),
			want: mediaguard.WEBP,
		},
		{
			name: "gif87a",
			buf:  []byte("GIF87a\x01\x00"),
			want: mediaguard.GIF,
		},
		{
			name: "gif89a",
			buf:  []byte("GIF89a\x01\x00"),
			want: mediaguard.GIF,
		},
		{
			name: "gif with unknown version",
			buf:  []byte("GIF88a\x01\x00"),
			want: mediaguard.Unknown,
		},
		{
			name: "mp4",
			buf:  append([]byte{0x00, 0x00, 0x00, 0x20}, []byte("ftypisom")...),
			want: mediaguard.MP4,
		},
		{
			name: "webm",
			buf:  []byte{0x1A, 0x45, 0xDF, 0xA3},
			want: mediaguard.WEBM,
		},
		{
			name: "avi",
			buf:  riffWith("AVI "),
			want: mediaguard.AVI,
		},
		{
			name: "avi without trailing space",
			buf:  riffWith("AVIX"),
			want: mediaguard.Unknown,
		},
		{
			name: "riff wave is unknown",
			buf:  riffWith("WAVE"),
			want: mediaguard.Unknown,
		},
		{
			name: "riff header cut short",
			buf:  []byte("RIFF\x00\x00\x00\x00WEB"),
			want: mediaguard.Unknown,
		},
		{
			name: "plain text",
			buf:  []byte("<?php echo 'hi'; ?>"),
			want: mediaguard.Unknown,
		},
		{
			name: "nil buffer",
			buf:  nil,
			want: mediaguard.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(tt.buf))
		})
	}
}

func TestDetectType_ShortBuffers(t *testing.T) {
	assert.Equal(t, 4, MinLength())

	prefixes := [][]byte{
		{0xFF, 0xD8, 0xFF, 0xE0},
		{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
		riffWith("WEBP"),
		[]byte("GIF89a"),
		{0x1A, 0x45, 0xDF, 0xA3},
	}
	for _, p := range prefixes {
		for n := 0; n < MinLength(); n++ {
			assert.Equal(t, mediaguard.Unknown, DetectType(p[:n]), "prefix %x", p[:n])
		}
	}
}

func TestDetectType_Pure(t *testing.T) {
	buf := riffWith("AVI ")
	first := DetectType(buf)
	second := DetectType(buf)
	assert.Equal(t, first, second)
	assert.Equal(t, riffWith("AVI "), buf, "buffer must not be modified")
}

func TestBrand(t *testing.T) {
	mov := append([]byte{0x00, 0x00, 0x00, 0x14}, []byte("ftypqt  ")...)
	assert.Equal(t, "qt  ", Brand(mov))

	mp4 := append([]byte{0x00, 0x00, 0x00, 0x20}, []byte("ftypisom")...)
	assert.Equal(t, "isom", Brand(mp4))

	assert.Equal(t, "", Brand([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}))
	assert.Equal(t, "", Brand(nil))
}

func TestRules_ReturnsCopy(t *testing.T) {
	r := Rules()
	r[0].Type = mediaguard.AVI
	assert.Equal(t, mediaguard.JPEG, Rules()[0].Type)
}

func TestRules_MutationDoesNotAffectDetection(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
	html := []byte("<html><body></body></html>")

	r := Rules()
	r[1].All[0] = Signature{Offset: 0, Magic: []byte("<htm")}
	r[2].All[0].Magic[0] = 'X'
	r[0].AnyOf[0] = 0x00

	assert.Equal(t, mediaguard.PNG, DetectType(png))
	assert.Equal(t, mediaguard.Unknown, DetectType(html))
	assert.Equal(t, byte('R'), Rules()[2].All[0].Magic[0])
	assert.Equal(t, mediaguard.JPEG, DetectType([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}))
}
