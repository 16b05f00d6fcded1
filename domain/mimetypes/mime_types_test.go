package mimetypes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		expected MIME
		want     bool
	}{
		{"Plain text with charset", "text/plain; charset=utf-8", TextPlain, true},
		{"PDF", "application/pdf", ApplicationPDF, true},

		// Image types
		{"PNG", "image/png", ImagePNG, true},
		{"JPEG", "image/jpeg", ImageJPEG, true},
		{"GIF", "image/gif", ImageGIF, true},
		{"WebP", "image/webp", ImageWebP, true},

		// Fallback / mismatch
		{"Mismatch", "text/plain; charset=utf-8", ImagePNG, false},
		{"Unknown type", "application/octet-stream", TextPlain, false},
		{"Invalid MIME", "not a mime", TextPlain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Matches(tt.detected, tt.expected)
			require.Equal(t, tt.want, ok)
		})
	}
}

func TestExtension(t *testing.T) {
	req := require.New(t)

	ext, ok := Extension(Parse("image/jpeg"))
	req.True(ok)
	req.Equal(".jpg", ext)

	_, ok = Extension(Parse("text/html; charset=utf-8"))
	req.False(ok)

	req.Equal(Unknown, Parse("not a mime"))
	req.True(IsImage(ImagePNG))
	req.False(IsImage(ApplicationPDF))
}
