package media

import (
	"bytes"
	"chat-sync/domain/mimetypes"
	"chat-sync/errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_DownsizesLargeImages(t *testing.T) {
	req := require.New(t)

	// Given a PNG larger than the allowed dimension
	data := pngOf(t, 400, 200)

	// When it is normalized
	prepared, err := Normalize(data, 100)

	// Then it keeps its format and its aspect ratio
	req.NoError(err)
	req.True(prepared.Resized)
	req.Equal(mimetypes.ImagePNG, prepared.MIME)
	req.Equal(".png", prepared.Extension)

	img, err := imaging.Decode(bytes.NewReader(prepared.Data))
	req.NoError(err)
	req.Equal(100, img.Bounds().Dx())
	req.Equal(50, img.Bounds().Dy())
}

func TestNormalize_KeepsSmallImagesUntouched(t *testing.T) {
	req := require.New(t)
	data := pngOf(t, 20, 20)

	prepared, err := Normalize(data, 100)

	req.NoError(err)
	req.False(prepared.Resized)
	req.Equal(data, prepared.Data)
}

func TestNormalize_RejectsUnsupportedTypes(t *testing.T) {
	req := require.New(t)

	_, err := Normalize([]byte("<html><body>hi</body></html>"), 100)
	req.ErrorIs(err, errors.ErrUnsupportedMedia)
	req.ErrorIs(err, errors.ErrValidation)

	_, err = Normalize(nil, 100)
	req.ErrorIs(err, errors.ErrValidation)
}

func TestNormalize_AcceptsPDF(t *testing.T) {
	req := require.New(t)

	prepared, err := Normalize([]byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), 100)

	req.NoError(err)
	req.Equal(mimetypes.ApplicationPDF, prepared.MIME)
	req.False(prepared.Resized)
}
