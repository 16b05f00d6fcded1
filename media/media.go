// Package media prepares attachments before they are uploaded.
// It sniffs the content type, rejects what a chat cannot carry and downsizes large images.
package media

import (
	"bytes"
	"chat-sync/domain/mimetypes"
	"chat-sync/errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxDimension = 1600

// Prepared is an attachment ready for the blob store.
type Prepared struct {
	Data      []byte
	MIME      mimetypes.MIME
	Extension string
	Resized   bool
}

// Normalize detects the payload type from its magic bytes, not its file name.
// PNG and JPEG images wider or taller than maxDimension are fitted inside it,
// keeping their format. A maxDimension of zero or less disables resizing.
func Normalize(data []byte, maxDimension int) (Prepared, error) {
	if len(data) == 0 {
		return Prepared{}, fmt.Errorf("%w: empty attachment", errors.ErrValidation)
	}
	detected := mimetypes.Parse(mimetype.Detect(data).String())
	ext, ok := mimetypes.Extension(detected)
	if !ok {
		return Prepared{}, fmt.Errorf("%w: %s", errors.ErrUnsupportedMedia, detected)
	}

	prepared := Prepared{Data: data, MIME: detected, Extension: ext}
	if maxDimension <= 0 || !mimetypes.IsImage(detected) || detected == mimetypes.ImageGIF {
		return prepared, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Prepared{}, fmt.Errorf("%w: undecodable image: %v", errors.ErrUnsupportedMedia, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= maxDimension && bounds.Dy() <= maxDimension {
		return prepared, nil
	}

	format := imaging.JPEG
	if detected == mimetypes.ImagePNG {
		format = imaging.PNG
	}
	var buf bytes.Buffer
	fitted := imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	if err := imaging.Encode(&buf, fitted, format, imaging.JPEGQuality(85)); err != nil {
		return Prepared{}, fmt.Errorf("encode resized image: %w", err)
	}
	prepared.Data = buf.Bytes()
	prepared.Resized = true
	return prepared, nil
}
