package mimetypes

import "mime"

type MIME string

const (
	Unknown   MIME = "unknown"
	TextPlain MIME = "text/plain"

	ApplicationPDF MIME = "application/pdf"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
	ImageWebP MIME = "image/webp"
)

// Attachable lists what a chat attachment may contain, with the file extension used
// when an upload path is built.
var Attachable = map[MIME]string{
	ImagePNG:       ".png",
	ImageJPEG:      ".jpg",
	ImageGIF:       ".gif",
	ImageWebP:      ".webp",
	ApplicationPDF: ".pdf",
}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Parse strips parameters from a detected media type.
func Parse(detected string) MIME {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown
	}
	return MIME(mt)
}

// Extension reports the upload extension of an attachable type.
func Extension(m MIME) (string, bool) {
	ext, ok := Attachable[m]
	return ext, ok
}

// IsImage reports whether m can be decoded and resized.
func IsImage(m MIME) bool {
	switch m {
	case ImagePNG, ImageJPEG, ImageGIF:
		return true
	}
	return false
}
