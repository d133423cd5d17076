package utils

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"mime/multipart"

	"freshmart-backend/pkg/logger"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	maxImageWidth = 2000
	imageQuality  = 85
)

// ProcessImage resizes oversized uploads and re-encodes them as WebP,
// falling back to JPEG when the WebP encoder refuses the image.
func ProcessImage(file multipart.File, filename string) ([]byte, string, error) {
	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", err
	}
	logger.Get().Debug().Str("filename", filename).Str("format", format).Msg("Processing image")

	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: imageQuality}); err != nil {
		logger.Get().Warn().Err(err).Msg("WebP encoding failed, falling back to JPEG")
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: imageQuality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
	return buf.Bytes(), "image/webp", nil
}
