package video

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/pkg/errors"
)

// JPEGQuality is the quality used for frames sent to the vision model
const JPEGQuality = 85

// Encode returns img as a base64 JPEG at JPEGQuality
func Encode(img image.Image) (string, error) {
	raw, err := jpegBytes(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodePNG returns img as a base64 PNG
func EncodePNG(img image.Image) (string, error) {
	raw, err := pngBytes(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func jpegBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, errors.Wrap(err, "failed to encode frame as jpeg")
	}
	return buf.Bytes(), nil
}

func pngBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "failed to encode frame as png")
	}
	return buf.Bytes(), nil
}

// DecodeBase64Image decodes a base64 payload produced by Encode or EncodePNG.
// The second return value is the format name reported by image.Decode.
func DecodeBase64Image(data string) (image.Image, string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", errors.Wrap(err, "invalid base64 image")
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to decode image")
	}
	return img, format, nil
}
