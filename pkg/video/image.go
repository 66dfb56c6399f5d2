package video

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxImageFileSize caps screenshots accepted for analysis
const MaxImageFileSize = 20 << 20

var (
	videoExtensions = map[string]struct{}{".mp4": {}, ".avi": {}, ".mov": {}, ".mkv": {}}
	imageMediaTypes = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".bmp":  "image/bmp",
		".webp": "image/webp",
	}
)

// IsVideoFile reports whether path has a supported video extension
func IsVideoFile(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsImageFile reports whether path has a supported image extension
func IsImageFile(path string) bool {
	_, ok := imageMediaTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// VideoExtensions lists the accepted video extensions
func VideoExtensions() []string { return []string{".mp4", ".avi", ".mov", ".mkv"} }

// ImageExtensions lists the accepted image extensions
func ImageExtensions() []string { return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"} }

// MediaType returns the MIME type for an image path
func MediaType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := imageMediaTypes[ext]; ok {
		return mt, nil
	}
	return "", errors.Errorf("unsupported image format: %s", ext)
}

// LoadImage decodes a screenshot from disk
func LoadImage(path string) (image.Image, error) {
	if _, err := MediaType(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat image")
	}
	if info.Size() > MaxImageFileSize {
		return nil, errors.Errorf("image file too large: %d bytes (max: %d bytes)", info.Size(), MaxImageFileSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", filepath.Base(path))
	}
	return img, nil
}
