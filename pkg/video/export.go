package video

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFrames saves frames as frame_NNNN_<ts>ms.<format> files in dir and
// returns the written paths. format is "jpg" or "png".
func WriteFrames(frames []Frame, dir, format string) ([]string, error) {
	var encode func(image.Image) ([]byte, error)
	switch format {
	case "jpg", "jpeg":
		format, encode = "jpg", jpegBytes
	case "png":
		encode = pngBytes
	default:
		return nil, errors.Errorf("unsupported frame format %q (want jpg or png)", format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create frame directory")
	}

	paths := make([]string, 0, len(frames))
	for i, frame := range frames {
		raw, err := encode(frame.Image)
		if err != nil {
			return paths, err
		}
		name := fmt.Sprintf("frame_%04d_%dms.%s", i, frame.TimestampMS, format)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return paths, errors.Wrapf(err, "failed to write %s", name)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
