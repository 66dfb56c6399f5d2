package video

import (
	"context"
	"image"
	"io"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/telemetry"
)

// Config tunes frame selection
type Config struct {
	// SampleRate is how many frames per second of video are inspected
	SampleRate float64
	// ChangeThreshold is the fraction of changed pixels above which a frame is kept
	ChangeThreshold float64
}

// DefaultConfig inspects one frame per second and keeps frames with more than 15% change
func DefaultConfig() Config {
	return Config{SampleRate: 1.0, ChangeThreshold: 0.15}
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.Errorf("sample rate must be positive, got %v", c.SampleRate)
	}
	if c.ChangeThreshold < 0 || c.ChangeThreshold > 1 {
		return errors.Errorf("change threshold must be within [0, 1], got %v", c.ChangeThreshold)
	}
	return nil
}

// Frame is a kept frame with its offset from the start of the video
type Frame struct {
	Index       int
	TimestampMS int64
	Image       *image.RGBA
}

// Sampler selects visually distinct frames from a video
type Sampler struct {
	cfg     Config
	decoder Decoder
}

func NewSampler(cfg Config, decoder Decoder) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if decoder == nil {
		return nil, errors.New("decoder is required")
	}
	return &Sampler{cfg: cfg, decoder: decoder}, nil
}

// Config returns the sampler settings
func (s *Sampler) Config() Config { return s.cfg }

// Sample decodes path and returns the kept frames in time order.
//
// Every stride-th frame is visited, where stride = max(1, int(fps/SampleRate)).
// The first visited frame is always kept; each later one is kept only when its
// change ratio against the last kept frame exceeds ChangeThreshold.
func (s *Sampler) Sample(ctx context.Context, path string) ([]Frame, error) {
	var frames []Frame
	err := telemetry.WithSpan(ctx, "video.sample", func(ctx context.Context) error {
		var err error
		frames, err = s.sample(ctx, path)
		telemetry.SetAttributes(ctx, attribute.Int("video.kept_frames", len(frames)))
		return err
	}, attribute.String("video.path", path))
	if err != nil {
		return nil, err
	}
	return frames, nil
}

func (s *Sampler) sample(ctx context.Context, path string) ([]Frame, error) {
	stream, err := s.decoder.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	info := stream.Info()
	if info.FPS <= 0 {
		return nil, errors.Wrapf(ErrUnsupportedContainer, "invalid frame rate %v", info.FPS)
	}
	stride := max(1, int(info.FPS/s.cfg.SampleRate))
	log := logger.G(ctx).WithField("path", path)
	log.WithField("stride", stride).WithField("fps", info.FPS).Debug("sampling video")

	var (
		frames   []Frame
		lastKept intensity
		decoded  int
	)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raster, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode frame %d", index)
		}
		decoded++

		if index%stride != 0 {
			continue
		}

		timestamp := int64(float64(index) / info.FPS * 1000)
		current := raster.luma()

		if len(frames) > 0 {
			ratio := changeRatio(lastKept, current)
			if ratio <= s.cfg.ChangeThreshold {
				continue
			}
			log.WithField("timestamp_ms", timestamp).WithField("ratio", ratio).Debug("frame changed")
		}

		frames = append(frames, Frame{Index: index, TimestampMS: timestamp, Image: raster.ToRGBA()})
		lastKept = current
	}

	if decoded == 0 {
		return nil, errors.Wrap(ErrNoFrames, path)
	}
	log.WithField("decoded", decoded).WithField("kept", len(frames)).Info("sampled video")
	return frames, nil
}
