package video

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryDecoder struct {
	info    StreamInfo
	frames  []Raster
	openErr error
	failAt  int
	opened  int
}

func (d *memoryDecoder) Open(context.Context, string) (Stream, error) {
	d.opened++
	if d.openErr != nil {
		return nil, d.openErr
	}
	return &memoryStream{d: d, failAt: d.failAt}, nil
}

type memoryStream struct {
	d      *memoryDecoder
	pos    int
	failAt int
	closed bool
}

func (s *memoryStream) Info() StreamInfo { return s.d.info }

func (s *memoryStream) Next(ctx context.Context) (Raster, error) {
	if s.failAt > 0 && s.pos == s.failAt {
		return Raster{}, errors.New("corrupt packet")
	}
	if s.pos >= len(s.d.frames) {
		return Raster{}, io.EOF
	}
	r := s.d.frames[s.pos]
	s.pos++
	return r, nil
}

func (s *memoryStream) Close() error {
	s.closed = true
	return nil
}

// changedRaster is a 10x10 black frame whose first n pixels are white
func changedRaster(n int) Raster {
	r := Raster{Width: 10, Height: 10, Pix: make([]byte, 300)}
	for i := 0; i < n && i < 100; i++ {
		r.Pix[i*3], r.Pix[i*3+1], r.Pix[i*3+2] = 255, 255, 255
	}
	return r
}

func newTestSampler(t *testing.T, cfg Config, d Decoder) *Sampler {
	t.Helper()
	s, err := NewSampler(cfg, d)
	require.NoError(t, err)
	return s
}

func timestamps(frames []Frame) []int64 {
	out := make([]int64, len(frames))
	for i, f := range frames {
		out[i] = f.TimestampMS
	}
	return out
}

func TestSampleFirstFrameAlwaysKept(t *testing.T) {
	d := &memoryDecoder{
		info:   StreamInfo{FPS: 1, Width: 10, Height: 10, FrameCount: 3},
		frames: []Raster{changedRaster(0), changedRaster(0), changedRaster(0)},
	}

	frames, err := newTestSampler(t, Config{SampleRate: 1, ChangeThreshold: 0}, d).Sample(context.Background(), "clip.mp4")
	require.NoError(t, err)

	require.Len(t, frames, 1)
	assert.Equal(t, int64(0), frames[0].TimestampMS)
	assert.Equal(t, 0, frames[0].Index)
}

func TestSampleStrideAndTimestamps(t *testing.T) {
	var rasters []Raster
	for i := 0; i < 90; i++ {
		rasters = append(rasters, changedRaster(i%2*100))
	}
	d := &memoryDecoder{info: StreamInfo{FPS: 30, Width: 10, Height: 10, FrameCount: 90}, frames: rasters}

	frames, err := newTestSampler(t, Config{SampleRate: 1, ChangeThreshold: 0}, d).Sample(context.Background(), "clip.mp4")
	require.NoError(t, err)

	// visited indices 0, 30, 60 are all black; only the first survives
	assert.Equal(t, []int64{0}, timestamps(frames))

	d.frames = nil
	for i := 0; i < 90; i++ {
		d.frames = append(d.frames, changedRaster((i/30)*40))
	}
	frames, err = newTestSampler(t, Config{SampleRate: 1, ChangeThreshold: 0.1}, d).Sample(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1000, 2000}, timestamps(frames))
}

func TestSampleStrideNeverZero(t *testing.T) {
	d := &memoryDecoder{
		info:   StreamInfo{FPS: 2, Width: 10, Height: 10, FrameCount: 4},
		frames: []Raster{changedRaster(0), changedRaster(50), changedRaster(0), changedRaster(50)},
	}

	// a sample rate above the video fps visits every frame
	frames, err := newTestSampler(t, Config{SampleRate: 10, ChangeThreshold: 0.2}, d).Sample(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 500, 1000, 1500}, timestamps(frames))
}

func TestSampleComparesAgainstLastKept(t *testing.T) {
	// each frame drifts 10% from its predecessor; against the last kept frame
	// the drift accumulates until it crosses the threshold
	d := &memoryDecoder{
		info: StreamInfo{FPS: 1, Width: 10, Height: 10, FrameCount: 5},
		frames: []Raster{
			changedRaster(0), changedRaster(10), changedRaster(20), changedRaster(30), changedRaster(40),
		},
	}

	frames, err := newTestSampler(t, Config{SampleRate: 1, ChangeThreshold: 0.15}, d).Sample(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 2000, 4000}, timestamps(frames))
}

func TestSampleLowerThresholdKeepsAtLeastAsMany(t *testing.T) {
	changes := []int{0, 5, 12, 40, 41, 90, 60, 61, 75, 3}
	var rasters []Raster
	for _, c := range changes {
		rasters = append(rasters, changedRaster(c))
	}
	d := &memoryDecoder{info: StreamInfo{FPS: 1, Width: 10, Height: 10, FrameCount: len(rasters)}, frames: rasters}

	previous := -1
	for _, threshold := range []float64{1, 0.8, 0.5, 0.3, 0.15, 0.05, 0.01, 0} {
		frames, err := newTestSampler(t, Config{SampleRate: 1, ChangeThreshold: threshold}, d).Sample(context.Background(), "clip.mp4")
		require.NoError(t, err)
		if previous >= 0 {
			assert.GreaterOrEqual(t, len(frames), previous, "threshold %v", threshold)
		}
		previous = len(frames)
	}
	assert.Equal(t, len(changes), previous, "threshold 0 keeps every distinct frame")
}

func TestSampleDimensionChangeIsFullChange(t *testing.T) {
	wide := Raster{Width: 20, Height: 5, Pix: make([]byte, 300)}
	d := &memoryDecoder{
		info:   StreamInfo{FPS: 1, Width: 10, Height: 10, FrameCount: 2},
		frames: []Raster{changedRaster(0), wide},
	}

	frames, err := newTestSampler(t, Config{SampleRate: 1, ChangeThreshold: 0.99}, d).Sample(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestSampleErrors(t *testing.T) {
	t.Run("no frames", func(t *testing.T) {
		d := &memoryDecoder{info: StreamInfo{FPS: 30, Width: 10, Height: 10, FrameCount: 1}}
		_, err := newTestSampler(t, DefaultConfig(), d).Sample(context.Background(), "empty.mp4")
		assert.True(t, errors.Is(err, ErrNoFrames))
	})

	t.Run("unsupported container", func(t *testing.T) {
		d := &memoryDecoder{openErr: errors.Wrap(ErrUnsupportedContainer, "no video stream")}
		frames, err := newTestSampler(t, DefaultConfig(), d).Sample(context.Background(), "notes.mkv")
		assert.True(t, errors.Is(err, ErrUnsupportedContainer))
		assert.Nil(t, frames)
	})

	t.Run("zero fps", func(t *testing.T) {
		d := &memoryDecoder{info: StreamInfo{FPS: 0}, frames: []Raster{changedRaster(0)}}
		_, err := newTestSampler(t, DefaultConfig(), d).Sample(context.Background(), "clip.mp4")
		assert.True(t, errors.Is(err, ErrUnsupportedContainer))
	})

	t.Run("decode failure returns no partial result", func(t *testing.T) {
		d := &memoryDecoder{
			info:   StreamInfo{FPS: 1, Width: 10, Height: 10, FrameCount: 3},
			frames: []Raster{changedRaster(0), changedRaster(100), changedRaster(0)},
			failAt: 2,
		}
		frames, err := newTestSampler(t, DefaultConfig(), d).Sample(context.Background(), "clip.mp4")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupt packet")
		assert.Nil(t, frames)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d := &memoryDecoder{info: StreamInfo{FPS: 1, Width: 10, Height: 10}, frames: []Raster{changedRaster(0)}}
		_, err := newTestSampler(t, DefaultConfig(), d).Sample(ctx, "clip.mp4")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero threshold", Config{SampleRate: 0.5, ChangeThreshold: 0}, false},
		{"full threshold", Config{SampleRate: 2, ChangeThreshold: 1}, false},
		{"zero rate", Config{SampleRate: 0, ChangeThreshold: 0.1}, true},
		{"negative rate", Config{SampleRate: -1, ChangeThreshold: 0.1}, true},
		{"threshold above one", Config{SampleRate: 1, ChangeThreshold: 1.1}, true},
		{"negative threshold", Config{SampleRate: 1, ChangeThreshold: -0.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSampler(tt.cfg, &memoryDecoder{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := NewSampler(DefaultConfig(), nil)
	assert.Error(t, err)
}
