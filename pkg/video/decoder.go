package video

import "context"

// StreamInfo describes the video stream of a container
type StreamInfo struct {
	FPS         float64
	Width       int
	Height      int
	FrameCount  int
	DurationSec float64
}

// Stream yields decoded frames in presentation order
type Stream interface {
	Info() StreamInfo
	// Next returns the next frame or io.EOF once the stream is exhausted
	Next(ctx context.Context) (Raster, error)
	Close() error
}

// Decoder opens video containers
type Decoder interface {
	Open(ctx context.Context, path string) (Stream, error)
}
