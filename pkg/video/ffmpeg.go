package video

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/sipsyai/video-automation-analyzer/pkg/binaries"
	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
)

const maxStderr = 8 << 10

// FFmpegDecoder probes containers with ffprobe and streams raw bgr24 frames
// out of ffmpeg over a pipe.
type FFmpegDecoder struct {
	resolver *binaries.Resolver
}

func NewFFmpegDecoder(resolver *binaries.Resolver) *FFmpegDecoder {
	return &FFmpegDecoder{resolver: resolver}
}

// Probe reads stream metadata
func (d *FFmpegDecoder) Probe(ctx context.Context, path string) (StreamInfo, error) {
	ffprobe, err := d.resolver.Resolve(ctx, binaries.FFprobe)
	if err != nil {
		return StreamInfo{}, err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,nb_frames,duration:format=duration",
		"-of", "json",
		path,
	)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return StreamInfo{}, ctx.Err()
		}
		return StreamInfo{}, errors.Wrapf(ErrUnsupportedContainer, "ffprobe %s: %s", path, strings.TrimSpace(stderr.String()))
	}

	return parseProbe(out)
}

func parseProbe(out []byte) (StreamInfo, error) {
	if !gjson.ValidBytes(out) {
		return StreamInfo{}, errors.Wrap(ErrUnsupportedContainer, "ffprobe returned invalid JSON")
	}
	doc := gjson.ParseBytes(out)
	stream := doc.Get("streams.0")
	if !stream.Exists() {
		return StreamInfo{}, errors.Wrap(ErrUnsupportedContainer, "no video stream")
	}

	info := StreamInfo{
		Width:      int(stream.Get("width").Int()),
		Height:     int(stream.Get("height").Int()),
		FPS:        parseRate(stream.Get("avg_frame_rate").String()),
		FrameCount: int(stream.Get("nb_frames").Int()),
	}
	if info.FPS <= 0 {
		info.FPS = parseRate(stream.Get("r_frame_rate").String())
	}
	info.DurationSec = stream.Get("duration").Float()
	if info.DurationSec <= 0 {
		info.DurationSec = doc.Get("format.duration").Float()
	}
	if info.FrameCount <= 0 && info.DurationSec > 0 {
		info.FrameCount = int(info.DurationSec * info.FPS)
	}

	switch {
	case info.Width <= 0 || info.Height <= 0:
		return info, errors.Wrapf(ErrUnsupportedContainer, "invalid frame size %dx%d", info.Width, info.Height)
	case info.FPS <= 0:
		return info, errors.Wrap(ErrUnsupportedContainer, "frame rate unavailable")
	case info.FrameCount <= 0:
		return info, errors.Wrap(ErrUnsupportedContainer, "container reports no frames")
	}
	return info, nil
}

// parseRate parses ffprobe rationals such as "30000/1001" or plain numbers
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// Open probes path and starts decoding it
func (d *FFmpegDecoder) Open(ctx context.Context, path string) (Stream, error) {
	info, err := d.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	ffmpeg, err := d.resolver.Resolve(ctx, binaries.FFmpeg)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-nostdin",
		"-v", "error",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-",
	)
	stderr := &limitedBuffer{limit: maxStderr}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ffmpeg stdout")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start ffmpeg")
	}

	logger.G(ctx).WithField("path", path).
		WithField("fps", info.FPS).
		WithField("frames", info.FrameCount).
		WithField("size", strconv.Itoa(info.Width)+"x"+strconv.Itoa(info.Height)).
		Debug("decoding video")

	return &ffmpegStream{
		info:      info,
		cmd:       cmd,
		stdout:    bufio.NewReaderSize(stdout, 1<<20),
		stderr:    stderr,
		frameSize: info.Width * info.Height * 3,
	}, nil
}

type ffmpegStream struct {
	info      StreamInfo
	cmd       *exec.Cmd
	stdout    *bufio.Reader
	stderr    *limitedBuffer
	frameSize int

	waitOnce sync.Once
	waitErr  error
}

func (s *ffmpegStream) Info() StreamInfo { return s.info }

func (s *ffmpegStream) Next(ctx context.Context) (Raster, error) {
	if err := ctx.Err(); err != nil {
		return Raster{}, err
	}

	buf := make([]byte, s.frameSize)
	_, err := io.ReadFull(s.stdout, buf)
	switch {
	case err == nil:
		return Raster{Width: s.info.Width, Height: s.info.Height, Pix: buf}, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if waitErr := s.wait(); waitErr != nil {
			if ctx.Err() != nil {
				return Raster{}, ctx.Err()
			}
			return Raster{}, errors.Wrapf(waitErr, "ffmpeg: %s", strings.TrimSpace(s.stderr.String()))
		}
		return Raster{}, io.EOF
	default:
		return Raster{}, errors.Wrap(err, "failed to read frame from ffmpeg")
	}
}

func (s *ffmpegStream) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	return s.waitErr
}

// Close stops ffmpeg if it is still running
func (s *ffmpegStream) Close() error {
	if s.cmd.ProcessState == nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.wait()
	return nil
}

type limitedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
