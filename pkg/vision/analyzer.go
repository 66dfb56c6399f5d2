package vision

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/telemetry"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
	"github.com/sipsyai/video-automation-analyzer/pkg/video"
)

// DefaultTimeout bounds a single model call
const DefaultTimeout = 120 * time.Second

// FrameInput is one frame to analyse. Either Image or Base64 must be set;
// Base64 is treated as image/jpeg unless MediaType says otherwise.
type FrameInput struct {
	TimestampMS int64
	Image       image.Image
	Base64      string
	MediaType   string
}

// Analyzer turns frames into actions. It holds no per-video state; callers
// thread the History through successive calls.
type Analyzer struct {
	client  Client
	timeout time.Duration
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithTimeout sets the per-call timeout; zero or negative disables it
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

func NewAnalyzer(client Client, opts ...Option) *Analyzer {
	a := &Analyzer{client: client, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeFrame asks the model what the user did in frame, showing it the
// descriptions held in history. It never panics and always returns a usable
// action: on transport failure the action has Kind error, on an unreadable
// reply Kind unknown, and in both cases the description starts with
// "Analysis failed: ". The error is returned alongside for callers that want it.
func (a *Analyzer) AnalyzeFrame(ctx context.Context, frame FrameInput, history History) (workflow.Action, error) {
	var action workflow.Action
	err := telemetry.WithSpan(ctx, "vision.analyze_frame", func(ctx context.Context) error {
		var err error
		action, err = a.analyzeFrame(ctx, frame, history)
		telemetry.SetAttributes(ctx, attribute.String("vision.action_type", string(action.Kind)))
		return err
	}, attribute.Int64("vision.timestamp_ms", frame.TimestampMS), attribute.Int("vision.history", history.Len()))
	return action, err
}

func (a *Analyzer) analyzeFrame(ctx context.Context, frame FrameInput, history History) (action workflow.Action, err error) {
	log := logger.G(ctx).WithField("timestamp_ms", frame.TimestampMS)

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic during frame analysis: %v", r)
			action = degraded(frame.TimestampMS, workflow.ActionError, err)
		}
	}()

	img, err := frameImage(frame)
	if err != nil {
		return degraded(frame.TimestampMS, workflow.ActionError, err), err
	}
	prompt, err := framePrompt(frame.TimestampMS, history)
	if err != nil {
		return degraded(frame.TimestampMS, workflow.ActionError, err), err
	}

	reply, err := a.complete(ctx, Request{System: systemPrompt(), Prompt: prompt, Images: []Image{img}})
	if err != nil {
		log.WithError(err).Warn("frame analysis request failed")
		return degraded(frame.TimestampMS, workflow.ActionError, err), err
	}

	action, err = parseReply(reply, frame.TimestampMS)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{"reply": truncate(reply, 200)}).Warn("could not parse frame analysis")
		return degraded(frame.TimestampMS, workflow.ActionUnknown, err), err
	}
	log.WithField("action_type", action.Kind).Debug("frame analysed")
	return action, nil
}

// AnalyzeImage analyses a standalone screenshot with no surrounding context
func (a *Analyzer) AnalyzeImage(ctx context.Context, frame FrameInput) (workflow.Action, error) {
	return a.AnalyzeFrame(ctx, frame, History{})
}

// Summarize asks for a narrative of the whole workflow
func (a *Analyzer) Summarize(ctx context.Context, actions []workflow.Action) (string, error) {
	var summary string
	err := telemetry.WithSpan(ctx, "vision.summarize", func(ctx context.Context) error {
		prompt, err := summaryPrompt(actions)
		if err != nil {
			return err
		}
		summary, err = a.complete(ctx, Request{Prompt: prompt})
		return err
	}, attribute.Int("vision.actions", len(actions)))
	if err != nil {
		return "", errors.Wrap(err, "summary request failed")
	}
	return strings.TrimSpace(summary), nil
}

// SummaryFailure is the narrative recorded when Summarize fails
func SummaryFailure(err error) string {
	return fmt.Sprintf("Summary generation failed: %v", err)
}

func (a *Analyzer) complete(ctx context.Context, req Request) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.client.Complete(ctx, req)
}

func frameImage(frame FrameInput) (Image, error) {
	if frame.Base64 != "" {
		mediaType := frame.MediaType
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		return Image{MediaType: mediaType, Base64: frame.Base64}, nil
	}
	if frame.Image == nil {
		return Image{}, errors.New("frame has no image data")
	}
	data, err := video.Encode(frame.Image)
	if err != nil {
		return Image{}, err
	}
	return Image{MediaType: "image/jpeg", Base64: data}, nil
}

func degraded(timestampMS int64, kind workflow.ActionKind, err error) workflow.Action {
	return workflow.Action{
		TimestampMS: timestampMS,
		Kind:        kind,
		Description: fmt.Sprintf("Analysis failed: %v", err),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
