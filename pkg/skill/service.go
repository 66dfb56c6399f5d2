// Package skill is the integration surface shared by the MCP server, the
// HTTP API and the CLI. It validates tool arguments, runs the analysis and
// renders the outcome as a Markdown report. It never panics and never returns
// a Go error to its caller: every failure becomes an error Result.
package skill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/pipeline"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
	"github.com/sipsyai/video-automation-analyzer/pkg/video"
	"github.com/sipsyai/video-automation-analyzer/pkg/vision"
)

// ErrValidation marks argument errors detected before any analysis starts
var ErrValidation = errors.New("invalid arguments")

// DefaultFPSSample is used when VideoArgs.FPSSample is zero
const DefaultFPSSample = 1.0

// VideoArgs are the arguments of analyze_video_workflow
type VideoArgs struct {
	VideoPath     string   `json:"video_path"`
	OutputFormats []string `json:"output_formats,omitempty"`
	FPSSample     float64  `json:"fps_sample,omitempty"`
}

// ImageArgs are the arguments of analyze_single_screenshot
type ImageArgs struct {
	ImagePath string `json:"image_path"`
}

// Result is the text handed back to the calling tool
type Result struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}

// Deps are the long-lived components a Service drives
type Deps struct {
	Decoder   video.Decoder
	Sampling  video.Config
	Analyzer  *vision.Analyzer
	Generator *generator.Generator
	// Concurrency bounds parallel screenshot analysis in AnalyzeImages
	Concurrency int
}

// Service answers tool calls. Its components are created once and shared by
// every call; no state is carried from one call to the next.
type Service struct {
	deps Deps
}

// NewService returns a Service
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// AnalyzeVideo samples, analyses and scripts a recording
func (s *Service) AnalyzeVideo(ctx context.Context, args VideoArgs) (res Result) {
	defer recoverPanic(ctx, &res)

	formats, fps, err := validateVideoArgs(args)
	if err != nil {
		return errorResult(err)
	}

	cfg := s.deps.Sampling
	cfg.SampleRate = fps
	sampler, err := video.NewSampler(cfg, s.deps.Decoder)
	if err != nil {
		return errorResult(err)
	}

	ctx = logger.WithFields(ctx, logrus.Fields{"video": args.VideoPath, "fps_sample": fps})
	summary, err := pipeline.New(sampler, s.deps.Analyzer, s.deps.Generator).
		Run(ctx, pipeline.Request{VideoPath: args.VideoPath, Formats: formats}, nil)
	if err != nil {
		logger.G(ctx).WithError(err).Error("video analysis failed")
		return errorResult(err)
	}
	return Result{Text: videoReport(summary, formats)}
}

// AnalyzeImage describes a single screenshot with no surrounding context
func (s *Service) AnalyzeImage(ctx context.Context, args ImageArgs) (res Result) {
	defer recoverPanic(ctx, &res)

	if err := validatePath(args.ImagePath, "image_path", video.IsImageFile, video.ImageExtensions()); err != nil {
		return errorResult(err)
	}
	img, err := video.LoadImage(args.ImagePath)
	if err != nil {
		return errorResult(errors.Wrapf(err, "could not read image %s", args.ImagePath))
	}

	ctx = logger.WithFields(ctx, logrus.Fields{"image": args.ImagePath})
	action, err := s.deps.Analyzer.AnalyzeImage(ctx, vision.FrameInput{Image: img})
	if err != nil {
		logger.G(ctx).WithError(err).Warn("screenshot analysis degraded")
	}
	return Result{Text: imageReport(action)}
}

// AnalyzeImages describes several independent screenshots, analysing at most
// Deps.Concurrency at a time. Results keep the order of args; an invalid path
// yields an error Result in its slot without reaching the analyzer.
func (s *Service) AnalyzeImages(ctx context.Context, args []ImageArgs) (results []Result) {
	results = make([]Result, len(args))
	defer func() {
		if r := recover(); r != nil {
			var res Result
			recoverResult(ctx, &res, r)
			for i := range results {
				results[i] = res
			}
		}
	}()

	var (
		inputs []vision.FrameInput
		slots  []int
	)
	for i, arg := range args {
		if err := validatePath(arg.ImagePath, "image_path", video.IsImageFile, video.ImageExtensions()); err != nil {
			results[i] = errorResult(err)
			continue
		}
		img, err := video.LoadImage(arg.ImagePath)
		if err != nil {
			results[i] = errorResult(errors.Wrapf(err, "could not read image %s", arg.ImagePath))
			continue
		}
		inputs = append(inputs, vision.FrameInput{Image: img})
		slots = append(slots, i)
	}
	if len(inputs) == 0 {
		return results
	}

	logger.G(ctx).WithField("images", len(inputs)).WithField("concurrency", s.deps.Concurrency).Debug("analysing screenshots")
	actions, err := s.deps.Analyzer.AnalyzeImages(ctx, inputs, s.deps.Concurrency)
	if err != nil {
		for _, i := range slots {
			results[i] = errorResult(err)
		}
		return results
	}
	for n, i := range slots {
		if actions[n].Kind == workflow.ActionError {
			logger.G(ctx).WithField("image", args[i].ImagePath).Warn("screenshot analysis degraded")
		}
		results[i] = Result{Text: imageReport(actions[n])}
	}
	return results
}

func validateVideoArgs(args VideoArgs) ([]generator.Format, float64, error) {
	if err := validatePath(args.VideoPath, "video_path", video.IsVideoFile, video.VideoExtensions()); err != nil {
		return nil, 0, err
	}

	formats := generator.DefaultFormats()
	if len(args.OutputFormats) > 0 {
		parsed, err := generator.ParseFormats(args.OutputFormats)
		if err != nil {
			return nil, 0, errors.Wrap(ErrValidation, err.Error())
		}
		formats = parsed
	}

	fps := args.FPSSample
	if fps == 0 {
		fps = DefaultFPSSample
	}
	if fps < 0 {
		return nil, 0, errors.Wrapf(ErrValidation, "fps_sample must be positive, got %v", args.FPSSample)
	}
	return formats, fps, nil
}

func validatePath(path, field string, supported func(string) bool, exts []string) error {
	if strings.TrimSpace(path) == "" {
		return errors.Wrapf(ErrValidation, "%s is required", field)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrValidation, "file not found: %s", path)
		}
		return errors.Wrapf(ErrValidation, "cannot access %s: %v", path, err)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrValidation, "%s is a directory, not a file", path)
	}
	if !supported(path) {
		return errors.Wrapf(ErrValidation, "unsupported file type %q (supported: %s)",
			filepath.Ext(path), strings.Join(exts, ", "))
	}
	return nil
}

func errorResult(err error) Result {
	return Result{Text: "Error: " + err.Error(), IsError: true}
}

func recoverPanic(ctx context.Context, res *Result) {
	if r := recover(); r != nil {
		recoverResult(ctx, res, r)
	}
}

func recoverResult(ctx context.Context, res *Result, r any) {
	logger.G(ctx).WithField("stack", string(debug.Stack())).Errorf("panic while handling tool call: %v", r)
	*res = Result{Text: fmt.Sprintf("Error: internal failure: %v", r), IsError: true}
}
