// Package pipeline runs the end to end analysis of one recording: sample
// frames, describe each one in order, summarise, and render the requested
// artifacts.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/telemetry"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
	"github.com/sipsyai/video-automation-analyzer/pkg/video"
	"github.com/sipsyai/video-automation-analyzer/pkg/vision"
)

// FrameSampler yields the kept frames of a recording
type FrameSampler interface {
	Sample(ctx context.Context, path string) ([]video.Frame, error)
}

// Request describes one run
type Request struct {
	VideoPath string
	// Formats defaults to generator.DefaultFormats
	Formats []generator.Format
	// WorkflowName defaults to the file name of VideoPath without extension
	WorkflowName string
	// FailFast aborts the run on the first degraded frame
	FailFast bool
}

// Pipeline wires the sampler, analyzer and generator together. It keeps no
// state between runs.
type Pipeline struct {
	Sampler   FrameSampler
	Analyzer  *vision.Analyzer
	Generator *generator.Generator
}

// New returns a pipeline
func New(sampler FrameSampler, analyzer *vision.Analyzer, gen *generator.Generator) *Pipeline {
	return &Pipeline{Sampler: sampler, Analyzer: analyzer, Generator: gen}
}

// Run analyses req.VideoPath. Frames are analysed strictly in time order and
// each call sees the descriptions of up to three preceding actions. Degraded
// frames are kept in the result unless FailFast is set. A failed summary is
// recorded as text rather than failing the run.
func (p *Pipeline) Run(ctx context.Context, req Request, obs Observer) (*workflow.Summary, error) {
	if obs == nil {
		obs = NopObserver{}
	}
	formats := req.Formats
	if len(formats) == 0 {
		formats = generator.DefaultFormats()
	}
	name := req.WorkflowName
	if name == "" {
		name = WorkflowName(req.VideoPath)
	}

	summary := &workflow.Summary{
		RunID:     uuid.NewString(),
		VideoPath: req.VideoPath,
		Scripts:   map[string]string{},
	}
	ctx = logger.WithFields(ctx, logrus.Fields{"run_id": summary.RunID})

	err := telemetry.WithSpan(ctx, "pipeline.run", func(ctx context.Context) error {
		log := logger.G(ctx)

		frames, err := p.Sampler.Sample(ctx, req.VideoPath)
		if err != nil {
			return errors.Wrapf(err, "failed to sample %s", req.VideoPath)
		}
		summary.TotalFrames = len(frames)
		if len(frames) > 0 {
			summary.TotalDurationMS = frames[len(frames)-1].TimestampMS
		}
		log.WithField("frames", len(frames)).Info("sampled video")
		obs.Sampled(len(frames))

		analyses, err := p.analyze(ctx, frames, req.FailFast, obs)
		if err != nil {
			return err
		}
		summary.Analyses = analyses

		obs.Summarizing()
		narrative, err := p.Analyzer.Summarize(ctx, analyses)
		if err != nil {
			log.WithError(err).Warn("workflow summary failed")
			narrative = vision.SummaryFailure(err)
		}
		summary.Narrative = narrative

		for _, f := range formats {
			script, err := p.Generator.Generate(ctx, analyses, name, f)
			if err != nil {
				return errors.Wrapf(err, "failed to generate %s", f)
			}
			summary.Scripts[string(f)] = script.Content
			obs.ScriptGenerated(script)
		}
		return nil
	}, attribute.String("pipeline.video", req.VideoPath))
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (p *Pipeline) analyze(ctx context.Context, frames []video.Frame, failFast bool, obs Observer) ([]workflow.Action, error) {
	analyses := make([]workflow.Action, 0, len(frames))
	var history vision.History
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obs.FrameStarted(i, len(frames), frame.TimestampMS)

		action, err := p.Analyzer.AnalyzeFrame(ctx, vision.FrameInput{TimestampMS: frame.TimestampMS, Image: frame.Image}, history)
		if err != nil && failFast {
			return nil, errors.Wrapf(err, "frame %d at %dms", i+1, frame.TimestampMS)
		}
		analyses = append(analyses, action)
		history = history.Push(action)
		obs.FrameAnalyzed(i, len(frames), action, err)
	}
	return analyses, nil
}

// WorkflowName derives a workflow name from a recording path
func WorkflowName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "workflow"
	}
	return name
}
