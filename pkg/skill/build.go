package skill

import (
	"context"

	"github.com/sipsyai/video-automation-analyzer/pkg/binaries"
	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/video"
	"github.com/sipsyai/video-automation-analyzer/pkg/vision"
)

// DepsFromConfig builds the components described by cfg. The vision client
// is created here, so provider credentials are checked once at start up.
func DepsFromConfig(ctx context.Context, cfg config.Config) (Deps, error) {
	client, err := vision.NewClient(ctx, cfg)
	if err != nil {
		return Deps{}, err
	}
	resolver := binaries.NewResolver(cfg.BinaryOverrides())

	return Deps{
		Decoder: video.NewFFmpegDecoder(resolver),
		Sampling: video.Config{
			SampleRate:      cfg.Sampling.Rate,
			ChangeThreshold: cfg.Sampling.Threshold,
		},
		Analyzer: vision.NewAnalyzer(client, vision.WithTimeout(cfg.Vision.Timeout)),
		Generator: generator.New(generator.Options{
			WebOnly:        cfg.Generator.WebOnly,
			ValidateSyntax: cfg.Generator.ValidateSyntax,
		}, generator.NewSyntaxChecker(resolver)),
		Concurrency: cfg.Vision.Concurrency,
	}, nil
}

// NewFromConfig returns a Service built from cfg
func NewFromConfig(ctx context.Context, cfg config.Config) (*Service, error) {
	deps, err := DepsFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewService(deps), nil
}
