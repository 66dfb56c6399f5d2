package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/binaries"
	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
	"github.com/sipsyai/video-automation-analyzer/pkg/video"
)

// ExtractFramesConfig holds the flags of the extract-frames command
type ExtractFramesConfig struct {
	Output    string
	FPS       float64
	Threshold float64
	Format    string
}

func NewExtractFramesConfig() *ExtractFramesConfig {
	return &ExtractFramesConfig{
		Output:    "./frames",
		FPS:       1.0,
		Threshold: 0.15,
		Format:    "jpg",
	}
}

var extractFramesCmd = &cobra.Command{
	Use:   "extract-frames <video>",
	Short: "Save the key frames of a recording without analysing them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runExtractFrames(cmd.Context(), cfg, getExtractFramesConfigFromFlags(cmd), args[0])
	},
}

func init() {
	defaults := NewExtractFramesConfig()
	extractFramesCmd.Flags().StringP("output", "o", defaults.Output, "Directory for the extracted frames")
	extractFramesCmd.Flags().Float64("fps", defaults.FPS, "Frames per second of video to inspect")
	extractFramesCmd.Flags().Float64("threshold", defaults.Threshold, "Fraction of changed pixels required to keep a frame")
	extractFramesCmd.Flags().String("format", defaults.Format, "Image format (jpg or png)")
}

func getExtractFramesConfigFromFlags(cmd *cobra.Command) *ExtractFramesConfig {
	config := NewExtractFramesConfig()
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	if fps, err := cmd.Flags().GetFloat64("fps"); err == nil {
		config.FPS = fps
	}
	if threshold, err := cmd.Flags().GetFloat64("threshold"); err == nil {
		config.Threshold = threshold
	}
	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	return config
}

func runExtractFrames(ctx context.Context, cfg config.Config, ec *ExtractFramesConfig, videoPath string) error {
	if err := checkVideoPath(videoPath); err != nil {
		return err
	}

	decoder := video.NewFFmpegDecoder(binaries.NewResolver(cfg.BinaryOverrides()))
	sampler, err := video.NewSampler(video.Config{SampleRate: ec.FPS, ChangeThreshold: ec.Threshold}, decoder)
	if err != nil {
		return err
	}

	presenter.Info(fmt.Sprintf("Extracting frames from %s...", filepath.Base(videoPath)))
	frames, err := sampler.Sample(ctx, videoPath)
	if err != nil {
		return err
	}
	paths, err := video.WriteFrames(frames, ec.Output, ec.Format)
	if err != nil {
		return err
	}
	for _, p := range paths {
		presenter.Info("  Saved " + filepath.Base(p))
	}
	presenter.Success(fmt.Sprintf("Extracted %d frames to %s", len(paths), ec.Output))
	return nil
}
