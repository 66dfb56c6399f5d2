package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/pipeline"
	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
	"github.com/sipsyai/video-automation-analyzer/pkg/skill"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
	"github.com/sipsyai/video-automation-analyzer/pkg/video"
)

// AnalyzeConfig holds the flags of the analyze command
type AnalyzeConfig struct {
	OutputDir      string
	Formats        []string
	FPS            float64
	Threshold      float64
	WebOnly        bool
	ValidateSyntax bool
	FailFast       bool
	Verbose        bool
	Name           string

	// set reports which sampling and generator flags were given explicitly
	set map[string]bool
}

func NewAnalyzeConfig() *AnalyzeConfig {
	return &AnalyzeConfig{
		OutputDir:      "./output",
		Formats:        []string{string(generator.FormatPlaywright), string(generator.FormatManual)},
		FPS:            1.0,
		Threshold:      0.15,
		ValidateSyntax: true,
		set:            map[string]bool{},
	}
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <video>",
	Short: "Analyze a screen recording and generate automation scripts",
	Long: `Samples the recording, describes every kept frame with the vision model and
writes analyses.json, summary.md and one script per requested format into the
output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ac := getAnalyzeConfigFromFlags(cmd)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runAnalyze(cmd.Context(), cfg, ac, args[0])
	},
}

func init() {
	addAnalyzeFlags(analyzeCmd)
}

func addAnalyzeFlags(cmd *cobra.Command) {
	defaults := NewAnalyzeConfig()
	cmd.Flags().StringP("output-dir", "o", defaults.OutputDir, "Directory for the generated files")
	cmd.Flags().StringSliceP("formats", "f", defaults.Formats, "Output formats (playwright, selenium, windows-mcp, manual)")
	cmd.Flags().Float64("fps", defaults.FPS, "Frames per second of video to inspect")
	cmd.Flags().Float64("threshold", defaults.Threshold, "Fraction of changed pixels required to keep a frame")
	cmd.Flags().Bool("web-only", defaults.WebOnly, "Drop desktop operations from browser scripts")
	cmd.Flags().Bool("validate-syntax", defaults.ValidateSyntax, "Check generated scripts with node and python3")
	cmd.Flags().Bool("fail-fast", defaults.FailFast, "Abort on the first frame that cannot be analysed")
	cmd.Flags().BoolP("verbose", "v", defaults.Verbose, "Print per-frame progress")
	cmd.Flags().String("name", defaults.Name, "Workflow name (defaults to the video file name)")
}

func getAnalyzeConfigFromFlags(cmd *cobra.Command) *AnalyzeConfig {
	config := NewAnalyzeConfig()

	if outputDir, err := cmd.Flags().GetString("output-dir"); err == nil {
		config.OutputDir = outputDir
	}
	if formats, err := cmd.Flags().GetStringSlice("formats"); err == nil {
		config.Formats = formats
	}
	if fps, err := cmd.Flags().GetFloat64("fps"); err == nil {
		config.FPS = fps
	}
	if threshold, err := cmd.Flags().GetFloat64("threshold"); err == nil {
		config.Threshold = threshold
	}
	if webOnly, err := cmd.Flags().GetBool("web-only"); err == nil {
		config.WebOnly = webOnly
	}
	if validate, err := cmd.Flags().GetBool("validate-syntax"); err == nil {
		config.ValidateSyntax = validate
	}
	if failFast, err := cmd.Flags().GetBool("fail-fast"); err == nil {
		config.FailFast = failFast
	}
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil {
		config.Verbose = verbose
	}
	if name, err := cmd.Flags().GetString("name"); err == nil {
		config.Name = name
	}
	for _, name := range []string{"fps", "threshold", "web-only", "validate-syntax"} {
		config.set[name] = cmd.Flags().Changed(name)
	}
	return config
}

// apply overlays explicitly given flags on the loaded configuration
func (c *AnalyzeConfig) apply(cfg config.Config) config.Config {
	if c.set["fps"] {
		cfg.Sampling.Rate = c.FPS
	}
	if c.set["threshold"] {
		cfg.Sampling.Threshold = c.Threshold
	}
	if c.set["web-only"] {
		cfg.Generator.WebOnly = c.WebOnly
	}
	if c.set["validate-syntax"] {
		cfg.Generator.ValidateSyntax = c.ValidateSyntax
	}
	return cfg
}

func checkVideoPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("video not found: %s", path)
		}
		return errors.Wrapf(err, "cannot access %s", path)
	}
	if info.IsDir() {
		return errors.Errorf("%s is a directory", path)
	}
	if !video.IsVideoFile(path) {
		return errors.Errorf("unsupported video type %q (supported: %s)", filepath.Ext(path), strings.Join(video.VideoExtensions(), ", "))
	}
	return nil
}

func runAnalyze(ctx context.Context, cfg config.Config, ac *AnalyzeConfig, videoPath string) error {
	if err := checkVideoPath(videoPath); err != nil {
		return err
	}
	formats, err := generator.ParseFormats(ac.Formats)
	if err != nil {
		return err
	}
	cfg = ac.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := skill.DepsFromConfig(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to initialize vision provider")
	}
	sampler, err := video.NewSampler(deps.Sampling, deps.Decoder)
	if err != nil {
		return err
	}

	presenter.Section("Analyzing " + filepath.Base(videoPath))
	presenter.Field("Provider", cfg.Provider)
	presenter.Field("Model", cfg.Model)
	presenter.Field("Sample rate", fmt.Sprintf("%g fps", cfg.Sampling.Rate))
	presenter.Field("Threshold", cfg.Sampling.Threshold)

	obs := &cliObserver{verbose: ac.Verbose}
	summary, err := pipeline.New(sampler, deps.Analyzer, deps.Generator).Run(ctx, pipeline.Request{
		VideoPath:    videoPath,
		Formats:      formats,
		WorkflowName: ac.Name,
		FailFast:     ac.FailFast,
	}, obs)
	if err != nil {
		return errors.Wrap(err, "analysis failed")
	}

	written, err := pipeline.WriteOutputs(summary, ac.OutputDir)
	if err != nil {
		return err
	}

	presenter.Separator()
	reportSummary(summary, obs.degraded)
	for _, path := range written {
		presenter.Info("  Saved " + path)
	}
	presenter.Success("Analysis complete! Results in: " + ac.OutputDir)
	return nil
}

func reportSummary(summary *workflow.Summary, degraded int) {
	presenter.Field("Run ID", summary.RunID)
	presenter.Field("Frames analyzed", summary.TotalFrames)
	presenter.Field("Duration", fmt.Sprintf("%.1fs", summary.DurationSeconds()))
	if degraded > 0 {
		presenter.Warning(fmt.Sprintf("%d frame(s) could not be analysed; see analyses.json", degraded))
	}
}

// cliObserver prints pipeline progress
type cliObserver struct {
	verbose  bool
	degraded int
}

func (o *cliObserver) Sampled(frames int) {
	presenter.Info(fmt.Sprintf("Extracted %d key frames", frames))
}

func (o *cliObserver) FrameStarted(index, total int, timestampMS int64) {
	if o.verbose {
		presenter.Progress(index+1, total, fmt.Sprintf("Analyzing frame @ %dms...", timestampMS))
	}
}

func (o *cliObserver) FrameAnalyzed(index, total int, action workflow.Action, err error) {
	if err != nil {
		o.degraded++
		if o.verbose {
			presenter.Warning(action.Description)
		}
		return
	}
	if o.verbose {
		presenter.Progress(index+1, total, fmt.Sprintf("%s: %s", action.Kind, action.Description))
	}
}

func (o *cliObserver) Summarizing() {
	presenter.Info("Generating workflow summary...")
}

func (o *cliObserver) ScriptGenerated(script generator.Script) {
	for _, w := range script.Warnings {
		presenter.Warning(fmt.Sprintf("%s: %s", script.Format, w))
	}
}
