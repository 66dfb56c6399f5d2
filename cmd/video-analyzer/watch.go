package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/pipeline"
	"github.com/sipsyai/video-automation-analyzer/pkg/presenter"
	"github.com/sipsyai/video-automation-analyzer/pkg/skill"
	"github.com/sipsyai/video-automation-analyzer/pkg/video"
	"github.com/sipsyai/video-automation-analyzer/pkg/watch"
)

// WatchConfig holds the flags of the watch command
type WatchConfig struct {
	Include    string
	IgnoreDirs []string
	OutputDir  string
	Formats    []string
	Debounce   time.Duration
}

func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Include:    watch.DefaultInclude,
		IgnoreDirs: watch.DefaultConfig("").IgnoreDirs,
		OutputDir:  "./output",
		Formats:    []string{string(generator.FormatPlaywright), string(generator.FormatManual)},
		Debounce:   2 * time.Second,
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Analyze new recordings as they appear in a directory",
	Long: `Watches a directory tree and analyses every recording that matches --include
once it has stopped growing. Results for foo.mp4 are written to
<output-dir>/foo/, and results for sub/foo.mp4 to <output-dir>/sub/foo/.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runWatch(cmd.Context(), cfg, getWatchConfigFromFlags(cmd), args[0])
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().String("include", defaults.Include, "Doublestar pattern selecting recordings")
	watchCmd.Flags().StringSliceP("ignore", "i", defaults.IgnoreDirs, "Directory names to ignore")
	watchCmd.Flags().StringP("output-dir", "o", defaults.OutputDir, "Parent directory for per-recording results")
	watchCmd.Flags().StringSliceP("formats", "f", defaults.Formats, "Output formats (playwright, selenium, windows-mcp, manual)")
	watchCmd.Flags().Duration("debounce", defaults.Debounce, "Quiet period before a file is considered complete")
}

func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()
	if include, err := cmd.Flags().GetString("include"); err == nil {
		config.Include = include
	}
	if ignoreDirs, err := cmd.Flags().GetStringSlice("ignore"); err == nil {
		config.IgnoreDirs = ignoreDirs
	}
	if outputDir, err := cmd.Flags().GetString("output-dir"); err == nil {
		config.OutputDir = outputDir
	}
	if formats, err := cmd.Flags().GetStringSlice("formats"); err == nil {
		config.Formats = formats
	}
	if debounce, err := cmd.Flags().GetDuration("debounce"); err == nil {
		config.Debounce = debounce
	}
	return config
}

func runWatch(ctx context.Context, cfg config.Config, wc *WatchConfig, dir string) error {
	formats, err := generator.ParseFormats(wc.Formats)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrap(err, "failed to resolve watch directory")
	}
	watchCfg := watch.DefaultConfig(root)
	watchCfg.Include = wc.Include
	watchCfg.IgnoreDirs = wc.IgnoreDirs
	watchCfg.Debounce = wc.Debounce
	watcher, err := watch.New(watchCfg)
	if err != nil {
		return err
	}

	deps, err := skill.DepsFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	sampler, err := video.NewSampler(deps.Sampling, deps.Decoder)
	if err != nil {
		return err
	}
	p := pipeline.New(sampler, deps.Analyzer, deps.Generator)

	presenter.Info(fmt.Sprintf("Watching %s for %s (Ctrl+C to stop)", dir, wc.Include))
	err = watcher.Run(ctx, func(ctx context.Context, path string) {
		outDir := recordingOutputDir(wc.OutputDir, root, path)
		log := logger.G(ctx).WithField("video", path).WithField("output_dir", outDir)

		presenter.Section("New recording: " + filepath.Base(path))
		summary, err := p.Run(ctx, pipeline.Request{VideoPath: path, Formats: formats}, pipeline.NopObserver{})
		if err != nil {
			log.WithError(err).Error("analysis failed")
			presenter.Error(err, "Analysis failed for "+filepath.Base(path))
			return
		}
		if _, err := pipeline.WriteOutputs(summary, outDir); err != nil {
			log.WithError(err).Error("failed to write outputs")
			presenter.Error(err, "Failed to write results")
			return
		}
		reportSummary(summary, 0)
		presenter.Success("Results in: " + outDir)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// recordingOutputDir mirrors the recording's path below the watch root, minus
// its extension, so same-named recordings in different folders stay apart
func recordingOutputDir(parent, root, videoPath string) string {
	rel, err := filepath.Rel(root, videoPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Join(parent, pipeline.WorkflowName(videoPath))
	}
	return filepath.Join(parent, strings.TrimSuffix(rel, filepath.Ext(rel)))
}
