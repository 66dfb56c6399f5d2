package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipsyai/video-automation-analyzer/pkg/config"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

func newTestAnalyzeCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "analyze"}
	addAnalyzeFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestGetAnalyzeConfigFromFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		ac := getAnalyzeConfigFromFlags(newTestAnalyzeCmd(t))
		assert.Equal(t, "./output", ac.OutputDir)
		assert.Equal(t, []string{"playwright", "manual"}, ac.Formats)
		assert.Equal(t, 1.0, ac.FPS)
		assert.Equal(t, 0.15, ac.Threshold)
		assert.True(t, ac.ValidateSyntax)
		assert.False(t, ac.WebOnly)
		assert.False(t, ac.FailFast)
		assert.False(t, ac.set["fps"])
	})

	t.Run("explicit flags", func(t *testing.T) {
		ac := getAnalyzeConfigFromFlags(newTestAnalyzeCmd(t,
			"-o", "out", "--formats", "selenium,windows-mcp", "--fps", "2",
			"--web-only", "--validate-syntax=false", "--fail-fast", "--name", "login",
		))
		assert.Equal(t, "out", ac.OutputDir)
		assert.Equal(t, []string{"selenium", "windows-mcp"}, ac.Formats)
		assert.Equal(t, 2.0, ac.FPS)
		assert.True(t, ac.WebOnly)
		assert.False(t, ac.ValidateSyntax)
		assert.True(t, ac.FailFast)
		assert.Equal(t, "login", ac.Name)
		assert.True(t, ac.set["fps"])
		assert.False(t, ac.set["threshold"])
	})
}

func TestAnalyzeConfigApply(t *testing.T) {
	base := config.Config{
		Sampling:  config.SamplingConfig{Rate: 0.5, Threshold: 0.3},
		Generator: config.GeneratorConfig{ValidateSyntax: true},
	}

	t.Run("untouched flags keep configured values", func(t *testing.T) {
		got := getAnalyzeConfigFromFlags(newTestAnalyzeCmd(t)).apply(base)
		assert.Equal(t, base, got)
	})

	t.Run("changed flags override", func(t *testing.T) {
		ac := getAnalyzeConfigFromFlags(newTestAnalyzeCmd(t, "--threshold", "0.05", "--web-only", "--validate-syntax=false"))
		got := ac.apply(base)
		assert.Equal(t, 0.5, got.Sampling.Rate)
		assert.Equal(t, 0.05, got.Sampling.Threshold)
		assert.True(t, got.Generator.WebOnly)
		assert.False(t, got.Generator.ValidateSyntax)
	})
}

func TestCheckVideoPath(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "demo.MP4")
	require.NoError(t, os.WriteFile(videoPath, []byte("x"), 0o644))
	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("x"), 0o644))

	tests := []struct {
		name          string
		path          string
		expectedError string
	}{
		{name: "video", path: videoPath},
		{name: "missing", path: filepath.Join(dir, "missing.mp4"), expectedError: "video not found"},
		{name: "directory", path: dir, expectedError: "is a directory"},
		{name: "unsupported", path: textPath, expectedError: "unsupported video type \".txt\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkVideoPath(tt.path)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestCLIObserverCountsOnlyAnalysisFailures(t *testing.T) {
	obs := &cliObserver{}
	obs.FrameAnalyzed(0, 3, workflow.Action{Kind: workflow.ActionClick, Description: "Click"}, nil)
	obs.FrameAnalyzed(1, 3, workflow.Action{Kind: workflow.ActionUnknown, Description: "Hover over the menu"}, nil)
	obs.FrameAnalyzed(2, 3, workflow.Action{Kind: workflow.ActionError, Description: "Analysis failed: timeout"}, errors.New("timeout"))
	assert.Equal(t, 1, obs.degraded)
}
