package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
	"github.com/sipsyai/video-automation-analyzer/pkg/video"
	"github.com/sipsyai/video-automation-analyzer/pkg/vision"
)

type fakeSampler struct {
	frames []video.Frame
	err    error
}

func (s fakeSampler) Sample(context.Context, string) ([]video.Frame, error) {
	return s.frames, s.err
}

func framesAt(ts ...int64) []video.Frame {
	frames := make([]video.Frame, len(ts))
	for i, t := range ts {
		frames[i] = video.Frame{Index: i, TimestampMS: t, Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}
	}
	return frames
}

// scriptedClient answers frame prompts with a click on step-N and summary
// prompts with a fixed narrative. failOn makes the n-th frame call fail.
type scriptedClient struct {
	mu          sync.Mutex
	prompts     []string
	frameCalls  int
	failOn      int
	summaryErr  error
	summaryText string
}

func (c *scriptedClient) Complete(_ context.Context, req vision.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, req.Prompt)

	if len(req.Images) == 0 {
		return c.summaryText, c.summaryErr
	}
	c.frameCalls++
	if c.frameCalls == c.failOn {
		return "", errors.New("connection reset")
	}
	return fmt.Sprintf(`{"action_type": "click", "target_element": {"type": "button", "selector": "#step-%d"}, "description": "step %d"}`, c.frameCalls, c.frameCalls), nil
}

func newPipeline(sampler FrameSampler, client vision.Client) *Pipeline {
	return New(sampler, vision.NewAnalyzer(client), generator.New(generator.Options{}, nil))
}

type recordingObserver struct {
	NopObserver
	sampled  int
	analyzed []int
	failed   []int
	scripts  []generator.Format
	summary  bool
}

func (o *recordingObserver) Sampled(n int) { o.sampled = n }
func (o *recordingObserver) FrameAnalyzed(i, _ int, _ workflow.Action, err error) {
	o.analyzed = append(o.analyzed, i)
	if err != nil {
		o.failed = append(o.failed, i)
	}
}
func (o *recordingObserver) Summarizing()                       { o.summary = true }
func (o *recordingObserver) ScriptGenerated(s generator.Script) { o.scripts = append(o.scripts, s.Format) }

func TestRun(t *testing.T) {
	client := &scriptedClient{summaryText: "  Log in and submit.  "}
	p := newPipeline(fakeSampler{frames: framesAt(0, 1000, 2500)}, client)
	obs := &recordingObserver{}

	summary, err := p.Run(context.Background(), Request{VideoPath: "/tmp/rec/login-flow.mp4"}, obs)
	require.NoError(t, err)

	_, err = uuid.Parse(summary.RunID)
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/rec/login-flow.mp4", summary.VideoPath)
	assert.Equal(t, 3, summary.TotalFrames)
	assert.Equal(t, int64(2500), summary.TotalDurationMS)
	assert.Equal(t, "Log in and submit.", summary.Narrative)

	require.Len(t, summary.Analyses, 3)
	for i, a := range summary.Analyses {
		assert.Equal(t, workflow.ActionClick, a.Kind)
		assert.Equal(t, fmt.Sprintf("step %d", i+1), a.Description)
	}
	assert.Equal(t, []int64{0, 1000, 2500}, []int64{summary.Analyses[0].TimestampMS, summary.Analyses[1].TimestampMS, summary.Analyses[2].TimestampMS})

	assert.Len(t, summary.Scripts, 2)
	assert.Contains(t, summary.Scripts["playwright"], "// Workflow: login-flow")
	assert.Contains(t, summary.Scripts["manual"], "# login-flow")

	assert.Equal(t, 3, obs.sampled)
	assert.Equal(t, []int{0, 1, 2}, obs.analyzed)
	assert.Empty(t, obs.failed)
	assert.True(t, obs.summary)
	assert.Equal(t, []generator.Format{generator.FormatPlaywright, generator.FormatManual}, obs.scripts)
}

func TestRunThreadsHistory(t *testing.T) {
	client := &scriptedClient{summaryText: "ok"}
	p := newPipeline(fakeSampler{frames: framesAt(0, 1000, 2000, 3000, 4000)}, client)

	_, err := p.Run(context.Background(), Request{VideoPath: "a.mp4"}, nil)
	require.NoError(t, err)

	assert.NotContains(t, client.prompts[0], "Previous actions:")
	assert.Contains(t, client.prompts[1], "- step 1")
	assert.Contains(t, client.prompts[3], "- step 1\n- step 2\n- step 3")
	assert.NotContains(t, client.prompts[4], "- step 1\n")
	assert.Contains(t, client.prompts[4], "- step 2\n- step 3\n- step 4")
}

func TestRunDegradedFrames(t *testing.T) {
	t.Run("kept by default", func(t *testing.T) {
		client := &scriptedClient{failOn: 2, summaryText: "ok"}
		obs := &recordingObserver{}
		summary, err := newPipeline(fakeSampler{frames: framesAt(0, 1000, 2000)}, client).
			Run(context.Background(), Request{VideoPath: "a.mp4"}, obs)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, obs.failed)
		require.Len(t, summary.Analyses, 3)
		assert.Equal(t, workflow.ActionError, summary.Analyses[1].Kind)
		assert.True(t, strings.HasPrefix(summary.Analyses[1].Description, "Analysis failed: "))
		assert.Equal(t, int64(1000), summary.Analyses[1].TimestampMS)
	})

	t.Run("fail fast", func(t *testing.T) {
		client := &scriptedClient{failOn: 2, summaryText: "ok"}
		summary, err := newPipeline(fakeSampler{frames: framesAt(0, 1000, 2000)}, client).
			Run(context.Background(), Request{VideoPath: "a.mp4", FailFast: true}, nil)
		require.Error(t, err)
		assert.Nil(t, summary)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Equal(t, 2, client.frameCalls)
	})
}

func TestRunSummaryFailure(t *testing.T) {
	client := &scriptedClient{summaryErr: errors.New("rate limited")}
	summary, err := newPipeline(fakeSampler{frames: framesAt(0)}, client).
		Run(context.Background(), Request{VideoPath: "a.mp4"}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(summary.Narrative, "Summary generation failed: "))
	assert.Contains(t, summary.Narrative, "rate limited")
}

func TestRunSamplerError(t *testing.T) {
	client := &scriptedClient{}
	_, err := newPipeline(fakeSampler{err: video.ErrNoFrames}, client).
		Run(context.Background(), Request{VideoPath: "a.mp4"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, video.ErrNoFrames))
	assert.Empty(t, client.prompts)
}

func TestRunFormatsAndName(t *testing.T) {
	client := &scriptedClient{summaryText: "ok"}
	summary, err := newPipeline(fakeSampler{frames: framesAt(0)}, client).Run(context.Background(), Request{
		VideoPath:    "a.mp4",
		WorkflowName: "checkout",
		Formats:      []generator.Format{generator.FormatSelenium, generator.FormatWindowsMCP},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, summary.Scripts, 2)
	assert.Contains(t, summary.Scripts["selenium"], "# Workflow: checkout")
	assert.Contains(t, summary.Scripts["windows-mcp"], "workflow: checkout")
}

func TestWorkflowName(t *testing.T) {
	assert.Equal(t, "demo", WorkflowName("/videos/demo.mp4"))
	assert.Equal(t, "demo.final", WorkflowName("demo.final.mov"))
	assert.Equal(t, "workflow", WorkflowName(""))
}

func TestWriteOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	summary := &workflow.Summary{
		Analyses:  []workflow.Action{{TimestampMS: 500, Kind: workflow.ActionClick, Description: "Click"}},
		Narrative: "Did a thing.",
		Scripts: map[string]string{
			"playwright": "// pw\n",
			"manual":     "# m\n",
		},
	}

	written, err := WriteOutputs(summary, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "analyses.json"),
		filepath.Join(dir, "summary.md"),
		filepath.Join(dir, "manual_steps.md"),
		filepath.Join(dir, "workflow_playwright.js"),
	}, written)

	data, err := os.ReadFile(filepath.Join(dir, "analyses.json"))
	require.NoError(t, err)
	var actions []map[string]any
	require.NoError(t, json.Unmarshal(data, &actions))
	require.Len(t, actions, 1)
	assert.Equal(t, "click", actions[0]["action_type"])
	assert.EqualValues(t, 500, actions[0]["timestamp"])

	md, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Workflow Summary\n\nDid a thing.\n", string(md))

	pw, err := os.ReadFile(filepath.Join(dir, "workflow_playwright.js"))
	require.NoError(t, err)
	assert.Equal(t, "// pw\n", string(pw))
}

func TestWriteOutputsEmptyAnalyses(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteOutputs(&workflow.Summary{}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "analyses.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
