package pipeline

import (
	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

// Observer receives progress callbacks from Run. Calls happen on the
// goroutine running the pipeline.
type Observer interface {
	Sampled(frames int)
	FrameStarted(index, total int, timestampMS int64)
	// FrameAnalyzed receives the action and, for a degraded frame, the
	// analysis error behind it
	FrameAnalyzed(index, total int, action workflow.Action, err error)
	Summarizing()
	ScriptGenerated(script generator.Script)
}

// NopObserver ignores every callback
type NopObserver struct{}

func (NopObserver) Sampled(int)                                    {}
func (NopObserver) FrameStarted(int, int, int64)                   {}
func (NopObserver) FrameAnalyzed(int, int, workflow.Action, error) {}
func (NopObserver) Summarizing()                                   {}
func (NopObserver) ScriptGenerated(generator.Script)               {}
