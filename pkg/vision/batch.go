package vision

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

// AnalyzeImages analyses independent screenshots concurrently, at most limit at
// a time. Results keep the order of frames. Individual failures produce degraded
// actions rather than aborting the batch; only context cancellation is returned.
func (a *Analyzer) AnalyzeImages(ctx context.Context, frames []FrameInput, limit int) ([]workflow.Action, error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]workflow.Action, len(frames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, frame := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], _ = a.AnalyzeImage(ctx, frame)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
