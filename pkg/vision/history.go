package vision

import "github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"

// HistorySize is how many earlier actions are shown to the model
const HistorySize = 3

// History is the rolling window of recent actions. It is a value: Push returns
// a new History and never changes the receiver.
type History struct {
	items [HistorySize]workflow.Action
	n     int
}

// Push returns a history with a appended, dropping the oldest entry when full
func (h History) Push(a workflow.Action) History {
	if h.n < HistorySize {
		h.items[h.n] = a
		h.n++
		return h
	}
	copy(h.items[:], h.items[1:])
	h.items[HistorySize-1] = a
	return h
}

// Len is the number of actions held
func (h History) Len() int { return h.n }

// Actions returns the held actions, oldest first
func (h History) Actions() []workflow.Action {
	out := make([]workflow.Action, h.n)
	copy(out, h.items[:h.n])
	return out
}

// Descriptions returns the held action descriptions, oldest first
func (h History) Descriptions() []string {
	out := make([]string, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.items[i].Description
	}
	return out
}
