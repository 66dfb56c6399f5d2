package vision

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

// ErrMalformedReply is wrapped by reply parsing failures
var ErrMalformedReply = errors.New("malformed model reply")

type replyPayload struct {
	ActionType    string                  `json:"action_type"`
	TargetElement *workflow.TargetElement `json:"target_element"`
	InputValue    string                  `json:"input_value"`
	URL           string                  `json:"url"`
	Description   string                  `json:"description"`
}

// extractJSON strips ```json fences and returns the outermost {...} span
func extractJSON(reply string) string {
	text := reply
	if _, after, ok := strings.Cut(text, "```json"); ok {
		text, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(text, "```"); ok {
		text, _, _ = strings.Cut(after, "```")
	}
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// parseReply decodes a model reply into an action stamped with timestampMS
func parseReply(reply string, timestampMS int64) (workflow.Action, error) {
	var payload replyPayload
	if err := json.Unmarshal([]byte(extractJSON(reply)), &payload); err != nil {
		return workflow.Action{}, errors.Wrapf(ErrMalformedReply, "%v", err)
	}

	target := payload.TargetElement
	if target != nil && *target == (workflow.TargetElement{}) {
		target = nil
	}

	return workflow.Action{
		TimestampMS: timestampMS,
		Kind:        workflow.ParseActionKind(payload.ActionType),
		Target:      target,
		InputValue:  payload.InputValue,
		URL:         payload.URL,
		Description: strings.TrimSpace(payload.Description),
	}, nil
}
