// Package workflow defines the data model shared by the frame analyzer and the
// script generator: interpreted user actions, the UI elements they target and the
// summary of a full video analysis run.
package workflow

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ActionKind identifies what the user did in a frame
type ActionKind string

const (
	ActionClick    ActionKind = "click"
	ActionType     ActionKind = "type"
	ActionNavigate ActionKind = "navigate"
	ActionScroll   ActionKind = "scroll"
	ActionSelect   ActionKind = "select"
	// ActionUnknown marks a frame whose reply could not be interpreted
	ActionUnknown ActionKind = "unknown"
	// ActionError marks a frame whose analysis call failed
	ActionError ActionKind = "error"
)

var knownKinds = map[ActionKind]struct{}{
	ActionClick:    {},
	ActionType:     {},
	ActionNavigate: {},
	ActionScroll:   {},
	ActionSelect:   {},
	ActionUnknown:  {},
	ActionError:    {},
}

// ParseActionKind normalises a model supplied action kind. Anything outside the
// known set collapses to ActionUnknown.
func ParseActionKind(s string) ActionKind {
	kind := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownKinds[kind]; ok {
		return kind
	}
	return ActionUnknown
}

// IsBrowserAutomatable reports whether a browser automation script can replay the action
func (k ActionKind) IsBrowserAutomatable() bool {
	switch k {
	case ActionClick, ActionType, ActionNavigate, ActionScroll, ActionSelect:
		return true
	default:
		return false
	}
}

// Location is a screen coordinate in pixels
type Location struct {
	X int `json:"x" jsonschema:"description=Horizontal screen coordinate in pixels"`
	Y int `json:"y" jsonschema:"description=Vertical screen coordinate in pixels"`
}

// UnmarshalJSON accepts coordinates as integers, floats or numeric strings,
// rounded to the nearest pixel. Models often answer "x": 120.0.
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		X json.Number `json:"x"`
		Y json.Number `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "invalid location")
	}
	x, err := pixel(raw.X)
	if err != nil {
		return errors.Wrap(err, "invalid location x")
	}
	y, err := pixel(raw.Y)
	if err != nil {
		return errors.Wrap(err, "invalid location y")
	}
	*l = Location{X: x, Y: y}
	return nil
}

func pixel(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, errors.Errorf("coordinate %s out of range", n)
	}
	return int(math.Round(f)), nil
}

// TargetElement is the model's best guess at the UI element an action targets.
// Every field may be empty.
type TargetElement struct {
	Type     string    `json:"type" jsonschema:"description=Element kind such as button, input, link or dropdown"`
	Text     string    `json:"text,omitempty" jsonschema:"description=Visible text or label"`
	Selector string    `json:"selector,omitempty" jsonschema:"description=Best guess CSS selector"`
	Location *Location `json:"location,omitempty" jsonschema:"description=Screen coordinates of the element"`
}

// HasSelector reports whether the element carries a usable CSS selector
func (t *TargetElement) HasSelector() bool {
	return t != nil && strings.TrimSpace(t.Selector) != ""
}

// HasLocation reports whether the element carries screen coordinates
func (t *TargetElement) HasLocation() bool {
	return t != nil && t.Location != nil
}

// Action is one interpreted user action. A slice of actions is ordered by
// frame time and that order is the workflow order.
type Action struct {
	TimestampMS int64          `json:"timestamp" jsonschema:"description=Frame timestamp in milliseconds from video start"`
	Kind        ActionKind     `json:"action_type" jsonschema:"enum=click,enum=type,enum=navigate,enum=scroll,enum=select,enum=unknown,enum=error"`
	Target      *TargetElement `json:"target_element,omitempty"`
	InputValue  string         `json:"input_value,omitempty" jsonschema:"description=Value entered for type actions"`
	URL         string         `json:"url,omitempty" jsonschema:"description=Current URL or application"`
	Description string         `json:"description" jsonschema:"description=Human readable action description"`
}

// Selector returns the target selector or an empty string
func (a Action) Selector() string {
	if a.Target == nil {
		return ""
	}
	return a.Target.Selector
}
