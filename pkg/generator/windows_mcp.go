package generator

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

type mcpWorkflow struct {
	Workflow string    `yaml:"workflow"`
	Steps    []mcpStep `yaml:"steps"`
}

type mcpStep struct {
	Step        int            `yaml:"step"`
	Action      string         `yaml:"action"`
	Description string         `yaml:"description"`
	Tool        string         `yaml:"tool"`
	Params      map[string]any `yaml:"params,omitempty"`
	WaitMS      int            `yaml:"wait_ms"`
}

type desktopRenderer func(a workflow.Action) (tool string, params map[string]any, note string)

var desktopSteps = map[workflow.ActionKind]desktopRenderer{
	workflow.ActionNavigate: func(a workflow.Action) (string, map[string]any, string) {
		if a.URL == "" {
			return "", nil, "No URL detected for navigation"
		}
		return "Powershell-Tool", map[string]any{"command": "Start-Process " + psLiteral(a.URL)}, ""
	},
	workflow.ActionClick: func(a workflow.Action) (string, map[string]any, string) {
		if !a.Target.HasLocation() {
			return "", nil, missingCoordinates(a)
		}
		return "Click-Tool", map[string]any{
			"loc":    []int{a.Target.Location.X, a.Target.Location.Y},
			"button": "left",
			"clicks": 1,
		}, ""
	},
	workflow.ActionType: func(a workflow.Action) (string, map[string]any, string) {
		if !a.Target.HasLocation() {
			return "", nil, missingCoordinates(a)
		}
		return "Type-Tool", map[string]any{
			"loc":   []int{a.Target.Location.X, a.Target.Location.Y},
			"text":  a.InputValue,
			"clear": false,
		}, ""
	},
	workflow.ActionScroll: func(workflow.Action) (string, map[string]any, string) {
		return "Scroll-Tool", map[string]any{
			"type":        "vertical",
			"direction":   "down",
			"wheel_times": 5,
		}, ""
	},
}

func missingCoordinates(a workflow.Action) string {
	if a.Target != nil && a.Target.Text != "" {
		return fmt.Sprintf("No screen coordinates detected for %q; locate it manually", commentText(a.Target.Text))
	}
	return "No screen coordinates detected; locate the target manually"
}

// renderWindowsMCP always emits every action, whatever the web_only setting
func renderWindowsMCP(actions []workflow.Action, name string) (string, error) {
	doc := mcpWorkflow{Workflow: name, Steps: make([]mcpStep, 0, len(actions))}
	notes := make([]string, len(actions))
	for i, a := range actions {
		step := mcpStep{
			Step:        i + 1,
			Action:      string(a.Kind),
			Description: a.Description,
			WaitMS:      waitFor(a.Kind),
		}
		if r, ok := desktopSteps[a.Kind]; ok {
			step.Tool, step.Params, notes[i] = r(a)
		}
		doc.Steps = append(doc.Steps, step)
	}

	var root yaml.Node
	if err := root.Encode(&doc); err != nil {
		return "", errors.Wrap(err, "failed to build windows-mcp document")
	}
	root.HeadComment = "Windows-MCP workflow: " + commentText(name) + "\nGenerated by video-analyzer"
	if steps := mappingValue(&root, "steps"); steps != nil {
		for i, node := range steps.Content {
			comment := fmt.Sprintf("Step %d: %s", i+1, stepTitle(actions[i]))
			if notes[i] != "" {
				comment += "\n" + notes[i]
			}
			node.HeadComment = comment
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return "", errors.Wrap(err, "failed to encode windows-mcp document")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "failed to encode windows-mcp document")
	}
	return buf.String(), nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
