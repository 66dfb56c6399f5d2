package skill

import (
	"fmt"
	"strings"

	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

func videoReport(summary *workflow.Summary, formats []generator.Format) string {
	var sb strings.Builder
	sb.WriteString("# Video Workflow Analysis Complete\n\n")
	fmt.Fprintf(&sb, "**Video**: %s\n", summary.VideoPath)
	fmt.Fprintf(&sb, "**Frames Analyzed**: %d\n", summary.TotalFrames)
	fmt.Fprintf(&sb, "**Duration**: %.1fs\n\n", summary.DurationSeconds())
	sb.WriteString("## Workflow Summary\n\n")
	sb.WriteString(summary.Narrative)
	sb.WriteString("\n\n## Generated Scripts\n")

	for _, f := range formats {
		content, ok := summary.Scripts[string(f)]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "\n### %s\n\n```%s\n%s\n```\n", strings.ToUpper(string(f)), f.Language(), strings.TrimRight(content, "\n"))
	}
	return sb.String()
}

func imageReport(action workflow.Action) string {
	var sb strings.Builder
	sb.WriteString("# Screenshot Analysis\n\n")
	fmt.Fprintf(&sb, "**Action**: %s\n", action.Kind)
	fmt.Fprintf(&sb, "**Description**: %s\n", action.Description)

	if t := action.Target; t != nil {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "**Target Element**: %s\n", t.Type)
		if t.Text != "" {
			fmt.Fprintf(&sb, "**Text**: %s\n", t.Text)
		}
		if t.Selector != "" {
			fmt.Fprintf(&sb, "**Selector**: %s\n", t.Selector)
		}
		if t.Location != nil {
			fmt.Fprintf(&sb, "**Location**: (%d, %d)\n", t.Location.X, t.Location.Y)
		}
	}
	if action.InputValue != "" {
		fmt.Fprintf(&sb, "\n**Input Value**: %s\n", action.InputValue)
	}
	if action.URL != "" {
		fmt.Fprintf(&sb, "\n**URL**: %s\n", action.URL)
	}
	return sb.String()
}
