package generator

import (
	"fmt"
	"strings"

	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

// renderManual writes a numbered list of descriptions with optional Input and
// URL sub-lines. Nothing else about an action is shown.
func renderManual(actions []workflow.Action, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", commentText(name))
	for i, a := range actions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, stepTitle(a))
		if commentText(a.InputValue) != "" {
			fmt.Fprintf(&sb, "   Input: %s\n", commentText(a.InputValue))
		}
		if commentText(a.URL) != "" {
			fmt.Fprintf(&sb, "   URL: %s\n", commentText(a.URL))
		}
	}
	return sb.String()
}
