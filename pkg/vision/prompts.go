package vision

import (
	"embed"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	systemTemplate  = "system.tmpl"
	frameTemplate   = "frame.tmpl"
	summaryTemplate = "summary.tmpl"
)

var prompts = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.tmpl"))

type framePromptData struct {
	TimestampMS int64
	Previous    []string
}

type summaryPromptData struct {
	Actions []workflow.Action
}

func render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "failed to render %s", name)
	}
	return strings.TrimSpace(buf.String()), nil
}

func systemPrompt() string {
	s, err := render(systemTemplate, nil)
	if err != nil {
		return ""
	}
	return s
}

func framePrompt(timestampMS int64, history History) (string, error) {
	return render(frameTemplate, framePromptData{TimestampMS: timestampMS, Previous: history.Descriptions()})
}

func summaryPrompt(actions []workflow.Action) (string, error) {
	return render(summaryTemplate, summaryPromptData{Actions: actions})
}
