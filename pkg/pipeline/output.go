package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/sipsyai/video-automation-analyzer/pkg/generator"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

const (
	AnalysesFile = "analyses.json"
	SummaryFile  = "summary.md"
)

type outputFile struct {
	name    string
	content []byte
}

// WriteOutputs writes analyses.json, summary.md and one file per script into
// dir, creating it if needed. It returns the written paths in a stable order.
func WriteOutputs(summary *workflow.Summary, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}

	analyses := summary.Analyses
	if analyses == nil {
		analyses = []workflow.Action{}
	}
	data, err := json.MarshalIndent(analyses, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal analyses")
	}

	files := []outputFile{
		{AnalysesFile, append(data, '\n')},
		{SummaryFile, []byte(fmt.Sprintf("# Workflow Summary\n\n%s\n", summary.Narrative))},
	}

	keys := make([]string, 0, len(summary.Scripts))
	for k := range summary.Scripts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f, err := generator.ParseFormat(k)
		if err != nil {
			return nil, err
		}
		files = append(files, outputFile{f.FileName(), []byte(summary.Scripts[k])})
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.content, 0o644); err != nil {
			return written, errors.Wrapf(err, "failed to write %s", path)
		}
		written = append(written, path)
	}
	return written, nil
}
