package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Severity of a lint issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding from Lint
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// FormatForFile infers the format of a script from its extension
func FormatForFile(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return FormatPlaywright, nil
	case ".py":
		return FormatSelenium, nil
	case ".yml", ".yaml":
		return FormatWindowsMCP, nil
	case ".md":
		return FormatManual, nil
	}
	return "", errors.Errorf("unknown script type %q", filepath.Ext(path))
}

var emptySelectorCalls = map[Format][]string{
	FormatPlaywright: {
		"page.click(``)", "page.click('')", `page.click("")`,
		"page.fill(``", "page.fill(''", `page.fill(""`,
	},
	FormatSelenium: {
		`driver.find_element(By.CSS_SELECTOR, "")`,
		`driver.find_element(By.CSS_SELECTOR, '')`,
	},
}

// Lint checks a script for syntax errors, empty selectors and missing waits
// or error handling. A syntax failure is an error; an unavailable
// interpreter is only a warning. checker may be nil to skip syntax checks.
func Lint(ctx context.Context, checker Validator, format Format, content string) []Issue {
	var issues []Issue
	add := func(sev Severity, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if checker != nil {
		if err := checker.Validate(ctx, format, content); err != nil {
			sev := SeverityError
			if errors.Is(err, errSyntaxCheckSkipped) {
				sev = SeverityWarning
			}
			add(sev, "%v", err)
		}
	}

	for _, call := range emptySelectorCalls[format] {
		if strings.Contains(content, call) {
			add(SeverityError, "empty selector in %s", call)
		}
	}

	switch format {
	case FormatPlaywright:
		if !strings.Contains(content, "page.waitFor") {
			add(SeverityWarning, "no wait times found (may cause flakiness)")
		}
		if !strings.Contains(content, "try {") {
			add(SeverityWarning, "no error handling found")
		}
	case FormatSelenium:
		if !strings.Contains(content, "time.sleep") && !strings.Contains(content, "WebDriverWait") {
			add(SeverityWarning, "no wait mechanism found")
		}
		if !strings.Contains(content, "try:") && !strings.Contains(content, "except") {
			add(SeverityWarning, "no error handling found")
		}
	case FormatWindowsMCP:
		var doc mcpWorkflow
		if err := yaml.Unmarshal([]byte(content), &doc); err == nil {
			for _, step := range doc.Steps {
				if step.Tool == "" {
					add(SeverityWarning, "step %d (%s) has no tool and needs manual handling", step.Step, step.Action)
				}
			}
		}
	}
	return issues
}

// HasErrors reports whether any issue is an error, or any issue at all when
// strict is set
func HasErrors(issues []Issue, strict bool) bool {
	for _, i := range issues {
		if strict || i.Severity == SeverityError {
			return true
		}
	}
	return false
}
