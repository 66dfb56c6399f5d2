package generator

import (
	"strings"

	"github.com/pkg/errors"
)

// Format is an output artifact kind
type Format string

const (
	FormatPlaywright Format = "playwright"
	FormatSelenium   Format = "selenium"
	FormatWindowsMCP Format = "windows-mcp"
	FormatManual     Format = "manual"
)

// AllFormats lists every supported format in output order
func AllFormats() []Format {
	return []Format{FormatPlaywright, FormatSelenium, FormatWindowsMCP, FormatManual}
}

// DefaultFormats are rendered when the caller does not choose
func DefaultFormats() []Format {
	return []Format{FormatPlaywright, FormatManual}
}

// ParseFormat accepts the canonical names plus "windows_mcp"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "playwright":
		return FormatPlaywright, nil
	case "selenium":
		return FormatSelenium, nil
	case "windows-mcp", "windows_mcp":
		return FormatWindowsMCP, nil
	case "manual":
		return FormatManual, nil
	}
	return "", errors.Errorf("unknown output format %q (supported: playwright, selenium, windows-mcp, manual)", s)
}

// ParseFormats parses a list, dropping duplicates while keeping order
func ParseFormats(names []string) ([]Format, error) {
	seen := map[Format]bool{}
	var out []Format
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// FileName is the file the artifact is written to
func (f Format) FileName() string {
	switch f {
	case FormatPlaywright:
		return "workflow_playwright.js"
	case FormatSelenium:
		return "workflow_selenium.py"
	case FormatWindowsMCP:
		return "workflow_windows_mcp.yml"
	case FormatManual:
		return "manual_steps.md"
	}
	return string(f)
}

// Language is the fence language used when the artifact is shown in Markdown
func (f Format) Language() string {
	switch f {
	case FormatPlaywright:
		return "javascript"
	case FormatSelenium:
		return "python"
	case FormatWindowsMCP:
		return "yaml"
	case FormatManual:
		return "markdown"
	}
	return ""
}

// IsBrowser reports whether web_only filtering applies to the format
func (f Format) IsBrowser() bool {
	return f == FormatPlaywright || f == FormatSelenium
}
