package generator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/sipsyai/video-automation-analyzer/pkg/binaries"
	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
)

const checkTimeout = 30 * time.Second

var errSyntaxCheckSkipped = errors.New("syntax check skipped")

// skippedError reports an interpreter that could not be found
type skippedError struct {
	err error
}

func (e *skippedError) Error() string {
	return fmt.Sprintf("%s: %v", errSyntaxCheckSkipped, e.err)
}

func (e *skippedError) Is(target error) bool { return target == errSyntaxCheckSkipped }

func (e *skippedError) Unwrap() error { return e.err }

// SyntaxChecker validates artifacts. Scripts are handed to the real
// interpreters (node, python3); YAML and Markdown are parsed in-process.
type SyntaxChecker struct {
	resolver *binaries.Resolver
	markdown goldmark.Markdown
}

// NewSyntaxChecker returns a checker using resolver to find interpreters
func NewSyntaxChecker(resolver *binaries.Resolver) *SyntaxChecker {
	return &SyntaxChecker{resolver: resolver, markdown: goldmark.New()}
}

// Validate implements Validator
func (c *SyntaxChecker) Validate(ctx context.Context, format Format, content string) error {
	switch format {
	case FormatPlaywright:
		return c.runInterpreter(ctx, binaries.Node, ".js", content, "--check")
	case FormatSelenium:
		return c.runInterpreter(ctx, binaries.Python, ".py", content, "-m", "py_compile")
	case FormatWindowsMCP:
		return checkYAML(content)
	case FormatManual:
		return c.checkMarkdown(content)
	}
	return errors.Errorf("no validator for format %q", format)
}

func (c *SyntaxChecker) runInterpreter(ctx context.Context, spec binaries.Spec, ext, content string, args ...string) error {
	path, err := c.resolver.Resolve(ctx, spec)
	if err != nil {
		return &skippedError{err: err}
	}

	dir, err := os.MkdirTemp("", "video-analyzer-check-")
	if err != nil {
		return errors.Wrap(err, "failed to create temp dir")
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "script"+ext)
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		return errors.Wrap(err, "failed to write script for syntax check")
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, append(args, file)...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	logger.G(ctx).WithField("binary", spec.Name).Debug("checking script syntax")
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(strings.ReplaceAll(out.String(), file, "script"+ext))
		if msg == "" {
			msg = err.Error()
		}
		return errors.Errorf("%s syntax check failed: %s", spec.Name, msg)
	}
	return nil
}

func checkYAML(content string) error {
	var doc mcpWorkflow
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return errors.Wrap(err, "invalid windows-mcp yaml")
	}
	for i, step := range doc.Steps {
		if step.Step != i+1 {
			return errors.Errorf("windows-mcp step %d is numbered %d", i+1, step.Step)
		}
	}
	return nil
}

// checkMarkdown requires a level one heading followed by an ordered list
func (c *SyntaxChecker) checkMarkdown(content string) error {
	source := []byte(content)
	doc := c.markdown.Parser().Parse(text.NewReader(source))

	var heading, list bool
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 {
				heading = true
			}
		case *ast.List:
			if node.IsOrdered() {
				list = true
			}
		}
	}
	if !heading {
		return errors.New("manual steps have no title heading")
	}
	if !list && bytes.Contains(source, []byte("\n1. ")) {
		return errors.New("manual steps are not a numbered list")
	}
	return nil
}
