// Package generator turns a list of detected actions into automation
// artifacts: Playwright and Selenium scripts, a Windows-MCP tool sequence and
// a Markdown checklist for humans.
package generator

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
	"github.com/sipsyai/video-automation-analyzer/pkg/telemetry"
	"github.com/sipsyai/video-automation-analyzer/pkg/types/workflow"
)

// Options controls rendering
type Options struct {
	// WebOnly drops non-browser actions from the Playwright and Selenium output
	WebOnly bool
	// ValidateSyntax runs the rendered artifact through a syntax checker
	ValidateSyntax bool
}

// Script is one rendered artifact
type Script struct {
	Format   Format   `json:"format"`
	Content  string   `json:"content"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validator checks a rendered artifact. A non-nil error is reported as a
// warning, never as a generation failure.
type Validator interface {
	Validate(ctx context.Context, format Format, content string) error
}

// Generator renders artifacts
type Generator struct {
	opts      Options
	validator Validator
}

// New returns a Generator. validator may be nil, which disables validation
// regardless of opts.ValidateSyntax.
func New(opts Options, validator Validator) *Generator {
	return &Generator{opts: opts, validator: validator}
}

// Options returns the generator's options
func (g *Generator) Options() Options {
	return g.opts
}

// Render produces the artifact text. It is pure: the same input always yields
// the same output.
func (g *Generator) Render(actions []workflow.Action, name string, format Format) (string, error) {
	if name == "" {
		name = "workflow"
	}
	switch format {
	case FormatPlaywright:
		return playwright.render(actions, name, g.opts.WebOnly), nil
	case FormatSelenium:
		return selenium.render(actions, name, g.opts.WebOnly), nil
	case FormatWindowsMCP:
		return renderWindowsMCP(actions, name)
	case FormatManual:
		return renderManual(actions, name), nil
	}
	return "", errors.Errorf("unknown output format %q", format)
}

// Generate renders the artifact and, when enabled, validates it
func (g *Generator) Generate(ctx context.Context, actions []workflow.Action, name string, format Format) (Script, error) {
	var script Script
	err := telemetry.WithSpan(ctx, "generator.generate", func(ctx context.Context) error {
		content, err := g.Render(actions, name, format)
		if err != nil {
			return err
		}
		script = Script{Format: format, Content: content}

		if g.opts.ValidateSyntax && g.validator != nil {
			if verr := g.validator.Validate(ctx, format, content); verr != nil {
				logger.G(ctx).WithError(verr).WithField("format", format).Warn("generated script failed validation")
				script.Warnings = append(script.Warnings, verr.Error())
			}
		}
		return nil
	}, attribute.String("format", string(format)), attribute.Int("actions", len(actions)))
	return script, err
}

// GenerateAll renders every format in order and stops at the first failure
func (g *Generator) GenerateAll(ctx context.Context, actions []workflow.Action, name string, formats []Format) ([]Script, error) {
	scripts := make([]Script, 0, len(formats))
	for _, f := range formats {
		s, err := g.Generate(ctx, actions, name, f)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to generate %s", f)
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}
