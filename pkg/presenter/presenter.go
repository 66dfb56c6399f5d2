// Package presenter renders user facing CLI output: status lines, section
// headers, per-frame progress and key/value tables, with colour and quiet mode.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Presenter is the CLI output surface
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Field(key string, value any)
	Progress(current, total int, message string)
	Separator()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// ColorMode controls colourised output
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// TerminalPresenter writes to a pair of writers, normally stdout and stderr
type TerminalPresenter struct {
	out   io.Writer
	err   io.Writer
	mode  ColorMode
	quiet bool
}

// New returns a presenter on stdout/stderr with the colour mode taken from the environment
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, ColorModeFromEnv())
}

// NewWithOptions returns a presenter writing to the given writers
func NewWithOptions(out, errOut io.Writer, mode ColorMode) *TerminalPresenter {
	switch mode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
	return &TerminalPresenter{out: out, err: errOut, mode: mode}
}

// ColorModeFromEnv honours NO_COLOR and VIDEO_ANALYZER_COLOR (always|never|auto)
func ColorModeFromEnv() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch strings.ToLower(os.Getenv("VIDEO_ANALYZER_COLOR")) {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error always prints, even in quiet mode
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}
	c := color.New(color.FgRed, color.Bold)
	if context == "" {
		c.Fprintf(p.err, "[ERROR] %v\n", err)
		return
	}
	c.Fprintf(p.err, "[ERROR] %s: %v\n", context, err)
}

func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.out, "✓ %s\n", message)
}

func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.out, "⚠ %s\n", message)
}

func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, message)
}

// Section prints an underlined header
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	c := color.New(color.Bold)
	c.Fprintf(p.out, "%s\n", title)
	c.Fprintf(p.out, "%s\n", strings.Repeat("=", len(title)))
}

// Field prints an aligned "key: value" line
func (p *TerminalPresenter) Field(key string, value any) {
	if p.quiet {
		return
	}
	label := color.New(color.FgCyan).Sprintf("%-16s", key+":")
	fmt.Fprintf(p.out, "  %s %v\n", label, value)
}

// Progress prints a "[current/total] message" line
func (p *TerminalPresenter) Progress(current, total int, message string) {
	if p.quiet {
		return
	}
	counter := color.New(color.Faint).Sprintf("[%d/%d]", current, total)
	fmt.Fprintf(p.out, "  %s %s\n", counter, message)
}

func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	color.New(color.Faint).Fprintf(p.out, "%s\n", strings.Repeat("-", 60))
}

func (p *TerminalPresenter) SetQuiet(quiet bool) { p.quiet = quiet }

func (p *TerminalPresenter) IsQuiet() bool { return p.quiet }

var defaultPresenter = New()

// Default returns the process wide presenter
func Default() Presenter { return defaultPresenter }

func Error(err error, context string) { defaultPresenter.Error(err, context) }
func Success(message string) { defaultPresenter.Success(message) }
func Warning(message string) { defaultPresenter.Warning(message) }
func Info(message string) { defaultPresenter.Info(message) }
func Section(title string) { defaultPresenter.Section(title) }
func Field(key string, value any) { defaultPresenter.Field(key, value) }
func Progress(current, total int, message string) { defaultPresenter.Progress(current, total, message) }
func Separator() { defaultPresenter.Separator() }
func SetQuiet(quiet bool) { defaultPresenter.SetQuiet(quiet) }
func IsQuiet() bool { return defaultPresenter.IsQuiet() }
