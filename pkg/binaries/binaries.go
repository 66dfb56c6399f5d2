// Package binaries locates the external programs the analyzer shells out to:
// ffmpeg and ffprobe for decoding, node and python3 for script syntax checks.
// An explicitly configured path always wins over a PATH lookup.
package binaries

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
)

// Spec describes one external program
type Spec struct {
	// Name is the logical name used in config and diagnostics
	Name string
	// Candidates are the executable names tried on PATH, in order
	Candidates []string
	// VersionArgs prints a version banner, e.g. ["-version"]
	VersionArgs []string
}

var (
	FFmpeg  = Spec{Name: "ffmpeg", Candidates: []string{"ffmpeg"}, VersionArgs: []string{"-version"}}
	FFprobe = Spec{Name: "ffprobe", Candidates: []string{"ffprobe"}, VersionArgs: []string{"-version"}}
	Node    = Spec{Name: "node", Candidates: []string{"node", "nodejs"}, VersionArgs: []string{"--version"}}
	Python  = Spec{Name: "python3", Candidates: []string{"python3", "python"}, VersionArgs: []string{"--version"}}
)

// ErrNotFound is returned when no candidate is executable
var ErrNotFound = errors.New("binary not found")

// PathCache resolves a path once and remembers the outcome
type PathCache struct {
	path string
	err  error
	once sync.Once
}

// Get returns the cached path, calling fn on first use
func (c *PathCache) Get(fn func() (string, error)) (string, error) {
	c.once.Do(func() {
		c.path, c.err = fn()
	})
	return c.path, c.err
}

// Resolver finds binaries, honouring per-name overrides
type Resolver struct {
	overrides map[string]string
	lookPath  func(string) (string, error)

	mu    sync.Mutex
	cache map[string]*PathCache
}

// NewResolver returns a resolver. overrides maps a Spec name to an absolute path.
func NewResolver(overrides map[string]string) *Resolver {
	clean := make(map[string]string, len(overrides))
	for name, path := range overrides {
		if path = strings.TrimSpace(path); path != "" {
			clean[name] = path
		}
	}
	return &Resolver{
		overrides: clean,
		lookPath:  exec.LookPath,
		cache:     map[string]*PathCache{},
	}
}

// Resolve returns the executable path for spec
func (r *Resolver) Resolve(ctx context.Context, spec Spec) (string, error) {
	r.mu.Lock()
	entry, ok := r.cache[spec.Name]
	if !ok {
		entry = &PathCache{}
		r.cache[spec.Name] = entry
	}
	r.mu.Unlock()

	return entry.Get(func() (string, error) {
		return r.find(ctx, spec)
	})
}

func (r *Resolver) find(ctx context.Context, spec Spec) (string, error) {
	if path, ok := r.overrides[spec.Name]; ok {
		info, err := os.Stat(path)
		if err != nil {
			return "", errors.Wrapf(err, "configured %s path", spec.Name)
		}
		if info.IsDir() {
			return "", errors.Errorf("configured %s path %s is a directory", spec.Name, path)
		}
		logger.G(ctx).WithField("binary", spec.Name).WithField("path", path).Debug("using configured binary")
		return path, nil
	}

	for _, candidate := range spec.Candidates {
		if path, err := r.lookPath(candidate); err == nil {
			logger.G(ctx).WithField("binary", spec.Name).WithField("path", path).Debug("found binary on PATH")
			return path, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "%s (tried %s)", spec.Name, strings.Join(spec.Candidates, ", "))
}

// Version runs the binary's version command and returns the first line of output
func Version(ctx context.Context, path string, spec Spec) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, spec.VersionArgs...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "%s %s", spec.Name, strings.Join(spec.VersionArgs, " "))
	}

	scanner := bufio.NewScanner(&out)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", nil
}
