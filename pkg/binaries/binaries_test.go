package binaries

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathCacheRunsOnce(t *testing.T) {
	var cache PathCache
	var calls int32

	for i := 0; i < 3; i++ {
		path, err := cache.Get(func() (string, error) {
			atomic.AddInt32(&calls, 1)
			return "/usr/bin/ffmpeg", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "/usr/bin/ffmpeg", path)
	}
	assert.Equal(t, int32(1), calls)
}

func TestResolveOverride(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "ffmpeg-custom")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	r := NewResolver(map[string]string{"ffmpeg": bin, "ffprobe": "  "})
	r.lookPath = func(string) (string, error) { return "", errors.New("should not be called") }

	path, err := r.Resolve(context.Background(), FFmpeg)
	require.NoError(t, err)
	assert.Equal(t, bin, path)
}

func TestResolveOverrideMissing(t *testing.T) {
	r := NewResolver(map[string]string{"ffprobe": filepath.Join(t.TempDir(), "nope")})

	_, err := r.Resolve(context.Background(), FFprobe)
	assert.Error(t, err)
}

func TestResolveOverrideDirectory(t *testing.T) {
	r := NewResolver(map[string]string{"ffprobe": t.TempDir()})

	_, err := r.Resolve(context.Background(), FFprobe)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestResolveTriesCandidatesInOrder(t *testing.T) {
	r := NewResolver(nil)
	var tried []string
	r.lookPath = func(name string) (string, error) {
		tried = append(tried, name)
		if name == "python" {
			return "/usr/bin/python", nil
		}
		return "", errors.New("not found")
	}

	path, err := r.Resolve(context.Background(), Python)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/python", path)
	assert.Equal(t, []string{"python3", "python"}, tried)

	// cached: no further lookups
	_, _ = r.Resolve(context.Background(), Python)
	assert.Len(t, tried, 2)
}

func TestResolveNotFound(t *testing.T) {
	r := NewResolver(nil)
	r.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err := r.Resolve(context.Background(), Node)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "node, nodejs")
}
