package remux

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func TestLocatorNotInstalled(t *testing.T) {
	assert := assert_.New(t)

	t.Setenv("PATH", t.TempDir())
	_, err := Locator{}.Find()
	assert.ErrorIs(err, ErrNotInstalled)
}

func TestLocatorExtraDirs(t *testing.T) {
	assert := assert_.New(t)

	t.Setenv("PATH", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, executableName)
	require_.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))

	found, err := Locator{ExtraDirs: []string{dir}}.Find()
	assert.NoError(err)
	assert.Equal(path, found)
}

func TestRemuxMissingTool(t *testing.T) {
	assert := assert_.New(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "combined.raw")
	require_.NoError(t, os.WriteFile(input, []byte("raw stream"), 0o644))

	err := Remux(context.Background(), filepath.Join(dir, "no-such-ffmpeg"), input, filepath.Join(dir, "out.mp4"), nil)
	assert.Error(err)

	// The intermediate must survive a failed remux
	data, readErr := os.ReadFile(input)
	require_.NoError(t, readErr)
	assert.Equal("raw stream", string(data))
}

func TestRemuxNonZeroExit(t *testing.T) {
	assert := assert_.New(t)

	dir := t.TempDir()
	tool := filepath.Join(dir, "fake-ffmpeg")
	require_.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\necho 'boom' >&2\nexit 3\n"), 0o755))
	input := filepath.Join(dir, "combined.raw")
	require_.NoError(t, os.WriteFile(input, []byte("raw"), 0o644))

	err := Remux(context.Background(), tool, input, filepath.Join(dir, "out.mp4"), nil)
	require_.Error(t, err)
	assert.Contains(err.Error(), "code 3")
	assert.Contains(err.Error(), "boom")
}
