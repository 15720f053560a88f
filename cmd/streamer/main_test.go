package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelstream.ai/internal/persistence/blockdb"
)

func writeConfig(t *testing.T, dir, listen string) string {
	t.Helper()
	cfg := fmt.Sprintf(`world:
  width: 5
  depth: 5
  workers: 4
storage:
  path: %q
ticklog:
  dir: %q
observer:
  listen: %q
walk:
  tick_rate_hz: 1000
  speed: 0
`, filepath.Join(dir, "world.sqlite"), filepath.Join(dir, "ticks"), listen)
	path := filepath.Join(dir, "streamer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestRunClosesTickLog(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")

	require.Equal(t, 0, run([]string{"-config", cfg, "-ticks", "3"}))

	files, err := filepath.Glob(filepath.Join(dir, "ticks", "ticks-*.jsonl.zst"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	lines := 0
	for _, name := range files {
		f, err := os.Open(name)
		require.NoError(t, err)
		dec, err := zstd.NewReader(f)
		require.NoError(t, err)
		raw, err := io.ReadAll(dec)
		dec.Close()
		_ = f.Close()
		require.NoError(t, err, "tick log %s must end with a complete frame", name)
		lines += bytes.Count(raw, []byte("\n"))
	}
	assert.Equal(t, 3, lines)

	db, err := blockdb.Open(filepath.Join(dir, "world.sqlite"))
	require.NoError(t, err)
	defer db.Close()
	_, ok, err := db.Player(0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunFailureReturnsExitCode(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "256.0.0.1:bad")

	assert.Equal(t, 1, run([]string{"-config", cfg}))

	// Storage was closed on the way out and opens cleanly again.
	db, err := blockdb.Open(filepath.Join(dir, "world.sqlite"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	assert.Equal(t, 2, run([]string{"-no_such_flag"}))
}
