package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelstream.ai/internal/sim/world"
)

func readTicks(t *testing.T, path string) []world.TickStats {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	var out []world.TickStats
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var st world.TickStats
		require.NoError(t, json.Unmarshal(sc.Bytes(), &st))
		out = append(out, st)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestTickLoggerRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	clock := time.Date(2026, 3, 4, 5, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return clock }

	require.NoError(t, l.WriteTick(world.TickStats{Tick: 1, Loads: 8, Origin: [2]int{-3, 4}}))
	require.NoError(t, l.WriteTick(world.TickStats{Tick: 2, Meshes: 3, Duration: time.Millisecond}))
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, l.WriteTick(world.TickStats{Tick: 3, MeshFailures: 1}))
	require.NoError(t, l.Close())

	first := readTicks(t, filepath.Join(dir, "ticks-2026-03-04-05.jsonl.zst"))
	require.Len(t, first, 2)
	assert.Equal(t, world.TickStats{Tick: 1, Loads: 8, Origin: [2]int{-3, 4}}, first[0])
	assert.Equal(t, time.Millisecond, first[1].Duration)

	second := readTicks(t, filepath.Join(dir, "ticks-2026-03-04-06.jsonl.zst"))
	require.Len(t, second, 1)
	assert.Equal(t, 1, second[0].MeshFailures)
}

func TestWriterAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	at := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	for i := 1; i <= 2; i++ {
		l := NewTickLogger(dir)
		l.w.now = at
		require.NoError(t, l.WriteTick(world.TickStats{Tick: uint64(i)}))
		require.NoError(t, l.Close())
	}
	got := readTicks(t, filepath.Join(dir, "ticks-2026-01-01-00.jsonl.zst"))
	require.Len(t, got, 2)
	assert.EqualValues(t, 2, got[1].Tick)
}

func TestWriterRejectsUnencodable(t *testing.T) {
	w := NewWriter(t.TempDir(), "bad")
	require.Error(t, w.Write(func() {}))
	require.NoError(t, w.Close())
}
