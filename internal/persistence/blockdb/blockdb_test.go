package blockdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelstream.ai/internal/sim/block"
)

type recorder map[[3]int]block.ID

func (r recorder) SetBlock(x, y, z int, id block.ID) { r[[3]int{x, y, z}] = id }

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "world.sqlite")
	db, err := Open(path)
	require.NoError(t, err)
	return db, path
}

func TestBlocksPerChunk(t *testing.T) {
	db, _ := openTemp(t)
	defer db.Close()

	require.NoError(t, db.SetBlock(1, -2, 3, 40, 5, block.Rose))
	require.NoError(t, db.SetBlock(1, -2, 0, 0, 0, block.Stone))
	require.NoError(t, db.SetBlock(1, -2, 0, 0, 0, block.Empty))
	require.NoError(t, db.SetBlock(2, -2, 3, 40, 5, block.Water))

	got := recorder{}
	require.NoError(t, db.Overrides(got, 1, -2))
	assert.Equal(t, recorder{
		{3, 40, 5}: block.Rose,
		{0, 0, 0}:  block.Empty,
	}, got)

	none := recorder{}
	require.NoError(t, db.Overrides(none, 9, 9))
	assert.Empty(t, none)
}

func TestPersistsAcrossReopen(t *testing.T) {
	db, path := openTemp(t)
	require.NoError(t, db.SetBlock(0, 0, 1, 2, 3, block.Log))
	require.NoError(t, db.SetPlayer(0, Player{X: 1.5, Y: 80, Z: -3, Pitch: 0.25, Yaw: 2}))
	require.NoError(t, db.Commit())
	require.NoError(t, db.SetBlock(0, 0, 4, 5, 6, block.Sand))
	require.NoError(t, db.Close())

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	got := recorder{}
	require.NoError(t, db.Overrides(got, 0, 0))
	// Close commits the open transaction too.
	assert.Equal(t, recorder{{1, 2, 3}: block.Log, {4, 5, 6}: block.Sand}, got)

	p, ok, err := db.Player(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Player{X: 1.5, Y: 80, Z: -3, Pitch: 0.25, Yaw: 2}, p)
}

func TestMissingPlayer(t *testing.T) {
	db, _ := openTemp(t)
	defer db.Close()
	_, ok, err := db.Player(7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClosedDB(t *testing.T) {
	db, _ := openTemp(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
	assert.ErrorIs(t, db.Commit(), errClosed)
	assert.ErrorIs(t, db.SetBlock(0, 0, 0, 0, 0, block.Dirt), errClosed)
	assert.ErrorIs(t, db.Overrides(recorder{}, 0, 0), errClosed)
}

func TestEmptyPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestConcurrentWriters(t *testing.T) {
	db, _ := openTemp(t)
	defer db.Close()
	done := make(chan error, 4)
	for w := 0; w < 4; w++ {
		go func(w int) {
			for i := 0; i < 25; i++ {
				if err := db.SetBlock(w, 0, i%16, i, 0, block.Stone); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}(w)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}
	got := recorder{}
	require.NoError(t, db.Overrides(got, 3, 0))
	assert.Len(t, got, 25)
}
