package world

import (
	"fmt"

	"voxelstream.ai/internal/sim/block"
	"voxelstream.ai/internal/sim/world/mesh"
	"voxelstream.ai/internal/sim/world/terrain"
)

type jobKind int

const (
	jobQuit jobKind = iota
	jobLoad
	jobMesh
)

func (k jobKind) String() string {
	switch k {
	case jobQuit:
		return "quit"
	case jobLoad:
		return "load"
	case jobMesh:
		return "mesh"
	}
	return fmt.Sprintf("job(%d)", int(k))
}

// job is resolved by the coordinator before dispatch; workers never touch
// the grid itself.
type job struct {
	kind   jobKind
	chunk  *terrain.Chunk
	nb     [terrain.Neighbors]*terrain.Chunk
	cx, cz int
	edits  []edit
}

// edit is a block write in chunk-local coordinates.
type edit struct {
	x, y, z int
	id      block.ID
}

type result struct {
	kind jobKind
	ok   bool
}

// worker owns a single job slot. busy is only touched by the coordinator.
type worker struct {
	id      int
	jobs    chan job
	done    chan result
	busy    bool
	scratch mesh.Scratch
}

func newWorker(id int) *worker {
	return &worker{
		id:   id,
		jobs: make(chan job, 1),
		done: make(chan result, 1),
	}
}

func (wk *worker) dispatch(j job) {
	if wk.busy {
		panic(fmt.Sprintf("world: dispatch %s to busy worker %d", j.kind, wk.id))
	}
	wk.busy = true
	wk.jobs <- j
}

func (wk *worker) wait() result {
	r := <-wk.done
	wk.busy = false
	return r
}

func (w *World) loop(wk *worker) {
	defer w.wg.Done()
	for j := range wk.jobs {
		if j.kind == jobQuit {
			wk.done <- result{kind: jobQuit, ok: true}
			return
		}
		wk.done <- w.execute(wk, j)
	}
}

func (w *World) execute(wk *worker, j job) result {
	c := j.chunk
	switch j.kind {
	case jobLoad:
		if !c.Load {
			panic(fmt.Sprintf("world: load job for loaded chunk (%d,%d)", j.cx, j.cz))
		}
		w.gen.Generate(c, j.cx, j.cz)
		if w.store != nil {
			if err := w.store.Overrides(c, j.cx, j.cz); err != nil {
				w.logger.Printf("load overrides for chunk (%d,%d): %v", j.cx, j.cz, err)
			}
		}
		for _, e := range j.edits {
			c.Set(e.x, e.y, e.z, e.id)
		}
		c.Load = false
		c.Skip = false
		return result{kind: jobLoad, ok: true}
	case jobMesh:
		if c.Load {
			panic(fmt.Sprintf("world: mesh job for loading chunk (%d,%d)", j.cx, j.cz))
		}
		if err := w.enc.Build(w.dev, c, j.nb, &wk.scratch); err != nil {
			w.logger.Printf("mesh chunk (%d,%d): %v", j.cx, j.cz, err)
			return result{kind: jobMesh}
		}
		c.Mesh = false
		return result{kind: jobMesh, ok: true}
	default:
		panic(fmt.Sprintf("world: unknown %s", j.kind))
	}
}
