package world

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream.ai/internal/gpu"
	"voxelstream.ai/internal/sim/block"
	"voxelstream.ai/internal/sim/world/logic/mathx"
	"voxelstream.ai/internal/sim/world/mesh"
	"voxelstream.ai/internal/sim/world/terrain"
)

// Generator fills a chunk's blocks for a world chunk coordinate. It must be
// deterministic and safe for concurrent use.
type Generator interface {
	Generate(c *terrain.Chunk, cx, cz int)
}

// Storage persists block edits. Implementations serialize access
// internally; calls arrive from several workers at once.
type Storage interface {
	Overrides(dst block.Setter, cx, cz int) error
	SetBlock(cx, cz, x, y, z int, id block.ID) error
	Commit() error
}

// Culler rejects world-space boxes outside the view.
type Culler interface {
	Visible(min, max mgl32.Vec3) bool
}

type TickLogger interface {
	WriteTick(entry TickStats) error
}

type Deps struct {
	Device    gpu.Device
	Generator Generator
	// Optional.
	Storage Storage
	Blocks  *block.Catalog
	Logger  *log.Logger
	OnTick  func(TickStats)
}

// World streams a window of chunks around a moving viewpoint. It is driven
// from a single goroutine: Update, Render, SetBlock, GetBlock and Close must
// not be called concurrently.
type World struct {
	cfg    Config
	dev    gpu.Device
	gen    Generator
	store  Storage
	enc    *mesh.Encoder
	logger *log.Logger
	onTick func(TickStats)

	tickLogger TickLogger

	grid  *terrain.Grid
	order []mathx.Point2

	workers []*worker
	wg      sync.WaitGroup

	ibo      gpu.BufferID
	iboQuads uint32
	// peak is the largest bucket any completed mesh has needed. It outlives
	// a failed index buffer growth so the next tick retries.
	peak uint32

	// pending holds edits to loading chunks when there is no storage to
	// overlay them. Keyed by world chunk coordinate.
	pending map[[2]int][]edit

	tick   uint64
	stats  *WorldStats
	closed bool
}

func New(cfg Config, deps Deps) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if deps.Device == nil {
		return nil, errors.New("world: nil device")
	}
	if deps.Generator == nil {
		return nil, errors.New("world: nil generator")
	}
	blocks := deps.Blocks
	if blocks == nil {
		blocks = block.Default()
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	w := &World{
		cfg:    cfg,
		dev:    deps.Device,
		gen:    deps.Generator,
		store:  deps.Storage,
		enc:    &mesh.Encoder{Blocks: blocks},
		logger: logger,
		onTick: deps.OnTick,
		grid:   terrain.NewGrid(cfg.Width, cfg.Depth),
		order:  mathx.Window(cfg.Width, cfg.Depth),
		stats:  NewWorldStats(cfg.StatsBucketTicks, cfg.StatsWindowTicks),

		pending: make(map[[2]int][]edit),
	}
	mathx.SortByDistance(w.order, cfg.Width/2, cfg.Depth/2)

	w.workers = make([]*worker, cfg.Workers)
	w.wg.Add(cfg.Workers)
	for i := range w.workers {
		w.workers[i] = newWorker(i)
		go w.loop(w.workers[i])
	}
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger) { w.tickLogger = l }

func (w *World) CurrentTick() uint64 { return w.tick }

// Stats summarizes the rolling stats window ending at the current tick.
func (w *World) Stats() StatsBucket { return w.stats.Summarize(w.tick) }

func (w *World) Origin() (x, z int) { return w.grid.Origin() }

// Close stops the workers, releases every device buffer and commits
// storage. It is safe to call twice.
func (w *World) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	for _, wk := range w.workers {
		wk.dispatch(job{kind: jobQuit})
	}
	for _, wk := range w.workers {
		wk.wait()
	}
	w.wg.Wait()
	for _, wk := range w.workers {
		wk.scratch.Release(w.dev)
	}
	w.grid.Each(func(_, _ int, c *terrain.Chunk) {
		for b := range c.Meshes {
			if c.Meshes[b].Buffer != 0 {
				w.dev.ReleaseBuffer(c.Meshes[b].Buffer)
			}
			c.Meshes[b] = terrain.Mesh{}
		}
	})
	if w.ibo != 0 {
		w.dev.ReleaseBuffer(w.ibo)
		w.ibo = 0
		w.iboQuads = 0
	}
	if w.store != nil {
		if err := w.store.Commit(); err != nil {
			return fmt.Errorf("world: final commit: %w", err)
		}
	}
	return nil
}

// Update runs one tick for a viewpoint in world block coordinates. Chunks
// are full height, so y does not move the window.
func (w *World) Update(x, y, z float32) TickStats {
	if w.closed {
		panic("world: update after close")
	}
	start := time.Now()
	w.tick++
	st := TickStats{Tick: w.tick}
	st.Recycled = w.move(x, z)

	jobs := w.schedule()
	for i, j := range jobs {
		w.workers[i].dispatch(j)
	}
	for i := range jobs {
		r := w.workers[i].wait()
		switch r.kind {
		case jobLoad:
			st.Loads++
		case jobMesh:
			if !r.ok {
				st.MeshFailures++
				continue
			}
			st.Meshes++
			c := jobs[i].chunk
			w.peak = max(w.peak, c.Meshes[terrain.Opaque].Size, c.Meshes[terrain.Transparent].Size)
		}
	}
	w.growIndex()

	if w.store != nil && w.cfg.CommitEveryTicks > 0 && w.tick%uint64(w.cfg.CommitEveryTicks) == 0 {
		if err := w.store.Commit(); err != nil {
			w.logger.Printf("commit storage: %v", err)
		}
	}

	ox, oz := w.grid.Origin()
	st.Origin = [2]int{ox, oz}
	st.IndexQuads = w.iboQuads
	st.Duration = time.Since(start)

	w.stats.Record(st)
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(st); err != nil {
			w.logger.Printf("write tick log: %v", err)
		}
	}
	if w.onTick != nil {
		w.onTick(st)
	}
	return st
}

func (w *World) move(x, z float32) int {
	bx := int(math.Floor(float64(x)))
	bz := int(math.Floor(float64(z)))
	tx := mathx.FloorDiv(bx, terrain.ChunkX) - w.cfg.Width/2
	tz := mathx.FloorDiv(bz, terrain.ChunkZ) - w.cfg.Depth/2
	ox, oz := w.grid.Origin()
	n := len(w.grid.Move(tx-ox, tz-oz))
	if n > 0 {
		for k := range w.pending {
			if !w.grid.In2(k[0], k[1]) {
				delete(w.pending, k)
			}
		}
	}
	return n
}

// schedule walks the distance order and collects at most one job per worker.
// A chunk is meshed only once its whole neighborhood has finished loading.
func (w *World) schedule() []job {
	jobs := make([]job, 0, len(w.workers))
	ox, oz := w.grid.Origin()
	for _, p := range w.order {
		if len(jobs) == len(w.workers) {
			break
		}
		c := w.grid.Get(p.X, p.Z)
		if c.Load {
			key := [2]int{ox + p.X, oz + p.Z}
			jobs = append(jobs, job{kind: jobLoad, chunk: c, cx: key[0], cz: key[1], edits: w.pending[key]})
			delete(w.pending, key)
			continue
		}
		if w.grid.Border(p.X, p.Z) {
			continue
		}
		nb := w.grid.Neighbors(p.X, p.Z)
		if !ready(nb) {
			continue
		}
		if c.Mesh && !c.Skip {
			jobs = append(jobs, job{kind: jobMesh, chunk: c, nb: nb, cx: ox + p.X, cz: oz + p.Z})
		}
	}
	return jobs
}

func ready(nb [terrain.Neighbors]*terrain.Chunk) bool {
	for _, n := range nb {
		if n == nil || n.Load {
			return false
		}
	}
	return true
}

func (w *World) growIndex() {
	if w.peak <= w.iboQuads {
		return
	}
	ibo, err := mesh.BuildIndexBuffer(w.dev, w.peak)
	if err != nil {
		w.logger.Printf("grow index buffer to %d quads: %v", w.peak, err)
		return
	}
	if w.ibo != 0 {
		w.dev.ReleaseBuffer(w.ibo)
	}
	w.ibo = ibo
	w.iboQuads = w.peak
}

// Render draws one bucket of every ready chunk. Opaque chunks go nearest
// first, transparent ones farthest first. cam may be nil to disable
// culling. It returns the number of draws issued.
func (w *World) Render(cam Culler, cmd gpu.CommandBuffer, pass gpu.RenderPass, b terrain.Bucket) int {
	if w.ibo == 0 {
		return 0
	}
	pass.BindIndexBuffer(w.ibo, gpu.IndexFormat32)
	ox, oz := w.grid.Origin()
	n := len(w.order)
	drawn := 0
	for i := 0; i < n; i++ {
		j := i
		if b == terrain.Transparent {
			j = n - 1 - i
		}
		p := w.order[j]
		if w.grid.Border(p.X, p.Z) {
			continue
		}
		c := w.grid.Get(p.X, p.Z)
		if c.Skip || c.Load || c.Mesh {
			continue
		}
		m := c.Meshes[b]
		if m.Size == 0 || m.Size > w.iboQuads {
			continue
		}
		x := (ox + p.X) * terrain.ChunkX
		z := (oz + p.Z) * terrain.ChunkZ
		if cam != nil {
			lo := mgl32.Vec3{float32(x), 0, float32(z)}
			hi := lo.Add(mgl32.Vec3{terrain.ChunkX, terrain.ChunkY, terrain.ChunkZ})
			if !cam.Visible(lo, hi) {
				continue
			}
		}
		cmd.PushVertexUniform(0, origin(x, 0, z))
		pass.BindVertexBuffer(0, m.Buffer)
		pass.DrawIndexed(m.Size*6, 1, 0, 0, 0)
		drawn++
	}
	return drawn
}

func origin(x, y, z int) []byte {
	out := make([]byte, 0, 12)
	out = binary.LittleEndian.AppendUint32(out, uint32(int32(x)))
	out = binary.LittleEndian.AppendUint32(out, uint32(int32(y)))
	out = binary.LittleEndian.AppendUint32(out, uint32(int32(z)))
	return out
}

func blockChunk(x, z int) (cx, cz int) {
	return mathx.FloorDiv(x, terrain.ChunkX), mathx.FloorDiv(z, terrain.ChunkZ)
}

// SetBlock edits a block in world coordinates. Edits outside the window or
// height are dropped. An edit to a loading chunk is applied when the load
// finishes, from storage when there is one and from memory otherwise. Memory
// edits are dropped if the chunk leaves the window first.
func (w *World) SetBlock(x, y, z int, id block.ID) {
	if y < 0 || y >= terrain.ChunkY {
		return
	}
	cx, cz := blockChunk(x, z)
	if !w.grid.In2(cx, cz) {
		return
	}
	lx, _, lz := terrain.Wrap(x, y, z)
	if w.store != nil {
		if err := w.store.SetBlock(cx, cz, lx, y, lz, id); err != nil {
			w.logger.Printf("persist block (%d,%d,%d): %v", x, y, z, err)
		}
	}
	c := w.grid.Get2(cx, cz)
	switch {
	case !c.Load:
		c.Set(lx, y, lz, id)
	case w.store == nil:
		key := [2]int{cx, cz}
		w.pending[key] = append(w.pending[key], edit{x: lx, y: y, z: lz, id: id})
	}
	c.Mesh = true

	nb := w.grid.Neighbors2(cx, cz)
	mark := func(i int) {
		if nb[i] != nil {
			nb[i].Mesh = true
		}
	}
	if lx == 0 {
		mark(terrain.NbWest)
	} else if lx == terrain.ChunkX-1 {
		mark(terrain.NbEast)
	}
	if lz == 0 {
		mark(terrain.NbSouth)
	} else if lz == terrain.ChunkZ-1 {
		mark(terrain.NbNorth)
	}
}

// GetBlock returns Empty outside the window or height and for chunks that
// have not loaded yet.
func (w *World) GetBlock(x, y, z int) block.ID {
	if y < 0 || y >= terrain.ChunkY {
		return block.Empty
	}
	cx, cz := blockChunk(x, z)
	if !w.grid.In2(cx, cz) {
		return block.Empty
	}
	c := w.grid.Get2(cx, cz)
	if c.Load {
		return block.Empty
	}
	lx, _, lz := terrain.Wrap(x, y, z)
	return c.Get(lx, y, lz)
}
