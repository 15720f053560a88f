package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream.ai/internal/camera"
	"voxelstream.ai/internal/gpu"
	"voxelstream.ai/internal/gpu/memgpu"
	"voxelstream.ai/internal/persistence/blockdb"
	"voxelstream.ai/internal/sim/block"
	"voxelstream.ai/internal/sim/tuning"
	"voxelstream.ai/internal/sim/world"
	"voxelstream.ai/internal/sim/world/terrain"
	"voxelstream.ai/internal/transport/observer"
)

// driver walks a viewpoint across the world, one Update and one render of
// each bucket per tick.
type driver struct {
	tune   tuning.Tuning
	world  *world.World
	db     *blockdb.DB
	logger *log.Logger

	pos       mgl32.Vec3
	yaw       float32
	pitch     float32
	editEvery int
	draws     int
}

func newDriver(tune tuning.Tuning, dev gpu.Device, g world.Generator, db *blockdb.DB, hub *observer.Hub, logger *log.Logger) (*driver, error) {
	deps := world.Deps{
		Device:    dev,
		Generator: g,
		Logger:    log.New(logger.Writer(), "[world] ", logger.Flags()),
	}
	// A nil *blockdb.DB must not become a non-nil Storage.
	if db != nil {
		deps.Storage = db
	}
	if hub != nil {
		deps.OnTick = hub.Publish
	}
	w, err := world.New(world.Config{
		Width:            tune.World.Width,
		Depth:            tune.World.Depth,
		Workers:          tune.World.Workers,
		CommitEveryTicks: tune.World.CommitEveryTicks,
	}, deps)
	if err != nil {
		return nil, err
	}
	d := &driver{
		tune:   tune,
		world:  w,
		db:     db,
		logger: logger,
		pos:    mgl32.Vec3{0, tune.Walk.Height, 0},
		yaw:    tune.Walk.Heading,
	}
	if db != nil {
		p, ok, err := db.Player(tune.Storage.PlayerID)
		if err != nil {
			logger.Printf("restore player: %v", err)
		} else if ok {
			d.pos = mgl32.Vec3{p.X, p.Y, p.Z}
			d.yaw, d.pitch = p.Yaw, p.Pitch
			logger.Printf("restored player %d at (%.1f, %.1f, %.1f)", tune.Storage.PlayerID, p.X, p.Y, p.Z)
		}
	}
	return d, nil
}

func (d *driver) step() world.TickStats {
	st := d.world.Update(d.pos.X(), d.pos.Y(), d.pos.Z())

	cam := camera.NewPerspective(d.pos, d.yaw, d.pitch, mgl32.DegToRad(75), 16.0/9.0, 0.1, 1000)
	f := cam.Frustum()
	var pass memgpu.Pass
	for b := terrain.Bucket(0); b < terrain.Buckets; b++ {
		d.draws += d.world.Render(f, &pass, &pass, b)
	}

	if d.editEvery > 0 && st.Tick%uint64(d.editEvery) == 0 {
		d.placeMarker()
	}

	speed := float64(d.tune.Walk.Speed)
	fwd := mgl32.Vec3{
		float32(speed * math.Sin(float64(d.yaw))),
		0,
		float32(-speed * math.Cos(float64(d.yaw))),
	}
	d.pos = d.pos.Add(fwd)
	return st
}

// placeMarker puts a log on the highest solid block under the viewpoint.
func (d *driver) placeMarker() {
	x := int(math.Floor(float64(d.pos.X())))
	z := int(math.Floor(float64(d.pos.Z())))
	y, ok := surface(d.world, x, z)
	if !ok || y+1 >= terrain.ChunkY {
		return
	}
	d.world.SetBlock(x, y+1, z, block.Log)
}

func surface(w *world.World, x, z int) (int, bool) {
	for y := terrain.ChunkY - 1; y >= 0; y-- {
		if w.GetBlock(x, y, z) != block.Empty {
			return y, true
		}
	}
	return 0, false
}

func (d *driver) run(ctx context.Context, ticks int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 0; ticks <= 0 || n < ticks; n++ {
		st := d.step()
		if st.Tick%100 == 0 {
			sum := d.world.Stats()
			d.logger.Printf("tick=%d origin=%v loads=%d meshes=%d failures=%d draws=%d",
				st.Tick, st.Origin, sum.Loads, sum.Meshes, sum.MeshFailures, d.draws)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// close saves the viewpoint and releases the world.
func (d *driver) close() error {
	if d.db != nil {
		p := blockdb.Player{X: d.pos.X(), Y: d.pos.Y(), Z: d.pos.Z(), Pitch: d.pitch, Yaw: d.yaw}
		if err := d.db.SetPlayer(d.tune.Storage.PlayerID, p); err != nil {
			d.logger.Printf("save player: %v", err)
		}
	}
	if err := d.world.Close(); err != nil {
		return fmt.Errorf("close world: %w", err)
	}
	return nil
}
