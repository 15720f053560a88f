package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voxelstream.ai/internal/gpu/memgpu"
	"voxelstream.ai/internal/persistence/blockdb"
	persistlog "voxelstream.ai/internal/persistence/log"
	"voxelstream.ai/internal/sim/tuning"
	"voxelstream.ai/internal/sim/world/terrain/gen"
	"voxelstream.ai/internal/transport/observer"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code. Failures return instead of exiting so
// the deferred closes flush storage and the tick log.
func run(args []string) int {
	fs := flag.NewFlagSet("streamer", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "./configs/streamer.yaml", "path to streamer.yaml (empty for defaults)")
		ticks      = fs.Int("ticks", 0, "stop after this many ticks (0 runs until interrupted)")
		editEvery  = fs.Int("edit_every", 0, "place a log on the surface under the viewpoint every N ticks (0 disables)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(os.Stdout, "[streamer] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*configPath)
	if err != nil {
		logger.Printf("load config: %v", err)
		return 1
	}

	var db *blockdb.DB
	if tune.Storage.Path != "" {
		db, err = blockdb.Open(tune.Storage.Path)
		if err != nil {
			logger.Printf("open storage: %v", err)
			return 1
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Printf("close storage: %v", err)
			}
		}()
	}

	var hub *observer.Hub
	if tune.Observer.Listen != "" {
		hub = observer.NewHub(tune.World.Width, tune.World.Depth, log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds))
		ln, err := net.Listen("tcp", tune.Observer.Listen)
		if err != nil {
			logger.Printf("observer listen: %v", err)
			return 1
		}
		srv := &http.Server{Handler: hub.Mux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("observer: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		logger.Printf("observer listening on %s", ln.Addr())
	}

	d, err := newDriver(tune, memgpu.New(), gen.Generator{Seed: tune.Generator.Seed}, db, hub, logger)
	if err != nil {
		logger.Printf("init world: %v", err)
		return 1
	}
	if tune.TickLog.Dir != "" {
		tl := persistlog.NewTickLogger(tune.TickLog.Dir)
		defer tl.Close()
		d.world.SetTickLogger(tl)
	}
	d.editEvery = *editEvery

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := d.run(ctx, *ticks, time.Second/time.Duration(tune.Walk.TickRateHz))
	if err := d.close(); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Printf("run: %v", runErr)
		return 1
	}
	return 0
}
