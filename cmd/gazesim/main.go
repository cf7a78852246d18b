// Gaze simulator - stands in for the camera gaze tracking service
// Serves /togglegaze and /getgaze with a synthetic reading sweep
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-readbuddy/internal/log"
	"github.com/teslashibe/go-readbuddy/pkg/gazesim"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8000", "Listen address")
	lines := flag.Int("lines", 4, "Number of text lines to sweep")
	lineDur := flag.Duration("line-duration", 3*time.Second, "Time spent reading one line")
	jitter := flag.Float64("jitter", 0.005, "Fixation jitter amplitude (normalized units)")
	failEvery := flag.Int("fail-every", 0, "Fail every Nth poll with a 500 (0 disables)")
	noCamera := flag.Bool("no-camera", false, "Fail every start request")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	level := os.Getenv("LOG_LEVEL")
	if *debug {
		level = "debug"
	}
	log.Init(level)

	cfg := gazesim.DefaultConfig()
	cfg.Source = gazesim.Jitter(gazesim.ReadingSweep(*lines, *lineDur, 0.3, -0.15, 0.1), *jitter)
	cfg.FailEvery = *failEvery
	cfg.CameraUnavailable = *noCamera
	cfg.Logger = log.L()
	sim := gazesim.New(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sim.Listen(*addr) })
	g.Go(func() error {
		<-ctx.Done()
		return sim.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error("gaze simulator failed", "error", err)
		os.Exit(1)
	}
}
