// ReadBuddy - gaze-aware reading tutor service
// Tracks which words a reader looks at and for how long
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-readbuddy/internal/config"
	"github.com/teslashibe/go-readbuddy/internal/log"
	"github.com/teslashibe/go-readbuddy/pkg/readbuddy"
)

func main() {
	cfg, staticDir := parseFlags()

	log.Init(cfg.LogLevel)
	logger := log.L()

	app, err := readbuddy.New(cfg, readbuddy.WithLogger(logger), readbuddy.WithStaticDir(staticDir))
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if err := app.Init(); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

// parseFlags loads the config file and environment, then applies flags.
func parseFlags() (config.Config, string) {
	configPath := flag.String("config", config.Path(""), "YAML config file (overrides READBUDDY_CONFIG env var)")
	port := flag.String("port", "", "API listen port (overrides READBUDDY_PORT env var)")
	serviceURL := flag.String("service-url", "", "Gaze tracking service URL (overrides GAZE_SERVICE_URL env var)")
	staticDir := flag.String("web", "", "Directory with the reading screen to serve at /")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	if *port != "" {
		cfg.Port = *port
	}
	if *serviceURL != "" {
		cfg.ServiceURL = *serviceURL
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	return cfg, *staticDir
}
