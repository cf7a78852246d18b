// Package gazesim simulates the gaze tracking service.
//
// It serves the same two endpoints as the real vision backend. /togglegaze
// flips tracking on and off; /getgaze answers 400 while tracking is off and
// otherwise returns a synthetic gaze position with a rendered camera frame.
// Use it to run the tutor without a camera and in tests.
package gazesim

import (
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Config configures a Simulator.
type Config struct {
	Source Source

	// FailEvery makes every Nth poll fail with a 500 when > 0
	FailEvery int

	// CameraUnavailable makes every start attempt fail
	CameraUnavailable bool

	// NoFrames omits camera frames from poll responses
	NoFrames bool

	Logger *slog.Logger
}

// DefaultConfig sweeps four lines, three seconds each, with slight jitter.
func DefaultConfig() Config {
	return Config{
		Source: Jitter(ReadingSweep(4, 3*time.Second, 0.3, -0.15, 0.1), 0.005),
		Logger: slog.Default(),
	}
}

// Simulator is a fake gaze tracking service.
type Simulator struct {
	config Config
	app    *fiber.App
	logger *slog.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	polls     int
	toggles   int
}

// New creates a simulator.
func New(config Config) *Simulator {
	if config.Source == nil {
		config.Source = DefaultConfig().Source
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	s := &Simulator{
		config: config,
		logger: config.Logger.With("component", "gazesim"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Gaze Simulator",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Get("/togglegaze", s.handleToggle)
	app.Get("/getgaze", s.handleGaze)

	s.app = app
	return s
}

// App returns the fiber app, e.g. for app.Test in tests.
func (s *Simulator) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Simulator) Listen(addr string) error {
	s.logger.Info("gaze simulator listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server.
func (s *Simulator) Shutdown() error {
	return s.app.Shutdown()
}

// Running reports whether tracking is on.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Toggles returns how many toggle requests were received.
func (s *Simulator) Toggles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggles
}

func (s *Simulator) handleToggle(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.toggles++
	s.running = !s.running

	if s.running {
		if s.config.CameraUnavailable {
			s.running = false
			s.logger.Warn("camera unavailable")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not open camera",
			})
		}
		s.startedAt = time.Now()
		s.polls = 0
		s.logger.Info("tracking started")
		return c.JSON(fiber.Map{"status": "started"})
	}

	s.logger.Info("tracking stopped", "polls", s.polls)
	return c.JSON(fiber.Map{"status": "stopped"})
}

func (s *Simulator) handleGaze(c *fiber.Ctx) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Camera not initialized",
		})
	}
	s.polls++
	n := s.polls
	elapsed := time.Since(s.startedAt)
	s.mu.Unlock()

	if s.config.FailEvery > 0 && n%s.config.FailEvery == 0 {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not read frame",
		})
	}

	x, y := s.config.Source(elapsed)
	resp := fiber.Map{"x": x, "y": y}

	if !s.config.NoFrames {
		frame, err := renderFrame(x, y)
		if err != nil {
			s.logger.Error("frame encode failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Processed frame is None",
			})
		}
		resp["image"] = base64.StdEncoding.EncodeToString(frame)
	}

	return c.JSON(resp)
}
