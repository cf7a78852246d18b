// Package web serves the reading tutor's local API and live gaze streams.
package web

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-readbuddy/pkg/hub"
	"github.com/teslashibe/go-readbuddy/pkg/layout"
	"github.com/teslashibe/go-readbuddy/pkg/metrics"
	"github.com/teslashibe/go-readbuddy/pkg/session"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStaticDir serves the reading screen from dir.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// Server is the local API server
type Server struct {
	app        *fiber.App
	port       string
	staticDir  string
	logger     *slog.Logger
	controller *session.Controller
	index      *layout.Index

	// ctx outlives individual requests and scopes hubs and websocket clients
	ctx    context.Context
	cancel context.CancelFunc

	gazeHub   *hub.Hub
	cameraHub *hub.Hub
	statusHub *hub.Hub
}

// NewServer creates the API server and registers itself as the controller's
// listener.
func NewServer(port string, controller *session.Controller, index *layout.Index, opts ...Option) *Server {
	s := &Server{
		port:       port,
		logger:     slog.Default(),
		controller: controller,
		index:      index,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.gazeHub = hub.New("gaze", s.logger)
	s.cameraHub = hub.New("camera", s.logger)
	s.statusHub = hub.New("status", s.logger)

	app := fiber.New(fiber.Config{
		AppName:               "ReadBuddy",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
	})

	app.Use(recover.New())
	// CORS for the reading screen dev server
	app.Use(cors.New())

	if s.staticDir != "" {
		app.Static("/", s.staticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/session/start", s.handleStart)
	api.Post("/session/stop", s.handleStop)
	api.Post("/session/toggle", s.handleToggle)
	api.Get("/session/summary", s.handleSummary)
	api.Get("/session/live", s.handleLive)
	api.Get("/layout", s.handleGetLayout)
	api.Put("/layout", s.handlePutLayout)
	api.Delete("/layout", s.handleClearLayout)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/gaze", websocket.New(s.handleGazeWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	controller.SetListener(s)
	return s
}

// App returns the fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves on the configured port until Shutdown.
func (s *Server) Start() error {
	s.startHubs()
	s.logger.Info("api server listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Serve runs the hubs and serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.startHubs()
	s.logger.Info("api server listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

func (s *Server) startHubs() {
	go s.gazeHub.Run(s.ctx)
	go s.cameraHub.Run(s.ctx)
	go s.statusHub.Run(s.ctx)
}

// Shutdown disconnects websocket clients and stops the server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}

// Hubs returns the gaze, camera and status hubs.
func (s *Server) Hubs() (gazeHub, cameraHub, statusHub *hub.Hub) {
	return s.gazeHub, s.cameraHub, s.statusHub
}
