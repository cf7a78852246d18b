// Package readbuddy assembles the reading tutor service: the gaze tracking
// session controller, the word layout index and the local API server.
package readbuddy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-readbuddy/internal/config"
	"github.com/teslashibe/go-readbuddy/pkg/gazeclient"
	"github.com/teslashibe/go-readbuddy/pkg/layout"
	"github.com/teslashibe/go-readbuddy/pkg/session"
	"github.com/teslashibe/go-readbuddy/pkg/web"
)

// shutdownTimeout bounds the stop request sent to the tracking service on exit.
const shutdownTimeout = 3 * time.Second

// App is the readbuddy service.
// It manages all components and their lifecycle.
type App struct {
	config config.Config
	logger *slog.Logger

	client     *gazeclient.Client
	index      *layout.Index
	controller *session.Controller
	server     *web.Server

	staticDir string
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithStaticDir serves the reading screen from dir.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// New validates cfg and creates an application.
func New(cfg config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init creates all components.
// Call this after New() and before Run().
func (a *App) Init() error {
	a.client = gazeclient.New(a.config.ServiceURL,
		gazeclient.WithLogger(a.logger.With("component", "gazeclient")))

	a.index = layout.NewIndex(layout.MonospaceMetrics(a.config.CharWidth))

	sc := session.DefaultConfig()
	sc.PollInterval = a.config.PollInterval
	sc.PollTimeout = a.config.PollTimeout
	sc.Tolerance = a.config.Tolerance
	sc.TopWords = a.config.TopWords
	sc.Logger = a.logger.With("component", "session")
	a.controller = session.New(sc, a.client, a.index)

	opts := []web.Option{web.WithLogger(a.logger)}
	if a.staticDir != "" {
		opts = append(opts, web.WithStaticDir(a.staticDir))
	}
	a.server = web.NewServer(a.config.Port, a.controller, a.index, opts...)

	a.logger.Info("readbuddy initialized",
		"service_url", a.config.ServiceURL,
		"poll_interval", a.config.PollInterval,
		"tolerance", a.config.Tolerance)
	return nil
}

// Run serves the API until ctx is cancelled, then stops any active session.
func (a *App) Run(ctx context.Context) error {
	return a.run(ctx, func() error { return a.server.Start() })
}

// RunListener is Run on an existing listener.
func (a *App) RunListener(ctx context.Context, ln net.Listener) error {
	return a.run(ctx, func() error { return a.server.Serve(ln) })
}

func (a *App) run(ctx context.Context, serve func() error) error {
	if a.server == nil {
		return fmt.Errorf("readbuddy: Run called before Init")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(serve)
	g.Go(func() error {
		<-ctx.Done()
		a.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Shutdown stops the active session, if any, and the API server.
func (a *App) Shutdown() {
	if a.controller != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.controller.Close(ctx); err != nil {
			a.logger.Warn("session close failed", "error", err)
		}
		cancel()
	}
	if a.server != nil {
		if err := a.server.Shutdown(); err != nil {
			a.logger.Warn("server shutdown failed", "error", err)
		}
	}
	a.logger.Info("readbuddy stopped")
}

// Controller returns the session controller.
func (a *App) Controller() *session.Controller {
	return a.controller
}

// Index returns the layout index.
func (a *App) Index() *layout.Index {
	return a.index
}
