package readbuddy

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/teslashibe/go-readbuddy/internal/config"
	"github.com/teslashibe/go-readbuddy/pkg/gazesim"
	"github.com/teslashibe/go-readbuddy/pkg/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ServiceURL = ""
	if _, err := New(cfg); err == nil {
		t.Fatal("New accepted a config without service_url")
	}
}

func TestRunBeforeInit(t *testing.T) {
	app, err := New(config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := app.Run(context.Background()); err == nil {
		t.Fatal("Run before Init succeeded")
	}
}

func TestRunStopsSessionOnShutdown(t *testing.T) {
	sim := gazesim.New(gazesim.Config{
		Source:   gazesim.Fixed(0, 0),
		NoFrames: true,
		Logger:   quietLogger(),
	})
	simSrv := httptest.NewServer(adaptor.FiberApp(sim.App()))
	defer simSrv.Close()

	cfg := config.Default()
	cfg.ServiceURL = simSrv.URL
	cfg.PollInterval = 10 * time.Millisecond

	app, err := New(cfg, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := app.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunListener(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/api/session/start", "application/json", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start = %d", resp.StatusCode)
	}
	if !sim.Running() {
		t.Fatal("service not tracking after start")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if sim.Running() {
		t.Error("service still tracking after shutdown")
	}
	if got := app.Controller().State(); got != session.Idle {
		t.Errorf("state = %s, want idle", got)
	}
}
