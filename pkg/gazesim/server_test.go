package gazesim

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"
)

func quietConfig() Config {
	return Config{
		Source: Fixed(0.1, -0.2),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func get(t *testing.T, s *Simulator, path string) (int, map[string]any) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp.StatusCode, body
}

func TestToggleFlipsRunning(t *testing.T) {
	s := New(quietConfig())

	code, body := get(t, s, "/togglegaze")
	if code != 200 || body["status"] != "started" {
		t.Fatalf("first toggle = %d %v, want 200 started", code, body)
	}
	if !s.Running() {
		t.Error("Running() = false after start")
	}

	code, body = get(t, s, "/togglegaze")
	if code != 200 || body["status"] != "stopped" {
		t.Fatalf("second toggle = %d %v, want 200 stopped", code, body)
	}
	if s.Running() {
		t.Error("Running() = true after stop")
	}
	if s.Toggles() != 2 {
		t.Errorf("Toggles() = %d, want 2", s.Toggles())
	}
}

func TestGazeWhileStopped(t *testing.T) {
	s := New(quietConfig())

	code, body := get(t, s, "/getgaze")
	if code != 400 {
		t.Fatalf("status = %d, want 400", code)
	}
	if body["error"] != "Camera not initialized" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestGazeWhileRunning(t *testing.T) {
	s := New(quietConfig())
	get(t, s, "/togglegaze")

	code, body := get(t, s, "/getgaze")
	if code != 200 {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["x"] != 0.1 || body["y"] != -0.2 {
		t.Errorf("gaze = (%v, %v), want (0.1, -0.2)", body["x"], body["y"])
	}

	img, ok := body["image"].(string)
	if !ok || img == "" {
		t.Fatal("missing image")
	}
	raw, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		t.Fatalf("image not base64: %v", err)
	}
	// JPEG SOI marker
	if len(raw) < 2 || raw[0] != 0xFF || raw[1] != 0xD8 {
		t.Error("image is not a JPEG")
	}
}

func TestNoFrames(t *testing.T) {
	config := quietConfig()
	config.NoFrames = true
	s := New(config)
	get(t, s, "/togglegaze")

	_, body := get(t, s, "/getgaze")
	if _, ok := body["image"]; ok {
		t.Error("image present with NoFrames")
	}
}

func TestFailEvery(t *testing.T) {
	config := quietConfig()
	config.FailEvery = 3
	s := New(config)
	get(t, s, "/togglegaze")

	var codes []int
	for i := 0; i < 6; i++ {
		code, _ := get(t, s, "/getgaze")
		codes = append(codes, code)
	}

	want := []int{200, 200, 500, 200, 200, 500}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestCameraUnavailable(t *testing.T) {
	config := quietConfig()
	config.CameraUnavailable = true
	s := New(config)

	code, body := get(t, s, "/togglegaze")
	if code != 500 {
		t.Fatalf("status = %d, want 500", code)
	}
	if body["error"] != "Could not open camera" {
		t.Errorf("error = %v", body["error"])
	}
	if s.Running() {
		t.Error("Running() = true after failed start")
	}
}

func TestReadingSweep(t *testing.T) {
	src := ReadingSweep(2, time.Second, 0.3, -0.1, 0.2)

	tests := []struct {
		elapsed time.Duration
		x, y    float64
	}{
		{0, -0.3, -0.1},
		{500 * time.Millisecond, 0, -0.1},
		{time.Second, -0.3, 0.1},
		{2 * time.Second, -0.3, -0.1},
	}

	for _, tt := range tests {
		x, y := src(tt.elapsed)
		if !near(x, tt.x) || !near(y, tt.y) {
			t.Errorf("src(%v) = (%v, %v), want (%v, %v)", tt.elapsed, x, y, tt.x, tt.y)
		}
	}
}

func TestJitterStaysClose(t *testing.T) {
	src := Jitter(Fixed(0, 0), 0.01)
	for i := 0; i < 50; i++ {
		x, y := src(time.Duration(i) * 37 * time.Millisecond)
		if x < -0.01-1e-9 || x > 0.01+1e-9 || y < -0.01-1e-9 || y > 0.01+1e-9 {
			t.Fatalf("jitter out of range: (%v, %v)", x, y)
		}
	}
}

func TestRenderFrameEdges(t *testing.T) {
	// Marker off the frame must not panic
	for _, p := range [][2]float64{{-0.6, -0.6}, {0.6, 0.6}, {0, 0}} {
		if _, err := renderFrame(p[0], p[1]); err != nil {
			t.Errorf("renderFrame(%v) error = %v", p, err)
		}
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
