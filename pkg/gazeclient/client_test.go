package gazeclient

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestToggle(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != TogglePath {
			t.Errorf("path = %s, want %s", r.URL.Path, TogglePath)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Write([]byte(`{"status":"started"}`))
	})

	status, err := c.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if status != StatusStarted {
		t.Errorf("status = %q, want started", status)
	}
}

func TestToggleServiceError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Could not open camera"}`))
	})

	_, err := c.Toggle(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 500 || apiErr.Message != "Could not open camera" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !apiErr.IsServerError() {
		t.Error("IsServerError() = false")
	}
}

func TestErrorFieldOn200(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"busy"}`))
	})

	_, err := c.Toggle(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "busy" {
		t.Fatalf("error = %v, want APIError busy", err)
	}
}

func TestNon2xxWithoutJSON(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.Latest(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestLatest(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'g'}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != GazePath {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"x":0.12,"y":-0.3,"image":"` + base64.StdEncoding.EncodeToString(frame) + `"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithClock(func() time.Time { return fixed }))
	s, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if s.X != 0.12 || s.Y != -0.3 {
		t.Errorf("sample = (%v, %v)", s.X, s.Y)
	}
	if string(s.Frame) != string(frame) {
		t.Errorf("frame = %v", s.Frame)
	}
	if !s.ReceivedAt.Equal(fixed) {
		t.Errorf("ReceivedAt = %v", s.ReceivedAt)
	}
}

func TestLatestBadImageKeepsCoordinates(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"x":0.1,"y":0.2,"image":"%%%not-base64"}`))
	})

	s, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if s.HasFrame() {
		t.Error("undecodable frame should be dropped")
	}
	if s.X != 0.1 || s.Y != 0.2 {
		t.Errorf("sample = (%v, %v)", s.X, s.Y)
	}
}

func TestLatestNotRunning(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Camera not initialized"}`))
	})

	_, err := c.Latest(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsNotRunning() {
		t.Fatalf("error = %v, want not-running APIError", err)
	}
}

func TestLatestMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing x", `{"y":0.1}`},
		{"missing both", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			if _, err := c.Latest(context.Background()); !errors.Is(err, ErrDecode) {
				t.Errorf("error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestLatestCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Latest(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestAPIErrorString(t *testing.T) {
	e := &APIError{StatusCode: 400, Endpoint: GazePath, Message: "Camera not initialized"}
	if e.Error() != "gazeclient /getgaze: HTTP 400: Camera not initialized" {
		t.Errorf("Error() = %q", e.Error())
	}
	e.Message = ""
	if e.Error() != "gazeclient /getgaze: HTTP 400" {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestBaseURLTrimmed(t *testing.T) {
	if got := New("http://127.0.0.1:8000/").BaseURL(); got != "http://127.0.0.1:8000" {
		t.Errorf("BaseURL() = %q", got)
	}
}
