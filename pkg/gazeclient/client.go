// Package gazeclient talks to the local gaze tracking service.
//
// The service exposes two endpoints: /togglegaze flips tracking on or off and
// /getgaze returns the latest gaze estimate with the camera frame it came
// from. Both answer JSON and signal failure with a non-2xx status and an
// "error" field.
package gazeclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-readbuddy/internal/httpc"
	"github.com/teslashibe/go-readbuddy/pkg/gaze"
)

// Endpoint paths.
const (
	TogglePath = "/togglegaze"
	GazePath   = "/getgaze"
)

// maxBodySize caps response bodies; a base64 VGA JPEG is well under this.
const maxBodySize = 4 << 20

// Status is the service's report after a toggle, e.g. "started" or "stopped".
type Status string

// Known statuses.
const (
	StatusStarted Status = "started"
	StatusStopped Status = "stopped"
)

// Client is a tracking service client.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock sets the clock used to stamp samples.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for the service at baseURL, e.g. "http://127.0.0.1:8000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpc.Client,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type toggleResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type gazeResponse struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Image string   `json:"image"`
	Error string   `json:"error"`
}

// Toggle flips tracking on the service and returns the status it reports.
// The service keeps no other state we can query, so callers must track
// whether they meant to start or stop.
func (c *Client) Toggle(ctx context.Context) (Status, error) {
	var resp toggleResponse
	if err := c.get(ctx, TogglePath, &resp); err != nil {
		return "", err
	}
	c.logger.Debug("gaze toggled", "status", resp.Status)
	return Status(resp.Status), nil
}

// Latest fetches the most recent gaze sample.
func (c *Client) Latest(ctx context.Context) (gaze.Sample, error) {
	var resp gazeResponse
	if err := c.get(ctx, GazePath, &resp); err != nil {
		return gaze.Sample{}, err
	}
	if resp.X == nil || resp.Y == nil {
		return gaze.Sample{}, fmt.Errorf("%w: %s missing coordinates", ErrDecode, GazePath)
	}

	sample := gaze.Sample{
		X:          *resp.X,
		Y:          *resp.Y,
		ReceivedAt: c.now(),
	}
	if resp.Image != "" {
		frame, err := base64.StdEncoding.DecodeString(resp.Image)
		if err != nil {
			// Coordinates are still good; only the preview is lost
			c.logger.Debug("dropping undecodable frame", "error", err)
		} else {
			sample.Frame = frame
		}
	}
	return sample, nil
}

// get issues a GET to path and decodes the JSON body into v.
// Any response with a non-2xx status or a non-empty "error" field becomes
// an *APIError.
func (c *Client) get(ctx context.Context, path string, v interface{ errorMessage() string }) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("gazeclient %s: build request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gazeclient %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("gazeclient %s: read body: %w", path, err)
	}

	decodeErr := json.Unmarshal(body, v)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !ok {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: path}
		if decodeErr == nil {
			apiErr.Message = v.errorMessage()
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, path, decodeErr)
	}
	if msg := v.errorMessage(); msg != "" {
		return &APIError{StatusCode: resp.StatusCode, Endpoint: path, Message: msg}
	}
	return nil
}

func (r *toggleResponse) errorMessage() string { return r.Error }
func (r *gazeResponse) errorMessage() string   { return r.Error }
