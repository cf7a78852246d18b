// Package session runs gaze tracking sessions for the reading screen.
//
// A Controller owns the session state machine. While a session is active it
// polls the tracking service, resolves every sample against the current word
// layout and feeds the result into a dwell accumulator. Stopping a session
// produces a Summary of where the reader's attention went.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/teslashibe/go-readbuddy/pkg/gaze"
	"github.com/teslashibe/go-readbuddy/pkg/gazeclient"
	"github.com/teslashibe/go-readbuddy/pkg/layout"
	"github.com/teslashibe/go-readbuddy/pkg/metrics"
)

// Tracker is the remote tracking service.
type Tracker interface {
	Toggle(ctx context.Context) (gazeclient.Status, error)
	Latest(ctx context.Context) (gaze.Sample, error)
}

// Layout provides the word regions currently on screen.
type Layout interface {
	Regions() []layout.WordRegion
}

// Listener receives session events, e.g. to drive a live gaze marker.
// Callbacks run on controller goroutines and must not block.
type Listener interface {
	OnStateChange(state State, sessionID string)
	OnSample(sample gaze.Sample, word string)
	OnSummary(summary Summary)
}

type nopListener struct{}

func (nopListener) OnStateChange(State, string)  {}
func (nopListener) OnSample(gaze.Sample, string) {}
func (nopListener) OnSummary(Summary)            {}

// Controller manages the lifecycle of gaze tracking sessions.
type Controller struct {
	config   Config
	tracker  Tracker
	layout   Layout
	resolver *gaze.Resolver
	dwell    *gaze.Accumulator
	logger   *slog.Logger
	pollWarn rate.Sometimes

	mu          sync.Mutex
	listener    Listener
	state       State
	gen         uint64 // bumped on every start; stale poll results are dropped
	sessionID   string
	startedAt   time.Time
	cancel      context.CancelFunc
	done        chan struct{}
	lastSample  *gaze.Sample
	currentWord string
	samples     int
	failedPolls int
	lastErr     error
	summary     Summary
}

// New creates a controller polling tracker and resolving against layout.
func New(config Config, tracker Tracker, layout Layout) *Controller {
	config.fillDefaults()
	return &Controller{
		config:   config,
		tracker:  tracker,
		layout:   layout,
		resolver: gaze.NewResolver(config.Tolerance),
		dwell:    gaze.NewAccumulator(),
		logger:   config.Logger,
		pollWarn: rate.Sometimes{First: 1, Interval: config.PollWarnInterval},
		listener: nopListener{},
		summary:  emptySummary(),
	}
}

// SetListener sets the event listener. nil removes it.
func (c *Controller) SetListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l == nil {
		l = nopListener{}
	}
	c.listener = l
}

// Start begins a tracking session.
// It fails with ErrAlreadyActive unless the controller is idle, and with
// ErrTrackingUnavailable if the service cannot start tracking.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Idle {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrAlreadyActive, state)
	}
	c.state = Starting
	c.lastErr = nil
	listener := c.listener
	c.mu.Unlock()

	listener.OnStateChange(Starting, "")

	status, err := c.tracker.Toggle(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = Idle
		c.lastErr = err
		c.mu.Unlock()

		metrics.RecordStart(err)
		c.logger.Error("gaze tracking failed to start", "error", err)
		listener.OnStateChange(Idle, "")
		return fmt.Errorf("%w: %w", ErrTrackingUnavailable, err)
	}
	c.checkDesync(status, gazeclient.StatusStarted)

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.sessionID = uuid.NewString()
	c.startedAt = c.config.Clock()
	c.dwell.Reset()
	c.samples, c.failedPolls = 0, 0
	c.lastSample, c.currentWord = nil, ""
	c.cancel, c.done = cancel, done
	c.state = Active
	id := c.sessionID
	listener = c.listener
	c.mu.Unlock()

	go c.run(loopCtx, gen, done)

	metrics.RecordStart(nil)
	c.logger.Info("gaze tracking started", "session", id, "interval", c.config.PollInterval)
	listener.OnStateChange(Active, id)
	return nil
}

// Stop ends the active session and returns its summary.
// Polling has stopped, and any in-flight poll has been discarded, before the
// stop request is sent. The controller is idle afterwards even when the
// service fails to stop, in which case the error wraps ErrStopFailure.
func (c *Controller) Stop(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	if c.state != Active {
		state := c.state
		c.mu.Unlock()
		return Summary{}, fmt.Errorf("%w (state %s)", ErrNotActive, state)
	}
	c.state = Stopping
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	id := c.sessionID
	listener := c.listener
	c.mu.Unlock()

	listener.OnStateChange(Stopping, id)

	cancel()
	<-done

	status, err := c.tracker.Toggle(ctx)
	if err == nil {
		c.checkDesync(status, gazeclient.StatusStopped)
	}

	c.mu.Lock()
	dwell := c.dwell.Snapshot()
	summary := Summary{
		SessionID:   c.sessionID,
		StartedAt:   c.startedAt,
		StoppedAt:   c.config.Clock(),
		Dwell:       dwell,
		TopWords:    dwell.TopK(c.config.TopWords),
		Samples:     c.samples,
		FailedPolls: c.failedPolls,
	}
	if err != nil {
		summary.StopError = err.Error()
		c.lastErr = err
	}
	c.summary = summary
	c.state = Idle
	c.lastSample, c.currentWord = nil, ""
	listener = c.listener
	c.mu.Unlock()

	metrics.RecordStop(err, summary.Duration())
	listener.OnStateChange(Idle, "")
	listener.OnSummary(summary)

	if err != nil {
		c.logger.Warn("gaze tracking stop request failed; session closed locally",
			"session", id, "error", err)
		return summary, fmt.Errorf("%w: %w", ErrStopFailure, err)
	}
	c.logger.Info("gaze tracking stopped", "session", id,
		"samples", summary.Samples, "failed_polls", summary.FailedPolls,
		"words", len(summary.Dwell))
	return summary, nil
}

// Toggle stops an active session, otherwise starts one.
func (c *Controller) Toggle(ctx context.Context) error {
	if c.State() == Active {
		_, err := c.Stop(ctx)
		return err
	}
	return c.Start(ctx)
}

// Close stops the session if one is active.
func (c *Controller) Close(ctx context.Context) error {
	if c.State() != Active {
		return nil
	}
	_, err := c.Stop(ctx)
	return err
}

// run polls until ctx is cancelled. Ticks are serialized: a slow poll delays
// the next one and the ticker drops ticks it could not deliver.
func (c *Controller) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.poll(ctx, gen)
		}
	}
}

// poll fetches one sample and applies it to the session.
func (c *Controller) poll(ctx context.Context, gen uint64) {
	pollCtx, cancel := context.WithTimeout(ctx, c.config.PollTimeout)
	defer cancel()

	begin := time.Now()
	sample, err := c.tracker.Latest(pollCtx)
	elapsed := time.Since(begin)

	// Stopped while the request was in flight
	if ctx.Err() != nil {
		metrics.RecordPoll(metrics.StatusDiscarded, elapsed)
		return
	}

	if err != nil {
		c.mu.Lock()
		if c.gen == gen && c.state == Active {
			c.failedPolls++
		}
		c.mu.Unlock()

		metrics.RecordPoll(metrics.StatusError, elapsed)
		c.pollWarn.Do(func() {
			c.logger.Warn("gaze poll failed; skipping sample", "error", err)
		})
		return
	}

	now := c.config.Clock()
	word, hit := c.resolver.ResolveSample(sample, c.layout.Regions())

	c.mu.Lock()
	if c.gen != gen || c.state != Active {
		c.mu.Unlock()
		metrics.RecordPoll(metrics.StatusDiscarded, elapsed)
		return
	}
	c.dwell.Observe(word, now)
	c.samples++
	c.lastSample = &sample
	c.currentWord = word
	listener := c.listener
	c.mu.Unlock()

	metrics.RecordPoll(metrics.StatusSuccess, elapsed)
	metrics.RecordResolution(hit)
	listener.OnSample(sample, word)
}

// checkDesync warns when the toggle endpoint reports a state other than the
// one we asked for. Nothing is inferred from it: the controller's own state
// stays authoritative.
func (c *Controller) checkDesync(got, want gazeclient.Status) {
	if got != "" && got != want {
		c.logger.Warn("gaze service state disagrees with controller",
			"service_status", got, "expected", want)
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the active session's ID, or "" when none is running.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Active {
		return ""
	}
	return c.sessionID
}

// LastSample returns the most recent gaze sample of the active session.
func (c *Controller) LastSample() (gaze.Sample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSample == nil {
		return gaze.Sample{}, false
	}
	return *c.lastSample, true
}

// CurrentWord returns the word the reader is looking at, or "".
func (c *Controller) CurrentWord() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentWord
}

// LastError returns the last start or stop failure, for display.
// It is cleared when a new session starts.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Summary returns the summary of the last completed session. Before any
// session has completed it returns an empty summary.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Live returns the top words of the running session so far.
func (c *Controller) Live() []gaze.WordDwell {
	return c.dwell.TopK(c.config.TopWords)
}

// Status is a point-in-time view of the controller.
type Status struct {
	State       State    `json:"state"`
	SessionID   string   `json:"session_id,omitempty"`
	CurrentWord string   `json:"current_word,omitempty"`
	GazeX       *float64 `json:"gaze_x,omitempty"`
	GazeY       *float64 `json:"gaze_y,omitempty"`
	Samples     int      `json:"samples"`
	FailedPolls int      `json:"failed_polls"`
	Error       string   `json:"error,omitempty"`
}

// Status returns a snapshot of the controller for display.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:       c.state,
		CurrentWord: c.currentWord,
		Samples:     c.samples,
		FailedPolls: c.failedPolls,
	}
	if c.state == Active {
		st.SessionID = c.sessionID
	}
	if c.lastSample != nil {
		x, y := c.lastSample.X, c.lastSample.Y
		st.GazeX, st.GazeY = &x, &y
	}
	if c.lastErr != nil {
		st.Error = c.lastErr.Error()
	}
	return st
}
