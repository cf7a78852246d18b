package session

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-readbuddy/pkg/gaze"
)

// Config holds the tunable parameters of a Controller.
type Config struct {
	// Timing
	PollInterval time.Duration // How often to fetch a gaze sample
	PollTimeout  time.Duration // Give up on a single poll after this long

	// Resolution
	Tolerance float64 // Extra margin around word boxes (normalized units)

	// Summary
	TopWords int // Number of words reported in a summary

	// PollWarnInterval rate-limits poll failure warnings
	PollWarnInterval time.Duration

	Logger *slog.Logger
	Clock  func() time.Time
}

// DefaultConfig returns the configuration used by the reading screen:
// ten polls per second and the five most-gazed words in the summary.
func DefaultConfig() Config {
	return Config{
		PollInterval:     100 * time.Millisecond,
		PollTimeout:      2 * time.Second,
		Tolerance:        gaze.DefaultTolerance,
		TopWords:         5,
		PollWarnInterval: 5 * time.Second,
		Logger:           slog.Default(),
		Clock:            time.Now,
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = def.PollTimeout
	}
	if c.TopWords <= 0 {
		c.TopWords = def.TopWords
	}
	if c.PollWarnInterval <= 0 {
		c.PollWarnInterval = def.PollWarnInterval
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
	if c.Clock == nil {
		c.Clock = def.Clock
	}
}
