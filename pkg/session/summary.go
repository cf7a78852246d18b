package session

import (
	"encoding/json"
	"time"

	"github.com/teslashibe/go-readbuddy/pkg/gaze"
)

// Summary describes a completed tracking session.
type Summary struct {
	SessionID   string           `json:"session_id,omitempty"`
	StartedAt   time.Time        `json:"started_at,omitzero"`
	StoppedAt   time.Time        `json:"stopped_at,omitzero"`
	Dwell       gaze.DwellMap    `json:"-"`
	TopWords    []gaze.WordDwell `json:"top_words"`
	Samples     int              `json:"samples"`
	FailedPolls int              `json:"failed_polls"`
	StopError   string           `json:"stop_error,omitempty"`
}

// emptySummary is what callers see before any session has completed.
func emptySummary() Summary {
	return Summary{
		Dwell:    gaze.DwellMap{},
		TopWords: []gaze.WordDwell{},
	}
}

// Duration returns the wall-clock length of the session.
func (s Summary) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.StoppedAt.IsZero() {
		return 0
	}
	return s.StoppedAt.Sub(s.StartedAt)
}

// Empty reports whether no session produced this summary.
func (s Summary) Empty() bool {
	return s.SessionID == ""
}

// MarshalJSON adds dwell_ms and duration_ms to the encoded summary.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	dwell := s.Dwell
	if dwell == nil {
		dwell = gaze.DwellMap{}
	}
	top := s.TopWords
	if top == nil {
		top = []gaze.WordDwell{}
	}
	p := plain(s)
	p.TopWords = top
	return json.Marshal(struct {
		plain
		DwellMS    map[string]int64 `json:"dwell_ms"`
		DurationMS int64            `json:"duration_ms"`
	}{
		plain:      p,
		DwellMS:    dwell.Millis(),
		DurationMS: s.Duration().Milliseconds(),
	})
}
