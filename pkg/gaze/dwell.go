package gaze

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// DwellMap is accumulated gaze time per word text.
// Repeated words share one entry.
type DwellMap map[string]time.Duration

// WordDwell is one DwellMap entry.
type WordDwell struct {
	Word  string        `json:"word"`
	Dwell time.Duration `json:"-"`
}

// Millis returns the dwell time in whole milliseconds.
func (w WordDwell) Millis() int64 {
	return w.Dwell.Milliseconds()
}

// MarshalJSON encodes the dwell time as dwell_ms.
func (w WordDwell) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Word    string `json:"word"`
		DwellMS int64  `json:"dwell_ms"`
	}{w.Word, w.Millis()})
}

// Accumulator integrates time spent looking at each word.
//
// Attribution is retrospective: the interval between two observations is
// credited to the word passed to the earlier one. Observations are
// serialized internally so each interval is credited exactly once.
type Accumulator struct {
	mu       sync.Mutex
	dwell    DwellMap
	lastWord string
	lastAt   time.Time
	started  bool
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{dwell: make(DwellMap)}
}

// Observe records that word ("" for none) is being looked at as of at.
// The time since the previous observation is credited to the previous word.
// Observations that are not strictly later than the previous one are
// rejected without changing any state; Observe then returns false.
func (a *Accumulator) Observe(word string, at time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		delta := at.Sub(a.lastAt)
		if delta <= 0 {
			return false
		}
		if a.lastWord != "" {
			a.dwell[a.lastWord] += delta
		}
	}

	a.lastWord = word
	a.lastAt = at
	a.started = true
	return true
}

// Reset clears all dwell time and the last observation.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dwell = make(DwellMap)
	a.lastWord = ""
	a.lastAt = time.Time{}
	a.started = false
}

// Snapshot returns a copy of the dwell map.
func (a *Accumulator) Snapshot() DwellMap {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(DwellMap, len(a.dwell))
	for w, d := range a.dwell {
		out[w] = d
	}
	return out
}

// Total returns the sum of all dwell time.
func (a *Accumulator) Total() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total time.Duration
	for _, d := range a.dwell {
		total += d
	}
	return total
}

// TopK returns the k words with the most dwell time, longest first.
func (a *Accumulator) TopK(k int) []WordDwell {
	return a.Snapshot().TopK(k)
}

// TopK returns the k words with the most dwell time, longest first.
// Equal dwell times are ordered by word.
func (m DwellMap) TopK(k int) []WordDwell {
	if k <= 0 {
		return []WordDwell{}
	}
	entries := make([]WordDwell, 0, len(m))
	for w, d := range m {
		entries = append(entries, WordDwell{Word: w, Dwell: d})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Dwell != entries[j].Dwell {
			return entries[i].Dwell > entries[j].Dwell
		}
		return entries[i].Word < entries[j].Word
	})
	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}

// Millis converts the map to milliseconds, the unit reported to the UI.
func (m DwellMap) Millis() map[string]int64 {
	out := make(map[string]int64, len(m))
	for w, d := range m {
		out[w] = d.Milliseconds()
	}
	return out
}
