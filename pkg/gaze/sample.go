// Package gaze turns a stream of gaze samples into per-word attention.
//
// A Resolver maps one sample onto the word it most plausibly falls on and an
// Accumulator integrates wall-clock time against the resolved word.
package gaze

import "time"

// Sample is one gaze reading from the tracking service.
// X and Y are normalized screen coordinates with (0,0) at the screen center.
type Sample struct {
	X          float64
	Y          float64
	Frame      []byte    // JPEG camera frame, may be nil
	ReceivedAt time.Time // when the poll response arrived
}

// HasFrame reports whether the sample carries a camera frame.
func (s Sample) HasFrame() bool {
	return len(s.Frame) > 0
}
