package gaze

import (
	"math"

	"github.com/teslashibe/go-readbuddy/pkg/layout"
)

// DefaultTolerance widens every word box by this much in normalized units.
// Gaze estimates are noisy and word boxes are estimated, so an exact hit
// test misses most fixations.
const DefaultTolerance = 0.05

// Resolver maps gaze coordinates to words.
type Resolver struct {
	Tolerance float64
}

// NewResolver creates a resolver with the given tolerance.
func NewResolver(tolerance float64) *Resolver {
	return &Resolver{Tolerance: tolerance}
}

// Resolve returns the word whose (tolerance-widened) box contains (x, y)
// and whose center is closest to it. Exact distance ties go to the region
// that appears first in regions. ok is false when no box contains the point.
func (r *Resolver) Resolve(x, y float64, regions []layout.WordRegion) (word string, ok bool) {
	best := -1
	bestDist := math.Inf(1)

	for i := range regions {
		reg := &regions[i]
		dx := x - reg.CenterX
		dy := y - reg.CenterY
		if math.Abs(dx) > reg.HalfWidth+r.Tolerance || math.Abs(dy) > reg.HalfHeight+r.Tolerance {
			continue
		}
		if d := math.Hypot(dx, dy); d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return "", false
	}
	return regions[best].Word, true
}

// ResolveSample is Resolve for a Sample.
func (r *Resolver) ResolveSample(s Sample, regions []layout.WordRegion) (string, bool) {
	return r.Resolve(s.X, s.Y, regions)
}
