// Package layout estimates where each word of a text segment sits on screen.
//
// Positions are expressed in normalized screen coordinates: (0,0) is the
// viewport center and each axis spans roughly [-0.5, 0.5]. Word widths are
// estimated by a pluggable Metrics function rather than measured, so the
// layout is reproducible across browsers and fonts.
package layout

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidSegment is returned when a segment cannot be laid out.
var ErrInvalidSegment = errors.New("layout: invalid segment")

// DefaultCharWidth is the width of one character as a fraction of font size.
const DefaultCharWidth = 0.7

// Rect is a pixel-space rectangle.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Segment is the text currently displayed plus the geometry it renders into.
type Segment struct {
	Text           string  `json:"text"`
	FontSize       float64 `json:"font_size"`   // px
	LineHeight     float64 `json:"line_height"` // px
	Container      Rect    `json:"container"`
	ViewportWidth  float64 `json:"viewport_width"`
	ViewportHeight float64 `json:"viewport_height"`
}

// Validate reports whether the segment geometry is usable.
func (s Segment) Validate() error {
	switch {
	case s.ViewportWidth <= 0 || s.ViewportHeight <= 0:
		return fmt.Errorf("%w: viewport %vx%v", ErrInvalidSegment, s.ViewportWidth, s.ViewportHeight)
	case s.FontSize <= 0:
		return fmt.Errorf("%w: font size %v", ErrInvalidSegment, s.FontSize)
	case s.LineHeight <= 0:
		return fmt.Errorf("%w: line height %v", ErrInvalidSegment, s.LineHeight)
	case s.Container.Width <= 0:
		return fmt.Errorf("%w: container width %v", ErrInvalidSegment, s.Container.Width)
	}
	return nil
}

// WordRegion is the estimated on-screen box of one word token.
type WordRegion struct {
	Word       string  `json:"word"`
	Index      int     `json:"index"` // token position within the segment
	CenterX    float64 `json:"center_x"`
	CenterY    float64 `json:"center_y"`
	HalfWidth  float64 `json:"half_width"`
	HalfHeight float64 `json:"half_height"`
}

// Metrics returns the estimated pixel width of text at the given font size.
type Metrics func(text string, fontSize float64) float64

// MonospaceMetrics estimates every character as charWidth*fontSize wide.
func MonospaceMetrics(charWidth float64) Metrics {
	return func(text string, fontSize float64) float64 {
		return float64(utf8.RuneCountInString(text)) * fontSize * charWidth
	}
}

// DefaultMetrics is MonospaceMetrics(DefaultCharWidth).
var DefaultMetrics = MonospaceMetrics(DefaultCharWidth)

// Compute lays out seg word by word and returns one region per token.
// Words flow left to right and wrap to a new line when they would overflow
// the container, except for the first word of a line which is always placed.
// A nil metrics uses DefaultMetrics.
func Compute(seg Segment, metrics Metrics) ([]WordRegion, error) {
	if err := seg.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = DefaultMetrics
	}

	words := strings.Fields(seg.Text)
	if len(words) == 0 {
		return []WordRegion{}, nil
	}

	space := metrics(" ", seg.FontSize)
	right := seg.Container.Left + seg.Container.Width
	cx, cy := seg.ViewportWidth/2, seg.ViewportHeight/2

	regions := make([]WordRegion, 0, len(words))
	x, y := seg.Container.Left, seg.Container.Top
	lineStart := true

	for i, word := range words {
		w := metrics(word, seg.FontSize)
		if !lineStart && x+w > right {
			x = seg.Container.Left
			y += seg.LineHeight
		}

		px := x + w/2
		py := y + seg.LineHeight/2
		regions = append(regions, WordRegion{
			Word:       word,
			Index:      i,
			CenterX:    (px - cx) / seg.ViewportWidth,
			CenterY:    (py - cy) / seg.ViewportHeight,
			HalfWidth:  (w / 2) / seg.ViewportWidth,
			HalfHeight: (seg.LineHeight / 2) / seg.ViewportHeight,
		})

		x += w + space
		lineStart = false
	}

	return regions, nil
}
