package gazesim

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"time"
)

// Source produces a gaze position for the time elapsed since tracking began.
type Source func(elapsed time.Duration) (x, y float64)

// Fixed always looks at (x, y).
func Fixed(x, y float64) Source {
	return func(time.Duration) (float64, float64) { return x, y }
}

// ReadingSweep moves left to right across lines of text, one line per
// lineDur, starting at top and moving down by lineStep. It wraps back to the
// first line after the last one. x spans [-halfWidth, halfWidth].
func ReadingSweep(lines int, lineDur time.Duration, halfWidth, top, lineStep float64) Source {
	if lines < 1 {
		lines = 1
	}
	return func(elapsed time.Duration) (float64, float64) {
		if lineDur <= 0 {
			return 0, top
		}
		n := int64(elapsed / lineDur)
		progress := float64(elapsed%lineDur) / float64(lineDur)
		line := int(n % int64(lines))
		x := -halfWidth + 2*halfWidth*progress
		y := top + float64(line)*lineStep
		return x, y
	}
}

// Jitter adds deterministic pseudo-noise of the given amplitude to src,
// approximating fixation tremor.
func Jitter(src Source, amplitude float64) Source {
	return func(elapsed time.Duration) (float64, float64) {
		x, y := src(elapsed)
		t := elapsed.Seconds()
		return x + amplitude*math.Sin(t*37.0), y + amplitude*math.Cos(t*23.0)
	}
}

// frameWidth and frameHeight match the service's cropped camera frames.
const (
	frameWidth  = 160
	frameHeight = 120
)

// renderFrame draws a gray frame with a marker at the normalized gaze
// position and encodes it as JPEG.
func renderFrame(x, y float64) ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, frameWidth, frameHeight))
	for i := range img.Pix {
		img.Pix[i] = 40
	}

	cx := int((x + 0.5) * frameWidth)
	cy := int((y + 0.5) * frameHeight)
	for dy := -3; dy <= 3; dy++ {
		for dx := -3; dx <= 3; dx++ {
			if dx*dx+dy*dy <= 9 {
				img.SetGray(cx+dx, cy+dy, color.Gray{Y: 230})
			}
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 60}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
