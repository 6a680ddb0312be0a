package display

import (
	"fmt"
	"image/color"
)

// Recorder is a Canvas test double that records every primitive as a
// string, grouped into frames at each Flush.
type Recorder struct {
	W, H int16

	// Ops holds the primitives drawn since the last Flush.
	Ops []string

	// Frames holds the Ops of every flushed frame in order.
	Frames [][]string

	// FlushError, if set, will be returned by Flush.
	FlushError error

	// Model, if set, is reported by ColorModel. It lets tests stand in
	// for a 1-bit panel.
	Model color.Model
}

// NewRecorder creates a Recorder of the given size.
func NewRecorder(w, h int16) *Recorder {
	return &Recorder{W: w, H: h}
}

// Size returns the configured size.
func (r *Recorder) Size() (int16, int16) { return r.W, r.H }

// ColorModel returns Model, or RGBA when unset.
func (r *Recorder) ColorModel() color.Model {
	if r.Model != nil {
		return r.Model
	}
	return color.RGBAModel
}

// Fill records a fill.
func (r *Recorder) Fill(c color.RGBA) {
	r.Ops = append(r.Ops, "fill "+ColorName(c))
}

// DrawText records a text draw.
func (r *Recorder) DrawText(x, y int16, size TextSize, align Align, c color.RGBA, text string) {
	r.Ops = append(r.Ops, fmt.Sprintf("text %d,%d s%d a%d %s %q", x, y, size, align, ColorName(c), text))
}

// DrawLine records a line draw.
func (r *Recorder) DrawLine(x0, y0, x1, y1 int16, c color.RGBA) {
	r.Ops = append(r.Ops, fmt.Sprintf("line %d,%d-%d,%d %s", x0, y0, x1, y1, ColorName(c)))
}

// Flush closes the current frame.
func (r *Recorder) Flush() error {
	if r.FlushError != nil {
		return r.FlushError
	}
	r.Frames = append(r.Frames, r.Ops)
	r.Ops = nil
	return nil
}

// Last returns the most recently flushed frame, or nil.
func (r *Recorder) Last() []string {
	if len(r.Frames) == 0 {
		return nil
	}
	return r.Frames[len(r.Frames)-1]
}

// Reset clears recorded frames.
func (r *Recorder) Reset() {
	r.Ops = nil
	r.Frames = nil
	r.FlushError = nil
}

// ColorName names palette colors and formats others as hex.
func ColorName(c color.RGBA) string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	case Red:
		return "red"
	case SkyBlue:
		return "skyblue"
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
