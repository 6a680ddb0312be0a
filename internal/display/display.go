// Package display provides the drawing surface the renderer paints on.
//
// Framebuffer keeps a full frame in memory, draws text with tinyfont and
// lines with tinydraw, and pushes the finished frame to a Sink (a physical
// panel or a PNG file) on Flush.
package display

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
)

// Palette
var (
	Black   = color.RGBA{0x00, 0x00, 0x00, 0xFF}
	White   = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	Red     = color.RGBA{0xFF, 0x00, 0x00, 0xFF}
	SkyBlue = color.RGBA{0x87, 0xCE, 0xEB, 0xFF}
)

// TextSize selects one of the three text scales.
type TextSize int

const (
	TextSmall TextSize = iota
	TextMedium
	TextLarge
	// TextTiny is for panels too short for the freemono faces.
	TextTiny
)

// Align is the horizontal anchor of a text block relative to x.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Canvas is the set of primitives the renderer needs. Coordinates are in
// pixels from the top-left corner; text y is the top of the first line.
type Canvas interface {
	Size() (w, h int16)
	Fill(c color.RGBA)
	DrawText(x, y int16, size TextSize, align Align, c color.RGBA, text string)
	DrawLine(x0, y0, x1, y1 int16, c color.RGBA)
	// Flush pushes the frame to the physical output.
	Flush() error
}

// Sink receives finished frames. periph display.Drawer implementations
// (e.g. ssd1306.Dev) satisfy it.
type Sink interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

type face struct {
	font       tinyfont.Fonter
	ascent     int16
	lineHeight int16
}

var faces = map[TextSize]face{
	TextSmall:  {font: &freemono.Regular9pt7b, ascent: 13, lineHeight: 18},
	TextMedium: {font: &freemono.Regular12pt7b, ascent: 17, lineHeight: 24},
	TextLarge:  {font: &freemono.Regular24pt7b, ascent: 33, lineHeight: 47},
	TextTiny:   {font: &tinyfont.Org01, ascent: 5, lineHeight: 7},
}

// LineHeight returns the vertical advance of one line at size.
func LineHeight(size TextSize) int16 {
	return faces[size].lineHeight
}

// Framebuffer is an in-memory RGBA frame. It implements Canvas and the
// tinygo drivers.Displayer contract.
type Framebuffer struct {
	img  *image.RGBA
	sink Sink
}

var _ drivers.Displayer = (*Framebuffer)(nil)

// NewFramebuffer creates a w×h frame flushed to sink. A nil sink discards
// frames.
func NewFramebuffer(w, h int, sink Sink) *Framebuffer {
	return &Framebuffer{
		img:  image.NewRGBA(image.Rect(0, 0, w, h)),
		sink: sink,
	}
}

// NewFramebufferFor sizes the frame to match sink.
func NewFramebufferFor(sink Sink) *Framebuffer {
	b := sink.Bounds()
	return NewFramebuffer(b.Dx(), b.Dy(), sink)
}

// Size returns the frame dimensions.
func (f *Framebuffer) Size() (int16, int16) {
	b := f.img.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

// SetPixel sets one pixel; out-of-range coordinates are ignored.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	f.img.SetRGBA(int(x), int(y), c)
}

// Display implements drivers.Displayer by flushing to the sink.
func (f *Framebuffer) Display() error {
	return f.Flush()
}

// Flush pushes the current frame to the sink.
func (f *Framebuffer) Flush() error {
	if f.sink == nil {
		return nil
	}
	return f.sink.Draw(f.sink.Bounds(), f.img, image.Point{})
}

// Fill paints the whole frame with c.
func (f *Framebuffer) Fill(c color.RGBA) {
	draw.Draw(f.img, f.img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// DrawText draws text, which may span several lines separated by '\n'.
func (f *Framebuffer) DrawText(x, y int16, size TextSize, align Align, c color.RGBA, text string) {
	fc := faces[size]
	baseline := y + fc.ascent
	for _, line := range strings.Split(text, "\n") {
		lx := x
		switch align {
		case AlignCenter:
			_, w := tinyfont.LineWidth(fc.font, line)
			lx = x - int16(w)/2
		case AlignRight:
			_, w := tinyfont.LineWidth(fc.font, line)
			lx = x - int16(w)
		}
		tinyfont.WriteLine(f, fc.font, lx, baseline, line, c)
		baseline += fc.lineHeight
	}
}

// DrawLine draws a one pixel line.
func (f *Framebuffer) DrawLine(x0, y0, x1, y1 int16, c color.RGBA) {
	tinydraw.Line(f, x0, y0, x1, y1, c)
}

// ColorModel returns the sink's color model, or RGBA when the sink does not
// report one.
func (f *Framebuffer) ColorModel() color.Model {
	if m, ok := f.sink.(interface{ ColorModel() color.Model }); ok {
		return m.ColorModel()
	}
	return color.RGBAModel
}

// Monochrome reports whether c collapses the panel background onto the text
// color, as 1-bit panels such as the SSD1306 do.
func Monochrome(c Canvas) bool {
	m, ok := c.(interface{ ColorModel() color.Model })
	if !ok {
		return false
	}
	model := m.ColorModel()
	return model.Convert(SkyBlue) == model.Convert(White)
}

// Image returns the frame. The caller must not modify it.
func (f *Framebuffer) Image() *image.RGBA {
	return f.img
}
