package display

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestFramebufferFill(t *testing.T) {
	fb := NewFramebuffer(8, 4, nil)
	fb.Fill(Red)

	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if got := fb.Image().RGBAAt(x, y); got != Red {
				t.Fatalf("pixel %d,%d: got %v, want red", x, y, got)
			}
		}
	}
}

func TestFramebufferDrawLine(t *testing.T) {
	fb := NewFramebuffer(10, 10, nil)
	fb.Fill(Black)
	fb.DrawLine(0, 5, 9, 5, White)

	for x := 1; x < 9; x++ {
		if got := fb.Image().RGBAAt(x, 5); got != White {
			t.Errorf("pixel %d,5: got %v, want white", x, got)
		}
	}
	if got := fb.Image().RGBAAt(0, 0); got != Black {
		t.Errorf("pixel 0,0 should stay black, got %v", got)
	}
}

func TestFramebufferDrawTextMarksPixels(t *testing.T) {
	fb := NewFramebuffer(135, 60, nil)
	fb.Fill(Black)
	fb.DrawText(67, 5, TextMedium, AlignCenter, White, "Clear")

	lit := 0
	img := fb.Image()
	for y := 0; y < 60; y++ {
		for x := 0; x < 135; x++ {
			if img.RGBAAt(x, y) == White {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("expected text to light some pixels")
	}
}

func TestFramebufferSetPixelOutOfRange(t *testing.T) {
	fb := NewFramebuffer(2, 2, nil)
	// Must not panic.
	fb.SetPixel(-1, 5, White)
	fb.SetPixel(2, 2, White)
}

type captureSink struct {
	bounds image.Rectangle
	frames int
	last   image.Image
}

func (c *captureSink) Bounds() image.Rectangle { return c.bounds }

func (c *captureSink) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	c.frames++
	c.last = src
	return nil
}

func TestFlushPushesToSink(t *testing.T) {
	sink := &captureSink{bounds: image.Rect(0, 0, 128, 64)}
	fb := NewFramebufferFor(sink)

	if w, h := fb.Size(); w != 128 || h != 64 {
		t.Fatalf("size: got %dx%d, want 128x64", w, h)
	}
	if err := fb.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := fb.Display(); err != nil {
		t.Fatalf("Display: %v", err)
	}
	if sink.frames != 2 {
		t.Errorf("expected 2 frames pushed, got %d", sink.frames)
	}
}

func TestPNGSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	sink := &PNGSink{Path: path, W: 16, H: 8}
	fb := NewFramebufferFor(sink)
	fb.Fill(SkyBlue)

	if err := fb.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("frame size: got %v", b)
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if uint8(r>>8) != SkyBlue.R || uint8(g>>8) != SkyBlue.G || uint8(b>>8) != SkyBlue.B {
		t.Errorf("pixel color mismatch: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestRecorderFrames(t *testing.T) {
	r := NewRecorder(135, 240)
	r.Fill(Black)
	r.DrawText(5, 5, TextSmall, AlignLeft, White, "TVOC:")
	r.Flush()
	r.Fill(Red)
	r.Flush()

	if len(r.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(r.Frames))
	}
	if r.Frames[0][0] != "fill black" {
		t.Errorf("frame 0 op 0: got %q", r.Frames[0][0])
	}
	if got := r.Last(); len(got) != 1 || got[0] != "fill red" {
		t.Errorf("last frame: got %v", got)
	}
}

type bitSink struct{ captureSink }

func (b *bitSink) ColorModel() color.Model { return image1bit.BitModel }

func TestMonochrome(t *testing.T) {
	rec := NewRecorder(128, 64)
	if Monochrome(rec) {
		t.Error("recorder without a model should be color")
	}
	rec.Model = image1bit.BitModel
	if !Monochrome(rec) {
		t.Error("recorder with a 1-bit model should be monochrome")
	}

	if Monochrome(NewFramebuffer(8, 8, nil)) {
		t.Error("framebuffer without a sink should be color")
	}
	if Monochrome(NewFramebufferFor(&captureSink{bounds: image.Rect(0, 0, 8, 8)})) {
		t.Error("sink without a color model should be color")
	}
	if !Monochrome(NewFramebufferFor(&bitSink{captureSink{bounds: image.Rect(0, 0, 128, 64)}})) {
		t.Error("1-bit sink should be monochrome")
	}
}

func TestDrawTextAlignRight(t *testing.T) {
	fb := NewFramebuffer(64, 20, nil)
	fb.Fill(Black)
	fb.DrawText(60, 2, TextTiny, AlignRight, White, "415")

	img := fb.Image()
	minX, maxX := 64, -1
	for y := 0; y < 20; y++ {
		for x := 0; x < 64; x++ {
			if img.RGBAAt(x, y) == White {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
			}
		}
	}
	if maxX < 0 {
		t.Fatal("expected text to light some pixels")
	}
	if maxX >= 60 || minX < 30 {
		t.Errorf("text spans x=%d..%d, want it ending just left of 60", minX, maxX)
	}
}
