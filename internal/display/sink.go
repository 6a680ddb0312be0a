package display

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

// OpenSSD1306 initializes an SSD1306 panel on bus with default options.
func OpenSSD1306(bus i2c.Bus) (*ssd1306.Dev, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("open ssd1306: %w", err)
	}
	return dev, nil
}

// PNGSink writes every frame to a PNG file, replacing it atomically.
// Useful on hosts without a panel.
type PNGSink struct {
	Path string
	W, H int
}

// Bounds returns the configured frame size.
func (s *PNGSink) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.W, s.H)
}

// Draw encodes src to Path.
func (s *PNGSink) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	img := image.NewRGBA(r)
	draw.Draw(img, r, src, sp, draw.Src)

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close frame file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace frame file: %w", err)
	}
	return nil
}
