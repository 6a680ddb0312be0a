//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip       *gpiocdev.Chip
	aq         *gpiocdev.Line
	weather    *gpiocdev.Line
	off        *gpiocdev.Line
	buzzerTest *gpiocdev.Line
}

// NewRealReader requests the button lines on the named chip (e.g. "gpiochip0").
func NewRealReader(chipName string, pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip}

	// Buttons short to ground, so lines need the internal pull-up.
	request := func(name string, pin int) (*gpiocdev.Line, error) {
		if pin < 0 {
			return nil, nil
		}
		l, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			return nil, fmt.Errorf("request %s pin %d: %w", name, pin, err)
		}
		return l, nil
	}

	if r.aq, err = request("AQ", pins.AQ); err != nil {
		r.Close()
		return nil, err
	}
	if r.weather, err = request("weather", pins.Weather); err != nil {
		r.Close()
		return nil, err
	}
	if r.off, err = request("off", pins.Off); err != nil {
		r.Close()
		return nil, err
	}
	if r.buzzerTest, err = request("buzzer-test", pins.BuzzerTest); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// Poll returns the logical state of every button.
// Inverts raw GPIO: raw low (0) = pressed.
func (r *RealReader) Poll() (Buttons, error) {
	var b Buttons
	var err error
	if b.AQ, err = pressed(r.aq); err != nil {
		return Buttons{}, fmt.Errorf("read AQ pin: %w", err)
	}
	if b.Weather, err = pressed(r.weather); err != nil {
		return Buttons{}, fmt.Errorf("read weather pin: %w", err)
	}
	if b.Off, err = pressed(r.off); err != nil {
		return Buttons{}, fmt.Errorf("read off pin: %w", err)
	}
	if b.BuzzerTest, err = pressed(r.buzzerTest); err != nil {
		return Buttons{}, fmt.Errorf("read buzzer-test pin: %w", err)
	}
	return b, nil
}

func pressed(l *gpiocdev.Line) (bool, error) {
	if l == nil {
		return false, nil
	}
	v, err := l.Value()
	if err != nil {
		return false, err
	}
	return v == 0, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error
	for _, l := range []*gpiocdev.Line{r.aq, r.weather, r.off, r.buzzerTest} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealBuzzer drives an active buzzer on a GPIO output line.
type RealBuzzer struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealBuzzer requests pin as an output, initially silent.
func NewRealBuzzer(chipName string, pin int) (*RealBuzzer, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}
	return &RealBuzzer{chip: chip, line: line}, nil
}

// Set drives the buzzer line high for on.
func (b *RealBuzzer) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := b.line.SetValue(v); err != nil {
		return fmt.Errorf("set buzzer: %w", err)
	}
	return nil
}

// Close silences the buzzer and returns the line to input with pull-down,
// matching Pi boot defaults.
func (b *RealBuzzer) Close() error {
	var errs []error
	if err := b.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("silence buzzer: %w", err))
	}
	if err := b.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure buzzer pin: %w", err))
	}
	if err := b.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
	}
	if err := b.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
