// Package gpio provides button and buzzer access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Buttons is one instantaneous poll of every input.
// A field is true while its active-low pin reads low (button pressed).
type Buttons struct {
	AQ         bool // show air quality
	Weather    bool // show weather
	Off        bool // blank display / dismiss alert
	BuzzerTest bool // manual alert trigger (demo only)
}

// Any reports whether at least one button is pressed.
func (b Buttons) Any() bool {
	return b.AQ || b.Weather || b.Off || b.BuzzerTest
}

// Reader reads button states.
type Reader interface {
	// Poll returns the instantaneous logical state of every button.
	// No debouncing is applied; callers needing a sustained press must
	// observe it across repeated polls.
	Poll() (Buttons, error)

	// Close releases GPIO resources.
	Close() error
}

// Buzzer drives a single-tone buzzer.
type Buzzer interface {
	// Set turns the tone on or off.
	Set(on bool) error

	// Close silences the buzzer and releases the line.
	Close() error
}

// Pins holds BCM line offsets for the inputs. A negative offset disables
// that button; it then always reads as released.
type Pins struct {
	AQ         int
	Weather    int
	Off        int
	BuzzerTest int
}

// Pin defaults (BCM numbering)
const (
	DefaultPinAQ         = 5
	DefaultPinWeather    = 6
	DefaultPinOff        = 13
	DefaultPinBuzzerTest = 19
	DefaultPinBuzzer     = 18
)

// DefaultPins returns the wiring used by the reference board.
func DefaultPins() Pins {
	return Pins{
		AQ:         DefaultPinAQ,
		Weather:    DefaultPinWeather,
		Off:        DefaultPinOff,
		BuzzerTest: DefaultPinBuzzerTest,
	}
}
