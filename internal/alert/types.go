// Package alert contains the eCO2 threshold alert state machine.
// This package has NO external dependencies (no GPIO, display, or time.Sleep).
// Time is always injectable via time.Time parameters.
package alert

import "time"

// Phase is the alert lifecycle position.
type Phase string

const (
	// PhaseIdle: no alert. The control loop owns the display.
	PhaseIdle Phase = "IDLE"
	// PhaseAlerting: red/black blink with tone until the dismiss button is seen low.
	PhaseAlerting Phase = "ALERTING"
	// PhaseHolding: detail panel shown, input ignored until the hold elapses.
	PhaseHolding Phase = "HOLDING"
	// PhaseAwaitRelease: waiting for the dismiss button to go low then high.
	PhaseAwaitRelease Phase = "AWAIT_RELEASE"
)

// Action is what the caller must do to the buzzer and display after a step.
type Action string

const (
	// ActionNone: leave outputs as they are.
	ActionNone Action = ""
	// ActionAlarmOn: full red screen, tone on.
	ActionAlarmOn Action = "ALARM_ON"
	// ActionAlarmOff: black screen, tone off.
	ActionAlarmOff Action = "ALARM_OFF"
	// ActionShowDetail: tone off, show the measured value and advice.
	ActionShowDetail Action = "SHOW_DETAIL"
	// ActionDismiss: clear the screen; the alert is over.
	ActionDismiss Action = "DISMISS"
)

// Defaults
const (
	DefaultBlinkInterval = 250 * time.Millisecond
	DefaultHold          = time.Second
)

// Counts tracks alert lifecycle totals since startup.
type Counts struct {
	Triggered int
	Dismissed int
}
