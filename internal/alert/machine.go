package alert

import "time"

// Machine is the alert session. The zero value is not usable; use NewMachine.
//
// Dismissal is two-phase: the first low read of the dismiss button silences
// the alarm and starts a fixed hold; after the hold the button must be seen
// low and then released. The press that silences the alarm therefore cannot
// also be read as a fresh command.
type Machine struct {
	blinkInterval time.Duration
	hold          time.Duration

	phase     Phase
	eco2      uint16
	blinkOn   bool
	lastFlip  time.Time
	holdUntil time.Time
	seenLow   bool
	counts    Counts
}

// NewMachine creates an idle machine.
func NewMachine(blinkInterval, hold time.Duration) *Machine {
	return &Machine{
		blinkInterval: blinkInterval,
		hold:          hold,
		phase:         PhaseIdle,
	}
}

// Trigger starts an alert for eco2. It returns ActionAlarmOn when a new
// session starts and ActionNone when one is already active.
func (m *Machine) Trigger(eco2 uint16, now time.Time) Action {
	if m.phase != PhaseIdle {
		return ActionNone
	}
	m.phase = PhaseAlerting
	m.eco2 = eco2
	m.blinkOn = true
	m.lastFlip = now
	m.seenLow = false
	m.counts.Triggered++
	return ActionAlarmOn
}

// Tick advances the machine. dismissLow is the instantaneous level of the
// dismiss button (true = pressed).
func (m *Machine) Tick(now time.Time, dismissLow bool) Action {
	switch m.phase {
	case PhaseAlerting:
		if dismissLow {
			m.phase = PhaseHolding
			m.holdUntil = now.Add(m.hold)
			m.blinkOn = false
			return ActionShowDetail
		}
		if now.Sub(m.lastFlip) < m.blinkInterval {
			return ActionNone
		}
		m.lastFlip = now
		m.blinkOn = !m.blinkOn
		if m.blinkOn {
			return ActionAlarmOn
		}
		return ActionAlarmOff

	case PhaseHolding:
		if now.Before(m.holdUntil) {
			return ActionNone
		}
		m.phase = PhaseAwaitRelease
		m.seenLow = false
		return m.awaitRelease(dismissLow)

	case PhaseAwaitRelease:
		return m.awaitRelease(dismissLow)
	}

	return ActionNone
}

func (m *Machine) awaitRelease(dismissLow bool) Action {
	if dismissLow {
		m.seenLow = true
		return ActionNone
	}
	if !m.seenLow {
		return ActionNone
	}
	m.phase = PhaseIdle
	m.seenLow = false
	m.counts.Dismissed++
	return ActionDismiss
}

// Active reports whether an alert session is in progress.
func (m *Machine) Active() bool {
	return m.phase != PhaseIdle
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// ECO2 returns the value that triggered the current or last session.
func (m *Machine) ECO2() uint16 {
	return m.eco2
}

// BlinkOn reports whether the alarm is in its red/tone phase.
func (m *Machine) BlinkOn() bool {
	return m.phase == PhaseAlerting && m.blinkOn
}

// Counts returns lifecycle totals.
func (m *Machine) Counts() Counts {
	return m.counts
}
