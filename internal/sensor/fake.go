package sensor

// FakeDriver is a test double returning scripted measurements.
type FakeDriver struct {
	// Basic and Raw are consumed one per call; the last entry repeats.
	Basic []FakeMeasure
	Raw   []FakeMeasure

	basicIndex int
	rawIndex   int

	// Calls counts Measure invocations.
	Calls int
	// RawCalls counts MeasureRaw invocations.
	RawCalls int
}

// FakeMeasure is one scripted driver result. A and B are (tvoc, eco2) for
// Measure and (h2, ethanol) for MeasureRaw.
type FakeMeasure struct {
	A, B uint16
	Err  error
}

// NewFakeDriver returns a driver that always reports eco2 with zero TVOC
// and fixed raw signals.
func NewFakeDriver(eco2 uint16) *FakeDriver {
	return &FakeDriver{
		Basic: []FakeMeasure{{A: 0, B: eco2}},
		Raw:   []FakeMeasure{{A: 13000, B: 18000}},
	}
}

// Measure returns the next scripted basic measurement.
func (f *FakeDriver) Measure() (uint16, uint16, error) {
	f.Calls++
	m := next(f.Basic, &f.basicIndex)
	return m.A, m.B, m.Err
}

// MeasureRaw returns the next scripted raw measurement.
func (f *FakeDriver) MeasureRaw() (uint16, uint16, error) {
	f.RawCalls++
	m := next(f.Raw, &f.rawIndex)
	return m.A, m.B, m.Err
}

func next(script []FakeMeasure, i *int) FakeMeasure {
	if len(script) == 0 {
		return FakeMeasure{}
	}
	m := script[*i]
	if *i < len(script)-1 {
		*i++
	}
	return m
}
