package gpio

import "errors"

// FakeReader is a test double that returns scripted button states.
type FakeReader struct {
	// Samples contains scripted polls to return.
	// Each call to Poll() consumes the next sample.
	Samples []Buttons

	// index tracks current position in Samples
	index int

	// Polls counts calls to Poll.
	Polls int

	// Closed tracks if Close was called
	Closed bool

	// PollError, if set, will be returned by Poll()
	PollError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Buttons) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Poll returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Poll() (Buttons, error) {
	f.Polls++
	if f.PollError != nil {
		return Buttons{}, f.PollError
	}

	if len(f.Samples) == 0 {
		return Buttons{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Polls = 0
	f.Closed = false
}

// FakeBuzzer records every Set call.
type FakeBuzzer struct {
	// History holds the value of every Set call in order.
	History []bool

	// On is the current tone state.
	On bool

	Closed bool

	// SetError, if set, will be returned by Set.
	SetError error
}

// NewFakeBuzzer creates a silent FakeBuzzer.
func NewFakeBuzzer() *FakeBuzzer {
	return &FakeBuzzer{}
}

// Set records the requested state.
func (f *FakeBuzzer) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.History = append(f.History, on)
	f.On = on
	return nil
}

// Close silences the fake buzzer.
func (f *FakeBuzzer) Close() error {
	f.On = false
	f.Closed = true
	return nil
}
