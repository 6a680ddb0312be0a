package mqtt

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Readings contains all air quality samples that were published.
	Readings []ReadingEvent

	// Weather contains all weather readings that were published.
	Weather []WeatherEvent

	// Alerts contains all alert events that were published.
	Alerts []AlertEvent

	// Payloads contains the JSON payloads of readings, weather and alerts
	// in publish order.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishReading,
	// PublishWeather and PublishAlert.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishReading records the sample.
func (f *FakePublisher) PublishReading(event ReadingEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Readings = append(f.Readings, event)
	return f.record(FormatReadingPayload(event))
}

// PublishWeather records the weather reading.
func (f *FakePublisher) PublishWeather(event WeatherEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Weather = append(f.Weather, event)
	return f.record(FormatWeatherPayload(event))
}

// PublishAlert records the alert event.
func (f *FakePublisher) PublishAlert(event AlertEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Alerts = append(f.Alerts, event)
	return f.record(FormatAlertPayload(event))
}

func (f *FakePublisher) record(payload []byte, err error) error {
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
