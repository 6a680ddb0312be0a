// Package status provides a thread-safe status tracker for the airmonitor daemon.
// It is written by the control loop and read by HTTP handlers and MQTT
// lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/airmonitor/internal/alert"
	"github.com/sweeney/airmonitor/internal/network"
	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/weather"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	AlertPollMs int64
	HeartbeatMs int64
	TelemetryMs int64
	Broker      string
	HTTPAddr    string
	Display     string
	CityID      uint32
	Lat         float64
	Lon         float64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	AirQuality   sensor.Reading
	AirQualityAt time.Time // zero until the first sample
	Weather      weather.Reading
	WeatherAt    time.Time // zero until the first fetch

	AlertPhase alert.Phase
	AlertECO2  uint16
	Alerts     alert.Counts

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *network.Info
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			AlertPhase: alert.PhaseIdle,
			StartTime:  startTime,
			Config:     cfg,
		},
	}
}

// SetAirQuality records the latest sensor sample.
func (t *Tracker) SetAirQuality(r sensor.Reading, at time.Time) {
	t.mu.Lock()
	t.snap.AirQuality = r
	t.snap.AirQualityAt = at
	t.mu.Unlock()
}

// SetWeather records the latest weather reading.
func (t *Tracker) SetWeather(r weather.Reading, at time.Time) {
	t.mu.Lock()
	t.snap.Weather = r
	t.snap.WeatherAt = at
	t.mu.Unlock()
}

// SetAlert records the alert machine's phase, the eCO2 that raised the
// current alert and lifetime counts.
func (t *Tracker) SetAlert(phase alert.Phase, eco2 uint16, counts alert.Counts) {
	t.mu.Lock()
	t.snap.AlertPhase = phase
	t.snap.AlertECO2 = eco2
	t.snap.Alerts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *network.Info) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
