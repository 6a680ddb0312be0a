// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/weather"
)

// Topics
const (
	TopicReadings = "home/airmonitor/readings"
	TopicWeather  = "home/airmonitor/weather"
	TopicAlerts   = "home/airmonitor/alerts"
	TopicSystem   = "home/airmonitor/system"
)

// Alert event names.
const (
	AlertTriggered = "TRIGGERED"
	AlertDismissed = "DISMISSED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishReading sends an air quality sample.
	// Returns error if publishing fails (should not crash the process).
	PublishReading(event ReadingEvent) error

	// PublishWeather sends a weather reading.
	PublishWeather(event WeatherEvent) error

	// PublishAlert sends an alert lifecycle change.
	PublishAlert(event AlertEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// ReadingEvent is one air quality sample.
type ReadingEvent struct {
	Timestamp time.Time
	Reading   sensor.Reading
	Source    string // "telemetry" or "button"
}

// WeatherEvent is one parsed weather fetch.
type WeatherEvent struct {
	Timestamp time.Time
	Reading   weather.Reading
}

// AlertEvent is an alert starting or being dismissed.
type AlertEvent struct {
	Timestamp time.Time
	Event     string // AlertTriggered or AlertDismissed
	ECO2      uint16
	Cause     string // "threshold" or "test"
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// ReadingPayload is the MQTT message for an air quality sample.
type ReadingPayload struct {
	AirQuality AirQualityPayload `json:"air_quality"`
}

// AirQualityPayload contains the sample. Numeric fields are omitted when
// the sample failed.
type AirQualityPayload struct {
	Timestamp  string  `json:"timestamp"`
	Source     string  `json:"source,omitempty"`
	Valid      bool    `json:"valid"`
	ECO2       *uint16 `json:"eco2_ppm,omitempty"`
	TVOC       *uint16 `json:"tvoc_ppb,omitempty"`
	RawH2      *uint16 `json:"raw_h2,omitempty"`
	RawEthanol *uint16 `json:"raw_ethanol,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// FormatReadingPayload creates the JSON payload for a sample.
func FormatReadingPayload(event ReadingEvent) ([]byte, error) {
	r := event.Reading
	p := AirQualityPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Source:    event.Source,
		Valid:     r.Valid,
	}
	if r.Err != nil {
		p.Error = r.Err.Error()
	}
	if r.Valid {
		eco2, tvoc := r.ECO2, r.TVOC
		p.ECO2, p.TVOC = &eco2, &tvoc
		if r.RawH2 != 0 || r.RawEthanol != 0 {
			h2, eth := r.RawH2, r.RawEthanol
			p.RawH2, p.RawEthanol = &h2, &eth
		}
	}
	return json.Marshal(ReadingPayload{AirQuality: p})
}

// WeatherPayload is the MQTT message for a weather reading.
type WeatherPayload struct {
	Weather WeatherPayloadInner `json:"weather"`
}

// WeatherPayloadInner contains the weather details.
type WeatherPayloadInner struct {
	Timestamp   string   `json:"timestamp"`
	Valid       bool     `json:"valid"`
	Description string   `json:"description,omitempty"`
	TempF       int      `json:"temp_f"`
	PressureHPa int      `json:"pressure_hpa"`
	HumidityPct int      `json:"humidity_pct"`
	WindMph     int      `json:"wind_mph"`
	Missing     []string `json:"missing,omitempty"`
}

// FormatWeatherPayload creates the JSON payload for a weather reading.
func FormatWeatherPayload(event WeatherEvent) ([]byte, error) {
	r := event.Reading
	return json.Marshal(WeatherPayload{
		Weather: WeatherPayloadInner{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Valid:       r.Valid,
			Description: r.Description,
			TempF:       r.TempF,
			PressureHPa: r.PressureHPa,
			HumidityPct: r.HumidityPct,
			WindMph:     r.WindMph,
			Missing:     r.Missing,
		},
	})
}

// AlertPayload is the MQTT message for an alert event.
type AlertPayload struct {
	Alert AlertPayloadInner `json:"alert"`
}

// AlertPayloadInner contains the alert details.
type AlertPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	ECO2      uint16 `json:"eco2_ppm"`
	Cause     string `json:"cause,omitempty"`
}

// FormatAlertPayload creates the JSON payload for an alert event.
func FormatAlertPayload(event AlertEvent) ([]byte, error) {
	return json.Marshal(AlertPayload{
		Alert: AlertPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			ECO2:      event.ECO2,
			Cause:     event.Cause,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher drops everything. It stands in when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishReading(ReadingEvent) error { return nil }
func (NopPublisher) PublishWeather(WeatherEvent) error { return nil }
func (NopPublisher) PublishAlert(AlertEvent) error     { return nil }
func (NopPublisher) PublishSystem(SystemEvent) error   { return nil }
func (NopPublisher) Close() error                      { return nil }
func (NopPublisher) IsConnected() bool                 { return false }
