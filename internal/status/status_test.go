package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/airmonitor/internal/alert"
	"github.com/sweeney/airmonitor/internal/errcode"
	"github.com/sweeney/airmonitor/internal/network"
	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/weather"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewTracker(t *testing.T) {
	cfg := Config{PollMs: 100, AlertPollMs: 10, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(t0, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(t0) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, t0)
	}
	if snap.Config.PollMs != 100 {
		t.Errorf("Config.PollMs: got %d, want 100", snap.Config.PollMs)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.AlertPhase != alert.PhaseIdle {
		t.Errorf("AlertPhase: got %q, want IDLE", snap.AlertPhase)
	}
	if !snap.AirQualityAt.IsZero() || !snap.WeatherAt.IsZero() {
		t.Error("expected no readings initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestSetReadings(t *testing.T) {
	tr := NewTracker(t0, Config{})

	tr.SetAirQuality(sensor.Reading{TVOC: 20, ECO2: 450, Valid: true}, t0.Add(time.Second))
	tr.SetWeather(weather.Reading{Description: "Clear", TempF: 68, Valid: true}, t0.Add(2*time.Second))

	snap := tr.Snapshot()
	if snap.AirQuality.ECO2 != 450 || !snap.AirQuality.Valid {
		t.Errorf("AirQuality: got %+v", snap.AirQuality)
	}
	if !snap.AirQualityAt.Equal(t0.Add(time.Second)) {
		t.Errorf("AirQualityAt: got %v", snap.AirQualityAt)
	}
	if snap.Weather.TempF != 68 {
		t.Errorf("Weather.TempF: got %d", snap.Weather.TempF)
	}
}

func TestSetAlert(t *testing.T) {
	tr := NewTracker(t0, Config{})
	tr.SetAlert(alert.PhaseAlerting, 812, alert.Counts{Triggered: 3, Dismissed: 2})

	snap := tr.Snapshot()
	if snap.AlertPhase != alert.PhaseAlerting {
		t.Errorf("AlertPhase: got %q", snap.AlertPhase)
	}
	if snap.AlertECO2 != 812 {
		t.Errorf("AlertECO2: got %d", snap.AlertECO2)
	}
	if snap.Alerts.Triggered != 3 || snap.Alerts.Dismissed != 2 {
		t.Errorf("Alerts: got %+v", snap.Alerts)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&network.Info{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{
		StartTime: t0,
		Now:       t0.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(t0, Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetAlert(alert.PhaseAlerting, 700, alert.Counts{Triggered: 1})

	snap1 := tr.Snapshot()

	tr.SetAlert(alert.PhaseIdle, 0, alert.Counts{Triggered: 1, Dismissed: 1})

	if snap1.AlertPhase != alert.PhaseAlerting {
		t.Error("snapshot should be a copy; AlertPhase was modified")
	}
	if snap1.Alerts.Dismissed != 0 {
		t.Error("snapshot should be a copy; Alerts was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		AirQuality:    sensor.Reading{TVOC: 35, ECO2: 640, RawH2: 13000, RawEthanol: 18000, Valid: true},
		AirQualityAt:  t0.Add(14 * time.Minute),
		AlertPhase:    alert.PhaseIdle,
		Alerts:        alert.Counts{Triggered: 5, Dismissed: 5},
		StartTime:     t0,
		Now:           t0.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{PollMs: 100, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":80", CityID: 5359777},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	aq := parsed.Status.AirQuality
	if aq == nil || !aq.Valid {
		t.Fatalf("AirQuality: got %+v", aq)
	}
	if aq.ECO2 == nil || *aq.ECO2 != 640 {
		t.Errorf("AirQuality.ECO2: got %v, want 640", aq.ECO2)
	}
	if aq.RawEthanol == nil || *aq.RawEthanol != 18000 {
		t.Errorf("AirQuality.RawEthanol: got %v, want 18000", aq.RawEthanol)
	}
	if parsed.Status.Weather != nil {
		t.Error("expected Weather omitted before first fetch")
	}
	if parsed.Status.Alert.Phase != "IDLE" {
		t.Errorf("Alert.Phase: got %q, want IDLE", parsed.Status.Alert.Phase)
	}
	if parsed.Status.Alert.Triggered != 5 {
		t.Errorf("Alert.Triggered: got %d, want 5", parsed.Status.Alert.Triggered)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if parsed.Status.MQTT.Connected != true {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Config.CityID != 5359777 {
		t.Errorf("Config.CityID: got %d", parsed.Status.Config.CityID)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONFailedSample(t *testing.T) {
	snap := Snapshot{
		AirQuality:   sensor.Reading{Err: errcode.New(errcode.SensorFault, sensor.OpMeasure, errors.New("nack"))},
		AirQualityAt: t0,
		StartTime:    t0,
		Now:          t0.Add(time.Second),
	}

	var raw map[string]interface{}
	json.Unmarshal(FormatJSON(snap), &raw)
	aq := raw["status"].(map[string]interface{})["air_quality"].(map[string]interface{})

	if aq["valid"] != false {
		t.Errorf("valid: got %v", aq["valid"])
	}
	if _, exists := aq["eco2_ppm"]; exists {
		t.Error("eco2_ppm should be omitted for a failed sample")
	}
	if aq["error"] != "measure: sensor_fault: nack" {
		t.Errorf("error: got %v", aq["error"])
	}
}

func TestFormatJSONWeather(t *testing.T) {
	snap := Snapshot{
		Weather:   weather.Reading{Description: "Clouds", TempF: 61, PressureHPa: 1017, HumidityPct: 82, Valid: true, Missing: []string{weather.PathWind}},
		WeatherAt: t0,
		StartTime: t0,
		Now:       t0,
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	w := parsed.Status.Weather
	if w == nil {
		t.Fatal("expected Weather in JSON")
	}
	if w.Description != "Clouds" || w.TempF != 61 || w.HumidityPct != 82 {
		t.Errorf("Weather: got %+v", w)
	}
	if len(w.Missing) != 1 || w.Missing[0] != weather.PathWind {
		t.Errorf("Weather.Missing: got %v", w.Missing)
	}
}

func TestFormatJSONUnknownPhase(t *testing.T) {
	snap := Snapshot{
		StartTime: t0,
		Now:       t0.Add(time.Second),
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Alert.Phase != "UNKNOWN" {
		t.Errorf("Alert.Phase: got %q, want UNKNOWN", parsed.Status.Alert.Phase)
	}
	if parsed.Status.AirQuality != nil {
		t.Error("expected AirQuality omitted before first sample")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		AlertPhase:    alert.PhaseIdle,
		Alerts:        alert.Counts{Triggered: 3, Dismissed: 3},
		StartTime:     t0,
		Now:           t0.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{PollMs: 100, Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if parsed.Status.Alert.Triggered != 3 {
		t.Errorf("Alert.Triggered: got %d, want 3", parsed.Status.Alert.Triggered)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	snap := Snapshot{
		AlertPhase: alert.PhaseIdle,
		StartTime:  t0,
		Now:        t0.Add(30 * time.Minute),
		Config:     Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: t0,
		Now:       t0.Add(time.Second),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: t0,
		Now:       t0.Add(time.Minute),
		Network:   &network.Info{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.SetAirQuality(sensor.Reading{ECO2: uint16(i), Valid: true}, time.Now())
			tr.SetAlert(alert.PhaseAlerting, uint16(i), alert.Counts{Triggered: i})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&network.Info{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
