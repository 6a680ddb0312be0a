package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	AirQuality    *AirQualityJSON `json:"air_quality,omitempty"`
	Weather       *WeatherJSON    `json:"weather,omitempty"`
	Alert         AlertJSON       `json:"alert"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Network       *NetworkJSON    `json:"network,omitempty"`
	Config        ConfigJSON      `json:"config"`
}

// AirQualityJSON is the latest sensor sample. Numeric fields are omitted
// when the sample failed.
type AirQualityJSON struct {
	Valid      bool    `json:"valid"`
	ECO2       *uint16 `json:"eco2_ppm,omitempty"`
	TVOC       *uint16 `json:"tvoc_ppb,omitempty"`
	RawH2      *uint16 `json:"raw_h2,omitempty"`
	RawEthanol *uint16 `json:"raw_ethanol,omitempty"`
	Error      string  `json:"error,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

// WeatherJSON is the latest weather reading.
type WeatherJSON struct {
	Valid       bool     `json:"valid"`
	Description string   `json:"description,omitempty"`
	TempF       int      `json:"temp_f"`
	PressureHPa int      `json:"pressure_hpa"`
	HumidityPct int      `json:"humidity_pct"`
	WindMph     int      `json:"wind_mph"`
	Missing     []string `json:"missing,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

// AlertJSON reports alert state and totals.
type AlertJSON struct {
	Phase     string `json:"phase"`
	ECO2      uint16 `json:"eco2_ppm,omitempty"`
	Triggered int    `json:"triggered"`
	Dismissed int    `json:"dismissed"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64   `json:"poll_ms"`
	AlertPollMs int64   `json:"alert_poll_ms"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	TelemetryMs int64   `json:"telemetry_ms"`
	Broker      string  `json:"broker"`
	HTTPAddr    string  `json:"http_addr"`
	Display     string  `json:"display"`
	CityID      uint32  `json:"city_id,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.AlertPhase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	inner := StatusInner{
		Alert: AlertJSON{
			Phase:     phase,
			ECO2:      snap.AlertECO2,
			Triggered: snap.Alerts.Triggered,
			Dismissed: snap.Alerts.Dismissed,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			AlertPollMs: snap.Config.AlertPollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			TelemetryMs: snap.Config.TelemetryMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Display:     snap.Config.Display,
			CityID:      snap.Config.CityID,
			Lat:         snap.Config.Lat,
			Lon:         snap.Config.Lon,
		},
	}

	if !snap.AirQualityAt.IsZero() {
		inner.AirQuality = buildAirQuality(snap)
	}
	if !snap.WeatherAt.IsZero() {
		w := snap.Weather
		inner.Weather = &WeatherJSON{
			Valid:       w.Valid,
			Description: w.Description,
			TempF:       w.TempF,
			PressureHPa: w.PressureHPa,
			HumidityPct: w.HumidityPct,
			WindMph:     w.WindMph,
			Missing:     w.Missing,
			Timestamp:   snap.WeatherAt.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

func buildAirQuality(snap Snapshot) *AirQualityJSON {
	r := snap.AirQuality
	aq := &AirQualityJSON{
		Valid:     r.Valid,
		Timestamp: snap.AirQualityAt.UTC().Format(time.RFC3339),
	}
	if r.Err != nil {
		aq.Error = r.Err.Error()
	}
	if !r.Valid {
		return aq
	}
	eco2, tvoc := r.ECO2, r.TVOC
	aq.ECO2, aq.TVOC = &eco2, &tvoc
	if r.RawH2 != 0 || r.RawEthanol != 0 {
		h2, eth := r.RawH2, r.RawEthanol
		aq.RawH2, aq.RawEthanol = &h2, &eth
	}
	return aq
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
