package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/airmonitor/internal/errcode"
	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/weather"
)

func TestObserveReading(t *testing.T) {
	m := New("0000-0001")
	m.ObserveReading(sensor.Reading{TVOC: 12, ECO2: 640, RawH2: 13000, RawEthanol: 18000, Valid: true}, true)

	if got := testutil.ToFloat64(m.eco2.WithLabelValues("0000-0001")); got != 640 {
		t.Errorf("eco2: got %v", got)
	}
	if got := testutil.ToFloat64(m.tvoc.WithLabelValues("0000-0001")); got != 12 {
		t.Errorf("tvoc: got %v", got)
	}
	if got := testutil.ToFloat64(m.rawEthanol.WithLabelValues("0000-0001")); got != 18000 {
		t.Errorf("raw ethanol: got %v", got)
	}

	// Invalid readings leave the last value in place.
	m.ObserveReading(sensor.Reading{ECO2: 1}, true)
	if got := testutil.ToFloat64(m.eco2.WithLabelValues("0000-0001")); got != 640 {
		t.Errorf("eco2 after invalid: got %v", got)
	}

	// Without raw the raw gauges keep their value.
	m.ObserveReading(sensor.Reading{ECO2: 410, Valid: true}, false)
	if got := testutil.ToFloat64(m.rawH2.WithLabelValues("0000-0001")); got != 13000 {
		t.Errorf("raw h2: got %v", got)
	}
}

func TestObserveWeather(t *testing.T) {
	m := New("s")
	m.ObserveWeather(weather.Reading{TempF: 72, PressureHPa: 1013, HumidityPct: 40, WindMph: 5, Valid: true})
	if got := testutil.ToFloat64(m.temperature.WithLabelValues("s")); got != 72 {
		t.Errorf("temperature: got %v", got)
	}
	if got := testutil.ToFloat64(m.wind.WithLabelValues("s")); got != 5 {
		t.Errorf("wind: got %v", got)
	}
}

func TestCounters(t *testing.T) {
	m := New("s")
	m.Alert("threshold")
	m.Alert("threshold")
	m.Alert("test")
	m.Failure(errcode.New(errcode.FetchFailure, "fetch", errors.New("timeout")))
	m.Failure(nil)

	if got := testutil.ToFloat64(m.alerts.WithLabelValues("threshold")); got != 2 {
		t.Errorf("threshold alerts: got %v", got)
	}
	if got := testutil.ToFloat64(m.alerts.WithLabelValues("test")); got != 1 {
		t.Errorf("test alerts: got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("fetch_failure")); got != 1 {
		t.Errorf("fetch failures: got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveReading(sensor.Reading{Valid: true}, true)
	m.ObserveWeather(weather.Reading{Valid: true})
	m.Alert("test")
	m.Failure(errors.New("x"))
}

func TestHandler(t *testing.T) {
	m := New("s")
	m.ObserveReading(sensor.Reading{ECO2: 700, Valid: true}, false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `air_co2_level{serial_number="s"} 700`) {
		t.Errorf("expected eco2 series in output:\n%s", body)
	}
}
