// Package metrics exposes readings and failure counts to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/airmonitor/internal/errcode"
	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/weather"
)

// Metrics holds the device's collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	serial string

	eco2       *prometheus.GaugeVec
	tvoc       *prometheus.GaugeVec
	rawH2      *prometheus.GaugeVec
	rawEthanol *prometheus.GaugeVec

	temperature *prometheus.GaugeVec
	pressure    *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	wind        *prometheus.GaugeVec

	alerts   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"serial_number"},
	)
}

// New registers the collectors. serial labels the sensor series.
func New(serial string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		serial:   serial,

		eco2:       newGauge("air_co2_level", "Equivalent carbon dioxide (units: ppm)"),
		tvoc:       newGauge("air_voc_level", "Total volatile organic compounds (units: ppb)"),
		rawH2:      newGauge("air_raw_h2", "Raw H2 signal (sensor ticks)"),
		rawEthanol: newGauge("air_raw_ethanol", "Raw ethanol signal (sensor ticks)"),

		temperature: newGauge("weather_temperature", "Outdoor temperature (units: degrees Fahrenheit)"),
		pressure:    newGauge("weather_atm_pressure", "Outdoor atmospheric pressure (units: hPa)"),
		humidity:    newGauge("weather_humidity", "Outdoor relative humidity (units: %)"),
		wind:        newGauge("weather_wind_speed", "Wind speed (units: mph)"),

		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "air_alerts_total",
			Help: "Alerts raised, by cause",
		}, []string{"cause"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airmonitor_failures_total",
			Help: "Locally handled failures, by error code",
		}, []string{"code"}),
	}

	m.Registry.MustRegister(
		m.eco2, m.tvoc, m.rawH2, m.rawEthanol,
		m.temperature, m.pressure, m.humidity, m.wind,
		m.alerts, m.failures,
		collectors.NewBuildInfoCollector(),
	)
	return m
}

// ObserveReading records a valid sample; raw gauges only move when the
// raw signals were read.
func (m *Metrics) ObserveReading(r sensor.Reading, withRaw bool) {
	if m == nil || !r.Valid {
		return
	}
	m.eco2.WithLabelValues(m.serial).Set(float64(r.ECO2))
	m.tvoc.WithLabelValues(m.serial).Set(float64(r.TVOC))
	if withRaw {
		m.rawH2.WithLabelValues(m.serial).Set(float64(r.RawH2))
		m.rawEthanol.WithLabelValues(m.serial).Set(float64(r.RawEthanol))
	}
}

// ObserveWeather records a valid weather reading.
func (m *Metrics) ObserveWeather(r weather.Reading) {
	if m == nil || !r.Valid {
		return
	}
	m.temperature.WithLabelValues(m.serial).Set(float64(r.TempF))
	m.pressure.WithLabelValues(m.serial).Set(float64(r.PressureHPa))
	m.humidity.WithLabelValues(m.serial).Set(float64(r.HumidityPct))
	m.wind.WithLabelValues(m.serial).Set(float64(r.WindMph))
}

// Alert counts a raised alert. cause is "threshold" or "test".
func (m *Metrics) Alert(cause string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(cause).Inc()
}

// Failure counts err under its error code.
func (m *Metrics) Failure(err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(string(errcode.Of(err))).Inc()
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
