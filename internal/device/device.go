// Package device is the control loop: it polls the buttons, drives the
// panels and runs the eCO2 alert.
//
// Everything happens on the caller's goroutine. A running alert blocks the
// loop until the user dismisses it, so nothing else can draw while it owns
// the display.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/airmonitor/internal/alert"
	"github.com/sweeney/airmonitor/internal/errcode"
	"github.com/sweeney/airmonitor/internal/gpio"
	"github.com/sweeney/airmonitor/internal/metrics"
	"github.com/sweeney/airmonitor/internal/mqtt"
	"github.com/sweeney/airmonitor/internal/network"
	"github.com/sweeney/airmonitor/internal/render"
	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/status"
	"github.com/sweeney/airmonitor/internal/weather"
)

// Alert causes.
const (
	CauseThreshold = "threshold"
	CauseTest      = "test"
)

// Reading sources.
const (
	SourceButton    = "button"
	SourceTelemetry = "telemetry"
)

// DefaultAlertPoll is how often the dismiss button is read during an alert.
const DefaultAlertPoll = 10 * time.Millisecond

// Fetcher retrieves a weather body. weather.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Config holds loop settings.
type Config struct {
	WeatherURL string

	// AlertPoll is the dismiss button poll interval while alerting.
	AlertPoll time.Duration

	// Telemetry is the minimum interval between published background
	// samples. Zero disables background publishing.
	Telemetry time.Duration
}

// Deps are the device's collaborators. Buttons, Buzzer, Sampler, Fetcher,
// Network and Renderer are required; the rest default.
type Deps struct {
	Buttons  gpio.Reader
	Buzzer   gpio.Buzzer
	Sampler  *sensor.Sampler
	Fetcher  Fetcher
	Network  network.Checker
	Renderer *render.Renderer

	Alerts    *alert.Machine      // default: alert.NewMachine with default timings
	Publisher mqtt.Publisher      // default: mqtt.NopPublisher
	Tracker   *status.Tracker     // optional
	Metrics   *metrics.Metrics    // optional
	Logger    *slog.Logger        // default: slog.Default()
	Now       func() time.Time    // default: time.Now
	Sleep     func(time.Duration) // default: time.Sleep
}

// Device runs one tick at a time.
type Device struct {
	buttons   gpio.Reader
	buzzer    gpio.Buzzer
	sampler   *sensor.Sampler
	fetcher   Fetcher
	network   network.Checker
	renderer  *render.Renderer
	alerts    *alert.Machine
	publisher mqtt.Publisher
	tracker   *status.Tracker
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(time.Duration)
	cfg       Config

	lastTelemetry time.Time
	lastButtons   gpio.Buttons
}

// New assembles a Device.
func New(deps Deps, cfg Config) *Device {
	d := &Device{
		buttons:   deps.Buttons,
		buzzer:    deps.Buzzer,
		sampler:   deps.Sampler,
		fetcher:   deps.Fetcher,
		network:   deps.Network,
		renderer:  deps.Renderer,
		alerts:    deps.Alerts,
		publisher: deps.Publisher,
		tracker:   deps.Tracker,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
		sleep:     deps.Sleep,
		cfg:       cfg,
	}
	if d.alerts == nil {
		d.alerts = alert.NewMachine(alert.DefaultBlinkInterval, alert.DefaultHold)
	}
	if d.publisher == nil {
		d.publisher = mqtt.NopPublisher{}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	if d.cfg.AlertPoll <= 0 {
		d.cfg.AlertPoll = DefaultAlertPoll
	}
	return d
}

// Step runs one tick: act on pressed buttons, then sample eCO2 and alert
// when it is at or above sensor.Threshold. A poll error skips the tick.
func (d *Device) Step(ctx context.Context) error {
	b, err := d.buttons.Poll()
	if err != nil {
		return fmt.Errorf("poll buttons: %w", err)
	}
	if b != d.lastButtons {
		d.logger.Debug("buttons", "aq", b.AQ, "weather", b.Weather, "off", b.Off, "buzzer_test", b.BuzzerTest)
		d.lastButtons = b
	}

	if b.AQ {
		d.showAirQuality()
	}
	if b.Weather {
		d.showWeather(ctx)
	}
	if b.Off {
		d.renderer.Clear()
	}

	r := d.sampler.SampleBasic()
	d.record(r, false, SourceTelemetry)
	if eco2 := sensor.Level(r); sensor.Breached(eco2) {
		d.RunAlert(ctx, eco2, CauseThreshold)
	}

	if b.BuzzerTest {
		d.RunAlert(ctx, sensor.Threshold, CauseTest)
	}
	return nil
}

func (d *Device) showAirQuality() {
	d.renderer.Fetching()
	r := d.sampler.Sample()
	d.record(r, true, SourceButton)
	d.renderer.AirQuality(r)
}

func (d *Device) showWeather(ctx context.Context) {
	if err := network.Require(d.network, "fetch weather"); err != nil {
		d.logger.Warn("weather skipped", "error", err)
		d.metrics.Failure(err)
		return
	}

	d.renderer.Fetching()
	body, fetchErr := d.fetcher.Fetch(ctx, d.cfg.WeatherURL)
	if fetchErr != nil {
		d.metrics.Failure(fetchErr)
		body = weather.EmptyBody
	}

	rd, err := weather.Parse(body)
	switch {
	case fetchErr != nil:
		// the empty body only stands in for the failed fetch
		d.logger.Warn("weather unavailable", "code", errCode(fetchErr), "error", fetchErr)
	case err != nil:
		d.logger.Warn("weather unavailable", "code", errCode(err), "error", err)
		d.metrics.Failure(err)
	case len(rd.Missing) > 0:
		d.logger.Info("weather partially parsed", "missing", rd.Missing)
	}

	t := d.now()
	if d.tracker != nil {
		d.tracker.SetWeather(rd, t)
	}
	d.metrics.ObserveWeather(rd)
	if rd.Valid {
		if err := d.publisher.PublishWeather(mqtt.WeatherEvent{Timestamp: t, Reading: rd}); err != nil {
			d.logger.Warn("publish weather failed", "error", err)
		}
	}
	d.renderer.Weather(rd)
}

// record makes a sample visible to status, metrics and MQTT. Button
// samples are always published; background samples at most once per
// telemetry interval.
func (d *Device) record(r sensor.Reading, withRaw bool, source string) {
	t := d.now()
	if d.tracker != nil {
		d.tracker.SetAirQuality(r, t)
	}
	d.metrics.ObserveReading(r, withRaw)
	if !r.Valid {
		d.metrics.Failure(r.Err)
	}

	if source != SourceButton {
		if d.cfg.Telemetry <= 0 || t.Sub(d.lastTelemetry) < d.cfg.Telemetry {
			return
		}
	}
	d.lastTelemetry = t
	if err := d.publisher.PublishReading(mqtt.ReadingEvent{Timestamp: t, Reading: r, Source: source}); err != nil {
		d.logger.Warn("publish reading failed", "error", err)
	}
}

// RunAlert raises an alert for eco2 and blocks until the user dismisses it
// or ctx ends. Buttons other than Off are ignored for the duration.
func (d *Device) RunAlert(ctx context.Context, eco2 uint16, cause string) {
	act := d.alerts.Trigger(eco2, d.now())
	if act == alert.ActionNone {
		return
	}
	d.logger.Warn("eCO2 alert", "eco2_ppm", eco2, "cause", cause)
	d.metrics.Alert(cause)
	d.publishAlert(mqtt.AlertTriggered, eco2, cause)
	d.apply(act)
	d.syncAlert()

	off := false
	for d.alerts.Active() {
		if ctx.Err() != nil {
			d.setBuzzer(false)
			d.renderer.Clear()
			d.logger.Info("alert abandoned on shutdown", "phase", d.alerts.Phase())
			return
		}

		d.sleep(d.cfg.AlertPoll)
		b, err := d.buttons.Poll()
		if err != nil {
			// Keep the last level so a read error cannot look like a release.
			d.logger.Debug("poll during alert failed", "error", err)
		} else {
			off = b.Off
		}

		phase := d.alerts.Phase()
		d.apply(d.alerts.Tick(d.now(), off))
		if d.alerts.Phase() != phase {
			d.syncAlert()
		}
	}

	d.logger.Info("alert dismissed", "eco2_ppm", eco2)
	d.publishAlert(mqtt.AlertDismissed, eco2, cause)
}

func (d *Device) apply(act alert.Action) {
	switch act {
	case alert.ActionAlarmOn:
		d.setBuzzer(true)
		d.renderer.Alarm(true)
	case alert.ActionAlarmOff:
		d.setBuzzer(false)
		d.renderer.Alarm(false)
	case alert.ActionShowDetail:
		d.setBuzzer(false)
		d.renderer.AlertDetail(d.alerts.ECO2())
	case alert.ActionDismiss:
		d.renderer.Clear()
	}
}

func (d *Device) setBuzzer(on bool) {
	if err := d.buzzer.Set(on); err != nil {
		d.logger.Warn("buzzer failed", "on", on, "error", err)
	}
}

func (d *Device) syncAlert() {
	if d.tracker == nil {
		return
	}
	eco2 := uint16(0)
	if d.alerts.Active() {
		eco2 = d.alerts.ECO2()
	}
	d.tracker.SetAlert(d.alerts.Phase(), eco2, d.alerts.Counts())
}

func (d *Device) publishAlert(event string, eco2 uint16, cause string) {
	err := d.publisher.PublishAlert(mqtt.AlertEvent{
		Timestamp: d.now(),
		Event:     event,
		ECO2:      eco2,
		Cause:     cause,
	})
	if err != nil {
		d.logger.Warn("publish alert failed", "event", event, "error", err)
	}
}

// Alerts exposes the alert machine for status reporting.
func (d *Device) Alerts() *alert.Machine {
	return d.alerts
}

func errCode(err error) string {
	return string(errcode.Of(err))
}
