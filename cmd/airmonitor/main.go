// Command airmonitor runs the handheld air quality and weather monitor:
// it samples the gas sensor, shows air quality and weather panels on
// demand and alarms when eCO2 crosses the threshold.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/sweeney/airmonitor/internal/config"
	"github.com/sweeney/airmonitor/internal/credentials"
	"github.com/sweeney/airmonitor/internal/device"
	"github.com/sweeney/airmonitor/internal/display"
	"github.com/sweeney/airmonitor/internal/errcode"
	"github.com/sweeney/airmonitor/internal/gpio"
	"github.com/sweeney/airmonitor/internal/logging"
	"github.com/sweeney/airmonitor/internal/metrics"
	"github.com/sweeney/airmonitor/internal/mqtt"
	"github.com/sweeney/airmonitor/internal/network"
	"github.com/sweeney/airmonitor/internal/render"
	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/sgp30"
	"github.com/sweeney/airmonitor/internal/status"
	"github.com/sweeney/airmonitor/internal/weather"
	"github.com/sweeney/airmonitor/internal/web"
)

// Panel size used for the png and none sinks.
const (
	panelWidth  = 135
	panelHeight = 240
)

// joinPoll is how often the interface list is checked while waiting to join.
const joinPoll = time.Second

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		s := <-sigCh
		logger.Info("shutting down", "signal", s)
		cancel(signalCause{sig: s})
	}()

	if cfg.PrintState {
		err = printState(os.Stdout, cfg, logger)
	} else {
		err = run(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// signalCause is the cancellation cause recorded when a signal stops the
// daemon.
type signalCause struct {
	sig os.Signal
}

func (c signalCause) Error() string { return "received " + c.sig.String() }

// shutdownReason names the signal that cancelled ctx.
func shutdownReason(ctx context.Context) string {
	var sc signalCause
	if !errors.As(context.Cause(ctx), &sc) {
		return "UNKNOWN"
	}
	switch sc.sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := credentials.Load(cfg.Credentials)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if missing := store.Missing(); len(missing) > 0 {
		logger.Warn("credentials incomplete", "path", cfg.Credentials, "missing", missing)
	}
	creds := store.Credentials()

	logger.Info("waiting for network", "ssid", creds.SSID, "timeout", cfg.JoinTimeout)
	if err := network.WaitJoined(ctx, network.InterfaceChecker{}, joinPoll, cfg.JoinTimeout); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("network not joined, continuing", "error", err)
	} else {
		logger.Info("network joined")
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("open i2c bus: %w", err)
	}
	defer bus.Close()

	chip, err := sgp30.New(bus)
	if errcode.Of(err) == errcode.SensorMissing {
		logger.Error("air quality sensor not found, halting", "error", err)
		<-ctx.Done()
		return nil
	}
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer chip.Halt()

	serial := "unknown"
	if id, err := chip.SerialID(); err != nil {
		logger.Warn("read sensor serial", "error", err)
	} else {
		serial = fmt.Sprintf("%012x", id)
	}
	logger.Info("sensor ready", "serial", serial, "feature_set", fmt.Sprintf("%#04x", chip.FeatureSet))

	canvas, closeDisplay, err := openDisplay(cfg, bus)
	if err != nil {
		return err
	}
	defer closeDisplay()
	renderer := render.New(canvas, time.Sleep, render.DefaultDwell, logger)
	renderer.Clear()
	defer renderer.Clear()

	buttons, err := gpio.NewRealReader(cfg.GPIOChip, cfg.Pins)
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	buzzer, err := gpio.NewRealBuzzer(cfg.GPIOChip, cfg.BuzzerPin)
	if err != nil {
		return fmt.Errorf("init buzzer: %w", err)
	}
	defer buzzer.Close()

	publisher, mqttStatus := openPublisher(cfg.Broker, logger)
	defer publisher.Close()

	if creds.APIKey == "" {
		logger.Warn("no weather api key configured")
	}
	weatherURL, err := weather.URL(cfg.WeatherURL, cfg.Location(), creds.APIKey)
	if err != nil {
		return err
	}

	m := metrics.New(serial)

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		AlertPollMs: cfg.AlertPoll.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		TelemetryMs: cfg.Telemetry.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		Display:     cfg.Display,
		CityID:      uint32(cfg.CityID),
		Lat:         cfg.Lat,
		Lon:         cfg.Lon,
	})
	if info := network.ReadEnvInfo(); info != nil {
		tracker.SetNetwork(info)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		logger.Warn("failed to publish startup event", "error", err)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTPAddr)
	}

	dev := device.New(device.Deps{
		Buttons:   buttons,
		Buzzer:    buzzer,
		Sampler:   sensor.NewSampler(chip, logger),
		Fetcher:   weather.NewFetcher(&http.Client{Timeout: cfg.HTTPTimeout}, logger),
		Network:   network.InterfaceChecker{},
		Renderer:  renderer,
		Publisher: publisher,
		Tracker:   tracker,
		Metrics:   m,
		Logger:    logger,
	}, device.Config{
		WeatherURL: weatherURL,
		AlertPoll:  cfg.AlertPoll,
		Telemetry:  cfg.Telemetry,
	})

	logger.Info("started", "poll", cfg.Poll, "broker", cfg.Broker, "heartbeat", cfg.Heartbeat, "display", cfg.Display)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	return runLoop(ctx, dev, publisher, mqttStatus, tracker, cfg.Heartbeat, time.Now, ticker.C, logger)
}

// openDisplay returns the canvas for cfg.Display and a function that
// releases it.
func openDisplay(cfg config.Config, bus i2c.Bus) (*display.Framebuffer, func(), error) {
	kind, path := cfg.DisplaySink()
	switch kind {
	case config.DisplaySSD1306:
		dev, err := display.OpenSSD1306(bus)
		if err != nil {
			return nil, nil, err
		}
		return display.NewFramebufferFor(dev), func() { dev.Halt() }, nil
	case config.DisplayPNG:
		sink := &display.PNGSink{Path: path, W: panelWidth, H: panelHeight}
		return display.NewFramebufferFor(sink), func() {}, nil
	}
	return display.NewFramebuffer(panelWidth, panelHeight, nil), func() {}, nil
}

// openPublisher connects to broker, or returns a publisher that drops
// everything when broker is empty or unusable.
func openPublisher(broker string, logger *slog.Logger) (mqtt.Publisher, mqtt.ConnectionStatus) {
	if broker == "" {
		logger.Info("mqtt disabled")
		return mqtt.NopPublisher{}, mqtt.NopPublisher{}
	}
	p, err := mqtt.NewRealPublisher(broker, "airmonitor", logger)
	if err != nil {
		logger.Error("mqtt disabled", "broker", broker, "error", err)
		return mqtt.NopPublisher{}, mqtt.NopPublisher{}
	}
	return p, p
}

// runLoop steps the device on every tick until ctx is cancelled, then
// publishes SHUTDOWN. A HEARTBEAT carrying the status snapshot goes out
// every heartbeat interval (0 disables it).
func runLoop(ctx context.Context, dev *device.Device, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, logger *slog.Logger) error {
	lastHeartbeat := now()

	for {
		select {
		case <-ctx.Done():
			reason := shutdownReason(ctx)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    reason,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason)
			}
			if err := publisher.PublishSystem(event); err != nil {
				logger.Warn("failed to publish shutdown event", "error", err)
			} else {
				logger.Info("published shutdown event", "reason", reason)
			}
			return nil

		case <-tick:
			if err := dev.Step(ctx); err != nil {
				logger.Warn("tick skipped", "error", err)
				continue
			}

			if tracker != nil && mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			t := now()
			if heartbeat <= 0 || t.Sub(lastHeartbeat) < heartbeat {
				continue
			}
			lastHeartbeat = t

			hb := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				// Refresh network info for heartbeat
				if info := network.ReadEnvInfo(); info != nil {
					tracker.SetNetwork(info)
				}
				snap := tracker.Snapshot()
				logger.Info("heartbeat", "uptime", snap.Uptime().Round(time.Second), "alerts", snap.Alerts.Triggered)
				hb.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hb); err != nil {
				logger.Warn("heartbeat publish error", "error", err)
			}
		}
	}
}

// printState prints the buttons and one sensor sample.
func printState(w io.Writer, cfg config.Config, logger *slog.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("open i2c bus: %w", err)
	}
	defer bus.Close()

	chip, err := sgp30.New(bus)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer chip.Halt()

	buttons, err := gpio.NewRealReader(cfg.GPIOChip, cfg.Pins)
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	b, err := buttons.Poll()
	if err != nil {
		return fmt.Errorf("read buttons: %w", err)
	}
	_, err = io.WriteString(w, formatState(b, sensor.NewSampler(chip, logger).Sample()))
	return err
}

func formatState(b gpio.Buttons, r sensor.Reading) string {
	s := fmt.Sprintf("AQ: %s, Weather: %s, Off: %s, BuzzerTest: %s\n",
		buttonString(b.AQ), buttonString(b.Weather), buttonString(b.Off), buttonString(b.BuzzerTest))
	if !r.Valid {
		return s + fmt.Sprintf("Sensor: %v\n", r.Err)
	}
	return s + fmt.Sprintf("eCO2: %d ppm, TVOC: %d ppb, H2: %d, Ethanol: %d\n", r.ECO2, r.TVOC, r.RawH2, r.RawEthanol)
}

func buttonString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
