// Package config collects command-line flags and environment defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sweeney/airmonitor/internal/gpio"
	"github.com/sweeney/airmonitor/internal/logging"
	"github.com/sweeney/airmonitor/internal/weather"
)

// Display kinds
const (
	DisplaySSD1306 = "ssd1306"
	DisplayPNG     = "png"
	DisplayNone    = "none"
)

// Config is the daemon configuration.
type Config struct {
	Poll      time.Duration
	AlertPoll time.Duration
	Heartbeat time.Duration
	Telemetry time.Duration

	I2CBus    string
	GPIOChip  string
	Pins      gpio.Pins
	BuzzerPin int

	// Display is "ssd1306", "png:<path>" or "none".
	Display string

	Credentials string

	CityID      uint
	Lat         float64
	Lon         float64
	WeatherURL  string
	HTTPTimeout time.Duration
	JoinTimeout time.Duration

	Broker   string
	HTTPAddr string

	PrintState bool

	LogLevel  slog.Level
	LogFormat string
}

// Parse reads flags from args. getenv supplies LOG_LEVEL and LOG_FORMAT
// defaults; flags override them.
func Parse(name string, args []string, getenv func(string) string, output io.Writer) (Config, error) {
	var c Config
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.DurationVar(&c.Poll, "poll", 100*time.Millisecond, "Button polling interval")
	fs.DurationVar(&c.AlertPoll, "alert-poll", 10*time.Millisecond, "Dismiss button polling interval while alerting")
	fs.DurationVar(&c.Heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.DurationVar(&c.Telemetry, "telemetry", time.Minute, "Reading publish interval (0 to disable)")
	fs.StringVar(&c.I2CBus, "i2c-bus", "", "I2C bus name (empty for the first bus)")
	fs.StringVar(&c.GPIOChip, "gpiochip", "gpiochip0", "GPIO character device")
	fs.IntVar(&c.Pins.AQ, "pin-aq", gpio.DefaultPinAQ, "BCM pin for the air quality button")
	fs.IntVar(&c.Pins.Weather, "pin-weather", gpio.DefaultPinWeather, "BCM pin for the weather button")
	fs.IntVar(&c.Pins.Off, "pin-off", gpio.DefaultPinOff, "BCM pin for the off/dismiss button")
	fs.IntVar(&c.Pins.BuzzerTest, "pin-buzzer-test", gpio.DefaultPinBuzzerTest, "BCM pin for the buzzer test button (-1 to disable)")
	fs.IntVar(&c.BuzzerPin, "pin-buzzer", gpio.DefaultPinBuzzer, "BCM pin driving the buzzer")
	fs.StringVar(&c.Display, "display", DisplaySSD1306, `Display sink: "ssd1306", "png:<path>" or "none"`)
	fs.StringVar(&c.Credentials, "credentials", "/etc/airmonitor/credentials.yaml", "Credential file")
	fs.UintVar(&c.CityID, "city-id", weather.DefaultCityID, "OpenWeatherMap city ID (0 to use -lat/-lon)")
	fs.Float64Var(&c.Lat, "lat", 0, "Latitude when -city-id is 0")
	fs.Float64Var(&c.Lon, "lon", 0, "Longitude when -city-id is 0")
	fs.StringVar(&c.WeatherURL, "weather-url", weather.DefaultBaseURL, "Weather endpoint")
	fs.DurationVar(&c.HTTPTimeout, "http-timeout", 0, "Weather request timeout (0 for transport default)")
	fs.DurationVar(&c.JoinTimeout, "join-timeout", 0, "Boot network join timeout (0 to wait forever)")
	fs.StringVar(&c.Broker, "broker", "", "MQTT broker address (empty to disable)")
	fs.StringVar(&c.HTTPAddr, "http", ":80", "HTTP status address (empty to disable)")
	fs.BoolVar(&c.PrintState, "print-state", false, "Print buttons and one sensor sample and exit")

	level, err := logging.ParseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		return Config{}, err
	}
	format, err := logging.ParseFormat(getenv("LOG_FORMAT"))
	if err != nil {
		return Config{}, err
	}
	levelFlag := fs.String("log-level", level.String(), "Log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", format, "Log format: text or json")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if c.LogLevel, err = logging.ParseLevel(*levelFlag); err != nil {
		return Config{}, err
	}
	if c.LogFormat, err = logging.ParseFormat(c.LogFormat); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Validate rejects impossible combinations.
func (c Config) Validate() error {
	var errs []error
	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("poll must be positive, got %v", c.Poll))
	}
	if c.AlertPoll <= 0 {
		errs = append(errs, fmt.Errorf("alert-poll must be positive, got %v", c.AlertPoll))
	}
	if c.Heartbeat < 0 || c.Telemetry < 0 || c.HTTPTimeout < 0 || c.JoinTimeout < 0 {
		errs = append(errs, errors.New("intervals and timeouts must not be negative"))
	}
	if c.Pins.AQ < 0 || c.Pins.Weather < 0 || c.Pins.Off < 0 {
		errs = append(errs, errors.New("aq, weather and off pins are required"))
	}
	if c.BuzzerPin < 0 {
		errs = append(errs, errors.New("buzzer pin is required"))
	}
	if dup := duplicatePin(c.Pins, c.BuzzerPin); dup >= 0 {
		errs = append(errs, fmt.Errorf("pin %d assigned twice", dup))
	}
	if c.CityID == 0 && c.Lat == 0 && c.Lon == 0 {
		errs = append(errs, errors.New("set -city-id or -lat/-lon"))
	}
	if c.CityID > 1<<32-1 {
		errs = append(errs, fmt.Errorf("city-id %d out of range", c.CityID))
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		errs = append(errs, fmt.Errorf("coordinates out of range: %v,%v", c.Lat, c.Lon))
	}
	if kind, path := c.DisplaySink(); kind == "" || (kind == DisplayPNG && path == "") {
		errs = append(errs, fmt.Errorf("invalid display %q", c.Display))
	}
	return errors.Join(errs...)
}

// DisplaySink splits Display into its kind and, for png, the output path.
// Kind is empty when Display is not recognised.
func (c Config) DisplaySink() (kind, path string) {
	switch {
	case c.Display == DisplaySSD1306, c.Display == DisplayNone:
		return c.Display, ""
	case strings.HasPrefix(c.Display, DisplayPNG+":"):
		return DisplayPNG, strings.TrimPrefix(c.Display, DisplayPNG+":")
	}
	return "", ""
}

// Location returns the weather location.
func (c Config) Location() weather.Location {
	return weather.Location{CityID: uint32(c.CityID), Lat: c.Lat, Lon: c.Lon}
}

func duplicatePin(p gpio.Pins, buzzer int) int {
	seen := map[int]bool{}
	for _, pin := range []int{p.AQ, p.Weather, p.Off, p.BuzzerTest, buzzer} {
		if pin < 0 {
			continue
		}
		if seen[pin] {
			return pin
		}
		seen[pin] = true
	}
	return -1
}
