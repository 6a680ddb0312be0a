// Package sensor samples the gas sensor and normalizes its failures.
// A failed measurement never propagates as an error; it yields a reading
// with Valid=false so callers can degrade instead of stopping.
package sensor

import (
	"log/slog"

	"github.com/sweeney/airmonitor/internal/errcode"
)

// Threshold is the eCO2 level (ppm) at or above which the device alerts.
const Threshold = 600

// Driver is the gas sensor chip. sgp30.Dev satisfies it.
type Driver interface {
	Measure() (tvoc, eco2 uint16, err error)
	MeasureRaw() (h2, ethanol uint16, err error)
}

// Reading is one air quality sample. When Valid is false the numeric
// fields are undefined and Err says which measurement failed.
type Reading struct {
	TVOC       uint16 // ppb
	ECO2       uint16 // ppm
	RawH2      uint16
	RawEthanol uint16
	Valid      bool
	Err        error
}

// RawReading is one raw signal sample.
type RawReading struct {
	H2      uint16
	Ethanol uint16
	Valid   bool
	Err     error
}

// Failure kinds carried on Reading.Err.
const (
	OpMeasure    = "measure"
	OpMeasureRaw = "measure raw"
)

// Sampler wraps a Driver.
type Sampler struct {
	driver Driver
	logger *slog.Logger
}

// NewSampler creates a Sampler over driver.
func NewSampler(driver Driver, logger *slog.Logger) *Sampler {
	return &Sampler{driver: driver, logger: logger}
}

// SampleBasic reads TVOC and eCO2.
func (s *Sampler) SampleBasic() Reading {
	tvoc, eco2, err := s.driver.Measure()
	if err != nil {
		s.logger.Warn("measurement failed", "error", err)
		return Reading{Err: errcode.New(errcode.SensorFault, OpMeasure, err)}
	}
	s.logger.Debug("measured", "tvoc_ppb", tvoc, "eco2_ppm", eco2)
	return Reading{TVOC: tvoc, ECO2: eco2, Valid: true}
}

// SampleRaw reads the raw H2 and ethanol signals. It is independent of
// SampleBasic: one failing says nothing about the other.
func (s *Sampler) SampleRaw() RawReading {
	h2, ethanol, err := s.driver.MeasureRaw()
	if err != nil {
		s.logger.Warn("raw measurement failed", "error", err)
		return RawReading{Err: errcode.New(errcode.SensorFault, OpMeasureRaw, err)}
	}
	s.logger.Debug("measured raw", "h2", h2, "ethanol", ethanol)
	return RawReading{H2: h2, Ethanol: ethanol, Valid: true}
}

// Sample takes a basic then a raw measurement and merges them.
// The raw step is skipped when the basic one fails.
func (s *Sampler) Sample() Reading {
	r := s.SampleBasic()
	if !r.Valid {
		return r
	}
	raw := s.SampleRaw()
	if !raw.Valid {
		return Reading{Err: raw.Err}
	}
	r.RawH2 = raw.H2
	r.RawEthanol = raw.Ethanol
	return r
}

// ECO2 returns the current eCO2 for the threshold check. A failed sample
// reads as 0 so a sensor fault can never raise an alert.
func (s *Sampler) ECO2() uint16 {
	return Level(s.SampleBasic())
}

// Level is the eCO2 value r contributes to the threshold check: its ECO2
// when valid, else 0.
func Level(r Reading) uint16 {
	if !r.Valid {
		return 0
	}
	return r.ECO2
}

// Breached reports whether eco2 is at or above Threshold.
func Breached(eco2 uint16) bool {
	return eco2 >= Threshold
}
