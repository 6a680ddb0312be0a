// Package sgp30 drives the Sensirion SGP30 gas sensor over I²C.
//
// The chip reports equivalent CO2 (ppm) and total VOC (ppb) from its internal
// baseline algorithm, plus the raw H2 and ethanol signals those are derived
// from. Every word on the wire is big-endian followed by a CRC-8 byte.
package sgp30

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/sweeney/airmonitor/internal/errcode"
)

// Addr is the fixed I²C address of the SGP30.
const Addr = 0x58

// Commands
var (
	cmdInitAirQuality    = []byte{0x20, 0x03}
	cmdMeasureAirQuality = []byte{0x20, 0x08}
	cmdMeasureRaw        = []byte{0x20, 0x50}
	cmdGetFeatureSet     = []byte{0x20, 0x2F}
	cmdGetSerialID       = []byte{0x36, 0x82}
)

// Typical max execution times from the datasheet.
const (
	delayInit        = 10 * time.Millisecond
	delayMeasure     = 12 * time.Millisecond
	delayMeasureRaw  = 25 * time.Millisecond
	delayFeatureSet  = 10 * time.Millisecond
	delaySerial      = time.Millisecond
	productTypeSGP30 = 0x0
)

// ErrCRC is returned when a received word fails its checksum.
var ErrCRC = errors.New("sgp30: crc mismatch")

// Dev is a handle to an initialized SGP30.
type Dev struct {
	mu    sync.Mutex
	d     i2c.Dev
	sleep func(time.Duration)

	// FeatureSet is the raw feature set word reported at detection.
	FeatureSet uint16
}

// New detects the chip on bus b and starts its air quality algorithm.
//
// A chip that does not answer detection yields an error wrapping
// errcode.SensorMissing.
func New(b i2c.Bus) (*Dev, error) {
	d := &Dev{d: i2c.Dev{Bus: b, Addr: Addr}, sleep: time.Sleep}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	words, err := d.command(cmdGetFeatureSet, delayFeatureSet, 1)
	if err != nil {
		return errcode.New(errcode.SensorMissing, "sgp30 detect", err)
	}
	d.FeatureSet = words[0]
	if pt := words[0] >> 12; pt != productTypeSGP30 {
		return errcode.New(errcode.SensorMissing, "sgp30 detect", fmt.Errorf("unexpected product type %#x", pt))
	}

	if _, err := d.command(cmdInitAirQuality, delayInit, 0); err != nil {
		return fmt.Errorf("sgp30 init air quality: %w", err)
	}
	return nil
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return fmt.Sprintf("SGP30{%s}", &d.d)
}

// Halt implements conn.Resource. The chip has no stop command.
func (d *Dev) Halt() error {
	return nil
}

// Measure reads TVOC (ppb) and eCO2 (ppm).
func (d *Dev) Measure() (tvoc, eco2 uint16, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	words, err := d.command(cmdMeasureAirQuality, delayMeasure, 2)
	if err != nil {
		return 0, 0, fmt.Errorf("sgp30 measure: %w", err)
	}
	// eCO2 comes first on the wire.
	return words[1], words[0], nil
}

// MeasureRaw reads the raw H2 and ethanol signals.
func (d *Dev) MeasureRaw() (h2, ethanol uint16, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	words, err := d.command(cmdMeasureRaw, delayMeasureRaw, 2)
	if err != nil {
		return 0, 0, fmt.Errorf("sgp30 measure raw: %w", err)
	}
	return words[0], words[1], nil
}

// SerialID returns the 48-bit chip serial number.
func (d *Dev) SerialID() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	words, err := d.command(cmdGetSerialID, delaySerial, 3)
	if err != nil {
		return 0, fmt.Errorf("sgp30 serial: %w", err)
	}
	return uint64(words[0])<<32 | uint64(words[1])<<16 | uint64(words[2]), nil
}

// command writes cmd, waits delay and reads n CRC-protected words.
//
// It must be called with d.mu lock held.
func (d *Dev) command(cmd []byte, delay time.Duration, n int) ([]uint16, error) {
	if err := d.d.Tx(cmd, nil); err != nil {
		return nil, err
	}
	d.sleep(delay)
	if n == 0 {
		return nil, nil
	}

	buf := make([]byte, 3*n)
	if err := d.d.Tx(nil, buf); err != nil {
		return nil, err
	}

	words := make([]uint16, n)
	for i := range words {
		chunk := buf[3*i : 3*i+3]
		if crc8(chunk[:2]) != chunk[2] {
			return nil, fmt.Errorf("%w in word %d", ErrCRC, i)
		}
		words[i] = binary.BigEndian.Uint16(chunk[:2])
	}
	return words, nil
}

// crc8 is the Sensirion checksum: polynomial 0x31, init 0xFF.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
