// Package render paints the device's panels. Every method repaints the
// whole frame, so identical inputs always produce identical output.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/sweeney/airmonitor/internal/display"
	"github.com/sweeney/airmonitor/internal/errcode"
	"github.com/sweeney/airmonitor/internal/sensor"
	"github.com/sweeney/airmonitor/internal/weather"
)

// DefaultDwell is how long a failure panel stays up before the screen blanks.
const DefaultDwell = 5 * time.Second

// Full layouts are drawn for this reference height and scaled up for
// taller panels. Shorter panels use the compact layouts and smaller faces.
const refHeight = 240

// Failure panel messages.
const (
	MsgMeasureFailed    = "Measurement\nFailed"
	MsgRawMeasureFailed = "Raw\nMeasurement\nFailed"
	MsgParseFailed      = "Parsing\nData\nFailed"
	MsgFetching         = "Fetching\nData"
)

// Renderer draws panels on a Canvas.
type Renderer struct {
	canvas display.Canvas
	sleep  func(time.Duration)
	dwell  time.Duration
	logger *slog.Logger

	// panel is the background of the air quality and weather panels.
	panel color.RGBA
}

// New creates a Renderer. sleep is used for the failure dwell.
// On a monochrome canvas the data panels are drawn white on black.
func New(canvas display.Canvas, sleep func(time.Duration), dwell time.Duration, logger *slog.Logger) *Renderer {
	r := &Renderer{canvas: canvas, sleep: sleep, dwell: dwell, logger: logger, panel: display.SkyBlue}
	if display.Monochrome(canvas) {
		r.panel = display.Black
	}
	return r
}

// sizes are the text faces a layout uses.
type sizes struct {
	small, medium, large display.TextSize
}

// layout picks faces from the canvas height.
func (r *Renderer) layout() (sz sizes, compact bool) {
	if _, h := r.canvas.Size(); h < refHeight {
		return sizes{display.TextTiny, display.TextSmall, display.TextMedium}, true
	}
	return sizes{display.TextSmall, display.TextMedium, display.TextLarge}, false
}

// Clear blanks the screen.
func (r *Renderer) Clear() {
	r.canvas.Fill(display.Black)
	r.flush()
}

// Fetching shows the interstitial drawn while a sample or fetch is in flight.
func (r *Renderer) Fetching() {
	w, h := r.canvas.Size()
	sz, _ := r.layout()
	r.canvas.Fill(display.Black)
	r.canvas.DrawText(w/2, h/2-display.LineHeight(sz.small), sz.small, display.AlignCenter, display.White, MsgFetching)
	r.flush()
}

// AirQuality shows a reading, or the matching failure panel when the
// reading is invalid.
func (r *Renderer) AirQuality(rd sensor.Reading) {
	if !rd.Valid {
		msg := MsgMeasureFailed
		var e *errcode.E
		if errors.As(rd.Err, &e) && e.Op == sensor.OpMeasureRaw {
			msg = MsgRawMeasureFailed
		}
		r.failure(msg)
		return
	}

	w, h := r.canvas.Size()
	sz, compact := r.layout()
	q := h / 4
	r.canvas.Fill(r.panel)

	rows := []struct {
		label, value string
	}{
		{"TVOC:", fmt.Sprintf("%d ppb", rd.TVOC)},
		{"eCO2:", fmt.Sprintf("%d ppm", rd.ECO2)},
		{"Raw H2:", fmt.Sprintf("%d", rd.RawH2)},
		{"Raw Ethanol:", fmt.Sprintf("%d", rd.RawEthanol)},
	}
	for i, row := range rows {
		top := int16(i) * q
		if compact {
			y := top + (q-display.LineHeight(sz.small))/2
			r.canvas.DrawText(2, y, sz.small, display.AlignLeft, display.White, row.label)
			r.canvas.DrawText(w-2, y, sz.small, display.AlignRight, display.White, row.value)
			continue
		}
		r.canvas.DrawText(5, top+5, sz.small, display.AlignLeft, display.White, row.label)
		// value sits on the bottom of its quarter
		r.canvas.DrawText(w/2, top+q-display.LineHeight(sz.medium)-5, sz.medium, display.AlignCenter, display.White, row.value)
	}
	r.flush()
}

// Weather shows current conditions, or the parse failure panel when the
// reading is invalid.
func (r *Renderer) Weather(rd weather.Reading) {
	if !rd.Valid {
		r.failure(MsgParseFailed)
		return
	}

	w, h := r.canvas.Size()
	sz, compact := r.layout()
	r.canvas.Fill(r.panel)
	if compact {
		r.compactWeather(rd, w, sz)
		r.flush()
		return
	}

	y := func(v int16) int16 { return int16(int32(v) * int32(h) / refHeight) }

	r.canvas.DrawText(w/2, y(10), sz.medium, display.AlignCenter, display.White, rd.Description)
	r.canvas.DrawLine(0, y(52), w, y(52), display.White)

	r.canvas.DrawText(w/2, y(60), sz.large, display.AlignCenter, display.White, fmt.Sprintf("%d", rd.TempF))
	r.canvas.DrawText(w/2, y(110), sz.small, display.AlignCenter, display.White, "degrees F")

	r.canvas.DrawText(15, y(130), sz.medium, display.AlignLeft, display.White, fmt.Sprintf("%d", rd.PressureHPa))
	r.canvas.DrawText(w/2+20, y(140), sz.small, display.AlignLeft, display.White, "hPa")

	r.canvas.DrawText(15, y(160), sz.medium, display.AlignLeft, display.White, fmt.Sprintf("%d%%", rd.HumidityPct))
	r.canvas.DrawText(w/2+5, y(170), sz.small, display.AlignLeft, display.White, "humidity")

	r.canvas.DrawText(15, y(190), sz.medium, display.AlignLeft, display.White, fmt.Sprintf("%d", rd.WindMph))
	r.canvas.DrawText(w/2-15, y(200), sz.small, display.AlignLeft, display.White, "mph wind")
	r.flush()
}

// compactWeather stacks the weather lines for short panels: description,
// rule, temperature, then one line per remaining value.
func (r *Renderer) compactWeather(rd weather.Reading, w int16, sz sizes) {
	lh := display.LineHeight(sz.small)
	r.canvas.DrawText(w/2, 0, sz.small, display.AlignCenter, display.White, rd.Description)
	r.canvas.DrawLine(0, lh+1, w, lh+1, display.White)

	y := lh + 3
	r.canvas.DrawText(w/2, y, sz.medium, display.AlignCenter, display.White, fmt.Sprintf("%d", rd.TempF))
	y += display.LineHeight(sz.medium)
	r.canvas.DrawText(w/2, y, sz.small, display.AlignCenter, display.White, "degrees F")

	for _, line := range []string{
		fmt.Sprintf("%d hPa", rd.PressureHPa),
		fmt.Sprintf("%d%% humidity", rd.HumidityPct),
		fmt.Sprintf("%d mph wind", rd.WindMph),
	} {
		y += lh + 1
		r.canvas.DrawText(2, y, sz.small, display.AlignLeft, display.White, line)
	}
}

// Alarm paints one blink phase of an active alert: full red when on,
// black when off.
func (r *Renderer) Alarm(on bool) {
	if on {
		r.canvas.Fill(display.Red)
	} else {
		r.canvas.Fill(display.Black)
	}
	r.flush()
}

// AlertDetail names the measured eCO2 once the user acknowledges an alert.
func (r *Renderer) AlertDetail(eco2 uint16) {
	sz, _ := r.layout()
	lh := display.LineHeight(sz.small)
	r.canvas.Fill(display.Black)
	r.canvas.DrawText(0, 0, sz.small, display.AlignLeft, display.White, "Unhealthy eCO2\nLevels Detected!")
	r.canvas.DrawText(0, 2*lh, sz.small, display.AlignLeft, display.White, "Measured:")
	r.canvas.DrawText(0, 3*lh, sz.small, display.AlignLeft, display.Red, fmt.Sprintf("%d ppm", eco2))
	r.canvas.DrawText(0, 4*lh, sz.small, display.AlignLeft, display.White, "Recommend\nWearing Mask")
	r.flush()
}

// failure shows msg on red for the dwell, then blanks.
func (r *Renderer) failure(msg string) {
	w, h := r.canvas.Size()
	sz, _ := r.layout()
	r.canvas.Fill(display.Red)
	r.canvas.DrawText(w/2, h/2-display.LineHeight(sz.small), sz.small, display.AlignCenter, display.Black, msg)
	r.flush()
	r.sleep(r.dwell)
	r.Clear()
}

func (r *Renderer) flush() {
	if err := r.canvas.Flush(); err != nil {
		r.logger.Warn("display flush failed", "error", err)
	}
}
