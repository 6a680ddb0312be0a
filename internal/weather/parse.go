package weather

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/sweeney/airmonitor/internal/errcode"
)

// Field paths read from the response body.
const (
	PathDescription = "weather[0].main"
	PathTemp        = "main.temp"
	PathPressure    = "main.pressure"
	PathHumidity    = "main.humidity"
	PathWind        = "wind.speed"
)

var (
	errNotObject = errors.New("body is not a JSON object")
	errNoFields  = errors.New("body carries no weather fields")
)

// Parse extracts the five display fields from body.
//
// A body that is not a JSON object, or an object carrying none of the
// fields (including the empty object), fails with errcode.ParseFailure and
// a Reading with Valid=false. Otherwise missing or mistyped fields take
// typed defaults and are listed on Reading.Missing. Numbers are truncated
// toward zero.
func Parse(body string) (Reading, error) {
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Reading{}, &errcode.E{C: errcode.ParseFailure, Op: "parse", Err: err}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return Reading{}, &errcode.E{C: errcode.ParseFailure, Op: "parse", Err: errNotObject}
	}

	var r Reading
	found := 0

	if s, ok := lookup(obj, PathDescription).(string); ok {
		r.Description = s
		found++
	} else {
		r.Missing = append(r.Missing, PathDescription)
	}

	for _, f := range []struct {
		path string
		dst  *int
	}{
		{PathTemp, &r.TempF},
		{PathPressure, &r.PressureHPa},
		{PathHumidity, &r.HumidityPct},
		{PathWind, &r.WindMph},
	} {
		if n, ok := lookup(obj, f.path).(float64); ok {
			*f.dst = int(n)
			found++
		} else {
			r.Missing = append(r.Missing, f.path)
		}
	}

	if found == 0 {
		return Reading{}, &errcode.E{C: errcode.ParseFailure, Op: "parse", Err: errNoFields}
	}
	r.Valid = true
	return r, nil
}

// lookup walks a dotted path where a segment may end in [i] to index an
// array. It returns nil when any step is absent or of the wrong shape.
func lookup(v any, path string) any {
	for _, seg := range strings.Split(path, ".") {
		name, idx := seg, -1
		if i := strings.IndexByte(seg, '['); i >= 0 && strings.HasSuffix(seg, "]") {
			name = seg[:i]
			n, err := strconv.Atoi(seg[i+1 : len(seg)-1])
			if err != nil || n < 0 {
				return nil
			}
			idx = n
		}

		obj, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v, ok = obj[name]
		if !ok {
			return nil
		}

		if idx >= 0 {
			arr, ok := v.([]any)
			if !ok || idx >= len(arr) {
				return nil
			}
			v = arr[idx]
		}
	}
	return v
}
