// Package weather fetches and parses current conditions from the
// OpenWeatherMap current-weather endpoint.
package weather

import (
	"fmt"
	"net/url"
	"strconv"
)

// DefaultBaseURL is the OpenWeatherMap current weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// DefaultCityID is Irvine, CA.
const DefaultCityID = 5359777

// Reading is one parsed set of current conditions. It is produced per fetch
// and not retained.
type Reading struct {
	Description string
	TempF       int
	PressureHPa int
	HumidityPct int
	WindMph     int
	Valid       bool

	// Missing lists the field paths absent from the body. Their values
	// above hold typed defaults.
	Missing []string
}

// Location selects the place to query: a city ID, or coordinates when
// CityID is zero.
type Location struct {
	CityID uint32
	Lat    float64
	Lon    float64
}

// URL builds the request URL for loc, in imperial units.
func URL(base string, loc Location, apiKey string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse weather url: %w", err)
	}
	q := u.Query()
	if loc.CityID != 0 {
		q.Set("id", strconv.FormatUint(uint64(loc.CityID), 10))
	} else {
		q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	}
	q.Set("appid", apiKey)
	q.Set("units", "imperial")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
