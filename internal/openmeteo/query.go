package openmeteo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/obsmine/weather-obs-pipeline/internal/series"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// Unit choices sent with every request. The temperature unit label is
// the single source of truth for UI axis labels: a displayed unit that
// disagrees with the requested unit is a defect, so downstream
// consumers must derive labels from TemperatureUnitLabel instead of
// hard-coding one.
const (
	WindSpeedUnit        = "ms"
	PrecipitationUnit    = "mm"
	TemperatureUnit      = "fahrenheit"
	TemperatureUnitLabel = "°F"
	WindSpeedUnitLabel   = "m/s"
)

// HourlyMeasurements is the fixed set of hourly measurements requested
// from the provider.
var HourlyMeasurements = []string{
	series.ColTemperature,
	series.ColHumidity,
	series.ColPrecip,
	series.ColWindSpeed,
	series.ColWindGusts,
}

// Query is the immutable descriptor of one hourly-observation request:
// coordinates plus the lookback window in days. It fully determines
// both the outbound request and the cache key. Construction is pure;
// out-of-range lookbacks are the caller's problem to clamp or reject.
type Query struct {
	Latitude     float64
	Longitude    float64
	LookbackDays int
}

// PastHours returns the lookback window in hours.
func (q Query) PastHours() int { return q.LookbackDays * 24 }

// URL builds the provider request: the hourly measurement list, a UTC
// timezone, past_hours for the lookback, zero forward-looking hours,
// and explicit unit choices.
func (q Query) URL(baseURL string) string {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%v", q.Latitude))
	values.Set("longitude", fmt.Sprintf("%v", q.Longitude))
	values.Set("hourly", strings.Join(HourlyMeasurements, ","))
	values.Set("timezone", "UTC")
	values.Set("past_hours", fmt.Sprintf("%d", q.PastHours()))
	values.Set("forecast_hours", "0")
	values.Set("wind_speed_unit", WindSpeedUnit)
	values.Set("precipitation_unit", PrecipitationUnit)
	values.Set("temperature_unit", TemperatureUnit)
	return fmt.Sprintf("%s?%s", baseURL, values.Encode())
}
