package openmeteo

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/obsmine/weather-obs-pipeline/internal/series"
)

// hourlyTimeLayouts covers the timestamp formats the provider emits
// with timezone=UTC.
var hourlyTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// HourlyToSeries converts a raw hourly payload into a normalized
// UTC-indexed series. An absent or empty hourly block yields an empty
// series, not an error. Rows with unparsable timestamps are dropped,
// rows are sorted ascending, and every measurement value is coerced to
// a float64 — non-numeric tokens become NaN. Re-parsing output that is
// already normalized would change nothing.
func HourlyToSeries(p *HourlyPayload) series.Series {
	out := series.New(series.TimeUTC)
	if p == nil || len(p.Hourly) == 0 {
		return out
	}
	rawTimes, ok := p.Hourly["time"]
	if !ok || len(rawTimes) == 0 {
		return out
	}

	// Row indices whose timestamp parses; everything else is dropped.
	kept := make([]int, 0, len(rawTimes))
	times := make([]time.Time, 0, len(rawTimes))
	for i, raw := range rawTimes {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		ts, err := parseHourlyTime(str)
		if err != nil {
			continue
		}
		kept = append(kept, i)
		times = append(times, ts)
	}
	if len(kept) == 0 {
		return out
	}
	out.Times = times

	for _, name := range measurementOrder(p.Hourly) {
		raw := p.Hourly[name]
		vals := make([]float64, len(kept))
		for vi, i := range kept {
			if i < len(raw) {
				vals[vi] = coerceNumeric(raw[i])
			} else {
				vals[vi] = math.NaN()
			}
		}
		out.AddColumn(name, vals)
	}

	return out.Normalize()
}

// measurementOrder lists payload columns in a deterministic order: the
// requested measurements first, any extras sorted after.
func measurementOrder(hourly map[string][]any) []string {
	order := make([]string, 0, len(hourly))
	seen := make(map[string]bool, len(hourly))
	for _, name := range HourlyMeasurements {
		if _, ok := hourly[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}
	extra := make([]string, 0)
	for name := range hourly {
		if name == "time" || seen[name] {
			continue
		}
		extra = append(extra, name)
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func parseHourlyTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range hourlyTimeLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// coerceNumeric turns a decoded JSON value into a float64, mapping
// anything non-numeric to NaN.
func coerceNumeric(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
