package series

import (
	"math"
	"time"
)

// dailyStats maps each aggregated measurement to its statistics, in
// output order. Flattened column names follow `<measurement>_<stat>`
// (temperature_2m_mean, precipitation_sum, ...) and are stable across
// runs.
var dailyStats = []struct {
	col   string
	stats []string
}{
	{ColTemperature, []string{"mean", "min", "max"}},
	{ColPrecip, []string{"sum"}},
	{ColWindSpeed, []string{"mean"}},
}

// DailySummary resamples a local-naive hourly series to daily
// granularity: temperature mean/min/max, precipitation sum, wind-speed
// mean. Days are local calendar days from the series index; a day whose
// hourly values are all missing still contributes a row (NaN for
// mean/min/max, 0 for the precipitation sum). An
// empty series yields an empty summary. Measurements absent from the
// source are skipped.
func DailySummary(s Series) Series {
	out := New(s.State)
	if s.Empty() {
		return out
	}

	days := make([]time.Time, 0)
	rowsByDay := make(map[time.Time][]int)
	for i, t := range s.Times {
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := rowsByDay[day]; !ok {
			days = append(days, day)
		}
		rowsByDay[day] = append(rowsByDay[day], i)
	}

	out.Times = days
	for _, agg := range dailyStats {
		col := s.Column(agg.col)
		if col == nil {
			continue
		}
		for _, stat := range agg.stats {
			vals := make([]float64, len(days))
			for di, day := range days {
				vals[di] = aggregate(col, rowsByDay[day], stat)
			}
			out.AddColumn(agg.col+"_"+stat, vals)
		}
	}
	return out
}

// aggregate computes one statistic over the given rows, skipping NaN.
// No valid values yields NaN.
func aggregate(col []float64, rows []int, stat string) float64 {
	var sum, minV, maxV float64
	n := 0
	for _, r := range rows {
		v := col[r]
		if math.IsNaN(v) {
			continue
		}
		if n == 0 {
			minV, maxV = v, v
		} else {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
		sum += v
		n++
	}
	if n == 0 {
		if stat == "sum" {
			return 0
		}
		return math.NaN()
	}
	switch stat {
	case "mean":
		return sum / float64(n)
	case "min":
		return minV
	case "max":
		return maxV
	case "sum":
		return sum
	}
	return math.NaN()
}
