package series

import (
	"math"
	"sort"
	"time"
)

// Measurement column names as delivered by the hourly provider. The
// daily summary and anomaly outputs derive their column names from
// these, so they must stay stable across runs.
const (
	ColTemperature = "temperature_2m"
	ColHumidity    = "relative_humidity_2m"
	ColPrecip      = "precipitation"
	ColWindSpeed   = "wind_speed_10m"
	ColWindGusts   = "wind_gusts_10m"
)

// TimeState records the timezone semantics of a series index.
type TimeState int

const (
	// TimeUTC marks an index of UTC-aware instants.
	TimeUTC TimeState = iota
	// TimeLocalNaive marks an index of local wall-clock values with the
	// original UTC offset discarded. Go has no zone-free time, so naive
	// values are re-anchored in UTC and must not be converted back.
	TimeLocalNaive
)

// Series is an hourly observation series: an ordered timestamp index
// plus named numeric columns. Missing values are NaN; a column is
// numeric-or-missing, never mixed with non-numeric tokens.
type Series struct {
	Times   []time.Time
	Columns map[string][]float64
	// Order preserves column order for cache files and tables.
	Order []string
	State TimeState
}

// New returns an empty series in the given time state.
func New(state TimeState) Series {
	return Series{Columns: make(map[string][]float64), State: state}
}

// Empty reports whether the series has no rows.
func (s Series) Empty() bool { return len(s.Times) == 0 }

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Times) }

// Column returns the named column, or nil if absent.
func (s Series) Column(name string) []float64 { return s.Columns[name] }

// AddColumn appends a column, replacing any existing column of the same
// name. The slice length must match the index length.
func (s *Series) AddColumn(name string, values []float64) {
	if s.Columns == nil {
		s.Columns = make(map[string][]float64)
	}
	if _, ok := s.Columns[name]; !ok {
		s.Order = append(s.Order, name)
	}
	s.Columns[name] = values
}

// Normalize sorts rows ascending by timestamp and drops duplicate
// timestamps, keeping the last occurrence. The result has a strictly
// increasing index. Normalizing an already-normalized series is a
// no-op.
func (s Series) Normalize() Series {
	if s.Empty() {
		return s
	}

	idx := make([]int, len(s.Times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Times[idx[a]].Before(s.Times[idx[b]])
	})

	// Last write wins: for equal timestamps the stable sort keeps input
	// order, so the final index of each run is the survivor.
	kept := make([]int, 0, len(idx))
	for i, row := range idx {
		if i+1 < len(idx) && s.Times[idx[i+1]].Equal(s.Times[row]) {
			continue
		}
		kept = append(kept, row)
	}

	out := Series{
		Times:   make([]time.Time, len(kept)),
		Columns: make(map[string][]float64, len(s.Columns)),
		Order:   append([]string(nil), s.Order...),
		State:   s.State,
	}
	for i, row := range kept {
		out.Times[i] = s.Times[row]
	}
	for name, col := range s.Columns {
		vals := make([]float64, len(kept))
		for i, row := range kept {
			if row < len(col) {
				vals[i] = col[row]
			} else {
				vals[i] = math.NaN()
			}
		}
		out.Columns[name] = vals
	}
	return out
}

// Tail returns the last n rows (all rows when n exceeds the length).
func (s Series) Tail(n int) Series {
	if n >= s.Len() {
		return s
	}
	start := s.Len() - n
	out := Series{
		Times:   s.Times[start:],
		Columns: make(map[string][]float64, len(s.Columns)),
		Order:   s.Order,
		State:   s.State,
	}
	for name, col := range s.Columns {
		out.Columns[name] = col[start:]
	}
	return out
}
