package series

import "time"

// Localize shifts a UTC-indexed series into the target zone and strips
// the zone annotation: each instant becomes its local wall-clock value
// re-anchored in UTC, and the series is marked local-naive. The UTC
// offset is discarded and must not be reconstructed downstream. An
// empty series is returned unchanged.
func (s Series) Localize(loc *time.Location) Series {
	if s.Empty() {
		out := s
		out.State = TimeLocalNaive
		return out
	}

	out := Series{
		Times:   make([]time.Time, len(s.Times)),
		Columns: s.Columns,
		Order:   s.Order,
		State:   TimeLocalNaive,
	}
	for i, t := range s.Times {
		lt := t.In(loc)
		out.Times[i] = time.Date(lt.Year(), lt.Month(), lt.Day(),
			lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), time.UTC)
	}
	return out
}
