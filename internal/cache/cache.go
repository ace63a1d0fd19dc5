// Package cache persists normalized UTC observation series, one file
// per location, as a last-known-good snapshot for when the fetch fails.
package cache

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/obsmine/weather-obs-pipeline/internal/series"
)

// Store writes and reads per-location cache files under a fixed
// directory. Single writer per location is assumed; Save goes through a
// temp file + rename so a concurrent reader never sees a torn file, but
// there is no locking beyond that.
type Store struct {
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the cache file for a location. Coordinates are rounded
// to 4 decimals so repeated runs against the same configured location
// always hit the same record.
func (s *Store) Path(lat, lon float64) string {
	return filepath.Join(s.dir, fmt.Sprintf("weather_%.4f_%.4f.csv", lat, lon))
}

// Save persists a UTC-indexed series, replacing any prior record for
// the location wholesale. The cache is a snapshot, not a history.
func (s *Store) Save(sr series.Series, lat, lon float64) error {
	tmp, err := os.CreateTemp(s.dir, "weather_*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	header := append([]string{"time"}, sr.Order...)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache header: %w", err)
	}
	row := make([]string, len(header))
	for i, ts := range sr.Times {
		row[0] = ts.UTC().Format(time.RFC3339)
		for ci, name := range sr.Order {
			v := sr.Columns[name][i]
			if math.IsNaN(v) {
				row[ci+1] = ""
			} else {
				row[ci+1] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(lat, lon)); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// Load returns the last persisted series for the location, or an empty
// series when no record exists. Stored timestamps lose their zone
// annotation in CSV, so they are reinterpreted as UTC on the way back.
func (s *Store) Load(lat, lon float64) (series.Series, error) {
	out := series.New(series.TimeUTC)

	f, err := os.Open(s.Path(lat, lon))
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return out, fmt.Errorf("read cache file: %w", err)
	}
	if len(records) < 1 {
		return out, nil
	}

	header := records[0]
	if len(header) == 0 || header[0] != "time" {
		return out, fmt.Errorf("cache file %s has no time column", s.Path(lat, lon))
	}
	cols := make([][]float64, len(header)-1)

	for _, rec := range records[1:] {
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			continue
		}
		out.Times = append(out.Times, ts.UTC())
		for ci := range cols {
			v := math.NaN()
			if ci+1 < len(rec) && rec[ci+1] != "" {
				if f, err := strconv.ParseFloat(rec[ci+1], 64); err == nil {
					v = f
				}
			}
			cols[ci] = append(cols[ci], v)
		}
	}
	for ci, name := range header[1:] {
		vals := cols[ci]
		if vals == nil {
			vals = []float64{}
		}
		out.AddColumn(name, vals)
	}
	return out.Normalize(), nil
}
