// Package pipeline drives one observation run: fetch, normalize, cache,
// localize, aggregate, score, and sanitize for display.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/obsmine/weather-obs-pipeline/internal/openmeteo"
	"github.com/obsmine/weather-obs-pipeline/internal/series"
)

// ErrNoData is returned when neither a fresh fetch nor the cache can
// supply any observations. Terminal for the run; the caller surfaces an
// explicit "no data" state.
var ErrNoData = errors.New("no weather data available")

// Location is a named fixed point the pipeline tracks.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Fetcher abstracts the remote provider client.
type Fetcher interface {
	FetchHourly(ctx context.Context, q openmeteo.Query) (*openmeteo.HourlyPayload, string, error)
}

// Store abstracts the per-location cache.
type Store interface {
	Save(s series.Series, lat, lon float64) error
	Load(lat, lon float64) (series.Series, error)
}

// Result carries the four display-safe outputs of one run plus
// diagnostics. All tables have passed the display sanitizer.
type Result struct {
	RunID    string `json:"run_id"`
	QueryURL string `json:"query_url"`

	// FromCache is set when the fetch failed and the cached snapshot
	// was served instead; Diagnostic then holds the fetch error.
	FromCache  bool   `json:"from_cache"`
	Diagnostic string `json:"diagnostic,omitempty"`

	// Hourly is the full localized series; Recent its last 24 rows.
	Hourly  series.Table `json:"hourly"`
	Recent  series.Table `json:"recent"`
	Daily   series.Table `json:"daily"`
	Anomaly series.Table `json:"anomaly"`
}

// Pipeline owns one provider client, one cache store, and the fixed
// target timezone. Each Run is synchronous: one bounded network call,
// then in-memory transforms, then at most one cache write.
type Pipeline struct {
	fetcher       Fetcher
	cache         Store
	localTZ       *time.Location
	anomalyWindow int
}

// New constructs a Pipeline. A non-positive anomalyWindow falls back to
// the 24-sample default.
func New(fetcher Fetcher, cache Store, localTZ *time.Location, anomalyWindow int) *Pipeline {
	if anomalyWindow <= 0 {
		anomalyWindow = 24
	}
	return &Pipeline{
		fetcher:       fetcher,
		cache:         cache,
		localTZ:       localTZ,
		anomalyWindow: anomalyWindow,
	}
}

// AnomalyWindow returns the default rolling window size.
func (p *Pipeline) AnomalyWindow() int { return p.anomalyWindow }

// Run executes one full pipeline pass for a location. On fetch failure
// it falls back to the cached snapshot without writing the cache; when
// the fallback is also empty the run fails with ErrNoData. A successful
// fetch with an empty hourly block is a valid degenerate outcome: the
// result simply holds empty tables.
func (p *Pipeline) Run(ctx context.Context, loc Location, days int) (*Result, error) {
	return p.run(ctx, loc, days, p.anomalyWindow)
}

// RunWithWindow is Run with an explicit anomaly window size.
func (p *Pipeline) RunWithWindow(ctx context.Context, loc Location, days, window int) (*Result, error) {
	if window <= 0 {
		window = p.anomalyWindow
	}
	return p.run(ctx, loc, days, window)
}

func (p *Pipeline) run(ctx context.Context, loc Location, days, window int) (*Result, error) {
	runID := uuid.NewString()
	q := openmeteo.Query{Latitude: loc.Latitude, Longitude: loc.Longitude, LookbackDays: days}

	res := &Result{RunID: runID}

	utc, queryURL, fetchErr := p.fetch(ctx, q)
	res.QueryURL = queryURL
	if fetchErr != nil {
		log.Printf("pipeline: run %s fetch failed for %s: %v; falling back to cache", runID, loc.Name, fetchErr)
		cached, err := p.cache.Load(loc.Latitude, loc.Longitude)
		if err != nil {
			log.Printf("pipeline: run %s cache load failed for %s: %v", runID, loc.Name, err)
		}
		if cached.Empty() {
			return nil, fmt.Errorf("fetch failed (%v) and cache is empty for %s: %w", fetchErr, loc.Name, ErrNoData)
		}
		res.FromCache = true
		res.Diagnostic = fetchErr.Error()
		utc = cached
	} else if err := p.cache.Save(utc, loc.Latitude, loc.Longitude); err != nil {
		// A failed cache write degrades the next fallback, not this run.
		log.Printf("pipeline: run %s cache save failed for %s: %v", runID, loc.Name, err)
	}

	local := utc.Localize(p.localTZ)

	res.Hourly = series.Sanitize(series.ToTable(local))
	res.Recent = series.Sanitize(series.ToTable(local.Tail(24)))
	res.Daily = series.Sanitize(series.ToTable(series.DailySummary(local)))
	res.Anomaly = series.Sanitize(series.ToTable(anomalySeries(local, window)))

	return res, nil
}

func (p *Pipeline) fetch(ctx context.Context, q openmeteo.Query) (series.Series, string, error) {
	payload, queryURL, err := p.fetcher.FetchHourly(ctx, q)
	if err != nil {
		return series.New(series.TimeUTC), queryURL, err
	}
	return openmeteo.HourlyToSeries(payload), queryURL, nil
}

// anomalySeries pairs the temperature column with its rolling z-score,
// aligned on the source index. A series without a temperature column
// yields an empty result.
func anomalySeries(local series.Series, window int) series.Series {
	out := series.New(local.State)
	temps := local.Column(series.ColTemperature)
	if local.Empty() || temps == nil {
		return out
	}
	out.Times = local.Times
	out.AddColumn(series.ColTemperature, temps)
	zName := fmt.Sprintf("%s_z%d", series.ColTemperature, window)
	out.AddColumn(zName, series.RollingZScore(temps, window))
	return out
}
