package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/obsmine/weather-obs-pipeline/internal/openmeteo"
	"github.com/obsmine/weather-obs-pipeline/internal/series"
)

type fakeFetcher struct {
	payload *openmeteo.HourlyPayload
	err     error
	calls   int
}

func (f *fakeFetcher) FetchHourly(ctx context.Context, q openmeteo.Query) (*openmeteo.HourlyPayload, string, error) {
	f.calls++
	return f.payload, q.URL(""), f.err
}

type fakeStore struct {
	stored series.Series
	saves  int
	loads  int
}

func (s *fakeStore) Save(sr series.Series, lat, lon float64) error {
	s.saves++
	s.stored = sr
	return nil
}

func (s *fakeStore) Load(lat, lon float64) (series.Series, error) {
	s.loads++
	return s.stored, nil
}

var testLoc = Location{Name: "Grand Junction, CO", Latitude: 39.0639, Longitude: -108.5506}

func hourlyPayload(n int) *openmeteo.HourlyPayload {
	times := make([]any, n)
	temps := make([]any, n)
	precip := make([]any, n)
	wind := make([]any, n)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		times[i] = base.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04")
		temps[i] = 60.0 + float64(i%10)
		precip[i] = 0.0
		wind[i] = 3.0
	}
	return &openmeteo.HourlyPayload{Hourly: map[string][]any{
		"time":                times,
		series.ColTemperature: temps,
		series.ColPrecip:      precip,
		series.ColWindSpeed:   wind,
	}}
}

func tableRows(t series.Table) int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Times)
}

func TestRunSuccessWritesCache(t *testing.T) {
	fetcher := &fakeFetcher{payload: hourlyPayload(48)}
	store := &fakeStore{}
	p := New(fetcher, store, time.UTC, 24)

	res, err := p.Run(context.Background(), testLoc, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.saves != 1 {
		t.Fatalf("expected one cache write, got %d", store.saves)
	}
	if res.FromCache {
		t.Fatalf("fresh fetch must not be marked from-cache")
	}
	if res.Diagnostic != "" {
		t.Fatalf("fresh fetch must not carry a diagnostic, got %q", res.Diagnostic)
	}
	if res.QueryURL == "" {
		t.Fatalf("expected the query URL for diagnostics")
	}
	if res.RunID == "" {
		t.Fatalf("expected a run ID")
	}
	if got := tableRows(res.Hourly); got != 48 {
		t.Fatalf("expected 48 hourly rows, got %d", got)
	}
	if got := tableRows(res.Recent); got != 24 {
		t.Fatalf("expected recent samples capped at 24 rows, got %d", got)
	}
	if got := tableRows(res.Daily); got != 2 {
		t.Fatalf("expected 2 daily rows, got %d", got)
	}
	if got := tableRows(res.Anomaly); got != 48 {
		t.Fatalf("expected anomaly series aligned with source (48 rows), got %d", got)
	}
}

func TestRunFetchFailureFallsBackToCache(t *testing.T) {
	cached := openmeteo.HourlyToSeries(hourlyPayload(24))
	fetcher := &fakeFetcher{err: &openmeteo.TransportError{Err: errors.New("connection refused")}}
	store := &fakeStore{stored: cached}
	p := New(fetcher, store, time.UTC, 24)

	res, err := p.Run(context.Background(), testLoc, 7)
	if err != nil {
		t.Fatalf("expected cached fallback, got error: %v", err)
	}

	if !res.FromCache {
		t.Fatalf("expected result marked from-cache")
	}
	if res.Diagnostic == "" {
		t.Fatalf("expected a fetch-failure diagnostic")
	}
	if store.saves != 0 {
		t.Fatalf("fallback run must not write the cache, got %d writes", store.saves)
	}
	if got := tableRows(res.Hourly); got != 24 {
		t.Fatalf("expected the cached series served unchanged (24 rows), got %d", got)
	}
}

func TestRunFetchFailureEmptyCacheIsNoData(t *testing.T) {
	fetcher := &fakeFetcher{err: &openmeteo.RemoteError{StatusCode: 503}}
	store := &fakeStore{stored: series.New(series.TimeUTC)}
	p := New(fetcher, store, time.UTC, 24)

	_, err := p.Run(context.Background(), testLoc, 7)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestRunEmptyHourlyBlockIsDegenerate(t *testing.T) {
	fetcher := &fakeFetcher{payload: &openmeteo.HourlyPayload{Hourly: map[string][]any{}}}
	store := &fakeStore{}
	p := New(fetcher, store, time.UTC, 24)

	res, err := p.Run(context.Background(), testLoc, 7)
	if err != nil {
		t.Fatalf("empty hourly block is a valid outcome, got error: %v", err)
	}
	if got := tableRows(res.Hourly); got != 0 {
		t.Fatalf("expected empty hourly table, got %d rows", got)
	}
	if got := tableRows(res.Daily); got != 0 {
		t.Fatalf("expected empty daily table, got %d rows", got)
	}
	if got := tableRows(res.Anomaly); got != 0 {
		t.Fatalf("expected empty anomaly table, got %d rows", got)
	}
}

func TestRunLocalizesIndex(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	fetcher := &fakeFetcher{payload: hourlyPayload(24)}
	p := New(fetcher, &fakeStore{}, denver, 24)

	res, err := p.Run(context.Background(), testLoc, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// First sample is 2025-06-01T00:00 UTC = 2025-05-31 18:00 in Denver.
	first := res.Hourly.Columns[0].Times[0]
	if first.Day() != 31 || first.Hour() != 18 {
		t.Fatalf("expected localized wall clock May 31 18:00, got %v", first)
	}
}
