package series

import (
	"math"
	"testing"
	"time"
)

func TestDailySummaryEmpty(t *testing.T) {
	out := DailySummary(New(TimeLocalNaive))
	if !out.Empty() {
		t.Fatalf("expected empty summary for empty series")
	}
}

func TestDailySummarySingleDay(t *testing.T) {
	s := New(TimeLocalNaive)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s.Times = []time.Time{day.Add(6 * time.Hour), day.Add(12 * time.Hour), day.Add(18 * time.Hour)}
	s.AddColumn(ColTemperature, []float64{70, 72, 68})
	s.AddColumn(ColPrecip, []float64{0, 1.0, 0})
	s.AddColumn(ColWindSpeed, []float64{2, 4, 6})

	out := DailySummary(s)

	if out.Len() != 1 {
		t.Fatalf("expected 1 day, got %d", out.Len())
	}
	if !out.Times[0].Equal(day) {
		t.Fatalf("expected day %v, got %v", day, out.Times[0])
	}
	checks := map[string]float64{
		"temperature_2m_mean": 70,
		"temperature_2m_min":  68,
		"temperature_2m_max":  72,
		"precipitation_sum":   1.0,
		"wind_speed_10m_mean": 4,
	}
	for name, want := range checks {
		col := out.Column(name)
		if col == nil {
			t.Fatalf("missing column %s", name)
		}
		if col[0] != want {
			t.Fatalf("%s: expected %v, got %v", name, want, col[0])
		}
	}
}

func TestDailySummaryGroupsByCalendarDay(t *testing.T) {
	s := New(TimeLocalNaive)
	s.Times = []time.Time{
		time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC),
	}
	s.AddColumn(ColTemperature, []float64{50, 60, 70})

	out := DailySummary(s)
	if out.Len() != 2 {
		t.Fatalf("expected 2 days, got %d", out.Len())
	}
	means := out.Column("temperature_2m_mean")
	if means[0] != 50 || means[1] != 65 {
		t.Fatalf("expected means [50 65], got %v", means)
	}
}

func TestDailySummaryAllMissingDayKeepsRow(t *testing.T) {
	s := New(TimeLocalNaive)
	s.Times = []time.Time{
		time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC),
	}
	s.AddColumn(ColTemperature, []float64{math.NaN(), math.NaN()})
	s.AddColumn(ColPrecip, []float64{math.NaN(), math.NaN()})

	out := DailySummary(s)
	if out.Len() != 1 {
		t.Fatalf("expected the all-missing day to keep its row, got %d rows", out.Len())
	}
	if mean := out.Column("temperature_2m_mean")[0]; !math.IsNaN(mean) {
		t.Fatalf("expected NaN mean for all-missing day, got %v", mean)
	}
	if sum := out.Column("precipitation_sum")[0]; sum != 0 {
		t.Fatalf("expected 0 precipitation sum for all-missing day, got %v", sum)
	}
}

func TestDailySummarySkipsMissingValues(t *testing.T) {
	s := New(TimeLocalNaive)
	s.Times = []time.Time{
		time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC),
	}
	s.AddColumn(ColTemperature, []float64{60, math.NaN(), 70})

	out := DailySummary(s)
	if mean := out.Column("temperature_2m_mean")[0]; mean != 65 {
		t.Fatalf("expected NaN-skipping mean 65, got %v", mean)
	}
}
