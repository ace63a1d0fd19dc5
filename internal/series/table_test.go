package series

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestToTableFlattensIndex(t *testing.T) {
	s := New(TimeUTC)
	s.Times = []time.Time{time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s.AddColumn(ColTemperature, []float64{70})

	tbl := ToTable(s)

	if len(tbl.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(tbl.Columns))
	}
	if tbl.Columns[0].Name != "time" || tbl.Columns[0].Type != ColTimestamp {
		t.Fatalf("expected leading timestamp column named time, got %+v", tbl.Columns[0])
	}
	if tbl.Columns[1].Name != ColTemperature || tbl.Columns[1].Type != ColNumeric {
		t.Fatalf("expected numeric measurement column, got %+v", tbl.Columns[1])
	}
}

func TestSanitizeStripsTimezone(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	tbl := Table{Columns: []Column{{
		Name:  "observed",
		Type:  ColTimestamp,
		Times: []time.Time{time.Date(2025, 6, 1, 6, 0, 0, 0, denver)},
	}}}

	out := Sanitize(tbl)

	got := out.Columns[0].Times[0]
	if got.Location() != time.UTC {
		t.Fatalf("expected zone annotation stripped, got %v", got.Location())
	}
	if got.Hour() != 6 {
		t.Fatalf("expected wall clock preserved (06:00), got %v", got)
	}
}

func TestSanitizePromotesMostlyTimestampText(t *testing.T) {
	// 9 of 10 values parse: 90% >= 80%, so the column promotes.
	texts := []string{
		"2025-06-01T00:00", "2025-06-01T01:00", "2025-06-01T02:00",
		"2025-06-01T03:00", "2025-06-01T04:00", "2025-06-01T05:00",
		"2025-06-01T06:00", "2025-06-01T07:00", "2025-06-01T08:00",
		"not a date",
	}
	tbl := Table{Columns: []Column{{Name: "when", Type: ColText, Texts: texts}}}

	out := Sanitize(tbl)

	col := out.Columns[0]
	if col.Type != ColTimestamp {
		t.Fatalf("expected promotion to timestamp, got %v", col.Type)
	}
	if !col.Times[9].IsZero() {
		t.Fatalf("expected unparsable entry to become missing, got %v", col.Times[9])
	}
	if col.Times[0].Hour() != 0 || col.Times[8].Hour() != 8 {
		t.Fatalf("unexpected parsed values: %v ... %v", col.Times[0], col.Times[8])
	}
}

func TestSanitizeKeepsMostlyPlainText(t *testing.T) {
	texts := []string{"clear", "cloudy", "rain", "2025-06-01"}
	tbl := Table{Columns: []Column{{Name: "condition", Type: ColText, Texts: texts}}}

	out := Sanitize(tbl)
	if out.Columns[0].Type != ColText {
		t.Fatalf("expected column to stay text below the 80%% threshold, got %v", out.Columns[0].Type)
	}
}

func TestTableJSONEncodesNaNAsNull(t *testing.T) {
	tbl := Table{Columns: []Column{{
		Name:   ColTemperature,
		Type:   ColNumeric,
		Floats: []float64{70, math.NaN()},
	}}}

	data, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "[70,null]") {
		t.Fatalf("expected NaN encoded as null, got %s", data)
	}
}

func TestTableJSONTimestampsHaveNoZone(t *testing.T) {
	tbl := Table{Columns: []Column{{
		Name:  "time",
		Type:  ColTimestamp,
		Times: []time.Time{time.Date(2025, 6, 1, 6, 30, 0, 0, time.UTC)},
	}}}

	data, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"2025-06-01T06:30:00"`) {
		t.Fatalf("expected zone-free timestamp string, got %s", data)
	}
	if strings.Contains(string(data), "Z\"") {
		t.Fatalf("timestamp leaked a zone designator: %s", data)
	}
}
