package series

import (
	"encoding/json"
	"math"
	"time"
)

// ColumnType enumerates the renderer-safe column types.
type ColumnType string

const (
	ColNumeric   ColumnType = "number"
	ColText      ColumnType = "text"
	ColTimestamp ColumnType = "timestamp"
)

// Column is one typed column of a display-safe table. Exactly one of
// the value slices is populated, matching Type.
type Column struct {
	Name   string
	Type   ColumnType
	Floats []float64
	Texts  []string
	Times  []time.Time
}

// Table is a display-safe tabular result: every column is numeric,
// plain text, or a timezone-free timestamp, so a generic tabular
// renderer can serialize it without type surprises.
type Table struct {
	Columns []Column
}

// naiveLayout formats timestamps without a zone designator.
const naiveLayout = "2006-01-02T15:04:05"

// ToTable flattens a series into a table: the index becomes an explicit
// leading "time" column (zone annotation stripped), followed by one
// numeric column per measurement in series order.
func ToTable(s Series) Table {
	t := Table{}
	times := make([]time.Time, len(s.Times))
	for i, ts := range s.Times {
		times[i] = stripZone(ts)
	}
	t.Columns = append(t.Columns, Column{Name: "time", Type: ColTimestamp, Times: times})
	for _, name := range s.Order {
		t.Columns = append(t.Columns, Column{Name: name, Type: ColNumeric, Floats: s.Columns[name]})
	}
	return t
}

// Sanitize coerces every column of a table to a renderer-safe type.
// Timestamp columns have their zone annotation stripped. A text column
// whose values are at least 80% parseable as timestamps is promoted to
// a timestamp column; a column that resists safe coercion stays plain
// text. Sanitize never fails — coercion problems degrade the column
// type instead of surfacing an error.
func Sanitize(t Table) Table {
	out := Table{Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = sanitizeColumn(c)
	}
	return out
}

func sanitizeColumn(c Column) Column {
	switch c.Type {
	case ColTimestamp:
		times := make([]time.Time, len(c.Times))
		for i, ts := range c.Times {
			times[i] = stripZone(ts)
		}
		return Column{Name: c.Name, Type: ColTimestamp, Times: times}
	case ColText:
		if parsed, ok := promoteToTimestamps(c.Texts); ok {
			return Column{Name: c.Name, Type: ColTimestamp, Times: parsed}
		}
		return c
	case ColNumeric:
		return c
	}
	// Unknown column type: force plain text rather than fail.
	return Column{Name: c.Name, Type: ColText, Texts: c.Texts}
}

// promoteToTimestamps parses a text column as timestamps. Promotion
// happens only when at least 80% of the values parse; unparsable
// entries in a promoted column become zero times.
func promoteToTimestamps(texts []string) ([]time.Time, bool) {
	if len(texts) == 0 {
		return nil, false
	}
	parsed := make([]time.Time, len(texts))
	ok := 0
	for i, s := range texts {
		if ts, err := parseTimestamp(s); err == nil {
			parsed[i] = stripZone(ts)
			ok++
		}
	}
	threshold := int(math.Ceil(0.8 * float64(len(texts))))
	if threshold < 1 {
		threshold = 1
	}
	if ok < threshold {
		return nil, false
	}
	return parsed, true
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// stripZone keeps the wall-clock reading and drops the offset.
func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// MarshalJSON renders a column as {name, type, values}. NaN floats and
// zero times become null so the output is always valid JSON.
func (c Column) MarshalJSON() ([]byte, error) {
	var values []any
	switch c.Type {
	case ColNumeric:
		values = make([]any, len(c.Floats))
		for i, v := range c.Floats {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				values[i] = nil
			} else {
				values[i] = v
			}
		}
	case ColTimestamp:
		values = make([]any, len(c.Times))
		for i, ts := range c.Times {
			if ts.IsZero() {
				values[i] = nil
			} else {
				values[i] = ts.Format(naiveLayout)
			}
		}
	default:
		values = make([]any, len(c.Texts))
		for i, s := range c.Texts {
			values[i] = s
		}
	}
	return json.Marshal(struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Values []any  `json:"values"`
	}{Name: c.Name, Type: string(c.Type), Values: values})
}

// MarshalJSON renders the table as {"columns": [...]}.
func (t Table) MarshalJSON() ([]byte, error) {
	cols := t.Columns
	if cols == nil {
		cols = []Column{}
	}
	return json.Marshal(struct {
		Columns []Column `json:"columns"`
	}{Columns: cols})
}
