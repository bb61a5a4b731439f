package models

import (
	"fmt"
	"math"
	"time"
)

const (
	MinYear = 2000
	MaxYear = 2019
)

// DefaultYears is the window shown before the user moves the slider
var DefaultYears = YearRange{Begin: 2004, End: 2005}

// YearRange is an inclusive range of calendar years
type YearRange struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// Validate checks ordering and the supported slider bounds
func (y YearRange) Validate() error {
	if y.Begin > y.End {
		return &ValidationError{
			Field:   "years",
			Value:   fmt.Sprintf("%d-%d", y.Begin, y.End),
			Message: "begin year must not be after end year",
		}
	}
	if y.Begin < MinYear || y.End > MaxYear {
		return &ValidationError{
			Field:   "years",
			Value:   fmt.Sprintf("%d-%d", y.Begin, y.End),
			Message: fmt.Sprintf("years must be between %d and %d", MinYear, MaxYear),
		}
	}
	return nil
}

// Contains reports whether t falls in a year within the range, inclusive
func (y YearRange) Contains(t time.Time) bool {
	year := t.Year()
	return year >= y.Begin && year <= y.End
}

// Point is one dated value of a series
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeSeriesTable is a date-indexed table with one column per station code.
// Missing cells hold NaN. Dates are strictly increasing and the table is
// never mutated after construction.
type TimeSeriesTable struct {
	dates   []time.Time
	order   []string
	columns map[string][]float64
}

// NewTimeSeriesTable builds a table from row-major values.
// values[i][j] is the value of columns[j] on dates[i].
func NewTimeSeriesTable(dates []time.Time, columns []string, values [][]float64) (*TimeSeriesTable, error) {
	if len(values) != len(dates) {
		return nil, fmt.Errorf("table has %d dates but %d rows", len(dates), len(values))
	}

	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, &ValidationError{
				Field:   "date",
				Value:   dates[i].Format(DateLayout),
				Message: fmt.Sprintf("dates must be strictly increasing: %s follows %s", dates[i].Format(DateLayout), dates[i-1].Format(DateLayout)),
			}
		}
	}

	t := &TimeSeriesTable{
		dates:   append([]time.Time(nil), dates...),
		order:   make([]string, 0, len(columns)),
		columns: make(map[string][]float64, len(columns)),
	}

	for j, code := range columns {
		if _, dup := t.columns[code]; dup {
			return nil, &ValidationError{Field: "column", Value: code, Message: "duplicate column " + code}
		}
		col := make([]float64, len(dates))
		for i, row := range values {
			if len(row) != len(columns) {
				return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(columns))
			}
			col[i] = row[j]
		}
		t.order = append(t.order, code)
		t.columns[code] = col
	}

	return t, nil
}

// Len returns the number of rows
func (t *TimeSeriesTable) Len() int {
	return len(t.dates)
}

// Dates returns a copy of the date index
func (t *TimeSeriesTable) Dates() []time.Time {
	return append([]time.Time(nil), t.dates...)
}

// Columns returns the station codes in file order
func (t *TimeSeriesTable) Columns() []string {
	return append([]string(nil), t.order...)
}

func (t *TimeSeriesTable) HasColumn(code string) bool {
	_, ok := t.columns[code]
	return ok
}

// Span returns the first and last date. ok is false for an empty table.
func (t *TimeSeriesTable) Span() (first, last time.Time, ok bool) {
	if len(t.dates) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.dates[0], t.dates[len(t.dates)-1], true
}

// Points returns the non-missing values of a station column whose date
// falls inside years, in date order. ok is false when the column is absent.
func (t *TimeSeriesTable) Points(code string, years YearRange) (points []Point, ok bool) {
	col, ok := t.columns[code]
	if !ok {
		return nil, false
	}

	points = make([]Point, 0)
	for i, d := range t.dates {
		if !years.Contains(d) || math.IsNaN(col[i]) {
			continue
		}
		points = append(points, Point{Date: d, Value: col[i]})
	}
	return points, true
}

// Value returns the cell for (date index, station code)
func (t *TimeSeriesTable) Value(row int, code string) (float64, bool) {
	col, ok := t.columns[code]
	if !ok || row < 0 || row >= len(col) {
		return math.NaN(), false
	}
	return col[row], true
}

// DateLayout is the wire format of dates in payloads and CSV indices
const DateLayout = "2006-01-02"
