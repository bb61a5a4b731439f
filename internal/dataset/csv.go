package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"lst-explorer/internal/models"
)

var dateLayouts = []string{
	models.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTable reads a CSV whose first column is the date index and whose
// remaining header cells are station codes.
func ParseTable(r io.Reader) (*models.TimeSeriesTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header has %d columns, expected a date column and at least one station", len(header))
	}

	columns := make([]string, len(header)-1)
	for i, h := range header[1:] {
		columns[i] = strings.TrimSpace(h)
	}

	var dates []time.Time
	var values [][]float64

	line := 1
	for {
		line++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := make([]float64, len(columns))
		for j, cell := range record[1:] {
			v, err := parseValue(cell)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, columns[j], err)
			}
			row[j] = v
		}

		dates = append(dates, date)
		values = append(values, row)
	}

	return models.NewTimeSeriesTable(dates, columns, values)
}

// ParseStationPoints reads the station list. Columns are matched by header
// name: name (display name), name2 (station code), lat and lon.
func ParseStationPoints(r io.Reader) ([]models.StationPoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "name2", "lat", "lon"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("station list is missing column %q", required)
		}
	}

	seen := map[string]bool{}
	var points []models.StationPoint

	line := 1
	for {
		line++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[idx["lat"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(record[idx["lon"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lon: %w", line, err)
		}

		p := models.StationPoint{
			DisplayName: strings.TrimSpace(record[idx["name"]]),
			Code:        strings.TrimSpace(record[idx["name2"]]),
			Latitude:    lat,
			Longitude:   lon,
		}
		if p.Code == "" {
			return nil, fmt.Errorf("line %d: empty station code", line)
		}
		if seen[p.Code] {
			return nil, fmt.Errorf("line %d: duplicate station code %s", line, p.Code)
		}
		seen[p.Code] = true

		points = append(points, p)
	}

	return points, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		// The mirror stores the index as DATE
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
			return time.Time{}, &models.ValidationError{
				Field:   "date",
				Value:   s,
				Message: fmt.Sprintf("invalid date %q, time of day must be midnight", s),
			}
		}
		return t, nil
	}
	return time.Time{}, &models.ValidationError{
		Field:   "date",
		Value:   s,
		Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s),
	}
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "NA", "N/A":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("infinite value %q", s)
	}
	return v, nil
}
