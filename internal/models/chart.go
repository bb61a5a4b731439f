package models

import (
	"encoding/json"
	"time"
)

// SeriesKind distinguishes the shaded envelope from plain lines
type SeriesKind string

const (
	SeriesBand SeriesKind = "band"
	SeriesLine SeriesKind = "line"
)

// ChartRequest carries the three dashboard controls
type ChartRequest struct {
	StationCode string    `json:"station"`
	Variable    Variable  `json:"variable"`
	Years       YearRange `json:"years"`
}

// Validate checks the variable and the year range
func (r ChartRequest) Validate() error {
	if r.StationCode == "" {
		return &ValidationError{Field: "station", Message: "station is required"}
	}
	if v, err := ParseVariable(string(r.Variable)); err != nil || v != r.Variable {
		return &ValidationError{Field: "variable", Value: string(r.Variable), Message: "unknown variable " + string(r.Variable)}
	}
	return r.Years.Validate()
}

// Series is one named trace of the chart
type Series struct {
	Name   string     `json:"name"`
	Kind   SeriesKind `json:"kind"`
	Fill   string     `json:"fill,omitempty"`
	Points []Point    `json:"-"`
}

// MarshalJSON emits plotly-style parallel x/y arrays
func (s Series) MarshalJSON() ([]byte, error) {
	x := make([]string, len(s.Points))
	y := make([]float64, len(s.Points))
	for i, p := range s.Points {
		x[i] = p.Date.Format(DateLayout)
		y[i] = p.Value
	}

	return json.Marshal(struct {
		Name string     `json:"name"`
		Kind SeriesKind `json:"kind"`
		Fill string     `json:"fill,omitempty"`
		Mode string     `json:"mode"`
		X    []string   `json:"x"`
		Y    []float64  `json:"y"`
	}{
		Name: s.Name,
		Kind: s.Kind,
		Fill: s.Fill,
		Mode: "lines",
		X:    x,
		Y:    y,
	})
}

// Dates returns the x values of the series
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Values returns the y values of the series
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// ChartPayload is the time-series chart built for one request
type ChartPayload struct {
	Title      string   `json:"title"`
	XAxisTitle string   `json:"xaxis_title"`
	YAxisTitle string   `json:"yaxis_title"`
	Series     []Series `json:"series"`
}

// TotalPoints counts the data points across all series
func (p *ChartPayload) TotalPoints() int {
	n := 0
	for _, s := range p.Series {
		n += len(s.Points)
	}
	return n
}

// SeriesNames returns the series names in draw order
func (p *ChartPayload) SeriesNames() []string {
	names := make([]string, len(p.Series))
	for i, s := range p.Series {
		names[i] = s.Name
	}
	return names
}
