// Package render draws chart payloads as static images.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"lst-explorer/internal/models"
)

// ErrNoData is returned for a payload without any point to draw
var ErrNoData = errors.New("chart has no data points")

// Options sizes the rendered image in pixels
type Options struct {
	Width  int
	Height int
}

// DefaultOptions matches the dashboard chart area
var DefaultOptions = Options{Width: 1100, Height: 560}

// palette follows the plotly default trace colors so the PNG and the
// interactive chart agree
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
}

// PNG writes payload as a PNG image. Empty series are left out of the
// legend; the band is drawn as the outline of its polygon.
func PNG(w io.Writer, payload *models.ChartPayload, opts Options) error {
	if payload == nil || payload.TotalPoints() == 0 {
		return ErrNoData
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultOptions
	}

	series := make([]chart.Series, 0, len(payload.Series))
	for i, s := range payload.Series {
		if len(s.Points) == 0 {
			continue
		}
		series = append(series, timeSeries(s, palette[i%len(palette)]))
	}

	graph := chart.Chart{
		Title:      flattenTitle(payload.Title),
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           payload.XAxisTitle,
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis: chart.YAxis{
			Name: payload.YAxisTitle,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func timeSeries(s models.Series, color drawing.Color) chart.TimeSeries {
	x := s.Dates()
	y := s.Values()

	// go-chart needs two x values to build a range
	if len(x) == 1 {
		x = append(x, x[0].Add(24*time.Hour))
		y = append(y, y[0])
	}

	style := chart.Style{
		StrokeColor: color,
		StrokeWidth: 1.5,
	}
	if s.Kind == models.SeriesBand {
		style.StrokeColor = color.WithAlpha(160)
		style.StrokeWidth = 1
		style.StrokeDashArray = []float64{4, 2}
	}

	return chart.TimeSeries{
		Name:    s.Name,
		XValues: x,
		YValues: y,
		Style:   style,
	}
}

func flattenTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
