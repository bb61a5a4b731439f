package services

import (
	"context"
	"math"

	"lst-explorer/internal/models"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

// SeriesSummary holds descriptive statistics of one series over a request's range
type SeriesSummary struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Mean  *float64 `json:"mean,omitempty"`
	First string   `json:"first,omitempty"`
	Last  string   `json:"last,omitempty"`
}

// Summary is the per-series breakdown of a chart request
type Summary struct {
	Station  string           `json:"station"`
	Variable models.Variable  `json:"variable"`
	Years    models.YearRange `json:"years"`
	Series   []SeriesSummary  `json:"series"`
}

// StatisticsService summarizes the series behind a chart
type StatisticsService struct {
	charts  *ChartService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(charts *ChartService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		charts:  charts,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Summarize computes count, min, max and mean of every line series.
// Empty series are reported with Count 0 and no values.
func (s *StatisticsService) Summarize(ctx context.Context, req models.ChartRequest) (*Summary, error) {
	series, err := s.charts.LineSeries(ctx, req)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Station:  req.StationCode,
		Variable: req.Variable,
		Years:    req.Years,
		Series:   make([]SeriesSummary, 0, len(series)),
	}
	for _, ser := range series {
		summary.Series = append(summary.Series, summarizeSeries(ser))
	}

	s.logger.Debug(ctx, "[STATS_SUMMARY] Summary computed", logging.Fields{
		"station":  req.StationCode,
		"variable": string(req.Variable),
		"series":   len(summary.Series),
	})

	return summary, nil
}

func summarizeSeries(ser models.Series) SeriesSummary {
	out := SeriesSummary{Name: ser.Name, Count: len(ser.Points)}
	if len(ser.Points) == 0 {
		return out
	}

	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, p := range ser.Points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
		sum += p.Value
	}
	mean := sum / float64(len(ser.Points))

	out.Min = &lo
	out.Max = &hi
	out.Mean = &mean
	out.First = ser.Points[0].Date.Format(models.DateLayout)
	out.Last = ser.Points[len(ser.Points)-1].Date.Format(models.DateLayout)
	return out
}
