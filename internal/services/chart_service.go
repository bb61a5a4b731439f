package services

import (
	"context"
	"fmt"

	"lst-explorer/internal/dataset"
	"lst-explorer/internal/models"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

const (
	XAxisTitle = "Year"
	YAxisTitle = "Degrees C"

	bandFill = "tozeroy"
)

// ChartService assembles time-series chart payloads from the dataset store
type ChartService struct {
	store    *dataset.Store
	registry *StationRegistry
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewChartService creates a new chart service
func NewChartService(store *dataset.Store, registry *StationRegistry, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ChartService {
	return &ChartService{
		store:    store,
		registry: registry,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Registry returns the station registry used for titles
func (s *ChartService) Registry() *StationRegistry {
	return s.registry
}

// runPoints holds one model run's maxima and minima restricted to the range
type runPoints struct {
	run models.ModelRun
	max []models.Point
	min []models.Point
}

// extraction is every series a request touches, before ordering
type extraction struct {
	runs         []runPoints
	satellite    map[models.Product][]models.Point
	observations []models.Point
}

func (s *ChartService) extract(req models.ChartRequest) (*extraction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	obs, ok := s.store.Observations().Points(req.StationCode, req.Years)
	if !ok {
		return nil, &models.NotFoundError{Resource: "station", ID: req.StationCode}
	}

	ex := &extraction{
		satellite:    make(map[models.Product][]models.Point, len(models.Products)),
		observations: obs,
	}

	for _, run := range s.store.Runs(req.Variable) {
		maxTable, _ := s.store.Maxima(req.Variable, run)
		minTable, _ := s.store.Minima(req.Variable, run)
		ex.runs = append(ex.runs, runPoints{
			run: run,
			max: columnPoints(maxTable, req),
			min: columnPoints(minTable, req),
		})
	}

	for _, p := range models.Products {
		t, _ := s.store.Satellite(p)
		ex.satellite[p] = columnPoints(t, req)
	}

	return ex, nil
}

// columnPoints treats a table without the station column as an empty series
func columnPoints(t *models.TimeSeriesTable, req models.ChartRequest) []models.Point {
	if t == nil {
		return []models.Point{}
	}
	points, ok := t.Points(req.StationCode, req.Years)
	if !ok {
		return []models.Point{}
	}
	return points
}

// Assemble builds the chart payload for one request. The series order is
// fixed: the reference run band, the satellite products, the station
// observations, then the remaining model runs.
//
// When no series holds any point the payload is still returned, together
// with *models.EmptyRangeError.
func (s *ChartService) Assemble(ctx context.Context, req models.ChartRequest) (*models.ChartPayload, error) {
	timer := s.metrics.NewTimer(s.metrics.ChartAssemblyDuration)
	defer timer.ObserveDuration()

	ex, err := s.extract(req)
	if err != nil {
		return nil, err
	}

	payload := &models.ChartPayload{
		Title:      s.title(req),
		XAxisTitle: XAxisTitle,
		YAxisTitle: YAxisTitle,
		Series:     make([]models.Series, 0, len(ex.runs)+len(models.Products)+1),
	}

	for _, rp := range ex.runs {
		if rp.run == models.ReferenceRun {
			payload.Series = append(payload.Series, bandSeries(string(rp.run), rp.min, rp.max))
		}
	}

	for _, p := range models.Products {
		payload.Series = append(payload.Series, lineSeries(string(p), ex.satellite[p]))
	}

	payload.Series = append(payload.Series, lineSeries(models.ObservationSeriesName, ex.observations))

	for _, rp := range ex.runs {
		if rp.run != models.ReferenceRun {
			payload.Series = append(payload.Series, lineSeries(string(rp.run), rp.max))
		}
	}

	total := payload.TotalPoints()
	s.metrics.ChartPoints.Observe(float64(total))

	s.logger.Debug(ctx, "[CHART_ASSEMBLED] Chart payload built", logging.Fields{
		"station":  req.StationCode,
		"variable": string(req.Variable),
		"begin":    req.Years.Begin,
		"end":      req.Years.End,
		"series":   len(payload.Series),
		"points":   total,
	})

	if total == 0 {
		s.metrics.ChartEmptyTotal.Inc()
		return payload, &models.EmptyRangeError{StationCode: req.StationCode, Years: req.Years}
	}

	return payload, nil
}

// LineSeries returns every series of the request as plain lines, including
// the reference run maxima instead of its band.
func (s *ChartService) LineSeries(ctx context.Context, req models.ChartRequest) ([]models.Series, error) {
	ex, err := s.extract(req)
	if err != nil {
		return nil, err
	}

	out := make([]models.Series, 0, len(ex.runs)+len(models.Products)+1)
	for _, p := range models.Products {
		out = append(out, lineSeries(string(p), ex.satellite[p]))
	}
	out = append(out, lineSeries(models.ObservationSeriesName, ex.observations))
	for _, rp := range ex.runs {
		out = append(out, lineSeries(string(rp.run), rp.max))
	}
	return out, nil
}

func (s *ChartService) title(req models.ChartRequest) string {
	name := req.StationCode
	if p, err := s.registry.Lookup(req.StationCode); err == nil {
		name = p.DisplayName
	}
	return fmt.Sprintf("Compare MODIS LST with WRF %s Max\n %s", req.Variable.Label(), name)
}

func lineSeries(name string, points []models.Point) models.Series {
	return models.Series{
		Name:   name,
		Kind:   models.SeriesLine,
		Points: points,
	}
}

// bandSeries closes a polygon: minima forward, then maxima reversed
func bandSeries(name string, minima, maxima []models.Point) models.Series {
	points := make([]models.Point, 0, len(minima)+len(maxima))
	points = append(points, minima...)
	for i := len(maxima) - 1; i >= 0; i-- {
		points = append(points, maxima[i])
	}
	return models.Series{
		Name:   name,
		Kind:   models.SeriesBand,
		Fill:   bandFill,
		Points: points,
	}
}
