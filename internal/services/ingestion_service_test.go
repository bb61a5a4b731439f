package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lst-explorer/internal/dataset"
	"lst-explorer/internal/models"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

// memorySource serves the same table for every resource except those in failing
type memorySource struct {
	table   *models.TimeSeriesTable
	points  []models.StationPoint
	failing map[string]bool
}

func (s *memorySource) Name() string { return "memory" }

func (s *memorySource) Table(ctx context.Context, resource string) (*models.TimeSeriesTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.failing[resource] {
		return nil, errors.New("unexpected status 404")
	}
	return s.table, nil
}

func (s *memorySource) StationPoints(ctx context.Context, resource string) ([]models.StationPoint, error) {
	if s.failing[resource] {
		return nil, errors.New("unexpected status 404")
	}
	return s.points, nil
}

type recordingSink struct {
	mu       sync.Mutex
	tables   map[string]int
	stations []models.StationPoint
}

func (s *recordingSink) ReplaceTable(ctx context.Context, resource string, table *models.TimeSeriesTable, batchSize int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables == nil {
		s.tables = map[string]int{}
	}
	cells := table.Len() * len(table.Columns())
	s.tables[resource] = cells
	return cells, nil
}

func (s *recordingSink) ReplaceStationPoints(ctx context.Context, points []models.StationPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations = points
	return nil
}

func newIngestion(t *testing.T, failing map[string]bool) (*IngestionService, *recordingSink, *metrics.Collector) {
	t.Helper()
	src := &memorySource{
		table:   table(t, []string{"AKFAIRBANKSINTLAP", "AKBARROW"}, [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {9, 10}, {11, 12}}),
		points:  fixturePoints,
		failing: failing,
	}
	sink := &recordingSink{}
	collector := metrics.NewTestCollector()
	return NewIngestionService(src, sink, logging.NewTestLogger(), collector), sink, collector
}

func TestMirrorCatalog(t *testing.T) {
	svc, sink, collector := newIngestion(t, nil)

	result, err := svc.Mirror(context.Background(), nil, 100)
	require.NoError(t, err)

	catalog := dataset.Catalog()
	assert.Equal(t, len(catalog)+1, result.TotalResources)
	assert.Equal(t, len(catalog)+1, result.SuccessfulResources)
	assert.Zero(t, result.FailedResources)
	assert.Equal(t, len(catalog)*12, result.CellsWritten)
	assert.Equal(t, len(fixturePoints), result.StationsWritten)
	assert.Len(t, sink.tables, len(catalog))
	assert.Equal(t, fixturePoints, sink.stations)
	assert.Equal(t, float64(len(catalog)*12+len(fixturePoints)), testutil.ToFloat64(collector.IngestionRecordsTotal))
}

func TestMirrorContinuesPastFailures(t *testing.T) {
	failing := map[string]bool{
		dataset.SatelliteResource(models.ProductAqua): true,
		dataset.StationPointsResource:                 true,
	}
	svc, sink, collector := newIngestion(t, failing)

	result, err := svc.Mirror(context.Background(), nil, 100)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FailedResources)
	assert.Len(t, result.Errors, 2)
	assert.Len(t, sink.tables, len(dataset.Catalog())-1)
	assert.Nil(t, sink.stations)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.IngestionErrorsTotal.WithLabelValues("satellite")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.IngestionErrorsTotal.WithLabelValues("stations")))
}

func TestMirrorSelectedResources(t *testing.T) {
	svc, sink, _ := newIngestion(t, nil)

	only := []string{dataset.ObservationResource, dataset.SatelliteResource(models.ProductTerra)}
	result, err := svc.Mirror(context.Background(), only, 100)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalResources)
	assert.Len(t, sink.tables, 2)
	assert.Contains(t, sink.tables, dataset.ObservationResource)
}

func TestMirrorUnknownResource(t *testing.T) {
	svc, _, _ := newIngestion(t, nil)

	_, err := svc.Mirror(context.Background(), []string{"nope.csv"}, 100)

	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestMirrorCancelled(t *testing.T) {
	svc, sink, _ := newIngestion(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Mirror(ctx, nil, 100)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.tables)
}
