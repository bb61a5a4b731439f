package services

import (
	"context"
	"fmt"
	"time"

	"lst-explorer/internal/dataset"
	"lst-explorer/internal/models"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

// DatasetSink stores mirrored resources
type DatasetSink interface {
	ReplaceTable(ctx context.Context, resource string, table *models.TimeSeriesTable, batchSize int) (int, error)
	ReplaceStationPoints(ctx context.Context, points []models.StationPoint) error
}

// IngestionService copies the dataset catalog from a source into a sink
type IngestionService struct {
	source  dataset.Source
	sink    DatasetSink
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalResources      int
	SuccessfulResources int
	FailedResources     int
	CellsWritten        int
	StationsWritten     int
	Duration            time.Duration
	Errors              []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(source dataset.Source, sink DatasetSink, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		source:  source,
		sink:    sink,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Mirror copies every catalog resource plus the station list. A failing
// resource is recorded and skipped so one bad file does not block the
// rest; only a cancelled context aborts the run.
func (s *IngestionService) Mirror(ctx context.Context, only []string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	entries, err := selectEntries(only)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[INGEST_START] Starting dataset mirror", logging.Fields{
		"source":     s.source.Name(),
		"resources":  len(entries),
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	result := &IngestionResult{
		TotalResources: len(entries) + 1,
		Errors:         make([]string, 0),
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cells, err := s.mirrorTable(ctx, entry.Resource, batchSize)
		if err != nil {
			result.FailedResources++
			result.Errors = append(result.Errors, fmt.Sprintf("failed to mirror %s: %v", entry.Resource, err))
			s.metrics.RecordIngestionError(string(entry.Kind))
			s.logger.Error(ctx, "[INGEST_RESOURCE_ERROR] Resource mirror failed", logging.Fields{
				"resource": entry.Resource,
				"stage":    "RESOURCE_PROCESSING",
			}, err)
			continue
		}

		result.SuccessfulResources++
		result.CellsWritten += cells
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	stations, err := s.mirrorStations(ctx)
	if err != nil {
		result.FailedResources++
		result.Errors = append(result.Errors, fmt.Sprintf("failed to mirror %s: %v", dataset.StationPointsResource, err))
		s.metrics.RecordIngestionError("stations")
		s.logger.Error(ctx, "[INGEST_RESOURCE_ERROR] Station list mirror failed", logging.Fields{
			"resource": dataset.StationPointsResource,
			"stage":    "RESOURCE_PROCESSING",
		}, err)
	} else {
		result.SuccessfulResources++
		result.StationsWritten = stations
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Dataset mirror completed", logging.Fields{
		"total_resources":      result.TotalResources,
		"successful_resources": result.SuccessfulResources,
		"failed_resources":     result.FailedResources,
		"cells_written":        result.CellsWritten,
		"stations_written":     result.StationsWritten,
		"duration_seconds":     result.Duration.Seconds(),
		"stage":                "COMPLETE",
	})

	return result, nil
}

func (s *IngestionService) mirrorTable(ctx context.Context, resource string, batchSize int) (int, error) {
	table, err := s.source.Table(ctx, resource)
	if err != nil {
		return 0, err
	}

	cells, err := s.sink.ReplaceTable(ctx, resource, table, batchSize)
	if err != nil {
		return 0, err
	}
	s.metrics.IngestionRecordsTotal.Add(float64(cells))

	s.logger.Info(ctx, "[INGEST_RESOURCE_SUCCESS] Resource mirrored", logging.Fields{
		"resource": resource,
		"rows":     table.Len(),
		"columns":  len(table.Columns()),
		"cells":    cells,
		"stage":    "RESOURCE_COMPLETE",
	})
	return cells, nil
}

func (s *IngestionService) mirrorStations(ctx context.Context) (int, error) {
	points, err := s.source.StationPoints(ctx, dataset.StationPointsResource)
	if err != nil {
		return 0, err
	}
	if err := s.sink.ReplaceStationPoints(ctx, points); err != nil {
		return 0, err
	}
	s.metrics.IngestionRecordsTotal.Add(float64(len(points)))
	return len(points), nil
}

// selectEntries restricts the catalog to the named resources, keeping
// catalog order. An empty filter selects everything.
func selectEntries(only []string) ([]dataset.Entry, error) {
	catalog := dataset.Catalog()
	if len(only) == 0 {
		return catalog, nil
	}

	wanted := make(map[string]bool, len(only))
	for _, r := range only {
		wanted[r] = true
	}

	selected := make([]dataset.Entry, 0, len(only))
	for _, e := range catalog {
		if wanted[e.Resource] {
			selected = append(selected, e)
			delete(wanted, e.Resource)
		}
	}
	for r := range wanted {
		return nil, &models.NotFoundError{Resource: "resource", ID: r}
	}
	return selected, nil
}
