package dataset

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"lst-explorer/internal/models"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

// Loader builds a Store from a Source
type Loader struct {
	source      Source
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
	concurrency int
}

// NewLoader creates a loader fetching at most concurrency resources at once
func NewLoader(source Source, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		source:      source,
		logger:      logger,
		metrics:     metricsCollector,
		concurrency: concurrency,
	}
}

// Load fetches the whole catalog plus the station list. The first failure
// cancels the remaining fetches and is returned as *models.InitializationError;
// no partial store is ever returned.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	timer := l.metrics.NewTimer(l.metrics.DatasetLoadDuration)
	catalog := Catalog()

	l.logger.Info(ctx, "[DATASET_LOAD_START] Loading dataset", logging.Fields{
		"source":      l.source.Name(),
		"resources":   len(catalog) + 1,
		"concurrency": l.concurrency,
		"stage":       "INITIALIZATION",
	})

	tables := make([]*models.TimeSeriesTable, len(catalog))
	var points []models.StationPoint

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, entry := range catalog {
		g.Go(func() error {
			start := time.Now()
			t, err := l.source.Table(gctx, entry.Resource)
			if err != nil {
				l.metrics.RecordResource(l.source.Name(), "error")
				return &models.InitializationError{Resource: entry.Resource, Err: err}
			}
			tables[i] = t

			l.metrics.RecordResource(l.source.Name(), "ok")
			l.metrics.DatasetRowsLoaded.WithLabelValues(entry.Resource).Set(float64(t.Len()))
			l.logger.Debug(gctx, "[DATASET_RESOURCE] Resource loaded", logging.Fields{
				"resource":    entry.Resource,
				"rows":        t.Len(),
				"columns":     len(t.Columns()),
				"duration_ms": time.Since(start).Milliseconds(),
			})
			return nil
		})
	}

	g.Go(func() error {
		p, err := l.source.StationPoints(gctx, StationPointsResource)
		if err != nil {
			l.metrics.RecordResource(l.source.Name(), "error")
			return &models.InitializationError{Resource: StationPointsResource, Err: err}
		}
		points = p
		l.metrics.RecordResource(l.source.Name(), "ok")
		return nil
	})

	if err := g.Wait(); err != nil {
		l.logger.Error(ctx, "[DATASET_LOAD_ERROR] Dataset load failed", logging.Fields{
			"source": l.source.Name(),
			"stage":  "FETCH",
		}, err)
		return nil, err
	}

	snapshot := Snapshot{
		Maxima:    map[models.Variable]RunTables{},
		Minima:    map[models.Variable]RunTables{},
		Satellite: map[models.Product]*models.TimeSeriesTable{},
		Points:    points,
	}
	for i, entry := range catalog {
		switch entry.Kind {
		case KindModel:
			target := snapshot.Maxima
			if entry.Stat == models.StatMin {
				target = snapshot.Minima
			}
			if target[entry.Variable] == nil {
				target[entry.Variable] = RunTables{}
			}
			target[entry.Variable][entry.Run] = tables[i]
		case KindSatellite:
			snapshot.Satellite[entry.Product] = tables[i]
		case KindObservation:
			snapshot.Observations = tables[i]
		}
	}

	store, err := NewStore(snapshot)
	if err != nil {
		return nil, &models.InitializationError{Resource: "store", Err: err}
	}

	duration := timer.ObserveDuration()
	l.metrics.DatasetLoadedTimestamp.Set(float64(store.LoadedAt().Unix()))

	l.logger.Info(ctx, "[DATASET_LOAD_COMPLETE] Dataset loaded", logging.Fields{
		"source":           l.source.Name(),
		"tables":           len(tables),
		"station_points":   len(points),
		"duration_seconds": duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return store, nil
}
