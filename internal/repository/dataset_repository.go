package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lst-explorer/internal/models"
	"lst-explorer/pkg/database"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

// DefaultBatchSize is the number of cells written per INSERT
const DefaultBatchSize = 1000

// DatasetRepository mirrors dataset resources in PostgreSQL. It doubles as
// a dataset source so the server can start without the upstream host.
type DatasetRepository interface {
	Name() string
	Table(ctx context.Context, resource string) (*models.TimeSeriesTable, error)
	StationPoints(ctx context.Context, resource string) ([]models.StationPoint, error)

	ReplaceTable(ctx context.Context, resource string, table *models.TimeSeriesTable, batchSize int) (int, error)
	ReplaceStationPoints(ctx context.Context, points []models.StationPoint) error
	ListResources(ctx context.Context) ([]ResourceRecord, error)
	HealthCheck(ctx context.Context) error
}

// ResourceRecord describes one mirrored resource
type ResourceRecord struct {
	Resource   string    `db:"resource" json:"resource"`
	RowCount   int       `db:"row_count" json:"row_count"`
	IngestedAt time.Time `db:"ingested_at" json:"ingested_at"`
}

type columnRow struct {
	Resource    string `db:"resource"`
	StationCode string `db:"station_code"`
	Position    int    `db:"position"`
}

type cellRow struct {
	Resource    string          `db:"resource"`
	ObservedOn  time.Time       `db:"observed_on"`
	StationCode string          `db:"station_code"`
	Value       sql.NullFloat64 `db:"value"`
}

type stationRow struct {
	models.StationPoint
	Position int `db:"position"`
}

type postgresRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewPostgresRepository creates a new PostgreSQL dataset repository
func NewPostgresRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) DatasetRepository {
	return &postgresRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

func (r *postgresRepository) Name() string {
	return "postgres"
}

// ReplaceTable swaps the stored copy of a resource for table inside one
// transaction. Missing cells are stored as NULL so the date index survives.
func (r *postgresRepository) ReplaceTable(ctx context.Context, resource string, table *models.TimeSeriesTable, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	columns := columnRows(resource, table)
	cells := flatten(resource, table)

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_resources WHERE resource = $1`, resource); err != nil {
			return fmt.Errorf("failed to clear resource: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dataset_resources (resource, row_count, ingested_at) VALUES ($1, $2, $3)`,
			resource, table.Len(), time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert resource: %w", err)
		}

		if len(columns) > 0 {
			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO dataset_columns (resource, station_code, position)
				VALUES (:resource, :station_code, :position)`,
				columns,
			); err != nil {
				return fmt.Errorf("failed to insert columns: %w", err)
			}
		}

		for start := 0; start < len(cells); start += batchSize {
			end := start + batchSize
			if end > len(cells) {
				end = len(cells)
			}
			batch := cells[start:end]

			if _, err := tx.NamedExecContext(ctx,
				`INSERT INTO series_values (resource, observed_on, station_code, value)
				VALUES (:resource, :observed_on, :station_code, :value)`,
				batch,
			); err != nil {
				return fmt.Errorf("failed to insert batch at cell %d: %w", start, err)
			}
			r.metrics.IngestionBatchSize.Observe(float64(len(batch)))
		}
		return nil
	})
	if err != nil {
		r.metrics.RecordDBError("replace_table")
		r.logger.Error(ctx, "[DB_REPLACE_ERROR] Failed to replace resource", logging.Fields{
			"resource": resource,
			"cells":    len(cells),
		}, err)
		return 0, err
	}

	r.logger.Debug(ctx, "[DB_REPLACE] Resource replaced", logging.Fields{
		"resource": resource,
		"rows":     table.Len(),
		"columns":  len(columns),
		"cells":    len(cells),
	})

	return len(cells), nil
}

// ReplaceStationPoints rewrites the station list with COPY
func (r *postgresRepository) ReplaceStationPoints(ctx context.Context, points []models.StationPoint) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM station_points`); err != nil {
			return fmt.Errorf("failed to clear station points: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("station_points",
			"station_code", "display_name", "latitude", "longitude", "position"))
		if err != nil {
			return fmt.Errorf("failed to prepare copy: %w", err)
		}
		defer stmt.Close()

		for i, p := range points {
			if _, err := stmt.ExecContext(ctx, p.Code, p.DisplayName, p.Latitude, p.Longitude, i); err != nil {
				return fmt.Errorf("failed to copy station %s: %w", p.Code, err)
			}
		}
		if _, err := stmt.ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to flush station copy: %w", err)
		}
		return nil
	})
}

// Table rebuilds a resource from its mirrored cells
func (r *postgresRepository) Table(ctx context.Context, resource string) (*models.TimeSeriesTable, error) {
	var record ResourceRecord
	err := r.db.GetContext(ctx, "get_resource", &record,
		`SELECT resource, row_count, ingested_at FROM dataset_resources WHERE resource = $1`, resource)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Resource: "resource", ID: resource}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	var columns []columnRow
	if err := r.db.SelectContext(ctx, "select_columns", &columns,
		`SELECT resource, station_code, position FROM dataset_columns
		WHERE resource = $1 ORDER BY position`, resource); err != nil {
		return nil, fmt.Errorf("failed to select columns: %w", err)
	}

	var cells []cellRow
	if err := r.db.SelectContext(ctx, "select_values", &cells,
		`SELECT resource, observed_on, station_code, value FROM series_values
		WHERE resource = $1 ORDER BY observed_on`, resource); err != nil {
		return nil, fmt.Errorf("failed to select values: %w", err)
	}

	table, err := pivot(columns, cells)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild %s: %w", resource, err)
	}
	if table.Len() != record.RowCount {
		return nil, fmt.Errorf("resource %s has %d rows, expected %d", resource, table.Len(), record.RowCount)
	}
	return table, nil
}

// StationPoints returns the mirrored station list in its original order
func (r *postgresRepository) StationPoints(ctx context.Context, resource string) ([]models.StationPoint, error) {
	var rows []stationRow
	if err := r.db.SelectContext(ctx, "select_station_points", &rows,
		`SELECT station_code, display_name, latitude, longitude, position
		FROM station_points ORDER BY position`); err != nil {
		return nil, fmt.Errorf("failed to select station points: %w", err)
	}
	if len(rows) == 0 {
		return nil, &models.NotFoundError{Resource: "resource", ID: resource}
	}

	points := make([]models.StationPoint, len(rows))
	for i, row := range rows {
		points[i] = row.StationPoint
	}
	return points, nil
}

// ListResources returns every mirrored resource ordered by name
func (r *postgresRepository) ListResources(ctx context.Context) ([]ResourceRecord, error) {
	var records []ResourceRecord
	if err := r.db.SelectContext(ctx, "list_resources", &records,
		`SELECT resource, row_count, ingested_at FROM dataset_resources ORDER BY resource`); err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return records, nil
}

func (r *postgresRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func columnRows(resource string, table *models.TimeSeriesTable) []columnRow {
	codes := table.Columns()
	rows := make([]columnRow, len(codes))
	for i, code := range codes {
		rows[i] = columnRow{Resource: resource, StationCode: code, Position: i}
	}
	return rows
}

// flatten turns a table into one cell per (date, station), date-major
func flatten(resource string, table *models.TimeSeriesTable) []cellRow {
	dates := table.Dates()
	codes := table.Columns()
	cells := make([]cellRow, 0, len(dates)*len(codes))

	for i, d := range dates {
		for _, code := range codes {
			v, _ := table.Value(i, code)
			cells = append(cells, cellRow{
				Resource:    resource,
				ObservedOn:  d,
				StationCode: code,
				Value:       sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)},
			})
		}
	}
	return cells
}

// pivot is the inverse of flatten. cells must be ordered by date.
func pivot(columns []columnRow, cells []cellRow) (*models.TimeSeriesTable, error) {
	codes := make([]string, len(columns))
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		codes[i] = c.StationCode
		index[c.StationCode] = i
	}

	var dates []time.Time
	var values [][]float64
	for _, cell := range cells {
		col, ok := index[cell.StationCode]
		if !ok {
			return nil, fmt.Errorf("cell references unknown station %s", cell.StationCode)
		}

		day := cell.ObservedOn.UTC()
		if n := len(dates); n == 0 || !dates[n-1].Equal(day) {
			dates = append(dates, day)
			row := make([]float64, len(codes))
			for i := range row {
				row[i] = math.NaN()
			}
			values = append(values, row)
		}

		if cell.Value.Valid {
			values[len(values)-1][col] = cell.Value.Float64
		}
	}

	return models.NewTimeSeriesTable(dates, codes, values)
}
