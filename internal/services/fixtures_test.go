package services

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lst-explorer/internal/dataset"
	"lst-explorer/internal/models"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

var nan = math.NaN()

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// fixtureDates straddle the default 2004-2005 range on both sides
var fixtureDates = []time.Time{
	day("2003-12-27"),
	day("2004-01-01"),
	day("2004-06-01"),
	day("2005-01-01"),
	day("2005-12-27"),
	day("2006-01-01"),
}

var fixturePoints = []models.StationPoint{
	{DisplayName: "Fairbanks Intl AP", Code: "AKFAIRBANKSINTLAP", Latitude: 64.80, Longitude: -147.88},
	{DisplayName: "Nome", Code: "AKNOME", Latitude: 64.51, Longitude: -165.44},
	{DisplayName: "Barrow", Code: "AKBARROW", Latitude: 71.28, Longitude: -156.78},
	{DisplayName: "Empty Creek", Code: "AKEMPTY", Latitude: 65.00, Longitude: -146.00},
}

func table(t *testing.T, columns []string, rows [][]float64) *models.TimeSeriesTable {
	t.Helper()
	tbl, err := models.NewTimeSeriesTable(fixtureDates, columns, rows)
	require.NoError(t, err)
	return tbl
}

// modelTable fills every cell with row + offset; NCAR-CCSM4 lacks Barrow
func modelTable(t *testing.T, run models.ModelRun, offset float64) *models.TimeSeriesTable {
	t.Helper()
	columns := []string{"AKFAIRBANKSINTLAP", "AKBARROW"}
	if run == models.RunNCARCCSM4 {
		columns = columns[:1]
	}

	rows := make([][]float64, len(fixtureDates))
	for i := range rows {
		rows[i] = make([]float64, len(columns))
		for j := range columns {
			rows[i][j] = float64(i) + offset + float64(j)*100
		}
	}
	return table(t, columns, rows)
}

func fixtureStore(t *testing.T) *dataset.Store {
	t.Helper()

	snapshot := dataset.Snapshot{
		Maxima: map[models.Variable]dataset.RunTables{models.VariableT2: {}},
		Minima: map[models.Variable]dataset.RunTables{models.VariableT2: {}},
		Satellite: map[models.Product]*models.TimeSeriesTable{
			models.ProductTerra: table(t, []string{"AKFAIRBANKSINTLAP", "AKBARROW"}, [][]float64{
				{-31, -41}, {-26, -36}, {22, 12}, {-29, -39}, {-33, -43}, {-36, -46},
			}),
			models.ProductAqua: table(t, []string{"AKFAIRBANKSINTLAP", "AKBARROW"}, [][]float64{
				{-30, -40}, {-25, -35}, {nan, 11}, {-28, -38}, {-32, -42}, {-35, -45},
			}),
		},
		Observations: table(t, []string{"AKFAIRBANKSINTLAP", "AKBARROW", "AKEMPTY"}, [][]float64{
			{-30, -40, nan}, {-25, -35, nan}, {20, 10, nan}, {-28, -38, nan}, {-32, -42, nan}, {-35, -45, nan},
		}),
		Points: fixturePoints,
	}

	for i, run := range models.ModelRuns {
		offset := float64(i) * 10
		snapshot.Maxima[models.VariableT2][run] = modelTable(t, run, offset)
		snapshot.Minima[models.VariableT2][run] = modelTable(t, run, offset-50)
	}

	store, err := dataset.NewStore(snapshot)
	require.NoError(t, err)
	return store
}

type fixture struct {
	store      *dataset.Store
	registry   *StationRegistry
	charts     *ChartService
	selection  *SelectionService
	statistics *StatisticsService
	metrics    *metrics.Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logging.NewTestLogger()
	collector := metrics.NewTestCollector()
	store := fixtureStore(t)
	registry := NewStationRegistry(store.Points(), store.Observations())
	charts := NewChartService(store, registry, logger, collector)

	return &fixture{
		store:      store,
		registry:   registry,
		charts:     charts,
		selection:  NewSelectionService(registry, models.DefaultStationCode, logger, collector),
		statistics: NewStatisticsService(charts, logger, collector),
		metrics:    collector,
	}
}

func request(station string, begin, end int) models.ChartRequest {
	return models.ChartRequest{
		StationCode: station,
		Variable:    models.VariableT2,
		Years:       models.YearRange{Begin: begin, End: end},
	}
}
