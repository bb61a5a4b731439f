package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lst-explorer/internal/config"
	"lst-explorer/internal/dataset"
	"lst-explorer/internal/models"
	"lst-explorer/internal/services"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

var testDates = []time.Time{
	time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2004, 6, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC),
}

func testTable(t *testing.T, base float64) *models.TimeSeriesTable {
	t.Helper()
	nan := math.NaN()
	tbl, err := models.NewTimeSeriesTable(testDates,
		[]string{"AKFAIRBANKSINTLAP", "AKBARROW", "AKEMPTY"},
		[][]float64{{base, base - 10, nan}, {base + 30, base + 20, nan}, {base + 2, base - 8, nan}},
	)
	require.NoError(t, err)
	return tbl
}

func newTestRouter(t *testing.T) (*mux.Router, *DashboardHandler) {
	t.Helper()
	return routerFor(t, testSnapshot(t))
}

func testSnapshot(t *testing.T) dataset.Snapshot {
	t.Helper()

	snapshot := dataset.Snapshot{
		Maxima: map[models.Variable]dataset.RunTables{models.VariableT2: {}},
		Minima: map[models.Variable]dataset.RunTables{models.VariableT2: {}},
		Satellite: map[models.Product]*models.TimeSeriesTable{
			models.ProductTerra: testTable(t, -24),
			models.ProductAqua:  testTable(t, -23),
		},
		Observations: testTable(t, -25),
		Points: []models.StationPoint{
			{DisplayName: "Fairbanks Intl AP", Code: "AKFAIRBANKSINTLAP", Latitude: 64.80, Longitude: -147.88},
			{DisplayName: "Barrow", Code: "AKBARROW", Latitude: 71.28, Longitude: -156.78},
			{DisplayName: "Empty Creek", Code: "AKEMPTY", Latitude: 65.00, Longitude: -146.00},
			{DisplayName: "Nome", Code: "AKNOME", Latitude: 64.51, Longitude: -165.44},
		},
	}
	for i, run := range models.ModelRuns {
		snapshot.Maxima[models.VariableT2][run] = testTable(t, -20+float64(i))
		snapshot.Minima[models.VariableT2][run] = testTable(t, -40+float64(i))
	}
	return snapshot
}

func routerFor(t *testing.T, snapshot dataset.Snapshot) (*mux.Router, *DashboardHandler) {
	t.Helper()

	store, err := dataset.NewStore(snapshot)
	require.NoError(t, err)

	logger := logging.NewTestLogger()
	collector := metrics.NewTestCollector()
	registry := services.NewStationRegistry(store.Points(), store.Observations())
	charts := services.NewChartService(store, registry, logger, collector)
	selection := services.NewSelectionService(registry, models.DefaultStationCode, logger, collector)
	stats := services.NewStatisticsService(charts, logger, collector)

	handler := NewDashboardHandler(charts, selection, stats, store, logger, collector)
	page := NewPageHandler(selection, config.Default().Map, logger)

	router := mux.NewRouter()
	router.Use(RequestID)
	handler.RegisterRoutes(router)
	page.RegisterRoutes(router)
	return router, handler
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

type chartBody struct {
	Title  string `json:"title"`
	Empty  bool   `json:"empty"`
	Series []struct {
		Name string    `json:"name"`
		Kind string    `json:"kind"`
		Fill string    `json:"fill"`
		X    []string  `json:"x"`
		Y    []float64 `json:"y"`
	} `json:"series"`
}

func TestGetChart(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/api/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body chartBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.False(t, body.Empty)
	assert.Equal(t, "Compare MODIS LST with WRF T2 Max\n Fairbanks Intl AP", body.Title)

	names := make([]string, len(body.Series))
	for i, s := range body.Series {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"ERA-Interim", "MOD11A2", "MYD11A2", "ACIS", "GFDL-CM3", "NCAR-CCSM4"}, names)
	assert.Equal(t, "tozeroy", body.Series[0].Fill)
	assert.Len(t, body.Series[0].X, 6)
	assert.Equal(t, []string{"2004-01-01", "2004-06-01", "2005-01-01"}, body.Series[3].X)
	assert.Equal(t, []float64{-25, 5, -23}, body.Series[3].Y)
}

func TestGetChartUnencodableValue(t *testing.T) {
	snapshot := testSnapshot(t)
	obs, err := models.NewTimeSeriesTable(testDates,
		[]string{"AKFAIRBANKSINTLAP", "AKBARROW", "AKEMPTY"},
		[][]float64{{math.Inf(1), -10, math.NaN()}, {-3, -5, math.NaN()}, {-2, -8, math.NaN()}},
	)
	require.NoError(t, err)
	snapshot.Observations = obs
	router, handler := routerFor(t, snapshot)

	rec := get(t, router, "/api/chart?station=AKFAIRBANKSINTLAP")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(handler.metrics.APIErrorsTotal.WithLabelValues("internal_error", "/api/chart")))
}

func TestGetChartStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		expected int
		empty    bool
	}{
		{"explicit request", "/api/chart?station=AKBARROW&variable=t2&begin=2004&end=2004", http.StatusOK, false},
		{"upper-case variable", "/api/chart?variable=T2", http.StatusOK, false},
		{"variable without model runs", "/api/chart?variable=tsk", http.StatusOK, false},
		{"unknown station", "/api/chart?station=AKNOME", http.StatusNotFound, false},
		{"reversed years", "/api/chart?begin=2005&end=2004", http.StatusBadRequest, false},
		{"year out of bounds", "/api/chart?begin=1999", http.StatusBadRequest, false},
		{"non-numeric year", "/api/chart?end=soon", http.StatusBadRequest, false},
		{"unknown variable", "/api/chart?variable=precip", http.StatusBadRequest, false},
		{"station without values", "/api/chart?station=AKEMPTY", http.StatusOK, true},
		{"range without values", "/api/chart?begin=2010&end=2012", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t)

			rec := get(t, router, tt.target)
			require.Equal(t, tt.expected, rec.Code, rec.Body.String())

			if tt.expected == http.StatusOK {
				var body chartBody
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.empty, body.Empty)
				return
			}

			var errBody ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
			assert.Equal(t, tt.expected, errBody.Code)
			assert.NotEmpty(t, errBody.Message)
		})
	}
}

func TestGetChartPNG(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/api/chart.png?width=400&height=200")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = get(t, router, "/api/chart.png?station=AKEMPTY")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSummary(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/api/summary?station=AKBARROW")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary services.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "AKBARROW", summary.Station)
	require.Len(t, summary.Series, 6)
	assert.Equal(t, "ACIS", summary.Series[2].Name)
	assert.Equal(t, 3, summary.Series[2].Count)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		expected services.Selection
	}{
		{"known label", "/api/select?label=Barrow&current=AKFAIRBANKSINTLAP", services.Selection{Code: "AKBARROW", Matched: true}},
		{"label with spaces", "/api/select?label=Fairbanks+Intl+AP", services.Selection{Code: "AKFAIRBANKSINTLAP", Matched: true}},
		{"unknown label", "/api/select?label=Nonexistent&current=AKBARROW", services.Selection{Code: "AKBARROW"}},
		{"no label", "/api/select", services.Selection{Code: models.DefaultStationCode}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t)

			rec := get(t, router, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)

			var got services.Selection
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestListEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, target := range []string{"/api/stations", "/api/markers"} {
		rec := get(t, router, target)
		require.Equal(t, http.StatusOK, rec.Code, target)

		var body struct {
			Total int               `json:"total"`
			Data  []json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 3, body.Total, target)
		assert.Len(t, body.Data, 3, target)
	}

	rec := get(t, router, "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)
	var opts services.Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, models.DefaultStationCode, opts.DefaultStation)
	assert.Equal(t, models.DefaultYears, opts.DefaultYears)
}

func TestHealthCheck(t *testing.T) {
	router, handler := newTestRouter(t)

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 3, health.Stations)

	handler.WithHealthCheck("database", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	rec = get(t, router, "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "connection refused", health.Checks["database"])
}

func TestIndexPage(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, PageTitle)
	assert.Contains(t, body, `<option value="t2" selected>T2</option>`)

	assert.Contains(t, body, `<select id="station">`)
	assert.Contains(t, body, `<option value="AKFAIRBANKSINTLAP" selected>Fairbanks Intl AP</option>`)
	assert.Contains(t, body, `<option value="AKBARROW">Barrow</option>`)
	assert.Contains(t, body, `<option value="AKEMPTY">Empty Creek</option>`)
	assert.NotContains(t, body, "AKNOME")
}

func TestDocs(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/api/docs/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var spec struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.0", spec.OpenAPI)
	for _, path := range []string{"/api/chart", "/api/chart.png", "/api/select", "/health"} {
		assert.Contains(t, spec.Paths, path)
	}

	rec = get(t, router, "/api/docs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "swagger-ui")
}

func TestRequestID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := get(t, router, "/health")
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestAccessLog(t *testing.T) {
	logger := logging.NewStructuredLogger("test", "0.0.0", logging.DebugLevel)
	var out strings.Builder
	logger.SetOutput(&out)

	handler := RequestID(AccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, out.String(), "[HTTP_REQUEST]")
	assert.Contains(t, out.String(), `"status":418`)
	assert.Contains(t, out.String(), rec.Header().Get(RequestIDHeader))
}
