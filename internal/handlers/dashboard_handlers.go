package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lst-explorer/internal/dataset"
	"lst-explorer/internal/models"
	"lst-explorer/internal/render"
	"lst-explorer/internal/services"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

// HealthCheckFunc reports the health of one dependency
type HealthCheckFunc func(ctx context.Context) error

// DashboardHandler handles the dashboard API endpoints
type DashboardHandler struct {
	charts     *services.ChartService
	selection  *services.SelectionService
	statistics *services.StatisticsService
	store      *dataset.Store
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
	checks     map[string]HealthCheckFunc
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	charts *services.ChartService,
	selection *services.SelectionService,
	statistics *services.StatisticsService,
	store *dataset.Store,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		charts:     charts,
		selection:  selection,
		statistics: statistics,
		store:      store,
		logger:     logger,
		metrics:    metricsCollector,
		checks:     make(map[string]HealthCheckFunc),
	}
}

// WithHealthCheck adds a dependency probe to GET /health
func (h *DashboardHandler) WithHealthCheck(name string, check HealthCheckFunc) *DashboardHandler {
	h.checks[name] = check
	return h
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ChartResponse is a chart payload flagged when the range holds no data
type ChartResponse struct {
	*models.ChartPayload
	Empty bool `json:"empty"`
}

// DataResponse wraps list endpoints
type DataResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	LoadedAt  string            `json:"dataset_loaded_at"`
	Stations  int               `json:"stations"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// parseChartRequest reads station, variable, begin and end, defaulting
// each to the dashboard's initial control values.
func (h *DashboardHandler) parseChartRequest(r *http.Request) (models.ChartRequest, error) {
	q := r.URL.Query()

	req := models.ChartRequest{
		StationCode: strings.TrimSpace(q.Get("station")),
		Variable:    models.VariableT2,
		Years:       models.DefaultYears,
	}
	if req.StationCode == "" {
		req.StationCode = h.selection.Default()
	}

	if raw := q.Get("variable"); raw != "" {
		v, err := models.ParseVariable(raw)
		if err != nil {
			return req, &models.ValidationError{Field: "variable", Value: raw, Message: "unknown variable " + raw}
		}
		req.Variable = v
	}

	for _, param := range []struct {
		name   string
		target *int
	}{
		{"begin", &req.Years.Begin},
		{"end", &req.Years.End},
	} {
		raw := q.Get(param.name)
		if raw == "" {
			continue
		}
		year, err := strconv.Atoi(raw)
		if err != nil {
			return req, &models.ValidationError{Field: param.name, Value: raw, Message: param.name + " must be a year"}
		}
		*param.target = year
	}

	return req, req.Validate()
}

// GetChart handles GET /api/chart
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const endpoint = "/api/chart"
	defer h.observe(endpoint, time.Now())

	req, err := h.parseChartRequest(r)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	payload, err := h.charts.Assemble(ctx, req)
	var empty *models.EmptyRangeError
	switch {
	case errors.As(err, &empty):
		h.logger.Info(ctx, "[API_CHART_EMPTY] No data in requested range", logging.Fields{
			"station": req.StationCode,
			"begin":   req.Years.Begin,
			"end":     req.Years.End,
		})
		h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
		h.sendJSON(w, r, endpoint, ChartResponse{ChartPayload: payload, Empty: true}, http.StatusOK)
		return
	case err != nil:
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, r, endpoint, ChartResponse{ChartPayload: payload}, http.StatusOK)
}

// GetChartPNG handles GET /api/chart.png
func (h *DashboardHandler) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const endpoint = "/api/chart.png"
	defer h.observe(endpoint, time.Now())

	req, err := h.parseChartRequest(r)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	payload, err := h.charts.Assemble(ctx, req)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	opts := render.DefaultOptions
	if width, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && width > 0 && width <= 4000 {
		opts.Width = width
	}
	if height, err := strconv.Atoi(r.URL.Query().Get("height")); err == nil && height > 0 && height <= 4000 {
		opts.Height = height
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, payload, opts); err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const endpoint = "/api/summary"
	defer h.observe(endpoint, time.Now())

	req, err := h.parseChartRequest(r)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	summary, err := h.statistics.Summarize(ctx, req)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, r, endpoint, summary, http.StatusOK)
}

// Select handles GET /api/select, the map click controller
func (h *DashboardHandler) Select(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/select"
	defer h.observe(endpoint, time.Now())

	q := r.URL.Query()
	selection := h.selection.OnMapClick(r.Context(), q.Get("label"), q.Get("current"))

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, r, endpoint, selection, http.StatusOK)
}

// GetStations handles GET /api/stations
func (h *DashboardHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/stations"
	defer h.observe(endpoint, time.Now())

	stations := h.selection.Options().Stations

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, r, endpoint, DataResponse{Data: stations, Total: len(stations)}, http.StatusOK)
}

// GetMarkers handles GET /api/markers
func (h *DashboardHandler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/markers"
	defer h.observe(endpoint, time.Now())

	markers := h.charts.Registry().Markers()

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, r, endpoint, DataResponse{Data: markers, Total: len(markers)}, http.StatusOK)
}

// GetOptions handles GET /api/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/options"
	defer h.observe(endpoint, time.Now())

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, r, endpoint, h.selection.Options(), http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		LoadedAt:  h.store.LoadedAt().Format(time.RFC3339),
		Stations:  h.charts.Registry().Len(),
	}

	code := http.StatusOK
	if len(h.checks) > 0 {
		status.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				status.Checks[name] = err.Error()
				status.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status.Checks[name] = "ok"
		}
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{
		"status": status.Status,
	})
	h.sendJSON(w, r, "/health", status, code)
}

// handleError maps domain errors onto HTTP status codes
func (h *DashboardHandler) handleError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	ctx := r.Context()

	var validation *models.ValidationError
	var notFound *models.NotFoundError
	switch {
	case errors.As(err, &validation):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, endpoint, validation.Error(), http.StatusBadRequest)
	case errors.As(err, &notFound):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, endpoint, notFound.Error(), http.StatusNotFound)
	case errors.Is(err, render.ErrNoData), errors.As(err, new(*models.EmptyRangeError)):
		h.metrics.RecordAPIError("empty_range", endpoint)
		h.sendError(w, r, endpoint, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error(ctx, "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
			"query":    r.URL.RawQuery,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, endpoint, "internal server error", http.StatusInternalServerError)
	}
}

func (h *DashboardHandler) observe(endpoint string, start time.Time) {
	h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// sendJSON encodes data before writing the header so an encoding failure
// still produces a 500
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, r *http.Request, endpoint string, data interface{}, statusCode int) {
	body, err := json.Marshal(data)
	if err != nil {
		h.handleError(w, r, endpoint, fmt.Errorf("failed to encode response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, r *http.Request, endpoint, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, r, endpoint, response, statusCode)
}

// RegisterRoutes registers all dashboard API routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chart", h.GetChart).Methods("GET")
	api.HandleFunc("/chart.png", h.GetChartPNG).Methods("GET")
	api.HandleFunc("/summary", h.GetSummary).Methods("GET")
	api.HandleFunc("/select", h.Select).Methods("GET")
	api.HandleFunc("/stations", h.GetStations).Methods("GET")
	api.HandleFunc("/markers", h.GetMarkers).Methods("GET")
	api.HandleFunc("/options", h.GetOptions).Methods("GET")
	api.HandleFunc("/docs", SwaggerUI).Methods("GET")
	api.HandleFunc("/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
