package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"lst-explorer/internal/config"
	"lst-explorer/internal/services"
	"lst-explorer/pkg/logging"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PageTitle heads the dashboard page
const PageTitle = "MODIS LST vs WRF Chena River Stations"

type pageData struct {
	Title       string
	Options     services.Options
	MapboxToken string
	CenterLat   float64
	CenterLon   float64
	Zoom        float64
}

// PageHandler serves the dashboard page
type PageHandler struct {
	selection *services.SelectionService
	mapConfig config.MapConfig
	logger    *logging.StructuredLogger
}

// NewPageHandler creates a new page handler
func NewPageHandler(selection *services.SelectionService, mapConfig config.MapConfig, logger *logging.StructuredLogger) *PageHandler {
	return &PageHandler{
		selection: selection,
		mapConfig: mapConfig,
		logger:    logger,
	}
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:       PageTitle,
		Options:     h.selection.Options(),
		MapboxToken: h.mapConfig.AccessToken,
		CenterLat:   h.mapConfig.CenterLat,
		CenterLon:   h.mapConfig.CenterLon,
		Zoom:        h.mapConfig.Zoom,
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		h.logger.Error(r.Context(), "[PAGE_ERROR] Failed to render dashboard page", logging.Fields{}, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// RegisterRoutes registers the page route
func (h *PageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods("GET")
}
