package services

import (
	"context"
	"strings"

	"lst-explorer/internal/models"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

// Selection is the outcome of a map click
type Selection struct {
	Code    string `json:"station"`
	Matched bool   `json:"matched"`
}

// SelectionService turns map click labels into station codes
type SelectionService struct {
	registry    *StationRegistry
	defaultCode string
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewSelectionService creates a selection service falling back to defaultCode
func NewSelectionService(registry *StationRegistry, defaultCode string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SelectionService {
	return &SelectionService{
		registry:    registry,
		defaultCode: defaultCode,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// Default is the station selected before any click
func (s *SelectionService) Default() string {
	return s.defaultCode
}

// CodeForLabel resolves a clicked point label to a station code
func (s *SelectionService) CodeForLabel(label string) (string, error) {
	return s.registry.CodeFor(label)
}

// OnMapClick never fails: an unknown or blank label keeps the current
// selection, or the default when nothing is selected yet.
func (s *SelectionService) OnMapClick(ctx context.Context, label, current string) Selection {
	fallback := strings.TrimSpace(current)
	if fallback == "" {
		fallback = s.defaultCode
	}

	if strings.TrimSpace(label) == "" {
		return Selection{Code: fallback}
	}

	code, err := s.CodeForLabel(label)
	if err != nil {
		s.metrics.SelectionMissesTotal.Inc()
		s.logger.Warn(ctx, "[SELECTION_MISS] Clicked label matches no station", logging.Fields{
			"label":    label,
			"fallback": fallback,
		})
		return Selection{Code: fallback}
	}

	return Selection{Code: code, Matched: true}
}

// IsKnown reports whether code is a registered station
func (s *SelectionService) IsKnown(code string) bool {
	_, err := s.registry.Lookup(code)
	return err == nil
}

// Options describes the dashboard controls and their defaults
type Options struct {
	Variables      []models.Variable     `json:"variables"`
	MinYear        int                   `json:"min_year"`
	MaxYear        int                   `json:"max_year"`
	DefaultYears   models.YearRange      `json:"default_years"`
	DefaultStation string                `json:"default_station"`
	DefaultVar     models.Variable       `json:"default_variable"`
	Stations       []models.StationPoint `json:"stations"`
}

// Options returns the control values the dashboard starts from
func (s *SelectionService) Options() Options {
	return Options{
		Variables:      append([]models.Variable(nil), models.Variables...),
		MinYear:        models.MinYear,
		MaxYear:        models.MaxYear,
		DefaultYears:   models.DefaultYears,
		DefaultStation: s.defaultCode,
		DefaultVar:     models.VariableT2,
		Stations:       s.registry.Stations(),
	}
}
