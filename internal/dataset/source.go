package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lst-explorer/internal/models"
)

// Source returns parsed dataset resources by name
type Source interface {
	// Name identifies the source in logs and metrics
	Name() string
	Table(ctx context.Context, resource string) (*models.TimeSeriesTable, error)
	StationPoints(ctx context.Context, resource string) ([]models.StationPoint, error)
}

// HTTPSource reads CSV resources from a static file server
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource creates a source rooted at baseURL
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return NewHTTPSourceWithClient(baseURL, &http.Client{Timeout: timeout})
}

// NewHTTPSourceWithClient creates a source with a custom HTTP client
func NewHTTPSourceWithClient(baseURL string, httpClient *http.Client) *HTTPSource {
	return &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (s *HTTPSource) Name() string {
	return "http"
}

// Table fetches and parses one time-series CSV
func (s *HTTPSource) Table(ctx context.Context, resource string) (*models.TimeSeriesTable, error) {
	body, err := s.fetch(ctx, resource)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	table, err := ParseTable(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", resource, err)
	}
	return table, nil
}

// StationPoints fetches and parses the station list CSV
func (s *HTTPSource) StationPoints(ctx context.Context, resource string) ([]models.StationPoint, error) {
	body, err := s.fetch(ctx, resource)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	points, err := ParseStationPoints(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", resource, err)
	}
	return points, nil
}

func (s *HTTPSource) fetch(ctx context.Context, resource string) (io.ReadCloser, error) {
	requestURL := s.baseURL + "/" + url.PathEscape(resource)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", resource, err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: HTTP %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return resp.Body, nil
}
