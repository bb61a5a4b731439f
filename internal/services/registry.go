package services

import (
	"lst-explorer/internal/models"
)

// StationsFor keeps the points whose station code is a column of the
// observation table, preserving input order.
func StationsFor(all []models.StationPoint, observations *models.TimeSeriesTable) []models.StationPoint {
	out := make([]models.StationPoint, 0, len(all))
	for _, p := range all {
		if observations != nil && observations.HasColumn(p.Code) {
			out = append(out, p)
		}
	}
	return out
}

// StationRegistry maps display names to station codes and coordinates
type StationRegistry struct {
	points []models.StationPoint
	byName map[string]models.StationPoint
	byCode map[string]models.StationPoint
}

// NewStationRegistry builds the registry from the raw station list,
// dropping stations without observations.
func NewStationRegistry(all []models.StationPoint, observations *models.TimeSeriesTable) *StationRegistry {
	points := StationsFor(all, observations)

	r := &StationRegistry{
		points: points,
		byName: make(map[string]models.StationPoint, len(points)),
		byCode: make(map[string]models.StationPoint, len(points)),
	}
	for _, p := range points {
		if _, dup := r.byName[p.DisplayName]; !dup {
			r.byName[p.DisplayName] = p
		}
		r.byCode[p.Code] = p
	}
	return r
}

// Stations returns the registered points in file order
func (r *StationRegistry) Stations() []models.StationPoint {
	return append([]models.StationPoint(nil), r.points...)
}

func (r *StationRegistry) Len() int {
	return len(r.points)
}

// CodeFor resolves a display name to its station code
func (r *StationRegistry) CodeFor(displayName string) (string, error) {
	p, ok := r.byName[displayName]
	if !ok {
		return "", &models.NotFoundError{Resource: "station", ID: displayName}
	}
	return p.Code, nil
}

// Lookup returns the point registered under a station code
func (r *StationRegistry) Lookup(code string) (models.StationPoint, error) {
	p, ok := r.byCode[code]
	if !ok {
		return models.StationPoint{}, &models.NotFoundError{Resource: "station", ID: code}
	}
	return p, nil
}

// Markers returns the static map markers, one per registered station
func (r *StationRegistry) Markers() []models.MapMarker {
	markers := make([]models.MapMarker, len(r.points))
	for i, p := range r.points {
		markers[i] = models.MapMarker{
			Code:      p.Code,
			Label:     p.DisplayName,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		}
	}
	return markers
}
