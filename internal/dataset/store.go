package dataset

import (
	"errors"
	"fmt"
	"time"

	"lst-explorer/internal/models"
)

// RunTables maps each model run to its table
type RunTables map[models.ModelRun]*models.TimeSeriesTable

// Snapshot is the raw material of a Store
type Snapshot struct {
	Maxima       map[models.Variable]RunTables
	Minima       map[models.Variable]RunTables
	Satellite    map[models.Product]*models.TimeSeriesTable
	Observations *models.TimeSeriesTable
	Points       []models.StationPoint
}

// Store holds every dataset family in memory. It is built once at startup
// and is safe for concurrent readers because nothing mutates it afterwards.
type Store struct {
	maxima       map[models.Variable]RunTables
	minima       map[models.Variable]RunTables
	satellite    map[models.Product]*models.TimeSeriesTable
	observations *models.TimeSeriesTable
	points       []models.StationPoint
	loadedAt     time.Time
}

// NewStore validates a snapshot and freezes it into a Store
func NewStore(s Snapshot) (*Store, error) {
	if s.Observations == nil {
		return nil, errors.New("observation table is required")
	}
	for _, p := range models.Products {
		if s.Satellite[p] == nil {
			return nil, fmt.Errorf("satellite table %s is required", p)
		}
	}

	st := &Store{
		maxima:       make(map[models.Variable]RunTables, len(models.Variables)),
		minima:       make(map[models.Variable]RunTables, len(models.Variables)),
		satellite:    make(map[models.Product]*models.TimeSeriesTable, len(models.Products)),
		observations: s.Observations,
		points:       append([]models.StationPoint(nil), s.Points...),
		loadedAt:     time.Now().UTC(),
	}

	for v, runs := range s.Maxima {
		st.maxima[v] = copyRuns(runs)
	}
	for v, runs := range s.Minima {
		st.minima[v] = copyRuns(runs)
	}
	for p, t := range s.Satellite {
		st.satellite[p] = t
	}

	return st, nil
}

func copyRuns(in RunTables) RunTables {
	out := make(RunTables, len(in))
	for run, t := range in {
		if t != nil {
			out[run] = t
		}
	}
	return out
}

// Runs returns the model runs that have both a maxima and a minima table
// for v, in legend order.
func (s *Store) Runs(v models.Variable) []models.ModelRun {
	var runs []models.ModelRun
	for _, run := range models.ModelRuns {
		_, hasMax := s.maxima[v][run]
		_, hasMin := s.minima[v][run]
		if hasMax && hasMin {
			runs = append(runs, run)
		}
	}
	return runs
}

// Maxima returns the maxima table of a run
func (s *Store) Maxima(v models.Variable, run models.ModelRun) (*models.TimeSeriesTable, bool) {
	t, ok := s.maxima[v][run]
	return t, ok
}

// Minima returns the minima table of a run
func (s *Store) Minima(v models.Variable, run models.ModelRun) (*models.TimeSeriesTable, bool) {
	t, ok := s.minima[v][run]
	return t, ok
}

func (s *Store) Satellite(p models.Product) (*models.TimeSeriesTable, bool) {
	t, ok := s.satellite[p]
	return t, ok
}

func (s *Store) Observations() *models.TimeSeriesTable {
	return s.observations
}

// Points returns the unfiltered station list
func (s *Store) Points() []models.StationPoint {
	return append([]models.StationPoint(nil), s.points...)
}

func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

// TableInfo summarizes one loaded resource
type TableInfo struct {
	Resource string    `json:"resource"`
	Kind     Kind      `json:"kind"`
	Rows     int       `json:"rows"`
	Columns  int       `json:"columns"`
	First    time.Time `json:"first,omitempty"`
	Last     time.Time `json:"last,omitempty"`
}

// Describe lists the shape of every catalog table held by the store
func (s *Store) Describe() []TableInfo {
	var out []TableInfo
	for _, e := range Catalog() {
		var t *models.TimeSeriesTable
		var ok bool
		switch e.Kind {
		case KindModel:
			if e.Stat == models.StatMax {
				t, ok = s.Maxima(e.Variable, e.Run)
			} else {
				t, ok = s.Minima(e.Variable, e.Run)
			}
		case KindSatellite:
			t, ok = s.Satellite(e.Product)
		case KindObservation:
			t, ok = s.observations, true
		}
		if !ok {
			continue
		}

		info := TableInfo{Resource: e.Resource, Kind: e.Kind, Rows: t.Len(), Columns: len(t.Columns())}
		if first, last, ok := t.Span(); ok {
			info.First, info.Last = first, last
		}
		out = append(out, info)
	}
	return out
}
