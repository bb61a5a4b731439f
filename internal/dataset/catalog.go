package dataset

import (
	"fmt"

	"lst-explorer/internal/models"
)

const (
	// ObservationResource holds ACIS 8-day station maxima
	ObservationResource = "tmax_acis_stationdata_8day.csv"
	// StationPointsResource lists station names, codes and coordinates
	StationPointsResource = "chena_river_huc_station_ids.csv"
)

// Kind is the data family of a catalog entry
type Kind string

const (
	KindModel       Kind = "model"
	KindSatellite   Kind = "satellite"
	KindObservation Kind = "observation"
)

// Entry describes one time-series resource of the catalog
type Entry struct {
	Resource string
	Kind     Kind
	Variable models.Variable
	Run      models.ModelRun
	Stat     models.Statistic
	Product  models.Product
}

// ModelResource names the WRF table for a variable, run and statistic
func ModelResource(v models.Variable, run models.ModelRun, stat models.Statistic) string {
	return fmt.Sprintf("%s_%s_historical_MOD11A2_%s_wrf_acis_chena_river_huc_stations.csv", v, run, stat)
}

// SatelliteResource names the MODIS LST table for a product
func SatelliteResource(p models.Product) string {
	return fmt.Sprintf("lst_%s_acis_chena_river_huc_stations.csv", p)
}

// Catalog returns every time-series resource the store needs, in a fixed order
func Catalog() []Entry {
	entries := make([]Entry, 0, len(models.Variables)*len(models.ModelRuns)*2+len(models.Products)+1)

	for _, v := range models.Variables {
		for _, stat := range []models.Statistic{models.StatMax, models.StatMin} {
			for _, run := range models.ModelRuns {
				entries = append(entries, Entry{
					Resource: ModelResource(v, run, stat),
					Kind:     KindModel,
					Variable: v,
					Run:      run,
					Stat:     stat,
				})
			}
		}
	}

	for _, p := range models.Products {
		entries = append(entries, Entry{
			Resource: SatelliteResource(p),
			Kind:     KindSatellite,
			Product:  p,
		})
	}

	entries = append(entries, Entry{Resource: ObservationResource, Kind: KindObservation})

	return entries
}
