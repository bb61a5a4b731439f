package models

// DefaultStationCode is selected before any map click
const DefaultStationCode = "AKFAIRBANKSINTLAP"

// StationPoint is an ACIS station shown on the map
type StationPoint struct {
	DisplayName string  `json:"name" db:"display_name"`
	Code        string  `json:"code" db:"station_code"`
	Latitude    float64 `json:"lat" db:"latitude"`
	Longitude   float64 `json:"lon" db:"longitude"`
}

// MapMarker is the static marker payload rendered once by the map
type MapMarker struct {
	Code      string  `json:"code"`
	Label     string  `json:"label"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}
