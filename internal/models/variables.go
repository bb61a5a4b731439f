package models

import "strings"

// Variable is a WRF variable family shown in the chart
type Variable string

const (
	VariableT2  Variable = "t2"
	VariableTSK Variable = "tsk"
)

// Variables lists the supported variable families in display order
var Variables = []Variable{VariableT2, VariableTSK}

// ParseVariable accepts a variable key case-insensitively
func ParseVariable(s string) (Variable, error) {
	v := Variable(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variables {
		if v == known {
			return v, nil
		}
	}
	return "", &NotFoundError{Resource: "variable", ID: s}
}

// Label is the upper-cased name used in chart titles
func (v Variable) Label() string {
	return strings.ToUpper(string(v))
}

// ModelRun is one WRF model run (reanalysis or GCM-driven)
type ModelRun string

const (
	RunERAInterim ModelRun = "ERA-Interim"
	RunGFDLCM3    ModelRun = "GFDL-CM3"
	RunNCARCCSM4  ModelRun = "NCAR-CCSM4"
)

// ReferenceRun is drawn as the shaded min/max band
const ReferenceRun = RunERAInterim

// ModelRuns lists every run in legend order
var ModelRuns = []ModelRun{RunERAInterim, RunGFDLCM3, RunNCARCCSM4}

// Product is a MODIS LST 8-day composite product
type Product string

const (
	ProductTerra Product = "MOD11A2"
	ProductAqua  Product = "MYD11A2"
)

// Products lists the satellite products in legend order
var Products = []Product{ProductTerra, ProductAqua}

// Statistic selects the maxima or minima table of a model run
type Statistic string

const (
	StatMax Statistic = "max"
	StatMin Statistic = "min"
)

// ObservationSeriesName labels the ACIS station observations
const ObservationSeriesName = "ACIS"
