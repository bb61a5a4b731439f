package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(*testing.T, string)
	}{
		{
			name:  "valid table with missing cells",
			input: "date,AKFAIRBANKSINTLAP,AKNENANA\n2004-01-01,-20.5,\n2004-01-09,-18.0,NaN\n2004-01-17 00:00:00,-15.25,-16\n",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "header only date column",
			input:   "date\n2004-01-01\n",
			wantErr: true,
		},
		{
			name:    "bad date",
			input:   "date,A\n01/01/2004,1\n",
			wantErr: true,
		},
		{
			name:    "bad number",
			input:   "date,A\n2004-01-01,warm\n",
			wantErr: true,
		},
		{
			name:    "infinite value",
			input:   "date,AKFAIRBANKSINTLAP\n2004-01-01,inf\n2004-01-09,-3\n",
			wantErr: true,
		},
		{
			name:    "negative infinity spelled out",
			input:   "date,A\n2004-01-01,-Infinity\n",
			wantErr: true,
		},
		{
			name:    "time of day past midnight",
			input:   "date,A\n2004-01-01 00:00:00,1\n2004-01-01 12:00:00,2\n",
			wantErr: true,
		},
		{
			name:    "ragged row",
			input:   "date,A,B\n2004-01-01,1\n",
			wantErr: true,
		},
		{
			name:    "dates out of order",
			input:   "date,A\n2004-01-09,1\n2004-01-01,2\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseTable(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			require.Equal(t, 3, table.Len())
			assert.Equal(t, []string{"AKFAIRBANKSINTLAP", "AKNENANA"}, table.Columns())

			v, ok := table.Value(0, "AKNENANA")
			assert.True(t, ok)
			assert.True(t, math.IsNaN(v), "empty cell should be NaN")

			v, _ = table.Value(2, "AKFAIRBANKSINTLAP")
			assert.Equal(t, -15.25, v)
		})
	}
}

func TestParseStationPoints(t *testing.T) {
	input := ",name,name2,lat,lon\n" +
		"0,Fairbanks Intl AP,AKFAIRBANKSINTLAP,64.80,-147.88\n" +
		"1,Nenana,AKNENANA,64.55,-149.08\n"

	points, err := ParseStationPoints(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Fairbanks Intl AP", points[0].DisplayName)
	assert.Equal(t, "AKFAIRBANKSINTLAP", points[0].Code)
	assert.InDelta(t, 64.80, points[0].Latitude, 1e-9)
	assert.InDelta(t, -149.08, points[1].Longitude, 1e-9)
}

func TestParseStationPointsErrors(t *testing.T) {
	tests := map[string]string{
		"missing column": "name,name2,lat\nA,B,1\n",
		"bad latitude":   "name,name2,lat,lon\nA,B,north,1\n",
		"duplicate code": "name,name2,lat,lon\nA,B,1,1\nC,B,2,2\n",
		"empty code":     "name,name2,lat,lon\nA,,1,1\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStationPoints(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestCatalog(t *testing.T) {
	entries := Catalog()
	assert.Len(t, entries, 15)

	seen := map[string]bool{}
	for _, e := range entries {
		assert.False(t, seen[e.Resource], "duplicate resource %s", e.Resource)
		seen[e.Resource] = true
	}

	assert.True(t, seen["t2_ERA-Interim_historical_MOD11A2_max_wrf_acis_chena_river_huc_stations.csv"])
	assert.True(t, seen["tsk_NCAR-CCSM4_historical_MOD11A2_min_wrf_acis_chena_river_huc_stations.csv"])
	assert.True(t, seen["lst_MYD11A2_acis_chena_river_huc_stations.csv"])
	assert.True(t, seen[ObservationResource])
}
