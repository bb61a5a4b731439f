package handlers

import (
	"encoding/json"
	"net/http"

	"lst-explorer/internal/models"
)

func queryParam(name, description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": schema,
			},
		},
	}
}

func chartParams() []map[string]interface{} {
	variables := make([]string, len(models.Variables))
	for i, v := range models.Variables {
		variables[i] = string(v)
	}

	return []map[string]interface{}{
		queryParam("station", "ACIS station code", map[string]interface{}{
			"type": "string", "default": models.DefaultStationCode,
		}),
		queryParam("variable", "WRF variable family", map[string]interface{}{
			"type": "string", "enum": variables, "default": string(models.VariableT2),
		}),
		queryParam("begin", "First year of the range", map[string]interface{}{
			"type": "integer", "minimum": models.MinYear, "maximum": models.MaxYear, "default": models.DefaultYears.Begin,
		}),
		queryParam("end", "Last year of the range", map[string]interface{}{
			"type": "integer", "minimum": models.MinYear, "maximum": models.MaxYear, "default": models.DefaultYears.End,
		}),
	}
}

var errorResponses = map[string]interface{}{
	"400": jsonResponse("Invalid variable or year range", map[string]interface{}{"$ref": "#/components/schemas/Error"}),
	"404": jsonResponse("Unknown station", map[string]interface{}{"$ref": "#/components/schemas/Error"}),
}

func withErrors(ok map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"200": ok}
	for code, resp := range errorResponses {
		out[code] = resp
	}
	return out
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "LST Explorer API",
			"description": "Compare MODIS land surface temperature with WRF model output and ACIS station observations",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Error": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"code":    map[string]string{"type": "integer"},
					},
				},
				"Series": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name": map[string]string{"type": "string"},
						"kind": map[string]interface{}{"type": "string", "enum": []string{"band", "line"}},
						"fill": map[string]string{"type": "string"},
						"mode": map[string]string{"type": "string"},
						"x":    map[string]interface{}{"type": "array", "items": map[string]string{"type": "string", "format": "date"}},
						"y":    map[string]interface{}{"type": "array", "items": map[string]string{"type": "number"}},
					},
				},
				"Station": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name": map[string]string{"type": "string"},
						"code": map[string]string{"type": "string"},
						"lat":  map[string]string{"type": "number"},
						"lon":  map[string]string{"type": "number"},
					},
				},
			},
		},
		"paths": map[string]interface{}{
			"/api/chart": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Chart payload",
					"description": "Band for the reference run, satellite products, station observations and the other model runs, in draw order. An empty range returns 200 with empty=true.",
					"parameters":  chartParams(),
					"responses": withErrors(jsonResponse("Chart payload", map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"title":       map[string]string{"type": "string"},
							"xaxis_title": map[string]string{"type": "string"},
							"yaxis_title": map[string]string{"type": "string"},
							"empty":       map[string]string{"type": "boolean"},
							"series": map[string]interface{}{
								"type":  "array",
								"items": map[string]string{"$ref": "#/components/schemas/Series"},
							},
						},
					})),
				},
			},
			"/api/chart.png": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Chart as PNG",
					"parameters": append(chartParams(),
						queryParam("width", "Image width in pixels", map[string]interface{}{"type": "integer"}),
						queryParam("height", "Image height in pixels", map[string]interface{}{"type": "integer"}),
					),
					"responses": withErrors(map[string]interface{}{
						"description": "PNG image",
						"content": map[string]interface{}{
							"image/png": map[string]interface{}{
								"schema": map[string]string{"type": "string", "format": "binary"},
							},
						},
					}),
				},
			},
			"/api/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Per-series count, min, max and mean",
					"parameters": chartParams(),
					"responses": withErrors(jsonResponse("Summary", map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"station":  map[string]string{"type": "string"},
							"variable": map[string]string{"type": "string"},
							"series":   map[string]string{"type": "array"},
						},
					})),
				},
			},
			"/api/select": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Resolve a map click",
					"description": "Maps a clicked label to a station code. Unknown labels keep the current selection.",
					"parameters": []map[string]interface{}{
						queryParam("label", "Clicked station display name", map[string]interface{}{"type": "string"}),
						queryParam("current", "Currently selected station code", map[string]interface{}{"type": "string"}),
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Selection", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"station": map[string]string{"type": "string"},
								"matched": map[string]string{"type": "boolean"},
							},
						}),
					},
				},
			},
			"/api/stations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Stations with observations",
					"responses": map[string]interface{}{
						"200": jsonResponse("Station list", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"data":  map[string]interface{}{"type": "array", "items": map[string]string{"$ref": "#/components/schemas/Station"}},
								"total": map[string]string{"type": "integer"},
							},
						}),
					},
				},
			},
			"/api/markers": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Static map markers",
					"responses": map[string]interface{}{
						"200": jsonResponse("Marker list", map[string]interface{}{"type": "object"}),
					},
				},
			},
			"/api/options": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Control values and defaults",
					"responses": map[string]interface{}{
						"200": jsonResponse("Options", map[string]interface{}{"type": "object"}),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Reports the dataset load time and the state of optional dependencies",
					"responses": map[string]interface{}{
						"200": jsonResponse("Healthy", map[string]interface{}{"type": "object"}),
						"503": jsonResponse("A dependency check failed", map[string]interface{}{"type": "object"}),
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
