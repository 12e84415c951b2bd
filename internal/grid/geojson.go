package grid

import (
	"encoding/json"
	"fmt"
	"io"
)

type geoJSONFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   geoJSONPolygon `json:"geometry"`
}

type geoJSONPolygon struct {
	Type        string           `json:"type"`
	Coordinates [][][2]float64   `json:"coordinates"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// ExportGeoJSON writes the grid's cell geometry as a GeoJSON feature
// collection, one polygon feature per cell with its cell_id and area as
// properties. The Grid itself is not modified.
func (g *Grid) ExportGeoJSON(w io.Writer) error {
	coll := geoJSONCollection{
		Type:     "FeatureCollection",
		Features: make([]geoJSONFeature, 0, g.CellCount()),
	}

	for _, cellID := range g.CellIDs() {
		var ring [][2]float64
		switch g.cfg.Type {
		case Hexagon:
			ring = g.hexCorners(cellID)
		default:
			ring = g.squareCorners(cellID)
		}
		coll.Features = append(coll.Features, geoJSONFeature{
			Type: "Feature",
			Properties: map[string]any{
				"cell_id": cellID,
				"area":    g.cfg.CellArea,
			},
			Geometry: geoJSONPolygon{
				Type:        "Polygon",
				Coordinates: [][][2]float64{ring},
			},
		})
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(coll); err != nil {
		return fmt.Errorf("export grid geometry: %w", err)
	}
	return nil
}
