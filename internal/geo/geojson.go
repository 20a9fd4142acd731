package geo

import (
	"encoding/json"
	"fmt"
)

// Geometry is the GeoJSON envelope used by the reference-data documents.
// Coordinates are [lng, lat] pairs in EPSG:4326.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func toPoints(pairs [][]float64) ([]Point, error) {
	out := make([]Point, 0, len(pairs))
	for _, c := range pairs {
		if len(c) < 2 {
			return nil, fmt.Errorf("coordinate needs lng and lat, got %v", c)
		}
		out = append(out, Point{Lng: c[0], Lat: c[1]})
	}
	return out, nil
}

func toRings(rings [][][]float64) ([]Ring, error) {
	out := make([]Ring, 0, len(rings))
	for _, r := range rings {
		pts, err := toPoints(r)
		if err != nil {
			return nil, err
		}
		if len(pts) < 4 {
			return nil, fmt.Errorf("ring needs at least 4 positions, got %d", len(pts))
		}
		out = append(out, Ring(pts))
	}
	return out, nil
}

// ParseMultiPolygon decodes a GeoJSON Polygon or MultiPolygon geometry.
func ParseMultiPolygon(g Geometry) (*MultiPolygon, error) {
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("polygon coordinates: %w", err)
		}
		rings, err := toRings(coords)
		if err != nil {
			return nil, err
		}
		return NewMultiPolygon(rings), nil
	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("multipolygon coordinates: %w", err)
		}
		polys := make([][]Ring, 0, len(coords))
		for _, p := range coords {
			rings, err := toRings(p)
			if err != nil {
				return nil, err
			}
			polys = append(polys, rings)
		}
		return NewMultiPolygon(polys...), nil
	default:
		return nil, fmt.Errorf("geometry type %q is not a polygon", g.Type)
	}
}

// ParseMultiLine decodes a GeoJSON LineString or MultiLineString geometry.
func ParseMultiLine(g Geometry) (MultiLine, error) {
	switch g.Type {
	case "LineString":
		var coords [][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("linestring coordinates: %w", err)
		}
		pts, err := toPoints(coords)
		if err != nil {
			return nil, err
		}
		if len(pts) < 2 {
			return nil, fmt.Errorf("linestring needs at least 2 positions, got %d", len(pts))
		}
		return MultiLine{Line(pts)}, nil
	case "MultiLineString":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("multilinestring coordinates: %w", err)
		}
		out := make(MultiLine, 0, len(coords))
		for _, l := range coords {
			pts, err := toPoints(l)
			if err != nil {
				return nil, err
			}
			if len(pts) < 2 {
				return nil, fmt.Errorf("multilinestring part needs at least 2 positions, got %d", len(pts))
			}
			out = append(out, Line(pts))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("geometry type %q is not a line", g.Type)
	}
}
