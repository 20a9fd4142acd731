// Package geostore defines read-only access to the reference geographic
// datasets: zoned polygon maps, hedge line maps and the land registry used
// for commune lookups. Implementations answer point-in, point-near and
// intersection queries; all reads are side-effect free.
package geostore

import (
	"context"
	"errors"

	"github.com/MTES-MCT/envergo/internal/geo"
)

// MapType tags a reference map with the kind of data it holds.
type MapType string

const (
	MapTypeWetland   MapType = "zone_humide"
	MapTypeFlood     MapType = "zone_inondable"
	MapTypeSpecies   MapType = "espece_protegee"
	MapTypeHedge     MapType = "haie"
	MapTypeCatchment MapType = "bassin_versant"
	MapTypeZoning    MapType = "zonage"
	MapTypeLand      MapType = "cadastre"
)

// Certainty qualifies how authoritative a map's data is.
type Certainty string

const (
	CertaintyCertain   Certainty = "certain"
	CertaintyUncertain Certainty = "uncertain"
	CertaintyForbidden Certainty = "forbidden"
)

// ErrUnavailable signals a transient backing-store failure. Criteria map it
// to a non_disponible result instead of aborting the evaluation.
var ErrUnavailable = errors.New("geostore: backing store unavailable")

// Map is a named collection of reference geometries.
type Map struct {
	ID             int64
	Name           string
	Type           MapType
	Certainty      Certainty
	Departments    []string
	DisplayForUser bool
	Source         string
}

// Zone is a multipolygon belonging to one map.
type Zone struct {
	ID         int64
	Map        *Map
	Geometry   *geo.MultiPolygon
	AreaM2     float64
	PointCount int
	TaxonIDs   []string
	Attributes map[string]string
}

// Line is a multiline belonging to one hedge-type map.
type Line struct {
	ID       int64
	Map      *Map
	Geometry geo.MultiLine
}

// Store answers the geographic queries used by criteria. Implementations
// must be safe for concurrent readers; a nil/empty result means no data is
// configured for the query region.
type Store interface {
	// ZonesWithin returns the zones of the given map type and certainty
	// whose geometry lies within distanceM meters of p, ordered by zone id.
	ZonesWithin(ctx context.Context, p geo.Point, distanceM float64, mapType MapType, certainty Certainty) ([]Zone, error)

	// ZonesContaining is ZonesWithin with a zero distance.
	ZonesContaining(ctx context.Context, p geo.Point, mapType MapType, certainty Certainty) ([]Zone, error)

	// LinesIntersecting returns the lines of the given map type that touch
	// or cross the polygon, ordered by line id.
	LinesIntersecting(ctx context.Context, polygon *geo.MultiPolygon, mapType MapType) ([]Line, error)

	// CommuneOf reverse-geocodes p against the land map. It returns the
	// INSEE commune code, or "" when the point is outside known communes.
	CommuneOf(ctx context.Context, p geo.Point) (string, error)

	// CatchmentAreaM2 interpolates the catchment-area raster at p. The
	// boolean is false when fewer than three valid pixel samples surround
	// the projected point.
	CatchmentAreaM2(ctx context.Context, p geo.Point) (int, bool, error)
}
