package moulinette

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/hedges"
)

// Catalog carries the facts shared by every criterion of one evaluation:
// the validated inputs, the projected coordinates and the memoized
// geostore lookups. Criteria read from it and never write; their local
// facts travel in their own result catalogs.
type Catalog struct {
	Params     Params
	Department string

	HasCoords bool
	Coords    geo.Point
	Lambert   geo.XY

	CreatedSurface  float64
	ExistingSurface float64
	ProjectSurface  float64

	Hedges    *hedges.Data
	hedgesErr error

	// RegulationResults holds the outcome of regulations already folded,
	// for criteria that cascade from another regulation (natura2000 iota).
	RegulationResults map[string]Result

	store geostore.Store

	mu          sync.Mutex
	zoneMemo    map[uint64]zoneMemo
	densityMemo map[uint64]densityMemo
	catchment   *catchmentMemo
}

type zoneMemo struct {
	zones []geostore.Zone
	err   error
}

type densityMemo struct {
	density float64
	err     error
}

type catchmentMemo struct {
	area int
	ok   bool
	err  error
}

// NewCatalog builds an empty catalog over a geostore. Evaluate fills the
// validated fields before any criterion runs; tests fill them directly.
func NewCatalog(store geostore.Store, params Params) *Catalog {
	return &Catalog{
		Params:            params,
		store:             store,
		zoneMemo:          make(map[uint64]zoneMemo),
		densityMemo:       make(map[uint64]densityMemo),
		RegulationResults: make(map[string]Result),
	}
}

// HedgeData returns the resolved hedge set. An unresolvable set surfaces
// the store failure so the criterion degrades to non_disponible.
func (c *Catalog) HedgeData() (*hedges.Data, error) {
	if c.hedgesErr != nil {
		return nil, c.hedgesErr
	}
	if c.Hedges == nil {
		return nil, fmt.Errorf("no hedge set in request: %w", geostore.ErrUnavailable)
	}
	return c.Hedges, nil
}

func (c *Catalog) memoKey(op string, p geo.Point, mapType geostore.MapType, certainty geostore.Certainty, distanceM float64) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%s:%s:%s:%g:%.7f:%.7f",
		op, mapType, certainty, distanceM, p.Lng, p.Lat))
}

func (c *Catalog) zonesWithin(ctx context.Context, mapType geostore.MapType, certainty geostore.Certainty, distanceM float64) ([]geostore.Zone, error) {
	return c.zonesWithinAt(ctx, c.Coords, mapType, certainty, distanceM)
}

func (c *Catalog) zonesWithinAt(ctx context.Context, p geo.Point, mapType geostore.MapType, certainty geostore.Certainty, distanceM float64) ([]geostore.Zone, error) {
	key := c.memoKey("zones", p, mapType, certainty, distanceM)

	c.mu.Lock()
	if hit, ok := c.zoneMemo[key]; ok {
		c.mu.Unlock()
		return hit.zones, hit.err
	}
	c.mu.Unlock()

	zones, err := c.store.ZonesWithin(ctx, p, distanceM, mapType, certainty)

	c.mu.Lock()
	c.zoneMemo[key] = zoneMemo{zones: zones, err: err}
	c.mu.Unlock()
	return zones, err
}

// WetlandsWithin returns the certain wetland zones within d meters.
func (c *Catalog) WetlandsWithin(ctx context.Context, d float64) ([]geostore.Zone, error) {
	return c.zonesWithin(ctx, geostore.MapTypeWetland, geostore.CertaintyCertain, d)
}

// PotentialWetlandsAt returns the uncertain wetland zones containing the
// point.
func (c *Catalog) PotentialWetlandsAt(ctx context.Context) ([]geostore.Zone, error) {
	return c.zonesWithin(ctx, geostore.MapTypeWetland, geostore.CertaintyUncertain, 0)
}

// ForbiddenWetlandsWithin returns the wetland zones of forbidden-certainty
// maps within d meters. Used by the strict sage criteria.
func (c *Catalog) ForbiddenWetlandsWithin(ctx context.Context, d float64) ([]geostore.Zone, error) {
	return c.zonesWithin(ctx, geostore.MapTypeWetland, geostore.CertaintyForbidden, d)
}

// FloodZonesWithin returns the flood zones within d meters.
func (c *Catalog) FloodZonesWithin(ctx context.Context, d float64) ([]geostore.Zone, error) {
	return c.zonesWithin(ctx, geostore.MapTypeFlood, geostore.CertaintyCertain, d)
}

// ZonesAt returns the zones of the given map type and certainty containing
// an arbitrary point. Hedge criteria use it with hedge centroids, where the
// request carries no project coordinates.
func (c *Catalog) ZonesAt(ctx context.Context, p geo.Point, mapType geostore.MapType, certainty geostore.Certainty) ([]geostore.Zone, error) {
	return c.zonesWithinAt(ctx, p, mapType, certainty, 0)
}

// HedgeDensityAround returns the density of the reference hedge network
// around p, in meters of hedge per hectare, measured on a radiusM circle.
func (c *Catalog) HedgeDensityAround(ctx context.Context, p geo.Point, radiusM float64) (float64, error) {
	key := c.memoKey("hedgedensity", p, geostore.MapTypeHedge, "", radiusM)

	c.mu.Lock()
	if hit, ok := c.densityMemo[key]; ok {
		c.mu.Unlock()
		return hit.density, hit.err
	}
	c.mu.Unlock()

	lines, err := c.store.LinesIntersecting(ctx, squareAround(p, radiusM), geostore.MapTypeHedge)
	var density float64
	if err == nil {
		var total float64
		for _, l := range lines {
			total += l.Geometry.LengthM()
		}
		areaHa := math.Pi * radiusM * radiusM / 10000
		if areaHa > 0 {
			density = total / areaHa
		}
	}

	c.mu.Lock()
	c.densityMemo[key] = densityMemo{density: density, err: err}
	c.mu.Unlock()
	return density, err
}

// squareAround builds the axis-aligned square circumscribing the radiusM
// circle centered on p.
func squareAround(p geo.Point, radiusM float64) *geo.MultiPolygon {
	const mPerDeg = 111194.93
	dLat := radiusM / mPerDeg
	dLng := radiusM / (mPerDeg * math.Cos(p.Lat*math.Pi/180))
	ring := geo.Ring{
		{Lng: p.Lng - dLng, Lat: p.Lat - dLat},
		{Lng: p.Lng + dLng, Lat: p.Lat - dLat},
		{Lng: p.Lng + dLng, Lat: p.Lat + dLat},
		{Lng: p.Lng - dLng, Lat: p.Lat + dLat},
		{Lng: p.Lng - dLng, Lat: p.Lat - dLat},
	}
	return geo.NewMultiPolygon([]geo.Ring{ring})
}

// CatchmentAreaM2 interpolates the catchment-area raster at the project
// point, once per evaluation.
func (c *Catalog) CatchmentAreaM2(ctx context.Context) (int, bool, error) {
	c.mu.Lock()
	if c.catchment != nil {
		hit := *c.catchment
		c.mu.Unlock()
		return hit.area, hit.ok, hit.err
	}
	c.mu.Unlock()

	area, ok, err := c.store.CatchmentAreaM2(ctx, c.Coords)

	c.mu.Lock()
	c.catchment = &catchmentMemo{area: area, ok: ok, err: err}
	c.mu.Unlock()
	return area, ok, err
}

// Shared returns the merged shared facts exposed in the evaluation result.
func (c *Catalog) Shared() map[string]any {
	out := map[string]any{
		"department": c.Department,
	}
	if c.HasCoords {
		out["lng"] = c.Coords.Lng
		out["lat"] = c.Coords.Lat
		out["coords"] = []float64{c.Lambert.X, c.Lambert.Y}
	}
	if c.Params.Has("created_surface") {
		out["created_surface"] = c.CreatedSurface
		out["existing_surface"] = c.ExistingSurface
		out["project_surface"] = c.ProjectSurface
	}
	if c.Hedges != nil {
		out["haies"] = c.Hedges.ID().String()
		out["length_to_remove"] = c.Hedges.LengthToRemove()
		out["length_to_plant"] = c.Hedges.LengthToPlant()
	}
	return out
}
