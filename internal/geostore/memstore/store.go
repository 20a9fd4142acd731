// Package memstore is the in-memory geostore implementation. Reference
// zones and lines are loaded once (admin imports replace the whole
// snapshot) and indexed with H3 cells for coarse filtering; exact
// containment and distance tests run on the s2 geometries.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/geostore/raster"
)

type zoneKey struct {
	mapType   geostore.MapType
	certainty geostore.Certainty
}

// Store holds a consistent snapshot of the reference data. Safe for
// concurrent readers; Reload swaps the snapshot atomically.
type Store struct {
	mu      sync.RWMutex
	zones   map[zoneKey][]geostore.Zone
	indexes map[zoneKey]*cellIndex
	lines   map[geostore.MapType][]geostore.Line
	tiles   *raster.TileSet
}

var _ geostore.Store = (*Store)(nil)

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.zones = make(map[zoneKey][]geostore.Zone)
	s.indexes = make(map[zoneKey]*cellIndex)
	s.lines = make(map[geostore.MapType][]geostore.Line)
}

// AddZone registers a zone under its map's type and certainty.
func (s *Store) AddZone(z geostore.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := zoneKey{mapType: z.Map.Type, certainty: z.Map.Certainty}
	s.zones[key] = append(s.zones[key], z)
	idx, ok := s.indexes[key]
	if !ok {
		idx = newCellIndex()
		s.indexes[key] = idx
	}
	idx.add(len(s.zones[key])-1, z.Geometry.Bound())
}

// AddLine registers a line under its map's type.
func (s *Store) AddLine(l geostore.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[l.Map.Type] = append(s.lines[l.Map.Type], l)
}

// SetTiles attaches the catchment-area raster tiles.
func (s *Store) SetTiles(ts *raster.TileSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles = ts
}

// Reload replaces the whole snapshot. Used by the invalidation consumer
// after an admin map import.
func (s *Store) Reload(zones []geostore.Zone, lines []geostore.Line, tiles *raster.TileSet) {
	next := New()
	for _, z := range zones {
		next.AddZone(z)
	}
	for _, l := range lines {
		next.AddLine(l)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = next.zones
	s.indexes = next.indexes
	s.lines = next.lines
	if tiles != nil {
		s.tiles = tiles
	}
}

func (s *Store) ZonesWithin(ctx context.Context, p geo.Point, distanceM float64, mapType geostore.MapType, certainty geostore.Certainty) ([]geostore.Zone, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := zoneKey{mapType: mapType, certainty: certainty}
	zones := s.zones[key]
	idx := s.indexes[key]
	if len(zones) == 0 || idx == nil {
		return nil, nil
	}

	seen := make(map[int]struct{})
	var out []geostore.Zone
	for _, id := range idx.candidates(p, distanceM) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		z := zones[id]
		if z.Geometry.WithinDistanceM(p, distanceM) {
			out = append(out, z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ZonesContaining(ctx context.Context, p geo.Point, mapType geostore.MapType, certainty geostore.Certainty) ([]geostore.Zone, error) {
	return s.ZonesWithin(ctx, p, 0, mapType, certainty)
}

func (s *Store) LinesIntersecting(ctx context.Context, polygon *geo.MultiPolygon, mapType geostore.MapType) ([]geostore.Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []geostore.Line
	for _, l := range s.lines[mapType] {
		for _, line := range l.Geometry {
			if polygon.IntersectsLine(line) {
				out = append(out, l)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CommuneOf looks the point up in the land map. Commune codes are read from
// the zone attributes.
func (s *Store) CommuneOf(ctx context.Context, p geo.Point) (string, error) {
	zones, err := s.ZonesContaining(ctx, p, geostore.MapTypeLand, geostore.CertaintyCertain)
	if err != nil {
		return "", err
	}
	for _, z := range zones {
		if code, ok := z.Attributes["commune"]; ok && code != "" {
			return code, nil
		}
	}
	return "", nil
}

func (s *Store) CatchmentAreaM2(ctx context.Context, p geo.Point) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	tiles := s.tiles
	s.mu.RUnlock()
	if tiles == nil {
		return 0, false, nil
	}
	return tiles.InterpolateAt(geo.ToLambert93(p))
}
