package memstore

import (
	"math"

	"github.com/golang/geo/s2"
	h3 "github.com/uber/h3-go/v4"

	"github.com/MTES-MCT/envergo/internal/geo"
)

// Average hexagon edge length in meters per H3 resolution, used to size the
// grid-disk expansion for distance queries.
var hexEdgeM = [16]float64{
	1107712.591, 418676.0055, 158244.6558, 59810.85794,
	22606.3794, 8544.408276, 3229.482772, 1220.629759,
	461.354684, 174.375668, 65.907807, 24.910561,
	9.415526, 3.559893, 1.348575, 0.509713,
}

const (
	indexResMin = 5
	indexResMax = 9
)

// cellIndex is the coarse spatial prefilter: each entry's bounding
// rectangle is covered with H3 cells at a resolution picked from its size,
// queries collect candidates from the point's cell neighborhood before the
// exact geometry tests run.
type cellIndex struct {
	byCell map[h3.Cell][]int
	resSet map[int]struct{}
	all    []int
}

func newCellIndex() *cellIndex {
	return &cellIndex{
		byCell: make(map[h3.Cell][]int),
		resSet: make(map[int]struct{}),
	}
}

// pickRes chooses a cell resolution so a bounding rectangle is covered by a
// handful of cells: the bigger the bound, the coarser the cells.
func pickRes(bound s2.Rect) int {
	// largest bound dimension in meters
	h := bound.Lat.Length() * geo.EarthRadiusM
	w := bound.Lng.Length() * geo.EarthRadiusM * math.Cos(bound.Center().Lat.Radians())
	size := math.Max(h, w)

	for res := indexResMax; res >= indexResMin; res-- {
		if size <= 4*hexEdgeM[res] {
			return res
		}
	}
	return indexResMin
}

// add covers the bound with cells and registers the entry. Falls back to a
// full-scan entry when the cover cannot be computed.
func (ci *cellIndex) add(id int, bound s2.Rect) {
	res := pickRes(bound)
	cells, err := coverRect(bound, res)
	if err != nil || len(cells) == 0 {
		ci.all = append(ci.all, id)
		return
	}
	ci.resSet[res] = struct{}{}
	seen := make(map[h3.Cell]struct{}, len(cells)*7)
	// pad with each cell's direct neighbors so boundary cells whose center
	// falls outside the rectangle still resolve to this entry
	for _, c := range cells {
		disk, err := c.GridDisk(1)
		if err != nil {
			disk = []h3.Cell{c}
		}
		for _, d := range disk {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			ci.byCell[d] = append(ci.byCell[d], id)
		}
	}
}

// candidates returns the ids whose cells neighborhoods contain p, expanded
// by distanceM, plus the full-scan entries. Ids may repeat.
func (ci *cellIndex) candidates(p geo.Point, distanceM float64) []int {
	out := append([]int(nil), ci.all...)
	ll := h3.NewLatLng(p.Lat, p.Lng)
	for res := range ci.resSet {
		cell, err := h3.LatLngToCell(ll, res)
		if err != nil {
			continue
		}
		k := 1
		if distanceM > 0 {
			k += int(math.Ceil(distanceM / hexEdgeM[res]))
		}
		disk, err := cell.GridDisk(k)
		if err != nil {
			disk = []h3.Cell{cell}
		}
		for _, d := range disk {
			out = append(out, ci.byCell[d]...)
		}
	}
	return out
}

func coverRect(bound s2.Rect, res int) ([]h3.Cell, error) {
	lo, hi := bound.Lo(), bound.Hi()
	loop := h3.GeoLoop{
		{Lat: lo.Lat.Degrees(), Lng: lo.Lng.Degrees()},
		{Lat: lo.Lat.Degrees(), Lng: hi.Lng.Degrees()},
		{Lat: hi.Lat.Degrees(), Lng: hi.Lng.Degrees()},
		{Lat: hi.Lat.Degrees(), Lng: lo.Lng.Degrees()},
	}
	cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, res)
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		// rect smaller than one cell, anchor on its center
		c, err := h3.LatLngToCell(h3.NewLatLng(bound.Center().Lat.Degrees(), bound.Center().Lng.Degrees()), res)
		if err != nil {
			return nil, err
		}
		cells = []h3.Cell{c}
	}
	return cells, nil
}
