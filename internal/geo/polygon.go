package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// Ring is a closed polygon ring. The closing vertex may be repeated or not,
// NewMultiPolygon normalizes either form.
type Ring []Point

// MultiPolygon wraps one or more s2 polygons and answers the predicates the
// reference stores need: containment, distance to boundary, line crossing.
type MultiPolygon struct {
	polys []*s2.Polygon
	bound s2.Rect
}

// NewMultiPolygon builds a multipolygon from rings grouped per polygon, the
// first ring of each group being the outer shell and the rest holes. Loops
// are normalized so winding order does not matter.
func NewMultiPolygon(polygons ...[]Ring) *MultiPolygon {
	mp := &MultiPolygon{bound: s2.EmptyRect()}
	for _, rings := range polygons {
		var loops []*s2.Loop
		for _, ring := range rings {
			loop := ringToLoop(ring)
			if loop == nil {
				continue
			}
			loops = append(loops, loop)
		}
		if len(loops) == 0 {
			continue
		}
		poly := s2.PolygonFromOrientedLoops(loops)
		mp.polys = append(mp.polys, poly)
		mp.bound = mp.bound.Union(poly.RectBound())
	}
	return mp
}

func ringToLoop(ring Ring) *s2.Loop {
	pts := make([]s2.Point, 0, len(ring))
	for _, p := range ring {
		pts = append(pts, p.S2())
	}
	// drop duplicated closing vertex if present
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return loop
}

// Bound returns the latlng rectangle bound, used as the envelope prefilter.
func (mp *MultiPolygon) Bound() s2.Rect { return mp.bound }

func (mp *MultiPolygon) Contains(p Point) bool {
	pt := p.S2()
	for _, poly := range mp.polys {
		if poly.ContainsPoint(pt) {
			return true
		}
	}
	return false
}

// DistanceM returns the distance in meters from p to the multipolygon,
// zero when the point is inside.
func (mp *MultiPolygon) DistanceM(p Point) float64 {
	if mp.Contains(p) {
		return 0
	}
	pt := p.S2()
	minDist := math.Inf(1)
	for _, poly := range mp.polys {
		for i := 0; i < poly.NumLoops(); i++ {
			loop := poly.Loop(i)
			n := loop.NumVertices()
			for j := 0; j < n; j++ {
				a := loop.Vertex(j)
				b := loop.Vertex((j + 1) % n)
				d := angleToMeters(s2.DistanceFromSegment(pt, a, b))
				if d < minDist {
					minDist = d
				}
			}
		}
	}
	if math.IsInf(minDist, 1) {
		return math.MaxFloat64
	}
	return minDist
}

// WithinDistanceM reports whether p lies within d meters of the multipolygon.
// The boundary itself counts as inside for any non-negative d.
func (mp *MultiPolygon) WithinDistanceM(p Point, d float64) bool {
	return mp.DistanceM(p) <= d
}

// IntersectsLine reports whether the line touches or crosses the polygon:
// either a vertex lies inside, or an edge crosses a boundary edge.
func (mp *MultiPolygon) IntersectsLine(line Line) bool {
	if len(line) == 0 {
		return false
	}
	for _, v := range line {
		if mp.Contains(v) {
			return true
		}
	}
	for i := 1; i < len(line); i++ {
		a := line[i-1].S2()
		b := line[i].S2()
		for _, poly := range mp.polys {
			for li := 0; li < poly.NumLoops(); li++ {
				loop := poly.Loop(li)
				n := loop.NumVertices()
				for j := 0; j < n; j++ {
					c := loop.Vertex(j)
					d := loop.Vertex((j + 1) % n)
					if s2.CrossingSign(a, b, c, d) == s2.Cross {
						return true
					}
				}
			}
		}
	}
	return false
}
