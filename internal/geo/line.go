package geo

// Line is an open polyline.
type Line []Point

// LengthM returns the geodesic length of the line in meters.
func (l Line) LengthM() float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		total += DistanceM(l[i-1], l[i])
	}
	return total
}

// Centroid returns the length-weighted centroid of the line's segments.
// An empty line yields the zero point, a single vertex yields itself.
func (l Line) Centroid() Point {
	switch len(l) {
	case 0:
		return Point{}
	case 1:
		return l[0]
	}
	var sumLng, sumLat, sumW float64
	for i := 1; i < len(l); i++ {
		w := DistanceM(l[i-1], l[i])
		midLng := (l[i-1].Lng + l[i].Lng) / 2
		midLat := (l[i-1].Lat + l[i].Lat) / 2
		sumLng += midLng * w
		sumLat += midLat * w
		sumW += w
	}
	if sumW == 0 {
		return l[0]
	}
	return Point{Lng: sumLng / sumW, Lat: sumLat / sumW}
}

// MultiLine is a collection of polylines, the geometry of a hedge map entry.
type MultiLine []Line

func (m MultiLine) LengthM() float64 {
	var total float64
	for _, l := range m {
		total += l.LengthM()
	}
	return total
}

// Centroid returns the length-weighted centroid over all member lines.
func (m MultiLine) Centroid() Point {
	var sumLng, sumLat, sumW float64
	for _, l := range m {
		w := l.LengthM()
		if w == 0 {
			continue
		}
		c := l.Centroid()
		sumLng += c.Lng * w
		sumLat += c.Lat * w
		sumW += w
	}
	if sumW == 0 {
		if len(m) > 0 && len(m[0]) > 0 {
			return m[0][0]
		}
		return Point{}
	}
	return Point{Lng: sumLng / sumW, Lat: sumLat / sumW}
}
