// Package geo holds the geometry primitives shared by the reference data
// stores and the hedge model. Coordinates are WGS-84 (EPSG:4326) unless a
// projected type says otherwise.
package geo

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusM is the mean earth radius used to convert angles to meters.
const EarthRadiusM = 6371008.8

// Point is a WGS-84 position, degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// XY is a projected position, meters.
type XY struct {
	X float64
	Y float64
}

func (p Point) LatLng() s2.LatLng { return s2.LatLngFromDegrees(p.Lat, p.Lng) }

func (p Point) S2() s2.Point { return s2.PointFromLatLng(p.LatLng()) }

// DistanceM returns the geodesic distance between two points in meters.
func DistanceM(a, b Point) float64 {
	return a.LatLng().Distance(b.LatLng()).Radians() * EarthRadiusM
}

func metersToAngle(m float64) s1.Angle {
	return s1.Angle(m / EarthRadiusM)
}

func angleToMeters(a s1.Angle) float64 {
	return a.Radians() * EarthRadiusM
}
