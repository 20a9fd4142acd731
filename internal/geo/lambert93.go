package geo

import "math"

// Lambert-93 (EPSG:2154) forward projection, the projected CRS used by the
// catchment rasters and the per-request coordinate catalog.
//
// Constants are the official RGF93 / Lambert-93 definition on the GRS80
// ellipsoid: two standard parallels at 44° and 49°, origin at 46.5°N 3°E,
// false easting 700 km, false northing 6600 km.

const (
	grs80A = 6378137.0
	grs80F = 1.0 / 298.257222101

	lamb93Lat0 = 46.5
	lamb93Lng0 = 3.0
	lamb93Lat1 = 44.0
	lamb93Lat2 = 49.0
	lamb93X0   = 700000.0
	lamb93Y0   = 6600000.0
)

var lamb93 = newLambertConformal()

type lambertConformal struct {
	e    float64
	n    float64
	aF   float64
	rho0 float64
}

func newLambertConformal() *lambertConformal {
	e2 := 2*grs80F - grs80F*grs80F
	e := math.Sqrt(e2)

	phi0 := lamb93Lat0 * math.Pi / 180
	phi1 := lamb93Lat1 * math.Pi / 180
	phi2 := lamb93Lat2 * math.Pi / 180

	m1 := lccM(phi1, e)
	m2 := lccM(phi2, e)
	t0 := lccT(phi0, e)
	t1 := lccT(phi1, e)
	t2 := lccT(phi2, e)

	n := (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	f := m1 / (n * math.Pow(t1, n))
	aF := grs80A * f

	return &lambertConformal{
		e:    e,
		n:    n,
		aF:   aF,
		rho0: aF * math.Pow(t0, n),
	}
}

func lccM(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-e*e*s*s)
}

func lccT(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*s)/(1+e*s), e/2)
}

// ToLambert93 projects a WGS-84 point to Lambert-93 easting/northing meters.
func ToLambert93(p Point) XY {
	phi := p.Lat * math.Pi / 180
	lam := (p.Lng - lamb93Lng0) * math.Pi / 180

	rho := lamb93.aF * math.Pow(lccT(phi, lamb93.e), lamb93.n)
	theta := lamb93.n * lam

	return XY{
		X: lamb93X0 + rho*math.Sin(theta),
		Y: lamb93Y0 + lamb93.rho0 - rho*math.Cos(theta),
	}
}
