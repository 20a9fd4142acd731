package raster

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
)

// sampleRadiusM bounds the pixel neighborhood used for interpolation.
const sampleRadiusM = 50.0

// roundStepM2 is the rounding step applied to the interpolated value.
const roundStepM2 = 500

var tileNameRe = regexp.MustCompile(`^(\d{4})_(\d{4})\.asc$`)

type tileKey struct {
	kmX int
	kmY int
}

// TileSet indexes catchment tiles by their bottom-left kilometer
// coordinate. File-backed tiles are parsed lazily behind an LRU cache so a
// nationwide tile directory does not live in memory.
type TileSet struct {
	inMem map[tileKey]*Grid
	paths map[tileKey]string
	cache *lru.Cache[tileKey, *Grid]
}

func NewTileSet() *TileSet {
	cache, _ := lru.New[tileKey, *Grid](64)
	return &TileSet{
		inMem: make(map[tileKey]*Grid),
		paths: make(map[tileKey]string),
		cache: cache,
	}
}

// AddGrid registers a pre-parsed tile, keyed by its own corner coordinates.
func (ts *TileSet) AddGrid(g *Grid) {
	key := tileKey{kmX: int(math.Floor(g.XLL / 1000)), kmY: int(math.Floor(g.YLL / 1000))}
	ts.inMem[key] = g
}

// LoadDir indexes every tile file in dir without parsing it yet.
func (ts *TileSet) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("raster: read tile dir: %w", err)
	}
	for _, e := range entries {
		m := tileNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		kmX, _ := strconv.Atoi(m[1])
		kmY, _ := strconv.Atoi(m[2])
		ts.paths[tileKey{kmX: kmX, kmY: kmY}] = filepath.Join(dir, e.Name())
	}
	return nil
}

func (ts *TileSet) grid(key tileKey) (*Grid, error) {
	if g, ok := ts.inMem[key]; ok {
		return g, nil
	}
	if g, ok := ts.cache.Get(key); ok {
		return g, nil
	}
	path, ok := ts.paths[key]
	if !ok {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open tile %s: %v", geostore.ErrUnavailable, path, err)
	}
	defer f.Close()
	g, err := ParseGrid(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parse tile %s: %v", geostore.ErrUnavailable, path, err)
	}
	ts.cache.Add(key, g)
	return g, nil
}

// sample reads the pixel covering (x, y), looking across tile boundaries.
func (ts *TileSet) sample(x, y float64) (float64, bool, error) {
	key := tileKey{kmX: int(math.Floor(x / 1000)), kmY: int(math.Floor(y / 1000))}
	g, err := ts.grid(key)
	if err != nil {
		return 0, false, err
	}
	if g == nil || !g.contains(x, y) {
		return 0, false, nil
	}
	v, ok := g.Sample(x, y)
	return v, ok, nil
}

// InterpolateAt evaluates the catchment area at a projected point: the up
// to nine pixels surrounding it are sampled within the 50 m buffer, a plane
// is fit through the samples and evaluated at the exact coordinates, and
// the result is rounded to the nearest 500 m². Returns false when fewer
// than three valid samples exist.
func (ts *TileSet) InterpolateAt(p geo.XY) (int, bool, error) {
	cell := ts.cellSize()
	if cell <= 0 {
		return 0, false, nil
	}

	// center of the pixel containing the point
	i0 := math.Floor(p.X / cell)
	j0 := math.Floor(p.Y / cell)

	var xs, ys, vs []float64
	for dj := -1.0; dj <= 1; dj++ {
		for di := -1.0; di <= 1; di++ {
			cx := (i0+di)*cell + cell/2
			cy := (j0+dj)*cell + cell/2
			if math.Abs(cx-p.X) > sampleRadiusM || math.Abs(cy-p.Y) > sampleRadiusM {
				continue
			}
			v, ok, err := ts.sample(cx, cy)
			if err != nil {
				return 0, false, err
			}
			if !ok {
				continue
			}
			xs = append(xs, cx-p.X)
			ys = append(ys, cy-p.Y)
			vs = append(vs, v)
		}
	}
	if len(vs) < 3 {
		return 0, false, nil
	}

	value, ok := fitPlaneAtOrigin(xs, ys, vs)
	if !ok {
		// degenerate sample layout, use the plain average
		var sum float64
		for _, v := range vs {
			sum += v
		}
		value = sum / float64(len(vs))
	}
	rounded := int(math.Round(value/roundStepM2)) * roundStepM2
	return rounded, true, nil
}

func (ts *TileSet) cellSize() float64 {
	for _, g := range ts.inMem {
		return g.CellSize
	}
	for key := range ts.paths {
		g, err := ts.grid(key)
		if err == nil && g != nil {
			return g.CellSize
		}
	}
	return 0
}

// fitPlaneAtOrigin least-squares fits v = a + b·x + c·y over the samples
// (coordinates relative to the query point) and returns a, the plane value
// at the origin. Returns false when the normal system is singular.
func fitPlaneAtOrigin(xs, ys, vs []float64) (float64, bool) {
	n := float64(len(vs))
	var sx, sy, sxx, syy, sxy, sv, sxv, syv float64
	for i := range vs {
		sx += xs[i]
		sy += ys[i]
		sxx += xs[i] * xs[i]
		syy += ys[i] * ys[i]
		sxy += xs[i] * ys[i]
		sv += vs[i]
		sxv += xs[i] * vs[i]
		syv += ys[i] * vs[i]
	}

	// normal equations for [a b c]
	m := [3][4]float64{
		{n, sx, sy, sv},
		{sx, sxx, sxy, sxv},
		{sy, sxy, syy, syv},
	}
	for col := 0; col < 3; col++ {
		pivot := col
		for r := col + 1; r < 3; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return 0, false
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := 0; r < 3; r++ {
			if r == col {
				continue
			}
			factor := m[r][col] / m[col][col]
			for c := col; c < 4; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}
	return m[0][3] / m[0][0], true
}
