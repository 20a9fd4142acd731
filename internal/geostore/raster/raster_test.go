package raster

import (
	"fmt"
	"strings"
	"testing"

	"github.com/MTES-MCT/envergo/internal/geo"
)

const tileHeader = `ncols 50
nrows 50
xllcorner 356000
yllcorner 6689000
cellsize 20
NODATA_value -9999
`

func makeGrid(t *testing.T, fill func(col, rowFromTop int) float64) *Grid {
	t.Helper()
	var b strings.Builder
	b.WriteString(tileHeader)
	for row := 0; row < 50; row++ {
		for col := 0; col < 50; col++ {
			if col > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%g", fill(col, row))
		}
		b.WriteByte('\n')
	}
	g, err := ParseGrid(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	return g
}

func TestParseGrid_HeaderAndShape(t *testing.T) {
	g := makeGrid(t, func(col, row int) float64 { return 1000 })
	if g.NCols != 50 || g.NRows != 50 {
		t.Fatalf("got %dx%d, want 50x50", g.NCols, g.NRows)
	}
	if g.XLL != 356000 || g.YLL != 6689000 || g.CellSize != 20 {
		t.Fatalf("bad header: xll=%g yll=%g cell=%g", g.XLL, g.YLL, g.CellSize)
	}
	if g.NoData != -9999 {
		t.Fatalf("nodata got %g", g.NoData)
	}
}

func TestParseGrid_RejectsTruncatedData(t *testing.T) {
	_, err := ParseGrid(strings.NewReader(tileHeader + "1 2 3\n"))
	if err == nil {
		t.Fatalf("expected error for truncated grid")
	}
}

func TestGridSample_BottomLeftOrigin(t *testing.T) {
	// value encodes the pixel position counted from the bottom-left corner
	g := makeGrid(t, func(col, rowFromTop int) float64 {
		rowFromBottom := 49 - rowFromTop
		return float64(rowFromBottom*100 + col)
	})

	// pixel (col=0, rowFromBottom=0) covers [356000,356020)x[6689000,6689020)
	v, ok := g.Sample(356010, 6689010)
	if !ok || v != 0 {
		t.Fatalf("bottom-left pixel got (%g, %v), want (0, true)", v, ok)
	}
	// pixel (col=3, rowFromBottom=2)
	v, ok = g.Sample(356000+3*20+5, 6689000+2*20+5)
	if !ok || v != 203 {
		t.Fatalf("pixel (3,2) got (%g, %v), want (203, true)", v, ok)
	}
	if _, ok := g.Sample(355999, 6689010); ok {
		t.Fatalf("sample outside tile should fail")
	}
}

func TestInterpolateAt_FlatField(t *testing.T) {
	ts := NewTileSet()
	ts.AddGrid(makeGrid(t, func(col, row int) float64 { return 8200 }))

	got, ok, err := ts.InterpolateAt(geo.XY{X: 356500, Y: 6689500})
	if err != nil {
		t.Fatalf("InterpolateAt: %v", err)
	}
	if !ok {
		t.Fatalf("expected a value on a flat field")
	}
	// 8200 rounds to the nearest 500
	if got != 8000 {
		t.Fatalf("got %d, want 8000", got)
	}
}

func TestInterpolateAt_LinearGradientIsExact(t *testing.T) {
	// plane v = 100 * colFromLeft: a linear fit must recover it exactly,
	// modulo the 500 m² rounding
	ts := NewTileSet()
	ts.AddGrid(makeGrid(t, func(col, row int) float64 { return float64(col) * 100 }))

	// query at the center of column 25
	got, ok, err := ts.InterpolateAt(geo.XY{X: 356000 + 25*20 + 10, Y: 6689500})
	if err != nil || !ok {
		t.Fatalf("InterpolateAt: ok=%v err=%v", ok, err)
	}
	if got != 2500 {
		t.Fatalf("got %d, want 2500", got)
	}
}

func TestInterpolateAt_TooFewSamples(t *testing.T) {
	// everything nodata except two pixels
	ts := NewTileSet()
	ts.AddGrid(makeGrid(t, func(col, row int) float64 {
		if row == 25 && (col == 25 || col == 26) {
			return 5000
		}
		return -9999
	}))

	_, ok, err := ts.InterpolateAt(geo.XY{X: 356000 + 25*20 + 10, Y: 6689000 + 24*20 + 10})
	if err != nil {
		t.Fatalf("InterpolateAt: %v", err)
	}
	if ok {
		t.Fatalf("expected no value with fewer than three samples")
	}
}

func TestInterpolateAt_OutsideTiles(t *testing.T) {
	ts := NewTileSet()
	ts.AddGrid(makeGrid(t, func(col, row int) float64 { return 1000 }))

	_, ok, err := ts.InterpolateAt(geo.XY{X: 100000, Y: 100000})
	if err != nil {
		t.Fatalf("InterpolateAt: %v", err)
	}
	if ok {
		t.Fatalf("expected no value outside the tile set")
	}
}
