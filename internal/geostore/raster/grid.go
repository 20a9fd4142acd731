// Package raster reads the catchment-area tiles: ESRI ASCII grids in
// Lambert-93 with a bottom-left origin, one file per square-kilometer tile
// named after its bottom-left kilometer coordinates (e.g. 0356_6689.asc).
package raster

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Grid is one parsed ASCII-grid tile. Values are stored in file order
// (north row first); accessors work in projected coordinates.
type Grid struct {
	NCols    int
	NRows    int
	XLL      float64
	YLL      float64
	CellSize float64
	NoData   float64
	values   []float64
}

// ParseGrid reads an ESRI ASCII grid. Header keys are matched
// case-insensitively; nodata_value defaults to -9999.
func ParseGrid(r io.Reader) (*Grid, error) {
	g := &Grid{NoData: -9999}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	headerSeen := 0
	var data []float64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if headerSeen < 6 && len(fields) == 2 && !isNumeric(fields[0]) {
			val, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("raster: bad header line %q: %w", line, err)
			}
			switch strings.ToLower(fields[0]) {
			case "ncols":
				g.NCols = int(val)
			case "nrows":
				g.NRows = int(val)
			case "xllcorner":
				g.XLL = val
			case "yllcorner":
				g.YLL = val
			case "cellsize":
				g.CellSize = val
			case "nodata_value":
				g.NoData = val
			default:
				return nil, fmt.Errorf("raster: unknown header key %q", fields[0])
			}
			headerSeen++
			continue
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("raster: bad value %q: %w", f, err)
			}
			data = append(data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("raster: read: %w", err)
	}
	if g.NCols <= 0 || g.NRows <= 0 || g.CellSize <= 0 {
		return nil, fmt.Errorf("raster: incomplete header (ncols=%d nrows=%d cellsize=%g)", g.NCols, g.NRows, g.CellSize)
	}
	if len(data) != g.NCols*g.NRows {
		return nil, fmt.Errorf("raster: got %d values, want %d", len(data), g.NCols*g.NRows)
	}
	g.values = data
	return g, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Sample returns the pixel value whose cell covers the projected point,
// false on nodata or out of bounds.
func (g *Grid) Sample(x, y float64) (float64, bool) {
	col := int((x - g.XLL) / g.CellSize)
	rowFromBottom := int((y - g.YLL) / g.CellSize)
	if col < 0 || col >= g.NCols || rowFromBottom < 0 || rowFromBottom >= g.NRows {
		return 0, false
	}
	// file rows run north to south
	row := g.NRows - 1 - rowFromBottom
	v := g.values[row*g.NCols+col]
	if v == g.NoData {
		return 0, false
	}
	return v, true
}

// bounds in projected meters
func (g *Grid) maxX() float64 { return g.XLL + float64(g.NCols)*g.CellSize }
func (g *Grid) maxY() float64 { return g.YLL + float64(g.NRows)*g.CellSize }

func (g *Grid) contains(x, y float64) bool {
	return x >= g.XLL && x < g.maxX() && y >= g.YLL && y < g.maxY()
}
