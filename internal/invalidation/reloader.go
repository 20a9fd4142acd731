package invalidation

import (
	"context"
	"fmt"

	"github.com/MTES-MCT/envergo/internal/geostore/memstore"
	"github.com/MTES-MCT/envergo/internal/geostore/raster"
)

// StoreReloader rebuilds the in-memory GeoStore snapshot from the on-disk
// reference data. Every event triggers a full reload; the store swap is
// atomic, so readers never see a half-loaded snapshot.
type StoreReloader struct {
	Store     *memstore.Store
	DataDir   string
	RasterDir string
}

func (r *StoreReloader) Reload(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload canceled: %w", err)
	}

	zones, lines, err := memstore.LoadDir(r.DataDir)
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}

	var tiles *raster.TileSet
	if r.RasterDir != "" {
		tiles = raster.NewTileSet()
		if err := tiles.LoadDir(r.RasterDir); err != nil {
			return fmt.Errorf("load catchment tiles: %w", err)
		}
	}

	r.Store.Reload(zones, lines, tiles)
	return nil
}
