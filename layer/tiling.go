// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layer

import (
	"image"
	"math"

	"github.com/gogpu/compositor/internal/parallel"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/tile"
)

// Tiling covers a layer's content at one contents scale with a grid of
// tiles.
//
// The grid divides the scaled content bounds into tileSize squares. Edge
// tiles are smaller when the bounds are not evenly divisible. Tiles are
// stored row-major: index = ty*tilesX + tx.
//
// Thread safety: Tiling is NOT thread-safe; it belongs to the frame
// goroutine.
type Tiling struct {
	scale      float64
	resolution tile.Resolution
	tileSize   int

	// bounds is the content extent in scaled content space.
	bounds image.Rectangle

	tilesX, tilesY int
	tiles          []*tile.Tile

	// dirty marks tiles whose content was invalidated since the last
	// flush.
	dirty *parallel.DirtyRegion
}

// newTiling creates every tile of the grid through mgr.
func newTiling(mgr *tile.Manager, layerID int, src raster.Source, scale float64, res tile.Resolution, tileSize int) *Tiling {
	bounds := scaleRect(src.Bounds(), scale)
	t := &Tiling{
		scale:      scale,
		resolution: res,
		tileSize:   tileSize,
		bounds:     bounds,
	}
	if bounds.Empty() {
		return t
	}

	t.tilesX = (bounds.Dx() + tileSize - 1) / tileSize
	t.tilesY = (bounds.Dy() + tileSize - 1) / tileSize
	t.tiles = make([]*tile.Tile, t.tilesX*t.tilesY)
	t.dirty = parallel.NewDirtyRegion(t.tilesX, t.tilesY)

	for ty := range t.tilesY {
		for tx := range t.tilesX {
			rect := image.Rect(
				bounds.Min.X+tx*tileSize,
				bounds.Min.Y+ty*tileSize,
				bounds.Min.X+(tx+1)*tileSize,
				bounds.Min.Y+(ty+1)*tileSize,
			).Intersect(bounds)

			t.tiles[ty*t.tilesX+tx] = mgr.CreateTile(tile.Spec{
				LayerID:       layerID,
				Rect:          rect,
				ContentsScale: scale,
				Source:        src,
			})
		}
	}
	return t
}

// Scale returns the contents scale.
func (t *Tiling) Scale() float64 { return t.scale }

// Resolution returns the tiling's quality tier.
func (t *Tiling) Resolution() tile.Resolution { return t.resolution }

// Bounds returns the content extent in scaled content space.
func (t *Tiling) Bounds() image.Rectangle { return t.bounds }

// Tiles returns every tile, row-major.
func (t *Tiling) Tiles() []*tile.Tile { return t.tiles }

// TileAt returns the tile at tile coordinates (tx, ty), or nil when out of
// range.
func (t *Tiling) TileAt(tx, ty int) *tile.Tile {
	if tx < 0 || tx >= t.tilesX || ty < 0 || ty >= t.tilesY {
		return nil
	}
	return t.tiles[ty*t.tilesX+tx]
}

// TilesInRect returns the tiles intersecting r, in scaled content space.
func (t *Tiling) TilesInRect(r image.Rectangle) []*tile.Tile {
	r = r.Intersect(t.bounds)
	if r.Empty() {
		return nil
	}

	tx1 := (r.Min.X - t.bounds.Min.X) / t.tileSize
	ty1 := (r.Min.Y - t.bounds.Min.Y) / t.tileSize
	tx2 := (r.Max.X - 1 - t.bounds.Min.X) / t.tileSize
	ty2 := (r.Max.Y - 1 - t.bounds.Min.Y) / t.tileSize

	result := make([]*tile.Tile, 0, (tx2-tx1+1)*(ty2-ty1+1))
	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			if tl := t.TileAt(tx, ty); tl != nil {
				result = append(result, tl)
			}
		}
	}
	return result
}

// invalidate marks the tiles intersecting r, in scaled content space, as
// stale.
func (t *Tiling) invalidate(r image.Rectangle) {
	r = r.Intersect(t.bounds)
	if r.Empty() || t.dirty == nil {
		return
	}
	t.dirty.MarkRange(
		(r.Min.X-t.bounds.Min.X)/t.tileSize,
		(r.Min.Y-t.bounds.Min.Y)/t.tileSize,
		(r.Max.X-1-t.bounds.Min.X)/t.tileSize,
		(r.Max.Y-1-t.bounds.Min.Y)/t.tileSize,
	)
}

// flushInvalidations evicts every stale tile so it is rasterized again,
// and returns how many were evicted.
func (t *Tiling) flushInvalidations(mgr *tile.Manager) int {
	if t.dirty == nil || t.dirty.IsEmpty() {
		return 0
	}
	stale := t.dirty.GetAndClear()
	for _, p := range stale {
		mgr.EvictTile(t.TileAt(p.X, p.Y))
	}
	return len(stale)
}

// release returns every tile to mgr.
func (t *Tiling) release(mgr *tile.Manager) {
	for _, tl := range t.tiles {
		mgr.ReleaseTile(tl)
	}
	t.tiles = nil
	t.tilesX, t.tilesY = 0, 0
	t.dirty = nil
}

// scaleRect returns the smallest integer rect covering r scaled by s.
func scaleRect(r image.Rectangle, s float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(float64(r.Min.X)*s)),
		int(math.Floor(float64(r.Min.Y)*s)),
		int(math.Ceil(float64(r.Max.X)*s)),
		int(math.Ceil(float64(r.Max.Y)*s)),
	)
}
