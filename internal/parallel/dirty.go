// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"image"
	"math/bits"
	"sync/atomic"
)

// DirtyRegion tracks which cells of a grid need redrawing using an atomic
// bitmap. All methods are safe for concurrent use without external
// synchronization.
//
// Bit index = y*width + x, packed 64 cells per word.
type DirtyRegion struct {
	words  []atomic.Uint64
	width  int
	height int
}

// NewDirtyRegion creates a tracker for a width x height grid with every
// cell clean. Returns nil if either dimension is not positive.
func NewDirtyRegion(width, height int) *DirtyRegion {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &DirtyRegion{
		words:  make([]atomic.Uint64, (width*height+63)/64),
		width:  width,
		height: height,
	}
}

// Mark marks cell (x, y) dirty. Out of range cells are ignored.
func (d *DirtyRegion) Mark(x, y int) {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return
	}
	idx := y*d.width + x
	d.words[idx/64].Or(1 << (idx & 63))
}

// MarkRange marks every cell in the inclusive range (x1, y1)-(x2, y2),
// clamped to the grid.
func (d *DirtyRegion) MarkRange(x1, y1, x2, y2 int) {
	x1, y1 = max(x1, 0), max(y1, 0)
	x2, y2 = min(x2, d.width-1), min(y2, d.height-1)
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			d.Mark(x, y)
		}
	}
}

// MarkAll marks every cell dirty.
func (d *DirtyRegion) MarkAll() {
	total := d.width * d.height
	full := total / 64
	for i := range full {
		d.words[i].Store(^uint64(0))
	}
	if rem := total % 64; rem > 0 {
		d.words[full].Store((uint64(1) << rem) - 1)
	}
}

// IsDirty reports whether cell (x, y) is dirty.
func (d *DirtyRegion) IsDirty(x, y int) bool {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return false
	}
	idx := y*d.width + x
	return d.words[idx/64].Load()&(1<<(idx&63)) != 0
}

// IsEmpty reports whether no cell is dirty.
func (d *DirtyRegion) IsEmpty() bool {
	for i := range d.words {
		if d.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of dirty cells.
func (d *DirtyRegion) Count() int {
	n := 0
	for i := range d.words {
		n += bits.OnesCount64(d.words[i].Load())
	}
	return n
}

// GetAndClear atomically takes every dirty cell, in row-major order, and
// marks them clean.
func (d *DirtyRegion) GetAndClear() []image.Point {
	var dirty []image.Point
	for wi := range d.words {
		word := d.words[wi].Swap(0)
		for word != 0 {
			bit := bits.TrailingZeros64(word)
			idx := wi*64 + bit
			dirty = append(dirty, image.Pt(idx%d.width, idx/d.width))
			word &^= 1 << bit
		}
	}
	return dirty
}
