// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tile

import (
	"image"

	"github.com/gogpu/compositor/raster"
)

// ID identifies a tile within its Manager. IDs are never reused.
type ID uint64

// Spec describes a tile to create.
type Spec struct {
	// LayerID is the owning layer, for diagnostics.
	LayerID int

	// Rect is the tile rectangle in scaled content space.
	Rect image.Rectangle

	// ContentsScale is the scale Rect is expressed in.
	ContentsScale float64

	// Source is the content the tile is rasterized from.
	Source raster.Source
}

// Tile is a rectangular region of layer content at one contents scale.
//
// Tiles are created and released through a Manager. A tile exclusively owns
// its ManagedTileState.
type Tile struct {
	id      ID
	spec    Spec
	managed ManagedTileState

	priority          Priority
	scheduledPriority int
	released          bool
}

// ID returns the tile identifier.
func (t *Tile) ID() ID { return t.id }

// LayerID returns the owning layer's identifier.
func (t *Tile) LayerID() int { return t.spec.LayerID }

// Rect returns the tile rectangle in scaled content space.
func (t *Tile) Rect() image.Rectangle { return t.spec.Rect }

// ContentsScale returns the scale the tile is rasterized at.
func (t *Tile) ContentsScale() float64 { return t.spec.ContentsScale }

// Source returns the content source.
func (t *Tile) Source() raster.Source { return t.spec.Source }

// DrawInfo returns the tile's draw state.
func (t *Tile) DrawInfo() *DrawInfo { return &t.managed.drawInfo }

// ManagedState returns the tile's managed state.
func (t *Tile) ManagedState() *ManagedTileState { return &t.managed }

// Priority returns the priority set by the last UpdatePriority call.
func (t *Tile) Priority() Priority { return t.priority }

// SetPriority records the tile's priority for the next PrepareTiles.
func (t *Tile) SetPriority(p Priority) { t.priority = p }

// ScheduledPriority returns the tile's rank in the last PrepareTiles pass;
// zero is the most important. Tiles not yet ranked report -1.
func (t *Tile) ScheduledPriority() int { return t.scheduledPriority }

// IsReleased reports whether the tile has been released from its manager.
func (t *Tile) IsReleased() bool { return t.released }
