// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tile

import (
	"fmt"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/resource"
)

// Mode is the way a tile is drawn.
type Mode uint8

const (
	// DeferredRasterMode means the tile has no content yet and must be
	// rasterized on demand at draw time. It is the zero value.
	DeferredRasterMode Mode = iota

	// ResourceMode means a resource holds the rasterized pixels.
	ResourceMode

	// SolidColorMode means the tile is a single flat color.
	SolidColorMode
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case DeferredRasterMode:
		return "DeferredRaster"
	case ResourceMode:
		return "Resource"
	case SolidColorMode:
		return "SolidColor"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// DrawInfo records how a tile is drawn this frame.
//
// Mode is the single source of truth: Resource is only readable in
// ResourceMode and SolidColor only in SolidColorMode. Reading the wrong one
// is a caller bug and panics.
type DrawInfo struct {
	mode       Mode
	resource   *resource.Resource
	solidColor gfx.Color
}

// Mode returns the current draw mode.
func (d *DrawInfo) Mode() Mode {
	return d.mode
}

// Resource returns the backing resource. It panics unless the mode is
// ResourceMode. The result may be nil when the resource has not been
// assigned yet; see IsReadyToDraw.
func (d *DrawInfo) Resource() *resource.Resource {
	if d.mode != ResourceMode {
		panic(fmt.Sprintf("tile: Resource() read in %v mode", d.mode))
	}
	return d.resource
}

// SolidColor returns the tile color. It panics unless the mode is
// SolidColorMode.
func (d *DrawInfo) SolidColor() gfx.Color {
	if d.mode != SolidColorMode {
		panic(fmt.Sprintf("tile: SolidColor() read in %v mode", d.mode))
	}
	return d.solidColor
}

// IsReadyToDraw reports whether the tile can be drawn without synchronous
// work: a resource-backed tile with a resource, or a solid color tile.
func (d *DrawInfo) IsReadyToDraw() bool {
	switch d.mode {
	case ResourceMode:
		return d.resource != nil
	case SolidColorMode:
		return true
	default:
		return false
	}
}

// RequiresResource reports whether drawing the tile needs a resource, now or
// once it is rasterized on demand.
func (d *DrawInfo) RequiresResource() bool {
	return d.mode == ResourceMode || d.mode == DeferredRasterMode
}

// HasResource reports whether a resource is attached. It is false in every
// mode other than ResourceMode.
func (d *DrawInfo) HasResource() bool {
	return d.mode == ResourceMode && d.resource != nil
}

// ContentsSwizzled reports whether the resource's channel order differs from
// the platform native order. It panics unless the mode is ResourceMode.
func (d *DrawInfo) ContentsSwizzled() bool {
	r := d.Resource()
	return r != nil && r.NeedsSwizzle()
}

// String describes the state for logs.
func (d *DrawInfo) String() string {
	switch d.mode {
	case ResourceMode:
		if d.resource == nil {
			return "Resource(<nil>)"
		}
		return fmt.Sprintf("Resource(%d)", d.resource.ID())
	case SolidColorMode:
		return fmt.Sprintf("SolidColor(%v)", d.solidColor)
	default:
		return d.mode.String()
	}
}

// setUseResource moves to ResourceMode backed by r.
//
// A tile that is a solid color, or already holds a resource, must first go
// back to DeferredRasterMode: the resource would otherwise leak or a stale
// determination would survive.
func (d *DrawInfo) setUseResource(r *resource.Resource) {
	switch {
	case d.mode == SolidColorMode:
		panic("tile: SolidColor -> Resource without passing through DeferredRaster")
	case d.mode == ResourceMode && d.resource != nil && d.resource != r:
		panic("tile: resource replaced without being released")
	}
	d.mode = ResourceMode
	d.resource = r
	d.solidColor = gfx.Color{}
}

// setSolidColor moves to SolidColorMode.
func (d *DrawInfo) setSolidColor(c gfx.Color) {
	if d.mode == ResourceMode {
		panic("tile: Resource -> SolidColor without passing through DeferredRaster")
	}
	d.mode = SolidColorMode
	d.resource = nil
	d.solidColor = c
}

// setRasterizeOnDemand moves to DeferredRasterMode and returns the resource
// that was attached, if any, so the caller can recycle it.
func (d *DrawInfo) setRasterizeOnDemand() *resource.Resource {
	var dropped *resource.Resource
	if d.mode == ResourceMode {
		dropped = d.resource
	}
	d.mode = DeferredRasterMode
	d.resource = nil
	d.solidColor = gfx.Color{}
	return dropped
}
