// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package quad

import (
	"fmt"
	"image"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/resource"
)

// Material identifies the concrete quad type.
type Material uint8

const (
	// MaterialSolidColor fills its rect with one color.
	MaterialSolidColor Material = iota

	// MaterialTile draws a rasterized tile resource.
	MaterialTile

	// MaterialTexture draws an externally produced texture such as a video
	// frame.
	MaterialTexture

	// MaterialPicture rasterizes its content at draw time.
	MaterialPicture

	// MaterialRenderPass draws the output of another pass.
	MaterialRenderPass
)

// String returns the material name.
func (m Material) String() string {
	switch m {
	case MaterialSolidColor:
		return "SolidColor"
	case MaterialTile:
		return "Tile"
	case MaterialTexture:
		return "Texture"
	case MaterialPicture:
		return "Picture"
	case MaterialRenderPass:
		return "RenderPass"
	default:
		return fmt.Sprintf("Material(%d)", uint8(m))
	}
}

// BlendMode selects how a quad combines with what is already drawn.
type BlendMode uint8

const (
	// BlendSourceOver composites the quad over the destination.
	BlendSourceOver BlendMode = iota

	// BlendSource replaces the destination, alpha included.
	BlendSource
)

// SharedState is per-layer draw state. Quads from the same layer usually
// carry equal SharedState values.
type SharedState struct {
	// Transform maps quad space to the pass's target space.
	Transform gfx.Matrix

	// Clip bounds drawing in target space when IsClipped is set.
	Clip      gfx.Rect
	IsClipped bool

	// Opacity multiplies the quad's alpha.
	Opacity float64

	BlendMode BlendMode
}

// NewSharedState returns state with the given transform, full opacity and
// no clip.
func NewSharedState(transform gfx.Matrix) SharedState {
	return SharedState{Transform: transform, Opacity: 1}
}

// DrawQuad holds the fields common to every quad.
type DrawQuad struct {
	// Rect is the quad's area in quad space.
	Rect gfx.Rect

	// Opaque reports that the quad's content has no transparent pixels.
	// Together with full opacity it means the quad hides what is behind it.
	Opaque bool

	Shared SharedState
}

// Common returns the shared fields.
func (d *DrawQuad) Common() *DrawQuad { return d }

// TargetRect returns the quad's bounding box in target space, clipped.
func (d *DrawQuad) TargetRect() gfx.Rect {
	r := d.Shared.Transform.MapRect(d.Rect)
	if d.Shared.IsClipped {
		r = r.Intersect(d.Shared.Clip)
	}
	return r
}

// Occludes reports whether drawing the quad fully hides what is behind it
// inside its target rect.
func (d *DrawQuad) Occludes() bool {
	return d.Opaque && d.Shared.Opacity >= 1 && d.Shared.BlendMode == BlendSourceOver &&
		d.Shared.Transform.IsAxisAligned()
}

// Quad is one drawable element of a render pass.
type Quad interface {
	// Material returns the concrete quad type.
	Material() Material

	// Common returns the fields shared by all quads. The returned pointer
	// aliases the quad.
	Common() *DrawQuad

	// Clone returns an independent copy.
	Clone() Quad
}

// SolidColorQuad fills its rect with a color.
type SolidColorQuad struct {
	DrawQuad
	Color gfx.Color

	// HolePunch marks a transparent quad that clears the region so an
	// underlay plane shows through.
	HolePunch bool
}

// Material implements Quad.
func (q *SolidColorQuad) Material() Material { return MaterialSolidColor }

// Clone implements Quad.
func (q *SolidColorQuad) Clone() Quad { c := *q; return &c }

// TileQuad draws part of a rasterized tile resource.
type TileQuad struct {
	DrawQuad

	Resource resource.ID

	// TexCoordRect is the sampled region in resource pixels.
	TexCoordRect gfx.Rect
	TextureSize  image.Point

	// Swizzle reports the resource channel order differs from native, so a
	// device sampler must swap red and blue. CPU drawing goes by the
	// resource format instead.
	Swizzle bool
}

// Material implements Quad.
func (q *TileQuad) Material() Material { return MaterialTile }

// Clone implements Quad.
func (q *TileQuad) Clone() Quad { c := *q; return &c }

// TextureQuad draws an external texture.
type TextureQuad struct {
	DrawQuad

	Resource resource.ID

	// UVRect is the sampled region in normalized texture coordinates.
	UVRect gfx.Rect
}

// Material implements Quad.
func (q *TextureQuad) Material() Material { return MaterialTexture }

// Clone implements Quad.
func (q *TextureQuad) Clone() Quad { c := *q; return &c }

// PictureQuad is rasterized at draw time because no resource was available.
type PictureQuad struct {
	DrawQuad

	Source raster.Source

	// ContentRect is the region of Source in scaled content space.
	ContentRect   image.Rectangle
	ContentsScale float64
}

// Material implements Quad.
func (q *PictureQuad) Material() Material { return MaterialPicture }

// Clone implements Quad.
func (q *PictureQuad) Clone() Quad { c := *q; return &c }

// RenderPassQuad draws the output of another pass in the same list.
type RenderPassQuad struct {
	DrawQuad
	Pass PassID
}

// Material implements Quad.
func (q *RenderPassQuad) Material() Material { return MaterialRenderPass }

// Clone implements Quad.
func (q *RenderPassQuad) Clone() Quad { c := *q; return &c }
