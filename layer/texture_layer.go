// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layer

import (
	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/quad"
	"github.com/gogpu/compositor/resource"
)

// TextureLayer draws one resource produced outside the tile system, such
// as a decoded video frame. The layer owns the resource and recycles it
// when replaced or released.
type TextureLayer struct {
	id        int
	pool      *resource.Pool
	res       *resource.Resource
	transform gfx.Matrix
	opaque    bool
}

// NewTextureLayer creates a layer drawing res at its pixel size, mapped to
// target space by transform.
func NewTextureLayer(id int, pool *resource.Pool, res *resource.Resource, transform gfx.Matrix, opaque bool) *TextureLayer {
	return &TextureLayer{id: id, pool: pool, res: res, transform: transform, opaque: opaque}
}

// ID implements Layer.
func (l *TextureLayer) ID() int { return l.id }

// Resource returns the current resource, or nil after Release.
func (l *TextureLayer) Resource() *resource.Resource { return l.res }

// SetResource replaces the drawn resource, recycling the previous one.
func (l *TextureLayer) SetResource(res *resource.Resource) {
	if l.res != nil && l.res != res {
		l.pool.Recycle(l.res)
	}
	l.res = res
}

// SetTransform replaces the layer-to-target transform.
func (l *TextureLayer) SetTransform(m gfx.Matrix) { l.transform = m }

// UpdatePriorities implements Layer. Texture layers have no tiles.
func (l *TextureLayer) UpdatePriorities(gfx.Rect) {}

// AppendQuads implements Layer.
func (l *TextureLayer) AppendQuads(pass *quad.RenderPass) {
	if l.res == nil {
		return
	}
	size := l.res.Size()
	pass.Append(&quad.TextureQuad{
		DrawQuad: quad.DrawQuad{
			Rect:   gfx.R(0, 0, float64(size.X), float64(size.Y)),
			Opaque: l.opaque,
			Shared: quad.NewSharedState(l.transform),
		},
		Resource: l.res.ID(),
		UVRect:   gfx.R(0, 0, 1, 1),
	})
}

// Release implements Layer.
func (l *TextureLayer) Release() {
	l.SetResource(nil)
}

var _ Layer = (*TextureLayer)(nil)
