// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layer

import (
	"image"
	"math"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/quad"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/tile"
)

const (
	// DefaultTileSize is the edge length of a tile in pixels.
	DefaultTileSize = 256

	// DefaultSkewportDistance is how far outside the viewport, in target
	// pixels, tiles are still considered needed soon.
	DefaultSkewportDistance = 512

	// eventuallyFactor multiplies the skewport distance to get the limit
	// beyond which tiles are not needed at all.
	eventuallyFactor = 4
)

// DefaultCheckerboardColor fills tiles that have nothing to draw yet.
var DefaultCheckerboardColor = gfx.RGB(0.9, 0.9, 0.9)

// Option configures a TiledLayer during creation.
type Option func(*options)

type options struct {
	tileSize       int
	lowResScale    float64
	skewport       float64
	checkerboard   gfx.Color
	rasterOnDemand bool
	transform      gfx.Matrix
	opaque         bool
}

func defaultOptions() options {
	return options{
		tileSize:     DefaultTileSize,
		skewport:     DefaultSkewportDistance,
		checkerboard: DefaultCheckerboardColor,
		transform:    gfx.Identity(),
	}
}

// WithTileSize sets the tile edge length in pixels.
func WithTileSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.tileSize = n
		}
	}
}

// WithLowResScale adds a low resolution tiling at the given fraction of
// the ideal scale. Values outside (0, 1) disable it.
func WithLowResScale(f float64) Option {
	return func(o *options) {
		o.lowResScale = f
	}
}

// WithSkewportDistance sets how far outside the viewport tiles are needed
// soon.
func WithSkewportDistance(d float64) Option {
	return func(o *options) {
		if d >= 0 {
			o.skewport = d
		}
	}
}

// WithCheckerboardColor sets the placeholder color for unready tiles.
func WithCheckerboardColor(c gfx.Color) Option {
	return func(o *options) {
		o.checkerboard = c
	}
}

// WithRasterizeOnDemand emits picture quads for unready tiles instead of a
// checkerboard, so the renderer rasterizes them synchronously.
func WithRasterizeOnDemand(enabled bool) Option {
	return func(o *options) {
		o.rasterOnDemand = enabled
	}
}

// WithTransform sets the layer-to-target transform.
func WithTransform(m gfx.Matrix) Option {
	return func(o *options) {
		o.transform = m
	}
}

// WithContentsOpaque declares the content has no transparent pixels.
func WithContentsOpaque(opaque bool) Option {
	return func(o *options) {
		o.opaque = opaque
	}
}

// TiledLayer draws raster content through tiles.
//
// Thread safety: TiledLayer belongs to the frame goroutine.
type TiledLayer struct {
	id     int
	source raster.Source
	mgr    *tile.Manager
	opts   options

	idealScale float64
	high       *Tiling
	low        *Tiling

	viewport    gfx.Rect
	hasViewport bool
}

// NewTiledLayer creates a layer over src at contents scale 1. Tiles are
// created through mgr.
func NewTiledLayer(id int, src raster.Source, mgr *tile.Manager, opts ...Option) *TiledLayer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := &TiledLayer{id: id, source: src, mgr: mgr, opts: o}
	l.SetContentsScale(1)
	return l
}

// ID implements Layer.
func (l *TiledLayer) ID() int { return l.id }

// ContentsScale returns the ideal contents scale.
func (l *TiledLayer) ContentsScale() float64 { return l.idealScale }

// HighResTiling returns the tiling at the ideal scale.
func (l *TiledLayer) HighResTiling() *Tiling { return l.high }

// LowResTiling returns the low resolution tiling, or nil.
func (l *TiledLayer) LowResTiling() *Tiling { return l.low }

// SetTransform replaces the layer-to-target transform.
func (l *TiledLayer) SetTransform(m gfx.Matrix) { l.opts.transform = m }

// SetContentsScale changes the ideal scale. Existing tiles are released
// and new tilings created when the scale changes.
func (l *TiledLayer) SetContentsScale(s float64) {
	if s <= 0 {
		s = 1
	}
	if l.high != nil && l.idealScale == s {
		return
	}
	l.releaseTilings()

	l.idealScale = s
	l.high = newTiling(l.mgr, l.id, l.source, s, tile.HighResolution, l.opts.tileSize)
	if f := l.opts.lowResScale; f > 0 && f < 1 {
		l.low = newTiling(l.mgr, l.id, l.source, s*f, tile.LowResolution, l.opts.tileSize)
	}
}

// Invalidate marks content in r, in unscaled content space, as changed.
// The affected tiles drop their content at the next UpdatePriorities and
// are rasterized again; until then they draw their old content.
func (l *TiledLayer) Invalidate(r image.Rectangle) {
	for _, t := range l.tilings() {
		t.invalidate(scaleRect(r, t.scale))
	}
}

// UpdatePriorities implements Layer. Pending invalidations are applied
// first.
func (l *TiledLayer) UpdatePriorities(viewport gfx.Rect) {
	l.viewport = viewport
	l.hasViewport = true

	for _, t := range l.tilings() {
		t.flushInvalidations(l.mgr)
	}

	for _, t := range l.tilings() {
		m := l.contentToTarget(t.scale)
		for _, tl := range t.tiles {
			r := m.MapRect(gfx.RectFromImage(tl.Rect()))
			tl.SetPriority(l.priorityFor(r, t.resolution))
		}
	}
}

// AppendQuads implements Layer. Only tiles inside the last viewport are
// emitted. An unready high resolution tile is covered by low resolution
// tiles when they are all ready, else by a picture quad or a checkerboard.
func (l *TiledLayer) AppendQuads(pass *quad.RenderPass) {
	if l.high == nil {
		return
	}
	m := l.contentToTarget(l.high.scale)
	shared := quad.NewSharedState(m)

	for _, tl := range l.high.tiles {
		target := m.MapRect(gfx.RectFromImage(tl.Rect()))
		if l.hasViewport && !target.Intersects(l.viewport) {
			continue
		}
		if q := l.readyQuad(tl, shared); q != nil {
			pass.Append(q)
			continue
		}
		if l.appendLowRes(pass, tl, target) {
			continue
		}

		base := quad.DrawQuad{Rect: gfx.RectFromImage(tl.Rect()), Opaque: l.opts.opaque, Shared: shared}
		if l.opts.rasterOnDemand {
			pass.Append(&quad.PictureQuad{
				DrawQuad:      base,
				Source:        l.source,
				ContentRect:   tl.Rect(),
				ContentsScale: tl.ContentsScale(),
			})
			continue
		}
		base.Opaque = l.opts.checkerboard.IsOpaque()
		pass.Append(&quad.SolidColorQuad{DrawQuad: base, Color: l.opts.checkerboard})
	}
}

// Release implements Layer.
func (l *TiledLayer) Release() {
	l.releaseTilings()
}

// readyQuad returns the quad drawing tl, or nil when tl is not ready.
func (l *TiledLayer) readyQuad(tl *tile.Tile, shared quad.SharedState) quad.Quad {
	rect := gfx.RectFromImage(tl.Rect())
	di := tl.DrawInfo()

	switch di.Mode() {
	case tile.ResourceMode:
		r := di.Resource()
		if r == nil {
			return nil
		}
		size := tl.Rect().Size()
		return &quad.TileQuad{
			DrawQuad:     quad.DrawQuad{Rect: rect, Opaque: l.opts.opaque, Shared: shared},
			Resource:     r.ID(),
			TexCoordRect: gfx.R(0, 0, float64(size.X), float64(size.Y)),
			TextureSize:  r.Size(),
			Swizzle:      di.ContentsSwizzled(),
		}
	case tile.SolidColorMode:
		c := di.SolidColor()
		return &quad.SolidColorQuad{
			DrawQuad: quad.DrawQuad{Rect: rect, Opaque: c.IsOpaque(), Shared: shared},
			Color:    c,
		}
	default:
		return nil
	}
}

// appendLowRes covers a missing high resolution tile with low resolution
// tiles clipped to its target rect. It appends nothing unless every
// covering tile is ready.
func (l *TiledLayer) appendLowRes(pass *quad.RenderPass, tl *tile.Tile, target gfx.Rect) bool {
	if l.low == nil {
		return false
	}
	lowRect := gfx.RectFromImage(tl.Rect()).Scale(l.low.scale / l.high.scale).EnclosingImage()
	covering := l.low.TilesInRect(lowRect)
	if len(covering) == 0 {
		return false
	}

	shared := quad.NewSharedState(l.contentToTarget(l.low.scale))
	shared.Clip = target
	shared.IsClipped = true

	quads := make([]quad.Quad, 0, len(covering))
	for _, lt := range covering {
		q := l.readyQuad(lt, shared)
		if q == nil {
			return false
		}
		quads = append(quads, q)
	}
	for _, q := range quads {
		pass.Append(q)
	}
	return true
}

func (l *TiledLayer) priorityFor(r gfx.Rect, res tile.Resolution) tile.Priority {
	if r.Intersects(l.viewport) {
		return tile.Priority{Resolution: res, Bin: tile.BinNow}
	}
	d := distance(r, l.viewport)
	switch {
	case d <= l.opts.skewport:
		return tile.Priority{Resolution: res, Bin: tile.BinSoon, DistanceToVisible: d}
	case d <= l.opts.skewport*eventuallyFactor:
		return tile.Priority{Resolution: res, Bin: tile.BinEventually, DistanceToVisible: d}
	default:
		return tile.LowestPriority
	}
}

// contentToTarget maps a tiling's scaled content space to target space.
func (l *TiledLayer) contentToTarget(scale float64) gfx.Matrix {
	return l.opts.transform.Multiply(gfx.Scale(1/scale, 1/scale))
}

func (l *TiledLayer) tilings() []*Tiling {
	switch {
	case l.high == nil:
		return nil
	case l.low == nil:
		return []*Tiling{l.high}
	default:
		return []*Tiling{l.high, l.low}
	}
}

func (l *TiledLayer) releaseTilings() {
	for _, t := range l.tilings() {
		t.release(l.mgr)
	}
	l.high, l.low = nil, nil
}

// distance returns the gap between two rects, zero when they touch.
func distance(a, b gfx.Rect) float64 {
	dx := math.Max(0, math.Max(b.X-a.Right(), a.X-b.Right()))
	dy := math.Max(0, math.Max(b.Y-a.Bottom(), a.Y-b.Bottom()))
	return math.Hypot(dx, dy)
}

var _ Layer = (*TiledLayer)(nil)
