// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"reflect"

	"golang.org/x/image/draw"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/internal/cache"
	"github.com/gogpu/compositor/internal/logging"
	"github.com/gogpu/compositor/quad"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/resource"
)

// DefaultPictureCacheSize is the number of on-demand rasters kept between
// frames.
const DefaultPictureCacheSize = 32

// ResourceLookup resolves resource IDs referenced by quads.
// *resource.Pool implements it.
type ResourceLookup interface {
	Lookup(id resource.ID) (*resource.Resource, bool)
}

// DrawStats summarizes one DrawFrame call.
type DrawStats struct {
	// Quads is the number of quads drawn.
	Quads int

	// OnDemand is the number of picture quads rasterized while drawing.
	OnDemand int

	// PictureHits is the number of picture quads served from earlier
	// on-demand rasters.
	PictureHits int

	// Missing is the number of quads skipped because their resource or
	// pass was not found.
	Missing int
}

// Option configures a SoftwareRenderer.
type Option func(*SoftwareRenderer)

// WithLogger sets the renderer logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *SoftwareRenderer) {
		r.log = logging.OrNop(l)
	}
}

// WithSampler sets the transformer used for textured quads. The default is
// draw.ApproxBiLinear.
func WithSampler(s draw.Transformer) Option {
	return func(r *SoftwareRenderer) {
		r.sampler = s
	}
}

// WithPictureCache sets how many on-demand rasters are kept between
// frames. Zero disables the cache.
func WithPictureCache(n int) Option {
	return func(r *SoftwareRenderer) {
		r.pictureCacheSize = n
	}
}

// pictureKey identifies one on-demand raster. Sources are treated as
// immutable once handed to a layer.
type pictureKey struct {
	source raster.Source
	rect   image.Rectangle
	scale  float64
}

// SoftwareRenderer draws render passes with the CPU.
type SoftwareRenderer struct {
	resources ResourceLookup
	sampler   draw.Transformer
	log       *slog.Logger

	pictureCacheSize int
	pictures         *cache.Cache[pictureKey, *image.RGBA]
}

// NewSoftwareRenderer creates a renderer resolving quad resources through
// resources.
func NewSoftwareRenderer(resources ResourceLookup, opts ...Option) *SoftwareRenderer {
	r := &SoftwareRenderer{
		resources: resources,
		sampler:   draw.ApproxBiLinear,
		log:       logging.Nop(),

		pictureCacheSize: DefaultPictureCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pictureCacheSize > 0 {
		r.pictures = cache.New[pictureKey, *image.RGBA](r.pictureCacheSize)
	}
	return r
}

// PurgePictures drops every cached on-demand raster, as after a source's
// content changed.
func (r *SoftwareRenderer) PurgePictures() {
	if r.pictures != nil {
		r.pictures.Clear()
	}
}

// SetLogger replaces the renderer logger. Nil restores silence.
func (r *SoftwareRenderer) SetLogger(l *slog.Logger) {
	r.log = logging.OrNop(l)
}

// DrawFrame draws passes into dst. Non-root passes are drawn first into
// intermediate images so RenderPassQuads can sample them; the root pass is
// drawn into dst.
func (r *SoftwareRenderer) DrawFrame(ctx context.Context, passes quad.RenderPassList, dst *image.RGBA) (DrawStats, error) {
	var stats DrawStats
	if len(passes) == 0 {
		return stats, nil
	}

	outputs := make(map[quad.PassID]*image.RGBA, len(passes))
	for i, p := range passes {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		target := dst
		if i < len(passes)-1 {
			target = image.NewRGBA(p.OutputRect)
		}
		if err := r.drawPass(ctx, p, target, outputs, &stats); err != nil {
			return stats, fmt.Errorf("output: pass %d: %w", p.ID, err)
		}
		outputs[p.ID] = target
	}
	return stats, nil
}

func (r *SoftwareRenderer) drawPass(ctx context.Context, p *quad.RenderPass, dst *image.RGBA, outputs map[quad.PassID]*image.RGBA, stats *DrawStats) error {
	bounds := p.OutputRect.Intersect(dst.Bounds())
	var bg color.Color = color.Black
	if p.TransparentBackground {
		bg = color.Transparent
	}
	draw.Draw(dst, bounds, image.NewUniform(bg), image.Point{}, draw.Src)

	// Quads are front to back; draw back to front.
	for i := len(p.Quads) - 1; i >= 0; i-- {
		drawn, err := r.drawQuad(ctx, p.Quads[i], dst, bounds, outputs, stats)
		if err != nil {
			return err
		}
		if drawn {
			stats.Quads++
		} else {
			stats.Missing++
		}
	}
	return nil
}

func (r *SoftwareRenderer) drawQuad(ctx context.Context, q quad.Quad, dst *image.RGBA, bounds image.Rectangle, outputs map[quad.PassID]*image.RGBA, stats *DrawStats) (bool, error) {
	d := q.Common()
	if d.Rect.IsEmpty() || d.Shared.Opacity <= 0 {
		return true, nil
	}

	clip := bounds
	if d.Shared.IsClipped {
		clip = clip.Intersect(d.Shared.Clip.EnclosingImage())
	}
	if clip.Empty() {
		return true, nil
	}
	target := dst.SubImage(clip).(*image.RGBA)

	op := draw.Over
	if d.Shared.BlendMode == quad.BlendSource {
		op = draw.Src
	}
	var opts *draw.Options
	if d.Shared.Opacity < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(d.Shared.Opacity*255 + 0.5)})}
	}

	switch q := q.(type) {
	case *quad.SolidColorQuad:
		src := image.NewUniform(q.Color.RGBA8())
		draw.NearestNeighbor.Transform(target, d.Shared.Transform.Aff3(), src, d.Rect.EnclosingImage(), op, opts)
		return true, nil

	case *quad.TileQuad:
		res, ok := r.resources.Lookup(q.Resource)
		if !ok || res.Pixels() == nil {
			r.log.Debug("output: tile resource missing", "resource", q.Resource)
			return false, nil
		}
		r.drawTexture(target, d, res.RGBAPixels(), q.TexCoordRect, op, opts)
		return true, nil

	case *quad.TextureQuad:
		res, ok := r.resources.Lookup(q.Resource)
		if !ok || res.Pixels() == nil {
			r.log.Debug("output: texture resource missing", "resource", q.Resource)
			return false, nil
		}
		size := res.Size()
		tex := gfx.R(q.UVRect.X*float64(size.X), q.UVRect.Y*float64(size.Y),
			q.UVRect.W*float64(size.X), q.UVRect.H*float64(size.Y))
		r.drawTexture(target, d, res.RGBAPixels(), tex, op, opts)
		return true, nil

	case *quad.PictureQuad:
		pix, err := r.picture(ctx, q, stats)
		if err != nil {
			return false, err
		}
		r.drawTexture(target, d, pix, gfx.RectFromImage(pix.Bounds()), op, opts)
		return true, nil

	case *quad.RenderPassQuad:
		src, ok := outputs[q.Pass]
		if !ok {
			r.log.Debug("output: render pass missing", "pass", q.Pass)
			return false, nil
		}
		r.drawTexture(target, d, src, gfx.RectFromImage(src.Bounds()), op, opts)
		return true, nil

	default:
		return false, nil
	}
}

// picture returns the raster of a picture quad, from the cache when the
// same content was rasterized before.
func (r *SoftwareRenderer) picture(ctx context.Context, q *quad.PictureQuad, stats *DrawStats) (*image.RGBA, error) {
	rasterize := func() (*image.RGBA, error) {
		pix := image.NewRGBA(image.Rect(0, 0, q.ContentRect.Dx(), q.ContentRect.Dy()))
		if err := q.Source.Raster(ctx, pix, q.ContentRect, q.ContentsScale); err != nil {
			return nil, fmt.Errorf("rasterize on demand %v: %w", q.ContentRect, err)
		}
		stats.OnDemand++
		return pix, nil
	}
	if q.Source == nil {
		return nil, fmt.Errorf("rasterize on demand %v: no source", q.ContentRect)
	}
	// Non-comparable sources cannot be map keys.
	if r.pictures == nil || !reflect.TypeOf(q.Source).Comparable() {
		return rasterize()
	}

	before := stats.OnDemand
	key := pictureKey{source: q.Source, rect: q.ContentRect, scale: q.ContentsScale}
	pix, err := r.pictures.GetOrCreate(key, rasterize)
	if err == nil && stats.OnDemand == before {
		stats.PictureHits++
	}
	return pix, err
}

// drawTexture samples tex, in src pixels, into the quad's rect.
func (r *SoftwareRenderer) drawTexture(dst *image.RGBA, d *quad.DrawQuad, src image.Image, tex gfx.Rect, op draw.Op, opts *draw.Options) {
	if tex.IsEmpty() {
		return
	}
	texToQuad := gfx.Translate(d.Rect.X, d.Rect.Y).
		Multiply(gfx.Scale(d.Rect.W/tex.W, d.Rect.H/tex.H)).
		Multiply(gfx.Translate(-tex.X, -tex.Y))
	s2d := d.Shared.Transform.Multiply(texToQuad)
	r.sampler.Transform(dst, s2d.Aff3(), src, tex.EnclosingImage(), op, opts)
}
