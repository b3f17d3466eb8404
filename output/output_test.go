// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/overlay"
	"github.com/gogpu/compositor/quad"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/resource"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	black = color.RGBA{A: 255}
)

func filled(t *testing.T, pool *resource.Pool, w, h int, format gputypes.TextureFormat, c color.RGBA) *resource.Resource {
	t.Helper()
	r, err := pool.Allocate(image.Pt(w, h), format)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	draw.Draw(r.Pixels(), r.Pixels().Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return r
}

func shared(m gfx.Matrix) quad.SharedState {
	return quad.NewSharedState(m)
}

func solidQuad(rect gfx.Rect, c gfx.Color) *quad.SolidColorQuad {
	return &quad.SolidColorQuad{DrawQuad: quad.DrawQuad{Rect: rect, Opaque: c.IsOpaque(), Shared: shared(gfx.Identity())}, Color: c}
}

func rootPass(quads ...quad.Quad) quad.RenderPassList {
	p := quad.NewRenderPass(1, image.Rect(0, 0, 20, 20))
	for _, q := range quads {
		p.Append(q)
	}
	return quad.RenderPassList{p}
}

func assertPixel(t *testing.T, img *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	if got := img.RGBAAt(x, y); got != want {
		t.Errorf("pixel(%d,%d) = %v, want %v", x, y, got, want)
	}
}

// =============================================================================
// SoftwareRenderer Tests
// =============================================================================

func TestSoftwareRenderer_SolidAndOrder(t *testing.T) {
	r := NewSoftwareRenderer(resource.NewPool(resource.NewMemoryProvider()))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))

	front := solidQuad(gfx.R(0, 0, 10, 10), gfx.ColorFromRGBA8(red))
	back := solidQuad(gfx.R(0, 0, 20, 20), gfx.ColorFromRGBA8(green))

	stats, err := r.DrawFrame(context.Background(), rootPass(front, back), dst)
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if stats.Quads != 2 {
		t.Errorf("Quads = %d, want 2", stats.Quads)
	}
	assertPixel(t, dst, 5, 5, red)
	assertPixel(t, dst, 15, 15, green)
}

func TestSoftwareRenderer_HolePunch(t *testing.T) {
	r := NewSoftwareRenderer(resource.NewPool(resource.NewMemoryProvider()))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))

	hole := solidQuad(gfx.R(5, 5, 10, 10), gfx.Transparent)
	hole.HolePunch = true
	hole.Shared.BlendMode = quad.BlendSource

	passes := rootPass(hole, solidQuad(gfx.R(0, 0, 20, 20), gfx.ColorFromRGBA8(blue)))
	passes.Root().TransparentBackground = true
	if _, err := r.DrawFrame(context.Background(), passes, dst); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	assertPixel(t, dst, 10, 10, color.RGBA{})
	assertPixel(t, dst, 1, 1, blue)
}

func TestSoftwareRenderer_Clip(t *testing.T) {
	r := NewSoftwareRenderer(resource.NewPool(resource.NewMemoryProvider()))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))

	q := solidQuad(gfx.R(0, 0, 20, 20), gfx.ColorFromRGBA8(red))
	q.Shared.IsClipped = true
	q.Shared.Clip = gfx.R(0, 0, 10, 20)

	if _, err := r.DrawFrame(context.Background(), rootPass(q), dst); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	assertPixel(t, dst, 5, 5, red)
	assertPixel(t, dst, 15, 5, black)
}

func TestSoftwareRenderer_TileQuad(t *testing.T) {
	pool := resource.NewPool(resource.NewMemoryProvider())
	res := filled(t, pool, 8, 8, gputypes.TextureFormatRGBA8Unorm, red)
	r := NewSoftwareRenderer(pool, WithSampler(draw.NearestNeighbor))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))

	q := &quad.TileQuad{
		DrawQuad:     quad.DrawQuad{Rect: gfx.R(0, 0, 8, 8), Opaque: true, Shared: shared(gfx.Translate(10, 10))},
		Resource:     res.ID(),
		TexCoordRect: gfx.R(0, 0, 8, 8),
		TextureSize:  image.Pt(8, 8),
	}
	if _, err := r.DrawFrame(context.Background(), rootPass(q), dst); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	assertPixel(t, dst, 12, 12, red)
	assertPixel(t, dst, 5, 5, black)
}

func TestSoftwareRenderer_SwizzledTile(t *testing.T) {
	pool := resource.NewPool(resource.NewMemoryProvider())
	// BGRA storage of red.
	res := filled(t, pool, 4, 4, gputypes.TextureFormatBGRA8Unorm, color.RGBA{B: 255, A: 255})
	r := NewSoftwareRenderer(pool, WithSampler(draw.NearestNeighbor))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))

	q := &quad.TileQuad{
		DrawQuad:     quad.DrawQuad{Rect: gfx.R(0, 0, 4, 4), Opaque: true, Shared: shared(gfx.Identity())},
		Resource:     res.ID(),
		TexCoordRect: gfx.R(0, 0, 4, 4),
		TextureSize:  image.Pt(4, 4),
		Swizzle:      true,
	}
	if _, err := r.DrawFrame(context.Background(), rootPass(q), dst); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	assertPixel(t, dst, 1, 1, red)
}

func TestSoftwareRenderer_BGRANativeTile(t *testing.T) {
	pool := resource.NewPool(&resource.MemoryProvider{Native: gputypes.TextureFormatBGRA8Unorm})
	res, err := pool.Allocate(image.Pt(8, 8), gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if res.NeedsSwizzle() {
		t.Fatal("BGRA resource on BGRA provider should not need swizzle")
	}

	content := image.NewRGBA(image.Rect(0, 0, 8, 8))
	draw.Draw(content, image.Rect(0, 0, 4, 8), image.NewUniform(red), image.Point{}, draw.Src)
	draw.Draw(content, image.Rect(4, 0, 8, 8), image.NewUniform(green), image.Point{}, draw.Src)
	task := raster.NewTask(raster.TaskSpec{Rect: image.Rect(0, 0, 8, 8), Scale: 1, Source: raster.NewImageSource(content)}, res)
	if result := task.Run(context.Background()); result.Err != nil {
		t.Fatalf("Run() error = %v", result.Err)
	}

	r := NewSoftwareRenderer(pool, WithSampler(draw.NearestNeighbor))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	tq := &quad.TileQuad{
		DrawQuad:     quad.DrawQuad{Rect: gfx.R(0, 0, 8, 8), Opaque: true, Shared: shared(gfx.Identity())},
		Resource:     res.ID(),
		TexCoordRect: gfx.R(0, 0, 8, 8),
		TextureSize:  image.Pt(8, 8),
		Swizzle:      res.NeedsSwizzle(),
	}
	xq := &quad.TextureQuad{
		DrawQuad: quad.DrawQuad{Rect: gfx.R(10, 10, 8, 8), Opaque: true, Shared: shared(gfx.Identity())},
		Resource: res.ID(),
		UVRect:   gfx.R(0, 0, 1, 1),
	}
	if _, err := r.DrawFrame(context.Background(), rootPass(tq, xq), dst); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	assertPixel(t, dst, 1, 4, red)
	assertPixel(t, dst, 6, 4, green)
	assertPixel(t, dst, 11, 14, red)
	assertPixel(t, dst, 16, 14, green)

	// Drawing must not touch the staging bytes.
	if got := res.Pixels().Pix[0:4]; got[0] != 0 || got[2] != 255 {
		t.Errorf("staging bytes = %v, want BGRA red", got)
	}
}

func TestSoftwareRenderer_PictureOnDemand(t *testing.T) {
	r := NewSoftwareRenderer(resource.NewPool(resource.NewMemoryProvider()))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))

	q := &quad.PictureQuad{
		DrawQuad:      quad.DrawQuad{Rect: gfx.R(0, 0, 10, 10), Opaque: true, Shared: shared(gfx.Identity())},
		Source:        raster.NewSolidSource(image.Rect(0, 0, 10, 10), gfx.ColorFromRGBA8(green)),
		ContentRect:   image.Rect(0, 0, 10, 10),
		ContentsScale: 1,
	}
	stats, err := r.DrawFrame(context.Background(), rootPass(q), dst)
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if stats.OnDemand != 1 {
		t.Errorf("OnDemand = %d, want 1", stats.OnDemand)
	}
	assertPixel(t, dst, 5, 5, green)

	stats, err = r.DrawFrame(context.Background(), rootPass(q), dst)
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if stats.OnDemand != 0 || stats.PictureHits != 1 {
		t.Errorf("second frame: OnDemand = %d, PictureHits = %d; want 0, 1", stats.OnDemand, stats.PictureHits)
	}

	r.PurgePictures()
	stats, _ = r.DrawFrame(context.Background(), rootPass(q), dst)
	if stats.OnDemand != 1 {
		t.Errorf("after purge: OnDemand = %d, want 1", stats.OnDemand)
	}
}

func TestSoftwareRenderer_PictureCacheDisabled(t *testing.T) {
	r := NewSoftwareRenderer(resource.NewPool(resource.NewMemoryProvider()), WithPictureCache(0))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	q := &quad.PictureQuad{
		DrawQuad:      quad.DrawQuad{Rect: gfx.R(0, 0, 10, 10), Opaque: true, Shared: shared(gfx.Identity())},
		Source:        raster.NewSolidSource(image.Rect(0, 0, 10, 10), gfx.ColorFromRGBA8(green)),
		ContentRect:   image.Rect(0, 0, 10, 10),
		ContentsScale: 1,
	}
	for frame := 1; frame <= 2; frame++ {
		stats, err := r.DrawFrame(context.Background(), rootPass(q), dst)
		if err != nil {
			t.Fatalf("DrawFrame() error = %v", err)
		}
		if stats.OnDemand != 1 || stats.PictureHits != 0 {
			t.Errorf("frame %d: OnDemand = %d, PictureHits = %d; want 1, 0", frame, stats.OnDemand, stats.PictureHits)
		}
	}
}

func TestSoftwareRenderer_MissingResource(t *testing.T) {
	r := NewSoftwareRenderer(resource.NewPool(resource.NewMemoryProvider()))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))

	q := &quad.TextureQuad{
		DrawQuad: quad.DrawQuad{Rect: gfx.R(0, 0, 10, 10), Shared: shared(gfx.Identity())},
		Resource: 42,
		UVRect:   gfx.R(0, 0, 1, 1),
	}
	stats, err := r.DrawFrame(context.Background(), rootPass(q), dst)
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if stats.Missing != 1 || stats.Quads != 0 {
		t.Errorf("stats = %+v, want one missing quad", stats)
	}
}

func TestSoftwareRenderer_RenderPassQuad(t *testing.T) {
	r := NewSoftwareRenderer(resource.NewPool(resource.NewMemoryProvider()), WithSampler(draw.NearestNeighbor))
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))

	child := quad.NewRenderPass(7, image.Rect(0, 0, 4, 4))
	child.Append(solidQuad(gfx.R(0, 0, 4, 4), gfx.ColorFromRGBA8(blue)))

	root := quad.NewRenderPass(1, image.Rect(0, 0, 20, 20))
	root.Append(&quad.RenderPassQuad{
		DrawQuad: quad.DrawQuad{Rect: gfx.R(10, 10, 8, 8), Opaque: true, Shared: shared(gfx.Identity())},
		Pass:     7,
	})

	if _, err := r.DrawFrame(context.Background(), quad.RenderPassList{child, root}, dst); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	assertPixel(t, dst, 14, 14, blue)
	assertPixel(t, dst, 2, 2, black)
}

func TestSoftwareRenderer_Cancelled(t *testing.T) {
	r := NewSoftwareRenderer(resource.NewPool(resource.NewMemoryProvider()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.DrawFrame(ctx, rootPass(solidQuad(gfx.R(0, 0, 1, 1), gfx.White)), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if err == nil {
		t.Error("DrawFrame() with cancelled context should fail")
	}
}

// =============================================================================
// Present Tests
// =============================================================================

func TestPresent_PlaneOrder(t *testing.T) {
	pool := resource.NewPool(resource.NewMemoryProvider())
	under := filled(t, pool, 4, 4, gputypes.TextureFormatRGBA8Unorm, red)
	over := filled(t, pool, 4, 4, gputypes.TextureFormatRGBA8Unorm, green)

	// Primary plane: transparent hole on the left half, blue on the right.
	primary := image.NewRGBA(image.Rect(0, 0, 20, 20))
	draw.Draw(primary, image.Rect(10, 0, 20, 20), image.NewUniform(blue), image.Point{}, draw.Src)

	candidates := overlay.CandidateList{
		{DisplayRect: gfx.R(15, 15, 5, 5), UVRect: gfx.R(0, 0, 1, 1), Transform: overlay.TransformNone, Resource: over.ID(), PlaneZOrder: 1, IsOpaque: true},
		{DisplayRect: gfx.R(0, 0, 20, 20), UVRect: gfx.R(0, 0, 1, 1), Transform: overlay.TransformNone, Resource: under.ID(), PlaneZOrder: -1, IsOpaque: true},
	}

	out := Present(primary, candidates, pool)
	assertPixel(t, out, 5, 5, red)
	assertPixel(t, out, 12, 5, blue)
	assertPixel(t, out, 17, 17, green)
}

func TestPresent_BGRAPlane(t *testing.T) {
	pool := resource.NewPool(&resource.MemoryProvider{Native: gputypes.TextureFormatBGRA8Unorm})
	// BGRA storage of red.
	plane := filled(t, pool, 4, 4, gputypes.TextureFormatBGRA8Unorm, color.RGBA{B: 255, A: 255})

	primary := image.NewRGBA(image.Rect(0, 0, 20, 20))
	candidates := overlay.CandidateList{
		{DisplayRect: gfx.R(0, 0, 20, 20), UVRect: gfx.R(0, 0, 1, 1), Transform: overlay.TransformNone, Resource: plane.ID(), PlaneZOrder: -1, IsOpaque: true},
	}

	out := Present(primary, candidates, pool)
	assertPixel(t, out, 10, 10, red)
}

func TestOrientation(t *testing.T) {
	tests := []struct {
		tf     overlay.Transform
		x, y   float64
		wx, wy float64
	}{
		{overlay.TransformNone, 0, 0, 0, 0},
		{overlay.TransformFlipHorizontal, 0, 0, 1, 0},
		{overlay.TransformFlipVertical, 0, 0, 0, 1},
		{overlay.TransformRotate180, 0, 0, 1, 1},
		{overlay.TransformRotate90, 0, 0, 1, 0},
		{overlay.TransformRotate270, 0, 0, 0, 1},
	}
	for _, tt := range tests {
		x, y := orientation(tt.tf).TransformPoint(tt.x, tt.y)
		if x != tt.wx || y != tt.wy {
			t.Errorf("orientation(%v)(%v,%v) = (%v,%v), want (%v,%v)", tt.tf, tt.x, tt.y, x, y, tt.wx, tt.wy)
		}
	}
}
