// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/output"
	"github.com/gogpu/compositor/overlay"
	"github.com/gogpu/compositor/quad"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/resource"
)

// inlineScheduler runs each task during Submit.
type inlineScheduler struct{}

func (inlineScheduler) Submit(task *raster.Task, done func(raster.Result)) error {
	done(task.Run(context.Background()))
	return nil
}

// heldScheduler queues tasks until the test runs them.
type heldScheduler struct {
	mu     sync.Mutex
	queued []func()
}

func (s *heldScheduler) Submit(task *raster.Task, done func(raster.Result)) error {
	s.mu.Lock()
	s.queued = append(s.queued, func() { done(task.Run(context.Background())) })
	s.mu.Unlock()
	return nil
}

func (s *heldScheduler) runAll() int {
	s.mu.Lock()
	queued := s.queued
	s.queued = nil
	s.mu.Unlock()
	for _, run := range queued {
		run()
	}
	return len(queued)
}

// staticSurface reports a fixed validator.
type staticSurface struct {
	v overlay.Validator
}

func (s staticSurface) OverlayCandidateValidator() overlay.Validator { return s.v }

func stripes(w, h int) raster.Source {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if (x/4)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return raster.NewImageSource(img)
}

func testSettings() Settings {
	s := DefaultSettings()
	s.TileSize = 64
	s.LowResScale = 0
	return s
}

func newTestHost(t *testing.T, s Settings, size image.Point, opts ...HostOption) *Host {
	t.Helper()
	h, err := NewHost(s, size, opts...)
	if err != nil {
		t.Fatalf("NewHost() error = %v", err)
	}
	t.Cleanup(h.Close)
	return h
}

func countMaterial(pass *quad.RenderPass, m quad.Material) int {
	n := 0
	for _, q := range pass.Quads {
		if q.Material() == m {
			n++
		}
	}
	return n
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNewHost_Errors(t *testing.T) {
	bad := DefaultSettings()
	bad.TileSize = 1
	if _, err := NewHost(bad, image.Pt(10, 10)); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("NewHost(bad settings) = %v, want ErrInvalidSettings", err)
	}
	if _, err := NewHost(DefaultSettings(), image.Pt(0, 10)); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("NewHost(0x10) = %v, want ErrInvalidSize", err)
	}
}

func TestNewHost_Defaults(t *testing.T) {
	h := newTestHost(t, DefaultSettings(), image.Pt(320, 200))

	if got := h.Viewport(); got != gfx.R(0, 0, 320, 200) {
		t.Errorf("Viewport() = %v, want whole output", got)
	}
	if h.OverlayProcessor().Enabled() {
		t.Error("overlays enabled without a surface")
	}
	if _, ok := h.Pool().Provider().(*resource.MemoryProvider); !ok {
		t.Errorf("Provider() = %T, want *resource.MemoryProvider", h.Pool().Provider())
	}
	if got := h.Pool().Stats().LimitBytes; got != DefaultSettings().MemoryLimitBytes {
		t.Errorf("LimitBytes = %d, want %d", got, DefaultSettings().MemoryLimitBytes)
	}
}

// =============================================================================
// Frame Tests
// =============================================================================

func TestHost_CheckerboardThenTiles(t *testing.T) {
	h := newTestHost(t, testSettings(), image.Pt(128, 64), WithScheduler(inlineScheduler{}))
	h.AddTiledLayer(stripes(128, 64))
	ctx := context.Background()

	f, err := h.DrawFrame(ctx)
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	root := f.Passes.Root()
	if got := countMaterial(root, quad.MaterialSolidColor); got != 2 {
		t.Errorf("frame 1: checkerboard quads = %d, want 2", got)
	}
	if f.Stats.Prepare.Scheduled != 2 {
		t.Errorf("frame 1: Scheduled = %d, want 2", f.Stats.Prepare.Scheduled)
	}

	f, err = h.DrawFrame(ctx)
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if f.Number != 2 {
		t.Errorf("Number = %d, want 2", f.Number)
	}
	if f.Stats.Applied != 2 {
		t.Errorf("frame 2: Applied = %d, want 2", f.Stats.Applied)
	}
	if got := countMaterial(f.Passes.Root(), quad.MaterialTile); got != 2 {
		t.Errorf("frame 2: tile quads = %d, want 2", got)
	}
	if f.Stats.Tiles.ReadyToDraw != 2 {
		t.Errorf("frame 2: ReadyToDraw = %d, want 2", f.Stats.Tiles.ReadyToDraw)
	}
}

func TestHost_SettleWithWorkers(t *testing.T) {
	s := testSettings()
	s.RasterWorkers = 2
	h := newTestHost(t, s, image.Pt(128, 128))
	h.AddTiledLayer(stripes(128, 128))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f, err := h.Settle(ctx)
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if got := countMaterial(f.Passes.Root(), quad.MaterialTile); got != 4 {
		t.Errorf("tile quads = %d, want 4", got)
	}
	if f.Stats.Tiles.PendingTasks != 0 {
		t.Errorf("PendingTasks = %d, want 0", f.Stats.Tiles.PendingTasks)
	}
}

func TestHost_BGRANativeColors(t *testing.T) {
	provider := &resource.MemoryProvider{Native: gputypes.TextureFormatBGRA8Unorm}
	h := newTestHost(t, testSettings(), image.Pt(64, 64), WithProvider(provider), WithScheduler(inlineScheduler{}))

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			if x < 32 {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{G: 255, A: 255})
			}
		}
	}
	h.AddTiledLayer(raster.NewImageSource(img))

	f, err := h.Settle(context.Background())
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if got := countMaterial(f.Passes.Root(), quad.MaterialTile); got != 1 {
		t.Fatalf("tile quads = %d, want 1", got)
	}

	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	r := output.NewSoftwareRenderer(h.Pool())
	if _, err := r.DrawFrame(context.Background(), f.Passes, dst); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if got, want := dst.RGBAAt(10, 10), (color.RGBA{R: 255, A: 255}); got != want {
		t.Errorf("pixel(10,10) = %v, want %v", got, want)
	}
	if got, want := dst.RGBAAt(50, 10), (color.RGBA{G: 255, A: 255}); got != want {
		t.Errorf("pixel(50,10) = %v, want %v", got, want)
	}
}

func TestHost_TrimsUnusedMemory(t *testing.T) {
	const tileBytes = 64 * 64 * 4
	tests := []struct {
		name      string
		maxUnused int64
		wantFree  int64
	}{
		{"keep all", 0, 4 * tileBytes},
		{"one tile", tileBytes + 100, tileBytes},
		{"none", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings()
			s.MaxUnusedBytes = tt.maxUnused
			h := newTestHost(t, s, image.Pt(128, 128), WithScheduler(inlineScheduler{}))
			l := h.AddTiledLayer(stripes(128, 128))
			if _, err := h.Settle(context.Background()); err != nil {
				t.Fatalf("Settle() error = %v", err)
			}

			h.RemoveLayer(l.ID())
			f, err := h.DrawFrame(context.Background())
			if err != nil {
				t.Fatalf("DrawFrame() error = %v", err)
			}
			if f.Stats.Pool.FreeBytes != tt.wantFree {
				t.Errorf("FreeBytes = %d, want %d", f.Stats.Pool.FreeBytes, tt.wantFree)
			}
		})
	}
}

func TestHost_ViewportLimitsQuads(t *testing.T) {
	h := newTestHost(t, testSettings(), image.Pt(256, 64), WithScheduler(inlineScheduler{}))
	h.AddTiledLayer(stripes(256, 64))
	h.SetViewport(gfx.R(0, 0, 64, 64))

	f, err := h.DrawFrame(context.Background())
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if got := len(f.Passes.Root().Quads); got != 1 {
		t.Errorf("quads = %d, want 1", got)
	}
}

func TestHost_LayerOrder(t *testing.T) {
	h := newTestHost(t, testSettings(), image.Pt(64, 64), WithScheduler(inlineScheduler{}))
	front := h.AddTiledLayer(raster.NewSolidSource(image.Rect(0, 0, 64, 64), gfx.RGB(1, 0, 0)))
	back := h.AddTiledLayer(raster.NewSolidSource(image.Rect(0, 0, 64, 64), gfx.RGB(0, 0, 1)))

	if front.ID() == back.ID() {
		t.Fatalf("layer IDs collide: %d", front.ID())
	}
	f, err := h.DrawFrame(context.Background())
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	quads := f.Passes.Root().Quads
	if len(quads) != 2 {
		t.Fatalf("quads = %d, want 2", len(quads))
	}
	if c := quads[0].(*quad.SolidColorQuad).Color; c != gfx.RGB(1, 0, 0) {
		t.Errorf("front quad color = %v, want red", c)
	}

	if !h.RemoveLayer(front.ID()) {
		t.Fatal("RemoveLayer() = false")
	}
	if h.RemoveLayer(front.ID()) {
		t.Error("RemoveLayer() twice = true")
	}
	if got := len(h.Layers()); got != 1 {
		t.Errorf("len(Layers()) = %d, want 1", got)
	}
}

// =============================================================================
// Overlay Tests
// =============================================================================

func overlayHost(t *testing.T, s Settings) *Host {
	t.Helper()
	size := image.Pt(64, 64)
	provider := &resource.MemoryProvider{
		ScanoutFormats: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
	}
	surface := staticSurface{v: overlay.DefaultCapabilities(nil, image.Rectangle{Max: size})}
	return newTestHost(t, s, size, WithProvider(provider), WithSurface(surface), WithScheduler(inlineScheduler{}))
}

func TestHost_FullscreenTextureOnOverlay(t *testing.T) {
	h := overlayHost(t, testSettings())
	res, err := h.Pool().Allocate(image.Pt(64, 64), gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	h.AddTextureLayer(res, gfx.Identity(), true)

	f, err := h.DrawFrame(context.Background())
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if f.Strategy != "single-on-top" {
		t.Errorf("Strategy = %q, want single-on-top", f.Strategy)
	}
	if len(f.Overlays) != 1 || f.Overlays[0].Resource != res.ID() {
		t.Fatalf("Overlays = %+v, want one plane for resource %d", f.Overlays, res.ID())
	}
	if got := len(f.Passes.Root().Quads); got != 0 {
		t.Errorf("root quads = %d, want 0", got)
	}
}

func TestHost_OverlaysDisabledBySettings(t *testing.T) {
	s := testSettings()
	s.EnableOverlays = false
	h := overlayHost(t, s)
	res, err := h.Pool().Allocate(image.Pt(64, 64), gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	h.AddTextureLayer(res, gfx.Identity(), true)

	f, err := h.DrawFrame(context.Background())
	if err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if f.Strategy != "" || len(f.Overlays) != 0 {
		t.Errorf("Strategy = %q, Overlays = %d; want none", f.Strategy, len(f.Overlays))
	}
	if got := countMaterial(f.Passes.Root(), quad.MaterialTexture); got != 1 {
		t.Errorf("texture quads = %d, want 1", got)
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestHost_Close(t *testing.T) {
	h, err := NewHost(testSettings(), image.Pt(64, 64))
	if err != nil {
		t.Fatalf("NewHost() error = %v", err)
	}
	h.AddTiledLayer(stripes(64, 64))
	if _, err := h.DrawFrame(context.Background()); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}

	h.Close()
	h.Close()

	if _, err := h.DrawFrame(context.Background()); !errors.Is(err, ErrHostClosed) {
		t.Errorf("DrawFrame() after Close = %v, want ErrHostClosed", err)
	}
	if got := h.TileManager().Stats().Tiles; got != 0 {
		t.Errorf("tiles after Close = %d, want 0", got)
	}
	if got := h.Pool().Stats().InUseCount; got != 0 {
		t.Errorf("resources in use after Close = %d, want 0", got)
	}
}

func TestHost_CloseWithExternalScheduler(t *testing.T) {
	sched := &heldScheduler{}
	h, err := NewHost(testSettings(), image.Pt(128, 128), WithScheduler(sched))
	if err != nil {
		t.Fatalf("NewHost() error = %v", err)
	}
	h.AddTiledLayer(stripes(128, 128))
	if _, err := h.DrawFrame(context.Background()); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}

	h.Close()
	if got := h.Pool().Stats().InUseCount; got != 4 {
		t.Fatalf("resources held by in-flight tasks = %d, want 4", got)
	}
	if n := sched.runAll(); n != 4 {
		t.Fatalf("ran %d tasks, want 4", n)
	}
	if got := h.Pool().Stats().InUseCount; got != 0 {
		t.Errorf("resources in use after late results = %d, want 0", got)
	}
}

func TestHost_DrawFrameCancelled(t *testing.T) {
	h := newTestHost(t, testSettings(), image.Pt(64, 64))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.DrawFrame(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("DrawFrame() = %v, want context.Canceled", err)
	}
}
