// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/internal/logging"
	"github.com/gogpu/compositor/layer"
	"github.com/gogpu/compositor/overlay"
	"github.com/gogpu/compositor/quad"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/resource"
	"github.com/gogpu/compositor/tile"
)

// rootPassID identifies the root render pass of every frame.
const rootPassID quad.PassID = 1

// FrameStats summarizes the work done for one frame.
type FrameStats struct {
	// Applied is the number of raster results applied to tiles.
	Applied int

	Prepare tile.PrepareStats
	Tiles   tile.Stats
	Pool    resource.Stats
}

// Frame is the outcome of one DrawFrame call.
type Frame struct {
	// Number counts frames from 1.
	Number uint64

	// Passes are drawn through the normal composition path.
	Passes quad.RenderPassList

	// Overlays are scanned out as hardware planes.
	Overlays overlay.CandidateList

	// Strategy names the overlay strategy used, or is empty.
	Strategy string

	Stats FrameStats
}

// Host owns the tile system and produces frames from a layer list.
//
// Thread safety: DrawFrame and the layer methods must be called from one
// goroutine, the frame goroutine. Raster work runs elsewhere.
type Host struct {
	settings Settings
	size     image.Point
	viewport gfx.Rect
	log      atomic.Pointer[slog.Logger]

	pool       *resource.Pool
	scheduler  raster.Scheduler
	ownedSched *raster.WorkerScheduler
	tiles      *tile.Manager
	overlays   *overlay.Processor

	// layers are ordered front to back.
	layers  []layer.Layer
	nextID  int
	frameNo uint64
	closed  bool
}

// NewHost creates a host producing frames of the given size.
func NewHost(settings Settings, size image.Point, opts ...HostOption) (*Host, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.X, size.Y)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}
	provider := o.provider
	if provider == nil {
		provider = resource.NewMemoryProvider()
	}

	h := &Host{
		settings: settings,
		size:     size,
		viewport: gfx.R(0, 0, float64(size.X), float64(size.Y)),
	}
	h.log.Store(log)

	h.pool = resource.NewPool(provider,
		resource.WithMemoryLimit(settings.MemoryLimitBytes),
		resource.WithMaxResources(settings.MaxResourceCount),
		resource.WithLogger(log))

	h.scheduler = o.scheduler
	if h.scheduler == nil {
		h.ownedSched = raster.NewWorkerScheduler(
			raster.WithWorkers(settings.RasterWorkers),
			raster.WithLogger(log))
		h.scheduler = h.ownedSched
	}

	h.tiles = tile.NewManager(h.pool, h.scheduler,
		tile.WithMaxPendingTasks(settings.MaxPendingRasterTasks),
		tile.WithLogger(log))

	var surface overlay.OutputSurface
	if settings.EnableOverlays {
		surface = o.surface
	}
	h.overlays = overlay.NewProcessor(surface, h.pool, overlay.WithLogger(log))

	registerHost(h)
	log.Info("compositor: host created",
		"size", size, "overlays", h.overlays.Enabled(), "workers", settings.RasterWorkers)
	return h, nil
}

// SetLogger replaces the logger of the host and its components. Nil
// restores silence. It is safe to call from any goroutine.
func (h *Host) SetLogger(l *slog.Logger) {
	l = logging.OrNop(l)
	h.log.Store(l)
	propagateLogger(h.pool, l)
	propagateLogger(h.scheduler, l)
	propagateLogger(h.tiles, l)
	propagateLogger(h.overlays, l)
}

// Settings returns the host settings.
func (h *Host) Settings() Settings { return h.settings }

// Size returns the output size.
func (h *Host) Size() image.Point { return h.size }

// Pool returns the resource pool.
func (h *Host) Pool() *resource.Pool { return h.pool }

// TileManager returns the tile manager.
func (h *Host) TileManager() *tile.Manager { return h.tiles }

// OverlayProcessor returns the overlay processor.
func (h *Host) OverlayProcessor() *overlay.Processor { return h.overlays }

// Layers returns the layers, front to back.
func (h *Host) Layers() []layer.Layer { return slices.Clone(h.layers) }

// SetViewport sets the visible area in target space. It starts as the
// whole output.
func (h *Host) SetViewport(r gfx.Rect) { h.viewport = r }

// Viewport returns the visible area.
func (h *Host) Viewport() gfx.Rect { return h.viewport }

// AddLayer adds l behind every existing layer.
func (h *Host) AddLayer(l layer.Layer) {
	h.layers = append(h.layers, l)
}

// AddTiledLayer creates a tiled layer over src, configured from the host
// settings plus opts, and adds it behind every existing layer.
func (h *Host) AddTiledLayer(src raster.Source, opts ...layer.Option) *layer.TiledLayer {
	h.nextID++
	all := append(h.settings.layerOptions(), opts...)
	l := layer.NewTiledLayer(h.nextID, src, h.tiles, all...)
	h.AddLayer(l)
	return l
}

// AddTextureLayer creates a layer drawing res, which the layer then owns,
// and adds it behind every existing layer.
func (h *Host) AddTextureLayer(res *resource.Resource, transform gfx.Matrix, opaque bool) *layer.TextureLayer {
	h.nextID++
	l := layer.NewTextureLayer(h.nextID, h.pool, res, transform, opaque)
	h.AddLayer(l)
	return l
}

// RemoveLayer releases and removes the layer with the given ID.
func (h *Host) RemoveLayer(id int) bool {
	i := slices.IndexFunc(h.layers, func(l layer.Layer) bool { return l.ID() == id })
	if i < 0 {
		return false
	}
	h.layers[i].Release()
	h.layers = slices.Delete(h.layers, i, i+1)
	return true
}

// ReconfigureSurface re-reads the output surface's overlay support, as
// after a display mode change.
func (h *Host) ReconfigureSurface() {
	h.overlays.Initialize()
}

// DrawFrame produces the next frame. It applies finished raster work,
// ranks tiles, schedules raster work, builds the root render pass and runs
// overlay selection. It never waits for raster work.
func (h *Host) DrawFrame(ctx context.Context) (*Frame, error) {
	if h.closed {
		return nil, ErrHostClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.frameNo++
	f := &Frame{Number: h.frameNo}

	f.Stats.Applied = h.tiles.CheckForCompletedTasks()
	for _, l := range h.layers {
		l.UpdatePriorities(h.viewport)
	}
	f.Stats.Prepare = h.tiles.PrepareTiles()
	if h.settings.MaxUnusedBytes > 0 {
		h.pool.ReduceUnused(h.settings.MaxUnusedBytes)
	}

	root := quad.NewRenderPass(rootPassID, image.Rect(0, 0, h.size.X, h.size.Y))
	for _, l := range h.layers {
		l.AppendQuads(root)
	}
	f.Passes = quad.RenderPassList{root}

	if s := h.overlays.ProcessForOverlays(&f.Passes, &f.Overlays); s != nil {
		f.Strategy = s.Name()
	}

	f.Stats.Tiles = h.tiles.Stats()
	f.Stats.Pool = h.pool.Stats()

	h.log.Load().Debug("compositor: frame",
		"frame", f.Number,
		"quads", f.Passes.QuadCount(),
		"overlays", len(f.Overlays),
		"strategy", f.Strategy,
		"ready", f.Stats.Tiles.ReadyToDraw,
		"scheduled", f.Stats.Prepare.Scheduled)
	return f, nil
}

// WaitForRaster blocks until raster results are ready to apply or ctx is
// done. It is meant for tools and tests that step frames; a display loop
// never calls it.
func (h *Host) WaitForRaster(ctx context.Context) error {
	select {
	case <-h.tiles.Completions():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settle draws frames until every tile needed for the viewport is ready or
// ctx is done, and returns the last frame.
func (h *Host) Settle(ctx context.Context) (*Frame, error) {
	for {
		f, err := h.DrawFrame(ctx)
		if err != nil {
			return nil, err
		}
		if f.Stats.Tiles.PendingTasks == 0 && f.Stats.Prepare.Scheduled == 0 {
			return f, nil
		}
		if err := h.WaitForRaster(ctx); err != nil {
			return nil, err
		}
	}
}

// Close releases every layer and stops raster work. In-flight results are
// discarded and their resources returned to the pool, including results a
// caller-supplied scheduler delivers after Close returns.
func (h *Host) Close() {
	if h.closed {
		return
	}
	h.closed = true
	unregisterHost(h)

	for _, l := range h.layers {
		l.Release()
	}
	h.layers = nil

	if h.ownedSched != nil {
		h.ownedSched.Close()
	}
	h.tiles.Shutdown()
	h.log.Load().Info("compositor: host closed", "frames", h.frameNo)
}
