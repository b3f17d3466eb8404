// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tile

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor/internal/logging"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/resource"
)

// DefaultMaxPendingTasks bounds the raster tasks in flight at once.
const DefaultMaxPendingTasks = 64

// Option configures a Manager during creation.
type Option func(*managerOptions)

type managerOptions struct {
	format     gputypes.TextureFormat
	maxPending int
	logger     *slog.Logger
}

// WithRasterFormat sets the format of tile resources. The default is the
// pool provider's native format, so tiles never need swizzling.
func WithRasterFormat(f gputypes.TextureFormat) Option {
	return func(o *managerOptions) {
		o.format = f
	}
}

// WithMaxPendingTasks bounds the raster tasks in flight at once.
func WithMaxPendingTasks(n int) Option {
	return func(o *managerOptions) {
		o.maxPending = n
	}
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *managerOptions) {
		o.logger = l
	}
}

// PrepareStats summarizes one PrepareTiles pass.
type PrepareStats struct {
	// Scheduled is the number of raster tasks submitted.
	Scheduled int

	// SolidByAnalysis is the number of tiles resolved to a solid color
	// without rasterizing.
	SolidByAnalysis int

	// Evicted is the number of lower-priority resources taken back.
	Evicted int

	// OutOfMemory is the number of tiles that needed raster but got no
	// resource. They stay in DeferredRasterMode.
	OutOfMemory int

	// Throttled is the number of tiles skipped because too many tasks were
	// already in flight.
	Throttled int
}

// Stats is a snapshot of tile states.
type Stats struct {
	Tiles           int
	ResourceTiles   int
	SolidColorTiles int
	DeferredTiles   int
	ReadyToDraw     int
	PendingTasks    int
}

// Manager owns tiles, decides which of them get memory and raster work, and
// applies raster results.
//
// Thread safety: all methods except SetLogger must be called from the frame
// goroutine. Raster completion callbacks, which run on worker goroutines,
// only enqueue results.
type Manager struct {
	pool       *resource.Pool
	scheduler  raster.Scheduler
	format     gputypes.TextureFormat
	maxPending int
	log        atomic.Pointer[slog.Logger]

	nextID       ID
	tiles        map[ID]*Tile
	pendingTasks int

	completedMu sync.Mutex
	completed   []raster.Result
	shutdown    bool
	notify      chan struct{}
}

// NewManager creates a manager allocating from pool and rasterizing on
// scheduler.
func NewManager(pool *resource.Pool, scheduler raster.Scheduler, opts ...Option) *Manager {
	o := managerOptions{maxPending: DefaultMaxPendingTasks}
	for _, opt := range opts {
		opt(&o)
	}
	if o.format == gputypes.TextureFormatUndefined {
		o.format = pool.Provider().NativeFormat()
	}
	if o.maxPending <= 0 {
		o.maxPending = DefaultMaxPendingTasks
	}

	m := &Manager{
		pool:       pool,
		scheduler:  scheduler,
		format:     o.format,
		maxPending: o.maxPending,
		tiles:      make(map[ID]*Tile),
		notify:     make(chan struct{}, 1),
	}
	m.log.Store(logging.OrNop(o.logger))
	return m
}

// SetLogger replaces the manager logger. Nil restores silence.
func (m *Manager) SetLogger(l *slog.Logger) {
	m.log.Store(logging.OrNop(l))
}

// CreateTile registers a new tile in DeferredRasterMode. A nil source or an
// empty rect is a caller bug and panics.
func (m *Manager) CreateTile(spec Spec) *Tile {
	if spec.Source == nil {
		panic("tile: CreateTile with nil source")
	}
	if spec.Rect.Empty() {
		panic(fmt.Sprintf("tile: CreateTile with empty rect %v", spec.Rect))
	}
	if spec.ContentsScale <= 0 {
		spec.ContentsScale = 1
	}

	m.nextID++
	t := &Tile{
		id:                m.nextID,
		spec:              spec,
		priority:          LowestPriority,
		scheduledPriority: -1,
	}
	m.tiles[t.id] = t
	return t
}

// Tile returns the live tile with the given ID.
func (m *Manager) Tile(id ID) (*Tile, bool) {
	t, ok := m.tiles[id]
	return t, ok
}

// ReleaseTile destroys a tile. Its resource goes back to the pool. An
// in-flight raster task keeps running; its result is discarded when it
// arrives. Releasing a tile twice panics.
func (m *Manager) ReleaseTile(t *Tile) {
	if t.released {
		panic(fmt.Sprintf("tile: tile %d released twice", t.id))
	}
	if m.tiles[t.id] != t {
		panic(fmt.Sprintf("tile: tile %d does not belong to this manager", t.id))
	}
	t.released = true
	delete(m.tiles, t.id)

	m.pool.Recycle(t.managed.drawInfo.setRasterizeOnDemand())
	t.managed.rasterTask = nil
}

// EvictTile takes a tile's resource away and returns it to
// DeferredRasterMode. An in-flight raster for the tile is orphaned, since
// its content may be stale.
func (m *Manager) EvictTile(t *Tile) {
	dropped := t.managed.drawInfo.setRasterizeOnDemand()
	m.pool.Recycle(dropped)
	t.managed.rasterTask = nil
	if dropped != nil {
		m.log.Load().Debug("tile: evicted", "tile", t.id, "resource", dropped.ID())
	}
}

// PrepareTiles ranks all tiles by priority, assigns memory in that order and
// schedules raster work for tiles that have none. Lower-priority resources
// are evicted when the pool budget runs out.
func (m *Manager) PrepareTiles() PrepareStats {
	var stats PrepareStats
	if m.isShutdown() {
		return stats
	}

	tiles := m.rankedTiles()
	for rank, t := range tiles {
		t.scheduledPriority = rank
	}

	// evictCursor walks up from the least important tile; everything below
	// it has already been considered for eviction.
	evictCursor := len(tiles) - 1

	for i, t := range tiles {
		if !m.needsRaster(t) {
			continue
		}

		if a, ok := t.spec.Source.(raster.SolidColorAnalyzer); ok {
			if c, solid := a.SolidColorIn(t.spec.Rect, t.spec.ContentsScale); solid {
				t.managed.drawInfo.setSolidColor(c)
				stats.SolidByAnalysis++
				continue
			}
		}

		if m.pendingTasks >= m.maxPending {
			stats.Throttled++
			continue
		}

		res, err := m.pool.Allocate(t.spec.Rect.Size(), m.format)
		for errors.Is(err, resource.ErrBudgetExceeded) {
			victim := m.nextEvictionVictim(tiles, &evictCursor, i)
			if victim == nil {
				break
			}
			m.EvictTile(victim)
			stats.Evicted++
			res, err = m.pool.Allocate(t.spec.Rect.Size(), m.format)
		}
		if err != nil {
			stats.OutOfMemory++
			m.log.Load().Debug("tile: no memory, rasterize on demand",
				"tile", t.id, "priority", t.priority, "err", err)
			continue
		}

		task := raster.NewTask(raster.TaskSpec{
			TileKey:  uint64(t.id),
			Rect:     t.spec.Rect,
			Scale:    t.spec.ContentsScale,
			Priority: t.scheduledPriority,
			Source:   t.spec.Source,
		}, res)
		if err := m.scheduler.Submit(task, m.onRasterComplete); err != nil {
			m.pool.Recycle(res)
			m.log.Load().Warn("tile: raster submit failed", "tile", t.id, "err", err)
			break
		}
		t.managed.rasterTask = task
		m.pendingTasks++
		stats.Scheduled++
	}

	if stats.OutOfMemory > 0 {
		m.log.Load().Warn("tile: memory budget exhausted",
			"oom", stats.OutOfMemory, "evicted", stats.Evicted)
	}
	return stats
}

// CheckForCompletedTasks applies every raster result that has arrived since
// the last call and returns how many were applied to live tiles. Results
// for released tiles or superseded tasks are discarded and their resources
// recycled.
func (m *Manager) CheckForCompletedTasks() int {
	m.completedMu.Lock()
	results := m.completed
	m.completed = nil
	m.completedMu.Unlock()

	applied := 0
	for _, r := range results {
		m.pendingTasks--

		t, ok := m.tiles[ID(r.TileKey)]
		if !ok || t.managed.rasterTask != r.Task {
			m.pool.Recycle(r.Resource)
			m.log.Load().Debug("tile: discarded orphaned raster result", "tile", r.TileKey)
			continue
		}
		t.managed.rasterTask = nil

		switch {
		case r.Err != nil:
			m.pool.Recycle(r.Resource)
			m.log.Load().Warn("tile: raster failed", "tile", t.id, "err", r.Err)
		case r.IsSolidColor:
			m.pool.Recycle(r.Resource)
			t.managed.drawInfo.setSolidColor(r.SolidColor)
		default:
			t.managed.drawInfo.setUseResource(r.Resource)
		}
		applied++
	}
	return applied
}

// Shutdown stops the manager taking raster results. Queued results are
// applied or discarded as by CheckForCompletedTasks. Results that arrive
// afterwards are not queued; their resources go straight back to the pool
// on the worker goroutine. PrepareTiles schedules nothing after Shutdown.
func (m *Manager) Shutdown() {
	m.completedMu.Lock()
	m.shutdown = true
	m.completedMu.Unlock()
	m.CheckForCompletedTasks()
}

func (m *Manager) isShutdown() bool {
	m.completedMu.Lock()
	defer m.completedMu.Unlock()
	return m.shutdown
}

// Completions returns a channel that receives a value whenever raster
// results are waiting for CheckForCompletedTasks.
func (m *Manager) Completions() <-chan struct{} {
	return m.notify
}

// Stats returns a snapshot of tile states.
func (m *Manager) Stats() Stats {
	s := Stats{Tiles: len(m.tiles), PendingTasks: m.pendingTasks}
	for _, t := range m.tiles {
		di := &t.managed.drawInfo
		switch di.Mode() {
		case ResourceMode:
			s.ResourceTiles++
		case SolidColorMode:
			s.SolidColorTiles++
		default:
			s.DeferredTiles++
		}
		if di.IsReadyToDraw() {
			s.ReadyToDraw++
		}
	}
	return s
}

// onRasterComplete runs on a raster worker goroutine.
func (m *Manager) onRasterComplete(r raster.Result) {
	m.completedMu.Lock()
	if m.shutdown {
		m.completedMu.Unlock()
		m.pool.Recycle(r.Resource)
		return
	}
	m.completed = append(m.completed, r)
	m.completedMu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// needsRaster reports whether a tile wants a raster task now.
func (m *Manager) needsRaster(t *Tile) bool {
	if t.managed.drawInfo.Mode() != DeferredRasterMode || t.managed.rasterTask != nil {
		return false
	}
	return t.priority != LowestPriority
}

// rankedTiles returns live tiles, most important first. Ties keep creation
// order so ranking is deterministic.
func (m *Manager) rankedTiles() []*Tile {
	tiles := make([]*Tile, 0, len(m.tiles))
	for _, t := range m.tiles {
		tiles = append(tiles, t)
	}
	slices.SortFunc(tiles, func(a, b *Tile) int {
		switch {
		case a.priority.MoreImportantThan(b.priority):
			return -1
		case b.priority.MoreImportantThan(a.priority):
			return 1
		}
		return cmp.Compare(a.id, b.id)
	})
	return tiles
}

// nextEvictionVictim returns the least important tile ranked below
// requester that holds a resource, moving cursor past it.
func (m *Manager) nextEvictionVictim(tiles []*Tile, cursor *int, requester int) *Tile {
	for *cursor > requester {
		t := tiles[*cursor]
		*cursor--
		if t.managed.drawInfo.HasResource() {
			return t
		}
	}
	return nil
}
