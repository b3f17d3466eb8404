// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
	"golang.org/x/sync/semaphore"

	"github.com/gogpu/compositor/internal/logging"
)

// Option configures a Pool during creation.
type Option func(*poolOptions)

type poolOptions struct {
	memoryLimit int64
	maxCount    int
	logger      *slog.Logger
}

func defaultPoolOptions() poolOptions {
	return poolOptions{
		memoryLimit: 0,
		maxCount:    0,
		logger:      nil,
	}
}

// WithMemoryLimit caps the bytes held by the pool, in use and free together.
// Zero or negative means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *poolOptions) {
		o.memoryLimit = bytes
	}
}

// WithMaxResources caps the number of resources held by the pool.
// Zero or negative means unlimited.
func WithMaxResources(n int) Option {
	return func(o *poolOptions) {
		o.maxCount = n
	}
}

// WithLogger sets the logger used for eviction and budget diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *poolOptions) {
		o.logger = l
	}
}

// poolKey groups interchangeable free resources.
type poolKey struct {
	size   image.Point
	format gputypes.TextureFormat
}

// Stats is a snapshot of pool occupancy.
type Stats struct {
	InUseCount int
	InUseBytes int64
	FreeCount  int
	FreeBytes  int64
	LimitBytes int64
}

// Pool hands out resources within a memory budget and reuses recycled ones.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	provider Provider
	budget   *semaphore.Weighted
	limit    int64
	maxCount int
	log      *slog.Logger

	nextID ID
	tick   int64

	inUse      map[ID]*Resource
	inUseBytes int64

	free      map[poolKey][]*Resource
	freeCount int
	freeBytes int64
}

// NewPool creates a pool backed by provider.
func NewPool(provider Provider, opts ...Option) *Pool {
	o := defaultPoolOptions()
	for _, opt := range opts {
		opt(&o)
	}

	limit := o.memoryLimit
	if limit <= 0 {
		limit = math.MaxInt64
	}

	return &Pool{
		provider: provider,
		budget:   semaphore.NewWeighted(limit),
		limit:    limit,
		maxCount: o.maxCount,
		log:      logging.OrNop(o.logger),
		inUse:    make(map[ID]*Resource),
		free:     make(map[poolKey][]*Resource),
	}
}

// SetLogger replaces the pool logger. Nil restores silence.
func (p *Pool) SetLogger(l *slog.Logger) {
	p.mu.Lock()
	p.log = logging.OrNop(l)
	p.mu.Unlock()
}

// Provider returns the provider backing the pool.
func (p *Pool) Provider() Provider {
	return p.provider
}

// Allocate returns a resource of the given size and format. A recycled
// resource with matching key is preferred; otherwise a new backing is
// created, evicting unused resources oldest first to stay within budget.
// Allocate never blocks waiting for memory.
func (p *Pool) Allocate(size image.Point, format gputypes.TextureFormat) (*Resource, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.X, size.Y)
	}
	bpp := BytesPerPixel(format)
	if bpp == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := poolKey{size: size, format: format}
	if list := p.free[key]; len(list) > 0 {
		r := list[len(list)-1]
		p.free[key] = list[:len(list)-1]
		p.freeCount--
		p.freeBytes -= r.Bytes()
		p.inUse[r.id] = r
		p.inUseBytes += r.Bytes()
		return r, nil
	}

	if p.maxCount > 0 {
		for len(p.inUse)+p.freeCount >= p.maxCount {
			if !p.evictOldestLocked() {
				return nil, fmt.Errorf("%w: %d resources in use", ErrBudgetExceeded, len(p.inUse))
			}
		}
	}

	bytes := int64(size.X) * int64(size.Y) * int64(bpp)
	for !p.budget.TryAcquire(bytes) {
		if !p.evictOldestLocked() {
			p.log.Warn("resource: budget exhausted",
				"request", bytes, "inUse", p.inUseBytes, "limit", p.limit)
			return nil, fmt.Errorf("%w: need %d bytes, %d in use", ErrBudgetExceeded, bytes, p.inUseBytes)
		}
	}

	pix, err := p.provider.NewBacking(size, format)
	if err != nil {
		p.budget.Release(bytes)
		return nil, fmt.Errorf("resource: create backing: %w", err)
	}

	p.nextID++
	native := p.provider.NativeFormat()
	r := &Resource{
		id:             p.nextID,
		size:           size,
		format:         format,
		swizzled:       !SameComponentOrder(format, native),
		overlayCapable: p.provider.CanScanout(format),
		pixels:         pix,
	}
	p.inUse[r.id] = r
	p.inUseBytes += bytes
	return r, nil
}

// Recycle returns a resource to the pool. Its pixels are cleared and it
// becomes available to later allocations of the same size and format.
//
// Recycling a resource that is not currently allocated from this pool is a
// programming error and panics.
func (p *Pool) Recycle(r *Resource) {
	if r == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.inUse[r.id]; !ok || cur != r {
		panic(fmt.Sprintf("resource: recycle of resource %d that is not in use", r.id))
	}
	delete(p.inUse, r.id)
	p.inUseBytes -= r.Bytes()

	if r.pixels != nil {
		clear(r.pixels.Pix)
	}
	p.tick++
	r.lastUsed = p.tick

	key := poolKey{size: r.size, format: r.format}
	p.free[key] = append(p.free[key], r)
	p.freeCount++
	p.freeBytes += r.Bytes()
}

// Lookup returns the in-use resource with the given ID.
func (p *Pool) Lookup(id ID) (*Resource, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.inUse[id]
	return r, ok
}

// ReduceUnused releases free resources, oldest first, until at most
// maxFreeBytes remain on the free lists.
func (p *Pool) ReduceUnused(maxFreeBytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.freeBytes > maxFreeBytes {
		if !p.evictOldestLocked() {
			return
		}
	}
}

// Stats returns a snapshot of pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	limit := p.limit
	if limit == math.MaxInt64 {
		limit = 0
	}
	return Stats{
		InUseCount: len(p.inUse),
		InUseBytes: p.inUseBytes,
		FreeCount:  p.freeCount,
		FreeBytes:  p.freeBytes,
		LimitBytes: limit,
	}
}

// evictOldestLocked releases the least recently recycled free resource.
// Returns false when the free lists are empty.
func (p *Pool) evictOldestLocked() bool {
	var (
		victimKey poolKey
		victimIdx = -1
		oldest    int64
	)
	for key, list := range p.free {
		// Lists are appended in recycle order, so the head is the oldest.
		if len(list) == 0 {
			continue
		}
		if victimIdx < 0 || list[0].lastUsed < oldest {
			victimKey = key
			victimIdx = 0
			oldest = list[0].lastUsed
		}
	}
	if victimIdx < 0 {
		return false
	}

	list := p.free[victimKey]
	r := list[0]
	if len(list) == 1 {
		delete(p.free, victimKey)
	} else {
		p.free[victimKey] = list[1:]
	}
	p.freeCount--
	p.freeBytes -= r.Bytes()

	p.provider.ReleaseBacking(r.pixels)
	r.pixels = nil
	p.budget.Release(r.Bytes())

	p.log.Debug("resource: evicted unused", "id", r.id, "bytes", r.Bytes())
	return true
}
