// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/compositor/internal/logging"
	"github.com/gogpu/compositor/quad"
)

// Option configures a Processor during creation.
type Option func(*Processor)

// WithLogger sets the processor logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		p.log.Store(logging.OrNop(l))
	}
}

// Processor runs the overlay strategy chain for each frame.
//
// Strategies are tried in a fixed order, SingleOnTop then Underlay, and the
// first success ends the chain. A processor whose surface has no validator,
// or that has no resource lookup, holds no strategies and never changes a
// frame.
//
// Thread safety: a Processor is used from the frame goroutine only, except
// for SetLogger.
type Processor struct {
	surface   OutputSurface
	resources ResourceLookup
	log       atomic.Pointer[slog.Logger]

	validator  Validator
	strategies []Strategy
}

// NewProcessor creates a processor for surface, resolving quad resources
// through resources, and initializes it. Either argument may be nil, which
// disables overlays.
func NewProcessor(surface OutputSurface, resources ResourceLookup, opts ...Option) *Processor {
	p := &Processor{
		surface:   surface,
		resources: resources,
	}
	p.log.Store(logging.Nop())
	for _, opt := range opts {
		opt(p)
	}
	p.Initialize()
	return p
}

// SetLogger replaces the processor logger. Nil restores silence.
func (p *Processor) SetLogger(l *slog.Logger) {
	p.log.Store(logging.OrNop(l))
}

// Initialize queries the surface for its validator and rebuilds the
// strategy chain. Call it again after the surface configuration changes.
func (p *Processor) Initialize() {
	p.validator = nil
	p.strategies = nil

	if p.surface == nil || p.resources == nil {
		p.log.Load().Info("overlay: disabled, no surface or resource provider")
		return
	}
	v := p.surface.OverlayCandidateValidator()
	if v == nil {
		p.log.Load().Info("overlay: disabled, surface has no overlay support")
		return
	}

	p.validator = v
	p.strategies = []Strategy{
		NewSingleOnTop(v, p.resources),
		NewUnderlay(v, p.resources),
	}
	p.log.Load().Info("overlay: initialized", "strategies", len(p.strategies), "planes", v.MaxPlanes())
}

// Enabled reports whether any strategy is configured.
func (p *Processor) Enabled() bool {
	return len(p.strategies) > 0
}

// Validator returns the validator from the last Initialize, or nil.
func (p *Processor) Validator() Validator {
	return p.validator
}

// Strategies returns the strategy chain in the order it is tried.
func (p *Processor) Strategies() []Strategy {
	out := make([]Strategy, len(p.strategies))
	copy(out, p.strategies)
	return out
}

// ProcessForOverlays runs the strategy chain on passes and returns the
// strategy that succeeded, or nil when the frame is left to normal
// composition. The passes must not be modified concurrently.
func (p *Processor) ProcessForOverlays(passes *quad.RenderPassList, candidates *CandidateList) Strategy {
	for _, s := range p.strategies {
		if s.Attempt(passes, candidates) {
			p.log.Load().Debug("overlay: strategy succeeded", "strategy", s.Name(), "candidates", len(*candidates))
			return s
		}
	}
	return nil
}
