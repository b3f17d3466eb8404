// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package quad

import (
	"image"
	"slices"
)

// PassID identifies a render pass within a frame.
type PassID uint64

// RenderPass is a set of quads drawn into one output.
type RenderPass struct {
	ID PassID

	// OutputRect is the pass's target area.
	OutputRect image.Rectangle

	// Quads are ordered front to back.
	Quads []Quad

	// TransparentBackground reports the pass starts cleared to transparent
	// rather than opaque black.
	TransparentBackground bool
}

// NewRenderPass creates an empty pass.
func NewRenderPass(id PassID, output image.Rectangle) *RenderPass {
	return &RenderPass{ID: id, OutputRect: output}
}

// Append adds q behind every quad already in the pass.
func (p *RenderPass) Append(q Quad) {
	p.Quads = append(p.Quads, q)
}

// Clone returns a deep copy.
func (p *RenderPass) Clone() *RenderPass {
	c := *p
	if p.Quads != nil {
		c.Quads = make([]Quad, len(p.Quads))
		for i, q := range p.Quads {
			c.Quads[i] = q.Clone()
		}
	}
	return &c
}

// RenderPassList is a frame's passes, root pass last.
type RenderPassList []*RenderPass

// Root returns the pass that produces the frame, or nil for an empty list.
func (l RenderPassList) Root() *RenderPass {
	if len(l) == 0 {
		return nil
	}
	return l[len(l)-1]
}

// Find returns the pass with the given ID.
func (l RenderPassList) Find(id PassID) (*RenderPass, bool) {
	i := slices.IndexFunc(l, func(p *RenderPass) bool { return p.ID == id })
	if i < 0 {
		return nil, false
	}
	return l[i], true
}

// QuadCount returns the number of quads across all passes.
func (l RenderPassList) QuadCount() int {
	n := 0
	for _, p := range l {
		n += len(p.Quads)
	}
	return n
}

// Clone returns a deep copy.
func (l RenderPassList) Clone() RenderPassList {
	if l == nil {
		return nil
	}
	c := make(RenderPassList, len(l))
	for i, p := range l {
		c[i] = p.Clone()
	}
	return c
}
