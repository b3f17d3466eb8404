// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/quad"
)

// Underlay places an eligible quad of the root pass on a plane beneath the
// primary plane. The quad is replaced by a transparent hole punch, so
// content in front of it still composites correctly over the plane. Quads
// fully covered by occluding content in front are not promoted.
type Underlay struct {
	validator Validator
	resources ResourceLookup
}

// NewUnderlay creates the strategy. It borrows validator and resources.
func NewUnderlay(validator Validator, resources ResourceLookup) *Underlay {
	return &Underlay{validator: validator, resources: resources}
}

// Name implements Strategy.
func (u *Underlay) Name() string { return "underlay" }

// Attempt implements Strategy.
func (u *Underlay) Attempt(passes *quad.RenderPassList, candidates *CandidateList) bool {
	root := passes.Root()
	if root == nil {
		return false
	}

	for i, q := range root.Quads {
		c, ok := candidateFromQuad(q, u.resources)
		if !ok {
			continue
		}
		// Hidden content would only waste a plane.
		if hiddenBehind(root.Quads[:i], c.DisplayRect) {
			continue
		}
		c.PlaneZOrder = -1

		scratch := withCandidate(*candidates, c)
		if !validateCandidates(u.validator, scratch) {
			continue
		}

		root.Quads[i] = holePunch(q)
		root.TransparentBackground = true
		*candidates = scratch
		return true
	}
	return false
}

// holePunch returns a quad clearing the area covered by q.
func holePunch(q quad.Quad) *quad.SolidColorQuad {
	d := *q.Common()
	d.Opaque = false
	d.Shared.BlendMode = quad.BlendSource
	return &quad.SolidColorQuad{
		DrawQuad:  d,
		Color:     gfx.Transparent,
		HolePunch: true,
	}
}

var _ Strategy = (*Underlay)(nil)
