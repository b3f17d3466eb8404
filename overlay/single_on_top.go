// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"slices"

	"github.com/gogpu/compositor/quad"
)

// SingleOnTop lifts the front-most eligible quad of the root pass onto a
// plane above the primary plane. The quad is removed from the pass and the
// rest of the scene is drawn unmodified beneath it.
//
// A quad qualifies only if nothing visible in front of it overlaps it.
type SingleOnTop struct {
	validator Validator
	resources ResourceLookup
}

// NewSingleOnTop creates the strategy. It borrows validator and resources.
func NewSingleOnTop(validator Validator, resources ResourceLookup) *SingleOnTop {
	return &SingleOnTop{validator: validator, resources: resources}
}

// Name implements Strategy.
func (s *SingleOnTop) Name() string { return "single-on-top" }

// Attempt implements Strategy.
func (s *SingleOnTop) Attempt(passes *quad.RenderPassList, candidates *CandidateList) bool {
	root := passes.Root()
	if root == nil {
		return false
	}

	for i, q := range root.Quads {
		c, ok := candidateFromQuad(q, s.resources)
		if !ok || occludedFrom(root.Quads[:i], c.DisplayRect) {
			continue
		}
		c.PlaneZOrder = 1

		scratch := withCandidate(*candidates, c)
		if !validateCandidates(s.validator, scratch) {
			continue
		}

		root.Quads = slices.Delete(root.Quads, i, i+1)
		*candidates = scratch
		return true
	}
	return false
}

var _ Strategy = (*SingleOnTop)(nil)
