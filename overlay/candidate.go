// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"image"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/resource"
)

// Candidate describes content the display controller can scan out as its
// own plane.
type Candidate struct {
	// DisplayRect is the plane position in target space.
	DisplayRect gfx.Rect

	// UVRect is the sampled region in normalized resource coordinates.
	UVRect gfx.Rect

	Transform Transform
	Format    gputypes.TextureFormat

	Resource     resource.ID
	ResourceSize image.Point

	// PlaneZOrder places the plane relative to the primary plane, which is
	// zero. Positive is above, negative is beneath.
	PlaneZOrder int

	IsOpaque bool
}

// CandidateList is the set of planes chosen for one frame. It is appended
// to during overlay processing and discarded after the frame is presented.
type CandidateList []Candidate

// Clone returns an independent copy.
func (l CandidateList) Clone() CandidateList {
	return slices.Clone(l)
}
