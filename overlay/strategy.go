// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/quad"
	"github.com/gogpu/compositor/resource"
)

// Strategy tries to move part of a frame onto overlay planes.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Attempt rewrites passes and appends to candidates, returning true, or
	// returns false and leaves both untouched.
	Attempt(passes *quad.RenderPassList, candidates *CandidateList) bool
}

// ResourceLookup resolves resource IDs referenced by quads.
// *resource.Pool implements it.
type ResourceLookup interface {
	Lookup(id resource.ID) (*resource.Resource, bool)
}

// candidateFromQuad builds a candidate for q if its content could be
// scanned out unchanged: an opaque texture or tile with full opacity, no
// blending, an axis-aligned transform, no clipping of its visible area and
// an overlay-capable resource. Platform limits are not checked here.
func candidateFromQuad(q quad.Quad, resources ResourceLookup) (Candidate, bool) {
	var (
		id resource.ID
		uv gfx.Rect
	)
	switch q := q.(type) {
	case *quad.TextureQuad:
		id = q.Resource
		uv = q.UVRect
	case *quad.TileQuad:
		if q.Swizzle || q.TextureSize.X <= 0 || q.TextureSize.Y <= 0 {
			return Candidate{}, false
		}
		id = q.Resource
		sx, sy := float64(q.TextureSize.X), float64(q.TextureSize.Y)
		uv = gfx.R(q.TexCoordRect.X/sx, q.TexCoordRect.Y/sy, q.TexCoordRect.W/sx, q.TexCoordRect.H/sy)
	default:
		return Candidate{}, false
	}

	d := q.Common()
	if !d.Opaque || d.Shared.Opacity < 1 || d.Shared.BlendMode != quad.BlendSourceOver {
		return Candidate{}, false
	}
	xf := TransformFromMatrix(d.Shared.Transform)
	if xf == TransformInvalid {
		return Candidate{}, false
	}
	if uv.IsEmpty() || !gfx.R(0, 0, 1, 1).Contains(uv) {
		return Candidate{}, false
	}

	display := d.Shared.Transform.MapRect(d.Rect)
	if d.Shared.IsClipped && !d.Shared.Clip.Contains(display) {
		return Candidate{}, false
	}

	res, ok := resources.Lookup(id)
	if !ok || !res.OverlayCapable() {
		return Candidate{}, false
	}

	return Candidate{
		DisplayRect:  display,
		UVRect:       uv,
		Transform:    xf,
		Format:       res.Format(),
		Resource:     id,
		ResourceSize: res.Size(),
		IsOpaque:     true,
	}, true
}

// isInvisible reports whether q draws nothing.
func isInvisible(q quad.Quad) bool {
	d := q.Common()
	if d.Shared.Opacity <= 0 {
		return true
	}
	s, ok := q.(*quad.SolidColorQuad)
	return ok && !s.HolePunch && s.Color.IsTransparent() && d.Shared.BlendMode == quad.BlendSourceOver
}

// occludedFrom reports whether any visible quad in front intersects rect.
func occludedFrom(front []quad.Quad, rect gfx.Rect) bool {
	for _, q := range front {
		if isInvisible(q) {
			continue
		}
		if q.Common().TargetRect().Intersects(rect) {
			return true
		}
	}
	return false
}

// hiddenBehind reports whether a quad in front fully covers rect with
// content that hides everything behind it.
func hiddenBehind(front []quad.Quad, rect gfx.Rect) bool {
	for _, q := range front {
		d := q.Common()
		if d.Occludes() && d.TargetRect().Contains(rect) {
			return true
		}
	}
	return false
}

// withCandidate returns a new list holding candidates plus c, leaving the
// original untouched.
func withCandidate(candidates CandidateList, c Candidate) CandidateList {
	scratch := make(CandidateList, 0, len(candidates)+1)
	scratch = append(scratch, candidates...)
	return append(scratch, c)
}
