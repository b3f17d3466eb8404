// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package output

import (
	"cmp"
	"image"
	"slices"

	"golang.org/x/image/draw"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/overlay"
)

// Present stacks the composited primary plane with the frame's overlay
// planes the way a display controller scans them out: planes with negative
// z-order beneath, the primary plane at zero, positive z-order on top.
// Candidates whose resource is not found are skipped.
func Present(primary *image.RGBA, candidates overlay.CandidateList, resources ResourceLookup) *image.RGBA {
	out := image.NewRGBA(primary.Bounds())

	planes := slices.Clone(candidates)
	slices.SortStableFunc(planes, func(a, b overlay.Candidate) int {
		return cmp.Compare(a.PlaneZOrder, b.PlaneZOrder)
	})

	primaryDrawn := false
	for _, c := range planes {
		if c.PlaneZOrder >= 0 && !primaryDrawn {
			draw.Draw(out, out.Bounds(), primary, primary.Bounds().Min, draw.Over)
			primaryDrawn = true
		}
		scanoutPlane(out, c, resources)
	}
	if !primaryDrawn {
		draw.Draw(out, out.Bounds(), primary, primary.Bounds().Min, draw.Over)
	}
	return out
}

func scanoutPlane(dst *image.RGBA, c overlay.Candidate, resources ResourceLookup) {
	res, ok := resources.Lookup(c.Resource)
	if !ok || res.Pixels() == nil {
		return
	}
	size := res.Size()
	tex := gfx.R(c.UVRect.X*float64(size.X), c.UVRect.Y*float64(size.Y),
		c.UVRect.W*float64(size.X), c.UVRect.H*float64(size.Y))
	if tex.IsEmpty() || c.DisplayRect.IsEmpty() {
		return
	}

	// texture pixels -> unit square -> oriented unit square -> display rect
	texToUnit := gfx.Scale(1/tex.W, 1/tex.H).Multiply(gfx.Translate(-tex.X, -tex.Y))
	unitToDisplay := gfx.Translate(c.DisplayRect.X, c.DisplayRect.Y).
		Multiply(gfx.Scale(c.DisplayRect.W, c.DisplayRect.H))
	s2d := unitToDisplay.Multiply(orientation(c.Transform)).Multiply(texToUnit)

	op := draw.Over
	if c.IsOpaque {
		op = draw.Src
	}
	draw.ApproxBiLinear.Transform(dst, s2d.Aff3(), res.RGBAPixels(), tex.EnclosingImage(), op, nil)
}

// orientation maps the unit square onto itself for t.
func orientation(t overlay.Transform) gfx.Matrix {
	switch t {
	case overlay.TransformFlipHorizontal:
		return gfx.Matrix{A: -1, C: 1, E: 1}
	case overlay.TransformFlipVertical:
		return gfx.Matrix{A: 1, E: -1, F: 1}
	case overlay.TransformRotate180:
		return gfx.Matrix{A: -1, C: 1, E: -1, F: 1}
	case overlay.TransformRotate90:
		return gfx.Matrix{B: -1, C: 1, D: 1}
	case overlay.TransformRotate270:
		return gfx.Matrix{B: 1, D: -1, F: 1}
	default:
		return gfx.Identity()
	}
}
