// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"image"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor/gfx"
)

// Validator answers whether the platform can scan out a plane.
//
// A validator describes one output surface configuration and is treated as
// read-only while a frame is processed.
type Validator interface {
	// Supports reports whether a plane at rect in target space with the
	// given format can be scanned out.
	Supports(rect gfx.Rect, format gputypes.TextureFormat) bool

	// MaxPlanes returns how many overlay planes may be used at once, not
	// counting the primary plane.
	MaxPlanes() int
}

// TransformValidator is implemented by validators that can scan out
// rotated or flipped planes. Validators without it support only
// TransformNone.
type TransformValidator interface {
	SupportsTransform(t Transform) bool
}

// Capabilities is a Validator built from a static description of the
// display controller.
type Capabilities struct {
	// Formats lists the scanout formats.
	Formats []gputypes.TextureFormat

	// Planes is the number of overlay planes.
	Planes int

	// MinSize and MaxSize bound the plane size in pixels. Zero components
	// are unbounded.
	MinSize image.Point
	MaxSize image.Point

	// DisplayBounds is the scanout area. Planes must lie inside it. An
	// empty rect means unbounded.
	DisplayBounds gfx.Rect

	// RequirePixelAlignment rejects planes with fractional edges.
	RequirePixelAlignment bool

	// Transforms lists supported orientations besides TransformNone.
	Transforms []Transform
}

// DefaultCapabilities describes a single overlay plane in the device's
// surface format covering display.
func DefaultCapabilities(dp gpucontext.DeviceProvider, display image.Rectangle) *Capabilities {
	format := gputypes.TextureFormatRGBA8Unorm
	if dp != nil {
		if f := dp.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			format = f
		}
	}
	return &Capabilities{
		Formats:               []gputypes.TextureFormat{format},
		Planes:                1,
		MinSize:               image.Pt(2, 2),
		DisplayBounds:         gfx.RectFromImage(display),
		RequirePixelAlignment: true,
	}
}

// Supports implements Validator.
func (c *Capabilities) Supports(rect gfx.Rect, format gputypes.TextureFormat) bool {
	if rect.IsEmpty() || !slices.Contains(c.Formats, format) {
		return false
	}
	if c.RequirePixelAlignment && !rect.IsPixelAligned() {
		return false
	}
	if c.MinSize.X > 0 && rect.W < float64(c.MinSize.X) || c.MinSize.Y > 0 && rect.H < float64(c.MinSize.Y) {
		return false
	}
	if c.MaxSize.X > 0 && rect.W > float64(c.MaxSize.X) || c.MaxSize.Y > 0 && rect.H > float64(c.MaxSize.Y) {
		return false
	}
	if !c.DisplayBounds.IsEmpty() && !c.DisplayBounds.Contains(rect) {
		return false
	}
	return true
}

// MaxPlanes implements Validator.
func (c *Capabilities) MaxPlanes() int {
	return c.Planes
}

// SupportsTransform implements TransformValidator.
func (c *Capabilities) SupportsTransform(t Transform) bool {
	return t == TransformNone || slices.Contains(c.Transforms, t)
}

// validateCandidates reports whether every candidate in list can be
// scanned out at the same time.
func validateCandidates(v Validator, list CandidateList) bool {
	if len(list) > v.MaxPlanes() {
		return false
	}
	tv, hasTransforms := v.(TransformValidator)
	for _, c := range list {
		if !v.Supports(c.DisplayRect, c.Format) {
			return false
		}
		if hasTransforms {
			if !tv.SupportsTransform(c.Transform) {
				return false
			}
		} else if c.Transform != TransformNone {
			return false
		}
	}
	return true
}

var (
	_ Validator          = (*Capabilities)(nil)
	_ TransformValidator = (*Capabilities)(nil)
)
