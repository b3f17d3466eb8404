// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"image"

	"github.com/gogpu/gputypes"
)

// ID identifies a resource for the lifetime of its pool.
// The zero ID never refers to a resource.
type ID uint64

// InvalidID is the zero value, representing no resource.
const InvalidID ID = 0

// Resource is a texture-sized block of pixel memory.
//
// The pixel storage is a CPU-visible staging image laid out in Format's
// channel order; uploading it to device memory is the provider's concern.
type Resource struct {
	id             ID
	size           image.Point
	format         gputypes.TextureFormat
	swizzled       bool
	overlayCapable bool
	pixels         *image.RGBA

	// lastUsed is the pool tick at which the resource was recycled.
	lastUsed int64
}

// ID returns the resource identifier.
func (r *Resource) ID() ID { return r.id }

// Size returns the resource dimensions in pixels.
func (r *Resource) Size() image.Point { return r.size }

// Format returns the texture format of the resource.
func (r *Resource) Format() gputypes.TextureFormat { return r.format }

// Bytes returns the memory the resource accounts for in the pool budget.
func (r *Resource) Bytes() int64 {
	return int64(r.size.X) * int64(r.size.Y) * int64(BytesPerPixel(r.format))
}

// NeedsSwizzle reports whether the resource's channel order differs from the
// platform native order, so that sampling it requires a red/blue swap.
func (r *Resource) NeedsSwizzle() bool { return r.swizzled }

// OverlayCapable reports whether the display hardware can scan the resource
// out directly as an overlay plane.
func (r *Resource) OverlayCapable() bool { return r.overlayCapable }

// Pixels returns the staging image, laid out in the resource format's
// channel order. Raster tasks write into it. Returns nil for device-only
// resources.
func (r *Resource) Pixels() *image.RGBA { return r.pixels }

// RGBAPixels returns the staging image in RGBA order: the image itself for
// RGBA resources, a swapped copy for BGRA ones. Returns nil for device-only
// resources.
func (r *Resource) RGBAPixels() *image.RGBA {
	if r.pixels == nil || OrderOf(r.format) != OrderBGRA {
		return r.pixels
	}
	out := image.NewRGBA(r.pixels.Bounds())
	copy(out.Pix, r.pixels.Pix)
	SwapRedBlue(out)
	return out
}
