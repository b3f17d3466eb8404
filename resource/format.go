// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"image"

	"github.com/gogpu/gputypes"
)

// ChannelOrder is the in-memory order of the color channels of a format.
type ChannelOrder uint8

const (
	// OrderUnknown is returned for formats without a defined 4-channel order.
	OrderUnknown ChannelOrder = iota

	// OrderRGBA stores red in the lowest byte.
	OrderRGBA

	// OrderBGRA stores blue in the lowest byte.
	OrderBGRA
)

// String returns the order name.
func (o ChannelOrder) String() string {
	switch o {
	case OrderRGBA:
		return "RGBA"
	case OrderBGRA:
		return "BGRA"
	default:
		return "unknown"
	}
}

// OrderOf returns the channel order of a texture format.
func OrderOf(format gputypes.TextureFormat) ChannelOrder {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return OrderRGBA
	case gputypes.TextureFormatBGRA8Unorm:
		return OrderBGRA
	default:
		return OrderUnknown
	}
}

// SameComponentOrder reports whether a resource in format can be sampled on
// a platform whose native format is native without swizzling.
func SameComponentOrder(format, native gputypes.TextureFormat) bool {
	return OrderOf(format) == OrderOf(native)
}

// BytesPerPixel returns the storage size of one pixel in the format.
// Formats this package cannot back report 0.
func BytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	default:
		return 0
	}
}

// SwapRedBlue exchanges the red and blue channels of img in place,
// converting between RGBA and BGRA storage.
func SwapRedBlue(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		row := img.Pix[off : off+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+2] = row[i+2], row[i]
		}
	}
}
