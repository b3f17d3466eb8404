// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package resource

import (
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Provider creates and destroys resource backings and answers format
// queries. The pool owns budgeting and reuse; a provider only knows how to
// make memory.
type Provider interface {
	// NativeFormat returns the platform's preferred texture format. Resources
	// in a format with a different channel order must be swizzled when drawn.
	NativeFormat() gputypes.TextureFormat

	// CanScanout reports whether resources in format can be promoted to a
	// hardware overlay plane.
	CanScanout(format gputypes.TextureFormat) bool

	// NewBacking allocates pixel storage for a resource.
	NewBacking(size image.Point, format gputypes.TextureFormat) (*image.RGBA, error)

	// ReleaseBacking frees storage created by NewBacking.
	ReleaseBacking(pix *image.RGBA)
}

// MemoryProvider backs resources with plain CPU memory.
// It is the provider used in tests and by headless hosts.
type MemoryProvider struct {
	// Native is the reported native format. Zero means RGBA8Unorm.
	Native gputypes.TextureFormat

	// ScanoutFormats lists the formats reported as overlay capable.
	ScanoutFormats []gputypes.TextureFormat
}

// NewMemoryProvider returns a provider with RGBA native order and no
// scanout-capable formats.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{Native: gputypes.TextureFormatRGBA8Unorm}
}

// NativeFormat implements Provider.
func (p *MemoryProvider) NativeFormat() gputypes.TextureFormat {
	if p.Native == gputypes.TextureFormatUndefined {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return p.Native
}

// CanScanout implements Provider.
func (p *MemoryProvider) CanScanout(format gputypes.TextureFormat) bool {
	return slices.Contains(p.ScanoutFormats, format)
}

// NewBacking implements Provider.
func (p *MemoryProvider) NewBacking(size image.Point, format gputypes.TextureFormat) (*image.RGBA, error) {
	return newStaging(size, format)
}

// ReleaseBacking implements Provider. Memory is reclaimed by the GC.
func (p *MemoryProvider) ReleaseBacking(*image.RGBA) {}

// DeviceProvider backs resources for a host-supplied GPU device.
//
// The compositor RECEIVES the device from the host application, it does not
// create one. The device's surface format is the native channel order.
type DeviceProvider struct {
	device         gpucontext.DeviceProvider
	scanoutFormats []gputypes.TextureFormat
}

// NewDeviceProvider wraps a host device. scanout lists the formats the
// display controller can read directly.
func NewDeviceProvider(device gpucontext.DeviceProvider, scanout ...gputypes.TextureFormat) *DeviceProvider {
	return &DeviceProvider{
		device:         device,
		scanoutFormats: scanout,
	}
}

// Device returns the wrapped host device.
func (p *DeviceProvider) Device() gpucontext.DeviceProvider {
	return p.device
}

// NativeFormat implements Provider using the surface format of the device.
// A device without a surface falls back to RGBA8Unorm.
func (p *DeviceProvider) NativeFormat() gputypes.TextureFormat {
	if p.device == nil {
		return gputypes.TextureFormatRGBA8Unorm
	}
	f := p.device.SurfaceFormat()
	if f == gputypes.TextureFormatUndefined {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return f
}

// CanScanout implements Provider.
func (p *DeviceProvider) CanScanout(format gputypes.TextureFormat) bool {
	if p.device == nil || p.device.Device() == nil {
		return false
	}
	return slices.Contains(p.scanoutFormats, format)
}

// NewBacking implements Provider. The staging image is uploaded by the host
// when the resource is first drawn.
func (p *DeviceProvider) NewBacking(size image.Point, format gputypes.TextureFormat) (*image.RGBA, error) {
	return newStaging(size, format)
}

// ReleaseBacking implements Provider.
func (p *DeviceProvider) ReleaseBacking(*image.RGBA) {}

func newStaging(size image.Point, format gputypes.TextureFormat) (*image.RGBA, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.X, size.Y)
	}
	if BytesPerPixel(format) != 4 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	return image.NewRGBA(image.Rect(0, 0, size.X, size.Y)), nil
}

var (
	_ Provider = (*MemoryProvider)(nil)
	_ Provider = (*DeviceProvider)(nil)
)
