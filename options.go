// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"log/slog"

	"github.com/gogpu/compositor/overlay"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/resource"
)

// HostOption configures a Host during creation.
//
// Example:
//
//	// Headless host with CPU memory and no overlays
//	host, err := compositor.NewHost(settings, image.Pt(800, 600))
//
//	// Host presenting through an application-owned device
//	host, err := compositor.NewHost(settings, size,
//	    compositor.WithProvider(resource.NewDeviceProvider(app, gputypes.TextureFormatBGRA8Unorm)),
//	    compositor.WithSurface(overlay.NewDeviceSurface(app, overlay.DefaultCapabilities(app, display))))
type HostOption func(*hostOptions)

// hostOptions holds optional configuration for Host creation.
type hostOptions struct {
	provider  resource.Provider
	surface   overlay.OutputSurface
	scheduler raster.Scheduler
	logger    *slog.Logger
}

// defaultOptions returns the default host options.
func defaultOptions() hostOptions {
	return hostOptions{
		provider:  nil, // MemoryProvider when nil
		surface:   nil, // no overlay support when nil
		scheduler: nil, // WorkerScheduler when nil
		logger:    nil, // package Logger() when nil
	}
}

// WithProvider sets where tile memory comes from. The default is a
// MemoryProvider.
func WithProvider(p resource.Provider) HostOption {
	return func(o *hostOptions) {
		o.provider = p
	}
}

// WithSurface sets the output surface queried for overlay support. Without
// one, overlays are never used.
func WithSurface(s overlay.OutputSurface) HostOption {
	return func(o *hostOptions) {
		o.surface = s
	}
}

// WithScheduler replaces the raster scheduler. The host does not close a
// scheduler it did not create; results it completes after Host.Close only
// have their resources recycled.
func WithScheduler(s raster.Scheduler) HostOption {
	return func(o *hostOptions) {
		o.scheduler = s
	}
}

// WithLogger sets the host logger instead of the package logger.
func WithLogger(l *slog.Logger) HostOption {
	return func(o *hostOptions) {
		o.logger = l
	}
}
