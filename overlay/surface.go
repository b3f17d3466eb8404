// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"github.com/gogpu/gpucontext"
)

// OutputSurface is the presentation target of a frame.
type OutputSurface interface {
	// OverlayCandidateValidator returns the validator for the current
	// configuration, or nil when the surface has no overlay support.
	OverlayCandidateValidator() Validator
}

// DeviceSurface is an OutputSurface presenting through a host device.
//
// The surface RECEIVES the device from the host application. It reports no
// overlay support when the host has no device or no capabilities are
// configured.
type DeviceSurface struct {
	provider gpucontext.DeviceProvider
	caps     *Capabilities
}

// NewDeviceSurface creates a surface. caps may be nil.
func NewDeviceSurface(provider gpucontext.DeviceProvider, caps *Capabilities) *DeviceSurface {
	return &DeviceSurface{provider: provider, caps: caps}
}

// DeviceProvider returns the host device.
func (s *DeviceSurface) DeviceProvider() gpucontext.DeviceProvider {
	return s.provider
}

// Reconfigure replaces the overlay capabilities, as after a display mode
// change. Processors must be re-initialized to see the change.
func (s *DeviceSurface) Reconfigure(caps *Capabilities) {
	s.caps = caps
}

// OverlayCandidateValidator implements OutputSurface.
func (s *DeviceSurface) OverlayCandidateValidator() Validator {
	if s.caps == nil || s.provider == nil || s.provider.Device() == nil {
		return nil
	}
	return s.caps
}

var _ OutputSurface = (*DeviceSurface)(nil)
