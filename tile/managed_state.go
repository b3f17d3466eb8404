// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tile

import "github.com/gogpu/compositor/raster"

// ManagedTileState is the part of a tile the Manager owns: its DrawInfo and
// the raster task currently producing its content, if any.
//
// The raster task is shared with the scheduler. If the tile is released
// while the task is running, the tile drops its reference and the task's
// result is discarded on completion.
type ManagedTileState struct {
	drawInfo   DrawInfo
	rasterTask *raster.Task
}

// DrawInfo returns the tile's draw state. The pointer is valid for the
// lifetime of the tile; callers outside this package can only read it.
func (s *ManagedTileState) DrawInfo() *DrawInfo {
	return &s.drawInfo
}

// RasterTask returns the in-flight raster task, or nil.
func (s *ManagedTileState) RasterTask() *raster.Task {
	return s.rasterTask
}

// HasRasterTask reports whether a raster task is queued or running.
func (s *ManagedTileState) HasRasterTask() bool {
	return s.rasterTask != nil
}
