// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import "errors"

var (
	// ErrSchedulerClosed is returned by Submit after Close, and carried by
	// results of tasks that were still queued when the scheduler closed.
	ErrSchedulerClosed = errors.New("raster: scheduler closed")

	// ErrNoBacking means the task's resource has no CPU-visible pixels.
	ErrNoBacking = errors.New("raster: resource has no pixel backing")

	// ErrEmptyRect means the task covers no pixels.
	ErrEmptyRect = errors.New("raster: empty tile rect")

	// ErrSizeMismatch means the resource does not match the tile size.
	ErrSizeMismatch = errors.New("raster: resource size does not match tile")

	// ErrTaskPanicked wraps a panic raised while rasterizing.
	ErrTaskPanicked = errors.New("raster: task panicked")
)
