// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package raster produces pixel content for tiles asynchronously.
//
// A Task rasterizes one tile rectangle of a Source into a resource handed to
// it by the caller. Tasks are submitted to a Scheduler together with a
// completion callback that is invoked exactly once, from a worker goroutine,
// with a Result carrying either the written resource, a proof that the tile
// is a single flat color, or an error.
//
// The frame-producing goroutine must never wait on a task. Completion
// callbacks are expected to hand results back to that goroutine (see
// tile.Manager.CheckForCompletedTasks) rather than mutate tile state
// themselves.
package raster
