// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package resource provides the GPU-backed resources that hold rasterized
// tile content, and the budgeted pool that hands them out.
//
// A Resource is allocated from a Pool, owned by exactly one holder at a time
// (a raster task while it is being written, then the tile it was written
// for), and returned with Pool.Recycle. Recycled resources are kept on a free
// list keyed by size and format and handed out again before any new backing
// is created.
//
// The pool enforces a byte budget with golang.org/x/sync/semaphore so that
// allocation never blocks: when the budget is exhausted, unused resources are
// released oldest first, and if that is not enough Allocate fails with
// ErrBudgetExceeded. Which tiles deserve memory is decided by the caller.
package resource
