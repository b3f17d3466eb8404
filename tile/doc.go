// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tile tracks what backs the pixels of every tile of layer content
// and how each tile is drawn this frame.
//
// Every Tile owns one ManagedTileState, whose DrawInfo is a tagged state
// with three mutually exclusive modes:
//
//   - ResourceMode: a resource holds rasterized pixels.
//   - SolidColorMode: the tile is a single flat color; no resource needed.
//   - DeferredRasterMode: nothing is rasterized yet; the tile must be
//     rasterized on demand if drawn now.
//
// Reading a field that does not belong to the current mode panics. Only
// the Manager, on the frame goroutine, changes modes; draw-time code in other
// packages can read DrawInfo but has no way to mutate it.
//
// # Threading
//
// Raster tasks run on other goroutines. Their completion callbacks only
// queue results; Manager.CheckForCompletedTasks applies them on the frame
// goroutine. A tile's state therefore has a single writer and the drawing
// path reads it without locks.
package tile
