// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package layer produces the quads of a frame from layers of content.
//
// A TiledLayer splits its content into tilings, one per contents scale, and
// each tiling into fixed-size tiles owned by a tile.Manager. Every frame the
// layer ranks its tiles against the viewport and appends one quad per
// visible tile, chosen by the tile's DrawInfo mode. A TextureLayer draws a
// single externally produced resource, typically a video frame.
package layer
