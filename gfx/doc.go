// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gfx provides the small geometry and color vocabulary shared by the
// compositor packages: axis-aligned rectangles, 2D affine matrices and
// straight-alpha colors.
//
// All values are plain structs and safe to copy. Nothing in this package
// allocates on the hot path.
package gfx
