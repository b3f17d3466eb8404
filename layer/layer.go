// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package layer

import (
	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/quad"
)

// Layer is one element of the layer tree.
type Layer interface {
	// ID identifies the layer.
	ID() int

	// UpdatePriorities ranks the layer's tiles against the viewport, in
	// target space.
	UpdatePriorities(viewport gfx.Rect)

	// AppendQuads appends the layer's quads to pass, front to back.
	AppendQuads(pass *quad.RenderPass)

	// Release returns the layer's tiles and resources.
	Release()
}
