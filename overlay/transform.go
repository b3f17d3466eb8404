// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package overlay

import (
	"fmt"

	"github.com/gogpu/compositor/gfx"
)

// Transform is the orientation a display controller applies to a plane.
type Transform uint8

// Transform values. TransformInvalid marks content that cannot be scanned
// out at all.
const (
	TransformInvalid Transform = iota
	TransformNone
	TransformFlipHorizontal
	TransformFlipVertical
	TransformRotate90
	TransformRotate180
	TransformRotate270
)

// String returns the transform name.
func (t Transform) String() string {
	switch t {
	case TransformInvalid:
		return "invalid"
	case TransformNone:
		return "none"
	case TransformFlipHorizontal:
		return "flip-h"
	case TransformFlipVertical:
		return "flip-v"
	case TransformRotate90:
		return "rotate-90"
	case TransformRotate180:
		return "rotate-180"
	case TransformRotate270:
		return "rotate-270"
	default:
		return fmt.Sprintf("Transform(%d)", uint8(t))
	}
}

// TransformFromMatrix classifies the orientation part of m. Translation and
// scale are carried by the display rect. Matrices that do not keep
// rectangles axis-aligned, and transposes, return TransformInvalid.
//
// Rotations are clockwise in a y-down target space.
func TransformFromMatrix(m gfx.Matrix) Transform {
	if !m.IsAxisAligned() {
		return TransformInvalid
	}
	if abs(m.B) < 1e-9 && abs(m.D) < 1e-9 {
		switch {
		case m.A > 0 && m.E > 0:
			return TransformNone
		case m.A < 0 && m.E > 0:
			return TransformFlipHorizontal
		case m.A > 0 && m.E < 0:
			return TransformFlipVertical
		default:
			return TransformRotate180
		}
	}
	switch {
	case m.B < 0 && m.D > 0:
		return TransformRotate90
	case m.B > 0 && m.D < 0:
		return TransformRotate270
	default:
		return TransformInvalid
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
