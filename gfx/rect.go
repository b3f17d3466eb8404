// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"image"
	"math"
)

// Rect is an axis-aligned rectangle with float64 coordinates.
// The rectangle spans [X, X+W) x [Y, Y+H).
type Rect struct {
	X, Y, W, H float64
}

// R is shorthand for Rect{X: x, Y: y, W: w, H: h}.
func R(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectFromImage converts an integer rectangle.
func RectFromImage(r image.Rectangle) Rect {
	return Rect{
		X: float64(r.Min.X),
		Y: float64(r.Min.Y),
		W: float64(r.Dx()),
		H: float64(r.Dy()),
	}
}

// Right returns X + W.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns Y + H.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether other lies entirely inside r.
// An empty other is contained by any rectangle.
func (r Rect) Contains(other Rect) bool {
	if other.IsEmpty() {
		return true
	}
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// Intersects reports whether the two rectangles share any area.
func (r Rect) Intersects(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// Intersect returns the overlapping area, or the zero Rect.
func (r Rect) Intersect(other Rect) Rect {
	x0 := math.Max(r.X, other.X)
	y0 := math.Max(r.Y, other.Y)
	x1 := math.Min(r.Right(), other.Right())
	y1 := math.Min(r.Bottom(), other.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x0 := math.Min(r.X, other.X)
	y0 := math.Min(r.Y, other.Y)
	x1 := math.Max(r.Right(), other.Right())
	y1 := math.Max(r.Bottom(), other.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Scale multiplies all coordinates by s.
func (r Rect) Scale(s float64) Rect {
	return Rect{X: r.X * s, Y: r.Y * s, W: r.W * s, H: r.H * s}
}

// Inset shrinks (or grows, for negative d) each edge by d.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// IsPixelAligned reports whether every edge lies on an integer coordinate
// within a small tolerance.
func (r Rect) IsPixelAligned() bool {
	return isInteger(r.X) && isInteger(r.Y) && isInteger(r.Right()) && isInteger(r.Bottom())
}

// EnclosingImage returns the smallest integer rectangle that covers r.
func (r Rect) EnclosingImage() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X+epsilon)),
		int(math.Floor(r.Y+epsilon)),
		int(math.Ceil(r.Right()-epsilon)),
		int(math.Ceil(r.Bottom()-epsilon)),
	)
}

const epsilon = 1e-6

func isInteger(v float64) bool {
	return math.Abs(v-math.Round(v)) < epsilon
}
