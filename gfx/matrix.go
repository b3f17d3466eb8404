// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Matrix represents a 2D affine transformation matrix.
// It uses a 2x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// This represents the transformation:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{A: 1, E: 1}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{A: x, E: y}
}

// Rotate creates a rotation matrix (angle in radians).
func Rotate(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix{
		A: cos, B: -sin,
		D: sin, E: cos,
	}
}

// Multiply returns m * other, i.e. other is applied first.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// TransformPoint applies the transformation to (x, y).
func (m Matrix) TransformPoint(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 &&
		m.D == 0 && m.E == 1 && m.F == 0
}

// IsTranslation returns true if the matrix is only a translation.
func (m Matrix) IsTranslation() bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1
}

// IsAxisAligned reports whether the matrix maps axis-aligned rectangles to
// axis-aligned rectangles: scales, flips and multiples of 90 degree
// rotation, plus translation.
func (m Matrix) IsAxisAligned() bool {
	scaleOnly := nearZero(m.B) && nearZero(m.D) && !nearZero(m.A) && !nearZero(m.E)
	swapOnly := nearZero(m.A) && nearZero(m.E) && !nearZero(m.B) && !nearZero(m.D)
	return scaleOnly || swapOnly
}

// MapRect returns the bounding box of r after transformation. For
// axis-aligned matrices the result is exact.
func (m Matrix) MapRect(r Rect) Rect {
	x0, y0 := m.TransformPoint(r.X, r.Y)
	x1, y1 := m.TransformPoint(r.Right(), r.Y)
	x2, y2 := m.TransformPoint(r.X, r.Bottom())
	x3, y3 := m.TransformPoint(r.Right(), r.Bottom())

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Aff3 converts the matrix for use with golang.org/x/image/draw transformers.
func (m Matrix) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
}

func nearZero(v float64) bool {
	return math.Abs(v) < 1e-9
}
