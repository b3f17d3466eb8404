// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gfx

import (
	"fmt"
	"image/color"
	"math"
)

// Color is a straight (non-premultiplied) RGBA color.
// Each component is in the range [0, 1].
type Color struct {
	R, G, B, A float64
}

// Common colors.
var (
	Transparent = Color{}
	Black       = Color{A: 1}
	White       = Color{R: 1, G: 1, B: 1, A: 1}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// ColorFromRGBA8 converts a premultiplied 8-bit color into a straight Color.
func ColorFromRGBA8(c color.RGBA) Color {
	if c.A == 0 {
		return Transparent
	}
	a := float64(c.A) / 255
	return Color{
		R: float64(c.R) / 255 / a,
		G: float64(c.G) / 255 / a,
		B: float64(c.B) / 255 / a,
		A: a,
	}
}

// RGBA8 returns the premultiplied 8-bit form of c, suitable for image.RGBA.
func (c Color) RGBA8() color.RGBA {
	return color.RGBA{
		R: uint8(clamp255(c.R * c.A * 255)),
		G: uint8(clamp255(c.G * c.A * 255)),
		B: uint8(clamp255(c.B * c.A * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// IsOpaque reports whether the color has full alpha.
func (c Color) IsOpaque() bool {
	return c.A >= 1
}

// IsTransparent reports whether the color has zero alpha.
func (c Color) IsTransparent() bool {
	return c.A <= 0
}

// String formats the color as #RRGGBBAA.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x",
		uint8(clamp255(c.R*255)), uint8(clamp255(c.G*255)),
		uint8(clamp255(c.B*255)), uint8(clamp255(c.A*255)))
}

// ParseHex parses "RGB", "RGBA", "RRGGBB" or "RRGGBBAA", with or without a
// leading '#'.
func ParseHex(s string) (Color, error) {
	if s != "" && s[0] == '#' {
		s = s[1:]
	}

	var v [4]uint32
	v[3] = 255

	switch len(s) {
	case 3, 4:
		for i := range len(s) {
			d, ok := hexDigit(s[i])
			if !ok {
				return Color{}, fmt.Errorf("gfx: invalid hex color %q", s)
			}
			v[i] = d * 17
		}
	case 6, 8:
		for i := 0; i < len(s); i += 2 {
			hi, ok1 := hexDigit(s[i])
			lo, ok2 := hexDigit(s[i+1])
			if !ok1 || !ok2 {
				return Color{}, fmt.Errorf("gfx: invalid hex color %q", s)
			}
			v[i/2] = hi<<4 | lo
		}
	default:
		return Color{}, fmt.Errorf("gfx: invalid hex color length %q", s)
	}

	return Color{
		R: float64(v[0]) / 255,
		G: float64(v[1]) / 255,
		B: float64(v[2]) / 255,
		A: float64(v[3]) / 255,
	}, nil
}

func hexDigit(c byte) (uint32, bool) {
	switch {
	case '0' <= c && c <= '9':
		return uint32(c - '0'), true
	case 'a' <= c && c <= 'f':
		return uint32(c - 'a' + 10), true
	case 'A' <= c && c <= 'F':
		return uint32(c - 'A' + 10), true
	}
	return 0, false
}

// clamp255 restricts a value to [0, 255] and rounds to nearest.
func clamp255(v float64) float64 {
	return math.Round(math.Max(0, math.Min(255, v)))
}
