// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raster

import (
	"context"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/compositor/gfx"
)

// Source is the recorded content a layer rasterizes tiles from.
//
// Raster draws the part of the content covering rect into dst. rect is in
// scaled content space (content coordinates multiplied by scale); dst's
// origin corresponds to rect.Min and dst has rect's size. Implementations
// must be safe for concurrent calls on disjoint rects.
type Source interface {
	// Bounds returns the unscaled content extent.
	Bounds() image.Rectangle

	// Raster draws the content covering rect at scale into dst.
	Raster(ctx context.Context, dst *image.RGBA, rect image.Rectangle, scale float64) error
}

// SolidColorAnalyzer is implemented by sources that can prove a region is a
// single flat color without rasterizing it.
type SolidColorAnalyzer interface {
	SolidColorIn(rect image.Rectangle, scale float64) (gfx.Color, bool)
}

// ImageSource rasterizes from a decoded image. Scaled rasterization uses
// bilinear filtering.
type ImageSource struct {
	img    image.Image
	scaler draw.Transformer
}

// NewImageSource wraps img. The image must not be modified afterwards.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: img, scaler: draw.ApproxBiLinear}
}

// Bounds implements Source.
func (s *ImageSource) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Raster implements Source.
func (s *ImageSource) Raster(ctx context.Context, dst *image.RGBA, rect image.Rectangle, scale float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if scale == 1 {
		draw.Draw(dst, dst.Bounds(), s.img, rect.Min, draw.Src)
		return nil
	}

	// Maps source pixels into the tile: scale, then shift the tile origin to 0.
	s2d := f64.Aff3{
		scale, 0, -float64(rect.Min.X),
		0, scale, -float64(rect.Min.Y),
	}
	s.scaler.Transform(dst, s2d, s.img, s.img.Bounds(), draw.Src, nil)
	return nil
}

// SolidSource is content that is a single color everywhere within its
// bounds. It proves uniformity without rasterizing.
type SolidSource struct {
	bounds image.Rectangle
	color  gfx.Color
}

// NewSolidSource returns a source of the given extent filled with c.
func NewSolidSource(bounds image.Rectangle, c gfx.Color) *SolidSource {
	return &SolidSource{bounds: bounds, color: c}
}

// Bounds implements Source.
func (s *SolidSource) Bounds() image.Rectangle {
	return s.bounds
}

// Raster implements Source.
func (s *SolidSource) Raster(ctx context.Context, dst *image.RGBA, _ image.Rectangle, _ float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: s.color.RGBA8()}, image.Point{}, draw.Src)
	return nil
}

// SolidColorIn implements SolidColorAnalyzer. Tiles overhanging the content
// edge are not uniform because the overhang is transparent.
func (s *SolidSource) SolidColorIn(rect image.Rectangle, scale float64) (gfx.Color, bool) {
	scaled := image.Rect(
		int(float64(s.bounds.Min.X)*scale),
		int(float64(s.bounds.Min.Y)*scale),
		int(float64(s.bounds.Max.X)*scale),
		int(float64(s.bounds.Max.Y)*scale),
	)
	if !rect.In(scaled) {
		return gfx.Color{}, false
	}
	return s.color, true
}

// AnalyzeSolidColor reports whether every pixel of img has the same value.
func AnalyzeSolidColor(img *image.RGBA) (gfx.Color, bool) {
	b := img.Bounds()
	if b.Empty() {
		return gfx.Color{}, false
	}

	first := img.PixOffset(b.Min.X, b.Min.Y)
	r, g, bl, a := img.Pix[first], img.Pix[first+1], img.Pix[first+2], img.Pix[first+3]

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Min.X, y)+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			if row[i] != r || row[i+1] != g || row[i+2] != bl || row[i+3] != a {
				return gfx.Color{}, false
			}
		}
	}
	return gfx.ColorFromRGBA8(color.RGBA{R: r, G: g, B: bl, A: a}), true
}

var (
	_ Source             = (*ImageSource)(nil)
	_ Source             = (*SolidSource)(nil)
	_ SolidColorAnalyzer = (*SolidSource)(nil)
)
