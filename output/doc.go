// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package output draws frames on the CPU.
//
// SoftwareRenderer composites a render pass list into an *image.RGBA the
// way the GPU path would, and Present stacks the result with the overlay
// planes chosen for the frame, standing in for the display controller.
// Both use golang.org/x/image/draw transformers for sampling.
package output
