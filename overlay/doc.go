// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package overlay promotes draw quads to hardware overlay planes.
//
// A Processor runs an ordered chain of strategies once per frame. The first
// strategy that succeeds rewrites the root render pass and appends
// candidates for the display controller; the rest are not consulted. When
// no strategy succeeds the frame is composited normally.
//
// Strategies are all-or-nothing: a failed attempt leaves both the pass list
// and the candidate list exactly as it found them.
//
// Example:
//
//	surface := overlay.NewDeviceSurface(host, overlay.DefaultCapabilities(host, display))
//	proc := overlay.NewProcessor(surface, pool)
//
//	var candidates overlay.CandidateList
//	if s := proc.ProcessForOverlays(&passes, &candidates); s != nil {
//	    // candidates now describe planes for the display controller
//	}
package overlay
