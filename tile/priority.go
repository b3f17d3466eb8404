// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tile

import (
	"fmt"
	"math"
)

// Resolution is the quality tier of a tile relative to the ideal contents
// scale.
type Resolution uint8

const (
	// HighResolution tiles are rasterized at the ideal scale.
	HighResolution Resolution = iota

	// LowResolution tiles are a cheap fallback drawn while high-res tiles are
	// missing.
	LowResolution

	// NonIdealResolution tiles belong to a tiling at neither scale.
	NonIdealResolution
)

// String returns the resolution name.
func (r Resolution) String() string {
	switch r {
	case HighResolution:
		return "high"
	case LowResolution:
		return "low"
	case NonIdealResolution:
		return "non-ideal"
	default:
		return fmt.Sprintf("Resolution(%d)", uint8(r))
	}
}

// PriorityBin is a coarse urgency class.
type PriorityBin uint8

const (
	// BinNow tiles are visible this frame.
	BinNow PriorityBin = iota

	// BinSoon tiles will likely become visible shortly.
	BinSoon

	// BinEventually tiles are far from the viewport.
	BinEventually
)

// String returns the bin name.
func (b PriorityBin) String() string {
	switch b {
	case BinNow:
		return "now"
	case BinSoon:
		return "soon"
	case BinEventually:
		return "eventually"
	default:
		return fmt.Sprintf("PriorityBin(%d)", uint8(b))
	}
}

// Priority orders tiles for rasterization and memory.
type Priority struct {
	Resolution Resolution
	Bin        PriorityBin

	// DistanceToVisible is the distance in target pixels from the viewport;
	// zero for visible tiles.
	DistanceToVisible float64
}

// LowestPriority is assigned to tiles that are not needed at all.
var LowestPriority = Priority{
	Resolution:        NonIdealResolution,
	Bin:               BinEventually,
	DistanceToVisible: math.Inf(1),
}

// MoreImportantThan reports whether p should be served before q:
// lower bin first, then higher resolution, then closer to the viewport.
func (p Priority) MoreImportantThan(q Priority) bool {
	if p.Bin != q.Bin {
		return p.Bin < q.Bin
	}
	if p.Resolution != q.Resolution {
		return p.Resolution < q.Resolution
	}
	return p.DistanceToVisible < q.DistanceToVisible
}

// String describes the priority for logs.
func (p Priority) String() string {
	return fmt.Sprintf("%v/%v/%.0f", p.Bin, p.Resolution, p.DistanceToVisible)
}
