// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package quad describes a frame as an ordered list of render passes, each a
// list of draw quads.
//
// Within a pass, quads are ordered front to back: index 0 is drawn last and
// appears on top. Within a list, passes are ordered by dependency and the
// root pass, whose output is the frame itself, comes last.
//
// Quads reference tile resources by resource.ID rather than by pointer, so a
// pass list can be cloned, compared and handed between stages without
// extending resource lifetimes.
package quad
