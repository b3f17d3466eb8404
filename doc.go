// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compositor decides, once per frame, how a tiled layer tree is put
// on screen.
//
// # Overview
//
// Content is split into tiles. Each tile carries a DrawInfo recording how
// it is drawn right now: from a rasterized resource, as a single solid
// color, or not yet rasterized. Raster work runs on worker goroutines and
// its results are applied on the frame goroutine only, so drawing never
// waits on it. A budgeted pool hands out tile memory in priority order.
//
// Each frame a Host collects finished raster work, ranks tiles against the
// viewport, schedules new raster tasks, builds the frame's render passes
// and finally asks an overlay processor whether part of the frame can be
// scanned out on a hardware plane instead of being composited.
//
// # Quick Start
//
//	settings := compositor.DefaultSettings()
//	host, err := compositor.NewHost(settings, image.Pt(1280, 720))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer host.Close()
//
//	host.AddTiledLayer(raster.NewImageSource(img))
//	frame, err := host.DrawFrame(ctx)
//
// # Packages
//
//   - tile: DrawInfo, ManagedTileState, priorities and the tile Manager
//   - raster: raster tasks, content sources and the worker scheduler
//   - resource: resources, providers and the budgeted Pool
//   - layer: tiled and texture layers producing quads
//   - quad: quads and render passes
//   - overlay: validator, SingleOnTop and Underlay strategies, Processor
//   - output: software renderer and plane presentation
//
// # Logging
//
// The compositor is silent by default. Call SetLogger to enable structured
// logging through log/slog.
package compositor
