// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command framesim steps the compositor over still images and writes the
// composited result as a PNG.
//
// Each positional argument is decoded and shown as a tiled layer, the first
// in front. With -video, one more image is shown as a texture layer on top,
// which is where overlay planes come from. With -watch, the frame is
// composited again whenever an input file or the settings change.
//
//	framesim -config settings.yaml -video clip.png -overlays -out frame.png bg.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fsnotify/fsnotify"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/output"
	"github.com/gogpu/compositor/overlay"
	"github.com/gogpu/compositor/raster"
	"github.com/gogpu/compositor/resource"
)

// displaySurface is an output surface with a fixed plane description.
type displaySurface struct {
	caps *overlay.Capabilities
}

func (s displaySurface) OverlayCandidateValidator() overlay.Validator {
	return s.caps
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	if f.verbose {
		compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, f.options); err != nil {
		log.Fatalf("framesim: %v", err)
	}
	if f.watch {
		if err := watchInputs(ctx, f.options); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("framesim: %v", err)
		}
	}
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	options
	verbose bool
	watch   bool
}

func newFlagSet(f *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("framesim", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "YAML or TOML settings file (TOML by .toml extension)")
	fs.IntVar(&f.size.X, "width", 1280, "output width")
	fs.IntVar(&f.size.Y, "height", 720, "output height")
	fs.IntVar(&f.frames, "frames", 100, "maximum frames to step")
	fs.StringVar(&f.video, "video", "", "image shown as a texture layer on top")
	fs.BoolVar(&f.overlays, "overlays", false, "simulate a display with one overlay plane")
	fs.StringVar(&f.out, "out", "frame.png", "output file")
	fs.BoolVar(&f.verbose, "v", false, "debug logging")
	fs.BoolVar(&f.watch, "watch", false, "composite again when inputs change")
	return fs
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	fs := newFlagSet(&f)
	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	f.layers = fs.Args()
	return f, nil
}

type options struct {
	config   string
	size     image.Point
	frames   int
	video    string
	overlays bool
	out      string
	layers   []string
}

func run(ctx context.Context, o options) error {
	settings := compositor.DefaultSettings()
	if o.config != "" {
		var err error
		if settings, err = compositor.LoadSettings(o.config); err != nil {
			return err
		}
	}

	paths := o.layers
	if o.video != "" {
		paths = append([]string{o.video}, paths...)
	}
	images, err := decodeAll(ctx, paths)
	if err != nil {
		return err
	}

	var hostOpts []compositor.HostOption
	if o.overlays {
		format := gputypes.TextureFormatRGBA8Unorm
		hostOpts = append(hostOpts,
			compositor.WithProvider(&resource.MemoryProvider{
				ScanoutFormats: []gputypes.TextureFormat{format},
			}),
			compositor.WithSurface(displaySurface{
				caps: overlay.DefaultCapabilities(nil, image.Rectangle{Max: o.size}),
			}))
	}

	host, err := compositor.NewHost(settings, o.size, hostOpts...)
	if err != nil {
		return err
	}
	defer host.Close()

	if o.video != "" {
		res, err := upload(host.Pool(), images[0])
		if err != nil {
			return err
		}
		host.AddTextureLayer(res, fitTransform(images[0].Bounds().Size(), o.size), true)
		images = images[1:]
	}
	for _, img := range images {
		host.AddTiledLayer(raster.NewImageSource(img))
	}

	f, err := step(ctx, host, o.frames)
	if err != nil {
		return err
	}
	log.Printf("frame %d: %d quads, %d overlays (%s), %d/%d tiles ready",
		f.Number, f.Passes.QuadCount(), len(f.Overlays), strategyName(f.Strategy),
		f.Stats.Tiles.ReadyToDraw, f.Stats.Tiles.Tiles)

	renderer := output.NewSoftwareRenderer(host.Pool(), output.WithLogger(compositor.Logger()))
	primary := image.NewRGBA(image.Rectangle{Max: o.size})
	stats, err := renderer.DrawFrame(ctx, f.Passes, primary)
	if err != nil {
		return err
	}
	if stats.Missing > 0 {
		log.Printf("warning: %d quads referenced missing resources", stats.Missing)
	}

	return writePNG(o.out, output.Present(primary, f.Overlays, host.Pool()))
}

// inputs returns every file run reads.
func (o options) inputs() []string {
	var paths []string
	if o.config != "" {
		paths = append(paths, o.config)
	}
	if o.video != "" {
		paths = append(paths, o.video)
	}
	return append(paths, o.layers...)
}

// watchInputs runs again after each write to an input until ctx is done.
// A failed run is logged and the watch continues.
func watchInputs(ctx context.Context, o options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, path := range o.inputs() {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	log.Printf("watching %d files", len(o.inputs()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Printf("%s changed", event.Name)
			if err := run(ctx, o); err != nil {
				log.Printf("error: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Println("error:", err)
		}
	}
}

// step draws frames until raster work settles or the frame limit is hit.
func step(ctx context.Context, host *compositor.Host, limit int) (*compositor.Frame, error) {
	var f *compositor.Frame
	for range max(limit, 1) {
		var err error
		if f, err = host.DrawFrame(ctx); err != nil {
			return nil, err
		}
		if f.Stats.Tiles.PendingTasks == 0 && f.Stats.Prepare.Scheduled == 0 {
			break
		}
		if err := host.WaitForRaster(ctx); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// decodeAll decodes the files concurrently, keeping argument order.
func decodeAll(ctx context.Context, paths []string) ([]image.Image, error) {
	images := make([]image.Image, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			img, err := decode(path)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %s: empty %s image", path, format)
	}
	return img, nil
}

// upload copies img into a pool resource in the provider's native format.
func upload(pool *resource.Pool, img image.Image) (*resource.Resource, error) {
	b := img.Bounds()
	res, err := pool.Allocate(b.Size(), pool.Provider().NativeFormat())
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	draw.Draw(res.Pixels(), res.Pixels().Bounds(), img, b.Min, draw.Src)
	if resource.OrderOf(res.Format()) == resource.OrderBGRA {
		resource.SwapRedBlue(res.Pixels())
	}
	return res, nil
}

// fitTransform scales a texture of size src to cover dst.
func fitTransform(src, dst image.Point) gfx.Matrix {
	return gfx.Scale(float64(dst.X)/float64(src.X), float64(dst.Y)/float64(src.Y))
}

func strategyName(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func writePNG(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return png.Encode(f, img)
}
