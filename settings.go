// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/compositor/gfx"
	"github.com/gogpu/compositor/layer"
	"github.com/gogpu/compositor/tile"
)

// Settings configures a Host. Load it from YAML or TOML with LoadSettings or
// start from DefaultSettings.
type Settings struct {
	// TileSize is the tile edge length in pixels.
	TileSize int `yaml:"tile_size" toml:"tile_size"`

	// MemoryLimitBytes caps tile memory. Zero is unlimited.
	MemoryLimitBytes int64 `yaml:"memory_limit_bytes" toml:"memory_limit_bytes"`

	// MaxResourceCount caps the number of tile resources. Zero is
	// unlimited.
	MaxResourceCount int `yaml:"max_resource_count" toml:"max_resource_count"`

	// MaxUnusedBytes caps the free tile memory kept for reuse after each
	// frame; older free resources are released first. Zero keeps all of it.
	MaxUnusedBytes int64 `yaml:"max_unused_bytes" toml:"max_unused_bytes"`

	// RasterWorkers is the number of raster goroutines. Zero uses
	// GOMAXPROCS.
	RasterWorkers int `yaml:"raster_workers" toml:"raster_workers"`

	// MaxPendingRasterTasks bounds raster tasks in flight.
	MaxPendingRasterTasks int `yaml:"max_pending_raster_tasks" toml:"max_pending_raster_tasks"`

	// EnableOverlays runs the overlay processor each frame.
	EnableOverlays bool `yaml:"enable_overlays" toml:"enable_overlays"`

	// LowResScale adds a low resolution tiling at this fraction of the
	// ideal scale. Zero disables it.
	LowResScale float64 `yaml:"low_res_scale" toml:"low_res_scale"`

	// SkewportDistance is how far outside the viewport, in pixels, tiles
	// are rasterized ahead of need.
	SkewportDistance float64 `yaml:"skewport_distance" toml:"skewport_distance"`

	// CheckerboardColor fills tiles with nothing to draw, as hex RRGGBB or
	// RRGGBBAA.
	CheckerboardColor string `yaml:"checkerboard_color" toml:"checkerboard_color"`

	// UseRasterizeOnDemand draws unready tiles by rasterizing them during
	// drawing instead of showing the checkerboard.
	UseRasterizeOnDemand bool `yaml:"use_rasterize_on_demand" toml:"use_rasterize_on_demand"`
}

// DefaultSettings returns the settings used for omitted fields.
func DefaultSettings() Settings {
	return Settings{
		TileSize:              layer.DefaultTileSize,
		MemoryLimitBytes:      64 << 20,
		MaxUnusedBytes:        16 << 20,
		MaxPendingRasterTasks: tile.DefaultMaxPendingTasks,
		EnableOverlays:        true,
		LowResScale:           0.25,
		SkewportDistance:      layer.DefaultSkewportDistance,
		CheckerboardColor:     "#e6e6e6",
	}
}

// ParseSettings decodes YAML over DefaultSettings and validates the result.
// Unknown keys are rejected.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("compositor: parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ParseSettingsTOML is ParseSettings for TOML input.
func ParseSettingsTOML(data []byte) (Settings, error) {
	s := DefaultSettings()
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return Settings{}, fmt.Errorf("compositor: parse settings: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Settings{}, fmt.Errorf("compositor: parse settings: unknown key %q", undecoded[0].String())
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettings reads and parses a settings file. Files ending in .toml are
// parsed as TOML, anything else as YAML.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("compositor: read settings %s: %w", path, err)
	}
	parse := ParseSettings
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parse = ParseSettingsTOML
	}
	s, err := parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes the settings as YAML.
func (s Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// EncodeTOML encodes the settings as TOML.
func (s Settings) EncodeTOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate reports every invalid field, wrapped in ErrInvalidSettings.
func (s Settings) Validate() error {
	var errs []error
	if s.TileSize < 16 || s.TileSize > 4096 {
		errs = append(errs, fmt.Errorf("tile_size %d out of range [16, 4096]", s.TileSize))
	}
	if s.MemoryLimitBytes < 0 {
		errs = append(errs, fmt.Errorf("memory_limit_bytes %d is negative", s.MemoryLimitBytes))
	}
	if s.MaxResourceCount < 0 {
		errs = append(errs, fmt.Errorf("max_resource_count %d is negative", s.MaxResourceCount))
	}
	if s.MaxUnusedBytes < 0 {
		errs = append(errs, fmt.Errorf("max_unused_bytes %d is negative", s.MaxUnusedBytes))
	}
	if s.RasterWorkers < 0 {
		errs = append(errs, fmt.Errorf("raster_workers %d is negative", s.RasterWorkers))
	}
	if s.MaxPendingRasterTasks < 0 {
		errs = append(errs, fmt.Errorf("max_pending_raster_tasks %d is negative", s.MaxPendingRasterTasks))
	}
	if s.LowResScale < 0 || s.LowResScale >= 1 {
		errs = append(errs, fmt.Errorf("low_res_scale %v out of range [0, 1)", s.LowResScale))
	}
	if s.SkewportDistance < 0 {
		errs = append(errs, fmt.Errorf("skewport_distance %v is negative", s.SkewportDistance))
	}
	if _, err := s.Checkerboard(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
}

// Checkerboard parses CheckerboardColor. An empty value selects the layer
// default.
func (s Settings) Checkerboard() (gfx.Color, error) {
	if s.CheckerboardColor == "" {
		return layer.DefaultCheckerboardColor, nil
	}
	c, err := gfx.ParseHex(s.CheckerboardColor)
	if err != nil {
		return gfx.Color{}, fmt.Errorf("checkerboard_color: %w", err)
	}
	return c, nil
}

// layerOptions converts the settings into tiled layer options.
func (s Settings) layerOptions() []layer.Option {
	c, _ := s.Checkerboard()
	return []layer.Option{
		layer.WithTileSize(s.TileSize),
		layer.WithLowResScale(s.LowResScale),
		layer.WithSkewportDistance(s.SkewportDistance),
		layer.WithCheckerboardColor(c),
		layer.WithRasterizeOnDemand(s.UseRasterizeOnDemand),
	}
}
