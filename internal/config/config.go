// Package config handles c2dbake configuration loading and management.
package config

import (
	"github.com/Faultbox/character2d/internal/bake"
	"github.com/Faultbox/character2d/internal/layers"
)

// FileName is the config file looked up in the working directory and the
// user config directory.
const FileName = "c2dbake.yaml"

// Config holds all tool settings.
type Config struct {
	Bake    BakeConfig    `yaml:"bake"`
	Sprites SpritesConfig `yaml:"sprites"`
	Logging LoggingConfig `yaml:"logging"`
}

// BakeConfig holds the default mesh generation options.
type BakeConfig struct {
	Output    string  `yaml:"output"`
	Pivot     string  `yaml:"pivot"`
	Scale     float32 `yaml:"scale"`
	AssetName string  `yaml:"asset_name"`
	SavePath  string  `yaml:"save_path"`
}

// SpritesConfig holds sprite lookup settings.
type SpritesConfig struct {
	Roots []string `yaml:"roots"` // searched last to first
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := bake.DefaultOptions()
	return &Config{
		Bake: BakeConfig{
			Output:    string(opts.Output),
			Pivot:     string(opts.Pivot),
			Scale:     opts.MeshScale,
			AssetName: opts.AssetName,
			SavePath:  opts.SavePath,
		},
		Sprites: SpritesConfig{
			Roots: []string{"."},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Options converts the bake section into validated generator options.
// Scale is clamped to the supported range.
func (c *Config) Options() (bake.Options, error) {
	output, err := bake.ParseOutputKind(c.Bake.Output)
	if err != nil {
		return bake.Options{}, err
	}
	pivot, err := bake.ParsePivotPlacement(c.Bake.Pivot)
	if err != nil {
		return bake.Options{}, err
	}
	opts := bake.Options{
		Output:    output,
		Pivot:     pivot,
		MeshScale: bake.ClampScale(c.Bake.Scale),
		AssetName: c.Bake.AssetName,
		SavePath:  c.Bake.SavePath,
	}
	return opts, opts.Validate()
}

// ApplyDocument overlays the bake options stored in a character document.
func (c *Config) ApplyDocument(o layers.OptionsDoc) {
	if o.Output != "" {
		c.Bake.Output = o.Output
	}
	if o.Pivot != "" {
		c.Bake.Pivot = o.Pivot
	}
	if o.Scale > 0 {
		c.Bake.Scale = o.Scale
	}
	if o.AssetName != "" {
		c.Bake.AssetName = o.AssetName
	}
	if o.SavePath != "" {
		c.Bake.SavePath = o.SavePath
	}
}
