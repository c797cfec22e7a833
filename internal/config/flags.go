package config

import (
	"flag"
	"strings"
)

// Flags are the command-line overrides shared by every subcommand.
type Flags struct {
	config  *string
	debug   *bool
	logFile *string
	output  *string
	pivot   *string
	scale   *float64
	name    *string
	outDir  *string
	roots   *string
}

// RegisterFlags defines the config flags on fs. Parse fs before calling
// Load.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:  fs.String("config", "", "Path to config file"),
		debug:   fs.Bool("debug", false, "Enable debug logging"),
		logFile: fs.String("log-file", "", "Also write JSON logs to this file"),
		output:  fs.String("output", "", "Output kind: static or skeletal"),
		pivot:   fs.String("pivot", "", "Pivot: origin, center or bottom_center"),
		scale:   fs.Float64("scale", 0, "Uniform mesh scale (0.001-10)"),
		name:    fs.String("name", "", "Asset name"),
		outDir:  fs.String("out-dir", "", "Directory generated assets are written to"),
		roots:   fs.String("roots", "", "Comma-separated sprite search roots"),
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// Apply applies CLI flag overrides to the config. Load calls it; callers
// that layer more settings on top of the file call it again afterwards.
func (f *Flags) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
	if *f.output != "" {
		cfg.Bake.Output = *f.output
	}
	if *f.pivot != "" {
		cfg.Bake.Pivot = *f.pivot
	}
	if *f.scale > 0 {
		cfg.Bake.Scale = float32(*f.scale)
	}
	if *f.name != "" {
		cfg.Bake.AssetName = *f.name
	}
	if *f.outDir != "" {
		cfg.Bake.SavePath = *f.outDir
	}
	if *f.roots != "" {
		cfg.Sprites.Roots = nil
		for _, r := range strings.Split(*f.roots, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.Sprites.Roots = append(cfg.Sprites.Roots, r)
			}
		}
	}
}
