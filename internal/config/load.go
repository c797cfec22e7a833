package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
// f may be nil when no flags were registered.
func Load(f *Flags) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := f.ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	f.Apply(cfg)

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./" + FileName,
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "c2dbake")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "c2dbake")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "c2dbake")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "c2dbake")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
// Relative sprite roots are resolved against the file's directory.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	defaults := cfg.Sprites.Roots
	cfg.Sprites.Roots = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	if cfg.Sprites.Roots == nil {
		cfg.Sprites.Roots = defaults
		return nil
	}
	base := filepath.Dir(path)
	for i, r := range cfg.Sprites.Roots {
		if !filepath.IsAbs(r) {
			cfg.Sprites.Roots[i] = filepath.Join(base, r)
		}
	}
	return nil
}
