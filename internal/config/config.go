// Package config loads the optional macrolens configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where commands look for configuration when no
// explicit path is given.
const DefaultPath = ".macrolens.yaml"

// Config is the on-disk configuration.
type Config struct {
	Safety SafetyConfig `yaml:"safety"`
	Rules  RulesConfig  `yaml:"rules"`
}

// SafetyConfig controls the safety-tagging convention.
type SafetyConfig struct {
	// Macros lists the statement macros that mark an unsafe block.
	Macros []string `yaml:"macros"`
}

// RulesConfig controls the pattern library.
type RulesConfig struct {
	// Disabled lists rule names excluded from conversion passes.
	Disabled []string `yaml:"disabled"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Safety: SafetyConfig{Macros: []string{"unsafe"}},
	}
}

// Load reads configuration from path. An empty path means DefaultPath,
// and a missing file at the default path is not an error; an explicit
// path must exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
