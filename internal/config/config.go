package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Parser backends.
const (
	ParserTreeSitter = "treesitter"
	ParserESTree     = "estree"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreKuzu   = "kuzu"
)

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // console | json
	File   string `yaml:"file,omitempty"`   // rotated file sink; stderr when empty
}

// ProjectConfig holds project-level settings loaded from lineage.yml.
type ProjectConfig struct {
	Workers     int       `yaml:"workers,omitempty"`
	MaxDepth    int       `yaml:"maxDepth,omitempty"`
	Parser      string    `yaml:"parser,omitempty"`
	Store       string    `yaml:"store,omitempty"`
	StorePath   string    `yaml:"storePath,omitempty"`
	ExcludeDirs []string  `yaml:"excludeDirs,omitempty"`
	Extensions  []string  `yaml:"extensions,omitempty"`
	StartKinds  []string  `yaml:"startKinds,omitempty"`
	Log         LogConfig `yaml:"log,omitempty"`
}

// Load attempts to read lineage.yml or lineage.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"lineage.yml", "lineage.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// Validate rejects unknown backend names. Empty values select defaults.
func (c *ProjectConfig) Validate() error {
	switch c.Parser {
	case "", ParserTreeSitter, ParserESTree:
	default:
		return fmt.Errorf("unknown parser %q", c.Parser)
	}
	switch c.Store {
	case "", StoreMemory, StoreKuzu:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Workers < 0 || c.MaxDepth < 0 {
		return fmt.Errorf("workers and maxDepth must not be negative")
	}
	return nil
}
