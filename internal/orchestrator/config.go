package orchestrator

import (
	"runtime"
	"strings"

	"github.com/dusk-indust/lineage/internal/config"
	"github.com/dusk-indust/lineage/internal/graph"
	"github.com/dusk-indust/lineage/internal/validate"
)

// Config holds runtime configuration for a lineage run.
type Config struct {
	// Workers bounds the number of units analyzed at once.
	Workers int

	// Validation settings. Zero values select the validator defaults.
	MaxDepth   int
	StartKinds []graph.NodeKind

	// ExcludeDirs are directory names or root-relative paths never walked.
	ExcludeDirs []string

	// Extensions restricts discovery to files ending in one of these
	// suffixes. Empty means every file a parser supports.
	Extensions []string
}

// ConfigFrom maps a project file onto a run configuration.
func ConfigFrom(pc *config.ProjectConfig) Config {
	cfg := Config{
		Workers:     pc.Workers,
		MaxDepth:    pc.MaxDepth,
		ExcludeDirs: pc.ExcludeDirs,
	}
	for _, ext := range pc.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions = append(cfg.Extensions, ext)
	}
	for _, k := range pc.StartKinds {
		cfg.StartKinds = append(cfg.StartKinds, graph.NodeKind(strings.ToUpper(k)))
	}
	return cfg
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

func (c Config) validatorOptions() validate.Options {
	return validate.Options{
		MaxDepth:   c.MaxDepth,
		StartKinds: c.StartKinds,
		Workers:    c.Workers,
	}
}
