package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/config"
	"github.com/dusk-indust/lineage/internal/graph"
	"github.com/dusk-indust/lineage/internal/observability"
	"github.com/dusk-indust/lineage/internal/orchestrator"
)

// defaultStorePath is where a kuzu store lives when storePath is unset.
const defaultStorePath = ".lineage/graph"

// globalFlags are shared by every subcommand. Set flags override lineage.yml.
type globalFlags struct {
	ProjectRoot string
	LogLevel    string
	Store       string
	StorePath   string
	Parser      string
	Workers     int
	MaxDepth    int
}

// env is the resolved configuration of one command invocation.
type env struct {
	root   string
	cfg    *config.ProjectConfig
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "lineage",
		Short:         "Data-flow lineage graphs and validation for JS/TS projects.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.ProjectRoot, "project-root", "C", ".", "path to the project to analyze")
	pf.StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.Store, "store", "", "graph store: memory or kuzu")
	pf.StringVar(&flags.StorePath, "store-path", "", "kuzu database directory (default .lineage/graph)")
	pf.StringVar(&flags.Parser, "parser", "", "parser: treesitter or estree")
	pf.IntVar(&flags.Workers, "workers", 0, "parallel units (default: number of CPUs)")
	pf.IntVar(&flags.MaxDepth, "max-depth", 0, "lineage traversal depth bound (default 256)")

	root.AddCommand(
		newAnalyzeCmd(&flags),
		newTraceCmd(&flags),
		newIssuesCmd(&flags),
		newServeMCPCmd(&flags),
		newVersionCmd(),
	)
	return root
}

// load resolves the project root, reads lineage.yml and applies flag
// overrides.
func (f *globalFlags) load(cmd *cobra.Command) (*env, error) {
	root, err := filepath.Abs(f.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
	if pf.Changed("store") {
		cfg.Store = f.Store
	}
	if pf.Changed("store-path") {
		cfg.StorePath = f.StorePath
	}
	if pf.Changed("parser") {
		cfg.Parser = f.Parser
	}
	if pf.Changed("workers") {
		cfg.Workers = f.Workers
	}
	if pf.Changed("max-depth") {
		cfg.MaxDepth = f.MaxDepth
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Log, zapcore.Lock(os.Stderr))
	if err != nil {
		return nil, err
	}
	return &env{root: root, cfg: cfg, logger: logger}, nil
}

// openStore opens the configured graph store.
func (e *env) openStore() (graph.Store, error) {
	if e.cfg.Store != config.StoreKuzu {
		return graph.NewMemStore(), nil
	}
	path := e.storePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store path: %w", err)
	}
	s, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	return s, nil
}

func (e *env) storePath() string {
	path := e.cfg.StorePath
	if path == "" {
		path = defaultStorePath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.root, path)
	}
	return path
}

// newParser returns the configured parser. The estree backend only reads
// serialized ASTs; the default also parses sources with tree-sitter.
func (e *env) newParser() ast.Parser {
	if e.cfg.Parser == config.ParserESTree {
		return ast.NewESTreeLoader()
	}
	return ast.NewMultiParser(ast.NewTreeSitterParser(), ast.NewESTreeLoader())
}

func (e *env) pipelineConfig() orchestrator.Config {
	cfg := orchestrator.ConfigFrom(e.cfg)
	// The graph store lives under the root; never analyze it.
	if rel, err := filepath.Rel(e.root, e.storePath()); err == nil {
		cfg.ExcludeDirs = append(cfg.ExcludeDirs, filepath.ToSlash(rel))
	}
	return cfg
}
