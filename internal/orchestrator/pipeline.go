package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/builder"
	"github.com/dusk-indust/lineage/internal/graph"
	"github.com/dusk-indust/lineage/internal/validate"
)

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// Pipeline implements Orchestrator. It discovers units, fans them out to a
// bounded worker pool that builds and commits each one, then runs data-flow
// validation and an integrity check over the committed graph.
type Pipeline struct {
	cfg       Config
	store     graph.Store
	parser    ast.Parser
	analyzer  *builder.Analyzer
	validator *validate.Validator
	logger    *zap.Logger
	progress  *ProgressReporter
}

// NewPipeline creates a Pipeline committing into store. The caller keeps
// ownership of store and parser.
func NewPipeline(cfg Config, store graph.Store, parser ast.Parser, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		parser:    parser,
		analyzer:  builder.NewAnalyzer(logger),
		validator: validate.NewValidator(store, logger, cfg.validatorOptions()),
		logger:    logger,
		progress:  NewProgressReporter(),
	}
}

// Run analyzes every unit under root and validates the resulting graph.
//
// Unit failures do not stop the run: the report is returned together with
// the combined unit errors. Cancellation stops work not yet started and
// returns the partial report with the context error. Validation only starts
// after every unit is committed.
func (p *Pipeline) Run(ctx context.Context, root string) (*Report, error) {
	start := time.Now()
	rep := &Report{Root: root}
	defer func() { rep.Duration = time.Since(start) }()

	if err := p.store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("orchestrator: init schema: %w", err)
	}

	p.phase(PhaseDiscover, ProgressWorking, "")
	files, err := Discover(root, p.cfg, p.parser.Supports)
	if err != nil {
		p.phase(PhaseDiscover, ProgressFailed, err.Error())
		return nil, err
	}
	p.phase(PhaseDiscover, ProgressComplete, fmt.Sprintf("%d files", len(files)))
	p.logger.Info("discovered units", zap.String("root", root), zap.Int("files", len(files)))
	if err := p.pruneRemoved(ctx, files); err != nil {
		p.phase(PhaseDiscover, ProgressFailed, err.Error())
		return nil, err
	}

	p.phase(PhaseAnalyze, ProgressWorking, "")
	units, coverage, unitErr := p.analyzeUnits(ctx, root, files)
	rep.Units, rep.Coverage = units, coverage
	p.phase(PhaseAnalyze, ProgressComplete, fmt.Sprintf("%d failed", rep.Failed()))
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("orchestrator: %w", err)
	}

	p.phase(PhaseValidate, ProgressWorking, "")
	issues, err := p.validator.ValidateStore(ctx, p.store)
	rep.Issues = issues
	if cerr := p.replaceIssues(context.WithoutCancel(ctx), issues); cerr != nil {
		p.phase(PhaseValidate, ProgressFailed, cerr.Error())
		return rep, fmt.Errorf("orchestrator: commit issues: %w", cerr)
	}
	if err != nil {
		p.phase(PhaseValidate, ProgressFailed, err.Error())
		return rep, fmt.Errorf("orchestrator: %w", err)
	}
	p.phase(PhaseValidate, ProgressComplete, fmt.Sprintf("%d issues", len(issues)))

	p.phase(PhaseIntegrity, ProgressWorking, "")
	dangling, err := graph.CheckIntegrity(ctx, p.store)
	if err != nil {
		p.phase(PhaseIntegrity, ProgressFailed, err.Error())
		return rep, fmt.Errorf("orchestrator: %w", err)
	}
	rep.Dangling = dangling
	for _, d := range dangling {
		p.logger.Error("dangling edge", zap.Stringer("edge", d))
	}
	p.phase(PhaseIntegrity, ProgressComplete, fmt.Sprintf("%d dangling edges", len(dangling)))

	if rep.Stats, err = p.store.Stats(ctx); err != nil {
		return rep, fmt.Errorf("orchestrator: stats: %w", err)
	}
	p.logger.Info("run finished",
		zap.Int("units", len(rep.Units)),
		zap.Int("failed", rep.Failed()),
		zap.Int("issues", len(rep.Issues)),
		zap.Int("nodes", rep.Stats.NodeCount),
		zap.Int("edges", rep.Stats.EdgeCount),
	)
	return rep, unitErr
}

// pruneRemoved drops every unit in the store whose file was not discovered
// in this run, so deleted sources leave no nodes behind.
func (p *Pipeline) pruneRemoved(ctx context.Context, files []string) error {
	modules, err := p.store.QueryNodes(ctx, graph.NodeFilter{Kinds: []graph.NodeKind{graph.NodeKindModule}})
	if err != nil {
		return fmt.Errorf("orchestrator: list stored units: %w", err)
	}
	current := make(map[string]bool, len(files))
	for _, f := range files {
		current[f] = true
	}
	for _, m := range modules {
		if current[m.File] {
			continue
		}
		n, err := p.store.DeleteNodes(context.WithoutCancel(ctx), graph.NodeFilter{File: m.File})
		if err != nil {
			return fmt.Errorf("orchestrator: drop removed unit %s: %w", m.File, err)
		}
		p.logger.Info("dropped removed unit", zap.String("file", m.File), zap.Int("nodes", n))
	}
	return nil
}

// replaceIssues removes the issues of earlier runs and commits issues.
func (p *Pipeline) replaceIssues(ctx context.Context, issues []graph.Node) error {
	if _, err := p.store.DeleteNodes(ctx, graph.NodeFilter{Kinds: []graph.NodeKind{graph.NodeKindIssue}}); err != nil {
		return fmt.Errorf("clear issues: %w", err)
	}
	return p.store.Commit(ctx, validate.IssueBatch(issues))
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this when the
// pipeline is no longer needed.
func (p *Pipeline) Close() {
	p.progress.Close()
}

func (p *Pipeline) phase(ph Phase, status ProgressStatus, msg string) {
	p.progress.Emit(ProgressEvent{Phase: ph, Status: status, Message: msg})
}
