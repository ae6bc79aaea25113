package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/lineage/internal/extract"
	"github.com/dusk-indust/lineage/internal/graph"
)

// analyzeUnits builds and commits every file in parallel, at most
// cfg.Workers at a time. A failing unit never stops its siblings: failures
// are collected and returned together. Units not yet started when ctx is
// canceled are marked Skipped.
func (p *Pipeline) analyzeUnits(ctx context.Context, root string, files []string) ([]UnitReport, extract.Coverage, error) {
	reports := make([]UnitReport, len(files))
	coverage := make([]extract.Coverage, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)

	for i, rel := range files {
		p.progress.Emit(ProgressEvent{
			Phase:  PhaseAnalyze,
			Unit:   rel,
			Status: ProgressPending,
		})

		g.Go(func() error {
			if ctx.Err() != nil {
				reports[i] = UnitReport{File: rel, Skipped: true}
				return nil
			}
			p.progress.Emit(ProgressEvent{
				Phase:  PhaseAnalyze,
				Unit:   rel,
				Status: ProgressWorking,
			})

			reports[i], coverage[i], errs[i] = p.analyzeUnit(ctx, root, rel)
			if errs[i] != nil {
				p.logger.Warn("unit failed", zap.String("file", rel), zap.Error(errs[i]))
				p.progress.Emit(ProgressEvent{
					Phase:   PhaseAnalyze,
					Unit:    rel,
					Status:  ProgressFailed,
					Message: errs[i].Error(),
				})
				return nil
			}
			p.progress.Emit(ProgressEvent{
				Phase:   PhaseAnalyze,
				Unit:    rel,
				Status:  ProgressComplete,
				Message: fmt.Sprintf("%d nodes, %d edges", reports[i].Nodes, reports[i].Edges),
			})
			return nil
		})
	}
	_ = g.Wait() // workers report through errs

	var total extract.Coverage
	for _, c := range coverage {
		total.Merge(c)
	}
	return reports, total, multierr.Combine(errs...)
}

// analyzeUnit parses, builds, checks and commits one file. Once the batch is
// built the commit is not interrupted by cancellation, so a unit is either
// fully committed or not at all.
func (p *Pipeline) analyzeUnit(ctx context.Context, root, rel string) (UnitReport, extract.Coverage, error) {
	ctx, span := startUnitSpan(ctx, rel)
	defer span.End()

	start := time.Now()
	rep := UnitReport{File: rel}
	var cov extract.Coverage

	err := func() error {
		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		prog, err := p.parser.Parse(ctx, rel, src)
		if err != nil {
			return fmt.Errorf("parse: %w", err)
		}
		res, err := p.analyzer.AnalyzeUnit(prog, rel)
		if err != nil {
			return err
		}
		if dangling := graph.CheckBatch(res.Batch); len(dangling) > 0 {
			for _, d := range dangling {
				p.logger.Error("dangling edge in unit", zap.String("file", rel), zap.Stringer("edge", d))
			}
			return fmt.Errorf("%d dangling edges", len(dangling))
		}
		if err := p.store.Commit(context.WithoutCancel(ctx), res.Batch); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		extract.RecordCoverage(ctx, res.Coverage)

		cov = res.Coverage
		rep.Nodes, rep.Edges = res.Batch.Len()
		rep.Unhandled = cov.UnhandledTotal()
		rep.Unresolved = cov.UnresolvedTotal()
		return nil
	}()

	rep.Duration = time.Since(start)
	recordUnitDuration(ctx, rep.Duration, err == nil)
	setUnitSpanResult(span, rep, err)
	if err != nil {
		err = fmt.Errorf("orchestrator: unit %s: %w", rel, err)
		rep.Err = err.Error()
		// An empty batch replaces whatever an earlier run stored for rel.
		if cerr := p.store.Commit(context.WithoutCancel(ctx), graph.NewBatch(rel)); cerr != nil {
			p.logger.Error("clear failed unit", zap.String("file", rel), zap.Error(cerr))
		}
	}
	return rep, cov, err
}
