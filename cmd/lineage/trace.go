package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/lineage/internal/export"
	"github.com/dusk-indust/lineage/internal/graph"
	"github.com/dusk-indust/lineage/internal/orchestrator"
	"github.com/dusk-indust/lineage/internal/validate"
)

func newTraceCmd(flags *globalFlags) *cobra.Command {
	var mermaid bool

	cmd := &cobra.Command{
		Use:   "trace <node-id | file:variable>",
		Short: "Follow one value back to its terminal source.",
		Long: "Analyzes the project, then follows the first assignment or derivation edge\n" +
			"from the given node until a literal, call, function, class or import is\n" +
			"reached. A module-level variable can be named as file:variable.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.load(cmd)
			if err != nil {
				return err
			}
			defer e.logger.Sync() //nolint:errcheck

			store, err := e.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			parser := e.newParser()
			defer parser.Close()

			p := orchestrator.NewPipeline(e.pipelineConfig(), store, parser, e.logger)
			_, runErr := p.Run(cmd.Context(), e.root)
			p.Close()
			if runErr != nil {
				e.logger.Warn("analysis incomplete", zap.Error(runErr))
			}

			ctx := cmd.Context()
			id, err := resolveTarget(ctx, store, args[0])
			if err != nil {
				return err
			}
			v := validate.NewValidator(store, e.logger, validate.Options{MaxDepth: e.cfg.MaxDepth})
			res := v.FindLeaf(ctx, id)
			if res.Err != nil {
				return res.Err
			}

			w := cmd.OutOrStdout()
			printTrace(w, res)
			if mermaid {
				depth := e.cfg.MaxDepth
				if depth <= 0 {
					depth = validate.DefaultMaxDepth
				}
				diagram, err := export.GenerateLineage(ctx, store, id, depth)
				if err != nil {
					return err
				}
				fmt.Fprintln(w)
				fmt.Fprint(w, diagram)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&mermaid, "mermaid", false, "also print a Mermaid diagram of every upstream value")
	return cmd
}

// resolveTarget accepts a node id or file:variable naming a module-level
// variable.
func resolveTarget(ctx context.Context, r graph.Reader, arg string) (string, error) {
	n, err := r.GetNode(ctx, arg)
	if err != nil {
		return "", err
	}
	if n != nil {
		return arg, nil
	}
	if i := strings.LastIndex(arg, ":"); i > 0 {
		id := graph.DeclarationID(arg[:i], "global", graph.NodeKindVariable, arg[i+1:])
		if n, err := r.GetNode(ctx, id); err != nil {
			return "", err
		} else if n != nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %s", graph.ErrNodeNotFound, arg)
}

func printTrace(w io.Writer, res validate.Result) {
	for i, id := range res.Chain {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", i), id)
	}
	switch {
	case res.Status == validate.Found:
		fmt.Fprintf(w, "found: %s\n", res.Leaf)
	case res.Cycle:
		fmt.Fprintln(w, "not found: cycle")
	case res.DepthExceeded:
		fmt.Fprintln(w, "not found: depth bound reached")
	default:
		fmt.Fprintln(w, "not found: no terminal source")
	}
}
