package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/dusk-indust/lineage/internal/export"
	"github.com/dusk-indust/lineage/internal/orchestrator"
)

// errIssuesFound is returned by analyze --fail-on-issues when the graph is
// not clean.
var errIssuesFound = errors.New("lineage issues found")

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var (
		format       string
		output       string
		verbose      bool
		failOnIssues bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build the lineage graph of a project and report values with no terminal source.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			var wg sync.WaitGroup
			if verbose {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for ev := range p.Progress() {
						if ev.Unit == "" && ev.Status == orchestrator.ProgressWorking {
							fmt.Fprintln(cmd.ErrOrStderr(), orchestrator.FormatPhaseHeader(e.root, ev.Phase))
							continue
						}
						fmt.Fprintln(cmd.ErrOrStderr(), orchestrator.FormatProgress(ev))
					}
				}()
			}
			rep, runErr := p.Run(cmd.Context(), e.root)
			p.Close()
			wg.Wait()
			if rep == nil {
				return runErr
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			switch format {
			case "json":
				if err := export.WriteJSON(w, export.ExportRun(rep)); err != nil {
					return err
				}
			case "text":
				printReport(w, rep)
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			if runErr != nil {
				return fmt.Errorf("%d unit(s) failed: %w", len(multierr.Errors(runErr)), runErr)
			}
			if failOnIssues && !rep.Clean() {
				return errIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-unit progress to stderr")
	cmd.Flags().BoolVar(&failOnIssues, "fail-on-issues", false, "exit non-zero when any issue or dangling edge is found")
	return cmd
}

// printReport writes a human-readable summary of rep.
func printReport(w io.Writer, rep *orchestrator.Report) {
	fmt.Fprintf(w, "Analyzed %d unit(s) in %s\n", len(rep.Units), rep.Duration.Round(time.Millisecond))
	for _, u := range rep.Units {
		if u.Err != "" {
			fmt.Fprintf(w, "  ✗ %s: %s\n", u.File, u.Err)
		}
	}
	if rep.Stats != nil {
		fmt.Fprintf(w, "Graph: %d nodes, %d edges\n", rep.Stats.NodeCount, rep.Stats.EdgeCount)
	}
	if n := rep.Coverage.UnhandledTotal(); n > 0 {
		fmt.Fprintf(w, "Coverage: %d unhandled AST node(s) %v, %d unresolved identifier(s)\n",
			n, rep.Coverage.UnhandledTypes(), rep.Coverage.UnresolvedTotal())
	}

	if len(rep.Issues) == 0 {
		fmt.Fprintln(w, "No lineage issues.")
	} else {
		fmt.Fprintf(w, "%d issue(s):\n", len(rep.Issues))
		for _, is := range rep.Issues {
			fmt.Fprintf(w, "  %s:%d:%d %s %s: %s\n", is.File, is.Line, is.Column, is.Severity, is.Code, is.Message)
		}
	}
	for _, d := range rep.Dangling {
		fmt.Fprintf(w, "  dangling edge: %s\n", d)
	}
}
