package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/lineage/internal/export"
	"github.com/dusk-indust/lineage/internal/graph"
)

// newIssuesCmd lists the issues of a persisted graph without re-analyzing.
func newIssuesCmd(flags *globalFlags) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "issues",
		Short: "List issues stored in a persisted (kuzu) graph.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.load(cmd)
			if err != nil {
				return err
			}
			defer e.logger.Sync() //nolint:errcheck

			path := e.storePath()
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no graph found at %s\nRun 'lineage analyze --store kuzu' first", path)
			}
			store, err := graph.NewKuzuFileStore(path)
			if err != nil {
				return fmt.Errorf("open graph: %w", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			if err := store.InitSchema(ctx); err != nil {
				return err
			}
			issues, err := store.QueryNodes(ctx, graph.NodeFilter{
				Kinds: []graph.NodeKind{graph.NodeKindIssue},
				File:  file,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return export.WriteJSON(w, issues)
			}
			for _, is := range issues {
				fmt.Fprintf(w, "%s:%d:%d %s %s: %s\n", is.File, is.Line, is.Column, is.Severity, is.Code, is.Message)
			}
			if len(issues) == 0 {
				fmt.Fprintln(w, "No lineage issues.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "only issues in this project-relative file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print issues as JSON")
	return cmd
}
