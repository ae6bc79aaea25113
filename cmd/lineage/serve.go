package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/lineage/internal/mcptools"
)

func newServeMCPCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Expose the lineage tools over MCP (stdio, or HTTP with --http).",
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

			svc := mcptools.NewLineageService(store, parser, e.logger)
			if addr == "" {
				return mcptools.RunMCPServerStdio(cmd.Context(), svc)
			}
			e.logger.Info("serving MCP over HTTP", zap.String("addr", addr))
			return mcptools.RunMCPServer(cmd.Context(), svc, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "http", "", "listen address for streamable HTTP (e.g. :8080); stdio when empty")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
