package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewLineageMCPServer creates an MCP server with all 5 lineage tools registered.
func NewLineageMCPServer(svc *LineageService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "lineage",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_project",
		Description: "Analyze a JS/TS project: parse every source file, build the data-flow graph, commit it and validate that every variable traces back to a terminal source. Returns counts and failed files.",
	}, svc.AnalyzeProject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_nodes",
		Description: "List graph nodes filtered by kind, file and name substring. Use kind ISSUE to list validation issues.",
	}, svc.QueryNodes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_node",
		Description: "Return one node by id together with its incoming and outgoing edges.",
	}, svc.GetNode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "trace_lineage",
		Description: "Follow a variable or parameter through its assignments and derivations until a literal, call, function, class or import is reached. Optionally returns a Mermaid diagram.",
	}, svc.TraceLineage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_graph",
		Description: "Re-run data-flow validation over the current graph and return ERR_NO_LEAF_NODE issues without storing them.",
	}, svc.ValidateGraph)

	return server
}

// RunMCPServer starts an HTTP server exposing the lineage MCP tools.
func RunMCPServer(ctx context.Context, svc *LineageService, addr string) error {
	server := NewLineageMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *LineageService) error {
	return NewLineageMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
