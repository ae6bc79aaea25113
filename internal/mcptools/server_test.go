//go:build cgo

package mcptools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/graph"
)

// fixtureAbsPath returns the absolute path to the js_project test fixture.
func fixtureAbsPath(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs("../../testdata/fixtures/js_project")
	require.NoError(t, err)
	return abs
}

// setupServerClient wires an MCP server and client together using in-memory
// transports.
func setupServerClient(t *testing.T) (*mcp.ClientSession, *graph.MemStore) {
	t.Helper()

	store := graph.NewMemStore()
	parser := ast.NewMultiParser(ast.NewTreeSitterParser(), ast.NewESTreeLoader())
	t.Cleanup(func() { parser.Close() })
	server := NewLineageMCPServer(NewLineageService(store, parser, nil))

	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})
	return session, store
}

// callTool invokes name and decodes its structured output into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args, out any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	if result.IsError || out == nil {
		return result
	}
	require.NotNil(t, result.StructuredContent, "expected structured content from %s", name)
	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
	return result
}

func analyzeFixture(t *testing.T, session *mcp.ClientSession) AnalyzeProjectOutput {
	t.Helper()
	var out AnalyzeProjectOutput
	res := callTool(t, session, "analyze_project", AnalyzeProjectInput{RepoPath: fixtureAbsPath(t)}, &out)
	require.False(t, res.IsError, "analyze_project should succeed")
	return out
}

var orphanID = graph.DeclarationID("src/util.ts", "global", graph.NodeKindVariable, "orphan")

// ---------------------------------------------------------------------------
// Tool registration
// ---------------------------------------------------------------------------

func TestMCPListTools(t *testing.T) {
	session, _ := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	assert.Equal(t, []string{
		"analyze_project",
		"get_node",
		"query_nodes",
		"trace_lineage",
		"validate_graph",
	}, names)
}

// ---------------------------------------------------------------------------
// Tools over the analyzed fixture
// ---------------------------------------------------------------------------

func TestMCPAnalyzeProject(t *testing.T) {
	session, _ := setupServerClient(t)
	out := analyzeFixture(t, session)

	assert.Equal(t, 3, out.Units)
	assert.Empty(t, out.Failed)
	assert.Positive(t, out.Issues)
	assert.Equal(t, out.Issues, out.Stats.IssueCount)
	assert.Positive(t, out.Stats.EdgeCount)
}

func TestMCPAnalyzeProject_BadPath(t *testing.T) {
	session, _ := setupServerClient(t)
	res := callTool(t, session, "analyze_project", AnalyzeProjectInput{RepoPath: "/definitely/not/here"}, nil)
	assert.True(t, res.IsError)
}

func TestMCPQueryNodes(t *testing.T) {
	session, _ := setupServerClient(t)
	analyzeFixture(t, session)

	var out QueryNodesOutput
	callTool(t, session, "query_nodes", QueryNodesInput{Kind: "function", Query: "greet"}, &out)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "src/app.js", out.Nodes[0].File)

	var issues QueryNodesOutput
	callTool(t, session, "query_nodes", QueryNodesInput{Kind: "ISSUE", Limit: 100}, &issues)
	assert.Positive(t, issues.Total)

	res := callTool(t, session, "query_nodes", QueryNodesInput{Kind: "widget"}, nil)
	assert.True(t, res.IsError)
}

func TestMCPGetNode(t *testing.T) {
	session, _ := setupServerClient(t)
	analyzeFixture(t, session)

	id := graph.DeclarationID("src/app.js", "global", graph.NodeKindVariable, "total")
	var out GetNodeOutput
	callTool(t, session, "get_node", GetNodeInput{NodeID: id}, &out)
	assert.Equal(t, graph.NodeKindVariable, out.Node.Kind)
	require.NotEmpty(t, out.Outgoing)
	assert.Equal(t, graph.EdgeAssignedFrom, out.Outgoing[0].Type)

	res := callTool(t, session, "get_node", GetNodeInput{NodeID: "missing"}, nil)
	assert.True(t, res.IsError)
}

func TestMCPTraceLineage(t *testing.T) {
	session, _ := setupServerClient(t)
	analyzeFixture(t, session)

	total := graph.DeclarationID("src/app.js", "global", graph.NodeKindVariable, "total")
	var found TraceLineageOutput
	callTool(t, session, "trace_lineage", TraceLineageInput{NodeID: total, Diagram: true}, &found)
	assert.Equal(t, "found", found.Status)
	assert.Equal(t, total, found.Chain[0])
	assert.Contains(t, found.Mermaid, "flowchart LR")

	var missing TraceLineageOutput
	callTool(t, session, "trace_lineage", TraceLineageInput{NodeID: orphanID}, &missing)
	assert.Equal(t, "not_found", missing.Status)
	assert.Equal(t, []string{orphanID}, missing.Chain)

	res := callTool(t, session, "trace_lineage", TraceLineageInput{NodeID: "nope"}, nil)
	assert.True(t, res.IsError)
}

func TestMCPValidateGraph(t *testing.T) {
	session, _ := setupServerClient(t)
	analyzeFixture(t, session)

	var out ValidateGraphOutput
	callTool(t, session, "validate_graph", ValidateGraphInput{}, &out)
	targets := make(map[string]bool)
	for _, is := range out.Issues {
		targets[is.Target] = true
	}
	assert.True(t, targets[orphanID])
	assert.Equal(t, len(out.Issues), out.Total)
}

func TestMCPCallUnknownTool(t *testing.T) {
	session, _ := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nonexistent_tool",
		Arguments: map[string]any{},
	})
	// The SDK may fail at the protocol level or set IsError. Accept either.
	if err != nil {
		return
	}
	require.NotNil(t, result)
	assert.True(t, result.IsError, "calling an unknown tool should set IsError")
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func TestPersistGraph(t *testing.T) {
	ctx := context.Background()
	src := graph.NewMemStore()
	b := graph.NewBatch("m.js")
	b.BufferNode(graph.Node{ID: "x", Kind: graph.NodeKindVariable, Name: "x"})
	b.BufferNode(graph.Node{ID: "one", Kind: graph.NodeKindLiteral, Value: "1", ValueKind: graph.ValueString})
	b.BufferEdge(graph.Edge{Type: graph.EdgeAssignedFrom, Src: "x", Dst: "one"})
	require.NoError(t, src.Commit(ctx, b))

	path := filepath.Join(t.TempDir(), ".lineage", "graph")
	require.NoError(t, persistGraph(ctx, src, path))

	dst, err := graph.NewKuzuFileStore(path)
	require.NoError(t, err)
	defer dst.Close()
	require.NoError(t, dst.InitSchema(ctx))

	stats, err := dst.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
}
