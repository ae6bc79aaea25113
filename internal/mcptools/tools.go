package mcptools

import "github.com/dusk-indust/lineage/internal/graph"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// AnalyzeProjectInput is the input for the analyze_project MCP tool.
type AnalyzeProjectInput struct {
	RepoPath    string   `json:"repoPath" jsonschema:"the absolute path to the JS/TS project to analyze"`
	ExcludeDirs []string `json:"excludeDirs,omitempty" jsonschema:"directories to exclude in addition to lineage.yml (e.g. dist, coverage)"`
	Persist     bool     `json:"persist,omitempty" jsonschema:"also write the graph to .lineage/graph under repoPath"`
}

// AnalyzeProjectOutput is the result of the analyze_project MCP tool.
type AnalyzeProjectOutput struct {
	Units  int              `json:"units"`
	Failed []string         `json:"failed,omitempty"`
	Issues int              `json:"issues"`
	Stats  graph.GraphStats `json:"stats"`
}

// QueryNodesInput is the input for the query_nodes MCP tool.
type QueryNodesInput struct {
	Kind  string `json:"kind,omitempty" jsonschema:"filter by node kind, e.g. VARIABLE, CALL, EXPRESSION, ISSUE"`
	File  string `json:"file,omitempty" jsonschema:"filter by project-relative file path"`
	Query string `json:"query,omitempty" jsonschema:"substring match on node name"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 50)"`
}

// QueryNodesOutput is the result of the query_nodes MCP tool.
type QueryNodesOutput struct {
	Nodes []graph.Node `json:"nodes"`
	Total int          `json:"total"`
}

// GetNodeInput is the input for the get_node MCP tool.
type GetNodeInput struct {
	NodeID string `json:"nodeId" jsonschema:"the node id"`
}

// GetNodeOutput is the result of the get_node MCP tool.
type GetNodeOutput struct {
	Node     graph.Node   `json:"node"`
	Outgoing []graph.Edge `json:"outgoing"`
	Incoming []graph.Edge `json:"incoming"`
}

// TraceLineageInput is the input for the trace_lineage MCP tool.
type TraceLineageInput struct {
	NodeID   string `json:"nodeId" jsonschema:"the id of the variable or parameter to trace"`
	MaxDepth int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 256)"`
	Diagram  bool   `json:"diagram,omitempty" jsonschema:"include a Mermaid diagram of every upstream value"`
}

// TraceLineageOutput is the result of the trace_lineage MCP tool.
type TraceLineageOutput struct {
	Status        string   `json:"status"`
	Leaf          string   `json:"leaf,omitempty"`
	Chain         []string `json:"chain"`
	Cycle         bool     `json:"cycle,omitempty"`
	DepthExceeded bool     `json:"depthExceeded,omitempty"`
	Mermaid       string   `json:"mermaid,omitempty"`
}

// ValidateGraphInput is the input for the validate_graph MCP tool.
type ValidateGraphInput struct {
	StartKinds []string `json:"startKinds,omitempty" jsonschema:"node kinds to validate (default: VARIABLE)"`
	MaxDepth   int      `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 256)"`
}

// ValidateGraphOutput is the result of the validate_graph MCP tool.
type ValidateGraphOutput struct {
	Issues []graph.Node `json:"issues"`
	Total  int          `json:"total"`
}
