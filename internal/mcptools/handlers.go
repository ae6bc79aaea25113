package mcptools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/config"
	"github.com/dusk-indust/lineage/internal/export"
	"github.com/dusk-indust/lineage/internal/graph"
	"github.com/dusk-indust/lineage/internal/orchestrator"
	"github.com/dusk-indust/lineage/internal/validate"
)

const defaultQueryLimit = 50

// LineageService holds the graph store and parser used by MCP tool handlers.
// Every analyze_project call commits into the same store.
type LineageService struct {
	store  graph.Store
	parser ast.Parser
	logger *zap.Logger

	mu sync.Mutex // serializes analyze_project runs
}

// NewLineageService creates a LineageService with the given store and parser.
func NewLineageService(store graph.Store, parser ast.Parser, logger *zap.Logger) *LineageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineageService{store: store, parser: parser, logger: logger}
}

// AnalyzeProject runs the full pipeline over a project and returns a summary.
// Units that fail are listed; they do not fail the call.
func (s *LineageService) AnalyzeProject(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeProjectInput,
) (*mcp.CallToolResult, AnalyzeProjectOutput, error) {
	if input.RepoPath == "" {
		return nil, AnalyzeProjectOutput{}, fmt.Errorf("repoPath is required")
	}
	info, err := os.Stat(input.RepoPath)
	if err != nil {
		return nil, AnalyzeProjectOutput{}, fmt.Errorf("cannot access repoPath: %w", err)
	}
	if !info.IsDir() {
		return nil, AnalyzeProjectOutput{}, fmt.Errorf("repoPath is not a directory: %s", input.RepoPath)
	}

	pc, err := config.Load(input.RepoPath)
	if err != nil {
		return nil, AnalyzeProjectOutput{}, err
	}
	cfg := orchestrator.ConfigFrom(pc)
	cfg.ExcludeDirs = append(cfg.ExcludeDirs, input.ExcludeDirs...)

	s.mu.Lock()
	defer s.mu.Unlock()

	p := orchestrator.NewPipeline(cfg, s.store, s.parser, s.logger)
	defer p.Close()

	rep, err := p.Run(ctx, input.RepoPath)
	if err != nil && (rep == nil || rep.Stats == nil) {
		return nil, AnalyzeProjectOutput{}, err
	}

	out := AnalyzeProjectOutput{
		Units:  len(rep.Units),
		Issues: len(rep.Issues),
		Stats:  *rep.Stats,
	}
	for _, u := range rep.Units {
		if u.Err != "" {
			out.Failed = append(out.Failed, u.Err)
		}
	}

	if input.Persist {
		path := filepath.Join(input.RepoPath, ".lineage", "graph")
		if err := persistGraph(ctx, s.store, path); err != nil {
			s.logger.Warn("failed to persist graph", zap.String("path", path), zap.Error(err))
		}
	}
	return nil, out, nil
}

// persistGraph copies the whole graph into a file-based KuzuDB at path,
// replacing any previous copy.
func persistGraph(ctx context.Context, src graph.Store, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove old graph: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}

	dst, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return fmt.Errorf("open file store: %w", err)
	}
	defer dst.Close()

	if err := dst.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	nodes, err := src.QueryNodes(ctx, graph.NodeFilter{})
	if err != nil {
		return fmt.Errorf("query nodes: %w", err)
	}
	edges, err := src.AllEdges(ctx)
	if err != nil {
		return fmt.Errorf("list edges: %w", err)
	}
	b := graph.NewBatch("")
	for _, n := range nodes {
		b.BufferNode(n)
	}
	for _, e := range edges {
		b.BufferEdge(e)
	}
	return dst.Commit(ctx, b)
}

// QueryNodes lists nodes by kind, file and name substring.
func (s *LineageService) QueryNodes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryNodesInput,
) (*mcp.CallToolResult, QueryNodesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	filter := graph.NodeFilter{File: input.File}
	if input.Kind != "" {
		kind := graph.NodeKind(strings.ToUpper(input.Kind))
		if !kind.Valid() {
			return nil, QueryNodesOutput{}, fmt.Errorf("unknown node kind %q", input.Kind)
		}
		filter.Kinds = []graph.NodeKind{kind}
	}
	if input.Query == "" {
		filter.Limit = limit
	}

	nodes, err := s.store.QueryNodes(ctx, filter)
	if err != nil {
		return nil, QueryNodesOutput{}, fmt.Errorf("query nodes: %w", err)
	}
	if input.Query != "" {
		var matched []graph.Node
		for _, n := range nodes {
			if strings.Contains(n.Name, input.Query) {
				matched = append(matched, n)
				if len(matched) == limit {
					break
				}
			}
		}
		nodes = matched
	}
	if nodes == nil {
		nodes = []graph.Node{}
	}
	return nil, QueryNodesOutput{Nodes: nodes, Total: len(nodes)}, nil
}

// GetNode returns one node with its edges.
func (s *LineageService) GetNode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetNodeInput,
) (*mcp.CallToolResult, GetNodeOutput, error) {
	if input.NodeID == "" {
		return nil, GetNodeOutput{}, fmt.Errorf("nodeId is required")
	}
	n, err := s.store.GetNode(ctx, input.NodeID)
	if err != nil {
		return nil, GetNodeOutput{}, fmt.Errorf("get node: %w", err)
	}
	if n == nil {
		return nil, GetNodeOutput{}, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, input.NodeID)
	}
	out, err := s.store.GetOutgoingEdges(ctx, n.ID)
	if err != nil {
		return nil, GetNodeOutput{}, fmt.Errorf("outgoing edges: %w", err)
	}
	in, err := s.store.GetIncomingEdges(ctx, n.ID)
	if err != nil {
		return nil, GetNodeOutput{}, fmt.Errorf("incoming edges: %w", err)
	}
	return nil, GetNodeOutput{Node: *n, Outgoing: nonNil(out), Incoming: nonNil(in)}, nil
}

// TraceLineage follows a value to its terminal source.
func (s *LineageService) TraceLineage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TraceLineageInput,
) (*mcp.CallToolResult, TraceLineageOutput, error) {
	if input.NodeID == "" {
		return nil, TraceLineageOutput{}, fmt.Errorf("nodeId is required")
	}
	v := validate.NewValidator(s.store, s.logger, validate.Options{MaxDepth: input.MaxDepth})
	res := v.FindLeaf(ctx, input.NodeID)
	if res.Err != nil {
		return nil, TraceLineageOutput{}, res.Err
	}
	if res.StartNode == nil {
		return nil, TraceLineageOutput{}, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, input.NodeID)
	}

	out := TraceLineageOutput{
		Status:        res.Status.String(),
		Leaf:          res.Leaf,
		Chain:         res.Chain,
		Cycle:         res.Cycle,
		DepthExceeded: res.DepthExceeded,
	}
	if input.Diagram {
		depth := input.MaxDepth
		if depth <= 0 {
			depth = validate.DefaultMaxDepth
		}
		diagram, err := export.GenerateLineage(ctx, s.store, input.NodeID, depth)
		if err != nil {
			return nil, TraceLineageOutput{}, err
		}
		out.Mermaid = diagram
	}
	return nil, out, nil
}

// ValidateGraph validates the current graph without committing issues.
func (s *LineageService) ValidateGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidateGraphInput,
) (*mcp.CallToolResult, ValidateGraphOutput, error) {
	opts := validate.Options{MaxDepth: input.MaxDepth}
	for _, k := range input.StartKinds {
		kind := graph.NodeKind(strings.ToUpper(k))
		if !kind.Valid() {
			return nil, ValidateGraphOutput{}, fmt.Errorf("unknown node kind %q", k)
		}
		opts.StartKinds = append(opts.StartKinds, kind)
	}

	issues, err := validate.NewValidator(s.store, s.logger, opts).ValidateStore(ctx, s.store)
	if err != nil {
		return nil, ValidateGraphOutput{}, err
	}
	if issues == nil {
		issues = []graph.Node{}
	}
	return nil, ValidateGraphOutput{Issues: issues, Total: len(issues)}, nil
}

func nonNil(edges []graph.Edge) []graph.Edge {
	if edges == nil {
		return []graph.Edge{}
	}
	return edges
}
