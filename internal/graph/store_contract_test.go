package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory returns a fresh Store with an initialized schema.
type storeFactory func(t *testing.T) Store

// sampleBatch builds a small, well-formed unit:
//
//	const total = price * 2;
func sampleBatch(file string) *Batch {
	b := NewBatch(file)
	mod := ModuleID(file)
	total := DeclarationID(file, "global", NodeKindVariable, "total")
	price := DeclarationID(file, "global", NodeKindVariable, "price")
	expr := ExpressionID(ExprBinary, file, Span{Line: 1, Column: 14, EndLine: 1, EndColumn: 23})
	lit := LiteralID(file, 1, 22)

	b.BufferNode(Node{ID: mod, Kind: NodeKindModule, File: file, Line: 1, Column: 0})
	b.BufferNode(Node{ID: total, Kind: NodeKindVariable, File: file, Line: 1, Column: 6, Name: "total"})
	b.BufferNode(Node{ID: price, Kind: NodeKindVariable, File: file, Line: 1, Column: 0, Name: "price"})
	b.BufferNode(Node{ID: expr, Kind: NodeKindExpression, File: file, Line: 1, Column: 14,
		ExpressionKind: ExprBinary, Operator: "*", Unresolved: 1})
	b.BufferNode(Node{ID: lit, Kind: NodeKindLiteral, File: file, Line: 1, Column: 22,
		Value: "two", ValueKind: ValueString})

	b.BufferEdge(Edge{Type: EdgeContains, Src: mod, Dst: total})
	b.BufferEdge(Edge{Type: EdgeContains, Src: mod, Dst: price})
	b.BufferEdge(Edge{Type: EdgeAssignedFrom, Src: total, Dst: expr})
	b.BufferEdge(Edge{Type: EdgeDerivesFrom, Src: expr, Dst: price})
	b.BufferEdge(Edge{Type: EdgeDerivesFrom, Src: expr, Dst: lit})
	return b
}

// issueBatch reports the "total" variable of sampleBatch(file). Like the
// validator's batches it belongs to no file.
func issueBatch(file string) *Batch {
	target := DeclarationID(file, "global", NodeKindVariable, "total")
	id := IssueID(CodeNoLeafNode, target)
	b := NewBatch("")
	b.BufferNode(Node{ID: id, Kind: NodeKindIssue, File: file, Line: 1, Column: 6,
		Severity: SeverityError, Code: CodeNoLeafNode, Target: target})
	b.BufferEdge(Edge{Type: EdgeAffects, Src: id, Dst: target})
	return b
}

// runStoreContract exercises the behavior every Store implementation shares.
func runStoreContract(t *testing.T, open storeFactory) {
	ctx := context.Background()

	t.Run("EmptyStore", func(t *testing.T) {
		s := open(t)
		n, err := s.GetNode(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, n)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.NodeCount)
		assert.Zero(t, stats.EdgeCount)

		edges, err := s.AllEdges(ctx)
		require.NoError(t, err)
		assert.Empty(t, edges)
	})

	t.Run("NodeRoundTrip", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))

		expr := ExpressionID(ExprBinary, "a.js", Span{Line: 1, Column: 14, EndLine: 1, EndColumn: 23})
		got, err := s.GetNode(ctx, expr)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, NodeKindExpression, got.Kind)
		assert.Equal(t, ExprBinary, got.ExpressionKind)
		assert.Equal(t, "*", got.Operator)
		assert.Equal(t, 1, got.Unresolved)
		assert.Equal(t, 14, got.Column)

		lit, err := s.GetNode(ctx, LiteralID("a.js", 1, 22))
		require.NoError(t, err)
		require.NotNil(t, lit)
		assert.Equal(t, "two", lit.Value)
		assert.Equal(t, ValueString, lit.ValueKind)
	})

	t.Run("IssueRoundTrip", func(t *testing.T) {
		s := open(t)
		target := DeclarationID("a.js", "global", NodeKindVariable, "x")
		b := NewBatch("a.js")
		b.BufferNode(Node{
			ID: IssueID(CodeNoLeafNode, target), Kind: NodeKindIssue, File: "a.js", Line: 3, Column: 6,
			Severity: SeverityError, Code: CodeNoLeafNode, Message: `"x" has no terminal source`,
			Target: target, Chain: []string{target, "y"},
		})
		require.NoError(t, s.Commit(ctx, b))

		got, err := s.GetNode(ctx, IssueID(CodeNoLeafNode, target))
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, SeverityError, got.Severity)
		assert.Equal(t, CodeNoLeafNode, got.Code)
		assert.Equal(t, target, got.Target)
		assert.Equal(t, []string{target, "y"}, got.Chain)
	})

	t.Run("EdgesInCommitOrder", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))

		expr := ExpressionID(ExprBinary, "a.js", Span{Line: 1, Column: 14, EndLine: 1, EndColumn: 23})
		out, err := s.GetOutgoingEdges(ctx, expr)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, DeclarationID("a.js", "global", NodeKindVariable, "price"), out[0].Dst)
		assert.Equal(t, LiteralID("a.js", 1, 22), out[1].Dst)

		mod := ModuleID("a.js")
		contains, err := s.GetOutgoingEdges(ctx, mod, EdgeContains)
		require.NoError(t, err)
		assert.Len(t, contains, 2)
		none, err := s.GetOutgoingEdges(ctx, mod, EdgeAssignedFrom)
		require.NoError(t, err)
		assert.Empty(t, none)

		in, err := s.GetIncomingEdges(ctx, expr, DataFlowEdges...)
		require.NoError(t, err)
		require.Len(t, in, 1)
		assert.Equal(t, EdgeAssignedFrom, in[0].Type)

		all, err := s.AllEdges(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleBatch("a.js").Edges(), all)
	})

	t.Run("RecommitIsIdempotent", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.NodeCount)
		assert.Equal(t, 5, stats.EdgeCount)
	})

	t.Run("NodeOverwrite", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))

		id := DeclarationID("a.js", "global", NodeKindVariable, "total")
		b := NewBatch("a.js")
		b.BufferNode(Node{ID: id, Kind: NodeKindVariable, File: "a.js", Line: 9, Column: 6, Name: "total"})
		require.NoError(t, s.Commit(ctx, b))

		got, err := s.GetNode(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 9, got.Line)
	})

	t.Run("CommitReplacesFile", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))
		require.NoError(t, s.Commit(ctx, sampleBatch("b.js")))
		require.NoError(t, s.Commit(ctx, issueBatch("a.js")))

		// const total = 7;
		mod := ModuleID("a.js")
		total := DeclarationID("a.js", "global", NodeKindVariable, "total")
		lit := LiteralID("a.js", 1, 14)
		b := NewBatch("a.js")
		b.BufferNode(Node{ID: mod, Kind: NodeKindModule, File: "a.js", Line: 1})
		b.BufferNode(Node{ID: total, Kind: NodeKindVariable, File: "a.js", Line: 1, Column: 6, Name: "total"})
		b.BufferNode(Node{ID: lit, Kind: NodeKindLiteral, File: "a.js", Line: 1, Column: 14, Value: "seven", ValueKind: ValueString})
		b.BufferEdge(Edge{Type: EdgeContains, Src: mod, Dst: total})
		b.BufferEdge(Edge{Type: EdgeAssignedFrom, Src: total, Dst: lit})
		require.NoError(t, s.Commit(ctx, b))

		out, err := s.GetOutgoingEdges(ctx, total, DataFlowEdges...)
		require.NoError(t, err)
		assert.Equal(t, []Edge{{Type: EdgeAssignedFrom, Src: total, Dst: lit}}, out, "no edge of the earlier analysis survives")

		price, err := s.GetNode(ctx, DeclarationID("a.js", "global", NodeKindVariable, "price"))
		require.NoError(t, err)
		assert.Nil(t, price)

		issues, err := s.QueryNodes(ctx, NodeFilter{Kinds: []NodeKind{NodeKindIssue}})
		require.NoError(t, err)
		assert.Empty(t, issues, "issues located in the file go with it")

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 8, stats.NodeCount)
		assert.Equal(t, 7, stats.EdgeCount)

		inB, err := s.QueryNodes(ctx, NodeFilter{File: "b.js"})
		require.NoError(t, err)
		assert.Len(t, inB, 5, "other files are untouched")

		require.NoError(t, s.Commit(ctx, NewBatch("a.js")))
		inA, err := s.QueryNodes(ctx, NodeFilter{File: "a.js"})
		require.NoError(t, err)
		assert.Empty(t, inA, "an empty batch clears the file")
		dangling, err := CheckIntegrity(ctx, s)
		require.NoError(t, err)
		assert.Empty(t, dangling)
	})

	t.Run("DeleteNodes", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))
		require.NoError(t, s.Commit(ctx, sampleBatch("b.js")))
		require.NoError(t, s.Commit(ctx, issueBatch("a.js")))

		n, err := s.DeleteNodes(ctx, NodeFilter{Kinds: []NodeKind{NodeKindIssue}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		affects, err := s.GetIncomingEdges(ctx, DeclarationID("a.js", "global", NodeKindVariable, "total"), EdgeAffects)
		require.NoError(t, err)
		assert.Empty(t, affects)

		n, err = s.DeleteNodes(ctx, NodeFilter{File: "b.js"})
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		all, err := s.AllEdges(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleBatch("a.js").Edges(), all)

		n, err = s.DeleteNodes(ctx, NodeFilter{File: "b.js", Kinds: []NodeKind{NodeKindVariable}})
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = s.DeleteNodes(ctx, NodeFilter{File: "a.js", Kinds: []NodeKind{NodeKindVariable, NodeKindLiteral}})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.NodeCount)
		assert.Zero(t, stats.EdgeCount, "every remaining edge touched a deleted node")
	})

	t.Run("QueryNodes", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))
		require.NoError(t, s.Commit(ctx, sampleBatch("b.js")))

		vars, err := s.QueryNodes(ctx, NodeFilter{Kinds: []NodeKind{NodeKindVariable}})
		require.NoError(t, err)
		require.Len(t, vars, 4)
		for i := 1; i < len(vars); i++ {
			assert.Less(t, vars[i-1].ID, vars[i].ID, "results are ordered by id")
		}

		inB, err := s.QueryNodes(ctx, NodeFilter{File: "b.js"})
		require.NoError(t, err)
		assert.Len(t, inB, 5)
		for _, n := range inB {
			assert.Equal(t, "b.js", n.File)
		}

		limited, err := s.QueryNodes(ctx, NodeFilter{Kinds: []NodeKind{NodeKindVariable, NodeKindModule}, File: "a.js", Limit: 2})
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})

	t.Run("Stats", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.NodeCount)
		assert.Equal(t, 5, stats.EdgeCount)
		assert.Zero(t, stats.IssueCount)
		assert.Equal(t, 2, stats.ByKind[NodeKindVariable])
		assert.Equal(t, 1, stats.ByKind[NodeKindLiteral])
	})

	t.Run("CanceledCommit", func(t *testing.T) {
		s := open(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, s.Commit(cctx, sampleBatch("a.js")), context.Canceled)

		stats, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.NodeCount)
	})

	t.Run("Integrity", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Commit(ctx, sampleBatch("a.js")))
		dangling, err := CheckIntegrity(ctx, s)
		require.NoError(t, err)
		assert.Empty(t, dangling)
	})
}
