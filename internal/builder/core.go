// Package builder translates extraction records into buffered graph
// mutations. Every builder of one analysis unit shares a Unit; nothing here
// is safe for concurrent use.
package builder

import (
	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/extract"
	"github.com/dusk-indust/lineage/internal/graph"
)

// Unit is the state of one build pass: the file, its batch, its scope
// context and the tracker bound to that context.
type Unit struct {
	File    string
	Batch   *graph.Batch
	Scope   *extract.ScopeContext
	Tracker *extract.Tracker
}

// NewUnit returns an empty unit for file.
func NewUnit(file string) *Unit {
	sc := extract.NewScopeContext(file)
	return &Unit{
		File:    file,
		Batch:   graph.NewBatch(file),
		Scope:   sc,
		Tracker: extract.NewTracker(sc),
	}
}

func (u *Unit) edge(t graph.EdgeType, src, dst string) {
	if src == "" || dst == "" {
		return
	}
	u.Batch.BufferEdge(graph.Edge{Type: t, Src: src, Dst: dst})
}

// ---------- Literal / core builder ----------

// LiteralBuilder creates the nodes that need no lineage of their own:
// modules, declarations, literals, aggregates, calls, functions, classes
// and imports.
type LiteralBuilder struct {
	u *Unit
}

// NewLiteralBuilder returns a core builder for u.
func NewLiteralBuilder(u *Unit) *LiteralBuilder {
	return &LiteralBuilder{u: u}
}

// Module buffers the Module node of the unit and returns its id.
func (b *LiteralBuilder) Module() string {
	id := graph.ModuleID(b.u.File)
	b.u.Batch.BufferNode(graph.Node{ID: id, Kind: graph.NodeKindModule, File: b.u.File, Line: 1, Name: b.u.File})
	return id
}

// Declaration buffers the node of a declared binding.
func (b *LiteralBuilder) Declaration(bd extract.Binding) string {
	b.u.Batch.BufferNode(graph.Node{
		ID:     bd.ID,
		Kind:   bd.Kind,
		File:   b.u.File,
		Line:   bd.Line,
		Column: bd.Column,
		Name:   bd.Name,
	})
	return bd.ID
}

// Import buffers an Import node whose Value is the module specifier.
func (b *LiteralBuilder) Import(bd extract.Binding, source string) string {
	b.u.Batch.BufferNode(graph.Node{
		ID:     bd.ID,
		Kind:   graph.NodeKindImport,
		File:   b.u.File,
		Line:   bd.Line,
		Column: bd.Column,
		Name:   bd.Name,
		Value:  source,
	})
	return bd.ID
}

// Literal buffers an inline Literal node at the literal's own position.
func (b *LiteralBuilder) Literal(lit extract.Literal) string {
	id := graph.LiteralID(b.u.File, lit.Line, lit.Column)
	b.u.Batch.BufferNode(graph.Node{
		ID:        id,
		Kind:      graph.NodeKindLiteral,
		File:      b.u.File,
		Line:      lit.Line,
		Column:    lit.Column,
		Value:     lit.Value,
		ValueKind: lit.ValueKind,
	})
	return id
}

// Aggregate buffers an ObjectLiteral or ArrayLiteral node. Aggregates are
// terminal; member edges are structural only.
func (b *LiteralBuilder) Aggregate(kind graph.NodeKind, line, col int) string {
	id := graph.AggregateID(kind, b.u.File, line, col)
	b.u.Batch.BufferNode(graph.Node{ID: id, Kind: kind, File: b.u.File, Line: line, Column: col})
	return id
}

// Call buffers a Call, MethodCall or ConstructorCall node.
func (b *LiteralBuilder) Call(kind graph.NodeKind, callee string, line, col int) string {
	id := graph.CallID(kind, b.u.File, callee, line, col)
	b.u.Batch.BufferNode(graph.Node{ID: id, Kind: kind, File: b.u.File, Line: line, Column: col, Name: callee})
	return id
}

// CallOf buffers the call node for a call-classified expression.
func (b *LiteralBuilder) CallOf(c extract.Classification) string {
	return b.Call(c.Kind.NodeKind(), c.Name, c.Node.Line(), c.Node.Column())
}

// Function buffers a Function or Class node under an explicit id.
func (b *LiteralBuilder) Function(kind graph.NodeKind, id, name string, n *ast.Node) string {
	b.u.Batch.BufferNode(graph.Node{ID: id, Kind: kind, File: b.u.File, Line: n.Line(), Column: n.Column(), Name: name})
	return id
}

// Branch buffers a Branch node.
func (b *LiteralBuilder) Branch(id string, kind graph.BranchKind, line, col int) string {
	b.u.Batch.BufferNode(graph.Node{ID: id, Kind: graph.NodeKindBranch, File: b.u.File, Line: line, Column: col, BranchKind: kind})
	return id
}

// Contains links an owner to a declaration, call or branch it holds.
func (b *LiteralBuilder) Contains(owner, id string) {
	b.u.edge(graph.EdgeContains, owner, id)
}
