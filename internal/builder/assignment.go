package builder

import (
	"github.com/dusk-indust/lineage/internal/extract"
	"github.com/dusk-indust/lineage/internal/graph"
)

// AssignmentBuilder materializes the source of an AssignmentInfo and links
// its target to it.
type AssignmentBuilder struct {
	u    *Unit
	core *LiteralBuilder
}

// NewAssignmentBuilder returns an assignment builder for u.
func NewAssignmentBuilder(u *Unit, core *LiteralBuilder) *AssignmentBuilder {
	return &AssignmentBuilder{u: u, core: core}
}

// Assign emits target -AssignedFrom-> source. Infos without a target, and
// sources that resolve to nothing, emit no edge.
func (b *AssignmentBuilder) Assign(info *extract.AssignmentInfo) {
	if info == nil || info.TargetID == "" {
		return
	}
	b.u.edge(graph.EdgeAssignedFrom, info.TargetID, b.Source(info))
}

// Source buffers the node info resolves to and returns its id. Identifiers
// resolve to their binding's node; an unresolved identifier or an unknown
// value returns "".
func (b *AssignmentBuilder) Source(info *extract.AssignmentInfo) string {
	if info == nil {
		return ""
	}
	switch info.SourceKind {
	case extract.SourceIdentifier:
		return b.resolve(info.IdentifierName, info.Line, info.Column)
	case extract.SourceLiteral:
		return b.core.Literal(info.Literal)
	case extract.SourceObjectLiteral, extract.SourceArrayLiteral:
		return b.aggregate(info)
	case extract.SourceExpression:
		return b.expression(info)
	case extract.SourceCall, extract.SourceMethodCall, extract.SourceConstructor:
		return b.core.Call(info.SourceKind.NodeKind(), info.Name, info.Line, info.Column)
	case extract.SourceFunction, extract.SourceClass:
		return b.core.Function(info.SourceKind.NodeKind(), info.SourceID, info.Name, info.Node)
	}
	return ""
}

// expression buffers an Expression node and one DerivesFrom edge per
// resolved operand slot. Constant expressions get no operand edges.
func (b *AssignmentBuilder) expression(info *extract.AssignmentInfo) string {
	id := info.SourceID
	if b.u.Batch.HasNode(id) {
		return id
	}
	n := graph.Node{
		ID:             id,
		Kind:           graph.NodeKindExpression,
		File:           b.u.File,
		Line:           info.Line,
		Column:         info.Column,
		ExpressionKind: info.ExpressionKind,
		Operator:       info.Operator,
		Constant:       info.Constant,
	}

	var deps []string
	if !info.Constant {
		for _, s := range info.Slots {
			switch {
			case s.IsIdentifier:
				if dst := b.resolve(s.IdentifierName, s.Line, s.Column); dst != "" {
					deps = append(deps, dst)
				} else {
					n.Unresolved++
				}
			case s.IsLiteral:
				deps = append(deps, b.core.Literal(s.Literal))
			case s.Nested != nil:
				if dst := b.Source(s.Nested); dst != "" {
					deps = append(deps, dst)
				}
			}
		}
	}

	b.u.Batch.BufferNode(n)
	for _, dst := range deps {
		b.u.edge(graph.EdgeDerivesFrom, id, dst)
	}
	return id
}

// aggregate buffers an object or array node and structural edges to the
// values of its non-literal members.
func (b *AssignmentBuilder) aggregate(info *extract.AssignmentInfo) string {
	kind := info.SourceKind.NodeKind()
	id := b.core.Aggregate(kind, info.Line, info.Column)
	et := graph.EdgeHasProperty
	if kind == graph.NodeKindArrayLiteral {
		et = graph.EdgeHasElement
	}
	for _, m := range info.Members {
		b.u.edge(et, id, b.Source(m.Value))
	}
	return id
}

func (b *AssignmentBuilder) resolve(name string, line, col int) string {
	bd, ok := b.u.Scope.Resolve(name, line, col)
	if !ok {
		return ""
	}
	return bd.ID
}

// ReturnBuilder links a function to the value it returns.
type ReturnBuilder struct {
	u      *Unit
	assign *AssignmentBuilder
}

// NewReturnBuilder returns a return builder sharing assign's materializer.
func NewReturnBuilder(u *Unit, assign *AssignmentBuilder) *ReturnBuilder {
	return &ReturnBuilder{u: u, assign: assign}
}

// Return emits fn -Returns-> source using the assignment rules.
func (b *ReturnBuilder) Return(fnID string, info *extract.AssignmentInfo) {
	b.u.edge(graph.EdgeReturns, fnID, b.assign.Source(info))
}
