package builder

import (
	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/extract"
	"github.com/dusk-indust/lineage/internal/graph"
)

// ControlFlowBuilder turns BranchInfo records into Branch nodes and their
// arm edges.
type ControlFlowBuilder struct {
	u      *Unit
	core   *LiteralBuilder
	assign *AssignmentBuilder
}

// NewControlFlowBuilder returns a control-flow builder for u.
func NewControlFlowBuilder(u *Unit, core *LiteralBuilder, assign *AssignmentBuilder) *ControlFlowBuilder {
	return &ControlFlowBuilder{u: u, core: core, assign: assign}
}

// Branch buffers the Branch node for bi, owned by owner, and returns its id.
func (b *ControlFlowBuilder) Branch(owner string, bi extract.BranchInfo) string {
	id := b.core.Branch(bi.ID, bi.Kind, bi.Line, bi.Column)
	b.core.Contains(owner, id)

	b.arm(id, graph.EdgeHasCondition, bi.Condition)
	if bi.Kind == graph.BranchTernary {
		b.arm(id, graph.EdgeHasConsequent, bi.Consequent)
		b.arm(id, graph.EdgeHasAlternate, bi.Alternate)
	}
	if c := bi.Catch; c != nil {
		b.u.edge(graph.EdgeHasCatch, id, b.core.Branch(c.ID, c.Kind, c.Line, c.Column))
	}
	if f := bi.Finally; f != nil {
		b.u.edge(graph.EdgeHasFinally, id, b.core.Branch(f.ID, f.Kind, f.Line, f.Column))
	}
	return id
}

// arm links the branch to an arm only when the arm materializes as a node.
// The edge target is the id ArmProducesNode returns, and the node is
// materialized in the same call.
func (b *ControlFlowBuilder) arm(branch string, t graph.EdgeType, arm *ast.Node) {
	id, ok := extract.ArmProducesNode(b.u.File, arm)
	if !ok {
		return
	}
	b.assign.Source(b.u.Tracker.Describe(arm))
	b.u.edge(t, branch, id)
}
