package extract

import (
	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/graph"
)

// BranchInfo describes one control-flow construct. Condition is the test,
// discriminant or iterated value; Consequent and Alternate are set for
// ternaries only; Catch and Finally for try statements only.
type BranchInfo struct {
	ID     string
	Kind   graph.BranchKind
	Line   int
	Column int
	Node   *ast.Node

	Condition  *ast.Node
	Consequent *ast.Node
	Alternate  *ast.Node

	Catch   *BranchInfo
	Finally *BranchInfo
}

// ArmProducesNode reports whether a branch arm or condition materializes
// as an Expression node, and returns that node's id. It holds exactly for
// compound expressions: member access, binary, logical, conditional,
// unary, update, templates with substitutions, and tagged templates whose
// tag is neither an identifier nor a member expression. Identifiers,
// literals, calls, functions and classes are captured elsewhere.
//
// Both the edge emitter and the node materializer call this; an edge to an
// arm exists only when the node with the returned id is created.
func ArmProducesNode(file string, arm *ast.Node) (string, bool) {
	c := Classify(arm)
	if c.Kind != KindExpression {
		return "", false
	}
	return NodeID(file, c), true
}

// ExtractBranch returns the BranchInfo for n, or false if n is not a
// branching construct.
func ExtractBranch(file string, n *ast.Node) (BranchInfo, bool) {
	if n == nil {
		return BranchInfo{}, false
	}
	info := BranchInfo{Line: n.Line(), Column: n.Column(), Node: n}
	switch n.Type {
	case "ConditionalExpression":
		info.Kind = graph.BranchTernary
		info.Condition, info.Consequent, info.Alternate = n.Test, n.Consequent, n.Alternate
	case "IfStatement":
		info.Kind = graph.BranchIf
		info.Condition = n.Test
	case "SwitchStatement":
		info.Kind = graph.BranchSwitch
		info.Condition = n.Discriminant
	case "ForStatement", "WhileStatement", "DoWhileStatement":
		info.Kind = graph.BranchLoop
		info.Condition = n.Test
	case "ForInStatement", "ForOfStatement":
		info.Kind = graph.BranchLoop
		info.Condition = n.Right
	case "TryStatement":
		info.Kind = graph.BranchTry
		if n.Handler != nil {
			info.Catch = clause(file, graph.BranchCatch, n.Handler)
		}
		if n.Finalizer != nil {
			info.Finally = clause(file, graph.BranchFinally, n.Finalizer)
		}
	default:
		return BranchInfo{}, false
	}
	info.ID = graph.BranchID(info.Kind, file, info.Line, info.Column)
	return info, true
}

func clause(file string, kind graph.BranchKind, n *ast.Node) *BranchInfo {
	return &BranchInfo{
		ID:     graph.BranchID(kind, file, n.Line(), n.Column()),
		Kind:   kind,
		Line:   n.Line(),
		Column: n.Column(),
		Node:   n,
	}
}
