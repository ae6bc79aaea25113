// Package ast holds the ESTree-shaped syntax tree consumed by the extractors,
// and the parsers that produce it.
package ast

// Position is a point in a source file. Lines are 1-based, columns 0-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// SourceLocation spans a node.
type SourceLocation struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Node is one ESTree/Babel syntax node. Type is the discriminant; only the
// fields meaningful for that type are set.
type Node struct {
	Type string
	Loc  SourceLocation

	// Scalars.
	Name      string
	Value     any // literal value; nil for null and for non-literals
	Raw       string
	Cooked    string // TemplateElement cooked text
	Operator  string
	Kind      string // VariableDeclaration kind, Property kind
	Prefix    bool
	Computed  bool
	Optional  bool
	Shorthand bool
	Async     bool
	Generator bool
	Regex     bool
	BigInt    bool

	// Single children.
	ID           *Node
	Init         *Node
	Left         *Node
	Right        *Node
	Test         *Node
	Consequent   *Node
	Alternate    *Node
	Object       *Node
	Property     *Node
	Argument     *Node
	Callee       *Node
	Tag          *Node
	Quasi        *Node
	Expression   *Node
	Key          *Node
	PropValue    *Node // Property.value
	Body         *Node
	Discriminant *Node
	Update       *Node
	Block        *Node
	Handler      *Node
	Finalizer    *Node
	Param        *Node
	Source       *Node
	Declaration  *Node
	SuperClass   *Node
	Local        *Node
	Imported     *Node

	// Lists.
	BodyList       []*Node // Program, BlockStatement, ClassBody
	Arguments      []*Node
	Params         []*Node
	Properties     []*Node
	Elements       []*Node // may contain nil holes
	Expressions    []*Node
	Quasis         []*Node
	Declarations   []*Node
	Cases          []*Node
	CaseConsequent []*Node // SwitchCase.consequent
	Specifiers     []*Node
}

// Line returns the 1-based start line of n, or 0 for nil.
func (n *Node) Line() int {
	if n == nil {
		return 0
	}
	return n.Loc.Start.Line
}

// Column returns the 0-based start column of n, or 0 for nil.
func (n *Node) Column() int {
	if n == nil {
		return 0
	}
	return n.Loc.Start.Column
}

// End returns the end position of n.
func (n *Node) End() Position {
	if n == nil {
		return Position{}
	}
	return n.Loc.End
}

// Is reports whether n is non-nil and has one of the given types.
func (n *Node) Is(types ...string) bool {
	if n == nil {
		return false
	}
	for _, t := range types {
		if n.Type == t {
			return true
		}
	}
	return false
}

// Children returns every non-nil child node of n in source order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	add := func(cs ...*Node) {
		for _, c := range cs {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	add(n.ID, n.Key, n.Left, n.Tag, n.Object, n.Callee, n.Test, n.Discriminant, n.Init)
	add(n.Params...)
	add(n.Declarations...)
	add(n.Specifiers...)
	add(n.Local, n.Imported, n.Source, n.Declaration, n.SuperClass)
	add(n.Property)
	add(n.Right, n.Update, n.Consequent, n.Alternate, n.Argument, n.Expression, n.PropValue)
	add(n.Arguments...)
	add(n.Properties...)
	add(n.Elements...)
	add(n.Quasi)
	add(interleave(n.Quasis, n.Expressions)...)
	add(n.Cases...)
	add(n.CaseConsequent...)
	add(n.Body, n.Block, n.Param, n.Handler, n.Finalizer)
	add(n.BodyList...)
	return out
}

// interleave merges template quasis and expressions in source order.
func interleave(quasis, exprs []*Node) []*Node {
	if len(quasis) == 0 {
		return exprs
	}
	out := make([]*Node, 0, len(quasis)+len(exprs))
	for i, q := range quasis {
		out = append(out, q)
		if i < len(exprs) {
			out = append(out, exprs[i])
		}
	}
	return out
}
