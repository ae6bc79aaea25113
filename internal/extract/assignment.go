package extract

import (
	"fmt"
	"strconv"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/graph"
)

// SourceKind says what an assignment's value resolves to.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceIdentifier
	SourceLiteral
	SourceObjectLiteral
	SourceArrayLiteral
	SourceExpression
	SourceCall
	SourceMethodCall
	SourceConstructor
	SourceFunction
	SourceClass
)

var sourceNames = [...]string{
	SourceNone:          "None",
	SourceIdentifier:    "Identifier",
	SourceLiteral:       "Literal",
	SourceObjectLiteral: "ObjectLiteral",
	SourceArrayLiteral:  "ArrayLiteral",
	SourceExpression:    "Expression",
	SourceCall:          "Call",
	SourceMethodCall:    "MethodCall",
	SourceConstructor:   "Constructor",
	SourceFunction:      "Function",
	SourceClass:         "Class",
}

func (k SourceKind) String() string {
	if int(k) < len(sourceNames) {
		return sourceNames[k]
	}
	return "Unknown"
}

// NodeKind returns the kind of the node SourceID names.
func (k SourceKind) NodeKind() graph.NodeKind {
	switch k {
	case SourceLiteral:
		return graph.NodeKindLiteral
	case SourceObjectLiteral:
		return graph.NodeKindObjectLiteral
	case SourceArrayLiteral:
		return graph.NodeKindArrayLiteral
	case SourceExpression:
		return graph.NodeKindExpression
	case SourceCall:
		return graph.NodeKindCall
	case SourceMethodCall:
		return graph.NodeKindMethodCall
	case SourceConstructor:
		return graph.NodeKindConstructorCall
	case SourceFunction:
		return graph.NodeKindFunction
	case SourceClass:
		return graph.NodeKindClass
	}
	return ""
}

// AssignmentInfo describes the value bound to a target. Nested operands
// carry their own AssignmentInfo with an empty target.
type AssignmentInfo struct {
	TargetID   string
	TargetName string

	SourceKind SourceKind
	// SourceID is the id of the node the value materializes as. Empty for
	// identifiers (resolved by scope lookup) and for SourceNone.
	SourceID       string
	IdentifierName string
	Literal        Literal

	ExpressionKind graph.ExpressionKind
	Operator       string
	// Name is the callee path of a call or the declared name of a function
	// or class expression.
	Name string
	// Constant marks an expression whose operand slots are all literal. It
	// materializes no operand nodes and has no DerivesFrom edges.
	Constant bool

	Line   int
	Column int
	Span   graph.Span

	Slots   []OperandSlot
	Members []MemberSlot

	Node *ast.Node
}

// OperandSlot is one named operand position of an expression. Exactly one of
// IsIdentifier, IsLiteral or Nested is set for a resolved slot.
type OperandSlot struct {
	Name string

	IsIdentifier   bool
	IdentifierName string

	IsLiteral bool
	Literal   Literal

	Nested *AssignmentInfo

	Line   int
	Column int
}

// MemberSlot is one member value of a non-literal object or array.
type MemberSlot struct {
	Key   string
	Value *AssignmentInfo
}

// DeclareFunc binds a name found in a pattern and returns its binding.
type DeclareFunc func(name string, at *ast.Node) Binding

// Tracker produces AssignmentInfo trees for one analysis unit.
//
// describe and slot are the only recursive pair: describe classifies a node
// and asks slot for each operand position; slot classifies the operand and
// calls describe only for operands that are neither identifiers nor
// literals. Each call descends one AST level, so recursion ends at the
// leaves. members recurses into describe the same way for aggregate values.
// Destructuring (bind) calls describe but describe never calls bind.
type Tracker struct {
	scope *ScopeContext
}

// NewTracker returns a tracker for the unit owning sc.
func NewTracker(sc *ScopeContext) *Tracker {
	return &Tracker{scope: sc}
}

// Track describes init as the value of target.
func (t *Tracker) Track(target Binding, init *ast.Node) *AssignmentInfo {
	info := t.describe(init)
	info.TargetID, info.TargetName = target.ID, target.Name
	return info
}

// Describe returns the AssignmentInfo for an expression with no target.
func (t *Tracker) Describe(n *ast.Node) *AssignmentInfo {
	return t.describe(n)
}

// NodeID returns the id the builders give the node a classification
// materializes as, or "" for identifiers and unhandled nodes.
func NodeID(file string, c Classification) string {
	n := c.Node
	switch c.Kind {
	case KindLiteral:
		return graph.LiteralID(file, c.Literal.Line, c.Literal.Column)
	case KindObjectLiteral, KindArrayLiteral:
		return graph.AggregateID(c.Kind.NodeKind(), file, n.Line(), n.Column())
	case KindExpression:
		return graph.ExpressionID(c.SubKind, file, SpanOf(n))
	case KindCall, KindMethodCall, KindConstructor:
		return graph.CallID(c.Kind.NodeKind(), file, c.Name, n.Line(), n.Column())
	case KindFunction, KindClass:
		return FunctionID(file, c.Kind.NodeKind(), n)
	}
	return ""
}

// FunctionID returns the positional id of a function or class expression.
func FunctionID(file string, kind graph.NodeKind, n *ast.Node) string {
	return graph.PositionalID(file, kind, "expr", n.Line(), n.Column())
}

// SpanOf returns the source extent of n.
func SpanOf(n *ast.Node) graph.Span {
	end := n.End()
	return graph.Span{Line: n.Line(), Column: n.Column(), EndLine: end.Line, EndColumn: end.Column}
}

func sourceKindOf(k Kind) SourceKind {
	switch k {
	case KindIdentifier:
		return SourceIdentifier
	case KindLiteral:
		return SourceLiteral
	case KindObjectLiteral:
		return SourceObjectLiteral
	case KindArrayLiteral:
		return SourceArrayLiteral
	case KindExpression:
		return SourceExpression
	case KindCall:
		return SourceCall
	case KindMethodCall:
		return SourceMethodCall
	case KindConstructor:
		return SourceConstructor
	case KindFunction:
		return SourceFunction
	case KindClass:
		return SourceClass
	}
	return SourceNone
}

// describe classifies n and, for compound expressions, fills one slot per
// operand position.
func (t *Tracker) describe(n *ast.Node) *AssignmentInfo {
	c := Classify(n)
	if c.Node == nil {
		return &AssignmentInfo{}
	}
	info := &AssignmentInfo{
		SourceKind: sourceKindOf(c.Kind),
		SourceID:   NodeID(t.scope.File(), c),
		Name:       c.Name,
		Line:       c.Node.Line(),
		Column:     c.Node.Column(),
		Span:       SpanOf(c.Node),
		Node:       c.Node,
	}

	switch c.Kind {
	case KindUnhandled:
		t.scope.Unhandled(c.Node)
	case KindIdentifier:
		info.IdentifierName = c.Name
	case KindLiteral:
		info.Literal = c.Literal
		info.Line, info.Column = c.Literal.Line, c.Literal.Column
	case KindObjectLiteral, KindArrayLiteral:
		if !c.Pure {
			info.Members = t.members(c.Node)
		}
	case KindExpression:
		info.ExpressionKind = c.SubKind
		info.Operator = c.Node.Operator
		info.Slots = t.slots(c)
		info.Constant = allLiteral(info.Slots)
	}
	return info
}

// slots returns the operand positions of a compound expression.
func (t *Tracker) slots(c Classification) []OperandSlot {
	n := c.Node
	var out []OperandSlot
	switch c.SubKind {
	case graph.ExprMember:
		out = append(out, t.slot("object", n.Object))
		if n.Computed {
			out = append(out, t.slot("property", n.Property))
		}
	case graph.ExprBinary, graph.ExprLogical:
		out = append(out, t.slot("left", n.Left), t.slot("right", n.Right))
	case graph.ExprConditional:
		out = append(out, t.slot("consequent", n.Consequent), t.slot("alternate", n.Alternate))
	case graph.ExprUnary, graph.ExprUpdate:
		out = append(out, t.slot("argument", n.Argument))
	case graph.ExprTemplate:
		for i, e := range n.Expressions {
			out = append(out, t.slot(fmt.Sprintf("expressions[%d]", i), e))
		}
	case graph.ExprTaggedTemplate:
		out = append(out, t.slot("tag", n.Tag))
		if n.Quasi != nil {
			for i, e := range n.Quasi.Expressions {
				out = append(out, t.slot(fmt.Sprintf("expressions[%d]", i), e))
			}
		}
	}
	return out
}

// slot classifies one operand. Operands that are neither identifiers nor
// literals recurse into describe.
func (t *Tracker) slot(name string, n *ast.Node) OperandSlot {
	s := OperandSlot{Name: name}
	c := Classify(n)
	if c.Node == nil {
		return s
	}
	s.Line, s.Column = c.Node.Line(), c.Node.Column()
	switch c.Kind {
	case KindIdentifier:
		s.IsIdentifier, s.IdentifierName = true, c.Name
	case KindLiteral:
		s.IsLiteral, s.Literal = true, c.Literal
	default:
		s.Nested = t.describe(n)
	}
	return s
}

// members describes the values of a non-literal object or array.
func (t *Tracker) members(n *ast.Node) []MemberSlot {
	var out []MemberSlot
	switch n.Type {
	case "ObjectExpression":
		for _, p := range n.Properties {
			switch {
			case p.Is("SpreadElement", "SpreadProperty"):
				out = append(out, MemberSlot{Key: "...", Value: t.describe(p.Argument)})
			case p.Is("ObjectMethod"):
				out = append(out, MemberSlot{Key: PropertyKey(p), Value: t.describe(p)})
			case p.PropValue != nil:
				out = append(out, MemberSlot{Key: PropertyKey(p), Value: t.describe(p.PropValue)})
			default:
				t.scope.Unhandled(p)
			}
		}
	case "ArrayExpression":
		for i, e := range n.Elements {
			switch {
			case e == nil:
			case e.Is("SpreadElement"):
				out = append(out, MemberSlot{Key: "...", Value: t.describe(e.Argument)})
			default:
				out = append(out, MemberSlot{Key: strconv.Itoa(i), Value: t.describe(e)})
			}
		}
	}
	return out
}

func allLiteral(slots []OperandSlot) bool {
	if len(slots) == 0 {
		return false
	}
	for _, s := range slots {
		if !s.IsLiteral {
			return false
		}
	}
	return true
}

func formatIndex(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ---------- Destructuring ----------

// bindSource is the value a pattern element binds to. value is a statically
// known sub-expression; path is a value reached through an initializer that
// cannot be decomposed. Neither set means unknown (parameters, bare
// declarations) unless hole marks a statically absent value.
type bindSource struct {
	value *ast.Node
	path  *AssignmentInfo
	hole  bool
}

// BindPattern binds every name in pattern against init. A nil init binds
// unknown values: the names are declared with no source.
func (t *Tracker) BindPattern(pattern, init *ast.Node, declare DeclareFunc) []*AssignmentInfo {
	return t.bind(pattern, bindSource{value: init}, declare, nil)
}

// BindIteration binds the loop variable of a for-of or for-in statement.
// Each name derives from an Iteration expression over iterable.
func (t *Tracker) BindIteration(pattern, iterable *ast.Node, declare DeclareFunc) []*AssignmentInfo {
	if pattern == nil {
		return nil
	}
	iter := &AssignmentInfo{
		SourceKind:     SourceExpression,
		ExpressionKind: graph.ExprIteration,
		SourceID:       graph.ExpressionID(graph.ExprIteration, t.scope.File(), SpanOf(pattern)),
		Line:           pattern.Line(),
		Column:         pattern.Column(),
		Span:           SpanOf(pattern),
		Slots:          []OperandSlot{t.slot("object", iterable)},
		Node:           pattern,
	}
	iter.Constant = allLiteral(iter.Slots)
	return t.bind(pattern, bindSource{path: iter}, declare, nil)
}

func (t *Tracker) bind(p *ast.Node, src bindSource, declare DeclareFunc, out []*AssignmentInfo) []*AssignmentInfo {
	if p == nil {
		return out
	}
	switch p.Type {
	case "Identifier":
		b := declare(p.Name, p)
		var info *AssignmentInfo
		switch {
		case src.value != nil:
			info = t.describe(src.value)
		case src.path != nil:
			cp := *src.path
			info = &cp
		case src.hole:
			lit := undefinedAt(p)
			info = &AssignmentInfo{
				SourceKind: SourceLiteral,
				SourceID:   graph.LiteralID(t.scope.File(), lit.Line, lit.Column),
				Literal:    lit,
				Line:       lit.Line,
				Column:     lit.Column,
				Span:       SpanOf(p),
				Node:       p,
			}
		default:
			info = &AssignmentInfo{Line: p.Line(), Column: p.Column(), Span: SpanOf(p), Node: p}
		}
		info.TargetID, info.TargetName = b.ID, b.Name
		return append(out, info)

	case "AssignmentPattern":
		switch {
		case src.path != nil:
			src.path = t.withDefault(src.path, p.Right)
		case src.value == nil:
			src = bindSource{value: p.Right}
		}
		return t.bind(p.Left, src, declare, out)

	case "RestElement":
		return t.bind(p.Argument, src, declare, out)

	case "ObjectPattern":
		obj := Unwrap(src.value)
		decomposable := obj.Is("ObjectExpression")
		path := src.path
		if !decomposable && path == nil && src.value != nil {
			path = t.describe(src.value)
		}
		for _, prop := range p.Properties {
			if prop.Is("RestElement") {
				out = t.bind(prop.Argument, src, declare, out)
				continue
			}
			target := prop.PropValue
			switch {
			case decomposable:
				out = t.bind(target, t.pick(obj, PropertyKey(prop)), declare, out)
			case path != nil:
				out = t.bind(target, bindSource{path: t.pathAt(prop, path)}, declare, out)
			default:
				out = t.bind(target, bindSource{hole: src.hole}, declare, out)
			}
		}
		return out

	case "ArrayPattern":
		arr := Unwrap(src.value)
		decomposable := arr.Is("ArrayExpression") && !hasSpread(arr)
		path := src.path
		if !decomposable && path == nil && src.value != nil {
			path = t.describe(src.value)
		}
		for i, elem := range p.Elements {
			if elem == nil {
				continue
			}
			if elem.Is("RestElement") {
				out = t.bind(elem.Argument, src, declare, out)
				continue
			}
			switch {
			case decomposable:
				el := bindSource{hole: true}
				if i < len(arr.Elements) && arr.Elements[i] != nil {
					el = bindSource{value: arr.Elements[i]}
				}
				out = t.bind(elem, el, declare, out)
			case path != nil:
				out = t.bind(elem, bindSource{path: t.pathAt(elem, path)}, declare, out)
			default:
				out = t.bind(elem, bindSource{hole: src.hole}, declare, out)
			}
		}
		return out
	}

	t.scope.Unhandled(p)
	return out
}

// pick returns the value bound to key in an object literal. The last
// matching property wins; a missing key is a hole.
func (t *Tracker) pick(obj *ast.Node, key string) bindSource {
	if key == "" {
		return bindSource{hole: true}
	}
	var found *ast.Node
	for _, p := range obj.Properties {
		if p.Is("SpreadElement", "SpreadProperty") {
			// A spread may supply the key; nothing is known statically.
			found = nil
			continue
		}
		if PropertyKey(p) == key {
			found = p.PropValue
			if p.Is("ObjectMethod") {
				found = p
			}
		}
	}
	if found == nil {
		return bindSource{hole: true}
	}
	return bindSource{value: found}
}

// pathAt returns a synthetic member expression at the pattern element
// elem, reading from base.
func (t *Tracker) pathAt(elem *ast.Node, base *AssignmentInfo) *AssignmentInfo {
	info := &AssignmentInfo{
		SourceKind:     SourceExpression,
		ExpressionKind: graph.ExprMember,
		SourceID:       graph.ExpressionID(graph.ExprMember, t.scope.File(), SpanOf(elem)),
		Line:           elem.Line(),
		Column:         elem.Column(),
		Span:           SpanOf(elem),
		Slots:          []OperandSlot{slotOf("object", base)},
		Node:           elem,
	}
	info.Constant = allLiteral(info.Slots)
	return info
}

// withDefault adds a default operand to a synthetic path expression.
func (t *Tracker) withDefault(path *AssignmentInfo, deflt *ast.Node) *AssignmentInfo {
	cp := *path
	cp.Slots = append(append([]OperandSlot(nil), path.Slots...), t.slot("default", deflt))
	cp.Constant = allLiteral(cp.Slots)
	return &cp
}

// slotOf wraps an already described value as an operand slot.
func slotOf(name string, info *AssignmentInfo) OperandSlot {
	s := OperandSlot{Name: name, Line: info.Line, Column: info.Column}
	switch info.SourceKind {
	case SourceIdentifier:
		s.IsIdentifier, s.IdentifierName = true, info.IdentifierName
	case SourceLiteral:
		s.IsLiteral, s.Literal = true, info.Literal
	default:
		s.Nested = info
	}
	return s
}

func hasSpread(arr *ast.Node) bool {
	for _, e := range arr.Elements {
		if e.Is("SpreadElement") {
			return true
		}
	}
	return false
}
