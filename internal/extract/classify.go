// Package extract turns AST expressions into classification and assignment
// records without touching the graph. Builders consume the records.
package extract

import (
	"strings"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/graph"
)

// Kind is the closed set of expression classifications.
type Kind int

const (
	KindUnhandled Kind = iota
	KindIdentifier
	KindLiteral
	KindObjectLiteral
	KindArrayLiteral
	KindExpression
	KindCall
	KindMethodCall
	KindConstructor
	KindFunction
	KindClass
)

var kindNames = [...]string{
	KindUnhandled:     "Unhandled",
	KindIdentifier:    "Identifier",
	KindLiteral:       "Literal",
	KindObjectLiteral: "ObjectLiteral",
	KindArrayLiteral:  "ArrayLiteral",
	KindExpression:    "Expression",
	KindCall:          "Call",
	KindMethodCall:    "MethodCall",
	KindConstructor:   "Constructor",
	KindFunction:      "Function",
	KindClass:         "Class",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Classification describes one unwrapped expression. Only the fields
// meaningful for Kind are set.
type Classification struct {
	Kind Kind
	Node *ast.Node // unwrapped node

	// Name is the identifier name, the callee path of a call, or the
	// declared name of a function or class expression.
	Name    string
	Literal Literal
	SubKind graph.ExpressionKind
	// Pure marks object and array literals whose contents are all literal.
	Pure bool
}

// wrapperTypes delegate to a single inner expression.
var wrapperTypes = map[string]bool{
	"ParenthesizedExpression":   true,
	"ChainExpression":           true,
	"TSAsExpression":            true,
	"TSSatisfiesExpression":     true,
	"TSNonNullExpression":       true,
	"TSTypeAssertion":           true,
	"TSInstantiationExpression": true,
	"TypeCastExpression":        true,
}

// Unwrap strips every delegating wrapper from n: parentheses, optional
// chains, type assertions, await, sequences (last expression) and plain
// assignment expressions (their right side).
func Unwrap(n *ast.Node) *ast.Node {
	for n != nil {
		switch {
		case wrapperTypes[n.Type]:
			n = n.Expression
		case n.Type == "AwaitExpression":
			n = n.Argument
		case n.Type == "SequenceExpression":
			if len(n.Expressions) == 0 {
				return n
			}
			n = n.Expressions[len(n.Expressions)-1]
		case n.Type == "AssignmentExpression" && n.Operator == "=":
			n = n.Right
		default:
			return n
		}
	}
	return nil
}

// Classify returns the classification of n after unwrapping. It is total:
// every AST type maps to exactly one Kind, unknown ones to KindUnhandled.
func Classify(n *ast.Node) Classification {
	n = Unwrap(n)
	if n == nil {
		return Classification{Kind: KindUnhandled}
	}
	if lit := ExtractLiteral(n); lit.IsLiteral() {
		return Classification{Kind: KindLiteral, Node: n, Literal: lit}
	}

	c := Classification{Node: n}
	switch n.Type {
	case "Identifier":
		c.Kind, c.Name = KindIdentifier, n.Name

	case "ObjectExpression":
		c.Kind, c.Pure = KindObjectLiteral, pureAggregate(n)
	case "ArrayExpression":
		c.Kind, c.Pure = KindArrayLiteral, pureAggregate(n)

	case "MemberExpression", "OptionalMemberExpression":
		c.Kind, c.SubKind = KindExpression, graph.ExprMember
	case "BinaryExpression":
		c.Kind, c.SubKind = KindExpression, graph.ExprBinary
	case "LogicalExpression":
		c.Kind, c.SubKind = KindExpression, graph.ExprLogical
	case "ConditionalExpression":
		c.Kind, c.SubKind = KindExpression, graph.ExprConditional
	case "UnaryExpression":
		c.Kind, c.SubKind = KindExpression, graph.ExprUnary
	case "UpdateExpression":
		c.Kind, c.SubKind = KindExpression, graph.ExprUpdate
	case "TemplateLiteral":
		c.Kind, c.SubKind = KindExpression, graph.ExprTemplate

	case "TaggedTemplateExpression":
		tag := Unwrap(n.Tag)
		switch {
		case tag.Is("Identifier"):
			c.Kind, c.Name = KindCall, tag.Name
		case tag.Is("MemberExpression", "OptionalMemberExpression"):
			c.Kind, c.Name = KindMethodCall, CalleeName(tag)
		default:
			c.Kind, c.SubKind = KindExpression, graph.ExprTaggedTemplate
		}

	case "CallExpression", "OptionalCallExpression":
		callee := Unwrap(n.Callee)
		c.Name = CalleeName(callee)
		if callee.Is("MemberExpression", "OptionalMemberExpression") {
			c.Kind = KindMethodCall
		} else {
			c.Kind = KindCall
		}
	case "NewExpression":
		c.Kind, c.Name = KindConstructor, CalleeName(Unwrap(n.Callee))

	case "FunctionExpression", "ArrowFunctionExpression", "ObjectMethod":
		c.Kind, c.Name = KindFunction, FunctionName(n)
	case "ClassExpression":
		c.Kind, c.Name = KindClass, FunctionName(n)

	default:
		c.Kind = KindUnhandled
	}
	return c
}

// IsCall reports whether k classifies a call site.
func (k Kind) IsCall() bool {
	return k == KindCall || k == KindMethodCall || k == KindConstructor
}

// NodeKind returns the graph node kind a source of this classification
// materializes as.
func (k Kind) NodeKind() graph.NodeKind {
	switch k {
	case KindLiteral:
		return graph.NodeKindLiteral
	case KindObjectLiteral:
		return graph.NodeKindObjectLiteral
	case KindArrayLiteral:
		return graph.NodeKindArrayLiteral
	case KindExpression:
		return graph.NodeKindExpression
	case KindCall:
		return graph.NodeKindCall
	case KindMethodCall:
		return graph.NodeKindMethodCall
	case KindConstructor:
		return graph.NodeKindConstructorCall
	case KindFunction:
		return graph.NodeKindFunction
	case KindClass:
		return graph.NodeKindClass
	}
	return ""
}

// CalleeName renders a callee as a dotted path (a.b.c). Segments that are
// not plain names render as placeholders.
func CalleeName(n *ast.Node) string {
	n = Unwrap(n)
	switch {
	case n == nil:
		return "<unknown>"
	case n.Type == "Identifier":
		return n.Name
	case n.Type == "ThisExpression":
		return "this"
	case n.Type == "Super":
		return "super"
	case n.Type == "Import":
		return "import"
	case n.Is("MemberExpression", "OptionalMemberExpression"):
		prop := "[]"
		if !n.Computed && n.Property.Is("Identifier", "PrivateName", "PrivateIdentifier") {
			prop = n.Property.Name
		}
		return CalleeName(n.Object) + "." + prop
	case n.Is("CallExpression", "OptionalCallExpression"):
		return CalleeName(n.Callee) + "()"
	}
	return "<" + strings.TrimPrefix(n.Type, "ts:") + ">"
}

// FunctionName returns the declared name of a function or class node.
func FunctionName(n *ast.Node) string {
	if n == nil || n.ID == nil {
		return ""
	}
	return n.ID.Name
}

// pureAggregate reports whether an object or array literal holds only
// literals and pure aggregates.
func pureAggregate(n *ast.Node) bool {
	switch n.Type {
	case "ObjectExpression":
		for _, p := range n.Properties {
			if !p.Is("Property", "ObjectProperty") || p.Computed || (p.Kind != "" && p.Kind != "init") {
				return false
			}
			if !pureValue(p.PropValue) {
				return false
			}
		}
		return true
	case "ArrayExpression":
		for _, e := range n.Elements {
			if e != nil && !pureValue(e) {
				return false
			}
		}
		return true
	}
	return false
}

func pureValue(n *ast.Node) bool {
	if ExtractLiteral(n).IsLiteral() {
		return true
	}
	inner := Unwrap(n)
	return inner.Is("ObjectExpression", "ArrayExpression") && pureAggregate(inner)
}

// PropertyKey returns the static key of an object property or pattern
// property, or "" when the key is computed from a non-literal.
func PropertyKey(p *ast.Node) string {
	if p == nil || p.Key == nil {
		return ""
	}
	if !p.Computed && p.Key.Type == "Identifier" {
		return p.Key.Name
	}
	lit := ExtractLiteral(p.Key)
	switch v := lit.Value.(type) {
	case string:
		return v
	case float64:
		return formatIndex(v)
	}
	return ""
}
