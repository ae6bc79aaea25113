package extract

import (
	"strings"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/graph"
)

// LiteralState is the tri-state outcome of literal extraction. A null
// literal is a value, not the absence of one.
type LiteralState int

const (
	NotLiteral LiteralState = iota
	LiteralNull
	LiteralValue
)

func (s LiteralState) String() string {
	switch s {
	case LiteralNull:
		return "null"
	case LiteralValue:
		return "value"
	default:
		return "not-literal"
	}
}

// Literal is an extracted literal value and the position it occurs at.
type Literal struct {
	State     LiteralState
	Value     any
	ValueKind graph.ValueKind
	Line      int
	Column    int
}

// IsLiteral reports whether extraction produced a value, null included.
func (l Literal) IsLiteral() bool {
	return l.State != NotLiteral
}

// ExtractLiteral returns the literal value of n. Wrappers are unwrapped
// first. Template literals without substitutions, the undefined identifier
// and signed numeric literals count as literals.
func ExtractLiteral(n *ast.Node) Literal {
	n = Unwrap(n)
	if n == nil {
		return Literal{}
	}
	at := func(state LiteralState, v any, kind graph.ValueKind) Literal {
		return Literal{State: state, Value: v, ValueKind: kind, Line: n.Line(), Column: n.Column()}
	}

	switch n.Type {
	case "Literal":
		switch {
		case n.Regex:
			return at(LiteralValue, n.Raw, graph.ValueRegExp)
		case n.BigInt:
			return at(LiteralValue, bigintText(n), graph.ValueBigInt)
		}
		switch v := n.Value.(type) {
		case nil:
			return at(LiteralNull, nil, graph.ValueNull)
		case string:
			return at(LiteralValue, v, graph.ValueString)
		case bool:
			return at(LiteralValue, v, graph.ValueBoolean)
		case float64:
			return at(LiteralValue, v, graph.ValueNumber)
		default:
			return at(LiteralValue, v, graph.ValueNumber)
		}

	case "StringLiteral":
		s, _ := n.Value.(string)
		return at(LiteralValue, s, graph.ValueString)
	case "NumericLiteral":
		return at(LiteralValue, n.Value, graph.ValueNumber)
	case "BooleanLiteral":
		b, _ := n.Value.(bool)
		return at(LiteralValue, b, graph.ValueBoolean)
	case "NullLiteral":
		return at(LiteralNull, nil, graph.ValueNull)
	case "RegExpLiteral":
		return at(LiteralValue, n.Raw, graph.ValueRegExp)
	case "BigIntLiteral":
		return at(LiteralValue, bigintText(n), graph.ValueBigInt)

	case "TemplateLiteral":
		if len(n.Expressions) > 0 {
			return Literal{}
		}
		var b strings.Builder
		for _, q := range n.Quasis {
			b.WriteString(q.Cooked)
		}
		return at(LiteralValue, b.String(), graph.ValueString)

	case "Identifier":
		if n.Name == "undefined" {
			return at(LiteralValue, nil, graph.ValueUndefined)
		}

	case "UnaryExpression":
		if n.Operator != "-" && n.Operator != "+" {
			return Literal{}
		}
		inner := ExtractLiteral(n.Argument)
		f, ok := inner.Value.(float64)
		if !ok || inner.ValueKind != graph.ValueNumber {
			return Literal{}
		}
		if n.Operator == "-" {
			f = -f
		}
		return at(LiteralValue, f, graph.ValueNumber)
	}
	return Literal{}
}

func bigintText(n *ast.Node) string {
	if s, ok := n.Value.(string); ok && s != "" {
		return s
	}
	return strings.TrimSuffix(n.Raw, "n")
}

// undefinedAt is the implicit value of a destructuring hole.
func undefinedAt(n *ast.Node) Literal {
	return Literal{
		State:     LiteralValue,
		ValueKind: graph.ValueUndefined,
		Line:      n.Line(),
		Column:    n.Column(),
	}
}
