package graph

import "fmt"

// Node ids are pure functions of source coordinates and kind. Declarations
// use a semantic form, everything else a positional form.

// ModuleID returns the id of the Module node for file.
func ModuleID(file string) string {
	return file + "->MODULE"
}

// DeclarationID returns the semantic id of a declared entity (Variable,
// Parameter, Function, Class, Import): file->scopePath->KIND->name.
func DeclarationID(file, scopePath string, kind NodeKind, name string) string {
	return fmt.Sprintf("%s->%s->%s->%s", file, scopePath, kind, name)
}

// PositionalID returns the id of a node identified by where it occurs.
func PositionalID(file string, kind NodeKind, disambiguator string, line, col int) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d", file, kind, disambiguator, line, col)
}

// Span is the source extent of a node. Nested expressions of the same kind
// can share a start position (a.b.c, a + b + c), so expression ids carry the
// end as well.
type Span struct {
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// ExpressionID returns the id of an Expression node. Every component that
// needs the id of an expression, including edges that point at one, must
// derive it here.
func ExpressionID(subKind ExpressionKind, file string, s Span) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d:%d:%d", file, NodeKindExpression, subKind, s.Line, s.Column, s.EndLine, s.EndColumn)
}

// LiteralID returns the id of an inline Literal node at the literal's own
// position.
func LiteralID(file string, line, col int) string {
	return PositionalID(file, NodeKindLiteral, "value", line, col)
}

// AggregateID returns the id of an ObjectLiteral or ArrayLiteral node.
func AggregateID(kind NodeKind, file string, line, col int) string {
	return PositionalID(file, kind, "literal", line, col)
}

// CallID returns the id of a Call, MethodCall or ConstructorCall node.
func CallID(kind NodeKind, file, callee string, line, col int) string {
	return PositionalID(file, kind, callee, line, col)
}

// BranchID returns the id of a Branch node.
func BranchID(kind BranchKind, file string, line, col int) string {
	return PositionalID(file, NodeKindBranch, string(kind), line, col)
}

// IssueID returns the id of the Issue reporting code against target.
func IssueID(code, target string) string {
	return "issue:" + code + ":" + target
}
