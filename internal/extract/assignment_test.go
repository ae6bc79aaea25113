package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/graph"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTracker(file string) (*Tracker, *ScopeContext) {
	sc := NewScopeContext(file)
	return NewTracker(sc), sc
}

// declareVars declares every pattern name as a Variable in sc.
func declareVars(sc *ScopeContext) DeclareFunc {
	return func(name string, at *ast.Node) Binding {
		return sc.Declare(graph.NodeKindVariable, name, at)
	}
}

// bindFirst binds the first declarator of a one-statement program.
func bindFirst(t *testing.T, src string) ([]*AssignmentInfo, *ScopeContext) {
	t.Helper()
	prog := parseProgram(t, "bind.js", src)
	require.NotEmpty(t, prog.BodyList)
	decl := prog.BodyList[len(prog.BodyList)-1]
	require.Equal(t, "VariableDeclaration", decl.Type)
	tr, sc := newTracker("bind.js")
	return tr.BindPattern(decl.Declarations[0].ID, decl.Declarations[0].Init, declareVars(sc)), sc
}

func byTarget(infos []*AssignmentInfo) map[string]*AssignmentInfo {
	out := make(map[string]*AssignmentInfo, len(infos))
	for _, info := range infos {
		out[info.TargetName] = info
	}
	return out
}

// ---------------------------------------------------------------------------
// TestTracker_Describe
// ---------------------------------------------------------------------------

func TestTracker_Describe_Sources(t *testing.T) {
	tr, _ := newTracker("a.js")

	id := tr.Describe(parseExpr(t, "x"))
	assert.Equal(t, SourceIdentifier, id.SourceKind)
	assert.Equal(t, "x", id.IdentifierName)
	assert.Empty(t, id.SourceID, "identifiers resolve through scope, not ids")

	lit := tr.Describe(parseExpr(t, "'s'"))
	assert.Equal(t, SourceLiteral, lit.SourceKind)
	assert.Equal(t, graph.LiteralID("a.js", 1, 10), lit.SourceID)

	obj := tr.Describe(parseExpr(t, "{ a: 1 }"))
	assert.Equal(t, SourceObjectLiteral, obj.SourceKind)
	assert.Empty(t, obj.Members, "pure aggregates carry no members")

	call := tr.Describe(parseExpr(t, "load(1)"))
	assert.Equal(t, SourceCall, call.SourceKind)
	assert.Equal(t, graph.CallID(graph.NodeKindCall, "a.js", "load", 1, 10), call.SourceID)

	fn := tr.Describe(parseExpr(t, "() => 1"))
	assert.Equal(t, SourceFunction, fn.SourceKind)
	assert.Equal(t, FunctionID("a.js", graph.NodeKindFunction, fn.Node), fn.SourceID)
}

func TestTracker_Describe_ConstantExpression(t *testing.T) {
	tr, _ := newTracker("a.js")

	info := tr.Describe(parseExpr(t, "1 + 2"))
	require.Equal(t, SourceExpression, info.SourceKind)
	assert.Equal(t, graph.ExprBinary, info.ExpressionKind)
	assert.Equal(t, "+", info.Operator)
	require.Len(t, info.Slots, 2)
	assert.True(t, info.Slots[0].IsLiteral)
	assert.True(t, info.Slots[1].IsLiteral)
	assert.True(t, info.Constant)

	tern := tr.Describe(parseExpr(t, "cond ? 'a' : 'b'"))
	require.Len(t, tern.Slots, 2, "the test is not an operand slot")
	assert.Equal(t, "consequent", tern.Slots[0].Name)
	assert.Equal(t, "alternate", tern.Slots[1].Name)
	assert.True(t, tern.Constant)
}

func TestTracker_Describe_NullOperand(t *testing.T) {
	tr, _ := newTracker("a.js")

	info := tr.Describe(parseExpr(t, "a ?? null"))
	require.Equal(t, graph.ExprLogical, info.ExpressionKind)
	require.Len(t, info.Slots, 2)

	left, right := info.Slots[0], info.Slots[1]
	assert.True(t, left.IsIdentifier)
	assert.Equal(t, "a", left.IdentifierName)
	assert.True(t, right.IsLiteral, "null must be kept as a literal operand")
	assert.Equal(t, LiteralNull, right.Literal.State)
	assert.Equal(t, 15, right.Literal.Column)
	assert.False(t, info.Constant)
}

func TestTracker_Describe_NestedRecursion(t *testing.T) {
	tr, _ := newTracker("a.js")

	info := tr.Describe(parseExpr(t, "x.y + z.w"))
	require.Len(t, info.Slots, 2)
	for _, s := range info.Slots {
		require.NotNil(t, s.Nested, "complex operand %s must recurse", s.Name)
		assert.Equal(t, graph.ExprMember, s.Nested.ExpressionKind)
		require.Len(t, s.Nested.Slots, 1)
		assert.True(t, s.Nested.Slots[0].IsIdentifier)
	}
	assert.NotEqual(t, info.SourceID, info.Slots[0].Nested.SourceID)

	deep := tr.Describe(parseExpr(t, "a.b.c"))
	inner := deep.Slots[0].Nested
	require.NotNil(t, inner)
	assert.NotEqual(t, deep.SourceID, inner.SourceID, "nested members sharing a start position get distinct ids")
}

func TestTracker_Describe_Template(t *testing.T) {
	tr, _ := newTracker("a.js")

	info := tr.Describe(parseExpr(t, "`${a}-${1}-${f()}`"))
	require.Equal(t, graph.ExprTemplate, info.ExpressionKind)
	require.Len(t, info.Slots, 3)
	assert.Equal(t, "expressions[0]", info.Slots[0].Name)
	assert.True(t, info.Slots[0].IsIdentifier)
	assert.True(t, info.Slots[1].IsLiteral)
	require.NotNil(t, info.Slots[2].Nested)
	assert.Equal(t, SourceCall, info.Slots[2].Nested.SourceKind)
}

func TestTracker_Describe_Members(t *testing.T) {
	tr, _ := newTracker("a.js")

	info := tr.Describe(parseExpr(t, "{ a: x, b: 1, c: { d: y }, ...rest }"))
	require.Equal(t, SourceObjectLiteral, info.SourceKind)
	require.Len(t, info.Members, 4)

	assert.Equal(t, "a", info.Members[0].Key)
	assert.Equal(t, SourceIdentifier, info.Members[0].Value.SourceKind)
	assert.Equal(t, SourceLiteral, info.Members[1].Value.SourceKind)
	nested := info.Members[2].Value
	assert.Equal(t, SourceObjectLiteral, nested.SourceKind)
	require.Len(t, nested.Members, 1, "object literal members recurse")
	assert.Equal(t, "...", info.Members[3].Key)

	arr := tr.Describe(parseExpr(t, "[x, 2]"))
	require.Len(t, arr.Members, 2)
	assert.Equal(t, "0", arr.Members[0].Key)
	assert.Equal(t, "1", arr.Members[1].Key)
}

func TestTracker_Describe_Unhandled(t *testing.T) {
	tr, sc := newTracker("a.js")

	info := tr.Describe(parseExpr(t, "this.x"))
	require.Len(t, info.Slots, 1)
	require.NotNil(t, info.Slots[0].Nested)
	assert.Equal(t, SourceNone, info.Slots[0].Nested.SourceKind)
	assert.False(t, info.Constant)

	cov := sc.Coverage()
	assert.Equal(t, 1, cov.Unhandled["ThisExpression"])
}

// ---------------------------------------------------------------------------
// TestTracker_BindPattern
// ---------------------------------------------------------------------------

func TestTracker_Track(t *testing.T) {
	tr, sc := newTracker("a.js")
	b := sc.Declare(graph.NodeKindVariable, "v", nil)

	info := tr.Track(b, parseExpr(t, "42"))
	assert.Equal(t, b.ID, info.TargetID)
	assert.Equal(t, "v", info.TargetName)
	assert.Equal(t, SourceLiteral, info.SourceKind)
}

func TestTracker_BindPattern_Identifier(t *testing.T) {
	infos, _ := bindFirst(t, "let x;")
	require.Len(t, infos, 1)
	assert.Equal(t, SourceNone, infos[0].SourceKind, "no initializer, no source")
	assert.Equal(t, "bind.js->global->VARIABLE->x", infos[0].TargetID)
}

func TestTracker_BindPattern_LiteralObject(t *testing.T) {
	infos, _ := bindFirst(t, "const { a, b: renamed, c = 5, missing } = { a: 1, b: x };")
	got := byTarget(infos)
	require.Len(t, got, 4)

	assert.Equal(t, SourceLiteral, got["a"].SourceKind)
	assert.Equal(t, float64(1), got["a"].Literal.Value)

	assert.Equal(t, SourceIdentifier, got["renamed"].SourceKind)
	assert.Equal(t, "x", got["renamed"].IdentifierName)

	assert.Equal(t, SourceLiteral, got["c"].SourceKind, "missing key falls back to the default")
	assert.Equal(t, float64(5), got["c"].Literal.Value)

	assert.Equal(t, SourceLiteral, got["missing"].SourceKind)
	assert.Equal(t, graph.ValueUndefined, got["missing"].Literal.ValueKind, "hole without default is undefined")
}

func TestTracker_BindPattern_LiteralArray(t *testing.T) {
	infos, _ := bindFirst(t, "const [first, , third = 0, fourth] = [1, 2];")
	got := byTarget(infos)
	require.Len(t, got, 3)

	assert.Equal(t, float64(1), got["first"].Literal.Value)
	assert.Equal(t, float64(0), got["third"].Literal.Value)
	assert.Equal(t, graph.ValueUndefined, got["fourth"].Literal.ValueKind)
}

func TestTracker_BindPattern_OpaqueInitializer(t *testing.T) {
	infos, _ := bindFirst(t, "const { url, timeout = 30, inner: { deep } } = config;")
	got := byTarget(infos)
	require.Len(t, got, 3)

	url := got["url"]
	require.Equal(t, SourceExpression, url.SourceKind)
	assert.Equal(t, graph.ExprMember, url.ExpressionKind)
	require.Len(t, url.Slots, 1)
	assert.Equal(t, "config", url.Slots[0].IdentifierName)

	timeout := got["timeout"]
	require.Len(t, timeout.Slots, 2)
	assert.Equal(t, "default", timeout.Slots[1].Name)
	assert.True(t, timeout.Slots[1].IsLiteral)
	assert.False(t, timeout.Constant)

	deep := got["deep"]
	require.Len(t, deep.Slots, 1)
	require.NotNil(t, deep.Slots[0].Nested, "nested pattern reads through the outer path")
	assert.Equal(t, graph.ExprMember, deep.Slots[0].Nested.ExpressionKind)
	assert.NotEqual(t, deep.SourceID, deep.Slots[0].Nested.SourceID)
}

func TestTracker_BindPattern_CallInitializer(t *testing.T) {
	infos, _ := bindFirst(t, "const [a, b] = load();")
	require.Len(t, infos, 2)
	for _, info := range infos {
		require.Len(t, info.Slots, 1)
		require.NotNil(t, info.Slots[0].Nested)
		assert.Equal(t, SourceCall, info.Slots[0].Nested.SourceKind)
	}
	assert.Equal(t, infos[0].Slots[0].Nested.SourceID, infos[1].Slots[0].Nested.SourceID,
		"both names read the same call node")
}

func TestTracker_BindPattern_Rest(t *testing.T) {
	infos, _ := bindFirst(t, "const [head, ...tail] = list;")
	got := byTarget(infos)
	require.Len(t, got, 2)
	assert.Equal(t, SourceIdentifier, got["tail"].SourceKind, "rest derives from the whole initializer")
	assert.Equal(t, "list", got["tail"].IdentifierName)
}

func TestTracker_BindPattern_UnknownParameter(t *testing.T) {
	prog := parseProgram(t, "p.js", "function f({ a, b = 2 }, c) {}")
	fn := prog.BodyList[0]
	tr, sc := newTracker("p.js")

	var infos []*AssignmentInfo
	for _, p := range fn.Params {
		infos = append(infos, tr.BindPattern(p, nil, declareVars(sc))...)
	}
	got := byTarget(infos)
	require.Len(t, got, 3)
	assert.Equal(t, SourceNone, got["a"].SourceKind)
	assert.Equal(t, SourceLiteral, got["b"].SourceKind)
	assert.Equal(t, SourceNone, got["c"].SourceKind)
}

func TestTracker_BindIteration(t *testing.T) {
	prog := parseProgram(t, "it.js", "for (const [k, v] of entries) {}")
	loop := prog.BodyList[0]
	tr, sc := newTracker("it.js")

	pattern := loop.Left.Declarations[0].ID
	infos := tr.BindIteration(pattern, loop.Right, declareVars(sc))
	require.Len(t, infos, 2)
	for _, info := range infos {
		require.Equal(t, graph.ExprMember, info.ExpressionKind)
		iter := info.Slots[0].Nested
		require.NotNil(t, iter)
		assert.Equal(t, graph.ExprIteration, iter.ExpressionKind)
		assert.Equal(t, "entries", iter.Slots[0].IdentifierName)
	}
}
