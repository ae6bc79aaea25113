package ast

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func parseJS(t *testing.T, path, src string) *Node {
	t.Helper()
	p := NewTreeSitterParser()
	defer p.Close()
	prog, err := p.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	require.Equal(t, "Program", prog.Type)
	return prog
}

// firstInit returns the initializer of the first declarator in stmt.
func firstInit(t *testing.T, stmt *Node) *Node {
	t.Helper()
	require.Equal(t, "VariableDeclaration", stmt.Type)
	require.NotEmpty(t, stmt.Declarations)
	return stmt.Declarations[0].Init
}

// readFixture reads a fixture relative to the project root.
func readFixture(t *testing.T, relPath string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../" + relPath)
	require.NoError(t, err, "reading fixture %s", relPath)
	return data
}

// ---------------------------------------------------------------------------
// TestTreeSitterParser_Supports
// ---------------------------------------------------------------------------

func TestTreeSitterParser_Supports(t *testing.T) {
	p := NewTreeSitterParser()
	defer p.Close()

	for _, path := range []string{"a.js", "a.jsx", "a.mjs", "a.ts", "a.tsx", "A.TS"} {
		assert.True(t, p.Supports(path), path)
	}
	for _, path := range []string{"a.go", "a.py", "a.ast.json", "Makefile"} {
		assert.False(t, p.Supports(path), path)
	}

	_, err := p.Parse(context.Background(), "main.go", []byte("package main"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

// ---------------------------------------------------------------------------
// TestTreeSitterParser_Declarations
// ---------------------------------------------------------------------------

func TestTreeSitterParser_Declarations(t *testing.T) {
	prog := parseJS(t, "decl.js", "const a = 1;\nlet b = 'x', c;\nvar d = null;\n")
	require.Len(t, prog.BodyList, 3)

	first := prog.BodyList[0]
	assert.Equal(t, "const", first.Kind)
	require.Len(t, first.Declarations, 1)
	assert.Equal(t, "a", first.Declarations[0].ID.Name)
	lit := first.Declarations[0].Init
	assert.Equal(t, "Literal", lit.Type)
	assert.Equal(t, float64(1), lit.Value)
	assert.Equal(t, 1, lit.Line())
	assert.Equal(t, 10, lit.Column())

	second := prog.BodyList[1]
	assert.Equal(t, "let", second.Kind)
	require.Len(t, second.Declarations, 2)
	assert.Equal(t, "x", second.Declarations[0].Init.Value)
	assert.Nil(t, second.Declarations[1].Init)

	third := prog.BodyList[2]
	assert.Equal(t, "var", third.Kind)
	null := firstInit(t, third)
	assert.Equal(t, "Literal", null.Type)
	assert.Equal(t, "null", null.Raw)
	assert.Nil(t, null.Value)
}

// ---------------------------------------------------------------------------
// TestTreeSitterParser_Expressions
// ---------------------------------------------------------------------------

func TestTreeSitterParser_Expressions(t *testing.T) {
	src := `const a = x.y + z.w;
const b = p ?? null;
const c = cond ? 'a' : 'b';
const d = obj.method(arg);
const e = new Foo(1);
const f = ` + "`hi ${name}!`" + `;
const g = items[0];
const h = (1, 2, v);
const i = -n;
`
	prog := parseJS(t, "expr.js", src)
	require.Len(t, prog.BodyList, 9)

	bin := firstInit(t, prog.BodyList[0])
	assert.Equal(t, "BinaryExpression", bin.Type)
	assert.Equal(t, "+", bin.Operator)
	assert.Equal(t, "MemberExpression", bin.Left.Type)
	assert.Equal(t, "x", bin.Left.Object.Name)
	assert.Equal(t, "y", bin.Left.Property.Name)
	assert.False(t, bin.Left.Computed)

	logical := firstInit(t, prog.BodyList[1])
	assert.Equal(t, "LogicalExpression", logical.Type)
	assert.Equal(t, "??", logical.Operator)

	cond := firstInit(t, prog.BodyList[2])
	assert.Equal(t, "ConditionalExpression", cond.Type)
	assert.Equal(t, "cond", cond.Test.Name)
	assert.Equal(t, "a", cond.Consequent.Value)
	assert.Equal(t, "b", cond.Alternate.Value)

	call := firstInit(t, prog.BodyList[3])
	assert.Equal(t, "CallExpression", call.Type)
	assert.Equal(t, "MemberExpression", call.Callee.Type)
	require.Len(t, call.Arguments, 1)
	assert.Equal(t, "arg", call.Arguments[0].Name)

	ctor := firstInit(t, prog.BodyList[4])
	assert.Equal(t, "NewExpression", ctor.Type)
	assert.Equal(t, "Foo", ctor.Callee.Name)

	tmpl := firstInit(t, prog.BodyList[5])
	assert.Equal(t, "TemplateLiteral", tmpl.Type)
	require.Len(t, tmpl.Expressions, 1)
	require.Len(t, tmpl.Quasis, 2)
	assert.Equal(t, "hi ", tmpl.Quasis[0].Cooked)
	assert.Equal(t, "!", tmpl.Quasis[1].Cooked)

	sub := firstInit(t, prog.BodyList[6])
	assert.Equal(t, "MemberExpression", sub.Type)
	assert.True(t, sub.Computed)

	seq := firstInit(t, prog.BodyList[7])
	require.Equal(t, "ParenthesizedExpression", seq.Type)
	require.Equal(t, "SequenceExpression", seq.Expression.Type)
	assert.Len(t, seq.Expression.Expressions, 3)

	unary := firstInit(t, prog.BodyList[8])
	assert.Equal(t, "UnaryExpression", unary.Type)
	assert.Equal(t, "-", unary.Operator)
}

// ---------------------------------------------------------------------------
// TestTreeSitterParser_Patterns
// ---------------------------------------------------------------------------

func TestTreeSitterParser_Patterns(t *testing.T) {
	src := "const { a, b: c, d = 1, ...rest } = obj;\nconst [x, , y = 2, ...tail] = arr;\n"
	prog := parseJS(t, "pat.js", src)
	require.Len(t, prog.BodyList, 2)

	obj := prog.BodyList[0].Declarations[0].ID
	require.Equal(t, "ObjectPattern", obj.Type)
	require.Len(t, obj.Properties, 4)
	assert.True(t, obj.Properties[0].Shorthand)
	assert.Equal(t, "a", obj.Properties[0].Key.Name)
	assert.Equal(t, "b", obj.Properties[1].Key.Name)
	assert.Equal(t, "c", obj.Properties[1].PropValue.Name)
	assert.Equal(t, "AssignmentPattern", obj.Properties[2].PropValue.Type)
	assert.Equal(t, "RestElement", obj.Properties[3].Type)

	arr := prog.BodyList[1].Declarations[0].ID
	require.Equal(t, "ArrayPattern", arr.Type)
	require.Len(t, arr.Elements, 4)
	assert.Equal(t, "x", arr.Elements[0].Name)
	assert.Nil(t, arr.Elements[1], "hole")
	assert.Equal(t, "AssignmentPattern", arr.Elements[2].Type)
	assert.Equal(t, "RestElement", arr.Elements[3].Type)
}

// ---------------------------------------------------------------------------
// TestTreeSitterParser_Statements
// ---------------------------------------------------------------------------

func TestTreeSitterParser_Statements(t *testing.T) {
	src := `function f(a, b = 2) {
  if (a) { return a; } else { return b; }
}
for (const k of list) {}
for (const k in obj) {}
switch (v) { case 1: go(); break; default: stop(); }
try { risky(); } catch (e) { log(e); } finally { done(); }
`
	prog := parseJS(t, "stmt.js", src)
	require.Len(t, prog.BodyList, 5)

	fn := prog.BodyList[0]
	assert.Equal(t, "FunctionDeclaration", fn.Type)
	assert.Equal(t, "f", fn.ID.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "AssignmentPattern", fn.Params[1].Type)
	ifStmt := fn.Body.BodyList[0]
	assert.Equal(t, "IfStatement", ifStmt.Type)
	assert.NotNil(t, ifStmt.Alternate)

	forOf := prog.BodyList[1]
	assert.Equal(t, "ForOfStatement", forOf.Type)
	assert.Equal(t, "VariableDeclaration", forOf.Left.Type)
	assert.Equal(t, "k", forOf.Left.Declarations[0].ID.Name)
	assert.Equal(t, "list", forOf.Right.Name)
	assert.Equal(t, "ForInStatement", prog.BodyList[2].Type)

	sw := prog.BodyList[3]
	assert.Equal(t, "SwitchStatement", sw.Type)
	require.Len(t, sw.Cases, 2)
	assert.NotNil(t, sw.Cases[0].Test)
	assert.Len(t, sw.Cases[0].CaseConsequent, 2)
	assert.Nil(t, sw.Cases[1].Test)

	try := prog.BodyList[4]
	assert.Equal(t, "TryStatement", try.Type)
	require.NotNil(t, try.Handler)
	assert.Equal(t, "e", try.Handler.Param.Name)
	assert.NotNil(t, try.Finalizer)
}

// ---------------------------------------------------------------------------
// TestTreeSitterParser_TypeScript
// ---------------------------------------------------------------------------

func TestTreeSitterParser_TypeScript(t *testing.T) {
	src := readFixture(t, "testdata/fixtures/js_project/src/util.ts")
	p := NewTreeSitterParser()
	defer p.Close()

	prog, err := p.Parse(context.Background(), "src/util.ts", src)
	require.NoError(t, err)

	var types []string
	for _, stmt := range prog.BodyList {
		types = append(types, stmt.Type)
	}
	assert.NotContains(t, types, "ts:interface_declaration", "type-only declarations are dropped")
	assert.Contains(t, types, "ExportNamedDeclaration")

	limit := prog.BodyList[0].Declaration
	require.NotNil(t, limit)
	init := firstInit(t, limit)
	assert.Equal(t, "TSAsExpression", init.Type)
	assert.Equal(t, "Literal", init.Expression.Type)

	clamp := prog.BodyList[2].Declaration
	require.Equal(t, "FunctionDeclaration", clamp.Type)
	require.Len(t, clamp.Params, 2)
	assert.Equal(t, "Identifier", clamp.Params[0].Type)
	assert.Equal(t, "AssignmentPattern", clamp.Params[1].Type)

	counter := prog.BodyList[3].Declaration
	require.Equal(t, "ClassDeclaration", counter.Type)
	require.NotNil(t, counter.Body)
	assert.Len(t, counter.Body.BodyList, 2)
}

// ---------------------------------------------------------------------------
// TestMultiParser
// ---------------------------------------------------------------------------

func TestMultiParser(t *testing.T) {
	mp := NewMultiParser(NewESTreeLoader(), NewTreeSitterParser())
	defer mp.Close()

	assert.True(t, mp.Supports("x.ast.json"))
	assert.True(t, mp.Supports("x.ts"))
	assert.False(t, mp.Supports("x.rb"))

	prog, err := mp.Parse(context.Background(), "x.js", []byte("let a = 1;"))
	require.NoError(t, err)
	assert.Len(t, prog.BodyList, 1)

	_, err = mp.Parse(context.Background(), "x.rb", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}
