package builder

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/extract"
	"github.com/dusk-indust/lineage/internal/graph"
)

// ErrNotProgram is returned when a unit's root is not a Program node.
var ErrNotProgram = errors.New("root is not a Program")

// UnitResult is the outcome of one build pass.
type UnitResult struct {
	File     string
	Batch    *graph.Batch
	Coverage extract.Coverage
}

// Analyzer runs build passes. It keeps no per-unit state, so one Analyzer
// may serve many workers at once.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer returns an analyzer logging to logger. A nil logger
// discards output.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// AnalyzeUnit walks one program and returns its buffered mutations and
// coverage record. Build-time gaps never fail the pass; only a malformed
// tree does.
func (a *Analyzer) AnalyzeUnit(program *ast.Node, file string) (res *UnitResult, err error) {
	if !program.Is("Program") {
		return nil, fmt.Errorf("builder: analyze %s: %w", file, ErrNotProgram)
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("builder: analyze %s: panic: %v", file, r)
		}
	}()

	w := newWalker(NewUnit(file))
	w.program(program)

	cov := w.u.Scope.Coverage()
	if n := cov.UnhandledTotal(); n > 0 {
		a.logger.Debug("unhandled AST types",
			zap.String("file", file),
			zap.Int("count", n),
			zap.Strings("types", cov.UnhandledTypes()),
		)
	}
	if n := cov.UnresolvedTotal(); n > 0 {
		a.logger.Debug("unresolved identifiers", zap.String("file", file), zap.Int("count", n))
	}
	return &UnitResult{File: file, Batch: w.u.Batch, Coverage: cov}, nil
}

// walker is the AST traversal of one unit. owner receives Contains edges;
// fn is the function Returns edges leave from, empty at module level.
type walker struct {
	u      *Unit
	core   *LiteralBuilder
	assign *AssignmentBuilder
	ret    *ReturnBuilder
	flow   *ControlFlowBuilder

	owner   string
	fn      string
	hoisted map[*ast.Node]string
}

func newWalker(u *Unit) *walker {
	core := NewLiteralBuilder(u)
	assign := NewAssignmentBuilder(u, core)
	return &walker{
		u:       u,
		core:    core,
		assign:  assign,
		ret:     NewReturnBuilder(u, assign),
		flow:    NewControlFlowBuilder(u, core, assign),
		hoisted: make(map[*ast.Node]string),
	}
}

func (w *walker) program(n *ast.Node) {
	w.owner = w.core.Module()
	w.statements(n.BodyList)
}

// statements hoists the function declarations of a body, then visits it.
func (w *walker) statements(list []*ast.Node) {
	w.hoist(list)
	for _, s := range list {
		w.visit(s)
	}
}

func (w *walker) hoist(list []*ast.Node) {
	for _, s := range list {
		if s.Is("ExportNamedDeclaration", "ExportDefaultDeclaration") {
			s = s.Declaration
		}
		if !s.Is("FunctionDeclaration") || s.ID == nil {
			continue
		}
		b := w.u.Scope.DeclareHoisted(graph.NodeKindFunction, s.ID.Name, s)
		w.core.Declaration(b)
		w.core.Contains(w.owner, b.ID)
		w.hoisted[s] = b.ID
	}
}

func (w *walker) visit(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Type {
	// ---------- Statements ----------

	case "BlockStatement":
		w.block("block", n)
	case "ExpressionStatement":
		w.visit(n.Expression)
	case "VariableDeclaration":
		w.variables(n)
	case "FunctionDeclaration":
		w.functionDeclaration(n)
	case "ClassDeclaration":
		w.classDeclaration(n)
	case "ReturnStatement":
		if w.fn != "" && n.Argument != nil {
			w.ret.Return(w.fn, w.u.Tracker.Describe(n.Argument))
		}
		w.visit(n.Argument)
	case "LabeledStatement":
		w.visit(n.Body)

	case "IfStatement":
		w.branch(n)
		w.visit(n.Test)
		w.block("if", n.Consequent)
		if n.Alternate.Is("IfStatement") {
			w.visit(n.Alternate)
		} else {
			w.block("else", n.Alternate)
		}
	case "SwitchStatement":
		w.branch(n)
		w.visit(n.Discriminant)
		w.u.Scope.PushBlock("switch")
		var body []*ast.Node
		for _, c := range n.Cases {
			body = append(body, c.CaseConsequent...)
		}
		w.hoist(body)
		for _, c := range n.Cases {
			w.visit(c.Test)
			for _, s := range c.CaseConsequent {
				w.visit(s)
			}
		}
		w.u.Scope.Pop()
	case "ForStatement":
		w.branch(n)
		w.u.Scope.PushBlock("for")
		w.visit(n.Init)
		w.visit(n.Test)
		w.visit(n.Update)
		w.inline(n.Body)
		w.u.Scope.Pop()
	case "ForInStatement", "ForOfStatement":
		w.branch(n)
		w.visit(n.Right)
		w.u.Scope.PushBlock("for")
		w.iteration(n)
		w.inline(n.Body)
		w.u.Scope.Pop()
	case "WhileStatement":
		w.branch(n)
		w.visit(n.Test)
		w.block("while", n.Body)
	case "DoWhileStatement":
		w.branch(n)
		w.block("do", n.Body)
		w.visit(n.Test)
	case "TryStatement":
		w.branch(n)
		w.block("try", n.Block)
		if h := n.Handler; h != nil {
			w.u.Scope.PushBlock("catch")
			w.bind(h.Param, nil, w.declarer(graph.NodeKindParameter, false))
			w.inline(h.Body)
			w.u.Scope.Pop()
		}
		w.block("finally", n.Finalizer)

	case "ImportDeclaration":
		w.imports(n)
	case "ExportNamedDeclaration":
		w.visit(n.Declaration)
	case "ExportDefaultDeclaration":
		w.exportDefault(n.Declaration)

	// ---------- Expressions ----------

	case "CallExpression", "OptionalCallExpression", "NewExpression", "TaggedTemplateExpression":
		w.call(n)
	case "AssignmentExpression":
		w.assignment(n)
	case "ConditionalExpression":
		w.branch(n)
		w.children(n)
	case "FunctionExpression", "ArrowFunctionExpression", "ObjectMethod":
		id := extract.FunctionID(w.u.File, graph.NodeKindFunction, n)
		name := extract.FunctionName(n)
		w.core.Function(graph.NodeKindFunction, id, name, n)
		w.function(n, id, name)
	case "ClassExpression":
		id := extract.FunctionID(w.u.File, graph.NodeKindClass, n)
		w.core.Function(graph.NodeKindClass, id, extract.FunctionName(n), n)
		w.class(n, id)

	default:
		w.children(n)
	}
}

func (w *walker) children(n *ast.Node) {
	for _, c := range n.Children() {
		w.visit(c)
	}
}

// block visits n in a fresh block scope named kind#n.
func (w *walker) block(kind string, n *ast.Node) {
	if n == nil {
		return
	}
	w.u.Scope.PushBlock(kind)
	w.inline(n)
	w.u.Scope.Pop()
}

// inline visits n in the current scope; a block's statements join it
// directly.
func (w *walker) inline(n *ast.Node) {
	if n.Is("BlockStatement") {
		w.statements(n.BodyList)
		return
	}
	w.visit(n)
}

func (w *walker) branch(n *ast.Node) {
	if bi, ok := extract.ExtractBranch(w.u.File, n); ok {
		w.flow.Branch(w.owner, bi)
	}
}

// ---------- Bindings ----------

// declarer returns a DeclareFunc that buffers each declared name and links
// it to the current owner.
func (w *walker) declarer(kind graph.NodeKind, hoisted bool) extract.DeclareFunc {
	return func(name string, at *ast.Node) extract.Binding {
		var b extract.Binding
		if hoisted {
			b = w.u.Scope.DeclareHoisted(kind, name, at)
		} else {
			b = w.u.Scope.Declare(kind, name, at)
		}
		w.core.Declaration(b)
		w.core.Contains(w.owner, b.ID)
		return b
	}
}

// rebinder resolves pattern names to existing bindings. Unresolved names
// get an empty binding, which Assign skips.
func (w *walker) rebinder() extract.DeclareFunc {
	return func(name string, at *ast.Node) extract.Binding {
		b, _ := w.u.Scope.Resolve(name, at.Line(), at.Column())
		return b
	}
}

// bind binds pattern against init and builds every resulting assignment,
// then visits the expressions embedded in the pattern.
func (w *walker) bind(pattern, init *ast.Node, declare extract.DeclareFunc) {
	for _, info := range w.u.Tracker.BindPattern(pattern, init, declare) {
		w.assign.Assign(info)
	}
	w.pattern(pattern)
}

// pattern visits pattern defaults and computed keys.
func (w *walker) pattern(p *ast.Node) {
	switch {
	case p == nil:
	case p.Is("AssignmentPattern"):
		w.pattern(p.Left)
		w.visit(p.Right)
	case p.Is("RestElement"):
		w.pattern(p.Argument)
	case p.Is("ObjectPattern"):
		for _, prop := range p.Properties {
			if prop.Is("RestElement") {
				w.pattern(prop)
				continue
			}
			if prop.Computed {
				w.visit(prop.Key)
			}
			w.pattern(prop.PropValue)
		}
	case p.Is("ArrayPattern"):
		for _, e := range p.Elements {
			w.pattern(e)
		}
	}
}

func (w *walker) variables(n *ast.Node) {
	declare := w.declarer(graph.NodeKindVariable, n.Kind == "var")
	for _, d := range n.Declarations {
		w.bind(d.ID, d.Init, declare)
		w.visit(d.Init)
	}
}

func (w *walker) iteration(n *ast.Node) {
	left := n.Left
	declare := w.rebinder()
	if left.Is("VariableDeclaration") {
		if len(left.Declarations) == 0 {
			return
		}
		declare = w.declarer(graph.NodeKindVariable, left.Kind == "var")
		left = left.Declarations[0].ID
	}
	for _, info := range w.u.Tracker.BindIteration(left, n.Right, declare) {
		w.assign.Assign(info)
	}
	w.pattern(left)
}

func (w *walker) assignment(n *ast.Node) {
	if n.Operator != "=" {
		// Compound assignments mix the old value in; not tracked.
		w.u.Scope.Unhandled(n)
		w.children(n)
		return
	}
	left := extract.Unwrap(n.Left)
	switch {
	case left.Is("Identifier"):
		if b, ok := w.u.Scope.Resolve(left.Name, left.Line(), left.Column()); ok {
			w.assign.Assign(w.u.Tracker.Track(b, n.Right))
		}
	case left.Is("ObjectPattern", "ArrayPattern"):
		w.bind(left, n.Right, w.rebinder())
	default:
		w.visit(n.Left)
	}
	w.visit(n.Right)
}

func (w *walker) imports(n *ast.Node) {
	var source string
	if n.Source != nil {
		source, _ = n.Source.Value.(string)
	}
	for _, s := range n.Specifiers {
		if s.Local == nil {
			continue
		}
		b := w.u.Scope.Declare(graph.NodeKindImport, s.Local.Name, s.Local)
		w.core.Import(b, source)
		w.core.Contains(w.owner, b.ID)
	}
}

// exportDefault binds an exported expression to a variable named default,
// which no identifier can reference.
func (w *walker) exportDefault(d *ast.Node) {
	switch {
	case d == nil:
	case d.Is("FunctionDeclaration", "ClassDeclaration"):
		w.visit(d)
	default:
		b := w.declarer(graph.NodeKindVariable, false)("default", d)
		w.assign.Assign(w.u.Tracker.Track(b, d))
		w.visit(d)
	}
}

// ---------- Calls ----------

func (w *walker) call(n *ast.Node) {
	if c := extract.Classify(n); c.Kind.IsCall() {
		id := w.core.CallOf(c)
		w.core.Contains(w.owner, id)
		for _, arg := range n.Arguments {
			w.uses(id, arg)
		}
		if n.Quasi != nil {
			for _, e := range n.Quasi.Expressions {
				w.uses(id, e)
			}
		}
		for _, callee := range []*ast.Node{n.Callee, n.Tag} {
			if m := extract.Unwrap(callee); m.Is("MemberExpression", "OptionalMemberExpression") {
				w.uses(id, m.Object)
			}
		}
	}
	w.children(n)
}

// uses links a call to an identifier argument or receiver it consumes.
func (w *walker) uses(call string, arg *ast.Node) {
	if arg.Is("SpreadElement") {
		arg = arg.Argument
	}
	c := extract.Classify(arg)
	if c.Kind != extract.KindIdentifier {
		return
	}
	if b, ok := w.u.Scope.Resolve(c.Name, c.Node.Line(), c.Node.Column()); ok {
		w.u.edge(graph.EdgeUses, call, b.ID)
	}
}

// ---------- Functions and classes ----------

func (w *walker) functionDeclaration(n *ast.Node) {
	name := extract.FunctionName(n)
	id, ok := w.hoisted[n]
	if !ok {
		id = extract.FunctionID(w.u.File, graph.NodeKindFunction, n)
		w.core.Function(graph.NodeKindFunction, id, name, n)
	}
	w.function(n, id, name)
}

// function opens the function's scope, binds its parameters and walks its
// body. An expression body is the function's return value.
func (w *walker) function(n *ast.Node, id, name string) {
	w.u.Scope.PushFunction(name)
	owner, fn := w.owner, w.fn
	w.owner, w.fn = id, id
	defer func() {
		w.owner, w.fn = owner, fn
		w.u.Scope.Pop()
	}()

	declare := w.declarer(graph.NodeKindParameter, false)
	for _, p := range n.Params {
		w.bind(p, nil, declare)
	}

	body := n.Body
	switch {
	case body == nil:
	case body.Is("BlockStatement"):
		w.statements(body.BodyList)
	default:
		w.ret.Return(id, w.u.Tracker.Describe(body))
		w.visit(body)
	}
}

func (w *walker) classDeclaration(n *ast.Node) {
	if n.ID == nil {
		id := extract.FunctionID(w.u.File, graph.NodeKindClass, n)
		w.core.Function(graph.NodeKindClass, id, "", n)
		w.class(n, id)
		return
	}
	b := w.declarer(graph.NodeKindClass, false)(n.ID.Name, n)
	w.class(n, b.ID)
}

// class walks a class body. Methods become Function nodes named by their
// key and contained by the class.
func (w *walker) class(n *ast.Node, id string) {
	w.visit(n.SuperClass)
	if n.Body == nil {
		return
	}
	w.u.Scope.PushFunction(extract.FunctionName(n))
	owner := w.owner
	w.owner = id
	defer func() {
		w.owner = owner
		w.u.Scope.Pop()
	}()

	for _, m := range n.Body.BodyList {
		if !m.Is("MethodDefinition", "ClassMethod", "ClassPrivateMethod") {
			w.visit(m)
			continue
		}
		if m.Computed {
			w.visit(m.Key)
		}
		fnNode := m.PropValue
		if fnNode == nil {
			// Babel class methods carry params and body themselves.
			fnNode = m
		}
		name := extract.PropertyKey(m)
		fid := extract.FunctionID(w.u.File, graph.NodeKindFunction, fnNode)
		w.core.Function(graph.NodeKindFunction, fid, name, fnNode)
		w.core.Contains(id, fid)
		w.function(fnNode, fid, name)
	}
}
