package extract

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/lineage/internal/ast"
	"github.com/dusk-indust/lineage/internal/graph"
)

// ScopeKind distinguishes function scopes (var hoisting targets) from
// block scopes.
type ScopeKind int

const (
	ScopeFunction ScopeKind = iota
	ScopeBlock
)

// Binding is a declared name and the id of its node.
type Binding struct {
	ID     string
	Kind   graph.NodeKind
	Name   string
	Line   int
	Column int
}

type scope struct {
	kind     ScopeKind
	segment  string
	bindings map[string]Binding
}

// ScopeContext carries all mutable state of one analysis unit: the scope
// chain, the block counters that make scope paths deterministic, and the
// coverage record. One context per unit; it is not safe for concurrent use.
type ScopeContext struct {
	file     string
	stack    []*scope
	counters map[string]int
	coverage Coverage
}

// NewScopeContext returns a context holding only the module scope.
func NewScopeContext(file string) *ScopeContext {
	sc := &ScopeContext{
		file:     file,
		counters: make(map[string]int),
		coverage: newCoverage(),
	}
	sc.stack = []*scope{{kind: ScopeFunction, segment: "global", bindings: make(map[string]Binding)}}
	return sc
}

// File returns the file the unit belongs to.
func (sc *ScopeContext) File() string {
	return sc.file
}

// Path returns the scope path used in declaration ids.
func (sc *ScopeContext) Path() string {
	return pathOf(sc.stack)
}

func pathOf(stack []*scope) string {
	segs := make([]string, len(stack))
	for i, s := range stack {
		segs[i] = s.segment
	}
	return strings.Join(segs, "->")
}

// Depth returns the number of open scopes, module scope included.
func (sc *ScopeContext) Depth() int {
	return len(sc.stack)
}

// PushFunction opens a function scope. Anonymous functions get a counter
// segment (fn#n).
func (sc *ScopeContext) PushFunction(name string) {
	if name == "" {
		name = sc.next("fn")
	}
	sc.push(ScopeFunction, name)
}

// PushBlock opens a block scope named kind#n.
func (sc *ScopeContext) PushBlock(kind string) {
	sc.push(ScopeBlock, sc.next(kind))
}

func (sc *ScopeContext) push(kind ScopeKind, segment string) {
	sc.stack = append(sc.stack, &scope{kind: kind, segment: segment, bindings: make(map[string]Binding)})
}

func (sc *ScopeContext) next(kind string) string {
	n := sc.counters[kind]
	sc.counters[kind] = n + 1
	return fmt.Sprintf("%s#%d", kind, n)
}

// Pop closes the innermost scope. The module scope is never popped.
func (sc *ScopeContext) Pop() {
	if len(sc.stack) > 1 {
		sc.stack = sc.stack[:len(sc.stack)-1]
	}
}

// Declare binds name in the innermost scope (let, const, class, params).
func (sc *ScopeContext) Declare(kind graph.NodeKind, name string, at *ast.Node) Binding {
	return sc.declareIn(len(sc.stack)-1, kind, name, at)
}

// DeclareHoisted binds name in the nearest function scope (var, function
// declarations).
func (sc *ScopeContext) DeclareHoisted(kind graph.NodeKind, name string, at *ast.Node) Binding {
	i := len(sc.stack) - 1
	for i > 0 && sc.stack[i].kind != ScopeFunction {
		i--
	}
	return sc.declareIn(i, kind, name, at)
}

func (sc *ScopeContext) declareIn(i int, kind graph.NodeKind, name string, at *ast.Node) Binding {
	s := sc.stack[i]
	if b, ok := s.bindings[name]; ok && b.Kind == kind {
		return b
	}
	b := Binding{
		ID:     graph.DeclarationID(sc.file, pathOf(sc.stack[:i+1]), kind, name),
		Kind:   kind,
		Name:   name,
		Line:   at.Line(),
		Column: at.Column(),
	}
	s.bindings[name] = b
	return b
}

// Lookup resolves name from the innermost scope outwards.
func (sc *ScopeContext) Lookup(name string) (Binding, bool) {
	for i := len(sc.stack) - 1; i >= 0; i-- {
		if b, ok := sc.stack[i].bindings[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// Resolve looks up an identifier occurrence and records it as unresolved
// when no binding exists.
func (sc *ScopeContext) Resolve(name string, line, col int) (Binding, bool) {
	b, ok := sc.Lookup(name)
	if !ok {
		sc.coverage.addUnresolved(name, line, col)
	}
	return b, ok
}

// Unhandled records an AST type the extractors could not interpret.
func (sc *ScopeContext) Unhandled(n *ast.Node) {
	if n == nil {
		return
	}
	sc.coverage.addUnhandled(n.Type, n.Line(), n.Column())
}

// Coverage returns a copy of the unit's coverage record.
func (sc *ScopeContext) Coverage() Coverage {
	return sc.coverage.clone()
}
