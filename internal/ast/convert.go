package ast

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// converter maps tree-sitter JavaScript/TypeScript CST nodes onto ESTree
// node types. Node kinds without an ESTree counterpart keep their tree-sitter
// kind (prefixed "ts:") and carry their named children in BodyList so the
// analyzer can still descend into them.
type converter struct {
	src []byte
}

// typeOnly lists TS declarations that contribute no runtime data flow.
var typeOnly = map[string]bool{
	"interface_declaration":     true,
	"type_alias_declaration":    true,
	"ambient_declaration":       true,
	"abstract_method_signature": true,
	"index_signature":           true,
	"method_signature":          true,
	"property_signature":        true,
	"type_annotation":           true,
	"type_arguments":            true,
	"type_parameters":           true,
	"comment":                   true,
	"hash_bang_line":            true,
	"empty_statement":           true,
	"decorator":                 true,
	"accessibility_modifier":    true,
	"override_modifier":         true,
}

func (c *converter) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(c.src)
}

func (c *converter) node(typ string, n *tree_sitter.Node) *Node {
	start, end := n.StartPosition(), n.EndPosition()
	return &Node{
		Type: typ,
		Loc: SourceLocation{
			Start: Position{Line: int(start.Row) + 1, Column: int(start.Column)},
			End:   Position{Line: int(end.Row) + 1, Column: int(end.Column)},
		},
	}
}

func (c *converter) field(n *tree_sitter.Node, name string) *Node {
	return c.convert(n.ChildByFieldName(name))
}

// namedChildren returns the named, non-extra children of n.
func namedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.IsExtra() {
			continue
		}
		out = append(out, child)
	}
	return out
}

func sameNode(a, b *tree_sitter.Node) bool {
	return a.Kind() == b.Kind() && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// hasToken reports whether n has an anonymous child with the given text.
func (c *converter) hasToken(n *tree_sitter.Node, tok string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && !child.IsNamed() && child.Kind() == tok {
			return true
		}
	}
	return false
}

func (c *converter) list(ns []*tree_sitter.Node) []*Node {
	var out []*Node
	for _, n := range ns {
		if conv := c.convert(n); conv != nil {
			out = append(out, conv)
		}
	}
	return out
}

// convert maps a CST node to its ESTree equivalent. Returns nil for nil input
// and for type-only or trivia nodes.
func (c *converter) convert(n *tree_sitter.Node) *Node {
	if n == nil {
		return nil
	}
	kind := n.Kind()
	if typeOnly[kind] {
		return nil
	}

	switch kind {
	// ---------- Statements ----------

	case "program":
		out := c.node("Program", n)
		out.BodyList = c.list(namedChildren(n))
		return out

	case "statement_block", "class_static_block":
		out := c.node("BlockStatement", n)
		out.BodyList = c.list(namedChildren(n))
		return out

	case "expression_statement":
		out := c.node("ExpressionStatement", n)
		if kids := namedChildren(n); len(kids) > 0 {
			out.Expression = c.convert(kids[0])
		}
		return out

	case "lexical_declaration", "variable_declaration":
		return c.variableDeclaration(n)

	case "function_declaration", "generator_function_declaration":
		return c.function("FunctionDeclaration", n)

	case "class_declaration", "abstract_class_declaration":
		return c.class("ClassDeclaration", n)

	case "return_statement":
		out := c.node("ReturnStatement", n)
		if kids := namedChildren(n); len(kids) > 0 {
			out.Argument = c.convert(kids[0])
		}
		return out

	case "throw_statement":
		out := c.node("ThrowStatement", n)
		if kids := namedChildren(n); len(kids) > 0 {
			out.Argument = c.convert(kids[0])
		}
		return out

	case "if_statement":
		out := c.node("IfStatement", n)
		out.Test = c.field(n, "condition")
		out.Consequent = c.field(n, "consequence")
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			if kids := namedChildren(alt); alt.Kind() == "else_clause" && len(kids) > 0 {
				out.Alternate = c.convert(kids[0])
			} else {
				out.Alternate = c.convert(alt)
			}
		}
		return out

	case "for_statement":
		out := c.node("ForStatement", n)
		out.Init = c.unwrapStatement(n.ChildByFieldName("initializer"))
		out.Test = c.unwrapStatement(n.ChildByFieldName("condition"))
		out.Update = c.field(n, "increment")
		out.Body = c.field(n, "body")
		return out

	case "for_in_statement":
		return c.forIn(n)

	case "while_statement":
		out := c.node("WhileStatement", n)
		out.Test = c.field(n, "condition")
		out.Body = c.field(n, "body")
		return out

	case "do_statement":
		out := c.node("DoWhileStatement", n)
		out.Body = c.field(n, "body")
		out.Test = c.field(n, "condition")
		return out

	case "switch_statement":
		return c.switchStatement(n)

	case "try_statement":
		out := c.node("TryStatement", n)
		out.Block = c.field(n, "body")
		if h := n.ChildByFieldName("handler"); h != nil {
			clause := c.node("CatchClause", h)
			clause.Param = c.pattern(h.ChildByFieldName("parameter"))
			clause.Body = c.field(h, "body")
			out.Handler = clause
		}
		if f := n.ChildByFieldName("finalizer"); f != nil {
			out.Finalizer = c.field(f, "body")
		}
		return out

	case "labeled_statement":
		out := c.node("LabeledStatement", n)
		out.Body = c.field(n, "body")
		return out

	case "break_statement", "continue_statement", "debugger_statement":
		return c.node(kindToType(kind), n)

	case "import_statement":
		return c.importDeclaration(n)

	case "export_statement":
		return c.exportStatement(n)

	// ---------- Expressions ----------

	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "statement_identifier",
		"private_property_identifier", "type_identifier":
		out := c.node("Identifier", n)
		out.Name = c.text(n)
		return out

	case "undefined":
		out := c.node("Identifier", n)
		out.Name = "undefined"
		return out

	case "this":
		return c.node("ThisExpression", n)

	case "super":
		return c.node("Super", n)

	case "import":
		return c.node("Import", n)

	case "number":
		return c.number(n)

	case "string":
		out := c.node("Literal", n)
		out.Raw = c.text(n)
		out.Value = c.stringValue(n)
		return out

	case "true", "false":
		out := c.node("Literal", n)
		out.Raw = kind
		out.Value = kind == "true"
		return out

	case "null":
		out := c.node("Literal", n)
		out.Raw = "null"
		return out

	case "regex":
		out := c.node("Literal", n)
		out.Raw = c.text(n)
		out.Regex = true
		return out

	case "template_string":
		return c.template(n)

	case "parenthesized_expression":
		out := c.node("ParenthesizedExpression", n)
		if kids := namedChildren(n); len(kids) > 0 {
			out.Expression = c.convert(kids[len(kids)-1])
		}
		return out

	case "binary_expression":
		op := c.text(n.ChildByFieldName("operator"))
		typ := "BinaryExpression"
		if op == "&&" || op == "||" || op == "??" {
			typ = "LogicalExpression"
		}
		out := c.node(typ, n)
		out.Operator = op
		out.Left = c.field(n, "left")
		out.Right = c.field(n, "right")
		return out

	case "unary_expression":
		out := c.node("UnaryExpression", n)
		out.Operator = c.text(n.ChildByFieldName("operator"))
		out.Argument = c.field(n, "argument")
		out.Prefix = true
		return out

	case "update_expression":
		out := c.node("UpdateExpression", n)
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		out.Operator = c.text(op)
		out.Argument = c.convert(arg)
		out.Prefix = op != nil && arg != nil && op.StartByte() < arg.StartByte()
		return out

	case "ternary_expression":
		out := c.node("ConditionalExpression", n)
		out.Test = c.field(n, "condition")
		out.Consequent = c.field(n, "consequence")
		out.Alternate = c.field(n, "alternative")
		return out

	case "member_expression":
		out := c.node("MemberExpression", n)
		out.Object = c.field(n, "object")
		out.Property = c.field(n, "property")
		out.Optional = n.ChildByFieldName("optional_chain") != nil
		return out

	case "subscript_expression":
		out := c.node("MemberExpression", n)
		out.Object = c.field(n, "object")
		out.Property = c.field(n, "index")
		out.Computed = true
		out.Optional = n.ChildByFieldName("optional_chain") != nil
		return out

	case "call_expression":
		args := n.ChildByFieldName("arguments")
		if args != nil && args.Kind() == "template_string" {
			out := c.node("TaggedTemplateExpression", n)
			out.Tag = c.field(n, "function")
			out.Quasi = c.template(args)
			return out
		}
		out := c.node("CallExpression", n)
		out.Callee = c.field(n, "function")
		out.Optional = n.ChildByFieldName("optional_chain") != nil
		if args != nil {
			out.Arguments = c.list(namedChildren(args))
		}
		return out

	case "new_expression":
		out := c.node("NewExpression", n)
		out.Callee = c.field(n, "constructor")
		if args := n.ChildByFieldName("arguments"); args != nil {
			out.Arguments = c.list(namedChildren(args))
		}
		return out

	case "await_expression", "yield_expression", "spread_element":
		out := c.node(kindToType(kind), n)
		if kids := namedChildren(n); len(kids) > 0 {
			out.Argument = c.convert(kids[0])
		}
		return out

	case "sequence_expression":
		out := c.node("SequenceExpression", n)
		out.Expressions = c.flattenSequence(n)
		return out

	case "assignment_expression", "augmented_assignment_expression":
		out := c.node("AssignmentExpression", n)
		out.Operator = "="
		if op := n.ChildByFieldName("operator"); op != nil {
			out.Operator = c.text(op)
		}
		out.Left = c.pattern(n.ChildByFieldName("left"))
		out.Right = c.field(n, "right")
		return out

	case "arrow_function":
		out := c.node("ArrowFunctionExpression", n)
		out.Async = c.hasToken(n, "async")
		if p := n.ChildByFieldName("parameter"); p != nil {
			out.Params = []*Node{c.pattern(p)}
		} else {
			out.Params = c.params(n.ChildByFieldName("parameters"))
		}
		out.Body = c.field(n, "body")
		return out

	case "function_expression", "function", "generator_function":
		return c.function("FunctionExpression", n)

	case "class":
		return c.class("ClassExpression", n)

	case "object":
		return c.object(n)

	case "array":
		out := c.node("ArrayExpression", n)
		out.Elements = c.list(namedChildren(n))
		return out

	case "as_expression", "satisfies_expression", "non_null_expression", "type_assertion":
		out := c.node(kindToType(kind), n)
		for _, kid := range namedChildren(n) {
			if conv := c.convert(kid); conv != nil {
				out.Expression = conv
				break
			}
		}
		return out

	case "meta_property":
		return c.node("MetaProperty", n)

	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		out := c.node("JSXElement", n)
		out.BodyList = c.list(namedChildren(n))
		return out

	case "jsx_expression":
		out := c.node("JSXExpressionContainer", n)
		if kids := namedChildren(n); len(kids) > 0 {
			out.Expression = c.convert(kids[0])
		}
		return out

	case "enum_declaration":
		out := c.node("TSEnumDeclaration", n)
		out.ID = c.field(n, "name")
		return out
	}

	// Unknown kinds keep their children reachable.
	out := c.node("ts:"+kind, n)
	out.BodyList = c.list(namedChildren(n))
	return out
}

// kindToType covers the one-to-one renames.
func kindToType(kind string) string {
	switch kind {
	case "break_statement":
		return "BreakStatement"
	case "continue_statement":
		return "ContinueStatement"
	case "debugger_statement":
		return "DebuggerStatement"
	case "await_expression":
		return "AwaitExpression"
	case "yield_expression":
		return "YieldExpression"
	case "spread_element":
		return "SpreadElement"
	case "as_expression":
		return "TSAsExpression"
	case "satisfies_expression":
		return "TSSatisfiesExpression"
	case "non_null_expression":
		return "TSNonNullExpression"
	case "type_assertion":
		return "TSTypeAssertion"
	}
	return "ts:" + kind
}

// unwrapStatement converts for-loop header slots, which tree-sitter wraps in
// expression or empty statements.
func (c *converter) unwrapStatement(n *tree_sitter.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "expression_statement":
		if kids := namedChildren(n); len(kids) > 0 {
			return c.convert(kids[0])
		}
		return nil
	case "empty_statement":
		return nil
	}
	return c.convert(n)
}

func (c *converter) flattenSequence(n *tree_sitter.Node) []*Node {
	var out []*Node
	for _, kid := range namedChildren(n) {
		if kid.Kind() == "sequence_expression" {
			out = append(out, c.flattenSequence(kid)...)
			continue
		}
		if conv := c.convert(kid); conv != nil {
			out = append(out, conv)
		}
	}
	return out
}

// ---------- Declarations ----------

func (c *converter) variableDeclaration(n *tree_sitter.Node) *Node {
	out := c.node("VariableDeclaration", n)
	if n.Kind() == "variable_declaration" {
		out.Kind = "var"
	} else if k := n.ChildByFieldName("kind"); k != nil {
		out.Kind = c.text(k)
	} else if first := n.Child(0); first != nil {
		out.Kind = c.text(first)
	}
	for _, kid := range namedChildren(n) {
		if kid.Kind() != "variable_declarator" {
			continue
		}
		d := c.node("VariableDeclarator", kid)
		d.ID = c.pattern(kid.ChildByFieldName("name"))
		d.Init = c.field(kid, "value")
		out.Declarations = append(out.Declarations, d)
	}
	return out
}

func (c *converter) function(typ string, n *tree_sitter.Node) *Node {
	out := c.node(typ, n)
	if name := n.ChildByFieldName("name"); name != nil {
		out.ID = c.convert(name)
	}
	out.Async = c.hasToken(n, "async")
	out.Generator = c.hasToken(n, "*")
	out.Params = c.params(n.ChildByFieldName("parameters"))
	out.Body = c.field(n, "body")
	return out
}

func (c *converter) params(n *tree_sitter.Node) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, kid := range namedChildren(n) {
		if p := c.pattern(kid); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (c *converter) class(typ string, n *tree_sitter.Node) *Node {
	out := c.node(typ, n)
	if name := n.ChildByFieldName("name"); name != nil {
		out.ID = c.convert(name)
	}
	for _, kid := range namedChildren(n) {
		if kid.Kind() != "class_heritage" {
			continue
		}
		// JS: class_heritage -> expression; TS: class_heritage -> extends_clause.
		for _, h := range namedChildren(kid) {
			if h.Kind() == "extends_clause" {
				if v := h.ChildByFieldName("value"); v != nil {
					out.SuperClass = c.convert(v)
				} else if hk := namedChildren(h); len(hk) > 0 {
					out.SuperClass = c.convert(hk[0])
				}
				break
			}
			if h.Kind() != "implements_clause" {
				out.SuperClass = c.convert(h)
				break
			}
		}
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return out
	}
	cb := c.node("ClassBody", body)
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "method_definition":
			m := c.node("MethodDefinition", member)
			m.Key = c.propertyKey(member.ChildByFieldName("name"), m)
			m.PropValue = c.function("FunctionExpression", member)
			m.PropValue.ID = nil
			cb.BodyList = append(cb.BodyList, m)
		case "field_definition", "public_field_definition":
			p := c.node("PropertyDefinition", member)
			key := member.ChildByFieldName("property")
			if key == nil {
				key = member.ChildByFieldName("name")
			}
			p.Key = c.propertyKey(key, p)
			p.PropValue = c.field(member, "value")
			cb.BodyList = append(cb.BodyList, p)
		default:
			if conv := c.convert(member); conv != nil {
				cb.BodyList = append(cb.BodyList, conv)
			}
		}
	}
	out.Body = cb
	return out
}

// propertyKey converts a property name, unwrapping computed names and
// flagging them on owner.
func (c *converter) propertyKey(n *tree_sitter.Node, owner *Node) *Node {
	if n == nil {
		return nil
	}
	if n.Kind() == "computed_property_name" {
		owner.Computed = true
		if kids := namedChildren(n); len(kids) > 0 {
			return c.convert(kids[0])
		}
		return nil
	}
	return c.convert(n)
}

func (c *converter) forIn(n *tree_sitter.Node) *Node {
	typ := "ForInStatement"
	if op := n.ChildByFieldName("operator"); op != nil && c.text(op) == "of" {
		typ = "ForOfStatement"
	}
	out := c.node(typ, n)
	left := n.ChildByFieldName("left")
	if k := n.ChildByFieldName("kind"); k != nil && left != nil {
		decl := c.node("VariableDeclaration", n)
		decl.Kind = c.text(k)
		d := c.node("VariableDeclarator", left)
		d.ID = c.pattern(left)
		decl.Declarations = []*Node{d}
		out.Left = decl
	} else {
		out.Left = c.pattern(left)
	}
	out.Right = c.field(n, "right")
	out.Body = c.field(n, "body")
	return out
}

func (c *converter) switchStatement(n *tree_sitter.Node) *Node {
	out := c.node("SwitchStatement", n)
	out.Discriminant = c.field(n, "value")
	body := n.ChildByFieldName("body")
	if body == nil {
		return out
	}
	for _, sc := range namedChildren(body) {
		if sc.Kind() != "switch_case" && sc.Kind() != "switch_default" {
			continue
		}
		cs := c.node("SwitchCase", sc)
		value := sc.ChildByFieldName("value")
		if value != nil {
			cs.Test = c.convert(value)
		}
		for _, stmt := range namedChildren(sc) {
			if value != nil && sameNode(stmt, value) {
				continue
			}
			if conv := c.convert(stmt); conv != nil {
				cs.CaseConsequent = append(cs.CaseConsequent, conv)
			}
		}
		out.Cases = append(out.Cases, cs)
	}
	return out
}

func (c *converter) importDeclaration(n *tree_sitter.Node) *Node {
	out := c.node("ImportDeclaration", n)
	out.Source = c.field(n, "source")
	for _, kid := range namedChildren(n) {
		if kid.Kind() != "import_clause" {
			continue
		}
		for _, part := range namedChildren(kid) {
			switch part.Kind() {
			case "identifier":
				s := c.node("ImportDefaultSpecifier", part)
				s.Local = c.convert(part)
				out.Specifiers = append(out.Specifiers, s)
			case "namespace_import":
				s := c.node("ImportNamespaceSpecifier", part)
				if ids := namedChildren(part); len(ids) > 0 {
					s.Local = c.convert(ids[0])
				}
				out.Specifiers = append(out.Specifiers, s)
			case "named_imports":
				for _, spec := range namedChildren(part) {
					if spec.Kind() != "import_specifier" {
						continue
					}
					s := c.node("ImportSpecifier", spec)
					s.Imported = c.field(spec, "name")
					s.Local = c.field(spec, "alias")
					if s.Local == nil {
						s.Local = s.Imported
					}
					out.Specifiers = append(out.Specifiers, s)
				}
			}
		}
	}
	return out
}

func (c *converter) exportStatement(n *tree_sitter.Node) *Node {
	if c.hasToken(n, "default") {
		out := c.node("ExportDefaultDeclaration", n)
		if d := n.ChildByFieldName("declaration"); d != nil {
			out.Declaration = c.convert(d)
		} else {
			out.Declaration = c.field(n, "value")
		}
		return out
	}
	out := c.node("ExportNamedDeclaration", n)
	out.Declaration = c.field(n, "declaration")
	out.Source = c.field(n, "source")
	return out
}

// ---------- Literals ----------

func (c *converter) number(n *tree_sitter.Node) *Node {
	out := c.node("Literal", n)
	raw := c.text(n)
	out.Raw = raw
	clean := strings.ReplaceAll(raw, "_", "")
	if strings.HasSuffix(clean, "n") {
		out.BigInt = true
		out.Value = strings.TrimSuffix(clean, "n")
		return out
	}
	lower := strings.ToLower(clean)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		if v, err := strconv.ParseInt(lower, 0, 64); err == nil {
			out.Value = float64(v)
			return out
		}
	}
	if v, err := strconv.ParseFloat(clean, 64); err == nil {
		out.Value = v
	} else {
		out.Value = raw
	}
	return out
}

// stringValue returns the cooked value of a string literal.
func (c *converter) stringValue(n *tree_sitter.Node) string {
	raw := c.text(n)
	if len(raw) < 2 {
		return raw
	}
	return unescape(raw[1:len(raw)-1], raw[0])
}

// unescape decodes JS escape sequences, falling back to the raw body for
// forms strconv does not understand.
func unescape(body string, quote byte) string {
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	s := body
	for len(s) > 0 {
		r, _, tail, err := strconv.UnquoteChar(s, quote)
		if err != nil {
			return body
		}
		b.WriteRune(r)
		s = tail
	}
	return b.String()
}

func (c *converter) template(n *tree_sitter.Node) *Node {
	out := c.node("TemplateLiteral", n)
	var raw strings.Builder
	qStart := n
	flush := func(at *tree_sitter.Node) {
		q := c.node("TemplateElement", qStart)
		q.Raw = raw.String()
		q.Cooked = unescape(raw.String(), '`')
		out.Quasis = append(out.Quasis, q)
		raw.Reset()
		qStart = at
	}
	for _, kid := range namedChildren(n) {
		switch kid.Kind() {
		case "template_substitution":
			flush(kid)
			if inner := namedChildren(kid); len(inner) > 0 {
				out.Expressions = append(out.Expressions, c.convert(inner[0]))
			}
		default:
			raw.WriteString(c.text(kid))
		}
	}
	flush(n)
	return out
}

// ---------- Objects and patterns ----------

func (c *converter) object(n *tree_sitter.Node) *Node {
	out := c.node("ObjectExpression", n)
	for _, kid := range namedChildren(n) {
		switch kid.Kind() {
		case "pair":
			p := c.node("Property", kid)
			p.Kind = "init"
			p.Key = c.propertyKey(kid.ChildByFieldName("key"), p)
			p.PropValue = c.field(kid, "value")
			out.Properties = append(out.Properties, p)
		case "shorthand_property_identifier":
			p := c.node("Property", kid)
			p.Kind = "init"
			p.Shorthand = true
			p.Key = c.convert(kid)
			p.PropValue = c.convert(kid)
			out.Properties = append(out.Properties, p)
		case "method_definition":
			p := c.node("Property", kid)
			p.Kind = "init"
			p.Key = c.propertyKey(kid.ChildByFieldName("name"), p)
			p.PropValue = c.function("FunctionExpression", kid)
			p.PropValue.ID = nil
			out.Properties = append(out.Properties, p)
		default:
			if conv := c.convert(kid); conv != nil {
				out.Properties = append(out.Properties, conv)
			}
		}
	}
	return out
}

// pattern converts a binding or assignment target.
func (c *converter) pattern(n *tree_sitter.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "object_pattern":
		out := c.node("ObjectPattern", n)
		for _, kid := range namedChildren(n) {
			switch kid.Kind() {
			case "shorthand_property_identifier_pattern":
				p := c.node("Property", kid)
				p.Shorthand = true
				p.Key = c.convert(kid)
				p.PropValue = c.convert(kid)
				out.Properties = append(out.Properties, p)
			case "pair_pattern":
				p := c.node("Property", kid)
				p.Key = c.propertyKey(kid.ChildByFieldName("key"), p)
				p.PropValue = c.pattern(kid.ChildByFieldName("value"))
				out.Properties = append(out.Properties, p)
			case "object_assignment_pattern":
				p := c.node("Property", kid)
				left := kid.ChildByFieldName("left")
				p.Shorthand = left != nil && left.Kind() == "shorthand_property_identifier_pattern"
				p.Key = c.convert(left)
				ap := c.node("AssignmentPattern", kid)
				ap.Left = c.pattern(left)
				ap.Right = c.field(kid, "right")
				p.PropValue = ap
				out.Properties = append(out.Properties, p)
			case "rest_pattern":
				out.Properties = append(out.Properties, c.pattern(kid))
			}
		}
		return out

	case "array_pattern":
		out := c.node("ArrayPattern", n)
		// Holes are recovered from comma positions.
		expectElement := true
		for i := uint(0); i < n.ChildCount(); i++ {
			kid := n.Child(i)
			if kid == nil || kid.IsExtra() {
				continue
			}
			if !kid.IsNamed() {
				if kid.Kind() == "," {
					if expectElement {
						out.Elements = append(out.Elements, nil)
					}
					expectElement = true
				}
				continue
			}
			out.Elements = append(out.Elements, c.pattern(kid))
			expectElement = false
		}
		return out

	case "assignment_pattern":
		out := c.node("AssignmentPattern", n)
		out.Left = c.pattern(n.ChildByFieldName("left"))
		out.Right = c.field(n, "right")
		return out

	case "rest_pattern":
		out := c.node("RestElement", n)
		if kids := namedChildren(n); len(kids) > 0 {
			out.Argument = c.pattern(kids[0])
		}
		return out

	case "required_parameter", "optional_parameter":
		inner := c.pattern(n.ChildByFieldName("pattern"))
		if v := n.ChildByFieldName("value"); v != nil {
			out := c.node("AssignmentPattern", n)
			out.Left = inner
			out.Right = c.convert(v)
			return out
		}
		return inner

	case "shorthand_property_identifier_pattern":
		out := c.node("Identifier", n)
		out.Name = c.text(n)
		return out
	}
	return c.convert(n)
}
