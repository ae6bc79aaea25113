package ast

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ESTreeLoader reads ASTs that an external parser (Babel, acorn, espree,
// typescript-estree) has already serialized to JSON. Files must end in
// .ast.json.
type ESTreeLoader struct{}

// Compile-time assertion: *ESTreeLoader satisfies Parser.
var _ Parser = (*ESTreeLoader)(nil)

// NewESTreeLoader returns a loader for serialized ESTree/Babel ASTs.
func NewESTreeLoader() *ESTreeLoader {
	return &ESTreeLoader{}
}

// Supports reports whether path is a serialized AST.
func (l *ESTreeLoader) Supports(path string) bool {
	return strings.HasSuffix(path, ".ast.json")
}

// Parse decodes source as an ESTree or Babel JSON document and returns its
// Program node.
func (l *ESTreeLoader) Parse(_ context.Context, path string, source []byte) (*Node, error) {
	n, err := DecodeESTree(source)
	if err != nil {
		return nil, fmt.Errorf("estree: %s: %w", path, err)
	}
	return n, nil
}

// Close is a no-op.
func (l *ESTreeLoader) Close() error {
	return nil
}

// DecodeESTree decodes a JSON-serialized AST. A Babel File wrapper is
// unwrapped to its Program.
func DecodeESTree(data []byte) (*Node, error) {
	n, err := decodeNode(data)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("empty document")
	}
	if n.Type == "File" && n.Body != nil {
		n = n.Body
	}
	if n.Type != "Program" {
		return nil, fmt.Errorf("root node is %s, want Program", n.Type)
	}
	return n, nil
}

// nodeFields maps single-node JSON keys to their Node field.
var nodeFields = map[string]func(*Node) **Node{
	"id":           func(n *Node) **Node { return &n.ID },
	"init":         func(n *Node) **Node { return &n.Init },
	"left":         func(n *Node) **Node { return &n.Left },
	"right":        func(n *Node) **Node { return &n.Right },
	"test":         func(n *Node) **Node { return &n.Test },
	"alternate":    func(n *Node) **Node { return &n.Alternate },
	"object":       func(n *Node) **Node { return &n.Object },
	"property":     func(n *Node) **Node { return &n.Property },
	"argument":     func(n *Node) **Node { return &n.Argument },
	"callee":       func(n *Node) **Node { return &n.Callee },
	"tag":          func(n *Node) **Node { return &n.Tag },
	"quasi":        func(n *Node) **Node { return &n.Quasi },
	"key":          func(n *Node) **Node { return &n.Key },
	"discriminant": func(n *Node) **Node { return &n.Discriminant },
	"update":       func(n *Node) **Node { return &n.Update },
	"block":        func(n *Node) **Node { return &n.Block },
	"handler":      func(n *Node) **Node { return &n.Handler },
	"finalizer":    func(n *Node) **Node { return &n.Finalizer },
	"param":        func(n *Node) **Node { return &n.Param },
	"source":       func(n *Node) **Node { return &n.Source },
	"declaration":  func(n *Node) **Node { return &n.Declaration },
	"superClass":   func(n *Node) **Node { return &n.SuperClass },
	"local":        func(n *Node) **Node { return &n.Local },
	"imported":     func(n *Node) **Node { return &n.Imported },
	"program":      func(n *Node) **Node { return &n.Body },
}

// listFields maps node-list JSON keys to their Node field.
var listFields = map[string]func(*Node) *[]*Node{
	"arguments":    func(n *Node) *[]*Node { return &n.Arguments },
	"params":       func(n *Node) *[]*Node { return &n.Params },
	"properties":   func(n *Node) *[]*Node { return &n.Properties },
	"elements":     func(n *Node) *[]*Node { return &n.Elements },
	"expressions":  func(n *Node) *[]*Node { return &n.Expressions },
	"quasis":       func(n *Node) *[]*Node { return &n.Quasis },
	"declarations": func(n *Node) *[]*Node { return &n.Declarations },
	"cases":        func(n *Node) *[]*Node { return &n.Cases },
	"specifiers":   func(n *Node) *[]*Node { return &n.Specifiers },
}

func decodeNode(data []byte) (*Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	n := &Node{}
	if err := unmarshalOpt(raw, "type", &n.Type); err != nil {
		return nil, err
	}
	if n.Type == "" {
		return nil, fmt.Errorf("node without type")
	}
	if err := unmarshalOpt(raw, "loc", &n.Loc); err != nil {
		return nil, fmt.Errorf("%s.loc: %w", n.Type, err)
	}

	// JSX nodes reuse "name" for child nodes; only string forms are kept.
	for key, dst := range map[string]*string{
		"name": &n.Name, "operator": &n.Operator, "raw": &n.Raw,
	} {
		_ = unmarshalOpt(raw, key, dst)
	}
	for key, dst := range map[string]*bool{
		"prefix": &n.Prefix, "computed": &n.Computed, "optional": &n.Optional,
		"shorthand": &n.Shorthand, "async": &n.Async, "generator": &n.Generator,
	} {
		if err := unmarshalOpt(raw, key, dst); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", n.Type, key, err)
		}
	}
	// "kind" is a string everywhere it matters; TS nodes may use other shapes.
	_ = unmarshalOpt(raw, "kind", &n.Kind)
	if extra, ok := raw["extra"]; ok && n.Raw == "" {
		var e struct {
			Raw string `json:"raw"`
		}
		if err := json.Unmarshal(extra, &e); err == nil {
			n.Raw = e.Raw
		}
	}
	if _, ok := raw["regex"]; ok {
		n.Regex = true
	}
	if _, ok := raw["bigint"]; ok {
		n.BigInt = true
	}

	for key, field := range nodeFields {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		child, err := decodeNode(msg)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", n.Type, key, err)
		}
		*field(n) = child
	}
	for key, field := range listFields {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		list, err := decodeList(msg)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", n.Type, key, err)
		}
		*field(n) = list
	}

	// Polymorphic fields.
	if err := decodeNodeOrList(raw["body"], &n.Body, &n.BodyList); err != nil {
		return nil, fmt.Errorf("%s.body: %w", n.Type, err)
	}
	if err := decodeNodeOrList(raw["consequent"], &n.Consequent, &n.CaseConsequent); err != nil {
		return nil, fmt.Errorf("%s.consequent: %w", n.Type, err)
	}
	if msg, ok := raw["expression"]; ok && isObject(msg) {
		child, err := decodeNode(msg)
		if err != nil {
			return nil, fmt.Errorf("%s.expression: %w", n.Type, err)
		}
		n.Expression = child
	}
	if msg, ok := raw["value"]; ok {
		if err := decodeValue(n, msg); err != nil {
			return nil, fmt.Errorf("%s.value: %w", n.Type, err)
		}
	}
	return n, nil
}

// decodeValue interprets the overloaded "value" key: a child node for
// properties, {raw, cooked} for template elements, a scalar for literals.
func decodeValue(n *Node, msg jsoniter.RawMessage) error {
	if n.Type == "TemplateElement" {
		var v struct {
			Raw    string  `json:"raw"`
			Cooked *string `json:"cooked"`
		}
		if err := json.Unmarshal(msg, &v); err != nil {
			return err
		}
		n.Raw = v.Raw
		if v.Cooked != nil {
			n.Cooked = *v.Cooked
		} else {
			n.Cooked = v.Raw
		}
		return nil
	}
	if isObject(msg) {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &probe); err == nil && probe.Type != "" {
			child, err := decodeNode(msg)
			if err != nil {
				return err
			}
			n.PropValue = child
			return nil
		}
		// Regex literal values serialize as {} in JSON; the regex key marks them.
		return nil
	}
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return err
	}
	n.Value = v
	return nil
}

func decodeNodeOrList(msg jsoniter.RawMessage, one **Node, many *[]*Node) error {
	if len(msg) == 0 {
		return nil
	}
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		list, err := decodeList(trimmed)
		if err != nil {
			return err
		}
		*many = list
		return nil
	}
	child, err := decodeNode(trimmed)
	if err != nil {
		return err
	}
	*one = child
	return nil
}

func decodeList(msg jsoniter.RawMessage) ([]*Node, error) {
	var items []jsoniter.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil, err
	}
	out := make([]*Node, len(items))
	for i, item := range items {
		child, err := decodeNode(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = child
	}
	return out, nil
}

func unmarshalOpt(raw map[string]jsoniter.RawMessage, key string, dst any) error {
	msg, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return nil
	}
	return json.Unmarshal(msg, dst)
}

func isObject(msg jsoniter.RawMessage) bool {
	trimmed := bytes.TrimSpace(msg)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
