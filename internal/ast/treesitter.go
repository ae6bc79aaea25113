package ast

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Dialect identifies the grammar used for a source file.
type Dialect string

const (
	DialectJavaScript Dialect = "javascript"
	DialectTypeScript Dialect = "typescript"
	DialectTSX        Dialect = "tsx"
)

// extToDialect maps file extensions to grammars.
var extToDialect = map[string]Dialect{
	".js":  DialectJavaScript,
	".jsx": DialectJavaScript,
	".mjs": DialectJavaScript,
	".cjs": DialectJavaScript,
	".ts":  DialectTypeScript,
	".mts": DialectTypeScript,
	".cts": DialectTypeScript,
	".tsx": DialectTSX,
}

// DialectFor returns the grammar for path, or "" if the extension is unknown.
func DialectFor(path string) Dialect {
	return extToDialect[strings.ToLower(filepath.Ext(path))]
}

// TreeSitterParser implements Parser using tree-sitter grammars and converts
// the concrete syntax tree into ESTree-shaped nodes. A new tree-sitter parser
// is created per Parse call, so concurrent Parse calls are safe.
type TreeSitterParser struct {
	languages map[Dialect]*tree_sitter.Language
}

// Compile-time assertion: *TreeSitterParser satisfies Parser.
var _ Parser = (*TreeSitterParser)(nil)

// NewTreeSitterParser creates a TreeSitterParser with the JavaScript,
// TypeScript and TSX grammars registered.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{
		languages: map[Dialect]*tree_sitter.Language{
			DialectJavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
			DialectTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			DialectTSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
	}
}

// Supports reports whether path has a JS or TS extension.
func (p *TreeSitterParser) Supports(path string) bool {
	_, ok := p.languages[DialectFor(path)]
	return ok
}

// Parse parses source and converts it into a Program node. Syntax errors do
// not fail the parse; erroneous regions surface as unhandled node types.
func (p *TreeSitterParser) Parse(ctx context.Context, path string, source []byte) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dialect := DialectFor(path)
	lang, ok := p.languages[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", dialect, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", path)
	}
	defer tree.Close()

	c := &converter{src: source}
	program := c.convert(tree.RootNode())
	if program == nil || program.Type != "Program" {
		return nil, fmt.Errorf("tree-sitter: %s: root is not a program", path)
	}
	return program, nil
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error {
	return nil
}
