package ast

import (
	"context"
	"errors"
)

// ErrUnsupportedFile is returned when no parser handles a path.
var ErrUnsupportedFile = errors.New("ast: unsupported file")

// Parser turns a source file into an ESTree-shaped Program node.
// Implementations: TreeSitterParser (JS/TS sources), ESTreeLoader (serialized
// ASTs produced by an external parser).
type Parser interface {
	// Parse returns the Program node of a single source file.
	Parse(ctx context.Context, path string, source []byte) (*Node, error)

	// Supports reports whether this parser handles path.
	Supports(path string) bool

	// Close releases parser resources.
	Close() error
}

// MultiParser dispatches each path to the first parser that supports it.
type MultiParser struct {
	parsers []Parser
}

// Compile-time assertion: *MultiParser satisfies Parser.
var _ Parser = (*MultiParser)(nil)

// NewMultiParser combines parsers in priority order.
func NewMultiParser(parsers ...Parser) *MultiParser {
	return &MultiParser{parsers: parsers}
}

// Supports reports whether any parser handles path.
func (m *MultiParser) Supports(path string) bool {
	return m.pick(path) != nil
}

// Parse delegates to the first parser supporting path.
func (m *MultiParser) Parse(ctx context.Context, path string, source []byte) (*Node, error) {
	p := m.pick(path)
	if p == nil {
		return nil, ErrUnsupportedFile
	}
	return p.Parse(ctx, path, source)
}

// Close closes every wrapped parser, returning the first error.
func (m *MultiParser) Close() error {
	var first error
	for _, p := range m.parsers {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiParser) pick(path string) Parser {
	for _, p := range m.parsers {
		if p.Supports(path) {
			return p
		}
	}
	return nil
}
