package parser

import (
	"bytes"
	"context"
	"io"

	"github.com/robinvdvleuten/beancount/ast"
)

// parse lexes source and drives the hand-rolled recursive-descent Parser
// over the resulting token stream, then applies pushtag/pushmeta stack
// semantics and canonical directive ordering.
func parse(filename string, data []byte) (*ast.AST, error) {
	lexer := NewLexer(data, filename)
	tokens, err := lexer.ScanAll()
	if err != nil {
		return nil, NewParseErrorWithSource(filename, err, data)
	}

	p := NewParser(data, tokens, filename, lexer.Interner())
	tree, err := p.Parse()
	if err != nil {
		return nil, NewParseErrorWithSource(filename, err, data)
	}

	if err := ast.ApplyPushPopDirectives(tree); err != nil {
		return nil, err
	}

	return tree, ast.SortDirectives(tree)
}

// Parse AST from an io.Reader.
func Parse(ctx context.Context, r io.Reader) (*ast.AST, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parse("", data)
}

// ParseString parses AST from a string.
func ParseString(ctx context.Context, str string) (*ast.AST, error) {
	return parse("", []byte(str))
}

// ParseBytes parses AST from bytes.
func ParseBytes(ctx context.Context, data []byte) (*ast.AST, error) {
	return ParseBytesWithFilename(ctx, "", data)
}

// ParseBytesWithFilename parses AST from bytes with a filename for position tracking.
// The filename will be included in position information in the AST for better error reporting.
func ParseBytesWithFilename(ctx context.Context, filename string, data []byte) (*ast.AST, error) {
	// Check for cancellation before starting
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return parse(filename, bytes.Clone(data))
}
