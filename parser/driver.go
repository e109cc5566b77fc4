package parser

import "github.com/robinvdvleuten/beancount/ast"

// Parser drives a hand-rolled recursive-descent pass over a token stream
// produced by Lexer. It owns the source buffer (for raw-text capture of
// expressions and error context) and the string interner shared with the
// lexer so repeated account names and currency codes aren't re-allocated.
type Parser struct {
	source   []byte
	filename string
	tokens   []Token
	pos      int
	interner *Interner
}

// NewParser creates a parser over a pre-lexed token stream.
func NewParser(source []byte, tokens []Token, filename string, interner *Interner) *Parser {
	return &Parser{
		source:   source,
		filename: filename,
		tokens:   tokens,
		interner: interner,
	}
}

// Parse lexes and parses the full source buffer into an AST. Directive
// ordering and pushtag/pushmeta stack application are left to
// ast.ApplyPushPopDirectives and ast.SortDirectives, which run over the
// raw, source-ordered AST this method returns.
func (p *Parser) Parse() (*ast.AST, error) {
	tree := &ast.AST{}

	for !p.isAtEnd() {
		tok := p.peek()

		switch tok.Type {
		case NEWLINE:
			p.advance()
			tree.BlankLines = append(tree.BlankLines, &ast.BlankLine{Pos: tokenPosition(tok, p.filename)})

		case COMMENT:
			tree.Comments = append(tree.Comments, p.parseComment())

		case DATE:
			pos := p.tokenPositionFromPeek()
			date, err := p.parseDate()
			if err != nil {
				return nil, err
			}
			directive, err := p.parseDatedDirective(pos, date)
			if err != nil {
				return nil, err
			}
			tree.Directives = append(tree.Directives, directive)

		case OPTION:
			opt, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			tree.Options = append(tree.Options, opt)

		case INCLUDE:
			inc, err := p.parseInclude()
			if err != nil {
				return nil, err
			}
			tree.Includes = append(tree.Includes, inc)

		case PLUGIN:
			plug, err := p.parsePlugin()
			if err != nil {
				return nil, err
			}
			tree.Plugins = append(tree.Plugins, plug)

		case PUSHTAG:
			pt, err := p.parsePushtag()
			if err != nil {
				return nil, err
			}
			tree.Pushtags = append(tree.Pushtags, pt)

		case POPTAG:
			pt, err := p.parsePoptag()
			if err != nil {
				return nil, err
			}
			tree.Poptags = append(tree.Poptags, pt)

		case PUSHMETA:
			pm, err := p.parsePushmeta()
			if err != nil {
				return nil, err
			}
			tree.Pushmetas = append(tree.Pushmetas, pm)

		case POPMETA:
			pm, err := p.parsePopmeta()
			if err != nil {
				return nil, err
			}
			tree.Popmetas = append(tree.Popmetas, pm)

		default:
			return nil, p.errorAtToken(tok, "unexpected token %s", tok.Type)
		}
	}

	return tree, nil
}

// parseDatedDirective dispatches to the directive-specific parser based on
// the keyword following DATE.
func (p *Parser) parseDatedDirective(pos ast.Position, date *ast.Date) (ast.Directive, error) {
	switch p.peek().Type {
	case BALANCE:
		return p.parseBalance(pos, date)
	case OPEN:
		return p.parseOpen(pos, date)
	case CLOSE:
		return p.parseClose(pos, date)
	case COMMODITY:
		return p.parseCommodity(pos, date)
	case PAD:
		return p.parsePad(pos, date)
	case NOTE:
		return p.parseNote(pos, date)
	case DOCUMENT:
		return p.parseDocument(pos, date)
	case PRICE:
		return p.parsePrice(pos, date)
	case EVENT:
		return p.parseEvent(pos, date)
	case CUSTOM:
		return p.parseCustom(pos, date)
	case TXN, ASTERISK, EXCLAIM, STRING:
		return p.parseTransaction(pos, date)
	default:
		tok := p.peek()
		return nil, p.errorAtToken(tok, "expected directive keyword after date, got %s", tok.Type)
	}
}

// parseComment consumes a COMMENT token and builds the corresponding trivia node.
func (p *Parser) parseComment() *ast.Comment {
	tok := p.advance()
	pos := tokenPosition(tok, p.filename)

	content := tok.String(p.source)
	for len(content) > 0 && (content[len(content)-1] == '\n' || content[len(content)-1] == '\r') {
		content = content[:len(content)-1]
	}

	commentType := ast.StandaloneComment
	if !p.isAtEnd() && p.peek().Type == NEWLINE {
		commentType = ast.SectionComment
	}

	return &ast.Comment{Pos: pos, Content: content, Type: commentType}
}

// finishDirective captures a trailing inline comment (if present on the
// directive's own line) and any indented metadata lines that follow.
func (p *Parser) finishDirective(d ast.Directive) error {
	pos := d.Position()

	if !p.isAtEnd() && p.peek().Type == COMMENT && p.peek().Line == pos.Line {
		if wc, ok := d.(ast.WithComment); ok {
			wc.SetComment(p.parseComment())
		}
	}

	if !p.isAtEnd() && p.peek().Line > pos.Line && p.peek().Column > 1 {
		metadata := p.parseMetadataFromLine(pos.Line)
		if wm, ok := d.(ast.WithMetadata); ok {
			wm.AddMetadata(metadata...)
		}
	}

	return nil
}

// parseOption parses: option STRING STRING
func (p *Parser) parseOption() (*ast.Option, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(OPTION, "expected 'option'")

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}
	value, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Option{Pos: pos, Name: name.Value, Value: value.Value}, nil
}

// parseInclude parses: include STRING
func (p *Parser) parseInclude() (*ast.Include, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(INCLUDE, "expected 'include'")

	filename, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Include{Pos: pos, Filename: filename.Value}, nil
}

// parsePlugin parses: plugin STRING [STRING]
func (p *Parser) parsePlugin() (*ast.Plugin, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(PLUGIN, "expected 'plugin'")

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}

	plugin := &ast.Plugin{Pos: pos, Name: name.Value}

	if p.check(STRING) {
		config, err := p.parseString()
		if err != nil {
			return nil, err
		}
		plugin.Config = config.Value
	}

	return plugin, nil
}

// parsePushtag parses: pushtag TAG
func (p *Parser) parsePushtag() (*ast.Pushtag, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(PUSHTAG, "expected 'pushtag'")

	tag, err := p.parseTag()
	if err != nil {
		return nil, err
	}

	return &ast.Pushtag{Pos: pos, Tag: tag}, nil
}

// parsePoptag parses: poptag TAG
func (p *Parser) parsePoptag() (*ast.Poptag, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(POPTAG, "expected 'poptag'")

	tag, err := p.parseTag()
	if err != nil {
		return nil, err
	}

	return &ast.Poptag{Pos: pos, Tag: tag}, nil
}

// parsePushmeta parses: pushmeta KEY: [VALUE]
// The value is optional; an empty value clears the key's pushed metadata
// without attaching anything to subsequent directives.
func (p *Parser) parsePushmeta() (*ast.Pushmeta, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(PUSHMETA, "expected 'pushmeta'")

	keyTok := p.advance()
	key := keyTok.String(p.source)
	p.consume(COLON, "expected ':' after pushmeta key")

	pushmeta := &ast.Pushmeta{Pos: pos, Key: key}

	if !p.isAtEnd() && p.peek().Line == keyTok.Line {
		value := p.parseMetadataValue()
		if value != nil {
			pushmeta.Value = value.String()
		}
	}

	return pushmeta, nil
}

// parsePopmeta parses: popmeta KEY:
func (p *Parser) parsePopmeta() (*ast.Popmeta, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(POPMETA, "expected 'popmeta'")

	keyTok := p.advance()
	key := keyTok.String(p.source)
	p.consume(COLON, "expected ':' after popmeta key")

	return &ast.Popmeta{Pos: pos, Key: key}, nil
}
