// Package parser implements a recursive-descent parser that turns a
// token stream into a Query AST.
package parser

import (
	"github.com/pkg/errors"

	"github.com/K0n4ta13/tesebada/internal/ast"
	"github.com/K0n4ta13/tesebada/internal/lang/lexer"
	"github.com/K0n4ta13/tesebada/internal/lang/token"
)

// Error reports a parse failure, naming the unexpected token.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Parser consumes a reversed token buffer, popping from the back so
// that bump()/first() both run in O(1) without shifting the slice.
type Parser struct {
	tokens []token.Token // reversed: tokens[len-1] is next
}

// New constructs a Parser over an already-lexed token stream. The
// caller owns tokens; New takes a defensive copy before reversing it.
func New(tokens []token.Token) *Parser {
	rev := make([]token.Token, len(tokens))
	for i, t := range tokens {
		rev[len(tokens)-1-i] = t
	}
	return &Parser{tokens: rev}
}

// Parse lexes and parses a single statement.
func Parse(source string) (ast.Query, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return ast.Query{}, err
	}
	return New(tokens).Parse()
}

// Parse dispatches on the leading keyword.
func (p *Parser) Parse() (ast.Query, error) {
	tok, err := p.bump()
	if err != nil {
		return ast.Query{}, err
	}
	switch tok.Kind {
	case token.SELECT:
		return p.parseSelect()
	case token.INSERT:
		return p.parseInsert()
	case token.UPDATE:
		return p.parseUpdate()
	case token.DELETE:
		return p.parseDelete()
	default:
		return ast.Query{}, unexpected(tok, "a statement keyword")
	}
}

func (p *Parser) parseSelect() (ast.Query, error) {
	var fields []string
	for {
		tok, err := p.bump()
		if err != nil {
			return ast.Query{}, err
		}
		switch tok.Kind {
		case token.IDENT:
			fields = append(fields, tok.Text)
		case token.STAR:
			fields = append(fields, "*")
		case token.FROM:
			goto haveFields
		default:
			return ast.Query{}, unexpected(tok, "FROM")
		}
	}
haveFields:

	table, err := p.identifier("a table name")
	if err != nil {
		return ast.Query{}, err
	}

	filter, err := p.parseFilter()
	if err != nil {
		return ast.Query{}, err
	}
	zones, err := p.parseZones()
	if err != nil {
		return ast.Query{}, err
	}
	if err := p.expect(token.SEMICOLON); err != nil {
		return ast.Query{}, err
	}

	return ast.Query{
		Kind:   ast.KindSelect,
		Table:  table,
		Fields: fields,
		Filter: filter,
		Zones:  zones,
	}, nil
}

func (p *Parser) parseInsert() (ast.Query, error) {
	if err := p.expect(token.INTO); err != nil {
		return ast.Query{}, err
	}
	table, err := p.identifier("a table name")
	if err != nil {
		return ast.Query{}, err
	}
	if err := p.expect(token.LPAREN); err != nil {
		return ast.Query{}, err
	}

	var columns []string
	for {
		tok, err := p.bump()
		if err != nil {
			return ast.Query{}, err
		}
		switch tok.Kind {
		case token.IDENT:
			columns = append(columns, tok.Text)
		case token.RPAREN:
			goto haveColumns
		default:
			return ast.Query{}, unexpected(tok, "a column name")
		}
	}
haveColumns:

	if err := p.expect(token.VALUES); err != nil {
		return ast.Query{}, err
	}
	if err := p.expect(token.LPAREN); err != nil {
		return ast.Query{}, err
	}

	var values [][]string
	for {
		var row []string
		for {
			tok, err := p.bump()
			if err != nil {
				return ast.Query{}, err
			}
			switch tok.Kind {
			case token.NUMBER:
				row = append(row, tok.Text)
			case token.STRING:
				row = append(row, tok.Text)
			case token.TRUE:
				row = append(row, "true")
			case token.FALSE:
				row = append(row, "false")
			case token.RPAREN:
				goto haveRow
			default:
				return ast.Query{}, unexpected(tok, "a literal value")
			}
		}
	haveRow:
		values = append(values, row)

		tok, err := p.bump()
		if err != nil {
			return ast.Query{}, err
		}
		switch tok.Kind {
		case token.LPAREN:
			continue
		case token.SEMICOLON:
			goto haveValues
		default:
			return ast.Query{}, unexpected(tok, "'(' or ';'")
		}
	}
haveValues:

	return ast.Query{
		Kind:    ast.KindInsert,
		Table:   table,
		Columns: columns,
		Values:  values,
	}, nil
}

func (p *Parser) parseUpdate() (ast.Query, error) {
	table, err := p.identifier("a table name")
	if err != nil {
		return ast.Query{}, err
	}
	if err := p.expect(token.SET); err != nil {
		return ast.Query{}, err
	}

	var assignments []ast.Assignment
	for {
		column, err := p.identifier("a column name")
		if err != nil {
			return ast.Query{}, err
		}
		if err := p.expect(token.EQUAL); err != nil {
			return ast.Query{}, err
		}
		value, err := p.literal()
		if err != nil {
			return ast.Query{}, err
		}
		assignments = append(assignments, ast.Assignment{Column: column, Value: value})

		next, ok := p.first()
		if !ok {
			return ast.Query{}, errors.WithStack(&Error{Message: "unterminated query"})
		}
		if next.Kind == token.WHERE || next.Kind == token.SEMICOLON || next.Kind == token.ZONE {
			break
		}
	}

	filter, err := p.parseFilter()
	if err != nil {
		return ast.Query{}, err
	}
	zones, err := p.parseZones()
	if err != nil {
		return ast.Query{}, err
	}
	if err := p.expect(token.SEMICOLON); err != nil {
		return ast.Query{}, err
	}

	return ast.Query{
		Kind:        ast.KindUpdate,
		Table:       table,
		Assignments: assignments,
		Filter:      filter,
		Zones:       zones,
	}, nil
}

func (p *Parser) parseDelete() (ast.Query, error) {
	if err := p.expect(token.FROM); err != nil {
		return ast.Query{}, err
	}
	table, err := p.identifier("a table name")
	if err != nil {
		return ast.Query{}, err
	}
	filter, err := p.parseFilter()
	if err != nil {
		return ast.Query{}, err
	}
	zones, err := p.parseZones()
	if err != nil {
		return ast.Query{}, err
	}
	if err := p.expect(token.SEMICOLON); err != nil {
		return ast.Query{}, err
	}

	return ast.Query{
		Kind:   ast.KindDelete,
		Table:  table,
		Filter: filter,
		Zones:  zones,
	}, nil
}

func (p *Parser) parseFilter() (*ast.Where, error) {
	next, ok := p.first()
	switch {
	case !ok:
		return nil, nil
	case next.Kind == token.SEMICOLON || next.Kind == token.ZONE:
		return nil, nil
	case next.Kind == token.WHERE:
		if _, err := p.bump(); err != nil {
			return nil, err
		}
	default:
		return nil, unexpected(next, "WHERE")
	}

	column, err := p.identifier("a column name")
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.EQUAL); err != nil {
		return nil, err
	}
	value, err := p.literal()
	if err != nil {
		return nil, err
	}

	return &ast.Where{Column: column, Op: "=", Value: value}, nil
}

func (p *Parser) parseZones() ([]string, error) {
	next, ok := p.first()
	switch {
	case !ok:
		return nil, nil
	case next.Kind == token.SEMICOLON:
		return nil, nil
	case next.Kind == token.ZONE:
		if _, err := p.bump(); err != nil {
			return nil, err
		}
	default:
		return nil, unexpected(next, "ZONE")
	}

	if err := p.expect(token.EQUAL); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBRACKET); err != nil {
		return nil, err
	}

	var zones []string
	for {
		tok, err := p.bump()
		if err != nil {
			return nil, err
		}
		switch tok.Kind {
		case token.STRING, token.NUMBER:
			zones = append(zones, tok.Text)
		case token.RBRACKET:
			return zones, nil
		default:
			return nil, unexpected(tok, "a literal value")
		}
	}
}

func (p *Parser) literal() (string, error) {
	tok, err := p.bump()
	if err != nil {
		return "", err
	}
	switch tok.Kind {
	case token.STRING:
		return tok.Text, nil
	case token.NUMBER:
		return tok.Text, nil
	default:
		return "", unexpected(tok, "a literal value")
	}
}

func (p *Parser) identifier(what string) (string, error) {
	tok, err := p.bump()
	if err != nil {
		return "", err
	}
	if tok.Kind != token.IDENT {
		return "", unexpected(tok, what)
	}
	return tok.Text, nil
}

func (p *Parser) expect(k token.Kind) error {
	tok, err := p.bump()
	if err != nil {
		return err
	}
	if tok.Kind != k {
		return unexpected(tok, k.String())
	}
	return nil
}

func (p *Parser) bump() (token.Token, error) {
	if len(p.tokens) == 0 {
		return token.Token{}, errors.WithStack(&Error{Message: "unexpected end of query"})
	}
	tok := p.tokens[len(p.tokens)-1]
	p.tokens = p.tokens[:len(p.tokens)-1]
	return tok, nil
}

func (p *Parser) first() (token.Token, bool) {
	if len(p.tokens) == 0 {
		return token.Token{}, false
	}
	return p.tokens[len(p.tokens)-1], true
}

func unexpected(tok token.Token, want string) error {
	got := tok.Kind.String()
	if tok.Text != "" {
		got = tok.Text
	}
	return errors.WithStack(&Error{Message: "expected " + want + ", found " + got})
}
