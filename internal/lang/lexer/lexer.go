// Package lexer turns a single statement of source text into a stream
// of tokens for the parser.
package lexer

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/K0n4ta13/tesebada/internal/lang/token"
)

// Error is returned for any lexical failure: an unterminated string, an
// invalid character, or a malformed number.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

const eof = rune(0)

// Lexer scans one statement's worth of runes into tokens.
type Lexer struct {
	runes []rune
	pos   int
}

// New returns a Lexer over source.
func New(source string) *Lexer {
	return &Lexer{runes: []rune(source)}
}

// Tokenize scans source to completion, returning every token up to and
// including EOF, or the first lexical error encountered.
func Tokenize(source string) ([]token.Token, error) {
	lx := New(source)
	var tokens []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

// Next scans and returns the next token.
func (l *Lexer) Next() (token.Token, error) {
	c := l.bump()
	switch {
	case c == '(':
		return token.Token{Kind: token.LPAREN}, nil
	case c == ')':
		return token.Token{Kind: token.RPAREN}, nil
	case c == '[':
		return token.Token{Kind: token.LBRACKET}, nil
	case c == ']':
		return token.Token{Kind: token.RBRACKET}, nil
	case c == ';':
		return token.Token{Kind: token.SEMICOLON}, nil
	case c == '*':
		return token.Token{Kind: token.STAR}, nil
	case c == '=':
		return token.Token{Kind: token.EQUAL}, nil
	case isSeparator(c):
		return l.Next()
	case c == '\'' || c == '"':
		return l.string(c)
	case c >= '0' && c <= '9':
		return l.number(c)
	case isIdentStart(c):
		return l.identifier(c), nil
	case c == eof:
		return token.Token{Kind: token.EOF}, nil
	default:
		return token.Token{}, errors.WithStack(&Error{Message: "found invalid character " + strconv.QuoteRune(c)})
	}
}

func isSeparator(c rune) bool {
	return c == ' ' || c == ',' || c == '\r' || c == '\t' || c == '\n'
}

// isIdentStart accepts any rune that is not itself a special character;
// the grammar only excludes digits and quotes from starting an
// identifier (those are handled by earlier cases in Next).
func isIdentStart(c rune) bool {
	return c != eof
}

func (l *Lexer) identifier(first rune) token.Token {
	var b strings.Builder
	b.WriteRune(first)

	// Mirrors the reference scanner exactly: the identifier run stops
	// only at a space, comma, semicolon, ')', or EOF. It does *not*
	// stop at tab, CR, LF, '(', '[', ']', '=', or '*', so those
	// characters are swallowed into the identifier if they appear
	// mid-run without an intervening separator.
	for {
		c := l.first()
		if c == ' ' || c == ',' || c == ';' || c == ')' || c == eof {
			break
		}
		b.WriteRune(l.bump())
	}

	ident := b.String()
	if kw := token.Lookup(ident); kw != token.IDENT {
		return token.Token{Kind: kw, Text: ident}
	}
	return token.Token{Kind: token.IDENT, Text: ident}
}

func (l *Lexer) number(first rune) (token.Token, error) {
	var b strings.Builder
	b.WriteRune(first)

	// The whole run of digits and dots is taken, so a second decimal
	// point makes the literal malformed rather than starting a new token.
	for isDigit(l.first()) || l.first() == '.' {
		b.WriteRune(l.bump())
	}

	text := b.String()
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return token.Token{}, errors.WithStack(&Error{Message: "malformed number '" + text + "'"})
	}
	return token.Token{Kind: token.NUMBER, Text: text}, nil
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func (l *Lexer) string(delim rune) (token.Token, error) {
	var b strings.Builder
	for l.first() != delim {
		if l.first() == eof {
			return token.Token{}, errors.WithStack(&Error{Message: "unterminated string"})
		}
		b.WriteRune(l.bump())
	}
	l.bump() // consume closing delimiter
	return token.Token{Kind: token.STRING, Text: b.String()}, nil
}

func (l *Lexer) bump() rune {
	if l.pos >= len(l.runes) {
		l.pos++
		return eof
	}
	c := l.runes[l.pos]
	l.pos++
	return c
}

func (l *Lexer) first() rune {
	if l.pos >= len(l.runes) {
		return eof
	}
	return l.runes[l.pos]
}
