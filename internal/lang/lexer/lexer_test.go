package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/K0n4ta13/tesebada/internal/lang/token"
)

func TestTokenizePunctuation(t *testing.T) {
	toks, err := Tokenize("([*]=)")
	require.NoError(t, err)
	kinds := kindsOf(toks)
	require.Equal(t, []token.Kind{
		token.LPAREN, token.LBRACKET, token.STAR, token.RBRACKET, token.EQUAL, token.RPAREN, token.EOF,
	}, kinds)
}

func TestTokenizeKeywordsAreCaseInsensitive(t *testing.T) {
	toks, err := Tokenize("Select FROM Where")
	require.NoError(t, err)
	kinds := kindsOf(toks)
	require.Equal(t, []token.Kind{token.SELECT, token.FROM, token.WHERE, token.EOF}, kinds)
}

func TestTokenizeIdentifierAndNumber(t *testing.T) {
	toks, err := Tokenize("Clientes 123.45")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	require.Equal(t, token.Token{Kind: token.IDENT, Text: "Clientes"}, toks[0])
	require.Equal(t, token.Token{Kind: token.NUMBER, Text: "123.45"}, toks[1])
	require.Equal(t, token.EOF, toks[2].Kind)
}

func TestTokenizeQuotedStrings(t *testing.T) {
	toks, err := Tokenize(`'Norte' "Sur"`)
	require.NoError(t, err)
	require.Equal(t, token.Token{Kind: token.STRING, Text: "Norte"}, toks[0])
	require.Equal(t, token.Token{Kind: token.STRING, Text: "Sur"}, toks[1])
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := Tokenize("'Norte")
	require.Error(t, err)
}

func TestTokenizeMalformedNumberErrors(t *testing.T) {
	_, err := Tokenize("1.2.3")
	require.Error(t, err)
}

func TestTokenizeInsertStatement(t *testing.T) {
	toks, err := Tokenize("INSERT INTO Clientes VALUES (1, 'Ana', 'Norte');")
	require.NoError(t, err)
	kinds := kindsOf(toks)
	require.Equal(t, []token.Kind{
		token.INSERT, token.INTO, token.IDENT, token.VALUES,
		token.LPAREN, token.NUMBER, token.STRING, token.STRING, token.RPAREN,
		token.SEMICOLON, token.EOF,
	}, kinds)
}

func kindsOf(toks []token.Token) []token.Kind {
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}
