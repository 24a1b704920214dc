// Package token defines the lexical token types recognized by the
// coordinator's query language.
package token

// Kind identifies a lexical token type.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	literalBeg
	IDENT  // table_name, column_name
	NUMBER // 12345 or 123.45, always carried as float text
	STRING // 'literal' or "literal"
	literalEnd

	punctBeg
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	SEMICOLON // ;
	STAR      // *
	EQUAL     // =
	punctEnd

	keywordBeg
	TRUE
	FALSE
	SELECT
	INSERT
	INTO
	VALUES
	UPDATE
	SET
	DELETE
	FROM
	WHERE
	ZONE
	keywordEnd
)

var names = map[Kind]string{
	ILLEGAL:   "ILLEGAL",
	EOF:       "EOF",
	IDENT:     "IDENT",
	NUMBER:    "NUMBER",
	STRING:    "STRING",
	LPAREN:    "'('",
	RPAREN:    "')'",
	LBRACKET:  "'['",
	RBRACKET:  "']'",
	SEMICOLON: "';'",
	STAR:      "'*'",
	EQUAL:     "'='",
	TRUE:      "TRUE",
	FALSE:     "FALSE",
	SELECT:    "SELECT",
	INSERT:    "INSERT",
	INTO:      "INTO",
	VALUES:    "VALUES",
	UPDATE:    "UPDATE",
	SET:       "SET",
	DELETE:    "DELETE",
	FROM:      "FROM",
	WHERE:     "WHERE",
	ZONE:      "ZONE",
}

// String renders a Kind for use in parser error messages.
func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsLiteral reports whether the token carries a scalar value.
func (k Kind) IsLiteral() bool { return k > literalBeg && k < literalEnd }

// IsKeyword reports whether the token is one of the reserved words.
func (k Kind) IsKeyword() bool { return k > keywordBeg && k < keywordEnd }

// keywords maps the case-folded spelling of each reserved word to its
// Kind. Lookup happens after an identifier has been scanned in full.
var keywords = map[string]Kind{
	"true":   TRUE,
	"false":  FALSE,
	"select": SELECT,
	"insert": INSERT,
	"into":   INTO,
	"values": VALUES,
	"update": UPDATE,
	"set":    SET,
	"delete": DELETE,
	"from":   FROM,
	"where":  WHERE,
	"zone":   ZONE,
}

// Lookup returns the keyword Kind for ident (case-insensitive), or
// IDENT if ident is not a reserved word.
func Lookup(ident string) Kind {
	if k, ok := keywords[lower(ident)]; ok {
		return k
	}
	return IDENT
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Token is one lexed unit: its Kind plus, for IDENT/STRING/NUMBER, the
// literal text that was scanned (numbers are kept as their original
// decimal text so the parser can hand them unmodified to the AST,
// which carries every scalar as a string per the language's untyped-
// value design).
type Token struct {
	Kind Kind
	Text string
}
