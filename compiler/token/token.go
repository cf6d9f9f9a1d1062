// Package token defines the lexical vocabulary of Eko: the token Kinds the
// lexer produces and the Token value that carries a Kind, its literal text
// and the source line it started on.
package token

type Kind string

const (
	EXIT Kind = "exit"
	LET  Kind = "let"
	IF   Kind = "if"
	ELSE Kind = "else"

	NUMBER     Kind = "NUMBER"
	IDENTIFIER Kind = "IDENTIFIER"

	ASSIGN Kind = "="
	PLUS   Kind = "+"
	MINUS  Kind = "-"
	STAR   Kind = "*"
	SLASH  Kind = "/"

	LPAREN Kind = "("
	RPAREN Kind = ")"
	LBRACE Kind = "{"
	RBRACE Kind = "}"

	EOF Kind = "EOF"
)

var keywords = map[string]Kind{
	"exit": EXIT,
	"let":  LET,
	"if":   IF,
	"else": ELSE,
}

// Lookup classifies an alphanumeric run as a keyword Kind or, failing that,
// as a plain IDENTIFIER. No case folding is performed.
func Lookup(word string) Kind {
	if k, ok := keywords[word]; ok {
		return k
	}

	return IDENTIFIER
}

// Token is a classified lexeme: its Kind, its literal source text (the
// digits of a NUMBER, the spelling of an IDENTIFIER, the keyword or
// operator text otherwise) and the 0-based line its first byte appeared on.
type Token struct {
	Kind  Kind   `tlog:",embed"`
	Value string
	Line  int
}

func (t Token) String() string {
	return string(t.Kind) + " " + t.Value
}

// IsBinaryOp reports whether t's Kind is one of the four arithmetic
// operators the Pratt climber in compiler/parser recognizes.
func (t Token) IsBinaryOp() bool {
	switch t.Kind {
	case PLUS, MINUS, STAR, SLASH:
		return true
	default:
		return false
	}
}

// Precedence returns the binding power of a binary-operator Kind, per the
// table in spec §4.2: additive operators bind at 0, multiplicative at 1.
// Non-operators return -1 and never continue a Pratt climb.
func (k Kind) Precedence() int {
	switch k {
	case PLUS, MINUS:
		return 0
	case STAR, SLASH:
		return 1
	default:
		return -1
	}
}
