// Package lexer turns Eko source bytes into a token.Token stream. It is a
// deterministic single-pass scanner: one position cursor, one line
// counter, no lookahead beyond the single byte needed to disambiguate `/`,
// `//` and `/*`.
package lexer

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/ekolang/ekoc/compiler/token"
)

type State struct {
	b    []byte
	pos  int
	line int
}

func New(src []byte) *State {
	return &State{b: src}
}

// Lex tokenizes src in full and returns the ordered token stream.
func Lex(ctx context.Context, src []byte) ([]token.Token, error) {
	return New(src).Lex(ctx)
}

func (s *State) Lex(ctx context.Context) (toks []token.Token, err error) {
	tr := tlog.SpanFromContext(ctx)

	for {
		tok, ok, err := s.next()
		if err != nil {
			return nil, errors.Wrap(err, "at line %d", s.line)
		}

		if !ok {
			break
		}

		if tr.If("next_token") {
			tr.Printw("token", "kind", tok.Kind, "value", tok.Value, "line", tok.Line, "from", loc.Callers(1, 3))
		}

		toks = append(toks, tok)
	}

	tr.Printw("lexed", "tokens", len(toks), "lines", s.line+1)

	return toks, nil
}

// next scans and returns the next token, if any. ok is false at end of
// input and when err is non-nil; whitespace and comments are consumed silently and never produce a
// token of their own, so next loops internally until it has a token, hits
// EOF, or hits a lexer error.
func (s *State) next() (tok token.Token, ok bool, err error) {
	for s.pos < len(s.b) {
		c := s.b[s.pos]

		switch {
		case c == '\n':
			s.line++
			s.pos++
			continue
		case c == ' ' || c == '\t' || c == '\r':
			s.pos++
			continue
		case c == '/' && s.peek(1) == '/':
			s.skipLineComment()
			continue
		case c == '/' && s.peek(1) == '*':
			if err := s.skipBlockComment(); err != nil {
				return token.Token{}, false, err
			}
			continue
		case isLetter(c):
			return s.scanWord(), true, nil
		case isDigit(c):
			return s.scanNumber(), true, nil
		case c == '(', c == ')', c == '{', c == '}', c == '=', c == '+', c == '-', c == '*', c == '/':
			return s.scanPunct(c), true, nil
		default:
			return token.Token{}, false, errors.New("Invalid Syntax: Unexpected character `%c` at line %d.", c, s.line)
		}
	}

	return token.Token{}, false, nil
}

func (s *State) peek(off int) byte {
	if s.pos+off >= len(s.b) {
		return 0
	}

	return s.b[s.pos+off]
}

func (s *State) skipLineComment() {
	for s.pos < len(s.b) && s.b[s.pos] != '\n' {
		s.pos++
	}
}

// skipBlockComment consumes `/* ... */`, counting every newline inside the
// body into the line counter, then increments the line counter once more
// on exit regardless of whether the closing `*/` itself began a new line.
func (s *State) skipBlockComment() error {
	start := s.line
	s.pos += 2 // consume "/*"

	for {
		if s.pos >= len(s.b) {
			return errors.New("Invalid Syntax: Unterminated block comment starting at line %d.", start)
		}

		if s.b[s.pos] == '\n' {
			s.line++
			s.pos++
			continue
		}

		if s.b[s.pos] == '*' && s.peek(1) == '/' {
			s.pos += 2
			s.line++

			return nil
		}

		s.pos++
	}
}

func (s *State) scanWord() token.Token {
	st := s.pos

	for s.pos < len(s.b) && isAlnum(s.b[s.pos]) {
		s.pos++
	}

	word := string(s.b[st:s.pos])

	return token.Token{Kind: token.Lookup(word), Value: word, Line: s.line}
}

func (s *State) scanNumber() token.Token {
	st := s.pos

	for s.pos < len(s.b) && isDigit(s.b[s.pos]) {
		s.pos++
	}

	return token.Token{Kind: token.NUMBER, Value: string(s.b[st:s.pos]), Line: s.line}
}

func (s *State) scanPunct(c byte) token.Token {
	line := s.line
	s.pos++

	var kind token.Kind

	switch c {
	case '(':
		kind = token.LPAREN
	case ')':
		kind = token.RPAREN
	case '{':
		kind = token.LBRACE
	case '}':
		kind = token.RBRACE
	case '=':
		kind = token.ASSIGN
	case '+':
		kind = token.PLUS
	case '-':
		kind = token.MINUS
	case '*':
		kind = token.STAR
	case '/':
		kind = token.SLASH
	}

	return token.Token{Kind: kind, Value: string(c), Line: line}
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isLetter(c) || isDigit(c)
}
