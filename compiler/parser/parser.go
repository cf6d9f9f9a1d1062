// Package parser is a recursive-descent parser for Eko statements with a
// Pratt (precedence-climbing) expression parser underneath.
package parser

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ekolang/ekoc/compiler/ast"
	"github.com/ekolang/ekoc/compiler/token"
)

type State struct {
	toks []token.Token
	pos  int

	arena *ast.Arena
}

// New builds a parser over an already-lexed token stream. The Arena it
// creates is returned alongside the Program so the caller (compiler.Compile)
// can keep it alive for exactly as long as codegen needs it.
func New(toks []token.Token) *State {
	return &State{toks: toks, arena: ast.NewArena()}
}

// Parse parses toks into a fully materialized Program, or returns the first
// fatal error encountered (parsing is fail-fast; there is no recovery).
func Parse(ctx context.Context, toks []token.Token) (*ast.Program, *ast.Arena, error) {
	s := New(toks)

	prog, err := s.Parse(ctx)
	if err != nil {
		return nil, nil, err
	}

	return prog, s.arena, nil
}

func (s *State) Parse(ctx context.Context) (*ast.Program, error) {
	tr := tlog.SpanFromContext(ctx)

	prog := &ast.Program{}

	for !s.atEnd() {
		stmt, err := s.parseStatement(ctx)
		if err != nil {
			return nil, err
		}

		prog.Statements = append(prog.Statements, stmt)
	}

	tr.Printw("parsed program", "statements", len(prog.Statements))

	return prog, nil
}

func (s *State) atEnd() bool {
	return s.pos >= len(s.toks)
}

func (s *State) peek() (token.Token, bool) {
	if s.atEnd() {
		return token.Token{}, false
	}

	return s.toks[s.pos], true
}

func (s *State) advance() token.Token {
	t := s.toks[s.pos]
	s.pos++

	return t
}

// expect consumes the next token if it has kind k, else returns a
// ParseExpected error tagged with the line the mismatch was found on.
func (s *State) expect(k token.Kind) (token.Token, error) {
	t, ok := s.peek()
	if !ok {
		return token.Token{}, errors.New("Invalid Syntax: Expected `%s` but reached end of input", k)
	}

	if t.Kind != k {
		return token.Token{}, errors.New("Invalid Syntax: Expected `%s` but got `%s` at line %d", k, t.Value, t.Line)
	}

	return s.advance(), nil
}

func (s *State) parseStatement(ctx context.Context) (ast.Statement, error) {
	t, ok := s.peek()
	if !ok {
		return nil, errors.New("Invalid Syntax: Unexpected end of input.")
	}

	switch t.Kind {
	case token.EXIT:
		return s.parseExit(ctx)
	case token.LET:
		return s.parseLet(ctx)
	case token.IF:
		return s.parseIf(ctx)
	case token.ELSE:
		return s.parseElse(ctx)
	case token.LBRACE:
		return s.parseScope(ctx)
	case token.IDENTIFIER:
		return s.parseAssignment(ctx)
	default:
		return nil, errors.New("Invalid Syntax: Unexpected token `%s` at line %d.", t.Value, t.Line)
	}
}

func (s *State) parseExit(ctx context.Context) (ast.Statement, error) {
	s.advance() // exit

	if _, err := s.expect(token.LPAREN); err != nil {
		return nil, err
	}

	value, err := s.parseExpression(ctx, 0)
	if err != nil {
		return nil, errors.Wrap(err, "exit argument")
	}

	if _, err := s.expect(token.RPAREN); err != nil {
		return nil, err
	}

	return s.arena.NewExitStmt(ast.ExitStmt{Value: value}), nil
}

func (s *State) parseLet(ctx context.Context) (ast.Statement, error) {
	s.advance() // let

	name, err := s.expect(token.IDENTIFIER)
	if err != nil {
		return nil, err
	}

	if _, err := s.expect(token.ASSIGN); err != nil {
		return nil, err
	}

	value, err := s.parseExpression(ctx, 0)
	if err != nil {
		return nil, errors.Wrap(err, "let %s", name.Value)
	}

	return s.arena.NewLetStmt(ast.LetStmt{Name: name, Value: value}), nil
}

func (s *State) parseAssignment(ctx context.Context) (ast.Statement, error) {
	name := s.advance() // IDENTIFIER

	if _, err := s.expect(token.ASSIGN); err != nil {
		return nil, err
	}

	value, err := s.parseExpression(ctx, 0)
	if err != nil {
		return nil, errors.Wrap(err, "assignment to %s", name.Value)
	}

	return s.arena.NewAssignStmt(ast.AssignStmt{Name: name, Value: value}), nil
}

func (s *State) parseIf(ctx context.Context) (ast.Statement, error) {
	s.advance() // if

	if _, err := s.expect(token.LPAREN); err != nil {
		return nil, err
	}

	cond, err := s.parseExpression(ctx, 0)
	if err != nil {
		return nil, errors.Wrap(err, "if condition")
	}

	if _, err := s.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := s.parseScopeBody(ctx)
	if err != nil {
		return nil, err
	}

	return s.arena.NewIfStmt(ast.IfStmt{Condition: cond, Body: body}), nil
}

// parseElse parses `else <scope>` as a standalone top-level statement, not
// structurally attached to a preceding If.
func (s *State) parseElse(ctx context.Context) (ast.Statement, error) {
	s.advance() // else

	body, err := s.parseScopeBody(ctx)
	if err != nil {
		return nil, err
	}

	return s.arena.NewElseStmt(ast.ElseStmt{Body: body}), nil
}

func (s *State) parseScope(ctx context.Context) (ast.Statement, error) {
	return s.parseScopeBody(ctx)
}

func (s *State) parseScopeBody(ctx context.Context) (*ast.ScopeStmt, error) {
	if _, err := s.expect(token.LBRACE); err != nil {
		return nil, err
	}

	scope := &ast.ScopeStmt{}

	for {
		t, ok := s.peek()
		if !ok {
			return nil, errors.New("Invalid Syntax: Expected `}` but reached end of input")
		}

		if t.Kind == token.RBRACE {
			s.advance()
			break
		}

		stmt, err := s.parseStatement(ctx)
		if err != nil {
			return nil, err
		}

		scope.Statements = append(scope.Statements, stmt)
	}

	return s.arena.NewScopeStmt(*scope), nil
}

// parseExpression parses one Term, then repeatedly folds in a right-hand
// operand across any binary operator whose precedence is at least minPrec.
// The right operand is parsed with minPrec set to that operator's
// precedence plus one, which keeps every operator left-associative.
func (s *State) parseExpression(ctx context.Context, minPrec int) (ast.Expression, error) {
	left, err := s.parseTerm(ctx)
	if err != nil {
		return nil, err
	}

	for {
		t, ok := s.peek()
		if !ok || !t.IsBinaryOp() || t.Kind.Precedence() < minPrec {
			break
		}

		op := s.advance()

		right, err := s.parseExpression(ctx, op.Kind.Precedence()+1)
		if err != nil {
			return nil, errors.Wrap(err, "right operand of `%s` at line %d", op.Value, op.Line)
		}

		left = s.arena.NewBinaryOp(ast.BinaryOp{Op: op.Kind, Left: left, Right: right})
	}

	return left, nil
}

func (s *State) parseTerm(ctx context.Context) (ast.Expression, error) {
	t, ok := s.peek()
	if !ok {
		return nil, errors.New("Failed to parse expression: reached end of input.")
	}

	switch t.Kind {
	case token.NUMBER:
		s.advance()
		return s.arena.NewNumberTerm(ast.NumberTerm{Token: t}), nil
	case token.IDENTIFIER:
		s.advance()
		return s.arena.NewIdentifierTerm(ast.IdentifierTerm{Token: t}), nil
	case token.LPAREN:
		s.advance()

		inner, err := s.parseExpression(ctx, 0)
		if err != nil {
			return nil, errors.Wrap(err, "parenthesized expression at line %d", t.Line)
		}

		if _, err := s.expect(token.RPAREN); err != nil {
			return nil, err
		}

		return s.arena.NewParenthesizedTerm(ast.ParenthesizedTerm{Inner: inner}), nil
	default:
		return nil, errors.New("Failed to parse term at line %d: got `%s`.", t.Line, t.Value)
	}
}
