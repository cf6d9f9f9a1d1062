package codegen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekolang/ekoc/compiler/ast"
	"github.com/ekolang/ekoc/compiler/lexer"
	"github.com/ekolang/ekoc/compiler/parser"
	"github.com/ekolang/ekoc/compiler/token"
)

func generate(t *testing.T, src string) string {
	t.Helper()

	ctx := context.Background()

	toks, err := lexer.Lex(ctx, []byte(src))
	require.NoError(t, err)

	prog, _, err := parser.Parse(ctx, toks)
	require.NoError(t, err)

	obj, err := Generate(ctx, prog)
	require.NoError(t, err)

	return string(obj)
}

func TestGeneratePreambleAndImplicitExit(t *testing.T) {
	asm := generate(t, "let x = 1")

	assert.True(t, strings.HasPrefix(asm, "global _start\n_start:\n"))
	assert.Contains(t, asm, "mov rax, 60\n")
	assert.Contains(t, asm, "mov rdi, 0\n")
	assert.Contains(t, asm, "syscall\n")
}

func TestGenerateExitSuppressesImplicitEpilogue(t *testing.T) {
	asm := generate(t, "exit(0)")

	// mov rax, 60 followed by pop rdi then syscall via the Exit path.
	assert.Contains(t, asm, "mov rax, 60\n    pop rdi\n    syscall\n")

	// no second, implicit "mov rdi, 0" epilogue was appended.
	assert.Equal(t, 1, strings.Count(asm, "mov rax, 60"))
}

func TestGenerateIdentifierOffsetIsFirstSlot(t *testing.T) {
	asm := generate(t, "let x = 5 exit(x)")

	assert.Contains(t, asm, "push QWORD [rsp + 0]")
}

func TestGenerateAssignmentStoresToExistingSlot(t *testing.T) {
	asm := generate(t, "let x = 1 x = 5")

	assert.Contains(t, asm, "mov rax, 5\n")
	assert.Contains(t, asm, "    pop rax\n    mov [rsp + 0], rax\n")
}

func TestGenerateScopeReclaimsSlotsInOneInstruction(t *testing.T) {
	asm := generate(t, "let x = 2 { let y = 3 } exit(x)")

	assert.Contains(t, asm, "add rsp, 8\n")
}

func TestGenerateIfEmitsOneLabel(t *testing.T) {
	asm := generate(t, "if (0) { exit(1) } exit(2)")

	assert.Equal(t, 1, strings.Count(asm, "je label_0"))
	assert.Contains(t, asm, "label_0:")
}

func TestGenerateDuplicateLetIsFatal(t *testing.T) {
	ctx := context.Background()

	toks, err := lexer.Lex(ctx, []byte("let x = 1 let x = 2"))
	require.NoError(t, err)

	prog, _, err := parser.Parse(ctx, toks)
	require.NoError(t, err)

	_, err = Generate(ctx, prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestGenerateUndefinedIdentifierIsFatal(t *testing.T) {
	ctx := context.Background()

	toks, err := lexer.Lex(ctx, []byte("exit(y)"))
	require.NoError(t, err)

	prog, _, err := parser.Parse(ctx, toks)
	require.NoError(t, err)

	_, err = Generate(ctx, prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

// TestGenerateStackDisciplineNetsZero builds a Program directly against
// the AST, rather than through the parser, and checks that a Scope
// net-zeros the runtime stack delta it introduces.
func TestGenerateStackDisciplineNetsZero(t *testing.T) {
	arena := ast.NewArena()

	inner := arena.NewScopeStmt(ast.ScopeStmt{
		Statements: []ast.Statement{
			arena.NewLetStmt(ast.LetStmt{
				Name:  identTok("y"),
				Value: arena.NewNumberTerm(ast.NumberTerm{Token: numTok("3")}),
			}),
		},
	})

	prog := &ast.Program{
		Statements: []ast.Statement{
			arena.NewLetStmt(ast.LetStmt{
				Name:  identTok("x"),
				Value: arena.NewNumberTerm(ast.NumberTerm{Token: numTok("2")}),
			}),
			inner,
			arena.NewExitStmt(ast.ExitStmt{
				Value: arena.NewIdentifierTerm(ast.IdentifierTerm{Token: identTok("x")}),
			}),
		},
	}

	g := New()

	obj, err := g.Generate(context.Background(), prog)
	require.NoError(t, err)
	require.NotEmpty(t, obj)

	// After the inner scope closes, x is the only live variable and its
	// slot is still at stack position 0 (offset 0), even though a second
	// slot (y) was pushed and reclaimed in between.
	require.Len(t, g.vars, 1)
	assert.Equal(t, "x", g.vars[0].name)
	assert.Equal(t, 0, g.offsetOf(g.vars[0]))
}

func numTok(v string) token.Token {
	return token.Token{Kind: token.NUMBER, Value: v}
}

func identTok(v string) token.Token {
	return token.Token{Kind: token.IDENTIFIER, Value: v}
}
