// Package codegen walks an ast.Program and emits x86-64 NASM assembly text
// targeting the bare System V ABI: a single evaluation stack built from
// `push`/`pop`, no runtime support library, exit via syscall 60.
package codegen

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ekolang/ekoc/compiler/ast"
	"github.com/ekolang/ekoc/compiler/token"
)

type variable struct {
	name     string
	stackPos int
}

// Generator tracks stackSize (pushes minus pops on the current control
// path), vars (name -> the stackSize value at the moment it was
// introduced) and scopes (the vars length captured at each scope's entry,
// so endScope knows how much of vars belongs to the scope it is closing).
type Generator struct {
	buf []byte

	stackSize int
	vars      []variable
	scopes    []int

	labelSeq int

	exitEmitted bool
}

func New() *Generator {
	return &Generator{}
}

// Generate lowers prog into a complete NASM source, including the implicit
// exit(0) epilogue when no Exit statement was reached along the top-level
// statement list.
func Generate(ctx context.Context, prog *ast.Program) ([]byte, error) {
	return New().Generate(ctx, prog)
}

func (g *Generator) Generate(ctx context.Context, prog *ast.Program) ([]byte, error) {
	tr := tlog.SpanFromContext(ctx)

	g.emit("global _start\n_start:\n")

	for _, stmt := range prog.Statements {
		if err := g.genStatement(ctx, stmt); err != nil {
			return nil, err
		}
	}

	if !g.exitEmitted {
		g.emitImplicitExit()
	}

	tr.Printw("generated", "bytes", len(g.buf), "labels", g.labelSeq, "vars_live", len(g.vars))

	return g.buf, nil
}

func (g *Generator) emit(format string, args ...any) {
	g.buf = fmt.Appendf(g.buf, format, args...)
}

func (g *Generator) push(operand string) {
	g.emit("    push %s\n", operand)
	g.stackSize++
}

func (g *Generator) pop(reg string) {
	g.emit("    pop %s\n", reg)
	g.stackSize--
}

func (g *Generator) emitImplicitExit() {
	g.emit("    mov rax, 60\n")
	g.emit("    mov rdi, 0\n")
	g.emit("    syscall\n")
}

func (g *Generator) newLabel() string {
	l := fmt.Sprintf("label_%d", g.labelSeq)
	g.labelSeq++

	return l
}

func (g *Generator) lookup(name string) (variable, bool) {
	for i := len(g.vars) - 1; i >= 0; i-- {
		if g.vars[i].name == name {
			return g.vars[i], true
		}
	}

	return variable{}, false
}

func (g *Generator) offsetOf(v variable) int {
	return (g.stackSize - v.stackPos - 1) * 8
}

func (g *Generator) beginScope() {
	g.scopes = append(g.scopes, len(g.vars))
}

// endScope reclaims every slot the scope introduced in one `add rsp`; it
// emits nothing when the scope declared no variables.
func (g *Generator) endScope() {
	mark := g.scopes[len(g.scopes)-1]
	g.scopes = g.scopes[:len(g.scopes)-1]

	count := len(g.vars) - mark
	if count > 0 {
		g.emit("    add rsp, %d\n", count*8)
		g.stackSize -= count
	}

	g.vars = g.vars[:mark]
}

func (g *Generator) genStatement(ctx context.Context, stmt ast.Statement) error {
	tr := tlog.SpanFromContext(ctx)

	switch s := stmt.(type) {
	case *ast.ExitStmt:
		return g.genExit(ctx, s)
	case *ast.LetStmt:
		return g.genLet(ctx, s)
	case *ast.AssignStmt:
		return g.genAssign(ctx, s)
	case *ast.ScopeStmt:
		return g.genScope(ctx, s)
	case *ast.IfStmt:
		return g.genIf(ctx, s)
	case *ast.ElseStmt:
		tr.Printw("else (unconditional)", "stack", g.stackSize)
		return g.genScope(ctx, s.Body)
	default:
		return errors.New("codegen: unsupported statement %T", s)
	}
}

func (g *Generator) genExit(ctx context.Context, s *ast.ExitStmt) error {
	if err := g.genExpr(ctx, s.Value); err != nil {
		return errors.Wrap(err, "exit")
	}

	g.emit("    mov rax, 60\n")
	g.pop("rdi")
	g.emit("    syscall\n")

	g.exitEmitted = true

	return nil
}

func (g *Generator) genLet(ctx context.Context, s *ast.LetStmt) error {
	name := string(s.Name.Value)

	if _, ok := g.lookup(name); ok {
		return errors.New("Identifier `%s` already exists!", name)
	}

	g.vars = append(g.vars, variable{name: name, stackPos: g.stackSize})

	if err := g.genExpr(ctx, s.Value); err != nil {
		return errors.Wrap(err, "let %s", name)
	}

	return nil
}

// genAssign lowers the value and stores it into the variable's existing
// slot.
func (g *Generator) genAssign(ctx context.Context, s *ast.AssignStmt) error {
	name := string(s.Name.Value)

	v, ok := g.lookup(name)
	if !ok {
		return errors.New("Invalid Syntax: Identifier `%s` does not exist!", name)
	}

	if err := g.genExpr(ctx, s.Value); err != nil {
		return errors.Wrap(err, "assignment to %s", name)
	}

	g.pop("rax")
	g.emit("    mov [rsp + %d], rax\n", g.offsetOf(v))

	return nil
}

func (g *Generator) genScope(ctx context.Context, s *ast.ScopeStmt) error {
	g.beginScope()

	for _, stmt := range s.Statements {
		if err := g.genStatement(ctx, stmt); err != nil {
			return err
		}
	}

	g.endScope()

	return nil
}

func (g *Generator) genIf(ctx context.Context, s *ast.IfStmt) error {
	if err := g.genExpr(ctx, s.Condition); err != nil {
		return errors.Wrap(err, "if condition")
	}

	g.pop("rax")
	g.emit("    cmp rax, 0\n")

	label := g.newLabel()
	g.emit("    je %s\n", label)

	if err := g.genScope(ctx, s.Body); err != nil {
		return err
	}

	g.emit("\n%s:\n", label)

	return nil
}

func (g *Generator) genExpr(ctx context.Context, expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberTerm:
		g.emit("    mov rax, %s\n", e.Token.Value)
		g.push("rax")

		return nil

	case *ast.IdentifierTerm:
		name := string(e.Token.Value)

		v, ok := g.lookup(name)
		if !ok {
			return errors.New("Invalid Syntax: Identifier `%s` does not exist!", name)
		}

		g.push(fmt.Sprintf("QWORD [rsp + %d]", g.offsetOf(v)))

		return nil

	case *ast.ParenthesizedTerm:
		return g.genExpr(ctx, e.Inner)

	case *ast.BinaryOp:
		return g.genBinaryOp(ctx, e)

	default:
		return errors.New("codegen: unsupported expression %T", e)
	}
}

func (g *Generator) genBinaryOp(ctx context.Context, e *ast.BinaryOp) error {
	switch e.Op {
	case token.PLUS:
		if err := g.genExpr(ctx, e.Left); err != nil {
			return err
		}
		if err := g.genExpr(ctx, e.Right); err != nil {
			return err
		}

		g.pop("rax")
		g.pop("rbx")
		g.emit("    add rax, rbx\n")
		g.push("rax")

	case token.MINUS:
		if err := g.genExpr(ctx, e.Left); err != nil {
			return err
		}
		if err := g.genExpr(ctx, e.Right); err != nil {
			return err
		}

		g.pop("rax")
		g.pop("rbx")
		g.emit("    sub rbx, rax\n")
		g.push("rbx")

	case token.STAR:
		if err := g.genExpr(ctx, e.Left); err != nil {
			return err
		}
		if err := g.genExpr(ctx, e.Right); err != nil {
			return err
		}

		g.pop("rax")
		g.pop("rbx")
		g.emit("    mul rbx\n")
		g.push("rax")

	case token.SLASH:
		if err := g.genExpr(ctx, e.Left); err != nil {
			return err
		}
		if err := g.genExpr(ctx, e.Right); err != nil {
			return err
		}

		g.pop("rbx")
		g.pop("rax")
		g.emit("    xor rdx, rdx\n")
		g.emit("    div rbx\n")
		g.push("rax")

	default:
		return errors.New("codegen: unsupported operator %s", e.Op)
	}

	return nil
}
