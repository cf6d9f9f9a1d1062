package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ekolang/ekoc/compiler/codegen"
	"github.com/ekolang/ekoc/compiler/lexer"
	"github.com/ekolang/ekoc/compiler/parser"
)

// CompileFile reads name from disk and compiles it to NASM assembly text.
func CompileFile(ctx context.Context, name string) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text)
}

// Compile runs the three-stage pipeline over text in full: lex, then
// parse, then generate. Each stage consumes the previous one's output in
// full before the next begins; there is no streaming between them and no
// feedback edge back to an earlier stage.
func Compile(ctx context.Context, name string, text []byte) (obj []byte, err error) {
	toks, err := lexer.Lex(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "lex %v", name)
	}

	prog, _, err := parser.Parse(ctx, toks)
	if err != nil {
		return nil, errors.Wrap(err, "parse %v", name)
	}

	obj, err = codegen.Generate(ctx, prog)
	if err != nil {
		return nil, errors.Wrap(err, "generate %v", name)
	}

	return obj, nil
}
