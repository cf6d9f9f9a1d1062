// Command ekoc compiles a single Eko source file into x86-64 NASM
// assembly, then shells out to `nasm -felf64` and `ld` to turn that
// assembly into a Linux ELF64 executable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/ekolang/ekoc/compiler"
)

func main() {
	app := &cli.Command{
		Name:        "ekoc",
		Description: "ekoc compiles Eko source files into x86-64 NASM assembly and links a Linux ELF64 executable",
		Action:      compileAct,
		Args:        cli.Args{},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func compileAct(c *cli.Command) (err error) {
	var out string
	var stopAfterAsm bool
	var positional []string

	args := []string(c.Args)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-S":
			stopAfterAsm = true
		case "-o":
			i++
			if i >= len(args) {
				return usageError()
			}
			out = args[i]
		default:
			positional = append(positional, args[i])
		}
	}

	if len(positional) != 1 {
		return usageError()
	}

	src := positional[0]

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if out == "" {
		out = stem(src)
	}

	if err := compileFile(ctx, src, out, stopAfterAsm); err != nil {
		fmt.Fprintf(os.Stderr, "ekoc: %s: %v\n", src, err)
		os.Exit(1)
	}

	return nil
}

func usageError() error {
	fmt.Fprintln(os.Stderr, "Incorrect Usage of the Tool!")
	fmt.Fprintln(os.Stderr, `Correct Usage: "ekoc <file_name.eko>"`)
	os.Exit(1)

	return nil
}

// stem derives the default output basename from the source path.
func stem(src string) string {
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func compileFile(ctx context.Context, src, out string, stopAfterAsm bool) error {
	obj, err := compiler.CompileFile(ctx, src)
	if err != nil {
		return err
	}

	asmPath := out + ".asm"

	if err := os.WriteFile(asmPath, obj, 0o644); err != nil {
		return errors.Wrap(err, "write %v", asmPath)
	}

	if stopAfterAsm {
		return nil
	}

	objPath := out + ".o"

	if err := run(ctx, "nasm", "-felf64", asmPath); err != nil {
		return errors.Wrap(err, "assemble")
	}

	if err := run(ctx, "ld", "-o", out, objPath); err != nil {
		return errors.Wrap(err, "link")
	}

	return nil
}

func run(ctx context.Context, name string, args ...string) error {
	tlog.SpanFromContext(ctx).Printw("exec", "cmd", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
