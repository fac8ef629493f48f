// Command hookwrap runs C and C++ code checkers as git pre-commit hooks.
//
//	hookwrap clang-format --version=14 -i src/foo.c
//	hookwrap cppcheck src/foo.c
//	hookwrap list
//
// Invoked under the name <tool>-hook, e.g. via a symlink named
// clang-tidy-hook, it runs that tool's wrapper directly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	a := &app{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		getenv:  os.Getenv,
		workDir: wd,
		color:   isTerminal(os.Stderr),
	}
	code := a.run(ctx, os.Args)
	stop()
	os.Exit(code)
}
