package main

import (
	"fmt"
	"os"

	"github.com/monopole/hookwrap/internal/testcli/tstcli"
)

// main pretends to be a code checking tool.
//
// The tool is chosen by $HOOKWRAP_FAKE_TOOL if set, else by the name this
// binary was invoked under, so symlinking it as clang-format, cppcheck,
// git etc. on a PATH yields a fake tool suite for manual testing of the
// hookwrap binary.
func main() {
	mode := os.Getenv(tstcli.EnvMode)
	if mode == "" {
		mode = tstcli.ModeFromPath(os.Args[0])
	}
	if mode == "testcli" {
		fmt.Fprintf(os.Stderr, "Symlink this binary under one of %v, or set %s.\n",
			tstcli.AllModes, tstcli.EnvMode)
		os.Exit(1)
	}
	os.Exit(tstcli.Main(mode, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
