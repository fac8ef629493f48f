package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/monopole/hookwrap"
	"github.com/monopole/hookwrap/cmdrs"
	"github.com/monopole/hookwrap/internal/config"
	"github.com/monopole/hookwrap/internal/udiff"
)

// buildVersion is set with -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

const hookSuffix = "-hook"

// app is one run of the binary.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	getenv  func(string) string
	workDir string
	// color the diffs on stderr.
	color bool
	// code is the exit code.
	code int
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// run executes argv and returns the exit code.
func (a *app) run(ctx context.Context, argv []string) int {
	root := a.newRootCmd()
	root.SetArgs(hookArgs(argv))
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.stderr, "Error:", err)
		if a.code == 0 {
			a.code = 1
		}
	}
	return a.code
}

// hookArgs returns the arguments for the root command.  A binary named
// <tool>-hook behaves like `hookwrap <tool>`.
func hookArgs(argv []string) []string {
	if len(argv) == 0 {
		return nil
	}
	base := strings.TrimSuffix(filepath.Base(argv[0]), ".exe")
	if name, ok := strings.CutSuffix(base, hookSuffix); ok {
		if _, known := cmdrs.Lookup(name); known {
			return append([]string{name}, argv[1:]...)
		}
	}
	return argv[1:]
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hookwrap",
		Short: "Run C and C++ code checkers as git pre-commit hooks",
		Long: `Runs a code formatter or static analyzer on the given files, or on
the files staged for commit, with defaults that make it strict.

Formatters fail if any file isn't formatted, showing the difference.
Analyzers fail if the tool reports a problem.

  --version=V      fail unless the tool's version starts with V;
                   also --version>=V, <V etc.
  --no-diff        (formatters) fail without showing the difference.
  --line-diff      (clang-format) only format lines changed since HEAD.

Everything else is passed to the tool.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	for _, spec := range cmdrs.All() {
		root.AddCommand(a.newToolCmd(spec))
	}
	root.AddCommand(a.newListCmd(), a.newVersionCmd())
	return root
}

func (a *app) newToolCmd(spec *cmdrs.ToolSpec) *cobra.Command {
	return &cobra.Command{
		Use:   spec.Name + " [files...] [--version=V] [tool flags...]",
		Short: fmt.Sprintf("Run %s (%s)", spec.Name, spec.Kind),
		// Every argument belongs to the wrapper or the tool.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.workDir, a.getenv, a.stderr)
			if err != nil {
				return err
			}
			var c hookwrap.Commander = cmdrs.New(spec, cfg, append([]string{spec.Name}, args...))
			outcome, err := c.Run(cmd.Context())
			if err != nil {
				a.code = hookwrap.ExitCode(err)
				return cmdrs.WriteString(a.stderr, err.Error())
			}
			a.code = outcome.Code
			// Only a formatter's stderr is made of diffs.
			return a.show(outcome, a.color && spec.Kind == cmdrs.Formatter)
		},
	}
}

// show replays the outcome, coloring stderr as diffs if asked.
func (a *app) show(o *hookwrap.Outcome, colorDiffs bool) error {
	if !colorDiffs {
		return o.ReplayTo(a.stdout, a.stderr)
	}
	colored := &hookwrap.Record{}
	for _, c := range o.Record.Chunks() {
		data := c.Data
		if c.Stream == hookwrap.Stderr {
			data = udiff.Colorize(data)
		}
		colored.Append(c.Stream, data)
	}
	return colored.ReplayTo(a.stdout, a.stderr)
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the wrapped tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tKIND\tVERSION PREFIX")
			for _, s := range cmdrs.All() {
				fmt.Fprintf(w, "%s\t%s\t%q\n", s.Name, s.Kind, s.LookBehind)
			}
			return w.Flush()
		},
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hookwrap version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "hookwrap", buildVersion)
			return err
		},
	}
}
