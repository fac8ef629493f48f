// Package tstcli impersonates the tools hookwrap wraps, so tests can run
// real child processes without clang-format, cppcheck and friends
// installed.
//
// Tests re-execute their own binary as the fake tool: TestMain calls
// MaybeImpersonate, which takes over when EnvMode names a tool.  The
// standalone program in internal/testcli impersonates whatever tool its
// executable is named after.
package tstcli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Environment variables steering the fake tools.
const (
	// EnvMode names the tool to impersonate.
	EnvMode = "HOOKWRAP_FAKE_TOOL"
	// EnvStaged is a comma separated list the fake git reports as staged.
	EnvStaged = "HOOKWRAP_FAKE_STAGED"
	// EnvGitFail makes the fake git fail like it does outside a repository.
	EnvGitFail = "HOOKWRAP_FAKE_GIT_FAIL"
	// EnvDiff names a file the fake git prints for `git diff HEAD`.
	EnvDiff = "HOOKWRAP_FAKE_DIFF"
	// EnvArgsLog names a file every invocation appends its arguments to.
	EnvArgsLog = "HOOKWRAP_FAKE_ARGS_LOG"
	// EnvVersion overrides the version a fake tool reports.
	EnvVersion = "HOOKWRAP_FAKE_VERSION"
)

// Modes.
const (
	ModeCat          = "cat"
	ModeChatter      = "chatter"
	ModeEnv          = "env"
	ModeExit         = "exit"
	ModeSleep        = "sleep"
	ModeDetach       = "detach"
	ModeInterleave   = "interleave"
	ModeGit          = "git"
	ModeClangFormat  = "clang-format"
	ModeUncrustify   = "uncrustify"
	ModeClangTidy    = "clang-tidy"
	ModeOCLint       = "oclint"
	ModeCppcheck     = "cppcheck"
	ModeCpplint      = "cpplint"
	ModeIncludeWhat  = "include-what-you-use"
	ModeNoVersion    = "no-version"
	versionArg       = "--version"
	unknownModeExit  = 127
	badArgumentsExit = 2
)

// AllModes lists every impersonation.
var AllModes = []string{
	ModeCat, ModeChatter, ModeEnv, ModeExit, ModeSleep, ModeDetach,
	ModeInterleave, ModeGit, ModeNoVersion,
	ModeClangFormat, ModeUncrustify, ModeClangTidy, ModeOCLint,
	ModeCppcheck, ModeCpplint, ModeIncludeWhat,
}

// MaybeImpersonate exits the process after impersonating the tool named
// by EnvMode.  It returns if EnvMode is unset.  Call it first in TestMain.
func MaybeImpersonate() {
	mode := os.Getenv(EnvMode)
	if mode == "" {
		return
	}
	os.Exit(Main(mode, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// ModeFromPath returns the mode implied by an executable's name, so a
// symlink named clang-format impersonates clang-format.
func ModeFromPath(argv0 string) string {
	return strings.TrimSuffix(filepath.Base(argv0), ".exe")
}

// Main impersonates mode with the given arguments and returns the exit
// code.
func Main(mode string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logArgs(mode, args)
	t := &tool{mode: mode, args: args, stdin: stdin, stdout: stdout, stderr: stderr}
	switch mode {
	case ModeCat:
		return t.cat()
	case ModeChatter:
		return t.chatter()
	case ModeEnv:
		return t.env()
	case ModeExit:
		return t.exit()
	case ModeSleep:
		return t.sleep()
	case ModeDetach:
		return t.detach()
	case ModeInterleave:
		return t.interleave()
	case ModeGit:
		return t.git()
	case ModeNoVersion:
		fmt.Fprintln(stdout, "some tool, who knows which version")
		return 0
	case ModeClangFormat:
		return t.clangFormat()
	case ModeUncrustify:
		return t.uncrustify()
	case ModeClangTidy:
		return t.clangTidy()
	case ModeOCLint:
		return t.oclint()
	case ModeCppcheck:
		return t.cppcheck()
	case ModeCpplint:
		return t.cpplint()
	case ModeIncludeWhat:
		return t.includeWhatYouUse()
	}
	fmt.Fprintf(stderr, "unknown mode %q; known modes: %v\n", mode, AllModes)
	return unknownModeExit
}

type tool struct {
	mode   string
	args   []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (t *tool) cat() int {
	if _, err := io.Copy(t.stdout, t.stdin); err != nil {
		fmt.Fprintln(t.stderr, err)
		return 1
	}
	return 0
}

// chatter writes N numbered lines to each stream, alternating.
func (t *tool) chatter() int {
	n := 3
	if len(t.args) > 0 {
		n, _ = strconv.Atoi(t.args[0])
	}
	for i := 1; i <= n; i++ {
		fmt.Fprintf(t.stdout, "out %d\n", i)
		fmt.Fprintf(t.stderr, "err %d\n", i)
	}
	return 0
}

// env prints NAME=VALUE for each named variable that's set.
func (t *tool) env() int {
	for _, k := range t.args {
		if v, ok := os.LookupEnv(k); ok {
			fmt.Fprintf(t.stdout, "%s=%s\n", k, v)
		}
	}
	return 0
}

// exit writes any remaining arguments to stderr and exits with args[0].
func (t *tool) exit() int {
	if len(t.args) == 0 {
		return 0
	}
	code, err := strconv.Atoi(t.args[0])
	if err != nil {
		fmt.Fprintln(t.stderr, err)
		return badArgumentsExit
	}
	if len(t.args) > 1 {
		fmt.Fprintln(t.stderr, strings.Join(t.args[1:], " "))
	}
	return code
}

func (t *tool) sleep() int {
	d := time.Minute
	if len(t.args) > 0 {
		var err error
		if d, err = time.ParseDuration(t.args[0]); err != nil {
			fmt.Fprintln(t.stderr, err)
			return badArgumentsExit
		}
	}
	time.Sleep(d)
	return 0
}

// detach closes its output streams, then sleeps, like a daemon that
// forgot to fork.
func (t *tool) detach() int {
	for _, w := range []io.Writer{t.stdout, t.stderr} {
		if c, ok := w.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return t.sleep()
}

// interleave alternates streams with pauses long enough that each write
// arrives on its own: "a" on stdout, "b" on stderr, "c" on stdout.
func (t *tool) interleave() int {
	const pause = 100 * time.Millisecond
	fmt.Fprintln(t.stdout, "a")
	time.Sleep(pause)
	fmt.Fprintln(t.stderr, "b")
	time.Sleep(pause)
	fmt.Fprintln(t.stdout, "c")
	return 0
}

func (t *tool) git() int {
	if len(t.args) == 0 || t.args[0] != "diff" {
		fmt.Fprintf(t.stderr, "git: unsupported %v\n", t.args)
		return badArgumentsExit
	}
	if os.Getenv(EnvGitFail) != "" {
		fmt.Fprintln(t.stderr,
			"fatal: not a git repository (or any of the parent directories): .git")
		return 128
	}
	if hasArg(t.args, "--staged") {
		for _, f := range strings.Split(os.Getenv(EnvStaged), ",") {
			if f != "" {
				fmt.Fprintln(t.stdout, f)
			}
		}
		return 0
	}
	if path := os.Getenv(EnvDiff); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(t.stderr, err)
			return 1
		}
		_, _ = t.stdout.Write(data)
	}
	return 0
}

// printVersion handles --version; it returns false if args don't ask
// for it.
func (t *tool) printVersion(banner, defaultVersion string) bool {
	if !hasArg(t.args, versionArg) {
		return false
	}
	v := defaultVersion
	if o := os.Getenv(EnvVersion); o != "" {
		v = o
	}
	fmt.Fprintf(t.stdout, banner, v)
	return true
}

func hasArg(args []string, a string) bool {
	for _, x := range args {
		if x == a {
			return true
		}
	}
	return false
}

// argValue returns the value of `name value` or `name=value`.
func argValue(args []string, name string) (string, bool) {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1], true
		}
		if strings.HasPrefix(a, name+"=") {
			return a[len(name)+1:], true
		}
	}
	return "", false
}

// operands returns the arguments that aren't flags, skipping the values
// of the given value-taking flags.
func operands(args []string, valueFlags ...string) []string {
	var result []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if hasArg(valueFlags, a) {
			i++
			continue
		}
		if strings.HasPrefix(a, "-") {
			continue
		}
		result = append(result, a)
	}
	return result
}

func logArgs(mode string, args []string) {
	path := os.Getenv(EnvArgsLog)
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s %s\n", mode, strings.Join(args, " "))
}
