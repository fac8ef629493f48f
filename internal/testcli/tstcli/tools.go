package tstcli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Finding texts the fakes print, exported so tests can look for them.
const (
	ClangTidyUnused  = "warning: unused variable [clang-diagnostic-unused-variable]"
	ClangTidyGuard   = "warning: header guard missing [llvm-header-guard]"
	CppcheckNull     = "error: Null pointer dereference [nullPointer]"
	CppcheckNoInc    = "Cppcheck cannot find all the include files (use --check-config for details)"
	CpplintLong      = "Lines should be <= 80 characters long  [whitespace/line_length] [2]"
	OCLintGoto       = "goto statement [convention|P3]"
	IWYURemove       = "should remove these lines:"
	IWYUCorrect      = "has correct #includes/fwd-decls"
	SharedHeaderLine = `#include "common.h"`
	ClangTidyNoDB    = "Error while trying to load a compilation database:"
	compileCommands  = "compile_commands.json"
	cpplintMaxLine   = 80
)

func (t *tool) clangFormat() int {
	if t.printVersion("Ubuntu clang-format version %s\n", "14.0.6-1ubuntu2") {
		return 0
	}
	var (
		ranges  []lineRange
		inPlace bool
		files   []string
	)
	for _, a := range t.args {
		switch {
		case a == "-i":
			inPlace = true
		case strings.HasPrefix(a, "--lines="):
			r, err := parseLineRange(strings.TrimPrefix(a, "--lines="))
			if err != nil {
				fmt.Fprintln(t.stderr, err)
				return 1
			}
			ranges = append(ranges, r)
		case strings.HasPrefix(a, "--style="), strings.HasPrefix(a, "--fallback-style="):
		case strings.HasPrefix(a, "-"):
			fmt.Fprintf(t.stderr,
				"clang-format: Unknown command line argument '%s'.  Try: 'clang-format --help'\n", a)
			return 1
		default:
			files = append(files, a)
		}
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(t.stderr, "error: no such file or directory: '%s'\n", f)
			return 1
		}
		formatted := Format(data, 2, ranges...)
		if !inPlace {
			_, _ = t.stdout.Write(formatted)
			continue
		}
		if string(formatted) != string(data) {
			if err = os.WriteFile(f, formatted, 0o644); err != nil {
				fmt.Fprintln(t.stderr, err)
				return 1
			}
		}
	}
	return 0
}

var indentColumns = regexp.MustCompile(`(?m)^indent_columns\s*=\s*(\d+)`)

// UncrustifyShownConfig is what the fake prints for --show-config.
const UncrustifyShownConfig = `# Uncrustify-0.72.0_f
newlines                        = auto     # lf/crlf/cr/auto
input_tab_size                  = 8        # unsigned number
indent_columns                  = 8        # unsigned number
indent_with_tabs                = 1        # unsigned number
`

func (t *tool) uncrustify() int {
	if t.printVersion("Uncrustify-%s\n", "0.72.0_f") {
		return 0
	}
	if hasArg(t.args, "--show-config") {
		fmt.Fprint(t.stdout, UncrustifyShownConfig)
		return 0
	}
	cfg, ok := argValue(t.args, "-c")
	if !ok {
		fmt.Fprintln(t.stderr, "uncrustify: a config file is required, use -c")
		return 1
	}
	data, err := os.ReadFile(cfg)
	if err != nil {
		fmt.Fprintf(t.stderr, "uncrustify: unable to open config %s\n", cfg)
		return 1
	}
	width := 8
	if m := indentColumns.FindSubmatch(data); m != nil {
		width, _ = strconv.Atoi(string(m[1]))
	}
	if f, ok := argValue(t.args, "-f"); ok {
		src, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(t.stderr, "uncrustify: unable to open %s\n", f)
			return 1
		}
		_, _ = t.stdout.Write(Format(src, width))
		return 0
	}
	if !hasArg(t.args, "--replace") {
		fmt.Fprintln(t.stderr, "uncrustify: nothing to do, use -f or --replace")
		return 1
	}
	for _, f := range operands(t.args, "-c", "-l") {
		src, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(t.stderr, "uncrustify: unable to open %s\n", f)
			return 1
		}
		if err = os.WriteFile(f, Format(src, width), 0o644); err != nil {
			fmt.Fprintln(t.stderr, err)
			return 1
		}
	}
	return 0
}

// filesBeforeDashDash returns the operands ahead of a "--" separator, the
// way clang tools take their sources.
func filesBeforeDashDash(args []string, valueFlags ...string) []string {
	for i, a := range args {
		if a == "--" {
			args = args[:i]
			break
		}
	}
	return operands(args, valueFlags...)
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func (t *tool) clangTidy() int {
	if t.printVersion("LLVM (http://llvm.org/):\n  LLVM version %s\n  Optimized build.\n", "14.0.0") {
		return 0
	}
	fix := hasArg(t.args, "-fix") || hasArg(t.args, "--fix-errors")
	if build, ok := argValue(t.args, "-p"); ok {
		if _, err := os.Stat(filepath.Join(build, compileCommands)); err != nil {
			// Like the real tool, carry on with default compile flags.
			fmt.Fprintf(t.stderr, "%s\nCould not auto-detect compilation database from directory \"%s\"\n"+
				"No compilation database found in %s or any parent directory\n", ClangTidyNoDB, build, build)
		}
	}
	code := 0
	for _, f := range filesBeforeDashDash(t.args, "-p") {
		lines, err := readLines(f)
		if err != nil {
			fmt.Fprintf(t.stderr, "Error while processing %s.\n", f)
			code = 1
			continue
		}
		warnings, errs := 0, 0
		var kept []string
		for i, line := range lines {
			switch {
			case strings.Contains(line, "unused"):
				warnings++
				fmt.Fprintf(t.stdout, "%s:%d:%d: %s\n%s\n%s^\n", f, i+1,
					strings.Index(line, "unused")+1, ClangTidyUnused,
					line, strings.Repeat(" ", strings.Index(line, "unused")))
				if fix {
					continue
				}
			case strings.TrimSpace(line) == SharedHeaderLine:
				warnings++
				fmt.Fprintf(t.stdout, "common.h:1:1: %s\n", ClangTidyGuard)
			case strings.HasPrefix(line, "#error"):
				errs++
				fmt.Fprintf(t.stdout, "%s:%d:2: error: %s [clang-diagnostic-error]\n",
					f, i+1, strings.TrimSpace(strings.TrimPrefix(line, "#error")))
			}
			kept = append(kept, line)
		}
		switch {
		case errs > 0:
			fmt.Fprintf(t.stderr, "%s and %s generated.\nError while processing %s.\n",
				plural(warnings, "warning"), plural(errs, "error"), f)
			code = 1
		case warnings > 0:
			fmt.Fprintf(t.stderr, "%s generated.\n", plural(warnings, "warning"))
		}
		if fix && len(kept) != len(lines) {
			out := strings.Join(kept, "\n") + "\n"
			if err = os.WriteFile(f, []byte(out), 0o644); err != nil {
				fmt.Fprintln(t.stderr, err)
				return 1
			}
		}
	}
	return code
}

func (t *tool) cppcheck() int {
	if t.printVersion("Cppcheck %s\n", "2.7") {
		return 0
	}
	quiet := hasArg(t.args, "-q")
	failCode := 0
	if v, ok := argValue(t.args, "--error-exitcode"); ok {
		failCode, _ = strconv.Atoi(v)
	}
	found := false
	for _, f := range operands(t.args) {
		if !quiet {
			fmt.Fprintf(t.stdout, "Checking %s ...\n", f)
		}
		lines, err := readLines(f)
		if err != nil {
			fmt.Fprintf(t.stderr, "cppcheck: error: could not find or open any of the paths given.\n")
			return 1
		}
		missingInclude := false
		for i, line := range lines {
			if strings.HasPrefix(line, "#include <") {
				missingInclude = true
			}
			if strings.Contains(line, "BUG") {
				found = true
				fmt.Fprintf(t.stderr, "%s:%d:%d: %s\n", f, i+1,
					strings.Index(line, "BUG")+1, CppcheckNull)
			}
		}
		if missingInclude {
			fmt.Fprintf(t.stderr, "nofile:0:0: information: %s [missingIncludeSystem]\n", CppcheckNoInc)
		}
	}
	if found {
		return failCode
	}
	return 0
}

func (t *tool) cpplint() int {
	if t.printVersion("\nCpplint fork (https://github.com/cpplint/cpplint)\ncpplint %s\nPython 3.10.12\n", "1.6.1") {
		return 0
	}
	// Like getopt, options end at the first operand; the rest are files.
	var files []string
	for i, a := range t.args {
		if !strings.HasPrefix(a, "-") {
			files = t.args[i:]
			break
		}
	}
	total := 0
	code := 0
	for _, f := range files {
		lines, err := readLines(f)
		if err != nil {
			fmt.Fprintf(t.stderr, "Skipping input '%s': Can't open for reading\n", f)
			code = 1
			continue
		}
		for i, line := range lines {
			if len(line) > cpplintMaxLine {
				total++
				fmt.Fprintf(t.stderr, "%s:%d:  %s\n", f, i+1, CpplintLong)
			}
		}
		fmt.Fprintf(t.stderr, "Done processing %s\n", f)
	}
	if total > 0 {
		fmt.Fprintf(t.stderr, "Total errors found: %d\n", total)
		code = 1
	}
	return code
}

// LegacyOCLintVersion is a version old enough for single dash flags.
const LegacyOCLintVersion = "0.13.1"

func (t *tool) oclint() int {
	if t.printVersion("OCLint (http://oclint.org/):\nOCLint version %s.\nBuilt Mar  1 2022 (12:00:00).\n", "22.02") {
		return 0
	}
	legacy := strings.HasPrefix(os.Getenv(EnvVersion), "0.")
	for _, a := range t.args {
		var bad bool
		if legacy {
			bad = strings.HasPrefix(a, "--") && a != "--"
		} else {
			bad = a == "-no-analytics"
		}
		if bad {
			fmt.Fprintf(t.stderr, "oclint: Unknown command line argument '%s'.\n", a)
			return 1
		}
	}
	code := 0
	for _, f := range filesBeforeDashDash(t.args, "--max-priority-3", "-max-priority-3") {
		lines, err := readLines(f)
		if err != nil {
			fmt.Fprintf(t.stderr, "oclint: %s not found\n", f)
			return 1
		}
		var violations []string
		for i, line := range lines {
			if strings.Contains(line, "goto") {
				violations = append(violations,
					fmt.Sprintf("%s:%d:%d: %s", f, i+1, strings.Index(line, "goto")+1, OCLintGoto))
			}
		}
		withViolations := 0
		if len(violations) > 0 {
			withViolations = 1
			code = 5
		}
		fmt.Fprintf(t.stdout,
			"\nOCLint Report\n\nSummary: TotalFiles=1 FilesWithViolations=%d P1=0 P2=0 P3=%d \n\n",
			withViolations, len(violations))
		for _, v := range violations {
			fmt.Fprintln(t.stdout, v)
		}
		fmt.Fprintf(t.stdout, "\n[OCLint (https://oclint.org) v22.02]\n")
		// The clang static analyzer leaves a report behind in the cwd.
		plist := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)) + ".plist"
		if err = os.WriteFile(plist, []byte("<plist/>\n"), 0o644); err != nil {
			fmt.Fprintln(t.stderr, err)
			return 1
		}
	}
	return code
}

func (t *tool) includeWhatYouUse() int {
	if t.printVersion("include-what-you-use %s based on Ubuntu clang version 14.0.0-1ubuntu1\n", "0.17") {
		return 0
	}
	for _, f := range operands(t.args, "-Xiwyu") {
		data, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(t.stderr, "error: no such file or directory: '%s'\n", f)
			return 1
		}
		src := string(data)
		if strings.Contains(src, "#include <vector>") && !strings.Contains(src, "std::vector") {
			fmt.Fprintf(t.stderr,
				"\n%s should add these lines:\n\n%s %s\n- #include <vector>  // lines 1-1\n\n"+
					"The full include-list for %s:\n---\n",
				f, f, IWYURemove, f)
			continue
		}
		fmt.Fprintf(t.stderr, "\n(%s %s)\n", f, IWYUCorrect)
	}
	// The exit code carries no meaning.
	return 2
}
