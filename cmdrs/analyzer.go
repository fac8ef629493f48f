package cmdrs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/monopole/hookwrap"
)

const (
	iwyuCorrect = "has correct #includes/fwd-decls"
	iwyuProblem = "Include-What-You-Use violations found"
)

var filesWithViolations = regexp.MustCompile(`FilesWithViolations=(\d+)`)

// runAnalyzer runs the tool on every file and reduces the results: the
// highest code wins.  Nothing is shown unless something failed, in which
// case the failing files' output is shown on stderr.
func (c *Command) runAnalyzer(ctx context.Context, inv *invocation) (*hookwrap.Outcome, error) {
	files := inv.files
	if len(files) == 0 {
		if len(inv.flags) == 0 || c.spec.RequiresFiles {
			// Every file was excluded.
			return hookwrap.NewOutcome(), nil
		}
		// A driver run, e.g. clang-tidy -p build, names no file.
		files = []string{""}
	}
	var (
		total *hookwrap.Outcome
		err   error
	)
	if c.spec.Parallel {
		total, err = hookwrap.Fanout(ctx, c.cfg.Jobs, len(files),
			func(ctx context.Context, i int) (*hookwrap.Outcome, error) {
				return c.analyzeFile(ctx, files[i], inv)
			})
	} else {
		total = hookwrap.NewOutcome()
		for _, f := range files {
			var o *hookwrap.Outcome
			if o, err = c.analyzeFile(ctx, f, inv); err != nil {
				break
			}
			total.Merge(o)
		}
	}
	if err != nil {
		return nil, err
	}
	return c.report(total), nil
}

// analyzeFile runs the tool on one file.  The returned Outcome holds the
// tool's output only if the file failed.
func (c *Command) analyzeFile(ctx context.Context, file string, inv *invocation) (*hookwrap.Outcome, error) {
	flags := inv.flags
	var toolArgs []string
	switch {
	case file == "":
		toolArgs = flags
	case c.spec.FlagsFirst:
		toolArgs = append(flags[:len(flags):len(flags)], file)
	default:
		toolArgs = append([]string{file}, flags...)
	}
	var before map[string]bool
	if c.spec.Leftovers != "" {
		before = c.listWorkDir()
	}
	res, err := c.run(ctx, toolArgs)
	if before != nil {
		c.removeLeftovers(before)
	}
	if err != nil {
		return nil, err
	}
	stdout, stderr := res.Record.Stdout(), res.Record.Stderr()
	filtered := c.spec.StderrFilter.Apply(stderr)
	if !c.cfg.RawOutput {
		stderr = filtered
	}
	o := hookwrap.NewOutcome()
	switch c.spec.Verdict {
	case ByViolationReport:
		o.Code = res.ExitCode
		if violations(stdout) > 0 {
			// The report goes to stdout, but it's the error.
			stderr = append(append([]byte{}, stderr...), stdout...)
			o.Fail(1)
		}
		stdout = nil
	case ByCorrectIncludes:
		if len(stderr) > 0 && !strings.Contains(string(stderr), iwyuCorrect) {
			o.Code = 1
		}
	case ByReturnCodeOrStderr:
		o.Code = res.ExitCode
		// Raw output changes what's shown, not the verdict.
		if len(bytes.TrimSpace(filtered)) > 0 && !inv.inPlace {
			o.Fail(1)
		}
	default:
		o.Code = res.ExitCode
	}
	if o.Code != 0 {
		o.Record.Append(hookwrap.Stdout, stdout)
		o.Record.Append(hookwrap.Stderr, stderr)
	}
	return o, nil
}

// violations returns N from an oclint FilesWithViolations=N summary.
func violations(report []byte) int {
	m := filesWithViolations.FindSubmatch(report)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(string(m[1]))
	return n
}

// report turns the merged per-file results into what the user sees.  All
// of it goes to stderr; the hook framework shows stderr on failure.
func (c *Command) report(total *hookwrap.Outcome) *hookwrap.Outcome {
	result := hookwrap.NewOutcome()
	if total.Code == 0 {
		return result
	}
	result.Code = total.Code
	stdout := total.Stdout()
	if !c.cfg.RawOutput {
		// Findings repeat across files when they're in a shared header.
		stdout = c.spec.StdoutFilter.Apply(stdout)
	}
	text := append(append([]byte{}, stdout...), total.Stderr()...)
	if c.spec.Verdict == ByCorrectIncludes {
		text = []byte(fmt.Sprintf("Problem with %s: %s\n\n%s\n", c.spec.Name, iwyuProblem, text))
	}
	result.Record.Append(hookwrap.Stderr, text)
	return result
}

func (c *Command) listWorkDir() map[string]bool {
	dir := c.cfg.WorkDir
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.cfg.Logger.Warn("listing working dir", "dir", dir, "err", err)
		return map[string]bool{}
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names
}

// removeLeftovers deletes files with the Leftovers extension that weren't
// in the working directory before the run.
func (c *Command) removeLeftovers(before map[string]bool) {
	for name := range c.listWorkDir() {
		if before[name] || !strings.HasSuffix(name, c.spec.Leftovers) {
			continue
		}
		path := c.path(name)
		if err := os.Remove(path); err != nil {
			c.cfg.Logger.Warn("removing leftover", "path", path, "err", err)
			continue
		}
		c.cfg.Logger.Debug("removed leftover", "path", path)
	}
}
