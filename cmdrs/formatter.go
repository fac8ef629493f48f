package cmdrs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/monopole/hookwrap"
	"github.com/monopole/hookwrap/internal/udiff"
	"github.com/monopole/hookwrap/internal/vcs"
)

// runFormatter formats each file in turn, failing if any file isn't
// formatted the way the tool wants it.  Unless --no-diff was given, the
// difference is shown on stderr, one block per file.
func (c *Command) runFormatter(ctx context.Context, inv *invocation) (*hookwrap.Outcome, error) {
	var changed map[string][]vcs.LineRange
	if inv.lineDiff {
		var err error
		if changed, err = c.git().ChangedLines(ctx); err != nil {
			return nil, err
		}
	}
	total := hookwrap.NewOutcome()
	for _, file := range inv.files {
		flags := inv.flags
		if inv.lineDiff {
			ranges := changedRanges(changed, file)
			if len(ranges) == 0 {
				c.cfg.Logger.Debug("no changed lines", "file", file)
				continue
			}
			for _, r := range ranges {
				flags = append(flags[:len(flags):len(flags)], c.spec.LinesFlag+"="+r.String())
			}
		}
		o, err := c.formatFile(ctx, file, flags, inv)
		if err != nil {
			return nil, err
		}
		total.Merge(o)
	}
	return total, nil
}

// changedRanges finds a file's changed lines.  Git names files relative
// to the top of the repository.
func changedRanges(changed map[string][]vcs.LineRange, file string) []vcs.LineRange {
	clean := filepath.ToSlash(filepath.Clean(file))
	if r, ok := changed[clean]; ok {
		return r
	}
	if !filepath.IsAbs(file) {
		return nil
	}
	for name, r := range changed {
		if strings.HasSuffix(clean, "/"+name) {
			return r
		}
	}
	return nil
}

func (c *Command) formatFile(
	ctx context.Context, file string, flags []string, inv *invocation,
) (*hookwrap.Outcome, error) {
	before, err := c.readFile(file)
	if err != nil {
		return nil, err
	}
	toolArgs := append(flags[:len(flags):len(flags)], c.fileArgs(file, inv.inPlace)...)
	res, err := c.run(ctx, toolArgs)
	if err != nil {
		return nil, err
	}
	if len(res.Record.Stderr()) > 0 || !res.Success() {
		p := c.params(toolArgs)
		return nil, &hookwrap.Error{
			Kind: hookwrap.KindUnexpected,
			Tool: c.spec.Name,
			Problem: fmt.Sprintf(
				"Unexpected Stderr/return code received when analyzing %s.\nArgs: %s",
				file, p.String()),
			Details: string(res.Record.Stdout()) + string(res.Record.Stderr()),
			Code:    res.ExitCode,
		}
	}
	after := res.Record.Stdout()
	if inv.inPlace {
		// The tool rewrote the file and printed nothing.
		if after, err = c.readFile(file); err != nil {
			return nil, err
		}
	}
	diff, err := udiff.Unified(before, after)
	if err != nil {
		return nil, err
	}
	o := hookwrap.NewOutcome()
	if diff == "" {
		return o, nil
	}
	o.Fail(1)
	if !inv.noDiff {
		o.Record.AppendString(hookwrap.Stderr, udiff.Report(file, diff))
	}
	return o, nil
}

// fileArgs are the arguments naming the file on the tool's command line.
func (c *Command) fileArgs(file string, inPlace bool) []string {
	if c.spec.FileFlag != "" && !inPlace {
		return []string{c.spec.FileFlag, file}
	}
	return []string{file}
}

func (c *Command) readFile(file string) ([]byte, error) {
	data, err := os.ReadFile(c.path(file))
	if err != nil {
		return nil, &hookwrap.Error{
			Kind:    hookwrap.KindClassification,
			Tool:    c.spec.Name,
			Problem: "File " + file + " not found",
			Details: "Check your path to the file.",
			Err:     err,
		}
	}
	return data, nil
}
