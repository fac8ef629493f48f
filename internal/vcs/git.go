// Package vcs asks git which files and lines a commit is about to touch.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/monopole/hookwrap"
)

const gitTool = "git"

// Git runs git queries.
type Git struct {
	runner *hookwrap.ProcRunner
	base   hookwrap.Parameters
}

// NewGit returns a Git.  base supplies the working dir, environment and
// timeout of every query; an empty base.Path means "git" from the PATH.
func NewGit(runner *hookwrap.ProcRunner, base hookwrap.Parameters) *Git {
	if base.Path == "" {
		base.Path = gitTool
	}
	base.Input = nil
	return &Git{runner: runner, base: base}
}

// StagedFiles lists files added in the index, the same way pre-commit
// finds them.  Any stderr output or non-zero exit is an error.
func (g *Git) StagedFiles(ctx context.Context) ([]string, error) {
	out, err := g.query(ctx,
		"Problem determining which files are being committed using git.",
		"diff", "--staged", "--name-only", "--diff-filter=A")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// LineRange is an inclusive, 1-based range of lines.
type LineRange struct {
	Start, End int
}

func (r LineRange) String() string { return fmt.Sprintf("%d:%d", r.Start, r.End) }

// ChangedLines returns, per file, the line ranges changed since HEAD.
func (g *Git) ChangedLines(ctx context.Context) (map[string][]LineRange, error) {
	out, err := g.query(ctx,
		"Problem determining which lines changed using git.",
		"diff", "HEAD")
	if err != nil {
		return nil, err
	}
	return ParseChangedLines(out)
}

// ParseChangedLines extracts the new-side line ranges of every hunk in a
// unified diff.  A pure deletion yields a one-line range at the point of
// deletion, so the statements around it still get looked at.
func ParseChangedLines(text []byte) (map[string][]LineRange, error) {
	result := map[string][]LineRange{}
	if len(bytes.TrimSpace(text)) == 0 {
		return result, nil
	}
	fileDiffs, err := diff.ParseMultiFileDiff(text)
	if err != nil {
		return nil, fmt.Errorf("parsing git diff; %w", err)
	}
	for _, fd := range fileDiffs {
		name := strings.TrimPrefix(fd.NewName, "b/")
		if name == "" || fd.NewName == "/dev/null" {
			continue
		}
		for _, h := range fd.Hunks {
			start := int(h.NewStartLine)
			end := start
			if h.NewLines != 0 {
				end += int(h.NewLines) - 1
			}
			result[name] = append(result[name], LineRange{Start: start, End: end})
		}
	}
	return result, nil
}

func (g *Git) query(ctx context.Context, problem string, args ...string) ([]byte, error) {
	p := g.base
	p.Args = args
	res, err := g.runner.Run(ctx, &p)
	if err != nil {
		return nil, &hookwrap.Error{
			Kind:    hookwrap.KindClassification,
			Tool:    gitTool,
			Problem: problem,
			Details: err.Error(),
			Err:     err,
		}
	}
	if stderr := res.Record.Stderr(); len(stderr) > 0 || !res.Success() {
		return nil, &hookwrap.Error{
			Kind:    hookwrap.KindClassification,
			Tool:    gitTool,
			Problem: problem,
			Details: fmt.Sprintf("git %s exited %d\n%s",
				strings.Join(args, " "), res.ExitCode, stderr),
		}
	}
	return res.Record.Stdout(), nil
}
