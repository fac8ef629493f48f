// Package udiff builds the unified diffs formatter wrappers show when a
// file isn't formatted the way the formatter wants it.
package udiff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	fromName = "original"
	toName   = "formatted"
	// contextLines is the usual `diff -u` context.
	contextLines = 3
	headerRule   = "===================="
)

// Lines splits text into lines, each keeping its linefeed.  A final line
// without a linefeed is kept as is, so a missing trailing newline shows up
// in a diff.
func Lines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}
	s := string(text)
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Unified returns the unified diff turning original into formatted, or
// the empty string if they're equal.
func Unified(original, formatted []byte) (string, error) {
	if bytes.Equal(original, formatted) {
		return "", nil
	}
	a, b := Lines(original), Lines(formatted)
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        terminate(a),
		B:        terminate(b),
		FromFile: fromName,
		ToFile:   toName,
		Context:  contextLines,
	})
	if err != nil {
		return "", fmt.Errorf("diffing; %w", err)
	}
	return text, nil
}

// Report renders a diff under a header naming the file.
func Report(filename, diff string) string {
	return filename + "\n" + headerRule + "\n" + diff
}

// Counts returns the number of removed and added body lines in a diff.
func Counts(diff string) (removed, added int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case line == "--- "+fromName, line == "+++ "+toName:
		case strings.HasPrefix(line, "-"):
			removed++
		case strings.HasPrefix(line, "+"):
			added++
		}
	}
	return removed, added
}

// terminate makes sure every line ends in a linefeed, marking one that
// didn't, so the diff stays line oriented.
func terminate(lines []string) []string {
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		out := make([]string, n)
		copy(out, lines)
		out[n-1] += "\n\\ No newline at end of file\n"
		return out
	}
	return lines
}

// Diff line styles.  Colors are forced on; the caller decides whether
// the output is a terminal.
var (
	styleHeader = forced(color.Bold)
	styleHunk   = forced(color.FgCyan)
	styleRemove = forced(color.FgRed)
	styleAdd    = forced(color.FgGreen)
)

func forced(a color.Attribute) *color.Color {
	c := color.New(a)
	c.EnableColor()
	return c
}

// Colorize adds terminal colors to the diff lines in text, leaving other
// lines alone.
func Colorize(text []byte) []byte {
	var b bytes.Buffer
	for _, line := range strings.SplitAfter(string(text), "\n") {
		var style *color.Color
		switch {
		case strings.HasPrefix(line, "--- "+fromName), strings.HasPrefix(line, "+++ "+toName):
			style = styleHeader
		case strings.HasPrefix(line, "@@"):
			style = styleHunk
		case strings.HasPrefix(line, "-"):
			style = styleRemove
		case strings.HasPrefix(line, "+"):
			style = styleAdd
		}
		if style == nil {
			b.WriteString(line)
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		b.WriteString(style.Sprint(body))
		if len(body) < len(line) {
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}
