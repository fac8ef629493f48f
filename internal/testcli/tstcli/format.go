package tstcli

import (
	"fmt"
	"strconv"
	"strings"
)

// lineRange is an inclusive, 1-based range of lines, as in --lines=a:b.
type lineRange struct {
	start, end int
}

func parseLineRange(s string) (lineRange, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return lineRange{}, fmt.Errorf("bad line range %q", s)
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return lineRange{}, err
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return lineRange{}, err
	}
	return lineRange{start: start, end: end}, nil
}

func inRanges(ranges []lineRange, n int) bool {
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if n >= r.start && n <= r.end {
			return true
		}
	}
	return false
}

// Format re-indents C-like source by brace depth, width spaces per level.
// Trailing whitespace is dropped and the result ends in a linefeed.  Only
// lines inside ranges are touched; no ranges means all lines.
func Format(src []byte, width int, ranges ...lineRange) []byte {
	text := strings.TrimSuffix(string(src), "\n")
	if text == "" {
		return src
	}
	var b strings.Builder
	depth := 0
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		closesFirst := strings.HasPrefix(trimmed, "}")
		if closesFirst && depth > 0 {
			depth--
		}
		if inRanges(ranges, i+1) {
			if trimmed != "" {
				b.WriteString(strings.Repeat(" ", depth*width))
				b.WriteString(trimmed)
			}
		} else {
			b.WriteString(line)
		}
		b.WriteByte('\n')
		delta := strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
		if closesFirst {
			delta++
		}
		if depth += delta; depth < 0 {
			depth = 0
		}
	}
	return []byte(b.String())
}
