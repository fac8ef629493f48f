// Package version extracts tool versions from --version output and checks
// them against the pins users put in their hook configuration.
package version

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/monopole/hookwrap"
)

// Token is a dotted version with an optional qualifier, e.g. "14.0.6-1ubuntu2".
type Token string

// After the look-behind literal comes something like `8.0.0`, followed by
// a space or newline.
const tokenPattern = `((?:\d+\.)+[\d+_\+\-a-z]+)`

// Extract finds the token that follows lookBehind in out.
func Extract(lookBehind string, out []byte) (Token, bool) {
	re := regexp.MustCompile(regexp.QuoteMeta(lookBehind) + tokenPattern)
	m := re.FindSubmatch(out)
	if m == nil {
		return "", false
	}
	return Token(m[1]), true
}

// Probe runs `<base.Path> --version` and extracts the version following
// lookBehind.  Everything else in base (working dir, environment, timeout)
// applies as given; its Args and Input are ignored.  The tool name is used
// in error messages.
func Probe(
	ctx context.Context, runner *hookwrap.ProcRunner,
	tool, lookBehind string, base hookwrap.Parameters,
) (Token, error) {
	base.Args = []string{"--version"}
	base.Input = nil
	res, err := runner.Run(ctx, &base)
	if err != nil {
		return "", err
	}
	// Most tools print their version on stdout; some use stderr.
	if tok, ok := Extract(lookBehind, res.Record.Stdout()); ok {
		return tok, nil
	}
	if tok, ok := Extract(lookBehind, res.Record.Stderr()); ok {
		return tok, nil
	}
	return "", &hookwrap.Error{
		Kind:    hookwrap.KindVersionFormat,
		Tool:    tool,
		Problem: "getting version",
		Details: fmt.Sprintf(
			"The version format for this command has changed.\n"+
				"Expected %q followed by a version in:\n%s",
			lookBehind, res.Record.Combined()),
	}
}

// Matches is true if actual starts with expected, so that pinning "14.0"
// accepts any 14.0.x release.
func Matches(actual, expected Token) bool {
	return strings.HasPrefix(string(actual), string(expected))
}

// Numbers returns the leading numeric components of t, e.g. [14 0 6] for
// "14.0.6-1ubuntu2".  Parsing stops at the first component that doesn't
// start with a digit.
func Numbers(t Token) []int {
	var nums []int
	for _, part := range strings.Split(string(t), ".") {
		end := 0
		for end < len(part) && part[end] >= '0' && part[end] <= '9' {
			end++
		}
		if end == 0 {
			break
		}
		n, err := strconv.Atoi(part[:end])
		if err != nil {
			break
		}
		nums = append(nums, n)
		if end < len(part) {
			// A qualifier like "-1ubuntu2" ends the numeric part.
			break
		}
	}
	return nums
}

// Compare orders a and b as tuples of their leading numeric components.
// It returns -1, 0 or +1.  A tuple that is a proper prefix of another
// sorts first, so "14.0" < "14.0.6".
func Compare(a, b Token) int {
	x, y := Numbers(a), Numbers(b)
	for i := 0; i < len(x) && i < len(y); i++ {
		switch {
		case x[i] < y[i]:
			return -1
		case x[i] > y[i]:
			return 1
		}
	}
	switch {
	case len(x) < len(y):
		return -1
	case len(x) > len(y):
		return 1
	}
	return 0
}
