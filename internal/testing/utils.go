// Package testing holds assertions shared by hookwrap's tests.
package testing

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertSameLines asserts that two outputs hold the same lines, in any
// order.  Output interleaved from two pipes, or from parallel tool runs,
// has no fixed order.
func AssertSameLines(t *testing.T, expected, actual string) {
	t.Helper()
	assert.Equal(t, sortedLines(expected), sortedLines(actual))
}

func sortedLines(s string) []string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	sort.Strings(lines)
	return lines
}
