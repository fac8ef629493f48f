package hookwrap_test

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/monopole/hookwrap"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	err := NewError(KindVersionMismatch, "clang-format",
		"Version of clang-format is wrong", "Expected version: 14")
	assert.Equal(t,
		"Problem with clang-format: Version of clang-format is wrong\nExpected version: 14\n",
		err.Error())
	assert.Equal(t, 1, err.ExitCode())

	wrapped := fmt.Errorf("checking; %w", err)
	assert.True(t, IsKind(wrapped, KindVersionMismatch))
	assert.False(t, IsKind(wrapped, KindTimeout))
	assert.Equal(t, 1, ExitCode(wrapped))
}

func TestExitCode(t *testing.T) {
	cause := errors.New("cause")
	var testCases = map[string]struct {
		err      error
		expected int
	}{
		"nil": {
			expected: 0,
		},
		"plain": {
			err:      cause,
			expected: 1,
		},
		"toolCode": {
			err:      &Error{Kind: KindUnexpected, Code: 5, Err: cause},
			expected: 5,
		},
		"wrappedToolCode": {
			err:      fmt.Errorf("x; %w", &Error{Kind: KindUnexpected, Code: 134}),
			expected: 134,
		},
	}
	for n, tc := range testCases {
		t.Run(n, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExitCode(tc.err))
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "tool not found", KindToolNotFound.String())
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "ErrorKind(99)", ErrorKind(99).String())
}
