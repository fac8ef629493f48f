package version_test

import (
	"context"
	"os"
	"testing"

	"github.com/monopole/hookwrap"
	"github.com/monopole/hookwrap/internal/testcli/tstcli"
	. "github.com/monopole/hookwrap/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	tstcli.MaybeImpersonate()
	os.Exit(m.Run())
}

func TestExtract(t *testing.T) {
	var testCases = map[string]struct {
		lookBehind string
		out        string
		expected   Token
		found      bool
	}{
		"clangFormat": {
			lookBehind: "clang-format version ",
			out:        "Ubuntu clang-format version 14.0.6-1ubuntu2\n",
			expected:   "14.0.6-1ubuntu2",
			found:      true,
		},
		"clangTidy": {
			lookBehind: "LLVM version ",
			out:        "LLVM (http://llvm.org/):\n  LLVM version 14.0.0\n  Optimized build.\n",
			expected:   "14.0.0",
			found:      true,
		},
		"uncrustify": {
			lookBehind: "Uncrustify-",
			out:        "Uncrustify-0.72.0_f\n",
			expected:   "0.72.0_f",
			found:      true,
		},
		"oclintTrailingDot": {
			lookBehind: "OCLint version ",
			out:        "OCLint version 22.02.\nBuilt Mar  1 2022\n",
			expected:   "22.02",
			found:      true,
		},
		"lookBehindIsLiteral": {
			lookBehind: "cpplint (x) ",
			out:        "cpplint (x) 1.6.1\n",
			expected:   "1.6.1",
			found:      true,
		},
		"noDots": {
			lookBehind: "Cppcheck ",
			out:        "Cppcheck 2\n",
		},
		"wrongLookBehind": {
			lookBehind: "Cppcheck ",
			out:        "cppcheck 2.7\n",
		},
	}
	for n, tc := range testCases {
		t.Run(n, func(t *testing.T) {
			tok, ok := Extract(tc.lookBehind, []byte(tc.out))
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.expected, tok)
		})
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("14.0.6", "14.0"))
	assert.True(t, Matches("14.0.6", "14.0.6"))
	assert.False(t, Matches("14.1.0", "14.0"))
	assert.False(t, Matches("14.0", "14.0.6"))
	// A prefix, not a component match.
	assert.True(t, Matches("14.0.6", "1"))
}

func TestNumbers(t *testing.T) {
	assert.Equal(t, []int{14, 0, 6}, Numbers("14.0.6-1ubuntu2"))
	assert.Equal(t, []int{0, 72, 0}, Numbers("0.72.0_f"))
	assert.Equal(t, []int{22, 2}, Numbers("22.02"))
	assert.Equal(t, []int{3}, Numbers("3.rc1"))
	assert.Nil(t, Numbers("latest"))
}

func TestCompare(t *testing.T) {
	var testCases = map[string]struct {
		a, b     Token
		expected int
	}{
		"equal":             {a: "14.0.6", b: "14.0.6", expected: 0},
		"qualifierIgnored":  {a: "14.0.6-1ubuntu2", b: "14.0.6", expected: 0},
		"numericNotLexical": {a: "9.0", b: "10.0", expected: -1},
		"greater":           {a: "22.02", b: "20", expected: 1},
		"prefixSortsFirst":  {a: "14.0", b: "14.0.6", expected: -1},
		"legacyOCLint":      {a: "0.13.1", b: "20", expected: -1},
	}
	for n, tc := range testCases {
		t.Run(n, func(t *testing.T) {
			assert.Equal(t, tc.expected, Compare(tc.a, tc.b))
			assert.Equal(t, -tc.expected, Compare(tc.b, tc.a))
		})
	}
}

func fakeTool(mode, version string) hookwrap.Parameters {
	env := map[string]string{tstcli.EnvMode: mode}
	if version != "" {
		env[tstcli.EnvVersion] = version
	}
	return hookwrap.Parameters{Path: os.Args[0], Env: env}
}

func TestProbe(t *testing.T) {
	runner := hookwrap.NewProcRunner(nil)
	tok, err := Probe(context.Background(), runner,
		"clang-format", "clang-format version ", fakeTool(tstcli.ModeClangFormat, ""))
	require.NoError(t, err)
	assert.Equal(t, Token("14.0.6-1ubuntu2"), tok)

	tok, err = Probe(context.Background(), runner,
		"oclint", "OCLint version ", fakeTool(tstcli.ModeOCLint, "0.13.1"))
	require.NoError(t, err)
	assert.Equal(t, Token("0.13.1"), tok)
}

func TestProbe_FormatChanged(t *testing.T) {
	_, err := Probe(context.Background(), hookwrap.NewProcRunner(nil),
		"mystery", "mystery version ", fakeTool(tstcli.ModeNoVersion, ""))
	require.Error(t, err)
	assert.True(t, hookwrap.IsKind(err, hookwrap.KindVersionFormat))
	assert.Contains(t, err.Error(), "Problem with mystery: getting version")
	assert.Contains(t, err.Error(), "The version format for this command has changed.")
}
