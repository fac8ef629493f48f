package cmdrs

import (
	"regexp"
	"sort"

	"github.com/monopole/hookwrap/internal/fltr"
)

const (
	ClangFormat        = "clang-format"
	Uncrustify         = "uncrustify"
	ClangTidy          = "clang-tidy"
	OCLint             = "oclint"
	Cppcheck           = "cppcheck"
	Cpplint            = "cpplint"
	IncludeWhatYouUse  = "include-what-you-use"
	uncrustifyDefaults = "defaults.cfg"
)

// clang-tidy's "N warnings and M errors generated." summary says nothing
// the findings don't.
var warningsGenerated = regexp.MustCompile(
	`(?m)^[\d,]+ (?:warnings?|errors?)(?: and [\d,]+ errors?)? generated\.\r?(?:\n|$)`)

// specs builds the tool table.  It's a function so that no caller can
// alter the table another caller sees.
func specs() []*ToolSpec {
	return []*ToolSpec{
		{
			Name:          ClangFormat,
			LookBehind:    "clang-format version ",
			Kind:          Formatter,
			RequiresFiles: true,
			FlagsFirst:    true,
			InPlaceFlags:  []string{"-i"},
			LineDiff:      true,
			LinesFlag:     "--lines",
		},
		{
			Name:          Uncrustify,
			LookBehind:    "Uncrustify-",
			Kind:          Formatter,
			RequiresFiles: true,
			FlagsFirst:    true,
			FileFlag:      "-f",
			InPlaceFlags:  []string{"--replace"},
			Defaults:      [][]string{{"-q"}},
			Config: &ConfigBootstrap{
				Flag:  "-c",
				Name:  uncrustifyDefaults,
				Show:  "--show-config",
				Fix:   regexp.MustCompile(`(indent_columns\s+=) \d+`),
				FixTo: "${1} 2",
			},
		},
		{
			Name:         ClangTidy,
			LookBehind:   "LLVM version ",
			Kind:         Analyzer,
			InPlaceFlags: []string{"-fix", "--fix-errors"},
			StdoutFilter: fltr.Findings(),
			StderrFilter: &fltr.Filter{Drop: []*regexp.Regexp{warningsGenerated}},
			Verdict:      ByReturnCodeOrStderr,
			Parallel:     true,
		},
		{
			Name:       OCLint,
			LookBehind: "OCLint version ",
			Kind:       Analyzer,
			Defaults: [][]string{
				{"--max-priority-3", "0"},
				{"--enable-global-analysis"},
				{"--enable-clang-static-analyzer"},
			},
			Legacy: &Legacy{
				Before: "20",
				Defaults: [][]string{
					{"-max-priority-3", "0"},
					{"-enable-global-analysis"},
					{"-enable-clang-static-analyzer"},
					{"-no-analytics"},
				},
			},
			Verdict:   ByViolationReport,
			Leftovers: ".plist",
		},
		{
			Name:          Cppcheck,
			LookBehind:    "Cppcheck ",
			Kind:          Analyzer,
			RequiresFiles: true,
			FlagsFirst:    true,
			Defaults: [][]string{
				{"-q"},
				{"--error-exitcode=1"},
				{"--enable=all"},
			},
			StderrFilter: &fltr.Filter{Drop: []*regexp.Regexp{
				fltr.DropLinesContaining("Cppcheck cannot find all the include files"),
			}},
		},
		{
			Name:          Cpplint,
			LookBehind:    "cpplint ",
			Kind:          Analyzer,
			RequiresFiles: true,
			FlagsFirst:    true,
			Defaults:      [][]string{{"--verbose=0"}},
		},
		{
			Name:          IncludeWhatYouUse,
			LookBehind:    "include-what-you-use ",
			Kind:          Analyzer,
			RequiresFiles: true,
			FlagsFirst:    true,
			Verdict:       ByCorrectIncludes,
		},
	}
}

// Lookup returns the spec of the named tool.
func Lookup(name string) (*ToolSpec, bool) {
	for _, s := range specs() {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// All returns every tool spec, sorted by name.
func All() []*ToolSpec {
	all := specs()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}
