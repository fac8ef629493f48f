package cmdrs

import (
	"regexp"

	"github.com/monopole/hookwrap/internal/fltr"
	"github.com/monopole/hookwrap/internal/version"
)

// Kind says what a tool does to the files it's given.
type Kind int

const (
	// Formatter tools rewrite files; a difference is a failure.
	Formatter Kind = iota
	// Analyzer tools report findings.
	Analyzer
)

func (k Kind) String() string {
	if k == Formatter {
		return "formatter"
	}
	return "analyzer"
}

// Verdict decides whether an analyzer run on one file failed.
type Verdict int

const (
	// ByReturnCode trusts the tool's return code.
	ByReturnCode Verdict = iota
	// ByViolationReport looks for a FilesWithViolations=N summary, and
	// shows the report on stderr when N > 0.
	ByViolationReport
	// ByCorrectIncludes ignores the return code; a file is clean iff
	// stderr is empty or says the includes are correct.
	ByCorrectIncludes
	// ByReturnCodeOrStderr also fails a file if stderr holds anything
	// after filtering, unless the tool was asked to fix things.
	ByReturnCodeOrStderr
)

// Legacy holds what changes for tool versions before Before.
type Legacy struct {
	Before   version.Token
	Defaults [][]string
}

// ConfigBootstrap describes a config file a tool refuses to run without.
// If the user didn't pass Flag, the file Name is generated in the working
// directory from the output of `<tool> Show` (once), after replacing every
// match of Fix with FixTo, and `Flag Name` is injected.
type ConfigBootstrap struct {
	Flag  string
	Name  string
	Show  string
	Fix   *regexp.Regexp
	FixTo string
}

// ToolSpec is everything that distinguishes one wrapped tool from another.
// It's data; one Command type runs them all.
type ToolSpec struct {
	// Name is the executable and the name the user knows the tool by.
	Name string
	// LookBehind precedes the version in `<tool> --version` output.
	LookBehind string
	Kind       Kind
	// RequiresFiles is false for tools that can run as pure drivers, with
	// only flags (a compilation database names the files).
	RequiresFiles bool
	// FlagsFirst puts flags ahead of the file on the tool's command line;
	// otherwise the file comes first.
	FlagsFirst bool
	// FileFlag, if set, precedes the file unless editing in place.
	FileFlag string
	// InPlaceFlags are the flags that make the tool rewrite files.
	InPlaceFlags []string
	// Defaults are injected unless the user gave the same flag.  Each is
	// one flag, or a flag and its value.
	Defaults [][]string
	// Legacy, if set, replaces Defaults for old versions.
	Legacy *Legacy
	// Config, if set, is bootstrapped before running.
	Config *ConfigBootstrap
	// LineDiff allows --line-diff: format only lines changed since HEAD,
	// passing them to the tool with LinesFlag.
	LineDiff  bool
	LinesFlag string
	// StdoutFilter and StderrFilter clean up analyzer output.
	StdoutFilter *fltr.Filter
	StderrFilter *fltr.Filter
	Verdict      Verdict
	// Parallel runs files concurrently.
	Parallel bool
	// Leftovers is the extension of files a run leaves behind in the
	// working directory; new ones are deleted.
	Leftovers string
}

// needsVersion is true if the defaults depend on the tool version.
func (s *ToolSpec) needsVersion() bool { return s.Legacy != nil }

// defaultsFor returns the defaults to inject given the tool version.
func (s *ToolSpec) defaultsFor(v version.Token) [][]string {
	if s.Legacy != nil && v != "" && version.Compare(v, s.Legacy.Before) < 0 {
		return s.Legacy.Defaults
	}
	return s.Defaults
}
