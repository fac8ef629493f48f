// Package args splits a wrapper's command line into files to check, flags
// to pass through to the wrapped tool, and an optional version pin.
package args

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/monopole/hookwrap"
	"github.com/monopole/hookwrap/internal/version"
)

const (
	versionFlag = "--version"
	// Files with this extension configure tools (uncrustify's -c foo.cfg),
	// they're never checked.
	configExt = ".cfg"
)

// Classification is a classified command line.
type Classification struct {
	// Files to run the tool on, in command line order.
	Files []string
	// Flags to pass through to the tool, in command line order.
	Flags []string
	// Pin is the requested tool version, or nil.
	Pin *version.Pin
}

// StagedLister returns files staged for commit.
type StagedLister func(ctx context.Context) ([]string, error)

// Classifier classifies command lines for one tool.
type Classifier struct {
	// Tool names the tool in error messages.
	Tool string
	// RequiresFiles is false only for tools that can run as pure drivers.
	RequiresFiles bool
	// Dir resolves relative file arguments; empty means the current
	// directory.
	Dir string
	// Staged is consulted when no argument names a file.
	Staged StagedLister
	// Exclude, if not nil, drops the files it matches.
	Exclude func(path string) bool
}

// Classify classifies argv.  argv[0], the program name, is ignored.
func (c *Classifier) Classify(ctx context.Context, argv []string) (*Classification, error) {
	result := &Classification{}
	// sawFile is true once a file argument was given, even an excluded
	// one; it stops the staged fallback.
	sawFile := false
	if len(argv) > 0 {
		argv = argv[1:]
	}
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if strings.HasPrefix(arg, versionFlag) {
			rest := arg[len(versionFlag):]
			if rest == "" {
				if i == len(argv)-1 {
					return nil, c.fail("Missing version",
						"--version must be followed by a version, e.g. --version=14.0")
				}
				i++
				rest = argv[i]
			}
			pin, err := version.ParsePin(rest)
			if err != nil {
				return nil, c.fail("Bad version argument "+arg, err.Error())
			}
			result.Pin = &pin
			continue
		}
		if c.isFile(arg) {
			sawFile = true
			if !c.excluded(arg) {
				result.Files = append(result.Files, arg)
			}
			continue
		}
		result.Flags = append(result.Flags, arg)
	}
	if !sawFile && c.Staged != nil {
		staged, err := c.Staged(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range staged {
			if c.isFile(f) {
				sawFile = true
				if !c.excluded(f) {
					result.Files = append(result.Files, f)
				}
			}
		}
	}
	if !sawFile && result.Pin == nil && c.RequiresFiles {
		return nil, c.fail("Missing arguments",
			"No file arguments found and no files are pending commit.")
	}
	return result, nil
}

// isFile is true for an existing regular file that isn't a flag or a
// config file.  Directories, like clang-tidy's -p build, are flag values.
func (c *Classifier) isFile(arg string) bool {
	if arg == "" || strings.HasPrefix(arg, "-") || strings.HasSuffix(arg, configExt) {
		return false
	}
	path := arg
	if c.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(c.Dir, path)
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func (c *Classifier) excluded(path string) bool {
	return c.Exclude != nil && c.Exclude(path)
}

func (c *Classifier) fail(problem, details string) error {
	return hookwrap.NewError(hookwrap.KindClassification, c.Tool, problem, details)
}
