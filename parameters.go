package hookwrap

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Parameters is a bag of parameters for one ProcRunner.Run.
type Parameters struct {
	// Path is the absolute, WorkingDir-relative, or PATH-resolvable name of
	// the executable.
	Path string

	// Args has the arguments, flags and flag arguments for the invocation.
	Args []string

	// WorkingDir is the working directory of the child.  Empty means the
	// current directory.
	WorkingDir string

	// Input, if not nil, is written to the child's stdin, after which stdin
	// is closed.  If nil, stdin is the null device.
	Input []byte

	// Env holds variables to set in the child on top of a copy of the
	// current environment.
	Env map[string]string

	// Timeout, if positive, bounds the run.  When it expires the child is
	// killed.
	Timeout time.Duration
}

// Validate looks for trouble.
func (p *Parameters) Validate() error {
	if p == nil {
		return fmt.Errorf("must specify Parameters")
	}
	if p.Path == "" {
		return fmt.Errorf("must specify a Path")
	}
	if p.Timeout < 0 {
		return fmt.Errorf("timeout %s is negative", p.Timeout)
	}
	for k := range p.Env {
		if k == "" || strings.ContainsRune(k, '=') {
			return fmt.Errorf("bad environment variable name %q", k)
		}
	}
	return nil
}

// String returns the command line, for messages.
func (p *Parameters) String() string {
	return strings.Join(append([]string{p.Path}, p.Args...), " ")
}

// environ returns a copy of the current environment with Env applied.
func (p *Parameters) environ() []string {
	return MergeEnv(os.Environ(), p.Env)
}

// MergeEnv returns a new KEY=VALUE list holding base with overrides applied.
// Neither argument is modified.  Overridden keys keep their position;
// new keys are appended in sorted order.
func MergeEnv(base []string, overrides map[string]string) []string {
	result := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		k := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k = kv[:i]
		}
		if v, ok := overrides[k]; ok {
			if !seen[k] {
				result = append(result, k+"="+v)
				seen[k] = true
			}
			continue
		}
		result = append(result, kv)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		result = append(result, k+"="+overrides[k])
	}
	return result
}
