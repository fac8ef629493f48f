package version

import (
	"fmt"
	"strings"

	"github.com/monopole/hookwrap"
)

// Op is how a Pin compares versions.
type Op int

const (
	// OpPrefix is the fuzzy match used by `--version X` and `--version=X`.
	OpPrefix Op = iota
	OpEq
	OpGt
	OpGe
	OpLt
	OpLe
)

var opSymbols = map[Op]string{
	OpPrefix: "=",
	OpEq:     "==",
	OpGt:     ">",
	OpGe:     ">=",
	OpLt:     "<",
	OpLe:     "<=",
}

func (o Op) String() string {
	if s, ok := opSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Pin is a version requirement from the command line.
type Pin struct {
	Op   Op
	Want Token
}

func (p Pin) String() string {
	if p.Op == OpPrefix {
		return string(p.Want)
	}
	return p.Op.String() + string(p.Want)
}

// Longest operators first, so ">=" isn't read as ">".
var opOrder = []Op{OpGe, OpLe, OpEq, OpGt, OpLt, OpPrefix}

// ParsePin parses what follows "--version" in one argument, e.g. "=14.0",
// ">=13", or "14" when the value came as a separate argument.
// Spaces are ignored.
func ParsePin(s string) (Pin, error) {
	s = strings.ReplaceAll(s, " ", "")
	op := OpPrefix
	for _, o := range opOrder {
		if sym := opSymbols[o]; strings.HasPrefix(s, sym) {
			op = o
			s = s[len(sym):]
			break
		}
	}
	if s == "" {
		return Pin{}, fmt.Errorf("no version given")
	}
	if op != OpPrefix && len(Numbers(Token(s))) == 0 {
		return Pin{}, fmt.Errorf("version %q has no numeric part to compare", s)
	}
	return Pin{Op: op, Want: Token(s)}, nil
}

// Satisfied reports whether actual meets the pin.
func (p Pin) Satisfied(actual Token) bool {
	if p.Op == OpPrefix {
		return Matches(actual, p.Want)
	}
	c := Compare(actual, p.Want)
	switch p.Op {
	case OpEq:
		return c == 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	}
	return false
}

// Check returns a version mismatch error if actual doesn't meet the pin.
func (p Pin) Check(tool string, actual Token) error {
	if p.Satisfied(actual) {
		return nil
	}
	return &hookwrap.Error{
		Kind:    hookwrap.KindVersionMismatch,
		Tool:    tool,
		Problem: "Version of " + tool + " is wrong",
		Details: fmt.Sprintf("Expected version: %s\nFound version: %s\n"+
			"Edit your pre-commit config or use a different version of %s.",
			p, actual, tool),
	}
}
