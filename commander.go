package hookwrap

import (
	"context"
	"fmt"
	"io"
)

// Commander wraps one external tool for the hook framework.
type Commander interface {
	// Stringer provides the wrapped tool's name, e.g. "clang-format".
	fmt.Stringer

	// Run classifies arguments, checks any version pin, runs the tool and
	// post-processes its output.
	//
	// A tool-reported violation (lint findings, a formatting diff) is not
	// an error; it's an Outcome with a non-zero Code.  Errors are for
	// everything that kept the check from happening at all.
	Run(ctx context.Context) (*Outcome, error)
}

// Outcome is the terminal result of a Commander run: a return code and the
// output to show the user.
type Outcome struct {
	Code   int
	Record *Record
}

// NewOutcome returns an empty, successful Outcome.
func NewOutcome() *Outcome {
	return &Outcome{Record: &Record{}}
}

// Stdout returns what the outcome prints on stdout.
func (o *Outcome) Stdout() []byte { return o.Record.Stdout() }

// Stderr returns what the outcome prints on stderr.
func (o *Outcome) Stderr() []byte { return o.Record.Stderr() }

// Fail raises the code to at least c.
func (o *Outcome) Fail(c int) {
	if c > o.Code {
		o.Code = c
	}
}

// Merge folds other into o: the higher code wins and output is appended.
// Consecutive stderr blocks from different outcomes are separated by a
// newline.
func (o *Outcome) Merge(other *Outcome) {
	if other == nil {
		return
	}
	o.Fail(other.Code)
	if len(o.Stderr()) > 0 && len(other.Stderr()) > 0 {
		o.Record.AppendString(Stderr, "\n")
	}
	o.Record.AppendRecord(other.Record)
}

// ReplayTo writes the outcome's output to the given writers.
func (o *Outcome) ReplayTo(out, errOut io.Writer) error {
	return o.Record.ReplayTo(out, errOut)
}
