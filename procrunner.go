package hookwrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
)

// defaultChunkSize is the most read from, or written to, one pipe per
// readiness notification.  It's the Linux pipe buffer size.
const defaultChunkSize = 64 * 1024

// ProcRunner runs a non-interactive tool as a child process, feeding it
// optional input while capturing its output.
//
// A naive runner writes all the input, then reads all the output.  That
// deadlocks as soon as the child fills its output pipe before it has
// consumed all its input, because the child blocks writing while the runner
// blocks writing.  ProcRunner instead watches all three pipes with a single
// readiness multiplexer, and services whichever pipe is ready.  Output from
// stdout and stderr lands in one Record in arrival order.
//
// A ProcRunner holds no per-run state; one instance can serve any number of
// sequential or concurrent runs.
type ProcRunner struct {
	logger    *slog.Logger
	chunkSize int
}

// Result is what a finished child process leaves behind.
type Result struct {
	// ExitCode is the child's exit code, or 128+N if killed by signal N.
	ExitCode int
	// Record holds the child's output.
	Record *Record
}

// Success is true if the child exited with code zero.
func (r *Result) Success() bool { return r.ExitCode == 0 }

// NewProcRunner returns a new ProcRunner.  A nil logger discards.
func NewProcRunner(logger *slog.Logger) *ProcRunner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ProcRunner{logger: logger, chunkSize: defaultChunkSize}
}

// Run starts the child described by p, services its pipes until both
// output streams are closed, and waits for it to exit.
//
// A non-zero exit code is not an error; it's reported in the Result.
// Errors are reserved for trouble starting the child, trouble with the
// pipes, and expiry of the context or the timeout, in which case the child
// is killed.
func (pr *ProcRunner) Run(ctx context.Context, p *Parameters) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	// Deliberately not exec.CommandContext; the multiplexer owns the kill.
	cmd := exec.Command(p.Path, p.Args...)
	cmd.Dir = p.WorkingDir
	cmd.Env = p.environ()

	pr.logger.Debug("starting subprocess",
		"cmd", p.String(), "dir", p.WorkingDir, "inputBytes", len(p.Input))
	rec := &Record{}
	code, err := runMultiplexed(ctx, cmd, p.Input, rec, pr.chunkSize)
	if err != nil {
		return nil, pr.classify(ctx, p, err)
	}
	pr.logger.Debug("subprocess done",
		"cmd", p.Path, "exitCode", code, "chunks", rec.Len())
	return &Result{ExitCode: code, Record: rec}, nil
}

// classify turns low level trouble into an *Error where a human
// would want one.
func (pr *ProcRunner) classify(ctx context.Context, p *Parameters, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return &Error{
			Kind:    KindToolNotFound,
			Tool:    p.Path,
			Problem: p.Path + " not found",
			Details: fmt.Sprintf("Make sure %s is installed and on your PATH.", p.Path),
			Err:     err,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		d := "its deadline"
		if p.Timeout > 0 {
			d = p.Timeout.String()
		}
		return &Error{
			Kind:    KindTimeout,
			Tool:    p.Path,
			Problem: "timed out",
			Details: fmt.Sprintf("Killed %q after %s.", p.String(), d),
			Err:     err,
		}
	}
	return fmt.Errorf("running %q; %w", p.String(), err)
}

// waitOrKill waits for cmd to exit.  A child can close its output and
// keep running, so ctx bounds the wait too: on expiry the child is killed
// and killed is true.
func waitOrKill(ctx context.Context, cmd *exec.Cmd) (killed bool, waitErr error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case waitErr = <-done:
		return false, waitErr
	case <-ctx.Done():
	}
	select {
	case waitErr = <-done:
		// It exited on its own in the meantime.
		return false, waitErr
	default:
	}
	_ = cmd.Process.Kill()
	<-done
	return true, nil
}
