//go:build unix

package hookwrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// pollSlice bounds one poll so cancellation is noticed promptly.
const pollSlice = 100 * time.Millisecond

// stdinStream tags the watched stdin pipe; it's not a Record stream.
const stdinStream Stream = 0

type watched struct {
	f      *os.File
	fd     int
	stream Stream
}

// pollLoop multiplexes one child's pipes with poll(2).
type pollLoop struct {
	watched []*watched
	input   []byte
	offset  int // bytes of input already written
	rec     *Record
	buf     []byte
}

// runMultiplexed starts cmd, services its pipes until its output streams
// are closed, then waits for it.  It returns the exit code.
func runMultiplexed(
	ctx context.Context, cmd *exec.Cmd, input []byte, rec *Record, chunk int,
) (int, error) {
	var parentEnds, childEnds []*os.File
	closeAll := func(files []*os.File) {
		for _, f := range files {
			_ = f.Close()
		}
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		return -1, fmt.Errorf("making stdout pipe; %w", err)
	}
	parentEnds, childEnds = append(parentEnds, outR), append(childEnds, outW)
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(parentEnds)
		closeAll(childEnds)
		return -1, fmt.Errorf("making stderr pipe; %w", err)
	}
	parentEnds, childEnds = append(parentEnds, errR), append(childEnds, errW)
	cmd.Stdout = outW
	cmd.Stderr = errW

	var inW *os.File
	if input != nil {
		var inR *os.File
		if inR, inW, err = os.Pipe(); err != nil {
			closeAll(parentEnds)
			closeAll(childEnds)
			return -1, fmt.Errorf("making stdin pipe; %w", err)
		}
		childEnds = append(childEnds, inR)
		cmd.Stdin = inR
	}

	if err = cmd.Start(); err != nil {
		closeAll(childEnds)
		closeAll(parentEnds)
		if inW != nil {
			_ = inW.Close()
		}
		return -1, err
	}
	// The child has its own copies now.  Holding ours would keep the
	// output pipes from ever reporting EOF.
	closeAll(childEnds)

	loop := &pollLoop{input: input, rec: rec, buf: make([]byte, chunk)}
	if err = loop.watch(outR, Stdout); err == nil {
		err = loop.watch(errR, Stderr)
	}
	if err == nil && inW != nil {
		if len(input) == 0 {
			_ = inW.Close()
		} else {
			err = loop.watch(inW, stdinStream)
		}
	}
	if err == nil {
		err = loop.run(ctx, chunk)
	}
	if err != nil {
		_ = cmd.Process.Kill()
	}
	for _, w := range loop.watched {
		_ = w.f.Close()
	}
	killed, waitErr := waitOrKill(ctx, cmd)
	if err == nil && killed {
		err = ctx.Err()
	}
	if err != nil {
		return -1, err
	}
	return exitStatus(cmd, waitErr)
}

func (l *pollLoop) watch(f *os.File, s Stream) error {
	fd := int(f.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = f.Close()
		return fmt.Errorf("setting %s non-blocking; %w", s, err)
	}
	l.watched = append(l.watched, &watched{f: f, fd: fd, stream: s})
	return nil
}

// run loops until no descriptors remain, or ctx is done.
func (l *pollLoop) run(ctx context.Context, chunk int) error {
	for len(l.watched) > 0 {
		pfds := make([]unix.PollFd, len(l.watched))
		for i, w := range l.watched {
			ev := int16(unix.POLLIN)
			if w.stream == stdinStream {
				ev = unix.POLLOUT
			}
			pfds[i] = unix.PollFd{Fd: int32(w.fd), Events: ev}
		}
		n, err := unix.Poll(pfds, pollTimeout(ctx))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("poll; %w", err)
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		remaining := make([]*watched, 0, len(l.watched))
		for i, w := range l.watched {
			revents := pfds[i].Revents
			if revents == 0 {
				remaining = append(remaining, w)
				continue
			}
			if revents&unix.POLLNVAL != 0 {
				return fmt.Errorf("%s descriptor %d invalid", w.stream, w.fd)
			}
			var done bool
			if w.stream == stdinStream {
				done, err = l.write(w, revents, chunk)
			} else {
				done, err = l.read(w)
			}
			if err != nil {
				return err
			}
			if done {
				_ = w.f.Close()
				continue
			}
			remaining = append(remaining, w)
		}
		l.watched = remaining
	}
	return nil
}

// read does one non-blocking read.  It returns true on EOF.
func (l *pollLoop) read(w *watched) (bool, error) {
	n, err := unix.Read(w.fd, l.buf)
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return false, nil
	case err != nil:
		return true, fmt.Errorf("reading %s; %w", w.stream, err)
	case n == 0:
		return true, nil
	}
	l.rec.Append(w.stream, l.buf[:n])
	return false, nil
}

// write does one non-blocking write of pending input.  It returns true
// once all input is written, or the child stopped reading.
func (l *pollLoop) write(w *watched, revents int16, chunk int) (bool, error) {
	if revents&unix.POLLOUT == 0 && revents&(unix.POLLERR|unix.POLLHUP) != 0 {
		return true, nil
	}
	end := l.offset + chunk
	if end > len(l.input) {
		end = len(l.input)
	}
	n, err := unix.Write(w.fd, l.input[l.offset:end])
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return false, nil
	case errors.Is(err, unix.EPIPE):
		// The child closed its stdin; the rest of the input is moot.
		return true, nil
	case err != nil:
		return true, fmt.Errorf("writing stdin; %w", err)
	}
	l.offset += n
	return l.offset >= len(l.input), nil
}

// pollTimeout returns the poll timeout in milliseconds.
func pollTimeout(ctx context.Context) int {
	if ctx.Done() == nil {
		return -1
	}
	d := pollSlice
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	if d < 0 {
		return 0
	}
	return int(d / time.Millisecond)
}

func exitStatus(cmd *exec.Cmd, waitErr error) (int, error) {
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return -1, fmt.Errorf("waiting; %w", waitErr)
	}
	state := cmd.ProcessState
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	return state.ExitCode(), nil
}
