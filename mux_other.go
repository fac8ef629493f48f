//go:build !unix

package hookwrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// runMultiplexed is the fallback for platforms without poll(2).
// One goroutine per output stream forwards chunks on a shared channel,
// so the Record still sees them in arrival order.
func runMultiplexed(
	ctx context.Context, cmd *exec.Cmd, input []byte, rec *Record, chunk int,
) (int, error) {
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("getting stdout; %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("getting stderr; %w", err)
	}
	if err = cmd.Start(); err != nil {
		return -1, err
	}
	ch := make(chan Chunk, 64)
	var wg sync.WaitGroup
	pump := func(s Stream, r io.Reader) {
		defer wg.Done()
		buf := make([]byte, chunk)
		for {
			n, rErr := r.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				ch <- Chunk{Stream: s, Data: data}
			}
			if rErr != nil {
				return
			}
		}
	}
	wg.Add(2)
	go pump(Stdout, outPipe)
	go pump(Stderr, errPipe)
	go func() {
		wg.Wait()
		close(ch)
	}()
	for {
		select {
		case c, ok := <-ch:
			if !ok {
				killed, waitErr := waitOrKill(ctx, cmd)
				if killed {
					return -1, ctx.Err()
				}
				return exitStatus(cmd, waitErr)
			}
			rec.Append(c.Stream, c.Data)
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			for range ch {
			}
			_ = cmd.Wait()
			return -1, ctx.Err()
		}
	}
}

func exitStatus(cmd *exec.Cmd, waitErr error) (int, error) {
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return -1, fmt.Errorf("waiting; %w", waitErr)
	}
	if code := cmd.ProcessState.ExitCode(); code >= 0 {
		return code, nil
	}
	return 1, nil
}
