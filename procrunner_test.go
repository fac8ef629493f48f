package hookwrap_test

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	. "github.com/monopole/hookwrap"
	"github.com/monopole/hookwrap/internal/testcli/tstcli"
	. "github.com/monopole/hookwrap/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	nonexistentCommandPath = "beamMeUpScotty"
	testingTimeout         = 30 * time.Second
)

func TestProcRunner_Run_BadPath(t *testing.T) {
	_, err := NewProcRunner(nil).Run(context.Background(), &Parameters{
		Path: nonexistentCommandPath,
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindToolNotFound))
	assert.Contains(t, err.Error(), "Make sure "+nonexistentCommandPath+" is installed")
	assert.Equal(t, 1, ExitCode(err))
}

func TestProcRunner_Run_NoParameters(t *testing.T) {
	_, err := NewProcRunner(nil).Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must specify Parameters")
}

// A child that fills its output pipe before reading all its input
// deadlocks a runner that writes everything before reading anything.
func TestProcRunner_Run_EchoLargeInput(t *testing.T) {
	input := bytes.Repeat([]byte("0123456789abcdef"), 10*1024*1024/16)
	p := fake(tstcli.ModeCat)
	p.Input = input
	p.Timeout = testingTimeout
	res, err := NewProcRunner(nil).Run(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Empty(t, res.Record.Stderr())
	assert.True(t, bytes.Equal(input, res.Record.Stdout()),
		"got %d bytes back, sent %d", len(res.Record.Stdout()), len(input))
}

func TestProcRunner_Run_EmptyInput(t *testing.T) {
	p := fake(tstcli.ModeCat)
	p.Input = []byte{}
	res, err := NewProcRunner(nil).Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, 0, res.Record.Len())
}

func TestProcRunner_Run_ExitCodes(t *testing.T) {
	var testCases = map[string]struct {
		args           []string
		expectedCode   int
		expectedStderr string
	}{
		"zero": {
			args: []string{"0"},
		},
		"one": {
			args:           []string{"1", "no", "good"},
			expectedCode:   1,
			expectedStderr: "no good\n",
		},
		"crashy": {
			args:           []string{"139", "segfault"},
			expectedCode:   139,
			expectedStderr: "segfault\n",
		},
	}
	runner := NewProcRunner(nil)
	for n, tc := range testCases {
		t.Run(n, func(t *testing.T) {
			res, err := runner.Run(context.Background(), fake(tstcli.ModeExit, tc.args...))
			require.NoError(t, err)
			assert.Equal(t, tc.expectedCode, res.ExitCode)
			assert.Equal(t, tc.expectedStderr, string(res.Record.Stderr()))
			assert.Empty(t, res.Record.Stdout())
		})
	}
}

func TestProcRunner_Run_BothStreams(t *testing.T) {
	res, err := NewProcRunner(nil).Run(context.Background(), fake(tstcli.ModeChatter, "4"))
	require.NoError(t, err)
	assert.Equal(t, "out 1\nout 2\nout 3\nout 4\n", string(res.Record.Stdout()))
	assert.Equal(t, "err 1\nerr 2\nerr 3\nerr 4\n", string(res.Record.Stderr()))
	// Arrival order across the two pipes isn't deterministic.
	AssertSameLines(t,
		"out 1\nout 2\nout 3\nout 4\nerr 1\nerr 2\nerr 3\nerr 4\n",
		string(res.Record.Combined()))
}

func TestProcRunner_Run_Environment(t *testing.T) {
	t.Setenv("HOOKWRAP_TEST_INHERITED", "parent")
	p := fake(tstcli.ModeEnv, "HOOKWRAP_TEST_INHERITED", "HOOKWRAP_TEST_SET", "HOOKWRAP_TEST_UNSET")
	p.Env["HOOKWRAP_TEST_SET"] = "child"
	res, err := NewProcRunner(nil).Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t,
		"HOOKWRAP_TEST_INHERITED=parent\nHOOKWRAP_TEST_SET=child\n",
		string(res.Record.Stdout()))
}

func TestProcRunner_Run_WorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/hello.txt", []byte("hi\n"), 0o644))
	p := fake(tstcli.ModeClangFormat, "hello.txt")
	p.WorkingDir = dir
	res, err := NewProcRunner(nil).Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode, string(res.Record.Stderr()))
	assert.Equal(t, "hi\n", string(res.Record.Stdout()))
}

func TestProcRunner_Run_Timeout(t *testing.T) {
	p := fake(tstcli.ModeSleep, "1m")
	p.Timeout = 200 * time.Millisecond
	start := time.Now()
	_, err := NewProcRunner(nil).Run(context.Background(), p)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout), err.Error())
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), testingTimeout)
}

// Closing its output doesn't let a child outlive the timeout.
func TestProcRunner_Run_TimeoutAfterOutputClosed(t *testing.T) {
	p := fake(tstcli.ModeDetach, "1m")
	p.Timeout = 200 * time.Millisecond
	start := time.Now()
	_, err := NewProcRunner(nil).Run(context.Background(), p)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout), err.Error())
	assert.Less(t, time.Since(start), testingTimeout)
}

func TestProcRunner_Run_ArrivalOrder(t *testing.T) {
	res, err := NewProcRunner(nil).Run(context.Background(), fake(tstcli.ModeInterleave))
	require.NoError(t, err)
	assert.Equal(t, []Chunk{
		{Stream: Stdout, Data: []byte("a\n")},
		{Stream: Stderr, Data: []byte("b\n")},
		{Stream: Stdout, Data: []byte("c\n")},
	}, res.Record.Chunks())
	assert.Equal(t, "a\nb\nc\n", string(res.Record.Combined()))
}

func TestProcRunner_Run_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := NewProcRunner(nil).Run(ctx, fake(tstcli.ModeSleep, "1m"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), testingTimeout)
}

func TestProcRunner_Run_Concurrent(t *testing.T) {
	runner := NewProcRunner(nil)
	outcome, err := Fanout(context.Background(), 4, 8,
		func(ctx context.Context, i int) (*Outcome, error) {
			res, err := runner.Run(ctx, fake(tstcli.ModeChatter, "2"))
			if err != nil {
				return nil, err
			}
			return &Outcome{Code: res.ExitCode, Record: res.Record}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Code)
	assert.Equal(t, bytes.Repeat([]byte("out 1\nout 2\n"), 8), outcome.Stdout())
}
