package hookwrap_test

import (
	"context"
	"fmt"

	. "github.com/monopole/hookwrap"
	"github.com/monopole/hookwrap/internal/testcli/tstcli"
)

func ExampleProcRunner_Run() {
	res, err := NewProcRunner(nil).Run(context.Background(), fake(tstcli.ModeExit, "3", "bad", "news"))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("code %d, stderr %q\n", res.ExitCode, res.Record.Stderr())
	// Output:
	// code 3, stderr "bad news\n"
}

func ExampleFanout() {
	files := []string{"a.c", "b.c", "c.c"}
	total, err := Fanout(context.Background(), 2, len(files),
		func(_ context.Context, i int) (*Outcome, error) {
			o := NewOutcome()
			if files[i] != "b.c" {
				o.Fail(1)
				o.Record.AppendString(Stderr, files[i]+": not formatted\n")
			}
			return o, nil
		})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("code %d\n%s", total.Code, total.Stderr())
	// Output:
	// code 1
	// a.c: not formatted
	//
	// c.c: not formatted
}
