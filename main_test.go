package hookwrap_test

import (
	"os"
	"testing"

	"github.com/monopole/hookwrap"
	"github.com/monopole/hookwrap/internal/testcli/tstcli"
)

func TestMain(m *testing.M) {
	tstcli.MaybeImpersonate()
	os.Exit(m.Run())
}

// fake returns parameters that run this test binary as the given tool.
func fake(mode string, args ...string) *hookwrap.Parameters {
	return &hookwrap.Parameters{
		Path: os.Args[0],
		Args: args,
		Env:  map[string]string{tstcli.EnvMode: mode},
	}
}
