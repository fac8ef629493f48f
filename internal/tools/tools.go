//go:build tools

// Package tools pins the versions of the development tools used on this
// repository, so `go install` of any of them matches go.mod.
package tools

import (
	_ "github.com/client9/misspell/cmd/misspell"
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "golang.org/x/lint/golint"
	_ "golang.org/x/tools/cmd/goimports"
)
