// Package hookwrap runs static-analysis and formatting tools on behalf of a
// git pre-commit hook framework.
//
// The tools themselves (clang-format, clang-tidy, cppcheck, ...) are opaque
// child processes.  This package holds the pieces every wrapper shares:
//
//   - ProcRunner runs one child, feeding its stdin while draining its
//     stdout and stderr with a readiness multiplexer, so large inputs and
//     large outputs can't deadlock each other.
//   - Record captures the child's output in arrival order.
//   - Fanout runs one child per file on a bounded worker pool.
//   - Commander is what a wrapper implements; Outcome is what it returns.
//   - Error carries the tool, the problem and the details of anything that
//     kept a check from running.
//
// The per-tool wrappers live in package cmdrs; cmd/hookwrap is the only
// place that prints an Outcome and exits.
package hookwrap
