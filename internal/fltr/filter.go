// Package fltr normalizes the output of static analyzers before it's shown
// to a human: it strips known-benign noise, keeps well-formed findings, and
// drops duplicates.
package fltr

import (
	"bytes"
	"regexp"
)

// LineFeed makes it easier to find places where a linefeed is used.
const LineFeed = '\n'

// FindingPattern matches a well-formed `file:line:col: message` finding.
var FindingPattern = regexp.MustCompile(`^(.+?):(\d+):(\d+): (.+)$`)

// Filter describes how to clean up one stream of tool output.
// The zero value passes everything through.
type Filter struct {
	// Drop patterns are removed from the text before line filtering.
	// A pattern can remove a fragment, or a whole line if it consumes
	// the line's linefeed.
	Drop []*regexp.Regexp
	// Keep, if not nil, keeps only the lines it matches.  Everything else
	// (banners, progress counters, code excerpts) is noise.
	Keep *regexp.Regexp
	// Dedupe keeps only the first of identical lines.
	Dedupe bool
}

// DropLinesContaining returns a Drop pattern that removes every line
// containing the literal s.
func DropLinesContaining(s string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^.*` + regexp.QuoteMeta(s) + `.*(?:\n|$)`)
}

// IsZero is true if the filter does nothing.
func (f *Filter) IsZero() bool {
	return f == nil || (len(f.Drop) == 0 && f.Keep == nil && !f.Dedupe)
}

// Apply returns a filtered copy of b.
func (f *Filter) Apply(b []byte) []byte {
	if f.IsZero() || len(b) == 0 {
		return b
	}
	for _, re := range f.Drop {
		b = re.ReplaceAll(b, nil)
	}
	if f.Keep == nil && !f.Dedupe {
		return b
	}
	var (
		buff bytes.Buffer
		seen = map[string]bool{}
	)
	for _, line := range bytes.Split(b, []byte{LineFeed}) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		if f.Keep != nil && !f.Keep.Match(line) {
			continue
		}
		if f.Dedupe {
			if seen[string(line)] {
				continue
			}
			seen[string(line)] = true
		}
		buff.Write(line)
		buff.WriteByte(LineFeed)
	}
	return buff.Bytes()
}

// Findings is a filter that keeps each well-formed finding once.
func Findings() *Filter {
	return &Filter{Keep: FindingPattern, Dedupe: true}
}
