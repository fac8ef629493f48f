package args

import "strings"

// Inject appends a default flag unless the user already gave that flag.
//
// tokens is one flag, e.g. ["-q"], ["--key=value"], or a flag and its
// value, e.g. ["--key", "value"].  The key is tokens[0] up to any '='.  If
// any existing flag has the same key, flags is returned untouched; the
// user's choice beats the default.  Calling Inject twice with the same
// tokens is the same as calling it once.
func Inject(flags []string, tokens ...string) []string {
	if len(tokens) == 0 {
		return flags
	}
	if Has(flags, tokens[0]) {
		return flags
	}
	return append(flags[:len(flags):len(flags)], tokens...)
}

// Has is true if some flag has the same key as flag.
func Has(flags []string, flag string) bool {
	key := flagKey(flag)
	for _, f := range flags {
		if flagKey(f) == key {
			return true
		}
	}
	return false
}

// Remove deletes every occurrence of flag (exact match) and reports
// whether there was one.  The wrapper consumes some flags itself.
func Remove(flags []string, flag string) ([]string, bool) {
	result := make([]string, 0, len(flags))
	found := false
	for _, f := range flags {
		if f == flag {
			found = true
			continue
		}
		result = append(result, f)
	}
	return result, found
}

func flagKey(f string) string {
	if i := strings.IndexByte(f, '='); i >= 0 {
		return f[:i]
	}
	return f
}
