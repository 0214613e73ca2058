package monitor

import "strings"

// PrefixMatcher matches lines that begin with a fixed, case-sensitive prefix
type PrefixMatcher struct {
	prefix string
}

// Ensure PrefixMatcher implements Matcher
var _ Matcher = (*PrefixMatcher)(nil)

// NewPrefixMatcher creates a new prefix matcher
func NewPrefixMatcher(prefix string) *PrefixMatcher {
	return &PrefixMatcher{
		prefix: prefix,
	}
}

// Match reports whether line starts with the prefix
func (pm *PrefixMatcher) Match(line string) bool {
	return strings.HasPrefix(line, pm.prefix)
}
