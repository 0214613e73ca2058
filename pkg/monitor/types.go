// Package monitor watches engine output for the completion sentinel.
package monitor

// Matcher decides whether an output line is the sentinel.
type Matcher interface {
	Match(line string) bool
}
