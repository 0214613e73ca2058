// Package debug writes diagnostic lines to stderr when debugging is enabled.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	enabled = os.Getenv("UCIFEED_DEBUG") == "1" || os.Getenv("UCIFEED_DEBUG") == "true"
	out     io.Writer = os.Stderr
)

// Enable turns diagnostics on or off
func Enable(on bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = on
}

// Enabled reports whether diagnostics are on
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetOutput redirects diagnostics and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Printf writes a single "ucifeed: " prefixed line
func Printf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	fmt.Fprintf(out, "ucifeed: "+format+"\n", args...)
}
