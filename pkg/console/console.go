// Package console prints what crosses the engine boundary for the operator.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/Veraticus/ucifeed/pkg/interfaces"
)

// Console writes annotated lines to the operator. It is safe for
// concurrent use; the interactive bridge writes from two goroutines.
type Console struct {
	mu     sync.Mutex
	writer io.Writer
	silent bool
}

// Ensure Console implements Echoer
var _ interfaces.Echoer = (*Console)(nil)

// New creates a console. Silent suppresses the scripted-feeding echoes
// (Sent, Received, Waiting) but never streamed or summary output.
func New(writer io.Writer, silent bool) *Console {
	return &Console{
		writer: writer,
		silent: silent,
	}
}

// Sent reports a command written to the engine
func (c *Console) Sent(line string) {
	if c.silent {
		return
	}
	c.Printf("Sending command: %s\n", line)
}

// Received reports a line read from the engine while waiting
func (c *Console) Received(line string) {
	if c.silent {
		return
	}
	c.Printf("Process output: %s\n", line)
}

// Waiting reports that feeding is blocked on the sentinel
func (c *Console) Waiting(sentinel string) {
	if c.silent {
		return
	}
	c.Printf("Waiting for '%s' response...\n", sentinel)
}

// Stream writes an engine line verbatim
func (c *Console) Stream(line string) {
	c.Printf("%s\n", line)
}

// Section writes a titled block, such as the final output drain
func (c *Console) Section(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, "%s:\n", title)
	for _, line := range lines {
		fmt.Fprintf(c.writer, "%s\n", line)
	}
}

// Printf writes formatted text
func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, format, args...)
}
