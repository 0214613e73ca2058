// Package bridge hands a running engine over to a live operator.
package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/ucifeed/pkg/console"
	"github.com/Veraticus/ucifeed/pkg/debug"
	"github.com/Veraticus/ucifeed/pkg/interfaces"
)

// ErrTerminalUnavailable is returned when the controlling terminal cannot be opened
var ErrTerminalUnavailable = errors.New("controlling terminal unavailable")

// Engine is the part of a supervisor the bridge drives
type Engine interface {
	interfaces.LineSender
	interfaces.OutputReader
}

// Bridge streams engine output to the console while forwarding operator
// input from the controlling terminal to the engine.
type Bridge struct {
	engine     Engine
	open       interfaces.TerminalOpener
	console    *console.Console
	streamDone chan struct{}
}

// New creates a bridge. The terminal is opened by Run, not here.
func New(engine Engine, open interfaces.TerminalOpener, c *console.Console) *Bridge {
	return &Bridge{
		engine:     engine,
		open:       open,
		console:    c,
		streamDone: make(chan struct{}),
	}
}

// Run opens the controlling terminal, starts streaming engine output and
// forwards terminal lines until end-of-input or ctx is done.
//
// When the terminal cannot be opened Run returns ErrTerminalUnavailable
// without streaming or forwarding anything; the engine is left running.
//
// The streaming goroutine is not joined: it ends only when engine output
// ends, and the engine outlives the bridge. StreamDone reports its exit
// for callers that do want to wait.
func (b *Bridge) Run(ctx context.Context) error {
	b.console.Printf("\n--- All scripted commands sent. Entering interactive mode ---\n")
	b.console.Printf("Type commands below. Press Ctrl+D (EOF) to exit.\n\n")

	if b.open == nil {
		return fmt.Errorf("%w: no terminal configured", ErrTerminalUnavailable)
	}
	tty, err := b.open()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTerminalUnavailable, err)
	}
	defer func() { _ = tty.Close() }()

	go b.stream()

	done := make(chan struct{})
	defer close(done)
	inputs := make(chan input)
	go readTerminal(tty, inputs, done)

	forwarded := 0
	for {
		select {
		case in, ok := <-inputs:
			if !ok {
				debug.Printf("terminal end-of-input after %d lines", forwarded)
				return nil
			}
			if in.err != nil {
				return fmt.Errorf("failed to read terminal: %w", in.err)
			}
			if err := b.engine.SendLine(in.line); err != nil {
				return err
			}
			forwarded++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// StreamDone is closed once engine output has ended
func (b *Bridge) StreamDone() <-chan struct{} {
	return b.streamDone
}

// stream copies engine output to the console until output ends
func (b *Bridge) stream() {
	defer close(b.streamDone)

	for {
		line, err := b.engine.ReadOutputLine(context.Background())
		if err != nil {
			if err != io.EOF {
				debug.Printf("output stream stopped: %v", err)
			}
			return
		}
		b.console.Stream(line)
	}
}

type input struct {
	line string
	err  error
}

// readTerminal delivers terminal lines, without their newline, until
// end-of-input. A final line lacking a newline is still delivered.
func readTerminal(r io.Reader, out chan<- input, done <-chan struct{}) {
	defer close(out)

	send := func(in input) bool {
		select {
		case out <- in:
			return true
		case <-done:
			return false
		}
	}

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if !send(input{line: strings.TrimSuffix(line, "\n")}) {
				return
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			send(input{err: err})
			return
		}
	}
}
