// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import (
	"context"
	"io"
)

// LineSender writes newline-terminated lines to a process.
type LineSender interface {
	SendLine(text string) error
}

// OutputReader reads lines from a process's standard output.
type OutputReader interface {
	ReadOutputLine(ctx context.Context) (string, error)
}

// ErrorReader reads lines from a process's standard error.
type ErrorReader interface {
	ReadErrorLine(ctx context.Context) (string, error)
}

// Supervisor owns a running subprocess and its three streams.
type Supervisor interface {
	LineSender
	OutputReader
	ErrorReader
	CloseInput() error
	Wait() error
	// Exited is closed once the process has terminated
	Exited() <-chan struct{}
	ExitCode() int
}

// SupervisorFactory starts a supervisor for the given command.
type SupervisorFactory func(command string, args []string) (Supervisor, error)

// TerminalOpener opens the operator's controlling terminal for reading.
type TerminalOpener func() (io.ReadCloser, error)

// Echoer reports lines crossing the process boundary to the operator.
type Echoer interface {
	Sent(line string)
	Received(line string)
	Waiting(sentinel string)
}
