// Package session feeds a scripted command sequence to an engine and then
// either finalizes the engine or hands it to the operator.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/Veraticus/ucifeed/pkg/bridge"
	"github.com/Veraticus/ucifeed/pkg/commands"
	"github.com/Veraticus/ucifeed/pkg/console"
	"github.com/Veraticus/ucifeed/pkg/debug"
	"github.com/Veraticus/ucifeed/pkg/interfaces"
	"github.com/Veraticus/ucifeed/pkg/monitor"
	"github.com/google/uuid"
)

// ErrCancelled is returned when the operator interrupts a session
var ErrCancelled = errors.New("interrupted by user")

// Options describes one session
type Options struct {
	// Engine to launch
	Command string
	Args    []string

	// Commands come from CommandFile, or from Input when the path is empty
	CommandFile string
	Input       io.Reader

	WaitDirective string
	Sentinel      string
	WaitTimeout   time.Duration

	Silent      bool
	Interactive bool

	// Output receives everything meant for the operator
	Output io.Writer
}

// Session owns the engine for its whole life
type Session struct {
	id           string
	opts         Options
	start        interfaces.SupervisorFactory
	openTerminal interfaces.TerminalOpener
	console      *console.Console

	mu       sync.Mutex
	state    State
	waits    int
	exitCode int
}

// New creates an idle session
func New(opts Options, start interfaces.SupervisorFactory, openTerminal interfaces.TerminalOpener) *Session {
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	return &Session{
		id:           uuid.New().String(),
		opts:         opts,
		start:        start,
		openTerminal: openTerminal,
		console:      console.New(opts.Output, opts.Silent),
		state:        StateIdle,
	}
}

// ID returns the session's identifier used in diagnostics
func (s *Session) ID() string {
	return s.id
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SentinelsFound returns how many waits ended on the sentinel
func (s *Session) SentinelsFound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waits
}

// ExitCode returns the engine's exit code once finalized, 0 otherwise
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	debug.Printf("session %s: %s -> %s", s.id, prev, next)
}

// Run drives the session to completion. An interrupt through ctx is
// reported as ErrCancelled; the engine is never killed.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		if err != nil && ctx.Err() != nil && !errors.Is(err, ErrCancelled) {
			err = fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		s.setState(StateTerminated)
	}()

	if s.opts.Silent {
		s.console.Printf("Silent mode enabled, sending commands to engine\n")
	}

	s.setState(StateSpawning)
	source, err := commands.Open(ctx, s.opts.CommandFile, s.opts.Input, s.opts.WaitDirective)
	if err != nil {
		return err
	}
	debug.Printf("session %s: loaded %d command lines", s.id, source.Len())

	// No engine is started once the operator has interrupted
	if err := ctx.Err(); err != nil {
		return err
	}

	sup, err := s.start(s.opts.Command, s.opts.Args)
	if err != nil {
		return err
	}

	s.setState(StateFeeding)
	if err := s.feed(ctx, sup, source); err != nil {
		return err
	}

	if s.opts.Interactive {
		s.setState(StateHandoff)
		return s.handoff(ctx, sup)
	}

	s.setState(StateFinalizing)
	return s.finalize(ctx, sup)
}

// feed sends every command in order; a wait directive blocks later
// commands until the sentinel has been read.
func (s *Session) feed(ctx context.Context, sup interfaces.Supervisor, source *commands.Source) error {
	waiter := monitor.NewWaiter(sup, monitor.NewPrefixMatcher(s.opts.Sentinel), s.console, s.opts.WaitTimeout)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, ok := source.Next()
		if !ok {
			return nil
		}

		switch line.Kind {
		case commands.Blank:
			continue
		case commands.Wait:
			s.setState(StateWaiting)
			s.console.Waiting(s.opts.Sentinel)
			found, err := waiter.Await(ctx)
			if err != nil {
				return err
			}
			if found {
				s.mu.Lock()
				s.waits++
				s.mu.Unlock()
			}
			s.setState(StateFeeding)
		case commands.Send:
			s.console.Sent(line.Text)
			if err := sup.SendLine(line.Text); err != nil {
				return fmt.Errorf("failed to send %q: %w", line.Text, err)
			}
		}
	}
}

// handoff gives the engine to the operator. The engine is left running
// when the operator ends input; it is neither waited on nor stopped.
func (s *Session) handoff(ctx context.Context, sup interfaces.Supervisor) error {
	b := bridge.New(sup, s.openTerminal, s.console)
	err := b.Run(ctx)
	if errors.Is(err, bridge.ErrTerminalUnavailable) {
		s.console.Printf("Interactive mode failed: %v\n", err)
		return nil
	}
	return err
}

// finalize closes the engine's input, reports everything it still prints
// and waits for it to exit.
func (s *Session) finalize(ctx context.Context, sup interfaces.Supervisor) error {
	if err := sup.CloseInput(); err != nil {
		debug.Printf("session %s: close input: %v", s.id, err)
	}

	output, err := drain(ctx, sup.ReadOutputLine)
	if err != nil {
		return err
	}
	errLines, err := drain(ctx, sup.ReadErrorLine)
	if err != nil {
		return err
	}
	s.console.Section("Output", output)
	s.console.Section("Errors", errLines)

	waitErr := waitExit(ctx, sup)
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(waitErr, ctxErr) {
		return waitErr
	}

	s.mu.Lock()
	s.exitCode = sup.ExitCode()
	s.mu.Unlock()

	// A non-zero exit is the engine's business, reported via ExitCode
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return fmt.Errorf("failed waiting for engine: %w", waitErr)
	}
	return nil
}

// waitExit waits for the engine to exit unless ctx is done first
func waitExit(ctx context.Context, sup interfaces.Supervisor) error {
	select {
	case <-sup.Exited():
		return sup.Wait()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func drain(ctx context.Context, read func(context.Context) (string, error)) ([]string, error) {
	var lines []string
	for {
		line, err := read(ctx)
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
}
