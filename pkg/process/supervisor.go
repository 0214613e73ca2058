// Package process spawns an engine and exposes line-oriented access to its streams.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/Veraticus/ucifeed/pkg/debug"
	"github.com/Veraticus/ucifeed/pkg/interfaces"
)

var (
	// ErrSpawnFailed is returned when the executable cannot be started
	ErrSpawnFailed = errors.New("failed to start process")
	// ErrProcessGone is returned when writing to an exited process or a closed input
	ErrProcessGone = errors.New("process is gone")
)

// Options controls how the engine is spawned
type Options struct {
	UsePTY bool
	Env    []string
	Dir    string
}

// Supervisor owns a running engine and its three streams.
// Output and error are pumped into unbounded line queues as soon as the
// process starts, so the engine never stalls on a full pipe while nobody
// is reading.
type Supervisor struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	eof    []byte
	stdout *lineQueue
	stderr *lineQueue

	mu          sync.Mutex
	inputClosed bool
	exitCode    int
	waitErr     error
	exited      chan struct{}
}

// Ensure Supervisor implements interfaces.Supervisor
var _ interfaces.Supervisor = (*Supervisor)(nil)

// Start spawns command with args. Failures wrap ErrSpawnFailed together
// with the underlying OS error.
func Start(command string, args []string, opts Options) (*Supervisor, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = opts.Env
	cmd.Dir = opts.Dir

	var sp spawner = pipeSpawner{}
	if opts.UsePTY {
		sp = ptySpawner{}
	}

	st, err := sp.spawn(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, command, err)
	}

	s := &Supervisor{
		cmd:      cmd,
		stdin:    st.stdin,
		eof:      st.eof,
		stdout:   newLineQueue(),
		stderr:   newLineQueue(),
		exitCode: -1,
		exited:   make(chan struct{}),
	}

	go s.pumpStream("stdout", st.stdout, s.stdout)
	if st.stderr != nil {
		go s.pumpStream("stderr", st.stderr, s.stderr)
	} else {
		s.stderr.close()
	}
	go s.reap()

	debug.Printf("started %s %v (pid %d, pty=%v)", command, args, cmd.Process.Pid, opts.UsePTY)
	return s, nil
}

// NewFactory returns a factory that starts supervisors with opts
func NewFactory(opts Options) interfaces.SupervisorFactory {
	return func(command string, args []string) (interfaces.Supervisor, error) {
		s, err := Start(command, args, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func (s *Supervisor) pumpStream(name string, r io.ReadCloser, q *lineQueue) {
	if err := pump(r, q); err != nil {
		// A PTY master reports EIO once the child side is gone
		debug.Printf("%s closed: %v", name, err)
	}
	_ = r.Close()
}

// reap waits for the process so that exit is observed even while nobody calls Wait
func (s *Supervisor) reap() {
	err := s.cmd.Wait()

	s.mu.Lock()
	s.waitErr = err
	if s.cmd.ProcessState != nil {
		s.exitCode = s.cmd.ProcessState.ExitCode()
	}
	s.mu.Unlock()

	debug.Printf("process %d exited: code=%d err=%v", s.cmd.Process.Pid, s.ExitCode(), err)
	close(s.exited)
}

// SendLine writes text followed by a newline. The write goes straight to
// the OS, so the engine sees it immediately.
func (s *Supervisor) SendLine(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputClosed {
		return fmt.Errorf("%w: input already closed", ErrProcessGone)
	}

	select {
	case <-s.exited:
		return fmt.Errorf("%w: process exited", ErrProcessGone)
	default:
	}

	if _, err := io.WriteString(s.stdin, text+"\n"); err != nil {
		return fmt.Errorf("%w: %w", ErrProcessGone, err)
	}
	return nil
}

// ReadOutputLine blocks for the next line of standard output.
// It returns io.EOF once output has ended.
func (s *Supervisor) ReadOutputLine(ctx context.Context) (string, error) {
	return s.stdout.pop(ctx)
}

// ReadErrorLine blocks for the next line of standard error.
// It returns io.EOF once the stream has ended.
func (s *Supervisor) ReadErrorLine(ctx context.Context) (string, error) {
	return s.stderr.pop(ctx)
}

// CloseInput signals end of input to the engine
func (s *Supervisor) CloseInput() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputClosed {
		return nil
	}
	s.inputClosed = true

	if s.eof != nil {
		// A terminal cannot be half-closed; send its EOF character instead
		if _, err := s.stdin.Write(s.eof); err != nil {
			return fmt.Errorf("%w: %w", ErrProcessGone, err)
		}
		return nil
	}
	return s.stdin.Close()
}

// Wait blocks until the process terminates
func (s *Supervisor) Wait() error {
	<-s.exited

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitErr
}

// Exited is closed once the process has terminated
func (s *Supervisor) Exited() <-chan struct{} {
	return s.exited
}

// ExitCode returns the exit code, or -1 while the process is running
func (s *Supervisor) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}
