package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Veraticus/ucifeed/pkg/interfaces"
	"github.com/Veraticus/ucifeed/pkg/process"
)

// MockSupervisor is a mock implementation of interfaces.Supervisor for testing.
// It records every sent line and every line handed to a reader, in order.
type MockSupervisor struct {
	mu           sync.Mutex
	sent         []string
	events       []string
	output       []string
	errors       []string
	outputClosed bool
	inputClosed  bool
	exitOnClose  bool
	exitCode     int
	waitErr      error
	waitCalls    int
	sendErr      error
	responder    func(line string) []string
	ready        chan struct{}
	exited       chan struct{}
}

// Ensure MockSupervisor implements Supervisor
var _ interfaces.Supervisor = (*MockSupervisor)(nil)

// NewMockSupervisor creates a new mock supervisor
func NewMockSupervisor() *MockSupervisor {
	return &MockSupervisor{
		ready:  make(chan struct{}, 1),
		exited: make(chan struct{}),
	}
}

// SendLine implements the Supervisor interface
func (m *MockSupervisor) SendLine(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	if m.inputClosed || m.isExited() {
		return fmt.Errorf("%w: mock input closed", process.ErrProcessGone)
	}

	m.sent = append(m.sent, text)
	m.events = append(m.events, "send:"+text)

	if m.responder != nil {
		m.output = append(m.output, m.responder(text)...)
		m.signal()
	}
	return nil
}

// ReadOutputLine implements the Supervisor interface
func (m *MockSupervisor) ReadOutputLine(ctx context.Context) (string, error) {
	for {
		m.mu.Lock()
		if len(m.output) > 0 {
			line := m.output[0]
			m.output = m.output[1:]
			m.events = append(m.events, "recv:"+line)
			m.mu.Unlock()
			return line, nil
		}
		if m.outputClosed {
			m.mu.Unlock()
			return "", io.EOF
		}
		m.mu.Unlock()

		select {
		case <-m.ready:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// ReadErrorLine implements the Supervisor interface. Error lines are
// available immediately; the stream ends together with output.
func (m *MockSupervisor) ReadErrorLine(ctx context.Context) (string, error) {
	for {
		m.mu.Lock()
		if len(m.errors) > 0 {
			line := m.errors[0]
			m.errors = m.errors[1:]
			m.mu.Unlock()
			return line, nil
		}
		if m.outputClosed {
			m.mu.Unlock()
			return "", io.EOF
		}
		m.mu.Unlock()

		select {
		case <-m.ready:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// CloseInput implements the Supervisor interface
func (m *MockSupervisor) CloseInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inputClosed = true
	m.events = append(m.events, "close")
	if m.exitOnClose {
		m.exitLocked(m.exitCode)
	}
	return nil
}

// Wait implements the Supervisor interface
func (m *MockSupervisor) Wait() error {
	m.mu.Lock()
	m.waitCalls++
	m.mu.Unlock()

	<-m.exited

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitErr
}

// ExitCode implements the Supervisor interface
func (m *MockSupervisor) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isExited() {
		return -1
	}
	return m.exitCode
}

// Exited implements the Supervisor interface
func (m *MockSupervisor) Exited() <-chan struct{} {
	return m.exited
}

// SetResponder sets a function producing output lines for each sent line
func (m *MockSupervisor) SetResponder(fn func(line string) []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// SetSendError sets the error to return from SendLine
func (m *MockSupervisor) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// SetExitOnClose makes CloseInput terminate the mock with the given code
func (m *MockSupervisor) SetExitOnClose(code int, waitErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitOnClose = true
	m.exitCode = code
	m.waitErr = waitErr
}

// PushOutput queues lines on standard output
func (m *MockSupervisor) PushOutput(lines ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.output = append(m.output, lines...)
	m.signal()
}

// PushError queues lines on standard error
func (m *MockSupervisor) PushError(lines ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, lines...)
	m.signal()
}

// CloseOutput ends both output streams while the mock process keeps running
func (m *MockSupervisor) CloseOutput() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputClosed = true
	m.signal()
}

// Exit terminates the mock process, ending both output streams
func (m *MockSupervisor) Exit(code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitLocked(code)
}

func (m *MockSupervisor) exitLocked(code int) {
	if m.isExited() {
		return
	}
	m.exitCode = code
	m.outputClosed = true
	close(m.exited)
	m.signal()
}

func (m *MockSupervisor) isExited() bool {
	select {
	case <-m.exited:
		return true
	default:
		return false
	}
}

func (m *MockSupervisor) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// GetSent returns a copy of every line written to the mock
func (m *MockSupervisor) GetSent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]string, len(m.sent))
	copy(result, m.sent)
	return result
}

// GetEvents returns the ordered send/recv/close log
func (m *MockSupervisor) GetEvents() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]string, len(m.events))
	copy(result, m.events)
	return result
}

// IsInputClosed returns whether CloseInput was called
func (m *MockSupervisor) IsInputClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputClosed
}

// GetWaitCalls returns how many times Wait was called
func (m *MockSupervisor) GetWaitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitCalls
}

// MockFactory is a spy around interfaces.SupervisorFactory
type MockFactory struct {
	mu         sync.Mutex
	supervisor interfaces.Supervisor
	err        error
	calls      int
	command    string
	args       []string
}

// NewMockFactory creates a factory that returns sup, or err when set
func NewMockFactory(sup interfaces.Supervisor, err error) *MockFactory {
	return &MockFactory{
		supervisor: sup,
		err:        err,
	}
}

// Start implements interfaces.SupervisorFactory
func (f *MockFactory) Start(command string, args []string) (interfaces.Supervisor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.command = command
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return f.supervisor, nil
}

// GetCalls returns how many times Start was called
func (f *MockFactory) GetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// GetCommand returns the command and args of the last Start call
func (f *MockFactory) GetCommand() (string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.command, f.args
}
