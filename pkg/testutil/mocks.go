// Package testutil provides mocks shared by package tests.
package testutil

import (
	"io"
	"strings"
	"sync"

	"github.com/Veraticus/ucifeed/pkg/interfaces"
)

// MockEchoer is a thread-safe mock implementation of interfaces.Echoer for testing
type MockEchoer struct {
	mu       sync.Mutex
	sent     []string
	received []string
	waits    []string
}

// Ensure MockEchoer implements Echoer
var _ interfaces.Echoer = (*MockEchoer)(nil)

// NewMockEchoer creates a new mock echoer
func NewMockEchoer() *MockEchoer {
	return &MockEchoer{}
}

// Sent implements the Echoer interface
func (m *MockEchoer) Sent(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, line)
}

// Received implements the Echoer interface
func (m *MockEchoer) Received(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, line)
}

// Waiting implements the Echoer interface
func (m *MockEchoer) Waiting(sentinel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits = append(m.waits, sentinel)
}

// GetSent returns a copy of echoed sent lines
func (m *MockEchoer) GetSent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// GetReceived returns a copy of echoed received lines
func (m *MockEchoer) GetReceived() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.received...)
}

// GetWaits returns a copy of the sentinels waited for
func (m *MockEchoer) GetWaits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.waits...)
}

// MockTerminal is a fake controlling terminal with scripted operator input
type MockTerminal struct {
	mu      sync.Mutex
	input   string
	openErr error
	opens   int
	closed  bool
}

// NewMockTerminal creates a terminal that yields input and then end-of-input
func NewMockTerminal(input string) *MockTerminal {
	return &MockTerminal{input: input}
}

// SetOpenError makes Open fail with err
func (m *MockTerminal) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// Open implements interfaces.TerminalOpener
func (m *MockTerminal) Open() (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opens++
	if m.openErr != nil {
		return nil, m.openErr
	}
	return &mockTTY{Reader: strings.NewReader(m.input), owner: m}, nil
}

// GetOpens returns how many times Open was called
func (m *MockTerminal) GetOpens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// IsClosed returns whether the opened terminal was closed
func (m *MockTerminal) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockTTY struct {
	*strings.Reader
	owner *MockTerminal
}

func (t *mockTTY) Close() error {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.owner.closed = true
	return nil
}
