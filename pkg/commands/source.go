// Package commands reads the scripted command lines fed to an engine.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is returned when the command file does not exist or cannot be read
var ErrNotFound = errors.New("command file not found")

// Kind classifies a command line
type Kind int

const (
	// Blank lines are skipped
	Blank Kind = iota
	// Wait lines block until the engine emits the sentinel
	Wait
	// Send lines are written to the engine
	Send
)

// Line is a single trimmed command line
type Line struct {
	Text string
	Kind Kind
}

// Source is an ordered, consume-once sequence of command lines
type Source struct {
	lines     []string
	pos       int
	directive string
}

// Open reads all lines from path, or from input when path is empty.
// Lines are read eagerly so piped input is fully consumed before the
// engine is started. When ctx is done first Open returns ctx.Err().
func Open(ctx context.Context, path string, input io.Reader, directive string) (*Source, error) {
	if path != "" {
		// #nosec G304 - The command file is chosen by the operator
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		defer func() { _ = f.Close() }()
		input = f
	}
	if input == nil {
		return nil, fmt.Errorf("no command file and no input stream")
	}

	lines, err := readLinesContext(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		if path != "" {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
		}
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}

	return &Source{lines: lines, directive: directive}, nil
}

// readLinesContext reads r to the end unless ctx is done first. A terminal
// read cannot be interrupted, so the reading goroutine is abandoned on
// cancellation and ends with the process.
func readLinesContext(ctx context.Context, r io.Reader) ([]string, error) {
	type result struct {
		lines []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		lines, err := readLines(r)
		done <- result{lines: lines, err: err}
	}()

	select {
	case res := <-done:
		return res.lines, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Next returns the next line, classified. ok is false once exhausted.
func (s *Source) Next() (line Line, ok bool) {
	if s.pos >= len(s.lines) {
		return Line{}, false
	}
	raw := s.lines[s.pos]
	s.pos++

	text := strings.TrimSpace(raw)
	switch {
	case text == "":
		return Line{Kind: Blank}, true
	case text == s.directive:
		return Line{Text: text, Kind: Wait}, true
	default:
		return Line{Text: text, Kind: Send}, true
	}
}

// Len returns the total number of raw lines, including blanks
func (s *Source) Len() int {
	return len(s.lines)
}
