package process

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// lineQueue is an unbounded FIFO of lines pumped from one stream.
// It has a single consumer at a time.
type lineQueue struct {
	mu     sync.Mutex
	lines  []string
	closed bool
	ready  chan struct{}
}

func newLineQueue() *lineQueue {
	return &lineQueue{ready: make(chan struct{}, 1)}
}

func (q *lineQueue) push(line string) {
	q.mu.Lock()
	q.lines = append(q.lines, line)
	q.mu.Unlock()
	q.signal()
}

func (q *lineQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *lineQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop blocks until a line is available, the stream ends (io.EOF) or ctx is done.
func (q *lineQueue) pop(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.lines) > 0 {
			line := q.lines[0]
			q.lines[0] = ""
			q.lines = q.lines[1:]
			q.mu.Unlock()
			return line, nil
		}
		if q.closed {
			q.mu.Unlock()
			return "", io.EOF
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// pump splits r into lines and queues them until r is exhausted, then
// closes q. Terminators ("\n" and a preceding "\r") are removed. A final
// line without a terminator is still delivered. The read error that ended
// the stream is returned, nil for a clean EOF.
func pump(r io.Reader, q *lineQueue) error {
	defer q.close()

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			q.push(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
