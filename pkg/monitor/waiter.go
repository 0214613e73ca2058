package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/ucifeed/pkg/debug"
	"github.com/Veraticus/ucifeed/pkg/interfaces"
)

// ErrSentinelTimeout is returned when the sentinel does not appear in time
var ErrSentinelTimeout = errors.New("timed out waiting for sentinel")

// Waiter drains engine output until the sentinel line appears
type Waiter struct {
	reader  interfaces.OutputReader
	matcher Matcher
	echo    interfaces.Echoer
	timeout time.Duration
}

// NewWaiter creates a waiter. echo may be nil; a zero timeout waits forever.
func NewWaiter(reader interfaces.OutputReader, matcher Matcher, echo interfaces.Echoer, timeout time.Duration) *Waiter {
	return &Waiter{
		reader:  reader,
		matcher: matcher,
		echo:    echo,
		timeout: timeout,
	}
}

// Await reads output lines, echoing each one, and returns true as soon as a
// line matches. It returns false with a nil error when output ends first;
// the caller decides what an engine that exited mid-wait means.
func (w *Waiter) Await(ctx context.Context) (bool, error) {
	readCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	drained := 0
	for {
		line, err := w.reader.ReadOutputLine(readCtx)
		if err == io.EOF {
			debug.Printf("output ended after %d lines without sentinel", drained)
			return false, nil
		}
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return false, fmt.Errorf("%w after %v", ErrSentinelTimeout, w.timeout)
			}
			return false, err
		}

		drained++
		if w.echo != nil {
			w.echo.Received(line)
		}
		if w.matcher.Match(line) {
			return true, nil
		}
	}
}

// AwaitSentinel waits for a line starting with prefix, without a timeout
func AwaitSentinel(ctx context.Context, reader interfaces.OutputReader, prefix string, echo interfaces.Echoer) (bool, error) {
	return NewWaiter(reader, NewPrefixMatcher(prefix), echo, 0).Await(ctx)
}
