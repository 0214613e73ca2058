package process

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// streams holds the parent-side ends of a spawned process's standard streams
type streams struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser // nil when merged into stdout
	eof    []byte        // written instead of closing stdin, when set
}

// spawner starts a prepared command and connects its streams
type spawner interface {
	spawn(cmd *exec.Cmd) (*streams, error)
}

// pipeSpawner connects the child to three OS pipes
type pipeSpawner struct{}

// Ensure pipeSpawner implements spawner
var _ spawner = pipeSpawner{}

func (pipeSpawner) spawn(cmd *exec.Cmd) (*streams, error) {
	var opened []*os.File
	closeAll := func(files ...*os.File) {
		for _, f := range files {
			_ = f.Close()
		}
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	opened = append(opened, stdinR, stdinW)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		closeAll(opened...)
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	opened = append(opened, stdoutR, stdoutW)

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(opened...)
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	opened = append(opened, stderrR, stderrW)

	// Files are handed over directly, so exec starts no copy goroutines and
	// Wait never closes our ends.
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		closeAll(opened...)
		return nil, err
	}

	// The child holds its own copies now
	closeAll(stdinR, stdoutW, stderrW)

	return &streams{
		stdin:  stdinW,
		stdout: stdoutR,
		stderr: stderrR,
	}, nil
}
