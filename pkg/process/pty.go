//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package process

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/Veraticus/ucifeed/pkg/debug"
	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// defaultSize is applied to the engine's terminal; engines rarely care
var defaultSize = &pty.Winsize{Rows: 24, Cols: 80}

// ptySpawner runs the child on a pseudo-terminal so that engines which
// block-buffer a piped stdout still flush line by line. Standard output and
// standard error share the terminal.
type ptySpawner struct{}

// Ensure ptySpawner implements spawner
var _ spawner = ptySpawner{}

func (ptySpawner) spawn(cmd *exec.Cmd) (*streams, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open PTY: %w", err)
	}
	// The child keeps its own descriptors for the slave side
	defer func() { _ = tty.Close() }()

	eof, err := disableEcho(tty)
	if err != nil {
		_ = ptmx.Close()
		return nil, fmt.Errorf("failed to configure PTY: %w", err)
	}

	if err := pty.Setsize(ptmx, defaultSize); err != nil {
		debug.Printf("failed to set PTY size: %v", err)
	}

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		_ = ptmx.Close()
		return nil, err
	}

	return &streams{
		stdin:  ptmx,
		stdout: ptmx,
		eof:    []byte{eof},
	}, nil
}

// disableEcho turns off input echo on the terminal, keeping canonical line
// mode, and returns the terminal's end-of-file character.
func disableEcho(tty *os.File) (byte, error) {
	fd := int(tty.Fd())
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return 0, err
	}

	termios.Lflag &^= unix.ECHO | unix.ECHONL
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, termios); err != nil {
		return 0, err
	}

	return termios.Cc[unix.VEOF], nil
}
