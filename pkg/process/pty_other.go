//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package process

import (
	"errors"
	"os/exec"
)

// ptySpawner is unavailable on this platform
type ptySpawner struct{}

func (ptySpawner) spawn(cmd *exec.Cmd) (*streams, error) {
	return nil, errors.New("PTY mode is not supported on this platform")
}
