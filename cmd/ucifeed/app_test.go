package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/ucifeed/pkg/commands"
	"github.com/Veraticus/ucifeed/pkg/config"
	"github.com/Veraticus/ucifeed/pkg/process"
	"github.com/Veraticus/ucifeed/pkg/session"
	"github.com/Veraticus/ucifeed/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(cfg *config.Config, sup *testutil.MockSupervisor, script string) (*Application, *testutil.MockFactory, *bytes.Buffer) {
	factory := testutil.NewMockFactory(sup, nil)
	out := &bytes.Buffer{}
	deps := &Dependencies{
		Config:         cfg,
		Factory:        factory.Start,
		TerminalOpener: testutil.NewMockTerminal("").Open,
		Input:          strings.NewReader(script),
		Output:         out,
	}
	return NewApplication(deps), factory, out
}

func TestNewDependencies(t *testing.T) {
	cfg := config.DefaultConfig()
	deps := NewDependencies(cfg)

	assert.Same(t, cfg, deps.Config)
	assert.NotNil(t, deps.Factory)
	assert.NotNil(t, deps.TerminalOpener)
	assert.NotNil(t, deps.Input)
	assert.NotNil(t, deps.Output)
}

func TestApplication_Run(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.EngineArgs = []string{"--threads", "2"}

	sup := testutil.NewMockSupervisor()
	sup.SetExitOnClose(0, nil)
	sup.SetResponder(func(line string) []string { return []string{"bestmove e2e4"} })

	app, factory, out := newTestApp(cfg, sup, "go depth 1\nwait\nquit\n")
	require.NoError(t, app.Run(context.Background(), "stockfish", []string{"--nnue"}, ""))

	command, args := factory.GetCommand()
	assert.Equal(t, "stockfish", command)
	assert.Equal(t, []string{"--threads", "2", "--nnue"}, args, "configured args come first")
	assert.Equal(t, []string{"go depth 1", "quit"}, sup.GetSent())
	assert.Contains(t, out.String(), "Sending command: go depth 1")
	assert.Equal(t, 0, app.ExitCode())
}

func TestApplication_ExitCode(t *testing.T) {
	app := NewApplication(&Dependencies{Config: config.DefaultConfig()})
	assert.Equal(t, 0, app.ExitCode(), "no session yet")

	sup := testutil.NewMockSupervisor()
	sup.SetExitOnClose(7, nil)
	app, _, _ = newTestApp(config.DefaultConfig(), sup, "uci\n")
	require.NoError(t, app.Run(context.Background(), "engine", nil, ""))
	assert.Equal(t, 7, app.ExitCode())
}

func TestApplication_SilentConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Silent = true

	sup := testutil.NewMockSupervisor()
	sup.SetExitOnClose(0, nil)
	app, _, out := newTestApp(cfg, sup, "uci\n")
	require.NoError(t, app.Run(context.Background(), "engine", nil, ""))

	assert.NotContains(t, out.String(), "Sending command:")
	assert.Equal(t, []string{"uci"}, sup.GetSent())
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		executable  string
		commandFile string
		engineArgs  []string
		interactive bool
		silent      bool
		wantErr     bool
	}{
		{name: "executable only", args: []string{"stockfish"}, executable: "stockfish"},
		{name: "with file", args: []string{"stockfish", "cmds.txt"}, executable: "stockfish", commandFile: "cmds.txt"},
		{name: "short flags", args: []string{"-i", "-s", "stockfish"}, executable: "stockfish", interactive: true, silent: true},
		{name: "long flags after positionals", args: []string{"stockfish", "cmds.txt", "--interactive"}, executable: "stockfish", commandFile: "cmds.txt", interactive: true},
		{name: "engine args", args: []string{"stockfish", "--", "--threads", "4"}, executable: "stockfish", engineArgs: []string{"--threads", "4"}},
		{name: "file and engine args", args: []string{"stockfish", "cmds.txt", "--", "-x"}, executable: "stockfish", commandFile: "cmds.txt", engineArgs: []string{"-x"}},
		{name: "missing executable", args: []string{}, wantErr: true},
		{name: "too many positionals", args: []string{"a", "b", "c"}, wantErr: true},
		{name: "unknown flag", args: []string{"--bogus", "stockfish"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.executable, opts.executable)
			assert.Equal(t, tt.commandFile, opts.commandFile)
			assert.Equal(t, tt.engineArgs, opts.engineArgs)
			assert.Equal(t, tt.interactive, opts.interactive)
			assert.Equal(t, tt.silent, opts.silent)
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	opts, err := parseArgs([]string{"-h"})
	require.NoError(t, err)
	assert.True(t, opts.help)
}

func TestApplyFlags(t *testing.T) {
	opts, err := parseArgs([]string{"--sentinel", "readyok", "--wait-timeout", "5s", "--pty", "engine"})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Silent = true
	require.NoError(t, applyFlags(cfg, opts))

	assert.Equal(t, "readyok", cfg.Sentinel)
	assert.Equal(t, 5*time.Second, cfg.WaitTimeout)
	assert.True(t, cfg.UsePTY)
	assert.True(t, cfg.Silent, "unset flags keep configured values")

	// An explicitly empty sentinel is rejected
	opts, err = parseArgs([]string{"--sentinel=", "engine"})
	require.NoError(t, err)
	assert.Error(t, applyFlags(config.DefaultConfig(), opts))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil, 0))
	assert.Equal(t, 4, exitCode(nil, 4))
	assert.Equal(t, exitInterrupt, exitCode(fmt.Errorf("%w: %w", session.ErrCancelled, context.Canceled), 0))
	assert.Equal(t, exitError, exitCode(fmt.Errorf("%w: x.txt", commands.ErrNotFound), 0))
	assert.Equal(t, exitError, exitCode(fmt.Errorf("%w: engine", process.ErrSpawnFailed), 0))
	assert.Equal(t, exitError, exitCode(errors.New("boom"), 0))
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	assert.Contains(t, buf.String(), "Usage: ucifeed")
	assert.Contains(t, buf.String(), "--interactive")
	assert.Contains(t, buf.String(), "UCIFEED_SENTINEL")
}
