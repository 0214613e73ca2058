package main

import (
	"context"
	"io"
	"os"

	"github.com/Veraticus/ucifeed/pkg/bridge"
	"github.com/Veraticus/ucifeed/pkg/config"
	"github.com/Veraticus/ucifeed/pkg/debug"
	"github.com/Veraticus/ucifeed/pkg/interfaces"
	"github.com/Veraticus/ucifeed/pkg/process"
	"github.com/Veraticus/ucifeed/pkg/session"
)

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config         *config.Config
	Factory        interfaces.SupervisorFactory
	TerminalOpener interfaces.TerminalOpener
	Input          io.Reader
	Output         io.Writer
}

// NewDependencies creates all dependencies with the given configuration
func NewDependencies(cfg *config.Config) *Dependencies {
	return &Dependencies{
		Config: cfg,
		Factory: process.NewFactory(process.Options{
			UsePTY: cfg.UsePTY,
			Env:    os.Environ(),
		}),
		TerminalOpener: bridge.OpenTTY(cfg.TTYPath),
		Input:          os.Stdin,
		Output:         os.Stdout,
	}
}

// Application represents the main application
type Application struct {
	deps    *Dependencies
	session *session.Session
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps: deps,
	}
}

// Run feeds the commands in commandFile, or the application's input when
// commandFile is empty, to the engine started from command and args.
func (a *Application) Run(ctx context.Context, command string, args []string, commandFile string) error {
	cfg := a.deps.Config

	engineArgs := make([]string, 0, len(cfg.EngineArgs)+len(args))
	engineArgs = append(engineArgs, cfg.EngineArgs...)
	engineArgs = append(engineArgs, args...)

	a.session = session.New(session.Options{
		Command:       command,
		Args:          engineArgs,
		CommandFile:   commandFile,
		Input:         a.deps.Input,
		WaitDirective: cfg.WaitDirective,
		Sentinel:      cfg.Sentinel,
		WaitTimeout:   cfg.WaitTimeout,
		Silent:        cfg.Silent,
		Interactive:   cfg.Interactive,
		Output:        a.deps.Output,
	}, a.deps.Factory, a.deps.TerminalOpener)

	debug.Printf("session %s: starting %s with args %v", a.session.ID(), command, engineArgs)
	return a.session.Run(ctx)
}

// ExitCode returns the exit code of the engine, 0 if it was not finalized
func (a *Application) ExitCode() int {
	if a.session == nil {
		return 0
	}
	code := a.session.ExitCode()
	if code < 0 {
		// Killed by a signal
		return 1
	}
	return code
}
