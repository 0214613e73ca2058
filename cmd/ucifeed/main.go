package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Veraticus/ucifeed/pkg/commands"
	"github.com/Veraticus/ucifeed/pkg/config"
	"github.com/Veraticus/ucifeed/pkg/debug"
	"github.com/Veraticus/ucifeed/pkg/process"
	"github.com/Veraticus/ucifeed/pkg/session"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

// Exit codes
const (
	exitError     = 1
	exitInterrupt = 130
)

var errUsage = errors.New("missing executable")

// cliOptions holds everything parsed from the command line
type cliOptions struct {
	configPath  string
	interactive bool
	silent      bool
	usePTY      bool
	help        bool
	sentinel    string
	waitTimeout time.Duration

	executable  string
	commandFile string
	engineArgs  []string

	flags *flag.FlagSet
}

func newFlagSet(opts *cliOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("ucifeed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "Hand the engine to the terminal after the script")
	fs.BoolVarP(&opts.silent, "silent", "s", false, "Do not echo sent commands and engine output")
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.DurationVar(&opts.waitTimeout, "wait-timeout", 0, "Give up waiting for the sentinel after this long (0 waits forever)")
	fs.StringVar(&opts.sentinel, "sentinel", "", "Output prefix that ends a wait (default \"bestmove\")")
	fs.BoolVar(&opts.usePTY, "pty", false, "Attach the engine to a pseudo-terminal")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show help message")
	opts.flags = fs
	return fs
}

// parseArgs parses args without the program name
func parseArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := newFlagSet(opts)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.help {
		return opts, nil
	}

	positional := fs.Args()
	if dash := fs.ArgsLenAtDash(); dash >= 0 {
		opts.engineArgs = positional[dash:]
		positional = positional[:dash]
	}

	switch len(positional) {
	case 0:
		return nil, errUsage
	case 1:
		opts.executable = positional[0]
	case 2:
		opts.executable = positional[0]
		opts.commandFile = positional[1]
	default:
		return nil, fmt.Errorf("unexpected arguments: %v (engine arguments go after --)", positional[2:])
	}
	return opts, nil
}

// applyFlags overrides configuration with explicitly set flags
func applyFlags(cfg *config.Config, opts *cliOptions) error {
	if opts.interactive {
		cfg.Interactive = true
	}
	if opts.silent {
		cfg.Silent = true
	}
	if opts.usePTY {
		cfg.UsePTY = true
	}
	if opts.flags.Changed("sentinel") {
		cfg.Sentinel = opts.sentinel
	}
	if opts.flags.Changed("wait-timeout") {
		cfg.WaitTimeout = opts.waitTimeout
	}
	return config.Validate(cfg)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage(os.Stderr)
		return exitError
	}
	if opts.help {
		printUsage(os.Stdout)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitError
	}
	if err := applyFlags(cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	debug.Enable(cfg.Debug)

	if opts.commandFile == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Reading commands from the terminal. Press Ctrl+D when done.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApplication(NewDependencies(cfg))
	err = app.Run(ctx, opts.executable, opts.engineArgs, opts.commandFile)
	return exitCode(err, app.ExitCode())
}

// exitCode maps a session result to the process exit code
func exitCode(err error, engineCode int) int {
	switch {
	case err == nil:
		return engineCode
	case errors.Is(err, session.ErrCancelled):
		fmt.Fprintln(os.Stderr, "\nInterrupted by user.")
		return exitInterrupt
	case errors.Is(err, commands.ErrNotFound):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	case errors.Is(err, process.ErrSpawnFailed):
		fmt.Fprintf(os.Stderr, "Error: could not start engine: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitError
}

func printUsage(w io.Writer) {
	fs := newFlagSet(&cliOptions{})
	fmt.Fprintln(w, "ucifeed - feed scripted commands to a UCI chess engine")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: ucifeed [OPTIONS] <executable> [file_path] [-- ENGINE_ARGS...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands are read from file_path, or from standard input when it is omitted.")
	fmt.Fprintln(w, "A line containing only 'wait' pauses until the engine prints 'bestmove'.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment Variables:")
	fmt.Fprintln(w, "  UCIFEED_SENTINEL        Output prefix that ends a wait")
	fmt.Fprintln(w, "  UCIFEED_WAIT_DIRECTIVE  Script line that starts a wait")
	fmt.Fprintln(w, "  UCIFEED_WAIT_TIMEOUT    Wait timeout, e.g. 30s")
	fmt.Fprintln(w, "  UCIFEED_SILENT          Suppress echo (true/false)")
	fmt.Fprintln(w, "  UCIFEED_INTERACTIVE     Enter interactive mode (true/false)")
	fmt.Fprintln(w, "  UCIFEED_PTY             Run the engine on a pseudo-terminal (true/false)")
	fmt.Fprintln(w, "  UCIFEED_TTY             Terminal device for interactive mode")
	fmt.Fprintln(w, "  UCIFEED_ENGINE_ARGS     Default engine args (comma-separated)")
	fmt.Fprintln(w, "  UCIFEED_CONFIG          Path to config file")
	fmt.Fprintln(w, "  UCIFEED_DEBUG           Print diagnostics to stderr")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration file: ~/.config/ucifeed/config.yaml")
}
