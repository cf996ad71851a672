// Package commands implements the mom command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/version"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer

	// ExitCode is the return code a command asks for when it did not fail with an error.
	ExitCode int
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Build description path" default:"makeomatic.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Run a build"`
	Describe DescribeCmd `cmd:"" help:"Set up the instruction tree and print it without building"`
	Query    QueryCmd    `cmd:"" help:"Print the value of a setting"`
	Print    PrintCmd    `cmd:"" help:"Print source control revision information"`
	History  HistoryCmd  `cmd:"" help:"Show recorded builds"`
	Plugins  PluginsCmd  `cmd:"" help:"List the plugin types build descriptions can use"`
}

// Main parses args, runs the selected command and returns the process exit code.
func Main(args []string, stdout, stderr io.Writer) int {
	cli := &CLI{}
	exited := -1
	parser, err := kong.New(cli,
		kong.Name("mom"),
		kong.Description("Build orchestration: check out, configure, build, test and package projects."),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exited = code }),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return errors.ExitInternal
	}
	kctx, err := parser.Parse(args)
	if exited >= 0 {
		return exited
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return errors.ExitConfiguration
	}

	g := &Global{
		Logger: newLogger(stderr, config.LoggingConfig{}, cli.Verbose),
		Stdout: stdout,
		Stderr: stderr,
	}
	if err := kctx.Run(g, cli); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, g.Logger)
		fmt.Fprintln(stderr, adapter.FormatError(err))
		if g.ExitCode == errors.ExitSuccess {
			g.ExitCode = adapter.ExitCodeFor(err)
		}
	}
	return g.ExitCode
}

// newLogger builds the slog logger from the logging section; -v forces debug.
func newLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := config.NormalizeLogLevel(lc.Level).SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.NormalizeLogFormat(lc.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// loadConfig reads the build description and switches logging to its settings.
func loadConfig(g *Global, cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = newLogger(g.Stderr, cfg.Logging, cli.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// signalContext is cancelled on SIGINT and SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
