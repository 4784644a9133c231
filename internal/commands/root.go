// Package commands implements the audioctl command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oszuidwest/zwfm-audioctl/internal/audio"
	"github.com/oszuidwest/zwfm-audioctl/internal/config"
	"github.com/oszuidwest/zwfm-audioctl/internal/types"
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitInvalidArgument = 2
	ExitNotFound        = 3
)

// Options wires the command tree to its environment. Nil fields fall back to
// the process streams and the platform audio service.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Open   func() (*audio.Service, error)
}

// app holds the state shared by all subcommands.
type app struct {
	Options

	configPath string
	output     string
	logLevel   string
}

// Execute runs the command line against the process environment and returns
// the exit code.
func Execute() int {
	root := NewRootCommand(Options{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return ExitCode(err)
	}
	return ExitOK
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, types.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, types.ErrInvalidArgument):
		return ExitInvalidArgument
	default:
		return ExitFailure
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Open == nil {
		opts.Open = audio.Open
	}
	a := &app{Options: opts}

	root := &cobra.Command{
		Use:           "audioctl",
		Short:         "Inspect and control audio endpoint devices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setupLogging(cmd); err != nil {
				return err
			}
			if a.output != outputText && a.output != outputJSON {
				return types.InvalidArgumentf("unknown output format %q (want text or json)", a.output)
			}
			// Cobra checks flag groups after the pre-run hooks and returns a
			// plain error; check them here so they map to InvalidArgument.
			if err := cmd.ValidateFlagGroups(); err != nil {
				return types.InvalidArgumentf("%v", err)
			}
			return nil
		},
	}
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return types.InvalidArgumentf("%v", err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultPath(), "path to the config file")
	flags.StringVarP(&a.output, "output", "o", outputText, "output format: text or json")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (default warn, info for serve)")

	root.AddCommand(
		newListCommand(a),
		newGetCommand(a),
		newSetCommand(a),
		newWriteCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)
	return root
}

// setupLogging installs a text handler on stderr so stdout only carries
// command output.
func (a *app) setupLogging(cmd *cobra.Command) error {
	name := a.logLevel
	if name == "" {
		name = "warn"
		if cmd.Name() == "serve" {
			name = "info"
		}
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return types.InvalidArgumentf("unknown log level %q", a.logLevel)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// openService opens the audio service. Callers close it when done.
func (a *app) openService() (*audio.Service, error) {
	svc, err := a.Open()
	if err != nil {
		return nil, fmt.Errorf("open audio service: %w", err)
	}
	return svc, nil
}

// loadConfig reads the config file. A missing file yields the defaults.
func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.New(a.configPath)
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	slog.Debug("using config file", "path", a.configPath)
	return cfg, nil
}

// printer returns the output printer for the selected format.
func (a *app) printer() printer {
	return printer{w: a.Stdout, format: a.output}
}

// noArgs rejects positional arguments as InvalidArgument.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return types.InvalidArgumentf("%v", err)
	}
	return nil
}
