// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nihilok/run/internal/config"
	"github.com/nihilok/run/internal/discovery"
	"github.com/nihilok/run/internal/engine"
	"github.com/nihilok/run/internal/mcp"
	"github.com/nihilok/run/pkg/runfile"
)

// app wires configuration, discovery, parsing and the engine together for
// one CLI invocation.
type app struct {
	cfg    *config.Config
	source *discovery.Source
	table  *engine.FunctionTable
	// format is the validated output format for invocations.
	format string
}

func newApp() (*app, error) {
	format := outputFormat
	if format == "" {
		format = formatStream
	}
	if !validFormat(format) {
		return nil, fmt.Errorf("unknown output format %q (expected stream, json or markdown)", format)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		cfg = &config.Config{}
	}

	customPath := runfilePath
	if scriptFile != "" {
		customPath = scriptFile
	}
	noMerge := cfg.NoGlobalMerge
	if os.Getenv(config.EnvNoGlobalMerge) != "" {
		noMerge = true
	}

	src, err := discovery.Discover(discovery.Options{
		CustomPath:    customPath,
		NoGlobalMerge: noMerge,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("loaded Runfile", "path", src.Path, "merged_global", src.GlobalPath != "")

	prog, err := runfile.Parse(src.Content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}

	return &app{
		cfg:    cfg,
		source: src,
		table:  engine.Load(prog, runfile.HostOS(), defaultShell(cfg)),
		format: format,
	}, nil
}

// defaultShell resolves the default-shell name for this invocation:
// --shell flag, then RUN_SHELL / config file, then the platform default.
func defaultShell(cfg *config.Config) engine.Resolution {
	name := shellOverride
	if name == "" {
		name = cfg.ShellName(runfile.HostOS())
	}
	res, ok := engine.ParseInterpreterName(name)
	if !ok {
		log.Warn("unknown default shell, using platform default", "shell", name)
		return engine.PlatformDefaultShell(runfile.HostOS())
	}
	return res
}

// runFunction resolves a function name from the CLI arguments and invokes
// it. `run docker build` reaches the namespaced `docker:build` when no
// plain `docker` function exists, and underscores may stand in for colons.
// Non-stream formats capture the child's output and render it to out.
func (a *app) runFunction(ctx context.Context, out io.Writer, args []string) error {
	name, rest, ok := a.resolveName(args)
	if !ok {
		return a.unknownFunction(args[0])
	}

	switch a.format {
	case formatJSON, formatMarkdown:
		return a.runCaptured(ctx, out, name, rest)
	}

	code, err := engine.Invoke(ctx, a.table, name, rest)
	if err != nil {
		if errors.Is(err, engine.ErrFunctionNotFound) {
			return a.unknownFunction(name)
		}
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		return &ExitError{Code: code}
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// runCaptured invokes a function with buffered output and renders the
// captured result in the selected format. The child's exit code still
// becomes the process exit code.
func (a *app) runCaptured(ctx context.Context, out io.Writer, name string, args []string) error {
	result, err := engine.InvokeCapture(ctx, a.table, name, args)
	if err != nil {
		if errors.Is(err, engine.ErrFunctionNotFound) {
			return a.unknownFunction(name)
		}
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		return &ExitError{Code: result.ExitCode}
	}

	text, err := renderResult(a.format, name, result)
	if err != nil {
		return err
	}
	fmt.Fprint(out, text)

	if result.ExitCode != 0 {
		return &ExitError{Code: result.ExitCode}
	}
	return nil
}

// resolveName maps CLI arguments onto a table entry. Strategies, in order:
// the first argument verbatim; the first two arguments joined as a
// namespaced name (`docker build` -> `docker:build`); underscores replaced
// by colons (`docker_build` -> `docker:build`).
func (a *app) resolveName(args []string) (name string, rest []string, ok bool) {
	if _, found := a.table.Lookup(args[0]); found {
		return args[0], args[1:], true
	}
	if len(args) >= 2 {
		joined := args[0] + ":" + args[1]
		if _, found := a.table.Lookup(joined); found {
			return joined, args[2:], true
		}
	}
	underscored := strings.ReplaceAll(args[0], "_", ":")
	if _, found := a.table.Lookup(underscored); found {
		return underscored, args[1:], true
	}
	return args[0], nil, false
}

// runDefault executes the Runfile's top-level calls in source order,
// stopping at the first non-zero exit. Without top-level calls it falls
// back to listing.
func (a *app) runDefault(ctx context.Context, out io.Writer) error {
	calls := a.table.TopLevelCalls()
	if len(calls) == 0 {
		return a.list(out)
	}
	for _, call := range calls {
		code, err := engine.Invoke(ctx, a.table, call.Name, call.Args)
		if err != nil {
			if errors.Is(err, engine.ErrFunctionNotFound) {
				return a.unknownFunction(call.Name)
			}
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
			return &ExitError{Code: code}
		}
		if code != 0 {
			return &ExitError{Code: code}
		}
	}
	return nil
}

// serveTools runs the stdio tool-protocol server until EOF.
func (a *app) serveTools(ctx context.Context) error {
	log.Debug("serving tool protocol", "runfile", a.source.Path)
	return mcp.NewServer(a.table, Version, os.Stdin, os.Stdout).Serve(ctx)
}

func (a *app) unknownFunction(name string) error {
	names := a.table.Names()
	hint := ""
	if len(names) > 0 {
		hint = "\nAvailable functions: " + strings.Join(names, ", ")
	}
	return fmt.Errorf("function %q is not defined in %s%s", name, a.source.Path, hint)
}
