// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the run CLI.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"

	// verbose enables debug logging.
	verbose bool
	// runfilePath is an explicit Runfile path (file or directory).
	runfilePath string
	// shellOverride forces the default shell for this invocation.
	shellOverride string
	// listFuncs lists functions instead of running one.
	listFuncs bool
	// inspectName renders one function's metadata instead of running it.
	inspectName string
	// scriptFile executes an arbitrary manifest file's top-level calls.
	scriptFile string
	// outputFormat selects how invocation output is rendered.
	outputFormat string
	// serveMCP starts the stdio tool-protocol server.
	serveMCP bool

	rootCmd = &cobra.Command{
		Use:   "run [function] [args...]",
		Short: "A task runner with cross-dialect function composition",
		Long: TitleStyle.Render("run") + SubtitleStyle.Render(" - a task runner with cross-dialect function composition") + `

run executes named, parameterized functions declared in a Runfile,
mixing shell commands with embedded Python, Node, Ruby and PowerShell
snippets. Functions can call compatible sibling functions natively:
siblings are transpiled and inlined into one script executed by a
single subprocess.

` + SubtitleStyle.Render("Examples:") + `
  run                       Run the Runfile's top-level calls, or list functions
  run build                 Run the 'build' function
  run deploy staging v2     Run 'deploy' with two arguments
  run docker build          Run the namespaced 'docker:build' function
  run --list                List functions with their descriptions
  run --inspect deploy      Show one function's parameters and attributes
  run --mcp                 Serve functions to agents over stdio`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE:         runRoot,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.Flags().StringVarP(&runfilePath, "runfile", "f", "", "path to the Runfile (file or directory)")
	rootCmd.Flags().StringVar(&shellOverride, "shell", "", "default shell for functions without @shell or shebang")
	rootCmd.Flags().BoolVarP(&listFuncs, "list", "l", false, "list available functions")
	rootCmd.Flags().StringVar(&inspectName, "inspect", "", "show a function's parameters and attributes")
	rootCmd.Flags().StringVarP(&scriptFile, "command-file", "c", "", "execute a manifest file's top-level calls")
	rootCmd.Flags().StringVar(&outputFormat, "format", formatStream, "output format: stream, json or markdown")
	rootCmd.Flags().BoolVar(&serveMCP, "mcp", false, "serve functions over the stdio tool protocol")

	// Everything after the function name belongs to the function.
	rootCmd.Flags().SetInterspersed(false)
}

// Execute runs the CLI. Called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

func runRoot(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	switch {
	case serveMCP:
		return a.serveTools(cmd.Context())
	case scriptFile != "":
		return a.runDefault(cmd.Context(), cmd.OutOrStdout())
	case listFuncs:
		return a.list(cmd.OutOrStdout())
	case inspectName != "":
		return a.inspect(cmd.OutOrStdout(), inspectName)
	case len(args) == 0:
		return a.runDefault(cmd.Context(), cmd.OutOrStdout())
	default:
		return a.runFunction(cmd.Context(), cmd.OutOrStdout(), args)
	}
}
