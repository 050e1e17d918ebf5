// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// spawnFailureCode is the exit status reported when the interpreter binary
// cannot be started at all, matching the shell convention for a missing
// command.
const spawnFailureCode = 127

// Result is the captured outcome of one subprocess invocation, consumed by
// callers that need structured output (the tool server) instead of the
// default streaming path.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Run executes a composed script in the resolved interpreter with inherited
// stdio, blocking until the subprocess exits. extraArgs are appended after
// the script; shell-dialect callers pass none (arguments are substituted
// into the text), polyglot callers pass the raw call arguments so the
// declaration preamble can index argv.
//
// A non-zero exit status from the script is not an error here; it is the
// invocation's normal result. The error return is reserved for failing to
// start the process at all.
func Run(ctx context.Context, res Resolution, script string, extraArgs []string) (int, error) {
	cmd := exec.CommandContext(ctx, res.Binary, interpreterArgs(res, script, extraArgs)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return wait(cmd, res)
}

// RunCapture is Run with buffered stdout/stderr and timing, for callers
// that relay output to a remote peer instead of a terminal.
func RunCapture(ctx context.Context, res Resolution, script string, extraArgs []string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, res.Binary, interpreterArgs(res, script, extraArgs)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	code, err := wait(cmd, res)
	return Result{
		Command:  res.Binary + " " + res.Interpreter.Flag() + " <script>",
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: code,
		Duration: time.Since(start),
	}, err
}

func interpreterArgs(res Resolution, script string, extraArgs []string) []string {
	args := make([]string, 0, 2+len(extraArgs))
	args = append(args, res.Interpreter.Flag(), script)
	return append(args, extraArgs...)
}

func wait(cmd *exec.Cmd, res Resolution) (int, error) {
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return spawnFailureCode, fmt.Errorf("spawning %s: %w", res.Binary, err)
}
