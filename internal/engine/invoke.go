// SPDX-License-Identifier: MPL-2.0

package engine

import "context"

// Invoke runs one function end to end: composition, argument substitution,
// and exactly one subprocess. The returned status is the subprocess exit
// code; a non-nil error means the call could not be made at all (unknown
// function, unspawnable interpreter) and is fatal for this call only.
func Invoke(ctx context.Context, table *FunctionTable, name string, args []string) (int, error) {
	script, res, err := BuildScript(name, args, table)
	if err != nil {
		return spawnFailureCode, err
	}
	return Run(ctx, res, script, polyglotArgs(res, args))
}

// InvokeCapture is Invoke with buffered output, used by the tool server.
func InvokeCapture(ctx context.Context, table *FunctionTable, name string, args []string) (Result, error) {
	script, res, err := BuildScript(name, args, table)
	if err != nil {
		return Result{ExitCode: spawnFailureCode}, err
	}
	return RunCapture(ctx, res, script, polyglotArgs(res, args))
}

// polyglotArgs returns the argv tail for the subprocess: polyglot targets
// receive the raw call arguments after the script, shell targets receive
// nothing because substitution already inlined them.
func polyglotArgs(res Resolution, args []string) []string {
	if res.Interpreter.IsShellDialect() {
		return nil
	}
	return args
}
