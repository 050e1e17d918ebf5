// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nihilok/run/internal/engine"
)

// Output formats for function invocations. Stream leaves the child process
// attached to the terminal; the other formats capture its output first and
// render it after the process exits.
const (
	formatStream   = "stream"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

func validFormat(format string) bool {
	switch format {
	case formatStream, formatJSON, formatMarkdown:
		return true
	}
	return false
}

// capturedResult is the JSON shape of a captured invocation.
type capturedResult struct {
	Function   string `json:"function"`
	ExitCode   int    `json:"exitCode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	DurationMS int64  `json:"durationMs"`
}

// renderResult renders a captured invocation in the requested non-stream
// format.
func renderResult(format, name string, r engine.Result) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(capturedResult{
			Function:   name,
			ExitCode:   r.ExitCode,
			Stdout:     r.Stdout,
			Stderr:     r.Stderr,
			DurationMS: r.Duration.Milliseconds(),
		}, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case formatMarkdown:
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\nExited with code %d in %s.\n",
			name, r.ExitCode, r.Duration.Round(time.Millisecond))
		if r.Stdout != "" {
			b.WriteString("\n## stdout\n\n```\n")
			b.WriteString(strings.TrimRight(r.Stdout, "\n"))
			b.WriteString("\n```\n")
		}
		if r.Stderr != "" {
			b.WriteString("\n## stderr\n\n```\n")
			b.WriteString(strings.TrimRight(r.Stderr, "\n"))
			b.WriteString("\n```\n")
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}
