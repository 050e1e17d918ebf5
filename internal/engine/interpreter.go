// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nihilok/run/pkg/runfile"
)

const (
	// Sh is the POSIX shell.
	Sh Interpreter = iota
	// Bash is GNU bash, composition-compatible with Sh.
	Bash
	// Pwsh is PowerShell.
	Pwsh
	// Python covers both the python and python3 binaries.
	Python
	// Node is the Node.js runtime.
	Node
	// Ruby is the Ruby runtime.
	Ruby
)

type (
	// Interpreter is the closed set of runtimes a function body can execute
	// under. Keeping this an enum (rather than free-form name strings) makes
	// the compatibility matrix and the binary/flag table exhaustive,
	// compile-checked lookups.
	Interpreter int

	// Resolution pairs an interpreter with the concrete binary to spawn.
	// The distinction matters for aliases: `@shell python3` resolves to
	// Python with the python3 binary, `powershell` to Pwsh with the legacy
	// binary name.
	Resolution struct {
		Interpreter Interpreter
		Binary      string
	}
)

// String returns the canonical interpreter name.
func (i Interpreter) String() string {
	switch i {
	case Sh:
		return "sh"
	case Bash:
		return "bash"
	case Pwsh:
		return "pwsh"
	case Python:
		return "python"
	case Node:
		return "node"
	case Ruby:
		return "ruby"
	default:
		return "unknown"
	}
}

// Flag returns the single-shot command flag for the interpreter: the option
// that makes the binary execute its next argument as a script.
func (i Interpreter) Flag() string {
	switch i {
	case Pwsh:
		return "-Command"
	case Node, Ruby:
		return "-e"
	default:
		return "-c"
	}
}

// IsShellDialect reports whether the interpreter takes shell-style variable
// substitution (sh, bash, pwsh). The polyglot runtimes (python, node, ruby)
// receive a typed declaration preamble instead.
func (i Interpreter) IsShellDialect() bool {
	switch i {
	case Sh, Bash, Pwsh:
		return true
	default:
		return false
	}
}

// Compatible reports whether two interpreters belong to the same composition
// compatibility class. Sh and Bash form one class; every other interpreter is
// compatible only with itself. The predicate is symmetric.
func Compatible(a, b Interpreter) bool {
	return compatClass(a) == compatClass(b)
}

func compatClass(i Interpreter) int {
	if i == Sh || i == Bash {
		return int(Sh)
	}
	return int(i)
}

// ParseInterpreterName maps an interpreter identifier (from a @shell
// attribute, a shebang, or configuration) to a Resolution. Alias spellings
// keep their concrete binary.
func ParseInterpreterName(name string) (Resolution, bool) {
	switch name {
	case "sh":
		return Resolution{Sh, "sh"}, true
	case "bash":
		return Resolution{Bash, "bash"}, true
	case "pwsh":
		return Resolution{Pwsh, "pwsh"}, true
	case "powershell":
		return Resolution{Pwsh, "powershell"}, true
	case "python":
		return Resolution{Python, "python"}, true
	case "python3":
		return Resolution{Python, "python3"}, true
	case "node":
		return Resolution{Node, "node"}, true
	case "ruby":
		return Resolution{Ruby, "ruby"}, true
	default:
		return Resolution{}, false
	}
}

// ShebangInterpreterName extracts the interpreter identifier from shebang
// text (without the `#!` prefix): `/usr/bin/env <name>` yields the first
// token after env, anything else yields the basename of the first token.
func ShebangInterpreterName(shebang string) string {
	shebang = strings.TrimSpace(shebang)
	if rest, ok := strings.CutPrefix(shebang, "/usr/bin/env "); ok {
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return ""
		}
		return fields[0]
	}
	fields := strings.Fields(shebang)
	if len(fields) == 0 {
		return ""
	}
	path := fields[0]
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// ResolveInterpreter decides which interpreter governs a function body.
// Precedence: @shell attribute, then shebang, then the supplied default.
// Unknown interpreter names are a warning, never an error; execution falls
// back to the default.
func ResolveInterpreter(attrs []runfile.Attribute, shebang string, defaultShell Resolution) Resolution {
	if name := runfile.ShellAttr(attrs); name != "" {
		if res, ok := ParseInterpreterName(name); ok {
			return res
		}
		log.Warn("unknown interpreter in @shell attribute, using default shell",
			"interpreter", name, "default", defaultShell.Binary)
		return defaultShell
	}
	if shebang != "" {
		name := ShebangInterpreterName(shebang)
		if res, ok := ParseInterpreterName(name); ok {
			return res
		}
		log.Warn("unknown interpreter in shebang, using default shell",
			"interpreter", name, "default", defaultShell.Binary)
		return defaultShell
	}
	return defaultShell
}

// PlatformDefaultShell returns the default shell resolution for a host when
// no configuration overrides it: pwsh on Windows, sh elsewhere.
func PlatformDefaultShell(hostOS string) Resolution {
	if hostOS == "windows" {
		return Resolution{Pwsh, "pwsh"}
	}
	return Resolution{Sh, "sh"}
}
