// SPDX-License-Identifier: MPL-2.0

// Package runfile defines the Runfile language data model and parser.
//
// A Runfile is a plain-text manifest of named, parameterized functions mixing
// shell commands with embedded Python/Node/Ruby/PowerShell snippets. This
// package turns manifest text into a Program: an ordered sequence of
// statements (variable assignments, function definitions, and function
// calls), each definition carrying its typed parameter list, attribute
// comments (@desc, @arg, @os, @shell), and an optional shebang.
//
// Execution semantics (interpreter resolution, composition, argument
// substitution) live in internal/engine; this package is purely syntactic.
package runfile
