// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"

	"github.com/nihilok/run/pkg/runfile"
)

// Substitute maps call arguments onto a shell-dialect template. It binds the
// i-th argument to the i-th declared parameter, falls back to declared
// defaults, and substitutes the empty string (with a warning) for a missing
// required argument rather than aborting. Alongside named `$name`/`${name}`
// substitution, the legacy positional tokens `$1`..`$9`, `${N}`, `${N:-def}`
// and `$@` stay substitutable so older manifests keep working. `$@` expands
// to the word-wise shell-quoted arguments; the quoted spelling `"$@"` drops
// its enclosing quotes so the words stay separate.
//
// The function is pure and deterministic over (template, params, args);
// warnings are its only side effect. Tokens that match neither a declared
// parameter nor a positional form pass through untouched, so ordinary shell
// variables like `${HOME}` survive.
func Substitute(template string, params []runfile.Parameter, args []string) string {
	bindings, atWords := bindArgs(params, args)
	quoted := make([]string, len(atWords))
	for i, w := range atWords {
		quoted[i] = shellQuote(w)
	}
	atValue := strings.Join(quoted, " ")

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '"' && strings.HasPrefix(template[i:], `"$@"`) {
			// The quoted form expands without its enclosing literal
			// quotes; each word is already quoted individually, and
			// keeping them would fuse the words into one.
			b.WriteString(atValue)
			i += 3
			continue
		}
		if c != '$' || i+1 == len(template) {
			b.WriteByte(c)
			continue
		}
		next := template[i+1]
		switch {
		case next == '{':
			end := strings.IndexByte(template[i+2:], '}')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			inner := template[i+2 : i+2+end]
			if value, ok := expandBraced(inner, bindings, args); ok {
				b.WriteString(value)
				i += 2 + end
				continue
			}
			b.WriteByte(c)
		case next == '@':
			b.WriteString(atValue)
			i++
		case next >= '1' && next <= '9':
			n := int(next - '0')
			if n <= len(args) {
				b.WriteString(args[n-1])
			}
			i++
		default:
			name := scanIdentifier(template[i+1:])
			if name == "" {
				b.WriteByte(c)
				continue
			}
			if value, ok := bindings[name]; ok {
				b.WriteString(value)
				i += len(name)
				continue
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// bindArgs maps positional arguments onto declared parameters. It returns
// the name bindings plus the word list `$@` expands to: the rest-parameter
// tail when a rest parameter exists, otherwise every provided argument.
func bindArgs(params []runfile.Parameter, args []string) (map[string]string, []string) {
	bindings := make(map[string]string, len(params))
	atWords := args
	for i, p := range params {
		switch {
		case p.Rest:
			var tail []string
			if i < len(args) {
				tail = args[i:]
			}
			bindings[p.Name] = strings.Join(tail, " ")
			atWords = tail
		case i < len(args):
			bindings[p.Name] = args[i]
		case p.HasDefault:
			bindings[p.Name] = p.Default
		default:
			log.Warn("missing required argument, substituting empty string",
				"parameter", p.Name)
			bindings[p.Name] = ""
		}
	}
	return bindings, atWords
}

// expandBraced handles the `${...}` forms the engine owns: `${name}` for a
// declared parameter, `${N}` and `${N:-default}` for legacy positionals.
// Anything else is left to the shell.
func expandBraced(inner string, bindings map[string]string, args []string) (string, bool) {
	if value, ok := bindings[inner]; ok {
		return value, true
	}
	numPart, defPart, hasDefault := strings.Cut(inner, ":-")
	n := parsePositional(numPart)
	if n == 0 {
		return "", false
	}
	if n <= len(args) {
		return args[n-1], true
	}
	if hasDefault {
		return defPart, true
	}
	return "", true
}

// parsePositional returns the positional index 1..9 named by s, or 0.
func parsePositional(s string) int {
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0
	}
	return int(s[0] - '0')
}

// scanIdentifier returns the leading identifier of s, or "".
func scanIdentifier(s string) string {
	n := 0
	for n < len(s) {
		c := s[n]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' ||
			(n > 0 && c >= '0' && c <= '9') {
			n++
			continue
		}
		break
	}
	return s[:n]
}

// shellQuote renders one word safe for the sh class, falling back to the
// raw word for input syntax.Quote cannot represent.
func shellQuote(w string) string {
	quoted, err := syntax.Quote(w, syntax.LangBash)
	if err != nil {
		return w
	}
	return quoted
}
