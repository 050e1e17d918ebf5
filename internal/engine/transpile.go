// SPDX-License-Identifier: MPL-2.0

package engine

import "strings"

// Sanitize flattens a namespaced function name into a legal shell
// identifier: every `:` becomes a double underscore, so `docker:build`
// defines `docker__build` in the composed script.
func Sanitize(name string) string {
	return strings.ReplaceAll(name, ":", "__")
}

// Transpile renders a stored function body as a syntactically valid function
// definition in the target dialect: `name() { … }` for the sh class and
// `function name { … }` for pwsh. Only the shell dialects have a
// transpilable function syntax; callers must not pass a polyglot
// interpreter.
func Transpile(name, body string, isBlock bool, dialect Interpreter) string {
	var b strings.Builder
	if dialect == Pwsh {
		b.WriteString("function ")
		b.WriteString(Sanitize(name))
		b.WriteString(" {\n")
	} else {
		b.WriteString(Sanitize(name))
		b.WriteString("() {\n")
	}
	for _, line := range strings.Split(body, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("}")
	return b.String()
}

// RewriteCallSites replaces whole-word occurrences of namespaced sibling
// names in a body with their sanitized forms, so calls inside a composed
// script resolve against the identifiers the preamble actually defines.
// Names without a `:` are left alone; they are already legal identifiers.
func RewriteCallSites(body string, siblingNames []string) string {
	for _, name := range siblingNames {
		if !strings.Contains(name, ":") {
			continue
		}
		body = replaceWholeWord(body, name, Sanitize(name))
	}
	return body
}

// replaceWholeWord substitutes old for new wherever old is not embedded in a
// longer function-name token. Function-name characters are letters, digits,
// `_`, `:` and `-`.
func replaceWholeWord(s, old, new string) string {
	var b strings.Builder
	for {
		idx := strings.Index(s, old)
		if idx < 0 {
			b.WriteString(s)
			return b.String()
		}
		beforeOK := idx == 0 || !isNameChar(s[idx-1])
		afterOK := idx+len(old) == len(s) || !isNameChar(s[idx+len(old)])
		b.WriteString(s[:idx])
		if beforeOK && afterOK {
			b.WriteString(new)
		} else {
			b.WriteString(old)
		}
		s = s[idx+len(old):]
	}
}

func isNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == ':', c == '-':
		return true
	default:
		return false
	}
}
