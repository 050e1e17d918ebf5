// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"strings"

	"github.com/charmbracelet/log"
)

// BuildScript assembles the single script string handed to the executor for
// one invocation of the named function.
//
// For shell-dialect targets the payload is: variable preamble (every
// top-level assignment as a dialect-appropriate variable), then a function
// preamble of every composition-compatible sibling transpiled from its raw
// stored body in table order, then the target's own body with namespaced
// call sites rewritten. Argument substitution is applied over the combined
// text. The target never appears in its own preamble, and siblings are
// always inlined from raw bodies, never from composed payloads, so preamble
// growth cannot recurse.
//
// Polyglot targets (python, node, ruby) skip composition and shell
// substitution entirely; they get a typed variable-declaration preamble
// instead.
func BuildScript(name string, args []string, table *FunctionTable) (string, Resolution, error) {
	target, ok := table.Lookup(name)
	if !ok {
		return "", Resolution{}, &FunctionNotFoundError{Name: name}
	}

	if !target.Resolution.Interpreter.IsShellDialect() {
		return BuildPolyglotScript(target), target.Resolution, nil
	}

	dialect := target.Resolution.Interpreter
	var b strings.Builder

	for _, v := range table.Variables() {
		b.WriteString(variableAssignment(v, dialect))
		b.WriteByte('\n')
	}

	var compatibleNames []string
	for _, sibling := range table.Names() {
		if sibling == name {
			continue
		}
		f, _ := table.Lookup(sibling)
		if !Compatible(f.Resolution.Interpreter, dialect) {
			warnIncompatibleReference(target, f)
			continue
		}
		compatibleNames = append(compatibleNames, sibling)
		body := RewriteCallSites(f.Body, siblingsOf(table, sibling))
		b.WriteString(Transpile(sibling, body, f.IsBlock, dialect))
		b.WriteByte('\n')
	}

	b.WriteString(RewriteCallSites(target.Body, compatibleNames))

	script := Substitute(b.String(), target.Meta.Params, args)
	return script, target.Resolution, nil
}

// siblingsOf returns every table name except the given one.
func siblingsOf(table *FunctionTable, name string) []string {
	var out []string
	for _, n := range table.Names() {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

// variableAssignment renders one top-level variable for the target dialect.
func variableAssignment(v Variable, dialect Interpreter) string {
	if dialect == Pwsh {
		return "$" + v.Name + " = \"" + pwshEscape(v.Value) + "\""
	}
	return v.Name + "=" + shellQuote(v.Value)
}

// pwshEscape escapes a value for a double-quoted PowerShell string: backtick
// is the escape character, and `$` must not trigger expansion.
func pwshEscape(s string) string {
	r := strings.NewReplacer("`", "``", "\"", "`\"", "$", "`$")
	return r.Replace(s)
}

// warnIncompatibleReference emits the best-effort warning for a target body
// that appears to call a sibling from another compatibility class. The match
// is lexical and heuristic; nothing is rewritten.
func warnIncompatibleReference(target, sibling *Function) {
	if !containsWholeWord(target.Body, sibling.Name) {
		return
	}
	log.Warn("function references a sibling with an incompatible interpreter; it will not be inlined",
		"function", target.Name,
		"sibling", sibling.Name,
		"interpreter", target.Resolution.Interpreter.String(),
		"sibling_interpreter", sibling.Resolution.Interpreter.String())
}

// containsWholeWord reports whether name occurs in body outside a longer
// function-name token.
func containsWholeWord(body, name string) bool {
	for from := 0; ; {
		idx := strings.Index(body[from:], name)
		if idx < 0 {
			return false
		}
		idx += from
		beforeOK := idx == 0 || !isNameChar(body[idx-1])
		afterOK := idx+len(name) == len(body) || !isNameChar(body[idx+len(name)])
		if beforeOK && afterOK {
			return true
		}
		from = idx + len(name)
	}
}
