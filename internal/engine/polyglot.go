// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"fmt"
	"strings"

	"github.com/nihilok/run/pkg/runfile"
)

// BuildPolyglotScript prepends a typed variable-declaration preamble to a
// python, node, or ruby body. Polyglot bodies never receive shell-style text
// substitution; instead each declared parameter becomes a declaration in the
// target language, extracting from its process-argument array with type
// coercion per the declared type. Parameters with defaults get a conditional
// declaration on argv length; required parameters without an argument still
// get a declaration bound to the type's zero value at runtime.
//
// The call arguments themselves are passed to the interpreter after the
// script (see Executor), so the preamble only has to index into argv.
func BuildPolyglotScript(f *Function) string {
	var decls []string
	switch f.Resolution.Interpreter {
	case Python:
		decls = pythonPreamble(f.Meta.Params)
	case Node:
		decls = nodePreamble(f.Meta.Params)
	case Ruby:
		decls = rubyPreamble(f.Meta.Params)
	}

	if len(decls) == 0 {
		return f.Body
	}
	return strings.Join(decls, "\n") + "\n" + f.Body
}

// pythonPreamble emits declarations indexing sys.argv. With `python -c
// <script> a b`, sys.argv[0] is "-c" and the first call argument is
// sys.argv[1].
func pythonPreamble(params []runfile.Parameter) []string {
	if len(params) == 0 {
		return nil
	}
	decls := []string{"import sys"}
	if hasObjectParam(params) {
		decls = append(decls, "import json")
	}
	for i, p := range params {
		argv := fmt.Sprintf("sys.argv[%d]", i+1)
		if p.Rest {
			decls = append(decls, fmt.Sprintf("%s = \" \".join(sys.argv[%d:])", p.Name, i+1))
			continue
		}
		var value, fallback string
		switch p.Type {
		case runfile.ParamTypeInt:
			value, fallback = "int("+argv+")", "0"
		case runfile.ParamTypeFloat:
			value, fallback = "float("+argv+")", "0.0"
		case runfile.ParamTypeBool:
			value = argv + `.lower() in ("true", "1", "yes")`
			fallback = "False"
		case runfile.ParamTypeObject:
			value, fallback = "json.loads("+argv+")", "None"
		default:
			value, fallback = argv, `""`
		}
		if p.HasDefault {
			fallback = polyglotDefault(p, pyStringLiteral, "None", "True", "False")
		}
		decls = append(decls, fmt.Sprintf("%s = %s if len(sys.argv) > %d else %s",
			p.Name, value, i+1, fallback))
	}
	return decls
}

// nodePreamble emits declarations indexing process.argv. With `node -e
// <script> a b`, process.argv[0] is the node binary and the first call
// argument is process.argv[1].
func nodePreamble(params []runfile.Parameter) []string {
	if len(params) == 0 {
		return nil
	}
	var decls []string
	for i, p := range params {
		argv := fmt.Sprintf("process.argv[%d]", i+1)
		if p.Rest {
			decls = append(decls, fmt.Sprintf("const %s = process.argv.slice(%d).join(\" \");",
				p.Name, i+1))
			continue
		}
		var value, fallback string
		switch p.Type {
		case runfile.ParamTypeInt:
			value, fallback = "parseInt("+argv+", 10)", "0"
		case runfile.ParamTypeFloat:
			value, fallback = "parseFloat("+argv+")", "0"
		case runfile.ParamTypeBool:
			value = `["true", "1", "yes"].includes(` + argv + `.toLowerCase())`
			fallback = "false"
		case runfile.ParamTypeObject:
			value, fallback = "JSON.parse("+argv+")", "null"
		default:
			value, fallback = argv, `""`
		}
		if p.HasDefault {
			fallback = polyglotDefault(p, jsStringLiteral, "null", "true", "false")
		}
		decls = append(decls, fmt.Sprintf("const %s = process.argv.length > %d ? %s : %s;",
			p.Name, i+1, value, fallback))
	}
	return decls
}

// rubyPreamble emits declarations indexing ARGV, which holds exactly the
// call arguments with `ruby -e <script> a b`.
func rubyPreamble(params []runfile.Parameter) []string {
	if len(params) == 0 {
		return nil
	}
	var decls []string
	if hasObjectParam(params) {
		decls = append(decls, "require 'json'")
	}
	for i, p := range params {
		argv := fmt.Sprintf("ARGV[%d]", i)
		if p.Rest {
			decls = append(decls, fmt.Sprintf("%s = ARGV[%d..].to_a.join(\" \")", p.Name, i))
			continue
		}
		var value, fallback string
		switch p.Type {
		case runfile.ParamTypeInt:
			value, fallback = argv+".to_i", "0"
		case runfile.ParamTypeFloat:
			value, fallback = argv+".to_f", "0.0"
		case runfile.ParamTypeBool:
			value = `["true", "1", "yes"].include?(` + argv + `.downcase)`
			fallback = "false"
		case runfile.ParamTypeObject:
			value, fallback = "JSON.parse("+argv+")", "nil"
		default:
			value, fallback = argv, `""`
		}
		if p.HasDefault {
			fallback = polyglotDefault(p, rubyStringLiteral, "nil", "true", "false")
		}
		decls = append(decls, fmt.Sprintf("%s = ARGV.length > %d ? %s : %s",
			p.Name, i, value, fallback))
	}
	return decls
}

// polyglotDefault renders a declared default value as a target-language
// literal. Numeric defaults are emitted raw, booleans via the same truthy
// rule used at runtime, strings through the language's quoting, and object
// defaults as the language's null (a JSON-object default in manifest text is
// not round-trippable into a safe literal without parsing it here).
func polyglotDefault(p runfile.Parameter, quote func(string) string, null, trueLit, falseLit string) string {
	switch p.Type {
	case runfile.ParamTypeInt, runfile.ParamTypeFloat:
		return p.Default
	case runfile.ParamTypeBool:
		switch strings.ToLower(p.Default) {
		case "true", "1", "yes":
			return trueLit
		default:
			return falseLit
		}
	case runfile.ParamTypeObject:
		return null
	default:
		return quote(p.Default)
	}
}

func hasObjectParam(params []runfile.Parameter) bool {
	for _, p := range params {
		if p.Type == runfile.ParamTypeObject {
			return true
		}
	}
	return false
}

func pyStringLiteral(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func jsStringLiteral(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func rubyStringLiteral(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, `#`, `\#`).Replace(s) + `"`
}
