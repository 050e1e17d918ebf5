// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nihilok/run/pkg/runfile"
)

// ErrFunctionNotFound is the sentinel error wrapped by FunctionNotFoundError.
var ErrFunctionNotFound = errors.New("function not found")

type (
	// FunctionTable is the load-time view of one Runfile: every function
	// whose platform guard admits the host, in insertion order, plus the
	// top-level variables and calls. The table is immutable after Load;
	// concurrent invocations may share it freely.
	FunctionTable struct {
		hostOS       string
		defaultShell Resolution

		names []string
		funcs map[string]*Function
		vars  []Variable
		calls []runfile.FunctionCall
	}

	// Function is one table entry: the raw stored body plus everything the
	// composer and substitution engine need to know about it.
	Function struct {
		Name    string
		Body    string
		IsBlock bool
		Meta    Metadata
		// Resolution is the interpreter governing this body, fixed at load.
		Resolution Resolution
	}

	// Metadata is the per-function metadata surface consumed by collaborators
	// (listing, inspection, tool-schema generation).
	Metadata struct {
		Attributes []runfile.Attribute
		Shebang    string
		Params     []runfile.Parameter
	}

	// Variable is a top-level `NAME="value"` assignment, exported into every
	// composed script.
	Variable struct {
		Name  string
		Value string
	}

	// FunctionNotFoundError is returned by Invoke for an unknown name. It is
	// fatal for that call only.
	FunctionNotFoundError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function %q is not defined in the Runfile", e.Name)
}

// Unwrap returns ErrFunctionNotFound for errors.Is compatibility.
func (e *FunctionNotFoundError) Unwrap() error { return ErrFunctionNotFound }

// Load derives a FunctionTable from a parsed program. Platform filtering
// happens here, once: definitions whose @os guard does not match hostOS are
// never inserted. When several definitions share a name, the last one that
// passes the filter wins, which is what makes project manifests override
// merged-in global ones. defaultShell participates in interpreter resolution
// so it must be an explicit value, not ambient state.
func Load(prog *runfile.Program, hostOS string, defaultShell Resolution) *FunctionTable {
	t := &FunctionTable{
		hostOS:       hostOS,
		defaultShell: defaultShell,
		funcs:        make(map[string]*Function),
	}
	for _, stmt := range prog.Statements {
		switch stmt.Kind {
		case runfile.StmtAssignment:
			t.setVariable(stmt.Assignment.Name, stmt.Assignment.Value)
		case runfile.StmtSimpleDef:
			def := stmt.SimpleDef
			if !runfile.MatchesPlatform(def.Attributes, hostOS) {
				continue
			}
			t.insert(&Function{
				Name:    def.Name,
				Body:    def.CommandTemplate,
				IsBlock: false,
				Meta: Metadata{
					Attributes: def.Attributes,
					Params:     def.Params,
				},
			})
		case runfile.StmtBlockDef:
			def := stmt.BlockDef
			if !runfile.MatchesPlatform(def.Attributes, hostOS) {
				continue
			}
			t.insert(&Function{
				Name:    def.Name,
				Body:    strings.Join(def.Commands, "\n"),
				IsBlock: true,
				Meta: Metadata{
					Attributes: def.Attributes,
					Shebang:    def.Shebang,
					Params:     def.Params,
				},
			})
		case runfile.StmtFunctionCall:
			t.calls = append(t.calls, *stmt.FunctionCall)
		}
	}
	for _, name := range t.names {
		f := t.funcs[name]
		f.Resolution = ResolveInterpreter(f.Meta.Attributes, f.Meta.Shebang, defaultShell)
	}
	return t
}

func (t *FunctionTable) insert(f *Function) {
	if _, exists := t.funcs[f.Name]; !exists {
		t.names = append(t.names, f.Name)
	}
	t.funcs[f.Name] = f
}

func (t *FunctionTable) setVariable(name, value string) {
	for i := range t.vars {
		if t.vars[i].Name == name {
			t.vars[i].Value = value
			return
		}
	}
	t.vars = append(t.vars, Variable{Name: name, Value: value})
}

// Names returns the function names in table order.
func (t *FunctionTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Lookup returns the table entry for name.
func (t *FunctionTable) Lookup(name string) (*Function, bool) {
	f, ok := t.funcs[name]
	return f, ok
}

// MetadataFor returns the metadata surface for one function.
func (t *FunctionTable) MetadataFor(name string) (Metadata, bool) {
	f, ok := t.funcs[name]
	if !ok {
		return Metadata{}, false
	}
	return f.Meta, true
}

// Variables returns the top-level variables in declaration order.
func (t *FunctionTable) Variables() []Variable {
	out := make([]Variable, len(t.vars))
	copy(out, t.vars)
	return out
}

// TopLevelCalls returns the top-level function calls in source order. These
// run when the CLI is invoked without a function name.
func (t *FunctionTable) TopLevelCalls() []runfile.FunctionCall {
	out := make([]runfile.FunctionCall, len(t.calls))
	copy(out, t.calls)
	return out
}

// DefaultShell returns the default shell the table was loaded with.
func (t *FunctionTable) DefaultShell() Resolution { return t.defaultShell }

// HostOS returns the host OS identifier the table was filtered for.
func (t *FunctionTable) HostOS() string { return t.hostOS }
