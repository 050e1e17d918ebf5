// SPDX-License-Identifier: MPL-2.0

package runfile

type (
	// Program is the parsed form of one Runfile: an ordered sequence of
	// statements. Order matters for discovering the first matching
	// platform-guarded variant of a name and for project-over-global
	// overrides when merged manifests are loaded.
	Program struct {
		Statements []Statement
	}

	// Statement is the tagged union of top-level Runfile statements.
	// Exactly one of the payload pointers is non-nil, matching Kind.
	Statement struct {
		Kind StatementKind

		Assignment   *Assignment
		SimpleDef    *SimpleFunctionDef
		BlockDef     *BlockFunctionDef
		FunctionCall *FunctionCall

		// Line is the 1-based physical source line the statement starts
		// on, counted before continuation joining so it matches what a
		// reader sees in the file.
		Line int
	}

	// StatementKind discriminates the Statement union.
	StatementKind int

	// Assignment is a top-level `NAME="value"` variable definition, exported
	// into every composed script as a dialect-appropriate variable.
	Assignment struct {
		Name  string
		Value string
	}

	// SimpleFunctionDef is a function whose body is a single trailing
	// command on the definition line: `build() cargo build`.
	SimpleFunctionDef struct {
		Name            string
		Params          []Parameter
		CommandTemplate string
		Attributes      []Attribute
	}

	// BlockFunctionDef is a function whose body is a brace-delimited
	// multi-line block, optionally starting with a shebang.
	BlockFunctionDef struct {
		Name       string
		Params     []Parameter
		Commands   []string
		Attributes []Attribute
		// Shebang is the interpreter line of a `#!...` first body line,
		// without the `#!` prefix. The shebang line itself is stripped from
		// Commands.
		Shebang string
	}

	// FunctionCall is a top-level invocation of a previously defined
	// function, e.g. a bare `build` line or `deploy("staging")`.
	FunctionCall struct {
		Name string
		Args []string
	}
)

const (
	// StmtAssignment is a top-level variable assignment.
	StmtAssignment StatementKind = iota
	// StmtSimpleDef is a single-command function definition.
	StmtSimpleDef
	// StmtBlockDef is a brace-block function definition.
	StmtBlockDef
	// StmtFunctionCall is a top-level function call.
	StmtFunctionCall
)

// DefName returns the function name for definition statements and "" for
// other statement kinds.
func (s Statement) DefName() string {
	switch s.Kind {
	case StmtSimpleDef:
		return s.SimpleDef.Name
	case StmtBlockDef:
		return s.BlockDef.Name
	default:
		return ""
	}
}

// DefAttributes returns the attribute list for definition statements and nil
// for other statement kinds.
func (s Statement) DefAttributes() []Attribute {
	switch s.Kind {
	case StmtSimpleDef:
		return s.SimpleDef.Attributes
	case StmtBlockDef:
		return s.BlockDef.Attributes
	default:
		return nil
	}
}

// DefParams returns the parameter list for definition statements and nil for
// other statement kinds.
func (s Statement) DefParams() []Parameter {
	switch s.Kind {
	case StmtSimpleDef:
		return s.SimpleDef.Params
	case StmtBlockDef:
		return s.BlockDef.Params
	default:
		return nil
	}
}

// Description returns the text of the first @desc attribute, if any.
func Description(attrs []Attribute) string {
	for _, a := range attrs {
		if a.Kind == AttrDesc {
			return a.Desc
		}
	}
	return ""
}

// ArgDocs returns all @arg attributes in source order.
func ArgDocs(attrs []Attribute) []ArgDoc {
	var docs []ArgDoc
	for _, a := range attrs {
		if a.Kind == AttrArg {
			docs = append(docs, a.Arg)
		}
	}
	return docs
}

// OSGuards returns all @os attributes in source order.
func OSGuards(attrs []Attribute) []Platform {
	var guards []Platform
	for _, a := range attrs {
		if a.Kind == AttrOS {
			guards = append(guards, a.OS)
		}
	}
	return guards
}

// ShellAttr returns the raw interpreter name of the first @shell attribute,
// or "" when none is present.
func ShellAttr(attrs []Attribute) string {
	for _, a := range attrs {
		if a.Kind == AttrShell {
			return a.Shell
		}
	}
	return ""
}

// MatchesPlatform reports whether a statement's @os guards admit the host.
// No @os attribute means the function is available everywhere; with guards
// present, any single match admits the host.
func MatchesPlatform(attrs []Attribute, hostOS string) bool {
	guards := OSGuards(attrs)
	if len(guards) == 0 {
		return true
	}
	for _, g := range guards {
		if g.Matches(hostOS) {
			return true
		}
	}
	return false
}
