// SPDX-License-Identifier: MPL-2.0

package runfile

import (
	"strconv"
	"strings"
)

// Parse turns Runfile manifest text into a Program. The input is
// preprocessed first (CRLF normalization, backslash-continuation joining).
// Parsing stops at the first statement that cannot be recognized and returns
// a *ParseError for it.
func Parse(src string) (*Program, error) {
	lines, nums := preprocessLines(src)
	prog := &Program{}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if name, value, ok := parseAssignment(line); ok {
			prog.Statements = append(prog.Statements, Statement{
				Kind:       StmtAssignment,
				Assignment: &Assignment{Name: name, Value: value},
				Line:       nums[i],
			})
			continue
		}

		stmt, next, ok, err := parseFunctionDef(lines, nums, i)
		if err != nil {
			return nil, err
		}
		if ok {
			prog.Statements = append(prog.Statements, stmt)
			i = next
			continue
		}

		if call, ok := parseFunctionCall(line); ok {
			prog.Statements = append(prog.Statements, Statement{
				Kind:         StmtFunctionCall,
				FunctionCall: call,
				Line:         nums[i],
			})
			continue
		}

		return nil, &ParseError{Line: nums[i], Col: 1, Msg: "unrecognized statement: " + line}
	}

	return prog, nil
}

// parseAssignment recognizes a top-level `NAME=value` line. The value may be
// quoted; one pair of surrounding quotes is stripped.
func parseAssignment(line string) (name, value string, ok bool) {
	eq := strings.IndexByte(line, '=')
	if eq <= 0 {
		return "", "", false
	}
	name = line[:eq]
	if !isIdentifier(name) {
		return "", "", false
	}
	return name, stripQuotes(line[eq+1:]), true
}

// parseFunctionDef recognizes `name(params) command`, `name(params) { ... }`
// and the `function name(params)` spelling. It returns the index of the last
// consumed line so the caller can resume after multi-line blocks.
func parseFunctionDef(lines []string, nums []int, lineIdx int) (Statement, int, bool, error) {
	line := strings.TrimSpace(lines[lineIdx])
	rest, hadKeyword := strings.CutPrefix(line, "function ")
	rest = strings.TrimSpace(rest)

	open := strings.IndexByte(rest, '(')
	if open <= 0 {
		return Statement{}, 0, false, nil
	}
	name := strings.TrimSpace(rest[:open])
	if !isFunctionName(name) {
		return Statement{}, 0, false, nil
	}

	closeIdx := matchingParen(rest, open)
	if closeIdx < 0 {
		if !hadKeyword {
			// Not obviously a definition; let the caller try other forms.
			return Statement{}, 0, false, nil
		}
		return Statement{}, 0, false, &ParseError{
			Line: nums[lineIdx], Col: open + 1,
			Msg: "unterminated parameter list for function " + name,
		}
	}

	tail := strings.TrimSpace(rest[closeIdx+1:])
	if tail == "" && !hadKeyword {
		// `name()` with no body and no keyword is a call, not a definition.
		return Statement{}, 0, false, nil
	}

	params, err := parseParams(rest[open+1:closeIdx], nums[lineIdx])
	if err != nil {
		return Statement{}, 0, false, err
	}
	if err := ValidateParams(params); err != nil {
		return Statement{}, 0, false, &ParseError{
			Line: nums[lineIdx], Col: open + 1,
			Msg: err.Error(),
		}
	}

	attrs := ScanAttributes(lines, lineIdx)

	if !strings.HasPrefix(tail, "{") {
		if tail == "" {
			return Statement{}, 0, false, &ParseError{
				Line: nums[lineIdx], Col: closeIdx + 2,
				Msg: "function " + name + " has no body",
			}
		}
		return Statement{
			Kind: StmtSimpleDef,
			SimpleDef: &SimpleFunctionDef{
				Name:            name,
				Params:          params,
				CommandTemplate: tail,
				Attributes:      attrs,
			},
			Line: nums[lineIdx],
		}, lineIdx, true, nil
	}

	// Locate the body's opening brace in the original line, skipping any
	// braces inside the parameter list (object-typed defaults).
	base := strings.Index(lines[lineIdx], rest)
	braceCol := base + closeIdx + strings.IndexByte(rest[closeIdx:], '{')
	content, endLine, ok := matchBlock(lines, lineIdx, braceCol)
	if !ok {
		return Statement{}, 0, false, &ParseError{
			Line: nums[lineIdx], Col: braceCol + 1,
			Msg: "unterminated block for function " + name,
		}
	}

	shebang, commands := splitBlockBody(content, attrs)
	return Statement{
		Kind: StmtBlockDef,
		BlockDef: &BlockFunctionDef{
			Name:       name,
			Params:     params,
			Commands:   commands,
			Attributes: attrs,
			Shebang:    shebang,
		},
		Line: nums[lineIdx],
	}, endLine, true, nil
}

// parseFunctionCall recognizes `name` and `name(arg, ...)` call lines.
func parseFunctionCall(line string) (*FunctionCall, bool) {
	if isFunctionName(line) {
		return &FunctionCall{Name: line}, true
	}
	open := strings.IndexByte(line, '(')
	if open <= 0 || !strings.HasSuffix(line, ")") {
		return nil, false
	}
	name := strings.TrimSpace(line[:open])
	if !isFunctionName(name) {
		return nil, false
	}
	closeIdx := matchingParen(line, open)
	if closeIdx != len(line)-1 {
		return nil, false
	}
	var args []string
	inner := strings.TrimSpace(line[open+1 : closeIdx])
	if inner != "" {
		for _, raw := range splitTopLevel(inner, ',') {
			args = append(args, stripQuotes(strings.TrimSpace(raw)))
		}
	}
	return &FunctionCall{Name: name, Args: args}, true
}

// parseParams parses a declared parameter list: `a, b: int = 3, ...rest`.
// lineNum is the 1-based physical source line, for error reporting.
func parseParams(s string, lineNum int) ([]Parameter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var params []Parameter
	for _, raw := range splitTopLevel(s, ',') {
		p, err := parseParam(strings.TrimSpace(raw), lineNum)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// parseParam parses one declared parameter: an optional `...` rest marker,
// the name, an optional `: type` annotation, and an optional `= default`.
func parseParam(s string, lineNum int) (Parameter, error) {
	var p Parameter

	head := s
	if eq := indexTopLevel(s, '='); eq >= 0 {
		head = strings.TrimSpace(s[:eq])
		p.Default = stripQuotes(strings.TrimSpace(s[eq+1:]))
		p.HasDefault = true
	}

	if colon := indexTopLevel(head, ':'); colon >= 0 {
		p.Type = ParseParamType(strings.TrimSpace(head[colon+1:]))
		head = strings.TrimSpace(head[:colon])
	} else {
		p.Type = ParamTypeString
	}

	if rest, ok := strings.CutPrefix(head, "..."); ok {
		p.Rest = true
		head = strings.TrimSpace(rest)
	}

	if !isIdentifier(head) {
		return Parameter{}, &ParseError{
			Line: lineNum, Col: 1,
			Msg: "invalid parameter name " + strconv.Quote(head),
		}
	}
	p.Name = head
	return p, nil
}

// splitBlockBody turns raw brace-block content into the stored command list.
// A leading shebang line is extracted and stripped. Single-line bodies are
// split on top-level semicolons unless a @shell attribute selects a custom
// interpreter, whose syntax may use `;` differently.
func splitBlockBody(content string, attrs []Attribute) (shebang string, commands []string) {
	content = strings.Trim(content, "\n")

	if !strings.Contains(content, "\n") {
		line := strings.TrimSpace(content)
		if line == "" {
			return "", nil
		}
		if ShellAttr(attrs) != "" {
			return "", []string{line}
		}
		for _, cmd := range splitTopLevel(line, ';') {
			if cmd = strings.TrimSpace(cmd); cmd != "" {
				commands = append(commands, cmd)
			}
		}
		return "", commands
	}

	lines := dedent(strings.Split(content, "\n"))

	// Trim blank edge lines.
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "#!") {
		shebang = strings.TrimSpace(strings.TrimSpace(lines[0])[2:])
		lines = lines[1:]
		for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
			lines = lines[1:]
		}
	}

	return shebang, lines
}

// dedent strips the longest common leading whitespace prefix shared by all
// non-blank lines. Inner relative indentation is preserved so embedded
// Python bodies survive intact.
func dedent(lines []string) []string {
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		for !strings.HasPrefix(line, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if prefix == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = ""
			continue
		}
		out[i] = strings.TrimPrefix(line, prefix)
	}
	return out
}

// matchBlock scans forward from the opening brace at (startLine, braceCol),
// tracking brace depth outside quoted strings and comments, and returns the
// raw content between the braces plus the line index of the closing brace.
func matchBlock(lines []string, startLine, braceCol int) (content string, endLine int, ok bool) {
	var b strings.Builder
	depth := 0
	inSingle, inDouble := false, false

	for li := startLine; li < len(lines); li++ {
		line := lines[li]
		start := 0
		if li == startLine {
			start = braceCol
		}
		inComment := false
		for ci := start; ci < len(line); ci++ {
			c := line[ci]
			if inComment {
				if depth > 0 {
					b.WriteByte(c)
				}
				continue
			}
			switch {
			case inSingle:
				if c == '\'' {
					inSingle = false
				}
			case inDouble:
				if c == '\\' && ci+1 < len(line) {
					if depth > 0 {
						b.WriteByte(c)
					}
					ci++
					c = line[ci]
				} else if c == '"' {
					inDouble = false
				}
			case c == '\'':
				inSingle = true
			case c == '"':
				inDouble = true
			case c == '#' && (ci == start || line[ci-1] == ' ' || line[ci-1] == '\t'):
				inComment = true
			case c == '{':
				depth++
				if depth == 1 {
					continue
				}
			case c == '}':
				depth--
				if depth == 0 {
					return b.String(), li, true
				}
			}
			if depth > 0 {
				b.WriteByte(c)
			}
		}
		// Quote state does not carry across lines; a quote left open on one
		// line is treated as unterminated rather than swallowing the rest of
		// the block.
		inSingle, inDouble = false, false
		if depth > 0 {
			b.WriteByte('\n')
		}
	}
	return "", 0, false
}

// matchingParen returns the index of the `)` matching the `(` at open,
// respecting quotes and nesting, or -1 when unmatched on this line.
func matchingParen(s string, open int) int {
	depth := 0
	inSingle, inDouble := false, false
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '\\' {
				i++
			} else if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on sep occurrences that are outside quotes and outside
// any (), [], {} nesting.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inSingle, inDouble := false, false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '\\' {
				i++
			} else if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// indexTopLevel returns the index of the first sep outside quotes and
// nesting, or -1.
func indexTopLevel(s string, sep byte) int {
	depth := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '\\' {
				i++
			} else if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			return i
		}
	}
	return -1
}

// isIdentifier reports whether s is a plain identifier: a letter or
// underscore followed by letters, digits, and underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// isFunctionName reports whether s is a valid function name. Function names
// extend identifiers with `:` namespace separators and `-` hyphens, as in
// `ci:lint-fix`.
func isFunctionName(s string) bool {
	if s == "" || !isIdentifierStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == ':', c == '-':
		default:
			return false
		}
	}
	return true
}

func isIdentifierStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
