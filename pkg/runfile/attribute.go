// SPDX-License-Identifier: MPL-2.0

package runfile

import "strings"

type (
	// Attribute is a parsed `# @key value` comment line attached to the
	// statement immediately below it. Exactly one of the value fields is
	// meaningful for a given Kind.
	Attribute struct {
		Kind AttributeKind
		// Desc holds the description text for AttrDesc.
		Desc string
		// Arg holds the argument documentation for AttrArg.
		Arg ArgDoc
		// OS holds the platform guard for AttrOS.
		OS Platform
		// Shell holds the raw interpreter name for AttrShell. The name is
		// resolved (and possibly rejected with a warning) at load time, not
		// at parse time.
		Shell string
	}

	// AttributeKind discriminates the Attribute union.
	AttributeKind int

	// ArgDoc documents a single argument: `# @arg <name> <description>`.
	ArgDoc struct {
		Name        string
		Description string
	}
)

const (
	// AttrDesc is a `# @desc <text>` function description.
	AttrDesc AttributeKind = iota
	// AttrArg is a `# @arg <name> <description>` argument description.
	AttrArg
	// AttrOS is a `# @os <platform>` platform guard.
	AttrOS
	// AttrShell is a `# @shell <interpreter>` interpreter selection.
	AttrShell
)

// IsAttributeLine reports whether a (trimmed) comment line is an attribute
// comment, i.e. begins with "# @" or "#@".
func IsAttributeLine(line string) bool {
	return strings.HasPrefix(line, "# @") || strings.HasPrefix(line, "#@")
}

// ParseAttributeLine parses a single `# @key value` line. Lines that look
// like attributes but do not parse (unknown key, missing value) return
// ok == false and are ignored by the scanner.
func ParseAttributeLine(line string) (Attribute, bool) {
	line = strings.TrimSpace(line)

	var rest string
	switch {
	case strings.HasPrefix(line, "# @"):
		rest = line[len("# @"):]
	case strings.HasPrefix(line, "#@"):
		rest = line[len("#@"):]
	default:
		return Attribute{}, false
	}

	if text, ok := strings.CutPrefix(rest, "desc "); ok {
		return Attribute{Kind: AttrDesc, Desc: stripQuotes(text)}, true
	}
	if text, ok := strings.CutPrefix(rest, "arg "); ok {
		return parseArgAttribute(text)
	}

	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return Attribute{}, false
	}
	switch fields[0] {
	case "os":
		platform, ok := ParsePlatform(fields[1])
		if !ok {
			return Attribute{}, false
		}
		return Attribute{Kind: AttrOS, OS: platform}, true
	case "shell":
		return Attribute{Kind: AttrShell, Shell: fields[1]}, true
	default:
		return Attribute{}, false
	}
}

// parseArgAttribute parses `@arg <name> <description>`.
func parseArgAttribute(text string) (Attribute, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Attribute{}, false
	}
	doc := ArgDoc{Name: fields[0]}
	if len(fields) > 1 {
		doc.Description = stripQuotes(strings.Join(fields[1:], " "))
	}
	return Attribute{Kind: AttrArg, Arg: doc}, true
}

// ScanAttributes walks upward from the line above a statement through the
// contiguous block of attribute comment lines, stopping at the first blank
// or non-attribute line. lines is the preprocessed source; stmtLine is the
// zero-based index of the statement's first line.
func ScanAttributes(lines []string, stmtLine int) []Attribute {
	var collected []Attribute
	for i := stmtLine - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !IsAttributeLine(line) {
			break
		}
		if attr, ok := ParseAttributeLine(line); ok {
			collected = append(collected, attr)
		}
	}
	// Collected bottom-up; restore source order.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected
}

// stripQuotes removes one pair of surrounding single or double quotes.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
