// SPDX-License-Identifier: MPL-2.0

package runfile

import "strings"

// Preprocess normalizes manifest text before parsing: CRLF line endings are
// converted to LF and backslash-continued lines are joined into one logical
// line. A trailing backslash at the very end of input is dropped.
//
// Joining preserves the continuation's leading whitespace handling of the
// shell: the backslash and the newline are removed and the next line is
// appended with its leading whitespace collapsed to a single space.
func Preprocess(src string) string {
	lines, _ := preprocessLines(src)
	return strings.Join(lines, "\n")
}

// preprocessLines returns the logical lines of normalized source together
// with the 1-based physical line each logical line started on, so parse
// errors keep pointing at the source a reader sees after continuations are
// joined.
func preprocessLines(src string) (lines []string, startLines []int) {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	raw := strings.Split(src, "\n")
	lines = make([]string, 0, len(raw))
	startLines = make([]int, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		start := i + 1
		line := raw[i]
		for hasContinuation(line) && i+1 < len(raw) {
			i++
			next := strings.TrimLeft(raw[i], " \t")
			line = strings.TrimRight(line[:len(line)-1], " \t") + " " + next
		}
		if hasContinuation(line) {
			// Continuation at EOF: nothing to join.
			line = line[:len(line)-1]
		}
		lines = append(lines, line)
		startLines = append(startLines, start)
	}
	return lines, startLines
}

// hasContinuation reports whether a line ends with an unescaped backslash.
func hasContinuation(line string) bool {
	n := 0
	for n < len(line) && line[len(line)-1-n] == '\\' {
		n++
	}
	// An odd run of trailing backslashes means the last one escapes the
	// newline; an even run is literal backslashes.
	return n%2 == 1
}
