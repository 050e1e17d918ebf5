// SPDX-License-Identifier: MPL-2.0

package runfile

import (
	"errors"
	"fmt"
)

// ErrParse is the sentinel error wrapped by ParseError.
var ErrParse = errors.New("runfile parse error")

// ParseError reports a statement that could not be parsed, with its
// one-based source position in the preprocessed text.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

// Unwrap returns ErrParse for errors.Is compatibility.
func (e *ParseError) Unwrap() error { return ErrParse }
