// SPDX-License-Identifier: MPL-2.0

package runfile

import (
	"errors"
	"fmt"
)

const (
	// ParamTypeString is the default parameter type.
	ParamTypeString ParamType = "str"
	// ParamTypeInt is for integer parameters.
	ParamTypeInt ParamType = "int"
	// ParamTypeBool is for boolean parameters.
	ParamTypeBool ParamType = "bool"
	// ParamTypeFloat is for floating-point parameters.
	ParamTypeFloat ParamType = "float"
	// ParamTypeObject is for JSON-object parameters.
	ParamTypeObject ParamType = "object"
)

// ErrInvalidRestParam is the sentinel error wrapped by InvalidRestParamError.
var ErrInvalidRestParam = errors.New("invalid rest parameter")

type (
	// ParamType is the declared type of a function parameter.
	ParamType string

	// Parameter is a single entry in a function's declared parameter list:
	// name(param, other: int = 3, ...rest).
	Parameter struct {
		// Name is the parameter identifier, substitutable as $name / ${name}.
		Name string
		// Type is the declared type; defaults to ParamTypeString.
		Type ParamType
		// Default is the default value used when no argument is provided.
		Default string
		// HasDefault distinguishes an explicit empty default from no default.
		HasDefault bool
		// Rest marks a trailing ...name parameter capturing all remaining
		// call arguments.
		Rest bool
	}

	// InvalidRestParamError is returned when a rest parameter is not the last
	// parameter, carries a default, or appears more than once.
	InvalidRestParamError struct {
		Name   string
		Reason string
	}
)

// ParseParamType maps a type annotation to a ParamType. Both the short and
// long spellings are accepted (int/integer, bool/boolean, str/string,
// float/number, object/dict). Unknown annotations fall back to str.
func ParseParamType(s string) ParamType {
	switch s {
	case "int", "integer":
		return ParamTypeInt
	case "bool", "boolean":
		return ParamTypeBool
	case "float", "number":
		return ParamTypeFloat
	case "object", "dict":
		return ParamTypeObject
	default:
		return ParamTypeString
	}
}

// Error implements the error interface.
func (e *InvalidRestParamError) Error() string {
	return fmt.Sprintf("rest parameter %q %s", "..."+e.Name, e.Reason)
}

// Unwrap returns ErrInvalidRestParam for errors.Is compatibility.
func (e *InvalidRestParamError) Unwrap() error { return ErrInvalidRestParam }

// ValidateParams enforces the rest-parameter invariant: at most one rest
// parameter, it must be last, and it must not carry a default.
func ValidateParams(params []Parameter) error {
	for i, p := range params {
		if !p.Rest {
			continue
		}
		if p.HasDefault {
			return &InvalidRestParamError{Name: p.Name, Reason: "must not have a default value"}
		}
		if i != len(params)-1 {
			return &InvalidRestParamError{Name: p.Name, Reason: "must be the last parameter"}
		}
	}
	return nil
}
