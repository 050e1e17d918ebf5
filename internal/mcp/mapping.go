// SPDX-License-Identifier: MPL-2.0

package mcp

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nihilok/run/internal/engine"
)

// positionalArgs converts a tools/call JSON arguments object into the
// positional argument list the engine expects, by declared parameter order.
// Scalar values are rendered to their string form; object values are
// re-serialized as JSON; a rest parameter expands an array into the
// remaining positions. Parameters absent from the object fall back to their
// declared default (or the empty string) so later positions stay aligned.
func positionalArgs(meta engine.Metadata, arguments map[string]json.RawMessage) ([]string, error) {
	var args []string
	for i, p := range meta.Params {
		raw, present := arguments[p.Name]

		if p.Rest {
			if !present {
				break
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				// A scalar rest argument is forwarded as a single value.
				value, err := scalarString(raw)
				if err != nil {
					return nil, fmt.Errorf("argument %q: %w", p.Name, err)
				}
				args = append(args, value)
				break
			}
			for _, item := range items {
				value, err := scalarString(item)
				if err != nil {
					return nil, fmt.Errorf("argument %q: %w", p.Name, err)
				}
				args = append(args, value)
			}
			break
		}

		if !present {
			// Trailing omissions are simply dropped; the engine applies
			// defaults. A gap before a provided argument must be filled to
			// keep positions aligned.
			if !laterPresent(meta, i+1, arguments) {
				break
			}
			args = append(args, p.Default)
			continue
		}

		value, err := argumentString(raw)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", p.Name, err)
		}
		args = append(args, value)
	}
	return args, nil
}

func laterPresent(meta engine.Metadata, from int, arguments map[string]json.RawMessage) bool {
	for _, p := range meta.Params[from:] {
		if _, ok := arguments[p.Name]; ok {
			return true
		}
	}
	return false
}

// argumentString renders one JSON argument value for the command line.
// Objects and arrays stay JSON text (the engine's object coercion parses
// them again in the target language); scalars lose their JSON quoting.
func argumentString(raw json.RawMessage) (string, error) {
	if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
		if !json.Valid(raw) {
			return "", fmt.Errorf("invalid JSON value")
		}
		return string(raw), nil
	}
	return scalarString(raw)
}

// scalarString renders a JSON scalar as its plain string form.
func scalarString(raw json.RawMessage) (string, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("invalid value: %w", err)
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
