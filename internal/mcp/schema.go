// SPDX-License-Identifier: MPL-2.0

package mcp

import (
	"github.com/nihilok/run/internal/engine"
	"github.com/nihilok/run/pkg/runfile"
)

type (
	// Tool is one entry in a tools/list response.
	Tool struct {
		Name        string      `json:"name"`
		Description string      `json:"description"`
		InputSchema InputSchema `json:"inputSchema"`
	}

	// InputSchema is the JSON-schema object describing a tool's arguments.
	InputSchema struct {
		Type       string              `json:"type"`
		Properties map[string]Property `json:"properties"`
		Required   []string            `json:"required,omitempty"`
	}

	// Property describes one argument.
	Property struct {
		Type        string    `json:"type"`
		Description string    `json:"description,omitempty"`
		Items       *Property `json:"items,omitempty"`
		Default     string    `json:"default,omitempty"`
	}
)

// Tools builds the tool list for a table: every function carrying a @desc
// attribute becomes a tool named by its sanitized function name. Functions
// without a description stay private to the terminal user. The built-in
// session tools are appended after the manifest's.
func Tools(table *engine.FunctionTable) []Tool {
	var tools []Tool
	for _, name := range table.Names() {
		meta, ok := table.MetadataFor(name)
		if !ok {
			continue
		}
		desc := runfile.Description(meta.Attributes)
		if desc == "" {
			continue
		}
		tools = append(tools, Tool{
			Name:        engine.Sanitize(name),
			Description: desc,
			InputSchema: schemaFor(meta),
		})
	}
	return append(tools, builtinTools()...)
}

// builtinTools are session-state tools served alongside manifest functions.
// Agents drive long sessions out of one server process, so the working
// directory is exposed as state they can read and move.
func builtinTools() []Tool {
	return []Tool{
		{
			Name:        "get_cwd",
			Description: "Get the current working directory",
			InputSchema: InputSchema{Type: "object", Properties: map[string]Property{}},
		},
		{
			Name:        "set_cwd",
			Description: "Change the working directory for subsequent tool calls",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"path": {Type: "string", Description: "Directory to change to"},
				},
				Required: []string{"path"},
			},
		},
	}
}

// schemaFor maps declared parameters onto JSON-schema properties. Argument
// descriptions come from @arg attributes when present.
func schemaFor(meta engine.Metadata) InputSchema {
	docs := make(map[string]string)
	for _, d := range runfile.ArgDocs(meta.Attributes) {
		docs[d.Name] = d.Description
	}

	schema := InputSchema{
		Type:       "object",
		Properties: make(map[string]Property, len(meta.Params)),
	}
	for _, p := range meta.Params {
		prop := Property{
			Type:        jsonType(p),
			Description: docs[p.Name],
		}
		if p.Rest {
			prop.Items = &Property{Type: "string"}
		}
		if p.HasDefault {
			prop.Default = p.Default
		}
		schema.Properties[p.Name] = prop
		if !p.HasDefault && !p.Rest {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

func jsonType(p runfile.Parameter) string {
	if p.Rest {
		return "array"
	}
	switch p.Type {
	case runfile.ParamTypeInt:
		return "integer"
	case runfile.ParamTypeFloat:
		return "number"
	case runfile.ParamTypeBool:
		return "boolean"
	case runfile.ParamTypeObject:
		return "object"
	default:
		return "string"
	}
}
