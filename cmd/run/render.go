// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/nihilok/run/internal/engine"
	"github.com/nihilok/run/pkg/runfile"
)

// list prints every available function with its signature and description.
func (a *app) list(out io.Writer) error {
	names := a.table.Names()
	if len(names) == 0 {
		fmt.Fprintln(out, SubtitleStyle.Render("No functions defined in "+a.source.Path))
		return nil
	}

	fmt.Fprintln(out, TitleStyle.Render("Functions")+SubtitleStyle.Render(" ("+a.source.Path+")"))
	for _, name := range names {
		meta, _ := a.table.MetadataFor(name)
		line := "  " + FuncStyle.Render(signature(name, meta.Params))
		if desc := runfile.Description(meta.Attributes); desc != "" {
			line += SubtitleStyle.Render("  " + desc)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// inspect renders one function's full metadata as markdown.
func (a *app) inspect(out io.Writer, name string) error {
	resolved, _, ok := a.resolveName([]string{name})
	if !ok {
		return a.unknownFunction(name)
	}
	f, _ := a.table.Lookup(resolved)
	md := inspectMarkdown(f)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprint(out, md)
		return nil
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		fmt.Fprint(out, md)
		return nil
	}
	fmt.Fprint(out, rendered)
	return nil
}

// inspectMarkdown builds the markdown document for one function.
func inspectMarkdown(f *engine.Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", signature(f.Name, f.Meta.Params))

	if desc := runfile.Description(f.Meta.Attributes); desc != "" {
		b.WriteString(desc + "\n\n")
	}

	fmt.Fprintf(&b, "**Interpreter:** `%s` (via `%s`)\n\n",
		f.Resolution.Interpreter, f.Resolution.Binary)
	if f.Meta.Shebang != "" {
		fmt.Fprintf(&b, "**Shebang:** `#!%s`\n\n", f.Meta.Shebang)
	}
	if guards := runfile.OSGuards(f.Meta.Attributes); len(guards) > 0 {
		var names []string
		for _, g := range guards {
			names = append(names, string(g))
		}
		fmt.Fprintf(&b, "**Platforms:** %s\n\n", strings.Join(names, ", "))
	}

	if len(f.Meta.Params) > 0 {
		docs := make(map[string]string)
		for _, d := range runfile.ArgDocs(f.Meta.Attributes) {
			docs[d.Name] = d.Description
		}
		b.WriteString("## Parameters\n\n")
		b.WriteString("| Name | Type | Default | Description |\n")
		b.WriteString("|------|------|---------|-------------|\n")
		for _, p := range f.Meta.Params {
			name := p.Name
			if p.Rest {
				name = "..." + name
			}
			def := ""
			if p.HasDefault {
				def = "`" + p.Default + "`"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", name, p.Type, def, docs[p.Name])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Body\n\n```\n" + f.Body + "\n```\n")
	return b.String()
}

// signature renders a function's declared parameter list.
func signature(name string, params []runfile.Parameter) string {
	if len(params) == 0 {
		return name + "()"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		s := p.Name
		if p.Rest {
			s = "..." + s
		}
		if p.Type != runfile.ParamTypeString {
			s += ": " + string(p.Type)
		}
		if p.HasDefault {
			s += " = \"" + p.Default + "\""
		}
		parts[i] = s
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
