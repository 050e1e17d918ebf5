// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestSignature(t *testing.T) {
	t.Parallel()

	a := testApp(t, `plain() make
deploy(env, tag = "latest", count: int, ...extra) echo $env
`)

	meta, _ := a.table.MetadataFor("deploy")
	got := signature("deploy", meta.Params)
	want := `deploy(env, tag = "latest", count: int, ...extra)`
	if got != want {
		t.Errorf("signature() = %q, want %q", got, want)
	}

	meta, _ = a.table.MetadataFor("plain")
	if got := signature("plain", meta.Params); got != "plain()" {
		t.Errorf("signature() = %q, want plain()", got)
	}
}

func TestListOutput(t *testing.T) {
	t.Parallel()

	a := testApp(t, `# @desc "Build the project"
build() make
docker:push() docker push app
`)

	var out bytes.Buffer
	if err := a.list(&out); err != nil {
		t.Fatalf("list() error = %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "build()") || !strings.Contains(text, "docker:push()") {
		t.Errorf("listing missing functions:\n%s", text)
	}
	if !strings.Contains(text, "Build the project") {
		t.Errorf("listing missing description:\n%s", text)
	}
}

func TestListEmptyTable(t *testing.T) {
	t.Parallel()

	a := testApp(t, "VERSION=\"1\"\n")
	var out bytes.Buffer
	if err := a.list(&out); err != nil {
		t.Fatalf("list() error = %v", err)
	}
	if !strings.Contains(out.String(), "No functions") {
		t.Errorf("empty listing = %q", out.String())
	}
}

func TestInspectMarkdown(t *testing.T) {
	t.Parallel()

	a := testApp(t, `# @desc "Deploy the app"
# @arg env Target environment
# @os unix
# @shell bash
deploy(env, tag = "latest") echo $env $tag
`)

	f, ok := a.table.Lookup("deploy")
	if !ok {
		t.Fatal("deploy not found")
	}
	md := inspectMarkdown(f)

	for _, want := range []string{
		"# deploy(env, tag = \"latest\")",
		"Deploy the app",
		"**Interpreter:** `bash`",
		"**Platforms:** unix",
		"| env | str |  | Target environment |",
		"| tag | str | `latest` |",
		"echo $env $tag",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestInspectUnknownFunction(t *testing.T) {
	t.Parallel()

	a := testApp(t, "build() make\n")
	var out bytes.Buffer
	if err := a.inspect(&out, "nope"); err == nil {
		t.Fatal("inspect() of an unknown function must error")
	}
}
