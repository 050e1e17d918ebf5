// SPDX-License-Identifier: MPL-2.0

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/nihilok/run/internal/engine"
	"github.com/nihilok/run/pkg/runfile"
)

func loadTable(t *testing.T, src string) *engine.FunctionTable {
	t.Helper()
	prog, err := runfile.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return engine.Load(prog, runtime.GOOS, engine.Resolution{Interpreter: engine.Sh, Binary: "sh"})
}

const manifest = `# @desc "Build the project"
# @arg target The build target
docker:build(target, tag = "latest") echo building $target:$tag
# @desc "Echo arguments back"
say(...words) echo $words
internal() echo hidden
`

func TestToolsOnlyDescribedFunctions(t *testing.T) {
	t.Parallel()

	tools := Tools(loadTable(t, manifest))
	if len(tools) != 4 {
		t.Fatalf("got %d tools, want 2 described functions plus 2 built-ins: %+v", len(tools), tools)
	}
	if tools[0].Name != "docker__build" {
		t.Errorf("tool name = %q, want sanitized docker__build", tools[0].Name)
	}
	if tools[0].Description != "Build the project" {
		t.Errorf("description = %q", tools[0].Description)
	}
	for _, tool := range tools {
		if tool.Name == "internal" {
			t.Error("undescribed function listed as a tool")
		}
	}
	if tools[2].Name != "get_cwd" || tools[3].Name != "set_cwd" {
		t.Errorf("built-in tools = %q, %q, want get_cwd and set_cwd after the manifest's",
			tools[2].Name, tools[3].Name)
	}
}

func TestToolSchema(t *testing.T) {
	t.Parallel()

	tools := Tools(loadTable(t, manifest))
	schema := tools[0].InputSchema

	target, ok := schema.Properties["target"]
	if !ok {
		t.Fatalf("schema missing target property: %+v", schema)
	}
	if target.Type != "string" || target.Description != "The build target" {
		t.Errorf("target property = %+v", target)
	}
	if tag := schema.Properties["tag"]; tag.Default != "latest" {
		t.Errorf("tag property = %+v, want default latest", tag)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "target" {
		t.Errorf("required = %v, want [target]", schema.Required)
	}

	rest := tools[1].InputSchema.Properties["words"]
	if rest.Type != "array" || rest.Items == nil || rest.Items.Type != "string" {
		t.Errorf("rest property = %+v, want array of strings", rest)
	}
}

func TestToolSchemaTypes(t *testing.T) {
	t.Parallel()

	src := `# @desc "typed"
calc(n: int, r: float, v: bool, o: object, s) echo $n
`
	tools := Tools(loadTable(t, src))
	props := tools[0].InputSchema.Properties
	want := map[string]string{
		"n": "integer", "r": "number", "v": "boolean", "o": "object", "s": "string",
	}
	for name, typ := range want {
		if props[name].Type != typ {
			t.Errorf("property %s type = %q, want %q", name, props[name].Type, typ)
		}
	}
}

func TestPositionalArgs(t *testing.T) {
	t.Parallel()

	table := loadTable(t, manifest)
	meta, _ := table.MetadataFor("docker:build")

	args, err := positionalArgs(meta, map[string]json.RawMessage{
		"target": json.RawMessage(`"app"`),
		"tag":    json.RawMessage(`"v2"`),
	})
	if err != nil {
		t.Fatalf("positionalArgs() error = %v", err)
	}
	if len(args) != 2 || args[0] != "app" || args[1] != "v2" {
		t.Errorf("args = %q, want [app v2]", args)
	}

	// Omitted trailing argument: engine applies the default.
	args, err = positionalArgs(meta, map[string]json.RawMessage{
		"target": json.RawMessage(`"app"`),
	})
	if err != nil {
		t.Fatalf("positionalArgs() error = %v", err)
	}
	if len(args) != 1 || args[0] != "app" {
		t.Errorf("args = %q, want [app]", args)
	}
}

func TestPositionalArgsGapFilled(t *testing.T) {
	t.Parallel()

	src := "f(a = \"A\", b) echo $a $b\n"
	table := loadTable(t, src)
	meta, _ := table.MetadataFor("f")

	args, err := positionalArgs(meta, map[string]json.RawMessage{
		"b": json.RawMessage(`"bee"`),
	})
	if err != nil {
		t.Fatalf("positionalArgs() error = %v", err)
	}
	if len(args) != 2 || args[0] != "A" || args[1] != "bee" {
		t.Errorf("args = %q, want the gap filled with the default", args)
	}
}

func TestPositionalArgsRestArray(t *testing.T) {
	t.Parallel()

	table := loadTable(t, manifest)
	meta, _ := table.MetadataFor("say")

	args, err := positionalArgs(meta, map[string]json.RawMessage{
		"words": json.RawMessage(`["one", "two", 3]`),
	})
	if err != nil {
		t.Fatalf("positionalArgs() error = %v", err)
	}
	if len(args) != 3 || args[0] != "one" || args[1] != "two" || args[2] != "3" {
		t.Errorf("args = %q, want [one two 3]", args)
	}
}

func TestServeInitializeAndList(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n")
	var out bytes.Buffer

	srv := NewServer(loadTable(t, manifest), "test", in, &out)
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d responses, want 2 (notification gets none):\n%s", len(lines), out.String())
	}

	var init struct {
		Result struct {
			ProtocolVersion string `json:"protocolVersion"`
			ServerInfo      struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &init); err != nil {
		t.Fatalf("decoding initialize response: %v", err)
	}
	if init.Result.ServerInfo.Name != "run" {
		t.Errorf("server name = %q", init.Result.ServerInfo.Name)
	}

	var list struct {
		Result struct {
			Tools []Tool `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &list); err != nil {
		t.Fatalf("decoding tools/list response: %v", err)
	}
	if len(list.Result.Tools) != 4 {
		t.Errorf("tools = %+v, want 2 manifest tools plus 2 built-ins", list.Result.Tools)
	}
}

func TestServeToolCall(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX sh")
	}

	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"docker__build","arguments":{"target":"app"}}}` + "\n")
	var out bytes.Buffer

	srv := NewServer(loadTable(t, manifest), "test", in, &out)
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var resp struct {
		Result struct {
			Content []textContent `json:"content"`
			IsError bool          `json:"isError"`
		} `json:"result"`
		Error *rpcError `json:"error"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if resp.Result.IsError {
		t.Error("isError set for a successful call")
	}
	if len(resp.Result.Content) != 1 || !strings.Contains(resp.Result.Content[0].Text, "building app:latest") {
		t.Errorf("content = %+v, want captured stdout", resp.Result.Content)
	}
}

func TestServeUnknownMethod(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"bogus"}` + "\n")
	var out bytes.Buffer

	srv := NewServer(loadTable(t, manifest), "test", in, &out)
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var resp struct {
		Error *rpcError `json:"error"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Errorf("error = %+v, want method-not-found", resp.Error)
	}
}

func TestServeUnknownTool(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}` + "\n")
	var out bytes.Buffer

	srv := NewServer(loadTable(t, manifest), "test", in, &out)
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var resp struct {
		Error *rpcError `json:"error"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Errorf("error = %+v, want invalid-params", resp.Error)
	}
}

func TestServeUndescribedFunctionNotCallable(t *testing.T) {
	t.Parallel()

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"internal","arguments":{}}}` + "\n")
	var out bytes.Buffer

	srv := NewServer(loadTable(t, manifest), "test", in, &out)
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	var resp struct {
		Error *rpcError `json:"error"`
	}
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Errorf("error = %+v, want invalid-params: functions without @desc are not callable", resp.Error)
	}
}

func TestServeCwdTools(t *testing.T) {
	// os.Chdir is process-wide, so no t.Parallel and restore on exit.
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	defer os.Chdir(orig)

	dir := t.TempDir()
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"set_cwd","arguments":{"path":`+string(mustJSON(t, dir))+`}}}`+"\n"+
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_cwd","arguments":{}}}`+"\n")
	var out bytes.Buffer

	srv := NewServer(loadTable(t, manifest), "test", in, &out)
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d responses, want 2:\n%s", len(lines), out.String())
	}

	// Compare against the kernel's view; t.TempDir may sit behind a symlink.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if wd == orig {
		t.Fatal("set_cwd did not change the working directory")
	}

	var resp struct {
		Result struct {
			Content []textContent `json:"content"`
			IsError bool          `json:"isError"`
		} `json:"result"`
		Error *rpcError `json:"error"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &resp); err != nil {
		t.Fatalf("decoding get_cwd response: %v", err)
	}
	if resp.Error != nil || resp.Result.IsError {
		t.Fatalf("get_cwd failed: %s", lines[1])
	}
	if len(resp.Result.Content) != 1 || resp.Result.Content[0].Text != wd {
		t.Errorf("get_cwd = %+v, want %q", resp.Result.Content, wd)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling %v: %v", v, err)
	}
	return data
}
