// SPDX-License-Identifier: MPL-2.0

// Package mcp serves Runfile functions to AI agents over the stdio
// tool protocol: newline-delimited JSON-RPC 2.0 with the initialize,
// tools/list and tools/call methods. Every function carrying a @desc
// attribute is exposed as a tool; calls run through the engine with
// captured output and come back as markdown.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nihilok/run/internal/engine"
	"github.com/nihilok/run/pkg/runfile"
)

const protocolVersion = "2024-11-05"

// timeRounding keeps reported durations readable.
const timeRounding = time.Millisecond

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type (
	// Server dispatches tool-protocol requests against one function table.
	Server struct {
		table   *engine.FunctionTable
		version string
		// byTool maps sanitized tool names back to function names.
		byTool map[string]string

		in  io.Reader
		out io.Writer
	}

	request struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	response struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id,omitempty"`
		Result  any             `json:"result,omitempty"`
		Error   *rpcError       `json:"error,omitempty"`
	}

	rpcError struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}

	callParams struct {
		Name      string                     `json:"name"`
		Arguments map[string]json.RawMessage `json:"arguments"`
	}

	textContent struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}

	callResult struct {
		Content []textContent `json:"content"`
		IsError bool          `json:"isError,omitempty"`
	}
)

// NewServer builds a server over a loaded table. version is reported in the
// initialize handshake.
func NewServer(table *engine.FunctionTable, version string, in io.Reader, out io.Writer) *Server {
	byTool := make(map[string]string)
	for _, name := range table.Names() {
		meta, ok := table.MetadataFor(name)
		if !ok || runfile.Description(meta.Attributes) == "" {
			// Undescribed functions are not tools; they stay private to
			// the terminal user and must not be callable either.
			continue
		}
		byTool[engine.Sanitize(name)] = name
	}
	return &Server{table: table, version: version, byTool: byTool, in: in, out: out}
}

// Serve reads requests until EOF or context cancellation. Protocol-level
// failures are answered with JSON-RPC errors, never by tearing the
// connection down.
func (s *Server) Serve(ctx context.Context) error {
	reader := bufio.NewReaderSize(s.in, 1<<20)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var req request
		if uerr := json.Unmarshal([]byte(line), &req); uerr != nil {
			s.reply(response{JSONRPC: "2.0", Error: &rpcError{
				Code: codeParseError, Message: "invalid JSON: " + uerr.Error(),
			}})
			continue
		}
		s.dispatch(ctx, req)

		if err != nil {
			// The final line had no trailing newline; treat it as EOF after
			// handling.
			return nil
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) {
	switch req.Method {
	case "initialize":
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "run", "version": s.version},
		}})
	case "notifications/initialized":
		// Notification, no reply.
	case "tools/list":
		tools := Tools(s.table)
		if tools == nil {
			tools = []Tool{}
		}
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{
			"tools": tools,
		}})
	case "tools/call":
		s.handleCall(ctx, req)
	default:
		if req.ID == nil {
			// Unknown notification; ignore.
			return
		}
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code: codeMethodNotFound, Message: "unknown method " + req.Method,
		}})
	}
}

func (s *Server) handleCall(ctx context.Context, req request) {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code: codeInvalidParams, Message: "invalid tools/call params: " + err.Error(),
		}})
		return
	}
	switch params.Name {
	case "get_cwd":
		s.handleGetCwd(req)
		return
	case "set_cwd":
		s.handleSetCwd(req, params)
		return
	}

	name, ok := s.byTool[params.Name]
	if !ok {
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code: codeInvalidParams, Message: "unknown tool " + params.Name,
		}})
		return
	}
	meta, _ := s.table.MetadataFor(name)
	args, err := positionalArgs(meta, params.Arguments)
	if err != nil {
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code: codeInvalidParams, Message: err.Error(),
		}})
		return
	}

	result, err := engine.InvokeCapture(ctx, s.table, name, args)
	if err != nil {
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code: codeInternalError, Message: err.Error(),
		}})
		return
	}
	s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: callResult{
		Content: []textContent{{Type: "text", Text: formatResult(name, result)}},
		IsError: result.ExitCode != 0,
	}})
}

// handleGetCwd answers the built-in get_cwd tool with the server's current
// working directory.
func (s *Server) handleGetCwd(req request) {
	wd, err := os.Getwd()
	if err != nil {
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code: codeInternalError, Message: err.Error(),
		}})
		return
	}
	s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: callResult{
		Content: []textContent{{Type: "text", Text: wd}},
	}})
}

// handleSetCwd answers the built-in set_cwd tool. The change is process-wide
// and persists for subsequent tool calls in the session.
func (s *Server) handleSetCwd(req request, params callParams) {
	var path string
	if raw, ok := params.Arguments["path"]; ok {
		if err := json.Unmarshal(raw, &path); err != nil {
			s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
				Code: codeInvalidParams, Message: "path must be a string",
			}})
			return
		}
	}
	if path == "" {
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{
			Code: codeInvalidParams, Message: "set_cwd requires a path argument",
		}})
		return
	}
	if err := os.Chdir(path); err != nil {
		s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: callResult{
			Content: []textContent{{Type: "text", Text: err.Error()}},
			IsError: true,
		}})
		return
	}
	wd, _ := os.Getwd()
	s.reply(response{JSONRPC: "2.0", ID: req.ID, Result: callResult{
		Content: []textContent{{Type: "text", Text: "working directory set to " + wd}},
	}})
}

// formatResult renders a captured invocation as markdown for the agent.
func formatResult(name string, r engine.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s` exited with code %d in %s\n", name, r.ExitCode, r.Duration.Round(timeRounding))
	if r.Stdout != "" {
		b.WriteString("\n**stdout**\n```\n")
		b.WriteString(strings.TrimRight(r.Stdout, "\n"))
		b.WriteString("\n```\n")
	}
	if r.Stderr != "" {
		b.WriteString("\n**stderr**\n```\n")
		b.WriteString(strings.TrimRight(r.Stderr, "\n"))
		b.WriteString("\n```\n")
	}
	return b.String()
}

func (s *Server) reply(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error("marshaling response", "err", err)
		return
	}
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		log.Error("writing response", "err", err)
	}
}
