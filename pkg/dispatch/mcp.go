package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/entrhq/canvas/pkg/types"
)

// Source is what the MCP tools read from; the host controller satisfies it.
type Source interface {
	Compile() string
	Edits() []types.Edit
}

// MCP publishes instructions as MCP tools that the agent pulls. Deliver
// pins a document; until then the tools compile the live ledger.
type MCP struct {
	src Source

	mu        sync.Mutex
	published string
}

// NewMCP returns an MCP dispatcher over src.
func NewMCP(src Source) *MCP {
	return &MCP{src: src}
}

func (m *MCP) Name() string { return "mcp" }

func (m *MCP) Available() bool { return true }

// Deliver makes doc what canvas_get_instructions returns.
func (m *MCP) Deliver(_ context.Context, doc string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = doc
	return nil
}

// Instructions returns the published document, or a fresh compile.
func (m *MCP) Instructions() string {
	m.mu.Lock()
	doc := m.published
	m.mu.Unlock()
	if doc != "" {
		return doc
	}
	return m.src.Compile()
}

// NewServer returns an MCP server with the canvas tools registered.
func (m *MCP) NewServer(version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "canvas", Version: version}, nil)
	m.Register(srv)
	return srv
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Errorf("marshal: %w", err))
	}
	return textResult(string(data))
}

// Register adds the canvas tools to srv.
func (m *MCP) Register(srv *mcp.Server) {
	srv.AddTool(&mcp.Tool{
		Name:        "canvas_get_instructions",
		Description: "Return the phased visual edit instructions, numbered steps with acceptance criteria.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(m.Instructions()), nil
	})

	srv.AddTool(&mcp.Tool{
		Name:        "canvas_list_edits",
		Description: "List the recorded visual edits as JSON, in ledger order.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		edits := m.src.Edits()
		if edits == nil {
			edits = []types.Edit{}
		}
		return jsonResult(edits), nil
	})

	srv.AddTool(&mcp.Tool{
		Name:        "canvas_get_edit",
		Description: "Return one visual edit by id as JSON.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Edit id"},
		}, []string{"id"}),
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			ID string `json:"id"`
		}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}
		for _, e := range m.src.Edits() {
			if e.ID == args.ID {
				return jsonResult(e), nil
			}
		}
		return errorResult(fmt.Errorf("edit %q not found", args.ID)), nil
	})
}
