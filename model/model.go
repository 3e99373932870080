// Package model holds grizzly's application state and the commands
// that mutate it. The UI layer reads this state and issues commands;
// it never mutates the ledger or the pending tool call directly.
package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/alpic-ai/grizzly/chat"
	"github.com/alpic-ai/grizzly/config"
	"github.com/alpic-ai/grizzly/mcp"
	"github.com/alpic-ai/grizzly/provider"
	"github.com/alpic-ai/grizzly/storage"
)

// Model is the core application state.
type Model struct {
	// Core dependencies
	Config   *config.Config
	MCP      *mcp.Client
	Provider provider.Provider
	History  *storage.HistoryStore

	// Conversation state
	Ledger *chat.Ledger
	Gate   *chat.Gate

	// Tool catalog and its lint findings, refreshed together
	Tools  []mcptypes.Tool
	Issues map[string][]mcp.Issue

	// Runtime state
	Streaming bool
	Quitting  bool

	// Per-stream state; rebuilt for every outbound request so nothing
	// leaks across turns
	accumulator  *chat.Accumulator
	events       chan chat.Event
	streamResult chan error
	cancelStream context.CancelFunc

	// Application metadata
	Version string
}

// textExecutor adapts the MCP client to the approval gate's executor
// contract.
type textExecutor struct {
	client *mcp.Client
}

func (e textExecutor) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	return e.client.CallToolText(ctx, name, args)
}

// NewModel wires the application state together.
func NewModel(cfg *config.Config, mcpClient *mcp.Client, prov provider.Provider, history *storage.HistoryStore, version string) *Model {
	return &Model{
		Config:   cfg,
		MCP:      mcpClient,
		Provider: prov,
		History:  history,
		Ledger:   chat.NewLedger(),
		Gate:     chat.NewGate(textExecutor{client: mcpClient}),
		Issues:   map[string][]mcp.Issue{},
		Version:  version,
	}
}

// FindTool resolves a catalog entry by name, nil when absent.
func (m *Model) FindTool(name string) *mcptypes.Tool {
	for i := range m.Tools {
		if m.Tools[i].Name == name {
			return &m.Tools[i]
		}
	}
	return nil
}
