// Package mcp connects grizzly to the tool server under inspection.
// It owns the server process (for stdio servers), the tool catalog,
// and tool execution.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/alpic-ai/grizzly/config"
)

const protocolVersion = "2025-06-18"

// ServerInfo describes the connected server as reported during
// initialization.
type ServerInfo struct {
	Name    string
	Version string
}

// Client wraps one MCP server connection. The tool catalog is cached
// after ListTools and refreshed only by an explicit caller action.
type Client struct {
	mcpClient *client.Client
	cmd       *exec.Cmd // nil for remote servers
	info      ServerInfo

	mu    sync.RWMutex
	tools []mcptypes.Tool
}

// Connect launches or dials the configured server and initializes the
// MCP session. Command-based configs spawn a stdio subprocess; URL
// configs dial SSE or streamable-http.
func Connect(ctx context.Context, cfg config.ServerConfig) (*Client, error) {
	var mcpClient *client.Client
	var capturedCmd *exec.Cmd
	var err error

	switch {
	case cfg.Command != "":
		mcpClient, capturedCmd, err = newStdioClient(cfg)
	case cfg.URL != "":
		mcpClient, err = newRemoteClient(cfg)
	default:
		return nil, fmt.Errorf("no server configured: set command or url")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "grizzly",
				Version: "1.0.0",
			},
		},
	}

	initResult, err := mcpClient.Initialize(ctx, initReq)
	if err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	c := &Client{
		mcpClient: mcpClient,
		cmd:       capturedCmd,
		info: ServerInfo{
			Name:    initResult.ServerInfo.Name,
			Version: initResult.ServerInfo.Version,
		},
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Connected to %s %s (protocol %s)",
			c.info.Name, c.info.Version, initResult.ProtocolVersion)
	}

	return c, nil
}

func newStdioClient(cfg config.ServerConfig) (*client.Client, *exec.Cmd, error) {
	var capturedCmd *exec.Cmd

	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		capturedCmd = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		cfg.Command,
		os.Environ(),
		cfg.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return nil, nil, err
	}

	if capturedCmd != nil && capturedCmd.Process != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Started server %q with PID %d", cfg.Command, capturedCmd.Process.Pid)
	}

	return mcpClient, capturedCmd, nil
}

func newRemoteClient(cfg config.ServerConfig) (*client.Client, error) {
	switch cfg.Transport {
	case "streamable-http":
		return client.NewStreamableHttpClient(cfg.URL)
	case "sse", "":
		return client.NewSSEMCPClient(cfg.URL)
	default:
		return nil, fmt.Errorf("unknown transport type: %s", cfg.Transport)
	}
}

// ServerInfo returns the server identity from initialization.
func (c *Client) ServerInfo() ServerInfo {
	return c.info
}

// ListTools fetches the tool list from the server and replaces the
// cached catalog.
func (c *Client) ListTools(ctx context.Context) ([]mcptypes.Tool, error) {
	result, err := c.mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	c.mu.Lock()
	c.tools = result.Tools
	c.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[MCP] Catalog refreshed: %d tools", len(result.Tools))
	}

	return result.Tools, nil
}

// Tools returns the cached catalog from the last ListTools.
func (c *Client) Tools() []mcptypes.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tools := make([]mcptypes.Tool, len(c.tools))
	copy(tools, c.tools)
	return tools
}

// CallTool executes a tool on the server.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcptypes.CallToolResult, error) {
	return c.mcpClient.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
}

// CallToolText executes a tool and flattens its result to text. This
// is the chat.Executor implementation: a result marked as an error by
// the server is returned as a Go error so the approval gate keeps the
// call for retry.
func (c *Client) CallToolText(ctx context.Context, name string, args map[string]any) (string, error) {
	result, err := c.CallTool(ctx, name, args)
	if err != nil {
		return "", err
	}
	text := FlattenResult(result)
	if result.IsError {
		return "", fmt.Errorf("tool %s failed: %s", name, text)
	}
	return text, nil
}

// Close shuts down the connection and, for stdio servers, the server
// process. Close on the client is given one second before the process
// is killed outright.
func (c *Client) Close(ctx context.Context) error {
	closeCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	closeDone := make(chan error, 1)
	go func() {
		closeDone <- c.mcpClient.Close()
	}()

	select {
	case <-closeDone:
	case <-closeCtx.Done():
	}

	if c.cmd != nil && c.cmd.Process != nil {
		if err := c.cmd.Process.Kill(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] Error killing server process: %v", err)
		}
	}

	return nil
}

// FlattenResult renders a tool result as ledger text. Text content
// blocks are concatenated; anything else falls back to its JSON
// encoding.
func FlattenResult(result *mcptypes.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return "(no output)"
	}

	var parts []string
	for _, content := range result.Content {
		if tc, ok := content.(mcptypes.TextContent); ok {
			parts = append(parts, tc.Text)
			continue
		}
		raw, err := json.Marshal(content)
		if err != nil {
			parts = append(parts, fmt.Sprintf("(unrenderable content: %v)", err))
			continue
		}
		parts = append(parts, string(raw))
	}

	return strings.Join(parts, "\n")
}
