package model

import (
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/alpic-ai/grizzly/chat"
	"github.com/alpic-ai/grizzly/mcp"
	"github.com/alpic-ai/grizzly/storage"
)

// ToolsListMsg carries a catalog refresh and its lint findings.
type ToolsListMsg struct {
	Tools  []mcptypes.Tool
	Issues map[string][]mcp.Issue
	Err    error
}

// StreamEventMsg delivers one normalized stream event to the update
// loop. Events arrive in emission order, one message each, so their
// application is serialized by bubbletea's single update goroutine.
type StreamEventMsg struct {
	Event chat.Event
}

// StreamDoneMsg signals end of stream. Err is non-nil on transport
// failure; partial assistant text already applied stays in the ledger.
type StreamDoneMsg struct {
	Err error
}

// ApprovalResultMsg reports the outcome of an approved tool call.
type ApprovalResultMsg struct {
	ToolName string
	Result   string
	Duration time.Duration
	Err      error
}

// DirectInvokeResultMsg reports a tool call made straight from the
// tools panel, outside any conversation.
type DirectInvokeResultMsg struct {
	ToolName string
	Result   string
	Duration time.Duration
	Err      error
}

// HistoryMsg carries the invocation history for display.
type HistoryMsg struct {
	Invocations []storage.Invocation
	Err         error
}

// PingResultMsg reports a provider credential check.
type PingResultMsg struct {
	Err error
}
