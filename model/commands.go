package model

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alpic-ai/grizzly/chat"
	"github.com/alpic-ai/grizzly/config"
	"github.com/alpic-ai/grizzly/mcp"
	"github.com/alpic-ai/grizzly/storage"
)

const toolCallTimeout = 120 * time.Second

// RefreshTools fetches the catalog from the server and lints it.
func (m *Model) RefreshTools() tea.Cmd {
	client := m.MCP
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tools, err := client.ListTools(ctx)
		if err != nil {
			return ToolsListMsg{Err: err}
		}

		return ToolsListMsg{
			Tools:  tools,
			Issues: mcp.ValidateCatalog(tools),
		}
	}
}

// SendUserMessage appends a user turn and starts the next stream.
func (m *Model) SendUserMessage(text string) tea.Cmd {
	m.Ledger.Append(chat.Turn{Role: chat.RoleUser, Content: text})
	return m.StartStream()
}

// StartStream opens one provider stream against the current ledger
// snapshot and tool catalog. A fresh accumulator scopes all transient
// reconstruction state to this request. Events are pumped through the
// returned command chain one at a time, preserving arrival order.
func (m *Model) StartStream() tea.Cmd {
	events := make(chan chat.Event, 64)
	result := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())

	m.accumulator = chat.NewAccumulator(m.Ledger, m.Tools, m.Gate)
	m.events = events
	m.streamResult = result
	m.cancelStream = cancel
	m.Streaming = true

	snapshot := m.Ledger.Snapshot()
	tools := m.Tools
	prov := m.Provider

	go func() {
		err := prov.StreamChat(ctx, snapshot, tools, func(ev chat.Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		close(events)
		result <- err
	}()

	return m.NextStreamEvent()
}

// NextStreamEvent waits for the next event from the open stream. The
// update loop applies it and asks for the next one; a closed channel
// yields StreamDoneMsg with the stream's final error.
func (m *Model) NextStreamEvent() tea.Cmd {
	events := m.events
	result := m.streamResult
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamDoneMsg{Err: <-result}
		}
		return StreamEventMsg{Event: ev}
	}
}

// ApplyStreamEvent folds one event into the conversation state. Called
// from the update loop only, never concurrently.
func (m *Model) ApplyStreamEvent(ev chat.Event) {
	if m.accumulator != nil {
		m.accumulator.Apply(ev)
	}
}

// FinishStream finalizes any partial reconstruction state at end of
// stream. An open tool call without a terminating event is submitted
// with the fragments collected so far.
func (m *Model) FinishStream() {
	if m.accumulator != nil {
		m.accumulator.Finish()
		m.accumulator = nil
	}
	m.Streaming = false
	m.cancelStream = nil
}

// CancelStream abandons the open stream. A pending tool call already
// handed to the gate stays valid and approvable.
func (m *Model) CancelStream() {
	if m.cancelStream != nil {
		m.cancelStream()
	}
}

// ApprovePendingCall forwards the pending call to the server with the
// operator's (possibly edited) arguments. On success the result comes
// back as ApprovalResultMsg and the update loop appends the
// tool-result turn; on failure the gate keeps the call for retry.
func (m *Model) ApprovePendingCall(args map[string]any) tea.Cmd {
	gate := m.Gate
	history := m.History
	pending := gate.Pending()
	if pending == nil {
		return nil
	}
	toolName := pending.ToolName
	recorded := args
	if recorded == nil {
		recorded = pending.Arguments
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), toolCallTimeout)
		defer cancel()

		start := time.Now()
		result, err := gate.Approve(ctx, args)
		elapsed := time.Since(start)

		recordInvocation(history, storage.Invocation{
			ToolName:  toolName,
			Arguments: recorded,
			Result:    result,
			Errored:   err != nil,
			Source:    storage.SourceModel,
			Duration:  elapsed,
		})

		return ApprovalResultMsg{
			ToolName: toolName,
			Result:   result,
			Duration: elapsed,
			Err:      err,
		}
	}
}

// AppendToolResult records an executed call's output as a turn and
// primes the next outbound request so the model can continue.
func (m *Model) AppendToolResult(toolName, result string) tea.Cmd {
	m.Ledger.Append(chat.Turn{
		Role:         chat.RoleUser,
		Content:      "Tool " + toolName + " returned:\n" + result,
		IsToolResult: true,
	})
	return m.StartStream()
}

// InvokeTool executes a tool directly from the tools panel, outside
// any conversation and without the approval gate (the operator typed
// the arguments themselves).
func (m *Model) InvokeTool(toolName string, args map[string]any) tea.Cmd {
	client := m.MCP
	history := m.History

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), toolCallTimeout)
		defer cancel()

		start := time.Now()
		result, err := client.CallToolText(ctx, toolName, args)
		elapsed := time.Since(start)

		recordInvocation(history, storage.Invocation{
			ToolName:  toolName,
			Arguments: args,
			Result:    result,
			Errored:   err != nil,
			Source:    storage.SourceDirect,
			Duration:  elapsed,
		})

		return DirectInvokeResultMsg{
			ToolName: toolName,
			Result:   result,
			Duration: elapsed,
			Err:      err,
		}
	}
}

// FetchHistory loads recent invocations for the history pane.
func (m *Model) FetchHistory(limit int) tea.Cmd {
	history := m.History
	return func() tea.Msg {
		if history == nil {
			return HistoryMsg{}
		}
		invocations, err := history.Recent(limit)
		return HistoryMsg{Invocations: invocations, Err: err}
	}
}

// PingProvider validates the configured provider credentials.
func (m *Model) PingProvider() tea.Cmd {
	prov := m.Provider
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return PingResultMsg{Err: prov.Ping(ctx)}
	}
}

func recordInvocation(history *storage.HistoryStore, inv storage.Invocation) {
	if history == nil {
		return
	}
	if err := history.Record(inv); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[model] failed to record invocation of %s: %v", inv.ToolName, err)
	}
}
