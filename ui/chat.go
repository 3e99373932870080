package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/alpic-ai/grizzly/chat"
)

func (a *AppView) updateViewportContent(gotoBottom bool) {
	turns := a.dataModel.Ledger.Snapshot()
	if len(turns) == 0 {
		a.viewport.SetContent("No messages yet. Start chatting, or press Alt+T to browse the server's tools.")
		return
	}

	var content strings.Builder

	for i, turn := range turns {
		content.WriteString(a.formatTurn(i, turn, a.streamingTurnIndex() == i))
	}

	if a.inlineNote != "" {
		content.WriteString(DimStyle.Render(a.inlineNote) + "\n\n")
	}

	if a.dataModel.Streaming && a.streamingTurnIndex() < 0 {
		// Stream open but no assistant text yet
		timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
		role := AssistantStyle.Render("Assistant")
		content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, a.streamIndicator()))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// streamingTurnIndex is the ledger index of the assistant turn still
// receiving deltas, or -1 when no stream is open or no text arrived yet.
func (a *AppView) streamingTurnIndex() int {
	if !a.dataModel.Streaming {
		return -1
	}
	last, ok := a.dataModel.Ledger.Last()
	if !ok || last.Role != chat.RoleAssistant {
		return -1
	}
	return a.dataModel.Ledger.Len() - 1
}

func (a *AppView) formatTurn(index int, turn chat.Turn, streaming bool) string {
	timestamp := DimStyle.Render(turn.Timestamp.Format("[15:04]"))

	if turn.IsToolResult {
		return formatBarMessage("", timestamp, DimStyle.Render("Tool"), turn.Content, "\x1b[90m")
	}

	switch turn.Role {
	case chat.RoleUser:
		rendered := a.renderedOrPlain(index, turn.Content)
		return formatBarMessage("", timestamp, UserStyle.Render("You"), rendered, "\x1b[32;1m")
	default:
		rendered := a.renderedOrPlain(index, turn.Content)
		role := AssistantStyle.Render("Assistant")
		if streaming {
			rendered = turn.Content + a.streamCursor()
		}
		return fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, rendered)
	}
}

func (a *AppView) renderedOrPlain(index int, content string) string {
	if r, ok := a.rendered[index]; ok {
		return r
	}
	return content
}

func (a *AppView) streamIndicator() string {
	if a.assemblingTool != "" {
		return fmt.Sprintf("%s assembling tool call: %s", a.loadingSpinner.View(), SelectedStyle.Render(a.assemblingTool))
	}
	return a.loadingSpinner.View()
}

func (a *AppView) streamCursor() string {
	if a.assemblingTool != "" {
		return "\n\n" + a.streamIndicator()
	}
	return "▋"
}

// formatBarMessage prefixes every line with a colored vertical bar.
func formatBarMessage(highlightPrefix, timestamp, role, content, ansiColor string) string {
	reset := "\x1b[0m"
	bar := ansiColor + "┃" + reset

	lines := strings.Split(content, "\n")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%s %s %s\n", highlightPrefix, bar, timestamp, role))

	for _, line := range lines {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}

	result.WriteString("\n")

	return result.String()
}
