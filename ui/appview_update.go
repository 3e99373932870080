package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alpic-ai/grizzly/chat"
	"github.com/alpic-ai/grizzly/config"
	appmodel "github.com/alpic-ai/grizzly/model"
)

func newDotSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return s
}

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	// Update spinners FIRST to handle TickMsg before anything else
	if a.dataModel.Streaming {
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		cmds = append(cmds, cmd)
		a.updateViewportContent(true)
	}

	if a.executing {
		a.execSpinner, cmd = a.execSpinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if a.invoking {
		a.invokeSpinner, cmd = a.invokeSpinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		// Reserve space for title (1), separator (1), textarea (3), status bar (1)
		viewportHeight := a.height - 6
		a.viewport.Width = a.width
		a.viewport.Height = viewportHeight
		a.textarea.SetWidth(a.width)

		a.ready = true
		a.updateViewportContent(true)
		return a, nil

	case tea.KeyMsg:
		// PRIORITY 0: Always-global shortcuts
		if msg.String() == "alt+q" {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Alt+Q pressed - quitting")
			}
			a.dataModel.Quitting = true
			a.dataModel.CancelStream()
			return a, tea.Quit
		}

		// PRIORITY 1: Modal toggle shortcuts
		switch msg.String() {
		case "alt+h":
			a.showHelp = !a.showHelp
			return a, nil

		case "alt+t":
			wasOpen := a.showToolsPanel
			a.closeAllModals()
			a.showToolsPanel = !wasOpen
			return a, nil

		case "alt+r":
			wasOpen := a.showHistory
			a.closeAllModals()
			a.showHistory = !wasOpen
			if a.showHistory {
				a.selectedHistoryIdx = 0
				return a, a.dataModel.FetchHistory(historyFetchLimit)
			}
			return a, nil

		case "alt+y":
			return a, a.copyContextual()

		case "alt+c":
			var allText strings.Builder
			for _, turn := range a.dataModel.Ledger.Snapshot() {
				role := "Assistant"
				if turn.Role == chat.RoleUser {
					role = "You"
				}
				if turn.IsToolResult {
					role = "Tool"
				}
				allText.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n",
					turn.Timestamp.Format("15:04"),
					role,
					turn.Content))
			}
			clipboard.WriteAll(allText.String())
			return a, nil
		}

		// PRIORITY 2: Modal-specific key handling (order matches View)
		if a.showAcknowledgeModal {
			a.showAcknowledgeModal = false
			a.acknowledgeModalTitle = ""
			a.acknowledgeModalMsg = ""
			return a, nil
		}

		if a.showHelp {
			if msg.String() == "esc" {
				a.showHelp = false
			}
			return a, nil
		}

		if a.showApproval {
			return a.handleApprovalUpdate(msg)
		}

		if a.showInvokeForm {
			return a.handleInvokeFormUpdate(msg)
		}

		if a.showToolsPanel {
			return a.handleToolsPanelUpdate(msg)
		}

		if a.showHistory {
			return a.handleHistoryUpdate(msg)
		}

		// Bring a hidden approval modal back
		if msg.String() == "a" && a.dataModel.Gate.Pending() != nil && !a.dataModel.Streaming && a.textarea.Value() == "" {
			a.openApprovalModal()
			return a, nil
		}

		// PRIORITY 3: Streaming cancellation (only if no modal open)
		if msg.String() == "esc" && a.dataModel.Streaming {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Esc pressed - cancelling stream")
			}
			a.dataModel.CancelStream()
			return a, nil
		}

		// Handle Enter for sending messages - DON'T let textarea process it
		if msg.Type == tea.KeyEnter && !msg.Alt && !a.dataModel.Streaming {
			if a.textarea.Value() == "" {
				return a, nil
			}

			userMsg := a.textarea.Value()
			a.textarea.Reset()
			a.inlineNote = ""

			if config.DebugLog != nil {
				config.DebugLog.Printf("Enter pressed - sending message: %s", userMsg)
			}

			userTurnIndex := a.dataModel.Ledger.Len()

			a.loadingSpinner = newDotSpinner()
			a.loadingSpinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

			streamCmd := a.dataModel.SendUserMessage(userMsg)
			a.updateViewportContent(true)

			return a, tea.Batch(
				a.renderMarkdownAsync(userTurnIndex, userMsg),
				streamCmd,
				a.loadingSpinner.Tick,
			)
		}

		switch msg.String() {
		case "alt+j", "alt+down":
			a.viewport.HalfPageDown()
			return a, nil

		case "alt+k", "alt+up":
			a.viewport.HalfPageUp()
			return a, nil

		case "alt+J", "pgdown":
			a.viewport.PageDown()
			return a, nil

		case "alt+K", "pgup":
			a.viewport.PageUp()
			return a, nil

		case "alt+g":
			a.viewport.GotoTop()
			return a, nil

		case "alt+G":
			a.viewport.GotoBottom()
			return a, nil
		}

	case appmodel.StreamEventMsg:
		a.dataModel.ApplyStreamEvent(msg.Event)

		switch ev := msg.Event.(type) {
		case chat.ToolCallStart:
			a.assemblingTool = ev.Name
		case chat.ToolCallEnd:
			a.assemblingTool = ""
		}

		a.updateViewportContent(true)
		return a, a.dataModel.NextStreamEvent()

	case appmodel.StreamDoneMsg:
		if config.DebugLog != nil {
			config.DebugLog.Printf("Stream done (err=%v)", msg.Err)
		}

		streamingIdx := a.streamingTurnIndex()
		a.dataModel.FinishStream()
		a.assemblingTool = ""

		var doneCmds []tea.Cmd
		if streamingIdx >= 0 {
			if last, ok := a.dataModel.Ledger.Last(); ok && last.Content != "" {
				doneCmds = append(doneCmds, a.renderMarkdownAsync(streamingIdx, last.Content))
			}
		}

		if msg.Err != nil {
			if isCanceled(msg.Err) {
				a.inlineNote = "⚠ Response cancelled"
			} else {
				a.showAcknowledgeModal = true
				a.acknowledgeModalTitle = "Stream Error"
				a.acknowledgeModalMsg = fmt.Sprintf("The provider stream failed:\n\n%v\n\nPartial output above is kept. You can retry by sending another message.", msg.Err)
				a.acknowledgeModalType = ModalTypeError
			}
		} else if a.dataModel.Gate.Pending() != nil {
			a.openApprovalModal()
		}

		a.updateViewportContent(true)
		return a, tea.Batch(doneCmds...)

	case appmodel.ToolsListMsg:
		if msg.Err != nil {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "Tool Listing Failed"
			a.acknowledgeModalMsg = fmt.Sprintf("Could not list tools from the server:\n\n%v", msg.Err)
			a.acknowledgeModalType = ModalTypeError
			return a, nil
		}

		a.dataModel.Tools = msg.Tools
		a.dataModel.Issues = msg.Issues
		if a.selectedToolIdx >= len(msg.Tools) {
			a.selectedToolIdx = 0
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("Fetched %d tools from server", len(msg.Tools))
		}
		return a, nil

	case appmodel.ApprovalResultMsg:
		a.executing = false
		a.executingTool = ""

		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("Tool %s failed after %v: %v", msg.ToolName, msg.Duration, msg.Err)
			}
			// The gate put the call back unless a newer one displaced it
			a.approvalCall = a.dataModel.Gate.Pending()
			if a.approvalCall == nil {
				a.showApproval = false
				a.showAcknowledgeModal = true
				a.acknowledgeModalTitle = "Tool Call Failed"
				a.acknowledgeModalMsg = fmt.Sprintf("%s failed:\n\n%v", msg.ToolName, msg.Err)
				a.acknowledgeModalType = ModalTypeError
			} else {
				a.showApproval = true
			}
			return a, nil
		}

		a.showApproval = false
		a.approvalCall = nil

		a.loadingSpinner = newDotSpinner()
		a.loadingSpinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

		streamCmd := a.dataModel.AppendToolResult(msg.ToolName, msg.Result)
		a.updateViewportContent(true)

		return a, tea.Batch(streamCmd, a.loadingSpinner.Tick)

	case appmodel.DirectInvokeResultMsg:
		a.invoking = false
		if msg.Err != nil {
			a.invokeErr = msg.Err.Error()
		} else {
			a.invokeResult = fmt.Sprintf("(%s)\n%s", formatDuration(msg.Duration), msg.Result)
		}
		return a, nil

	case appmodel.HistoryMsg:
		if msg.Err != nil {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "History Unavailable"
			a.acknowledgeModalMsg = fmt.Sprintf("Could not load invocation history:\n\n%v", msg.Err)
			a.acknowledgeModalType = ModalTypeWarning
			return a, nil
		}
		a.historyList = msg.Invocations
		if a.selectedHistoryIdx >= len(msg.Invocations) {
			a.selectedHistoryIdx = 0
		}
		return a, nil

	case appmodel.PingResultMsg:
		if msg.Err != nil {
			a.showAcknowledgeModal = true
			a.acknowledgeModalTitle = "Provider Check Failed"
			a.acknowledgeModalMsg = fmt.Sprintf("Could not reach the configured provider:\n\n%v\n\nCheck your API key and network, then restart.", msg.Err)
			a.acknowledgeModalType = ModalTypeWarning
		}
		return a, nil

	case markdownRenderedMsg:
		a.rendered[msg.TurnIndex] = msg.Rendered
		a.updateViewportContent(true)
		return a, nil
	}

	// Forward everything else to the active input and the viewport
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)

	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// copyContextual copies whatever result the current screen is about.
func (a AppView) copyContextual() tea.Cmd {
	switch {
	case a.showInvokeForm && a.invokeResult != "":
		clipboard.WriteAll(a.invokeResult)
	case a.showHistory && a.selectedHistoryIdx < len(a.historyList):
		clipboard.WriteAll(a.historyList[a.selectedHistoryIdx].Result)
	default:
		turns := a.dataModel.Ledger.Snapshot()
		for i := len(turns) - 1; i >= 0; i-- {
			if turns[i].Role == chat.RoleAssistant {
				clipboard.WriteAll(turns[i].Content)
				break
			}
		}
	}
	return nil
}

func isCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		strings.Contains(err.Error(), "context canceled")
}
