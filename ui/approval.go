package ui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alpic-ai/grizzly/chat"
)

const approvalModalWidth = 70

// openApprovalModal snapshots the gate's pending call for display. The
// gate owns the call itself; the snapshot only exists so the modal can
// keep rendering while Approve holds the slot during execution.
func (a *AppView) openApprovalModal() {
	a.approvalCall = a.dataModel.Gate.Pending()
	a.showApproval = a.approvalCall != nil
	a.approvalEditMode = false
}

// renderApprovalModal shows the call the model wants to make. Nothing
// reaches the server until the operator says yes here.
func (a AppView) renderApprovalModal() string {
	call := a.approvalCall
	if call == nil {
		return ""
	}

	var lines []string
	contentWidth := approvalModalWidth - 4
	pad := func(s string) string { return "  " + s }

	lines = append(lines, pad("Tool: ")+SelectedStyle.Render(call.ToolName))

	if call.ResolvedTool == nil {
		lines = append(lines, pad(WarnStyle.Render("⚠ not in the server's tool catalog")))
	} else {
		for _, line := range wrapToWidth(call.ResolvedTool.Description, contentWidth-2) {
			lines = append(lines, pad(DimStyle.Render(line)))
		}
		if ann := call.ResolvedTool.Annotations; ann.DestructiveHint != nil && *ann.DestructiveHint {
			lines = append(lines, pad(WarnStyle.Render("⚠ annotated destructive")))
		}
	}

	if call.ParseErr != nil {
		lines = append(lines, pad(WarnStyle.Render("⚠ arguments did not parse as JSON")))
		for _, line := range wrapToWidth("raw: "+call.RawArguments, contentWidth-2) {
			lines = append(lines, pad(DimStyle.Render(line)))
		}
	}

	lines = append(lines, "")

	if a.approvalEditMode {
		lines = append(lines, pad(TitleStyle.Render("Arguments (editing)")))
		if len(a.approvalForm.labels) == 0 {
			lines = append(lines, pad(DimStyle.Render("(no arguments)")))
		}
		lines = append(lines, a.approvalForm.renderLines()...)
	} else {
		lines = append(lines, pad(TitleStyle.Render("Arguments")))
		lines = append(lines, formatArguments(call.Arguments, contentWidth)...)
	}

	if a.executing {
		lines = append(lines, "")
		lines = append(lines, pad(fmt.Sprintf("%s executing %s...", a.execSpinner.View(), call.ToolName)))
	} else if a.dataModel.Gate.Status() == chat.GateFailed {
		lines = append(lines, "")
		for _, line := range wrapToWidth("✗ "+a.dataModel.Gate.ExecError(), contentWidth-2) {
			lines = append(lines, pad(ErrorStyle.Render(line)))
		}
		lines = append(lines, pad(DimStyle.Render("The call is still pending. Approve to retry, or reject.")))
	}

	var footer string
	switch {
	case a.executing:
		footer = FormatFooter("Esc", "Hide")
	case a.approvalEditMode:
		footer = FormatFooter("Tab", "Next Field", "Enter", "Approve Edited", "Esc", "Discard Edits")
	default:
		footer = FormatFooter("y", "Approve", "n", "Reject", "e", "Edit Arguments")
	}

	return RenderThreeSectionModal("⚠  Tool Call Approval", lines, footer, ModalTypeWarning, approvalModalWidth, a.width, a.height)
}

func formatArguments(args map[string]any, width int) []string {
	if len(args) == 0 {
		return []string{"  " + DimStyle.Render("(no arguments)")}
	}

	pretty, err := json.MarshalIndent(args, "  ", "  ")
	if err != nil {
		return []string{"  " + fmt.Sprintf("%v", args)}
	}

	var lines []string
	for _, line := range strings.Split(string(pretty), "\n") {
		if len(line) > width {
			line = line[:width-3] + "..."
		}
		lines = append(lines, "  "+line)
	}
	return lines
}

func (a AppView) handleApprovalUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.executing {
		// Execution keeps running either way; Esc just uncovers the chat
		if msg.String() == "esc" {
			a.showApproval = false
		}
		return a, nil
	}

	// A newer call may have replaced the one on screen (the gate holds
	// a single slot, last writer wins)
	if latest := a.dataModel.Gate.Pending(); latest == nil {
		a.showApproval = false
		a.approvalEditMode = false
		a.approvalCall = nil
		return a, nil
	} else if latest != a.approvalCall {
		a.approvalCall = latest
		a.approvalEditMode = false
	}

	if a.approvalEditMode {
		switch msg.String() {
		case "esc":
			a.approvalEditMode = false
			return a, nil

		case "tab", "down":
			a.approvalForm = a.approvalForm.focusNext()
			return a, nil

		case "shift+tab", "up":
			a.approvalForm = a.approvalForm.focusPrev()
			return a, nil

		case "enter":
			return a.approvePending(a.approvalForm.collect())
		}

		var cmd tea.Cmd
		a.approvalForm, cmd = a.approvalForm.update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "y", "enter":
		return a.approvePending(nil)

	case "n", "esc":
		a.dataModel.Gate.Reject()
		a.inlineNote = fmt.Sprintf("✗ Rejected tool call: %s", a.approvalCall.ToolName)
		a.showApproval = false
		a.approvalCall = nil
		a.updateViewportContent(true)
		return a, nil

	case "e":
		a.approvalForm = newArgFormFromSchema(a.approvalCall.ResolvedTool, a.approvalCall.Arguments)
		a.approvalEditMode = true
		return a, textinput.Blink
	}

	return a, nil
}

func (a AppView) approvePending(args map[string]any) (tea.Model, tea.Cmd) {
	if a.dataModel.Gate.Pending() == nil {
		a.showApproval = false
		return a, nil
	}

	a.executing = true
	a.executingTool = a.approvalCall.ToolName
	a.approvalEditMode = false
	a.execSpinner = newDotSpinner()

	return a, tea.Batch(
		a.execSpinner.Tick,
		a.dataModel.ApprovePendingCall(args),
	)
}
