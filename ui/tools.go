package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/alpic-ai/grizzly/mcp"
)

func (a AppView) renderToolsPanel() string {
	var b strings.Builder

	header := TitleStyle.Render(fmt.Sprintf("Tools - %s", a.dataModel.MCP.ServerInfo().Name))
	b.WriteString(header + "\n\n")

	if a.toolFilterMode {
		b.WriteString(a.toolFilterInput.View() + "\n\n")
	}

	tools := a.getToolList()
	if len(tools) == 0 {
		b.WriteString(DimStyle.Render("No tools. The server exposed an empty catalog, or the refresh failed.") + "\n")
	}

	nameWidth := 28
	descWidth := a.width - nameWidth - 12
	if descWidth < 20 {
		descWidth = 20
	}

	for i, tool := range tools {
		cursor := "  "
		nameStyle := lipgloss.NewStyle()
		if i == a.selectedToolIdx {
			cursor = SelectedStyle.Render("> ")
			nameStyle = SelectedStyle
		}

		name := tool.Name
		if runewidth.StringWidth(name) > nameWidth {
			name = runewidth.Truncate(name, nameWidth, "...")
		}
		name = name + strings.Repeat(" ", max(0, nameWidth-runewidth.StringWidth(name)))

		desc := strings.ReplaceAll(tool.Description, "\n", " ")
		if runewidth.StringWidth(desc) > descWidth {
			desc = runewidth.Truncate(desc, descWidth, "...")
		}

		marker := "   "
		if issues := a.dataModel.Issues[tool.Name]; len(issues) > 0 {
			errs, warns := mcp.IssueCounts(issues)
			if errs > 0 {
				marker = ErrorStyle.Render(fmt.Sprintf("E%d ", errs))
			} else if warns > 0 {
				marker = WarnStyle.Render(fmt.Sprintf("W%d ", warns))
			}
		}

		b.WriteString(fmt.Sprintf("%s%s%s %s\n", cursor, marker, nameStyle.Render(name), DimStyle.Render(desc)))
	}

	// Lint detail for the selected tool
	if len(tools) > 0 && a.selectedToolIdx < len(tools) {
		if issues := a.dataModel.Issues[tools[a.selectedToolIdx].Name]; len(issues) > 0 {
			b.WriteString("\n")
			for _, issue := range issues {
				style := WarnStyle
				if issue.Severity == mcp.SeverityError {
					style = ErrorStyle
				}
				b.WriteString("  " + style.Render(issue.String()) + "\n")
			}
		}
	}

	footer := FormatFooter("j/k", "Navigate", "Enter", "Invoke", "/", "Filter", "r", "Refresh", "Esc", "Close")
	b.WriteString("\n" + HelpStyle().Render(footer))

	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(b.String()))
}

// HelpStyle returns the dim footer style. Kept as a function so panels
// share one definition.
func HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(dimColor)
}

func (a AppView) handleToolsPanelUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.toolFilterMode {
		switch msg.String() {
		case "esc":
			a.toolFilterMode = false
			a.toolFilterInput.Blur()
			a.filteredTools = nil
			a.selectedToolIdx = 0
			return a, nil

		case "enter":
			return a.openInvokeForm()

		case "down":
			list := a.getToolList()
			if a.selectedToolIdx < len(list)-1 {
				a.selectedToolIdx++
			}
			return a, nil

		case "up":
			if a.selectedToolIdx > 0 {
				a.selectedToolIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.toolFilterInput, cmd = a.toolFilterInput.Update(msg)

		filterValue := a.toolFilterInput.Value()
		if filterValue == "" {
			a.filteredTools = a.dataModel.Tools
		} else {
			targets := make([]string, len(a.dataModel.Tools))
			for i, t := range a.dataModel.Tools {
				targets[i] = t.Name
			}

			matches := fuzzy.Find(filterValue, targets)
			a.filteredTools = make([]mcptypes.Tool, len(matches))
			for i, match := range matches {
				a.filteredTools[i] = a.dataModel.Tools[match.Index]
			}
		}

		list := a.getToolList()
		if a.selectedToolIdx >= len(list) && len(list) > 0 {
			a.selectedToolIdx = len(list) - 1
		}

		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.toolFilterMode = true
		a.toolFilterInput.Focus()
		a.toolFilterInput.SetValue("")
		a.filteredTools = a.dataModel.Tools
		return a, textinput.Blink

	case "esc":
		a.showToolsPanel = false
		return a, nil

	case "j", "down":
		list := a.getToolList()
		if a.selectedToolIdx < len(list)-1 {
			a.selectedToolIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedToolIdx > 0 {
			a.selectedToolIdx--
		}
		return a, nil

	case "g":
		a.selectedToolIdx = 0
		return a, nil

	case "G":
		if n := len(a.getToolList()); n > 0 {
			a.selectedToolIdx = n - 1
		}
		return a, nil

	case "r":
		return a, a.dataModel.RefreshTools()

	case "enter":
		return a.openInvokeForm()
	}

	return a, nil
}

func (a AppView) openInvokeForm() (tea.Model, tea.Cmd) {
	list := a.getToolList()
	if len(list) == 0 || a.selectedToolIdx >= len(list) {
		return a, nil
	}

	tool := list[a.selectedToolIdx]
	a.invokeTool = &tool
	a.invokeForm = newArgFormFromSchema(&tool, nil)
	a.showInvokeForm = true
	a.showToolsPanel = false
	a.invokeResult = ""
	a.invokeErr = ""
	return a, textinput.Blink
}

func (a AppView) renderInvokeForm() string {
	tool := a.invokeTool
	if tool == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Invoke: "+tool.Name) + "\n\n")

	descWidth := a.width - 8
	for _, line := range wrapToWidth(tool.Description, descWidth) {
		b.WriteString(DimStyle.Render(line) + "\n")
	}

	if ann := tool.Annotations; ann.DestructiveHint != nil && *ann.DestructiveHint {
		b.WriteString(WarnStyle.Render("⚠ annotated destructive") + "\n")
	}
	b.WriteString("\n")

	if len(a.invokeForm.labels) == 0 {
		b.WriteString(DimStyle.Render("  (no arguments)") + "\n")
	}
	for _, line := range a.invokeForm.renderLines() {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")

	switch {
	case a.invoking:
		b.WriteString(fmt.Sprintf("%s calling %s...\n", a.invokeSpinner.View(), tool.Name))
	case a.invokeErr != "":
		b.WriteString(ErrorStyle.Render("✗ "+a.invokeErr) + "\n")
	case a.invokeResult != "":
		b.WriteString(UserStyle.Render("Result") + "\n")
		b.WriteString(a.invokeResult + "\n")
	}

	footer := FormatFooter("Tab", "Next Field", "Enter", "Call", "Alt+Y", "Copy Result", "Esc", "Back")
	b.WriteString("\n" + HelpStyle().Render(footer))

	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(b.String()))
}

func (a AppView) handleInvokeFormUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.invoking {
		// Let the call finish or time out
		return a, nil
	}

	switch msg.String() {
	case "esc":
		a.showInvokeForm = false
		a.showToolsPanel = true
		a.invokeTool = nil
		return a, nil

	case "tab", "down":
		a.invokeForm = a.invokeForm.focusNext()
		return a, nil

	case "shift+tab", "up":
		a.invokeForm = a.invokeForm.focusPrev()
		return a, nil

	case "enter":
		if a.invokeTool == nil {
			return a, nil
		}
		a.invoking = true
		a.invokeResult = ""
		a.invokeErr = ""
		a.invokeSpinner = newDotSpinner()
		return a, tea.Batch(
			a.invokeSpinner.Tick,
			a.dataModel.InvokeTool(a.invokeTool.Name, a.invokeForm.collect()),
		)
	}

	var cmd tea.Cmd
	a.invokeForm, cmd = a.invokeForm.update(msg)
	return a, cmd
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	seconds := float64(d.Milliseconds()) / 1000.0
	return fmt.Sprintf("%.1fs", seconds)
}
