package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const historyFetchLimit = 50

func (a AppView) renderHistoryPane() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Invocation History") + "\n\n")

	if len(a.historyList) == 0 {
		b.WriteString(DimStyle.Render("No invocations recorded yet.") + "\n")
	}

	nameWidth := 28
	for i, inv := range a.historyList {
		cursor := "  "
		nameStyle := lipgloss.NewStyle()
		if i == a.selectedHistoryIdx {
			cursor = SelectedStyle.Render("> ")
			nameStyle = SelectedStyle
		}

		status := UserStyle.Render("ok")
		if inv.Errored {
			status = ErrorStyle.Render("err")
		}

		name := inv.ToolName
		if runewidth.StringWidth(name) > nameWidth {
			name = runewidth.Truncate(name, nameWidth, "...")
		}
		name = name + strings.Repeat(" ", max(0, nameWidth-runewidth.StringWidth(name)))

		b.WriteString(fmt.Sprintf("%s%s %s %-6s %-7s %s\n",
			cursor,
			DimStyle.Render(inv.CalledAt.Format("15:04:05")),
			nameStyle.Render(name),
			string(inv.Source),
			formatDuration(inv.Duration),
			status,
		))
	}

	// Result preview for the selected entry
	if len(a.historyList) > 0 && a.selectedHistoryIdx < len(a.historyList) {
		inv := a.historyList[a.selectedHistoryIdx]
		b.WriteString("\n")
		preview := inv.Result
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		for _, line := range strings.Split(preview, "\n") {
			b.WriteString("  " + DimStyle.Render(line) + "\n")
		}
	}

	footer := FormatFooter("j/k", "Navigate", "Alt+Y", "Copy Result", "r", "Refresh", "Esc", "Close")
	b.WriteString("\n" + HelpStyle().Render(footer))

	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(b.String()))
}

func (a AppView) handleHistoryUpdate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showHistory = false
		return a, nil

	case "j", "down":
		if a.selectedHistoryIdx < len(a.historyList)-1 {
			a.selectedHistoryIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedHistoryIdx > 0 {
			a.selectedHistoryIdx--
		}
		return a, nil

	case "g":
		a.selectedHistoryIdx = 0
		return a, nil

	case "G":
		if len(a.historyList) > 0 {
			a.selectedHistoryIdx = len(a.historyList) - 1
		}
		return a, nil

	case "r":
		return a, a.dataModel.FetchHistory(historyFetchLimit)
	}

	return a, nil
}
