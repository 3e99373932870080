package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/alpic-ai/grizzly/chat"
	appmodel "github.com/alpic-ai/grizzly/model"
	"github.com/alpic-ai/grizzly/storage"
)

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// UI Components
	viewport viewport.Model
	textarea textarea.Model

	// Window state
	width  int
	height int
	ready  bool

	// Streaming UI state
	assemblingTool string         // Tool name while its arguments stream in
	rendered       map[int]string // Turn index -> rendered markdown
	inlineNote     string         // One-line note after a rejection or cancel

	// Loading spinner (bubbles/spinner)
	loadingSpinner spinner.Model

	// Help modal
	showHelp bool

	// Tools panel
	showToolsPanel  bool
	selectedToolIdx int
	toolFilterMode  bool
	toolFilterInput textinput.Model
	filteredTools   []mcptypes.Tool

	// Direct invoke form (tools panel -> Enter)
	showInvokeForm bool
	invokeTool     *mcptypes.Tool
	invokeForm     argForm
	invoking       bool
	invokeSpinner  spinner.Model
	invokeResult   string
	invokeErr      string

	// Approval modal
	showApproval     bool
	approvalCall     *chat.PendingToolCall
	approvalEditMode bool
	approvalForm     argForm
	executing        bool
	executingTool    string
	execSpinner      spinner.Model

	// History pane
	showHistory        bool
	historyList        []storage.Invocation
	selectedHistoryIdx int

	// Acknowledge modal (for warnings/errors requiring only acknowledgement)
	showAcknowledgeModal  bool
	acknowledgeModalTitle string
	acknowledgeModalMsg   string
	acknowledgeModalType  ModalType
}

func NewAppView(dataModel *appmodel.Model) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Custom KeyMap: Alt+Enter for newline, Enter alone does nothing (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	// Dynamic prompt: "> " for first line, "| " for subsequent lines
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	vp := viewport.New(0, 0)

	toolFilterInput := textinput.New()
	toolFilterInput.Prompt = "Filter: "
	toolFilterInput.CharLimit = 64

	return AppView{
		dataModel:       dataModel,
		textarea:        ta,
		viewport:        vp,
		rendered:        map[int]string{},
		toolFilterInput: toolFilterInput,
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		a.dataModel.RefreshTools(),
		a.dataModel.PingProvider(),
	)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading Grizzly..."
	}

	// Modal rendering order (top to bottom layers):
	// 1. Acknowledge modal (errors need to be seen)
	// 2. Help
	// 3. Approval modal
	// 4. Invoke form
	// 5. Tools panel / History pane

	if a.showAcknowledgeModal {
		return RenderAcknowledgeModal(
			a.acknowledgeModalTitle,
			a.acknowledgeModalMsg,
			a.acknowledgeModalType,
			a.width,
			a.height,
		)
	}

	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}

	if a.showApproval {
		return a.renderApprovalModal()
	}

	if a.showInvokeForm {
		return a.renderInvokeForm()
	}

	if a.showToolsPanel {
		return a.renderToolsPanel()
	}

	if a.showHistory {
		return a.renderHistoryPane()
	}

	// Title bar - "Grizzly - server - provider/model | 🔧 tools"
	appText := AssistantStyle.Render("Grizzly")
	serverText := TitleStyle.Render(fmt.Sprintf(" - %s", a.dataModel.MCP.ServerInfo().Name))
	modelText := UserStyle.Render(fmt.Sprintf(" - %s", a.dataModel.Provider.GetModel()))

	toolText := ""
	if len(a.dataModel.Tools) > 0 {
		indicator := fmt.Sprintf(" | 🔧 %d tools", len(a.dataModel.Tools))
		if issues := a.totalIssueCount(); issues > 0 {
			indicator += fmt.Sprintf(" (⚠ %d)", issues)
		}
		toolText = DimStyle.Render(indicator)
	}

	title := appText + serverText + modelText + toolText

	if a.executingTool != "" {
		title += TitleStyle.Render(fmt.Sprintf(" | 🔧: %s %s", a.executingTool, a.execSpinner.View()))
	}

	// Separator with bottom margin for header (empty line forces spacing)
	separator := ""

	viewportView := a.viewport.View()
	inputView := a.textarea.View()

	// Status bar with bold user green descriptions
	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("Alt+Q %s  Alt+T %s  Alt+R %s  Alt+H %s  Alt+Enter %s  Enter %s  Alt+Y %s",
		descStyle.Render("Quit"),
		descStyle.Render("Tools"),
		descStyle.Render("History"),
		descStyle.Render("Help"),
		descStyle.Render("New Line"),
		descStyle.Render("Send"),
		descStyle.Render("Copy"),
	)
	statusBar = StatusStyle.Render(statusBar)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		separator,
		viewportView,
		inputView,
		statusBar,
	)
}

func (a AppView) getToolList() []mcptypes.Tool {
	if a.toolFilterMode && len(a.filteredTools) > 0 {
		return a.filteredTools
	}
	return a.dataModel.Tools
}

func (a AppView) totalIssueCount() int {
	n := 0
	for _, issues := range a.dataModel.Issues {
		n += len(issues)
	}
	return n
}

func (a *AppView) closeAllModals() {
	a.showHelp = false
	a.showToolsPanel = false
	a.showInvokeForm = false
	a.showHistory = false
	a.showAcknowledgeModal = false

	a.toolFilterMode = false
	if a.toolFilterInput.Focused() {
		a.toolFilterInput.Blur()
	}
	a.invokeResult = ""
	a.invokeErr = ""
}
