package tui

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/vimdo/internal/domain"
	"github.com/hylla/vimdo/internal/vim"
)

// View renders the board.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderContent draws the full screen as text.
func (m Model) renderContent() string {
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := m.renderHeader(dim)
	form := m.renderCreateForm(accent, muted)
	body := m.renderColumns(accent, muted, dim)

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	statusLine := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(m.status)
	if m.vim.DeleteArmed() {
		statusLine += statusStyle.Render("  d-")
	}
	if strings.TrimSpace(m.notice) != "" {
		statusLine += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(m.notice)
	}
	footer := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(statusLine + "\n" + helpBubble.View(m.keys))

	content := strings.Join([]string{header, form, body}, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(footer)))
	}
	full := content + "\n" + footer

	overlay := ""
	switch m.vim.State().Overlay() {
	case vim.OverlayHelp:
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	case vim.OverlayEdit:
		overlay = m.renderEditOverlay(accent, muted, dim)
	}
	if overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}
	return full
}

// renderHeader draws the title line with the optional clock.
func (m Model) renderHeader(dim color.Color) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("vimdo")
	if m.showClock {
		header += lipgloss.NewStyle().Foreground(dim).Render("  " + m.now.Format(m.clockFormat))
	}
	return header
}

// boardTop returns the screen row where the column borders start.
func (m Model) boardTop() int {
	accent, muted, dim := lipgloss.Color("62"), lipgloss.Color("241"), lipgloss.Color("239")
	return lipgloss.Height(m.renderHeader(dim)) + lipgloss.Height(m.renderCreateForm(accent, muted))
}

// boardPositionAt maps a screen cell to the task drawn there.
func (m Model) boardPositionAt(x, y int) (vim.BoardFocus, bool) {
	if !m.ready || x < 0 {
		return vim.BoardFocus{}, false
	}
	// Top border and the column title sit above the first task row.
	row := y - m.boardTop() - 2
	if row < 0 {
		return vim.BoardFocus{}, false
	}
	left := 0
	for col, view := range m.columnViews(lipgloss.Color("62"), lipgloss.Color("241"), lipgloss.Color("239")) {
		width := lipgloss.Width(view)
		if x < left+width {
			if row >= len(m.columns[col]) {
				return vim.BoardFocus{}, false
			}
			return vim.BoardFocus{Column: col, Task: row}, true
		}
		left += width
	}
	return vim.BoardFocus{}, false
}

// renderCreateForm draws the title input and its urgency radios.
func (m Model) renderCreateForm(accent, muted color.Color) string {
	form := m.vim.State().Form()
	line := m.titleInput.View()
	if form == nil {
		return line
	}
	focusedIdx := -1
	if m.vim.State().Mode() == vim.ModeInsert {
		focusedIdx = form.Index()
	}
	return line + "  " + renderRadios(form.Items(), focusedIdx, accent, muted)
}

// renderRadios draws one radio group; focusedIdx is -1 when none is focused.
func renderRadios(items []vim.Navigable, focusedIdx int, accent, muted color.Color) string {
	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	plain := lipgloss.NewStyle().Foreground(muted)
	parts := make([]string, 0, len(items))
	for i, item := range items {
		if item.Kind != vim.NavRadio {
			continue
		}
		mark := "( )"
		if item.Checked {
			mark = "(•)"
		}
		label := mark + " " + item.Name
		if i == focusedIdx {
			parts = append(parts, focusStyle.Render(label))
			continue
		}
		parts = append(parts, plain.Render(label))
	}
	return strings.Join(parts, "  ")
}

func (m Model) columnWidth() int {
	if m.width <= 0 {
		return 24
	}
	// Border, padding and margin add seven cells per column.
	return max(16, (m.width-domain.ColumnCount*7)/domain.ColumnCount)
}

// renderColumns draws the three urgency columns side by side.
func (m Model) renderColumns(accent, muted, dim color.Color) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, m.columnViews(accent, muted, dim)...)
}

// columnViews renders each urgency column on its own.
func (m Model) columnViews(accent, muted, dim color.Color) []string {
	colWidth := m.columnWidth()
	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 2).
		MarginRight(1).
		Width(colWidth)
	selColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedTaskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	doneStyle := lipgloss.NewStyle().Foreground(muted).Strikethrough(true)

	views := make([]string, 0, domain.ColumnCount)
	for colIdx, tasks := range m.columns {
		lines := []string{colTitle.Render(fmt.Sprintf("%s (%d)", domain.Category(colIdx).Title(), len(tasks)))}
		if len(tasks) == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}
		for taskIdx, task := range tasks {
			selected := m.highlight != nil && m.highlight.Column == colIdx && m.highlight.Task == taskIdx
			prefix := "  "
			if selected {
				prefix = "│ "
			}
			title := prefix + truncate(task.Title, max(1, colWidth-6))
			switch {
			case selected:
				title = selectedTaskStyle.Render(title)
			case task.Completed:
				title = doneStyle.Render(title)
			}
			lines = append(lines, title)
		}
		style := baseColStyle
		if m.highlight != nil && m.highlight.Column == colIdx {
			style = selColStyle
		}
		views = append(views, style.Render(strings.Join(lines, "\n")))
	}
	return views
}

// renderHelpOverlay draws the key reference opened by :help.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 48, 88)
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("vimdo help")
	lines := []string{
		title,
		m.markdown.render(helpMarkdown(m.vim.Bindings()), width-4),
		lipgloss.NewStyle().Foreground(muted).Render("press esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// renderEditOverlay draws the edit dialog for the task being edited.
func (m Model) renderEditOverlay(accent, muted, dim color.Color) string {
	if m.edit == nil {
		return ""
	}
	modal := m.vim.State().Modal()
	focusedIdx := -1
	var items []vim.Navigable
	if modal != nil {
		focusedIdx = modal.Index()
		items = modal.Items()
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(fmt.Sprintf("edit task #%d", m.edit.taskID)),
		"",
		m.edit.title.View(),
		renderRadios(items, focusedIdx, accent, muted),
		"",
		lipgloss.NewStyle().Foreground(muted).Render("enter save • tab next • esc cancel"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(clamp(m.width-8, 40, 72)).
		Render(strings.Join(lines, "\n"))
}
