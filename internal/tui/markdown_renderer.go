package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hylla/vimdo/internal/vim"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := width
	if wrapWidth < 24 {
		wrapWidth = 24
	}

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// helpMarkdown builds the :help reference from the active bindings.
func helpMarkdown(b vim.Bindings) string {
	var sb strings.Builder
	sb.WriteString("## Normal mode\n\n")
	rows := []struct {
		keys []string
		desc string
	}{
		{b.Left, "move to the column on the left"},
		{b.Right, "move to the column on the right"},
		{b.Up, "move up within the column"},
		{b.Down, "move down within the column"},
		{b.Insert, "new task (Insert mode)"},
		{b.Edit, "edit the highlighted task"},
		{b.Toggle, "toggle done"},
	}
	for _, row := range rows {
		fmt.Fprintf(&sb, "- `%s` %s\n", helpKeys(row.keys), row.desc)
	}
	fmt.Fprintf(&sb, "- `%s` delete the highlighted task\n", doubled(b.Delete))
	sb.WriteString("\n## Mouse\n\n")
	sb.WriteString("- click a task to highlight it, click it again to edit\n")
	sb.WriteString("- right click toggles done, the wheel moves up and down\n")
	sb.WriteString("\n## Insert mode\n\n")
	sb.WriteString("- `tab` / `shift+tab` move between the title and urgency\n")
	sb.WriteString("- `h` / `l` pick urgency while a radio is focused\n")
	sb.WriteString("- `enter` create, `esc` back to Normal\n")
	sb.WriteString("\n## Commands\n\n")
	sb.WriteString("- `:help` this screen\n")
	sb.WriteString("- `:q` / `:quit` exit\n")
	sb.WriteString("- `:reload` refetch every task\n")
	sb.WriteString("- `:yank` copy the highlighted title\n")
	return sb.String()
}
