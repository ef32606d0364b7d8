package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	"github.com/hylla/vimdo/internal/vim"
)

// keyMap describes the Normal-mode layout for the help line.
type keyMap struct {
	moveLeft   key.Binding
	moveRight  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	insert     key.Binding
	edit       key.Binding
	toggle     key.Binding
	deleteTask key.Binding
	command    key.Binding
	help       key.Binding
	quit       key.Binding
}

// newKeyMap mirrors the machine bindings so help never drifts from behavior.
func newKeyMap(b vim.Bindings) keyMap {
	return keyMap{
		moveLeft:   binding(b.Left, "column left"),
		moveRight:  binding(b.Right, "column right"),
		moveUp:     binding(b.Up, "task up"),
		moveDown:   binding(b.Down, "task down"),
		insert:     binding(b.Insert, "new task"),
		edit:       binding(b.Edit, "edit task"),
		toggle:     binding(b.Toggle, "toggle done"),
		deleteTask: key.NewBinding(key.WithKeys(b.Delete...), key.WithHelp(doubled(b.Delete), "delete task")),
		command:    binding(b.Command, "command"),
		help:       key.NewBinding(key.WithKeys(":"), key.WithHelp(":help", "help")),
		quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp(":q", "quit")),
	}
}

func binding(keys []string, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKeys(keys), desc))
}

func helpKeys(keys []string) string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		switch k {
		case "left":
			k = "←"
		case "right":
			k = "→"
		case "up":
			k = "↑"
		case "down":
			k = "↓"
		}
		out = append(out, k)
	}
	return strings.Join(out, "/")
}

func doubled(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return keys[0] + keys[0]
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.insert, k.edit, k.toggle, k.deleteTask, k.command, k.help, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.insert, k.edit, k.toggle, k.deleteTask},
		{k.command, k.help, k.quit},
	}
}
