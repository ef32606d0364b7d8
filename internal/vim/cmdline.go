package vim

import "unicode/utf8"

// Command runs when its name is entered on the command line.
type Command func(m *Machine) []Effect

// DefaultCommands is the built-in command table.
func DefaultCommands() map[string]Command {
	quit := func(*Machine) []Effect { return []Effect{Quit{}} }
	return map[string]Command{
		":help": func(m *Machine) []Effect { return m.openHelp() },
		":q":    quit,
		":quit": quit,
		":reload": func(*Machine) []Effect {
			return []Effect{Reload{}}
		},
		":yank": func(m *Machine) []Effect {
			if m.state.vacant {
				return nil
			}
			return []Effect{YankTask{At: m.state.board}}
		},
	}
}

func (m *Machine) handleCommandKey(k Key) Result {
	switch k.Name {
	case KeyEscape:
		m.state.command = ""
		return handled(m.status())
	case KeyEnter:
		line := m.state.command
		m.state.command = ""
		effects := []Effect{m.status()}
		if cmd, ok := m.commands[line]; ok {
			effects = append(effects, cmd(m)...)
		}
		return handled(effects...)
	case KeyBackspace:
		_, size := utf8.DecodeLastRuneInString(m.state.command)
		m.state.command = m.state.command[:len(m.state.command)-size]
		return handled(m.status())
	}
	if k.Printable() {
		m.state.command += k.Text
		return handled(m.status())
	}
	return Result{}
}
