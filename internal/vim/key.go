package vim

import "strings"

// Canonical names for the non-printable keys the machine reacts to.
const (
	KeyEnter     = "enter"
	KeyEscape    = "esc"
	KeyBackspace = "backspace"
	KeyTab       = "tab"
	KeyShiftTab  = "shift+tab"
)

// Key is one key press as seen by the machine.
// Name is the canonical keystroke ("j", "enter", "ctrl+c"); Text is the
// printable text it produced, empty for special or modified keys.
type Key struct {
	Name string
	Text string
}

// Rune returns the key press for a printable character.
func Rune(r rune) Key {
	s := string(r)
	return Key{Name: s, Text: s}
}

// Special returns a key press without printable text.
func Special(name string) Key {
	return Key{Name: name}
}

// Printable reports whether k should be appended to text buffers.
func (k Key) Printable() bool {
	if k.Text == "" {
		return false
	}
	for _, mod := range []string{"ctrl+", "alt+", "super+", "meta+"} {
		if strings.HasPrefix(k.Name, mod) {
			return false
		}
	}
	return true
}

// Bindings maps machine actions to key names.
type Bindings struct {
	Left    []string
	Down    []string
	Up      []string
	Right   []string
	Insert  []string
	Edit    []string
	Toggle  []string
	Delete  []string
	Command []string
}

// DefaultBindings returns the vim-style layout with arrow aliases.
func DefaultBindings() Bindings {
	return Bindings{
		Left:    []string{"h", "left"},
		Down:    []string{"j", "down"},
		Up:      []string{"k", "up"},
		Right:   []string{"l", "right"},
		Insert:  []string{"i"},
		Edit:    []string{"e", KeyEnter},
		Toggle:  []string{"v"},
		Delete:  []string{"d"},
		Command: []string{":"},
	}
}

func matches(k Key, names []string) bool {
	for _, name := range names {
		if k.Name == name {
			return true
		}
	}
	return false
}

// direction resolves a movement key, reporting false for anything else.
func (b Bindings) direction(k Key) (Direction, bool) {
	switch {
	case matches(k, b.Down):
		return Down, true
	case matches(k, b.Up):
		return Up, true
	case matches(k, b.Left):
		return Left, true
	case matches(k, b.Right):
		return Right, true
	}
	return 0, false
}
