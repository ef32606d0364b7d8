package vim

import (
	"slices"

	"github.com/hylla/vimdo/internal/domain"
)

// UrgencyGroup names the radio group holding the urgency choices.
const UrgencyGroup = "urgency"

// NavigableKind distinguishes focusable controls.
type NavigableKind int

const (
	NavText NavigableKind = iota
	NavRadio
)

// Navigable is one focusable control in a dialog or form.
type Navigable struct {
	Kind    NavigableKind
	Name    string
	Group   string
	Value   int
	Checked bool
}

// TaskFormNavigables builds the title field followed by one radio per urgency.
func TaskFormNavigables(selected domain.Urgency) []Navigable {
	if !selected.Valid() {
		selected = domain.DefaultUrgency
	}
	items := []Navigable{{Kind: NavText, Name: "title"}}
	for _, u := range domain.Urgencies() {
		items = append(items, Navigable{
			Kind:    NavRadio,
			Name:    u.Label(),
			Group:   UrgencyGroup,
			Value:   int(u),
			Checked: u == selected,
		})
	}
	return items
}

// ModalFocus tracks which control of a dialog or form holds focus.
type ModalFocus struct {
	items []Navigable
	index int
}

// NewModalFocus starts at the first control.
func NewModalFocus(items []Navigable) *ModalFocus {
	return &ModalFocus{items: slices.Clone(items)}
}

// Index is the position of the focused control.
func (f *ModalFocus) Index() int {
	return f.index
}

// Len is the number of controls.
func (f *ModalFocus) Len() int {
	return len(f.items)
}

// Items returns a copy of the controls.
func (f *ModalFocus) Items() []Navigable {
	return slices.Clone(f.items)
}

// Current returns the focused control.
func (f *ModalFocus) Current() (Navigable, bool) {
	if f.index < 0 || f.index >= len(f.items) {
		return Navigable{}, false
	}
	return f.items[f.index], true
}

// IndexOf locates target in the flat list, or -1.
func (f *ModalFocus) IndexOf(target Navigable) int {
	return slices.IndexFunc(f.items, func(n Navigable) bool {
		return n.Kind == target.Kind && n.Group == target.Group && n.Name == target.Name && n.Value == target.Value
	})
}

// Selected returns the value of the checked radio in group.
func (f *ModalFocus) Selected(group string) (int, bool) {
	for _, n := range f.items {
		if n.Kind == NavRadio && n.Group == group && n.Checked {
			return n.Value, true
		}
	}
	return 0, false
}

// Reset focuses the first control.
func (f *ModalFocus) Reset() (from, to int, changed bool) {
	return f.focus(0)
}

// Move shifts focus one control down or up within bounds.
func (f *ModalFocus) Move(dir Direction) (from, to int, changed bool) {
	switch dir {
	case Down:
		if f.index < len(f.items)-1 {
			return f.focus(f.index + 1)
		}
	case Up:
		if f.index > 0 {
			return f.focus(f.index - 1)
		}
	}
	return f.index, f.index, false
}

// CycleRadio moves to the neighbouring radio of the focused one and checks
// it. Only left and right apply, and only on urgency radios.
func (f *ModalFocus) CycleRadio(dir Direction) (from, to int, changed bool) {
	cur, ok := f.Current()
	if !ok || cur.Kind != NavRadio || cur.Group != UrgencyGroup {
		return f.index, f.index, false
	}
	group := make([]Navigable, 0, len(f.items))
	for _, n := range f.items {
		if n.Kind == NavRadio && n.Group == cur.Group {
			group = append(group, n)
		}
	}
	pos := slices.IndexFunc(group, func(n Navigable) bool { return n.Value == cur.Value && n.Name == cur.Name })
	switch {
	case dir == Right && pos < len(group)-1:
		pos++
	case dir == Left && pos > 0:
		pos--
	default:
		return f.index, f.index, false
	}
	target := f.IndexOf(group[pos])
	if target < 0 {
		return f.index, f.index, false
	}
	for i := range f.items {
		if f.items[i].Kind == NavRadio && f.items[i].Group == cur.Group {
			f.items[i].Checked = i == target
		}
	}
	return f.focus(target)
}

func (f *ModalFocus) focus(idx int) (from, to int, changed bool) {
	from = f.index
	if idx < 0 || idx >= len(f.items) {
		return from, from, false
	}
	f.index = idx
	return from, idx, from != idx
}
