// Package vim interprets key presses for the task board as a modal,
// vim-style input machine. It owns focus and mode state only; everything
// observable happens through the Effects it returns.
package vim

import (
	"time"

	"github.com/hylla/vimdo/internal/domain"
)

// DefaultDeleteWindow is how long a first `d` waits for its second press.
const DefaultDeleteWindow = 500 * time.Millisecond

// Machine is the mode dispatcher. It is not safe for concurrent use; feed
// it from a single event loop.
type Machine struct {
	state        State
	shape        Shape
	bindings     Bindings
	commands     map[string]Command
	clock        func() time.Time
	deleteWindow time.Duration
	armSeq       uint64
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock injects the time source used by the delete arm.
func WithClock(clock func() time.Time) Option {
	return func(m *Machine) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithDeleteWindow overrides the double-d window.
func WithDeleteWindow(window time.Duration) Option {
	return func(m *Machine) {
		if window > 0 {
			m.deleteWindow = window
		}
	}
}

// WithBindings replaces the key layout.
func WithBindings(b Bindings) Option {
	return func(m *Machine) {
		m.bindings = b
	}
}

// WithCommand adds or replaces one command-line entry.
func WithCommand(name string, cmd Command) Option {
	return func(m *Machine) {
		if cmd == nil {
			delete(m.commands, name)
			return
		}
		m.commands[name] = cmd
	}
}

// New returns a machine in Normal mode focused at {0,0} on an empty board.
func New(opts ...Option) *Machine {
	m := &Machine{
		state: State{
			vacant: true,
			form:   NewModalFocus(TaskFormNavigables(domain.DefaultUrgency)),
		},
		bindings:     DefaultBindings(),
		commands:     DefaultCommands(),
		clock:        time.Now,
		deleteWindow: DefaultDeleteWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// State exposes the focus model for reading.
func (m *Machine) State() *State {
	return &m.state
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	return m.state.Mode()
}

// Bindings returns the active key layout.
func (m *Machine) Bindings() Bindings {
	return m.bindings
}

// DeleteArmed reports whether a second `d` would delete now.
func (m *Machine) DeleteArmed() bool {
	return m.state.arm.active(m.clock())
}

// HandleKey routes one key press by precedence: help overlay, edit dialog,
// command line, Insert mode, Normal mode.
func (m *Machine) HandleKey(k Key) Result {
	switch m.state.overlay {
	case OverlayHelp:
		return m.handleHelpKey(k)
	case OverlayEdit:
		return m.handleEditKey(k)
	}
	if m.state.command != "" {
		return m.handleCommandKey(k)
	}
	if m.state.insert {
		return m.handleInsertKey(k)
	}
	return m.handleNormalKey(k)
}

// SetBoard installs a fresh board shape after a reload and re-establishes
// focus at the same logical position, clamped to the new bounds.
func (m *Machine) SetBoard(shape Shape) []Effect {
	prev, wasLive := m.state.board, m.state.BoardLive()
	m.shape = append(Shape(nil), shape...)
	next, ok := Reconcile(m.shape, prev)
	m.state.board = next
	m.state.vacant = !ok

	var effects []Effect
	if wasLive {
		effects = append(effects, ClearHighlight{At: prev})
	}
	if m.state.BoardLive() {
		effects = append(effects, SetHighlight{At: next})
	}
	return effects
}

// RestoreBoard puts the board focus back at prev, as after a failed delete.
// Follow it with SetBoard so prev is clamped against the restored shape.
func (m *Machine) RestoreBoard(prev BoardFocus) []Effect {
	var effects []Effect
	if m.state.BoardLive() && m.state.board != prev {
		effects = append(effects, ClearHighlight{At: m.state.board})
	}
	m.state.board = prev
	return effects
}

// Select moves the board focus straight to at. It only applies in Normal
// mode with no overlay open, and reports false when the board is vacant or
// at is off the board.
func (m *Machine) Select(at BoardFocus) ([]Effect, bool) {
	if m.state.Mode() != ModeNormal || m.state.vacant || !m.shape.Contains(at) {
		return nil, false
	}
	m.disarm()
	prev := m.state.board
	if prev == at {
		return nil, true
	}
	m.state.board = at
	return []Effect{ClearHighlight{At: prev}, SetHighlight{At: at}}, true
}

// Shape returns the board shape last installed by SetBoard.
func (m *Machine) Shape() Shape {
	return append(Shape(nil), m.shape...)
}

// OpenEdit opens the edit dialog with freshly built controls, focusing the
// first one and parking the board highlight.
func (m *Machine) OpenEdit(items []Navigable) []Effect {
	if len(items) == 0 {
		return nil
	}
	var effects []Effect
	if m.state.BoardLive() {
		effects = append(effects, ClearHighlight{At: m.state.board})
	}
	m.disarm()
	m.state.command = ""
	if m.state.insert {
		m.state.insert = false
		effects = append(effects, BlurTitle{})
	}
	m.state.overlay = OverlayEdit
	m.state.modal = NewModalFocus(items)
	return append(effects, ModalFocusChanged{From: -1, To: 0}, m.status())
}

// CloseEdit drops the edit dialog and restores the board highlight.
func (m *Machine) CloseEdit() []Effect {
	if m.state.overlay != OverlayEdit {
		return nil
	}
	m.state.overlay = OverlayNone
	m.state.modal = nil
	effects := []Effect{CloseEdit{}}
	if m.state.BoardLive() {
		effects = append(effects, SetHighlight{At: m.state.board})
	}
	return append(effects, m.status())
}

// LeaveInsert returns to Normal mode, as after a successful create.
func (m *Machine) LeaveInsert() []Effect {
	if !m.state.insert {
		return nil
	}
	m.state.insert = false
	effects := []Effect{BlurTitle{}}
	if m.state.BoardLive() {
		effects = append(effects, SetHighlight{At: m.state.board})
	}
	return append(effects, m.status())
}

// ExpireDeleteArm disarms a pending delete if token is still current.
func (m *Machine) ExpireDeleteArm(token uint64) bool {
	if !m.state.arm.armed || m.state.arm.token != token {
		return false
	}
	m.disarm()
	return true
}

func (m *Machine) handleHelpKey(k Key) Result {
	if k.Name != KeyEscape {
		return Result{Handled: true}
	}
	m.state.overlay = OverlayNone
	return handled(CloseHelp{})
}

func (m *Machine) handleEditKey(k Key) Result {
	focus := m.state.modal
	if k.Name == KeyEscape || focus == nil {
		return handled(m.CloseEdit()...)
	}
	if k.Name == KeyEnter {
		urgency, _ := focus.Selected(UrgencyGroup)
		return handled(SubmitEdit{Urgency: urgency})
	}
	if step, ok := tabStep(k); ok {
		return modalStep(focus.Move(step))
	}
	cur, _ := focus.Current()
	if cur.Kind == NavText {
		return Result{}
	}
	dir, ok := m.bindings.direction(k)
	if !ok {
		return Result{}
	}
	if dir == Left || dir == Right {
		if cur.Kind != NavRadio {
			return Result{}
		}
		return modalStep(focus.CycleRadio(dir))
	}
	return modalStep(focus.Move(dir))
}

func modalStep(from, to int, changed bool) Result {
	if !changed {
		return Result{Handled: true}
	}
	return handled(ModalFocusChanged{From: from, To: to})
}

func (m *Machine) handleInsertKey(k Key) Result {
	form := m.state.form
	switch k.Name {
	case KeyEscape:
		return handled(m.LeaveInsert()...)
	case KeyEnter:
		urgency, _ := form.Selected(UrgencyGroup)
		return handled(SubmitCreate{Urgency: urgency})
	}
	if step, ok := tabStep(k); ok {
		return formStep(form.Move(step))
	}
	cur, _ := form.Current()
	if cur.Kind != NavRadio {
		return Result{}
	}
	switch {
	case matches(k, m.bindings.Left):
		return formStep(form.CycleRadio(Left))
	case matches(k, m.bindings.Right):
		return formStep(form.CycleRadio(Right))
	}
	return Result{}
}

func formStep(from, to int, changed bool) Result {
	if !changed {
		return Result{Handled: true}
	}
	return handled(FormFocusChanged{From: from, To: to})
}

func (m *Machine) handleNormalKey(k Key) Result {
	if !matches(k, m.bindings.Delete) {
		m.disarm()
	}
	if dir, ok := m.bindings.direction(k); ok {
		return handled(m.moveBoard(dir)...)
	}
	switch {
	case matches(k, m.bindings.Insert):
		return handled(m.enterInsert()...)
	case matches(k, m.bindings.Edit):
		if m.state.vacant {
			return Result{Handled: true}
		}
		return handled(RequestEdit{At: m.state.board})
	case matches(k, m.bindings.Toggle):
		if m.state.vacant {
			return Result{Handled: true}
		}
		return handled(ToggleTask{At: m.state.board})
	case matches(k, m.bindings.Delete):
		return handled(m.pressDelete()...)
	case matches(k, m.bindings.Command):
		m.state.command = ":"
		return handled(m.status())
	}
	return Result{}
}

func (m *Machine) moveBoard(dir Direction) []Effect {
	if m.state.vacant {
		return nil
	}
	next, ok := MoveBoard(m.shape, m.state.board, dir)
	if !ok {
		return nil
	}
	prev := m.state.board
	m.state.board = next
	return []Effect{ClearHighlight{At: prev}, SetHighlight{At: next}}
}

func (m *Machine) enterInsert() []Effect {
	var effects []Effect
	if m.state.BoardLive() {
		effects = append(effects, ClearHighlight{At: m.state.board})
	}
	m.state.insert = true
	from, to, changed := m.state.form.Reset()
	if changed {
		effects = append(effects, FormFocusChanged{From: from, To: to})
	}
	return append(effects, FocusTitle{}, m.status())
}

func (m *Machine) pressDelete() []Effect {
	now := m.clock()
	if m.state.arm.active(now) {
		m.disarm()
		if m.state.vacant {
			return nil
		}
		return []Effect{DeleteTask{At: m.state.board}}
	}
	m.armSeq++
	m.state.arm = deleteArm{
		armed:   true,
		expires: now.Add(m.deleteWindow),
		token:   m.armSeq,
	}
	return []Effect{ScheduleDisarm{Token: m.armSeq, After: m.deleteWindow}}
}

func (m *Machine) disarm() {
	m.state.arm = deleteArm{}
}

func (m *Machine) openHelp() []Effect {
	m.state.overlay = OverlayHelp
	return []Effect{OpenHelp{}}
}

func (m *Machine) status() Effect {
	return StatusChanged{Text: m.state.StatusText()}
}

func tabStep(k Key) (Direction, bool) {
	switch k.Name {
	case KeyTab:
		return Down, true
	case KeyShiftTab:
		return Up, true
	}
	return 0, false
}

func handled(effects ...Effect) Result {
	return Result{Handled: true, Effects: effects}
}
