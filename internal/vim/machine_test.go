package vim

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestMachine(t *testing.T, shape Shape) (*Machine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)}
	m := New(WithClock(clock.Now))
	m.SetBoard(shape)
	return m, clock
}

func press(m *Machine, keys ...Key) []Effect {
	var out []Effect
	for _, k := range keys {
		out = append(out, m.HandleKey(k).Effects...)
	}
	return out
}

func typeRunes(m *Machine, s string) []Effect {
	var out []Effect
	for _, r := range s {
		out = append(out, m.HandleKey(Rune(r)).Effects...)
	}
	return out
}

func effectsOf[T Effect](effects []Effect) []T {
	var out []T
	for _, e := range effects {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func lastStatus(t *testing.T, effects []Effect) string {
	t.Helper()
	statuses := effectsOf[StatusChanged](effects)
	if len(statuses) == 0 {
		t.Fatal("expected a status update")
	}
	return statuses[len(statuses)-1].Text
}

func TestNewMachineStartsInNormalAtOrigin(t *testing.T) {
	m := New()
	if m.Mode() != ModeNormal {
		t.Fatalf("expected normal mode, got %s", m.Mode())
	}
	if m.State().Board() != (BoardFocus{}) || !m.State().Vacant() {
		t.Fatalf("expected vacant focus at origin, got %#v", m.State().Board())
	}
	if m.State().StatusText() != "-- NORMAL --" {
		t.Fatalf("unexpected status %q", m.State().StatusText())
	}
	if effects := m.SetBoard(Shape{1, 0, 0}); len(effectsOf[SetHighlight](effects)) != 1 {
		t.Fatalf("expected first load to set the highlight, got %#v", effects)
	}
}

func TestBoardScenarioSkipsEmptyColumn(t *testing.T) {
	m, _ := newTestMachine(t, Shape{2, 0, 1})
	press(m, Rune('j'))
	if m.State().Board() != (BoardFocus{Column: 0, Task: 1}) {
		t.Fatalf("expected {0,1}, got %#v", m.State().Board())
	}

	effects := press(m, Rune('l'))
	if m.State().Board() != (BoardFocus{Column: 2, Task: 0}) {
		t.Fatalf("expected {2,0}, got %#v", m.State().Board())
	}
	if len(effects) != 2 {
		t.Fatalf("expected clear then set, got %#v", effects)
	}
	if clear, ok := effects[0].(ClearHighlight); !ok || clear.At != (BoardFocus{0, 1}) {
		t.Fatalf("expected clear of {0,1} first, got %#v", effects[0])
	}
	if set, ok := effects[1].(SetHighlight); !ok || set.At != (BoardFocus{2, 0}) {
		t.Fatalf("expected set of {2,0} second, got %#v", effects[1])
	}

	press(m, Rune('h'))
	if m.State().Board() != (BoardFocus{Column: 0, Task: 0}) {
		t.Fatalf("expected {0,0}, got %#v", m.State().Board())
	}
	if effects := press(m, Rune('h')); len(effects) != 0 {
		t.Fatalf("expected no-op at leftmost column, got %#v", effects)
	}
}

func TestDoubleDeleteWithinWindowDeletesOnce(t *testing.T) {
	m, clock := newTestMachine(t, Shape{3})
	press(m, Rune('j'))

	first := m.HandleKey(Rune('d'))
	schedules := effectsOf[ScheduleDisarm](first.Effects)
	if len(schedules) != 1 || schedules[0].After != DefaultDeleteWindow {
		t.Fatalf("expected a 500ms disarm schedule, got %#v", first.Effects)
	}
	if !m.DeleteArmed() {
		t.Fatal("expected delete armed after first d")
	}

	clock.Advance(300 * time.Millisecond)
	deletes := effectsOf[DeleteTask](press(m, Rune('d')))
	if len(deletes) != 1 || deletes[0].At != (BoardFocus{Column: 0, Task: 1}) {
		t.Fatalf("expected one delete of {0,1}, got %#v", deletes)
	}
	if m.DeleteArmed() {
		t.Fatal("expected disarm after confirm")
	}
	if m.ExpireDeleteArm(schedules[0].Token) {
		t.Fatal("stale expiry must not report a disarm")
	}
}

func TestSingleDeleteExpires(t *testing.T) {
	m, clock := newTestMachine(t, Shape{1})
	schedules := effectsOf[ScheduleDisarm](press(m, Rune('d')))
	clock.Advance(600 * time.Millisecond)
	if !m.ExpireDeleteArm(schedules[0].Token) {
		t.Fatal("expected expiry to disarm")
	}
	if m.DeleteArmed() {
		t.Fatal("expected disarmed after expiry")
	}

	effects := press(m, Rune('d'))
	if len(effectsOf[DeleteTask](effects)) != 0 {
		t.Fatalf("expected re-arm instead of delete, got %#v", effects)
	}
}

func TestLateSecondDeleteRearmsWithoutTick(t *testing.T) {
	m, clock := newTestMachine(t, Shape{1})
	press(m, Rune('d'))
	clock.Advance(DefaultDeleteWindow)
	effects := press(m, Rune('d'))
	if len(effectsOf[DeleteTask](effects)) != 0 {
		t.Fatalf("expected no delete after the window closed, got %#v", effects)
	}
	if len(effectsOf[ScheduleDisarm](effects)) != 1 {
		t.Fatalf("expected a fresh arm, got %#v", effects)
	}
}

func TestInterleavedKeyCancelsDelete(t *testing.T) {
	m, _ := newTestMachine(t, Shape{2})
	effects := press(m, Rune('d'), Rune('j'), Rune('d'))
	if len(effectsOf[DeleteTask](effects)) != 0 {
		t.Fatalf("expected no delete for d j d, got %#v", effects)
	}
	m, _ = newTestMachine(t, Shape{2})
	effects = press(m, Rune('d'), Rune('x'), Rune('d'))
	if len(effectsOf[DeleteTask](effects)) != 0 {
		t.Fatalf("expected unmatched key to disarm too, got %#v", effects)
	}
}

func TestDeleteOnEmptyBoardIsNoop(t *testing.T) {
	m, _ := newTestMachine(t, Shape{0, 0, 0})
	effects := press(m, Rune('d'), Rune('d'), Rune('v'), Rune('e'))
	if len(effectsOf[DeleteTask](effects))+len(effectsOf[ToggleTask](effects))+len(effectsOf[RequestEdit](effects)) != 0 {
		t.Fatalf("expected no task actions on empty board, got %#v", effects)
	}
}

func TestCommandLineHelpAndUnknown(t *testing.T) {
	m, _ := newTestMachine(t, Shape{1})
	effects := press(m, Rune(':'))
	if m.Mode() != ModeCommand || lastStatus(t, effects) != ":" {
		t.Fatalf("expected command mode with ':' status, got %s", m.Mode())
	}
	effects = typeRunes(m, "help")
	if lastStatus(t, effects) != ":help" {
		t.Fatalf("expected live buffer in status, got %q", lastStatus(t, effects))
	}
	effects = press(m, Special(KeyEnter))
	if len(effectsOf[OpenHelp](effects)) != 1 {
		t.Fatalf("expected help to open, got %#v", effects)
	}
	if m.State().Command() != "" || m.State().Overlay() != OverlayHelp || m.Mode() != ModeModalOpen {
		t.Fatalf("expected cleared buffer and help overlay, got %#v", m.State())
	}
	if res := m.HandleKey(Rune('j')); !res.Handled || len(res.Effects) != 0 {
		t.Fatalf("expected keys swallowed under help, got %#v", res)
	}
	press(m, Special(KeyEscape))
	if m.Mode() != ModeNormal {
		t.Fatalf("expected normal after closing help, got %s", m.Mode())
	}

	press(m, Rune(':'))
	typeRunes(m, "xyz")
	effects = press(m, Special(KeyEnter))
	if len(effects) != 1 || lastStatus(t, effects) != "-- NORMAL --" {
		t.Fatalf("expected silent discard, got %#v", effects)
	}
	if m.Mode() != ModeNormal {
		t.Fatalf("expected normal mode, got %s", m.Mode())
	}
}

func TestCommandLineBackspaceAndEscape(t *testing.T) {
	m, _ := newTestMachine(t, Shape{1})
	press(m, Rune(':'), Rune('q'))
	effects := press(m, Special(KeyBackspace))
	if lastStatus(t, effects) != ":" || m.Mode() != ModeCommand {
		t.Fatalf("expected ':' after one backspace, got %q", m.State().Command())
	}
	effects = press(m, Special(KeyBackspace))
	if lastStatus(t, effects) != "-- NORMAL --" || m.Mode() != ModeNormal {
		t.Fatalf("expected normal after emptying buffer, got %s", m.Mode())
	}

	press(m, Rune(':'), Rune('h'))
	if res := m.HandleKey(Key{Name: "ctrl+a"}); res.Handled || m.State().Command() != ":h" {
		t.Fatalf("expected modifier key ignored, got %#v / %q", res, m.State().Command())
	}
	press(m, Special(KeyEscape))
	if m.State().Command() != "" || m.Mode() != ModeNormal {
		t.Fatalf("expected escape to discard, got %q", m.State().Command())
	}
}

func TestCommandLineBuiltins(t *testing.T) {
	m, _ := newTestMachine(t, Shape{0, 2})
	press(m, Rune(':'))
	typeRunes(m, "yank")
	yanks := effectsOf[YankTask](press(m, Special(KeyEnter)))
	if len(yanks) != 1 || yanks[0].At != (BoardFocus{Column: 1}) {
		t.Fatalf("expected yank of focused task, got %#v", yanks)
	}
	press(m, Rune(':'))
	typeRunes(m, "q")
	if quits := effectsOf[Quit](press(m, Special(KeyEnter))); len(quits) != 1 {
		t.Fatalf("expected quit, got %#v", quits)
	}

	custom := New(WithCommand(":hello", func(*Machine) []Effect { return []Effect{Reload{}} }), WithCommand(":q", nil))
	press(custom, Rune(':'))
	typeRunes(custom, "hello")
	if reloads := effectsOf[Reload](press(custom, Special(KeyEnter))); len(reloads) != 1 {
		t.Fatalf("expected custom command to run, got %#v", reloads)
	}
	press(custom, Rune(':'), Rune('q'))
	if quits := effectsOf[Quit](press(custom, Special(KeyEnter))); len(quits) != 0 {
		t.Fatalf("expected removed command to be ignored, got %#v", quits)
	}
}

func TestInsertModeParksBoardAndCyclesUrgency(t *testing.T) {
	m, _ := newTestMachine(t, Shape{1, 1})
	effects := press(m, Rune('i'))
	if m.Mode() != ModeInsert || lastStatus(t, effects) != "-- INSERT --" {
		t.Fatalf("expected insert mode, got %s", m.Mode())
	}
	if len(effectsOf[ClearHighlight](effects)) != 1 || len(effectsOf[FocusTitle](effects)) != 1 {
		t.Fatalf("expected highlight parked and title focused, got %#v", effects)
	}
	if m.State().BoardLive() {
		t.Fatal("expected board highlight parked in insert mode")
	}

	if res := m.HandleKey(Rune('j')); res.Handled {
		t.Fatal("expected typing to pass through to the title field")
	}
	if res := m.HandleKey(Rune('l')); res.Handled {
		t.Fatal("expected l on the title field to pass through")
	}

	press(m, Special(KeyTab))
	if m.State().Form().Index() != 1 {
		t.Fatalf("expected tab to focus first radio, got %d", m.State().Form().Index())
	}
	press(m, Rune('l'))
	submits := effectsOf[SubmitCreate](press(m, Special(KeyEnter)))
	if len(submits) != 1 || submits[0].Urgency != 2 {
		t.Fatalf("expected submit with urgency 2, got %#v", submits)
	}

	effects = press(m, Special(KeyEscape))
	if m.Mode() != ModeNormal || !m.State().BoardLive() {
		t.Fatalf("expected normal mode with live board, got %s", m.Mode())
	}
	if len(effectsOf[BlurTitle](effects)) != 1 || len(effectsOf[SetHighlight](effects)) != 1 {
		t.Fatalf("expected blur and restored highlight, got %#v", effects)
	}

	press(m, Rune('i'))
	if m.State().Form().Index() != 0 {
		t.Fatalf("expected re-entering insert to focus the title, got %d", m.State().Form().Index())
	}
	if v, _ := m.State().Form().Selected(UrgencyGroup); v != 2 {
		t.Fatalf("expected urgency choice to persist, got %d", v)
	}
}

func TestEditDialogNavigation(t *testing.T) {
	m, _ := newTestMachine(t, Shape{1})
	requests := effectsOf[RequestEdit](press(m, Special(KeyEnter)))
	if len(requests) != 1 || requests[0].At != (BoardFocus{}) {
		t.Fatalf("expected edit request for focused task, got %#v", requests)
	}
	if m.Mode() != ModeNormal {
		t.Fatal("edit dialog opens only once the host has fetched the task")
	}

	effects := m.OpenEdit(TaskFormNavigables(1))
	if m.Mode() != ModeModalOpen || m.State().Modal().Index() != 0 {
		t.Fatalf("expected modal open at index 0, got %s", m.Mode())
	}
	if m.State().BoardLive() || len(effectsOf[ClearHighlight](effects)) != 1 {
		t.Fatalf("expected board parked while dialog is open, got %#v", effects)
	}

	if res := m.HandleKey(Rune('j')); res.Handled {
		t.Fatal("expected typing into the text field to pass through")
	}
	press(m, Special(KeyTab))
	if m.State().Modal().Index() != 1 {
		t.Fatalf("expected tab to reach the first radio, got %d", m.State().Modal().Index())
	}
	changes := effectsOf[ModalFocusChanged](press(m, Rune('l'), Rune('l'), Rune('l')))
	if len(changes) != 2 || changes[1].To != 3 {
		t.Fatalf("expected two radio moves ending at 3, got %#v", changes)
	}
	press(m, Rune('k'), Rune('k'), Rune('k'), Rune('k'))
	if m.State().Modal().Index() != 0 {
		t.Fatalf("expected k to stop at the first control, got %d", m.State().Modal().Index())
	}
	submits := effectsOf[SubmitEdit](press(m, Special(KeyEnter)))
	if len(submits) != 1 || submits[0].Urgency != 3 {
		t.Fatalf("expected submit with urgency 3, got %#v", submits)
	}

	effects = press(m, Special(KeyEscape))
	if m.Mode() != ModeNormal || m.State().Modal() != nil {
		t.Fatalf("expected dialog closed, got %s", m.Mode())
	}
	if len(effectsOf[CloseEdit](effects)) != 1 || len(effectsOf[SetHighlight](effects)) != 1 {
		t.Fatalf("expected close and restored highlight, got %#v", effects)
	}

	m.OpenEdit(TaskFormNavigables(2))
	if m.State().Modal().Index() != 0 {
		t.Fatalf("expected reopened dialog at index 0, got %d", m.State().Modal().Index())
	}
}

func TestSetBoardKeepsLogicalPosition(t *testing.T) {
	m, _ := newTestMachine(t, Shape{3, 2})
	press(m, Rune('l'), Rune('j'))
	effects := m.SetBoard(Shape{3, 1})
	if m.State().Board() != (BoardFocus{Column: 1, Task: 0}) {
		t.Fatalf("expected clamp to {1,0}, got %#v", m.State().Board())
	}
	if len(effects) != 2 {
		t.Fatalf("expected clear and set after reload, got %#v", effects)
	}

	press(m, Rune('i'))
	if effects := m.SetBoard(Shape{3, 1}); len(effects) != 0 {
		t.Fatalf("expected no highlight effects while parked, got %#v", effects)
	}
	press(m, Special(KeyEscape))

	m.SetBoard(Shape{0, 0})
	if !m.State().Vacant() || m.State().BoardLive() {
		t.Fatal("expected vacant board after everything was deleted")
	}
	if effects := press(m, Rune('j'), Rune('l')); len(effects) != 0 {
		t.Fatalf("expected navigation no-ops on vacant board, got %#v", effects)
	}
}

func TestUnmatchedNormalKeyIsNoop(t *testing.T) {
	m, _ := newTestMachine(t, Shape{1})
	if res := m.HandleKey(Rune('z')); res.Handled || len(res.Effects) != 0 {
		t.Fatalf("expected unhandled no-op, got %#v", res)
	}
	if res := m.HandleKey(Special(KeyEscape)); res.Handled {
		t.Fatalf("expected escape in normal mode to be unhandled, got %#v", res)
	}
}

func TestWithDeleteWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := New(WithClock(clock.Now), WithDeleteWindow(2*time.Second))
	m.SetBoard(Shape{1})
	press(m, Rune('d'))
	clock.Advance(1500 * time.Millisecond)
	if deletes := effectsOf[DeleteTask](press(m, Rune('d'))); len(deletes) != 1 {
		t.Fatalf("expected delete inside a widened window, got %#v", deletes)
	}
}

func TestRestoreBoardReturnsToPriorFocus(t *testing.T) {
	m, _ := newTestMachine(t, Shape{1, 0, 1})
	before := m.State().Board()

	// The urgent task is hidden while its delete is in flight.
	m.SetBoard(Shape{0, 0, 1})
	if got := m.State().Board(); got == before {
		t.Fatalf("expected focus to leave the emptied column, still at %#v", got)
	}

	effects := m.RestoreBoard(before)
	if clears := effectsOf[ClearHighlight](effects); len(clears) != 1 || clears[0].At != (BoardFocus{Column: 2}) {
		t.Fatalf("expected the moved highlight cleared, got %#v", effects)
	}
	effects = m.SetBoard(Shape{1, 0, 1})
	if got := m.State().Board(); got != before {
		t.Fatalf("RestoreBoard() focus = %#v, want %#v", got, before)
	}
	sets := effectsOf[SetHighlight](effects)
	if len(sets) != 1 || sets[0].At != before {
		t.Fatalf("expected highlight back at %#v, got %#v", before, effects)
	}
}

func TestSelectMovesFocusOnlyInNormalMode(t *testing.T) {
	m, _ := newTestMachine(t, Shape{2, 1, 0})

	effects, ok := m.Select(BoardFocus{Column: 1, Task: 0})
	if !ok || len(effectsOf[SetHighlight](effects)) != 1 {
		t.Fatalf("Select() = %#v, %t", effects, ok)
	}
	if got := m.State().Board(); got != (BoardFocus{Column: 1}) {
		t.Fatalf("expected focus at column 1, got %#v", got)
	}
	if effects, ok := m.Select(BoardFocus{Column: 1}); !ok || len(effects) != 0 {
		t.Fatalf("expected reselecting the focused task to be quiet, got %#v, %t", effects, ok)
	}
	if _, ok := m.Select(BoardFocus{Column: 2}); ok {
		t.Fatal("expected an empty column to be rejected")
	}

	press(m, Rune('d'))
	m.Select(BoardFocus{Column: 0, Task: 1})
	if m.DeleteArmed() {
		t.Fatal("expected select to disarm a pending delete")
	}

	press(m, Rune('i'))
	if _, ok := m.Select(BoardFocus{Column: 0}); ok {
		t.Fatal("expected select to be ignored in insert mode")
	}
}
