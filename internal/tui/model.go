package tui

import (
	"context"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/domain"
	"github.com/hylla/vimdo/internal/vim"
)

// Service is the task service the board talks to.
type Service interface {
	ListTasks(context.Context) ([]domain.Task, error)
	GetTask(context.Context, int64) (domain.Task, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	ReplaceTask(context.Context, app.ReplaceTaskInput) (domain.Task, error)
	DeleteTask(context.Context, int64) error
}

// Toggler is implemented by services that flip completion in one call.
type Toggler interface {
	ToggleTask(context.Context, int64) (domain.Task, error)
}

// Model is the bubbletea model for the task board.
type Model struct {
	svc      Service
	vim      *vim.Machine
	bindings vim.Bindings
	keys     keyMap
	help     help.Model

	markdown *markdownRenderer

	ready  bool
	width  int
	height int

	tasks     []domain.Task
	columns   [domain.ColumnCount][]domain.Task
	// hidden maps each task whose delete is in flight to the board focus
	// held before the delete, restored if the delete fails.
	hidden    map[int64]vim.BoardFocus
	highlight *vim.BoardFocus

	titleInput textinput.Model
	edit       *editDialog
	// writeSeq numbers create submissions and edit dialogs so late
	// responses can tell whether their form is still the one on screen.
	writeSeq uint64
	// pendingCreate is the writeSeq of the create awaiting a response and
	// pendingTitle the title it sent. Leaving Insert mode forgets both.
	pendingCreate uint64
	pendingTitle  string

	status string
	notice string

	clock        func() time.Time
	now          time.Time
	showClock    bool
	clockFormat  string
	deleteWindow time.Duration
	copyText     func(string) error
	onNotice     func(string)
}

// editDialog is the open edit overlay for one task.
type editDialog struct {
	taskID int64
	seq    uint64
	title  textinput.Model
}

// loadedMsg carries a full reload of the task list.
type loadedMsg struct {
	tasks []domain.Task
	err   error
}

// editFetchedMsg carries the task fetched for the edit dialog.
type editFetchedMsg struct {
	task domain.Task
	err  error
}

// actionKind identifies which write finished.
type actionKind int

const (
	actionCreate actionKind = iota
	actionEdit
	actionToggle
)

// actionMsg reports a finished create, edit or toggle. seq names the
// create submission or edit dialog it answers; taskID is zero for creates.
type actionMsg struct {
	kind   actionKind
	seq    uint64
	taskID int64
	err    error
}

// deletedMsg reports a finished delete.
type deletedMsg struct {
	id  int64
	err error
}

// disarmMsg fires when a pending double-d window closes.
type disarmMsg struct {
	token uint64
}

// clockTickMsg refreshes the header clock.
type clockTickMsg time.Time

// yankedMsg reports a clipboard copy.
type yankedMsg struct {
	title string
	err   error
}

// NewModel constructs a board model.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	titleInput := newModalInput("new › ", "what needs doing?", "", 200)

	m := Model{
		svc:          svc,
		bindings:     vim.DefaultBindings(),
		help:         h,
		markdown:     &markdownRenderer{},
		hidden:       map[int64]vim.BoardFocus{},
		titleInput:   titleInput,
		clock:        time.Now,
		showClock:    true,
		clockFormat:  "02.01.2006 15:04:05",
		deleteWindow: vim.DefaultDeleteWindow,
		copyText:     writeClipboard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.vim = vim.New(
		vim.WithClock(m.clock),
		vim.WithDeleteWindow(m.deleteWindow),
		vim.WithBindings(m.bindings),
	)
	m.keys = newKeyMap(m.vim.Bindings())
	m.status = m.vim.State().StatusText()
	m.now = m.clock()
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	if !m.showClock {
		return m.loadData
	}
	return tea.Batch(m.loadData, m.tickClock())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case loadedMsg:
		if msg.err != nil {
			m.notify("failed to load tasks: " + app.ErrorMessage(msg.err))
			return m, nil
		}
		m.tasks = msg.tasks
		return m, tea.Batch(m.rebuildBoard()...)

	case editFetchedMsg:
		if msg.err != nil {
			m.notify("could not open editor: " + app.ErrorMessage(msg.err))
			return m, nil
		}
		m.writeSeq++
		m.edit = newEditDialog(msg.task, m.writeSeq)
		return m, tea.Batch(m.applyEffects(m.vim.OpenEdit(vim.TaskFormNavigables(msg.task.Urgency)))...)

	case actionMsg:
		return m.handleAction(msg)

	case deletedMsg:
		prev, pending := m.hidden[msg.id]
		delete(m.hidden, msg.id)
		if msg.err != nil {
			m.notify("failed to delete task: " + app.ErrorMessage(msg.err))
			var cmds []tea.Cmd
			if pending {
				cmds = m.applyEffects(m.vim.RestoreBoard(prev))
			}
			cmds = append(cmds, m.rebuildBoard()...)
			return m, tea.Batch(append(cmds, m.loadData)...)
		}
		m.tasks = withoutTask(m.tasks, msg.id)
		return m, tea.Batch(m.rebuildBoard()...)

	case disarmMsg:
		m.vim.ExpireDeleteArm(msg.token)
		return m, nil

	case clockTickMsg:
		m.now = time.Time(msg)
		return m, m.tickClock()

	case yankedMsg:
		if msg.err != nil {
			m.notify("yank failed: " + msg.err.Error())
			return m, nil
		}
		m.notice = "yanked: " + msg.title
		return m, nil
	}
	return m, m.forwardToInputs(msg)
}

// handleKey feeds a key press through the vim machine.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	m.notice = ""
	res := m.vim.HandleKey(vim.Key{Name: msg.String(), Text: msg.Text})
	cmds := m.applyEffects(res.Effects)
	if m.vim.State().Mode() != vim.ModeInsert {
		m.pendingCreate, m.pendingTitle = 0, ""
	}
	if !res.Handled {
		cmds = append(cmds, m.forwardToInputs(msg))
	}
	return m, tea.Batch(cmds...)
}

// handleMouseWheel scrolls the highlight within its column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.vim.State().Mode() != vim.ModeNormal {
		return m, nil
	}
	var names []string
	switch msg.Button {
	case tea.MouseWheelUp:
		names = m.vim.Bindings().Up
	case tea.MouseWheelDown:
		names = m.vim.Bindings().Down
	}
	if len(names) == 0 {
		return m, nil
	}
	res := m.vim.HandleKey(vim.Special(names[0]))
	return m, tea.Batch(m.applyEffects(res.Effects)...)
}

// handleMouseClick highlights the clicked task. A second left click on the
// highlighted task opens the editor; a right click toggles it.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	at, ok := m.boardPositionAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	wasFocused := m.highlight != nil && *m.highlight == at
	effects, ok := m.vim.Select(at)
	if !ok {
		return m, nil
	}
	m.notice = ""
	switch msg.Button {
	case tea.MouseLeft:
		if wasFocused {
			effects = append(effects, vim.RequestEdit{At: at})
		}
	case tea.MouseRight:
		effects = append(effects, vim.ToggleTask{At: at})
	}
	return m, tea.Batch(m.applyEffects(effects)...)
}

// forwardToInputs hands a message to whichever text input owns focus.
func (m *Model) forwardToInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.edit != nil && m.edit.title.Focused():
		m.edit.title, cmd = m.edit.title.Update(msg)
	case m.titleInput.Focused():
		m.titleInput, cmd = m.titleInput.Update(msg)
	}
	return cmd
}

// loadData loads every task.
func (m Model) loadData() tea.Msg {
	tasks, err := m.svc.ListTasks(context.Background())
	return loadedMsg{tasks: tasks, err: err}
}

// tickClock schedules the next clock refresh.
func (m Model) tickClock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

// rebuildBoard recomputes visible columns and re-establishes focus.
func (m *Model) rebuildBoard() []tea.Cmd {
	visible := make([]domain.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		if _, gone := m.hidden[task.ID]; gone {
			continue
		}
		visible = append(visible, task)
	}
	m.columns = domain.Columns(visible)
	return m.applyEffects(m.vim.SetBoard(m.shape()))
}

// shape reports the task count of every column.
func (m Model) shape() vim.Shape {
	shape := make(vim.Shape, len(m.columns))
	for i, col := range m.columns {
		shape[i] = len(col)
	}
	return shape
}

// taskAt resolves a board position to a task.
func (m Model) taskAt(at vim.BoardFocus) (domain.Task, bool) {
	if !m.shape().Contains(at) {
		return domain.Task{}, false
	}
	return m.columns[at.Column][at.Task], true
}

// notify records one user-facing notification.
func (m *Model) notify(text string) {
	m.notice = text
	if m.onNotice != nil {
		m.onNotice(text)
	}
}

func newEditDialog(task domain.Task, seq uint64) *editDialog {
	return &editDialog{
		taskID: task.ID,
		seq:    seq,
		title:  newModalInput("title: ", "task title", task.Title, 200),
	}
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

func withoutTask(tasks []domain.Task, id int64) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.ID != id {
			out = append(out, task)
		}
	}
	return out
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate shortens s to max display cells.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return ansi.Truncate(s, max, "…")
}
