package tui

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/domain"
	"github.com/hylla/vimdo/internal/vim"
)

// applyEffects executes machine effects in order and collects the
// commands they start.
func (m *Model) applyEffects(effects []vim.Effect) []tea.Cmd {
	var cmds []tea.Cmd
	for _, effect := range effects {
		if cmd := m.applyEffect(effect); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (m *Model) applyEffect(effect vim.Effect) tea.Cmd {
	switch e := effect.(type) {
	case vim.ClearHighlight:
		if m.highlight != nil && *m.highlight == e.At {
			m.highlight = nil
		}
	case vim.SetHighlight:
		at := e.At
		m.highlight = &at
	case vim.StatusChanged:
		m.status = e.Text
	case vim.FocusTitle:
		return m.titleInput.Focus()
	case vim.BlurTitle:
		m.titleInput.Blur()
	case vim.FormFocusChanged:
		if e.To == 0 {
			return m.titleInput.Focus()
		}
		m.titleInput.Blur()
	case vim.ModalFocusChanged:
		if m.edit == nil {
			return nil
		}
		if e.To == 0 {
			return m.edit.title.Focus()
		}
		m.edit.title.Blur()
	case vim.SubmitCreate:
		title := strings.TrimSpace(m.titleInput.Value())
		if title == "" {
			return nil
		}
		m.writeSeq++
		m.pendingCreate, m.pendingTitle = m.writeSeq, title
		return m.createTask(m.writeSeq, title, domain.Urgency(e.Urgency))
	case vim.RequestEdit:
		task, ok := m.taskAt(e.At)
		if !ok {
			return nil
		}
		return m.fetchForEdit(task.ID)
	case vim.CloseEdit:
		m.edit = nil
	case vim.SubmitEdit:
		if m.edit == nil {
			return nil
		}
		title := strings.TrimSpace(m.edit.title.Value())
		if title == "" {
			return nil
		}
		return m.saveEdit(m.edit.seq, m.edit.taskID, title, domain.Urgency(e.Urgency))
	case vim.ToggleTask:
		task, ok := m.taskAt(e.At)
		if !ok {
			return nil
		}
		return m.toggleTask(task.ID)
	case vim.DeleteTask:
		task, ok := m.taskAt(e.At)
		if !ok {
			return nil
		}
		m.hidden[task.ID] = e.At
		cmds := m.rebuildBoard()
		return tea.Batch(append(cmds, m.deleteTask(task.ID))...)
	case vim.ScheduleDisarm:
		token := e.Token
		return tea.Tick(e.After, func(time.Time) tea.Msg {
			return disarmMsg{token: token}
		})
	case vim.Reload:
		return m.loadData
	case vim.YankTask:
		task, ok := m.taskAt(e.At)
		if !ok {
			return nil
		}
		return m.yank(task.Title)
	case vim.Quit:
		return tea.Quit
	case vim.OpenHelp, vim.CloseHelp:
		// Drawn from machine state.
	}
	return nil
}

// handleAction settles a finished create, edit or toggle.
func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		switch msg.kind {
		case actionCreate:
			m.notify("failed to create task: " + app.ErrorMessage(msg.err))
		default:
			m.notify("failed to update task: " + app.ErrorMessage(msg.err))
		}
		return m, nil
	}
	var cmds []tea.Cmd
	switch msg.kind {
	case actionCreate:
		// A form that was left or retyped since this submission keeps its text.
		if msg.seq == m.pendingCreate && strings.TrimSpace(m.titleInput.Value()) == m.pendingTitle {
			m.titleInput.SetValue("")
			cmds = m.applyEffects(m.vim.LeaveInsert())
		}
		if msg.seq == m.pendingCreate {
			m.pendingCreate, m.pendingTitle = 0, ""
		}
	case actionEdit:
		if m.edit != nil && m.edit.seq == msg.seq && m.edit.taskID == msg.taskID {
			cmds = m.applyEffects(m.vim.CloseEdit())
		}
	}
	cmds = append(cmds, m.loadData)
	return m, tea.Batch(cmds...)
}

func (m Model) createTask(seq uint64, title string, urgency domain.Urgency) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, err := svc.CreateTask(context.Background(), app.CreateTaskInput{
			Title:   title,
			Urgency: urgency,
		})
		return actionMsg{kind: actionCreate, seq: seq, err: err}
	}
}

func (m Model) fetchForEdit(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		task, err := svc.GetTask(context.Background(), id)
		return editFetchedMsg{task: task, err: err}
	}
}

// saveEdit refetches the task and replaces it with the edited title and
// urgency merged over the current server copy.
func (m Model) saveEdit(seq uint64, id int64, title string, urgency domain.Urgency) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		current, err := svc.GetTask(ctx, id)
		if err != nil {
			return actionMsg{kind: actionEdit, seq: seq, taskID: id, err: err}
		}
		in := replaceInput(current)
		in.Title = title
		if urgency.Valid() {
			in.Urgency = urgency
		}
		_, err = svc.ReplaceTask(ctx, in)
		return actionMsg{kind: actionEdit, seq: seq, taskID: id, err: err}
	}
}

// toggleTask flips completion, through the service's own toggle when it
// has one and a fetch plus full replace otherwise.
func (m Model) toggleTask(id int64) tea.Cmd {
	svc := m.svc
	if toggler, ok := svc.(Toggler); ok {
		return func() tea.Msg {
			_, err := toggler.ToggleTask(context.Background(), id)
			return actionMsg{kind: actionToggle, taskID: id, err: err}
		}
	}
	return func() tea.Msg {
		ctx := context.Background()
		current, err := svc.GetTask(ctx, id)
		if err != nil {
			return actionMsg{kind: actionToggle, taskID: id, err: err}
		}
		in := replaceInput(current)
		in.Completed = !current.Completed
		_, err = svc.ReplaceTask(ctx, in)
		return actionMsg{kind: actionToggle, taskID: id, err: err}
	}
}

func (m Model) deleteTask(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return deletedMsg{id: id, err: svc.DeleteTask(context.Background(), id)}
	}
}

func (m Model) yank(title string) tea.Cmd {
	copyText := m.copyText
	return func() tea.Msg {
		return yankedMsg{title: title, err: copyText(title)}
	}
}

func replaceInput(t domain.Task) app.ReplaceTaskInput {
	return app.ReplaceTaskInput{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Urgency:     t.Urgency,
		Completed:   t.Completed,
	}
}

func writeClipboard(text string) error {
	return clipboard.WriteAll(text)
}
