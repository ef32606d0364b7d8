package vim

import "time"

// Effect is a request from the machine to its host. The machine never
// performs I/O; hosts execute effects in the order they are returned.
type Effect interface {
	effect()
}

// ClearHighlight removes the board marker from At.
type ClearHighlight struct{ At BoardFocus }

// SetHighlight marks At as the focused task.
type SetHighlight struct{ At BoardFocus }

// ModalFocusChanged moves input focus between edit-dialog controls.
// From is -1 when the dialog has just opened.
type ModalFocusChanged struct{ From, To int }

// FormFocusChanged moves input focus between creation-form controls.
type FormFocusChanged struct{ From, To int }

// StatusChanged carries the new status readout.
type StatusChanged struct{ Text string }

// FocusTitle gives the creation-form title input focus.
type FocusTitle struct{}

// BlurTitle takes focus away from the creation-form title input.
type BlurTitle struct{}

// SubmitCreate asks the host to create a task from the creation form.
type SubmitCreate struct{ Urgency int }

// OpenHelp shows the help overlay.
type OpenHelp struct{}

// CloseHelp hides the help overlay.
type CloseHelp struct{}

// RequestEdit asks the host to fetch the task at At and open the edit dialog.
type RequestEdit struct{ At BoardFocus }

// CloseEdit discards the edit dialog.
type CloseEdit struct{}

// SubmitEdit asks the host to save the edit dialog.
type SubmitEdit struct{ Urgency int }

// ToggleTask flips completion of the task at At.
type ToggleTask struct{ At BoardFocus }

// DeleteTask removes the task at At.
type DeleteTask struct{ At BoardFocus }

// ScheduleDisarm asks the host to call ExpireDeleteArm(Token) after After.
type ScheduleDisarm struct {
	Token uint64
	After time.Duration
}

// Quit ends the session.
type Quit struct{}

// Reload refetches the whole board.
type Reload struct{}

// YankTask copies the title of the task at At.
type YankTask struct{ At BoardFocus }

func (ClearHighlight) effect()    {}
func (SetHighlight) effect()      {}
func (ModalFocusChanged) effect() {}
func (FormFocusChanged) effect()  {}
func (StatusChanged) effect()     {}
func (FocusTitle) effect()        {}
func (BlurTitle) effect()         {}
func (SubmitCreate) effect()      {}
func (OpenHelp) effect()          {}
func (CloseHelp) effect()         {}
func (RequestEdit) effect()       {}
func (CloseEdit) effect()         {}
func (SubmitEdit) effect()        {}
func (ToggleTask) effect()        {}
func (DeleteTask) effect()        {}
func (ScheduleDisarm) effect()    {}
func (Quit) effect()              {}
func (Reload) effect()            {}
func (YankTask) effect()          {}

// Result is the outcome of one key press. Handled means the key was
// consumed; unhandled keys belong to whatever native input has focus.
type Result struct {
	Handled bool
	Effects []Effect
}
