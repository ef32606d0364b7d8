package vim

import "time"

// Mode is the input mode reported to the user.
type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeCommand
	ModeModalOpen
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "insert"
	case ModeCommand:
		return "command"
	case ModeModalOpen:
		return "modal"
	}
	return "normal"
}

// Overlay is the exclusive layer drawn above the board.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayEdit
)

const (
	statusNormal = "-- NORMAL --"
	statusInsert = "-- INSERT --"
)

// deleteArm is the pending first half of a double-d delete.
type deleteArm struct {
	armed   bool
	expires time.Time
	token   uint64
}

func (a deleteArm) active(now time.Time) bool {
	return a.armed && now.Before(a.expires)
}

// State is the focus model: every piece of input state the machine owns.
//
// At most one of the board highlight and the edit-dialog focus is live.
// The board focus is parked (kept, not highlighted) while Insert mode or
// the edit dialog owns input.
type State struct {
	insert  bool
	overlay Overlay
	board   BoardFocus
	vacant  bool
	modal   *ModalFocus
	form    *ModalFocus
	command string
	arm     deleteArm
}

// Mode derives the reported mode; overlays win over the command buffer.
func (s *State) Mode() Mode {
	switch {
	case s.overlay != OverlayNone:
		return ModeModalOpen
	case s.command != "":
		return ModeCommand
	case s.insert:
		return ModeInsert
	}
	return ModeNormal
}

// Overlay returns the open overlay.
func (s *State) Overlay() Overlay { return s.overlay }

// Board returns the logical board focus.
func (s *State) Board() BoardFocus { return s.board }

// BoardLive reports whether the board highlight should be drawn.
func (s *State) BoardLive() bool {
	return !s.vacant && !s.insert && s.overlay != OverlayEdit
}

// Vacant reports that the board holds no task to focus.
func (s *State) Vacant() bool { return s.vacant }

// Modal returns the edit-dialog focus, nil when the dialog is closed.
func (s *State) Modal() *ModalFocus { return s.modal }

// Form returns the creation-form focus.
func (s *State) Form() *ModalFocus { return s.form }

// Command returns the command buffer.
func (s *State) Command() string { return s.command }

// StatusText is the mode readout shown to the user.
func (s *State) StatusText() string {
	switch {
	case s.command != "":
		return s.command
	case s.insert:
		return statusInsert
	}
	return statusNormal
}
