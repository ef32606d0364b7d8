package vim

// Direction is a navigation direction.
type Direction int

const (
	Down Direction = iota
	Up
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// BoardFocus addresses one task on the board.
type BoardFocus struct {
	Column int
	Task   int
}

// Shape holds the task count of every column, left to right.
type Shape []int

// Empty reports whether no column holds a task.
func (s Shape) Empty() bool {
	for _, n := range s {
		if n > 0 {
			return false
		}
	}
	return true
}

// Contains reports whether f addresses an existing task.
func (s Shape) Contains(f BoardFocus) bool {
	return f.Column >= 0 && f.Column < len(s) && f.Task >= 0 && f.Task < s[f.Column]
}

// MoveBoard applies one navigation step. Vertical moves stay inside the
// column; horizontal moves jump to the first non-empty column in that
// direction at task 0. It reports false when focus does not change.
func MoveBoard(shape Shape, focus BoardFocus, dir Direction) (BoardFocus, bool) {
	if !shape.Contains(focus) {
		return focus, false
	}
	switch dir {
	case Down:
		if focus.Task < shape[focus.Column]-1 {
			focus.Task++
			return focus, true
		}
	case Up:
		if focus.Task > 0 {
			focus.Task--
			return focus, true
		}
	case Right:
		for c := focus.Column + 1; c < len(shape); c++ {
			if shape[c] > 0 {
				return BoardFocus{Column: c}, true
			}
		}
	case Left:
		for c := focus.Column - 1; c >= 0; c-- {
			if shape[c] > 0 {
				return BoardFocus{Column: c}, true
			}
		}
	}
	return focus, false
}

// Reconcile fits focus to a new board shape. The task index is clamped to
// the column; an emptied column hands focus to the nearest non-empty one,
// preferring the right side on ties. It reports false for an empty board.
func Reconcile(shape Shape, focus BoardFocus) (BoardFocus, bool) {
	if len(shape) == 0 {
		return BoardFocus{}, false
	}
	col := clamp(focus.Column, 0, len(shape)-1)
	if shape[col] > 0 {
		return BoardFocus{Column: col, Task: clamp(focus.Task, 0, shape[col]-1)}, true
	}
	for d := 1; d < len(shape); d++ {
		if c := col + d; c < len(shape) && shape[c] > 0 {
			return BoardFocus{Column: c}, true
		}
		if c := col - d; c >= 0 && shape[c] > 0 {
			return BoardFocus{Column: c}, true
		}
	}
	return BoardFocus{Column: col}, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
