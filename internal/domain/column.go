package domain

import (
	"cmp"
	"slices"
)

// Category identifies one of the three fixed board columns.
type Category int

const (
	CategoryUrgent Category = iota
	CategoryImportant
	CategoryNormal
)

// ColumnCount is the number of board columns.
const ColumnCount = 3

// CategoryFor maps an urgency to its column. Unknown urgencies land in the normal column.
func CategoryFor(u Urgency) Category {
	switch u {
	case UrgencyUrgent:
		return CategoryUrgent
	case UrgencyImportant:
		return CategoryImportant
	default:
		return CategoryNormal
	}
}

// Title returns the column heading.
func (c Category) Title() string {
	switch c {
	case CategoryUrgent:
		return "Urgent"
	case CategoryImportant:
		return "Important"
	default:
		return "Normal"
	}
}

// Columns buckets tasks by category, each bucket ordered by ascending id.
func Columns(tasks []Task) [ColumnCount][]Task {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b Task) int {
		return cmp.Compare(a.ID, b.ID)
	})
	var out [ColumnCount][]Task
	for _, task := range sorted {
		c := task.Category()
		out[c] = append(out[c], task)
	}
	return out
}
