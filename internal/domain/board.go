package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Board is the whole persisted state: the column registry, the flat task
// sequence, and the theme. Tasks are grouped by status in column order; the
// relative order of tasks sharing a status is their order inside the column.
//
// Every mutating method returns a new Board and leaves the receiver untouched.
type Board struct {
	Columns []Column `json:"columns"`
	Tasks   []Task   `json:"tasks"`
	Theme   Theme    `json:"theme"`
}

// NewBoard validates columns and tasks and returns a board in canonical order.
func NewBoard(columns []Column, tasks []Task, theme Theme) (Board, error) {
	if len(columns) == 0 {
		return Board{}, ErrNoColumns
	}
	seenColumns := make(map[string]struct{}, len(columns))
	for idx, c := range columns {
		if strings.TrimSpace(c.ID) == "" {
			return Board{}, fmt.Errorf("columns[%d]: %w", idx, ErrInvalidColumnID)
		}
		if strings.TrimSpace(c.Title) == "" {
			return Board{}, fmt.Errorf("columns[%d]: %w", idx, ErrInvalidTitle)
		}
		if _, ok := seenColumns[c.ID]; ok {
			return Board{}, fmt.Errorf("columns[%d] %q: %w", idx, c.ID, ErrDuplicateID)
		}
		seenColumns[c.ID] = struct{}{}
	}
	seenTasks := make(map[string]struct{}, len(tasks))
	for idx, t := range tasks {
		if strings.TrimSpace(t.ID) == "" {
			return Board{}, fmt.Errorf("tasks[%d]: %w", idx, ErrInvalidID)
		}
		if strings.TrimSpace(t.Title) == "" {
			return Board{}, fmt.Errorf("tasks[%d]: %w", idx, ErrInvalidTitle)
		}
		if _, ok := seenTasks[t.ID]; ok {
			return Board{}, fmt.Errorf("tasks[%d] %q: %w", idx, t.ID, ErrDuplicateID)
		}
		if _, ok := seenColumns[t.Status]; !ok {
			return Board{}, fmt.Errorf("tasks[%d] status %q: %w", idx, t.Status, ErrInvalidColumnID)
		}
		if !t.Priority.Valid() {
			return Board{}, fmt.Errorf("tasks[%d] priority %q: %w", idx, t.Priority, ErrInvalidPriority)
		}
		seenTasks[t.ID] = struct{}{}
	}
	if theme == "" {
		theme = ThemeLight
	}
	if theme != ThemeLight && theme != ThemeDark {
		return Board{}, ErrInvalidTheme
	}
	b := Board{
		Columns: slices.Clone(columns),
		Tasks:   cloneTasks(tasks),
		Theme:   theme,
	}
	b.Tasks = b.regroup(b.Tasks)
	return b, nil
}

// RepairBoard builds a board from possibly inconsistent stored data. Duplicate
// task ids keep their first occurrence, tasks without a title are dropped,
// tasks whose status names no column move to the default column, and unknown
// priorities become medium. The returned notes describe each repair.
func RepairBoard(columns []Column, tasks []Task, theme Theme) (Board, []string) {
	var notes []string
	cols := make([]Column, 0, len(columns))
	seenColumns := map[string]struct{}{}
	for _, c := range columns {
		c.ID = strings.TrimSpace(c.ID)
		c.Title = strings.TrimSpace(c.Title)
		if c.ID == "" {
			notes = append(notes, "dropped column without id")
			continue
		}
		if _, ok := seenColumns[c.ID]; ok {
			notes = append(notes, fmt.Sprintf("dropped duplicate column %q", c.ID))
			continue
		}
		if c.Title == "" {
			c.Title = c.ID
			notes = append(notes, fmt.Sprintf("column %q had no title", c.ID))
		}
		seenColumns[c.ID] = struct{}{}
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		cols = DefaultColumns()
		notes = append(notes, "no usable columns, using defaults")
		for _, c := range cols {
			seenColumns[c.ID] = struct{}{}
		}
	}
	fallback := cols[0].ID

	out := make([]Task, 0, len(tasks))
	seenTasks := map[string]struct{}{}
	for _, t := range tasks {
		t.ID = strings.TrimSpace(t.ID)
		t.Title = strings.TrimSpace(t.Title)
		if t.ID == "" || t.Title == "" {
			notes = append(notes, "dropped task without id or title")
			continue
		}
		if _, ok := seenTasks[t.ID]; ok {
			notes = append(notes, fmt.Sprintf("dropped duplicate task %q", t.ID))
			continue
		}
		if _, ok := seenColumns[t.Status]; !ok {
			notes = append(notes, fmt.Sprintf("task %q moved from unknown status %q to %q", t.ID, t.Status, fallback))
			t.Status = fallback
		}
		if !t.Priority.Valid() {
			t.Priority = NormalizePriority(t.Priority)
		}
		seenTasks[t.ID] = struct{}{}
		out = append(out, t.Clone())
	}
	if theme != ThemeDark {
		theme = ThemeLight
	}
	b := Board{Columns: cols, Tasks: out, Theme: theme}
	b.Tasks = b.regroup(b.Tasks)
	return b, notes
}

// Clone returns a deep copy of b.
func (b Board) Clone() Board {
	return Board{
		Columns: slices.Clone(b.Columns),
		Tasks:   cloneTasks(b.Tasks),
		Theme:   b.Theme,
	}
}

// DefaultStatus returns the status new tasks are created in.
func (b Board) DefaultStatus() string {
	if len(b.Columns) == 0 {
		return ""
	}
	return b.Columns[0].ID
}

// ColumnIndex returns the registry position of a column or -1.
func (b Board) ColumnIndex(id string) int {
	return slices.IndexFunc(b.Columns, func(c Column) bool { return c.ID == id })
}

// HasColumn reports whether id names a registered column.
func (b Board) HasColumn(id string) bool {
	return b.ColumnIndex(id) >= 0
}

// Column returns the column with the given id.
func (b Board) Column(id string) (Column, bool) {
	idx := b.ColumnIndex(id)
	if idx < 0 {
		return Column{}, false
	}
	return b.Columns[idx], true
}

// TaskIndex returns the global position of a task or -1.
func (b Board) TaskIndex(id string) int {
	return slices.IndexFunc(b.Tasks, func(t Task) bool { return t.ID == id })
}

// Task returns the task with the given id.
func (b Board) Task(id string) (Task, bool) {
	idx := b.TaskIndex(id)
	if idx < 0 {
		return Task{}, false
	}
	return b.Tasks[idx].Clone(), true
}

// ByStatus returns the tasks of one column in display order.
func (b Board) ByStatus(status string) []Task {
	return filterStatus(b.Tasks, status)
}

// PositionInColumn returns the index of a task inside its column or -1.
func (b Board) PositionInColumn(id string) int {
	t, ok := b.Task(id)
	if !ok {
		return -1
	}
	return slices.IndexFunc(b.ByStatus(t.Status), func(c Task) bool { return c.ID == id })
}

// AddTask appends t to the end of the global order. The task's status falls
// back to the default column when empty or unknown. Duplicate ids are refused.
func (b Board) AddTask(t Task) (Board, bool) {
	if strings.TrimSpace(t.Title) == "" || strings.TrimSpace(t.ID) == "" {
		return b, false
	}
	if b.TaskIndex(t.ID) >= 0 {
		return b, false
	}
	if !b.HasColumn(t.Status) {
		t.Status = b.DefaultStatus()
	}
	if t.Status == "" {
		return b, false
	}
	next := b.Clone()
	next.Tasks = append(next.Tasks, t.Clone())
	next.Tasks = next.regroup(next.Tasks)
	return next, true
}

// RemoveTask deletes the task with the given id.
func (b Board) RemoveTask(id string) (Board, bool) {
	idx := b.TaskIndex(id)
	if idx < 0 {
		return b, false
	}
	next := b.Clone()
	next.Tasks = slices.Delete(next.Tasks, idx, idx+1)
	return next, true
}

// UpdateTask merges a patch into the task with the given id.
func (b Board) UpdateTask(id string, patch TaskPatch) (Board, bool) {
	idx := b.TaskIndex(id)
	if idx < 0 || patch.Empty() {
		return b, false
	}
	next := b.Clone()
	if !next.Tasks[idx].Apply(patch) {
		return b, false
	}
	return next, true
}

// RenameColumn sets a column title; blank titles keep the previous one.
func (b Board) RenameColumn(id, title string) (Board, bool) {
	idx := b.ColumnIndex(id)
	if idx < 0 {
		return b, false
	}
	next := b.Clone()
	if !next.Columns[idx].Rename(title) {
		return b, false
	}
	return next, true
}

// WithTheme returns b using the given theme.
func (b Board) WithTheme(theme Theme) (Board, bool) {
	if theme != ThemeLight && theme != ThemeDark {
		return b, false
	}
	if b.Theme == theme {
		return b, false
	}
	next := b.Clone()
	next.Theme = theme
	return next, true
}

// Regroup returns the task sequence reconcatenated column by column in
// registry order.
func (b Board) Regroup() []Task {
	return b.regroup(b.Tasks)
}

// regroup concatenates the per-column subsequences of tasks in registry order.
// Tasks whose status names no column keep their relative order at the tail.
func (b Board) regroup(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, c := range b.Columns {
		out = append(out, filterStatus(tasks, c.ID)...)
	}
	if len(out) == len(tasks) {
		return out
	}
	for _, t := range tasks {
		if !b.HasColumn(t.Status) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// withColumn rebuilds the global order, replacing the subsequence of one
// status with list.
func (b Board) withColumn(status string, list []Task, rest []Task) []Task {
	out := make([]Task, 0, len(rest)+1)
	for _, c := range b.Columns {
		if c.ID == status {
			out = append(out, list...)
			continue
		}
		out = append(out, filterStatus(rest, c.ID)...)
	}
	for _, t := range rest {
		if !b.HasColumn(t.Status) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func filterStatus(tasks []Task, status string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	return out
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
