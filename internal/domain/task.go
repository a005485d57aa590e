package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DueDateLayout is the calendar-day format used for due dates in storage and input.
const DueDateLayout = "2006-01-02"

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Priorities returns the selectable priorities in display order.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

// NormalizePriority lowercases p and falls back to medium for unknown values.
func NormalizePriority(p Priority) Priority {
	p = Priority(strings.ToLower(strings.TrimSpace(string(p))))
	if !p.Valid() {
		return PriorityMedium
	}
	return p
}

// Task is one card on the board. Status names the column it belongs to.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Priority    Priority   `json:"priority"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// TaskInput holds the values used to create a task.
type TaskInput struct {
	ID          string
	Title       string
	Status      string
	Priority    Priority
	Description string
	DueDate     *time.Time
}

// NewTask validates in and returns a task with a medium default priority.
func NewTask(in TaskInput) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Status = strings.TrimSpace(in.Status)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Status == "" {
		return Task{}, ErrInvalidColumnID
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return Task{}, ErrInvalidPriority
	}

	return Task{
		ID:          in.ID,
		Title:       in.Title,
		Status:      in.Status,
		Priority:    in.Priority,
		Description: in.Description,
		DueDate:     NormalizeDueDate(in.DueDate),
	}, nil
}

// TaskPatch carries the editable fields of a task. Nil fields are left alone.
type TaskPatch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
}

// Empty reports whether the patch would not touch any field.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}

// Apply merges the patch into t and reports whether anything changed.
// A blank title or an unknown priority keeps the current value.
func (t *Task) Apply(p TaskPatch) bool {
	changed := false
	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" && title != t.Title {
			t.Title = title
			changed = true
		}
	}
	if p.Description != nil {
		if desc := strings.TrimSpace(*p.Description); desc != t.Description {
			t.Description = desc
			changed = true
		}
	}
	if p.Priority != nil && p.Priority.Valid() && *p.Priority != t.Priority {
		t.Priority = *p.Priority
		changed = true
	}
	switch {
	case p.ClearDueDate:
		if t.DueDate != nil {
			t.DueDate = nil
			changed = true
		}
	case p.DueDate != nil:
		due := NormalizeDueDate(p.DueDate)
		if t.DueDate == nil || !t.DueDate.Equal(*due) {
			t.DueDate = due
			changed = true
		}
	}
	return changed
}

// Clone returns a copy of t that shares no pointers with it.
func (t Task) Clone() Task {
	t.DueDate = NormalizeDueDate(t.DueDate)
	return t
}

// NormalizeDueDate truncates a due date to its UTC calendar day.
func NormalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	y, m, d := due.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}

// ParseDueDate parses YYYY-MM-DD or RFC 3339 input. Blank input yields nil.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if day, err := time.Parse(DueDateLayout, raw); err == nil {
		return &day, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parse due date %q: %w", raw, err)
	}
	return NormalizeDueDate(&ts), nil
}

// FormatDueDate renders a due date as YYYY-MM-DD, or "" when unset.
func FormatDueDate(due *time.Time) string {
	if due == nil {
		return ""
	}
	return due.UTC().Format(DueDateLayout)
}

type taskJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Status      string   `json:"status"`
	Priority    Priority `json:"priority"`
	Description string   `json:"description,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
}

// MarshalJSON writes the due date as a calendar day.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Status:      t.Status,
		Priority:    t.Priority,
		Description: t.Description,
		DueDate:     FormatDueDate(t.DueDate),
	})
}

// UnmarshalJSON accepts calendar-day or RFC 3339 due dates and treats "" as unset.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	due, err := ParseDueDate(raw.DueDate)
	if err != nil {
		return err
	}
	*t = Task{
		ID:          raw.ID,
		Title:       raw.Title,
		Status:      raw.Status,
		Priority:    raw.Priority,
		Description: raw.Description,
		DueDate:     due,
	}
	return nil
}
