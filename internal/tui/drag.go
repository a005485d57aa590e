package tui

import (
	"fmt"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// dragCursor tracks a keyboard drag. column and row locate the drop cursor;
// a row past the last task points at the column itself.
type dragCursor struct {
	activeID string
	column   int
	row      int
}

func (m Model) startDrag() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTaskInCurrentColumn()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	if !m.svc.DragStart(task.ID) {
		m.status = "cannot grab task"
		return m, nil
	}
	m.drag = &dragCursor{
		activeID: task.ID,
		column:   m.selectedColumn,
		row:      m.selectedTask,
	}
	m.help.ShowAll = false
	m.status = fmt.Sprintf("grabbed %q", truncate(task.Title, 32))
	return m, nil
}

func (m Model) handleDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.svc.DragCancel()
		m.drag = nil
		m.refresh()
		m.status = "drag cancelled"
		return m, nil
	case key.Matches(msg, m.keys.drop):
		return m.dropDrag()
	case key.Matches(msg, m.keys.moveLeft):
		m.moveDragColumn(-1)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		m.moveDragColumn(1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.moveDragRow(-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.moveDragRow(1)
		return m, nil
	case key.Matches(msg, m.keys.quit):
		m.svc.DragCancel()
		m.drag = nil
		return m, tea.Quit
	default:
		return m, nil
	}
}

// dropTarget returns the id under the drop cursor: a task id, or the column id
// when the cursor sits past the last task.
func (m Model) dropTarget() string {
	if m.drag == nil || len(m.board.Columns) == 0 {
		return ""
	}
	col := m.board.Columns[clamp(m.drag.column, 0, len(m.board.Columns)-1)]
	tasks := m.board.ByStatus(col.ID)
	if m.drag.row >= 0 && m.drag.row < len(tasks) {
		return tasks[m.drag.row].ID
	}
	return col.ID
}

// moveDragColumn hovers the neighbouring column at the cursor's row. The
// grabbed task follows into that column and the cursor lands on it.
func (m *Model) moveDragColumn(delta int) {
	next := m.drag.column + delta
	if next < 0 || next >= len(m.board.Columns) {
		return
	}
	tasks := m.board.ByStatus(m.board.Columns[next].ID)
	m.drag.column = next
	m.drag.row = min(m.drag.row, len(tasks))
	over := m.dropTarget()
	m.svc.DragOver(m.ctx(), m.drag.activeID, over)
	m.refresh()
	if m.drag == nil {
		return
	}
	if active, ok := m.board.Task(m.drag.activeID); ok {
		m.drag.column = m.board.ColumnIndex(active.Status)
		m.drag.row = m.board.PositionInColumn(active.ID)
	}
	m.selectedColumn = m.drag.column
	m.selectedTask = m.drag.row
	m.status = "over " + m.board.Columns[m.drag.column].Title
}

// moveDragRow moves the cursor within the column. Hovering a task in the
// grabbed task's own column does not reorder; the reorder happens on drop.
func (m *Model) moveDragRow(delta int) {
	tasks := m.board.ByStatus(m.board.Columns[m.drag.column].ID)
	if len(tasks) == 0 {
		return
	}
	row := clamp(m.drag.row+delta, 0, len(tasks)-1)
	if row == m.drag.row {
		return
	}
	m.drag.row = row
	m.svc.DragOver(m.ctx(), m.drag.activeID, tasks[row].ID)
	m.refresh()
	if m.drag == nil {
		return
	}
	m.selectedTask = m.drag.row
	m.status = fmt.Sprintf("over %q", truncate(tasks[row].Title, 32))
}

func (m Model) dropDrag() (tea.Model, tea.Cmd) {
	activeID := m.drag.activeID
	over := m.dropTarget()
	moved := m.svc.DragEnd(m.ctx(), activeID, over)
	m.drag = nil
	m.refresh()
	m.focusTaskByID(activeID)
	if moved {
		m.status = "dropped"
	} else {
		m.status = "dropped in place"
	}
	return m, nil
}
