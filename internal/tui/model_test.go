package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/tavla/internal/app"
	"github.com/evanschultz/tavla/internal/domain"
)

func boardTask(id, title, status string) domain.Task {
	return domain.Task{ID: id, Title: title, Status: status, Priority: domain.PriorityMedium}
}

func newBoardService(tasks ...domain.Task) *app.Service {
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	return app.NewService(nil, ids, nil, app.ServiceConfig{Defaults: app.Defaults{Tasks: tasks}})
}

func columnIDs(b domain.Board, status string) []string {
	tasks := b.ByStatus(status)
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

func equalIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestModelLoadAndNavigation(t *testing.T) {
	svc := newBoardService(
		boardTask("a", "Alpha", "todo"),
		boardTask("b", "Beta", "todo"),
	)
	m := loadReadyModel(t, NewModel(svc))

	if len(m.board.Columns) != 3 || len(m.board.Tasks) != 2 {
		t.Fatalf("unexpected loaded board %#v", m.board)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	if m.selectedTask != 1 {
		t.Fatalf("expected selectedTask=1, got %d", m.selectedTask)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	if m.selectedTask != 1 {
		t.Fatalf("expected selection to stop at last task, got %d", m.selectedTask)
	}
	m = applyMsg(t, m, keyRune('l'))
	if m.selectedColumn != 1 || m.selectedTask != 0 {
		t.Fatalf("expected column 1 task 0, got %d/%d", m.selectedColumn, m.selectedTask)
	}
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('l'))
	if m.selectedColumn != 2 {
		t.Fatalf("expected selection to stop at last column, got %d", m.selectedColumn)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyLeft})
	if m.selectedColumn != 1 {
		t.Fatalf("expected selectedColumn=1, got %d", m.selectedColumn)
	}
}

func TestKeyboardDragAcrossColumnsMatchesDirectEvents(t *testing.T) {
	seed := []domain.Task{
		boardTask("a", "Alpha", "todo"),
		boardTask("b", "Beta", "todo"),
		boardTask("c", "Gamma", "inprogress"),
	}
	svc := newBoardService(seed...)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune(' '))
	if m.drag == nil {
		t.Fatal("expected task grabbed")
	}
	if active, ok := svc.ActiveDrag(); !ok || active != "a" {
		t.Fatalf("expected service drag on a, got %q %v", active, ok)
	}
	m = applyMsg(t, m, keyRune('l'))
	if got := columnIDs(svc.Board(), "inprogress"); !equalIDs(got, "a", "c") {
		t.Fatalf("expected hover to insert before c, got %v", got)
	}
	if m.drag.column != 1 || m.drag.row != 0 {
		t.Fatalf("expected cursor on grabbed task, got %d/%d", m.drag.column, m.drag.row)
	}
	m = applyMsg(t, m, keyRune(' '))
	if m.drag != nil {
		t.Fatal("expected drag finished after drop")
	}
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected service drag idle after drop")
	}

	direct := newBoardService(seed...)
	direct.DragStart("a")
	direct.DragOver(context.Background(), "a", "c")
	direct.DragEnd(context.Background(), "a", "a")
	for _, status := range []string{"todo", "inprogress", "completed"} {
		if got, want := columnIDs(svc.Board(), status), columnIDs(direct.Board(), status); !equalIDs(got, want...) {
			t.Fatalf("column %s: keyboard %v, direct %v", status, got, want)
		}
	}
	if m.selectedColumn != 1 || m.selectedTask != 0 {
		t.Fatalf("expected selection to follow dropped task, got %d/%d", m.selectedColumn, m.selectedTask)
	}
}

func TestKeyboardDragReordersWithinColumnOnDrop(t *testing.T) {
	svc := newBoardService(
		boardTask("a", "Alpha", "todo"),
		boardTask("b", "Beta", "todo"),
		boardTask("c", "Gamma", "todo"),
	)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune(' '))
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	if got := columnIDs(svc.Board(), "todo"); !equalIDs(got, "a", "b", "c") {
		t.Fatalf("expected hover within column to keep order, got %v", got)
	}
	if m.dropTarget() != "c" {
		t.Fatalf("expected cursor over c, got %q", m.dropTarget())
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if got := columnIDs(svc.Board(), "todo"); !equalIDs(got, "b", "c", "a") {
		t.Fatalf("expected drop to move a into c's slot, got %v", got)
	}
	if m.selectedTask != 2 {
		t.Fatalf("expected selection on moved task, got %d", m.selectedTask)
	}
}

func TestKeyboardDragIntoEmptyColumnAppends(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"))
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune(' '))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('l'))
	b := svc.Board()
	if got := columnIDs(b, "completed"); !equalIDs(got, "a") {
		t.Fatalf("expected a in completed, got %v", got)
	}
	if len(columnIDs(b, "todo")) != 0 || len(columnIDs(b, "inprogress")) != 0 {
		t.Fatalf("expected a to leave other columns, got %#v", b.Tasks)
	}
	m = applyMsg(t, m, keyRune('h'))
	if got := columnIDs(svc.Board(), "inprogress"); !equalIDs(got, "a") {
		t.Fatalf("expected hover back to inprogress, got %v", got)
	}
	m = applyMsg(t, m, keyRune(' '))
	if m.drag != nil {
		t.Fatal("expected drop to end drag")
	}
}

func TestKeyboardDragCancel(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"), boardTask("b", "Beta", "inprogress"))
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune(' '))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.drag != nil {
		t.Fatal("expected drag cleared")
	}
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected service drag cancelled")
	}
	// hover moves are kept after cancel
	if got := columnIDs(svc.Board(), "inprogress"); !equalIDs(got, "a", "b") {
		t.Fatalf("expected hover result kept, got %v", got)
	}
}

func TestGrabOnEmptyColumn(t *testing.T) {
	svc := newBoardService()
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyRune(' '))
	if m.drag != nil || m.status != "no task selected" {
		t.Fatalf("expected no grab, got drag=%v status=%q", m.drag, m.status)
	}
}

func TestAddTaskForm(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"))
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('n'))
	if m.mode != modeAddTask {
		t.Fatalf("expected add mode, got %v", m.mode)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeAddTask || m.status != "title required" {
		t.Fatalf("expected blank title to keep form open, got mode=%v status=%q", m.mode, m.status)
	}
	for _, r := range "Ship" {
		m = applyMsg(t, m, keyRune(r))
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if m.mode != modeNone {
		t.Fatalf("expected form closed, got %v", m.mode)
	}
	todo := svc.Board().ByStatus("todo")
	if len(todo) != 2 || todo[1].Title != "Ship" || todo[1].Priority != domain.PriorityHigh {
		t.Fatalf("unexpected todo column %#v", todo)
	}
	if m.selectedTask != 1 {
		t.Fatalf("expected new task selected, got %d", m.selectedTask)
	}
}

func TestEditTaskFormSetsDueDate(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"))
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('e'))
	if m.mode != modeEditTask || m.formInputs[taskFieldTitle].Value() != "Alpha" {
		t.Fatalf("expected prefilled edit form, got mode=%v", m.mode)
	}
	for i := 0; i < 3; i++ {
		m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	}
	if m.formFocus != taskFieldDue {
		t.Fatalf("expected due field focus, got %d", m.formFocus)
	}
	for _, r := range "2026-13-01" {
		m = applyMsg(t, m, keyRune(r))
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeEditTask || !strings.Contains(m.status, "YYYY-MM-DD") {
		t.Fatalf("expected invalid due to keep form open, got mode=%v status=%q", m.mode, m.status)
	}
	m.formInputs[taskFieldDue].SetValue("2026-03-01")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	task, _ := svc.Board().Task("a")
	if task.DueDate == nil || domain.FormatDueDate(task.DueDate) != "2026-03-01" {
		t.Fatalf("expected due date set, got %v", task.DueDate)
	}
	if m.status != "task updated" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyMsg(t, m, keyRune('e'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.status != "no changes" {
		t.Fatalf("expected unchanged edit, got %q", m.status)
	}
}

func TestDeleteWithConfirmation(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"), boardTask("b", "Beta", "todo"))
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('d'))
	if m.mode != modeConfirmDelete {
		t.Fatalf("expected confirm mode, got %v", m.mode)
	}
	m = applyMsg(t, m, keyRune('n'))
	if len(svc.Board().Tasks) != 2 {
		t.Fatal("expected cancel to keep task")
	}
	m = applyMsg(t, m, keyRune('d'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if len(svc.Board().Tasks) != 2 {
		t.Fatal("expected cancel choice to keep task")
	}
	m = applyMsg(t, m, keyRune('d'))
	m = applyMsg(t, m, keyRune('y'))
	if got := columnIDs(svc.Board(), "todo"); !equalIDs(got, "b") {
		t.Fatalf("expected a deleted, got %v", got)
	}
	if m.mode != modeNone {
		t.Fatalf("expected normal mode, got %v", m.mode)
	}
}

func TestDeleteWithoutConfirmation(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"))
	m := loadReadyModel(t, NewModel(svc, WithConfirmDelete(false)))
	m = applyMsg(t, m, keyRune('d'))
	if len(svc.Board().Tasks) != 0 {
		t.Fatal("expected immediate delete")
	}
	if m.status != `deleted "Alpha"` {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestRenameColumn(t *testing.T) {
	svc := newBoardService()
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('r'))
	if m.mode != modeRenameColumn || m.renameInput.Value() != "To Do" {
		t.Fatalf("expected prefilled rename, got mode=%v value=%q", m.mode, m.renameInput.Value())
	}
	for _, r := range " later" {
		m = applyMsg(t, m, keyRune(r))
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	col, _ := svc.Board().Column("todo")
	if col.Title != "To Do later" {
		t.Fatalf("expected renamed column, got %q", col.Title)
	}

	m = applyMsg(t, m, keyRune('r'))
	m.renameInput.SetValue("   ")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeRenameColumn || m.status != "title required" {
		t.Fatalf("expected blank rename rejected, got mode=%v status=%q", m.mode, m.status)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if col, _ := svc.Board().Column("todo"); col.Title != "To Do later" {
		t.Fatalf("expected title kept, got %q", col.Title)
	}
}

func TestToggleThemeAndCopyTitle(t *testing.T) {
	var copied []string
	svc := newBoardService(boardTask("a", "Alpha", "todo"))
	m := loadReadyModel(t, NewModel(svc, WithClipboard(func(s string) error {
		copied = append(copied, s)
		return nil
	})))

	m = applyMsg(t, m, keyRune('t'))
	if svc.Board().Theme != domain.ThemeDark || m.board.Theme != domain.ThemeDark {
		t.Fatal("expected dark theme")
	}
	m = applyMsg(t, m, keyRune('y'))
	if len(copied) != 1 || copied[0] != "Alpha" {
		t.Fatalf("unexpected copied values %#v", copied)
	}

	m = NewModel(svc, WithClipboard(func(string) error { return errors.New("no clipboard") }))
	m = loadReadyModel(t, m)
	m = applyMsg(t, m, keyRune('y'))
	if !strings.Contains(m.status, "no clipboard") {
		t.Fatalf("expected copy failure status, got %q", m.status)
	}
}

func TestTaskInfoPanel(t *testing.T) {
	task := boardTask("a", "Alpha", "todo")
	task.Description = "Remember **milk**"
	svc := newBoardService(task)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('i'))
	if m.mode != modeTaskInfo {
		t.Fatalf("expected info mode, got %v", m.mode)
	}
	overlay := m.renderModeOverlay(paletteFor(m.board.Theme), 80)
	if !strings.Contains(overlay, "Task Info") || !strings.Contains(overlay, "milk") {
		t.Fatalf("expected info overlay with description, got %q", overlay)
	}
	m = applyMsg(t, m, keyRune('e'))
	if m.mode != modeEditTask {
		t.Fatalf("expected edit from info, got %v", m.mode)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	m = applyMsg(t, m, keyRune('i'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone {
		t.Fatalf("expected info closed, got %v", m.mode)
	}
}

func TestRenderColumnMarksDragAndOverdue(t *testing.T) {
	overdue := boardTask("a", "Alpha", "todo")
	due := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	overdue.DueDate = &due
	svc := newBoardService(overdue, boardTask("b", "Beta", "todo"))
	m := loadReadyModel(t, NewModel(svc, WithClock(func() time.Time {
		return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	})))

	col := m.renderColumn(0, m.board.Columns[0], paletteFor(m.board.Theme), 30, 20)
	if !strings.Contains(col, "due 2026-01-02") || !strings.Contains(col, "Beta") {
		t.Fatalf("expected rendered tasks, got %q", col)
	}

	m = applyMsg(t, m, keyRune(' '))
	m = applyMsg(t, m, keyRune('j'))
	col = m.renderColumn(0, m.board.Columns[0], paletteFor(m.board.Theme), 30, 20)
	if !strings.Contains(col, "≡ Alpha") || !strings.Contains(col, "▸ Beta") {
		t.Fatalf("expected drag markers, got %q", col)
	}
}

func TestModelViewStates(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"))
	m := NewModel(svc)
	v := m.View()
	if v.Content == nil {
		t.Fatal("expected loading view")
	}
	m = loadReadyModel(t, m)
	v = m.View()
	if v.Content == nil || v.MouseMode != tea.MouseModeCellMotion || !v.AltScreen {
		t.Fatal("expected board view with mouse and alt screen")
	}
	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll || m.renderHelpOverlay(paletteFor(m.board.Theme), 80) == "" {
		t.Fatal("expected help overlay")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.help.ShowAll {
		t.Fatal("expected help closed")
	}
}

func TestQuitCancelsDrag(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"))
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyRune(' '))
	updated, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
	if updated.(Model).drag != nil {
		t.Fatal("expected drag cleared on quit")
	}
	if _, ok := svc.ActiveDrag(); ok {
		t.Fatal("expected service drag cancelled on quit")
	}
}

func TestMouseWheelMovesSelection(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"), boardTask("b", "Beta", "todo"))
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	if m.selectedTask != 1 {
		t.Fatalf("expected wheel down to select next task, got %d", m.selectedTask)
	}
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	if m.selectedTask != 0 {
		t.Fatalf("expected wheel up to select previous task, got %d", m.selectedTask)
	}
}

func TestKeyConfigOption(t *testing.T) {
	svc := newBoardService(boardTask("a", "Alpha", "todo"))
	m := loadReadyModel(t, NewModel(svc, WithKeyConfig(KeyConfig{AddTask: "a"})))
	m = applyMsg(t, m, keyRune('a'))
	if m.mode != modeAddTask {
		t.Fatalf("expected remapped add key, got %v", m.mode)
	}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	m = applyMsg(t, m, m.Init()())
	return applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

// applyMsg runs one Update. Returned commands are dropped; the model applies
// board changes synchronously and the rest are cursor blinks.
func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
