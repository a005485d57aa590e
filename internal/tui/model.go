package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/evanschultz/tavla/internal/app"
	"github.com/evanschultz/tavla/internal/domain"
)

// Service is the board surface the model drives. *app.Service satisfies it.
type Service interface {
	Board() domain.Board
	AddTask(context.Context, app.AddTaskInput) (domain.Task, bool)
	RemoveTask(context.Context, string) bool
	UpdateTask(context.Context, string, domain.TaskPatch) bool
	RenameColumn(context.Context, string, string) bool
	ToggleTheme(context.Context) domain.Theme
	DragStart(string) bool
	DragOver(context.Context, string, string) bool
	DragEnd(context.Context, string, string) bool
	DragCancel()
	ActiveDrag() (string, bool)
}

type inputMode int

const (
	modeNone inputMode = iota
	modeAddTask
	modeEditTask
	modeRenameColumn
	modeConfirmDelete
	modeTaskInfo
)

// taskFormFields stores task-form field keys in display order.
var taskFormFields = []string{"title", "description", "priority", "due"}

const (
	taskFieldTitle = iota
	taskFieldDescription
	taskFieldPriority
	taskFieldDue
)

var priorityOptions = domain.Priorities()

// Model is the Bubble Tea board model.
type Model struct {
	svc Service

	board          domain.Board
	loaded         bool
	selectedColumn int
	selectedTask   int

	// drag is non-nil while a task is grabbed with the keyboard.
	drag *dragCursor

	mode          inputMode
	formInputs    []textinput.Model
	formFocus     int
	priorityIdx   int
	editingTaskID string
	renameInput   textinput.Model
	renamingColID string
	pendingDelete string
	confirmChoice int
	infoTaskID    string

	fields        FieldConfig
	confirmDelete bool
	copyText      func(string) error
	now           func() time.Time
	md            *markdownRenderer

	help   help.Model
	keys   keyMap
	status string
	width  int
	height int
	ready  bool
}

type boardLoadedMsg struct {
	board domain.Board
}

// NewModel constructs the board model.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:           svc,
		status:        "loading...",
		help:          h,
		keys:          newKeyMap(),
		fields:        DefaultFieldConfig(),
		confirmDelete: true,
		copyText:      clipboard.WriteAll,
		now:           time.Now,
		md:            &markdownRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadBoard
}

func (m Model) loadBoard() tea.Msg {
	return boardLoadedMsg{board: m.svc.Board()}
}

// Update routes messages to the active mode.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.board = msg.board
		m.loaded = true
		m.clampSelections()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case tea.KeyPressMsg:
		switch {
		case m.drag != nil:
			return m.handleDragKey(msg)
		case m.mode != modeNone:
			return m.handleInputModeKey(msg)
		default:
			return m.handleNormalModeKey(msg)
		}

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// refresh re-reads the board after a service call.
func (m *Model) refresh() {
	m.board = m.svc.Board()
	if m.drag != nil {
		if active, ok := m.svc.ActiveDrag(); !ok || active != m.drag.activeID {
			m.drag = nil
		}
	}
	m.clampSelections()
}

func (m Model) ctx() context.Context {
	return context.Background()
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.board.Columns)-1 {
			m.selectedColumn++
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if tasks := m.currentColumnTasks(); m.selectedTask < len(tasks)-1 {
			m.selectedTask++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil
	case key.Matches(msg, m.keys.grab):
		return m.startDrag()
	case key.Matches(msg, m.keys.addTask):
		m.help.ShowAll = false
		return m, m.startTaskForm(nil)
	case key.Matches(msg, m.keys.editTask):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.startTaskForm(&task)
	case key.Matches(msg, m.keys.deleteTask):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		if !m.confirmDelete {
			return m.deleteTask(task.ID)
		}
		m.mode = modeConfirmDelete
		m.pendingDelete = task.ID
		m.confirmChoice = 0
		m.status = "confirm delete"
		return m, nil
	case key.Matches(msg, m.keys.renameCol):
		return m, m.startRenameColumn()
	case key.Matches(msg, m.keys.toggleTheme):
		theme := m.svc.ToggleTheme(m.ctx())
		m.refresh()
		m.status = "theme: " + string(theme)
		return m, nil
	case key.Matches(msg, m.keys.taskInfo):
		task, ok := m.selectedTaskInCurrentColumn()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
		m.infoTaskID = task.ID
		m.status = "task info"
		return m, nil
	case key.Matches(msg, m.keys.copyTitle):
		return m.copySelectedTitle()
	default:
		return m, nil
	}
}

func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeConfirmDelete:
		switch msg.String() {
		case "esc", "n":
			m.mode = modeNone
			m.pendingDelete = ""
			m.status = "cancelled"
			return m, nil
		case "h", "left", "l", "right", "tab":
			m.confirmChoice = 1 - m.confirmChoice
			return m, nil
		case "y":
			m.confirmChoice = 0
			return m.applyConfirmedDelete()
		case "enter":
			if m.confirmChoice == 1 {
				m.mode = modeNone
				m.pendingDelete = ""
				m.status = "cancelled"
				return m, nil
			}
			return m.applyConfirmedDelete()
		default:
			return m, nil
		}

	case modeTaskInfo:
		task, ok := m.board.Task(m.infoTaskID)
		if !ok {
			m.mode = modeNone
			m.infoTaskID = ""
			m.status = "task info unavailable"
			return m, nil
		}
		switch {
		case msg.String() == "esc" || key.Matches(msg, m.keys.taskInfo) || key.Matches(msg, m.keys.quit):
			m.mode = modeNone
			m.infoTaskID = ""
			m.status = "ready"
			return m, nil
		case key.Matches(msg, m.keys.editTask):
			m.infoTaskID = ""
			return m, m.startTaskForm(&task)
		case key.Matches(msg, m.keys.copyTitle):
			return m.copyTitle(task)
		default:
			return m, nil
		}

	case modeRenameColumn:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.renamingColID = ""
			m.status = "cancelled"
			return m, nil
		case "enter":
			return m.submitRenameColumn()
		default:
			var cmd tea.Cmd
			m.renameInput, cmd = m.renameInput.Update(msg)
			return m, cmd
		}

	case modeAddTask, modeEditTask:
		switch msg.String() {
		case "esc":
			m.closeTaskForm()
			m.status = "cancelled"
			return m, nil
		case "tab":
			m.cyclePriority(1)
			return m, nil
		case "shift+tab":
			m.cyclePriority(-1)
			return m, nil
		case "down":
			return m, m.focusTaskFormField(m.formFocus + 1)
		case "up":
			return m, m.focusTaskFormField(m.formFocus - 1)
		case "enter":
			return m.submitTaskForm()
		}
		if m.formFocus == taskFieldPriority {
			switch msg.String() {
			case "h", "left":
				m.cyclePriority(-1)
			case "l", "right", "space", " ":
				m.cyclePriority(1)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.drag != nil || m.help.ShowAll {
		return m, nil
	}
	tasks := m.currentColumnTasks()
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedTask > 0 {
			m.selectedTask--
		}
	case tea.MouseWheelDown:
		if m.selectedTask < len(tasks)-1 {
			m.selectedTask++
		}
	}
	return m, nil
}

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

// startTaskForm opens the add form, or the edit form when task is non-nil.
func (m *Model) startTaskForm(task *domain.Task) tea.Cmd {
	m.formFocus = 0
	m.priorityIdx = priorityIndex(domain.PriorityMedium)
	m.formInputs = []textinput.Model{
		newModalInput("", "task title (required)", "", 120),
		newModalInput("", "markdown description", "", 480),
		newModalInput("", "", "", 0),
		newModalInput("", "YYYY-MM-DD (blank for none)", "", 10),
	}
	if task != nil {
		m.formInputs[taskFieldTitle].SetValue(task.Title)
		m.formInputs[taskFieldDescription].SetValue(task.Description)
		m.formInputs[taskFieldDue].SetValue(domain.FormatDueDate(task.DueDate))
		m.priorityIdx = priorityIndex(task.Priority)
		m.mode = modeEditTask
		m.editingTaskID = task.ID
		m.status = "edit task"
	} else {
		m.mode = modeAddTask
		m.editingTaskID = ""
		m.status = "new task"
	}
	return m.focusTaskFormField(taskFieldTitle)
}

func (m *Model) focusTaskFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	idx = clamp(idx, 0, len(m.formInputs)-1)
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	if idx == taskFieldPriority {
		return nil
	}
	return m.formInputs[idx].Focus()
}

func (m *Model) closeTaskForm() {
	m.mode = modeNone
	m.formInputs = nil
	m.formFocus = 0
	m.editingTaskID = ""
}

func (m *Model) cyclePriority(delta int) {
	m.priorityIdx = wrapIndex(m.priorityIdx, delta, len(priorityOptions))
}

func priorityIndex(p domain.Priority) int {
	for idx, opt := range priorityOptions {
		if opt == p {
			return idx
		}
	}
	return 1
}

func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.formInputs[taskFieldTitle].Value())
	description := strings.TrimSpace(m.formInputs[taskFieldDescription].Value())
	priority := priorityOptions[m.priorityIdx]
	due, err := domain.ParseDueDate(m.formInputs[taskFieldDue].Value())
	if err != nil {
		m.status = "due date must be YYYY-MM-DD"
		return m, m.focusTaskFormField(taskFieldDue)
	}

	if m.mode == modeAddTask {
		if title == "" {
			m.status = "title required"
			return m, m.focusTaskFormField(taskFieldTitle)
		}
		m.closeTaskForm()
		task, ok := m.svc.AddTask(m.ctx(), app.AddTaskInput{
			Title:       title,
			Priority:    priority,
			Description: description,
			DueDate:     due,
		})
		m.refresh()
		if !ok {
			m.status = "task not added"
			return m, nil
		}
		m.focusTaskByID(task.ID)
		m.status = fmt.Sprintf("added %q", truncate(task.Title, 32))
		return m, nil
	}

	taskID := m.editingTaskID
	patch := domain.TaskPatch{
		Title:       &title,
		Description: &description,
		Priority:    &priority,
		DueDate:     due,
	}
	if due == nil {
		patch.ClearDueDate = true
	}
	m.closeTaskForm()
	if m.svc.UpdateTask(m.ctx(), taskID, patch) {
		m.status = "task updated"
	} else {
		m.status = "no changes"
	}
	m.refresh()
	m.focusTaskByID(taskID)
	return m, nil
}

func (m *Model) startRenameColumn() tea.Cmd {
	col, ok := m.currentColumn()
	if !ok {
		m.status = "no column selected"
		return nil
	}
	m.mode = modeRenameColumn
	m.renamingColID = col.ID
	m.renameInput = newModalInput("title: ", "column title", col.Title, 60)
	m.status = "rename column"
	return m.renameInput.Focus()
}

func (m Model) submitRenameColumn() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.renameInput.Value())
	colID := m.renamingColID
	if title == "" {
		m.status = "title required"
		return m, nil
	}
	m.mode = modeNone
	m.renamingColID = ""
	if m.svc.RenameColumn(m.ctx(), colID, title) {
		m.status = fmt.Sprintf("renamed column to %q", title)
	} else {
		m.status = "no changes"
	}
	m.refresh()
	return m, nil
}

func (m Model) applyConfirmedDelete() (tea.Model, tea.Cmd) {
	id := m.pendingDelete
	m.mode = modeNone
	m.pendingDelete = ""
	return m.deleteTask(id)
}

func (m Model) deleteTask(id string) (tea.Model, tea.Cmd) {
	task, _ := m.board.Task(id)
	if m.svc.RemoveTask(m.ctx(), id) {
		m.status = fmt.Sprintf("deleted %q", truncate(task.Title, 32))
	} else {
		m.status = "task not found"
	}
	m.refresh()
	return m, nil
}

func (m Model) copySelectedTitle() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTaskInCurrentColumn()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	return m.copyTitle(task)
}

func (m Model) copyTitle(task domain.Task) (tea.Model, tea.Cmd) {
	if err := m.copyText(task.Title); err != nil {
		m.status = "copy failed: " + err.Error()
		return m, nil
	}
	m.status = fmt.Sprintf("copied %q", truncate(task.Title, 32))
	return m, nil
}

func (m Model) currentColumn() (domain.Column, bool) {
	if len(m.board.Columns) == 0 {
		return domain.Column{}, false
	}
	return m.board.Columns[clamp(m.selectedColumn, 0, len(m.board.Columns)-1)], true
}

func (m Model) currentColumnTasks() []domain.Task {
	col, ok := m.currentColumn()
	if !ok {
		return nil
	}
	return m.board.ByStatus(col.ID)
}

func (m Model) selectedTaskInCurrentColumn() (domain.Task, bool) {
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 {
		return domain.Task{}, false
	}
	return tasks[clamp(m.selectedTask, 0, len(tasks)-1)], true
}

// focusTaskByID moves the selection onto the task with id.
func (m *Model) focusTaskByID(id string) {
	task, ok := m.board.Task(id)
	if !ok {
		return
	}
	if col := m.board.ColumnIndex(task.Status); col >= 0 {
		m.selectedColumn = col
		m.selectedTask = max(0, m.board.PositionInColumn(id))
	}
}

func (m *Model) clampSelections() {
	if len(m.board.Columns) == 0 {
		m.selectedColumn = 0
		m.selectedTask = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.board.Columns)-1)
	m.selectedTask = clamp(m.selectedTask, 0, max(0, len(m.currentColumnTasks())-1))
}

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

func wrapIndex(current, delta, total int) int {
	if total <= 0 {
		return 0
	}
	return ((current+delta)%total + total) % total
}
