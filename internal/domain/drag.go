package domain

import "slices"

// DragState is the state of a DragSession.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

// String returns a readable state name.
func (s DragState) String() string {
	if s == DragDragging {
		return "dragging"
	}
	return "idle"
}

// DragSession tracks one drag interaction and computes the board produced by
// each drag event. An empty overID means the pointer is over no drop target.
//
// Over handles cross-column moves only. End handles reordering inside a
// column. A column id as overID appends to that column during Over and does
// nothing at End.
type DragSession struct {
	state    DragState
	activeID string

	hasLast    bool
	lastOverID string
	lastStatus string
	lastIndex  int
}

// State returns the current state.
func (s *DragSession) State() DragState {
	return s.state
}

// Active returns the id of the dragged task while a drag is in progress.
func (s *DragSession) Active() (string, bool) {
	if s.state != DragDragging {
		return "", false
	}
	return s.activeID, true
}

// Start begins dragging activeID. Any earlier session is dropped first, so an
// unknown id leaves the session idle.
func (s *DragSession) Start(b Board, activeID string) bool {
	s.reset()
	if b.TaskIndex(activeID) < 0 {
		return false
	}
	s.state = DragDragging
	s.activeID = activeID
	return true
}

// Cancel returns the session to idle without touching the board.
func (s *DragSession) Cancel() {
	s.reset()
}

// Over moves the active task into the column under the pointer. It returns
// the next board and whether it differs from b.
func (s *DragSession) Over(b Board, activeID, overID string) (Board, bool) {
	if overID == "" || activeID == overID || s.foreign(activeID) {
		return b, false
	}
	activeIdx := b.TaskIndex(activeID)
	if activeIdx < 0 {
		return b, false
	}
	active := b.Tasks[activeIdx]
	if s.hasLast && s.lastOverID == overID && s.lastStatus == active.Status {
		return b, false
	}

	target, insertAt, ok := resolveDropTarget(b, overID)
	if !ok {
		return b, false
	}
	s.hasLast = true
	s.lastOverID = overID
	s.lastStatus = target
	s.lastIndex = insertAt
	if target == active.Status {
		return b, false
	}

	rest := slices.Clone(b.Tasks)
	rest = slices.Delete(rest, activeIdx, activeIdx+1)
	list := filterStatus(rest, target)
	insertAt = min(max(insertAt, 0), len(list))
	moved := active.Clone()
	moved.Status = target
	list = slices.Insert(list, insertAt, moved)

	next := b.Clone()
	next.Tasks = b.withColumn(target, list, rest)
	return next, true
}

// End finishes the drag. The session is idle afterwards regardless of the
// outcome. When the active task and the task under the pointer share a
// column, the active task takes the other's position in that column.
func (s *DragSession) End(b Board, activeID, overID string) (Board, bool) {
	foreign := s.foreign(activeID)
	s.reset()
	if foreign || overID == "" || activeID == overID {
		return b, false
	}
	active, ok := b.Task(activeID)
	if !ok {
		return b, false
	}
	over, ok := b.Task(overID)
	if !ok || over.Status != active.Status {
		return b, false
	}

	list := b.ByStatus(active.Status)
	from := slices.IndexFunc(list, func(t Task) bool { return t.ID == activeID })
	to := slices.IndexFunc(list, func(t Task) bool { return t.ID == overID })
	if from < 0 || to < 0 || from == to {
		return b, false
	}
	list = moveWithin(list, from, to)

	next := b.Clone()
	next.Tasks = b.withColumn(active.Status, list, b.Tasks)
	return next, true
}

// foreign reports whether a drag is in progress for a different task.
func (s *DragSession) foreign(activeID string) bool {
	return s.state == DragDragging && s.activeID != activeID
}

func (s *DragSession) reset() {
	*s = DragSession{}
}

// resolveDropTarget maps overID to a target status and insert position. A
// column id resolves to the end of that column; a task id resolves to that
// task's position in its column.
func resolveDropTarget(b Board, overID string) (string, int, bool) {
	if b.HasColumn(overID) {
		return overID, len(b.ByStatus(overID)), true
	}
	over, ok := b.Task(overID)
	if !ok {
		return "", 0, false
	}
	list := b.ByStatus(over.Status)
	idx := slices.IndexFunc(list, func(t Task) bool { return t.ID == overID })
	return over.Status, idx, true
}

// moveWithin removes the element at from and reinserts it at to.
func moveWithin(list []Task, from, to int) []Task {
	out := slices.Clone(list)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}
