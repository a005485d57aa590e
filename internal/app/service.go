package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/evanschultz/tavla/internal/domain"
	"github.com/google/uuid"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Defaults Defaults
	Logger   Logger
}

// Service owns the current board. Commands and drag events run one at a time;
// each committed change is written through the store and announced to
// subscribers. Storage failures are logged and never returned.
type Service struct {
	mu      sync.Mutex
	persist *persistence
	idGen   IDGenerator
	clock   Clock
	log     Logger

	board domain.Board
	drag  domain.DragSession

	subs    map[int]func(domain.Board)
	nextSub int
}

// NewService constructs a service. A nil store keeps the board in memory only
// and a nil idGen falls back to random UUIDs.
// The board starts from defaults until Load is called.
func NewService(store KVStore, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}
	s := &Service{
		idGen: idGen,
		clock: clock,
		log:   log,
		subs:  map[int]func(domain.Board){},
	}
	p := newPersistence(store, cfg.Defaults, log)
	if store != nil {
		s.persist = p
	}
	s.board, _ = domain.RepairBoard(p.defaults.Columns, p.defaults.Tasks, p.defaults.Theme)
	return s
}

// Load replaces the board with the stored one. Keys that were missing or
// repaired are written back so storage matches what is shown.
func (s *Service) Load(ctx context.Context) LoadReport {
	s.mu.Lock()
	if s.persist == nil {
		s.mu.Unlock()
		return LoadReport{}
	}
	board, report := s.persist.load(ctx)
	keys := append([]string(nil), report.Missing...)
	if len(report.Repairs) > 0 {
		keys = append(keys, KeyTasks, KeyColumns)
	}
	s.drag.Cancel()
	notify := s.commitLocked(ctx, board, dedupe(keys)...)
	s.mu.Unlock()

	s.log.Info("board loaded", "tasks", len(board.Tasks), "columns", len(board.Columns), "theme", board.Theme)
	notify()
	return report
}

// Board returns a copy of the current board.
func (s *Service) Board() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

// AddTaskInput holds input values for add task operations.
type AddTaskInput struct {
	Title       string
	Priority    domain.Priority
	Description string
	DueDate     *time.Time
}

// AddTask appends a task to the first column. A blank title adds nothing.
func (s *Service) AddTask(ctx context.Context, in AddTaskInput) (domain.Task, bool) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Task{}, false
	}
	s.mu.Lock()
	id := s.idGen()
	for attempts := 0; s.board.TaskIndex(id) >= 0 && attempts < 8; attempts++ {
		id = s.idGen()
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:          id,
		Title:       in.Title,
		Status:      s.board.DefaultStatus(),
		Priority:    domain.NormalizePriority(in.Priority),
		Description: in.Description,
		DueDate:     in.DueDate,
	})
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("task not added", "err", err)
		return domain.Task{}, false
	}
	next, changed := s.board.AddTask(task)
	if !changed {
		s.mu.Unlock()
		return domain.Task{}, false
	}
	notify := s.commitLocked(ctx, next, KeyTasks)
	s.mu.Unlock()

	s.log.Debug("task added", "id", task.ID, "status", task.Status)
	notify()
	return task, true
}

// RemoveTask deletes a task.
func (s *Service) RemoveTask(ctx context.Context, id string) bool {
	return s.apply(ctx, KeyTasks, func(b domain.Board) (domain.Board, bool) {
		if active, ok := s.drag.Active(); ok && active == id {
			s.drag.Cancel()
		}
		return b.RemoveTask(id)
	})
}

// UpdateTask merges a patch into a task.
func (s *Service) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) bool {
	return s.apply(ctx, KeyTasks, func(b domain.Board) (domain.Board, bool) {
		return b.UpdateTask(id, patch)
	})
}

// RenameColumn sets a column title. Blank titles are ignored.
func (s *Service) RenameColumn(ctx context.Context, id, title string) bool {
	return s.apply(ctx, KeyColumns, func(b domain.Board) (domain.Board, bool) {
		return b.RenameColumn(id, title)
	})
}

// SetTheme switches to the given theme.
func (s *Service) SetTheme(ctx context.Context, theme domain.Theme) bool {
	return s.apply(ctx, KeyDarkMode, func(b domain.Board) (domain.Board, bool) {
		return b.WithTheme(theme)
	})
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Service) ToggleTheme(ctx context.Context) domain.Theme {
	var theme domain.Theme
	s.apply(ctx, KeyDarkMode, func(b domain.Board) (domain.Board, bool) {
		next, changed := b.WithTheme(b.Theme.Toggle())
		theme = next.Theme
		return next, changed
	})
	return theme
}

// DragStart begins dragging a task.
func (s *Service) DragStart(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.drag.Start(s.board, id)
	if ok {
		s.log.Debug("drag started", "id", id)
	}
	return ok
}

// DragOver applies a hover event. An empty overID means no drop target.
func (s *Service) DragOver(ctx context.Context, activeID, overID string) bool {
	return s.apply(ctx, KeyTasks, func(b domain.Board) (domain.Board, bool) {
		return s.drag.Over(b, activeID, overID)
	})
}

// DragEnd applies a drop event and ends the drag.
func (s *Service) DragEnd(ctx context.Context, activeID, overID string) bool {
	return s.apply(ctx, KeyTasks, func(b domain.Board) (domain.Board, bool) {
		next, changed := s.drag.End(b, activeID, overID)
		s.log.Debug("drag ended", "id", activeID, "over", overID, "changed", changed)
		return next, changed
	})
}

// DragCancel ends the drag without a drop target.
func (s *Service) DragCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Cancel()
}

// ActiveDrag returns the id of the dragged task, if any.
func (s *Service) ActiveDrag() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.Active()
}

// Subscribe registers fn to receive every committed board. The returned func
// removes the subscription.
func (s *Service) Subscribe(fn func(domain.Board)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// apply runs fn against the current board under the lock and commits the
// result when it reports a change.
func (s *Service) apply(ctx context.Context, key string, fn func(domain.Board) (domain.Board, bool)) bool {
	s.mu.Lock()
	next, changed := fn(s.board)
	if !changed {
		s.mu.Unlock()
		return false
	}
	notify := s.commitLocked(ctx, next, key)
	s.mu.Unlock()
	notify()
	return true
}

// commitLocked replaces the board and saves the named keys. It returns a func
// that notifies subscribers; call it after releasing the lock.
func (s *Service) commitLocked(ctx context.Context, next domain.Board, keys ...string) func() {
	s.board = next
	if s.persist != nil && len(keys) > 0 {
		if err := s.persist.save(ctx, next, keys...); err != nil {
			s.log.Error("save board failed", "keys", strings.Join(keys, ","), "err", err)
		}
	}
	if len(s.subs) == 0 {
		return func() {}
	}
	subs := make([]func(domain.Board), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(next.Clone())
		}
	}
}

func dedupe(keys []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
