package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/tavla/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "tavla.snapshot.v1"

// Snapshot is a portable copy of the whole board.
type Snapshot struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Theme      domain.Theme    `json:"theme"`
	Columns    []domain.Column `json:"columns"`
	Tasks      []domain.Task   `json:"tasks"`
}

// ExportSnapshot returns the current board as a snapshot.
func (s *Service) ExportSnapshot() Snapshot {
	board := s.Board()
	tasks := board.Tasks
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Theme:      board.Theme,
		Columns:    board.Columns,
		Tasks:      tasks,
	}
}

// ImportSnapshot replaces the board with snap. The snapshot must carry a
// supported version and at least one column; the rest is repaired the same
// way stored data is. Any drag in progress is cancelled.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	board, repairs := domain.RepairBoard(snap.Columns, snap.Tasks, snap.Theme)
	for _, note := range repairs {
		s.log.Warn("repaired imported snapshot", "repair", note)
	}

	s.mu.Lock()
	s.drag.Cancel()
	notify := s.commitLocked(ctx, board, allKeys...)
	s.mu.Unlock()

	s.log.Info("snapshot imported", "tasks", len(board.Tasks), "columns", len(board.Columns))
	notify()
	return nil
}

// Validate checks the snapshot version and that it has columns.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedSnapshot, s.Version)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidSnapshot)
	}
	for idx, c := range s.Columns {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: columns[%d] has no id", ErrInvalidSnapshot, idx)
		}
	}
	return nil
}

// DecodeSnapshot validates raw JSON against the snapshot schema and decodes it.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	if err := validateBlob(defaultSchemas.snapshot, raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

// EncodeSnapshot renders snap as indented JSON.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(raw, '\n'), nil
}
