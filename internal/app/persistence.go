package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/evanschultz/tavla/internal/domain"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Storage keys for the persisted board.
const (
	KeyTasks    = "tasks"
	KeyColumns  = "columns"
	KeyDarkMode = "darkMode"
)

var allKeys = []string{KeyTasks, KeyColumns, KeyDarkMode}

// Defaults is the state used for keys that are missing or unusable.
type Defaults struct {
	Columns []domain.Column
	Tasks   []domain.Task
	Theme   domain.Theme
}

// LoadReport describes how a board was assembled from storage.
type LoadReport struct {
	// Missing lists keys that were absent and took their defaults.
	Missing []string
	// Invalid lists keys whose stored value could not be read, decoded, or
	// validated and took their defaults.
	Invalid []string
	// Repairs describes fixes applied to otherwise valid data.
	Repairs []string
}

// Defaulted reports whether key came from defaults.
func (r LoadReport) Defaulted(key string) bool {
	return slices.Contains(r.Missing, key) || slices.Contains(r.Invalid, key)
}

// persistence maps a board to three JSON values in a KVStore.
type persistence struct {
	store    KVStore
	schemas  *blobSchemas
	defaults Defaults
	log      Logger
}

var defaultSchemas = mustCompileBlobSchemas()

func mustCompileBlobSchemas() *blobSchemas {
	schemas, err := compileBlobSchemas()
	if err != nil {
		panic(err)
	}
	return schemas
}

func newPersistence(store KVStore, defaults Defaults, log Logger) *persistence {
	if len(defaults.Columns) == 0 {
		defaults.Columns = domain.DefaultColumns()
	}
	if defaults.Theme == "" {
		defaults.Theme = domain.ThemeLight
	}
	return &persistence{
		store:    store,
		schemas:  defaultSchemas,
		defaults: defaults,
		log:      log,
	}
}

// load reads each key independently and falls back to defaults per key.
func (p *persistence) load(ctx context.Context) (domain.Board, LoadReport) {
	var report LoadReport

	columns := slices.Clone(p.defaults.Columns)
	if raw, ok := p.read(ctx, KeyColumns, p.schemas.columns, &report); ok {
		var decoded []domain.Column
		if err := json.Unmarshal(raw, &decoded); err != nil {
			p.invalid(&report, KeyColumns, err)
		} else {
			columns = decoded
		}
	}

	tasks := cloneTaskSlice(p.defaults.Tasks)
	if raw, ok := p.read(ctx, KeyTasks, p.schemas.tasks, &report); ok {
		var decoded []domain.Task
		if err := json.Unmarshal(raw, &decoded); err != nil {
			p.invalid(&report, KeyTasks, err)
		} else {
			tasks = decoded
		}
	}

	theme := p.defaults.Theme
	if raw, ok := p.read(ctx, KeyDarkMode, nil, &report); ok {
		parsed, err := domain.ParseTheme(string(raw))
		if err != nil {
			p.invalid(&report, KeyDarkMode, err)
		} else {
			theme = parsed
		}
	}

	board, repairs := domain.RepairBoard(columns, tasks, theme)
	report.Repairs = repairs
	for _, note := range repairs {
		p.log.Warn("repaired stored board", "repair", note)
	}
	return board, report
}

// read fetches one key and validates it. ok is false when the caller should
// keep the default.
func (p *persistence) read(ctx context.Context, key string, schema *jsonschema.Schema, report *LoadReport) ([]byte, bool) {
	raw, found, err := p.store.Get(ctx, key)
	if err != nil {
		p.invalid(report, key, err)
		return nil, false
	}
	if !found {
		report.Missing = append(report.Missing, key)
		return nil, false
	}
	if schema != nil {
		if err := validateBlob(schema, raw); err != nil {
			p.invalid(report, key, err)
			return nil, false
		}
	}
	return raw, true
}

func (p *persistence) invalid(report *LoadReport, key string, err error) {
	report.Invalid = append(report.Invalid, key)
	p.log.Warn("stored value unusable, using default", "key", key, "err", err)
}

// save writes the given keys, or every key when none are named.
func (p *persistence) save(ctx context.Context, board domain.Board, keys ...string) error {
	if len(keys) == 0 {
		keys = allKeys
	}
	var errs []error
	for _, key := range keys {
		raw, err := encodeKey(board, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.store.Put(ctx, key, raw); err != nil {
			errs = append(errs, fmt.Errorf("put %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func encodeKey(board domain.Board, key string) ([]byte, error) {
	switch key {
	case KeyTasks:
		tasks := board.Tasks
		if tasks == nil {
			tasks = []domain.Task{}
		}
		return json.Marshal(tasks)
	case KeyColumns:
		return json.Marshal(board.Columns)
	case KeyDarkMode:
		if board.Theme.Dark() {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	default:
		return nil, fmt.Errorf("unknown storage key %q", key)
	}
}

func cloneTaskSlice(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Clone())
	}
	return out
}
