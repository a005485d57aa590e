package tui

import "time"

// FieldConfig selects which task fields appear on board cards.
type FieldConfig struct {
	ShowPriority    bool
	ShowDueDate     bool
	ShowDescription bool
}

type Option func(*Model)

func DefaultFieldConfig() FieldConfig {
	return FieldConfig{
		ShowPriority:    true,
		ShowDueDate:     true,
		ShowDescription: false,
	}
}

func WithFieldConfig(cfg FieldConfig) Option {
	return func(m *Model) {
		m.fields = cfg
	}
}

// WithConfirmDelete toggles the confirmation modal shown before delete.
func WithConfirmDelete(confirm bool) Option {
	return func(m *Model) {
		m.confirmDelete = confirm
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}
