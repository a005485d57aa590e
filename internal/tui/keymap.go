package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig overrides single bindings. Blank fields keep the default key.
type KeyConfig struct {
	Grab        string
	AddTask     string
	EditTask    string
	DeleteTask  string
	RenameCol   string
	ToggleTheme string
	TaskInfo    string
	CopyTitle   string
}

type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	grab        key.Binding
	drop        key.Binding
	cancel      key.Binding
	addTask     key.Binding
	editTask    key.Binding
	deleteTask  key.Binding
	renameCol   key.Binding
	toggleTheme key.Binding
	taskInfo    key.Binding
	copyTitle   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		grab:        key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "grab task")),
		drop:        key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space/enter", "drop")),
		cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		addTask:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		editTask:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit task")),
		deleteTask:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete task")),
		renameCol:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename column")),
		toggleTheme: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle theme")),
		taskInfo:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "task info")),
		copyTitle:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
	}
}

// applyConfig rebinds the configurable actions.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.grab, cfg.Grab, "space", "grab task")
	configureBinding(&k.addTask, cfg.AddTask, "n", "new task")
	configureBinding(&k.editTask, cfg.EditTask, "e", "edit task")
	configureBinding(&k.deleteTask, cfg.DeleteTask, "d", "delete task")
	configureBinding(&k.renameCol, cfg.RenameCol, "r", "rename column")
	configureBinding(&k.toggleTheme, cfg.ToggleTheme, "t", "toggle theme")
	configureBinding(&k.taskInfo, cfg.TaskInfo, "i", "task info")
	configureBinding(&k.copyTitle, cfg.CopyTitle, "y", "copy title")
}

// configureBinding replaces b's keys and help text with raw, or fallback when raw is blank.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a user-facing key name into the strings tea reports
// for it. Single uppercase runes also match their shift+ form.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") || raw == " " {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp lists the footer bindings.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.grab, k.addTask, k.editTask, k.deleteTask, k.taskInfo, k.toggleHelp, k.quit}
}

// FullHelp groups every binding for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.grab, k.drop, k.cancel},
		{k.addTask, k.editTask, k.deleteTask, k.renameCol},
		{k.taskInfo, k.copyTitle, k.toggleTheme, k.toggleHelp, k.quit},
	}
}

// dragKeyMap narrows the footer while a task is grabbed.
type dragKeyMap struct {
	keyMap
}

// ShortHelp lists the bindings that act on a grabbed task.
func (k dragKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.drop, k.cancel}
}
